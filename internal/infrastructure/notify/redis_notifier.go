package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var _ ports.LowStockNotifier = (*RedisNotifier)(nil)

const eventLowStock = "inventory.low_stock"

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// LowStockEvent mensaje publicado en el canal de Redis.
type LowStockEvent struct {
	Event        string    `json:"event"`
	ProductID    string    `json:"product_id"`
	StockAfter   int64     `json:"stock_after"`
	ReorderLevel int64     `json:"reorder_level"`
	At           time.Time `json:"at"`
}

// RedisNotifier publica avisos de stock bajo por pub/sub para el servicio de notificaciones.
type RedisNotifier struct {
	pub     publisher
	raw     *redis.Client
	channel string
	log     *logger.Logger
	now     func() time.Time
}

// NewRedisNotifier conecta con Redis (REDIS_URL) y verifica la conexión.
func NewRedisNotifier(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisNotifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.WriteTimeout = 3 * time.Second
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	n := newRedisNotifier(raw, cfg.LowStockChannel, log)
	n.raw = raw
	return n, nil
}

func newRedisNotifier(pub publisher, channel string, log *logger.Logger) *RedisNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisNotifier{pub: pub, channel: channel, log: log.Component("low_stock"), now: time.Now}
}

// NotifyLowStock publica el evento en el canal configurado.
func (n *RedisNotifier) NotifyLowStock(ctx context.Context, productID string, stockAfter, reorderLevel int64) error {
	payload, err := json.Marshal(LowStockEvent{
		Event:        eventLowStock,
		ProductID:    productID,
		StockAfter:   stockAfter,
		ReorderLevel: reorderLevel,
		At:           n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal low stock event: %w", err)
	}
	receivers, err := n.pub.Publish(ctx, n.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", n.channel, err)
	}
	n.log.Debug().Str("product_id", productID).Int64("receivers", receivers).Msg("aviso de stock bajo publicado")
	return nil
}

// Ping verifica la conexión (health check).
func (n *RedisNotifier) Ping(ctx context.Context) error {
	if n.raw == nil {
		return nil
	}
	return n.raw.Ping(ctx).Err()
}

// Close cierra la conexión.
func (n *RedisNotifier) Close() error {
	if n.raw == nil {
		return nil
	}
	return n.raw.Close()
}
