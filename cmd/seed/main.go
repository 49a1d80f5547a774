// seed carga productos de catálogo en PostgreSQL para desarrollo local.
//
// Uso: go run ./cmd/seed [ruta/productos.json]
// El JSON es una lista de objetos con id, sku, name, price, stock_in_pieces,
// pieces_per_sheet, sheets_per_box y reorder_level. Los productos existentes se omiten.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

type seedProduct struct {
	ID             string          `json:"id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	StockInPieces  int64           `json:"stock_in_pieces"`
	PiecesPerSheet int             `json:"pieces_per_sheet"`
	SheetsPerBox   int             `json:"sheets_per_box"`
	ReorderLevel   int64           `json:"reorder_level"`
}

func main() {
	path := "productos.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer %s: %v\n", path, err)
		os.Exit(1)
	}
	var items []seedProduct
	if err := json.Unmarshal(raw, &items); err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar JSON: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("seed")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	repo := postgres.NewProductRepository(pool)

	var created, skipped int
	now := time.Now()
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		err := repo.Create(ctx, &entity.Product{
			ID:             it.ID,
			SKU:            it.SKU,
			Name:           it.Name,
			Price:          it.Price,
			StockInPieces:  it.StockInPieces,
			PiecesPerSheet: it.PiecesPerSheet,
			SheetsPerBox:   it.SheetsPerBox,
			ReorderLevel:   it.ReorderLevel,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		switch {
		case errors.Is(err, domain.ErrConflict):
			skipped++
		case err != nil:
			log.Fatal().Err(err).Str("sku", it.SKU).Msg("insertar producto")
		default:
			created++
		}
	}
	log.Info().Int("creados", created).Int("omitidos", skipped).Msg("seed terminado")
}
