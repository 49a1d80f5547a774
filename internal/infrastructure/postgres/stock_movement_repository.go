package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, sequence, product_id, movement_type, quantity, reason, reference_id, reference_type, stock_before, stock_after, created_at`

// StockMovementRepo libro de movimientos sobre PostgreSQL. Solo inserta y lee: la tabla
// no admite UPDATE ni DELETE desde la aplicación.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el movimiento; la base asigna sequence.
func (r *StockMovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, movement_type, quantity, reason, reference_id, reference_type, stock_before, stock_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING sequence`
	err := r.q.QueryRow(ctx, query,
		movement.ID, movement.ProductID, movement.Type, movement.Quantity, movement.Reason,
		movement.ReferenceID, movement.ReferenceType, movement.StockBefore, movement.StockAfter,
		movement.CreatedAt,
	).Scan(&movement.Sequence)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// ListByReference movimientos atribuidos a referenceID en orden de sequence.
func (r *StockMovementRepo) ListByReference(ctx context.Context, referenceID string) ([]entity.StockMovement, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+movementColumns+` FROM stock_movements WHERE reference_id = $1 ORDER BY sequence`,
		referenceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	return collectMovements(rows)
}

// ListByProduct movimientos de un producto en orden de sequence. limit <= 0 devuelve todos.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]entity.StockMovement, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+movementColumns+` FROM stock_movements WHERE product_id = $1 ORDER BY sequence LIMIT $2 OFFSET $3`,
		productID, nullIfZero(limit), offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list movements by product: %w", err)
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]entity.StockMovement, error) {
	defer rows.Close()
	var list []entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(
			&m.ID, &m.Sequence, &m.ProductID, &m.Type, &m.Quantity, &m.Reason,
			&m.ReferenceID, &m.ReferenceType, &m.StockBefore, &m.StockAfter, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
