package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, status, total_amount, is_edited, edited_at, edit_reason, completed_at, created_at, updated_at`

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la cabecera de la venta.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		sale.ID, sale.Status, sale.TotalAmount, sale.IsEdited, sale.EditedAt, sale.EditReason,
		sale.CompletedAt, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("venta %s duplicada", sale.ID)
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// CreateItems inserta las líneas conservando su orden (line_no).
func (r *SaleRepo) CreateItems(ctx context.Context, items []entity.SaleLineItem) error {
	for i := range items {
		if err := r.insertItem(ctx, &items[i], i+1); err != nil {
			return err
		}
	}
	return nil
}

func (r *SaleRepo) insertItem(ctx context.Context, it *entity.SaleLineItem, lineNo int) error {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	query := `
		INSERT INTO sale_line_items (id, sale_id, line_no, product_id, quantity, unit_type, unit_price, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.SaleID, lineNo, it.ProductID, it.Quantity, it.UnitType,
		it.UnitPrice, it.TotalPrice, it.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale item: %w", err)
	}
	return nil
}

// GetByID obtiene la venta (sin líneas) sin bloquear.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate obtiene la venta y bloquea su fila (SELECT FOR UPDATE).
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

// GetItems devuelve las líneas de la venta en orden.
func (r *SaleRepo) GetItems(ctx context.Context, saleID string) ([]entity.SaleLineItem, error) {
	query := `
		SELECT id, sale_id, product_id, quantity, unit_type, unit_price, total_price, created_at
		FROM sale_line_items WHERE sale_id = $1 ORDER BY line_no`
	rows, err := r.q.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	var items []entity.SaleLineItem
	for rows.Next() {
		var it entity.SaleLineItem
		if err := rows.Scan(
			&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.UnitType,
			&it.UnitPrice, &it.TotalPrice, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// TransitionStatus cambia el estado solo si sigue en from (compare-and-set). Devuelve false si
// otra transacción ya lo cambió.
func (r *SaleRepo) TransitionStatus(ctx context.Context, id string, from, to entity.SaleStatus, at time.Time) (bool, error) {
	query := `
		UPDATE sales SET status = $3, updated_at = $4,
			completed_at = CASE WHEN $3 = 'completed' THEN $4 ELSE completed_at END
		WHERE id = $1 AND status = $2`
	cmd, err := r.q.Exec(ctx, query, id, from, to, at)
	if err != nil {
		return false, fmt.Errorf("transition sale status: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// MarkEdited levanta is_edited con fecha y motivo.
func (r *SaleRepo) MarkEdited(ctx context.Context, id, reason string, at time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE sales SET is_edited = TRUE, edited_at = $2, edit_reason = $3, updated_at = $2 WHERE id = $1`,
		id, at, reason,
	)
	if err != nil {
		return fmt.Errorf("mark sale edited: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("venta", id)
	}
	return nil
}

// ReplaceItems borra y reinserta el conjunto de líneas y actualiza el total.
func (r *SaleRepo) ReplaceItems(ctx context.Context, saleID string, items []entity.SaleLineItem, total decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `UPDATE sales SET total_amount = $2, updated_at = now() WHERE id = $1`, saleID, total)
	if err != nil {
		return fmt.Errorf("update sale total: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("venta", saleID)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM sale_line_items WHERE sale_id = $1`, saleID); err != nil {
		return fmt.Errorf("delete sale items: %w", err)
	}
	for i := range items {
		items[i].SaleID = saleID
		if err := r.insertItem(ctx, &items[i], i+1); err != nil {
			return err
		}
	}
	return nil
}

// List lista ventas de la más reciente a la más antigua.
func (r *SaleRepo) List(ctx context.Context, limit, offset int) ([]*entity.Sale, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		nullIfZero(limit), offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(
		&s.ID, &s.Status, &s.TotalAmount, &s.IsEdited, &s.EditedAt, &s.EditReason,
		&s.CompletedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
