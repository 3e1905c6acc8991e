package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

type MovementRepository struct {
	db *sqlx.DB
}

func NewMovementRepository(db *sqlx.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

type movementRow struct {
	ID                int64         `db:"id"`
	SweetID           int64         `db:"sweet_id"`
	Kind              string        `db:"kind"`
	Quantity          int64         `db:"quantity"`
	ResultingQuantity int64         `db:"resulting_quantity"`
	ActorID           sql.NullInt64 `db:"actor_id"`
	CreatedAt         int64         `db:"created_at"`
}

func (r movementRow) toDomain() *domain.StockMovement {
	m := &domain.StockMovement{
		ID:                r.ID,
		SweetID:           r.SweetID,
		Kind:              domain.MovementKind(r.Kind),
		Quantity:          r.Quantity,
		ResultingQuantity: r.ResultingQuantity,
		CreatedAt:         unixToTime(r.CreatedAt),
	}
	if r.ActorID.Valid {
		id := r.ActorID.Int64
		m.ActorID = &id
	}
	return m
}

func (r *MovementRepository) Append(ctx context.Context, m *domain.StockMovement) error {
	var actor sql.NullInt64
	if m.ActorID != nil {
		actor = sql.NullInt64{Int64: *m.ActorID, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO stock_movements (sweet_id, kind, quantity, resulting_quantity, actor_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.SweetID, string(m.Kind), m.Quantity, m.ResultingQuantity, actor, m.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		m.ID = id
	}
	return nil
}

// ListBySweet returns the ledger for one sweet, newest first.
func (r *MovementRepository) ListBySweet(ctx context.Context, sweetID int64, page domain.Page) ([]*domain.StockMovement, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM stock_movements WHERE sweet_id = ?`, sweetID); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	var rows []movementRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT id, sweet_id, kind, quantity, resulting_quantity, actor_id, created_at
		 FROM stock_movements WHERE sweet_id = ? ORDER BY id DESC LIMIT ? OFFSET ?`,
		sweetID, page.PerPage, page.Offset(),
	); err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}

	out := make([]*domain.StockMovement, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, total, nil
}
