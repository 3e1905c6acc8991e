package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

type SweetRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSweetRepository(db *sqlx.DB) *SweetRepository {
	return &SweetRepository{db: db, now: time.Now}
}

type sweetRow struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	Category   string `db:"category"`
	PriceCents int64  `db:"price_cents"`
	Quantity   int64  `db:"quantity"`
	CreatedAt  int64  `db:"created_at"`
	UpdatedAt  int64  `db:"updated_at"`
}

func (r sweetRow) toDomain() *domain.Sweet {
	return &domain.Sweet{
		ID:        r.ID,
		Name:      r.Name,
		Category:  r.Category,
		Price:     domain.Price(r.PriceCents),
		Quantity:  r.Quantity,
		CreatedAt: unixToTime(r.CreatedAt),
		UpdatedAt: unixToTime(r.UpdatedAt),
	}
}

const sweetColumns = `id, name, category, price_cents, quantity, created_at, updated_at`

func (r *SweetRepository) Create(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sweets (name, category, price_cents, quantity, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.Name, s.Category, s.Price.Cents(), s.Quantity, s.CreatedAt.Unix(), s.UpdatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert sweet: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert sweet id: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *SweetRepository) FindByID(ctx context.Context, id int64) (*domain.Sweet, error) {
	return findSweet(ctx, r.db, id)
}

// findSweet reads one row through q, which is either the pool or an open
// transaction. SQLite has a single connection, so reads inside a transaction
// must use the transaction.
func findSweet(ctx context.Context, q sqlx.QueryerContext, id int64) (*domain.Sweet, error) {
	var row sweetRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT `+sweetColumns+` FROM sweets WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("find sweet: %w", err)
	}
	return row.toDomain(), nil
}

// likePattern builds a lower-cased substring pattern with LIKE wildcards
// escaped by '!'.
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// lowerFunc names the SQL function that lower-cases a column the same way
// strings.ToLower folds the pattern. SQLite's LOWER only folds ASCII.
func lowerFunc(driver string) string {
	if driver == DriverSQLite {
		return sqliteFoldFunc
	}
	return "LOWER"
}

func buildWhere(f ports.SweetFilter, lower string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	like := func(col string) string {
		return lower + "(" + col + ") LIKE ? ESCAPE '!'"
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		conds = append(conds, "("+like("name")+" OR "+like("category")+")")
		args = append(args, p, p)
	}
	if f.Name != "" {
		conds = append(conds, like("name"))
		args = append(args, likePattern(f.Name))
	}
	if f.Category != "" {
		conds = append(conds, like("category"))
		args = append(args, likePattern(f.Category))
	}
	if f.MinPrice != nil {
		conds = append(conds, `price_cents >= ?`)
		args = append(args, f.MinPrice.Cents())
	}
	if f.MaxPrice != nil {
		conds = append(conds, `price_cents <= ?`)
		args = append(args, f.MaxPrice.Cents())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *SweetRepository) List(ctx context.Context, f ports.SweetFilter, page domain.Page) ([]*domain.Sweet, int64, error) {
	where, args := buildWhere(f, lowerFunc(r.db.DriverName()))

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sweets`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count sweets: %w", err)
	}

	var rows []sweetRow
	query := `SELECT ` + sweetColumns + ` FROM sweets` + where + ` ORDER BY id ASC LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &rows, query, append(args, page.PerPage, page.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("list sweets: %w", err)
	}

	out := make([]*domain.Sweet, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, total, nil
}

func (r *SweetRepository) Update(ctx context.Context, id int64, p ports.SweetPatch) (*domain.Sweet, error) {
	sets := []string{"updated_at = ?"}
	args := []any{r.now().UTC().Unix()}
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *p.Category)
	}
	if p.Price != nil {
		sets = append(sets, "price_cents = ?")
		args = append(args, p.Price.Cents())
	}
	if p.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *p.Quantity)
	}
	args = append(args, id)

	var updated *domain.Sweet
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE sweets SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return fmt.Errorf("update sweet: %w", err)
		}
		// MySQL reports zero affected rows for a no-op write, so existence is
		// decided by reading the row back.
		s, err := findSweet(ctx, tx, id)
		updated = s
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *SweetRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sweets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sweet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sweet: %w", err)
	}
	if n == 0 {
		return domain.ErrSweetNotFound
	}
	return nil
}

// AdjustQuantity applies delta with a single guarded UPDATE so concurrent
// adjustments of the same row can never drive quantity below zero.
func (r *SweetRepository) AdjustQuantity(ctx context.Context, id int64, delta int64) (*domain.Sweet, error) {
	var updated *domain.Sweet
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE sweets SET quantity = quantity + ?, updated_at = ? WHERE id = ? AND quantity + ? >= 0`,
			delta, r.now().UTC().Unix(), id, delta,
		)
		if err != nil {
			return fmt.Errorf("adjust quantity: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("adjust quantity: %w", err)
		}

		s, err := findSweet(ctx, tx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrInsufficientStock
		}
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *SweetRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
