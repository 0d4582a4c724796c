package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const medicineCols = `id, name, stock, price, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Stock, &m.Price, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "medicine not found")
		}
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) CreateIfAbsent(ctx context.Context, m *Medicine) (*Medicine, bool, error) {
	m.ID = uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medicines (id, name, stock, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING`,
		m.ID, m.Name, m.Stock, m.Price)
	if err != nil {
		return nil, false, err
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.GetByName(ctx, m.Name)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	created, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicines WHERE id = $1`, id))
}

func (r *repoPG) GetByName(ctx context.Context, name string) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicines WHERE name = $1`, name))
}

func (r *repoPG) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var stock int
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE medicines SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING stock`,
		id, delta).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	// Either the medicine is missing or the adjustment would go negative.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return 0, getErr
	}
	return 0, apperr.Newf(apperr.KindInsufficientStock, "stock cannot drop below zero")
}

func (r *repoPG) UpdatePrice(ctx context.Context, id uuid.UUID, price int64) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE medicines SET price = $2, updated_at = NOW() WHERE id = $1`, id, price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "medicine not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, name string, limit, offset int) ([]*Medicine, int, error) {
	clause := ""
	args := []interface{}{}
	if name != "" {
		args = append(args, "%"+name+"%")
		clause = " WHERE name ILIKE $1"
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medicines`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM medicines%s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		medicineCols, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}
