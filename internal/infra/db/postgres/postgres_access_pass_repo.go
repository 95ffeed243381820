package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"portfolio-access/internal/domain"
	"portfolio-access/internal/domain/model"
	"portfolio-access/internal/domain/ports/repository"
)

// Ensure accessPassRepo implements repository.AccessPassRepository
var _ repository.AccessPassRepository = (*accessPassRepo)(nil)

type accessPassRepo struct {
	pool *pgxpool.Pool
}

func NewAccessPassRepo(pool *pgxpool.Pool) *accessPassRepo {
	return &accessPassRepo{pool: pool}
}

func (r *accessPassRepo) Save(ctx context.Context, tx repository.Tx, p *model.AccessPass) error {
	const q = `
INSERT INTO access_passes (id, owner_id, amount, currency, status, expires_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Owner, p.Amount, p.Currency, p.Status, p.ExpiresAt, p.CreatedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.ErrDuplicatePass
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *accessPassRepo) FindActiveByOwner(ctx context.Context, tx repository.Tx, owner string) (*model.AccessPass, error) {
	const q = `
SELECT id, owner_id, amount, currency, status, expires_at, created_at
  FROM access_passes
 WHERE owner_id=$1 AND status='active' AND expires_at > NOW()
 ORDER BY expires_at DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, owner)
}

func (r *accessPassRepo) Revoke(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `
UPDATE access_passes
   SET status='revoked', expires_at=$2
 WHERE id=$1 AND status='active';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accessPassRepo) ListByOwner(ctx context.Context, tx repository.Tx, owner string, limit int) ([]*model.AccessPass, error) {
	const q = `
SELECT id, owner_id, amount, currency, status, expires_at, created_at
  FROM access_passes
 WHERE owner_id=$1
 ORDER BY created_at DESC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, owner, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.AccessPass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *accessPassRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.AccessPass, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	p := &model.AccessPass{}
	var status string
	if err := row.Scan(&p.ID, &p.Owner, &p.Amount, &p.Currency, &status, &p.ExpiresAt, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.Status = model.PassStatus(status)
	return p, nil
}

func scanPass(rows pgx.Rows) (*model.AccessPass, error) {
	p := &model.AccessPass{}
	var status string
	if err := rows.Scan(&p.ID, &p.Owner, &p.Amount, &p.Currency, &status, &p.ExpiresAt, &p.CreatedAt); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	p.Status = model.PassStatus(status)
	return p, nil
}
