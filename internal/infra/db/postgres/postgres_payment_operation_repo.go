package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"portfolio-access/internal/domain"
	"portfolio-access/internal/domain/model"
	"portfolio-access/internal/domain/ports/repository"
)

// Ensure paymentOperationRepo implements repository.PaymentOperationRepository
var _ repository.PaymentOperationRepository = (*paymentOperationRepo)(nil)

type paymentOperationRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentOperationRepo(pool *pgxpool.Pool) *paymentOperationRepo {
	return &paymentOperationRepo{pool: pool}
}

func (r *paymentOperationRepo) Save(ctx context.Context, tx repository.Tx, op *model.PaymentOperation) error {
	const q = `
INSERT INTO payment_operations (
  external_tx_id, owner_id, phone, service_code, amount, currency, status, deep_link, auth_link, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (external_tx_id) DO UPDATE SET
  status=$7, deep_link=$8, auth_link=$9, updated_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q,
		op.ExternalTxID, op.Owner, op.Phone, op.ServiceCode, op.Amount, op.Currency,
		op.Status, op.DeepLink, op.AuthLink, op.CreatedAt, op.UpdatedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *paymentOperationRepo) FindByExternalTxID(ctx context.Context, tx repository.Tx, externalTxID string) (*model.PaymentOperation, error) {
	const q = `
SELECT external_tx_id, owner_id, phone, service_code, amount, currency, status, deep_link, auth_link, created_at, updated_at
  FROM payment_operations
 WHERE external_tx_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, externalTxID)
	if err != nil {
		return nil, err
	}
	return scanOperationRow(row)
}

func (r *paymentOperationRepo) UpdateStatus(ctx context.Context, tx repository.Tx, externalTxID string, status model.OperationStatus) error {
	const q = `
UPDATE payment_operations
   SET status=$2, updated_at=NOW()
 WHERE external_tx_id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, externalTxID, status)
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

func (r *paymentOperationRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.PaymentOperation, error) {
	const q = `
SELECT external_tx_id, owner_id, phone, service_code, amount, currency, status, deep_link, auth_link, created_at, updated_at
  FROM payment_operations
 WHERE status='pending' AND created_at < $1
 ORDER BY created_at ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, cutoff, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.PaymentOperation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanOperationRow(row pgx.Row) (*model.PaymentOperation, error) {
	op := &model.PaymentOperation{}
	var status string
	if err := row.Scan(&op.ExternalTxID, &op.Owner, &op.Phone, &op.ServiceCode, &op.Amount, &op.Currency,
		&status, &op.DeepLink, &op.AuthLink, &op.CreatedAt, &op.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	op.Status = model.OperationStatus(status)
	return op, nil
}

func scanOperation(rows pgx.Rows) (*model.PaymentOperation, error) {
	op := &model.PaymentOperation{}
	var status string
	if err := rows.Scan(&op.ExternalTxID, &op.Owner, &op.Phone, &op.ServiceCode, &op.Amount, &op.Currency,
		&status, &op.DeepLink, &op.AuthLink, &op.CreatedAt, &op.UpdatedAt); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	op.Status = model.OperationStatus(status)
	return op, nil
}
