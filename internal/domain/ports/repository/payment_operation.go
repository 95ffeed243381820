package repository

import (
	"context"
	"time"

	"portfolio-access/internal/domain/model"
)

// PaymentOperationRepository records purchase attempts for audit and
// reconciliation of lost aggregator callbacks.
type PaymentOperationRepository interface {
	Save(ctx context.Context, tx Tx, op *model.PaymentOperation) error
	FindByExternalTxID(ctx context.Context, tx Tx, externalTxID string) (*model.PaymentOperation, error)
	UpdateStatus(ctx context.Context, tx Tx, externalTxID string, status model.OperationStatus) error

	// ListPendingOlderThan returns pending operations created before the
	// cutoff, oldest first, capped at limit.
	ListPendingOlderThan(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.PaymentOperation, error)
}
