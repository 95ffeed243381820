package repository

import (
	"context"
	"time"

	"portfolio-access/internal/domain/model"
)

// AccessPassRepository is the port for the entitlement store.
type AccessPassRepository interface {
	Save(ctx context.Context, tx Tx, pass *model.AccessPass) error

	// FindActiveByOwner returns the most-recently-expiring pass for the owner
	// where status is active and expires_at is in the future, or ErrNotFound.
	FindActiveByOwner(ctx context.Context, tx Tx, owner string) (*model.AccessPass, error)

	// Revoke marks the pass revoked and backdates expires_at, preserving the
	// row for audit. Returns ErrNotFound if the pass does not exist.
	Revoke(ctx context.Context, tx Tx, id string, at time.Time) error

	ListByOwner(ctx context.Context, tx Tx, owner string, limit int) ([]*model.AccessPass, error)
}
