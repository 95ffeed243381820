// File: internal/usecase/activation_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"portfolio-access/internal/domain"
	"portfolio-access/internal/domain/model"
	"portfolio-access/internal/domain/ports/adapter"
	"portfolio-access/internal/domain/ports/repository"
)

// Aggregator-side transaction states we act on.
const (
	aggStatusSuccessful = "SUCCESSFUL"
	aggStatusFailed     = "FAILED"
)

// Compile-time check
var _ ActivationUseCase = (*activationUC)(nil)

// ActivationUseCase performs the PendingPayment -> Active transition: from
// the aggregator's callback, or by reconciling stale pending operations
// whose callback never arrived.
type ActivationUseCase interface {
	// ConfirmFromCallback applies a completed-payment notification. The
	// owner is derived from the external transaction id. Granting is
	// idempotent: a duplicate notification returns the existing pass.
	ConfirmFromCallback(ctx context.Context, externalTxID, status string) (*model.AccessPass, error)

	// ReconcilePending scans pending operations older than cutoff and
	// finalizes those the aggregator reports as settled. Returns the number
	// of operations finalized either way.
	ReconcilePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type activationUC struct {
	passes   repository.AccessPassRepository
	ops      repository.PaymentOperationRepository
	txm      repository.TransactionManager
	gateway  adapter.PaymentGateway
	throttle StatusThrottle
	pricing  Pricing
	log      *zerolog.Logger
}

func NewActivationUseCase(
	passes repository.AccessPassRepository,
	ops repository.PaymentOperationRepository,
	txm repository.TransactionManager,
	gateway adapter.PaymentGateway,
	throttle StatusThrottle,
	pricing Pricing,
	logger *zerolog.Logger,
) *activationUC {
	if pricing.PassTTL <= 0 {
		pricing.PassTTL = time.Hour
	}
	l := logger.With().Str("component", "ActivationUC").Logger()
	return &activationUC{passes: passes, ops: ops, txm: txm, gateway: gateway, throttle: throttle, pricing: pricing, log: &l}
}

func (u *activationUC) ConfirmFromCallback(ctx context.Context, externalTxID, status string) (*model.AccessPass, error) {
	owner, err := model.OwnerFromExternalTransactionID(externalTxID)
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(status) {
	case aggStatusSuccessful:
		return u.settle(ctx, externalTxID, owner)
	case aggStatusFailed:
		if err := u.ops.UpdateStatus(ctx, repository.NoTX, externalTxID, model.OperationStatusFailed); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, nil
	default:
		// Still pending on the aggregator side; nothing to apply.
		return nil, nil
	}
}

// settle grants the pass and closes the operation record. Duplicate
// notifications return the pass already in force instead of stacking a
// second one; the single-active-pass invariant is otherwise advisory, not
// transactionally enforced.
func (u *activationUC) settle(ctx context.Context, externalTxID, owner string) (*model.AccessPass, error) {
	if existing, err := u.passes.FindActiveByOwner(ctx, repository.NoTX, owner); err == nil {
		if err := u.ops.UpdateStatus(ctx, repository.NoTX, externalTxID, model.OperationStatusSucceeded); err != nil && !errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Err(err).Str("external_tx_id", externalTxID).Msg("operation record not closed")
		}
		return existing, nil
	}
	pass, err := model.NewAccessPass(uuid.NewString(), owner, u.pricing.Amount, u.pricing.Currency, time.Now().Add(u.pricing.PassTTL))
	if err != nil {
		return nil, err
	}
	grant := func(ctx context.Context, tx repository.Tx) error {
		if err := u.passes.Save(ctx, tx, pass); err != nil {
			return err
		}
		// The operation record may be missing when the callback raced the
		// purchase write; the grant still stands.
		if err := u.ops.UpdateStatus(ctx, tx, externalTxID, model.OperationStatusSucceeded); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return nil
	}
	if u.txm != nil {
		err = u.txm.WithTx(ctx, pgx.TxOptions{}, grant)
	} else {
		err = grant(ctx, repository.NoTX)
	}
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("owner", owner).Str("external_tx_id", externalTxID).Str("pass_id", pass.ID).Msg("payment settled, pass active")
	return pass, nil
}

func (u *activationUC) ReconcilePending(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	pending, err := u.ops.ListPendingOlderThan(ctx, repository.NoTX, cutoff, limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, op := range pending {
		st, err := u.checkStatus(ctx, op.ExternalTxID)
		if err != nil {
			if !errors.Is(err, domain.ErrStatusThrottled) {
				u.log.Warn().Err(err).Str("external_tx_id", op.ExternalTxID).Msg("reconcile status check failed")
			}
			continue
		}
		switch strings.ToUpper(st.Status) {
		case aggStatusSuccessful:
			if _, err := u.settle(ctx, op.ExternalTxID, op.Owner); err != nil {
				u.log.Error().Err(err).Str("external_tx_id", op.ExternalTxID).Msg("reconcile settle failed")
				continue
			}
			n++
		case aggStatusFailed:
			if err := u.ops.UpdateStatus(ctx, repository.NoTX, op.ExternalTxID, model.OperationStatusFailed); err != nil {
				u.log.Error().Err(err).Str("external_tx_id", op.ExternalTxID).Msg("reconcile mark-failed failed")
				continue
			}
			n++
		}
	}
	return n, nil
}

// checkStatus queries the aggregator, honoring its per-transaction rate cap.
func (u *activationUC) checkStatus(ctx context.Context, externalTxID string) (*adapter.TransactionStatus, error) {
	if u.throttle != nil {
		ok, err := u.throttle.Allow(ctx, StatusQueryKey(externalTxID), statusQueryLimit, statusQueryWindow)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrStatusThrottled
		}
	}
	return u.gateway.TransactionStatus(ctx, externalTxID)
}
