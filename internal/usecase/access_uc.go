// File: internal/usecase/access_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"portfolio-access/internal/domain"
	"portfolio-access/internal/domain/model"
	"portfolio-access/internal/domain/ports/adapter"
	"portfolio-access/internal/domain/ports/repository"
)

// Pricing fixes what one access pass costs and how long it lasts.
type Pricing struct {
	Amount   int64
	Currency string
	PassTTL  time.Duration
}

// PurchaseStart is returned to the caller so they can complete the payment
// out-of-band on their phone.
type PurchaseStart struct {
	ExternalTxID string
	DeepLink     string
	AuthLink     string
}

// PollObserver is invoked once per polling iteration, outside the loop's
// termination logic. Used for best-effort diagnostics such as querying the
// aggregator's transaction status; it must do its own throttling and error
// handling.
type PollObserver func(ctx context.Context, externalTxID string, attempt int)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

type AccessUseCase interface {
	// ActivePass returns the caller's currently usable pass, or nil when
	// there is none. Store read failures degrade to nil (fail-closed for a
	// paid feature) and are only logged.
	ActivePass(ctx context.Context, owner string) (*model.AccessPass, error)

	// StartPurchase initiates a payment with the aggregator. No entitlement
	// is written yet; the pass is created later by the payment callback or
	// the reconciler.
	StartPurchase(ctx context.Context, owner, phone string, operator model.Operator) (*PurchaseStart, error)

	// PollActivation waits for the entitlement store to show an active pass
	// for owner, checking every interval until timeout. Returns (nil, nil)
	// on timeout: "payment not yet confirmed", not failure.
	PollActivation(ctx context.Context, owner, externalTxID string, timeout, interval time.Duration) (*model.AccessPass, error)

	// RevokeActivePass revokes the caller's active pass, backdating its
	// expiry. Returns false when there was nothing to revoke.
	RevokeActivePass(ctx context.Context, owner string) (bool, error)

	// GrantPass synchronously inserts an already-active pass, bypassing the
	// aggregator. Manual/simulated path only.
	GrantPass(ctx context.Context, owner string) (*model.AccessPass, error)
}

type accessUC struct {
	passes      repository.AccessPassRepository
	ops         repository.PaymentOperationRepository
	gateway     adapter.PaymentGateway
	pricing     Pricing
	callbackURL string
	observer    PollObserver
	log         *zerolog.Logger
}

func NewAccessUseCase(
	passes repository.AccessPassRepository,
	ops repository.PaymentOperationRepository,
	gateway adapter.PaymentGateway,
	pricing Pricing,
	callbackURL string,
	observer PollObserver,
	logger *zerolog.Logger,
) *accessUC {
	if pricing.PassTTL <= 0 {
		pricing.PassTTL = time.Hour
	}
	l := logger.With().Str("component", "AccessUC").Logger()
	return &accessUC{
		passes:      passes,
		ops:         ops,
		gateway:     gateway,
		pricing:     pricing,
		callbackURL: callbackURL,
		observer:    observer,
		log:         &l,
	}
}

func (u *accessUC) ActivePass(ctx context.Context, owner string) (*model.AccessPass, error) {
	if owner == "" {
		return nil, nil
	}
	pass, err := u.passes.FindActiveByOwner(ctx, repository.NoTX, owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		// Fail closed: a transient store error must deny a paid feature,
		// never grant it.
		u.log.Warn().Err(err).Str("owner", owner).Msg("entitlement read failed, treating as no pass")
		return nil, nil
	}
	return pass, nil
}

func (u *accessUC) StartPurchase(ctx context.Context, owner, phone string, operator model.Operator) (*PurchaseStart, error) {
	if owner == "" {
		return nil, domain.ErrUnauthenticated
	}
	serviceCode, err := operator.ServiceCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	txID := model.NewExternalTransactionID(owner, now)
	msisdn := model.NormalizePhone(phone)

	res, err := u.gateway.CreateOperation(ctx, adapter.OperationRequest{
		Phone:        msisdn,
		Amount:       u.pricing.Amount,
		ServiceCode:  serviceCode,
		ExternalTxID: txID,
		CallbackURL:  u.callbackURL,
		Data:         map[string]string{"owner": owner},
	})
	if err != nil {
		// Gateway errors propagate unmodified; the caller retries manually
		// with a fresh transaction id.
		return nil, err
	}

	op := &model.PaymentOperation{
		ExternalTxID: txID,
		Owner:        owner,
		Phone:        msisdn,
		ServiceCode:  serviceCode,
		Amount:       u.pricing.Amount,
		Currency:     u.pricing.Currency,
		Status:       model.OperationStatusPending,
		DeepLink:     res.DeepLink,
		AuthLink:     res.AuthLink,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.ops.Save(ctx, repository.NoTX, op); err != nil {
		return nil, err
	}

	u.log.Info().Str("owner", owner).Str("external_tx_id", txID).Str("service", serviceCode).Msg("purchase started")
	return &PurchaseStart{ExternalTxID: txID, DeepLink: res.DeepLink, AuthLink: res.AuthLink}, nil
}

const (
	defaultPollTimeout  = 120 * time.Second
	defaultPollInterval = 3 * time.Second
)

func (u *accessUC) PollActivation(ctx context.Context, owner, externalTxID string, timeout, interval time.Duration) (*model.AccessPass, error) {
	if owner == "" {
		return nil, domain.ErrUnauthenticated
	}
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}

	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		pass, err := u.ActivePass(ctx, owner)
		if err == nil && pass != nil {
			return pass, nil
		}

		if u.observer != nil {
			go u.observer(ctx, externalTxID, attempt)
		}

		if time.Now().Add(interval).After(deadline) {
			// Not an error: the callback may still land later.
			u.log.Debug().Str("external_tx_id", externalTxID).Int("attempts", attempt).Msg("activation poll timed out")
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (u *accessUC) RevokeActivePass(ctx context.Context, owner string) (bool, error) {
	if owner == "" {
		return false, domain.ErrUnauthenticated
	}
	pass, err := u.passes.FindActiveByOwner(ctx, repository.NoTX, owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := u.passes.Revoke(ctx, repository.NoTX, pass.ID, time.Now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	u.log.Info().Str("owner", owner).Str("pass_id", pass.ID).Msg("access pass revoked")
	return true, nil
}

func (u *accessUC) GrantPass(ctx context.Context, owner string) (*model.AccessPass, error) {
	if owner == "" {
		return nil, domain.ErrUnauthenticated
	}
	pass, err := model.NewAccessPass(uuid.NewString(), owner, u.pricing.Amount, u.pricing.Currency, time.Now().Add(u.pricing.PassTTL))
	if err != nil {
		return nil, err
	}
	if err := u.passes.Save(ctx, repository.NoTX, pass); err != nil {
		return nil, err
	}
	u.log.Info().Str("owner", owner).Str("pass_id", pass.ID).Msg("access pass granted")
	return pass, nil
}
