// File: internal/usecase/status_probe.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"portfolio-access/internal/domain/ports/adapter"
)

// The aggregator forbids querying the same transaction id more than three
// times per minute.
const (
	statusQueryLimit  = 3
	statusQueryWindow = time.Minute
)

// StatusThrottle is the single fixed-window rate limiting capability the
// orchestrator needs; satisfied by the Redis limiter.
type StatusThrottle interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// StatusQueryKey scopes the limiter window to one external transaction id.
func StatusQueryKey(externalTxID string) string {
	return fmt.Sprintf("status_query:%s", externalTxID)
}

// NewStatusProbe builds the diagnostic PollObserver wired into activation
// polling: a throttled, best-effort transaction-status lookup whose outcome
// is logged and never influences the polling loop.
func NewStatusProbe(gateway adapter.PaymentGateway, throttle StatusThrottle, logger *zerolog.Logger) PollObserver {
	l := logger.With().Str("component", "StatusProbe").Logger()
	return func(ctx context.Context, externalTxID string, attempt int) {
		if externalTxID == "" {
			return
		}
		if throttle != nil {
			ok, err := throttle.Allow(ctx, StatusQueryKey(externalTxID), statusQueryLimit, statusQueryWindow)
			if err != nil || !ok {
				return
			}
		}
		st, err := gateway.TransactionStatus(ctx, externalTxID)
		if err != nil {
			l.Debug().Err(err).Str("external_tx_id", externalTxID).Int("attempt", attempt).Msg("diagnostic status check failed")
			return
		}
		l.Debug().Str("external_tx_id", externalTxID).Str("status", st.Status).Int("attempt", attempt).Msg("aggregator transaction status")
	}
}
