package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"portfolio-access/internal/infra/metrics"
	"portfolio-access/internal/usecase"
)

// OperationReconciler periodically scans for stale pending payment
// operations and tries to finalize them via the aggregator's transaction
// status. This covers lost completion callbacks and crashes mid-settle.
type OperationReconciler struct {
	uc         usecase.ActivationUseCase
	interval   time.Duration
	staleAfter time.Duration
	batchLimit int
	log        *zerolog.Logger
}

func NewOperationReconciler(uc usecase.ActivationUseCase, interval, staleAfter time.Duration, batchLimit int, logger *zerolog.Logger) *OperationReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	if batchLimit <= 0 {
		batchLimit = 200
	}
	l := logger.With().Str("component", "OperationReconciler").Logger()
	return &OperationReconciler{uc: uc, interval: interval, staleAfter: staleAfter, batchLimit: batchLimit, log: &l}
}

func (w *OperationReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting operation reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping operation reconciler")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *OperationReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	n, err := w.uc.ReconcilePending(ctx, cutoff, w.batchLimit)
	if err != nil {
		w.log.Error().Err(err).Msg("reconcile scan failed")
		return
	}
	if n > 0 {
		metrics.AddOperationsReconciled(n)
		w.log.Info().Int("count", n).Msg("stale operations finalized")
	}
}
