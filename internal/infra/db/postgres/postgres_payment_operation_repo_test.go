//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-access/internal/domain"
	"portfolio-access/internal/domain/model"
)

func TestPaymentOperationRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewPaymentOperationRepo(testPool)

	newOp := func(owner string, createdAt time.Time) *model.PaymentOperation {
		return &model.PaymentOperation{
			ExternalTxID: model.NewExternalTransactionID(owner, createdAt),
			Owner:        owner,
			Phone:        "+221771234567",
			ServiceCode:  "WAVE_SN_API_CASH_IN",
			Amount:       1500,
			Currency:     "XOF",
			Status:       model.OperationStatusPending,
			DeepLink:     "wave://pay/abc",
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		}
	}

	t.Run("should save and find an operation", func(t *testing.T) {
		cleanup(t)
		op := newOp("owner-1", time.Now())
		if err := repo.Save(ctx, nil, op); err != nil {
			t.Fatalf("Save: %v", err)
		}

		found, err := repo.FindByExternalTxID(ctx, nil, op.ExternalTxID)
		if err != nil {
			t.Fatalf("FindByExternalTxID: %v", err)
		}
		if found.Owner != "owner-1" || found.Status != model.OperationStatusPending || found.DeepLink != "wave://pay/abc" {
			t.Fatalf("found %+v", found)
		}
	})

	t.Run("should upsert on a repeated save", func(t *testing.T) {
		cleanup(t)
		op := newOp("owner-1", time.Now())
		if err := repo.Save(ctx, nil, op); err != nil {
			t.Fatalf("Save: %v", err)
		}
		op.Status = model.OperationStatusSucceeded
		if err := repo.Save(ctx, nil, op); err != nil {
			t.Fatalf("second Save: %v", err)
		}

		found, _ := repo.FindByExternalTxID(ctx, nil, op.ExternalTxID)
		if found.Status != model.OperationStatusSucceeded {
			t.Fatalf("status = %q, want succeeded", found.Status)
		}
	})

	t.Run("should update status in place", func(t *testing.T) {
		cleanup(t)
		op := newOp("owner-1", time.Now())
		if err := repo.Save(ctx, nil, op); err != nil {
			t.Fatalf("Save: %v", err)
		}

		if err := repo.UpdateStatus(ctx, nil, op.ExternalTxID, model.OperationStatusFailed); err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		found, _ := repo.FindByExternalTxID(ctx, nil, op.ExternalTxID)
		if found.Status != model.OperationStatusFailed {
			t.Fatalf("status = %q, want failed", found.Status)
		}
	})

	t.Run("should report not found for an unknown transaction id", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByExternalTxID(ctx, nil, "PASS_nobody_1"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
		if err := repo.UpdateStatus(ctx, nil, "PASS_nobody_1", model.OperationStatusFailed); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("should list only stale pending operations", func(t *testing.T) {
		cleanup(t)
		stale := newOp("owner-1", time.Now().Add(-time.Hour))
		fresh := newOp("owner-2", time.Now())
		settled := newOp("owner-3", time.Now().Add(-time.Hour))
		settled.Status = model.OperationStatusSucceeded
		for _, op := range []*model.PaymentOperation{stale, fresh, settled} {
			if err := repo.Save(ctx, nil, op); err != nil {
				t.Fatalf("Save: %v", err)
			}
		}

		pending, err := repo.ListPendingOlderThan(ctx, nil, time.Now().Add(-10*time.Minute), 50)
		if err != nil {
			t.Fatalf("ListPendingOlderThan: %v", err)
		}
		if len(pending) != 1 || pending[0].ExternalTxID != stale.ExternalTxID {
			t.Fatalf("pending = %+v, want only the stale operation", pending)
		}
	})
}
