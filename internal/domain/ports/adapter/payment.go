package adapter

import (
	"context"
	"time"
)

// OperationRequest is the payload for the aggregator's "create operation"
// endpoint.
type OperationRequest struct {
	Phone        string // international format
	Amount       int64
	ServiceCode  string
	ExternalTxID string
	CallbackURL  string            // optional; invoked by the aggregator on completion
	Data         map[string]string // optional free-form data echoed back by the aggregator
}

// OperationResult is what the aggregator returns on operation creation. At
// least one of DeepLink or AuthLink is expected to be present.
type OperationResult struct {
	ExternalTxID string
	DeepLink     string // wallet-app deep link
	AuthLink     string // web auth flow URL
}

// TransactionStatus is the aggregator's view of a previously created
// operation.
type TransactionStatus struct {
	ExternalTxID string
	Status       string // aggregator status e.g. PENDING / SUCCESSFUL / FAILED
	Amount       int64
	CheckedAt    time.Time
}

// Service is one entry of the aggregator's service catalog.
type Service struct {
	Code   string
	Name   string
	Kind   string // e.g. CASHIN / CASHOUT / BILL
	Active bool
}

// Balance is the merchant account balance held at the aggregator.
type Balance struct {
	Amount   int64
	Currency string
}

// PendingBill is an unpaid bill for bill-pay style services.
type PendingBill struct {
	Reference string
	Amount    int64
	DueAt     time.Time
}

// GatewayError is one entry of the aggregator's recent error log.
type GatewayError struct {
	ExternalTxID string
	Code         string
	Message      string
	OccurredAt   time.Time
}

// PaymentGateway shields the rest of the system from the aggregator's HTTP
// request/response shape. The adapter performs no retries; transport and
// non-2xx failures surface as errors.
//
// TransactionStatus must not be called more than 3 times per minute for the
// same external transaction id; callers self-throttle.
type PaymentGateway interface {
	Name() string
	CreateOperation(ctx context.Context, req OperationRequest) (*OperationResult, error)
	TransactionStatus(ctx context.Context, externalTxID string) (*TransactionStatus, error)

	// Auxiliary read-only diagnostics, not part of the purchase state machine.
	ListServices(ctx context.Context) ([]Service, error)
	GetBalance(ctx context.Context) (*Balance, error)
	ListPendingBills(ctx context.Context, serviceCode, reference string) ([]PendingBill, error)
	RecentErrors(ctx context.Context) ([]GatewayError, error)
}
