package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"portfolio-access/internal/domain"
)

type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusSucceeded OperationStatus = "succeeded"
	OperationStatusFailed    OperationStatus = "failed"
)

// PaymentOperation is the audit record of one purchase attempt against the
// aggregator. It is correlated to the resulting AccessPass only by owner and
// timing; there is no foreign key between the two.
type PaymentOperation struct {
	ExternalTxID string // client-generated, see NewExternalTransactionID
	Owner        string
	Phone        string // normalized, international format
	ServiceCode  string
	Amount       int64
	Currency     string
	Status       OperationStatus
	DeepLink     string // wallet-app deep link returned by the aggregator
	AuthLink     string // web auth flow URL returned by the aggregator
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// externalTxPrefix scopes aggregator-side transaction ids to this service.
const externalTxPrefix = "PASS"

// NewExternalTransactionID builds the client-generated transaction id sent to
// the aggregator: a fixed prefix, the owner id and a millisecond timestamp.
// The id is stable for the lifetime of one purchase attempt so that status
// polling can reference it, and locally derivable without a store round trip.
func NewExternalTransactionID(owner string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d", externalTxPrefix, owner, now.UnixMilli())
}

// OwnerFromExternalTransactionID recovers the owner id embedded in an
// external transaction id. Owner ids may themselves contain underscores, so
// the trailing timestamp segment is stripped rather than split positionally.
func OwnerFromExternalTransactionID(id string) (string, error) {
	rest, ok := strings.CutPrefix(id, externalTxPrefix+"_")
	if !ok {
		return "", domain.ErrInvalidArgument
	}
	i := strings.LastIndexByte(rest, '_')
	if i <= 0 {
		return "", domain.ErrInvalidArgument
	}
	if _, err := strconv.ParseInt(rest[i+1:], 10, 64); err != nil {
		return "", domain.ErrInvalidArgument
	}
	return rest[:i], nil
}
