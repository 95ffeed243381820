package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrUnauthenticated    = errors.New("no authenticated caller")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Access-pass specific
	ErrDuplicatePass   = errors.New("owner already has an active access pass")
	ErrUnknownOperator = errors.New("unknown mobile-money operator")
	ErrStatusThrottled = errors.New("transaction status query rate limit reached")
)
