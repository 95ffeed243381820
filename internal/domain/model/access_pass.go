package model

import (
	"time"

	"portfolio-access/internal/domain"
)

type PassStatus string

const (
	PassStatusActive  PassStatus = "active"
	PassStatusExpired PassStatus = "expired"
	PassStatusRevoked PassStatus = "revoked"
)

// AccessPass is one purchased entitlement window. "expired" is a derived,
// time-based view: readers filter on expires_at, no writer flips the status
// once the window elapses.
type AccessPass struct {
	ID        string // UUID
	Owner     string // identifier of the purchasing user
	Amount    int64  // captured at purchase time, smallest currency unit
	Currency  string // e.g. "XOF"
	Status    PassStatus
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewAccessPass creates an active pass starting now.
func NewAccessPass(id, owner string, amount int64, currency string, expiresAt time.Time) (*AccessPass, error) {
	if id == "" || owner == "" || amount <= 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &AccessPass{
		ID:        id,
		Owner:     owner,
		Amount:    amount,
		Currency:  currency,
		Status:    PassStatusActive,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// Usable reports whether the pass is honored at the given instant.
func (p *AccessPass) Usable(now time.Time) bool {
	return p.Status == PassStatusActive && p.ExpiresAt.After(now)
}
