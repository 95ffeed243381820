package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"portfolio-access/internal/domain"
	"portfolio-access/internal/domain/model"
	"portfolio-access/internal/infra/logging"
	"portfolio-access/internal/infra/metrics"
	"portfolio-access/internal/infra/payment"
)

type passResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func toPassResponse(p *model.AccessPass) passResponse {
	return passResponse{
		ID:        p.ID,
		Status:    string(p.Status),
		Amount:    p.Amount,
		Currency:  p.Currency,
		ExpiresAt: p.ExpiresAt,
		CreatedAt: p.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/v1/access/pass
func (s *Server) handleGetPass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerFromContext(ctx)

	pass, err := s.accessUC.ActivePass(ctx, owner)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if pass == nil {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": true, "pass": toPassResponse(pass)})
}

type purchaseRequest struct {
	Phone    string `json:"phone"`
	Operator string `json:"operator"`
}

type purchaseResponse struct {
	ExternalTxID string `json:"external_transaction_id"`
	DeepLink     string `json:"deep_link_url,omitempty"`
	AuthLink     string `json:"auth_link_url,omitempty"`
}

// POST /api/v1/access/purchase
func (s *Server) handleStartPurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerFromContext(ctx)

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	start, err := s.accessUC.StartPurchase(ctx, owner, req.Phone, model.Operator(req.Operator))
	if err != nil {
		metrics.IncPurchase("failed")
		switch {
		case errors.Is(err, domain.ErrUnauthenticated):
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		case errors.Is(err, domain.ErrUnknownOperator), errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			// Gateway and store errors surface as a failed attempt; the
			// caller retries with a fresh transaction id.
			l := logging.With(ctx, s.log)
			l.Error().Err(err).Msg("purchase initiation failed")
			http.Error(w, "purchase initiation failed", http.StatusBadGateway)
		}
		return
	}
	metrics.IncPurchase("started")
	writeJSON(w, http.StatusAccepted, purchaseResponse{
		ExternalTxID: start.ExternalTxID,
		DeepLink:     start.DeepLink,
		AuthLink:     start.AuthLink,
	})
}

type pollRequest struct {
	ExternalTxID string `json:"external_transaction_id"`
	TimeoutMs    int64  `json:"timeout_ms,omitempty"`
	IntervalMs   int64  `json:"interval_ms,omitempty"`
}

// POST /api/v1/access/poll
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerFromContext(ctx)

	var req pollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pass, err := s.accessUC.PollActivation(ctx, owner, req.ExternalTxID,
		time.Duration(req.TimeoutMs)*time.Millisecond,
		time.Duration(req.IntervalMs)*time.Millisecond)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if pass == nil {
		// Payment not yet confirmed; the callback may still land later.
		metrics.IncActivationPoll("timeout")
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	metrics.IncActivationPoll("activated")
	writeJSON(w, http.StatusOK, map[string]any{"active": true, "pass": toPassResponse(pass)})
}

// POST /api/v1/access/revoke
func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerFromContext(ctx)

	revoked, err := s.accessUC.RevokeActivePass(ctx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		http.Error(w, "revoke failed", http.StatusInternalServerError)
		return
	}
	if revoked {
		metrics.IncPassRevoked()
	}
	writeJSON(w, http.StatusOK, map[string]any{"revoked": revoked})
}

// POST /api/v1/access/grant (dev only)
func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerFromContext(ctx)

	pass, err := s.accessUC.GrantPass(ctx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		http.Error(w, "grant failed", http.StatusInternalServerError)
		return
	}
	metrics.IncPassGranted("manual")
	writeJSON(w, http.StatusCreated, toPassResponse(pass))
}

type callbackRequest struct {
	ExternalTxID string `json:"external_transaction_id"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Signature    string `json:"signature"`
}

// POST /api/v1/payment/callback
//
// Invoked by the aggregator when the payer completes (or abandons) the
// payment. The body is authenticated by an HMAC signature, not a session.
func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logging.With(ctx, s.log)

	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	amount := strconv.FormatInt(req.Amount, 10)
	if !payment.VerifyCallbackSignature(s.callbackSecret, req.ExternalTxID, req.Status, amount, req.Signature) {
		metrics.IncCallback("bad_signature")
		l.Warn().Str("external_tx_id", req.ExternalTxID).Msg("callback signature mismatch")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	pass, err := s.activationUC.ConfirmFromCallback(ctx, req.ExternalTxID, req.Status)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "unknown transaction id", http.StatusBadRequest)
			return
		}
		l.Error().Err(err).Str("external_tx_id", req.ExternalTxID).Msg("callback processing failed")
		http.Error(w, "callback processing failed", http.StatusInternalServerError)
		return
	}
	if pass == nil {
		metrics.IncCallback("ignored")
		writeJSON(w, http.StatusOK, map[string]any{"applied": false})
		return
	}
	metrics.IncCallback("applied")
	metrics.IncPassGranted("callback")
	metrics.AddPurchaseRevenue(pass.Currency, pass.Amount)
	metrics.IncPurchase("succeeded")
	writeJSON(w, http.StatusOK, map[string]any{"applied": true, "pass_id": pass.ID})
}
