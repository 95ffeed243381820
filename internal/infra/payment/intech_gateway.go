package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"portfolio-access/internal/domain/ports/adapter"
	"portfolio-access/internal/infra/metrics"
)

// Ensure IntechGateway implements adapter.PaymentGateway
var _ adapter.PaymentGateway = (*IntechGateway)(nil)

// IntechGateway implements adapter.PaymentGateway against the InTech
// mobile-money aggregator using direct HTTP calls. Every request carries the
// shared secret key header. The gateway performs no retries; transport and
// non-success responses surface as errors to the caller.
type IntechGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewIntechGateway creates a direct InTech gateway.
func NewIntechGateway(baseURL, secretKey string) *IntechGateway {
	if baseURL == "" {
		baseURL = "https://api.intech.sn/api-services"
	}
	return &IntechGateway{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *IntechGateway) Name() string { return "intech" }

// intechEnvelope is the aggregator's common response framing.
type intechEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// post sends a JSON payload and unmarshals the envelope's data field into out.
func (g *IntechGateway) post(ctx context.Context, path string, payload any, out any) (err error) {
	defer func() { metrics.IncGatewayCall(path, err == nil) }()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Secretkey", g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("intech http %d: %s", resp.StatusCode, string(raw))
	}

	var env intechEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(raw))
	}
	if env.Code != 200 {
		return fmt.Errorf("intech error: code %d, message: %s", env.Code, env.Msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}
	return nil
}

type operationData struct {
	ExternalTransactionID string `json:"externalTransactionId"`
	DeepLinkURL           string `json:"deepLinkUrl"`
	AuthLinkURL           string `json:"authLinkUrl"`
}

// CreateOperation implements adapter.PaymentGateway.CreateOperation.
func (g *IntechGateway) CreateOperation(ctx context.Context, r adapter.OperationRequest) (*adapter.OperationResult, error) {
	payload := map[string]any{
		"phone":                 r.Phone,
		"amount":                r.Amount,
		"codeService":           r.ServiceCode,
		"externalTransactionId": r.ExternalTxID,
	}
	if r.CallbackURL != "" {
		payload["callbackUrl"] = r.CallbackURL
	}
	if len(r.Data) > 0 {
		payload["data"] = r.Data
	}

	var data operationData
	if err := g.post(ctx, "/operation", payload, &data); err != nil {
		return nil, err
	}
	if data.DeepLinkURL == "" && data.AuthLinkURL == "" {
		return nil, fmt.Errorf("intech operation returned neither deep link nor auth link")
	}
	return &adapter.OperationResult{
		ExternalTxID: r.ExternalTxID,
		DeepLink:     data.DeepLinkURL,
		AuthLink:     data.AuthLinkURL,
	}, nil
}

type transactionStatusData struct {
	ExternalTransactionID string `json:"externalTransactionId"`
	Status                string `json:"status"`
	Amount                int64  `json:"amount"`
}

// TransactionStatus implements adapter.PaymentGateway.TransactionStatus.
// The aggregator caps this at 3 queries per minute per transaction id;
// throttling is the caller's responsibility.
func (g *IntechGateway) TransactionStatus(ctx context.Context, externalTxID string) (*adapter.TransactionStatus, error) {
	payload := map[string]any{"externalTransactionId": externalTxID}
	var data transactionStatusData
	if err := g.post(ctx, "/get-transaction-status", payload, &data); err != nil {
		return nil, err
	}
	return &adapter.TransactionStatus{
		ExternalTxID: data.ExternalTransactionID,
		Status:       data.Status,
		Amount:       data.Amount,
		CheckedAt:    time.Now(),
	}, nil
}

type serviceData struct {
	CodeService string `json:"codeService"`
	Name        string `json:"name"`
	Kind        string `json:"typeService"`
	Active      bool   `json:"active"`
}

// ListServices returns the aggregator's service catalog.
func (g *IntechGateway) ListServices(ctx context.Context) ([]adapter.Service, error) {
	var data []serviceData
	if err := g.post(ctx, "/services", map[string]any{}, &data); err != nil {
		return nil, err
	}
	out := make([]adapter.Service, 0, len(data))
	for _, s := range data {
		out = append(out, adapter.Service{Code: s.CodeService, Name: s.Name, Kind: s.Kind, Active: s.Active})
	}
	return out, nil
}

type balanceData struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// GetBalance returns the merchant balance held at the aggregator.
func (g *IntechGateway) GetBalance(ctx context.Context) (*adapter.Balance, error) {
	var data balanceData
	if err := g.post(ctx, "/get-balance", map[string]any{}, &data); err != nil {
		return nil, err
	}
	return &adapter.Balance{Amount: data.Amount, Currency: data.Currency}, nil
}

type pendingBillData struct {
	Reference string    `json:"reference"`
	Amount    int64     `json:"amount"`
	DueAt     time.Time `json:"dueAt"`
}

// ListPendingBills returns unpaid bills for bill-pay style services.
func (g *IntechGateway) ListPendingBills(ctx context.Context, serviceCode, reference string) ([]adapter.PendingBill, error) {
	payload := map[string]any{"codeService": serviceCode, "billAccountNumber": reference}
	var data []pendingBillData
	if err := g.post(ctx, "/get-pending-bills", payload, &data); err != nil {
		return nil, err
	}
	out := make([]adapter.PendingBill, 0, len(data))
	for _, b := range data {
		out = append(out, adapter.PendingBill{Reference: b.Reference, Amount: b.Amount, DueAt: b.DueAt})
	}
	return out, nil
}

type gatewayErrorData struct {
	ExternalTransactionID string    `json:"externalTransactionId"`
	Code                  string    `json:"code"`
	Message               string    `json:"message"`
	OccurredAt            time.Time `json:"occurredAt"`
}

// RecentErrors returns the aggregator's recent error log.
func (g *IntechGateway) RecentErrors(ctx context.Context) ([]adapter.GatewayError, error) {
	var data []gatewayErrorData
	if err := g.post(ctx, "/get-errors", map[string]any{}, &data); err != nil {
		return nil, err
	}
	out := make([]adapter.GatewayError, 0, len(data))
	for _, e := range data {
		out = append(out, adapter.GatewayError{ExternalTxID: e.ExternalTransactionID, Code: e.Code, Message: e.Message, OccurredAt: e.OccurredAt})
	}
	return out, nil
}
