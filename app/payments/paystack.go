// Package payments talks to the payment processor and the exchange-rate API.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured is returned when no secret key is set.
var ErrNotConfigured = errors.New("payment verification is not configured")

// Verification is the subset of Paystack's verify response we rely on.
type Verification struct {
	Reference string
	Status    string
	// Amount in the major currency unit; Paystack reports kobo/cents.
	Amount   decimal.Decimal
	Currency string
	PaidAt   time.Time
}

// Successful reports whether Paystack settled the charge.
func (v *Verification) Successful() bool { return v.Status == "success" }

// Verifier checks the state of a payment by reference.
type Verifier interface {
	Verify(ctx context.Context, reference string) (*Verification, error)
}

// PaystackClient verifies transactions with GET /transaction/verify/{reference}.
type PaystackClient struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

var _ Verifier = (*PaystackClient)(nil)

func NewPaystackClient(secretKey, baseURL string) *PaystackClient {
	return &PaystackClient{
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string    `json:"status"`
		Reference string    `json:"reference"`
		Amount    int64     `json:"amount"`
		Currency  string    `json:"currency"`
		PaidAt    time.Time `json:"paid_at"`
	} `json:"data"`
}

func (c *PaystackClient) Verify(ctx context.Context, reference string) (*Verification, error) {
	if c.secretKey == "" {
		return nil, ErrNotConfigured
	}
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "calling paystack")
	}
	defer resp.Body.Close()

	var body paystackVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrapf(err, "decoding paystack response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !body.Status {
		return nil, errors.Errorf("paystack: %s (status %d)", body.Message, resp.StatusCode)
	}

	return &Verification{
		Reference: body.Data.Reference,
		Status:    body.Data.Status,
		Amount:    decimal.New(body.Data.Amount, -2),
		Currency:  body.Data.Currency,
		PaidAt:    body.Data.PaidAt,
	}, nil
}
