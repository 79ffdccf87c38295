package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"game-rewards-engine/utils"

	"github.com/shopspring/decimal"
)

// QuotaOutcome is what the quota service said about a credit.
type QuotaOutcome int

const (
	QuotaUnknown QuotaOutcome = iota
	QuotaApplied
	QuotaRejected
)

func (o QuotaOutcome) String() string {
	switch o {
	case QuotaApplied:
		return "applied"
	case QuotaRejected:
		return "rejected"
	}
	return "unknown"
}

// QuotaCreditor credits converted points to the external quota account.
// Credit must be idempotent on exchangeID.
type QuotaCreditor interface {
	Credit(ctx context.Context, exchangeID, userID string, amount decimal.Decimal) (QuotaOutcome, error)
	Lookup(ctx context.Context, exchangeID string) (QuotaOutcome, error)
}

// QuotaServiceClient talks to the quota service over HTTP with the shared
// service token.
type QuotaServiceClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewQuotaServiceClient(baseURL, token string) *QuotaServiceClient {
	return &QuotaServiceClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  utils.HTTPClient,
	}
}

// Credit calls POST /quota/credits. A 2xx (or 409, already applied) is
// Applied, another 4xx is Rejected, anything else is Unknown.
func (c *QuotaServiceClient) Credit(ctx context.Context, exchangeID, userID string, amount decimal.Decimal) (QuotaOutcome, error) {
	reqBody := map[string]interface{}{
		"idempotency_key": exchangeID,
		"user_id":         userID,
		"amount":          amount.String(),
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/quota/credits", bytes.NewBuffer(jsonData))
	if err != nil {
		return QuotaUnknown, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	status, body, err := c.do(req)
	if err != nil {
		return QuotaUnknown, err
	}
	switch {
	case status/100 == 2, status == http.StatusConflict:
		return QuotaApplied, nil
	case status/100 == 4:
		log.Printf("QuotaService /quota/credits returned %d: %s", status, string(body))
		return QuotaRejected, fmt.Errorf("quota credit rejected: %d", status)
	default:
		return QuotaUnknown, fmt.Errorf("quota service returned %d: %s", status, string(body))
	}
}

// Lookup calls GET /quota/credits/:id. 200 means applied, 404 means the
// credit never landed.
func (c *QuotaServiceClient) Lookup(ctx context.Context, exchangeID string) (QuotaOutcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/quota/credits/"+url.PathEscape(exchangeID), nil)
	if err != nil {
		return QuotaUnknown, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	status, body, err := c.do(req)
	if err != nil {
		return QuotaUnknown, err
	}
	switch status {
	case http.StatusOK:
		return QuotaApplied, nil
	case http.StatusNotFound:
		return QuotaRejected, nil
	default:
		return QuotaUnknown, fmt.Errorf("quota lookup returned %d: %s", status, string(body))
	}
}

func (c *QuotaServiceClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return resp.StatusCode, body, nil
}
