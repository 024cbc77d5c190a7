package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/slicehouse/api/internal/logger"
)

const keyPrefix = "rzp_"

// IntentRequest describes a payment intent in major currency units.
type IntentRequest struct {
	Amount   decimal.Decimal
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Intent is what the client SDK needs to complete a payment.
type Intent struct {
	ID       string `json:"intentId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

type Options struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Currency  string
	Timeout   time.Duration
	RPS       float64
}

// Client talks to a Razorpay-compatible orders API.
type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewClient(opts Options, log *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	burst := int(opts.RPS)
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(opts.RPS)
	if opts.RPS <= 0 {
		limit = rate.Inf
	}
	return &Client{
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		log:     log.With(zap.String("gateway_key", logger.RedactKey(opts.KeyID))),
	}
}

// Secret is the HMAC secret used for payment signatures.
func (c *Client) Secret() string { return c.opts.KeySecret }

// ToMinorUnits converts an amount to paise, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if c.opts.KeyID == "" || c.opts.KeySecret == "" {
		return Intent{}, &Error{Kind: KindConfiguration, Message: "gateway credentials not configured"}
	}
	if !strings.HasPrefix(c.opts.KeyID, keyPrefix) {
		return Intent{}, &Error{Kind: KindConfiguration, Message: "malformed gateway key id"}
	}
	if req.Currency != c.opts.Currency {
		return Intent{}, &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf("unsupported currency %q", req.Currency)}
	}
	amount := ToMinorUnits(req.Amount)
	if amount < 1 {
		return Intent{}, &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf("amount must be at least 1 minor unit, got %d", amount)}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Intent{}, &Error{Kind: KindUnavailable, Message: "rate limiter", Err: err}
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:   amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return Intent{}, &Error{Kind: KindInvalidRequest, Message: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Intent{}, &Error{Kind: KindConfiguration, Message: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.opts.KeyID, c.opts.KeySecret)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn("gateway request failed", zap.String("receipt", req.Receipt), zap.Error(err))
		return Intent{}, &Error{Kind: KindUnavailable, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Intent{}, &Error{Kind: KindUnavailable, StatusCode: resp.StatusCode, Err: err}
	}

	c.log.Debug("gateway response",
		zap.String("receipt", req.Receipt),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return Intent{}, &Error{Kind: KindConfiguration, StatusCode: resp.StatusCode, Message: describe(raw)}
	case resp.StatusCode == http.StatusBadRequest:
		return Intent{}, &Error{Kind: KindInvalidRequest, StatusCode: resp.StatusCode, Message: describe(raw)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return Intent{}, &Error{Kind: KindUnavailable, StatusCode: resp.StatusCode, Message: describe(raw)}
	}

	var out createOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Intent{}, &Error{Kind: KindUnavailable, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	if out.ID == "" {
		return Intent{}, &Error{Kind: KindUnavailable, StatusCode: resp.StatusCode, Err: errors.New("response missing intent id")}
	}

	currency := out.Currency
	if currency == "" {
		currency = req.Currency
	}
	return Intent{
		ID:       out.ID,
		Amount:   amount,
		Currency: currency,
		KeyID:    c.opts.KeyID,
	}, nil
}

func describe(raw []byte) string {
	var e errorResponse
	if err := json.Unmarshal(raw, &e); err == nil && e.Error.Description != "" {
		return e.Error.Description
	}
	return ""
}
