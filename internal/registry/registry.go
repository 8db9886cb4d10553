// Package registry is a client for the external code registry that issues
// discount and plan codes.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/metrics"
	"github.com/NikhilSetiya/securex/pkg/resilience"
)

// CodeType distinguishes plan grants from discounts
type CodeType int

// Code types as issued by the registry
const (
	CodeTypePlan     CodeType = 1
	CodeTypeDiscount CodeType = 2
)

// Duration units
const (
	UnitDays   = "DAYS"
	UnitMonths = "MONTHS"
	UnitYears  = "YEARS"
)

// CodeRedeemFailed is returned when the registry refuses a redemption
const CodeRedeemFailed = "CODE_REDEEM_FAILED"

// apiPrefix is prepended by the registry to its error messages
const apiPrefix = "〔API〕»"

// Duration is how long a plan code grants PRO
type Duration struct {
	Unit  string `json:"unit"`
	Value int    `json:"value"`
}

// AddTo returns t moved forward by the duration. Unknown units count as years.
func (d Duration) AddTo(t time.Time) time.Time {
	switch strings.ToUpper(d.Unit) {
	case UnitDays:
		return t.AddDate(0, 0, d.Value)
	case UnitMonths:
		return t.AddDate(0, d.Value, 0)
	default:
		return t.AddDate(d.Value, 0, 0)
	}
}

// Discount is the raw discount attached to a discount code
type Discount struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

// Code is a registry code
type Code struct {
	Code     string    `json:"code"`
	Type     CodeType  `json:"type"`
	Used     bool      `json:"used"`
	Discount *Discount `json:"discount,omitempty"`
	Duration *Duration `json:"duration,omitempty"`
}

// Registry looks up and redeems codes
type Registry interface {
	Lookup(ctx context.Context, code string) (*Code, error)
	Redeem(ctx context.Context, code, redeemerID string) (*Code, error)
}

// Client calls the registry's HTTP API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	guard      *resilience.Guard
	metrics    *metrics.Metrics
}

// NewClient creates a registry client. httpClient may be nil.
func NewClient(cfg config.RegistryConfig, httpClient *http.Client, m *metrics.Metrics) *Client {
	// copy: the caller's client is shared with other upstreams
	c := http.Client{}
	if httpClient != nil {
		c = *httpClient
	}
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: &c,
		guard:      resilience.NewGuard("code-registry", resilience.DefaultRetryConfig()),
		metrics:    m,
	}
}

// Lookup returns the code. Codes the registry does not know are reported
// as not found.
func (c *Client) Lookup(ctx context.Context, code string) (*Code, error) {
	endpoint := c.baseURL + "/codes?code=" + url.QueryEscape(code)

	start := time.Now()
	found, err := resilience.Call(ctx, c.guard, func(ctx context.Context) (*Code, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build lookup request: %w", err)
		}
		var out Code
		if err := c.do(req, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	c.metrics.RecordUpstreamCall("code-registry", upstreamErr(err), time.Since(start))
	return found, err
}

type redeemRequest struct {
	Code string `json:"code"`
	ID   string `json:"id"`
}

type redeemResponse struct {
	Code Code `json:"code"`
}

// Redeem marks the code used by redeemerID and returns it. Redemption is not
// retried: a lost response could otherwise burn the code twice.
func (c *Client) Redeem(ctx context.Context, code, redeemerID string) (*Code, error) {
	body, err := json.Marshal(redeemRequest{Code: code, ID: redeemerID})
	if err != nil {
		return nil, fmt.Errorf("encode redeem request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/codes/redeem", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redeem request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	var out redeemResponse
	err = c.do(req, &out)
	c.metrics.RecordUpstreamCall("code-registry", upstreamErr(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return &out.Code, nil
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewExternalError("code-registry", "Code service unavailable").WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.NewExternalError("code-registry", "Code service unavailable").WithCause(err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return errors.NewExternalError("code-registry", "Code service unavailable").
			WithDetail("status", fmt.Sprintf("%d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return errors.NewNotFoundError("Code")
	case resp.StatusCode >= 300:
		var eb errorBody
		msg := "Code could not be used"
		if json.Unmarshal(data, &eb) == nil && eb.Error.Message != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(eb.Error.Message, apiPrefix))
		}
		return errors.NewAppError(errors.ErrorTypeValidation, CodeRedeemFailed, msg)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewExternalError("code-registry", "Code service returned an invalid response").WithCause(err)
	}
	return nil
}

// upstreamErr filters out answers that are not upstream failures
func upstreamErr(err error) error {
	if errors.IsType(err, errors.ErrorTypeExternal) || errors.IsType(err, errors.ErrorTypeTimeout) {
		return err
	}
	return nil
}
