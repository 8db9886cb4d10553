package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/errors"
)

func newTestClient(url string) *Client {
	return NewClient(config.RegistryConfig{URL: url + "/", Token: "reg-token", Timeout: 2 * time.Second}, nil, nil)
}

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/codes", r.URL.Path)
		assert.Equal(t, "Bearer reg-token", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("code") {
		case "SAVE10":
			_, _ = w.Write([]byte(`{"code":"SAVE10","type":2,"used":false,"discount":{"kind":"percentage","value":10}}`))
		case "A B&C":
			_, _ = w.Write([]byte(`{"code":"A B&C","type":1,"used":true,"duration":{"unit":"MONTHS","value":3}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	code, err := c.Lookup(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, CodeTypeDiscount, code.Type)
	require.NotNil(t, code.Discount)
	assert.Equal(t, 10.0, code.Discount.Value)

	code, err = c.Lookup(context.Background(), "A B&C")
	require.NoError(t, err)
	assert.True(t, code.Used)
	assert.Equal(t, &Duration{Unit: UnitMonths, Value: 3}, code.Duration)

	_, err = c.Lookup(context.Background(), "NOPE")
	assert.True(t, errors.IsNotFound(err))
}

func TestLookupRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"code":"X","type":2}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Lookup(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRedeem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/codes/redeem", r.URL.Path)

		var req redeemRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		if req.Code == "USED" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"〔API〕» Code already redeemed"}}`))
			return
		}
		assert.Equal(t, "user-1", req.ID)
		_, _ = w.Write([]byte(`{"code":{"code":"PLAN1","type":1,"used":true,"duration":{"unit":"DAYS","value":30}}}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	code, err := c.Redeem(context.Background(), "PLAN1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, CodeTypePlan, code.Type)

	_, err = c.Redeem(context.Background(), "USED", "user-1")
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, CodeRedeemFailed, appErr.Code)
	assert.Equal(t, "Code already redeemed", appErr.Message)
}

func TestDurationAddTo(t *testing.T) {
	base := time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 7, 10, 0, 0, 0, time.UTC), Duration{Unit: UnitDays, Value: 7}.AddTo(base))
	assert.Equal(t, time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC), Duration{Unit: "months", Value: 3}.AddTo(base.AddDate(0, 0, -16)))
	assert.Equal(t, time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC), Duration{Unit: UnitYears, Value: 1}.AddTo(base))
}

func TestNewClientLeavesSharedClientUntouched(t *testing.T) {
	transport := &http.Transport{}
	shared := &http.Client{Timeout: 90 * time.Second, Transport: transport}

	c := NewClient(config.RegistryConfig{Timeout: 10 * time.Second}, shared, nil)

	assert.Equal(t, 90*time.Second, shared.Timeout)
	assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
	assert.Same(t, transport, c.httpClient.Transport)
}
