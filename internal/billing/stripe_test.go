package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"github.com/NikhilSetiya/securex/pkg/config"
)

func newStripeTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(server.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeGateway(config.StripeConfig{SecretKey: "sk_test_123"}, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
}

func writeList(w http.ResponseWriter, url string, data ...any) {
	if data == nil {
		data = []any{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "has_more": false, "url": url})
}

func TestStripeFindOrCreateCustomer(t *testing.T) {
	var created bool
	g := newStripeTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/customers":
			assert.Equal(t, "new@example.com", r.URL.Query().Get("email"))
			writeList(w, "/v1/customers")
		case r.Method == http.MethodPost && r.URL.Path == "/v1/customers":
			_ = r.ParseForm()
			assert.Equal(t, "user-9", r.PostForm.Get("metadata[supabase_user_id]"))
			created = true
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "cus_new", "object": "customer"})
		default:
			http.NotFound(w, r)
		}
	})

	id, err := g.FindOrCreateCustomer(context.Background(), "new@example.com", "user-9")
	require.NoError(t, err)
	assert.Equal(t, "cus_new", id)
	assert.True(t, created)
}

func TestStripeFindPromotionCodeIsCaseInsensitive(t *testing.T) {
	g := newStripeTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/promotion_codes", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		writeList(w, "/v1/promotion_codes",
			map[string]any{"id": "promo_a", "object": "promotion_code", "code": "OTHER"},
			map[string]any{"id": "promo_b", "object": "promotion_code", "code": "Launch",
				"coupon": map[string]any{"id": "c1", "object": "coupon", "valid": true, "percent_off": 15}},
		)
	})

	p, err := g.FindPromotionCode(context.Background(), "LAUNCH")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "promo_b", p.ID)
	assert.Equal(t, Discount{Kind: DiscountPercentage, Value: 15}, p.Coupon.Discount())
}

func TestStripeGetCouponNotFound(t *testing.T) {
	g := newStripeTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such coupon: 'nope'"}}`))
	})

	c, err := g.GetCoupon(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestStripeListInvoices(t *testing.T) {
	g := newStripeTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cus_1", r.URL.Query().Get("customer"))
		writeList(w, "/v1/invoices", map[string]any{
			"id": "in_1", "object": "invoice", "number": "SX-0001", "amount_paid": 2490,
			"currency": "brl", "status": "paid", "created": 1717250000,
			"invoice_pdf": "https://pay.stripe.com/invoice/in_1/pdf",
		})
	})

	invoices, err := g.ListInvoices(context.Background(), "cus_1", 20)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, 24.90, invoices[0].Amount)
	assert.Equal(t, "BRL", invoices[0].Currency)
	assert.Equal(t, "paid", invoices[0].Status)
}
