package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/NikhilSetiya/securex/internal/analysis"
	"github.com/NikhilSetiya/securex/internal/billing"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/logging"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// maxWebhookBody bounds a provider delivery read into memory
const maxWebhookBody = 1 << 16

// ScanAnalyzer runs the AI analysis of a stored scan
type ScanAnalyzer interface {
	Analyze(ctx context.Context, caller types.Identity, scanID string) (*analysis.Result, error)
}

// BillingService is the checkout, code and webhook surface
type BillingService interface {
	ValidateCode(ctx context.Context, code string) *billing.CodeCheck
	ValidatePromotion(ctx context.Context, code string) *billing.CodeCheck
	RedeemPlanCode(ctx context.Context, caller types.Identity, code string) (*billing.Redemption, error)
	CreateCheckoutSession(ctx context.Context, caller types.Identity, req billing.CheckoutRequest) (string, error)
	ListInvoices(ctx context.Context, userID string) ([]billing.Invoice, error)
	ToggleAdminPro(ctx context.Context, caller types.Identity) (types.SubscriptionStatus, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (string, error)
}

// FunctionHandler serves the function-style endpoints under /functions/v1.
// They answer with flat JSON bodies rather than the API envelope.
type FunctionHandler struct {
	analyzer ScanAnalyzer
	billing  BillingService
	logger   *logging.Logger
}

// NewFunctionHandler creates a function handler
func NewFunctionHandler(analyzer ScanAnalyzer, billingService BillingService) *FunctionHandler {
	return &FunctionHandler{analyzer: analyzer, billing: billingService, logger: logging.GetLogger()}
}

// AnalyzeSecurityRequest names the scan to analyse. Target and scan type
// are accepted for compatibility; the stored row is authoritative.
type AnalyzeSecurityRequest struct {
	Target   string `json:"target"`
	ScanType string `json:"scanType"`
	ScanID   string `json:"scanId"`
}

// AnalyzeSecurity handles POST /functions/v1/analyze-security
func (h *FunctionHandler) AnalyzeSecurity(c *gin.Context) {
	var req AnalyzeSecurityRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ScanID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing scanId"})
		return
	}

	sess := currentSession(c)
	result, err := h.analyzer.Analyze(c.Request.Context(), sess.Identity, req.ScanID)
	if err != nil {
		c.JSON(StatusFor(err), gin.H{"success": false, "error": publicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "scanId": result.ScanID, "result": result.Report})
}

// CreateCheckoutRequest starts a subscription checkout
type CreateCheckoutRequest struct {
	PriceID   string `json:"priceId"`
	Code      string `json:"code"`
	ReturnURL string `json:"returnUrl"`
}

// CreateCheckout handles POST /functions/v1/create-checkout
func (h *FunctionHandler) CreateCheckout(c *gin.Context) {
	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PriceID == "" || req.ReturnURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing priceId or returnUrl"})
		return
	}

	sess := currentSession(c)
	url, err := h.billing.CreateCheckoutSession(c.Request.Context(), sess.Identity, billing.CheckoutRequest{
		PriceID:       req.PriceID,
		Code:          req.Code,
		ReturnURL:     req.ReturnURL,
		RequestOrigin: c.GetHeader("Origin"),
	})
	if err != nil {
		functionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GetInvoices handles POST /functions/v1/get-invoices
func (h *FunctionHandler) GetInvoices(c *gin.Context) {
	sess := currentSession(c)
	invoices, err := h.billing.ListInvoices(c.Request.Context(), sess.UserID())
	if err != nil {
		functionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

// ToggleAdminPro handles POST /functions/v1/toggle-admin-pro
func (h *FunctionHandler) ToggleAdminPro(c *gin.Context) {
	sess := currentSession(c)
	status, err := h.billing.ToggleAdminPro(c.Request.Context(), sess.Identity)
	if err != nil {
		functionError(c, err)
		return
	}

	message := "PRO mode deactivated"
	if status == types.SubscriptionActive {
		message = "PRO mode activated"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "newStatus": status, "message": message})
}

// CodeRequest carries a user-typed code
type CodeRequest struct {
	Code string `json:"code"`
}

// codeCheckBody is the wire form of a code check
type codeCheckBody struct {
	Valid    bool              `json:"valid"`
	Code     string            `json:"code,omitempty"`
	PromoID  string            `json:"promoId,omitempty"`
	IsCoupon bool              `json:"isCoupon,omitempty"`
	Discount *billing.Discount `json:"discount,omitempty"`
	Error    *int              `json:"error,omitempty"`
}

func writeCodeCheck(c *gin.Context, check *billing.CodeCheck) {
	if check.Valid {
		c.JSON(http.StatusOK, codeCheckBody{
			Valid:    true,
			Code:     check.Code,
			PromoID:  check.PromoID,
			IsCoupon: check.IsCoupon,
			Discount: check.Discount,
		})
		return
	}

	code := int(check.Error)
	status := http.StatusOK
	if check.Error == billing.CodeInternalError {
		status = http.StatusInternalServerError
	}
	c.JSON(status, codeCheckBody{Valid: false, Error: &code})
}

// ValidateCode handles POST /functions/v1/validate-code
func (h *FunctionHandler) ValidateCode(c *gin.Context) {
	var req CodeRequest
	_ = c.ShouldBindJSON(&req)
	writeCodeCheck(c, h.billing.ValidateCode(c.Request.Context(), req.Code))
}

// ValidateStripePromo handles POST /functions/v1/validate-stripe-promo
func (h *FunctionHandler) ValidateStripePromo(c *gin.Context) {
	var req CodeRequest
	_ = c.ShouldBindJSON(&req)
	writeCodeCheck(c, h.billing.ValidatePromotion(c.Request.Context(), req.Code))
}

// RedeemCode handles POST /functions/v1/redeem-code
func (h *FunctionHandler) RedeemCode(c *gin.Context) {
	var req CodeRequest
	_ = c.ShouldBindJSON(&req)

	sess := currentSession(c)
	redemption, err := h.billing.RedeemPlanCode(c.Request.Context(), sess.Identity, req.Code)
	if err != nil {
		c.JSON(StatusFor(err), gin.H{"success": false, "code": errors.GetCode(err), "error": publicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"code":      redemption.Code,
		"duration":  redemption.Duration,
		"expiresAt": redemption.ExpiresAt,
	})
}

// StripeWebhook handles POST /functions/v1/stripe-webhook. The raw body is
// needed for signature verification, so it is never bound.
func (h *FunctionHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read body"})
		return
	}

	eventType, err := h.billing.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.LogError(c.Request.Context(), err, "Webhook delivery not applied", logrus.Fields{"event_type": eventType})
		functionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
