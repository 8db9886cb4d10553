package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NikhilSetiya/securex/internal/i18n"
	"github.com/NikhilSetiya/securex/internal/region"
	"github.com/NikhilSetiya/securex/internal/scans"
	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// ProfileResponse is the caller's account summary
type ProfileResponse struct {
	UserID                string                   `json:"user_id"`
	Email                 string                   `json:"email"`
	SubscriptionStatus    types.SubscriptionStatus `json:"subscription_status"`
	Subscribed            bool                     `json:"subscribed"`
	SubscriptionExpiresAt *time.Time               `json:"subscription_expires_at,omitempty"`
	IsAdmin               bool                     `json:"is_admin"`
	ScansThisMonth        int                      `json:"scans_this_month"`
	FreeScansRemaining    int                      `json:"free_scans_remaining"`
	Region                region.Code              `json:"region"`
	Language              i18n.Lang                `json:"language"`
}

// AccountHandler serves the caller's profile and the locale tables
type AccountHandler struct {
	limits config.LimitsConfig
}

// NewAccountHandler creates an account handler
func NewAccountHandler(limits config.LimitsConfig) *AccountHandler {
	return &AccountHandler{limits: limits}
}

// GetProfile returns the session's profile as loaded by the auth middleware
func (h *AccountHandler) GetProfile(c *gin.Context) {
	sess := currentSession(c)

	remaining := scans.Unlimited
	if !sess.Subscribed() {
		remaining = h.limits.FreeScansPerMonth - sess.ScansThisMonth()
		if remaining < 0 {
			remaining = 0
		}
	}

	resp := ProfileResponse{
		UserID:             sess.UserID(),
		Email:              sess.Identity.Email,
		Subscribed:         sess.Subscribed(),
		IsAdmin:            sess.IsAdmin,
		ScansThisMonth:     sess.ScansThisMonth(),
		FreeScansRemaining: remaining,
		Region:             sess.Region.Code,
		Language:           sess.Lang,
	}
	if sess.Profile != nil {
		resp.SubscriptionStatus = sess.Profile.SubscriptionStatus
		resp.SubscriptionExpiresAt = sess.Profile.SubscriptionExpiresAt
	}
	SuccessResponse(c, resp)
}

// RegionView is a region with its plan prices rendered
type RegionView struct {
	region.Config
	MonthlyPrice          float64 `json:"monthly_price"`
	AnnualPrice           float64 `json:"annual_price"`
	MonthlyPriceFormatted string  `json:"monthly_price_formatted"`
	AnnualPriceFormatted  string  `json:"annual_price_formatted"`
}

// Plan prices are expressed by each region's multiplier over a unit base
const basePlanPrice = 1.0

func regionView(cfg region.Config) RegionView {
	monthly := cfg.Price(basePlanPrice, false)
	annual := cfg.Price(basePlanPrice, true)
	return RegionView{
		Config:                cfg,
		MonthlyPrice:          monthly,
		AnnualPrice:           annual,
		MonthlyPriceFormatted: cfg.FormatPrice(monthly),
		AnnualPriceFormatted:  cfg.FormatPrice(annual),
	}
}

// ListRegions returns every region in display order
func (h *AccountHandler) ListRegions(c *gin.Context) {
	all := region.All()
	views := make([]RegionView, 0, len(all))
	for _, cfg := range all {
		views = append(views, regionView(cfg))
	}
	SuccessResponse(c, views)
}

// GetRegion returns one region. Unknown codes are a 404 rather than the
// silent default used for sessions.
func (h *AccountHandler) GetRegion(c *gin.Context) {
	cfg, ok := region.Resolve(c.Param("code"))
	if !ok {
		ErrorResponseFromError(c, errors.NewNotFoundError("Region"))
		return
	}
	SuccessResponse(c, regionView(cfg))
}

// GetTranslations returns the full string table for a language, merged
// over the default language.
func (h *AccountHandler) GetTranslations(c *gin.Context) {
	lang := i18n.Normalize(c.Param("lang"))
	SuccessResponse(c, gin.H{"language": lang, "messages": i18n.Table(lang)})
}
