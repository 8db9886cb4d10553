package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NikhilSetiya/securex/internal/backend"
	"github.com/NikhilSetiya/securex/internal/export"
	"github.com/NikhilSetiya/securex/internal/ratelimit"
	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/logging"
	"github.com/NikhilSetiya/securex/pkg/metrics"
	"github.com/NikhilSetiya/securex/pkg/tracing"
)

// Dependencies are the services the router wires into handlers
type Dependencies struct {
	Config        *config.Config
	Authenticator backend.Authenticator
	Scans         backend.ScanStore
	Profiles      backend.ProfileStore
	Roles         backend.RoleStore
	Manager       ScanRequester
	Analyzer      ScanAnalyzer
	Watcher       ScanWatcher
	Billing       BillingService
	Exporter      *export.Exporter
	// Limiter throttles code validation and redemption. Defaults to an
	// in-process limiter.
	Limiter ratelimit.Limiter
	Metrics *metrics.Metrics
	Tracing *tracing.TracingService
	Health  map[string]HealthChecker
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(cfg.Limits.CodeAttemptsPerMinute, time.Minute)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(logging.GetLogger()))
	router.Use(CORSMiddleware(cfg.Server))
	router.Use(SecurityHeadersMiddleware())
	router.Use(deps.Metrics.PrometheusMiddleware())
	if deps.Tracing != nil {
		router.Use(deps.Tracing.TracingMiddleware())
	}

	router.GET("/health", NewHealthHandler(deps.Health).Check)
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	sessions := NewSessionLoader(deps.Authenticator, deps.Profiles, deps.Roles)

	// Function-style endpoints answer with flat bodies
	functions := NewFunctionHandler(deps.Analyzer, deps.Billing)
	fn := router.Group("/functions/v1")
	{
		// Authenticated by the provider signature, not a bearer token
		fn.POST("/stripe-webhook", functions.StripeWebhook)

		authed := fn.Group("")
		authed.Use(sessions.Middleware(functionError))
		{
			authed.POST("/analyze-security", functions.AnalyzeSecurity)
			authed.POST("/create-checkout", functions.CreateCheckout)
			authed.POST("/get-invoices", functions.GetInvoices)
			authed.POST("/toggle-admin-pro", functions.ToggleAdminPro)

			codes := authed.Group("")
			codes.Use(RateLimitMiddleware(limiter, "codes", functionError))
			{
				codes.POST("/validate-code", functions.ValidateCode)
				codes.POST("/validate-stripe-promo", functions.ValidateStripePromo)
				codes.POST("/redeem-code", functions.RedeemCode)
			}
		}
	}

	account := NewAccountHandler(cfg.Limits)
	scanHandler := NewScanHandler(deps.Manager, deps.Scans, deps.Exporter)
	events := NewEventsHandler(deps.Watcher, cfg.Server)

	v1 := router.Group("/api/v1")
	{
		v1.GET("", func(c *gin.Context) {
			SuccessResponse(c, gin.H{"name": "SecureX API", "version": Version, "status": "ok"})
		})
		v1.GET("/regions", account.ListRegions)
		v1.GET("/regions/:code", account.GetRegion)
		v1.GET("/i18n/:lang", account.GetTranslations)

		protected := v1.Group("")
		protected.Use(sessions.Middleware(ErrorResponseFromError))
		{
			protected.GET("/profile", account.GetProfile)

			scans := protected.Group("/scans")
			{
				scans.GET("", scanHandler.ListScans)
				scans.POST("/request", scanHandler.RequestScan)
				scans.POST("/confirm", scanHandler.ConfirmScan)
				scans.GET("/events", events.Stream)
				scans.GET("/:id", scanHandler.GetScan)
				scans.GET("/:id/export", scanHandler.ExportScan)
				scans.GET("/:id/export.pdf", scanHandler.ExportPDF)
			}
		}
	}

	pages := NewPageHandler(cfg.Server.WebDir)
	for _, route := range PageRoutes {
		router.GET(route, pages.Shell)
	}
	router.NoRoute(pages.NotFound)

	return router
}
