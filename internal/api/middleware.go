package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/NikhilSetiya/securex/internal/backend"
	"github.com/NikhilSetiya/securex/internal/i18n"
	"github.com/NikhilSetiya/securex/internal/ratelimit"
	"github.com/NikhilSetiya/securex/internal/region"
	"github.com/NikhilSetiya/securex/internal/session"
	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/logging"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// Request headers understood by the session middleware
const (
	HeaderRegion   = "X-Region"
	HeaderLanguage = "X-Language"
)

// CORSMiddleware accepts the configured deployment origins and any https
// origin under the trusted host suffix. With neither configured every
// origin is accepted, as the hosted functions did.
func CORSMiddleware(cfg config.ServerConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			"Authorization", "Content-Type", "X-Client-Info", "Apikey",
			"Stripe-Signature", "X-Request-ID", HeaderRegion, HeaderLanguage,
		},
		ExposeHeaders: []string{"X-Request-ID", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 0 && cfg.TrustedHostSuffix == "" {
		corsCfg.AllowAllOrigins = true
		return cors.New(corsCfg)
	}

	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	corsCfg.AllowCredentials = true
	corsCfg.AllowOriginFunc = func(origin string) bool {
		if allowed[origin] {
			return true
		}
		return cfg.TrustedHostSuffix != "" &&
			strings.HasPrefix(origin, "https://") &&
			strings.HasSuffix(origin, cfg.TrustedHostSuffix)
	}
	return cors.New(corsCfg)
}

// SecurityHeadersMiddleware adds security headers
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Content-Security-Policy", "default-src 'self'; connect-src 'self' https: wss:; img-src 'self' data: https:; style-src 'self' 'unsafe-inline'")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// LoggingMiddleware logs every request once it has been served
func LoggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics" {
			return
		}
		logger.LogRequest(c.Request.Context(), c.Request.Method, c.Request.URL.Path,
			c.Request.UserAgent(), c.ClientIP(), c.Writer.Status(), time.Since(start))
	}
}

// failFunc writes an error response in the style of a route group
type failFunc func(c *gin.Context, err error)

// SessionLoader establishes the caller's session from a bearer token. The
// identity always comes from the token; user ids in the request are ignored.
type SessionLoader struct {
	auth     backend.Authenticator
	profiles backend.ProfileStore
	roles    backend.RoleStore
	logger   *logging.Logger
}

// NewSessionLoader creates a session loader
func NewSessionLoader(auth backend.Authenticator, profiles backend.ProfileStore, roles backend.RoleStore) *SessionLoader {
	return &SessionLoader{auth: auth, profiles: profiles, roles: roles, logger: logging.GetLogger()}
}

// Middleware authenticates the request and attaches the session. Failures
// are written with fail and abort the chain.
func (l *SessionLoader) Middleware(fail failFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			fail(c, errors.NewAuthenticationError("Unauthorized"))
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		identity, err := l.auth.Authenticate(ctx, token)
		if err != nil {
			fail(c, err)
			c.Abort()
			return
		}
		ctx = logging.WithUserID(ctx, identity.UserID)

		profile, err := l.profiles.Get(ctx, identity.UserID)
		if err != nil {
			if !errors.IsNotFound(err) {
				fail(c, err)
				c.Abort()
				return
			}
			// The profile row is created by a backend trigger; a brand new
			// account may not have it yet.
			l.logger.WithContext(ctx).Warn("Profile missing for authenticated user")
			profile = &types.Profile{UserID: identity.UserID, SubscriptionStatus: types.SubscriptionInactive}
		}

		admin, err := l.roles.HasRole(ctx, identity.UserID, types.RoleAdmin)
		if err != nil {
			l.logger.WithContext(ctx).WithError(err).Warn("Role lookup failed")
			admin = false
		}

		sess := &session.Session{
			Identity:    *identity,
			AccessToken: token,
			Profile:     profile,
			IsAdmin:     admin,
		}
		c.Request = c.Request.WithContext(ctx)
		session.Set(c, localize(c, sess))
		c.Next()
	}
}

// localize picks region and language: an explicit region header or query
// wins, the language follows it unless also given explicitly, and without
// either the browser's Accept-Language decides.
func localize(c *gin.Context, sess *session.Session) *session.Session {
	lang := firstNonEmpty(c.GetHeader(HeaderLanguage), c.Query("lang"))
	if code := firstNonEmpty(c.GetHeader(HeaderRegion), c.Query("region")); code != "" {
		return sess.WithRegion(code, lang)
	}
	sess.Region, _ = region.Resolve(string(region.Default))
	if lang != "" {
		sess.Lang = i18n.Normalize(lang)
	} else {
		sess.Lang = i18n.Negotiate(c.GetHeader("Accept-Language"))
	}
	return sess
}

// bearerToken reads the Authorization header. Browsers cannot set headers
// on websocket upgrades, so those may pass the token as a query parameter.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		if token := c.Query("access_token"); token != "" {
			return token, true
		}
	}
	return "", false
}

// RateLimitMiddleware bounds calls per caller within scope. It keys on the
// session's user and falls back to the client address before auth. Limiter
// failures let the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, scope string, fail failFunc) gin.HandlerFunc {
	logger := logging.GetLogger()
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if sess, ok := session.Get(c); ok {
			key = "user:" + sess.UserID()
		}

		decision, err := limiter.Allow(c.Request.Context(), scope+":"+key)
		if err != nil {
			logger.WithContext(c.Request.Context()).WithError(err).Warn("Rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			retry := int(decision.RetryAfter.Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			fail(c, errors.NewRateLimitError("Too many attempts. Please wait and try again."))
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentSession returns the session attached by SessionLoader. Routes
// using it are always behind that middleware.
func currentSession(c *gin.Context) *session.Session {
	sess, _ := session.Get(c)
	return sess
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
