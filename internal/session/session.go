// Package session carries the per-request caller context: who is calling,
// their subscription state and the chosen region and language. It is
// established once by middleware and read-only afterwards.
package session

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/NikhilSetiya/securex/internal/i18n"
	"github.com/NikhilSetiya/securex/internal/region"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// Session is the explicit caller context handed to every operation
type Session struct {
	Identity    types.Identity
	AccessToken string
	Profile     *types.Profile
	IsAdmin     bool
	Region      region.Config
	Lang        i18n.Lang
}

// UserID is shorthand for the authenticated account id
func (s *Session) UserID() string {
	return s.Identity.UserID
}

// Subscribed reports whether the caller has PRO access right now
func (s *Session) Subscribed() bool {
	return s.Profile.Subscribed()
}

// ScansThisMonth returns the caller's counter as loaded with the session
func (s *Session) ScansThisMonth() int {
	if s.Profile == nil {
		return 0
	}
	return s.Profile.ScansThisMonth
}

// WithRegion returns a copy switched to another region. The language
// follows the region unless one was chosen explicitly.
func (s *Session) WithRegion(code string, explicitLang string) *Session {
	cp := *s
	cp.Region, _ = region.Resolve(code)
	if explicitLang != "" {
		cp.Lang = i18n.Normalize(explicitLang)
	} else {
		cp.Lang = i18n.Normalize(cp.Region.Language)
	}
	return &cp
}

type ctxKey struct{}

const ginKey = "session"

// NewContext stores s in ctx
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// Set attaches s to both the gin context and the request context
func Set(c *gin.Context, s *Session) {
	c.Set(ginKey, s)
	c.Request = c.Request.WithContext(NewContext(c.Request.Context(), s))
}

// Get returns the session attached by Set
func Get(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(ginKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok && s != nil
}
