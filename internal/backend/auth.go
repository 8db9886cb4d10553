package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/supabase-community/gotrue-go"

	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// Authenticator derives the caller identity from a bearer token
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*types.Identity, error)
}

// TokenAuthenticator verifies access tokens locally when the project JWT
// secret is configured and asks the auth server otherwise.
type TokenAuthenticator struct {
	jwtSecret []byte
	auth      gotrue.Client
	now       func() time.Time
}

// NewTokenAuthenticator creates an authenticator for the configured project
func NewTokenAuthenticator(cfg config.SupabaseConfig) *TokenAuthenticator {
	key := cfg.AnonKey
	if key == "" {
		key = cfg.ServiceRoleKey
	}
	a := &TokenAuthenticator{
		auth: gotrue.New("", key).WithCustomGoTrueURL(strings.TrimRight(cfg.URL, "/") + "/auth/v1"),
		now:  time.Now,
	}
	if cfg.JWTSecret != "" {
		a.jwtSecret = []byte(cfg.JWTSecret)
	}
	return a
}

// accessClaims are the claims the auth server puts in access tokens
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate returns the identity behind token
func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (*types.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.NewAuthenticationError("No authorization header")
	}

	if a.jwtSecret != nil {
		return a.verifyLocally(token)
	}
	return a.verifyRemotely(token)
}

func (a *TokenAuthenticator) verifyLocally(token string) (*types.Identity, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, errors.NewAuthenticationError("Invalid or expired token").WithCause(err)
	}

	if claims.Subject == "" || claims.Role == "anon" {
		return nil, errors.NewAuthenticationError("Token does not identify a user")
	}

	return &types.Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

func (a *TokenAuthenticator) verifyRemotely(token string) (*types.Identity, error) {
	resp, err := a.auth.WithToken(token).GetUser()
	if err != nil {
		return nil, errors.NewAuthenticationError("Invalid or expired token").WithCause(err)
	}
	return &types.Identity{UserID: resp.ID.String(), Email: resp.Email}, nil
}
