// Package backend talks to the hosted backend: token verification through
// GoTrue or the project JWT secret, and row access through PostgREST.
package backend

import (
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/errors"
)

// Table names
const (
	TableScans     = "scans"
	TableProfiles  = "profiles"
	TableUserRoles = "user_roles"
)

// Client is a service-role connection to the backend. It bypasses row level
// security, so every store method scopes rows by user id itself.
type Client struct {
	db *supabase.Client
}

// NewClient creates a service-role client
func NewClient(cfg config.SupabaseConfig) (*Client, error) {
	if cfg.URL == "" || cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("backend URL and service role key are required")
	}

	db, err := supabase.NewClient(strings.TrimRight(cfg.URL, "/"), cfg.ServiceRoleKey, &supabase.ClientOptions{
		Headers: map[string]string{
			"X-Client-Info": "securex-api@1.0.0",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) from(table string) *postgrest.QueryBuilder {
	return c.db.From(table)
}

// storeError wraps a PostgREST failure without echoing the response body
func storeError(op string, err error) error {
	return errors.NewExternalError("backend", "Storage request failed").
		WithDetail("operation", op).
		WithCause(err)
}
