package types

import (
	"time"
)

// ScanType identifies what kind of target a scan analyzes
type ScanType string

// Scan types
const (
	ScanTypeFile   ScanType = "file"
	ScanTypeURL    ScanType = "url"
	ScanTypeGitHub ScanType = "github"
)

// Valid reports whether the scan type is known
func (t ScanType) Valid() bool {
	switch t {
	case ScanTypeFile, ScanTypeURL, ScanTypeGitHub:
		return true
	}
	return false
}

// ScanStatus is the lifecycle state of a scan
type ScanStatus string

// Scan statuses
const (
	ScanStatusPending    ScanStatus = "pending"
	ScanStatusProcessing ScanStatus = "processing"
	ScanStatusCompleted  ScanStatus = "completed"
	ScanStatusFailed     ScanStatus = "failed"
)

// Valid reports whether the status is known
func (s ScanStatus) Valid() bool {
	switch s {
	case ScanStatusPending, ScanStatusProcessing, ScanStatusCompleted, ScanStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed
func (s ScanStatus) Terminal() bool {
	return s == ScanStatusCompleted || s == ScanStatusFailed
}

// CanTransition reports whether a scan may move from one status to another.
// pending -> processing -> completed|failed. A pending scan may also fail
// directly when dispatch never reaches the analyzer.
func CanTransition(from, to ScanStatus) bool {
	switch from {
	case ScanStatusPending:
		return to == ScanStatusProcessing || to == ScanStatusFailed
	case ScanStatusProcessing:
		return to == ScanStatusCompleted || to == ScanStatusFailed
	}
	return false
}

// Severity is the coarse, scan level rollup
type Severity string

// Coarse severities. SeverityUnset is stored as NULL until completion.
const (
	SeverityUnset   Severity = ""
	SeveritySafe    Severity = "safe"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Valid reports whether the severity is one of safe, warning or danger
func (s Severity) Valid() bool {
	return s == SeveritySafe || s == SeverityWarning || s == SeverityDanger
}

// FindingSeverity is the per vulnerability rating
type FindingSeverity string

// Fine grained severities
const (
	FindingCritical FindingSeverity = "critical"
	FindingHigh     FindingSeverity = "high"
	FindingMedium   FindingSeverity = "medium"
	FindingLow      FindingSeverity = "low"
)

// Valid reports whether the finding severity is known
func (s FindingSeverity) Valid() bool {
	switch s {
	case FindingCritical, FindingHigh, FindingMedium, FindingLow:
		return true
	}
	return false
}

// Vulnerability is a single finding inside a completed scan report
type Vulnerability struct {
	Type           string          `json:"type"`
	Severity       FindingSeverity `json:"severity"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Location       string          `json:"location"`
	Recommendation string          `json:"recommendation"`
	CodeExample    string          `json:"code_example,omitempty"`
}

// Summary counts vulnerabilities by severity
type Summary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Consistent reports whether the sub-counts add up to the total
func (s Summary) Consistent() bool {
	return s.Critical+s.High+s.Medium+s.Low == s.Total
}

// Report is the structured analysis result attached to a completed scan
type Report struct {
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	Summary         Summary         `json:"summary"`
	OverallSeverity Severity        `json:"overall_severity"`
}

// EmptyReport is the safe result used when no findings could be extracted
func EmptyReport() *Report {
	return &Report{
		Vulnerabilities: []Vulnerability{},
		Summary:         Summary{},
		OverallSeverity: SeveritySafe,
	}
}

// Scan is one requested analysis, owned by a single account
type Scan struct {
	ID                   string     `json:"id" db:"id"`
	UserID               string     `json:"user_id" db:"user_id"`
	Target               string     `json:"target" db:"target"`
	ScanType             ScanType   `json:"scan_type" db:"scan_type"`
	Status               ScanStatus `json:"status" db:"status"`
	Severity             *Severity  `json:"severity" db:"severity"`
	VulnerabilitiesCount int        `json:"vulnerabilities_count" db:"vulnerabilities_count"`
	Result               *Report    `json:"result,omitempty" db:"result"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
}

// SeverityValue returns the coarse severity, or SeverityUnset when NULL
func (s *Scan) SeverityValue() Severity {
	if s.Severity == nil {
		return SeverityUnset
	}
	return *s.Severity
}

// OwnedBy reports whether the scan belongs to the given account
func (s *Scan) OwnedBy(userID string) bool {
	return userID != "" && s.UserID == userID
}

// SubscriptionStatus gates PRO features
type SubscriptionStatus string

// Subscription statuses
const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// Profile holds per-account billing and quota state
type Profile struct {
	UserID                string             `json:"user_id" db:"user_id"`
	SubscriptionStatus    SubscriptionStatus `json:"subscription_status" db:"subscription_status"`
	ScansThisMonth        int                `json:"scans_this_month" db:"scans_this_month"`
	StripeCustomerID      *string            `json:"stripe_customer_id,omitempty" db:"stripe_customer_id"`
	SubscriptionExpiresAt *time.Time         `json:"subscription_expires_at,omitempty" db:"subscription_expires_at"`
}

// Subscribed reports whether the account currently has PRO access
func (p *Profile) Subscribed() bool {
	return p.SubscribedAt(time.Now())
}

// SubscribedAt reports PRO access at the given instant. Redeemed plans carry
// an expiry; provider-managed subscriptions do not.
func (p *Profile) SubscribedAt(now time.Time) bool {
	if p == nil || p.SubscriptionStatus != SubscriptionActive {
		return false
	}
	if p.SubscriptionExpiresAt != nil && now.After(*p.SubscriptionExpiresAt) {
		return false
	}
	return true
}

// CustomerID returns the stored payment provider customer, if any
func (p *Profile) CustomerID() string {
	if p == nil || p.StripeCustomerID == nil {
		return ""
	}
	return *p.StripeCustomerID
}

// Roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is the caller as established by the auth provider from a bearer
// token. Client-supplied user ids are never trusted.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
