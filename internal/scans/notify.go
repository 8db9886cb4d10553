package scans

import (
	"github.com/NikhilSetiya/securex/internal/i18n"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// Tier is the urgency of a scan notification
type Tier string

// Notification tiers
const (
	TierCritical Tier = "critical"
	TierWarning  Tier = "warning"
	TierSuccess  Tier = "success"
	TierNone     Tier = "none"
)

// ScanState is the part of a scan that drives feedback
type ScanState struct {
	Status               types.ScanStatus
	Severity             types.Severity
	VulnerabilitiesCount int
}

// StateOf extracts the feedback-relevant state of a scan
func StateOf(s *types.Scan) ScanState {
	return ScanState{Status: s.Status, Severity: s.SeverityValue(), VulnerabilitiesCount: s.VulnerabilitiesCount}
}

// DesktopAlert is an OS-level notification the browser may show
type DesktopAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notification is the toast (and optional desktop alert) for a scan
type Notification struct {
	Tier        Tier          `json:"tier"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Desktop     *DesktopAlert `json:"desktop,omitempty"`
}

// NotifyFor maps a scan state to its notification in lang. Only completed
// scans notify.
func NotifyFor(lang i18n.Lang, s ScanState) Notification {
	if s.Status != types.ScanStatusCompleted {
		return Notification{Tier: TierNone}
	}

	n := s.VulnerabilitiesCount
	switch {
	case s.Severity == types.SeverityDanger && n > 0:
		return Notification{
			Tier:        TierCritical,
			Title:       i18n.Plural(lang, "scan.notify.critical", n),
			Description: i18n.T(lang, "scan.notify.critical.detail"),
			Desktop: &DesktopAlert{
				Title: i18n.T(lang, "scan.notify.desktop.title"),
				Body:  i18n.Plural(lang, "scan.notify.desktop.body", n),
			},
		}
	case s.Severity == types.SeverityWarning && n > 0:
		return Notification{
			Tier:        TierWarning,
			Title:       i18n.Plural(lang, "scan.notify.warning", n),
			Description: i18n.T(lang, "scan.notify.warning.detail"),
		}
	default:
		return Notification{
			Tier:        TierSuccess,
			Title:       i18n.T(lang, "scan.notify.success"),
			Description: i18n.T(lang, "scan.notify.success.detail"),
		}
	}
}
