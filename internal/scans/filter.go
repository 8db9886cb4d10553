package scans

import (
	"github.com/NikhilSetiya/securex/pkg/types"
)

// FilterAll disables a filter
const FilterAll = "all"

// Filter returns the scans matching status and severity, preserving order.
// An empty value or "all" matches everything.
func Filter(scans []types.Scan, status, severity string) []types.Scan {
	out := make([]types.Scan, 0, len(scans))
	for _, s := range scans {
		if status != "" && status != FilterAll && string(s.Status) != status {
			continue
		}
		if severity != "" && severity != FilterAll && string(s.SeverityValue()) != severity {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Stats summarises a scan list for the dashboard
type Stats struct {
	TotalScans           int                      `json:"total_scans"`
	TotalVulnerabilities int                      `json:"total_vulnerabilities"`
	ByStatus             map[types.ScanStatus]int `json:"by_status"`
	BySeverity           map[types.Severity]int   `json:"by_severity"`
}

// ComputeStats counts scans by status and severity. Vulnerabilities are
// only counted for completed scans.
func ComputeStats(scans []types.Scan) Stats {
	st := Stats{
		TotalScans: len(scans),
		ByStatus:   map[types.ScanStatus]int{},
		BySeverity: map[types.Severity]int{},
	}
	for _, s := range scans {
		st.ByStatus[s.Status]++
		if s.Status == types.ScanStatusCompleted {
			st.TotalVulnerabilities += s.VulnerabilitiesCount
			if sev := s.SeverityValue(); sev.Valid() {
				st.BySeverity[sev]++
			}
		}
	}
	return st
}
