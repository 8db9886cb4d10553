package analysis

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/NikhilSetiya/securex/pkg/types"
)

var (
	fencedJSON  = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")
	fencedPlain = regexp.MustCompile("(?s)```\\s*\\n(.*?)\\n\\s*```")
)

// ParseReport extracts the JSON report from a model reply. The reply may be
// bare JSON or wrapped in a fenced block. When nothing parses, the empty safe
// report is returned with ok=false.
func ParseReport(reply string) (report *types.Report, ok bool) {
	candidates := make([]string, 0, 3)
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := fencedPlain.FindStringSubmatch(reply); m != nil {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, reply)
	if start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}"); start >= 0 && end > start {
		candidates = append(candidates, reply[start:end+1])
	}

	for _, c := range candidates {
		var parsed types.Report
		if err := json.Unmarshal([]byte(strings.TrimSpace(c)), &parsed); err == nil {
			return Normalize(&parsed), true
		}
	}
	return types.EmptyReport(), false
}

// Normalize makes a model-produced report self-consistent: unknown finding
// severities become low, the summary is recounted from the findings, and
// the overall severity is derived when missing or contradicted.
func Normalize(r *types.Report) *types.Report {
	if r == nil {
		return types.EmptyReport()
	}
	if r.Vulnerabilities == nil {
		r.Vulnerabilities = []types.Vulnerability{}
	}

	var sum types.Summary
	for i := range r.Vulnerabilities {
		v := &r.Vulnerabilities[i]
		v.Severity = types.FindingSeverity(strings.ToLower(strings.TrimSpace(string(v.Severity))))
		if !v.Severity.Valid() {
			v.Severity = types.FindingLow
		}
		switch v.Severity {
		case types.FindingCritical:
			sum.Critical++
		case types.FindingHigh:
			sum.High++
		case types.FindingMedium:
			sum.Medium++
		default:
			sum.Low++
		}
	}
	sum.Total = len(r.Vulnerabilities)
	r.Summary = sum

	r.OverallSeverity = types.Severity(strings.ToLower(string(r.OverallSeverity)))
	derived := deriveSeverity(sum)
	switch {
	case !r.OverallSeverity.Valid():
		r.OverallSeverity = derived
	case sum.Total == 0:
		r.OverallSeverity = types.SeveritySafe
	case r.OverallSeverity == types.SeveritySafe:
		r.OverallSeverity = derived
	}
	return r
}

func deriveSeverity(s types.Summary) types.Severity {
	switch {
	case s.Critical > 0 || s.High > 0:
		return types.SeverityDanger
	case s.Medium > 0 || s.Low > 0:
		return types.SeverityWarning
	}
	return types.SeveritySafe
}
