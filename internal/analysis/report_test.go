package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NikhilSetiya/securex/pkg/types"
)

func TestParseReport(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		ok       bool
		total    int
		severity types.Severity
	}{
		{
			name:     "json fence",
			reply:    "Analysis:\n```json\n{\"vulnerabilities\":[{\"severity\":\"high\",\"title\":\"XSS\"}],\"overall_severity\":\"danger\"}\n```\nDone.",
			ok:       true,
			total:    1,
			severity: types.SeverityDanger,
		},
		{
			name:     "plain fence",
			reply:    "```\n{\"vulnerabilities\":[{\"severity\":\"medium\"}]}\n```",
			ok:       true,
			total:    1,
			severity: types.SeverityWarning,
		},
		{
			name:     "bare json",
			reply:    `{"vulnerabilities":[],"summary":{"total":0},"overall_severity":"safe"}`,
			ok:       true,
			severity: types.SeveritySafe,
		},
		{
			name:     "json inside prose",
			reply:    `Result follows {"vulnerabilities":[{"severity":"low"}],"overall_severity":"warning"} hope it helps`,
			ok:       true,
			total:    1,
			severity: types.SeverityWarning,
		},
		{
			name:     "garbage",
			reply:    "I am unable to access that URL.",
			severity: types.SeveritySafe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, ok := ParseReport(tt.reply)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.total, report.Summary.Total)
			assert.Equal(t, tt.severity, report.OverallSeverity)
			assert.True(t, report.Summary.Consistent())
			assert.NotNil(t, report.Vulnerabilities)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("recounts summary and fixes severities", func(t *testing.T) {
		r := Normalize(&types.Report{
			Vulnerabilities: []types.Vulnerability{
				{Severity: "Critical"},
				{Severity: "informational"},
				{Severity: " medium "},
			},
			Summary:         types.Summary{Total: 12, Critical: 12},
			OverallSeverity: "SAFE",
		})

		assert.Equal(t, types.Summary{Total: 3, Critical: 1, Medium: 1, Low: 1}, r.Summary)
		assert.Equal(t, types.FindingLow, r.Vulnerabilities[1].Severity)
		assert.Equal(t, types.SeverityDanger, r.OverallSeverity)
	})

	t.Run("no findings is safe", func(t *testing.T) {
		r := Normalize(&types.Report{OverallSeverity: types.SeverityDanger})
		assert.Equal(t, types.SeveritySafe, r.OverallSeverity)
		assert.Empty(t, r.Vulnerabilities)
	})

	t.Run("keeps a stricter model verdict", func(t *testing.T) {
		r := Normalize(&types.Report{
			Vulnerabilities: []types.Vulnerability{{Severity: types.FindingLow}},
			OverallSeverity: types.SeverityDanger,
		})
		assert.Equal(t, types.SeverityDanger, r.OverallSeverity)
	})

	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, types.EmptyReport(), Normalize(nil))
	})
}
