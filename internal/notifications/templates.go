package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/NikhilSetiya/securex/internal/billing"
	"github.com/NikhilSetiya/securex/pkg/types"
)

func planLabel(plan string) string {
	if plan == billing.PlanAnnual {
		return "PRO Anual"
	}
	return "PRO Mensal"
}

// subscriptionEmbed renders a new subscription for the operators channel.
// Dates are shown in pt-BR in the configured timezone.
func subscriptionEmbed(name, email, plan string, at time.Time, loc *time.Location) DiscordEmbed {
	local := at.In(loc)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return DiscordEmbed{
		Title: "🎉 Nova Assinatura PRO!",
		Color: ColorSuccess,
		Fields: []DiscordEmbedField{
			{Name: "👤 Usuário", Value: name, Inline: true},
			{Name: "📧 Email", Value: email, Inline: true},
			{Name: "💳 Plano", Value: planLabel(plan), Inline: true},
			{Name: "📅 Data", Value: local.Format("02/01/2006"), Inline: true},
			{Name: "⏰ Hora", Value: local.Format("15:04:05"), Inline: true},
		},
		Footer:    &DiscordEmbedFooter{Text: "✅ Benefícios já estão liberados!"},
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

// criticalEmbed renders a completed scan with critical findings
func criticalEmbed(scan *types.Scan, report *types.Report, dashboardURL string, at time.Time) DiscordEmbed {
	var titles []string
	for _, v := range report.Vulnerabilities {
		if v.Severity == types.FindingCritical {
			titles = append(titles, "• "+v.Title)
		}
		if len(titles) == 5 {
			break
		}
	}

	embed := DiscordEmbed{
		Title:       "🚨 Critical vulnerabilities found",
		Description: strings.Join(titles, "\n"),
		Color:       ColorDanger,
		Fields: []DiscordEmbedField{
			{Name: "Scan", Value: scan.ID, Inline: true},
			{Name: "Type", Value: string(scan.ScanType), Inline: true},
			{Name: "Target", Value: scan.Target, Inline: false},
			{Name: "Findings", Value: fmt.Sprintf("Critical: %d  High: %d  Medium: %d  Low: %d",
				report.Summary.Critical, report.Summary.High, report.Summary.Medium, report.Summary.Low), Inline: false},
		},
		Footer:    &DiscordEmbedFooter{Text: "SecureX Security Scanner"},
		Timestamp: at.UTC().Format(time.RFC3339),
	}
	if dashboardURL != "" {
		embed.URL = strings.TrimRight(dashboardURL, "/") + "/dashboard"
	}
	return embed
}
