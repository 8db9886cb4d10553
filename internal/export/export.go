// Package export renders completed scan reports as downloadable documents.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/NikhilSetiya/securex/internal/i18n"
	"github.com/NikhilSetiya/securex/internal/scans"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// Format is an export document type
type Format string

// Export formats
const (
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat returns the format named by s, defaulting to PDF
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPDF:
		return FormatPDF, true
	case FormatJSON:
		return FormatJSON, true
	case FormatCSV:
		return FormatCSV, true
	}
	return "", false
}

// Result is a rendered document
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
	GeneratedAt time.Time
}

// Exporter renders scan reports
type Exporter struct {
	now func() time.Time
}

// NewExporter creates a new exporter
func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// Export renders a completed scan in the requested format. Scans without a
// result cannot be exported.
func (e *Exporter) Export(scan *types.Scan, format Format, lang i18n.Lang) (*Result, error) {
	if scan == nil || scan.Status != types.ScanStatusCompleted || scan.Result == nil {
		return nil, errors.NewConflictError("Only completed scans can be exported")
	}

	now := e.now()
	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatPDF:
		data, err = e.renderPDF(scan, lang, now)
		contentType = "application/pdf"
	case FormatJSON:
		data, err = renderJSON(scan, now)
		contentType = "application/json"
	case FormatCSV:
		data, err = renderCSV(scan)
		contentType = "text/csv"
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unsupported export format: %s", format))
	}
	if err != nil {
		return nil, errors.NewInternalError("Failed to render report").WithCause(err)
	}

	return &Result{
		Filename:    fmt.Sprintf("securex_%s_%s.%s", shortID(scan.ID), now.Format("20060102_150405"), format),
		ContentType: contentType,
		Data:        data,
		GeneratedAt: now,
	}, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var severityColors = map[types.FindingSeverity][3]int{
	types.FindingCritical: {185, 28, 28},
	types.FindingHigh:     {220, 38, 38},
	types.FindingMedium:   {217, 119, 6},
	types.FindingLow:      {37, 99, 235},
}

func (e *Exporter) renderPDF(scan *types.Scan, lang i18n.Lang, now time.Time) ([]byte, error) {
	report := scan.Result

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("SecureX Security Report", true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Security Scan Report")
	pdf.Ln(12)

	p := scans.Present(lang, scan.Status, scan.SeverityValue())
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("Target: "+scan.Target), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Type: %s", scan.ScanType), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, tr("Result: "+p.Label), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Scanned: %s", scan.CreatedAt.UTC().Format("2006-01-02 15:04 MST")), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", now.UTC().Format("2006-01-02 15:04 MST")), "", 1, "", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for _, row := range []struct {
		label string
		n     int
	}{
		{"Total", report.Summary.Total},
		{"Critical", report.Summary.Critical},
		{"High", report.Summary.High},
		{"Medium", report.Summary.Medium},
		{"Low", report.Summary.Low},
	} {
		pdf.CellFormat(40, 6, row.label, "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", row.n), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	if len(report.Vulnerabilities) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No vulnerabilities were found.")
	} else {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Findings")
		pdf.Ln(10)
	}

	for i, v := range report.Vulnerabilities {
		if i > 0 {
			pdf.Ln(4)
		}
		c := severityColors[v.Severity]
		pdf.SetTextColor(c[0], c[1], c[2])
		pdf.SetFont("Arial", "B", 10)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. [%s] %s", i+1, strings.ToUpper(string(v.Severity)), v.Title)), "", "", false)
		pdf.SetTextColor(0, 0, 0)

		pdf.SetFont("Arial", "", 9)
		if v.Type != "" {
			pdf.MultiCell(0, 4, tr("Category: "+v.Type), "", "", false)
		}
		if v.Location != "" {
			pdf.MultiCell(0, 4, tr("Location: "+v.Location), "", "", false)
		}
		if v.Description != "" {
			pdf.MultiCell(0, 4, tr(v.Description), "", "", false)
		}
		if v.Recommendation != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 4, tr("Recommendation: "+v.Recommendation), "", "", false)
		}
		if v.CodeExample != "" {
			pdf.SetFont("Courier", "", 8)
			pdf.MultiCell(0, 4, tr(v.CodeExample), "", "", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func renderJSON(scan *types.Scan, now time.Time) ([]byte, error) {
	data := map[string]interface{}{
		"export_info": map[string]interface{}{
			"generated_at": now.UTC(),
			"format":       "json",
			"version":      "1.0",
		},
		"scan": map[string]interface{}{
			"id":         scan.ID,
			"target":     scan.Target,
			"scan_type":  scan.ScanType,
			"severity":   scan.SeverityValue(),
			"created_at": scan.CreatedAt.UTC(),
		},
		"report": scan.Result,
	}
	return json.MarshalIndent(data, "", "  ")
}

func renderCSV(scan *types.Scan) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Severity", "Category", "Title", "Location", "Description", "Recommendation"}); err != nil {
		return nil, err
	}
	for _, v := range scan.Result.Vulnerabilities {
		if err := w.Write([]string{string(v.Severity), v.Type, v.Title, v.Location, v.Description, v.Recommendation}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
