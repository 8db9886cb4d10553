package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NikhilSetiya/securex/internal/backend"
	"github.com/NikhilSetiya/securex/internal/export"
	"github.com/NikhilSetiya/securex/internal/i18n"
	"github.com/NikhilSetiya/securex/internal/scans"
	"github.com/NikhilSetiya/securex/internal/session"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// ScanRequester is the request/confirm flow of the scan lifecycle
type ScanRequester interface {
	RequestScan(ctx context.Context, sess *session.Session, in scans.Input) (*scans.PendingScan, error)
	ConfirmScan(ctx context.Context, sess *session.Session, p scans.PendingScan) (*scans.Confirmation, error)
}

// ScanHandler handles scan-related API requests
type ScanHandler struct {
	manager  ScanRequester
	store    backend.ScanStore
	exporter *export.Exporter
}

// NewScanHandler creates a new scan handler
func NewScanHandler(manager ScanRequester, store backend.ScanStore, exporter *export.Exporter) *ScanHandler {
	return &ScanHandler{manager: manager, store: store, exporter: exporter}
}

// ScanView is a scan with its display mapping
type ScanView struct {
	types.Scan
	Presentation scans.Presentation `json:"presentation"`
}

// ScanListResponse is the dashboard listing
type ScanListResponse struct {
	Scans []ScanView  `json:"scans"`
	Stats scans.Stats `json:"stats"`
}

func viewOf(lang i18n.Lang, s types.Scan) ScanView {
	return ScanView{Scan: s, Presentation: scans.Present(lang, s.Status, s.SeverityValue())}
}

// RequestScan validates a scan target and returns the summary to confirm
func (h *ScanHandler) RequestScan(c *gin.Context) {
	var in scans.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequestResponse(c, "Invalid request body")
		return
	}

	pending, err := h.manager.RequestScan(c.Request.Context(), currentSession(c), in)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, pending)
}

// ConfirmScan creates the scan and starts its analysis
func (h *ScanHandler) ConfirmScan(c *gin.Context) {
	var pending scans.PendingScan
	if err := c.ShouldBindJSON(&pending); err != nil {
		BadRequestResponse(c, "Invalid request body")
		return
	}

	confirmation, err := h.manager.ConfirmScan(c.Request.Context(), currentSession(c), pending)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	CreatedResponse(c, confirmation)
}

// ListScans returns the caller's scans, newest first. Stats always cover
// the whole list; status and severity only filter the rows.
func (h *ScanHandler) ListScans(c *gin.Context) {
	sess := currentSession(c)
	all, err := h.store.ListByUser(c.Request.Context(), sess.UserID())
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	filtered := scans.Filter(all, c.Query("status"), c.Query("severity"))
	views := make([]ScanView, 0, len(filtered))
	for _, s := range filtered {
		views = append(views, viewOf(sess.Lang, s))
	}
	SuccessResponse(c, ScanListResponse{Scans: views, Stats: scans.ComputeStats(all)})
}

// GetScan returns one of the caller's scans
func (h *ScanHandler) GetScan(c *gin.Context) {
	sess := currentSession(c)
	scan, err := h.store.GetOwned(c.Request.Context(), c.Param("id"), sess.UserID())
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, viewOf(sess.Lang, *scan))
}

// ExportPDF streams the PDF report of a completed scan
func (h *ScanHandler) ExportPDF(c *gin.Context) {
	h.export(c, export.FormatPDF)
}

// ExportScan streams the report in the format named by ?format
func (h *ScanHandler) ExportScan(c *gin.Context) {
	format, ok := export.ParseFormat(c.Query("format"))
	if !ok {
		ErrorResponseFromError(c, errors.NewValidationError(fmt.Sprintf("unsupported export format: %s", c.Query("format"))))
		return
	}
	h.export(c, format)
}

// export is available to PRO accounts only
func (h *ScanHandler) export(c *gin.Context, format export.Format) {
	sess := currentSession(c)
	if !sess.Subscribed() {
		ErrorResponseFromError(c, errors.NewUpgradeRequiredError(i18n.T(sess.Lang, "error.export_pro")))
		return
	}

	scan, err := h.store.GetOwned(c.Request.Context(), c.Param("id"), sess.UserID())
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	result, err := h.exporter.Export(scan, format, sess.Lang)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
