// Package analysis runs the AI security analysis for a scan: ownership
// check, status writes, prompt construction, the gateway call and report
// normalization.
package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NikhilSetiya/securex/internal/backend"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/logging"
	"github.com/NikhilSetiya/securex/pkg/metrics"
	"github.com/NikhilSetiya/securex/pkg/tracing"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// CriticalAlerter is told about completed scans with critical findings
type CriticalAlerter interface {
	AlertCritical(ctx context.Context, scan *types.Scan, report *types.Report) error
}

// Analyzer performs analyses
type Analyzer struct {
	scans    backend.ScanStore
	gateway  Gateway
	repos    RepoInspector
	alerter  CriticalAlerter
	metrics  *metrics.Metrics
	tracer   *tracing.TracingService
	logger   *logging.Logger
	timeout  time.Duration
	inFlight sync.WaitGroup
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithRepoInspector enables repository metadata for GitHub scans
func WithRepoInspector(r RepoInspector) Option { return func(a *Analyzer) { a.repos = r } }

// WithCriticalAlerter reports critical findings to operators
func WithCriticalAlerter(c CriticalAlerter) Option { return func(a *Analyzer) { a.alerter = c } }

// WithMetrics records analysis metrics
func WithMetrics(m *metrics.Metrics) Option { return func(a *Analyzer) { a.metrics = m } }

// WithTracing wraps analyses in spans
func WithTracing(t *tracing.TracingService) Option { return func(a *Analyzer) { a.tracer = t } }

// WithTimeout bounds a dispatched analysis
func WithTimeout(d time.Duration) Option { return func(a *Analyzer) { a.timeout = d } }

// NewAnalyzer creates an analyzer
func NewAnalyzer(scans backend.ScanStore, gateway Gateway, opts ...Option) *Analyzer {
	a := &Analyzer{
		scans:   scans,
		gateway: gateway,
		logger:  logging.GetLogger(),
		timeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tracer == nil {
		a.tracer, _ = tracing.NewTracingService(nil)
	}
	return a
}

// Result is the outcome of a successful analysis
type Result struct {
	ScanID string        `json:"scanId"`
	Report *types.Report `json:"result"`
	// Parsed is false when the reply could not be read and the empty
	// safe report was stored instead.
	Parsed bool `json:"-"`
}

// Analyze runs the analysis for scanID on behalf of caller. The scan must
// belong to the caller; nothing is written otherwise. The stored target and
// scan type are authoritative.
func (a *Analyzer) Analyze(ctx context.Context, caller types.Identity, scanID string) (*Result, error) {
	scan, err := a.scans.Get(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if !scan.OwnedBy(caller.UserID) {
		return nil, errors.NewAuthorizationError("You do not have permission to modify this scan").
			WithDetail("scan_id", scanID)
	}

	ctx, span := a.tracer.StartScanSpan(ctx, "analyze", scan.ID, string(scan.ScanType))
	defer span.End()
	ctx = logging.WithUserID(ctx, caller.UserID)

	if err := a.scans.MarkProcessing(ctx, scan.ID); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	a.logger.LogScanEvent(ctx, "analysis_started", scan.ID, string(scan.ScanType), nil)
	start := time.Now()

	var repo *RepoMetadata
	if scan.ScanType == types.ScanTypeGitHub && a.repos != nil {
		if repo, err = a.repos.Inspect(ctx, scan.Target); err != nil {
			a.logger.WithContext(ctx).WithError(err).Debug("Repository metadata unavailable")
			repo = nil
		}
	}

	reply, err := a.gateway.Complete(ctx, systemPrompt, UserPrompt(scan.ScanType, scan.Target, repo))
	if err != nil {
		tracing.RecordError(span, err)
		a.fail(ctx, scan, start, err)
		return nil, errors.NewExternalError("ai-gateway", "Analysis failed. Please try again.").WithCause(err)
	}

	report, parsed := ParseReport(reply)
	if !parsed {
		a.logger.LogScanEvent(ctx, "analysis_unparseable", scan.ID, string(scan.ScanType), logrus.Fields{"reply_bytes": len(reply)})
	}

	if err := a.scans.Complete(ctx, scan.ID, report); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	a.metrics.RecordAnalysis(string(scan.ScanType), string(types.ScanStatusCompleted), time.Since(start), map[string]int{
		string(types.FindingCritical): report.Summary.Critical,
		string(types.FindingHigh):     report.Summary.High,
		string(types.FindingMedium):   report.Summary.Medium,
		string(types.FindingLow):      report.Summary.Low,
	})
	a.logger.LogScanEvent(ctx, "analysis_completed", scan.ID, string(scan.ScanType), logrus.Fields{
		"severity":        report.OverallSeverity,
		"vulnerabilities": report.Summary.Total,
		"duration_ms":     time.Since(start).Milliseconds(),
	})

	if report.Summary.Critical > 0 && a.alerter != nil {
		if err := a.alerter.AlertCritical(ctx, scan, report); err != nil {
			a.logger.LogError(ctx, err, "Critical finding alert failed", logrus.Fields{"scan_id": scan.ID})
		}
	}

	return &Result{ScanID: scan.ID, Report: report, Parsed: parsed}, nil
}

func (a *Analyzer) fail(ctx context.Context, scan *types.Scan, start time.Time, cause error) {
	a.metrics.RecordAnalysis(string(scan.ScanType), string(types.ScanStatusFailed), time.Since(start), nil)
	a.logger.LogError(ctx, cause, "AI analysis failed", logrus.Fields{"scan_id": scan.ID})
	if err := a.scans.MarkFailed(ctx, scan.ID); err != nil {
		a.logger.LogError(ctx, err, "Could not mark scan failed", logrus.Fields{"scan_id": scan.ID})
	}
}

// Dispatch starts the analysis in the background and returns once it is
// running. The analysis is detached from ctx's cancellation so a caller
// navigating away never aborts it.
func (a *Analyzer) Dispatch(ctx context.Context, caller types.Identity, scan *types.Scan) error {
	if !scan.OwnedBy(caller.UserID) {
		return errors.NewAuthorizationError("You do not have permission to modify this scan")
	}

	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	a.inFlight.Add(1)
	go func() {
		defer a.inFlight.Done()
		defer cancel()
		if _, err := a.Analyze(detached, caller, scan.ID); err != nil {
			a.logger.WithContext(detached).WithError(err).Warn("Dispatched analysis ended with error")
		}
	}()
	return nil
}

// Wait blocks until dispatched analyses finish or ctx is done
func (a *Analyzer) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
