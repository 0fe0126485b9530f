package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seolens/seolens/internal/analyze"
	"github.com/seolens/seolens/internal/fetch"
	"github.com/seolens/seolens/internal/linkcheck"
	"github.com/seolens/seolens/internal/model"
)

// ProgressFunc is called as each page settles. done counts settled pages.
// It is invoked from worker goroutines under the orchestrator's result lock,
// so implementations may write to shared output without extra locking but
// must not block for long.
type ProgressFunc func(result *model.PageResult, done, total int)

// Orchestrator drives the audit pipeline over a discovered URL set.
//
// Design decision: We mirror the two-level errgroup layout rather than a
// hand-rolled worker pool: the dispatch loop's errgroup.Go blocks while
// outerCap tasks are in flight, which gives FIFO admission over discovery
// order for free. Earlier URLs are never starved behind later ones.
type Orchestrator struct {
	// fetcher retrieves pages.
	fetcher *fetch.Fetcher

	// analyzer extracts metrics from HTML bodies.
	analyzer *analyze.Analyzer

	// verifier checks outbound links.
	verifier *linkcheck.Verifier

	// outerCap is the page-level concurrency limit.
	outerCap int

	// innerCap is the per-page link-check concurrency limit.
	innerCap int

	// maxLinkChecks caps the outbound links verified per page.
	// Zero disables link verification.
	maxLinkChecks int

	// fetchTimeout bounds each page retrieval.
	fetchTimeout time.Duration

	// progress streams settled results. May be nil.
	progress ProgressFunc

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the outer (page-level) and inner (link-level)
// concurrency caps. Non-positive values keep the defaults.
func WithConcurrency(outer, inner int) Option {
	return func(o *Orchestrator) {
		if outer > 0 {
			o.outerCap = outer
		}
		if inner > 0 {
			o.innerCap = inner
		}
	}
}

// WithMaxLinkChecks caps the outbound links verified per page.
// Zero disables link verification entirely.
func WithMaxLinkChecks(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxLinkChecks = n
		}
	}
}

// WithFetchTimeout sets the per-page fetch timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.fetchTimeout = d
		}
	}
}

// WithProgress sets a callback invoked as each page settles.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// WithLogger sets a custom logger for the orchestrator.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator over the three pipeline stages.
func New(fetcher *fetch.Fetcher, analyzer *analyze.Analyzer, verifier *linkcheck.Verifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:       fetcher,
		analyzer:      analyzer,
		verifier:      verifier,
		outerCap:      5,
		innerCap:      10,
		maxLinkChecks: 20,
		fetchTimeout:  15 * time.Second,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Job describes one audit run handed to the orchestrator.
type Job struct {
	// Site is the seed the run was started with, for the report header.
	Site string

	// URLs is the discovered URL set in discovery order. The orchestrator
	// treats it as immutable.
	URLs []string

	// RobotsTxtFound is carried through to the report.
	RobotsTxtFound bool

	// Deadline bounds the whole run. Zero means no deadline.
	Deadline time.Duration
}

// Run audits every URL in the job and returns the assembled report.
//
// The report always holds len(job.URLs) results in discovery order: pages
// cancelled by the deadline carry a skipped outcome rather than vanishing.
// Run returns once every worker it spawned has been joined; no background
// work outlives the call.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*model.AuditReport, error) {
	report := model.NewAuditReport(job.Site, len(job.URLs))
	report.RobotsTxtFound = job.RobotsTxtFound

	jobCtx := ctx
	if job.Deadline > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, job.Deadline)
		defer cancel()
	}

	o.logger.Info("starting audit",
		"site", job.Site,
		"pages", len(job.URLs),
		"outerCap", o.outerCap,
		"innerCap", o.innerCap,
	)

	var (
		mu   sync.Mutex
		done int
	)

	g := &errgroup.Group{}
	g.SetLimit(o.outerCap)

	// The dispatch loop submits tasks in discovery order; g.Go blocks
	// while outerCap tasks are in flight, so admission is FIFO. Workers
	// write only their own slot, making the slice safe by construction;
	// the mutex orders the done counter and progress callback.
	for i, pageURL := range job.URLs {
		g.Go(func() error {
			result := o.processPage(jobCtx, pageURL, i)

			mu.Lock()
			report.Results[i] = result
			done++
			settled := done
			if o.progress != nil {
				o.progress(result, settled, len(job.URLs))
			}
			mu.Unlock()

			return nil
		})
	}

	// Join all page workers. Workers never return errors: every failure
	// lives in its PageResult.
	_ = g.Wait() //nolint:errcheck

	// The loop above guarantees a goroutine per slot, so this only fires
	// if a worker panicked away its slot. Keep the report invariant
	// anyway: one result per discovered URL, no silent omissions.
	for i, pr := range report.Results {
		if pr == nil {
			report.Results[i] = &model.PageResult{
				URL:     job.URLs[i],
				Index:   i,
				Outcome: model.SkippedOutcome("task never settled"),
			}
		}
	}

	if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		report.TimedOut = true
		o.logger.Warn("job deadline exceeded, remaining pages skipped", "site", job.Site)
	}

	report.Finalize()

	o.logger.Info("audit complete",
		"site", job.Site,
		"pages", report.Summary.Total,
		"succeeded", report.Summary.Succeeded,
		"skipped", report.Summary.Skipped,
		"elapsed", report.FinishedAt.Sub(report.StartedAt),
	)

	return report, nil
}

// processPage runs one page through its stages:
// fetch, then (on an HTML response) analyze and verify links.
// A deadline observed between stages stops before the next stage starts;
// the current stage is never interrupted beyond its own timeout.
func (o *Orchestrator) processPage(ctx context.Context, pageURL string, index int) *model.PageResult {
	result := &model.PageResult{URL: pageURL, Index: index}

	// Deadline already expired: the task resolves without any network call.
	select {
	case <-ctx.Done():
		result.Outcome = model.SkippedOutcome("job deadline expired before fetch")
		return result
	default:
	}

	result.Outcome = o.fetcher.Fetch(ctx, pageURL, o.fetchTimeout)

	switch result.Outcome.Kind {
	case model.OutcomeTimeout:
		result.AddIssue("Fetch timed out")
		return result
	case model.OutcomeNetworkError:
		result.AddIssue("Connection failed: " + result.Outcome.Cause)
		return result
	case model.OutcomeSkipped:
		return result
	case model.OutcomeSuccess:
		// Fall through to analysis.
	}

	o.analyzePage(ctx, result)
	return result
}

// analyzePage fills in metrics and link checks for a fetched page.
func (o *Orchestrator) analyzePage(ctx context.Context, result *model.PageResult) {
	// Non-HTML responses still fetched fine; they get minimal metrics so
	// a success outcome always carries metrics, but there is nothing to
	// parse or verify.
	if !result.Outcome.IsHTML() {
		result.Metrics = &model.Metrics{
			HTTPSOk:    len(result.Outcome.FinalURL) >= 8 && result.Outcome.FinalURL[:8] == "https://",
			PageSizeKB: float64(len(result.Outcome.Body)) / 1024,
		}
		result.AddIssue("Non-HTML content type: " + result.Outcome.ContentType())
		return
	}

	metrics, issues, err := o.analyzer.Analyze(result.URL, result.Outcome)
	if err != nil {
		o.logger.Debug("analysis failed", "url", result.URL, "error", err)
		result.Metrics = &model.Metrics{}
		result.AddIssue("HTML analysis failed: " + err.Error())
		return
	}
	result.Metrics = metrics
	for _, issue := range issues {
		result.AddIssue(issue)
	}

	o.verifyLinks(ctx, result)
}

// verifyLinks runs the link-check stage for one page.
// The stage is skipped when link checking is disabled, the page has no
// internal links, or the deadline expired after analysis.
func (o *Orchestrator) verifyLinks(ctx context.Context, result *model.PageResult) {
	if o.maxLinkChecks == 0 || len(result.Metrics.InternalLinks) == 0 {
		return
	}

	links := result.Metrics.InternalLinks
	if len(links) > o.maxLinkChecks {
		result.AddIssue(fmt.Sprintf("%d internal links not checked (over the per-page budget of %d)",
			len(links)-o.maxLinkChecks, o.maxLinkChecks))
		links = links[:o.maxLinkChecks]
	}

	// A deadline observed here stops the page before its link stage.
	select {
	case <-ctx.Done():
		result.AddIssue("Link checks skipped: job deadline expired")
		return
	default:
	}

	result.LinkChecks = o.verifier.Verify(ctx, links, o.innerCap)
	result.CountBrokenLinks()

	if result.BrokenLinkCount > 0 {
		result.AddIssue(fmt.Sprintf("%d broken links", result.BrokenLinkCount))
	}
	for _, lc := range result.LinkChecks {
		if lc.Reachability == model.ReachabilityUnknown {
			result.AddIssue("Some link checks did not complete before the deadline")
			break
		}
	}
}
