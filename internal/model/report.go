package model

import (
	"strings"
	"time"
)

// AuditReport is the frozen result of one audit run: every discovered URL's
// PageResult in discovery order, plus a run-level summary.
//
// Invariant: len(Results) always equals the number of discovered URLs.
// Pages that timed out, errored, or were never started still appear, with
// the corresponding failure outcome. There is no silent omission.
type AuditReport struct {
	// Site is the seed the run was started with.
	Site string `json:"site"`

	// StartedAt is when the orchestrator began dispatching tasks.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last task settled or the deadline drained.
	FinishedAt time.Time `json:"finished_at"`

	// RobotsTxtFound reports whether the site serves a robots.txt.
	RobotsTxtFound bool `json:"robots_txt_found"`

	// TimedOut reports whether the job deadline expired before all pages
	// completed. Completed results remain valid.
	TimedOut bool `json:"timed_out,omitempty"`

	// Results holds one PageResult per discovered URL, in discovery order.
	Results []*PageResult `json:"results"`

	// Summary holds run-level counts, always present even for fully
	// failed runs.
	Summary Summary `json:"summary"`
}

// Summary holds run-level counts for an audit.
type Summary struct {
	// Total is the number of discovered URLs (== len(Results)).
	Total int `json:"total"`

	// Succeeded counts pages with an OutcomeSuccess fetch.
	Succeeded int `json:"succeeded"`

	// TimedOut counts pages whose fetch hit the per-fetch deadline.
	TimedOut int `json:"timed_out"`

	// Errored counts pages that failed with a network error.
	Errored int `json:"errored"`

	// Skipped counts pages cancelled by the job deadline.
	Skipped int `json:"skipped"`

	// BrokenLinks is the sum of confirmed-unreachable outbound links.
	BrokenLinks int `json:"broken_links"`

	// PagesWithIssues counts pages carrying at least one issue.
	PagesWithIssues int `json:"pages_with_issues"`

	// AvgLoadTime is the mean load time across fetched pages.
	AvgLoadTime time.Duration `json:"avg_load_time"`
}

// NewAuditReport creates an empty report for the given seed with the
// results slice pre-sized to the discovered URL count.
func NewAuditReport(site string, pageCount int) *AuditReport {
	return &AuditReport{
		Site:      site,
		StartedAt: time.Now(),
		Results:   make([]*PageResult, pageCount),
	}
}

// Finalize freezes the report: marks duplicate titles across pages,
// recomputes the summary, and stamps the finish time. Call exactly once,
// after every result slot is filled.
func (r *AuditReport) Finalize() {
	r.markDuplicateTitles()
	r.computeSummary()
	r.FinishedAt = time.Now()
}

// markDuplicateTitles flags non-empty titles that appear on more than one
// audited page. This mirrors the run-level duplicate check that cannot be
// done by any single page worker.
func (r *AuditReport) markDuplicateTitles() {
	seen := make(map[string][]*PageResult)
	for _, pr := range r.Results {
		if pr == nil || pr.Metrics == nil || pr.Metrics.Title == "" {
			continue
		}
		key := strings.ToLower(pr.Metrics.Title)
		seen[key] = append(seen[key], pr)
	}
	for _, group := range seen {
		if len(group) < 2 {
			continue
		}
		for _, pr := range group {
			pr.DuplicateTitle = true
			pr.AddIssue("Duplicate title")
		}
	}
}

// computeSummary tallies run-level counts from the result set.
func (r *AuditReport) computeSummary() {
	s := Summary{Total: len(r.Results)}

	var loadTotal time.Duration
	var loaded int
	for _, pr := range r.Results {
		if pr == nil {
			continue
		}
		switch pr.Outcome.Kind {
		case OutcomeSuccess:
			s.Succeeded++
		case OutcomeTimeout:
			s.TimedOut++
		case OutcomeNetworkError:
			s.Errored++
		case OutcomeSkipped:
			s.Skipped++
		}
		s.BrokenLinks += pr.BrokenLinkCount
		if len(pr.Issues) > 0 {
			s.PagesWithIssues++
		}
		if pr.Outcome.LoadTime > 0 {
			loadTotal += pr.Outcome.LoadTime
			loaded++
		}
	}
	if loaded > 0 {
		s.AvgLoadTime = loadTotal / time.Duration(loaded)
	}

	r.Summary = s
}
