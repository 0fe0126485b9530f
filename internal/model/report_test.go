package model

import (
	"net/http"
	"testing"
	"time"
)

// successResult builds a PageResult with a successful outcome and title.
func successResult(url string, index int, title string, loadTime time.Duration) *PageResult {
	return &PageResult{
		URL:     url,
		Index:   index,
		Outcome: SuccessOutcome(200, nil, http.Header{}, url, loadTime),
		Metrics: &Metrics{Title: title},
	}
}

// TestNewAuditReport tests that the results slice is pre-sized.
func TestNewAuditReport(t *testing.T) {
	t.Parallel()

	report := NewAuditReport("example.com", 3)

	if report.Site != "example.com" {
		t.Errorf("expected site 'example.com', got %q", report.Site)
	}
	if len(report.Results) != 3 {
		t.Errorf("expected 3 result slots, got %d", len(report.Results))
	}
	if report.StartedAt.IsZero() {
		t.Error("expected StartedAt to be stamped")
	}
}

// TestFinalizeMarksDuplicateTitles tests run-level duplicate detection.
func TestFinalizeMarksDuplicateTitles(t *testing.T) {
	t.Parallel()

	report := NewAuditReport("example.com", 4)
	report.Results[0] = successResult("https://example.com/a", 0, "Shared Title", time.Millisecond)
	report.Results[1] = successResult("https://example.com/b", 1, "shared title", time.Millisecond)
	report.Results[2] = successResult("https://example.com/c", 2, "Unique Title", time.Millisecond)
	report.Results[3] = &PageResult{
		URL:     "https://example.com/d",
		Index:   3,
		Outcome: TimeoutOutcome("too slow", time.Second),
	}

	report.Finalize()

	// Title comparison is case-insensitive.
	if !report.Results[0].DuplicateTitle || !report.Results[1].DuplicateTitle {
		t.Error("expected both pages with the shared title to be flagged")
	}
	if report.Results[2].DuplicateTitle {
		t.Error("unique title must not be flagged")
	}
	if report.Results[3].DuplicateTitle {
		t.Error("failed pages have no title to flag")
	}

	hasIssue := false
	for _, issue := range report.Results[0].Issues {
		if issue == "Duplicate title" {
			hasIssue = true
		}
	}
	if !hasIssue {
		t.Error("expected 'Duplicate title' issue on flagged page")
	}
}

// TestFinalizeSummary tests the run-level counters.
func TestFinalizeSummary(t *testing.T) {
	t.Parallel()

	report := NewAuditReport("example.com", 5)
	report.Results[0] = successResult("https://example.com/", 0, "Home", 100*time.Millisecond)
	report.Results[1] = successResult("https://example.com/about", 1, "About", 300*time.Millisecond)
	report.Results[1].BrokenLinkCount = 2
	report.Results[1].AddIssue("2 broken links")
	report.Results[2] = &PageResult{
		URL:     "https://example.com/slow",
		Index:   2,
		Outcome: TimeoutOutcome("too slow", time.Second),
	}
	report.Results[3] = &PageResult{
		URL:     "https://example.com/down",
		Index:   3,
		Outcome: NetworkErrorOutcome("connection refused", time.Millisecond),
	}
	report.Results[4] = &PageResult{
		URL:     "https://example.com/late",
		Index:   4,
		Outcome: SkippedOutcome("job deadline expired before fetch"),
	}

	report.Finalize()

	s := report.Summary
	if s.Total != 5 {
		t.Errorf("expected total 5, got %d", s.Total)
	}
	if s.Succeeded != 2 {
		t.Errorf("expected 2 succeeded, got %d", s.Succeeded)
	}
	if s.TimedOut != 1 {
		t.Errorf("expected 1 timed out, got %d", s.TimedOut)
	}
	if s.Errored != 1 {
		t.Errorf("expected 1 errored, got %d", s.Errored)
	}
	if s.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", s.Skipped)
	}
	if s.BrokenLinks != 2 {
		t.Errorf("expected 2 broken links, got %d", s.BrokenLinks)
	}
	if s.PagesWithIssues != 1 {
		t.Errorf("expected 1 page with issues, got %d", s.PagesWithIssues)
	}
	if report.FinishedAt.IsZero() {
		t.Error("expected FinishedAt to be stamped")
	}
}

// TestFinalizeAvgLoadTime tests that only pages with a load time count.
func TestFinalizeAvgLoadTime(t *testing.T) {
	t.Parallel()

	report := NewAuditReport("example.com", 3)
	report.Results[0] = successResult("https://example.com/a", 0, "A", 100*time.Millisecond)
	report.Results[1] = successResult("https://example.com/b", 1, "B", 300*time.Millisecond)
	report.Results[2] = &PageResult{
		URL:     "https://example.com/c",
		Index:   2,
		Outcome: SkippedOutcome("never started"),
	}

	report.Finalize()

	if got := report.Summary.AvgLoadTime; got != 200*time.Millisecond {
		t.Errorf("expected avg load time 200ms, got %s", got)
	}
}

// TestCountBrokenLinks tests broken link tallying on a page result.
func TestCountBrokenLinks(t *testing.T) {
	t.Parallel()

	pr := &PageResult{
		URL: "https://example.com/",
		LinkChecks: []LinkCheckResult{
			{URL: "https://example.com/ok", Reachability: Reachable, StatusCode: 200},
			{URL: "https://example.com/gone", Reachability: Unreachable, StatusCode: 404},
			{URL: "https://example.com/pending", Reachability: ReachabilityUnknown},
			{URL: "https://example.com/down", Reachability: Unreachable, Error: "connection refused"},
		},
	}

	pr.CountBrokenLinks()

	// Unknown results are never counted as broken.
	if pr.BrokenLinkCount != 2 {
		t.Errorf("expected 2 broken links, got %d", pr.BrokenLinkCount)
	}
}
