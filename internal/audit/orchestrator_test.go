package audit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seolens/seolens/internal/analyze"
	"github.com/seolens/seolens/internal/fetch"
	"github.com/seolens/seolens/internal/linkcheck"
	"github.com/seolens/seolens/internal/model"
)

// newTestOrchestrator builds an orchestrator wired to the given server.
func newTestOrchestrator(server *httptest.Server, opts ...Option) *Orchestrator {
	client := server.Client()
	return New(
		fetch.New(client),
		analyze.New("127.0.0.1"),
		linkcheck.New(client),
		opts...,
	)
}

// page wraps body in a minimal HTML document with a title and h1.
func page(title, extra string) string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body><h1>heading</h1>%s</body></html>", title, extra)
}

// TestRunMixedOutcomes audits three pages that succeed, time out, and 404.
// Every page gets a result in discovery order, and the 404 body is analyzed.
func TestRunMixedOutcomes(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page("OK Page", ""))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, page("Missing Page", ""))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	o := newTestOrchestrator(server, WithFetchTimeout(100*time.Millisecond))
	urls := []string{server.URL + "/ok", server.URL + "/slow", server.URL + "/gone"}

	report, err := o.Run(context.Background(), Job{Site: "127.0.0.1", URLs: urls})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}

	// Discovery order is preserved regardless of completion order.
	for i, u := range urls {
		if report.Results[i].URL != u {
			t.Errorf("result %d: expected %s, got %s", i, u, report.Results[i].URL)
		}
		if report.Results[i].Index != i {
			t.Errorf("result %d: expected index %d, got %d", i, i, report.Results[i].Index)
		}
	}

	ok, slow, gone := report.Results[0], report.Results[1], report.Results[2]

	if ok.Outcome.Kind != model.OutcomeSuccess || ok.Outcome.StatusCode != 200 {
		t.Errorf("/ok: expected success 200, got %s %d", ok.Outcome.Kind, ok.Outcome.StatusCode)
	}
	if ok.Metrics == nil || ok.Metrics.Title != "OK Page" {
		t.Error("/ok: expected analyzed metrics")
	}

	if slow.Outcome.Kind != model.OutcomeTimeout {
		t.Errorf("/slow: expected timeout, got %s", slow.Outcome.Kind)
	}
	if slow.Metrics != nil {
		t.Error("/slow: failed pages must not carry metrics")
	}
	if len(slow.Issues) == 0 || slow.Issues[0] != "Fetch timed out" {
		t.Errorf("/slow: expected timeout issue, got %v", slow.Issues)
	}

	// A 404 with a body is a success variant and still gets analyzed.
	if gone.Outcome.Kind != model.OutcomeSuccess || gone.Outcome.StatusCode != 404 {
		t.Errorf("/gone: expected success 404, got %s %d", gone.Outcome.Kind, gone.Outcome.StatusCode)
	}
	if gone.Metrics == nil || gone.Metrics.Title != "Missing Page" {
		t.Error("/gone: expected the 404 body to be analyzed")
	}

	s := report.Summary
	if s.Total != 3 || s.Succeeded != 2 || s.TimedOut != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

// TestRunDeadlineSkipsPages tests that a job deadline leaves no page
// unaccounted for: late pages are skipped, never dropped.
func TestRunDeadlineSkipsPages(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page("Slow", ""))
	}))
	defer server.Close()

	urls := make([]string, 10)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/page-%d", server.URL, i)
	}

	// One worker, 200ms per page, 300ms budget: at most two pages settle
	// normally and the rest must be skipped.
	o := newTestOrchestrator(server,
		WithConcurrency(1, 1),
		WithFetchTimeout(time.Second),
	)

	report, err := o.Run(context.Background(), Job{
		Site:     "127.0.0.1",
		URLs:     urls,
		Deadline: 300 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(report.Results) != len(urls) {
		t.Fatalf("invariant broken: %d results for %d URLs", len(report.Results), len(urls))
	}
	if !report.TimedOut {
		t.Error("expected the report to be marked timed out")
	}
	if report.Summary.Skipped == 0 {
		t.Error("expected skipped pages under the deadline")
	}
	for i, pr := range report.Results {
		if pr == nil {
			t.Fatalf("result %d is nil", i)
		}
		if pr.Outcome.Kind == "" {
			t.Errorf("result %d has no outcome", i)
		}
	}
}

// TestRunDeadlineDrainsInFlightFetch tests that a fetch already in flight
// when the job deadline fires completes within its own timeout, while pages
// not yet started are skipped.
func TestRunDeadlineDrainsInFlightFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page("Late", ""))
	}))
	defer server.Close()

	// One worker, 200ms deadline, 500ms pages: the first page is in flight
	// when the deadline fires and must still settle as a success; the
	// second never starts.
	o := newTestOrchestrator(server,
		WithConcurrency(1, 1),
		WithFetchTimeout(2*time.Second),
	)

	report, err := o.Run(context.Background(), Job{
		Site:     "127.0.0.1",
		URLs:     []string{server.URL + "/first", server.URL + "/second"},
		Deadline: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !report.TimedOut {
		t.Error("expected the report to be marked timed out")
	}
	if got := report.Results[0].Outcome.Kind; got != model.OutcomeSuccess {
		t.Errorf("expected the in-flight page to finish, got %s (%s)",
			got, report.Results[0].Outcome.Cause)
	}
	if got := report.Results[1].Outcome.Kind; got != model.OutcomeSkipped {
		t.Errorf("expected the unstarted page to be skipped, got %s", got)
	}
}

// TestRunOuterConcurrencyCap tests that at most outerCap pages are fetched
// concurrently.
func TestRunOuterConcurrencyCap(t *testing.T) {
	t.Parallel()

	const outerCap = 3

	var inflight, peak atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		cur := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page("P", ""))
	}))
	defer server.Close()

	urls := make([]string, 12)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/p%d", server.URL, i)
	}

	o := newTestOrchestrator(server, WithConcurrency(outerCap, 2))
	report, err := o.Run(context.Background(), Job{Site: "127.0.0.1", URLs: urls})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := peak.Load(); got > outerCap {
		t.Errorf("outer concurrency ceiling violated: %d in flight, cap %d", got, outerCap)
	}
	if report.Summary.Succeeded != len(urls) {
		t.Errorf("expected all pages to succeed, got %d", report.Summary.Succeeded)
	}
}

// TestRunVerifiesLinks tests that internal links found during analysis are
// checked and broken ones counted.
func TestRunVerifiesLinks(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		links := fmt.Sprintf(`<a href="%s/live">live</a><a href="%s/dead">dead</a>`, server.URL, server.URL)
		fmt.Fprint(w, page("Home", links))
	})
	mux.HandleFunc("/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/dead", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	o := newTestOrchestrator(server)
	report, err := o.Run(context.Background(), Job{Site: "127.0.0.1", URLs: []string{server.URL + "/"}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	pr := report.Results[0]
	if len(pr.LinkChecks) != 2 {
		t.Fatalf("expected 2 link checks, got %d", len(pr.LinkChecks))
	}
	if pr.BrokenLinkCount != 1 {
		t.Errorf("expected 1 broken link, got %d", pr.BrokenLinkCount)
	}
	if report.Summary.BrokenLinks != 1 {
		t.Errorf("expected summary to count 1 broken link, got %d", report.Summary.BrokenLinks)
	}

	hasIssue := false
	for _, issue := range pr.Issues {
		if issue == "1 broken links" {
			hasIssue = true
		}
	}
	if !hasIssue {
		t.Errorf("expected broken-link issue, got %v", pr.Issues)
	}
}

// TestRunLinkCheckCap tests that only maxLinkChecks links are verified.
func TestRunLinkCheckCap(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		var links string
		for i := 0; i < 10; i++ {
			links += fmt.Sprintf(`<a href="%s/l%d">l</a>`, server.URL, i)
		}
		fmt.Fprint(w, page("Home", links))
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	o := newTestOrchestrator(server, WithMaxLinkChecks(4))
	report, err := o.Run(context.Background(), Job{Site: "127.0.0.1", URLs: []string{server.URL + "/"}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := len(report.Results[0].LinkChecks); got != 4 {
		t.Errorf("expected 4 link checks, got %d", got)
	}

	// The excess is reported, never silently dropped.
	wantIssue := "6 internal links not checked (over the per-page budget of 4)"
	found := false
	for _, issue := range report.Results[0].Issues {
		if issue == wantIssue {
			found = true
		}
	}
	if !found {
		t.Errorf("expected issue %q, got %v", wantIssue, report.Results[0].Issues)
	}
}

// TestRunDuplicateTitles tests the run-level duplicate title detection.
func TestRunDuplicateTitles(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page("Same Title", ""))
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page("Same Title", ""))
	})
	mux.HandleFunc("/c", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page("Different", ""))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	o := newTestOrchestrator(server)
	report, err := o.Run(context.Background(), Job{
		Site: "127.0.0.1",
		URLs: []string{server.URL + "/a", server.URL + "/b", server.URL + "/c"},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !report.Results[0].DuplicateTitle || !report.Results[1].DuplicateTitle {
		t.Error("expected pages sharing a title to be flagged")
	}
	if report.Results[2].DuplicateTitle {
		t.Error("unique title must not be flagged")
	}
}

// TestRunNonHTMLPage tests that non-HTML responses get minimal metrics.
func TestRunNonHTMLPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	}))
	defer server.Close()

	o := newTestOrchestrator(server)
	report, err := o.Run(context.Background(), Job{Site: "127.0.0.1", URLs: []string{server.URL + "/doc.pdf"}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	pr := report.Results[0]
	if pr.Outcome.Kind != model.OutcomeSuccess {
		t.Fatalf("expected success, got %s", pr.Outcome.Kind)
	}
	if pr.Metrics == nil {
		t.Fatal("success outcomes always carry metrics")
	}
	if len(pr.LinkChecks) != 0 {
		t.Error("non-HTML pages have no links to check")
	}

	hasIssue := false
	for _, issue := range pr.Issues {
		if issue == "Non-HTML content type: application/pdf" {
			hasIssue = true
		}
	}
	if !hasIssue {
		t.Errorf("expected content-type issue, got %v", pr.Issues)
	}
}

// TestRunProgressCallback tests that progress reports settled counts in
// order from 1 to total.
func TestRunProgressCallback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page("P", ""))
	}))
	defer server.Close()

	var calls atomic.Int64
	var lastDone atomic.Int64

	o := newTestOrchestrator(server,
		WithProgress(func(_ *model.PageResult, done, total int) {
			calls.Add(1)
			lastDone.Store(int64(done))
			if total != 5 {
				t.Errorf("expected total 5, got %d", total)
			}
		}),
	)

	urls := make([]string, 5)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/p%d", server.URL, i)
	}

	if _, err := o.Run(context.Background(), Job{Site: "127.0.0.1", URLs: urls}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if calls.Load() != 5 {
		t.Errorf("expected 5 progress calls, got %d", calls.Load())
	}
	if lastDone.Load() != 5 {
		t.Errorf("expected final done count 5, got %d", lastDone.Load())
	}
}

// TestRunEmptyURLList tests that an empty job yields an empty, finalized
// report rather than an error.
func TestRunEmptyURLList(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	o := newTestOrchestrator(server)
	report, err := o.Run(context.Background(), Job{Site: "127.0.0.1", URLs: nil})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(report.Results) != 0 {
		t.Errorf("expected no results, got %d", len(report.Results))
	}
	if report.Summary.Total != 0 {
		t.Errorf("expected total 0, got %d", report.Summary.Total)
	}
	if report.FinishedAt.IsZero() {
		t.Error("expected the report to be finalized")
	}
}
