package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/seolens/seolens/internal/model"
)

// Fetcher retrieves single pages under a bounded timeout.
//
// Design decision: We require an external *http.Client because the client's
// connection pool is shared with discovery and link checking for connection
// reuse, and tests inject httptest-backed clients. The client is never
// reconfigured per call, so workers at both levels can share it without
// locking beyond the client's own internal synchronization.
type Fetcher struct {
	// client performs the requests.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// headers are extra headers added to every request.
	headers map[string]string

	// maxBodySize limits the response body size to read.
	maxBodySize int64

	// limiter throttles request starts for politeness. Nil disables it.
	limiter *rate.Limiter

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders sets extra headers added to every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithMaxBodySize sets the maximum response body size to read.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRateLimit throttles fetches to roughly rps requests per second.
// Zero or negative rps disables throttling.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets a custom logger for the fetcher.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher using the given HTTP client.
func New(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		maxBodySize: 5 * 1024 * 1024,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs exactly one GET against pageURL, bounded by timeout.
// All failure modes resolve to an outcome variant; Fetch never panics and
// never returns an error. Retrying is deliberately not this layer's job.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, timeout time.Duration) model.FetchOutcome {
	// A context already cancelled means the job deadline fired before this
	// fetch was admitted.
	if ctx.Err() != nil {
		return model.SkippedOutcome("cancelled before fetch started")
	}

	// The politeness limiter gates the start of the request. A context
	// cancelled while waiting means the job deadline fired first.
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return model.SkippedOutcome("cancelled before fetch started")
		}
	}

	// Once admitted, the request runs detached from the caller's
	// cancellation: an in-flight fetch completes bounded by its own
	// timeout, and the job deadline is observed again at the next stage
	// boundary.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return model.NetworkErrorOutcome("invalid URL: "+err.Error(), 0)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		return f.classifyError(pageURL, err, elapsed)
	}
	defer resp.Body.Close() //nolint:errcheck // Read side only

	body, err := f.readBody(resp)
	elapsed = time.Since(start)
	if err != nil {
		if isTimeout(err) {
			return model.TimeoutOutcome("body read timed out", elapsed)
		}
		return model.NetworkErrorOutcome("body read failed: "+err.Error(), elapsed)
	}

	f.logger.Debug("page fetched",
		"url", pageURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", elapsed,
	)

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return model.SuccessOutcome(resp.StatusCode, body, resp.Header, finalURL, elapsed)
}

// readBody reads the response body up to maxBodySize, transcoding HTML
// bodies to UTF-8 based on the declared charset so the analyzer sees
// uniform input.
func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, f.maxBodySize)

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "html") || strings.Contains(contentType, "xml") {
		decoded, err := charset.NewReader(limited, contentType)
		if err == nil {
			limited = decoded
		}
		// On sniff failure, fall through and read the raw bytes.
	}

	return io.ReadAll(limited)
}

// classifyError maps a transport error into the timeout or network-error
// outcome. The request context never inherits the caller's cancellation,
// so every error here is a real page failure, not a job-deadline skip.
func (f *Fetcher) classifyError(pageURL string, err error, elapsed time.Duration) model.FetchOutcome {
	f.logger.Debug("fetch failed", "url", pageURL, "error", err, "elapsed", elapsed)

	if isTimeout(err) {
		return model.TimeoutOutcome(err.Error(), elapsed)
	}
	return model.NetworkErrorOutcome(err.Error(), elapsed)
}

// isTimeout reports whether err represents a deadline or I/O timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
