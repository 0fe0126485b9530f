package linkcheck

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seolens/seolens/internal/model"
)

// DefaultTimeout bounds a single link check when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Verifier checks outbound-link reachability.
//
// Design decision: The verifier shares the audit's HTTP client rather than
// owning one, so page fetches and link checks draw from the same connection
// pool. The per-link timeout lives in the request context, not the client,
// because the shared client's timeout belongs to page fetches.
type Verifier struct {
	// client performs the requests.
	client *http.Client

	// userAgent is sent with every check.
	userAgent string

	// timeout bounds each individual link check.
	timeout time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithUserAgent sets the User-Agent header for link checks.
func WithUserAgent(ua string) Option {
	return func(v *Verifier) {
		v.userAgent = ua
	}
}

// WithTimeout sets the per-link check timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the verifier.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// New creates a Verifier using the given HTTP client.
func New(client *http.Client, opts ...Option) *Verifier {
	v := &Verifier{
		client:  client,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Verify checks every link with at most innerCap checks in flight.
// Results are returned in the input links' order regardless of completion
// order. Links whose check never started because ctx expired resolve to
// ReachabilityUnknown; nothing is silently dropped.
//
// Empty input returns nil immediately without spawning any goroutine.
func (v *Verifier) Verify(ctx context.Context, links []string, innerCap int) []model.LinkCheckResult {
	if len(links) == 0 {
		return nil
	}
	if innerCap < 1 {
		innerCap = 1
	}

	// Pre-allocated, index-addressed results: each goroutine writes only
	// its own slot, so no mutex is needed around the slice.
	results := make([]model.LinkCheckResult, len(links))

	g := &errgroup.Group{}
	g.SetLimit(innerCap)

	for i, link := range links {
		g.Go(func() error {
			// The page deadline may have expired while this check
			// queued behind the cap.
			select {
			case <-ctx.Done():
				results[i] = model.LinkCheckResult{
					URL:          link,
					Reachability: model.ReachabilityUnknown,
					Error:        "page deadline expired before check started",
				}
				return nil
			default:
			}

			results[i] = v.checkOne(ctx, link)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // Workers never return errors; failures live in results

	return results
}

// checkOne performs a single reachability check with its own timeout.
// HEAD is tried first; servers that reject HEAD get one GET.
func (v *Verifier) checkOne(ctx context.Context, link string) model.LinkCheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()

	status, err := v.request(checkCtx, http.MethodHead, link)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusBadRequest) {
		status, err = v.request(checkCtx, http.MethodGet, link)
	}

	elapsed := time.Since(start)

	if err != nil {
		// The parent cancelling means the page deadline fired
		// mid-check; that is unknown, not confirmed breakage. The
		// check's own timeout (checkCtx expired, parent still live)
		// stays a confirmed failure.
		if ctx.Err() != nil {
			return model.LinkCheckResult{
				URL:          link,
				Reachability: model.ReachabilityUnknown,
				Error:        "page deadline expired during check",
				Elapsed:      elapsed,
			}
		}
		v.logger.Debug("link check failed", "url", link, "error", err)
		return model.LinkCheckResult{
			URL:          link,
			Reachability: model.Unreachable,
			Error:        err.Error(),
			Elapsed:      elapsed,
		}
	}

	r := model.LinkCheckResult{
		URL:        link,
		StatusCode: status,
		Elapsed:    elapsed,
	}
	if status >= 400 {
		r.Reachability = model.Unreachable
	} else {
		r.Reachability = model.Reachable
	}
	return r
}

// request issues one status-only request and discards any body.
func (v *Verifier) request(ctx context.Context, method, link string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, link, nil)
	if err != nil {
		return 0, err
	}
	if v.userAgent != "" {
		req.Header.Set("User-Agent", v.userAgent)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck // Read side only

	// Drain a little body on GET to keep the connection reusable.
	if method == http.MethodGet {
		_, _ = io.CopyN(io.Discard, resp.Body, 32*1024) //nolint:errcheck // Best effort drain
	}

	return resp.StatusCode, nil
}
