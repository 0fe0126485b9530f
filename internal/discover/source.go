package discover

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoResolvableSeed is returned when none of the provided seeds can be
// parsed into a usable URL. This is the only fatal discovery error; every
// other failure degrades to a smaller result.
var ErrNoResolvableSeed = errors.New("no resolvable seed URL")

const (
	// defaultRequestTimeout bounds one discovery request. A sitemap server
	// that accepts the connection and never responds must not stall the
	// whole run; the failed read degrades to the seed alone.
	defaultRequestTimeout = 15 * time.Second

	// maxDocumentSize caps how much of a robots.txt or sitemap body is read.
	maxDocumentSize = 10 << 20
)

// Source resolves audit seeds into an ordered URLSet.
//
// Design decision: We require an external *http.Client rather than building
// one because the same client (and its connection pool) is shared with the
// fetcher and link verifier, and tests inject httptest-backed clients.
type Source struct {
	// client performs the sitemap and robots.txt reads.
	client *http.Client

	// userAgent is sent with every discovery request.
	userAgent string

	// timeout bounds each discovery request.
	timeout time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithUserAgent sets the User-Agent header for discovery requests.
func WithUserAgent(ua string) Option {
	return func(s *Source) {
		s.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout for discovery reads.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the source.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource creates a Source using the given HTTP client.
func NewSource(client *http.Client, opts ...Option) *Source {
	s := &Source{
		client:  client,
		timeout: defaultRequestTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Request describes one discovery run.
type Request struct {
	// Seeds is the input: one seed domain to expand, or a literal URL list.
	Seeds []string

	// DomainScope restricts results to this host. Empty means the first
	// seed's host.
	DomainScope string

	// PageCap bounds the result size. Discovery stops as soon as the cap
	// is reached.
	PageCap int

	// SitemapURL overrides the default <seed>/sitemap.xml location.
	SitemapURL string
}

// Result is the outcome of a discovery run.
type Result struct {
	// Pages is the ordered, deduplicated URL set to audit.
	Pages *URLSet

	// Scope is the host the run was filtered to.
	Scope string

	// RobotsTxtFound reports whether the site serves a robots.txt.
	RobotsTxtFound bool
}

// Discover resolves the request into an ordered URLSet.
//
// Given multiple literal seeds, they are deduplicated, scope-filtered, and
// truncated to the page cap in input order. Given a single seed, its sitemap
// is expanded; if the sitemap is an index, each sub-sitemap is fetched one
// level deep. Sitemap failures degrade to the seed alone. Running discovery
// twice against an unchanged site yields the same set in the same order.
func (s *Source) Discover(ctx context.Context, req Request) (*Result, error) {
	seeds := normalizeSeeds(req.Seeds)
	if len(seeds) == 0 {
		return nil, ErrNoResolvableSeed
	}

	scope := req.DomainScope
	if scope == "" {
		u, err := url.Parse(seeds[0])
		if err != nil || u.Host == "" {
			return nil, ErrNoResolvableSeed
		}
		scope = u.Hostname()
	}
	scope = strings.ToLower(scope)

	result := &Result{
		Pages: NewURLSet(req.PageCap),
		Scope: scope,
	}

	baseURL, err := scopeBaseURL(seeds[0])
	if err != nil {
		return nil, ErrNoResolvableSeed
	}

	// robots.txt existence is recorded in the report, and its Sitemap:
	// directives serve as a fallback when the default location is empty.
	robotsFound, robotsBody := s.checkRobotsTxt(ctx, baseURL)
	result.RobotsTxtFound = robotsFound

	// Literal mode: two or more seeds are audited as given.
	if len(seeds) > 1 {
		for _, seed := range seeds {
			if !inScope(seed, scope) {
				s.logger.Debug("seed outside domain scope, dropped", "url", seed, "scope", scope)
				continue
			}
			result.Pages.Add(seed)
		}
		if result.Pages.Len() == 0 {
			return nil, ErrNoResolvableSeed
		}
		return result, nil
	}

	// Seed mode: the seed itself is always audited, then the sitemap
	// contributes the rest.
	result.Pages.Add(seeds[0])

	sitemapURL := req.SitemapURL
	if sitemapURL == "" {
		sitemapURL = baseURL + "/sitemap.xml"
	}
	s.expandSitemap(ctx, sitemapURL, scope, result.Pages)

	// Fallback: sitemap locations declared in robots.txt.
	if result.Pages.Len() <= 1 && robotsFound {
		for _, sm := range sitemapsFromRobots(robotsBody) {
			if result.Pages.Full() {
				break
			}
			s.expandSitemap(ctx, sm, scope, result.Pages)
		}
	}

	return result, nil
}

// expandSitemap fetches one sitemap resource and adds its in-scope pages to
// the set. If the document is an index, each sub-sitemap is fetched one
// level deep; deeper nesting is ignored. A visited set guards against
// self-referencing indexes. All failures are non-fatal.
func (s *Source) expandSitemap(ctx context.Context, sitemapURL, scope string, pages *URLSet) {
	visited := map[string]struct{}{sitemapURL: {}}

	doc, err := s.fetchSitemap(ctx, sitemapURL)
	if err != nil {
		s.logger.Debug("sitemap unavailable", "url", sitemapURL, "error", err)
		return
	}
	s.addPages(doc, scope, pages)

	if !doc.isIndex() {
		return
	}

	for _, child := range doc.Children {
		if pages.Full() {
			return
		}
		if _, seen := visited[child]; seen {
			s.logger.Warn("self-referencing sitemap index entry skipped", "url", child)
			continue
		}
		visited[child] = struct{}{}

		childDoc, err := s.fetchSitemap(ctx, child)
		if err != nil {
			s.logger.Debug("sub-sitemap unavailable", "url", child, "error", err)
			continue
		}
		// Indexes nested below the first level are not followed.
		s.addPages(childDoc, scope, pages)
	}
}

// addPages filters a document's pages by scope and adds them to the set.
func (s *Source) addPages(doc *sitemapDoc, scope string, pages *URLSet) {
	for _, p := range doc.Pages {
		if pages.Full() {
			return
		}
		if !inScope(p, scope) {
			continue
		}
		pages.Add(p)
	}
}

// fetchSitemap retrieves and parses one sitemap resource.
func (s *Source) fetchSitemap(ctx context.Context, sitemapURL string) (*sitemapDoc, error) {
	data, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	return parseSitemap(bytes.NewReader(data))
}

// checkRobotsTxt reports whether <base>/robots.txt answers 200, returning
// its body text when it does.
func (s *Source) checkRobotsTxt(ctx context.Context, baseURL string) (bool, string) {
	data, err := s.get(ctx, baseURL+"/robots.txt")
	if err != nil {
		return false, ""
	}
	return true, string(data)
}

// get performs one discovery GET, treating any non-200 status as an error.
// Each request carries its own deadline, so an unresponsive server fails
// this one read instead of blocking discovery.
func (s *Source) get(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // Read side only

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}

// sitemapsFromRobots extracts Sitemap: directive values from a robots.txt body.
func sitemapsFromRobots(body string) []string {
	var out []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < len("sitemap:") || !strings.EqualFold(line[:len("sitemap:")], "sitemap:") {
			continue
		}
		loc := strings.TrimSpace(line[len("sitemap:"):])
		if loc != "" {
			out = append(out, loc)
		}
	}
	return out
}

// normalizeSeeds drops blank entries and ensures every seed carries a scheme.
func normalizeSeeds(seeds []string) []string {
	out := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		seed = strings.TrimSpace(seed)
		if seed == "" {
			continue
		}
		if !strings.Contains(seed, "://") {
			seed = "https://" + seed
		}
		if _, err := url.Parse(seed); err != nil {
			continue
		}
		out = append(out, seed)
	}
	return out
}

// scopeBaseURL reduces a seed URL to its scheme://host origin.
func scopeBaseURL(seed string) (string, error) {
	u, err := url.Parse(seed)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("seed %q has no scheme or host", seed)
	}
	return u.Scheme + "://" + u.Host, nil
}

// inScope reports whether a URL's host matches the domain scope.
func inScope(rawURL, scope string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), scope)
}
