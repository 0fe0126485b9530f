package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are calibrated for auditing small-to-medium sites without
// overwhelming the target server or the local socket budget.
const (
	// DefaultFetchTimeout bounds one page retrieval. Public sites that take
	// longer than this to answer are reported as timeouts rather than
	// holding a worker slot indefinitely.
	DefaultFetchTimeout = 15 * time.Second

	// DefaultLinkCheckTimeout bounds one outbound-link reachability check.
	// Link checks only need headers, so the budget is much shorter than a
	// full page fetch.
	DefaultLinkCheckTimeout = 5 * time.Second

	// DefaultJobDeadline bounds the whole run. Pages not started when it
	// expires are reported as skipped, never silently dropped.
	DefaultJobDeadline = 10 * time.Minute

	// DefaultOuterConcurrency is the maximum number of pages in flight.
	// Note the real socket ceiling is outer + outer*inner when every page
	// worker is in its link-checking stage, so this default is deliberately
	// modest.
	DefaultOuterConcurrency = 5

	// DefaultInnerConcurrency is the maximum concurrent link checks within
	// one page's processing.
	DefaultInnerConcurrency = 10

	// DefaultMaxPages caps the number of URLs taken from discovery.
	// This prevents runaway audits on sites with huge sitemaps.
	DefaultMaxPages = 50

	// DefaultMaxLinkChecks caps the outbound links verified per page.
	// Pages with more internal links than this have the excess reported
	// but not checked, matching the audit's time budget.
	DefaultMaxLinkChecks = 20

	// DefaultMaxBodySize limits the response body size to read. 5MB is
	// sufficient for any sane HTML page while preventing memory exhaustion.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies seolens in HTTP requests so operators
	// can recognize audit traffic in their logs.
	DefaultUserAgent = "Mozilla/5.0 (compatible; seolens/1.0; +https://github.com/seolens/seolens)"

	// DefaultRequestsPerSecond is the politeness budget for page fetches.
	// Zero disables rate limiting; the default keeps audits gentle.
	DefaultRequestsPerSecond = 8

	// AppName is the application name used for XDG directory paths.
	AppName = "seolens"
)

// Config holds all options for one audit job.
// It is populated from CLI flags plus the optional config file and passed
// through the application by dependency injection rather than global state.
//
// Design decision: a single flat struct instead of nested sub-structs.
// The option count is manageable, and nesting would add complexity without
// significant benefit.
type Config struct {
	// Seeds is the audit input: either one seed domain to expand via its
	// sitemap, or a literal URL list audited as-is.
	Seeds []string

	// DomainScope restricts which URLs are audited and which outbound
	// links count as internal. Empty means "the seed's host".
	DomainScope string

	// MaxPages caps how many URLs discovery may return.
	MaxPages int

	// OuterConcurrency is the page-level worker cap.
	OuterConcurrency int

	// InnerConcurrency is the per-page link-check cap.
	//
	// These are deliberately two independent knobs rather than one flat
	// "workers" number: the worst-case socket count is
	// OuterConcurrency + OuterConcurrency*InnerConcurrency, so doubling
	// either multiplies total concurrent connections.
	InnerConcurrency int

	// MaxLinkChecks caps the outbound links verified per page.
	MaxLinkChecks int

	// FetchTimeout bounds a single page retrieval.
	FetchTimeout time.Duration

	// LinkCheckTimeout bounds a single link reachability check.
	LinkCheckTimeout time.Duration

	// JobDeadline bounds the entire run. Zero means no deadline.
	JobDeadline time.Duration

	// RequestsPerSecond throttles page fetches. Zero disables throttling.
	RequestsPerSecond float64

	// UserAgent is sent with every HTTP request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Verbose enables slog.LevelDebug output. When false, only warnings
	// and errors are logged.
	Verbose bool

	// JSONReport, MarkdownReport, and ExcelReport select the output format.
	// At most one may be set; the default is the human-readable text report.
	JSONReport     bool
	MarkdownReport bool
	ExcelReport    bool

	// ReportFile is the output file path. Empty means stdout (required
	// for the Excel format, which cannot stream to a terminal).
	ReportFile string

	// ConfigFilePath is the explicit config file path. Empty triggers the
	// default search (.seolens in cwd, then home).
	ConfigFilePath string

	// Overrides holds per-domain settings loaded from the config file.
	Overrides *File

	// HistoryDir is the directory for the run-history SQLite database.
	// Empty disables history persistence.
	HistoryDir string
}

// NewConfig creates a Config with default values.
//
// Design decision: a constructor rather than relying on zero values because
// most defaults are non-zero. It also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxPages:          DefaultMaxPages,
		OuterConcurrency:  DefaultOuterConcurrency,
		InnerConcurrency:  DefaultInnerConcurrency,
		MaxLinkChecks:     DefaultMaxLinkChecks,
		FetchTimeout:      DefaultFetchTimeout,
		LinkCheckTimeout:  DefaultLinkCheckTimeout,
		JobDeadline:       DefaultJobDeadline,
		RequestsPerSecond: DefaultRequestsPerSecond,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for seolens.
// On Linux: ~/.local/share/seolens
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration before any network activity starts.
// It returns the first error found; invalid combinations fail the job
// pre-flight rather than surfacing mid-run.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.OuterConcurrency <= 0 {
		return ErrInvalidOuterConcurrency
	}
	if c.InnerConcurrency <= 0 {
		return ErrInvalidInnerConcurrency
	}
	if c.MaxLinkChecks < 0 {
		return ErrInvalidMaxLinkChecks
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidFetchTimeout
	}
	if c.LinkCheckTimeout <= 0 {
		return ErrInvalidLinkCheckTimeout
	}
	if c.JobDeadline < 0 {
		return ErrInvalidJobDeadline
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRequestRate
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// Exactly one output format may be selected.
	formats := 0
	for _, set := range []bool{c.JSONReport, c.MarkdownReport, c.ExcelReport} {
		if set {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}
	if c.ExcelReport && c.ReportFile == "" {
		return ErrExcelNeedsOutputFile
	}

	return nil
}
