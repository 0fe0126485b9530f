package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSeed is returned when no seed URL or literal URL list is given.
	ErrNoSeed = errors.New("no seed specified: provide a seed domain or one or more URLs")

	// ErrInvalidMaxPages is returned when the page cap is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidOuterConcurrency is returned when the page-level worker
	// cap is not positive. Zero would admit no tasks at all.
	ErrInvalidOuterConcurrency = errors.New("invalid outer concurrency: must be positive")

	// ErrInvalidInnerConcurrency is returned when the per-page link-check
	// cap is not positive.
	ErrInvalidInnerConcurrency = errors.New("invalid inner concurrency: must be positive")

	// ErrInvalidMaxLinkChecks is returned when the per-page link cap is
	// negative. Zero is valid and disables link verification.
	ErrInvalidMaxLinkChecks = errors.New("invalid max link checks: must be non-negative")

	// ErrInvalidFetchTimeout is returned when the per-fetch timeout is not
	// positive. A zero timeout would fail every request immediately.
	ErrInvalidFetchTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrInvalidLinkCheckTimeout is returned when the per-link timeout is
	// not positive.
	ErrInvalidLinkCheckTimeout = errors.New("invalid link check timeout: must be positive")

	// ErrInvalidJobDeadline is returned when the job deadline is negative.
	// Use zero for no deadline.
	ErrInvalidJobDeadline = errors.New("invalid job deadline: must be non-negative")

	// ErrInvalidRequestRate is returned when the politeness rate is
	// negative. Use zero to disable throttling.
	ErrInvalidRequestRate = errors.New("invalid request rate: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use zero for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when more than one of
	// --json, --markdown, and --excel is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json, --markdown, and --excel are mutually exclusive")

	// ErrExcelNeedsOutputFile is returned when --excel is used without
	// --output. A binary workbook cannot be written to a terminal.
	ErrExcelNeedsOutputFile = errors.New("excel report requires --output")
)
