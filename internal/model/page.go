package model

import "time"

// Reachability is the three-valued result of one outbound-link check.
//
// Design decision: We use three values rather than a bool because links
// still pending when the page deadline expires are neither reachable nor
// unreachable; collapsing them into "unreachable" would overstate breakage.
type Reachability string

const (
	// Reachable means the link answered with a status below 400.
	Reachable Reachability = "reachable"

	// Unreachable means the link answered with status >= 400, timed out,
	// or failed at the transport level.
	Unreachable Reachability = "unreachable"

	// ReachabilityUnknown means the check never ran because the page-level
	// deadline expired first. Reported, never retried.
	ReachabilityUnknown Reachability = "unknown"
)

// LinkCheckResult records the outcome of one outbound-link reachability check.
type LinkCheckResult struct {
	// URL is the checked link, resolved to absolute form.
	URL string `json:"url"`

	// Reachability is the three-valued check result.
	Reachability Reachability `json:"reachability"`

	// StatusCode is the HTTP status, when a response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Error describes the failure when no status was obtained.
	Error string `json:"error,omitempty"`

	// Elapsed is the duration of the check.
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// Broken reports whether the link is confirmed unreachable.
// Unknown results are not counted as broken.
func (r LinkCheckResult) Broken() bool {
	return r.Reachability == Unreachable
}

// Metrics holds the SEO measurements extracted from one HTML page.
// All fields are derived from the page body alone; the analyzer performs
// no network or filesystem access.
type Metrics struct {
	// Title is the first <title> tag's text.
	Title string `json:"title"`

	// TitleLength is the rune count of Title.
	TitleLength int `json:"title_length"`

	// MultipleTitleTags flags more than one <title> in the document.
	MultipleTitleTags bool `json:"multiple_title_tags,omitempty"`

	// MetaDescription is the content of <meta name="description">.
	MetaDescription string `json:"meta_description"`

	// MetaDescriptionLength is the rune count of MetaDescription.
	MetaDescriptionLength int `json:"meta_description_length"`

	// H1Text is the first <h1> tag's text.
	H1Text string `json:"h1_text"`

	// H1Count is the number of <h1> tags.
	H1Count int `json:"h1_count"`

	// H1EqualsTitle flags an <h1> identical to the title (case-insensitive).
	H1EqualsTitle bool `json:"h1_equals_title,omitempty"`

	// HeadingOrderError flags a document whose first heading is not <h1>.
	HeadingOrderError bool `json:"heading_order_error,omitempty"`

	// Canonical is the href of <link rel="canonical">, if present.
	Canonical string `json:"canonical,omitempty"`

	// WordCount is the whitespace-delimited word count of the visible text.
	WordCount int `json:"word_count"`

	// MissingAltCount is the number of <img> tags without alt text.
	MissingAltCount int `json:"missing_alt_count"`

	// SchemaTypes lists the JSON-LD @type values found on the page, sorted.
	SchemaTypes []string `json:"schema_types,omitempty"`

	// InternalLinks are same-scope outbound links, deduplicated, in
	// document order. These are the candidates for reachability checks.
	InternalLinks []string `json:"internal_links,omitempty"`

	// ExternalLinkCount is the number of links leaving the domain scope.
	ExternalLinkCount int `json:"external_link_count"`

	// HTTPSOk reports whether the final URL uses the https scheme.
	HTTPSOk bool `json:"https_ok"`

	// PageSizeKB is the response body size in kilobytes.
	PageSizeKB float64 `json:"page_size_kb"`
}

// PageResult is the complete audit record for one discovered URL.
// Exactly one of Metrics (fetch succeeded and body was HTML) or a failure
// outcome holds; a PageResult never carries both metrics and a failure.
// Immutable once the orchestrator hands it to aggregation.
type PageResult struct {
	// URL is the audited page URL as discovered.
	URL string `json:"url"`

	// Index is the page's position in discovery order. The report is
	// assembled by this index regardless of completion order.
	Index int `json:"index"`

	// Outcome is the fetch result variant for this page.
	Outcome FetchOutcome `json:"outcome"`

	// Metrics holds the extracted SEO metrics. Nil when the fetch failed,
	// was skipped, or the body was not HTML.
	Metrics *Metrics `json:"metrics,omitempty"`

	// LinkChecks holds one entry per checked outbound link, in the link's
	// original document order.
	LinkChecks []LinkCheckResult `json:"link_checks,omitempty"`

	// BrokenLinkCount is the number of LinkChecks confirmed unreachable.
	BrokenLinkCount int `json:"broken_link_count"`

	// DuplicateTitle flags a non-empty title shared with another audited
	// page. Set during report assembly, not by the page worker.
	DuplicateTitle bool `json:"duplicate_title,omitempty"`

	// Issues lists human-readable problems found on this page.
	Issues []string `json:"issues,omitempty"`
}

// AddIssue appends a problem description to the page's issue list.
func (p *PageResult) AddIssue(issue string) {
	p.Issues = append(p.Issues, issue)
}

// CountBrokenLinks recomputes BrokenLinkCount from LinkChecks.
func (p *PageResult) CountBrokenLinks() {
	n := 0
	for _, lc := range p.LinkChecks {
		if lc.Broken() {
			n++
		}
	}
	p.BrokenLinkCount = n
}
