package analyze

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/seolens/seolens/internal/model"
)

// SEO heuristic thresholds, matching common audit guidance.
const (
	// maxTitleLength is the character budget before a title is flagged
	// as too long for search result snippets.
	maxTitleLength = 60

	// thinContentWords is the word count below which a page is flagged
	// as thin content.
	thinContentWords = 300

	// largePageKB is the body size above which a page is flagged as large.
	largePageKB = 2048
)

// Analyzer extracts SEO metrics and issues from HTML documents.
//
// Design decision: We use goquery rather than walking x/net/html nodes by
// hand because the audit needs a dozen independent selector lookups (title, meta,
// headings, canonical, images, anchors) and CSS selectors keep each one a
// single readable line.
type Analyzer struct {
	// scope is the host that counts as internal for link classification.
	scope string
}

// New creates an Analyzer that classifies links against the given domain
// scope host.
func New(scope string) *Analyzer {
	return &Analyzer{scope: strings.ToLower(scope)}
}

// Analyze extracts metrics from one successfully fetched page.
// The returned issue list holds the content problems found; link-level and
// run-level issues are appended by the orchestrator later.
//
// Analyze is called for any success outcome with an HTML body, including
// 4xx/5xx responses: an error page still has auditable markup.
func (a *Analyzer) Analyze(pageURL string, outcome model.FetchOutcome) (*model.Metrics, []string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(outcome.Body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse page url: %w", err)
	}

	m := &model.Metrics{
		HTTPSOk:    strings.HasPrefix(outcome.FinalURL, "https://"),
		PageSizeKB: float64(len(outcome.Body)) / 1024,
	}

	a.extractTitle(doc, m)
	a.extractMetaDescription(doc, m)
	a.extractHeadings(doc, m)
	a.extractCanonical(doc, m)
	a.extractImages(doc, m)
	a.extractLinks(doc, base, m)
	m.SchemaTypes = extractSchemaTypes(doc)

	// Word count last: scripts and styles are removed from the document,
	// and the JSON-LD extraction above needs them intact.
	doc.Find("script, style, noscript").Remove()
	m.WordCount = len(strings.Fields(doc.Text()))

	return m, a.issues(outcome, m), nil
}

// extractTitle records the first <title> and flags duplicates.
func (a *Analyzer) extractTitle(doc *goquery.Document, m *model.Metrics) {
	titles := doc.Find("title")
	m.MultipleTitleTags = titles.Length() > 1
	if titles.Length() > 0 {
		m.Title = strings.TrimSpace(titles.First().Text())
		m.TitleLength = utf8.RuneCountInString(m.Title)
	}
}

// extractMetaDescription records <meta name="description"> content.
// The name attribute is matched case-insensitively; real-world markup
// carries "Description" and "DESCRIPTION" often enough to matter.
func (a *Analyzer) extractMetaDescription(doc *goquery.Document, m *model.Metrics) {
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(s.AttrOr("name", ""), "description") {
			return true
		}
		m.MetaDescription = strings.TrimSpace(s.AttrOr("content", ""))
		m.MetaDescriptionLength = utf8.RuneCountInString(m.MetaDescription)
		return false
	})
}

// extractHeadings records h1 usage and heading order.
func (a *Analyzer) extractHeadings(doc *goquery.Document, m *model.Metrics) {
	h1s := doc.Find("h1")
	m.H1Count = h1s.Length()
	if m.H1Count > 0 {
		m.H1Text = strings.Join(strings.Fields(h1s.First().Text()), " ")
	}

	if m.Title != "" && m.H1Text != "" && strings.EqualFold(m.Title, m.H1Text) {
		m.H1EqualsTitle = true
	}

	// The first heading in document order should be an h1.
	headings := doc.Find("h1, h2, h3, h4, h5, h6")
	if headings.Length() > 0 && goquery.NodeName(headings.First()) != "h1" {
		m.HeadingOrderError = true
	}
}

// extractCanonical records the canonical link target.
func (a *Analyzer) extractCanonical(doc *goquery.Document, m *model.Metrics) {
	href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href")
	if ok {
		m.Canonical = strings.TrimSpace(href)
	}
}

// extractImages counts <img> tags without alt text.
func (a *Analyzer) extractImages(doc *goquery.Document, m *model.Metrics) {
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.AttrOr("alt", "")) == "" {
			m.MissingAltCount++
		}
	})
}

// extractLinks classifies anchors as internal or external.
// Internal links are resolved to absolute form, fragment-stripped, and
// deduplicated in document order; they are the link verifier's input.
func (a *Analyzer) extractLinks(doc *goquery.Document, base *url.URL, m *model.Metrics) {
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || href == "#" ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "data:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		resolved.Fragment = ""

		if strings.EqualFold(resolved.Hostname(), a.scope) {
			abs := resolved.String()
			if _, dup := seen[abs]; !dup {
				seen[abs] = struct{}{}
				m.InternalLinks = append(m.InternalLinks, abs)
			}
			return
		}
		m.ExternalLinkCount++
	})
}

// issues derives the content-level issue list from the metrics.
func (a *Analyzer) issues(outcome model.FetchOutcome, m *model.Metrics) []string {
	var issues []string

	if outcome.StatusCode >= 400 {
		issues = append(issues, fmt.Sprintf("Status %d", outcome.StatusCode))
	}
	if !m.HTTPSOk {
		issues = append(issues, "Not HTTPS")
	}
	if m.PageSizeKB > largePageKB {
		issues = append(issues, "Large page (>2MB)")
	}
	if m.MultipleTitleTags {
		issues = append(issues, "Multiple <title> tags")
	}
	switch {
	case m.TitleLength == 0:
		issues = append(issues, "Missing title")
	case m.TitleLength > maxTitleLength:
		issues = append(issues, fmt.Sprintf("Title too long (>%d chars)", maxTitleLength))
	}
	switch {
	case m.H1Count == 0:
		issues = append(issues, "Missing H1")
	case m.H1Count > 1:
		issues = append(issues, "Multiple H1s")
	}
	if m.HeadingOrderError {
		issues = append(issues, "First heading is not H1")
	}
	if m.H1EqualsTitle {
		issues = append(issues, "Title identical to H1")
	}
	if m.MissingAltCount > 0 {
		issues = append(issues, fmt.Sprintf("%d images missing alt text", m.MissingAltCount))
	}
	if len(m.SchemaTypes) == 0 {
		issues = append(issues, "No structured data")
	}
	if m.WordCount < thinContentWords {
		issues = append(issues, "Thin content")
	}

	return issues
}
