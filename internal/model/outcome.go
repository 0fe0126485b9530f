package model

import (
	"net/http"
	"strings"
	"time"
)

// OutcomeKind identifies which variant of a FetchOutcome occurred.
type OutcomeKind string

// Fetch outcome variants. Exactly one applies to every fetch attempt.
const (
	// OutcomeSuccess means the server returned a response. Any status code
	// counts as success at the fetch level; a 404 with a body is still a
	// response worth analyzing.
	OutcomeSuccess OutcomeKind = "success"

	// OutcomeTimeout means the request exceeded the per-fetch deadline.
	// Distinguished from network errors so reports can separate "server
	// too slow" from "server unreachable".
	OutcomeTimeout OutcomeKind = "timeout"

	// OutcomeNetworkError covers connection refused, DNS failure, TLS
	// failure, and other transport-level errors.
	OutcomeNetworkError OutcomeKind = "network_error"

	// OutcomeSkipped means the page was never fetched, typically because
	// the job deadline expired before its task started.
	OutcomeSkipped OutcomeKind = "skipped"
)

// FetchOutcome is the uniform result of one page retrieval attempt.
// It is a tagged variant: Kind selects which fields are meaningful.
//
// Design decision: We use a single struct with a Kind tag rather than an
// interface hierarchy because the consumers (analyzer, orchestrator, report
// writers) all switch on the variant anyway, and a flat struct serializes
// cleanly to JSON and SQLite.
type FetchOutcome struct {
	// Kind selects the variant.
	Kind OutcomeKind `json:"kind"`

	// StatusCode is the HTTP status code. Only set for OutcomeSuccess.
	StatusCode int `json:"status_code,omitempty"`

	// Headers contains the response headers. Only set for OutcomeSuccess.
	Headers http.Header `json:"-"`

	// Body is the response body, capped by the fetcher's body size limit.
	// Excluded from JSON to keep reports small.
	Body []byte `json:"-"`

	// FinalURL is the URL after redirects. Used for the HTTPS check,
	// since a http:// seed may redirect to https://.
	FinalURL string `json:"final_url,omitempty"`

	// LoadTime is the wall-clock duration of the request.
	LoadTime time.Duration `json:"load_time,omitempty"`

	// Cause describes the failure for OutcomeTimeout, OutcomeNetworkError,
	// and OutcomeSkipped. Empty for OutcomeSuccess.
	Cause string `json:"cause,omitempty"`
}

// Succeeded reports whether the fetch produced a response.
func (o FetchOutcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// Failed reports whether the fetch ended in timeout or a network error.
func (o FetchOutcome) Failed() bool {
	return o.Kind == OutcomeTimeout || o.Kind == OutcomeNetworkError
}

// ContentType returns the response Content-Type header, or empty string.
func (o FetchOutcome) ContentType() string {
	if o.Headers == nil {
		return ""
	}
	return o.Headers.Get("Content-Type")
}

// IsHTML reports whether the response carries an HTML content type.
func (o FetchOutcome) IsHTML() bool {
	return strings.Contains(o.ContentType(), "text/html") ||
		strings.Contains(o.ContentType(), "application/xhtml+xml")
}

// StatusClass returns a human-readable classification of the status code:
// "Success", "Redirect", "Client Error", or "Server Error".
// Returns "Unknown" for non-success outcomes.
func (o FetchOutcome) StatusClass() string {
	if o.Kind != OutcomeSuccess {
		return "Unknown"
	}
	switch {
	case o.StatusCode >= 200 && o.StatusCode < 300:
		return "Success"
	case o.StatusCode >= 300 && o.StatusCode < 400:
		return "Redirect"
	case o.StatusCode >= 400 && o.StatusCode < 500:
		return "Client Error"
	case o.StatusCode >= 500:
		return "Server Error"
	default:
		return "Unknown"
	}
}

// SuccessOutcome builds the OutcomeSuccess variant.
func SuccessOutcome(statusCode int, body []byte, headers http.Header, finalURL string, loadTime time.Duration) FetchOutcome {
	return FetchOutcome{
		Kind:       OutcomeSuccess,
		StatusCode: statusCode,
		Body:       body,
		Headers:    headers,
		FinalURL:   finalURL,
		LoadTime:   loadTime,
	}
}

// TimeoutOutcome builds the OutcomeTimeout variant.
func TimeoutOutcome(cause string, loadTime time.Duration) FetchOutcome {
	return FetchOutcome{Kind: OutcomeTimeout, Cause: cause, LoadTime: loadTime}
}

// NetworkErrorOutcome builds the OutcomeNetworkError variant.
func NetworkErrorOutcome(cause string, loadTime time.Duration) FetchOutcome {
	return FetchOutcome{Kind: OutcomeNetworkError, Cause: cause, LoadTime: loadTime}
}

// SkippedOutcome builds the OutcomeSkipped variant.
func SkippedOutcome(reason string) FetchOutcome {
	return FetchOutcome{Kind: OutcomeSkipped, Cause: reason}
}
