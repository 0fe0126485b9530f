// Package analyze extracts SEO metrics from fetched HTML pages.
//
// The analyzer is a pure transform: raw body plus content headers in,
// model.Metrics and issue strings out. It performs no network or filesystem
// access and its execution time is bounded by the fetcher's body size cap.
package analyze
