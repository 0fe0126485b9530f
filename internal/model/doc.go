// Package model defines the core data structures used throughout seolens.
//
// This package contains the following main types:
//   - FetchOutcome: The tagged result of a single page retrieval
//   - Metrics: SEO metrics extracted from an HTML page
//   - PageResult: The complete audit record for one discovered URL
//   - AuditReport: The ordered collection of page results plus run summary
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (fetch, analyze, linkcheck, audit, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
