// Package audit orchestrates the per-page fetch/analyze/link-check pipeline
// across all discovered URLs.
//
// Concurrency is bounded at two nested levels: at most outerCap pages are in
// flight, and each in-flight page runs at most innerCap link checks. The
// worst-case concurrent connection count is therefore
// outerCap + outerCap*innerCap, which is why the two caps are exposed as
// independent knobs rather than a single worker count.
//
// The orchestrator owns the lifetime of every worker it spawns: both levels
// are joined before Run returns, and a job deadline resolves not-yet-started
// pages to an explicit skipped outcome. The final report holds exactly one
// result per discovered URL, in discovery order, whatever the completion
// order was.
package audit
