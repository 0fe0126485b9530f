// Package linkcheck verifies the reachability of a page's outbound links
// under a bounded concurrency cap.
//
// Checks are lightweight: a HEAD request (with GET fallback for servers
// that reject HEAD) and no body read. Each check has its own short timeout,
// so one slow link never stalls the batch, and links still pending when the
// page-level deadline expires resolve to an explicit unknown state rather
// than being dropped.
package linkcheck
