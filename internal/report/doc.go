// Package report renders audit results.
//
// Four formats are supported: a human-readable text report for terminals,
// JSON for tool integration, GitHub Flavored Markdown for sharing, and an
// Excel workbook mirroring the classic audit spreadsheet. All writers
// consume the same frozen model.AuditReport; a sink failure is reported to
// the caller but never invalidates the already-computed report.
package report
