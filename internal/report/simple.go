package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/seolens/seolens/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-link detail under each page.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables per-link detail in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writePages(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          SEOLENS AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Site:           %s\n", report.Site)
	fmt.Fprintf(sb, "Audit Date:     %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Pages Audited:  %d\n", report.Summary.Total)
	fmt.Fprintf(sb, "Robots.txt:     %s\n", yesNo(report.RobotsTxtFound))

	if report.TimedOut {
		sb.WriteString("Status:         DEADLINE EXCEEDED (partial results)\n")
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the run-level counters.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.AuditReport) {
	s := report.Summary

	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  Succeeded:         %d\n", s.Succeeded)
	fmt.Fprintf(sb, "  Timed out:         %d\n", s.TimedOut)
	fmt.Fprintf(sb, "  Network errors:    %d\n", s.Errored)
	fmt.Fprintf(sb, "  Skipped:           %d\n", s.Skipped)
	fmt.Fprintf(sb, "  Broken links:      %d\n", s.BrokenLinks)
	fmt.Fprintf(sb, "  Pages with issues: %d\n", s.PagesWithIssues)
	fmt.Fprintf(sb, "  Avg load time:     %s\n", s.AvgLoadTime.Round(time.Millisecond))
	sb.WriteString("\n")
}

// writePages writes one block per audited page, in discovery order.
func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	for _, pr := range report.Results {
		fmt.Fprintf(sb, "[%s] %s\n", w.statusLabel(pr), pr.URL)

		if pr.Metrics != nil && pr.Metrics.Title != "" {
			fmt.Fprintf(sb, "    Title: %s\n", pr.Metrics.Title)
		}
		if len(pr.Issues) > 0 {
			fmt.Fprintf(sb, "    Issues: %s\n", strings.Join(pr.Issues, " | "))
		}
		if w.verbose {
			for _, lc := range pr.LinkChecks {
				if lc.Reachability == model.Reachable {
					continue
				}
				fmt.Fprintf(sb, "    Link %s: %s %s\n", lc.Reachability, lc.URL, lc.Error)
			}
		}
	}

	sb.WriteString("\n")
}

// statusLabel renders a fixed-width outcome tag for a page line.
func (w *SimpleWriter) statusLabel(pr *model.PageResult) string {
	switch pr.Outcome.Kind {
	case model.OutcomeSuccess:
		return fmt.Sprintf("%3d", pr.Outcome.StatusCode)
	case model.OutcomeTimeout:
		return "T/O"
	case model.OutcomeNetworkError:
		return "ERR"
	case model.OutcomeSkipped:
		return "SKP"
	default:
		return "???"
	}
}

// yesNo renders a boolean for the report header.
func yesNo(b bool) string {
	if b {
		return "Found"
	}
	return "Missing"
}
