package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/seolens/seolens/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writePages(md, report)
	w.writeBrokenLinks(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AuditReport) {
	md.H1("SEO Audit Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + report.Site + "`"},
			{"Audit Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond).String()},
			{"Pages Audited", strconv.Itoa(report.Summary.Total)},
			{"Robots.txt", w.robotsText(report)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.AuditReport) string {
	if report.TimedOut {
		return "⚠️ Deadline Exceeded (partial results)"
	}
	return "✅ Complete"
}

// robotsText renders the robots.txt presence cell.
func (w *MarkdownWriter) robotsText(report *model.AuditReport) string {
	if report.RobotsTxtFound {
		return "Found"
	}
	return "Missing"
}

// writeSummary writes the outcome summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.AuditReport) {
	s := report.Summary

	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Succeeded", strconv.Itoa(s.Succeeded)},
			{"⏱️ Timed Out", strconv.Itoa(s.TimedOut)},
			{"❌ Network Error", strconv.Itoa(s.Errored)},
			{"⏭️ Skipped", strconv.Itoa(s.Skipped)},
			{"**Total**", "**" + strconv.Itoa(s.Total) + "**"},
		},
	})
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Broken links", strconv.Itoa(s.BrokenLinks)},
			{"Pages with issues", strconv.Itoa(s.PagesWithIssues)},
			{"Avg load time", s.AvgLoadTime.Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")

	if s.Total > 0 {
		w.writePieChart(md, s)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if s.Succeeded > 0 {
		chart.LabelAndIntValue("Succeeded", uint64(s.Succeeded))
	}
	if s.TimedOut > 0 {
		chart.LabelAndIntValue("Timed Out", uint64(s.TimedOut))
	}
	if s.Errored > 0 {
		chart.LabelAndIntValue("Network Error", uint64(s.Errored))
	}
	if s.Skipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(s.Skipped))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the audit outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.AuditReport) {
	s := report.Summary
	switch {
	case report.TimedOut:
		md.Cautionf(
			"The audit deadline expired before all pages settled. %d page(s) were skipped.",
			s.Skipped,
		)
	case s.BrokenLinks > 0:
		md.Warningf(
			"%d broken link(s) detected across the audited pages.",
			s.BrokenLinks,
		)
	case s.PagesWithIssues > 0:
		md.Importantf(
			"%d page(s) have SEO issues that should be reviewed.",
			s.PagesWithIssues,
		)
	default:
		md.Tip("No SEO issues detected.")
	}
	md.PlainText("")
}

// writePages writes one row per audited page, in discovery order.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Pages")
	md.PlainText("")

	if len(report.Results) == 0 {
		md.PlainText("No pages were audited.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Results))
	for i, pr := range report.Results {
		rows[i] = []string{
			truncateString(pr.URL, 60),
			w.outcomeCell(pr),
			w.titleCell(pr),
			strconv.Itoa(pr.BrokenLinkCount),
			strconv.Itoa(len(pr.Issues)),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Outcome", "Title", "Broken Links", "Issues"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeIssueDetails(md, report)
}

// writeIssueDetails writes collapsible per-page issue lists.
func (w *MarkdownWriter) writeIssueDetails(md *markdown.Markdown, report *model.AuditReport) {
	for _, pr := range report.Results {
		if len(pr.Issues) == 0 {
			continue
		}

		detail := ""
		for _, issue := range pr.Issues {
			detail += "- " + issue + "\n"
		}
		md.Details(pr.URL, detail)
	}
	md.PlainText("")
}

// writeBrokenLinks writes the broken link section across all pages.
func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, report *model.AuditReport) {
	var rows [][]string
	for _, pr := range report.Results {
		for _, lc := range pr.LinkChecks {
			if lc.Reachability == model.Reachable {
				continue
			}
			status := "-"
			if lc.StatusCode > 0 {
				status = strconv.Itoa(lc.StatusCode)
			}
			rows = append(rows, []string{
				truncateString(pr.URL, 50),
				truncateString(lc.URL, 50),
				string(lc.Reachability),
				status,
			})
		}
	}

	if len(rows) == 0 {
		return
	}

	md.H2("Broken Links")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Link", "State", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [seolens](https://github.com/seolens/seolens)*")
}

// outcomeCell renders the outcome column for a page row.
func (w *MarkdownWriter) outcomeCell(pr *model.PageResult) string {
	switch pr.Outcome.Kind {
	case model.OutcomeSuccess:
		return strconv.Itoa(pr.Outcome.StatusCode)
	case model.OutcomeTimeout:
		return "Timeout"
	case model.OutcomeNetworkError:
		return "Error"
	case model.OutcomeSkipped:
		return "Skipped"
	default:
		return string(pr.Outcome.Kind)
	}
}

// titleCell renders the title column for a page row.
func (w *MarkdownWriter) titleCell(pr *model.PageResult) string {
	if pr.Metrics == nil || pr.Metrics.Title == "" {
		return "-"
	}
	return truncateString(pr.Metrics.Title, 40)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
