package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/seolens/seolens/internal/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the generated workbook.
const (
	summarySheet = "Summary"
	dataSheet    = "Audit_Data"
)

// auditColumns is the header row of the Audit_Data sheet, in column order.
var auditColumns = []string{
	"URL", "Status", "Type",
	"Title", "Title Length", "Duplicate Title", "Multiple Title Tags", "H1 = Title",
	"Meta Description", "Meta Description Length",
	"H1", "H1 Count", "Heading Order Error",
	"Word Count", "Missing Alt",
	"Internal Links", "Broken Links", "Load Time (s)",
	"Issues",
}

// ExcelWriter outputs reports as an Excel workbook.
// This format is designed for audits handed to non-technical stakeholders,
// with conditional formatting highlighting the problem cells.
type ExcelWriter struct {
	baseWriter
}

// NewExcelWriter creates an ExcelWriter that outputs to the given writer.
// The destination receives the binary xlsx stream, so it should be a file
// or buffer, never a terminal.
func NewExcelWriter(output io.Writer) *ExcelWriter {
	return &ExcelWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report as an xlsx workbook.
func (w *ExcelWriter) Write(report *model.AuditReport) (int, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // nothing actionable on close failure

	if err := w.writeSummarySheet(f, report); err != nil {
		return 0, fmt.Errorf("write summary sheet: %w", err)
	}
	if err := w.writeDataSheet(f, report); err != nil {
		return 0, fmt.Errorf("write audit data sheet: %w", err)
	}

	n, err := f.WriteTo(w.output)
	if err != nil {
		return int(n), fmt.Errorf("write workbook: %w", err)
	}
	return int(n), nil
}

// writeSummarySheet renders the run-level summary as a two-column sheet.
func (w *ExcelWriter) writeSummarySheet(f *excelize.File, report *model.AuditReport) error {
	// NewFile starts with "Sheet1"; rename it so Summary is the first tab.
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}

	s := report.Summary
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Target Website", report.Site},
		{"Audit Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Robots.txt Found", yesNo(report.RobotsTxtFound)},
		{"Total Pages Scanned", s.Total},
		{"Succeeded", s.Succeeded},
		{"Timed Out", s.TimedOut},
		{"Network Errors", s.Errored},
		{"Skipped", s.Skipped},
		{"Broken Links", s.BrokenLinks},
		{"Pages With Issues", s.PagesWithIssues},
		{"Avg Load Time", fmt.Sprintf("%.2fs", s.AvgLoadTime.Seconds())},
	}
	if report.TimedOut {
		rows = append(rows, []interface{}{"Status", "Deadline exceeded (partial results)"})
	} else {
		rows = append(rows, []interface{}{"Status", "Complete"})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"EFEFEF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "CCCCCC", Style: 1},
		},
	})
	if err != nil {
		return err
	}
	lastLabel, err := excelize.CoordinatesToCellName(1, len(rows))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", lastLabel, labelStyle); err != nil {
		return err
	}

	if err := f.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 44)
}

// writeDataSheet renders one row per audited page with conditional
// formatting on the problem columns.
func (w *ExcelWriter) writeDataSheet(f *excelize.File, report *model.AuditReport) error {
	if _, err := f.NewSheet(dataSheet); err != nil {
		return err
	}

	header := make([]interface{}, len(auditColumns))
	for i, c := range auditColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(dataSheet, "A1", &header); err != nil {
		return err
	}

	for i, pr := range report.Results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := pageRow(pr)
		if err := f.SetSheetRow(dataSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := w.styleDataSheet(f, len(report.Results)); err != nil {
		return err
	}

	// Keep the header visible while scrolling.
	return f.SetPanes(dataSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// pageRow flattens one page result into the Audit_Data column order.
func pageRow(pr *model.PageResult) []interface{} {
	row := make([]interface{}, len(auditColumns))
	row[0] = pr.URL
	if pr.Outcome.Kind == model.OutcomeSuccess {
		row[1] = pr.Outcome.StatusCode
	} else {
		row[1] = strings.ToUpper(string(pr.Outcome.Kind))
	}
	row[2] = pr.Outcome.StatusClass()
	row[17] = pr.Outcome.LoadTime.Seconds()
	row[18] = strings.Join(pr.Issues, "; ")

	m := pr.Metrics
	if m == nil {
		return row
	}
	row[3] = m.Title
	row[4] = m.TitleLength
	row[5] = pr.DuplicateTitle
	row[6] = m.MultipleTitleTags
	row[7] = m.H1EqualsTitle
	row[8] = m.MetaDescription
	row[9] = m.MetaDescriptionLength
	row[10] = m.H1Text
	row[11] = m.H1Count
	row[12] = m.HeadingOrderError
	row[13] = m.WordCount
	row[14] = m.MissingAltCount
	row[15] = len(m.InternalLinks)
	row[16] = pr.BrokenLinkCount
	return row
}

// styleDataSheet applies header styling, column widths, and the
// conditional formats that flag problem cells.
func (w *ExcelWriter) styleDataSheet(f *excelize.File, pageCount int) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2C3E50"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(auditColumns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(dataSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	widths := []struct {
		col   string
		width float64
	}{
		{"A", 50}, // URL
		{"B", 10}, // Status
		{"C", 12}, // Type
		{"D", 40}, // Title
		{"I", 40}, // Meta Description
		{"K", 30}, // H1
		{"S", 60}, // Issues
	}
	for _, cw := range widths {
		if err := f.SetColWidth(dataSheet, cw.col, cw.col, cw.width); err != nil {
			return err
		}
	}

	if pageCount == 0 {
		return nil
	}

	badStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "9C0006"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	warnStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "9C6500"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFEB9C"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	lastRow := pageCount + 1
	rules := []struct {
		rangeRef string
		opts     excelize.ConditionalFormatOptions
	}{
		// Status: red on errors, yellow on redirects.
		{
			rangeRef: fmt.Sprintf("B2:B%d", lastRow),
			opts:     excelize.ConditionalFormatOptions{Type: "cell", Criteria: ">=", Value: "400", Format: &badStyle},
		},
		{
			rangeRef: fmt.Sprintf("B2:B%d", lastRow),
			opts:     excelize.ConditionalFormatOptions{Type: "cell", Criteria: "between", MinValue: "300", MaxValue: "399", Format: &warnStyle},
		},
		// Duplicate titles across the run.
		{
			rangeRef: fmt.Sprintf("F2:F%d", lastRow),
			opts:     excelize.ConditionalFormatOptions{Type: "cell", Criteria: "=", Value: "TRUE", Format: &badStyle},
		},
		// Missing H1.
		{
			rangeRef: fmt.Sprintf("L2:L%d", lastRow),
			opts:     excelize.ConditionalFormatOptions{Type: "cell", Criteria: "=", Value: "0", Format: &badStyle},
		},
		// Heading appears before the first H1.
		{
			rangeRef: fmt.Sprintf("M2:M%d", lastRow),
			opts:     excelize.ConditionalFormatOptions{Type: "cell", Criteria: "=", Value: "TRUE", Format: &warnStyle},
		},
		// Thin content.
		{
			rangeRef: fmt.Sprintf("N2:N%d", lastRow),
			opts:     excelize.ConditionalFormatOptions{Type: "cell", Criteria: "<", Value: "300", Format: &warnStyle},
		},
		// Confirmed broken links on the page.
		{
			rangeRef: fmt.Sprintf("Q2:Q%d", lastRow),
			opts:     excelize.ConditionalFormatOptions{Type: "cell", Criteria: ">", Value: "0", Format: &badStyle},
		},
	}
	for _, r := range rules {
		if err := f.SetConditionalFormat(dataSheet, r.rangeRef, []excelize.ConditionalFormatOptions{r.opts}); err != nil {
			return err
		}
	}
	return nil
}
