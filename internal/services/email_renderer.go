package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/rocjay1/fiscal-sentinel/internal/benford"
	"github.com/rocjay1/fiscal-sentinel/internal/currency"
	"github.com/rocjay1/fiscal-sentinel/internal/models"
)

const emailFrame = `
		<html>
		<body style="font-family: 'Segoe UI', sans-serif; color: #333; line-height: 1.6; background-color: #f4f4f4; margin: 0; padding: 20px;">
			<div style="max-width: 640px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
				<div style="background-color: %s; padding: 20px; text-align: center; color: white;">
					<h2 style="margin: 0;">%s</h2>
				</div>
				<div style="padding: 20px;">
					%s
				</div>
			</div>
		</body>
		</html>
	`

// RenderDeviationTable renders observed against expected percentages for the anomalous digits.
func RenderDeviationTable(result models.AnalysisResult) string {
	var rows strings.Builder
	for _, d := range result.Deviations {
		if !d.IsAnomaly {
			continue
		}
		rows.WriteString(fmt.Sprintf("<tr><td>%d</td><td>%.1f%%</td><td>%.1f%%</td><td>%+.1f</td></tr>",
			d.Digit, result.Observed[d.Digit], benford.ExpectedPercent(d.Digit), d.Deviation))
	}
	if rows.Len() == 0 {
		return ""
	}

	return fmt.Sprintf(`
		<table style="border-collapse: collapse; width: 100%%; margin-bottom: 20px;" border="1" cellpadding="6">
			<tr style="background-color: #f0f0f0;"><th>Digit</th><th>Observed</th><th>Expected</th><th>Deviation (pp)</th></tr>
			%s
		</table>
	`, rows.String())
}

// RenderDepartmentList renders the highest-spending departments.
func RenderDepartmentList(departments []models.DepartmentSpend) string {
	if len(departments) == 0 {
		return ""
	}

	var items strings.Builder
	for _, d := range departments {
		items.WriteString(fmt.Sprintf("<li>%s: %s</li>", html.EscapeString(d.Department), currency.FormatIndian(d.Total)))
	}
	return fmt.Sprintf(`<h3 style="font-size: 16px;">Top departments by spend</h3><ul>%s</ul>`, items.String())
}

// RenderReviewAlert renders the HTML body of a review alert for one dataset.
func RenderReviewAlert(record models.AnalysisRecord) string {
	content := fmt.Sprintf(`
					<p><b>%s</b> uploaded by %s (%s) needs an audit review.</p>
					<p style="background-color: #fff4f4; border-left: 5px solid #d13438; padding: 15px;">%s</p>
					<p>Transactions analyzed: %d<br>Total spend: %s<br>Conformity score: %.4f</p>
					%s
					%s
					<p style="color: #666; font-size: 12px;">Dataset ID: %s</p>`,
		html.EscapeString(record.Filename),
		html.EscapeString(record.Uploader.UploadedBy),
		html.EscapeString(record.Uploader.Department),
		html.EscapeString(record.Result.Interpretation),
		record.Result.SampleSize,
		currency.FormatINR(record.TotalSpend),
		record.ConformityScore,
		RenderDeviationTable(record.Result),
		RenderDepartmentList(record.TopDepartments),
		html.EscapeString(record.DatasetID),
	)
	return fmt.Sprintf(emailFrame, "#d13438", "Benford Review Required", content)
}

// RenderDigest renders the HTML body of the daily review digest.
func RenderDigest(records []models.AnalysisRecord) string {
	var rows strings.Builder
	for _, r := range records {
		rows.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%d</td><td>%s</td><td>%.4f</td></tr>",
			html.EscapeString(r.Filename),
			html.EscapeString(r.Uploader.Department),
			r.Result.SampleSize,
			currency.FormatIndian(r.TotalSpend),
			r.ConformityScore,
		))
	}

	content := fmt.Sprintf(`
					<p>%d dataset(s) analyzed in the last 24 hours show first-digit anomalies.</p>
					<table style="border-collapse: collapse; width: 100%%;" border="1" cellpadding="6">
						<tr style="background-color: #f0f0f0;"><th>File</th><th>Department</th><th>Transactions</th><th>Spend</th><th>Conformity</th></tr>
						%s
					</table>
					<p style="color: #666; font-size: 12px;">These are audit signals, not findings of wrongdoing.</p>`,
		len(records), rows.String())
	return fmt.Sprintf(emailFrame, "#0078d4", "Daily Review Digest", content)
}
