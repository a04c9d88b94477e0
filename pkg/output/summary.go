// Package output renders scan results for their destinations: job
// summaries, pull request review comments, and the command line.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/globalbusinessadvisors/secretscout/pkg/errs"
	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
	"github.com/globalbusinessadvisors/secretscout/pkg/report"
)

// RenderSuccessSummary is the job summary for a clean scan
func RenderSuccessSummary() string {
	return "## No leaks detected ✅\n"
}

// RenderErrorSummary is the job summary for a failed scanner run
func RenderErrorSummary(exitCode int) string {
	return fmt.Sprintf("## ❌ Gitleaks exited with error. Exit code [%d]\n", exitCode)
}

// RenderFindingsSummary renders the findings as an HTML table. Every
// scanner-derived value passes through HTML escaping before it lands in
// the summary.
func RenderFindingsSummary(repoURL string, findings []report.Finding) string {
	var summary strings.Builder

	summary.WriteString("## 🛑 Gitleaks detected secrets 🛑\n\n")
	summary.WriteString("<table>\n<tr>\n")
	for _, header := range []string{"Rule ID", "Commit", "Secret URL", "Start Line", "Author", "Date", "Email", "File"} {
		_, _ = fmt.Fprintf(&summary, "  <th>%s</th>\n", header)
	}
	summary.WriteString("</tr>\n")

	for _, finding := range findings {
		summary.WriteString("<tr>\n")
		_, _ = fmt.Fprintf(&summary, "  <td>%s</td>\n", escapeHTML(finding.RuleID))
		_, _ = fmt.Fprintf(&summary, "  <td><a href=%q>%s</a></td>\n", finding.CommitURL(repoURL), finding.ShortSHA())
		_, _ = fmt.Fprintf(&summary, "  <td><a href=%q>View Secret</a></td>\n", finding.SecretURL(repoURL))
		_, _ = fmt.Fprintf(&summary, "  <td>%d</td>\n", finding.Line)
		_, _ = fmt.Fprintf(&summary, "  <td>%s</td>\n", escapeHTML(finding.Author))
		_, _ = fmt.Fprintf(&summary, "  <td>%s</td>\n", escapeHTML(finding.Date))
		_, _ = fmt.Fprintf(&summary, "  <td>%s</td>\n", escapeHTML(finding.Email))
		_, _ = fmt.Fprintf(&summary, "  <td><a href=%q>%s</a></td>\n", finding.FileURL(repoURL), escapeHTML(finding.File))
		summary.WriteString("</tr>\n")
	}

	summary.WriteString("</table>\n")

	return summary.String()
}

// escapeHTML covers the characters that can break out of a table cell
func escapeHTML(text string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(text)
}

// WriteSummary appends the rendered summary to the job summary file.
// Failures here never sink the run, they come back non-fatal.
func WriteSummary(path string, content string) error {
	if len(path) == 0 {
		logger.Warning("no summary path set, skipping summary write")
		return nil
	}

	summaryFile, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return errs.New(errs.NonFatal, errs.SummaryWriteError, "could not open summary file: %v", err)
	}

	if _, err := summaryFile.WriteString(content + "\n"); err != nil {
		_ = summaryFile.Close()
		return errs.New(errs.NonFatal, errs.SummaryWriteError, "could not write summary file: %v", err)
	}

	if err := summaryFile.Close(); err != nil {
		return errs.New(errs.NonFatal, errs.SummaryWriteError, "could not close summary file: %v", err)
	}

	logger.Debug("wrote job summary: path=%q", path)

	return nil
}
