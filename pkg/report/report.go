// Package report parses the scanner's SARIF output into findings with
// stable fingerprints. Parsing is a pure transformation of the input
// bytes, it never touches the filesystem or network.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/globalbusinessadvisors/secretscout/pkg/errs"
	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
)

// Finding is a single detected secret occurrence
type Finding struct {
	RuleID      string `json:"rule_id" toml:"rule_id" yaml:"rule_id"`
	Description string `json:"description" toml:"description" yaml:"description"`
	File        string `json:"file" toml:"file" yaml:"file"`
	Line        int    `json:"line" toml:"line" yaml:"line"`
	Commit      string `json:"commit" toml:"commit" yaml:"commit"`
	Author      string `json:"author" toml:"author" yaml:"author"`
	Email       string `json:"email" toml:"email" yaml:"email"`
	Date        string `json:"date" toml:"date" yaml:"date"`
	Secret      string `json:"secret" toml:"secret" yaml:"secret"`
	Fingerprint string `json:"fingerprint" toml:"fingerprint" yaml:"fingerprint"`
}

// Fingerprint derives the stable identity key for a finding. The format
// matches what gitleaks expects in a .gitleaksignore entry, so it doubles
// as the allow-listing handle.
func Fingerprint(commit string, file string, ruleID string, line int) string {
	return fmt.Sprintf("%s:%s:%s:%d", commit, file, ruleID, line)
}

// ShortSHA returns the first seven characters of the finding's commit
func (f *Finding) ShortSHA() string {
	if len(f.Commit) >= 7 {
		return f.Commit[:7]
	}
	return f.Commit
}

// CommitURL links to the finding's commit under the repo URL
func (f *Finding) CommitURL(repoURL string) string {
	return fmt.Sprintf("%s/commit/%s", repoURL, f.Commit)
}

// FileURL links to the finding's file at the finding's commit
func (f *Finding) FileURL(repoURL string) string {
	return fmt.Sprintf("%s/blob/%s/%s", repoURL, f.Commit, f.File)
}

// SecretURL links to the exact line of the finding
func (f *Finding) SecretURL(repoURL string) string {
	return fmt.Sprintf("%s/blob/%s/%s#L%d", repoURL, f.Commit, f.File, f.Line)
}

// Parse decodes raw SARIF bytes into a Document. A document with no runs
// is malformed; a run with zero results is a valid clean scan.
func Parse(raw []byte) (*Document, error) {
	var doc Document

	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errs.New(errs.Fatal, errs.MalformedReportError, "could not decode report: %v", err)
	}

	if len(doc.Runs) == 0 {
		return nil, errs.New(errs.Fatal, errs.MalformedReportError, "report contains no runs")
	}

	return &doc, nil
}

// Findings extracts the findings from every run in the document. Results
// missing a location or commit metadata are skipped with a warning rather
// than failing the whole report.
func Findings(doc *Document) []Finding {
	var findings []Finding

	for _, run := range doc.Runs {
		for _, result := range run.Results {
			if len(result.Locations) == 0 {
				logger.Warning("skipping result without locations: rule=%q", result.RuleID)
				continue
			}

			if result.PartialFingerprints == nil {
				logger.Warning("skipping result without commit metadata: rule=%q", result.RuleID)
				continue
			}

			location := result.Locations[0].PhysicalLocation
			file := location.ArtifactLocation.URI
			line := location.Region.StartLine

			commit := result.PartialFingerprints.CommitSHA
			if len(commit) == 0 {
				commit = "unknown"
			}

			// The scanner runs with --redact, but the snippet still goes
			// through the mask in case a raw value slips past
			var secret string
			if location.Region.Snippet != nil {
				secret = logger.Sanitize(location.Region.Snippet.Text)
			}

			findings = append(findings, Finding{
				RuleID:      result.RuleID,
				Description: result.Message.Text,
				File:        file,
				Line:        line,
				Commit:      commit,
				Author:      orUnknown(result.PartialFingerprints.Author),
				Email:       orUnknown(result.PartialFingerprints.Email),
				Date:        orUnknown(result.PartialFingerprints.Date),
				Secret:      secret,
				Fingerprint: Fingerprint(commit, file, result.RuleID, line),
			})
		}
	}

	return findings
}

// ParseFindings decodes and extracts in one step
func ParseFindings(raw []byte) ([]Finding, error) {
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	return Findings(doc), nil
}

func orUnknown(value string) string {
	if len(value) == 0 {
		return "unknown"
	}
	return value
}
