package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
	"github.com/globalbusinessadvisors/secretscout/pkg/report"
)

// Format is the code(int) for each output format
type Format int

const (
	// JSON displays the output in JSON format
	JSON Format = iota
	// HUMAN displays the output in a way that's nice for humans to read
	HUMAN
	// TOML displays the output in TOML format
	TOML
	// YAML displays the output in YAML format
	YAML
	// CSV displays the output in CSV format
	CSV
)

// Formatter renders findings for the command line
type Formatter struct {
	format Format
}

// NewFormatter creates a new formatter
func NewFormatter(format string) (*Formatter, error) {
	parsed, err := GetFormat(format)
	if err != nil {
		return nil, err
	}
	return &Formatter{format: parsed}, nil
}

// GetFormat takes the string and returns a Format or an error
func GetFormat(format string) (Format, error) {
	switch strings.ToUpper(format) {
	case "JSON":
		return JSON, nil
	case "HUMAN":
		return HUMAN, nil
	case "TOML":
		return TOML, nil
	case "YAML":
		return YAML, nil
	case "CSV":
		return CSV, nil
	default:
		return JSON, fmt.Errorf("invalid output format option: format=%q", format)
	}
}

// findingsDocument wraps findings for the structured encoders
type findingsDocument struct {
	Findings []report.Finding `json:"findings" toml:"findings" yaml:"findings"`
}

// Format renders the findings to the set format as a string
func (f *Formatter) Format(findings []report.Finding) string {
	switch f.format {
	case HUMAN:
		return f.formatHuman(findings)
	case TOML:
		return f.formatToml(findings)
	case YAML:
		return f.formatYaml(findings)
	case CSV:
		return f.formatCsv(findings)
	default:
		return f.formatJson(findings)
	}
}

func (f *Formatter) formatJson(findings []report.Finding) string {
	out, err := json.Marshal(findingsDocument{Findings: findings})
	if err != nil {
		logger.Error("could not marshal findings: error=%q", err)
	}
	return string(out)
}

func (f *Formatter) formatHuman(findings []report.Finding) string {
	var out strings.Builder

	headers := findingFields()
	for _, finding := range findings {
		for i, entry := range flattenFinding(&finding) {
			_, _ = fmt.Fprintf(&out, "%-12s: %s\n", headers[i], entry)
		}
		out.WriteRune('\n')
	}

	return out.String()
}

func (f *Formatter) formatToml(findings []report.Finding) string {
	var buf bytes.Buffer

	if err := toml.NewEncoder(&buf).Encode(findingsDocument{Findings: findings}); err != nil {
		logger.Error("could not marshal findings: error=%q", err)
	}
	return buf.String()
}

func (f *Formatter) formatYaml(findings []report.Finding) string {
	out, err := yaml.Marshal(findingsDocument{Findings: findings})
	if err != nil {
		logger.Error("could not marshal findings: error=%q", err)
	}
	return string(out)
}

func (f *Formatter) formatCsv(findings []report.Finding) string {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(findingFields()); err != nil {
		logger.Error("could not write findings: error=%q", err)
	}

	for _, finding := range findings {
		if err := writer.Write(flattenFinding(&finding)); err != nil {
			logger.Error("could not write findings: error=%q", err)
		}
	}

	writer.Flush()
	return buf.String()
}

// findingFields provides the field labels for a flattened finding
func findingFields() []string {
	return []string{"RULE", "DESCRIPTION", "FILE", "LINE", "COMMIT", "AUTHOR", "EMAIL", "DATE", "SECRET", "FINGERPRINT"}
}

// flattenFinding returns the finding's values in findingFields order
func flattenFinding(finding *report.Finding) []string {
	return []string{
		finding.RuleID,
		finding.Description,
		finding.File,
		strconv.Itoa(finding.Line),
		finding.Commit,
		finding.Author,
		finding.Email,
		finding.Date,
		finding.Secret,
		finding.Fingerprint,
	}
}
