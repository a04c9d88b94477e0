package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/globalbusinessadvisors/secretscout/pkg/report"
)

func formatterFindings() []report.Finding {
	return []report.Finding{
		{
			RuleID:      "aws-access-token",
			Description: "AWS Access Key detected",
			File:        "src/config.go",
			Line:        42,
			Commit:      "abc123",
			Author:      "Jordan Doe",
			Email:       "jordan@example.com",
			Date:        "2025-10-16",
			Fingerprint: "abc123:src/config.go:aws-access-token:42",
		},
	}
}

func TestGetFormat(t *testing.T) {
	for name, want := range map[string]Format{
		"JSON":  JSON,
		"human": HUMAN,
		"Toml":  TOML,
		"YAML":  YAML,
		"csv":   CSV,
	} {
		format, err := GetFormat(name)
		require.NoError(t, err)
		assert.Equal(t, want, format)
	}

	_, err := GetFormat("XML")
	assert.Error(t, err)
}

func TestFormatterJson(t *testing.T) {
	formatter, err := NewFormatter("JSON")
	require.NoError(t, err)

	out := formatter.Format(formatterFindings())
	assert.Contains(t, out, `"rule_id":"aws-access-token"`)
	assert.Contains(t, out, `"fingerprint":"abc123:src/config.go:aws-access-token:42"`)
}

func TestFormatterHuman(t *testing.T) {
	formatter, err := NewFormatter("HUMAN")
	require.NoError(t, err)

	out := formatter.Format(formatterFindings())
	assert.Contains(t, out, "RULE")
	assert.Contains(t, out, "aws-access-token")
	assert.Contains(t, out, "src/config.go")
}

func TestFormatterToml(t *testing.T) {
	formatter, err := NewFormatter("TOML")
	require.NoError(t, err)

	out := formatter.Format(formatterFindings())
	assert.Contains(t, out, "[[findings]]")
	assert.Contains(t, out, `rule_id = "aws-access-token"`)
}

func TestFormatterYaml(t *testing.T) {
	formatter, err := NewFormatter("YAML")
	require.NoError(t, err)

	out := formatter.Format(formatterFindings())
	assert.Contains(t, out, "findings:")
	assert.Contains(t, out, "rule_id: aws-access-token")
}

func TestFormatterCsv(t *testing.T) {
	formatter, err := NewFormatter("CSV")
	require.NoError(t, err)

	out := formatter.Format(formatterFindings())
	assert.Contains(t, out, "RULE,DESCRIPTION,FILE,LINE,COMMIT,AUTHOR,EMAIL,DATE,SECRET,FINGERPRINT")
	assert.Contains(t, out, "aws-access-token,AWS Access Key detected,src/config.go,42,abc123")
}
