package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSarif = `{
	"version": "2.1.0",
	"$schema": "https://json.schemastore.org/sarif-2.1.0.json",
	"runs": [
		{
			"tool": {
				"driver": {
					"name": "gitleaks",
					"version": "8.24.3"
				}
			},
			"results": [
				{
					"ruleId": "aws-access-token",
					"message": {
						"text": "AWS Access Key detected"
					},
					"locations": [
						{
							"physicalLocation": {
								"artifactLocation": {
									"uri": "src/config.go"
								},
								"region": {
									"startLine": 42
								}
							}
						}
					],
					"partialFingerprints": {
						"commitSha": "abc123def456",
						"author": "Jordan Doe",
						"email": "jordan@example.com",
						"date": "2025-10-16T12:00:00Z"
					}
				}
			]
		}
	]
}`

func TestFingerprint(t *testing.T) {
	t.Run("Format", func(t *testing.T) {
		fingerprint := Fingerprint("abc123", "src/main.go", "aws-access-token", 42)
		assert.Equal(t, "abc123:src/main.go:aws-access-token:42", fingerprint)
	})

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t,
			Fingerprint("abc", "f", "r", 1),
			Fingerprint("abc", "f", "r", 1),
		)
	})

	t.Run("DistinctTuplesDiffer", func(t *testing.T) {
		base := Fingerprint("abc", "f", "r", 1)
		assert.NotEqual(t, base, Fingerprint("abd", "f", "r", 1))
		assert.NotEqual(t, base, Fingerprint("abc", "g", "r", 1))
		assert.NotEqual(t, base, Fingerprint("abc", "f", "s", 1))
		assert.NotEqual(t, base, Fingerprint("abc", "f", "r", 2))
	})
}

func TestParse(t *testing.T) {
	t.Run("ValidReport", func(t *testing.T) {
		doc, err := Parse([]byte(testSarif))
		require.NoError(t, err)
		assert.Equal(t, "2.1.0", doc.Version)
		require.Len(t, doc.Runs, 1)
		assert.Equal(t, "gitleaks", doc.Runs[0].Tool.Driver.Name)
	})

	t.Run("CleanScanIsValid", func(t *testing.T) {
		doc, err := Parse([]byte(`{"version": "2.1.0", "runs": [{"tool": {"driver": {"name": "gitleaks"}}, "results": []}]}`))
		require.NoError(t, err)
		assert.Empty(t, Findings(doc))
	})

	t.Run("NoRunsIsMalformed", func(t *testing.T) {
		_, err := Parse([]byte(`{"version": "2.1.0", "runs": []}`))
		assert.Error(t, err)
	})

	t.Run("GarbageIsMalformed", func(t *testing.T) {
		_, err := Parse([]byte(`{"version": `))
		assert.Error(t, err)
	})
}

func TestFindings(t *testing.T) {
	findings, err := ParseFindings([]byte(testSarif))
	require.NoError(t, err)
	require.Len(t, findings, 1)

	finding := findings[0]
	assert.Equal(t, "aws-access-token", finding.RuleID)
	assert.Equal(t, "AWS Access Key detected", finding.Description)
	assert.Equal(t, "src/config.go", finding.File)
	assert.Equal(t, 42, finding.Line)
	assert.Equal(t, "abc123def456", finding.Commit)
	assert.Equal(t, "Jordan Doe", finding.Author)
	assert.Equal(t, "abc123def456:src/config.go:aws-access-token:42", finding.Fingerprint)
}

func TestFindingsMasksSnippet(t *testing.T) {
	result := resultAt("github-pat", "main.go", 3, "abc")
	result.Locations[0].PhysicalLocation.Region.Snippet = &ArtifactContent{
		Text: "token = ghp_abcdefghijklmnop1234",
	}

	doc := &Document{
		Version: "2.1.0",
		Runs:    []Run{{Results: []Result{result}}},
	}

	findings := Findings(doc)
	require.Len(t, findings, 1)
	assert.NotContains(t, findings[0].Secret, "ghp_abcdefghijklmnop1234")
	assert.Contains(t, findings[0].Secret, "***")
}

func TestFindingsSkipsIncompleteResults(t *testing.T) {
	doc := &Document{
		Version: "2.1.0",
		Runs: []Run{
			{
				Results: []Result{
					{RuleID: "no-locations"},
					{
						RuleID: "no-fingerprints",
						Locations: []Location{
							{PhysicalLocation: PhysicalLocation{
								ArtifactLocation: ArtifactLocation{URI: "a"},
								Region:           Region{StartLine: 1},
							}},
						},
					},
				},
			},
		},
	}

	assert.Empty(t, Findings(doc))
}

func TestSameLocationDifferentCommits(t *testing.T) {
	doc := &Document{
		Version: "2.1.0",
		Runs: []Run{
			{
				Results: []Result{
					resultAt("generic-api-key", "cfg.yml", 10, "commit-one"),
					resultAt("generic-api-key", "cfg.yml", 10, "commit-two"),
				},
			},
		},
	}

	findings := Findings(doc)
	require.Len(t, findings, 2)
	assert.NotEqual(t, findings[0].Fingerprint, findings[1].Fingerprint)
}

func TestFindingURLs(t *testing.T) {
	finding := Finding{
		RuleID: "rule",
		File:   "src/main.go",
		Line:   42,
		Commit: "abcdef1234567890",
	}

	repoURL := "https://github.com/owner/repo"
	assert.Equal(t, "abcdef1", finding.ShortSHA())
	assert.Equal(t, "https://github.com/owner/repo/commit/abcdef1234567890", finding.CommitURL(repoURL))
	assert.Equal(t, "https://github.com/owner/repo/blob/abcdef1234567890/src/main.go", finding.FileURL(repoURL))
	assert.Equal(t, "https://github.com/owner/repo/blob/abcdef1234567890/src/main.go#L42", finding.SecretURL(repoURL))
}

func resultAt(ruleID string, file string, line int, commit string) Result {
	return Result{
		RuleID:  ruleID,
		Message: Message{Text: ruleID},
		Locations: []Location{
			{PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: file},
				Region:           Region{StartLine: line},
			}},
		},
		PartialFingerprints: &PartialFingerprints{CommitSHA: commit},
	}
}
