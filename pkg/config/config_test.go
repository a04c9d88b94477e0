package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfigFromFile("testdata/partial-config.toml")
	require.NoError(t, err)

	tests := []struct {
		expected any
		actual   any
	}{
		{
			expected: "8.18.2",
			actual:   cfg.Scanner.Gitleaks.Version,
		},
		{
			expected: 3,
			actual:   cfg.Scanner.Gitleaks.FindingsExitCode,
		},
		{
			expected: "/tmp/secretscout/cache",
			actual:   cfg.Scanner.CacheDir,
		},
		{
			expected: uint32(300),
			actual:   cfg.Scanner.ScanTimeout,
		},
		{
			expected: "INFO",
			actual:   cfg.Logger.Level,
		},
		{
			expected: "JSON",
			actual:   cfg.Output.Format,
		},
		{
			expected: 2,
			actual:   cfg.Output.CommentConcurrency,
		},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.actual)
	}
}

func TestLocateAndLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Setenv("SECRETSCOUT_CONFIG_PATH", "")
	localConfigDir = t.TempDir()

	cfg, err := LocateAndLoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultGitleaksVersion, cfg.Scanner.Gitleaks.Version)
	assert.Equal(t, ExitCodeLeaksDetected, cfg.Scanner.Gitleaks.FindingsExitCode)
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{value: "false", expected: false},
		{value: "0", expected: false},
		{value: "", expected: true},
		{value: "true", expected: true},
		{value: "1", expected: true},
		{value: "yes", expected: true},
		{value: "anything", expected: true},
	}

	for _, test := range tests {
		t.Run(test.value, func(t *testing.T) {
			assert.Equal(t, test.expected, ParseBool(test.value))
		})
	}
}

func TestParseUserList(t *testing.T) {
	assert.Nil(t, ParseUserList(""))
	assert.Equal(t, []string{"@user1"}, ParseUserList("@user1"))
	assert.Equal(t, []string{"@user1", "@user2", "@user3"}, ParseUserList("@user1, @user2, @user3"))
	assert.Equal(t, []string{"@user1", "@user2"}, ParseUserList("@user1,,@user2"))
}

func TestValidateGitRef(t *testing.T) {
	assert.NoError(t, ValidateGitRef(""))
	assert.NoError(t, ValidateGitRef("main"))
	assert.NoError(t, ValidateGitRef("abc123def456"))
	assert.NoError(t, ValidateGitRef("refs/heads/feature-branch"))

	assert.Error(t, ValidateGitRef("main;echo hello"))
	assert.Error(t, ValidateGitRef("main&& rm -rf /"))
	assert.Error(t, ValidateGitRef("main|cat"))
	assert.Error(t, ValidateGitRef("$(whoami)"))
	assert.Error(t, ValidateGitRef("main`whoami`"))
	assert.Error(t, ValidateGitRef("../../../etc/passwd"))
}

func TestFromEnv(t *testing.T) {
	workspace := t.TempDir()
	t.Setenv("GITHUB_WORKSPACE", workspace)
	t.Setenv("GITHUB_EVENT_PATH", workspace+"/event.json")
	t.Setenv("GITHUB_EVENT_NAME", "push")
	t.Setenv("GITHUB_REPOSITORY", "owner/repo")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "owner")
	t.Setenv("GITLEAKS_ENABLE_COMMENTS", "false")
	t.Setenv("GITLEAKS_NOTIFY_USER_LIST", "@a,@b")

	action, err := FromEnv(DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, "push", action.EventName)
	assert.Equal(t, DefaultGitleaksVersion, action.GitleaksVersion)
	assert.True(t, action.EnableSummary)
	assert.False(t, action.EnableComments)
	assert.Equal(t, []string{"@a", "@b"}, action.NotifyUserList)
	assert.Equal(t, "https://api.github.com", action.GithubAPIURL)

	owner, repo := action.RepoParts()
	assert.Equal(t, "owner", owner)
	assert.Equal(t, "repo", repo)
	assert.Contains(t, action.ReportPath(), "results.sarif")
}

func TestFromEnvScanTimeout(t *testing.T) {
	setenv := func(t *testing.T, value string) {
		workspace := t.TempDir()
		t.Setenv("GITHUB_WORKSPACE", workspace)
		t.Setenv("GITHUB_EVENT_PATH", workspace+"/event.json")
		t.Setenv("GITHUB_EVENT_NAME", "push")
		t.Setenv("GITHUB_REPOSITORY", "owner/repo")
		t.Setenv("GITHUB_REPOSITORY_OWNER", "owner")
		t.Setenv("SECRETSCOUT_SCAN_TIMEOUT", value)
	}

	t.Run("WholeSeconds", func(t *testing.T) {
		setenv(t, "30")

		action, err := FromEnv(DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, action.ScanTimeout)
	})

	t.Run("UnsetUsesConfigDefault", func(t *testing.T) {
		setenv(t, "")

		action, err := FromEnv(DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().ScanTimeout(), action.ScanTimeout)
	})

	t.Run("DurationSuffixRejected", func(t *testing.T) {
		setenv(t, "10m")

		_, err := FromEnv(DefaultConfig())
		assert.Error(t, err)
	})

	t.Run("NonPositiveRejected", func(t *testing.T) {
		for _, value := range []string{"0", "-5", "abc"} {
			setenv(t, value)

			_, err := FromEnv(DefaultConfig())
			assert.Error(t, err)
		}
	})
}

func TestFromEnvRequiresTokenForPullRequests(t *testing.T) {
	workspace := t.TempDir()
	t.Setenv("GITHUB_WORKSPACE", workspace)
	t.Setenv("GITHUB_EVENT_PATH", workspace+"/event.json")
	t.Setenv("GITHUB_EVENT_NAME", "pull_request")
	t.Setenv("GITHUB_REPOSITORY", "owner/repo")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "owner")
	t.Setenv("GITHUB_TOKEN", "")

	_, err := FromEnv(DefaultConfig())
	assert.Error(t, err)
}
