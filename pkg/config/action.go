package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/globalbusinessadvisors/secretscout/pkg/fs"
)

// Action holds the environment-derived settings for a CI run. The
// environment is read exactly once here; every other component receives
// this struct and never touches process-wide state itself.
type Action struct {
	GithubToken          string
	GithubAPIURL         string
	GitleaksLicense      string
	GitleaksVersion      string
	GitleaksConfigPath   string
	EnableSummary        bool
	EnableUploadArtifact bool
	EnableComments       bool
	NotifyUserList       []string
	BaseRef              string
	WorkspacePath        string
	EventPath            string
	EventName            string
	Repository           string
	RepositoryOwner      string
	SummaryPath          string
	ScanTimeout          time.Duration
	FindingsExitCode     int
	CacheDir             string
	CommentConcurrency   int
}

// InActionsMode reports whether the process is running under a CI trigger
// rather than an ad-hoc command line invocation
func InActionsMode() bool {
	_, inActions := os.LookupEnv("GITHUB_ACTIONS")
	_, hasWorkspace := os.LookupEnv("GITHUB_WORKSPACE")
	_, hasEventPath := os.LookupEnv("GITHUB_EVENT_PATH")

	return inActions && hasWorkspace && hasEventPath
}

// FromEnv converts the CI environment into an immutable Action config,
// layered over the file/default config for the knobs the environment
// doesn't cover
func FromEnv(cfg *Config) (*Action, error) {
	workspacePath, err := requiredEnv("GITHUB_WORKSPACE")
	if err != nil {
		return nil, err
	}

	eventPath, err := requiredEnv("GITHUB_EVENT_PATH")
	if err != nil {
		return nil, err
	}

	eventName, err := requiredEnv("GITHUB_EVENT_NAME")
	if err != nil {
		return nil, err
	}

	repository, err := requiredEnv("GITHUB_REPOSITORY")
	if err != nil {
		return nil, err
	}

	repositoryOwner, err := requiredEnv("GITHUB_REPOSITORY_OWNER")
	if err != nil {
		return nil, err
	}

	if !strings.Contains(repository, "/") {
		return nil, fmt.Errorf("invalid repository format (expected owner/repo): repository=%q", repository)
	}

	githubToken := os.Getenv("GITHUB_TOKEN")
	if eventName == "pull_request" && len(githubToken) == 0 {
		return nil, fmt.Errorf("GITHUB_TOKEN is required for pull_request events")
	}

	workspacePath, err = validateWorkspacePath(workspacePath)
	if err != nil {
		return nil, err
	}

	gitleaksVersion := os.Getenv("GITLEAKS_VERSION")
	if len(gitleaksVersion) == 0 {
		gitleaksVersion = cfg.Scanner.Gitleaks.Version
	}

	gitleaksConfigPath, err := locateGitleaksConfig(workspacePath)
	if err != nil {
		return nil, err
	}

	baseRef := os.Getenv("BASE_REF")
	if err := ValidateGitRef(baseRef); err != nil {
		return nil, err
	}

	scanTimeout := cfg.ScanTimeout()
	if rawTimeout := os.Getenv("SECRETSCOUT_SCAN_TIMEOUT"); len(rawTimeout) > 0 {
		// Whole seconds only, no duration suffixes
		seconds, err := strconv.Atoi(rawTimeout)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid scan timeout, expected seconds: value=%q", rawTimeout)
		}
		scanTimeout = time.Duration(seconds) * time.Second
	}

	action := &Action{
		GithubToken:          githubToken,
		GithubAPIURL:         apiURL(),
		GitleaksLicense:      os.Getenv("GITLEAKS_LICENSE"),
		GitleaksVersion:      gitleaksVersion,
		GitleaksConfigPath:   gitleaksConfigPath,
		EnableSummary:        enabledFlag("GITLEAKS_ENABLE_SUMMARY"),
		EnableUploadArtifact: enabledFlag("GITLEAKS_ENABLE_UPLOAD_ARTIFACT"),
		EnableComments:       enabledFlag("GITLEAKS_ENABLE_COMMENTS"),
		NotifyUserList:       ParseUserList(os.Getenv("GITLEAKS_NOTIFY_USER_LIST")),
		BaseRef:              baseRef,
		WorkspacePath:        workspacePath,
		EventPath:            eventPath,
		EventName:            eventName,
		Repository:           repository,
		RepositoryOwner:      repositoryOwner,
		SummaryPath:          os.Getenv("GITHUB_STEP_SUMMARY"),
		ScanTimeout:          scanTimeout,
		FindingsExitCode:     cfg.Scanner.Gitleaks.FindingsExitCode,
		CacheDir:             cfg.Scanner.CacheDir,
		CommentConcurrency:   cfg.Output.CommentConcurrency,
	}

	return action, nil
}

// ReportPath is where the scanner writes its structured report
func (a *Action) ReportPath() string {
	return filepath.Join(a.WorkspacePath, "results.sarif")
}

// RepoParts splits the owner/repo pair
func (a *Action) RepoParts() (string, string) {
	parts := strings.SplitN(a.Repository, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return a.RepositoryOwner, ""
}

func apiURL() string {
	if url := os.Getenv("GITHUB_API_URL"); len(url) > 0 {
		return url
	}
	return "https://api.github.com"
}

func enabledFlag(key string) bool {
	value, set := os.LookupEnv(key)
	if !set {
		return true
	}
	return ParseBool(value)
}

func requiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if len(value) == 0 {
		return "", fmt.Errorf("missing required environment variable: %s", key)
	}
	return value, nil
}

func validateWorkspacePath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("workspace not found: path=%q", path)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("workspace is not a directory: path=%q", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("could not resolve workspace path: path=%q error=%q", path, err)
	}

	return abs, nil
}

// locateGitleaksConfig returns the explicit GITLEAKS_CONFIG path after
// checking it stays inside the workspace, or auto-detects gitleaks.toml
// at the workspace root
func locateGitleaksConfig(workspacePath string) (string, error) {
	if explicit, set := os.LookupEnv("GITLEAKS_CONFIG"); set {
		if strings.Contains(explicit, "..") {
			return "", fmt.Errorf("gitleaks config path contains traversal sequence: path=%q", explicit)
		}

		path := explicit
		if !filepath.IsAbs(path) {
			path = filepath.Join(workspacePath, path)
		}

		if !fs.ContainedBy(path, workspacePath) {
			return "", fmt.Errorf("gitleaks config path outside workspace: path=%q", explicit)
		}

		return path, nil
	}

	detected := filepath.Join(workspacePath, "gitleaks.toml")
	if fs.FileExists(detected) {
		return detected, nil
	}

	return "", nil
}
