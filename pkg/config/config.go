package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/globalbusinessadvisors/secretscout/pkg/fs"
	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
)

// DefaultGitleaksVersion is used when no version pin is provided
const DefaultGitleaksVersion = "8.24.3"

// DefaultScanTimeout bounds a single gitleaks run (seconds)
const DefaultScanTimeout = 600

type (
	// Config provides a general structure to capture the config options
	// for the tool
	Config struct {
		Logger  Logger  `toml:"logger"`
		Scanner Scanner `toml:"scanner"`
		Output  Output  `toml:"output"`
	}

	// Logger provides general logging config
	Logger struct {
		Level string `toml:"level"`
	}

	// Scanner provides scanner specific config
	Scanner struct {
		CacheDir    string   `toml:"cache_dir"`
		ScanTimeout uint32   `toml:"scan_timeout"`
		Gitleaks    Gitleaks `toml:"gitleaks"`
	}

	// Gitleaks configures the wrapped gitleaks binary
	Gitleaks struct {
		Version          string `toml:"version"`
		FindingsExitCode int    `toml:"findings_exit_code"`
	}

	// Output configures how scan results are rendered
	Output struct {
		Format             string `toml:"format"`
		CommentConcurrency int    `toml:"comment_concurrency"`
	}
)

var localConfigDir = filepath.Join(xdg.ConfigHome, "secretscout")

func defaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "secretscout")
}

// DefaultConfig provides a fully usable instance of Config with default
// values provided
func DefaultConfig() *Config {
	return &Config{
		Logger: Logger{
			Level: "INFO",
		},
		Scanner: Scanner{
			CacheDir:    defaultCacheDir(),
			ScanTimeout: DefaultScanTimeout,
			Gitleaks: Gitleaks{
				Version:          DefaultGitleaksVersion,
				FindingsExitCode: ExitCodeLeaksDetected,
			},
		},
		Output: Output{
			Format:             "HUMAN",
			CommentConcurrency: 4,
		},
	}
}

// ScanTimeout returns the configured scan timeout as a duration
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Scanner.ScanTimeout) * time.Second
}

// LoadConfigFromFile provides a config object with default values set plus
// any custom values pulled in from the config file
func LoadConfigFromFile(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := toml.DecodeFile(filepath.Clean(path), config); err != nil {
		return nil, err
	}

	if err := logger.SetLoggerLevel(config.Logger.Level); err != nil {
		return nil, err
	}

	return config, nil
}

// LocateAndLoadConfig looks through the possible places for the config
// favoring the provided path if it is set
func LocateAndLoadConfig(path string) (*Config, error) {
	if len(path) > 0 {
		return LoadConfigFromFile(path)
	}

	if path = os.Getenv("SECRETSCOUT_CONFIG_PATH"); len(path) > 0 {
		return LoadConfigFromFile(path)
	}

	path = filepath.Join(localConfigDir, "config.toml")
	if fs.FileExists(path) {
		return LoadConfigFromFile(path)
	}

	path = "/etc/secretscout/config.toml"
	if fs.FileExists(path) {
		return LoadConfigFromFile(path)
	}

	return DefaultConfig(), nil
}

// ParseBool keeps the legacy flag mapping: "false" and "0" parse to false,
// everything else (including the empty string) parses to true. Downstream
// workflow configs depend on empty-string-means-enabled.
func ParseBool(value string) bool {
	switch value {
	case "false", "0":
		return false
	default:
		return true
	}
}

// ParseUserList splits a comma separated list of users to notify,
// dropping empty entries
func ParseUserList(input string) []string {
	if len(input) == 0 {
		return nil
	}

	var users []string
	for _, user := range strings.Split(input, ",") {
		if user = strings.TrimSpace(user); len(user) > 0 {
			users = append(users, user)
		}
	}

	return users
}

// ValidateGitRef rejects refs carrying shell metacharacters or traversal
// sequences. Refs end up embedded in the scanner's range argument, so
// anything suspicious is refused outright rather than escaped.
func ValidateGitRef(gitRef string) error {
	if len(gitRef) == 0 {
		// Empty refs mean a full scan
		return nil
	}

	if i := strings.IndexAny(gitRef, ";&|$`<>\n\r"); i >= 0 {
		return fmt.Errorf("git ref contains dangerous character %q: ref=%q", gitRef[i], gitRef)
	}

	if strings.Contains(gitRef, "..") {
		return fmt.Errorf("git ref contains traversal sequence: ref=%q", gitRef)
	}

	return nil
}
