package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/globalbusinessadvisors/secretscout/pkg/config"
)

func TestExitError(t *testing.T) {
	t.Run("CodeSurvivesWrapping", func(t *testing.T) {
		err := fmt.Errorf("scan failed: %w", &ExitError{Code: 2})

		var exit *ExitError
		require.True(t, errors.As(err, &exit))
		assert.Equal(t, 2, exit.Code)
	})

	t.Run("OtherErrorsDoNotMatch", func(t *testing.T) {
		var exit *ExitError
		assert.False(t, errors.As(errors.New("boom"), &exit))
	})
}

func TestRootCommandWiring(t *testing.T) {
	root := rootCommand()

	var names []string
	for _, command := range root.Commands() {
		names = append(names, command.Name())
	}

	assert.Contains(t, names, "detect")
	assert.Contains(t, names, "protect")
	assert.Contains(t, names, "version")

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestScanOptionsFromFlags(t *testing.T) {
	cfg := config.DefaultConfig()

	t.Run("DetectDefaults", func(t *testing.T) {
		source := t.TempDir()

		cmd := detectCommand()
		require.NoError(t, cmd.Flags().Set("source", source))

		opts, err := scanOptionsFromFlags(cmd, cfg, false)
		require.NoError(t, err)

		assert.Equal(t, source, opts.Workspace)
		assert.Equal(t, filepath.Join(source, "results.sarif"), opts.ReportPath)
		assert.False(t, opts.Protect)
		assert.Equal(t, cfg.ScanTimeout(), opts.Timeout)
	})

	t.Run("DetectWithLogOpts", func(t *testing.T) {
		cmd := detectCommand()
		require.NoError(t, cmd.Flags().Set("source", t.TempDir()))
		require.NoError(t, cmd.Flags().Set("log-opts", "-1"))

		opts, err := scanOptionsFromFlags(cmd, cfg, false)
		require.NoError(t, err)
		assert.Equal(t, "-1", opts.LogOpts)
	})

	t.Run("ProtectStaged", func(t *testing.T) {
		cmd := protectCommand()
		require.NoError(t, cmd.Flags().Set("source", t.TempDir()))
		require.NoError(t, cmd.Flags().Set("staged", "true"))

		opts, err := scanOptionsFromFlags(cmd, cfg, true)
		require.NoError(t, err)
		assert.True(t, opts.Protect)
		assert.True(t, opts.Staged)
	})

	t.Run("ExplicitReportPath", func(t *testing.T) {
		cmd := detectCommand()
		require.NoError(t, cmd.Flags().Set("source", t.TempDir()))
		require.NoError(t, cmd.Flags().Set("report-path", "/tmp/out.sarif"))

		opts, err := scanOptionsFromFlags(cmd, cfg, false)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/out.sarif", opts.ReportPath)
	})
}
