// Package cmd is the command line surface for ad-hoc scans outside CI.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/globalbusinessadvisors/secretscout/pkg/binary"
	"github.com/globalbusinessadvisors/secretscout/pkg/config"
	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
	"github.com/globalbusinessadvisors/secretscout/pkg/output"
	"github.com/globalbusinessadvisors/secretscout/pkg/report"
	"github.com/globalbusinessadvisors/secretscout/version"
)

// ExitError carries a specific process exit code out of a command. The
// message is never shown, the command prints its own output before
// returning one.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

const cliLong = `Name:
  secretscout - Scan git history for leaked secrets

Description:
  secretscout wraps the gitleaks scanner. Inside CI it runs automatically
  against the commits a trigger carries. On the command line it runs
  ad-hoc scans: "detect" covers committed history and "protect" covers
  uncommitted changes.
`

const configDescription = `config file path
order of precedence:
1. --config/-c
2. env var SECRETSCOUT_CONFIG_PATH
3. ${XDG_CONFIG_HOME}/secretscout/config.toml
4. /etc/secretscout/config.toml
5. The default config
`

func runHelp(cmd *cobra.Command, _ []string) {
	_ = cmd.Help()
}

func rootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "secretscout",
		Short: "Scan git history for leaked secrets",
		Long:  cliLong,
		Run:   runHelp,
	}

	flags := rootCommand.PersistentFlags()
	flags.StringP("config", "c", "", configDescription)
	flags.Bool("verbose", false, "enable debug logging")

	rootCommand.AddCommand(detectCommand())
	rootCommand.AddCommand(protectCommand())
	rootCommand.AddCommand(versionCommand())

	return rootCommand
}

func detectCommand() *cobra.Command {
	detectCommand := &cobra.Command{
		Use:   "detect",
		Short: "Scan committed history for secrets",
		RunE:  runDetect,
	}

	flags := detectCommand.Flags()
	flags.StringP("source", "s", ".", "path of the repo to scan")
	flags.String("report-path", "", "where to write the scanner report (default: <source>/results.sarif)")
	flags.String("log-opts", "", "git log options to bound the scan range")
	flags.String("gitleaks-version", "", "scanner version to use (defaults to the configured pin)")
	flags.StringP("format", "f", "", "output format: JSON, HUMAN, TOML, YAML or CSV")

	return detectCommand
}

func protectCommand() *cobra.Command {
	protectCommand := &cobra.Command{
		Use:   "protect",
		Short: "Scan uncommitted changes for secrets",
		RunE:  runProtect,
	}

	flags := protectCommand.Flags()
	flags.StringP("source", "s", ".", "path of the repo to scan")
	flags.String("report-path", "", "where to write the scanner report (default: <source>/results.sarif)")
	flags.String("gitleaks-version", "", "scanner version to use (defaults to the configured pin)")
	flags.StringP("format", "f", "", "output format: JSON, HUMAN, TOML, YAML or CSV")
	flags.Bool("staged", false, "include staged changes")

	return protectCommand
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		Run: func(_ *cobra.Command, _ []string) {
			version.PrintVersion()
		},
	}
}

func runDetect(cmd *cobra.Command, _ []string) error {
	return runScan(cmd, false)
}

func runProtect(cmd *cobra.Command, _ []string) error {
	return runScan(cmd, true)
}

// scanOptionsFromFlags translates the command flags and loaded config
// into one scanner invocation
func scanOptionsFromFlags(cmd *cobra.Command, cfg *config.Config, protect bool) (*binary.ScanOptions, error) {
	flags := cmd.Flags()

	source, err := flags.GetString("source")
	if err != nil {
		return nil, err
	}

	if source, err = filepath.Abs(source); err != nil {
		return nil, err
	}

	reportPath, err := flags.GetString("report-path")
	if err != nil {
		return nil, err
	}
	if len(reportPath) == 0 {
		reportPath = filepath.Join(source, "results.sarif")
	}

	opts := &binary.ScanOptions{
		Workspace:  source,
		ReportPath: reportPath,
		License:    os.Getenv("GITLEAKS_LICENSE"),
		Protect:    protect,
		Timeout:    cfg.ScanTimeout(),
	}

	if protect {
		if opts.Staged, err = flags.GetBool("staged"); err != nil {
			return nil, err
		}
	} else {
		if opts.LogOpts, err = flags.GetString("log-opts"); err != nil {
			return nil, err
		}
	}

	gitleaksConfig := filepath.Join(source, "gitleaks.toml")
	if _, err := os.Stat(gitleaksConfig); err == nil {
		opts.ConfigPath = gitleaksConfig
	}

	return opts, nil
}

func runScan(cmd *cobra.Command, protect bool) error {
	flags := cmd.Flags()

	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return err
	}

	cfg, err := config.LocateAndLoadConfig(configPath)
	if err != nil {
		return err
	}

	if verbose, err := cmd.Root().PersistentFlags().GetBool("verbose"); err == nil && verbose {
		_ = logger.SetLoggerLevel("DEBUG")
	}

	opts, err := scanOptionsFromFlags(cmd, cfg, protect)
	if err != nil {
		return err
	}

	format, err := flags.GetString("format")
	if err != nil {
		return err
	}
	if len(format) == 0 {
		format = cfg.Output.Format
	}

	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}

	gitleaksVersion, err := flags.GetString("gitleaks-version")
	if err != nil {
		return err
	}
	if len(gitleaksVersion) == 0 {
		gitleaksVersion = cfg.Scanner.Gitleaks.Version
	}

	manager, err := binary.NewManager(cfg.Scanner.CacheDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	binaryPath, err := manager.Acquire(ctx, gitleaksVersion)
	if err != nil {
		return err
	}
	opts.BinaryPath = binaryPath

	result, err := binary.Scan(ctx, opts)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case binary.OutcomeClean:
		logger.Info("no secrets detected")
		return nil
	case binary.OutcomeFindings:
		raw, err := os.ReadFile(filepath.Clean(opts.ReportPath))
		if err != nil {
			return err
		}

		findings, err := report.ParseFindings(raw)
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		_, _ = fmt.Fprint(cmd.OutOrStdout(), formatter.Format(findings))
		return &ExitError{Code: cfg.Scanner.Gitleaks.FindingsExitCode}
	default:
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		logger.Error("scanner exited with error: exit_code=%d", result.ExitCode)
		logger.Error("scanner stderr: %s", result.Stderr)
		return &ExitError{Code: config.ExitCodeOperationalError}
	}
}

// Execute runs the command tree and returns the process exit code
func Execute() int {
	if err := rootCommand().Execute(); err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			return exit.Code
		}

		logger.Error("%v", err)
		return config.ExitCodeOperationalError
	}

	return config.ExitCodeSuccess
}
