package binary

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/globalbusinessadvisors/secretscout/pkg/errs"
	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
)

// findingsExitCode is the exit code the scanner is told to use when it
// finds secrets, distinct from its error exit code
const findingsExitCode = 2

// Outcome classifies how a scan ended
type Outcome int

const (
	// OutcomeUnknown means the process never produced an exit code
	OutcomeUnknown Outcome = iota
	// OutcomeClean means the scan ran and found nothing
	OutcomeClean
	// OutcomeFindings means the scan ran and found secrets
	OutcomeFindings
	// OutcomeScannerError means the scanner itself failed
	OutcomeScannerError
)

// String is defined to implement the fmt.Stringer interface
func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "clean"
	case OutcomeFindings:
		return "findings"
	case OutcomeScannerError:
		return "scanner-error"
	default:
		return "unknown"
	}
}

type (
	// ScanOptions describes one scanner invocation. Protect switches to
	// scanning uncommitted changes instead of history.
	ScanOptions struct {
		BinaryPath   string
		Workspace    string
		Source       string
		ReportPath   string
		ReportFormat string
		ConfigPath   string
		LogOpts      string
		License      string
		Protect      bool
		Staged       bool
		Timeout      time.Duration
	}

	// ScanResult carries the classified outcome plus the raw process
	// output for diagnostics
	ScanResult struct {
		Outcome  Outcome
		ExitCode int
		Stdout   string
		Stderr   string
	}
)

// BuildArguments assembles the scanner command line. The range selection
// expression travels as a single argument value, never as shell tokens.
func BuildArguments(opts *ScanOptions) []string {
	command := "detect"
	if opts.Protect {
		command = "protect"
	}

	reportFormat := opts.ReportFormat
	if len(reportFormat) == 0 {
		reportFormat = "sarif"
	}

	args := []string{
		command,
		"--redact",
		"-v",
		"--exit-code=2",
		"--report-format=" + reportFormat,
		"--report-path=" + opts.ReportPath,
		"--log-level=debug",
	}

	if opts.Protect && opts.Staged {
		args = append(args, "--staged")
	}

	if len(opts.Source) > 0 {
		args = append(args, "--source="+opts.Source)
	}

	if len(opts.ConfigPath) > 0 {
		args = append(args, "--config="+opts.ConfigPath)
	}

	if !opts.Protect && len(opts.LogOpts) > 0 {
		args = append(args, "--log-opts="+opts.LogOpts)
	}

	return args
}

// Scan runs the scanner against the workspace and classifies the result.
// A non-nil ScanResult comes back even for scanner errors so callers can
// still read whatever report was written.
func Scan(ctx context.Context, opts *ScanOptions) (*ScanResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	args := BuildArguments(opts)
	logger.Info("running scanner: binary=%q args=%v", opts.BinaryPath, args)

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, opts.BinaryPath, args...)
	cmd.Dir = opts.Workspace
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = os.Environ()
	if len(opts.License) > 0 {
		cmd.Env = append(cmd.Env, "GITLEAKS_LICENSE="+opts.License)
	}

	err := cmd.Run()

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return nil, errs.New(errs.Fatal, errs.ScanTimeoutError, "scan timed out after %s", opts.Timeout)
	}

	result := &ScanResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
		result.Outcome = OutcomeClean
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		if result.ExitCode == findingsExitCode {
			result.Outcome = OutcomeFindings
		} else {
			result.Outcome = OutcomeScannerError
		}
	default:
		return nil, errs.New(errs.Fatal, errs.ScanError, "could not run scanner: %v", err)
	}

	logger.Debug("scanner finished: exit_code=%d outcome=%q", result.ExitCode, result.Outcome)

	return result, nil
}
