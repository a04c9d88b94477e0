// Package action orchestrates a CI scan run: resolve the scan scope from
// the trigger, acquire the scanner, run it, parse the report, and deliver
// summaries and review comments.
package action

import (
	"context"
	"os"
	"path/filepath"

	"github.com/globalbusinessadvisors/secretscout/pkg/binary"
	"github.com/globalbusinessadvisors/secretscout/pkg/config"
	"github.com/globalbusinessadvisors/secretscout/pkg/errs"
	"github.com/globalbusinessadvisors/secretscout/pkg/event"
	"github.com/globalbusinessadvisors/secretscout/pkg/github"
	"github.com/globalbusinessadvisors/secretscout/pkg/id"
	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
	"github.com/globalbusinessadvisors/secretscout/pkg/output"
	"github.com/globalbusinessadvisors/secretscout/pkg/report"
)

// State tracks where a run is in its lifecycle
type State int

const (
	// StateIdle means the run has not started yet
	StateIdle State = iota
	// StateResolvingScope means the trigger is being turned into a scan scope
	StateResolvingScope
	// StateAcquiringBinary means the scanner binary is being located
	StateAcquiringBinary
	// StateScanning means the scanner is running
	StateScanning
	// StateParsingReport means the report is being decoded
	StateParsingReport
	// StateDelivering means summaries and comments are being written
	StateDelivering
	// StateDone means the run finished
	StateDone
	// StateFailed means the run hit a fatal error
	StateFailed
)

var stateNames = [...]string{
	"idle", "resolving-scope", "acquiring-binary", "scanning",
	"parsing-report", "delivering", "done", "failed",
}

// String is defined to implement the fmt.Stringer interface
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// API is the slice of the GitHub client the orchestrator needs
type API interface {
	event.CommitLister
	output.CommentAPI
}

// Runner drives one CI scan run end to end
type Runner struct {
	action *config.Action
	api    API
	state  State

	// Injection points for the side-effecting stages
	acquire      func(ctx context.Context, version string) (string, error)
	scan         func(ctx context.Context, opts *binary.ScanOptions) (*binary.ScanResult, error)
	writeSummary func(path string, content string) error
}

// NewRunner builds a Runner wired to the real scanner and API client
func NewRunner(action *config.Action) (*Runner, error) {
	manager, err := binary.NewManager(action.CacheDir)
	if err != nil {
		return nil, err
	}

	return &Runner{
		action:       action,
		api:          github.NewClient(action.GithubAPIURL, action.GithubToken),
		acquire:      manager.Acquire,
		scan:         binary.Scan,
		writeSummary: output.WriteSummary,
	}, nil
}

// State returns the run's current lifecycle state
func (r *Runner) State() State {
	return r.state
}

func (r *Runner) setState(next State) {
	logger.Debug("run state change: from=%q to=%q", r.state, next)
	r.state = next
}

// Run executes the whole pipeline and returns the process exit code.
// Fatal errors come back alongside their exit code; delivery failures
// only get logged.
func (r *Runner) Run(ctx context.Context) (int, error) {
	runID := id.ID()
	logger.Info("starting scan run: id=%q event=%q repository=%q", runID, r.action.EventName, r.action.Repository)

	r.setState(StateResolvingScope)
	eventContext, err := event.ParseContext(ctx, r.action, r.api)
	if err != nil {
		if errs.SeverityOf(err) == errs.Expected {
			// Nothing to scan is a clean outcome
			logger.Info("nothing to scan: %v", err)
			r.setState(StateDone)
			return config.ExitCodeSuccess, nil
		}
		return r.fail(err)
	}

	logOpts, err := event.LogOpts(eventContext)
	if err != nil {
		return r.fail(err)
	}
	logger.Info("resolved scan scope: event=%q log_opts=%q", eventContext.Kind, logOpts)

	r.setState(StateAcquiringBinary)
	binaryPath, err := r.acquire(ctx, r.action.GitleaksVersion)
	if err != nil {
		return r.fail(err)
	}

	r.setState(StateScanning)
	result, err := r.scan(ctx, &binary.ScanOptions{
		BinaryPath: binaryPath,
		Workspace:  r.action.WorkspacePath,
		ReportPath: r.action.ReportPath(),
		ConfigPath: r.action.GitleaksConfigPath,
		LogOpts:    logOpts,
		License:    r.action.GitleaksLicense,
		Timeout:    r.action.ScanTimeout,
	})
	if err != nil {
		return r.fail(err)
	}

	switch result.Outcome {
	case binary.OutcomeClean:
		return r.finishClean()
	case binary.OutcomeFindings:
		return r.finishFindings(ctx, eventContext)
	default:
		return r.finishScannerError(result)
	}
}

func (r *Runner) finishClean() (int, error) {
	logger.Info("no secrets detected")

	r.setState(StateDelivering)
	if r.action.EnableSummary {
		r.deliverSummary(output.RenderSuccessSummary())
	}

	r.setState(StateDone)
	return config.ExitCodeSuccess, nil
}

func (r *Runner) finishFindings(ctx context.Context, eventContext *event.Context) (int, error) {
	r.setState(StateParsingReport)

	findings, err := r.readFindings()
	if err != nil {
		return r.fail(err)
	}

	logger.Warning("secrets detected: count=%d", len(findings))

	r.setState(StateDelivering)

	if r.action.EnableComments && eventContext.Kind == event.PullRequest {
		posted, err := output.PostComments(
			ctx, r.api, eventContext, findings,
			r.action.NotifyUserList, r.action.CommentConcurrency,
		)
		if err != nil {
			logger.Warning("could not post some comments: %v", err)
		}
		logger.Info("posted review comments: count=%d", posted)
	}

	if r.action.EnableSummary {
		r.deliverSummary(output.RenderFindingsSummary(eventContext.Repository.HTMLURL, findings))
	}

	if r.action.EnableUploadArtifact {
		logger.Info("report ready for artifact upload: path=%q", r.action.ReportPath())
	}

	r.setState(StateDone)
	return r.action.FindingsExitCode, nil
}

func (r *Runner) finishScannerError(result *binary.ScanResult) (int, error) {
	logger.Error("scanner exited with error: exit_code=%d", result.ExitCode)
	logger.Error("scanner stderr: %s", result.Stderr)

	// A report may still have been written before the failure; surface
	// whatever it holds for diagnostics
	if findings, err := r.readFindings(); err == nil && len(findings) > 0 {
		logger.Warning("partial report before failure held findings: count=%d", len(findings))
	}

	r.setState(StateDelivering)
	if r.action.EnableSummary {
		r.deliverSummary(output.RenderErrorSummary(result.ExitCode))
	}

	r.setState(StateFailed)
	return config.ExitCodeOperationalError, errs.New(
		errs.Fatal, errs.ScanError,
		"scanner exited with error: exit_code=%d", result.ExitCode,
	)
}

// readFindings loads and parses the report written by the scanner
func (r *Runner) readFindings() ([]report.Finding, error) {
	raw, err := os.ReadFile(filepath.Clean(r.action.ReportPath()))
	if err != nil {
		return nil, errs.New(errs.Fatal, errs.MalformedReportError, "could not read report: %v", err)
	}

	return report.ParseFindings(raw)
}

// deliverSummary writes the job summary, downgrading failures to warnings
func (r *Runner) deliverSummary(content string) {
	if err := r.writeSummary(r.action.SummaryPath, content); err != nil {
		logger.Warning("could not write job summary: %v", err)
	}
}

func (r *Runner) fail(err error) (int, error) {
	r.setState(StateFailed)
	return config.ExitCodeOperationalError, err
}
