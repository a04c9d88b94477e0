// Package event turns a CI trigger into a scan scope. Each trigger kind
// resolves to the commit range the scanner should cover: pushes and pull
// requests scan the commits they carry, dispatch and schedule triggers
// scan the full history.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/globalbusinessadvisors/secretscout/pkg/config"
	"github.com/globalbusinessadvisors/secretscout/pkg/errs"
	"github.com/globalbusinessadvisors/secretscout/pkg/github"
	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
)

// Kind is the set of triggers that can start a scan
type Kind int

const (
	// Manual is an ad-hoc command line invocation
	Manual Kind = iota
	// Push is a branch push trigger
	Push
	// PullRequest is a pull request trigger
	PullRequest
	// Dispatch is a manually dispatched workflow trigger
	Dispatch
	// Schedule is a cron trigger
	Schedule
)

var kindNames = [...]string{"manual", "push", "pull_request", "workflow_dispatch", "schedule"}

// String renders the kind the way the CI names it
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindFromString maps a trigger name onto a Kind
func KindFromString(name string) (Kind, error) {
	switch name {
	case "push":
		return Push, nil
	case "pull_request":
		return PullRequest, nil
	case "workflow_dispatch":
		return Dispatch, nil
	case "schedule":
		return Schedule, nil
	default:
		return Manual, errs.New(errs.Fatal, errs.UnsupportedEventError, "unsupported event type: %q", name)
	}
}

type (
	// Context carries everything resolved from the trigger that later
	// stages need: the scope refs, the commits, and where to report
	Context struct {
		Kind        Kind
		Repository  Repository
		BaseRef     string
		HeadRef     string
		Commits     []github.Commit
		PullRequest *PullRequestInfo
	}

	// Repository identifies the repo under scan
	Repository struct {
		Owner    string
		Name     string
		FullName string
		HTMLURL  string
	}

	// PullRequestInfo carries the PR coordinates for comment delivery
	PullRequestInfo struct {
		Number  int
		BaseSHA string
		BaseRef string
		HeadSHA string
		HeadRef string
	}

	// CommitLister is the slice of the API client the router needs
	CommitLister interface {
		ListPullRequestCommits(ctx context.Context, owner string, repo string, number int) ([]github.Commit, error)
	}
)

// eventPayload is the subset of the CI event JSON we consume
type eventPayload struct {
	Repository *struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
		HTMLURL  string `json:"html_url"`
		Owner    struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
	Commits []struct {
		ID     string `json:"id"`
		Author struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"author"`
		Message string `json:"message"`
	} `json:"commits"`
	PullRequest *struct {
		Number int `json:"number"`
		Base   struct {
			SHA string `json:"sha"`
			Ref string `json:"ref"`
		} `json:"base"`
		Head struct {
			SHA string `json:"sha"`
			Ref string `json:"ref"`
		} `json:"head"`
	} `json:"pull_request"`
}

// ParseContext reads the trigger metadata and resolves the scan scope.
// The commit lister is only consulted for pull request triggers.
func ParseContext(ctx context.Context, action *config.Action, commits CommitLister) (*Context, error) {
	kind, err := KindFromString(action.EventName)
	if err != nil {
		return nil, err
	}

	payload, err := readEventFile(action.EventPath)
	if err != nil {
		return nil, err
	}

	repository := parseRepository(payload, action)

	switch kind {
	case Push:
		return parsePushContext(payload, repository, action)
	case PullRequest:
		return parsePullRequestContext(ctx, payload, repository, action, commits)
	default:
		// Dispatch and schedule scan the full history unless a base
		// ref override bounds the range
		return &Context{
			Kind:       kind,
			Repository: repository,
			BaseRef:    action.BaseRef,
		}, nil
	}
}

func readEventFile(path string) (*eventPayload, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errs.New(errs.Fatal, errs.ConfigError, "could not read event file: %v", err)
	}

	var payload eventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errs.New(errs.Fatal, errs.ConfigError, "could not parse event file: %v", err)
	}

	return &payload, nil
}

// parseRepository pulls the repository out of the event, falling back to
// the configured values for schedule events where the event body may not
// carry one
func parseRepository(payload *eventPayload, action *config.Action) Repository {
	if payload.Repository != nil {
		return Repository{
			Owner:    payload.Repository.Owner.Login,
			Name:     payload.Repository.Name,
			FullName: payload.Repository.FullName,
			HTMLURL:  payload.Repository.HTMLURL,
		}
	}

	owner, name := action.RepoParts()
	return Repository{
		Owner:    owner,
		Name:     name,
		FullName: action.Repository,
		HTMLURL:  "https://github.com/" + action.Repository,
	}
}

func parsePushContext(payload *eventPayload, repository Repository, action *config.Action) (*Context, error) {
	if len(payload.Commits) == 0 {
		return nil, errs.New(errs.Expected, errs.NoCommitsError, "push event carried no commits")
	}

	commits := make([]github.Commit, 0, len(payload.Commits))
	for _, commit := range payload.Commits {
		if len(commit.ID) == 0 {
			continue
		}
		commits = append(commits, github.Commit{
			SHA: commit.ID,
			Author: github.Author{
				Name:  commit.Author.Name,
				Email: commit.Author.Email,
			},
			Message: commit.Message,
		})
	}

	if len(commits) == 0 {
		return nil, errs.New(errs.Expected, errs.NoCommitsError, "push event carried no usable commits")
	}

	baseRef := action.BaseRef
	if len(baseRef) == 0 {
		baseRef = commits[0].SHA
	}

	return &Context{
		Kind:       Push,
		Repository: repository,
		BaseRef:    baseRef,
		HeadRef:    commits[len(commits)-1].SHA,
		Commits:    commits,
	}, nil
}

func parsePullRequestContext(ctx context.Context, payload *eventPayload, repository Repository, action *config.Action, lister CommitLister) (*Context, error) {
	if payload.PullRequest == nil {
		return nil, errs.New(errs.Fatal, errs.ConfigError, "pull_request event missing pull_request object")
	}

	info := &PullRequestInfo{
		Number:  payload.PullRequest.Number,
		BaseSHA: payload.PullRequest.Base.SHA,
		BaseRef: payload.PullRequest.Base.Ref,
		HeadSHA: payload.PullRequest.Head.SHA,
		HeadRef: payload.PullRequest.Head.Ref,
	}

	logger.Info("fetching commits for pull request: number=%d", info.Number)

	commits, err := lister.ListPullRequestCommits(ctx, repository.Owner, repository.Name, info.Number)
	if err != nil {
		return nil, err
	}

	if len(commits) == 0 {
		return nil, errs.New(errs.Expected, errs.NoCommitsError, "pull request carried no commits")
	}

	baseRef := action.BaseRef
	if len(baseRef) == 0 {
		baseRef = commits[0].SHA
	}

	return &Context{
		Kind:        PullRequest,
		Repository:  repository,
		BaseRef:     baseRef,
		HeadRef:     commits[len(commits)-1].SHA,
		Commits:     commits,
		PullRequest: info,
	}, nil
}

// LogOpts builds the scanner's range-selection argument. The refs are
// validated against the range safety check first and the whole expression
// is handed downstream as one opaque argument, never shell tokens.
func LogOpts(c *Context) (string, error) {
	if err := config.ValidateGitRef(c.BaseRef); err != nil {
		return "", err
	}
	if err := config.ValidateGitRef(c.HeadRef); err != nil {
		return "", err
	}

	switch c.Kind {
	case Push:
		if c.BaseRef == c.HeadRef {
			// Single commit
			return "-1", nil
		}
		return fmt.Sprintf("--no-merges --first-parent %s^..%s", c.BaseRef, c.HeadRef), nil
	case PullRequest:
		// Always a range. The checkout for a pull request is the merge
		// ref, so "-1" would scan the merge commit instead of the head.
		return fmt.Sprintf("--no-merges --first-parent %s^..%s", c.BaseRef, c.HeadRef), nil
	default:
		if len(c.BaseRef) > 0 {
			// Bounded full scan from the override point
			return fmt.Sprintf("--no-merges --first-parent %s^..HEAD", c.BaseRef), nil
		}
		return "", nil
	}
}
