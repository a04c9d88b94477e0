package output

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/fatih/semgroup"

	"github.com/globalbusinessadvisors/secretscout/pkg/event"
	"github.com/globalbusinessadvisors/secretscout/pkg/github"
	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
	"github.com/globalbusinessadvisors/secretscout/pkg/report"
)

// CommentAPI is the slice of the API client comment posting needs
type CommentAPI interface {
	ListReviewComments(ctx context.Context, owner string, repo string, number int) ([]github.ReviewComment, error)
	PostReviewComment(ctx context.Context, owner string, repo string, number int, comment *github.ReviewComment) error
	GetAccountInfo(ctx context.Context, login string) (*github.AccountInfo, error)
}

// BuildComment renders the review comment body for one finding
func BuildComment(finding *report.Finding, notifyUsers []string) string {
	var body strings.Builder

	body.WriteString("🛑 **Gitleaks Secret Detected**\n\n")
	_, _ = fmt.Fprintf(&body, "**Rule:** `%s`\n", finding.RuleID)
	_, _ = fmt.Fprintf(&body, "**Commit:** `%s`\n", finding.Commit)
	_, _ = fmt.Fprintf(&body, "**Fingerprint:** `%s`\n\n", finding.Fingerprint)
	body.WriteString("To ignore this finding, add the fingerprint to `.gitleaksignore`.\n")

	if len(notifyUsers) > 0 {
		_, _ = fmt.Fprintf(&body, "\n**CC:** %s\n", strings.Join(notifyUsers, " "))
	}

	return body.String()
}

// PostComments posts one review comment per finding on the pull request,
// skipping findings that already have a comment carrying their
// fingerprint. Existing comments are fetched once up front so every
// posting decision works from the same snapshot; a comment posted by a
// concurrent run after the snapshot can still slip through. Individual
// post failures are logged and skipped rather than failing the run.
func PostComments(
	ctx context.Context,
	api CommentAPI,
	eventContext *event.Context,
	findings []report.Finding,
	notifyUsers []string,
	concurrency int,
) (int, error) {
	pullRequest := eventContext.PullRequest
	if pullRequest == nil {
		logger.Error("cannot post review comments outside a pull request")
		return 0, nil
	}

	owner := eventContext.Repository.Owner
	repo := eventContext.Repository.Name

	logger.Info("posting comments: findings=%d pull_request=%d", len(findings), pullRequest.Number)

	existing, err := api.ListReviewComments(ctx, owner, repo, pullRequest.Number)
	if err != nil {
		logger.Warning("could not fetch existing comments, continuing without deduplication: %v", err)
		existing = nil
	}

	notifyUsers = validNotifyUsers(ctx, api, notifyUsers)

	if concurrency < 1 {
		concurrency = 1
	}

	var posted, skipped atomic.Int32
	group := semgroup.NewGroup(ctx, int64(concurrency))

	for i := range findings {
		finding := &findings[i]

		if hasFingerprint(existing, finding.Fingerprint) {
			logger.Debug("skipping duplicate comment: fingerprint=%q", finding.Fingerprint)
			skipped.Add(1)
			continue
		}

		group.Go(func() error {
			comment := &github.ReviewComment{
				Body:     BuildComment(finding, notifyUsers),
				CommitID: finding.Commit,
				Path:     finding.File,
				Line:     finding.Line,
				Side:     "RIGHT",
			}

			if err := api.PostReviewComment(ctx, owner, repo, pullRequest.Number, comment); err != nil {
				logger.Warning("could not post comment: file=%q line=%d error=%q", finding.File, finding.Line, err)
				return nil
			}

			posted.Add(1)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return int(posted.Load()), err
	}

	logger.Info("posted comments: posted=%d skipped=%d", posted.Load(), skipped.Load())

	return int(posted.Load()), nil
}

// validNotifyUsers drops notify entries whose account does not exist, so
// a typo in the list never ends up as a broken mention. Lookup failures
// other than a missing account keep the user.
func validNotifyUsers(ctx context.Context, api CommentAPI, users []string) []string {
	var valid []string

	for _, user := range users {
		login := strings.TrimPrefix(user, "@")

		if _, err := api.GetAccountInfo(ctx, login); err != nil {
			var statusErr github.StatusError
			if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
				logger.Warning("dropping unknown notify user: user=%q", user)
				continue
			}
			logger.Warning("could not verify notify user: user=%q error=%q", user, err)
		}

		valid = append(valid, user)
	}

	return valid
}

// hasFingerprint reports whether any existing comment already carries the
// fingerprint. Matching on the fingerprint rather than the full body keeps
// deduplication stable across comment template changes.
func hasFingerprint(comments []github.ReviewComment, fingerprint string) bool {
	for _, comment := range comments {
		if strings.Contains(comment.Body, fingerprint) {
			return true
		}
	}
	return false
}
