package github

import (
	"context"
	"fmt"
	"net/http"
)

type (
	// Commit is a single commit as reported by the API
	Commit struct {
		SHA     string
		Author  Author
		Message string
	}

	// Author identifies who wrote a commit
	Author struct {
		Name  string
		Email string
	}

	// ReviewComment is a pull request review comment
	ReviewComment struct {
		Body     string `json:"body"`
		CommitID string `json:"commit_id"`
		Path     string `json:"path"`
		Line     int    `json:"line"`
		Side     string `json:"side"`
	}

	// AccountInfo describes the account behind a login
	AccountInfo struct {
		Login string `json:"login"`
		Type  string `json:"type"`
	}

	commitResponse struct {
		SHA    string `json:"sha"`
		Commit struct {
			Author struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			} `json:"author"`
			Message string `json:"message"`
		} `json:"commit"`
	}
)

// ListPullRequestCommits fetches the commits on a pull request in order
func (c *Client) ListPullRequestCommits(ctx context.Context, owner string, repo string, number int) ([]Commit, error) {
	var raw []commitResponse

	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/commits", owner, repo, number)
	if err := c.Request(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	commits := make([]Commit, len(raw))
	for i, entry := range raw {
		commits[i] = Commit{
			SHA: entry.SHA,
			Author: Author{
				Name:  entry.Commit.Author.Name,
				Email: entry.Commit.Author.Email,
			},
			Message: entry.Commit.Message,
		}
	}

	return commits, nil
}

// ListReviewComments fetches the existing review comments on a pull
// request. The orchestrator calls this once per run before posting, so
// deduplication works from a consistent snapshot.
func (c *Client) ListReviewComments(ctx context.Context, owner string, repo string, number int) ([]ReviewComment, error) {
	var comments []ReviewComment

	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/comments", owner, repo, number)
	if err := c.Request(ctx, http.MethodGet, path, nil, &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

// PostReviewComment creates a review comment on a pull request
func (c *Client) PostReviewComment(ctx context.Context, owner string, repo string, number int, comment *ReviewComment) error {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/comments", owner, repo, number)
	return c.Request(ctx, http.MethodPost, path, comment, nil)
}

// GetAccountInfo looks up whether a login is a user or an organization
func (c *Client) GetAccountInfo(ctx context.Context, login string) (*AccountInfo, error) {
	var info AccountInfo

	if err := c.Request(ctx, http.MethodGet, "/users/"+login, nil, &info); err != nil {
		return nil, err
	}

	return &info, nil
}
