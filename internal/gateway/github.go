// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// ErrNoToken is returned by calls that need an authenticated client when no token was configured.
var ErrNoToken = errors.New("github token is not configured")

// maxHistoryPages bounds the commit history walk. Bus factor saturates long before that.
const maxHistoryPages = 10

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// CountIssues returns the number of issues in the given state ("open", "closed" or "all").
	CountIssues(ctx context.Context, owner, repo, state string) (int, error)
	// FetchCommitAuthors returns commit counts per author login on the default branch since the given time.
	FetchCommitAuthors(ctx context.Context, owner, repo string, since time.Time) (map[string]int, error)
	// FetchLicenseID returns the SPDX identifier GitHub detected for the repository.
	FetchLicenseID(ctx context.Context, owner, repo string) (string, error)
	// FetchFile returns the decoded content of a file at the repository root.
	FetchFile(ctx context.Context, owner, repo, path string) (string, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	hasToken      bool
	logger        *slog.Logger
}

// commitHistoryQuery walks the default branch history and keeps only the author login.
type commitHistoryQuery struct {
	Repository struct {
		DefaultBranchRef struct {
			Target struct {
				Commit struct {
					History struct {
						PageInfo struct {
							HasNextPage bool
							EndCursor   githubv4.String
						}
						Nodes []struct {
							Author struct {
								User struct {
									Login string
								}
							}
						}
					} `graphql:"history(first: 100, since: $since, after: $cursor)"`
				} `graphql:"... on Commit"`
			}
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// An empty token yields an unauthenticated client; token-gated calls then return ErrNoToken.
func NewGitHubGateway(token string, logger *slog.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(NewTransport(), github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	var transport http.RoundTripper = rateLimitWaiter
	if token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}
	}
	httpClient := &http.Client{Transport: transport}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		hasToken:      token != "",
		logger:        logger,
	}, nil
}

// CountIssues asks for a single item per page and reads the total from the last-page link,
// falling back to the number of returned items when there is no pagination.
func (g *GitHubGateway) CountIssues(ctx context.Context, owner, repo, state string) (int, error) {
	if !g.hasToken {
		return 0, ErrNoToken
	}
	opts := &github.IssueListByRepoOptions{
		State:       state,
		ListOptions: github.ListOptions{PerPage: 1},
	}
	issues, resp, err := g.restClient.Issues.ListByRepo(ctx, owner, repo, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s issues of %s/%s: %w", state, owner, repo, err)
	}
	count := len(issues)
	if resp != nil && resp.LastPage > 0 {
		count = resp.LastPage
	}
	g.logger.Debug("counted issues", "repo", owner+"/"+repo, "state", state, "count", count)
	return count, nil
}

func (g *GitHubGateway) FetchCommitAuthors(ctx context.Context, owner, repo string, since time.Time) (map[string]int, error) {
	if !g.hasToken {
		return nil, ErrNoToken
	}
	variables := map[string]interface{}{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(repo),
		"since":  githubv4.GitTimestamp{Time: since},
		"cursor": (*githubv4.String)(nil),
	}
	authors := make(map[string]int)
	for page := 1; ; page++ {
		var q commitHistoryQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for commit history: %w", err)
		}
		history := q.Repository.DefaultBranchRef.Target.Commit.History
		for _, node := range history.Nodes {
			if login := node.Author.User.Login; login != "" {
				authors[login]++
			}
		}
		if !history.PageInfo.HasNextPage || page >= maxHistoryPages {
			break
		}
		variables["cursor"] = githubv4.NewString(history.PageInfo.EndCursor)
		g.logger.Debug("fetching next page of commit history", "repo", owner+"/"+repo, "page", page+1)
	}
	return authors, nil
}

func (g *GitHubGateway) FetchLicenseID(ctx context.Context, owner, repo string) (string, error) {
	if !g.hasToken {
		return "", ErrNoToken
	}
	license, _, err := g.restClient.Repositories.License(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("failed to fetch license of %s/%s: %w", owner, repo, err)
	}
	return license.GetLicense().GetSPDXID(), nil
}

func (g *GitHubGateway) FetchFile(ctx context.Context, owner, repo, path string) (string, error) {
	file, _, _, err := g.restClient.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s from %s/%s: %w", path, owner, repo, err)
	}
	if file == nil {
		return "", fmt.Errorf("%s in %s/%s is a directory", path, owner, repo)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode %s from %s/%s: %w", path, owner, repo, err)
	}
	return content, nil
}
