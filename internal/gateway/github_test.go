package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler, hasToken bool) *GitHubGateway {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(server.URL+"/graphql", server.Client()),
		hasToken:      hasToken,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestGitHubGateway_CountIssues(t *testing.T) {
	testCases := []struct {
		name           string
		hasToken       bool
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expected       int
		expectError    bool
		expectedErrMsg string
	}{
		{
			name:     "last page link gives the total",
			hasToken: true,
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/o/r/issues", r.URL.Path)
				assert.Equal(t, "1", r.URL.Query().Get("per_page"))
				assert.Equal(t, "open", r.URL.Query().Get("state"))
				w.Header().Set("Link", `<https://api.github.com/repos/o/r/issues?page=2&per_page=1>; rel="next", <https://api.github.com/repos/o/r/issues?page=42&per_page=1>; rel="last"`)
				fmt.Fprint(w, `[{"number": 1}]`)
			},
			expected: 42,
		},
		{
			name:     "no pagination falls back to item count",
			hasToken: true,
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `[{"number": 1}]`)
			},
			expected: 1,
		},
		{
			name:     "empty repository",
			hasToken: true,
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `[]`)
			},
			expected: 0,
		},
		{
			name:     "API error",
			hasToken: true,
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message": "Internal Server Error"}`)
			},
			expectError:    true,
			expectedErrMsg: "failed to list open issues of o/r",
		},
		{
			name: "missing token",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected without a token")
			},
			expectError:    true,
			expectedErrMsg: ErrNoToken.Error(),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc), tc.hasToken)
			count, err := gateway.CountIssues(context.Background(), "o", "r", "open")
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, count)
		})
	}
}

func TestGitHubGateway_FetchCommitAuthors(t *testing.T) {
	pages := []string{
		`{"data":{"repository":{"defaultBranchRef":{"target":{"history":{"pageInfo":{"hasNextPage":true,"endCursor":"c1"},"nodes":[{"author":{"user":{"login":"alice"}}},{"author":{"user":{"login":"bob"}}},{"author":{"user":null}}]}}}}}}`,
		`{"data":{"repository":{"defaultBranchRef":{"target":{"history":{"pageInfo":{"hasNextPage":false,"endCursor":"c2"},"nodes":[{"author":{"user":{"login":"alice"}}}]}}}}}}`,
	}
	calls := 0
	handler := func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "history(first: 100, since: $since, after: $cursor)")
		if calls > 0 {
			assert.Contains(t, string(body), `"cursor":"c1"`)
		}
		fmt.Fprint(w, pages[calls])
		calls++
	}
	gateway := setupTestGateway(t, http.HandlerFunc(handler), true)

	authors, err := gateway.FetchCommitAuthors(context.Background(), "o", "r", time.Now().AddDate(-1, 0, 0))

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, authors)
	assert.Equal(t, 2, calls)
}

func TestGitHubGateway_FetchCommitAuthors_Errors(t *testing.T) {
	t.Run("GraphQL error", func(t *testing.T) {
		gateway := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"errors":[{"message":"Something went wrong"}]}`)
		}), true)
		_, err := gateway.FetchCommitAuthors(context.Background(), "o", "r", time.Now())
		assert.ErrorContains(t, err, "failed to execute GraphQL query for commit history")
	})
	t.Run("missing token", func(t *testing.T) {
		gateway := setupTestGateway(t, http.NotFoundHandler(), false)
		_, err := gateway.FetchCommitAuthors(context.Background(), "o", "r", time.Now())
		assert.ErrorIs(t, err, ErrNoToken)
	})
}

func TestGitHubGateway_FetchLicenseID(t *testing.T) {
	gateway := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/o/r/license", r.URL.Path)
		fmt.Fprint(w, `{"name":"LICENSE","license":{"key":"mit","spdx_id":"MIT"}}`)
	}), true)

	id, err := gateway.FetchLicenseID(context.Background(), "o", "r")

	require.NoError(t, err)
	assert.Equal(t, "MIT", id)
}

func TestGitHubGateway_FetchFile(t *testing.T) {
	testCases := []struct {
		name        string
		handlerFunc func(w http.ResponseWriter, r *http.Request)
		expected    string
		expectError bool
	}{
		{
			name: "base64 file content is decoded",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/o/r/contents/package.json", r.URL.Path)
				content := base64.StdEncoding.EncodeToString([]byte(`{"license":"MIT"}`))
				fmt.Fprintf(w, `{"type":"file","encoding":"base64","name":"package.json","content":%q}`, content)
			},
			expected: `{"license":"MIT"}`,
		},
		{
			name: "missing file",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message":"Not Found"}`)
			},
			expectError: true,
		},
		{
			name: "directory",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `[{"type":"file","name":"index.js"}]`)
			},
			expectError: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// File fetches work without a token.
			gateway := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc), false)
			content, err := gateway.FetchFile(context.Background(), "o", "r", "package.json")
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, content)
		})
	}
}

func TestNewGitHubGateway(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	withToken, err := NewGitHubGateway("token", logger)
	require.NoError(t, err)
	assert.True(t, withToken.hasToken)

	anonymous, err := NewGitHubGateway("", logger)
	require.NoError(t, err)
	assert.False(t, anonymous.hasToken)
	_, err = anonymous.FetchLicenseID(context.Background(), "o", "r")
	assert.ErrorIs(t, err, ErrNoToken)
}
