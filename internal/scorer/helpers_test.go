package scorer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) CountIssues(ctx context.Context, owner, repo, state string) (int, error) {
	args := m.Called(ctx, owner, repo, state)
	return args.Int(0), args.Error(1)
}

func (m *mockFetcher) FetchCommitAuthors(ctx context.Context, owner, repo string, since time.Time) (map[string]int, error) {
	args := m.Called(ctx, owner, repo, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockFetcher) FetchLicenseID(ctx context.Context, owner, repo string) (string, error) {
	args := m.Called(ctx, owner, repo)
	return args.String(0), args.Error(1)
}

func (m *mockFetcher) FetchFile(ctx context.Context, owner, repo, path string) (string, error) {
	args := m.Called(ctx, owner, repo, path)
	return args.String(0), args.Error(1)
}

// exitError mimics a process exit status without starting a process.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitError) ExitCode() int { return int(e) }

type runnerCall struct {
	Dir  string
	Name string
	Args []string
}

// fakeRunner records commands and answers them with respond.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []runnerCall
	respond func(c runnerCall) ([]byte, error)
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	c := runnerCall{Dir: dir, Name: name, Args: slices.Clone(args)}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(c)
}

func (f *fakeRunner) recorded() []runnerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}
