package scorer

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/naka-gawa/pkg-rating/internal/shell"
)

// ErrNoSourceFiles is returned when the linter found nothing to lint.
var ErrNoSourceFiles = errors.New("no source files to lint")

//go:embed eslint.config.mjs
var defaultLintConfig []byte

// Linter runs ESLint over a checkout and scores the error count per file.
type Linter struct {
	runner     shell.Runner
	command    []string
	config     string
	extensions []string
	logger     *slog.Logger
}

// NewLinter creates a new Linter. An empty config uses the built-in rule set.
func NewLinter(runner shell.Runner, command []string, config string, extensions []string, logger *slog.Logger) *Linter {
	if len(command) == 0 {
		command = []string{"npx", "eslint"}
	}
	if len(extensions) == 0 {
		extensions = []string{".js", ".ts"}
	}
	return &Linter{runner: runner, command: command, config: config, extensions: extensions, logger: logger}
}

// lintResult is one entry of ESLint's json formatter output.
type lintResult struct {
	FilePath        string `json:"filePath"`
	ErrorCount      int    `json:"errorCount"`
	FatalErrorCount int    `json:"fatalErrorCount"`
}

// findings is the number of lint errors in the file. Fatal messages are parse
// failures of syntax the configured parser does not understand (TypeScript under
// the built-in config), not findings about the code.
func (r lintResult) findings() int {
	return max(0, r.ErrorCount-r.FatalErrorCount)
}

// Lint returns max(0, 1 - errors/files/10). A tool failure is returned as an error.
func (l *Linter) Lint(ctx context.Context, packagePath string) (float64, error) {
	config := l.config
	if config == "" {
		path, cleanup, err := materializeLintConfig()
		if err != nil {
			return 0, err
		}
		defer cleanup()
		config = path
	}

	args := append([]string{}, l.command[1:]...)
	args = append(args, "--format", "json", "--no-error-on-unmatched-pattern", "--config", config)
	for _, ext := range l.extensions {
		args = append(args, "**/*"+ext)
	}
	out, err := l.runner.Run(ctx, packagePath, l.command[0], args...)
	// ESLint exits 1 when it reports lint errors, which is a result, not a failure.
	if err != nil && shell.ExitCode(err) != 1 {
		return 0, fmt.Errorf("failed to run eslint: %w", err)
	}

	var results []lintResult
	if err := json.Unmarshal(out, &results); err != nil {
		return 0, fmt.Errorf("failed to parse eslint output: %w", err)
	}
	errorCount, unparsed := 0, 0
	for _, r := range results {
		errorCount += r.findings()
		if r.FatalErrorCount > 0 {
			unparsed++
		}
	}
	l.logger.Debug("lint finished", "path", packagePath, "files", len(results), "errors", errorCount, "unparsed", unparsed)
	return LintScore(errorCount, len(results))
}

// LintScore maps an error count over a number of files to [0,1].
func LintScore(errorCount, fileCount int) (float64, error) {
	if fileCount == 0 {
		return 0, ErrNoSourceFiles
	}
	return max(0, 1-float64(errorCount)/float64(fileCount)/10), nil
}

func materializeLintConfig() (string, func(), error) {
	f, err := os.CreateTemp("", "pkg-rating-eslint-*.config.mjs")
	if err != nil {
		return "", nil, fmt.Errorf("failed to write lint config: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }
	if _, err := f.Write(defaultLintConfig); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write lint config: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write lint config: %w", err)
	}
	return f.Name(), cleanup, nil
}

// hasExtension reports whether name ends with one of exts, ignoring case.
func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
