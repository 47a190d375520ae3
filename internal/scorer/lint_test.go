package scorer

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinter_Lint(t *testing.T) {
	testCases := []struct {
		name           string
		out            string
		runErr         error
		expected       float64
		expectedErrMsg string
	}{
		{
			name:     "clean files",
			out:      `[{"filePath":"/p/a.js","errorCount":0},{"filePath":"/p/b.ts","errorCount":0}]`,
			expected: 1,
		},
		{
			name:     "lint errors exit 1 but still score",
			out:      `[{"filePath":"/p/a.js","errorCount":3},{"filePath":"/p/b.js","errorCount":1}]`,
			runErr:   exitError(1),
			expected: 1 - 4.0/2/10,
		},
		{
			name:     "score floors at zero",
			out:      `[{"filePath":"/p/a.js","errorCount":50}]`,
			runErr:   exitError(1),
			expected: 0,
		},
		{
			name:     "parse failures are not lint errors",
			out:      `[{"filePath":"/p/add.ts","errorCount":1,"fatalErrorCount":1,"messages":[{"fatal":true,"severity":2,"message":"Parsing error: Unexpected token :"}]},{"filePath":"/p/b.js","errorCount":2,"fatalErrorCount":0}]`,
			runErr:   exitError(1),
			expected: 1 - 2.0/2/10,
		},
		{
			name:     "typescript only checkout",
			out:      `[{"filePath":"/p/a.ts","errorCount":1,"fatalErrorCount":1},{"filePath":"/p/b.ts","errorCount":1,"fatalErrorCount":1}]`,
			runErr:   exitError(1),
			expected: 1,
		},
		{
			name:           "no files",
			out:            `[]`,
			expectedErrMsg: ErrNoSourceFiles.Error(),
		},
		{
			name:           "configuration error",
			out:            "Oops! Something went wrong!",
			runErr:         exitError(2),
			expectedErrMsg: "failed to run eslint",
		},
		{
			name:           "tool missing",
			runErr:         errors.New("exec: \"npx\": executable file not found in $PATH"),
			expectedErrMsg: "failed to run eslint",
		},
		{
			name:           "garbage output",
			out:            "not json",
			expectedErrMsg: "failed to parse eslint output",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var config []byte
			runner := &fakeRunner{respond: func(c runnerCall) ([]byte, error) {
				for i, arg := range c.Args {
					if arg == "--config" {
						var err error
						config, err = os.ReadFile(c.Args[i+1])
						require.NoError(t, err)
					}
				}
				return []byte(tc.out), tc.runErr
			}}
			linter := NewLinter(runner, []string{"npx", "eslint"}, "", []string{".js", ".ts"}, discardLogger())

			score, err := linter.Lint(context.Background(), "/p")

			if tc.expectedErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				require.NoError(t, err)
				assert.InDelta(t, tc.expected, score, 1e-9)
			}
			calls := runner.recorded()
			require.Len(t, calls, 1)
			assert.Equal(t, "/p", calls[0].Dir)
			assert.Equal(t, "npx", calls[0].Name)
			assert.Equal(t, "eslint", calls[0].Args[0])
			assert.Contains(t, calls[0].Args, "json")
			assert.Contains(t, calls[0].Args, "**/*.js")
			assert.Contains(t, calls[0].Args, "**/*.ts")
			assert.Equal(t, defaultLintConfig, config, "built-in config is handed to eslint")
		})
	}
}

func TestLinter_CustomConfig(t *testing.T) {
	runner := &fakeRunner{respond: func(c runnerCall) ([]byte, error) {
		return []byte(`[{"filePath":"/p/a.js","errorCount":0}]`), nil
	}}
	linter := NewLinter(runner, []string{"eslint"}, "/etc/eslint.config.mjs", nil, discardLogger())

	_, err := linter.Lint(context.Background(), "/p")

	require.NoError(t, err)
	calls := runner.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "eslint", calls[0].Name)
	assert.Equal(t, []string{"--format", "json", "--no-error-on-unmatched-pattern", "--config", "/etc/eslint.config.mjs", "**/*.js", "**/*.ts"}, calls[0].Args)
}

func TestLintScore(t *testing.T) {
	score, err := LintScore(5, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.95, score, 1e-9)

	_, err = LintScore(0, 0)
	assert.ErrorIs(t, err, ErrNoSourceFiles)
}
