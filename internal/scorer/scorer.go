// Package scorer implements the metric functions that feed the net score.
package scorer

import (
	"context"
	"log/slog"
	"time"

	"github.com/naka-gawa/pkg-rating/internal/domain"
	"github.com/naka-gawa/pkg-rating/internal/gateway"
	"github.com/naka-gawa/pkg-rating/internal/shell"
	"github.com/naka-gawa/pkg-rating/internal/usecase"
)

// Options tune the local analysis runners.
type Options struct {
	// WorkDir is the parent of the throwaway audit projects. Empty means the current directory.
	WorkDir string
	// NPM is the npm executable.
	NPM string
	// ESLint is the executable and leading arguments used to invoke eslint, e.g. ["npx", "eslint"].
	ESLint []string
	// LintConfig is an ESLint flat config file. Empty uses the built-in rules.
	LintConfig string
	// SourceExtensions selects the files counted for comment density and linted.
	SourceExtensions []string
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		NPM:              "npm",
		ESLint:           []string{"npx", "eslint"},
		SourceExtensions: []string{".js", ".ts"},
	}
}

// Scorer holds everything the five metrics need.
type Scorer struct {
	fetcher gateway.Fetcher
	license *LicenseResolver
	auditor *Auditor
	linter  *Linter
	rampUp  *RampUpScorer
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a new Scorer.
func New(fetcher gateway.Fetcher, runner shell.Runner, opts Options, logger *slog.Logger) *Scorer {
	return &Scorer{
		fetcher: fetcher,
		license: NewLicenseResolver(fetcher, logger),
		auditor: NewAuditor(runner, opts.NPM, opts.WorkDir, logger),
		linter:  NewLinter(runner, opts.ESLint, opts.LintConfig, opts.SourceExtensions, logger),
		rampUp:  NewRampUpScorer(opts.SourceExtensions, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// Metrics returns the metric set in the form the orchestrator runs.
func (s *Scorer) Metrics() []usecase.Metric {
	return []usecase.Metric{
		{Name: domain.BusFactor, Run: s.BusFactor},
		{Name: domain.ResponsiveMaintainer, Run: s.ResponsiveMaintainer},
		{Name: domain.RampUp, Run: s.RampUp},
		{Name: domain.Correctness, Run: s.Correctness},
		{Name: domain.License, Run: s.License},
	}
}

// License scores 1 when an allowed license is found anywhere in the fallback chain.
func (s *Scorer) License(ctx context.Context, pkg domain.Package) (float64, error) {
	if !pkg.OnGitHub() {
		s.logger.Info("license: not a GitHub repository", "url", pkg.URL)
		return 0, nil
	}
	return s.license.Resolve(ctx, pkg.Owner, pkg.Repo), nil
}

func (s *Scorer) RampUp(ctx context.Context, pkg domain.Package) (float64, error) {
	return s.rampUp.Score(pkg.Path), nil
}
