package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/git-pkgs/registries"
	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/pkg-rating/internal/config"
	"github.com/naka-gawa/pkg-rating/internal/domain"
	"github.com/naka-gawa/pkg-rating/internal/gateway"
	"github.com/naka-gawa/pkg-rating/internal/logging"
	"github.com/naka-gawa/pkg-rating/internal/scorer"
	"github.com/naka-gawa/pkg-rating/internal/shell"
	"github.com/naka-gawa/pkg-rating/internal/source"
	"github.com/naka-gawa/pkg-rating/internal/usecase"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	closeLog     func() error
	orchestrator *usecase.Orchestrator
	source       *source.Source
}

// newApp loads configuration and wires the gateway, scorers and orchestrator.
func newApp(cmd *cobra.Command) (*app, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Verbose: verbose,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	if cfg.GitHubToken == "" {
		logger.Warn("GITHUB_TOKEN is not set, GitHub-backed metrics will score 0")
	}

	githubGateway, err := gateway.NewGitHubGateway(cfg.GitHubToken, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	runner := shell.ExecRunner{}
	scorers := scorer.New(githubGateway, runner, scorer.Options{
		WorkDir:          cfg.WorkDir,
		NPM:              cfg.Tools.NPM,
		ESLint:           cfg.Tools.ESLintCommand(),
		LintConfig:       cfg.Lint.Config,
		SourceExtensions: cfg.SourceExtensions,
	}, logger)
	orchestrator := usecase.NewOrchestrator(scorers.Metrics(), logger, usecase.WithWorkerBudget(cfg.Workers))

	// No retries: a failed lookup fails that URL only.
	resolver, err := source.NewResolver(cfg.RegistryURL, registries.NewClient(registries.WithMaxRetries(0)))
	if err != nil {
		closeLog()
		return nil, err
	}
	cloner := source.NewCloner(runner, cfg.Tools.Git, cfg.CloneDir, logger)

	return &app{
		cfg:          cfg,
		logger:       logger,
		closeLog:     closeLog,
		orchestrator: orchestrator,
		source:       source.New(resolver, cloner),
	}, nil
}

// round3 rounds to three decimals, leaving values stats cannot round untouched.
func round3(v float64) float64 {
	r, err := stats.Round(v, 3)
	if err != nil {
		return v
	}
	return r
}

// printRating writes one rating as a single JSON line.
func printRating(w io.Writer, rating domain.Rating) error {
	data, err := json.Marshal(rating.Round(round3))
	if err != nil {
		return fmt.Errorf("failed to marshal rating to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
