package scorer

import (
	"context"
	"errors"

	"github.com/naka-gawa/pkg-rating/internal/domain"
)

const (
	// busFactorAuthors distinct authors in the last year give a full bus factor score.
	busFactorAuthors = 10
	busFactorWindow  = 365
)

var errNotGitHub = errors.New("package is not hosted on GitHub")

// BusFactor scores min(1, distinct commit authors over the last year / 10).
// Fetch failures, including a missing token, score 0.
func (s *Scorer) BusFactor(ctx context.Context, pkg domain.Package) (float64, error) {
	if !pkg.OnGitHub() {
		s.logger.Info("bus factor: scoring 0", "url", pkg.URL, "error", errNotGitHub)
		return 0, nil
	}
	since := s.now().AddDate(0, 0, -busFactorWindow)
	authors, err := s.fetcher.FetchCommitAuthors(ctx, pkg.Owner, pkg.Repo, since)
	if err != nil {
		s.logger.Info("bus factor: scoring 0", "url", pkg.URL, "error", err)
		return 0, nil
	}
	return BusFactorScore(len(authors)), nil
}

// BusFactorScore maps a distinct author count to [0,1].
func BusFactorScore(distinctAuthors int) float64 {
	return min(1, float64(distinctAuthors)/busFactorAuthors)
}

// ResponsiveMaintainer scores 1 - open/all issues. A repository without issues scores 0.
func (s *Scorer) ResponsiveMaintainer(ctx context.Context, pkg domain.Package) (float64, error) {
	if !pkg.OnGitHub() {
		s.logger.Info("responsive maintainer: scoring 0", "url", pkg.URL, "error", errNotGitHub)
		return 0, nil
	}
	open, err := s.fetcher.CountIssues(ctx, pkg.Owner, pkg.Repo, "open")
	if err != nil {
		s.logger.Info("responsive maintainer: scoring 0", "url", pkg.URL, "error", err)
		return 0, nil
	}
	all, err := s.fetcher.CountIssues(ctx, pkg.Owner, pkg.Repo, "all")
	if err != nil {
		s.logger.Info("responsive maintainer: scoring 0", "url", pkg.URL, "error", err)
		return 0, nil
	}
	return ResponsiveScore(open, all), nil
}

// ResponsiveScore returns 1 - open/all clamped to [0,1], and 0 when there are no issues.
func ResponsiveScore(open, all int) float64 {
	if all <= 0 {
		return 0
	}
	return min(1, max(0, 1-float64(open)/float64(all)))
}
