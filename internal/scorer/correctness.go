package scorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/naka-gawa/pkg-rating/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Correctness averages the dependency audit and lint scores.
// The two analyses run concurrently; a failed one counts as 0, and only both failing is an error.
func (s *Scorer) Correctness(ctx context.Context, pkg domain.Package) (float64, error) {
	var depScore, lintScore float64
	var depErr, lintErr error

	// Errors are kept per analysis instead of cancelling the sibling.
	var eg errgroup.Group
	eg.Go(func() error {
		depScore, depErr = s.auditor.Audit(ctx, pkg.Path)
		return nil
	})
	eg.Go(func() error {
		lintScore, lintErr = s.linter.Lint(ctx, pkg.Path)
		return nil
	})
	_ = eg.Wait()

	if depErr != nil && lintErr != nil {
		return 0, fmt.Errorf("correctness: %w", errors.Join(depErr, lintErr))
	}
	if depErr != nil {
		s.logger.Warn("correctness: dependency audit failed, counting it as 0", "url", pkg.URL, "error", depErr)
		depScore = 0
	}
	if lintErr != nil {
		s.logger.Warn("correctness: lint failed, counting it as 0", "url", pkg.URL, "error", lintErr)
		lintScore = 0
	}
	return 0.5*depScore + 0.5*lintScore, nil
}
