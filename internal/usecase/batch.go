package usecase

import (
	"context"
	"log/slog"

	"github.com/naka-gawa/pkg-rating/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Preparer turns a user-supplied package URL into a repository URL and a local checkout.
type Preparer interface {
	Prepare(ctx context.Context, rawURL string) (repoURL, path string, err error)
}

// Rater computes the record of one checked-out package.
type Rater interface {
	ComputeMetrics(ctx context.Context, packageURL, packagePath string) (*domain.NetScoreRecord, error)
}

// BatchResult is the outcome for one input URL. Record is nil when Err is set.
type BatchResult struct {
	Input  string
	Record *domain.NetScoreRecord
	Err    error
}

// Rating returns the consumer view of the result, keyed by the input URL.
func (r BatchResult) Rating() domain.Rating {
	if r.Record == nil {
		return domain.FailedRating(r.Input)
	}
	rating := domain.NewRating(r.Record)
	rating.URL = r.Input
	return rating
}

// Batch rates a list of URLs with a bounded number of packages in flight.
type Batch struct {
	preparer Preparer
	rater    Rater
	limit    int
	logger   *slog.Logger
}

// NewBatch creates a new Batch. limit below 1 means one package at a time.
func NewBatch(preparer Preparer, rater Rater, limit int, logger *slog.Logger) *Batch {
	return &Batch{preparer: preparer, rater: rater, limit: max(1, limit), logger: logger}
}

// Rate rates every URL and returns the results in input order.
// Per-URL failures are kept in the result instead of stopping the batch.
func (b *Batch) Rate(ctx context.Context, urls []string) []BatchResult {
	results := make([]BatchResult, len(urls))
	var eg errgroup.Group
	eg.SetLimit(b.limit)
	for i, rawURL := range urls {
		eg.Go(func() error {
			results[i] = b.rateOne(ctx, rawURL)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (b *Batch) rateOne(ctx context.Context, rawURL string) BatchResult {
	result := BatchResult{Input: rawURL}
	repoURL, path, err := b.preparer.Prepare(ctx, rawURL)
	if err != nil {
		b.logger.Error("failed to prepare package", "url", rawURL, "error", err)
		result.Err = err
		return result
	}
	record, err := b.rater.ComputeMetrics(ctx, repoURL, path)
	if err != nil {
		b.logger.Error("failed to compute metrics", "url", rawURL, "error", err)
		result.Err = err
		return result
	}
	result.Record = record
	return result
}
