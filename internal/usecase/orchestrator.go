// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/naka-gawa/pkg-rating/internal/domain"
)

var (
	// ErrNoMetrics is returned when the orchestrator has nothing to run.
	ErrNoMetrics = errors.New("no metrics registered")
	// ErrUnitCrashed is returned when a metric panics instead of returning an error.
	ErrUnitCrashed = errors.New("execution unit crashed")
)

// MetricFunc computes one score in [0,1] for a package.
type MetricFunc func(ctx context.Context, pkg domain.Package) (float64, error)

// Metric pairs a metric name with the function that computes it.
type Metric struct {
	Name domain.MetricName
	Run  MetricFunc
}

// Orchestrator runs metrics on a bounded pool of goroutines and folds their
// reports into a NetScoreRecord.
type Orchestrator struct {
	metrics     []Metric
	parallelism int
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkerBudget caps the number of metrics running at once. Values below 1 keep the default.
func WithWorkerBudget(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// NewOrchestrator creates a new Orchestrator instance.
func NewOrchestrator(metrics []Metric, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		metrics:     metrics,
		parallelism: runtime.NumCPU(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WorkerBudget returns min(parallelism, 2 x number of metrics).
func (o *Orchestrator) WorkerBudget() int {
	return max(1, min(o.parallelism, 2*len(o.metrics)))
}

// report is what a unit sends back when its metric is done.
type report struct {
	result domain.MetricResult
	crash  error
}

// ComputeMetrics rates the package at packageURL checked out at packagePath.
// A metric returning an error is recorded with FailedScore; only a crashed unit,
// an empty metric set or cancellation of ctx fails the call.
func (o *Orchestrator) ComputeMetrics(ctx context.Context, packageURL, packagePath string) (*domain.NetScoreRecord, error) {
	if len(o.metrics) == 0 {
		return nil, ErrNoMetrics
	}
	pkg := domain.NewPackage(packageURL, packagePath)
	budget := o.WorkerBudget()
	o.logger.Info("computing metrics", "url", packageURL, "metrics", len(o.metrics), "workers", budget)

	unitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so units never block on a coordinator that has already returned.
	reports := make(chan report, len(o.metrics))
	start := time.Now()
	next := 0
	launch := func() {
		m := o.metrics[next]
		next++
		go o.runUnit(unitCtx, m, pkg, reports)
	}
	for next < len(o.metrics) && next < budget {
		launch()
	}

	record := &domain.NetScoreRecord{
		URL:     packageURL,
		Metrics: make([]domain.MetricResult, 0, len(o.metrics)),
	}
	for completed := 0; completed < len(o.metrics); {
		select {
		case r := <-reports:
			if r.crash != nil {
				return nil, fmt.Errorf("metric %s: %w", r.result.Name, r.crash)
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			completed++
			record.Metrics = append(record.Metrics, r.result)
			if next < len(o.metrics) {
				launch()
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	record.NetScore = domain.WeightedScore(record.Metrics)
	record.NetScoreLatencySeconds = time.Since(start).Seconds()
	o.logger.Info("computed net score", "url", packageURL, "net_score", record.NetScore, "latency", record.NetScoreLatencySeconds)
	return record, nil
}

// runUnit times one metric and sends exactly one report.
func (o *Orchestrator) runUnit(ctx context.Context, m Metric, pkg domain.Package, reports chan<- report) {
	started := time.Now()
	defer func() {
		if p := recover(); p != nil {
			o.logger.Error("metric crashed", "metric", m.Name, "panic", p)
			reports <- report{
				result: domain.MetricResult{Name: m.Name, Score: domain.FailedScore, LatencySeconds: domain.FailedScore},
				crash:  fmt.Errorf("%w: %v", ErrUnitCrashed, p),
			}
		}
	}()

	score, err := m.Run(ctx, pkg)
	if err != nil {
		o.logger.Warn("metric failed", "metric", m.Name, "url", pkg.URL, "error", err)
		reports <- report{result: domain.MetricResult{
			Name:           m.Name,
			Score:          domain.FailedScore,
			LatencySeconds: domain.FailedScore,
			Err:            err.Error(),
		}}
		return
	}
	latency := time.Since(started).Seconds()
	o.logger.Debug("metric finished", "metric", m.Name, "score", score, "latency", latency)
	reports <- report{result: domain.MetricResult{Name: m.Name, Score: score, LatencySeconds: latency}}
}
