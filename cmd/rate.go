package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/pkg-rating/internal/domain"
	"github.com/naka-gawa/pkg-rating/internal/export"
	"github.com/naka-gawa/pkg-rating/internal/source"
	"github.com/naka-gawa/pkg-rating/internal/usecase"
)

var rateCmd = &cobra.Command{
	Use:   "rate <url-file>",
	Short: "Rates every package URL listed in a file and outputs NDJSON",
	Long: `Reads one GitHub or npm package URL per line, clones each repository,
computes its metrics and prints one JSON object per URL, in input order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.closeLog()

		urls, err := source.ReadURLFile(args[0])
		if err != nil {
			return err
		}
		parallel, _ := cmd.Flags().GetInt("parallel")
		limit := batchLimit(parallel, a.orchestrator.WorkerBudget())
		a.logger.Debug("rating batch", "urls", len(urls), "parallel", limit)
		results := usecase.NewBatch(a.source, a.orchestrator, limit, a.logger).Rate(ctx, urls)

		out := cmd.OutOrStdout()
		records := make([]*domain.NetScoreRecord, 0, len(results))
		for _, result := range results {
			if err := printRating(out, result.Rating()); err != nil {
				return err
			}
			records = append(records, result.Record)
		}

		if path, _ := cmd.Flags().GetString("prom-textfile"); path != "" {
			if err := export.WriteFile(path, records); err != nil {
				return err
			}
		}
		if summary, _ := cmd.Flags().GetBool("summary"); summary {
			return printSummary(out, records)
		}
		return nil
	},
}

// batchLimit returns the number of packages rated at once: the --parallel value
// when set, otherwise the orchestrator's worker budget.
func batchLimit(parallel, workerBudget int) int {
	if parallel > 0 {
		return parallel
	}
	return workerBudget
}

// batchSummary describes the net scores of the packages that could be rated.
type batchSummary struct {
	Rated          int     `json:"Rated"`
	Failed         int     `json:"Failed"`
	NetScoreMean   float64 `json:"NetScoreMean"`
	NetScoreMedian float64 `json:"NetScoreMedian"`
}

func summarize(records []*domain.NetScoreRecord) batchSummary {
	var scores stats.Float64Data
	var s batchSummary
	for _, r := range records {
		if r == nil {
			s.Failed++
			continue
		}
		scores = append(scores, r.NetScore)
	}
	s.Rated = len(scores)
	if len(scores) == 0 {
		return s
	}
	if mean, err := scores.Mean(); err == nil {
		s.NetScoreMean = round3(mean)
	}
	if median, err := scores.Median(); err == nil {
		s.NetScoreMedian = round3(median)
	}
	return s
}

func printSummary(w io.Writer, records []*domain.NetScoreRecord) error {
	data, err := json.Marshal(summarize(records))
	if err != nil {
		return fmt.Errorf("failed to marshal summary to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	rootCmd.AddCommand(rateCmd)
	rateCmd.Flags().IntP("parallel", "p", 0, "Number of packages rated at the same time (0 uses the worker budget)")
	rateCmd.Flags().String("prom-textfile", "", "Also write the results to this Prometheus textfile")
	rateCmd.Flags().Bool("summary", false, "Print the mean and median net score after the results")
}
