package cmd

import (
	"github.com/spf13/cobra"

	"github.com/naka-gawa/pkg-rating/internal/domain"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rates an already checked-out package and outputs JSON",
	Long:  `Computes the metrics of the repository at --url using the local checkout at --path, without cloning anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.closeLog()

		url, _ := cmd.Flags().GetString("url")
		path, _ := cmd.Flags().GetString("path")
		record, err := a.orchestrator.ComputeMetrics(cmd.Context(), url, path)
		if err != nil {
			return err
		}
		return printRating(cmd.OutOrStdout(), domain.NewRating(record))
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringP("url", "u", "", "GitHub URL of the package (required)")
	scoreCmd.Flags().StringP("path", "p", "", "Local checkout of the package (required)")
	scoreCmd.MarkFlagRequired("url")
	scoreCmd.MarkFlagRequired("path")
}
