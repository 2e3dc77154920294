package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Generate and store the performance summary of a candidate",
	Run: func(cmd *cobra.Command, _ []string) {
		summarize(cmd)
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().String("candidate-id", "", "candidate identifier")
	summaryCmd.MarkFlagRequired("candidate-id")
}

func summarize(cmd *cobra.Command) {
	ctx := context.Background()

	a, err := newApplication(ctx)
	if err != nil {
		log.Fatalf("initializing: %s", err)
	}
	defer a.Close()

	candidateID := cmd.Flag("candidate-id").Value.String()

	sessions, err := a.store.LoadCandidateSessions(ctx, candidateID)
	if err != nil {
		a.logger.Fatal("loading sessions", zap.Error(err))
	}

	summary, err := a.aggregator.Summarize(ctx, candidateID, sessions)
	if err != nil {
		a.logger.Fatal("generating the summary", zap.Error(err))
	}

	if err := a.store.SaveSummary(ctx, summary); err != nil {
		a.logger.Fatal("saving the summary", zap.Error(err))
	}

	a.logger.Info("summary saved", zap.String("candidate_id", candidateID), zap.Int("sessions", len(sessions)))
	fmt.Println(summary.Summary)
}
