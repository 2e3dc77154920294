package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/ai-recruiter/internal/jobs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh-summaries",
	Short: "Regenerate performance summaries for every candidate on a schedule",
	Run: func(cmd *cobra.Command, _ []string) {
		refreshSummaries(cmd)
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().Bool("once", false, "refresh all summaries once and exit")
}

func refreshSummaries(cmd *cobra.Command) {
	ctx := context.Background()

	a, err := newApplication(ctx)
	if err != nil {
		log.Fatalf("initializing: %s", err)
	}
	defer a.Close()

	schedule := ""
	if a.config.Summary != nil {
		schedule = a.config.Summary.Schedule
	}
	refresher := jobs.NewSummaryRefresher(a.store, a.aggregator, schedule, a.logger.Named("jobs"))

	if once, _ := cmd.Flags().GetBool("once"); once {
		refreshed, err := refresher.RunOnce(ctx)
		if err != nil {
			a.logger.Error("some summaries were not refreshed", zap.Int("refreshed", refreshed), zap.Error(err))
		}
		return
	}

	if err := refresher.Start(); err != nil {
		a.logger.Fatal("starting the summary refresher", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("shutting down")
	refresher.Stop()
}
