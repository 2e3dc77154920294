package cmd

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Continue a paused interview",
	Run: func(cmd *cobra.Command, _ []string) {
		resumeInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().String("session", "", "session identifier")
	resumeCmd.MarkFlagRequired("session")
}

func resumeInterview(cmd *cobra.Command) {
	ctx := context.Background()

	a, err := newApplication(ctx)
	if err != nil {
		log.Fatalf("initializing: %s", err)
	}
	defer a.Close()

	session, err := a.store.LoadSession(ctx, cmd.Flag("session").Value.String())
	if err != nil {
		a.logger.Fatal("loading the session", zap.Error(err))
	}

	if session.Finalized() {
		a.report(session)
		return
	}

	if err := a.conduct(ctx, session); err != nil {
		if errors.Is(err, errExit) {
			a.logger.Info("interview paused", zap.String("session_id", session.ID))
			return
		}
		a.logger.Fatal("interview failed", zap.Error(err))
	}
}
