package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spigell/ai-recruiter/internal/interview"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	PromptRetry = "Retry"
	PromptAbort = "Abort and resume later"
)

var errExit = errors.New("exit requested")

var retryPrompt = promptui.Select{
	Label: "The step failed. What next?",
	Items: []string{PromptRetry, PromptAbort},
}

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interview for a candidate in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runNewInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().String("job", "", "yaml file with the job requirements")
	interviewCmd.Flags().String("candidate", "", "yaml file with the candidate profile")
	interviewCmd.Flags().String("candidate-id", "", "stable candidate identifier (generated when empty)")
	interviewCmd.MarkFlagRequired("job")
	interviewCmd.MarkFlagRequired("candidate")
}

func runNewInterview(cmd *cobra.Command) {
	ctx := context.Background()

	a, err := newApplication(ctx)
	if err != nil {
		log.Fatalf("initializing: %s", err)
	}
	defer a.Close()

	var job interview.JobRequirements
	if err := readYAML(cmd.Flag("job").Value.String(), &job); err != nil {
		a.logger.Fatal("reading the job", zap.Error(err))
	}

	var candidate interview.CandidateProfile
	if err := readYAML(cmd.Flag("candidate").Value.String(), &candidate); err != nil {
		a.logger.Fatal("reading the candidate", zap.Error(err))
	}

	session, err := interview.NewSession(job, candidate, cmd.Flag("candidate-id").Value.String())
	if err != nil {
		a.logger.Fatal("creating the session", zap.Error(err))
	}

	if err := a.store.SaveSession(ctx, session); err != nil {
		a.logger.Fatal("saving the session", zap.Error(err))
	}

	a.logger.Info("session created", zap.String("session_id", session.ID), zap.String("candidate_id", session.CandidateID))

	if err := a.conduct(ctx, session); err != nil {
		if errors.Is(err, errExit) {
			a.logger.Info("interview paused", zap.String("resume with", "resume --session "+session.ID))
			return
		}
		a.logger.Fatal("interview failed", zap.Error(err))
	}
}

// conduct drives a session of any state to the end, saving after every committed step.
func (a *application) conduct(ctx context.Context, s *interview.Session) error {
	o := a.orchestrator

	if s.Status == interview.StatusCreated {
		if err := a.step(ctx, s, func() error {
			_, err := o.Start(ctx, s)
			return err
		}); err != nil {
			return err
		}
	}

	for !s.Finalized() {
		if s.Pending == nil {
			var turn interview.Turn
			if err := a.step(ctx, s, func() error {
				var err error
				turn, err = o.Advance(ctx, s)
				return err
			}); err != nil {
				return err
			}
			if turn.Finalized {
				break
			}
		}

		fmt.Printf("\n%s\n", s.Pending.Text)
		answerPrompt := promptui.Prompt{Label: "Answer"}
		answer, err := answerPrompt.Run()
		if err != nil {
			return errExit
		}

		if err := a.step(ctx, s, func() error {
			_, err := o.ScoreAnswer(ctx, s, answer)
			return err
		}); err != nil {
			return err
		}
	}

	a.report(s)
	return nil
}

// step runs fn, offering a retry while the failure is retryable, and saves the session on success.
func (a *application) step(ctx context.Context, s *interview.Session, fn func() error) error {
	for {
		err := fn()
		if err == nil {
			return a.store.SaveSession(ctx, s)
		}
		if !interview.IsRetryable(err) {
			return err
		}

		a.logger.Warn("interview step failed", zap.Error(err))
		_, action, promptErr := retryPrompt.Run()
		if promptErr != nil || action == PromptAbort {
			return errExit
		}
	}
}

func (a *application) report(s *interview.Session) {
	threshold := a.orchestrator.Config().PassThreshold
	fields := []zap.Field{
		zap.String("session_id", s.ID),
		zap.String("reason", string(s.TerminationReason)),
		zap.Int("questions", len(s.Questions)),
		zap.Float64("percentage", s.ScorePercentage()),
		zap.Bool("passed", s.Passed(threshold)),
		zap.Int("violations", len(s.Violations)),
	}
	if s.FinalScore != nil {
		fields = append(fields, zap.Float64("final_score", *s.FinalScore))
	}
	if s.EndTime != nil {
		fields = append(fields, zap.Duration("duration", s.Duration(*s.EndTime)))
	}
	for _, rating := range s.Skills {
		fields = append(fields, zap.Int("skill "+rating.Skill, rating.Rating))
	}
	a.logger.Info("interview finished", fields...)

	if s.Feedback != nil {
		fmt.Printf("\n%s\n", *s.Feedback)
	}
	for _, violation := range s.Violations {
		fmt.Printf("violation: %s\n", violation)
	}
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}
