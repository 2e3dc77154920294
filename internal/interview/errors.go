package interview

import (
	"errors"
	"fmt"

	"github.com/spigell/ai-recruiter/internal/completion"
	"github.com/spigell/ai-recruiter/internal/parser"
)

// InvariantViolation is returned when an operation does not fit the session state.
// It never results from a model or network failure.
type InvariantViolation struct {
	Op     string
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// StepError wraps a failed model call or an unusable model response. The
// session is left as it was before the step.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("interview step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the step may succeed.
func (e *StepError) Retryable() bool {
	var parseErr *parser.ParseError
	if errors.As(e.Err, &parseErr) {
		return true
	}
	return completion.IsTransient(e.Err)
}

// IsRetryable reports whether err is a StepError that may succeed on retry.
func IsRetryable(err error) bool {
	var stepErr *StepError
	return errors.As(err, &stepErr) && stepErr.Retryable()
}
