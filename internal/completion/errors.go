package completion

import (
	"context"
	"errors"
	"fmt"
)

const (
	ErrCodeInvalidAPIKey      = "invalid_api_key"
	ErrCodeRateLimit          = "rate_limit_exceeded"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeInvalidInput       = "invalid_input"
	ErrCodeTimeout            = "timeout"
	ErrCodeEmptyResponse      = "empty_response"
	ErrCodeConfiguration      = "invalid_configuration"
)

// ProviderNotFoundError is returned when a provider name is neither
// registered nor configured.
type ProviderNotFoundError struct {
	Name string
}

func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("completion provider %q not found", e.Name)
}

// GatewayError describes a failed call to a provider.
type GatewayError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Provider, e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether a retry of the same call may succeed.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		switch gwErr.Code {
		case ErrCodeRateLimit, ErrCodeServiceUnavailable, ErrCodeTimeout, ErrCodeEmptyResponse:
			return true
		default:
			return false
		}
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// CodeForStatus maps an HTTP status code to a gateway error code.
func CodeForStatus(status int) string {
	switch {
	case status == 401 || status == 403:
		return ErrCodeInvalidAPIKey
	case status == 429:
		return ErrCodeRateLimit
	case status == 408 || status == 504:
		return ErrCodeTimeout
	case status >= 500:
		return ErrCodeServiceUnavailable
	default:
		return ErrCodeInvalidInput
	}
}
