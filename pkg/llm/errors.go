package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ekaya-inc/nlsql/pkg/apperrors"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

// ErrorType classifies dispatcher failures.
type ErrorType string

const (
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeConnectivity ErrorType = "connectivity"
	ErrorTypeUnsupported  ErrorType = "unsupported_provider"
	ErrorTypeParse        ErrorType = "response_parse"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// State is a step of a single dispatch.
type State string

const (
	StateUnconfigured    State = "unconfigured"
	StateValidating      State = "validating"
	StateDispatching     State = "dispatching"
	StateParsingResponse State = "parsing_response"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Error represents a structured provider error with classification.
type Error struct {
	Type       ErrorType           // Classification of the error
	State      State               // Dispatch state the failure happened in
	Provider   models.ProviderName // Provider name if known
	Message    string              // Human-readable message
	Raw        string              // Raw provider payload, for parse failures
	StatusCode int                 // HTTP status code if applicable
	Cause      error               // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}
	if e.State != "" {
		parts = append(parts, fmt.Sprintf("state=%s", e.State))
	}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is maps the classification onto the apperrors sentinels.
func (e *Error) Is(target error) bool {
	switch e.Type {
	case ErrorTypeConfig:
		return target == apperrors.ErrConfig
	case ErrorTypeConnectivity:
		return target == apperrors.ErrConnectivity
	case ErrorTypeUnsupported:
		return target == apperrors.ErrUnsupportedProvider
	case ErrorTypeParse:
		return target == apperrors.ErrResponseParse
	}
	return false
}

// NewError creates a new structured provider error.
func NewError(errType ErrorType, provider models.ProviderName, message string, cause error) *Error {
	return &Error{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Cause:    cause,
	}
}

// AsError returns err as an *Error when it is one.
func AsError(err error) (*Error, bool) {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr, true
	}
	return nil, false
}

// GetErrorType returns the classification of err, ErrorTypeUnknown when err
// is not an *Error.
func GetErrorType(err error) ErrorType {
	if llmErr, ok := AsError(err); ok {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

// statusError builds the error a backend returns for a non-2xx reply.
func statusError(provider models.ProviderName, statusCode int, body string) *Error {
	return &Error{
		Type:       ErrorTypeConnectivity,
		Provider:   provider,
		Message:    fmt.Sprintf("unexpected status %d", statusCode),
		Raw:        body,
		StatusCode: statusCode,
	}
}

// shapeError builds the error a backend returns when the reply envelope has
// no text where the provider's format puts it.
func shapeError(provider models.ProviderName, message, raw string) *Error {
	return &Error{
		Type:     ErrorTypeParse,
		Provider: provider,
		Message:  message,
		Raw:      raw,
	}
}

// GetState returns the dispatch state recorded on err, StateFailed when err
// is not an *Error.
func GetState(err error) State {
	if llmErr, ok := AsError(err); ok && llmErr.State != "" {
		return llmErr.State
	}
	return StateFailed
}
