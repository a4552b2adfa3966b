package llm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ekaya-inc/nlsql/pkg/apperrors"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

func TestError_Error_IncludesContext(t *testing.T) {
	err := &Error{
		Type:       ErrorTypeConnectivity,
		State:      StateValidating,
		Provider:   models.ProviderOpenAI,
		Message:    "server error",
		StatusCode: 503,
	}

	result := err.Error()
	for _, want := range []string{"connectivity", "provider=openai", "state=validating", "HTTP 503", "server error"} {
		if !strings.Contains(result, want) {
			t.Errorf("expected error message to contain %q, got: %s", want, result)
		}
	}
}

func TestError_Error_WithCause(t *testing.T) {
	err := NewError(ErrorTypeConnectivity, models.ProviderGemini, "request failed", errors.New("connection refused"))

	if !strings.HasSuffix(err.Error(), ": connection refused") {
		t.Errorf("expected cause at the end, got: %s", err.Error())
	}
}

func TestError_Is_MapsToSentinels(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		sentinel error
	}{
		{ErrorTypeConfig, apperrors.ErrConfig},
		{ErrorTypeConnectivity, apperrors.ErrConnectivity},
		{ErrorTypeUnsupported, apperrors.ErrUnsupportedProvider},
		{ErrorTypeParse, apperrors.ErrResponseParse},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			err := fmt.Errorf("translate: %w", NewError(tt.errType, models.ProviderOpenAI, "x", nil))
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %s to match %v", tt.errType, tt.sentinel)
			}
			if errors.Is(err, apperrors.ErrNotFound) {
				t.Error("unexpected match with ErrNotFound")
			}
		})
	}
}

func TestError_Unknown_MatchesNoSentinel(t *testing.T) {
	err := NewError(ErrorTypeUnknown, "", "x", nil)
	for _, sentinel := range []error{apperrors.ErrConfig, apperrors.ErrConnectivity, apperrors.ErrResponseParse} {
		if errors.Is(err, sentinel) {
			t.Errorf("unknown error must not match %v", sentinel)
		}
	}
}

func TestGetErrorType(t *testing.T) {
	if got := GetErrorType(errors.New("plain")); got != ErrorTypeUnknown {
		t.Errorf("expected unknown, got %s", got)
	}
	wrapped := fmt.Errorf("outer: %w", NewError(ErrorTypeParse, "", "x", nil))
	if got := GetErrorType(wrapped); got != ErrorTypeParse {
		t.Errorf("expected parse, got %s", got)
	}
	if got := GetState(errors.New("plain")); got != StateFailed {
		t.Errorf("expected failed state, got %s", got)
	}
}
