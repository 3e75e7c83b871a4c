package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewValidationError("bad request", nil)
	if got := err.Error(); got != "validation: bad request" {
		t.Errorf("Expected 'validation: bad request', got %q", got)
	}

	wrapped := NewRemoteUnavailableError("remote down", errors.New("dial tcp: refused"))
	if got := wrapped.Error(); got != "remote_unavailable: remote down (caused by: dial tcp: refused)" {
		t.Errorf("Unexpected error string: %q", got)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewInternalError("wrapper", cause)
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
}

func TestIsType(t *testing.T) {
	err := NewRemoteTimeoutError("slow", nil)
	if !IsType(err, ErrorTypeRemoteTimeout) {
		t.Error("Expected timeout type to match")
	}
	if IsType(err, ErrorTypeValidation) {
		t.Error("Expected validation type not to match")
	}
	if IsType(errors.New("plain"), ErrorTypeInternal) {
		t.Error("Expected plain error not to match any type")
	}
}

func TestIsType_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewCancelledError("stopped", nil))
	if !IsType(err, ErrorTypeCancelled) {
		t.Error("Expected type match through wrapping")
	}
}

func TestIsRemoteError(t *testing.T) {
	remotes := []error{
		NewRemoteUnauthorizedError("", nil),
		NewRemoteTimeoutError("", nil),
		NewRemoteUnavailableError("", nil),
		NewMalformedResponseError("", nil),
	}
	for _, err := range remotes {
		if !IsRemoteError(err) {
			t.Errorf("Expected %v to be a remote error", err)
		}
	}

	locals := []error{
		NewValidationError("", nil),
		NewAllStylesFailedError("", nil),
		NewCancelledError("", nil),
		errors.New("plain"),
	}
	for _, err := range locals {
		if IsRemoteError(err) {
			t.Errorf("Expected %v not to be a remote error", err)
		}
	}
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewInvalidImageError("", nil), http.StatusBadRequest},
		{NewValidationError("", nil), http.StatusBadRequest},
		{NewAllStylesFailedError("", nil), http.StatusUnprocessableEntity},
		{NewRemoteUnauthorizedError("", nil), http.StatusUnauthorized},
		{NewRemoteTimeoutError("", nil), http.StatusGatewayTimeout},
		{NewRemoteUnavailableError("", nil), http.StatusBadGateway},
		{NewMalformedResponseError("", nil), http.StatusBadGateway},
		{NewCancelledError("", nil), 499},
		{NewCacheError("", nil), http.StatusInternalServerError},
		{NewInternalError("", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := GetStatusCode(tt.err); got != tt.want {
			t.Errorf("Expected status %d for %v, got %d", tt.want, tt.err, got)
		}
	}
}
