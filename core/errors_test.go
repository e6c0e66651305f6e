package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsConfigurationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ErrInvalidConfiguration is configuration error", ErrInvalidConfiguration, true},
		{"ErrMissingConfiguration is configuration error", ErrMissingConfiguration, true},
		{"wrapped configuration error is detected", fmt.Errorf("config validation failed: %w", ErrInvalidConfiguration), true},
		{"ErrCapabilityNotFound is not configuration error", ErrCapabilityNotFound, false},
		{"custom error is not configuration error", errors.New("random error"), false},
		{"nil error is not configuration error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := IsConfigurationError(tt.err); result != tt.expected {
				t.Errorf("IsConfigurationError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestIsStateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ErrInvalidStateTransition is state error", ErrInvalidStateTransition, true},
		{"ErrConversationMismatch is state error", ErrConversationMismatch, true},
		{"ErrUnexpectedMessageKind is state error", ErrUnexpectedMessageKind, true},
		{"ErrAlreadyStarted is state error", ErrAlreadyStarted, true},
		{"ErrNotInitialized is state error", ErrNotInitialized, true},
		{"wrapped state error is detected", fmt.Errorf("cannot proceed: %w", ErrNotInitialized), true},
		{"ErrCapabilityNotFound is not state error", ErrCapabilityNotFound, false},
		{"custom error is not state error", errors.New("some other error"), false},
		{"nil error is not state error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := IsStateError(tt.err); result != tt.expected {
				t.Errorf("IsStateError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestIsTransportError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ErrMessageTooLarge is transport error", ErrMessageTooLarge, true},
		{"ErrConnectionClosed is transport error", ErrConnectionClosed, true},
		{"wrapped transport error is detected", fmt.Errorf("write failed: %w", ErrConnectionClosed), true},
		{"ErrCapabilityNotFound is not transport error", ErrCapabilityNotFound, false},
		{"nil error is not transport error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := IsTransportError(tt.err); result != tt.expected {
				t.Errorf("IsTransportError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestIsSecurityError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ErrSignatureInvalid is security error", ErrSignatureInvalid, true},
		{"ErrReplayDetected is security error", ErrReplayDetected, true},
		{"ErrSemanticHashMismatch is security error", ErrSemanticHashMismatch, true},
		{"wrapped security error is detected", fmt.Errorf("validate: %w", ErrSignatureInvalid), true},
		{"ErrCapabilityNotFound is not security error", ErrCapabilityNotFound, false},
		{"nil error is not security error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := IsSecurityError(tt.err); result != tt.expected {
				t.Errorf("IsSecurityError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := ErrCapabilityNotFound
	wrappedOnce := fmt.Errorf("failed to find capability 'echo:v1': %w", baseErr)
	wrappedTwice := fmt.Errorf("interpretation failed: %w", wrappedOnce)

	if !errors.Is(wrappedOnce, baseErr) {
		t.Error("once-wrapped error should satisfy errors.Is")
	}
	if !errors.Is(wrappedTwice, baseErr) {
		t.Error("twice-wrapped error should satisfy errors.Is through multiple layers")
	}
}

func TestRefusedError(t *testing.T) {
	err := &RefusedError{Code: RefusalPolicyViolation, Reason: "capability disabled for this sender"}
	want := "refused: policy_violation - capability disabled for this sender"
	if err.Error() != want {
		t.Errorf("RefusedError.Error() = %q, want %q", err.Error(), want)
	}
}

func TestReplayError(t *testing.T) {
	err := &ReplayError{Timestamp: "2026-01-01T00:00:00Z"}
	if !errors.Is(err, ErrReplayDetected) {
		t.Error("ReplayError should unwrap to ErrReplayDetected")
	}
}

func TestFrameworkErrorUnwrap(t *testing.T) {
	inner := errors.New("socket reset")
	fe := NewFrameworkError("transport.Read", "transport", inner)
	if !errors.Is(fe, inner) {
		t.Error("FrameworkError should unwrap to its wrapped error")
	}
	if fe.Error() == "" {
		t.Error("FrameworkError.Error() should not be empty")
	}
}

func BenchmarkIsStateError(b *testing.B) {
	err := fmt.Errorf("wrapped: %w", ErrNotInitialized)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = IsStateError(err)
	}
}
