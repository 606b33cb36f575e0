package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidGraph, "duplicate component: %s", "billing.Service")

	if err.Code != ErrCodeInvalidGraph {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidGraph)
	}

	if err.Message != "duplicate component: billing.Service" {
		t.Errorf("Message = %v", err.Message)
	}

	expected := "INVALID_GRAPH: duplicate component: billing.Service"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeUnknownNode, cause, "edge a -> b")

	if err.Code != ErrCodeUnknownNode {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnknownNode)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeStrategyFailed, "test"),
			code:     ErrCodeStrategyFailed,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeStrategyFailed, "test"),
			code:     ErrCodeUnknownNode,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeCache, New(ErrCodeInternal, "inner"), "outer"),
			code:     ErrCodeCache,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInternal,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeUnresolvedCycle, "2 cycles remain")); got != "2 cycles remain" {
		t.Errorf("UserMessage() = %q, want message without code prefix", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeEnumerationTruncated, "capped")); got != ErrCodeEnumerationTruncated {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeEnumerationTruncated)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}
