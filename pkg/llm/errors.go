package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrPermanent matches classifier failures that must not be retried,
// via errors.Is. Used by the analyzer to terminate its retry loop early.
var ErrPermanent = errors.New("permanent classifier error")

// callError wraps a classifier failure with its retryability. Transport
// errors with rate-limit or unavailability signatures and malformed model
// output are retryable; everything else is permanent.
type callError struct {
	err       error
	retryable bool
}

func (e *callError) Error() string { return e.err.Error() }

func (e *callError) Unwrap() error { return e.err }

// Is makes errors.Is(err, ErrPermanent) hold for non-retryable failures
func (e *callError) Is(target error) bool {
	return target == ErrPermanent && !e.retryable
}

// Retryable reports the error's retryability flag
func (e *callError) Retryable() bool { return e.retryable }

// IsRetryable reports whether the error may succeed on another attempt.
// Anything not explicitly flagged retryable is permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// isTransientAPIErr inspects a transport/endpoint error for retryable
// signatures: HTTP 429/503, overloaded or unavailable status text, and
// request timeouts.
func isTransientAPIErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode == 503 {
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "UNAVAILABLE") ||
		strings.Contains(strings.ToLower(msg), "service unavailable")
}
