package cdrs

import "github.com/pkg/errors"

// RetryDecision is what a RetryPolicy tells the session to do after a
// request fails.
type RetryDecision uint8

const (
	// RetrySame retries the request on the same connection/node.
	RetrySame RetryDecision = iota
	// RetryNext retries the request against a different node.
	RetryNext
	// Abort surfaces the error to the caller without retrying.
	Abort
)

func (d RetryDecision) String() string {
	switch d {
	case RetrySame:
		return "retry_same"
	case RetryNext:
		return "retry_next"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// RetryPolicy decides how a failed request should be retried, grounded on
// Kulezi/scylla-go-driver's RetryDecider/RetryInfo shape: given the error,
// the attempt number (0 on first failure) and whether the request is
// idempotent, decide what happens next.
type RetryPolicy interface {
	Decide(err error, attempt int, idempotent bool) RetryDecision
}

// defaultRetryPolicy retries once on transient coordinator overload errors,
// and only retries write-timeout errors when the caller marked the request
// idempotent — a non-idempotent write must never be silently replayed.
type defaultRetryPolicy struct{}

func (defaultRetryPolicy) Decide(err error, attempt int, idempotent bool) RetryDecision {
	if attempt > 0 {
		return Abort
	}
	se, ok := asServerError(err)
	if !ok {
		return Abort
	}
	switch se.Code {
	case ErrorUnavailable, ErrorOverloaded, ErrorIsBootstrapping:
		return RetryNext
	case ErrorWriteTimeout:
		if idempotent {
			return RetrySame
		}
		return Abort
	case ErrorReadTimeout:
		if idempotent {
			return RetrySame
		}
		return Abort
	default:
		return Abort
	}
}

func asServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
