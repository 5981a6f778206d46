package cdrs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRetryPolicyTransientErrors(t *testing.T) {
	p := defaultRetryPolicy{}

	cases := []struct {
		code ErrorCode
		want RetryDecision
	}{
		{ErrorUnavailable, RetryNext},
		{ErrorOverloaded, RetryNext},
		{ErrorIsBootstrapping, RetryNext},
		{ErrorSyntaxError, Abort},
	}
	for _, c := range cases {
		se := &ServerError{Code: c.code}
		require.Equal(t, c.want, p.Decide(se, 0, false), c.code.String())
	}
}

func TestDefaultRetryPolicyIdempotenceGate(t *testing.T) {
	p := defaultRetryPolicy{}
	se := &ServerError{Code: ErrorWriteTimeout}

	require.Equal(t, Abort, p.Decide(se, 0, false), "non-idempotent write must not be retried")
	require.Equal(t, RetrySame, p.Decide(se, 0, true), "idempotent write may be retried")
}

func TestDefaultRetryPolicyNeverRetriesSecondAttempt(t *testing.T) {
	p := defaultRetryPolicy{}
	se := &ServerError{Code: ErrorUnavailable}
	require.Equal(t, Abort, p.Decide(se, 1, false))
}

func TestDefaultRetryPolicyNonServerError(t *testing.T) {
	p := defaultRetryPolicy{}
	require.Equal(t, Abort, p.Decide(ErrConnDead, 0, true))
}
