package cdrs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponentialReconnectionPolicyGrows(t *testing.T) {
	p := defaultReconnectionPolicy()

	d0, ok := p.Next(0)
	require.True(t, ok)
	require.Greater(t, d0, time.Duration(0))

	d3, ok := p.Next(3)
	require.True(t, ok)
	require.Greater(t, d3, d0)
}

func TestExponentialReconnectionPolicyCapsAtMax(t *testing.T) {
	p := &exponentialReconnectionPolicy{
		initial:    time.Millisecond,
		max:        10 * time.Millisecond,
		multiplier: 2,
	}
	d, ok := p.Next(50)
	require.True(t, ok)
	require.LessOrEqual(t, d, 10*time.Millisecond)
}

func TestNeverReconnectionPolicyAlwaysGivesUp(t *testing.T) {
	_, ok := NeverReconnectionPolicy.Next(0)
	require.False(t, ok)
}
