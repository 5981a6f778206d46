package cdrs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundRobinBalancerRotates(t *testing.T) {
	a := &ConnectionManager{addr: "a"}
	b := &ConnectionManager{addr: "b"}
	c := &ConnectionManager{addr: "c"}

	lb := &roundRobinBalancer{}
	lb.init([]*ConnectionManager{a, b, c})
	require.Equal(t, 3, lb.size())

	var seen []string
	for i := 0; i < 6; i++ {
		m, ok := lb.next()
		require.True(t, ok)
		seen = append(seen, m.Addr())
	}
	require.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, seen)
}

func TestRoundRobinBalancerEmpty(t *testing.T) {
	lb := &roundRobinBalancer{}
	lb.init(nil)
	_, ok := lb.next()
	require.False(t, ok)
	require.Equal(t, 0, lb.size())
}

func TestRoundRobinBalancerFind(t *testing.T) {
	a := &ConnectionManager{addr: "a"}
	b := &ConnectionManager{addr: "b"}
	lb := &roundRobinBalancer{}
	lb.init([]*ConnectionManager{a, b})

	m, ok := lb.find(func(m *ConnectionManager) bool { return m.Addr() == "b" })
	require.True(t, ok)
	require.Same(t, b, m)

	_, ok = lb.find(func(m *ConnectionManager) bool { return m.Addr() == "z" })
	require.False(t, ok)
}

func TestRandomBalancerOnlyReturnsKnownManagers(t *testing.T) {
	a := &ConnectionManager{addr: "a"}
	b := &ConnectionManager{addr: "b"}
	lb := &randomBalancer{}
	lb.init([]*ConnectionManager{a, b})

	for i := 0; i < 20; i++ {
		m, ok := lb.next()
		require.True(t, ok)
		require.Contains(t, []string{"a", "b"}, m.Addr())
	}
}
