package cdrs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamPoolNoCollisions(t *testing.T) {
	p := newStreamPool()

	const n = 500
	var mu sync.Mutex
	seen := make(map[int16]bool, n)

	var wg sync.WaitGroup
	ids := make(chan int16, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := make(chan *Frame, 1)
			id, err := p.acquire(ch)
			require.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	for id := range ids {
		mu.Lock()
		require.False(t, seen[id], "stream id %d allocated twice concurrently", id)
		seen[id] = true
		mu.Unlock()
	}
	require.Len(t, seen, n)
}

func TestStreamPoolReleaseAllowsReuse(t *testing.T) {
	p := newStreamPool()
	ch := make(chan *Frame, 1)
	id, err := p.acquire(ch)
	require.NoError(t, err)
	p.release(id)

	ch2 := make(chan *Frame, 1)
	id2, err := p.acquire(ch2)
	require.NoError(t, err)
	require.Equal(t, id, id2)
}

func TestStreamPoolDeliverRoutesToWaiter(t *testing.T) {
	p := newStreamPool()
	ch := make(chan *Frame, 1)
	id, err := p.acquire(ch)
	require.NoError(t, err)

	f := &Frame{Header: Header{StreamID: id}}
	require.True(t, p.deliver(id, f))

	got := <-ch
	require.Same(t, f, got)
}

func TestStreamPoolDeliverUnknownIDReportsMiss(t *testing.T) {
	p := newStreamPool()
	require.False(t, p.deliver(999, &Frame{}))
}

func TestStreamPoolDrainFulfillsWaiters(t *testing.T) {
	p := newStreamPool()
	ch := make(chan *Frame, 1)
	_, err := p.acquire(ch)
	require.NoError(t, err)

	p.drain(ErrTransportClosed)
	_, ok := <-ch
	require.True(t, ok)

	_, err = p.acquire(make(chan *Frame, 1))
	require.ErrorIs(t, err, ErrTransportClosed)
}
