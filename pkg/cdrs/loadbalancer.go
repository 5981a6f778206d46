package cdrs

import (
	"math/rand/v2"
	"sync/atomic"
)

// LoadBalancer selects a ConnectionManager for each request. init is called
// once, with the session's full node list, before any next()/find() call.
type LoadBalancer interface {
	init(managers []*ConnectionManager)
	next() (*ConnectionManager, bool)
	size() int
	find(pred func(*ConnectionManager) bool) (*ConnectionManager, bool)
}

// roundRobinBalancer rotates through managers in a fixed order, using an
// atomic counter the way the teacher rotates across known brokers for
// metadata refreshes.
type roundRobinBalancer struct {
	managers []*ConnectionManager
	next_    uint64
}

func (b *roundRobinBalancer) init(managers []*ConnectionManager) {
	b.managers = managers
}

func (b *roundRobinBalancer) next() (*ConnectionManager, bool) {
	if len(b.managers) == 0 {
		return nil, false
	}
	i := atomic.AddUint64(&b.next_, 1) - 1
	return b.managers[int(i%uint64(len(b.managers)))], true
}

func (b *roundRobinBalancer) size() int { return len(b.managers) }

func (b *roundRobinBalancer) find(pred func(*ConnectionManager) bool) (*ConnectionManager, bool) {
	for _, m := range b.managers {
		if pred(m) {
			return m, true
		}
	}
	return nil, false
}

// randomBalancer picks a uniformly random manager on each call.
type randomBalancer struct {
	managers []*ConnectionManager
}

func (b *randomBalancer) init(managers []*ConnectionManager) {
	b.managers = managers
}

func (b *randomBalancer) next() (*ConnectionManager, bool) {
	if len(b.managers) == 0 {
		return nil, false
	}
	return b.managers[rand.IntN(len(b.managers))], true
}

func (b *randomBalancer) size() int { return len(b.managers) }

func (b *randomBalancer) find(pred func(*ConnectionManager) bool) (*ConnectionManager, bool) {
	for _, m := range b.managers {
		if pred(m) {
			return m, true
		}
	}
	return nil, false
}
