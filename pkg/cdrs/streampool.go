package cdrs

import (
	"sync"

	"github.com/twmb/go-rbtree"
)

// freeIDNode is one entry in the free-id tree: an unused stream id in
// [0, MaxStreamID]. Embedding rbtree.Node makes it an intrusive tree node,
// the same style the teacher's dependency surface already pulls in via
// go.mod (see DESIGN.md for the caveat on this package's exact API).
type freeIDNode struct {
	rbtree.Node
	id int16
}

func lessFreeID(l, r rbtree.Node) bool {
	return l.(*freeIDNode).id < r.(*freeIDNode).id
}

// streamPool hands out stream ids in [0, MaxStreamID] to outbound requests
// and reclaims them once a response (or cancellation) is observed, per spec
// section 4.2: no two in-flight requests ever share an id, and an id is not
// freed until its request is resolved one way or another.
type streamPool struct {
	mu   sync.Mutex
	cond *sync.Cond
	free rbtree.Tree

	// pending maps an allocated stream id to the one-shot delivery slot its
	// owner is waiting on.
	pending map[int16]chan *Frame

	closed bool
}

func newStreamPool() *streamPool {
	p := &streamPool{pending: make(map[int16]chan *Frame, 64)}
	p.cond = sync.NewCond(&p.mu)
	for id := int32(0); id <= MaxStreamID; id++ {
		p.free.Insert(lessFreeID, &freeIDNode{id: int16(id)})
	}
	return p
}

// acquire blocks until a stream id is free (or the pool is closed), installs
// ch as the one-shot delivery slot for whatever response arrives on that id,
// and returns the id.
func (p *streamPool) acquire(ch chan *Frame) (int16, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.closed {
			return 0, ErrTransportClosed
		}
		if n := p.free.Min(); n != nil {
			node := n.(*freeIDNode)
			p.free.Delete(node)
			p.pending[node.id] = ch
			return node.id, nil
		}
		p.cond.Wait()
	}
}

// deliver routes a response frame to the waiter holding its stream id,
// reporting whether a waiter was found (a miss past EventStreamID handling
// is a protocol error — an id with no outstanding request).
func (p *streamPool) deliver(streamID int16, f *Frame) bool {
	p.mu.Lock()
	ch, ok := p.pending[streamID]
	p.mu.Unlock()
	if !ok {
		return false
	}
	ch <- f
	return true
}

// release returns streamID to the free pool once its request has been
// resolved (response observed, or the caller gave up and cancelled).
func (p *streamPool) release(streamID int16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, streamID)
	p.free.Insert(lessFreeID, &freeIDNode{id: streamID})
	p.cond.Signal()
}

// drain wakes every outstanding waiter and marks the pool closed, called
// when the owning transport dies so no caller blocks forever. Each slot gets
// a placeholder frame (not marked as a response) carrying err's message and
// is then closed; transport.send turns that into ErrTransportClosed.
func (p *streamPool) drain(err error) {
	p.mu.Lock()
	p.closed = true
	pending := p.pending
	p.pending = make(map[int16]chan *Frame)
	p.cond.Broadcast()
	p.mu.Unlock()

	for _, ch := range pending {
		ch <- &Frame{Body: &ErrorBody{Code: ErrorServerError, Message: err.Error()}}
		close(ch)
	}
}
