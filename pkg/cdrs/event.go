package cdrs

import "context"

// Event is a server-pushed notification delivered on a registered
// transport's stream id -1, decoded to its EventBody.
type Event = EventBody

// Listener owns a dedicated transport used only for REGISTER/EVENT traffic,
// grounded on cluster/session.rs::listen.
type Listener struct {
	t  *transport
	ch chan Event
}

// Listen opens a dedicated connection to node, handshakes it, subscribes to
// the given event types via REGISTER, and returns a Listener plus the
// channel push events are delivered on. The handshake uses auth, or the
// session's AuthenticatorProvider when auth is nil. The connection is opened
// with a single attempt and never reopened: a listener that loses its
// connection is done, the caller re-Listens rather than silently
// resubscribing on a new transport mid-stream.
func (s *Session) Listen(ctx context.Context, node string, auth AuthenticatorProvider, events []EventType) (*Listener, <-chan Event, error) {
	m, ok := s.NodeConnection(node)
	if !ok {
		return nil, nil, newInternalError("no ConnectionManager configured for node %s", node)
	}
	lc := *s.cfg
	if auth != nil {
		lc.authenticatorProvider = auth
	}
	t, err := newConnectionManager(m.Addr(), &lc).dialAndHandshake(ctx)
	if err != nil {
		return nil, nil, err
	}

	resp, err := t.send(ctx, &Frame{
		Header: Header{Opcode: OpRegister},
		Body:   &RegisterBody{Events: events},
	})
	if err != nil {
		t.close()
		return nil, nil, err
	}
	if se := resp.AsServerError(); se != nil {
		t.close()
		return nil, nil, se
	}
	if resp.Opcode() != OpReady {
		t.close()
		return nil, nil, newProtocolError("register", newInternalError("unexpected response opcode %s", resp.Opcode()))
	}

	l := &Listener{t: t, ch: make(chan Event, 64)}
	go l.pump()
	return l, l.ch, nil
}

func (l *Listener) pump() {
	defer close(l.ch)
	for f := range l.t.events {
		eb, ok := f.Body.(*EventBody)
		if !ok {
			continue
		}
		l.ch <- *eb
	}
}

// TryRecv returns the next buffered event without blocking, reporting false
// if none is currently available. Supplements spec.md with the original's
// listen_non_blocking variant (see SPEC_FULL.md section 5).
func (l *Listener) TryRecv() (Event, bool) {
	select {
	case e, ok := <-l.ch:
		return e, ok
	default:
		return Event{}, false
	}
}

// Close tears down the listener's dedicated transport.
func (l *Listener) Close() {
	l.t.close()
}
