package cdrs

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// transportState is the lifecycle of one connection's multiplexer: it never
// reverts once Broken, mirroring the teacher's dead int32 atomic generalized
// to a third, pre-handshake state.
type transportState int32

const (
	transportHandshaking transportState = iota
	transportReady
	transportBroken
)

type outboundRequest struct {
	frame *Frame
}

// transport owns one net.Conn and multiplexes every in-flight request over
// it by stream id (teacher: brokerCxn). A writer goroutine drains a buffered
// channel of outbound requests; a reader goroutine decodes responses and
// routes them by stream id, or to the event channel when stream_id == -1.
type transport struct {
	addr   string
	conn   net.Conn
	codec  *Codec
	pool   *streamPool
	logger Logger

	outbound chan outboundRequest
	events   chan *Frame

	state int32 // transportState, atomic

	eg       *errgroup.Group
	egCtx    context.Context
	cancel   context.CancelFunc
	closeOnce sync.Once
}

func newTransport(ctx context.Context, addr string, conn net.Conn, codec *Codec, bufferSize int, logger Logger) *transport {
	egCtx, cancel := context.WithCancel(ctx)
	eg, egCtx := errgroup.WithContext(egCtx)
	t := &transport{
		addr:     addr,
		conn:     conn,
		codec:    codec,
		pool:     newStreamPool(),
		logger:   logger,
		outbound: make(chan outboundRequest, bufferSize),
		events:   make(chan *Frame, 64),
		state:    int32(transportHandshaking),
		eg:       eg,
		egCtx:    egCtx,
		cancel:   cancel,
	}
	t.eg.Go(t.writeLoop)
	t.eg.Go(t.readLoop)
	return t
}

func (t *transport) setReady() { atomic.StoreInt32(&t.state, int32(transportReady)) }

func (t *transport) isBroken() bool {
	return atomic.LoadInt32(&t.state) == int32(transportBroken)
}

func (t *transport) writeLoop() error {
	for {
		select {
		case req, ok := <-t.outbound:
			if !ok {
				return nil
			}
			if err := t.codec.EncodeFrame(t.conn, req.frame); err != nil {
				t.logger.Warn("transport write failed", "addr", t.addr, "err", err)
				t.die(newTransportError(t.addr, "write", err))
				return err
			}
		case <-t.egCtx.Done():
			return nil
		}
	}
}

func (t *transport) readLoop() error {
	for {
		f, err := t.codec.DecodeFrame(t.conn)
		if err != nil {
			t.logger.Warn("transport read failed", "addr", t.addr, "err", err)
			t.die(newTransportError(t.addr, "read", err))
			return err
		}
		if f.StreamID() == EventStreamID {
			select {
			case t.events <- f:
			default:
				t.logger.Warn("event channel full, dropping push event", "addr", t.addr)
			}
			continue
		}
		if !t.pool.deliver(f.StreamID(), f) {
			t.logger.Warn("response for unknown stream id, connection is desynced", "addr", t.addr, "stream_id", f.StreamID())
			t.die(newProtocolError("response routing", newInternalError("unowned stream id %d", f.StreamID())))
			return nil
		}
		t.pool.release(f.StreamID())
	}
}

// send issues f and blocks until a response arrives, the context is
// cancelled, or the transport dies. On success f.Header.StreamID is set to
// the allocated id before the frame is written.
func (t *transport) send(ctx context.Context, f *Frame) (*Frame, error) {
	if t.isBroken() {
		return nil, ErrConnDead
	}
	respCh := make(chan *Frame, 1)
	streamID, err := t.pool.acquire(respCh)
	if err != nil {
		return nil, err
	}
	f.Header.StreamID = streamID

	select {
	case t.outbound <- outboundRequest{frame: f}:
	case <-ctx.Done():
		t.pool.release(streamID)
		return nil, ctx.Err()
	case <-t.egCtx.Done():
		t.pool.release(streamID)
		return nil, ErrConnDead
	}

	select {
	case resp, ok := <-respCh:
		if !ok || !resp.Header.IsResponse {
			// A closed slot, or the non-response placeholder frame that
			// streamPool.drain puts in it, means the transport died before
			// a reply arrived.
			return nil, ErrTransportClosed
		}
		return resp, nil
	case <-ctx.Done():
		// The stream id stays allocated: per spec section 4.2 an id is not
		// freed until its response is observed, so a late response can still
		// be delivered (and discarded) without colliding with a new request.
		return nil, ctx.Err()
	case <-t.egCtx.Done():
		return nil, ErrConnDead
	}
}

// die marks the transport Broken and tears down both goroutines, waking
// every outstanding waiter so its send returns ErrTransportClosed.
func (t *transport) die(err error) {
	t.closeOnce.Do(func() {
		atomic.StoreInt32(&t.state, int32(transportBroken))
		t.cancel()
		_ = t.conn.Close()
		t.pool.drain(err)
		close(t.events)
	})
}

// close tears down a healthy transport on explicit request (session close,
// listener close), rather than an I/O failure.
func (t *transport) close() {
	t.die(ErrTransportClosed)
	_ = t.eg.Wait()
}
