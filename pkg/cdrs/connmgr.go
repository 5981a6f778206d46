package cdrs

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// ConnectionManager owns at most one live transport to a single node,
// opening and handshaking it lazily and persisting it across requests
// (teacher: broker). Concurrent callers racing to open the connection share
// a single attempt via singleflight, exactly as spec section 4.4 requires.
type ConnectionManager struct {
	addr string
	cfg  *cfg

	group singleflight.Group

	mu   sync.RWMutex
	conn *transport

	dead int32
}

func newConnectionManager(addr string, c *cfg) *ConnectionManager {
	return &ConnectionManager{addr: addr, cfg: c}
}

// Addr returns the node address this manager was built for.
func (m *ConnectionManager) Addr() string { return m.addr }

// connection returns a ready transport, opening and handshaking one if none
// exists or the existing one has died. reconnPolicy governs retries on
// failure; pass NeverReconnectionPolicy to fail fast after the first
// attempt (used during session-level multi-node rotation).
func (m *ConnectionManager) connection(ctx context.Context, reconnPolicy ReconnectionPolicy) (*transport, error) {
	if atomic.LoadInt32(&m.dead) == 1 {
		return nil, ErrBrokerDead
	}

	m.mu.RLock()
	t := m.conn
	m.mu.RUnlock()
	if t != nil && !t.isBroken() {
		return t, nil
	}

	v, err, _ := m.group.Do(m.addr, func() (any, error) {
		return m.dialAndHandshakeWithRetry(ctx, reconnPolicy)
	})
	if err != nil {
		return nil, err
	}
	return v.(*transport), nil
}

func (m *ConnectionManager) dialAndHandshakeWithRetry(ctx context.Context, reconnPolicy ReconnectionPolicy) (*transport, error) {
	m.mu.RLock()
	t := m.conn
	m.mu.RUnlock()
	if t != nil && !t.isBroken() {
		return t, nil
	}

	attempt := 0
	for {
		t, err := m.dialAndHandshake(ctx)
		if err == nil {
			m.mu.Lock()
			m.conn = t
			m.mu.Unlock()
			return t, nil
		}
		m.cfg.logger.Warn("connection attempt failed", "addr", m.addr, "attempt", attempt, "err", err)

		delay, ok := reconnPolicy.Next(attempt)
		if !ok {
			return nil, err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		attempt++
	}
}

func (m *ConnectionManager) dialAndHandshake(ctx context.Context) (*transport, error) {
	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.dialTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", m.addr)
	if err != nil {
		return nil, newTransportError(m.addr, "dial", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(m.cfg.tcpNoDelay)
	}
	if m.cfg.tlsConfig != nil {
		tlsConn := tls.Client(conn, m.cfg.tlsConfig)
		if err := tlsConn.HandshakeContext(dialCtx); err != nil {
			_ = conn.Close()
			return nil, newTransportError(m.addr, "tls_handshake", err)
		}
		conn = tlsConn
	}

	codec := NewCodec(ProtocolV4, m.cfg.compression)
	t := newTransport(context.Background(), m.addr, conn, codec, m.cfg.transportBufferSize, m.cfg.logger)
	if err := handshake(ctx, t, m.cfg.compression, m.cfg.authenticatorProvider); err != nil {
		t.die(err)
		return nil, err
	}
	m.cfg.logger.Debug("connection established", "addr", m.addr)
	return t, nil
}

// close permanently stops this manager: its transport is torn down and
// future connection() calls return ErrBrokerDead.
func (m *ConnectionManager) close() {
	if !atomic.CompareAndSwapInt32(&m.dead, 0, 1) {
		return
	}
	m.mu.Lock()
	t := m.conn
	m.conn = nil
	m.mu.Unlock()
	if t != nil {
		t.close()
	}
}
