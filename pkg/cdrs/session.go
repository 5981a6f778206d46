package cdrs

import (
	"context"

	"github.com/google/uuid"
)

// Session is the public entry point: it load-balances requests across a set
// of nodes, retries per the configured RetryPolicy, and transparently
// reprepares statements a coordinator has forgotten. Grounded directly on
// cdrs-tokio's cluster/session.rs method family (spec section 4.6, 4.8).
type Session struct {
	cfg      *cfg
	managers []*ConnectionManager
	lb       LoadBalancer
}

// NewSession dials nothing eagerly; connections are opened lazily on first
// use by the configured LoadBalancer's ConnectionManagers.
func NewSession(opts ...Opt) (*Session, error) {
	c := defaultCfg()
	for _, opt := range opts {
		opt(&c)
	}
	if len(c.nodes) == 0 {
		return nil, newInternalError("at least one node must be configured (WithNodes)")
	}
	managers := make([]*ConnectionManager, len(c.nodes))
	for i, addr := range c.nodes {
		managers[i] = newConnectionManager(addr, &c)
	}
	c.loadBalancer.init(managers)
	return &Session{cfg: &c, managers: managers, lb: c.loadBalancer}, nil
}

// Close tears down every ConnectionManager's transport.
func (s *Session) Close() {
	for _, m := range s.managers {
		m.close()
	}
}

// NodeConnection returns the ConnectionManager for a specific node address,
// for callers who need to bypass load balancing (e.g. admin-style queries
// that must target a particular replica). Supplements spec.md's enumerated
// Session operations, mirroring cluster/session.rs::node_connection.
func (s *Session) NodeConnection(addr string) (*ConnectionManager, bool) {
	return s.lb.find(func(m *ConnectionManager) bool { return m.Addr() == addr })
}

// loadBalancedConnection implements cluster/session.rs's exact branch: with
// fewer than two nodes there is nothing to rotate through, so the session's
// own ReconnectionPolicy governs retries on that single node. With two or
// more, a failed node is abandoned in favor of the next one using
// NeverReconnectionPolicy, until every candidate has been tried.
func (s *Session) loadBalancedConnection(ctx context.Context) (*ConnectionManager, *transport, error) {
	if s.lb.size() < 2 {
		m, ok := s.lb.next()
		if !ok {
			return nil, nil, ErrExhausted
		}
		t, err := m.connection(ctx, s.cfg.reconnectionPolicy)
		if err != nil {
			return nil, nil, err
		}
		return m, t, nil
	}

	n := s.lb.size()
	for tried := 0; tried < n; tried++ {
		m, ok := s.lb.next()
		if !ok {
			break
		}
		t, err := m.connection(ctx, NeverReconnectionPolicy)
		if err == nil {
			return m, t, nil
		}
		s.cfg.logger.Debug("candidate node rejected, rotating", "addr", m.Addr(), "err", err)
	}
	return nil, nil, ErrExhausted
}

// QueryResult carries a request's parsed result plus the tracing id and
// warnings a ...Tw call asked for.
type QueryResult struct {
	Result    *ResultBody
	TracingID *uuid.UUID
	Warnings  []string
}

// Query runs a statement with no bound values at the given consistency.
func (s *Session) Query(ctx context.Context, query string, consistency Consistency) (*ResultBody, error) {
	return s.QueryWithValues(ctx, query, QueryParams{Consistency: consistency})
}

// QueryWithValues runs a statement with bound values and the full parameter
// set (paging, serial consistency, timestamp, idempotence).
func (s *Session) QueryWithValues(ctx context.Context, query string, params QueryParams) (*ResultBody, error) {
	res, err := s.QueryTw(ctx, query, params, false)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

// QueryTw is QueryWithValues's tracing/warnings variant.
func (s *Session) QueryTw(ctx context.Context, query string, params QueryParams, trace bool) (*QueryResult, error) {
	f := &Frame{
		Header: Header{Opcode: OpQuery, Flags: traceFlags(trace)},
		Body:   &QueryBody{Query: query, Params: params},
	}
	resp, err := s.roundTrip(ctx, f, params.IsIdempotent)
	if err != nil {
		return nil, err
	}
	rb, err := asResultBody(resp)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Result: rb, TracingID: resp.TracingID, Warnings: resp.Warnings}, nil
}

// Prepare registers a statement with the coordinator, returning a handle
// whose id is kept fresh across UNPREPARED recoveries by Execute.
func (s *Session) Prepare(ctx context.Context, query string) (*PreparedQuery, error) {
	f := &Frame{Header: Header{Opcode: OpPrepare}, Body: &PrepareBody{Query: query}}
	resp, err := s.roundTrip(ctx, f, true)
	if err != nil {
		return nil, err
	}
	rb, err := asResultBody(resp)
	if err != nil {
		return nil, err
	}
	if rb.Kind != ResultPrepared || rb.Prepared == nil {
		return nil, newProtocolError("prepare", newInternalError("expected RESULT Prepared, got kind %d", rb.Kind))
	}
	return newPreparedQuery(query, rb.Prepared), nil
}

// Execute runs a prepared statement, transparently reparing it once if the
// coordinator responds UNPREPARED (spec section 4.6/9): a second UNPREPARED
// after that single recovery attempt is surfaced to the caller as-is.
func (s *Session) Execute(ctx context.Context, pq *PreparedQuery, params QueryParams) (*ResultBody, error) {
	res, err := s.ExecuteTw(ctx, pq, params, false)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

// ExecuteTw is Execute's tracing/warnings variant.
func (s *Session) ExecuteTw(ctx context.Context, pq *PreparedQuery, params QueryParams, trace bool) (*QueryResult, error) {
	resp, err := s.executeOnce(ctx, pq, params, trace)
	if err != nil {
		return nil, err
	}
	if se := resp.AsServerError(); se != nil && se.Code == ErrorUnprepared {
		if err := s.handleUnprepared(ctx, pq); err != nil {
			return nil, err
		}
		resp, err = s.executeOnce(ctx, pq, params, trace)
		if err != nil {
			return nil, err
		}
		if se := resp.AsServerError(); se != nil {
			return nil, se
		}
	}
	rb, err := asResultBody(resp)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Result: rb, TracingID: resp.TracingID, Warnings: resp.Warnings}, nil
}

func (s *Session) executeOnce(ctx context.Context, pq *PreparedQuery, params QueryParams, trace bool) (*Frame, error) {
	f := &Frame{
		Header: Header{Opcode: OpExecute, Flags: traceFlags(trace)},
		Body:   &ExecuteBody{ID: pq.ID(), Params: params},
	}
	return s.roundTripRaw(ctx, f, params.IsIdempotent)
}

// handleUnprepared reprepares pq once under its exclusive lock, so callers
// sharing the handle reprepare one after another rather than in parallel,
// and every later ID() read observes the refreshed id.
func (s *Session) handleUnprepared(ctx context.Context, pq *PreparedQuery) error {
	return pq.withReprepareLock(func() (*PreparedResult, error) {
		f := &Frame{Header: Header{Opcode: OpPrepare}, Body: &PrepareBody{Query: pq.Text()}}
		resp, err := s.roundTrip(ctx, f, true)
		if err != nil {
			return nil, err
		}
		rb, err := asResultBody(resp)
		if err != nil {
			return nil, err
		}
		if rb.Kind != ResultPrepared || rb.Prepared == nil {
			return nil, newProtocolError("reprepare", newInternalError("expected RESULT Prepared, got kind %d", rb.Kind))
		}
		return rb.Prepared, nil
	})
}

// Batch executes a BATCH statement.
func (s *Session) Batch(ctx context.Context, batch *BatchBody) (*ResultBody, error) {
	res, err := s.BatchTw(ctx, batch, false)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

// BatchTw is Batch's tracing/warnings variant.
func (s *Session) BatchTw(ctx context.Context, batch *BatchBody, trace bool) (*QueryResult, error) {
	f := &Frame{Header: Header{Opcode: OpBatch, Flags: traceFlags(trace)}, Body: batch}
	resp, err := s.roundTrip(ctx, f, batch.IsIdempotent)
	if err != nil {
		return nil, err
	}
	rb, err := asResultBody(resp)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Result: rb, TracingID: resp.TracingID, Warnings: resp.Warnings}, nil
}

func traceFlags(trace bool) HeaderFlags {
	if trace {
		return FlagTracing
	}
	return 0
}

func asResultBody(f *Frame) (*ResultBody, error) {
	if se := f.AsServerError(); se != nil {
		return nil, se
	}
	rb, ok := f.Body.(*ResultBody)
	if !ok {
		return nil, newProtocolError("response", newInternalError("expected RESULT, got opcode %s", f.Opcode()))
	}
	return rb, nil
}

// roundTrip sends f, applying the RetryPolicy across both transport-level
// failures and server ERROR responses, and returns the final RESULT frame
// (never an ERROR frame — those are converted to *ServerError).
func (s *Session) roundTrip(ctx context.Context, f *Frame, idempotent bool) (*Frame, error) {
	resp, err := s.roundTripRaw(ctx, f, idempotent)
	if err != nil {
		return nil, err
	}
	if se := resp.AsServerError(); se != nil {
		return nil, se
	}
	return resp, nil
}

// roundTripRaw is like roundTrip but returns ERROR frames as-is (not
// converted to an error return), so callers needing to special-case
// UNPREPARED (Execute) can inspect the frame directly.
func (s *Session) roundTripRaw(ctx context.Context, f *Frame, idempotent bool) (*Frame, error) {
	attempt := 0
	var mgr *ConnectionManager
	var t *transport
	for {
		if mgr == nil {
			// First attempt, or the last decision was RetryNext: ask the
			// load balancer for a (possibly different) node.
			var err error
			mgr, t, err = s.loadBalancedConnection(ctx)
			if err != nil {
				return nil, err
			}
		} else {
			// RetrySame: stay pinned to the same coordinator, reconnecting
			// to it if needed, without consulting the load balancer.
			var err error
			t, err = mgr.connection(ctx, s.cfg.reconnectionPolicy)
			if err != nil {
				return nil, err
			}
		}

		resp, err := t.send(ctx, f)
		if err != nil {
			decision := s.cfg.retryPolicy.Decide(err, attempt, idempotent)
			if decision == Abort {
				return nil, err
			}
			attempt++
			if decision == RetryNext {
				mgr = nil
			}
			continue
		}

		se := resp.AsServerError()
		if se == nil {
			return resp, nil
		}
		switch s.cfg.retryPolicy.Decide(se, attempt, idempotent) {
		case RetrySame:
			attempt++
			continue
		case RetryNext:
			attempt++
			mgr = nil
			continue
		default:
			return resp, nil
		}
	}
}
