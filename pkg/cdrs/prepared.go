package cdrs

import "sync"

// PreparedQuery is a handle returned by Session.Prepare. Its id can be
// transparently rewritten in place by handleUnprepared after a coordinator
// forgets the statement, so every caller sharing the handle observes the
// refreshed id without re-preparing themselves.
type PreparedQuery struct {
	text string

	mu sync.RWMutex
	id []byte

	resultMetadata    RowsResultMetadata
	variablesMetadata RowsResultMetadata
}

func newPreparedQuery(text string, result *PreparedResult) *PreparedQuery {
	return &PreparedQuery{
		text:              text,
		id:                result.ID,
		resultMetadata:    result.ResultMetadata,
		variablesMetadata: result.VariablesMetadata,
	}
}

// Text returns the original query string this handle was prepared from.
func (p *PreparedQuery) Text() string { return p.text }

// ID returns the statement id currently believed valid. Concurrent callers
// may be in the middle of a reprepare; this always returns a consistent
// snapshot.
func (p *PreparedQuery) ID() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.id
}

// VariablesMetadata describes the bind variables this statement expects.
func (p *PreparedQuery) VariablesMetadata() RowsResultMetadata {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.variablesMetadata
}

// withReprepareLock runs fn with exclusive access to p's id, used by
// handleUnprepared so callers reprepare a forgotten statement one at a time:
// while one holds the lock, every other caller sharing the handle blocks,
// then sees the refreshed id. A caller that waited still runs its own fn;
// it does not skip the reprepare when the id has already changed.
func (p *PreparedQuery) withReprepareLock(fn func() (*PreparedResult, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	result, err := fn()
	if err != nil {
		return err
	}
	p.id = result.ID
	p.resultMetadata = result.ResultMetadata
	p.variablesMetadata = result.VariablesMetadata
	return nil
}
