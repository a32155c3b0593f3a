package request

import (
	"context"
	"sync"
)

// Token identifies one request begun on a Tracker.
type Token uint64

/*
Tracker keeps track of the current request for a view that can switch targets
(a ticker page, a profile timeline). Beginning a new request supersedes and
cancels the previous one; a late response checks Current before applying.
*/
type Tracker struct {
	mu     sync.Mutex
	seq    Token
	cancel context.CancelFunc
}

// Begin starts a new request derived from parent and cancels the previous one.
func (t *Tracker) Begin(parent context.Context) (context.Context, Token) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	t.cancel = cancel
	return ctx, t.seq
}

// Current reports whether tok is still the latest request.
func (t *Tracker) Current(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tok == t.seq
}

// Done releases the request's context if tok is still current.
func (t *Tracker) Done(tok Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tok == t.seq && t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// Cancel supersedes whatever is in flight.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.seq++
}
