package services

import (
	"context"
	"sync"

	"github.com/vytor/vocabflash/internal/errors"
)

// Request kinds tracked per client.
const (
	KindSentenceQuiz    = "sentenceQuiz"
	KindParagraph       = "paragraph"
	KindEvaluation      = "evaluation"
	KindAssistant       = "assistant"
	KindPronunciation   = "pronunciation"
	KindRandomParagraph = "randomParagraph"
)

type trackerKey struct {
	client string
	kind   string
}

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

// RequestTracker keeps the newest generation request per client and kind.
// Beginning a request cancels the previous one for the same key, and the
// previous one's result is reported stale instead of being delivered.
type RequestTracker struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[trackerKey]inflight
}

func NewRequestTracker() *RequestTracker {
	return &RequestTracker{inflight: make(map[trackerKey]inflight)}
}

// Ticket is the handle for one tracked request. A nil Ticket is always
// current.
type Ticket struct {
	tracker *RequestTracker
	key     trackerKey
	gen     uint64
	cancel  context.CancelFunc
}

// Begin registers a request. An empty clientID is not tracked and ctx is
// returned unchanged.
func (r *RequestTracker) Begin(ctx context.Context, clientID, kind string) (context.Context, *Ticket) {
	if r == nil || clientID == "" {
		return ctx, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	key := trackerKey{client: clientID, kind: kind}

	r.mu.Lock()
	r.seq++
	gen := r.seq
	if prev, ok := r.inflight[key]; ok {
		prev.cancel()
	}
	r.inflight[key] = inflight{gen: gen, cancel: cancel}
	r.mu.Unlock()

	return ctx, &Ticket{tracker: r, key: key, gen: gen, cancel: cancel}
}

// Current reports whether no newer request replaced this one.
func (t *Ticket) Current() bool {
	if t == nil {
		return true
	}
	t.tracker.mu.Lock()
	defer t.tracker.mu.Unlock()
	cur, ok := t.tracker.inflight[t.key]
	return ok && cur.gen == t.gen
}

// Check returns a STALE_REQUEST error when the ticket was superseded.
func (t *Ticket) Check() error {
	if t.Current() {
		return nil
	}
	return errors.NewStaleRequestError(t.key.kind)
}

// Done releases the ticket. It is safe to call on a nil Ticket and more
// than once.
func (t *Ticket) Done() {
	if t == nil {
		return
	}
	t.cancel()
	t.tracker.mu.Lock()
	if cur, ok := t.tracker.inflight[t.key]; ok && cur.gen == t.gen {
		delete(t.tracker.inflight, t.key)
	}
	t.tracker.mu.Unlock()
}

// Pending returns the number of tracked requests.
func (r *RequestTracker) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}
