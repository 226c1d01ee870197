package client

import (
	"sync"
	"time"
)

const defaultFeedbackTTL = 5000 * time.Millisecond

// FeedbackItem is one visible therapist message.
type FeedbackItem struct {
	ID         string
	Message    string
	From       string
	ReceivedAt time.Time
}

// FeedbackQueue holds therapist feedback for display. Every item
// disappears a fixed interval after receipt; the queue is display
// state only and survives nothing.
type FeedbackQueue struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items []FeedbackItem
}

// FeedbackOption applies a configuration option to the queue.
type FeedbackOption func(*FeedbackQueue)

// WithTTL replaces the default five-second visibility window.
func WithTTL(ttl time.Duration) FeedbackOption {
	return func(q *FeedbackQueue) {
		if ttl > 0 {
			q.ttl = ttl
		}
	}
}

// WithFeedbackClock replaces the time source, for tests.
func WithFeedbackClock(clock func() time.Time) FeedbackOption {
	return func(q *FeedbackQueue) {
		if clock != nil {
			q.now = clock
		}
	}
}

// NewFeedbackQueue creates an empty queue.
func NewFeedbackQueue(opts ...FeedbackOption) *FeedbackQueue {
	q := &FeedbackQueue{ttl: defaultFeedbackTTL, now: time.Now}

	// Apply all options
	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Add records a received feedback message. Duplicate IDs are kept:
// the therapist repeating a cue is a new message.
func (q *FeedbackQueue) Add(id, message, from string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, FeedbackItem{
		ID:         id,
		Message:    message,
		From:       from,
		ReceivedAt: q.now(),
	})
}

// Visible returns the items still inside their display window, oldest
// first, pruning the rest.
func (q *FeedbackQueue) Visible() []FeedbackItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.now().Add(-q.ttl)
	kept := q.items[:0]
	for _, item := range q.items {
		if item.ReceivedAt.After(cutoff) {
			kept = append(kept, item)
		}
	}
	q.items = kept

	out := make([]FeedbackItem, len(kept))
	copy(out, kept)
	return out
}

// Len reports the number of currently visible items.
func (q *FeedbackQueue) Len() int {
	return len(q.Visible())
}
