package audit

import (
	"context"
	"sync"
)

// Publisher receives transition events as they are committed. Publishing is
// best-effort; the escrow state machine never blocks on it.
type Publisher interface {
	Publish(ctx context.Context, event *Event)
}

// Log is an in-process append-only transition log. It is safe for
// concurrent use and doubles as a Publisher for deployments without an
// external sink.
type Log struct {
	mu     sync.RWMutex
	events []*Event
}

// NewLog creates an empty transition log
func NewLog() *Log {
	return &Log{}
}

// Publish appends the event to the log
func (l *Log) Publish(_ context.Context, event *Event) {
	if event == nil {
		return
	}
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

// Events returns a snapshot of all recorded events in append order
func (l *Log) Events() []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Event, len(l.events))
	copy(out, l.events)
	return out
}

// ForTransaction returns the events recorded for a transaction id, in order
func (l *Log) ForTransaction(id int64) []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*Event
	for _, e := range l.events {
		if e.TransactionID == id {
			out = append(out, e)
		}
	}
	return out
}
