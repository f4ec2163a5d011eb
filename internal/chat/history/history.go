// Package history keeps a bounded in-memory record of relayed chat
// messages so the server can clear every trace of a conversation once the
// room empties. Nothing is ever written to disk.
package history

import (
	"errors"
	"sync"
	"time"
)

// Entry is one relayed chat message as the server saw it.
type Entry struct {
	Sender string
	Body   string
	At     time.Time
}

// Log accumulates a limited number of entries; when full it drops the
// oldest entry on every push.
type Log struct {
	max  int
	mu   sync.RWMutex
	data []Entry
}

// NewLog builds a history log holding at most max entries.
func NewLog(max int) (*Log, error) {
	if max <= 0 {
		return nil, errors.New("history: max must be greater than 0")
	}
	return &Log{max: max, data: []Entry{}}, nil
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.data)
}

// Push records an entry, evicting the oldest when the log is full.
func (l *Log) Push(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.data) == l.max {
		l.data = l.data[1:]
	}
	l.data = append(l.data, e)
}

// Tail copies the last n entries, oldest first.
func (l *Log) Tail(n int) []Entry {
	if n < 0 {
		n = -n
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n > len(l.data) {
		n = len(l.data)
	}
	tail := make([]Entry, n)
	copy(tail, l.data[len(l.data)-n:])
	return tail
}

// Clear drops every retained entry.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data = l.data[:0]
}
