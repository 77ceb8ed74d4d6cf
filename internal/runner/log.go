package runner

import "sync"

// Log is the append-only audit trail of executed commands for one pipeline
// run. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []string
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Add appends an entry.
func (l *Log) Add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries returns a snapshot of all entries in append order.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
