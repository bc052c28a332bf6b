// Package ledger keeps the in-memory audit trail of processing attempts.
//
// The ledger is the only structure shared between workers and the HTTP
// introspection endpoints. Workers append a record when an event is accepted
// and mutate only the record they own, through Update. Readers always get
// deep copies, so a snapshot never exposes a half-written record.
package ledger

import (
	"sync"

	"hublabs.dev/tagger/internal/domain"
)

// Ledger is an append-only, size-bounded record of operation attempts.
// Construct one per process (or per test) with New; there is no global
// instance.
type Ledger struct {
	mu      sync.RWMutex
	records []domain.OperationRecord
	max     int
}

// New creates a ledger bounded to at most max records. Once the bound is
// reached the oldest records are evicted. max <= 0 means unbounded.
func New(max int) *Ledger {
	return &Ledger{max: max}
}

// Append adds a record to the ledger, evicting the oldest if full.
func (l *Ledger) Append(rec domain.OperationRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)
	if l.max > 0 && len(l.records) > l.max {
		l.records = l.records[len(l.records)-l.max:]
	}
}

// Update applies fn to the record with the given ID under the write lock.
// Returns false if the record has been evicted or never existed. Only the
// worker that appended a record may call Update for it.
func (l *Ledger) Update(id int64, fn func(*domain.OperationRecord)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.records {
		if l.records[i].ID == id {
			fn(&l.records[i])
			return true
		}
	}
	return false
}

// Len returns the number of records currently held.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Get returns a copy of the record with the given ID.
func (l *Ledger) Get(id int64) (domain.OperationRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := range l.records {
		if l.records[i].ID == id {
			return copyRecord(l.records[i]), true
		}
	}
	return domain.OperationRecord{}, false
}

// Snapshot returns deep copies of the most recent n records, newest last.
// n <= 0 returns the full window.
func (l *Ledger) Snapshot(n int) []domain.OperationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if n > 0 && len(l.records) > n {
		start = len(l.records) - n
	}

	out := make([]domain.OperationRecord, 0, len(l.records)-start)
	for i := start; i < len(l.records); i++ {
		out = append(out, copyRecord(l.records[i]))
	}
	return out
}

func copyRecord(rec domain.OperationRecord) domain.OperationRecord {
	cp := rec
	if rec.ExtractedTags != nil {
		cp.ExtractedTags = append([]string(nil), rec.ExtractedTags...)
	}
	if rec.TagResults != nil {
		cp.TagResults = append([]domain.ToolCallResult(nil), rec.TagResults...)
	}
	return cp
}
