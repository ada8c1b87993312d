package steps

import (
	"sync"

	"github.com/CrisisTextLine/stepkit/cms"
)

// Ledger records the entities created during a scenario so they can be
// deleted when it ends. Entries are kept per entity type in creation order.
type Ledger struct {
	mu      sync.Mutex
	types   []string
	entries map[string][]*cms.Entity
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string][]*cms.Entity)}
}

// Record adds e to the ledger. Recording the same entity twice is a no-op.
func (l *Ledger) Record(e *cms.Entity) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, seen := l.entries[e.Type]
	for _, recorded := range existing {
		if recorded.ID == e.ID {
			return
		}
	}
	if !seen {
		l.types = append(l.types, e.Type)
	}
	l.entries[e.Type] = append(existing, e)
}

// Entities returns the recorded entities of entityType.
func (l *Ledger) Entities(entityType string) []*cms.Entity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*cms.Entity(nil), l.entries[entityType]...)
}

// Len returns the number of recorded entities.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, entities := range l.entries {
		n += len(entities)
	}
	return n
}

// Drain empties the ledger and returns its entities, grouped by type in the
// order types were first recorded.
func (l *Ledger) Drain() []*cms.Entity {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*cms.Entity
	for _, t := range l.types {
		out = append(out, l.entries[t]...)
	}
	l.types = nil
	l.entries = make(map[string][]*cms.Entity)
	return out
}
