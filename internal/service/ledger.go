package service

import (
	"sync"
	"time"

	"github.com/vuhoangviet271/packing-video-app/internal/model"
)

// Outcome is the terminal result of one session.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// HistoryEntry is one immutable session outcome. Seq is assigned on append
// and never reused within a run.
type HistoryEntry struct {
	Seq             int
	ShippingCode    string
	Outcome         Outcome
	DurationSeconds int
	Type            model.VideoType
	At              time.Time
}

// Ledger is the append-only, in-memory session history kept for operator
// visibility within the current run. Entries are never mutated or removed;
// Clear starts a fresh run.
type Ledger struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

func NewLedger() *Ledger { return &Ledger{} }

func (l *Ledger) Append(shippingCode string, outcome Outcome, durationSeconds int, typ model.VideoType, at time.Time) HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := HistoryEntry{
		Seq:             len(l.entries) + 1,
		ShippingCode:    shippingCode,
		Outcome:         outcome,
		DurationSeconds: durationSeconds,
		Type:            typ,
		At:              at,
	}
	l.entries = append(l.entries, e)
	return e
}

// Entries returns a copy; callers can never mutate the ledger through it.
func (l *Ledger) Entries() []HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
