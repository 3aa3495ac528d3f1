package service

import (
	"time"

	"github.com/google/uuid"
)

// MatchKind classifies a recognized product scan against the current
// session's requirements.
type MatchKind string

const (
	// MatchRequired: the product is required and still under its quantity —
	// the scan counts toward completeness.
	MatchRequired MatchKind = "required"
	// MatchExcess: the product is required but already fully scanned.
	MatchExcess MatchKind = "excess"
	// MatchForeign: the product does not belong to the order at all.
	MatchForeign MatchKind = "foreign"
)

// classifyPackingScan decides how a recognized product scan counts during a
// PACKING session. With an empty requirement set (unknown/unmatched order)
// every scan is accepted as required — foreign-code tolerance, not an error
// fallback.
func classifyPackingScan(items []ExpandedItem, scanCounts map[uuid.UUID]int, productID uuid.UUID) MatchKind {
	if len(items) == 0 {
		return MatchRequired
	}
	for i := range items {
		if items[i].ProductID != productID {
			continue
		}
		if scanCounts[productID] < items[i].RequiredQty {
			return MatchRequired
		}
		return MatchExcess
	}
	return MatchForeign
}

// scanDebouncer suppresses re-submissions of the same code within a short
// window, deduping accidental double-triggers of a handheld scanner and the
// QR decoder re-reading a code that stays in view.
type scanDebouncer struct {
	lastCode string
	lastAt   time.Time
}

// shouldSuppress is pure over the debouncer state — testable without timers.
func (d *scanDebouncer) shouldSuppress(code string, now time.Time, window time.Duration) bool {
	return code == d.lastCode && !d.lastAt.IsZero() && now.Sub(d.lastAt) < window
}

func (d *scanDebouncer) remember(code string, now time.Time) {
	d.lastCode = code
	d.lastAt = now
}

func (d *scanDebouncer) reset() {
	d.lastCode = ""
	d.lastAt = time.Time{}
}
