package applicationdomain

import (
	"bytes"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Ordered is implemented by timeline events so they can be sorted for display.
type Ordered interface {
	SortKey() (occurredAt, createdAt time.Time, id uuid.UUID)
}

// SortForDisplay orders events newest first: occurred_at desc, then created_at
// desc, then id desc so ties are stable.
func SortForDisplay[E Ordered](events []E) {
	slices.SortStableFunc(events, func(a, b E) int {
		return CompareForDisplay(a, b)
	})
}

// CompareForDisplay is the comparison used by SortForDisplay.
func CompareForDisplay[E Ordered](a, b E) int {
	aOcc, aCreated, aID := a.SortKey()
	bOcc, bCreated, bID := b.SortKey()
	if c := bOcc.Compare(aOcc); c != 0 {
		return c
	}
	if c := bCreated.Compare(aCreated); c != 0 {
		return c
	}
	return bytes.Compare(bID[:], aID[:])
}
