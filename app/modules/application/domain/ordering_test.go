package applicationdomain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

type item struct {
	occurred time.Time
	created  time.Time
	id       uuid.UUID
	name     string
}

func (i item) SortKey() (time.Time, time.Time, uuid.UUID) { return i.occurred, i.created, i.id }

func TestSortForDisplay(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lowID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	highID := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	items := []item{
		{occurred: base, created: base, id: lowID, name: "tie-low-id"},
		{occurred: base.Add(-time.Hour), created: base, id: highID, name: "older"},
		{occurred: base, created: base, id: highID, name: "tie-high-id"},
		{occurred: base, created: base.Add(time.Minute), id: lowID, name: "created-later"},
		{occurred: base.Add(time.Hour), created: base, id: lowID, name: "newest"},
	}

	SortForDisplay(items)

	got := make([]string, len(items))
	for i, it := range items {
		got[i] = it.name
	}
	want := []string{"newest", "created-later", "tie-high-id", "tie-low-id", "older"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortForDisplay() mismatch (-want +got):\n%s", diff)
	}
}
