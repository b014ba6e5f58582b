package audit

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func TestMemoryRepo_FindOrdersAndLimits(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	t0 := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

	// Same timestamp for ids 2 and 3 exercises the id tiebreak.
	for i, at := range []time.Time{t0.Add(2 * time.Hour), t0, t0, t0.Add(time.Hour)} {
		_, _ = repo.Append(ctx, Record{ActivityTitle: "Patient Updated", ModuleType: ModulePatientManagement, TargetType: TargetPatient, TargetID: ptr(int64(i)), CreatedAt: at})
	}

	desc, _ := repo.Find(ctx, Filter{TargetType: TargetPatient})
	if ids := idsOf(desc); ids != "1,4,3,2" {
		t.Fatalf("unexpected desc order: %s", ids)
	}
	asc, _ := repo.Find(ctx, Filter{TargetType: TargetPatient, Ascending: true, Limit: 2})
	if ids := idsOf(asc); ids != "2,3" {
		t.Fatalf("unexpected asc order: %s", ids)
	}
}

func TestFilter_Matches(t *testing.T) {
	r := Record{
		ActivityTitle: "Clinic Availability Updated",
		ModuleType:    ModuleClinicManagement,
		Message:       "Updated availability for Monday",
		TargetType:    TargetClinicAvailability,
		TargetID:      ptr(1),
	}
	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"target id", Filter{TargetID: ptr(1)}, true},
		{"other target id", Filter{TargetID: ptr(2)}, false},
		{"module exact", Filter{ModuleType: "clinic"}, false},
		{"module like", Filter{ModuleLike: "CLINIC"}, true},
		{"title like", Filter{TitleLike: "availability upd"}, true},
		{"message like", Filter{MessageLike: "monday"}, true},
		{"keyword in title", Filter{Keyword: "updated"}, true},
		{"keyword missing", Filter{Keyword: "tuesday"}, false},
		{"and", Filter{TitleLike: "updated", MessageLike: "tuesday"}, false},
	}
	for _, c := range cases {
		if got := c.f.Matches(r); got != c.want {
			t.Fatalf("%s: got %v want %v", c.name, got, c.want)
		}
	}

	r.TargetID = nil
	if (Filter{TargetID: ptr(1)}).Matches(r) {
		t.Fatalf("nil target id must not match an id filter")
	}
}

func TestLikePattern_EscapesMetacharacters(t *testing.T) {
	if got := likePattern(`50%_off\`); got != `%50\%\_off\\%` {
		t.Fatalf("unexpected pattern: %s", got)
	}
}

func idsOf(recs []Record) string {
	s := ""
	for i, r := range recs {
		if i > 0 {
			s += ","
		}
		s += strconv.FormatInt(r.ID, 10)
	}
	return s
}
