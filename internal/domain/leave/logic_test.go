package leave

import (
	"errors"
	"slices"
	"testing"
	"time"

	"cityhr/internal/apperr"
	"cityhr/internal/domain/dates"
)

func mustDisplay(t *testing.T, s string) dates.Date {
	t.Helper()
	d, err := dates.ParseDisplay(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func newLeave(t *testing.T, id, first, last, start, end string) Leave {
	t.Helper()
	s, e := mustDisplay(t, start), mustDisplay(t, end)
	days, err := DurationDays(s, e)
	if err != nil {
		t.Fatalf("duration %s-%s: %v", start, end, err)
	}
	return Leave{ID: id, FirstName: first, LastName: last, StartDate: s, EndDate: e, Days: days, Status: StatusApproved}
}

func TestDurationDays(t *testing.T) {
	start := dates.New(2025, time.January, 10)

	days, err := DurationDays(start, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected 1 day, got %v", days)
	}

	days, err = DurationDays(start, dates.New(2025, time.January, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %v", days)
	}

	days, err = DurationDays(dates.New(2024, time.February, 27), dates.New(2024, time.March, 1))
	if err != nil || days != 4 {
		t.Fatalf("expected 4 days across leap day, got %v %v", days, err)
	}

	days, err = DurationDays(dates.New(2024, time.December, 30), dates.New(2025, time.January, 2))
	if err != nil || days != 4 {
		t.Fatalf("expected 4 days across new year, got %v %v", days, err)
	}

	days, err = DurationDays(dates.New(1700, time.January, 1), dates.New(2099, time.December, 31))
	if err != nil || days != 146097 {
		t.Fatalf("expected 146097 days over four centuries, got %v %v", days, err)
	}
}

func TestDurationDaysInvalid(t *testing.T) {
	_, err := DurationDays(dates.New(2025, time.February, 10), dates.New(2025, time.February, 9))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatal("expected range error to be a validation error")
	}
}

func TestOverlapsIsSymmetric(t *testing.T) {
	base := dates.New(2024, time.July, 1)
	for a := 0; a < 10; a++ {
		for alen := 0; alen < 5; alen++ {
			for b := 0; b < 10; b++ {
				for blen := 0; blen < 5; blen++ {
					aStart, aEnd := base.AddDays(a), base.AddDays(a+alen)
					bStart, bEnd := base.AddDays(b), base.AddDays(b+blen)
					if RangesOverlap(aStart, aEnd, bStart, bEnd) != RangesOverlap(bStart, bEnd, aStart, aEnd) {
						t.Fatalf("asymmetric overlap for %v-%v and %v-%v", aStart, aEnd, bStart, bEnd)
					}
				}
			}
		}
	}
}

func TestJeanDupontScenario(t *testing.T) {
	l := newLeave(t, "l1", "Jean", "Dupont", "01/07/2024", "05/07/2024")
	if l.Days != 5 {
		t.Fatalf("expected 5 days, got %d", l.Days)
	}

	buckets := BucketByMonth([]Leave{l}, 2024)
	if len(buckets[time.July]) != 1 || buckets[time.July][0].ID != "l1" {
		t.Fatalf("expected leave in July bucket, got %+v", buckets[time.July])
	}

	for day := 1; day <= 5; day++ {
		d := dates.New(2024, time.July, day)
		if !Overlaps(l, d, d) {
			t.Fatalf("expected overlap on day %d", day)
		}
	}
	for _, d := range []dates.Date{dates.New(2024, time.July, 6), dates.New(2024, time.June, 30)} {
		if Overlaps(l, d, d) {
			t.Fatalf("did not expect overlap on %v", d)
		}
	}

	monthStart, monthEnd := dates.MonthBounds(2024, time.July)
	if !Overlaps(l, monthStart, monthEnd) {
		t.Fatal("expected overlap with July window")
	}
}

func TestDaysInMonthClipsToMonth(t *testing.T) {
	l := newLeave(t, "l1", "Jean", "Dupont", "28/06/2024", "03/07/2024")

	var june []int
	for d := range DaysInMonth(l, 2024, time.June) {
		june = append(june, d.Day())
	}
	if !slices.Equal(june, []int{28, 29, 30}) {
		t.Fatalf("unexpected june days %v", june)
	}

	seq := DaysInMonth(l, 2024, time.July)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected restartable sequence of 3 days, got %d and %d", len(first), len(second))
	}

	if got := slices.Collect(DaysInMonth(l, 2024, time.August)); len(got) != 0 {
		t.Fatalf("expected no days in august, got %v", got)
	}
}

func TestBucketByMonthKeysOnStartMonth(t *testing.T) {
	spanning := newLeave(t, "span", "Marie", "Curie", "28/06/2024", "03/07/2024")
	buckets := BucketByMonth([]Leave{spanning}, 2024)
	if len(buckets[time.June]) != 1 {
		t.Fatal("expected spanning leave under its start month")
	}
	if len(buckets[time.July]) != 0 {
		t.Fatal("did not expect spanning leave under its end month")
	}
	if len(buckets) != 12 {
		t.Fatalf("expected twelve buckets, got %d", len(buckets))
	}
}

func TestBucketByMonthIdempotentAndComplete(t *testing.T) {
	leaves := []Leave{
		newLeave(t, "a", "Jean", "Dupont", "15/03/2024", "16/03/2024"),
		newLeave(t, "b", "Marie", "Curie", "02/03/2024", "04/03/2024"),
		newLeave(t, "c", "Paul", "Martin", "20/12/2023", "02/01/2024"),
		newLeave(t, "d", "Anne", "Leroy", "01/11/2024", "30/11/2024"),
		newLeave(t, "e", "Luc", "Petit", "02/03/2024", "02/03/2024"),
	}

	first := BucketByMonth(leaves, 2024)
	second := BucketByMonth(leaves, 2024)
	for m := time.January; m <= time.December; m++ {
		if !slices.EqualFunc(first[m], second[m], func(a, b Leave) bool { return a.ID == b.ID }) {
			t.Fatalf("bucket %v differs between runs", m)
		}
	}

	march := first[time.March]
	ids := []string{march[0].ID, march[1].ID, march[2].ID}
	if !slices.Equal(ids, []string{"b", "e", "a"}) {
		t.Fatalf("expected chronological, stable order, got %v", ids)
	}

	var union []string
	for _, bucket := range first {
		for _, l := range bucket {
			union = append(union, l.ID)
		}
	}
	slices.Sort(union)
	if !slices.Equal(union, []string{"a", "b", "d", "e"}) {
		t.Fatalf("expected union to equal leaves starting in 2024, got %v", union)
	}
}

func TestFilterByName(t *testing.T) {
	leaves := []Leave{
		newLeave(t, "a", "Jean", "Dupont", "01/07/2024", "05/07/2024"),
		newLeave(t, "b", "Hélène", "Bérard", "01/08/2024", "02/08/2024"),
	}
	if got := FilterByName(leaves, "dupont"); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if got := FilterByName(leaves, "helene berard"); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected accent-insensitive match, got %+v", got)
	}
	if got := FilterByName(leaves, "Dupont Jean"); len(got) != 1 {
		t.Fatalf("expected last-first match, got %+v", got)
	}
	if got := FilterByName(leaves, ""); len(got) != 2 {
		t.Fatalf("expected empty filter to keep all, got %d", len(got))
	}
}

func TestRemainingBalance(t *testing.T) {
	if b := RemainingBalance(30, nil); b.Remaining != 30 || b.Negative {
		t.Fatalf("unexpected balance %+v", b)
	}
	over := RemainingBalance(30, []Leave{{Days: 35}})
	if over.Remaining != -5 || !over.Negative {
		t.Fatalf("expected -5 flagged negative, got %+v", over)
	}
	if b := RemainingBalance(30, []Leave{{Days: 30}}); b.Remaining != 0 || b.Negative {
		t.Fatalf("expected zero balance without flag, got %+v", b)
	}
}

func TestAnnualAndSickLeaveScenario(t *testing.T) {
	annual := LeaveType{ID: "t1", Name: "Congé Annuel", DaysPerYear: 30}
	sick := LeaveType{ID: "t2", Name: "Congé Maladie", DaysPerYear: 0}
	taken := newLeave(t, "l1", "Jean", "Dupont", "01/07/2024", "10/07/2024")
	taken.LeaveTypeID = annual.ID

	b := RemainingBalance(annual.DaysPerYear, []Leave{taken})
	if b.Remaining != 20 || b.Negative {
		t.Fatalf("expected 20 remaining, got %+v", b)
	}
	if b := RemainingBalance(sick.DaysPerYear, nil); b.Remaining != 0 || b.Negative {
		t.Fatalf("unexpected sick leave balance %+v", b)
	}
}

func TestBuildPlanAndCalendar(t *testing.T) {
	leaves := []Leave{
		newLeave(t, "a", "Jean", "Dupont", "01/07/2024", "05/07/2024"),
		newLeave(t, "b", "Marie", "Curie", "04/07/2024", "04/07/2024"),
		newLeave(t, "c", "Paul", "Martin", "10/09/2024", "12/09/2024"),
	}

	plan := BuildPlan(leaves, 2024, "martin")
	if plan.FirstMatchMonth != 9 {
		t.Fatalf("expected first match in september, got %d", plan.FirstMatchMonth)
	}
	if len(plan.Months) != 12 || plan.Months[6].Name != "Juillet" || len(plan.Months[6].Leaves) != 0 {
		t.Fatalf("unexpected plan months %+v", plan.Months[6])
	}

	cal := BuildCalendar(leaves, 2024, time.July)
	if len(cal.Days) != 31 {
		t.Fatalf("expected 31 days, got %d", len(cal.Days))
	}
	if got := cal.Days[3].Employees; !slices.Equal(got, []string{"Jean Dupont", "Marie Curie"}) {
		t.Fatalf("unexpected names on 4 July: %v", got)
	}
	if got := cal.Days[5].Employees; len(got) != 0 {
		t.Fatalf("expected nobody on 6 July, got %v", got)
	}

	onLeave := OnDay(leaves, dates.New(2024, time.July, 5))
	if len(onLeave) != 1 || onLeave[0].ID != "a" {
		t.Fatalf("unexpected on-leave list %+v", onLeave)
	}
}
