package leave

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"cityhr/internal/apperr"
	"cityhr/internal/domain/dates"
	"cityhr/internal/platform/textmatch"
)

var ErrInvalidRange = fmt.Errorf("%w: end date before start date", apperr.ErrValidation)

// DurationDays returns the inclusive number of days between start and end.
func DurationDays(start, end dates.Date) (int, error) {
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	return end.DaysSince(start) + 1, nil
}

// RangesOverlap is the closed-interval overlap test.
func RangesOverlap(aStart, aEnd, bStart, bEnd dates.Date) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// Overlaps reports whether the leave touches [windowStart, windowEnd].
func Overlaps(l Leave, windowStart, windowEnd dates.Date) bool {
	return RangesOverlap(l.StartDate, l.EndDate, windowStart, windowEnd)
}

// DaysInMonth yields the days of the leave that fall in year/month.
func DaysInMonth(l Leave, year int, month time.Month) iter.Seq[dates.Date] {
	return func(yield func(dates.Date) bool) {
		first, last := dates.MonthBounds(year, month)
		from, to := l.StartDate, l.EndDate
		if from.Before(first) {
			from = first
		}
		if to.After(last) {
			to = last
		}
		for d := from; !d.After(to); d = d.AddDays(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// BucketByMonth groups the leaves starting in year by their start month.
// A leave spanning two months is listed under its start month only. Every
// month is present; buckets are in chronological order.
func BucketByMonth(leaves []Leave, year int) map[time.Month][]Leave {
	buckets := make(map[time.Month][]Leave, 12)
	for m := time.January; m <= time.December; m++ {
		buckets[m] = []Leave{}
	}
	for _, l := range leaves {
		if l.StartDate.IsZero() || l.StartDate.Year() != year {
			continue
		}
		m := l.StartDate.Month()
		buckets[m] = append(buckets[m], l)
	}
	for _, bucket := range buckets {
		slices.SortStableFunc(bucket, func(a, b Leave) int {
			return a.StartDate.Compare(b.StartDate)
		})
	}
	return buckets
}

// FilterByName keeps the leaves whose employee name contains substring,
// ignoring case and accents.
func FilterByName(leaves []Leave, substring string) []Leave {
	out := make([]Leave, 0, len(leaves))
	for _, l := range leaves {
		if textmatch.ContainsAny(substring, l.EmployeeName(), l.LastName+" "+l.FirstName) {
			out = append(out, l)
		}
	}
	return out
}

// OnDay keeps the leaves covering day.
func OnDay(leaves []Leave, day dates.Date) []Leave {
	out := make([]Leave, 0)
	for _, l := range leaves {
		if Overlaps(l, day, day) {
			out = append(out, l)
		}
	}
	return out
}

// RemainingBalance subtracts the days taken from the allotment.
func RemainingBalance(allotment int, taken []Leave) Balance {
	used := 0
	for _, l := range taken {
		used += l.Days
	}
	remaining := allotment - used
	return Balance{
		Allotment: allotment,
		Taken:     used,
		Remaining: remaining,
		Negative:  remaining < 0,
	}
}

// BuildPlan lays the year out month by month, optionally filtered by name.
func BuildPlan(leaves []Leave, year int, nameFilter string) YearPlan {
	if nameFilter != "" {
		leaves = FilterByName(leaves, nameFilter)
	}
	buckets := BucketByMonth(leaves, year)
	plan := YearPlan{Year: year, Filter: nameFilter, Months: make([]MonthPlan, 0, 12)}
	for m := time.January; m <= time.December; m++ {
		plan.Months = append(plan.Months, MonthPlan{Month: int(m), Name: MonthName(m), Leaves: buckets[m]})
		if plan.FirstMatchMonth == 0 && len(buckets[m]) > 0 {
			plan.FirstMatchMonth = int(m)
		}
	}
	return plan
}

// BuildCalendar lists, for each day of the month, who is on leave.
func BuildCalendar(leaves []Leave, year int, month time.Month) MonthCalendar {
	first, last := dates.MonthBounds(year, month)
	byDay := make(map[int][]string, last.Day())
	for _, l := range leaves {
		name := l.EmployeeName()
		for d := range DaysInMonth(l, year, month) {
			if !slices.Contains(byDay[d.Day()], name) {
				byDay[d.Day()] = append(byDay[d.Day()], name)
			}
		}
	}
	cal := MonthCalendar{Year: year, Month: int(month), Days: make([]CalendarDay, 0, last.Day())}
	for d := first; !d.After(last); d = d.AddDays(1) {
		names := byDay[d.Day()]
		if names == nil {
			names = []string{}
		}
		cal.Days = append(cal.Days, CalendarDay{Date: d, Day: d.Day(), Employees: names})
	}
	return cal
}
