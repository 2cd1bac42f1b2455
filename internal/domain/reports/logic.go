package reports

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"cityhr/internal/domain/core"
	"cityhr/internal/domain/leave"
)

// CountByGroup counts employees per key. Empty keys are skipped.
func CountByGroup(employees []core.Employee, key func(core.Employee) string) map[string]int {
	out := map[string]int{}
	for _, e := range employees {
		k := strings.TrimSpace(key(e))
		if k == "" {
			continue
		}
		out[k]++
	}
	return out
}

// Percentage is count/total*100 rounded to one decimal, 0 when total is 0.
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

// RankGroups orders groups by descending count, then key.
func RankGroups(groups map[string]int, total int) []GroupCount {
	out := make([]GroupCount, 0, len(groups))
	for k, n := range groups {
		out = append(out, GroupCount{Key: k, Count: n, Percentage: Percentage(n, total)})
	}
	slices.SortFunc(out, func(a, b GroupCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

// BuildStatistics rolls employees and the year's leaves up. Division and
// engagement breakdowns cover active employees only.
func BuildStatistics(employees []core.Employee, leaves []leave.Leave, year int) Statistics {
	active := make([]core.Employee, 0, len(employees))
	for _, e := range employees {
		if e.Status == core.StatusActive {
			active = append(active, e)
		}
	}
	stats := Statistics{
		Year:            year,
		TotalEmployees:  len(employees),
		ActiveEmployees: len(active),
		ActivityRate:    Percentage(len(active), len(employees)),
		ByDivision: RankGroups(CountByGroup(active, func(e core.Employee) string {
			return e.Division
		}), len(active)),
		ByEngagementType: RankGroups(CountByGroup(active, func(e core.Employee) string {
			return e.EngagementType
		}), len(active)),
	}
	for _, l := range leaves {
		if l.StartDate.Year() != year {
			continue
		}
		stats.LeaveCount++
		stats.LeaveDays += l.Days
	}
	if stats.LeaveCount > 0 {
		stats.AverageLeaveDays = math.Round(float64(stats.LeaveDays)/float64(stats.LeaveCount)*10) / 10
	}
	return stats
}

// AnnualLeaveRows summarises, per active employee, the leaves starting in
// year against the yearly allotment.
func AnnualLeaveRows(employees []core.Employee, leaves []leave.Leave, year, allotment int) []AnnualLeaveRow {
	byEmployee := map[string][]leave.Leave{}
	for _, l := range leaves {
		if l.StartDate.Year() == year {
			byEmployee[l.EmployeeID] = append(byEmployee[l.EmployeeID], l)
		}
	}
	rows := make([]AnnualLeaveRow, 0, len(employees))
	for _, e := range employees {
		if e.Status != core.StatusActive {
			continue
		}
		taken := byEmployee[e.ID]
		balance := leave.RemainingBalance(allotment, taken)
		details := make([]string, 0, len(taken))
		for _, l := range taken {
			details = append(details, fmt.Sprintf("%s: %d jours", l.LeaveTypeName, l.Days))
		}
		rows = append(rows, AnnualLeaveRow{
			EmployeeID: e.ID,
			Matricule:  e.Matricule,
			Name:       e.FullName(),
			LeaveCount: len(taken),
			TotalDays:  balance.Taken,
			Details:    strings.Join(details, "; "),
			Remaining:  balance.Remaining,
			Negative:   balance.Negative,
		})
	}
	return rows
}

// Alerts turns dashboard counters into notification lines.
func Alerts(d Dashboard) []string {
	var out []string
	if d.BirthdaysThisMonth > 0 {
		out = append(out, fmt.Sprintf("%d anniversaire(s) ce mois", d.BirthdaysThisMonth))
	}
	if d.OnLeaveToday > 0 {
		out = append(out, fmt.Sprintf("%d employé(s) actuellement en congé", d.OnLeaveToday))
	}
	if d.OnLeaveThisMonth > 0 {
		out = append(out, fmt.Sprintf("%d employé(s) en congé ce mois", d.OnLeaveThisMonth))
	}
	if total := d.IncomingMail + d.OutgoingMail; total > 0 {
		out = append(out, fmt.Sprintf("%d courrier(s) enregistré(s) au total", total))
	}
	if len(out) == 0 {
		out = append(out, "Aucune alerte pour le moment")
	}
	return out
}
