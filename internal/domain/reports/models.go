package reports

import "time"

// Report kinds.
const (
	KindStaffList     = "staff_list"
	KindEmployeeSheet = "employee_sheet"
	KindAnnualLeave   = "annual_leave"
	KindStatistics    = "hr_statistics"
)

var Kinds = []string{KindStaffList, KindEmployeeSheet, KindAnnualLeave, KindStatistics}

type Dashboard struct {
	ActiveEmployees    int      `json:"activeEmployees"`
	OnLeaveToday       int      `json:"onLeaveToday"`
	OnLeaveThisMonth   int      `json:"onLeaveThisMonth"`
	BirthdaysThisMonth int      `json:"birthdaysThisMonth"`
	LeavesThisYear     int      `json:"leavesThisYear"`
	IncomingMail       int      `json:"incomingMail"`
	OutgoingMail       int      `json:"outgoingMail"`
	Alerts             []string `json:"alerts"`
}

type GroupCount struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Statistics struct {
	Year             int          `json:"year"`
	TotalEmployees   int          `json:"totalEmployees"`
	ActiveEmployees  int          `json:"activeEmployees"`
	ActivityRate     float64      `json:"activityRate"`
	ByDivision       []GroupCount `json:"byDivision"`
	ByEngagementType []GroupCount `json:"byEngagementType"`
	LeaveCount       int          `json:"leaveCount"`
	LeaveDays        int          `json:"leaveDays"`
	AverageLeaveDays float64      `json:"averageLeaveDays"`
}

type AnnualLeaveRow struct {
	EmployeeID string `json:"employeeId"`
	Matricule  string `json:"matricule"`
	Name       string `json:"name"`
	LeaveCount int    `json:"leaveCount"`
	TotalDays  int    `json:"totalDays"`
	Details    string `json:"details"`
	Remaining  int    `json:"remaining"`
	Negative   bool   `json:"negative"`
}

type Request struct {
	Kind       string `json:"kind"`
	Format     string `json:"format"`
	EmployeeID string `json:"employeeId,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// Generated describes a report file written to the reports directory.
type Generated struct {
	Kind        string    `json:"kind"`
	Format      string    `json:"format"`
	FileName    string    `json:"fileName"`
	Path        string    `json:"path"`
	GeneratedAt time.Time `json:"generatedAt"`
}
