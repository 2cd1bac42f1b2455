package leave

import (
	"time"

	"cityhr/internal/domain/dates"
)

const (
	StatusApproved  = "approved"
	StatusPlanned   = "planned"
	StatusCancelled = "cancelled"
)

var Statuses = []string{StatusApproved, StatusPlanned, StatusCancelled}

type LeaveType struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	DaysPerYear int       `db:"days_per_year" json:"daysPerYear"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Leave is one leave period. The employee and type columns are filled from
// joins when read from the store.
type Leave struct {
	ID            string     `db:"id" json:"id"`
	EmployeeID    string     `db:"employee_id" json:"employeeId"`
	LeaveTypeID   string     `db:"leave_type_id" json:"leaveTypeId"`
	StartDate     dates.Date `db:"start_date" json:"startDate"`
	EndDate       dates.Date `db:"end_date" json:"endDate"`
	Days          int        `db:"days_count" json:"daysCount"`
	Status        string     `db:"status" json:"status"`
	Notes         string     `db:"notes" json:"notes"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
	Matricule     string     `db:"matricule" json:"matricule,omitempty"`
	FirstName     string     `db:"first_name" json:"firstName,omitempty"`
	LastName      string     `db:"last_name" json:"lastName,omitempty"`
	LeaveTypeName string     `db:"leave_type_name" json:"leaveTypeName,omitempty"`
}

func (l Leave) EmployeeName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	}
	return l.FirstName + " " + l.LastName
}

// Input is the client payload for creating or editing a leave. Dates are
// accepted as dd/mm/yyyy (or yyyy-mm-dd).
type Input struct {
	EmployeeID  string `json:"employeeId"`
	LeaveTypeID string `json:"leaveTypeId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

// Balance is the remaining allotment for one leave type over one year.
// Remaining is never clamped; Negative flags an overdrawn balance.
type Balance struct {
	LeaveTypeID   string `json:"leaveTypeId,omitempty"`
	LeaveTypeName string `json:"leaveTypeName,omitempty"`
	Year          int    `json:"year,omitempty"`
	Allotment     int    `json:"allotment"`
	Taken         int    `json:"taken"`
	Remaining     int    `json:"remaining"`
	Negative      bool   `json:"negative"`
}

type MonthPlan struct {
	Month  int     `json:"month"`
	Name   string  `json:"name"`
	Leaves []Leave `json:"leaves"`
}

type YearPlan struct {
	Year   int         `json:"year"`
	Filter string      `json:"filter,omitempty"`
	Months []MonthPlan `json:"months"`
	// FirstMatchMonth is the first month holding a leave, 0 when none.
	FirstMatchMonth int `json:"firstMatchMonth"`
}

type CalendarDay struct {
	Date      dates.Date `json:"date"`
	Day       int        `json:"day"`
	Employees []string   `json:"employees"`
}

type MonthCalendar struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []CalendarDay `json:"days"`
}

var monthNames = [...]string{"Janvier", "Février", "Mars", "Avril", "Mai", "Juin", "Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre"}

func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}
