package leave

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"cityhr/internal/apperr"
	"cityhr/internal/domain/dates"
)

const defaultRecentLimit = 50

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) ListTypes(ctx context.Context) ([]LeaveType, error) {
	return s.Store.ListTypes(ctx)
}

func (s *Service) CreateType(ctx context.Context, payload LeaveType) (LeaveType, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Description = strings.TrimSpace(payload.Description)
	var issues apperr.Fields
	if payload.Name == "" {
		issues.Add("name", "is required")
	}
	if payload.DaysPerYear < 0 {
		issues.Add("daysPerYear", "must be zero or more")
	}
	if err := issues.Err(); err != nil {
		return LeaveType{}, err
	}
	exists, err := s.Store.TypeNameExists(ctx, payload.Name)
	if err != nil {
		return LeaveType{}, err
	}
	if exists {
		return LeaveType{}, apperr.Invalid("name", "already exists")
	}
	payload.ID = uuid.NewString()
	payload.CreatedAt = time.Now().UTC()
	if err := s.Store.CreateType(ctx, payload); err != nil {
		return LeaveType{}, err
	}
	return payload, nil
}

// DeleteType refuses to remove a type still referenced by a leave.
func (s *Service) DeleteType(ctx context.Context, id string) error {
	if _, err := s.Store.GetType(ctx, id); err != nil {
		return err
	}
	inUse, err := s.Store.TypeInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return apperr.Invalid("leaveTypeId", "is used by existing leaves")
	}
	return s.Store.DeleteType(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Leave, error) {
	l, err := s.validate(ctx, in)
	if err != nil {
		return Leave{}, err
	}
	now := time.Now().UTC()
	l.ID = uuid.NewString()
	l.CreatedAt = now
	l.UpdatedAt = now
	if err := s.Store.Create(ctx, l); err != nil {
		return Leave{}, err
	}
	return s.Store.Get(ctx, l.ID)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Leave, error) {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return Leave{}, err
	}
	l, err := s.validate(ctx, in)
	if err != nil {
		return Leave{}, err
	}
	l.ID = current.ID
	l.CreatedAt = current.CreatedAt
	l.UpdatedAt = time.Now().UTC()
	if err := s.Store.Update(ctx, l); err != nil {
		return Leave{}, err
	}
	return s.Store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (Leave, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]Leave, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.Store.ListRecent(ctx, limit)
}

// EmployeeHistory lists every leave of the employee, newest first.
func (s *Service) EmployeeHistory(ctx context.Context, employeeID string) ([]Leave, error) {
	if err := s.requireEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.Store.ListByEmployee(ctx, employeeID)
}

// Plan returns the approved leaves starting in year, bucketed by month.
func (s *Service) Plan(ctx context.Context, year int, name string) (YearPlan, error) {
	from, to := dates.YearBounds(year)
	leaves, err := s.Store.ListStartingBetween(ctx, from, to, StatusApproved)
	if err != nil {
		return YearPlan{}, err
	}
	return BuildPlan(leaves, year, strings.TrimSpace(name)), nil
}

func (s *Service) Calendar(ctx context.Context, year int, month time.Month) (MonthCalendar, error) {
	if month < time.January || month > time.December {
		return MonthCalendar{}, apperr.Invalid("month", "must be between 1 and 12")
	}
	from, to := dates.MonthBounds(year, month)
	leaves, err := s.Store.ListOverlapping(ctx, from, to, StatusApproved)
	if err != nil {
		return MonthCalendar{}, err
	}
	return BuildCalendar(leaves, year, month), nil
}

// OnLeave lists the approved leaves covering day.
func (s *Service) OnLeave(ctx context.Context, day dates.Date) ([]Leave, error) {
	if day.IsZero() {
		day = dates.Today()
	}
	leaves, err := s.Store.ListOverlapping(ctx, day, day, StatusApproved)
	if err != nil {
		return nil, err
	}
	return OnDay(leaves, day), nil
}

// Balances computes, per leave type, what remains of the yearly allotment.
// Types without an allotment report the days taken only.
func (s *Service) Balances(ctx context.Context, employeeID string, year int) ([]Balance, error) {
	if err := s.requireEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	types, err := s.Store.ListTypes(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.Store.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	byType := make(map[string][]Leave, len(types))
	for _, l := range history {
		if l.Status != StatusApproved || l.StartDate.Year() != year {
			continue
		}
		byType[l.LeaveTypeID] = append(byType[l.LeaveTypeID], l)
	}
	out := make([]Balance, 0, len(types))
	for _, lt := range types {
		b := RemainingBalance(lt.DaysPerYear, byType[lt.ID])
		if lt.DaysPerYear == 0 {
			b.Remaining = 0
			b.Negative = false
		}
		b.LeaveTypeID = lt.ID
		b.LeaveTypeName = lt.Name
		b.Year = year
		out = append(out, b)
	}
	return out, nil
}

func (s *Service) requireEmployee(ctx context.Context, employeeID string) error {
	exists, err := s.Store.EmployeeExists(ctx, employeeID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: employee %s", apperr.ErrNotFound, employeeID)
	}
	return nil
}

func (s *Service) validate(ctx context.Context, in Input) (Leave, error) {
	var issues apperr.Fields
	l := Leave{
		EmployeeID:  strings.TrimSpace(in.EmployeeID),
		LeaveTypeID: strings.TrimSpace(in.LeaveTypeID),
		Status:      strings.TrimSpace(in.Status),
		Notes:       strings.TrimSpace(in.Notes),
	}
	if l.Status == "" {
		l.Status = StatusApproved
	}
	if !slices.Contains(Statuses, l.Status) {
		issues.Add("status", "must be one of "+strings.Join(Statuses, ", "))
	}
	if l.EmployeeID == "" {
		issues.Add("employeeId", "is required")
	}
	if l.LeaveTypeID == "" {
		issues.Add("leaveTypeId", "is required")
	}
	start, err := dates.Parse(in.StartDate)
	if err != nil || start.IsZero() {
		issues.Add("startDate", "must be a date in dd/mm/yyyy format")
	}
	end, err := dates.Parse(in.EndDate)
	if err != nil || end.IsZero() {
		issues.Add("endDate", "must be a date in dd/mm/yyyy format")
	}
	if err := issues.Err(); err != nil {
		return Leave{}, err
	}
	days, err := DurationDays(start, end)
	if err != nil {
		return Leave{}, apperr.Invalid("endDate", "must not be before the start date")
	}
	l.StartDate, l.EndDate, l.Days = start, end, days

	exists, err := s.Store.EmployeeExists(ctx, l.EmployeeID)
	if err != nil {
		return Leave{}, err
	}
	if !exists {
		return Leave{}, apperr.Invalid("employeeId", "does not match an employee")
	}
	if _, err := s.Store.GetType(ctx, l.LeaveTypeID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Leave{}, apperr.Invalid("leaveTypeId", "does not match a leave type")
		}
		return Leave{}, err
	}
	return l, nil
}
