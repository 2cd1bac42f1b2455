package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"cityhr/internal/apperr"
	"cityhr/internal/domain/dates"
)

type Store struct {
	DB *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{DB: db}
}

const leaveSelect = `
    SELECT l.id, l.employee_id, l.leave_type_id, l.start_date, l.end_date, l.days_count,
           l.status, l.notes, l.created_at, l.updated_at,
           e.matricule, e.first_name, e.last_name, t.name AS leave_type_name
    FROM leaves l
    JOIN employees e ON e.id = l.employee_id
    JOIN leave_types t ON t.id = l.leave_type_id`

func (s *Store) ListTypes(ctx context.Context) ([]LeaveType, error) {
	out := []LeaveType{}
	err := s.DB.SelectContext(ctx, &out, `
    SELECT id, name, days_per_year, description, created_at
    FROM leave_types
    ORDER BY name
  `)
	return out, err
}

func (s *Store) GetType(ctx context.Context, id string) (LeaveType, error) {
	var out LeaveType
	err := s.DB.GetContext(ctx, &out, s.DB.Rebind(`
    SELECT id, name, days_per_year, description, created_at
    FROM leave_types
    WHERE id = ?
  `), id)
	if errors.Is(err, sql.ErrNoRows) {
		return LeaveType{}, fmt.Errorf("%w: leave type %s", apperr.ErrNotFound, id)
	}
	return out, err
}

func (s *Store) CreateType(ctx context.Context, lt LeaveType) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
    INSERT INTO leave_types (id, name, days_per_year, description, created_at)
    VALUES (?,?,?,?,?)
  `), lt.ID, lt.Name, lt.DaysPerYear, lt.Description, lt.CreatedAt)
	return err
}

func (s *Store) DeleteType(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind("DELETE FROM leave_types WHERE id = ?"), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: leave type %s", apperr.ErrNotFound, id)
	}
	return nil
}

func (s *Store) TypeNameExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind("SELECT COUNT(1) FROM leave_types WHERE name = ?"), name)
	return count > 0, err
}

func (s *Store) TypeInUse(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind("SELECT COUNT(1) FROM leaves WHERE leave_type_id = ?"), id)
	return count > 0, err
}

func (s *Store) EmployeeExists(ctx context.Context, employeeID string) (bool, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind("SELECT COUNT(1) FROM employees WHERE id = ?"), employeeID)
	return count > 0, err
}

func (s *Store) Create(ctx context.Context, l Leave) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
    INSERT INTO leaves (id, employee_id, leave_type_id, start_date, end_date, days_count, status, notes, created_at, updated_at)
    VALUES (?,?,?,?,?,?,?,?,?,?)
  `), l.ID, l.EmployeeID, l.LeaveTypeID, l.StartDate, l.EndDate, l.Days, l.Status, l.Notes, l.CreatedAt, l.UpdatedAt)
	return err
}

func (s *Store) Update(ctx context.Context, l Leave) error {
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
    UPDATE leaves
    SET employee_id = ?, leave_type_id = ?, start_date = ?, end_date = ?, days_count = ?, status = ?, notes = ?, updated_at = ?
    WHERE id = ?
  `), l.EmployeeID, l.LeaveTypeID, l.StartDate, l.EndDate, l.Days, l.Status, l.Notes, l.UpdatedAt, l.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: leave %s", apperr.ErrNotFound, l.ID)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind("DELETE FROM leaves WHERE id = ?"), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: leave %s", apperr.ErrNotFound, id)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (Leave, error) {
	var out Leave
	err := s.DB.GetContext(ctx, &out, s.DB.Rebind(leaveSelect+" WHERE l.id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Leave{}, fmt.Errorf("%w: leave %s", apperr.ErrNotFound, id)
	}
	return out, err
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]Leave, error) {
	out := []Leave{}
	err := s.DB.SelectContext(ctx, &out, s.DB.Rebind(leaveSelect+" ORDER BY l.start_date DESC, l.created_at DESC LIMIT ?"), limit)
	return out, err
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string) ([]Leave, error) {
	out := []Leave{}
	err := s.DB.SelectContext(ctx, &out, s.DB.Rebind(leaveSelect+" WHERE l.employee_id = ? ORDER BY l.start_date DESC"), employeeID)
	return out, err
}

// ListStartingBetween returns leaves whose start date lies in [from, to]. An
// empty status matches every status.
func (s *Store) ListStartingBetween(ctx context.Context, from, to dates.Date, status string) ([]Leave, error) {
	out := []Leave{}
	err := s.DB.SelectContext(ctx, &out, s.DB.Rebind(leaveSelect+`
    WHERE l.start_date >= ? AND l.start_date <= ? AND (? = '' OR l.status = ?)
    ORDER BY l.start_date, e.last_name, e.first_name`), from, to, status, status)
	return out, err
}

// ListOverlapping returns leaves touching [from, to].
func (s *Store) ListOverlapping(ctx context.Context, from, to dates.Date, status string) ([]Leave, error) {
	out := []Leave{}
	err := s.DB.SelectContext(ctx, &out, s.DB.Rebind(leaveSelect+`
    WHERE l.start_date <= ? AND l.end_date >= ? AND (? = '' OR l.status = ?)
    ORDER BY l.start_date, e.last_name, e.first_name`), to, from, status, status)
	return out, err
}
