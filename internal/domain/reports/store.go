package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"cityhr/internal/domain/dates"
)

// Store runs the aggregate queries behind the dashboard.
type Store struct {
	DB *sqlx.DB
}

func NewStore(conn *sqlx.DB) *Store {
	return &Store{DB: conn}
}

func (s *Store) CountEmployees(ctx context.Context, status string) (int, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind("SELECT COUNT(1) FROM employees WHERE (? = '' OR status = ?)"), status, status)
	return count, err
}

// EmployeesOnLeave counts distinct employees with an approved leave touching
// [from, to].
func (s *Store) EmployeesOnLeave(ctx context.Context, from, to dates.Date) (int, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind(`
    SELECT COUNT(DISTINCT employee_id)
    FROM leaves
    WHERE status = 'approved' AND start_date <= ? AND end_date >= ?
  `), to, from)
	return count, err
}

// BirthdaysInMonth counts active employees born in month. Birth dates are
// stored as yyyy-mm-dd.
func (s *Store) BirthdaysInMonth(ctx context.Context, month time.Month) (int, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind(`
    SELECT COUNT(1)
    FROM employees
    WHERE status = 'active' AND birth_date IS NOT NULL AND substr(birth_date, 6, 2) = ?
  `), fmt.Sprintf("%02d", int(month)))
	return count, err
}

func (s *Store) LeavesStartingBetween(ctx context.Context, from, to dates.Date) (int, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind(`
    SELECT COUNT(1)
    FROM leaves
    WHERE status = 'approved' AND start_date >= ? AND start_date <= ?
  `), from, to)
	return count, err
}
