package leave

import (
	"context"

	"cityhr/internal/domain/dates"
)

type StoreAPI interface {
	ListTypes(ctx context.Context) ([]LeaveType, error)
	GetType(ctx context.Context, id string) (LeaveType, error)
	CreateType(ctx context.Context, lt LeaveType) error
	DeleteType(ctx context.Context, id string) error
	TypeNameExists(ctx context.Context, name string) (bool, error)
	TypeInUse(ctx context.Context, id string) (bool, error)
	EmployeeExists(ctx context.Context, employeeID string) (bool, error)
	Create(ctx context.Context, l Leave) error
	Update(ctx context.Context, l Leave) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Leave, error)
	ListRecent(ctx context.Context, limit int) ([]Leave, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]Leave, error)
	ListStartingBetween(ctx context.Context, from, to dates.Date, status string) ([]Leave, error)
	ListOverlapping(ctx context.Context, from, to dates.Date, status string) ([]Leave, error)
}

var _ StoreAPI = (*Store)(nil)
