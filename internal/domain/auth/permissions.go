package auth

import "context"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	PermEmployeesRead  = "employees.read"
	PermEmployeesWrite = "employees.write"
	PermLeaveRead      = "leave.read"
	PermLeaveWrite     = "leave.write"
	PermMailRead       = "mail.read"
	PermMailWrite      = "mail.write"
	PermReportsRead    = "reports.read"
	PermOCRUse         = "ocr.use"
	PermSystemBackup   = "system.backup"
	PermSystemRestore  = "system.restore"
	PermUsersManage    = "users.manage"
	PermAuditRead      = "audit.read"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermLeaveRead,
	PermLeaveWrite,
	PermMailRead,
	PermMailWrite,
	PermReportsRead,
	PermOCRUse,
	PermSystemBackup,
	PermSystemRestore,
	PermUsersManage,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleUser: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermMailRead,
		PermMailWrite,
		PermReportsRead,
		PermOCRUse,
		PermSystemBackup,
	},
	RoleAdmin: DefaultPermissions,
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// StaticPermissions resolves permissions from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}
