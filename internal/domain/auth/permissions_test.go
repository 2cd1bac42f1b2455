package auth

import (
	"context"
	"testing"
)

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}

	for role, perms := range RolePermissions {
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

func TestDefaultPermissionsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		if _, ok := seen[perm]; ok {
			t.Fatalf("duplicate permission %s", perm)
		}
		seen[perm] = struct{}{}
	}
}

func TestUserRoleLacksAdminPermissions(t *testing.T) {
	perms := StaticPermissions{}
	for _, perm := range []string{PermUsersManage, PermSystemRestore, PermAuditRead} {
		ok, err := perms.HasPermission(context.Background(), RoleUser, perm)
		if err != nil || ok {
			t.Fatalf("user role unexpectedly holds %s", perm)
		}
		ok, err = perms.HasPermission(context.Background(), RoleAdmin, perm)
		if err != nil || !ok {
			t.Fatalf("admin role should hold %s", perm)
		}
	}
	if ok, _ := perms.HasPermission(context.Background(), "ghost", PermLeaveRead); ok {
		t.Fatal("unknown role must hold nothing")
	}
}
