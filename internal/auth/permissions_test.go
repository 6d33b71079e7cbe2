package auth

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleViewer, PermTransducerRead, true},
		{RoleViewer, PermTransducerOperate, false},
		{RoleOperator, PermTransducerOperate, true},
		{RoleOperator, PermTransducerManage, false},
		{RoleAdmin, PermTransducerManage, true},
		{Role("panel"), PermTransducerRead, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.want {
				t.Errorf("HasPermission() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPermissionsForRole(t *testing.T) {
	perms := PermissionsForRole(RoleAdmin)
	if len(perms) != 3 {
		t.Fatalf("len = %d, want 3", len(perms))
	}
	perms[0] = "mutated"
	if !HasPermission(RoleAdmin, PermTransducerRead) {
		t.Error("PermissionsForRole() exposed internal slice")
	}
	if PermissionsForRole(Role("nobody")) != nil {
		t.Error("unknown role should return nil")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range ValidRoles {
		if !IsValidRole(r) {
			t.Errorf("IsValidRole(%q) = false", r)
		}
	}
	if IsValidRole("owner") {
		t.Error("IsValidRole(owner) = true")
	}
}
