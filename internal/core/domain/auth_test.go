package domain

import (
	"errors"
	"testing"
)

func TestRoleSatisfies(t *testing.T) {
	tests := []struct {
		role     Role
		required Role
		expected bool
	}{
		{RoleAdmin, RoleEditor, true},
		{RoleAdmin, RoleViewer, true},
		{RoleEditor, RoleEditor, true},
		{RoleEditor, RoleAdmin, false},
		{RoleViewer, RoleEditor, false},
		{Role("guest"), RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"->"+string(tt.required), func(t *testing.T) {
			if got := tt.role.Satisfies(tt.required); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestAuthContextRequire(t *testing.T) {
	editor := &AuthContext{UserID: "u1", Role: RoleEditor}
	if err := editor.Require(RoleEditor); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := editor.Require(RoleAdmin)
	var perm *PermissionError
	if !errors.As(err, &perm) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	if perm.Actual != RoleEditor || perm.Required != RoleAdmin {
		t.Errorf("unexpected roles in %v", perm)
	}

	var anonymous *AuthContext
	if !errors.Is(anonymous.Require(RoleViewer), ErrForbidden) {
		t.Error("expected nil auth context to be forbidden")
	}
}
