package domain

// Role is the coarse authoring role supplied by the authorization collaborator.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// rank orders roles so a higher role satisfies a lower requirement.
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// Satisfies reports whether r grants at least the required role.
func (r Role) Satisfies(required Role) bool {
	return r.rank() >= required.rank()
}

// AuthContext contains authenticated caller info for request context
type AuthContext struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// Require returns a PermissionError unless the caller holds the role.
func (a *AuthContext) Require(required Role) error {
	if a == nil {
		return &PermissionError{Required: required}
	}
	if !a.Role.Satisfies(required) {
		return &PermissionError{Required: required, Actual: a.Role}
	}
	return nil
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
