package domain

import "strings"

// Role is a capability tag held by an account. An account may hold any
// number of roles; authorization is plain set membership.
type Role string

const (
	RoleAdmin    Role = "admin"
	RolePauser   Role = "pauser"
	RoleOperator Role = "operator"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RolePauser:
		return RolePauser, nil
	case RoleOperator:
		return RoleOperator, nil
	default:
		return "", ErrInvalidInput
	}
}
