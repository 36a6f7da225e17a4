package enums

import (
	"fmt"
	"strings"
)

// SystemRole is the platform-wide role carried in access tokens.
type SystemRole string

const (
	SystemRoleUser  SystemRole = "user"
	SystemRoleAdmin SystemRole = "admin"
)

func (r SystemRole) String() string {
	return string(r)
}

func (r SystemRole) IsValid() bool {
	return r == SystemRoleUser || r == SystemRoleAdmin
}

// ParseSystemRole normalizes a stored role; empty input maps to SystemRoleUser.
func ParseSystemRole(value string) (SystemRole, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return SystemRoleUser, nil
	}
	role := SystemRole(normalized)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid system role %q", value)
	}
	return role, nil
}
