package permission

import (
	"errors"
	"strings"
)

// ErrUnknownRequirement is returned by [ParseRequirement] for unrecognized role names.
var ErrUnknownRequirement = errors.New("unknown role requirement")

// Requirement is the role a route demands.
type Requirement uint8

const (
	// RequireNone places no role constraint.
	RequireNone Requirement = iota
	// RequireDefault admits only non-privileged identities.
	RequireDefault
	// RequirePrivileged admits only privileged identities.
	RequirePrivileged
)

func (r Requirement) String() string {
	switch r {
	case RequirePrivileged:
		return "admin"
	case RequireDefault:
		return "customer"
	default:
		return ""
	}
}

// ParseRequirement maps a route table role name to a Requirement.
func ParseRequirement(name string) (Requirement, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return RequireNone, nil
	case "admin", "administrator", "privileged":
		return RequirePrivileged, nil
	case "customer", "user", "default":
		return RequireDefault, nil
	default:
		return RequireNone, ErrUnknownRequirement
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Requirement) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Requirement) UnmarshalText(text []byte) error {
	parsed, err := ParseRequirement(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
