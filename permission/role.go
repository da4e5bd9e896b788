package permission

import "strings"

// DefaultPrivilegedMarker is the substring identifying administrator-class roles.
const DefaultPrivilegedMarker = "ADMIN"

// Class is the normalized role class of an identity.
type Class uint8

const (
	// ClassDefault is the customer-class role.
	ClassDefault Class = iota
	// ClassPrivileged is the administrator-class role.
	ClassPrivileged
)

func (c Class) String() string {
	if c == ClassPrivileged {
		return "privileged"
	}
	return "default"
}

// Classifier maps raw role strings to a [Class].
//
// The zero value uses [DefaultPrivilegedMarker].
type Classifier struct {
	marker string
}

// NewClassifier returns a classifier for the given privileged marker. An empty marker
// falls back to [DefaultPrivilegedMarker].
func NewClassifier(marker string) Classifier {
	return Classifier{marker: strings.ToUpper(strings.TrimSpace(marker))}
}

func (c Classifier) privilegedMarker() string {
	if c.marker == "" {
		return DefaultPrivilegedMarker
	}
	return c.marker
}

// Classify returns the class of role.
func (c Classifier) Classify(role string) Class {
	if role == "" {
		return ClassDefault
	}
	if strings.Contains(strings.ToUpper(role), c.privilegedMarker()) {
		return ClassPrivileged
	}
	return ClassDefault
}

// IsPrivileged reports whether role contains the privileged marker.
func (c Classifier) IsPrivileged(role string) bool {
	return c.Classify(role) == ClassPrivileged
}

// Satisfies reports whether role meets req.
func (c Classifier) Satisfies(role string, req Requirement) bool {
	switch req {
	case RequirePrivileged:
		return c.IsPrivileged(role)
	case RequireDefault:
		return !c.IsPrivileged(role)
	default:
		return true
	}
}

// Normalize strips the formatting noise seen on upstream role values: surrounding
// whitespace, brackets and quotes. "[ROLE_ADMIN]" becomes "ROLE_ADMIN".
//
// Normalize is for display and result values only; classification never depends on it.
func Normalize(role string) string {
	return strings.Trim(strings.TrimSpace(role), "[]\"' ")
}
