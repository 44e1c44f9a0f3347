package models

import "fmt"

// Role identifies which identity store an actor belongs to.
// The set is open: the engine validates against the known roles here but
// persists the raw string, so adding a role is a data change rather than
// a schema change.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// KnownRoles lists every role the platform currently recognizes.
var KnownRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range KnownRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Actor is a (role, id) pair identifying a message participant.
// Display names are resolved through the directory on demand and never
// embedded here, so they cannot go stale.
type Actor struct {
	Role Role  `json:"role"`
	ID   int64 `json:"id"`
}

func (a Actor) String() string {
	return fmt.Sprintf("%s/%d", a.Role, a.ID)
}

// Validate checks the actor has a known role and a positive id.
func (a Actor) Validate() error {
	if !a.Role.Valid() {
		return fmt.Errorf("unknown role %q", a.Role)
	}
	if a.ID <= 0 {
		return fmt.Errorf("actor id must be positive, got %d", a.ID)
	}
	return nil
}
