// Package directory resolves actor references against the platform's
// identity stores (admins, teachers, students) and the enrollment
// records. The messaging engine does not own any of these tables; it
// only reads them through this interface.
package directory

import (
	"errors"

	"github.com/hazemadel/edumsg/internal/models"
)

var (
	ErrNotFound = errors.New("directory: not found")
)

// Account is an identity-store record with enough detail to
// authenticate and display an actor.
type Account struct {
	Actor        models.Actor
	Name         string
	PasswordHash string
}

type Directory interface {
	// ResolveName returns the display name for an actor, ErrNotFound if
	// the identity store has no such record.
	ResolveName(actor models.Actor) (string, error)
	// LookupAccount finds an account by its login identifier: email for
	// admins, phone number for teachers and students.
	LookupAccount(role models.Role, identifier string) (*Account, error)
	// AllStudentIDs enumerates every student, for all-students fan-out.
	AllStudentIDs() ([]int64, error)
	// ActiveEnrollments returns the student ids actively enrolled in a
	// course, for course fan-out.
	ActiveEnrollments(courseID int64) ([]int64, error)
	CourseExists(courseID int64) (bool, error)
}
