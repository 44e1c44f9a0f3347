package messaging

import (
	"github.com/hazemadel/edumsg/internal/database"
	"github.com/hazemadel/edumsg/internal/directory"
	"github.com/hazemadel/edumsg/internal/models"
)

// fakeDirectory is an in-memory Directory for engine tests.
type fakeDirectory struct {
	names       map[models.Actor]string
	studentIDs  []int64
	enrollments map[int64][]int64
	courses     map[int64]bool
	lookupErr   error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		names:       make(map[models.Actor]string),
		enrollments: make(map[int64][]int64),
		courses:     make(map[int64]bool),
	}
}

func (d *fakeDirectory) ResolveName(actor models.Actor) (string, error) {
	if d.lookupErr != nil {
		return "", d.lookupErr
	}
	if name, ok := d.names[actor]; ok {
		return name, nil
	}
	return "", directory.ErrNotFound
}

func (d *fakeDirectory) LookupAccount(role models.Role, identifier string) (*directory.Account, error) {
	return nil, directory.ErrNotFound
}

func (d *fakeDirectory) AllStudentIDs() ([]int64, error) {
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	return d.studentIDs, nil
}

func (d *fakeDirectory) ActiveEnrollments(courseID int64) ([]int64, error) {
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	return d.enrollments[courseID], nil
}

func (d *fakeDirectory) CourseExists(courseID int64) (bool, error) {
	if d.lookupErr != nil {
		return false, d.lookupErr
	}
	return d.courses[courseID], nil
}

func newTestService() (*Service, *database.MemoryStore, *fakeDirectory) {
	store := database.NewMemoryStore()
	dir := newFakeDirectory()
	svc := NewService(store, dir, Config{DefaultAdminID: 1})
	return svc, store, dir
}

var (
	admin    = models.Actor{Role: models.RoleAdmin, ID: 1}
	teacher  = models.Actor{Role: models.RoleTeacher, ID: 4}
	student1 = models.Actor{Role: models.RoleStudent, ID: 11}
	student2 = models.Actor{Role: models.RoleStudent, ID: 12}
	student3 = models.Actor{Role: models.RoleStudent, ID: 13}
)
