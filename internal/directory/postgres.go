package directory

import (
	"database/sql"
	"fmt"

	"github.com/hazemadel/edumsg/internal/models"
)

// PostgresDirectory reads the platform's identity and enrollment tables
// through a shared database handle.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// roleTable maps a role onto its identity table. Every table carries
// (id, name); login identifiers differ per role.
func roleTable(role models.Role) (string, error) {
	switch role {
	case models.RoleAdmin:
		return "admins", nil
	case models.RoleTeacher:
		return "teachers", nil
	case models.RoleStudent:
		return "students", nil
	default:
		return "", fmt.Errorf("no identity table for role %q", role)
	}
}

func loginColumn(role models.Role) string {
	if role == models.RoleAdmin {
		return "email"
	}
	return "phone_number"
}

func (d *PostgresDirectory) ResolveName(actor models.Actor) (string, error) {
	table, err := roleTable(actor.Role)
	if err != nil {
		return "", err
	}

	var name string
	err = d.db.QueryRow("SELECT name FROM "+table+" WHERE id = $1", actor.ID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (d *PostgresDirectory) LookupAccount(role models.Role, identifier string) (*Account, error) {
	table, err := roleTable(role)
	if err != nil {
		return nil, err
	}

	account := &Account{Actor: models.Actor{Role: role}}
	err = d.db.QueryRow(
		"SELECT id, name, password FROM "+table+" WHERE "+loginColumn(role)+" = $1",
		identifier,
	).Scan(&account.Actor.ID, &account.Name, &account.PasswordHash)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (d *PostgresDirectory) AllStudentIDs() ([]int64, error) {
	rows, err := d.db.Query("SELECT id FROM students ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectIDs(rows)
}

func (d *PostgresDirectory) ActiveEnrollments(courseID int64) ([]int64, error) {
	rows, err := d.db.Query(
		"SELECT student_id FROM enrollments WHERE course_id = $1 AND status = 'active' ORDER BY student_id",
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectIDs(rows)
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (d *PostgresDirectory) CourseExists(courseID int64) (bool, error) {
	var exists bool
	err := d.db.QueryRow("SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)", courseID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
