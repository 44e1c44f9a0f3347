package models

import "fmt"

// TargetKind discriminates the addressing union.
type TargetKind string

const (
	TargetDirect         TargetKind = "direct"
	TargetAllStudents    TargetKind = "all_students"
	TargetCourseStudents TargetKind = "course_students"
)

// Target is the addressing side of a send request. Broadcast kinds are
// only legal on the logical request; every persisted message carries a
// direct target, fan-out materializes one row per resolved recipient.
type Target struct {
	Kind     TargetKind `json:"kind"`
	Actor    Actor      `json:"actor,omitzero"`
	CourseID int64      `json:"course_id,omitempty"`
}

func DirectTarget(a Actor) Target {
	return Target{Kind: TargetDirect, Actor: a}
}

func AllStudentsTarget() Target {
	return Target{Kind: TargetAllStudents}
}

func CourseStudentsTarget(courseID int64) Target {
	return Target{Kind: TargetCourseStudents, CourseID: courseID}
}

// Broadcast reports whether the target expands to multiple recipients.
func (t Target) Broadcast() bool {
	return t.Kind == TargetAllStudents || t.Kind == TargetCourseStudents
}

// Validate checks that exactly the fields the kind needs are present.
// An admin recipient with id 0 is allowed on direct targets; the engine
// rewrites it to the configured default admin before anything is stored.
func (t Target) Validate() error {
	switch t.Kind {
	case TargetDirect:
		if !t.Actor.Role.Valid() {
			return fmt.Errorf("direct target: unknown role %q", t.Actor.Role)
		}
		if t.Actor.ID < 0 {
			return fmt.Errorf("direct target: actor id must not be negative")
		}
		if t.Actor.ID == 0 && t.Actor.Role != RoleAdmin {
			return fmt.Errorf("direct target: %s id is required", t.Actor.Role)
		}
		if t.CourseID != 0 {
			return fmt.Errorf("direct target: course_id must not be set")
		}
	case TargetAllStudents:
		if t.Actor != (Actor{}) || t.CourseID != 0 {
			return fmt.Errorf("all_students target: no actor or course_id allowed")
		}
	case TargetCourseStudents:
		if t.CourseID <= 0 {
			return fmt.Errorf("course_students target: course_id is required")
		}
		if t.Actor != (Actor{}) {
			return fmt.Errorf("course_students target: no actor allowed")
		}
	default:
		return fmt.Errorf("unknown target kind %q", t.Kind)
	}
	return nil
}
