package messaging

import (
	"github.com/google/uuid"

	"github.com/hazemadel/edumsg/internal/models"
)

// SendResult reports the outcome of one logical send request. Broadcast
// fan-out is at-least-once with per-recipient isolation, so a result can
// carry both created ids and failures.
type SendResult struct {
	MessageIDs []uuid.UUID        `json:"message_ids"`
	Failures   []RecipientFailure `json:"failures,omitempty"`
	Recipients int                `json:"recipients"`
}

// RecipientFailure names one recipient whose message could not be
// created during fan-out.
type RecipientFailure struct {
	Recipient models.Actor `json:"recipient"`
	Reason    string       `json:"reason"`
}

// Send expands one logical send request into concrete message rows:
// one for a direct target, one per resolved student for a broadcast.
// This is the only write path for non-reply messages.
func (s *Service) Send(sender models.Actor, req models.SendRequest) (*SendResult, error) {
	if err := sender.Validate(); err != nil {
		return nil, Validationf("invalid sender: %v", err)
	}
	if err := req.Target.Validate(); err != nil {
		return nil, Validationf("%v", err)
	}
	if req.Title == "" {
		return nil, Validationf("title is required")
	}
	if req.Content == "" {
		return nil, Validationf("content is required")
	}

	switch req.Target.Kind {
	case models.TargetDirect:
		recipient := req.Target.Actor
		if recipient.Role == models.RoleAdmin && recipient.ID == 0 {
			if s.cfg.DefaultAdminID <= 0 {
				return nil, Validationf("no default admin configured")
			}
			recipient.ID = s.cfg.DefaultAdminID
		}

		msg, err := s.createWithNotification(sender, recipient, req.Title, req.Content, nil, nil)
		if err != nil {
			return nil, fromStore(err)
		}
		return &SendResult{MessageIDs: []uuid.UUID{msg.ID}, Recipients: 1}, nil

	case models.TargetAllStudents:
		studentIDs, err := s.dir.AllStudentIDs()
		if err != nil {
			return nil, ExternalLookupErr(err, "student enumeration failed")
		}
		return s.fanOut(sender, studentIDs, nil, req), nil

	case models.TargetCourseStudents:
		exists, err := s.dir.CourseExists(req.Target.CourseID)
		if err != nil {
			return nil, ExternalLookupErr(err, "course lookup failed")
		}
		if !exists {
			return nil, NotFoundf("course %d not found", req.Target.CourseID)
		}

		studentIDs, err := s.dir.ActiveEnrollments(req.Target.CourseID)
		if err != nil {
			return nil, ExternalLookupErr(err, "enrollment lookup failed")
		}
		courseID := req.Target.CourseID
		return s.fanOut(sender, studentIDs, &courseID, req), nil
	}

	return nil, Validationf("unknown target kind %q", req.Target.Kind)
}

// fanOut creates one message per resolved student. Each creation is
// independent: one bad recipient never rolls back rows already written.
// A sender resolved among its own recipients is skipped.
func (s *Service) fanOut(sender models.Actor, studentIDs []int64, courseID *int64, req models.SendRequest) *SendResult {
	result := &SendResult{}
	for _, id := range studentIDs {
		recipient := models.Actor{Role: models.RoleStudent, ID: id}
		if recipient == sender {
			continue
		}
		result.Recipients++

		msg, err := s.createWithNotification(sender, recipient, req.Title, req.Content, nil, courseID)
		if err != nil {
			s.log.Warn("fan-out to %s failed: %v", recipient, err)
			result.Failures = append(result.Failures, RecipientFailure{
				Recipient: recipient,
				Reason:    err.Error(),
			})
			continue
		}
		result.MessageIDs = append(result.MessageIDs, msg.ID)
	}

	s.log.Info("fan-out by %s: %d recipients, %d created, %d failed",
		sender, result.Recipients, len(result.MessageIDs), len(result.Failures))
	return result
}
