// Package messaging is the inter-role messaging engine: fan-out of
// logical send requests into per-recipient rows, depth-1 reply threads,
// and read-state views derived live from the store.
package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/hazemadel/edumsg/internal/database"
	"github.com/hazemadel/edumsg/internal/directory"
	"github.com/hazemadel/edumsg/internal/logger"
	"github.com/hazemadel/edumsg/internal/models"
)

// Engine is the boundary-facing surface of the messaging service.
type Engine interface {
	Send(sender models.Actor, req models.SendRequest) (*SendResult, error)
	Reply(originalID uuid.UUID, replier models.Actor, req models.ReplyRequest) (*models.Message, error)
	Messages(actor models.Actor, opts QueryOptions) ([]*models.MessageView, error)
	Search(actor models.Actor, query string, limit int) ([]*models.MessageView, error)
	Thread(id uuid.UUID) ([]*models.MessageView, error)
	MarkRead(messageID uuid.UUID, actor models.Actor) error
	UnreadCount(actor models.Actor) (int, error)
	Notifications(actor models.Actor, limit int) ([]*models.NotificationEntry, error)
}

// Config carries the engine's injected policy knobs.
type Config struct {
	// DefaultAdminID receives direct admin-addressed messages sent
	// without an explicit admin id. Must be configured at startup; the
	// engine never falls back to "whichever admin row comes first".
	DefaultAdminID int64
}

// Service implements Engine over the shared store and the external
// directory. All reads recompute from the store; there is no cached
// unread counter to drift.
type Service struct {
	store database.Store
	dir   directory.Directory
	cfg   Config
	log   *logger.Logger
	now   func() time.Time
}

var _ Engine = (*Service)(nil)

func NewService(store database.Store, dir directory.Directory, cfg Config) *Service {
	return &Service{
		store: store,
		dir:   dir,
		cfg:   cfg,
		log:   logger.New("messaging"),
		now:   time.Now,
	}
}

// SetNowFunc overrides the engine clock, for tests.
func (s *Service) SetNowFunc(now func() time.Time) {
	s.now = now
}

// createWithNotification writes the message row and its per-recipient
// notification. The notification is a secondary view: if it fails the
// message still stands, and the feed derives from messages anyway.
func (s *Service) createWithNotification(sender, recipient models.Actor, title, content string, parentID *uuid.UUID, courseID *int64) (*models.Message, error) {
	msg, err := s.store.CreateMessage(sender, recipient, title, content, parentID, courseID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.CreateNotification(msg.ID, recipient); err != nil {
		s.log.Warn("notification for message %s not created: %v", msg.ID, err)
	}

	return msg, nil
}

// displayName resolves an actor's name through the directory, falling
// back to a generic role label when the identity store has no record.
func (s *Service) displayName(a models.Actor) string {
	name, err := s.dir.ResolveName(a)
	if err != nil {
		return roleLabel(a.Role)
	}
	return name
}

func roleLabel(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "Administration"
	case models.RoleTeacher:
		return "Teacher"
	case models.RoleStudent:
		return "Student"
	default:
		return string(role)
	}
}
