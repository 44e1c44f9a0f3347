package messaging

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hazemadel/edumsg/internal/database"
	"github.com/hazemadel/edumsg/internal/models"
)

// UnreadCount counts the actor's unread messages straight off the
// store, so it is correct immediately after any create or mark-read.
func (s *Service) UnreadCount(actor models.Actor) (int, error) {
	if err := actor.Validate(); err != nil {
		return 0, Validationf("invalid actor: %v", err)
	}

	count, err := s.store.CountUnread(actor)
	if err != nil {
		return 0, fromStore(err)
	}
	return count, nil
}

// Notifications returns the actor's feed, newest-first, each entry with
// the resolved sender name and a relative timestamp.
func (s *Service) Notifications(actor models.Actor, limit int) ([]*models.NotificationEntry, error) {
	if err := actor.Validate(); err != nil {
		return nil, Validationf("invalid actor: %v", err)
	}

	msgs, err := s.store.QueryMessages(database.MessageFilter{
		Recipient: &actor,
		Limit:     limit,
	})
	if err != nil {
		return nil, fromStore(err)
	}

	now := s.now()
	entries := make([]*models.NotificationEntry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, &models.NotificationEntry{
			MessageID:  msg.ID,
			Title:      msg.Title,
			Preview:    truncate(msg.Content, previewLength),
			SenderName: s.displayName(msg.Sender),
			SentAgo:    RelativeTime(now, msg.CreatedAt),
			IsRead:     msg.IsRead,
			CreatedAt:  msg.CreatedAt,
		})
	}
	return entries, nil
}

// MarkRead marks a message read on behalf of an actor. Only the
// declared recipient may do so; the operation is idempotent.
func (s *Service) MarkRead(messageID uuid.UUID, actor models.Actor) error {
	msg, err := s.store.GetMessage(messageID)
	if err != nil {
		return fromStore(err)
	}

	if msg.Recipient != actor {
		return PermissionDeniedf("only the recipient can mark this message read")
	}

	if err := s.store.MarkMessageRead(messageID); err != nil {
		return fromStore(err)
	}

	if err := s.store.MarkNotificationRead(messageID, actor); err != nil {
		s.log.Warn("notification read-state for message %s not updated: %v", messageID, err)
	}
	return nil
}

// RelativeTime renders how long ago t was, as shown in notification
// feeds: whole days, then hours, then minutes, then "now".
func RelativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d >= 24*time.Hour:
		return agof(int(d/(24*time.Hour)), "day")
	case d >= time.Hour:
		return agof(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return agof(int(d/time.Minute), "minute")
	default:
		return "now"
	}
}

func agof(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
