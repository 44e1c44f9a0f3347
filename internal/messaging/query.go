package messaging

import (
	"github.com/hazemadel/edumsg/internal/database"
	"github.com/hazemadel/edumsg/internal/models"
)

// previewLength is how much content list views carry before truncation.
const previewLength = 100

// QueryOptions narrows a message listing.
type QueryOptions struct {
	UnreadOnly     bool
	ExcludeReplies bool
	Limit          int
}

// Messages lists the actor's messages (sent or received) newest-first.
// Top-level messages carry their replies inline, oldest-first.
func (s *Service) Messages(actor models.Actor, opts QueryOptions) ([]*models.MessageView, error) {
	if err := actor.Validate(); err != nil {
		return nil, Validationf("invalid actor: %v", err)
	}

	msgs, err := s.store.QueryMessages(database.MessageFilter{
		Actor:          &actor,
		UnreadOnly:     opts.UnreadOnly,
		ExcludeReplies: opts.ExcludeReplies,
		Limit:          opts.Limit,
	})
	if err != nil {
		return nil, fromStore(err)
	}

	views := make([]*models.MessageView, 0, len(msgs))
	for _, msg := range msgs {
		view := s.view(msg, true)
		if !msg.IsReply {
			replies, err := s.store.ListReplies(msg.ID)
			if err != nil {
				return nil, fromStore(err)
			}
			for _, reply := range replies {
				view.Replies = append(view.Replies, s.view(reply, true))
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Search matches the actor's messages by title/content substring.
func (s *Service) Search(actor models.Actor, query string, limit int) ([]*models.MessageView, error) {
	if err := actor.Validate(); err != nil {
		return nil, Validationf("invalid actor: %v", err)
	}
	if len([]rune(query)) < 2 {
		return nil, Validationf("search query must be at least 2 characters")
	}

	msgs, err := s.store.QueryMessages(database.MessageFilter{
		Actor:  &actor,
		Search: query,
		Limit:  limit,
	})
	if err != nil {
		return nil, fromStore(err)
	}

	views := make([]*models.MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, s.view(msg, true))
	}
	return views, nil
}

// view builds the client representation of a message. Preview views
// truncate content; thread views carry it whole.
func (s *Service) view(msg *models.Message, preview bool) *models.MessageView {
	content := msg.Content
	if preview {
		content = truncate(content, previewLength)
	}

	v := &models.MessageView{
		ID:         msg.ID,
		Title:      msg.Title,
		Content:    content,
		Sender:     msg.Sender,
		SenderName: s.displayName(msg.Sender),
		Recipient:  msg.Recipient,
		IsRead:     msg.IsRead,
		IsReply:    msg.IsReply,
		CreatedAt:  msg.CreatedAt,
	}
	if !msg.IsReply {
		v.ReceiverName = s.displayName(msg.Recipient)
	}
	return v
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
