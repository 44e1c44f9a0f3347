package messaging

import (
	"github.com/google/uuid"

	"github.com/hazemadel/edumsg/internal/models"
)

// Reply attaches a reply to an existing message. Replies always flow
// back to the original sender, threads are capped at one level, and
// expired messages take no replies.
func (s *Service) Reply(originalID uuid.UUID, replier models.Actor, req models.ReplyRequest) (*models.Message, error) {
	if err := replier.Validate(); err != nil {
		return nil, Validationf("invalid replier: %v", err)
	}
	if req.Content == "" {
		return nil, Validationf("content is required")
	}

	original, err := s.store.GetMessage(originalID)
	if err != nil {
		return nil, fromStore(err)
	}

	if replier != original.Recipient {
		return nil, PermissionDeniedf("only the recipient can reply to this message")
	}
	if original.IsReply {
		return nil, InvalidStatef("cannot reply to a reply")
	}
	if original.Expired(s.now()) {
		return nil, InvalidStatef("message has expired")
	}

	title := req.Title
	if title == "" {
		title = "Re: " + original.Title
	}

	msg, err := s.createWithNotification(replier, original.Sender, title, req.Content, &originalID, original.CourseID)
	if err != nil {
		return nil, fromStore(err)
	}
	return msg, nil
}

// Thread returns a conversation as [original] followed by its replies
// ordered oldest-first. Bounded by the depth-1 cap, so always small.
func (s *Service) Thread(id uuid.UUID) ([]*models.MessageView, error) {
	original, err := s.store.GetMessage(id)
	if err != nil {
		return nil, fromStore(err)
	}

	replies, err := s.store.ListReplies(id)
	if err != nil {
		return nil, fromStore(err)
	}

	thread := make([]*models.MessageView, 0, len(replies)+1)
	thread = append(thread, s.view(original, false))
	for _, reply := range replies {
		thread = append(thread, s.view(reply, false))
	}
	return thread, nil
}
