package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageTTL is the default lifetime of a message. The store stamps
// expires_at with created_at + MessageTTL when no explicit expiry is
// given, and the maintenance backfill uses the same rule.
const MessageTTL = 48 * time.Hour

// Message is a persisted, directly-addressed message row. Broadcast
// sends never reach this type as broadcasts; the fan-out resolver
// materializes one Message per concrete recipient.
type Message struct {
	ID        uuid.UUID  `json:"id"`
	Sender    Actor      `json:"sender"`
	Recipient Actor      `json:"recipient"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	IsReply   bool       `json:"is_reply"`
	IsRead    bool       `json:"is_read"`
	CourseID  *int64     `json:"course_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Expired reports whether the message is past its expiry horizon.
func (m *Message) Expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// CanReply reports whether the message may receive a reply: only
// non-expired originals qualify, threads are capped at one level.
func (m *Message) CanReply(now time.Time) bool {
	return !m.IsReply && !m.Expired(now)
}

// Notification is a thin per-recipient pointer into the message store,
// independently markable read. It is a secondary view: unread counts are
// always computed from messages, never from notification rows.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	MessageID uuid.UUID `json:"message_id"`
	Recipient Actor     `json:"recipient"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// SendRequest is the typed boundary shape for composing a message. The
// target union is validated once at the boundary; no variant tolerates
// missing fields past that point.
type SendRequest struct {
	Target  Target `json:"target" binding:"required"`
	Title   string `json:"title" binding:"required,min=1,max=200"`
	Content string `json:"content" binding:"required,min=1"`
}

// ReplyRequest carries the body of a reply. Title is optional and
// defaults to "Re: " + the original title.
type ReplyRequest struct {
	Content string `json:"content" binding:"required,min=1"`
	Title   string `json:"title"`
}

// MessageView is the list/thread representation returned to clients:
// resolved display names, truncated preview, and nested replies for
// top-level messages.
type MessageView struct {
	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title,omitempty"`
	Content      string         `json:"content"`
	Sender       Actor          `json:"sender"`
	SenderName   string         `json:"sender_name"`
	Recipient    Actor          `json:"recipient"`
	ReceiverName string         `json:"receiver_name,omitempty"`
	IsRead       bool           `json:"is_read"`
	IsReply      bool           `json:"is_reply"`
	CreatedAt    time.Time      `json:"created_at"`
	Replies      []*MessageView `json:"replies,omitempty"`
}

// NotificationEntry is one row of the notification feed shown in
// dashboard headers.
type NotificationEntry struct {
	MessageID  uuid.UUID `json:"message_id"`
	Title      string    `json:"title"`
	Preview    string    `json:"preview"`
	SenderName string    `json:"sender_name"`
	SentAgo    string    `json:"sent_ago"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}
