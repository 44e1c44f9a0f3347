package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hazemadel/edumsg/internal/models"
)

var (
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidMessage       = errors.New("invalid message")
)

const (
	// DefaultQueryLimit applies when a caller does not supply a limit.
	DefaultQueryLimit = 20
	// MaxQueryLimit caps any caller-supplied limit.
	MaxQueryLimit = 50
)

// MessageFilter narrows QueryMessages. Zero values mean "no constraint".
type MessageFilter struct {
	// Actor matches messages where the actor is sender OR recipient.
	Actor *models.Actor
	// Recipient matches the recipient side only.
	Recipient *models.Actor
	// UnreadOnly keeps unread messages.
	UnreadOnly bool
	// Since/Until bound created_at (inclusive lower, exclusive upper).
	Since *time.Time
	Until *time.Time
	// ExcludeReplies keeps top-level messages only.
	ExcludeReplies bool
	// Search does a case-insensitive substring match on title and content.
	Search string
	// Limit caps results; 0 means DefaultQueryLimit, anything above
	// MaxQueryLimit is clamped.
	Limit int
}

// Store is the single shared mutable resource of the messaging engine.
// Every component goes through this contract; nothing reaches into the
// underlying tables directly.
type Store interface {
	// CreateMessage persists one directly-addressed message. It rejects
	// empty titles/content, a parent that is itself a reply, and a parent
	// whose sender does not match the recipient (replies flow back to the
	// original sender). expires_at is stamped created_at + models.MessageTTL.
	CreateMessage(sender, recipient models.Actor, title, content string, parentID *uuid.UUID, courseID *int64) (*models.Message, error)
	GetMessage(id uuid.UUID) (*models.Message, error)
	// MarkMessageRead is idempotent; marking an already-read message is a
	// no-op. Returns ErrMessageNotFound for unknown ids.
	MarkMessageRead(id uuid.UUID) error
	// QueryMessages returns matches ordered newest-first.
	QueryMessages(f MessageFilter) ([]*models.Message, error)
	// ListReplies returns the replies of a message ordered oldest-first.
	ListReplies(parentID uuid.UUID) ([]*models.Message, error)
	CountUnread(recipient models.Actor) (int, error)

	CreateNotification(messageID uuid.UUID, recipient models.Actor) (*models.Notification, error)
	ListNotifications(recipient models.Actor, limit int) ([]*models.Notification, error)
	// MarkNotificationRead marks the recipient's notification for a
	// message read. Missing notifications are not an error: the rows are a
	// secondary view and older messages may never have had one.
	MarkNotificationRead(messageID uuid.UUID, recipient models.Actor) error
	CountNotifications(messageIDs []uuid.UUID) (int64, error)

	// ListExpired returns messages whose expiry horizon is before the
	// given time. With includeRead=false only unread expired messages are
	// returned; read ones are retained.
	ListExpired(before time.Time, includeRead bool) ([]*models.Message, error)
	// DeleteMessage removes a message and its notifications, notifications
	// first. Returns the number of notifications removed.
	DeleteMessage(id uuid.UUID) (int64, error)
	// DeleteExpired bulk-deletes expired messages, same read-state
	// asymmetry as ListExpired. Returns the number of messages removed.
	DeleteExpired(before time.Time, includeRead bool) (int64, error)
	// BackfillExpiry stamps created_at + ttl onto messages missing an
	// expiry. Idempotent: a second run changes nothing.
	BackfillExpiry(ttl time.Duration) (int64, error)
	CountMissingExpiry() (int64, error)
	// DeleteOrphanedNotifications removes notifications whose message no
	// longer exists.
	DeleteOrphanedNotifications() (int64, error)
	CountOrphanedNotifications() (int64, error)

	Close() error
}

// StoreType selects a Store backend.
type StoreType string

const (
	PostgreSQL StoreType = "postgres"
	InMemory   StoreType = "memory"
)

// NewStore creates a Store of the given type. The memory backend ignores
// connStr; it exists for tests and local development.
func NewStore(storeType StoreType, connStr string) (Store, error) {
	switch storeType {
	case PostgreSQL:
		return NewPostgresStore(connStr)
	case InMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}

// clampLimit resolves a caller-supplied limit against the defaults.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}

// validateNewMessage holds the store-level invariants for creation.
// Content length caps are deliberately not enforced here; those are a
// boundary concern.
func validateNewMessage(sender, recipient models.Actor, title, content string, parent *models.Message) error {
	if err := sender.Validate(); err != nil {
		return fmt.Errorf("%w: sender: %v", ErrInvalidMessage, err)
	}
	if err := recipient.Validate(); err != nil {
		return fmt.Errorf("%w: recipient: %v", ErrInvalidMessage, err)
	}
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMessage)
	}
	if content == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidMessage)
	}
	if parent != nil {
		if parent.IsReply {
			return fmt.Errorf("%w: parent is itself a reply", ErrInvalidMessage)
		}
		if parent.Sender != recipient {
			return fmt.Errorf("%w: reply must address the original sender", ErrInvalidMessage)
		}
	}
	return nil
}
