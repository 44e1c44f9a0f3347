package database

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazemadel/edumsg/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local development.
// It mirrors the postgres backend's semantics, including the read-state
// asymmetry of the expiry queries.
type MemoryStore struct {
	mu            sync.Mutex
	messages      map[uuid.UUID]*models.Message
	notifications map[uuid.UUID]*models.Notification
	seq           map[uuid.UUID]int64
	nextSeq       int64
	nowFunc       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages:      make(map[uuid.UUID]*models.Message),
		notifications: make(map[uuid.UUID]*models.Notification),
		seq:           make(map[uuid.UUID]int64),
		nowFunc:       time.Now,
	}
}

// SetNowFunc overrides the store's clock. Tests use it to create
// messages in the past.
func (s *MemoryStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = now
}

func (s *MemoryStore) CreateMessage(sender, recipient models.Actor, title, content string, parentID *uuid.UUID, courseID *int64) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parent *models.Message
	if parentID != nil {
		var ok bool
		parent, ok = s.messages[*parentID]
		if !ok {
			return nil, ErrMessageNotFound
		}
	}

	if err := validateNewMessage(sender, recipient, title, content, parent); err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	msg := &models.Message{
		ID:        uuid.New(),
		Sender:    sender,
		Recipient: recipient,
		Title:     title,
		Content:   content,
		ParentID:  parentID,
		IsReply:   parentID != nil,
		CourseID:  courseID,
		CreatedAt: now,
		ExpiresAt: now.Add(models.MessageTTL),
	}

	s.messages[msg.ID] = msg
	s.nextSeq++
	s.seq[msg.ID] = s.nextSeq

	out := *msg
	return &out, nil
}

func (s *MemoryStore) GetMessage(id uuid.UUID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}

	out := *msg
	return &out, nil
}

func (s *MemoryStore) MarkMessageRead(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}

	msg.IsRead = true
	return nil
}

func (s *MemoryStore) QueryMessages(f MessageFilter) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Message
	for _, msg := range s.messages {
		if f.Actor != nil && msg.Sender != *f.Actor && msg.Recipient != *f.Actor {
			continue
		}
		if f.Recipient != nil && msg.Recipient != *f.Recipient {
			continue
		}
		if f.UnreadOnly && msg.IsRead {
			continue
		}
		if f.Since != nil && msg.CreatedAt.Before(*f.Since) {
			continue
		}
		if f.Until != nil && !msg.CreatedAt.Before(*f.Until) {
			continue
		}
		if f.ExcludeReplies && msg.IsReply {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(msg.Title), q) &&
				!strings.Contains(strings.ToLower(msg.Content), q) {
				continue
			}
		}
		out := *msg
		matched = append(matched, &out)
	}

	s.sortNewestFirst(matched)

	limit := clampLimit(f.Limit)
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

func (s *MemoryStore) sortNewestFirst(msgs []*models.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
		}
		return s.seq[msgs[i].ID] > s.seq[msgs[j].ID]
	})
}

func (s *MemoryStore) ListReplies(parentID uuid.UUID) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var replies []*models.Message
	for _, msg := range s.messages {
		if msg.ParentID != nil && *msg.ParentID == parentID {
			out := *msg
			replies = append(replies, &out)
		}
	}

	sort.Slice(replies, func(i, j int) bool {
		if !replies[i].CreatedAt.Equal(replies[j].CreatedAt) {
			return replies[i].CreatedAt.Before(replies[j].CreatedAt)
		}
		return s.seq[replies[i].ID] < s.seq[replies[j].ID]
	})

	return replies, nil
}

func (s *MemoryStore) CountUnread(recipient models.Actor) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, msg := range s.messages {
		if msg.Recipient == recipient && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CreateNotification(messageID uuid.UUID, recipient models.Actor) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &models.Notification{
		ID:        uuid.New(),
		MessageID: messageID,
		Recipient: recipient,
		CreatedAt: s.nowFunc().UTC(),
	}
	s.notifications[n.ID] = n
	s.nextSeq++
	s.seq[n.ID] = s.nextSeq

	out := *n
	return &out, nil
}

func (s *MemoryStore) ListNotifications(recipient models.Actor, limit int) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Notification
	for _, n := range s.notifications {
		if n.Recipient == recipient {
			out := *n
			matched = append(matched, &out)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return s.seq[matched[i].ID] > s.seq[matched[j].ID]
	})

	clamped := clampLimit(limit)
	if len(matched) > clamped {
		matched = matched[:clamped]
	}

	return matched, nil
}

func (s *MemoryStore) MarkNotificationRead(messageID uuid.UUID, recipient models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.MessageID == messageID && n.Recipient == recipient {
			n.IsRead = true
		}
	}
	return nil
}

func (s *MemoryStore) CountNotifications(messageIDs []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[uuid.UUID]bool, len(messageIDs))
	for _, id := range messageIDs {
		ids[id] = true
	}

	var count int64
	for _, n := range s.notifications {
		if ids[n.MessageID] {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) expired(msg *models.Message, before time.Time, includeRead bool) bool {
	if msg.ExpiresAt.IsZero() || !msg.ExpiresAt.Before(before) {
		return false
	}
	if !includeRead && msg.IsRead {
		return false
	}
	return true
}

func (s *MemoryStore) ListExpired(before time.Time, includeRead bool) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Message
	for _, msg := range s.messages {
		if s.expired(msg, before, includeRead) {
			out := *msg
			matched = append(matched, &out)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return s.seq[matched[i].ID] < s.seq[matched[j].ID]
	})

	return matched, nil
}

// deleteLocked removes a message with its notifications and cascades to
// its replies and their notifications, matching the postgres foreign
// keys. Returns the number of notifications removed. Caller holds the
// lock.
func (s *MemoryStore) deleteLocked(id uuid.UUID) int64 {
	var notifDeleted int64
	for nid, n := range s.notifications {
		if n.MessageID == id {
			delete(s.notifications, nid)
			notifDeleted++
		}
	}

	delete(s.messages, id)

	for mid, msg := range s.messages {
		if msg.ParentID != nil && *msg.ParentID == id {
			notifDeleted += s.deleteLocked(mid)
		}
	}

	return notifDeleted
}

func (s *MemoryStore) DeleteMessage(id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return 0, ErrMessageNotFound
	}

	return s.deleteLocked(id), nil
}

func (s *MemoryStore) DeleteExpired(before time.Time, includeRead bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []uuid.UUID
	for id, msg := range s.messages {
		if s.expired(msg, before, includeRead) {
			matched = append(matched, id)
		}
	}

	var deleted int64
	for _, id := range matched {
		// A reply already cascaded away with its parent is not counted,
		// mirroring the rows-affected count of the postgres delete.
		if _, ok := s.messages[id]; !ok {
			continue
		}
		s.deleteLocked(id)
		deleted++
	}

	return deleted, nil
}

func (s *MemoryStore) BackfillExpiry(ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for _, msg := range s.messages {
		if msg.ExpiresAt.IsZero() {
			msg.ExpiresAt = msg.CreatedAt.Add(ttl)
			updated++
		}
	}
	return updated, nil
}

// ClearExpiry drops a message's expiry horizon, simulating a row that
// predates expiry stamping. Only the memory backend has this; it exists
// for backfill tests.
func (s *MemoryStore) ClearExpiry(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	msg.ExpiresAt = time.Time{}
	return nil
}

func (s *MemoryStore) CountMissingExpiry() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, msg := range s.messages {
		if msg.ExpiresAt.IsZero() {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountOrphanedNotifications() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, n := range s.notifications {
		if _, ok := s.messages[n.MessageID]; !ok {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) DeleteOrphanedNotifications() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, n := range s.notifications {
		if _, ok := s.messages[n.MessageID]; !ok {
			delete(s.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
