package messaging

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnreadCountFollowsStore(t *testing.T) {
	svc, _, _ := newTestService()

	count, err := svc.UnreadCount(student1)
	require.NoError(t, err)
	assert.Zero(t, count)

	first := sendDirect(t, svc, admin, student1, "One", "First")
	second := sendDirect(t, svc, admin, student1, "Two", "Second")

	count, err = svc.UnreadCount(student1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, svc.MarkRead(first, student1))
	count, err = svc.UnreadCount(student1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, svc.MarkRead(second, student1))
	count, err = svc.UnreadCount(student1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkReadIdempotent(t *testing.T) {
	svc, store, _ := newTestService()

	id := sendDirect(t, svc, admin, student1, "Hello", "Read me twice")

	require.NoError(t, svc.MarkRead(id, student1))
	require.NoError(t, svc.MarkRead(id, student1))

	msg, err := store.GetMessage(id)
	require.NoError(t, err)
	assert.True(t, msg.IsRead)
}

func TestMarkReadByNonRecipient(t *testing.T) {
	svc, store, _ := newTestService()

	id := sendDirect(t, svc, admin, student1, "Hello", "Private")

	err := svc.MarkRead(id, student2)
	assert.True(t, IsCode(err, CodePermissionDenied), "got %v", err)

	// Sender side cannot mark its own message read either.
	err = svc.MarkRead(id, admin)
	assert.True(t, IsCode(err, CodePermissionDenied), "got %v", err)

	msg, err := store.GetMessage(id)
	require.NoError(t, err)
	assert.False(t, msg.IsRead)
}

func TestMarkReadNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.MarkRead(uuid.New(), student1)
	assert.True(t, IsCode(err, CodeNotFound))
}

func TestNotificationsFeed(t *testing.T) {
	svc, store, dir := newTestService()
	dir.names[admin] = "Ms. Salwa"

	now := time.Now().UTC()
	store.SetNowFunc(func() time.Time { return now.Add(-3 * time.Hour) })
	older := sendDirect(t, svc, admin, student1, "Older", "An older message")
	store.SetNowFunc(func() time.Time { return now })
	newer := sendDirect(t, svc, admin, student1, "Newer", "A newer message")

	svc.SetNowFunc(func() time.Time { return now })

	entries, err := svc.Notifications(student1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, newer, entries[0].MessageID)
	assert.Equal(t, "now", entries[0].SentAgo)
	assert.Equal(t, older, entries[1].MessageID)
	assert.Equal(t, "3 hours ago", entries[1].SentAgo)
	assert.Equal(t, "Ms. Salwa", entries[0].SenderName)
	assert.False(t, entries[0].IsRead)
}

func TestNotificationsSenderNameFallback(t *testing.T) {
	svc, _, _ := newTestService()

	sendDirect(t, svc, admin, student1, "Hello", "No directory entry for the admin")

	entries, err := svc.Notifications(student1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Administration", entries[0].SenderName)
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"three days", now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"one day", now.Add(-25 * time.Hour), "1 day ago"},
		{"hours", now.Add(-5 * time.Hour), "5 hours ago"},
		{"one hour", now.Add(-90 * time.Minute), "1 hour ago"},
		{"minutes", now.Add(-45 * time.Minute), "45 minutes ago"},
		{"one minute", now.Add(-70 * time.Second), "1 minute ago"},
		{"seconds", now.Add(-30 * time.Second), "now"},
		{"same instant", now, "now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(now, tt.at))
		})
	}
}

func TestMarkReadAlsoMarksNotification(t *testing.T) {
	svc, store, _ := newTestService()

	id := sendDirect(t, svc, admin, student1, "Hello", "With notification")

	notifs, err := store.ListNotifications(student1, 10)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.False(t, notifs[0].IsRead)

	require.NoError(t, svc.MarkRead(id, student1))

	notifs, err = store.ListNotifications(student1, 10)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.True(t, notifs[0].IsRead)
}
