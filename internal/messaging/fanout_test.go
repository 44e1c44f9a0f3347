package messaging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazemadel/edumsg/internal/models"
)

func TestSendDirect(t *testing.T) {
	svc, store, _ := newTestService()

	result, err := svc.Send(admin, models.SendRequest{
		Target:  models.DirectTarget(student1),
		Title:   "Schedule change",
		Content: "Class moved to 4pm",
	})
	require.NoError(t, err)
	require.Len(t, result.MessageIDs, 1)
	assert.Equal(t, 1, result.Recipients)
	assert.Empty(t, result.Failures)

	msg, err := store.GetMessage(result.MessageIDs[0])
	require.NoError(t, err)
	assert.Equal(t, admin, msg.Sender)
	assert.Equal(t, student1, msg.Recipient)
	assert.False(t, msg.IsRead)
	assert.False(t, msg.IsReply)
	assert.Equal(t, msg.CreatedAt.Add(models.MessageTTL), msg.ExpiresAt)

	count, err := store.CountUnread(student1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSendDirectDefaultAdmin(t *testing.T) {
	svc, store, _ := newTestService()

	result, err := svc.Send(student1, models.SendRequest{
		Target:  models.DirectTarget(models.Actor{Role: models.RoleAdmin}),
		Title:   "Question",
		Content: "When does enrollment close?",
	})
	require.NoError(t, err)

	msg, err := store.GetMessage(result.MessageIDs[0])
	require.NoError(t, err)
	assert.Equal(t, admin, msg.Recipient)
}

func TestSendDirectNoDefaultAdminConfigured(t *testing.T) {
	svc := NewService(nil, nil, Config{})
	_, err := svc.Send(student1, models.SendRequest{
		Target:  models.DirectTarget(models.Actor{Role: models.RoleAdmin}),
		Title:   "Question",
		Content: "Hello",
	})
	assert.True(t, IsCode(err, CodeValidation))
}

func TestSendAllStudents(t *testing.T) {
	svc, store, dir := newTestService()
	dir.studentIDs = []int64{11, 12, 13}

	result, err := svc.Send(admin, models.SendRequest{
		Target:  models.AllStudentsTarget(),
		Title:   "Holiday notice",
		Content: "No classes on Thursday",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Recipients)
	assert.Len(t, result.MessageIDs, 3)

	for _, recipient := range []models.Actor{student1, student2, student3} {
		count, err := store.CountUnread(recipient)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "recipient %s", recipient)
	}
}

func TestSendAllStudentsExcludesSender(t *testing.T) {
	svc, store, dir := newTestService()
	dir.studentIDs = []int64{11, 12, 13}

	result, err := svc.Send(student1, models.SendRequest{
		Target:  models.AllStudentsTarget(),
		Title:   "Study group",
		Content: "Anyone up for a study group?",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Recipients)
	assert.Len(t, result.MessageIDs, 2)

	count, err := store.CountUnread(student1)
	require.NoError(t, err)
	assert.Zero(t, count, "sender must not receive its own broadcast")
}

func TestSendCourseStudents(t *testing.T) {
	svc, store, dir := newTestService()
	dir.courses[42] = true
	dir.enrollments[42] = []int64{11, 12, 13}

	result, err := svc.Send(student1, models.SendRequest{
		Target:  models.CourseStudentsTarget(42),
		Title:   "Notes",
		Content: "Sharing my notes from today",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Recipients)
	assert.Len(t, result.MessageIDs, 2)

	for _, id := range result.MessageIDs {
		msg, err := store.GetMessage(id)
		require.NoError(t, err)
		assert.Equal(t, student1, msg.Sender)
		assert.NotEqual(t, student1, msg.Recipient)
		require.NotNil(t, msg.CourseID)
		assert.Equal(t, int64(42), *msg.CourseID)
	}
}

func TestSendCourseNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Send(admin, models.SendRequest{
		Target:  models.CourseStudentsTarget(99),
		Title:   "Hello",
		Content: "Hello",
	})
	assert.True(t, IsCode(err, CodeNotFound))
}

func TestSendDirectoryUnavailable(t *testing.T) {
	svc, _, dir := newTestService()
	dir.lookupErr = errors.New("connection refused")

	_, err := svc.Send(admin, models.SendRequest{
		Target:  models.AllStudentsTarget(),
		Title:   "Hello",
		Content: "Hello",
	})
	assert.True(t, IsCode(err, CodeExternalLookup))
}

func TestSendValidation(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []struct {
		name   string
		sender models.Actor
		req    models.SendRequest
	}{
		{
			name:   "missing title",
			sender: admin,
			req:    models.SendRequest{Target: models.DirectTarget(student1), Content: "hi"},
		},
		{
			name:   "missing content",
			sender: admin,
			req:    models.SendRequest{Target: models.DirectTarget(student1), Title: "hi"},
		},
		{
			name:   "invalid sender",
			sender: models.Actor{Role: "ghost", ID: 1},
			req:    models.SendRequest{Target: models.DirectTarget(student1), Title: "hi", Content: "hi"},
		},
		{
			name:   "course target without course id",
			sender: admin,
			req:    models.SendRequest{Target: models.Target{Kind: models.TargetCourseStudents}, Title: "hi", Content: "hi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(tt.sender, tt.req)
			assert.True(t, IsCode(err, CodeValidation), "got %v", err)
		})
	}
}

func TestSendPartialFailureIsolation(t *testing.T) {
	svc, store, dir := newTestService()
	// Student id 0 is invalid and fails creation; the other recipients
	// must still get their rows.
	dir.studentIDs = []int64{11, 0, 13}

	result, err := svc.Send(admin, models.SendRequest{
		Target:  models.AllStudentsTarget(),
		Title:   "Notice",
		Content: "Partial delivery test",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Recipients)
	assert.Len(t, result.MessageIDs, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, int64(0), result.Failures[0].Recipient.ID)

	count, err := store.CountUnread(student1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = store.CountUnread(student3)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSendBroadcastExpiryStamped(t *testing.T) {
	svc, store, dir := newTestService()
	dir.studentIDs = []int64{11}

	before := time.Now().UTC()
	result, err := svc.Send(admin, models.SendRequest{
		Target:  models.AllStudentsTarget(),
		Title:   "Notice",
		Content: "Expiry check",
	})
	require.NoError(t, err)
	require.Len(t, result.MessageIDs, 1)

	msg, err := store.GetMessage(result.MessageIDs[0])
	require.NoError(t, err)
	assert.True(t, msg.ExpiresAt.After(before.Add(models.MessageTTL-time.Minute)))
	assert.True(t, msg.ExpiresAt.After(msg.CreatedAt))
}
