package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTargetValidate(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		wantErr bool
	}{
		{
			name:   "direct student",
			target: DirectTarget(Actor{Role: RoleStudent, ID: 7}),
		},
		{
			name:   "direct teacher",
			target: DirectTarget(Actor{Role: RoleTeacher, ID: 3}),
		},
		{
			name:   "direct admin without id routes to default admin",
			target: DirectTarget(Actor{Role: RoleAdmin}),
		},
		{
			name:    "direct student without id",
			target:  DirectTarget(Actor{Role: RoleStudent}),
			wantErr: true,
		},
		{
			name:    "direct with unknown role",
			target:  DirectTarget(Actor{Role: "parent", ID: 1}),
			wantErr: true,
		},
		{
			name:    "direct with course id",
			target:  Target{Kind: TargetDirect, Actor: Actor{Role: RoleStudent, ID: 7}, CourseID: 42},
			wantErr: true,
		},
		{
			name:   "all students",
			target: AllStudentsTarget(),
		},
		{
			name:    "all students with stray actor",
			target:  Target{Kind: TargetAllStudents, Actor: Actor{Role: RoleStudent, ID: 7}},
			wantErr: true,
		},
		{
			name:   "course students",
			target: CourseStudentsTarget(42),
		},
		{
			name:    "course students without course id",
			target:  Target{Kind: TargetCourseStudents},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			target:  Target{Kind: "everyone"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTargetBroadcast(t *testing.T) {
	assert.False(t, DirectTarget(Actor{Role: RoleStudent, ID: 1}).Broadcast())
	assert.True(t, AllStudentsTarget().Broadcast())
	assert.True(t, CourseStudentsTarget(1).Broadcast())
}

func TestActorValidate(t *testing.T) {
	assert.NoError(t, Actor{Role: RoleAdmin, ID: 1}.Validate())
	assert.NoError(t, Actor{Role: RoleTeacher, ID: 5}.Validate())
	assert.Error(t, Actor{Role: "guest", ID: 1}.Validate())
	assert.Error(t, Actor{Role: RoleStudent}.Validate())
	assert.Error(t, Actor{Role: RoleStudent, ID: -2}.Validate())
}

func TestMessageCanReply(t *testing.T) {
	now := time.Now()

	fresh := &Message{CreatedAt: now, ExpiresAt: now.Add(MessageTTL)}
	assert.True(t, fresh.CanReply(now))

	expired := &Message{CreatedAt: now.Add(-72 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour)}
	assert.False(t, expired.CanReply(now))
	assert.True(t, expired.Expired(now))

	reply := &Message{CreatedAt: now, ExpiresAt: now.Add(MessageTTL), IsReply: true}
	assert.False(t, reply.CanReply(now))
}
