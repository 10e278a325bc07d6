package chat

import (
	"database/sql"
	"testing"
	"time"

	"github.com/npezzotti/teamchat/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMarkRead(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testUser(1, 1), nil)
	mockDb.On("GetRoomById", 10).Return(testChannel(10, 1, "random", "public"), nil)
	mockDb.On("GetMembership", 10, 1).Return(database.Membership{
		Id: 5, RoomId: 10, UserId: 1, Role: "member",
	}, nil)
	mockDb.On("UpsertRoomRead", 1, 10, mock.AnythingOfType("time.Time")).Return(nil)

	svc := newTestService(t, mockDb, nil)
	assert.NoError(t, svc.MarkRead(1, 10))
	mockDb.AssertExpectations(t)
}

func TestMarkRead_NonMember(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testUser(1, 1), nil)
	mockDb.On("GetRoomById", 10).Return(testChannel(10, 1, "random", "public"), nil)
	mockDb.On("GetMembership", 10, 1).Return(database.Membership{}, sql.ErrNoRows)

	svc := newTestService(t, mockDb, nil)
	err := svc.MarkRead(1, 10)
	assert.ErrorIs(t, err, ErrNotAMember)
	mockDb.AssertExpectations(t)
}

func TestIsUnread_NewerMessageExists(t *testing.T) {
	lastRead := time.Now().Add(-time.Hour)

	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testUser(1, 1), nil)
	mockDb.On("GetRoomById", 10).Return(testChannel(10, 1, "random", "public"), nil)
	mockDb.On("GetRoomRead", 1, 10).Return(database.RoomRead{
		Id: 1, RoomId: 10, UserId: 1, LastReadAt: lastRead,
	}, nil)
	mockDb.On("HasMessagesSince", 10, lastRead).Return(true, nil)

	svc := newTestService(t, mockDb, nil)
	unread, err := svc.IsUnread(1, 10)
	assert.NoError(t, err)
	assert.True(t, unread)
	mockDb.AssertExpectations(t)
}

func TestIsUnread_WatermarkCurrent(t *testing.T) {
	lastRead := time.Now()

	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testUser(1, 1), nil)
	mockDb.On("GetRoomById", 10).Return(testChannel(10, 1, "random", "public"), nil)
	mockDb.On("GetRoomRead", 1, 10).Return(database.RoomRead{
		Id: 1, RoomId: 10, UserId: 1, LastReadAt: lastRead,
	}, nil)
	mockDb.On("HasMessagesSince", 10, lastRead).Return(false, nil)

	svc := newTestService(t, mockDb, nil)
	unread, err := svc.IsUnread(1, 10)
	assert.NoError(t, err)
	assert.False(t, unread)
	mockDb.AssertExpectations(t)
}

func TestIsUnread_NeverVisited(t *testing.T) {
	tt := []struct {
		name   string
		count  int
		unread bool
	}{
		{"empty room", 0, false},
		{"room with messages", 3, true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			mockDb := &database.MockTeamChatRepository{}
			mockDb.On("GetUserById", 1).Return(testUser(1, 1), nil)
			mockDb.On("GetRoomById", 10).Return(testChannel(10, 1, "random", "public"), nil)
			mockDb.On("GetRoomRead", 1, 10).Return(database.RoomRead{}, sql.ErrNoRows)
			mockDb.On("CountMessages", 10).Return(tc.count, nil)

			svc := newTestService(t, mockDb, nil)
			unread, err := svc.IsUnread(1, 10)
			assert.NoError(t, err)
			assert.Equal(t, tc.unread, unread)
			mockDb.AssertExpectations(t)
		})
	}
}
