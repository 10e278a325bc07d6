package chat

import (
	"database/sql"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/npezzotti/teamchat/internal/database"
	"github.com/npezzotti/teamchat/internal/testutil"
	"github.com/npezzotti/teamchat/internal/types"
	"github.com/stretchr/testify/assert"
)

func uniqueViolationErr() error {
	return &pq.Error{Code: "23505"}
}

// recordingBroadcaster captures events so tests can assert on ordering
// and payloads.
type recordingBroadcaster struct {
	mu       sync.Mutex
	events   []string
	appended []types.Message
}

func (r *recordingBroadcaster) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recordingBroadcaster) MessageAppended(_ types.Room, msg types.Message) {
	r.record(EventMessageAppended)
	r.mu.Lock()
	r.appended = append(r.appended, msg)
	r.mu.Unlock()
}
func (r *recordingBroadcaster) MessageReplaced(types.Room, types.Message) {
	r.record(EventMessageReplaced)
}
func (r *recordingBroadcaster) MessageRemoved(types.Room, int) {
	r.record(EventMessageRemoved)
}
func (r *recordingBroadcaster) EmptyStateShown(types.Room) {
	r.record(EventEmptyStateShown)
}
func (r *recordingBroadcaster) EmptyStateCleared(types.Room) {
	r.record(EventEmptyStateCleared)
}

type recordingNotifier struct {
	userIds []int
	msgs    []types.Message
}

func (r *recordingNotifier) MessagePosted(userIds []int, _ types.Room, msg types.Message) {
	r.userIds = append(r.userIds, userIds...)
	r.msgs = append(r.msgs, msg)
}

func testUser(id, accountId int) database.User {
	return database.User{Id: id, AccountId: accountId, Name: "user", EmailAddress: "user@example.com"}
}

func testChannel(id, accountId int, name, visibility string) database.Room {
	return database.Room{
		Id:         id,
		ExternalId: "ext-room",
		AccountId:  accountId,
		Name:       name,
		RoomType:   string(types.RoomTypeChannel),
		Visibility: visibility,
	}
}

func newTestService(t *testing.T, db database.TeamChatRepository, events Broadcaster) *Service {
	t.Helper()
	return NewService(testutil.TestLogger(t), db, events, nil)
}

func TestNewService_DefaultsBroadcaster(t *testing.T) {
	svc := NewService(testutil.TestLogger(t), &database.MockTeamChatRepository{}, nil, nil)
	assert.NotNil(t, svc.events)
}

func TestUser_NotFound(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 42).Return(database.User{}, sql.ErrNoRows)

	svc := newTestService(t, mockDb, nil)
	_, err := svc.user(42)
	assert.ErrorIs(t, err, ErrNotFound)
	mockDb.AssertExpectations(t)
}

func TestRoomForUser_CrossAccountIsNotFound(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetRoomById", 7).Return(testChannel(7, 2, "random", "public"), nil)

	svc := newTestService(t, mockDb, nil)
	_, err := svc.roomForUser(types.User{Id: 1, AccountId: 1}, 7)
	assert.ErrorIs(t, err, ErrNotFound)
	mockDb.AssertExpectations(t)
}

func TestSearchPeers(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testUser(1, 1), nil)
	mockDb.On("SearchUsers", 1, 1, "al", 10).Return([]database.User{
		{Id: 2, AccountId: 1, Name: "alice"},
	}, nil)

	svc := newTestService(t, mockDb, nil)
	users, err := svc.SearchPeers(1, "al", 0)
	assert.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Name)
	mockDb.AssertExpectations(t)
}

func TestSearchPeers_ClampsLimit(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testUser(1, 1), nil)
	mockDb.On("SearchUsers", 1, 1, "a", 10).Return([]database.User{}, nil)

	svc := newTestService(t, mockDb, nil)
	_, err := svc.SearchPeers(1, "a", 500)
	assert.NoError(t, err)
	mockDb.AssertExpectations(t)
}
