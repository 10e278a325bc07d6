package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/npezzotti/teamchat/internal/database"
	"github.com/npezzotti/teamchat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func withUser(r *http.Request, userId int) *http.Request {
	return r.WithContext(WithUserId(r.Context(), userId))
}

func testDbUser(id, accountId int) database.User {
	return database.User{Id: id, AccountId: accountId, Name: "alice", EmailAddress: "alice@example.com"}
}

func testDbChannel(id, accountId int, name, visibility string) database.Room {
	return database.Room{
		Id:         id,
		ExternalId: "ext-room",
		AccountId:  accountId,
		Name:       name,
		RoomType:   string(types.RoomTypeChannel),
		Visibility: visibility,
	}
}

func TestListRooms(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testDbUser(1, 1), nil)
	mockDb.On("ListRoomsForUser", 1).Return([]database.Room{
		testDbChannel(10, 1, "general", "public"),
	}, nil)

	app := newTestApp(t, mockDb)
	req := withUser(httptest.NewRequest(http.MethodGet, "/api/rooms", nil), 1)
	rec := httptest.NewRecorder()
	app.listRooms(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"general"`)
	mockDb.AssertExpectations(t)
}

func TestListRooms_Unauthenticated(t *testing.T) {
	app := newTestApp(t, &database.MockTeamChatRepository{})
	rec := httptest.NewRecorder()
	app.listRooms(rec, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetRoom(t *testing.T) {
	room := testDbChannel(10, 1, "random", "public")
	roomWithMembers := room
	roomWithMembers.Memberships = []database.Membership{
		{Id: 5, RoomId: 10, UserId: 1, Role: "admin", UserName: "alice"},
	}

	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testDbUser(1, 1), nil)
	mockDb.On("GetRoomById", 10).Return(room, nil)
	mockDb.On("GetRoomWithMembers", 10).Return(&roomWithMembers, nil)

	app := newTestApp(t, mockDb)
	req := withUser(httptest.NewRequest(http.MethodGet, "/api/rooms/10", nil), 1)
	req.SetPathValue("id", "10")
	rec := httptest.NewRecorder()
	app.getRoom(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_name":"alice"`)
	mockDb.AssertExpectations(t)
}

func TestGetRoom_BadId(t *testing.T) {
	app := newTestApp(t, &database.MockTeamChatRepository{})
	req := withUser(httptest.NewRequest(http.MethodGet, "/api/rooms/abc", nil), 1)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()
	app.getRoom(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRoomHandler(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testDbUser(1, 1), nil)
	mockDb.On("CreateRoom", mock.Anything).Return(testDbChannel(10, 1, "design", "private"), nil)

	app := newTestApp(t, mockDb)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/rooms", jsonBody(t, CreateRoomRequest{
		Name: "design", Visibility: "private",
	})), 1)
	rec := httptest.NewRecorder()
	app.createRoom(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestCreateRoomHandler_InvalidVisibility(t *testing.T) {
	app := newTestApp(t, &database.MockTeamChatRepository{})
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/rooms", jsonBody(t, CreateRoomRequest{
		Name: "design", Visibility: "hidden",
	})), 1)
	rec := httptest.NewRecorder()
	app.createRoom(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestJoinRoomHandler_Conflict(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testDbUser(1, 1), nil)
	mockDb.On("GetRoomById", 10).Return(testDbChannel(10, 1, "random", "public"), nil)
	mockDb.On("ListMemberships", 10).Return([]database.Membership{
		{Id: 5, RoomId: 10, UserId: 1, Role: "member"},
	}, nil)

	app := newTestApp(t, mockDb)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/rooms/10/join", nil), 1)
	req.SetPathValue("id", "10")
	rec := httptest.NewRecorder()
	app.joinRoom(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestLeaveRoomHandler_LastAdminConflict(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testDbUser(1, 1), nil)
	mockDb.On("GetRoomById", 10).Return(testDbChannel(10, 1, "random", "public"), nil)
	mockDb.On("ListMemberships", 10).Return([]database.Membership{
		{Id: 5, RoomId: 10, UserId: 1, Role: "admin"},
		{Id: 6, RoomId: 10, UserId: 2, Role: "member"},
	}, nil)

	app := newTestApp(t, mockDb)
	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/rooms/10/members/me", nil), 1)
	req.SetPathValue("id", "10")
	rec := httptest.NewRecorder()
	app.leaveRoom(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestPostMessageHandler(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testDbUser(1, 1), nil)
	mockDb.On("GetRoomById", 10).Return(testDbChannel(10, 1, "random", "public"), nil)
	mockDb.On("ListMemberships", 10).Return([]database.Membership{
		{Id: 5, RoomId: 10, UserId: 1, Role: "member"},
	}, nil)
	mockDb.On("CountMessages", 10).Return(1, nil)
	mockDb.On("CreateMessage", database.CreateMessageParams{
		RoomId: 10, UserId: 1, Body: "hello",
	}).Return(database.Message{Id: 100, RoomId: 10, UserId: 1, Body: "hello"}, nil)

	app := newTestApp(t, mockDb)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/rooms/10/messages", jsonBody(t, PostMessageRequest{
		Body: "hello",
	})), 1)
	req.SetPathValue("id", "10")
	rec := httptest.NewRecorder()
	app.postMessage(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"body":"hello"`)
	mockDb.AssertExpectations(t)
}

func TestPostMessageHandler_BlankBody(t *testing.T) {
	app := newTestApp(t, &database.MockTeamChatRepository{})
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/rooms/10/messages", jsonBody(t, PostMessageRequest{
		Body: "   ",
	})), 1)
	req.SetPathValue("id", "10")
	rec := httptest.NewRecorder()
	app.postMessage(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMarkReadHandler(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testDbUser(1, 1), nil)
	mockDb.On("GetRoomById", 10).Return(testDbChannel(10, 1, "random", "public"), nil)
	mockDb.On("GetMembership", 10, 1).Return(database.Membership{
		Id: 5, RoomId: 10, UserId: 1, Role: "member",
	}, nil)
	mockDb.On("UpsertRoomRead", 1, 10, mock.AnythingOfType("time.Time")).Return(nil)

	app := newTestApp(t, mockDb)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/rooms/10/read", nil), 1)
	req.SetPathValue("id", "10")
	rec := httptest.NewRecorder()
	app.markRead(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestFindOrCreateDMHandler(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testDbUser(1, 1), nil)
	mockDb.On("GetUserById", 2).Return(database.User{Id: 2, AccountId: 1, Name: "bob"}, nil)
	mockDb.On("FindDirectMessageRoom", 1, 1, 2).Return(database.Room{
		Id: 11, AccountId: 1, Name: "dm-1-2",
		RoomType: string(types.RoomTypeDirectMessage), Visibility: "private",
	}, nil)

	app := newTestApp(t, mockDb)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/dms", jsonBody(t, CreateDMRequest{
		UserId: 2,
	})), 1)
	rec := httptest.NewRecorder()
	app.findOrCreateDM(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"room_type":"direct_message"`)
	mockDb.AssertExpectations(t)
}

func TestSearchUsersHandler(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserById", 1).Return(testDbUser(1, 1), nil)
	mockDb.On("SearchUsers", 1, 1, "bo", 10).Return([]database.User{
		{Id: 2, AccountId: 1, Name: "bob"},
	}, nil)

	app := newTestApp(t, mockDb)
	req := withUser(httptest.NewRequest(http.MethodGet, "/api/users?q=bo", nil), 1)
	rec := httptest.NewRecorder()
	app.searchUsers(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"bob"`)
	mockDb.AssertExpectations(t)
}

func TestHealthz(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("Ping").Return(nil)

	app := newTestApp(t, mockDb)
	rec := httptest.NewRecorder()
	app.healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	app := newTestApp(t, &database.MockTeamChatRepository{})

	handler := app.errorHandler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
