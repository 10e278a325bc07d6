package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockTeamChatRepository struct {
	mock.Mock
}

func (m *MockTeamChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockTeamChatRepository) CreateAccount(params CreateAccountParams) (Account, User, error) {
	args := m.Called(params)
	return args.Get(0).(Account), args.Get(1).(User), args.Error(2)
}
func (m *MockTeamChatRepository) GetUserById(id int) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockTeamChatRepository) GetUserByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockTeamChatRepository) RecordFailedLogin(userId int, lockedAt time.Time, locked bool) error {
	args := m.Called(userId, lockedAt, locked)
	return args.Error(0)
}
func (m *MockTeamChatRepository) ResetLoginAttempts(userId int) error {
	args := m.Called(userId)
	return args.Error(0)
}
func (m *MockTeamChatRepository) SearchUsers(accountId, excludeUserId int, query string, limit int) ([]User, error) {
	args := m.Called(accountId, excludeUserId, query, limit)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockTeamChatRepository) GetRoomById(id int) (Room, error) {
	args := m.Called(id)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockTeamChatRepository) GetRoomByExternalId(externalId string) (Room, error) {
	args := m.Called(externalId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockTeamChatRepository) GetRoomWithMembers(id int) (*Room, error) {
	args := m.Called(id)
	if room, ok := args.Get(0).(*Room); ok {
		return room, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockTeamChatRepository) ListRoomsForUser(userId int) ([]Room, error) {
	args := m.Called(userId)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockTeamChatRepository) ListJoinableRooms(accountId, userId int) ([]Room, error) {
	args := m.Called(accountId, userId)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockTeamChatRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockTeamChatRepository) DeleteRoom(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockTeamChatRepository) FindDirectMessageRoom(accountId, userAId, userBId int) (Room, error) {
	args := m.Called(accountId, userAId, userBId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockTeamChatRepository) CreateDirectMessageRoom(accountId int, name, externalId string, userAId, userBId int) (Room, error) {
	args := m.Called(accountId, name, externalId, userAId, userBId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockTeamChatRepository) GetMembership(roomId, userId int) (Membership, error) {
	args := m.Called(roomId, userId)
	return args.Get(0).(Membership), args.Error(1)
}
func (m *MockTeamChatRepository) GetMembershipById(id int) (Membership, error) {
	args := m.Called(id)
	return args.Get(0).(Membership), args.Error(1)
}
func (m *MockTeamChatRepository) ListMemberships(roomId int) ([]Membership, error) {
	args := m.Called(roomId)
	return args.Get(0).([]Membership), args.Error(1)
}
func (m *MockTeamChatRepository) CreateMembership(roomId, userId int, role string) (Membership, error) {
	args := m.Called(roomId, userId, role)
	return args.Get(0).(Membership), args.Error(1)
}
func (m *MockTeamChatRepository) DeleteMembership(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockTeamChatRepository) DeleteOwnMembership(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockTeamChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockTeamChatRepository) GetMessageById(id int) (Message, error) {
	args := m.Called(id)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockTeamChatRepository) UpdateMessage(id int, body string) (Message, error) {
	args := m.Called(id, body)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockTeamChatRepository) DeleteMessage(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockTeamChatRepository) ListMessages(roomId, limit int) ([]Message, error) {
	args := m.Called(roomId, limit)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockTeamChatRepository) CountMessages(roomId int) (int, error) {
	args := m.Called(roomId)
	return args.Int(0), args.Error(1)
}
func (m *MockTeamChatRepository) HasMessagesSince(roomId int, since time.Time) (bool, error) {
	args := m.Called(roomId, since)
	return args.Bool(0), args.Error(1)
}
func (m *MockTeamChatRepository) UpsertRoomRead(userId, roomId int, readAt time.Time) error {
	args := m.Called(userId, roomId, readAt)
	return args.Error(0)
}
func (m *MockTeamChatRepository) GetRoomRead(userId, roomId int) (RoomRead, error) {
	args := m.Called(userId, roomId)
	return args.Get(0).(RoomRead), args.Error(1)
}
