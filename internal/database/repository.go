package database

import "time"

type TeamChatRepository interface {
	Ping() error

	// accounts and users
	CreateAccount(params CreateAccountParams) (Account, User, error)
	GetUserById(id int) (User, error)
	GetUserByEmail(email string) (User, error)
	RecordFailedLogin(userId int, lockedAt time.Time, locked bool) error
	ResetLoginAttempts(userId int) error
	SearchUsers(accountId, excludeUserId int, query string, limit int) ([]User, error)

	// rooms
	GetRoomById(id int) (Room, error)
	GetRoomByExternalId(externalId string) (Room, error)
	GetRoomWithMembers(id int) (*Room, error)
	ListRoomsForUser(userId int) ([]Room, error)
	ListJoinableRooms(accountId, userId int) ([]Room, error)
	CreateRoom(params CreateRoomParams) (Room, error)
	DeleteRoom(id int) error
	FindDirectMessageRoom(accountId, userAId, userBId int) (Room, error)
	CreateDirectMessageRoom(accountId int, name, externalId string, userAId, userBId int) (Room, error)

	// memberships
	GetMembership(roomId, userId int) (Membership, error)
	GetMembershipById(id int) (Membership, error)
	ListMemberships(roomId int) ([]Membership, error)
	CreateMembership(roomId, userId int, role string) (Membership, error)
	DeleteMembership(id int) error
	DeleteOwnMembership(id int) error

	// messages
	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessageById(id int) (Message, error)
	UpdateMessage(id int, body string) (Message, error)
	DeleteMessage(id int) error
	ListMessages(roomId, limit int) ([]Message, error)
	CountMessages(roomId int) (int, error)
	HasMessagesSince(roomId int, since time.Time) (bool, error)

	// read tracking
	UpsertRoomRead(userId, roomId int, readAt time.Time) error
	GetRoomRead(userId, roomId int) (RoomRead, error)
}
