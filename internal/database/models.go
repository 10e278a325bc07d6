package database

import (
	"database/sql"
	"time"
)

type Account struct {
	Id        int
	Name      string
	CreatedAt time.Time
}

type User struct {
	Id                  int
	AccountId           int
	Name                string
	EmailAddress        string
	PasswordHash        string
	FailedLoginAttempts int
	LockedAt            sql.NullTime
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Room struct {
	Id         int
	ExternalId string
	AccountId  int
	Name       string
	RoomType   string
	Visibility string
	// HasUnread and PartnerName are populated only by ListRoomsForUser.
	HasUnread   bool
	PartnerName sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Memberships []Membership
}

type Membership struct {
	Id        int
	RoomId    int
	UserId    int
	Role      string
	UserName  string
	CreatedAt time.Time
}

type Message struct {
	Id        int
	RoomId    int
	UserId    int
	UserName  string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RoomRead struct {
	Id         int
	RoomId     int
	UserId     int
	LastReadAt time.Time
}

type CreateAccountParams struct {
	AccountName  string
	UserName     string
	EmailAddress string
	PasswordHash string
	// GeneralRoomExternalId is the pre-generated external id for the
	// account's General room.
	GeneralRoomExternalId string
}

type CreateRoomParams struct {
	AccountId  int
	ExternalId string
	Name       string
	Visibility string
	CreatorId  int
	MemberIds  []int
}

type CreateMessageParams struct {
	RoomId int
	UserId int
	Body   string
}
