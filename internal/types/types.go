package types

import (
	"strings"
	"time"
)

type RoomType string

const (
	RoomTypeChannel       RoomType = "channel"
	RoomTypeDirectMessage RoomType = "direct_message"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type Account struct {
	Id        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type User struct {
	Id           int       `json:"id"`
	AccountId    int       `json:"account_id,omitempty"`
	Name         string    `json:"name"`
	EmailAddress string    `json:"email_address,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Room struct {
	Id          int          `json:"id"`
	ExternalId  string       `json:"external_id"`
	AccountId   int          `json:"account_id,omitempty"`
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name,omitempty"`
	Type        RoomType     `json:"room_type"`
	Visibility  Visibility   `json:"visibility"`
	Unread      bool         `json:"unread,omitempty"`
	Members     []Membership `json:"members,omitempty"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at,omitempty"`
}

// IsDefaultRoom reports whether the room is the account's protected
// "General" channel. The name comparison is case-insensitive.
func (r Room) IsDefaultRoom() bool {
	return r.Type == RoomTypeChannel && strings.EqualFold(r.Name, "general")
}

func (r Room) IsChannel() bool {
	return r.Type == RoomTypeChannel
}

func (r Room) IsDirectMessage() bool {
	return r.Type == RoomTypeDirectMessage
}

// MembershipEditable reports whether memberships on the room may be
// added or removed. The default room's membership is fixed.
func (r Room) MembershipEditable() bool {
	return !r.IsDefaultRoom()
}

func (r Room) Deletable() bool {
	return !r.IsDefaultRoom()
}

type Membership struct {
	Id        int       `json:"id"`
	RoomId    int       `json:"room_id"`
	UserId    int       `json:"user_id"`
	Role      Role      `json:"role"`
	UserName  string    `json:"user_name,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func (m Membership) IsAdmin() bool {
	return m.Role == RoleAdmin
}

type Message struct {
	Id        int       `json:"id"`
	RoomId    int       `json:"room_id"`
	UserId    int       `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type RoomRead struct {
	Id         int       `json:"id"`
	RoomId     int       `json:"room_id"`
	UserId     int       `json:"user_id"`
	LastReadAt time.Time `json:"last_read_at"`
}
