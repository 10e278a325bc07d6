package chat

import (
	"github.com/npezzotti/teamchat/internal/database"
	"github.com/npezzotti/teamchat/internal/types"
)

func userFromDB(u database.User) types.User {
	return types.User{
		Id:           u.Id,
		AccountId:    u.AccountId,
		Name:         u.Name,
		EmailAddress: u.EmailAddress,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func roomFromDB(r database.Room) types.Room {
	room := types.Room{
		Id:         r.Id,
		ExternalId: r.ExternalId,
		AccountId:  r.AccountId,
		Name:       r.Name,
		Type:       types.RoomType(r.RoomType),
		Visibility: types.Visibility(r.Visibility),
		Unread:     r.HasUnread,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}

	for _, m := range r.Memberships {
		room.Members = append(room.Members, membershipFromDB(m))
	}

	return room
}

func membershipFromDB(m database.Membership) types.Membership {
	return types.Membership{
		Id:        m.Id,
		RoomId:    m.RoomId,
		UserId:    m.UserId,
		Role:      types.Role(m.Role),
		UserName:  m.UserName,
		CreatedAt: m.CreatedAt,
	}
}

func messageFromDB(m database.Message) types.Message {
	return types.Message{
		Id:        m.Id,
		RoomId:    m.RoomId,
		UserId:    m.UserId,
		UserName:  m.UserName,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
