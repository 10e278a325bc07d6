// Package chat implements the core of the application: room
// membership and authorization, the room directory with canonical DM
// resolution, message persistence with realtime fan-out, and per-user
// read tracking. All operations take explicit acting-user ids; there
// is no ambient session state.
package chat

import (
	"database/sql"
	"errors"
	"log"

	"github.com/npezzotti/teamchat/internal/database"
	"github.com/npezzotti/teamchat/internal/policy"
	"github.com/npezzotti/teamchat/internal/types"
	"github.com/samber/lo"
)

type Service struct {
	log      *log.Logger
	db       database.TeamChatRepository
	events   Broadcaster
	notifier PushNotifier
}

func NewService(logger *log.Logger, db database.TeamChatRepository, events Broadcaster, notifier PushNotifier) *Service {
	if events == nil {
		events = NopBroadcaster{}
	}

	return &Service{
		log:      logger,
		db:       db,
		events:   events,
		notifier: notifier,
	}
}

// user loads a user, mapping a missing row to ErrNotFound.
func (s *Service) user(userId int) (types.User, error) {
	u, err := s.db.GetUserById(userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	return userFromDB(u), nil
}

// roomForUser loads a room scoped to the user's account. A room in
// another account resolves as ErrNotFound, never ErrForbidden.
func (s *Service) roomForUser(user types.User, roomId int) (types.Room, error) {
	r, err := s.db.GetRoomById(roomId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Room{}, ErrNotFound
		}
		return types.Room{}, err
	}

	if r.AccountId != user.AccountId {
		return types.Room{}, ErrNotFound
	}

	return roomFromDB(r), nil
}

// policyFor builds a policy snapshot for the user acting on the room.
func (s *Service) policyFor(user types.User, room types.Room) (*policy.RoomPolicy, []types.Membership, error) {
	dbMemberships, err := s.db.ListMemberships(room.Id)
	if err != nil {
		return nil, nil, err
	}

	memberships := lo.Map(dbMemberships, func(m database.Membership, _ int) types.Membership {
		return membershipFromDB(m)
	})

	return policy.NewRoomPolicy(user, room, memberships), memberships, nil
}

// SearchPeers returns up to limit users in the account whose name
// contains the query, excluding the requesting user.
func (s *Service) SearchPeers(actingUserId int, query string, limit int) ([]types.User, error) {
	user, err := s.user(actingUserId)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > maxPeerSearchResults {
		limit = maxPeerSearchResults
	}

	dbUsers, err := s.db.SearchUsers(user.AccountId, user.Id, query, limit)
	if err != nil {
		return nil, err
	}

	return lo.Map(dbUsers, func(u database.User, _ int) types.User {
		return userFromDB(u)
	}), nil
}

const maxPeerSearchResults = 10
