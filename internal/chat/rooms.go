package chat

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/npezzotti/teamchat/internal/database"
	"github.com/npezzotti/teamchat/internal/types"
	"github.com/samber/lo"
	"github.com/teris-io/shortid"
)

func newExternalId() (string, error) {
	sid, err := shortid.Generate()
	if err != nil {
		return "", fmt.Errorf("generate external id: %w", err)
	}
	return sid, nil
}

// dmRoomName builds the deterministic synthetic name for a DM room.
// It is never displayed; display names are derived per viewer.
func dmRoomName(userAId, userBId int) string {
	if userBId < userAId {
		userAId, userBId = userBId, userAId
	}
	return fmt.Sprintf("dm-%d-%d", userAId, userBId)
}

// RoomsForUser returns the user's rooms with unread flags and
// per-viewer display names, ordered by name.
func (s *Service) RoomsForUser(userId int) ([]types.Room, error) {
	user, err := s.user(userId)
	if err != nil {
		return nil, err
	}

	dbRooms, err := s.db.ListRoomsForUser(user.Id)
	if err != nil {
		return nil, err
	}

	return lo.Map(dbRooms, func(r database.Room, _ int) types.Room {
		room := roomFromDB(r)
		room.DisplayName = room.Name
		if room.IsDirectMessage() && r.PartnerName.Valid {
			room.DisplayName = r.PartnerName.String
		}
		return room
	}), nil
}

// JoinableRooms returns public channels in the user's account the
// user is not yet a member of, ordered by name.
func (s *Service) JoinableRooms(userId int) ([]types.Room, error) {
	user, err := s.user(userId)
	if err != nil {
		return nil, err
	}

	dbRooms, err := s.db.ListJoinableRooms(user.AccountId, user.Id)
	if err != nil {
		return nil, err
	}

	return lo.Map(dbRooms, func(r database.Room, _ int) types.Room {
		return roomFromDB(r)
	}), nil
}

// RoomForMember loads a room by external id, scoped to the user's
// account and membership. Used to authorize realtime subscriptions.
func (s *Service) RoomForMember(userId int, externalId string) (types.Room, error) {
	user, err := s.user(userId)
	if err != nil {
		return types.Room{}, err
	}

	r, err := s.db.GetRoomByExternalId(externalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Room{}, ErrNotFound
		}
		return types.Room{}, err
	}

	if r.AccountId != user.AccountId {
		return types.Room{}, ErrNotFound
	}

	if _, err := s.db.GetMembership(r.Id, user.Id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Room{}, ErrNotAMember
		}
		return types.Room{}, err
	}

	return roomFromDB(r), nil
}

// RoomWithMembers loads a room and its full membership list, scoped
// to the user's account and membership.
func (s *Service) RoomWithMembers(userId, roomId int) (types.Room, error) {
	user, err := s.user(userId)
	if err != nil {
		return types.Room{}, err
	}

	room, err := s.roomForUser(user, roomId)
	if err != nil {
		return types.Room{}, err
	}

	dbRoom, err := s.db.GetRoomWithMembers(room.Id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Room{}, ErrNotFound
		}
		return types.Room{}, err
	}

	hydrated := roomFromDB(*dbRoom)
	hydrated.DisplayName = s.DisplayNameFor(hydrated, user)

	return hydrated, nil
}

// CreateRoom creates a channel with the creator as admin and the
// given users as members, in one transaction.
func (s *Service) CreateRoom(accountId, creatorId int, name string, visibility types.Visibility, memberIds []int) (types.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Room{}, fmt.Errorf("%w: name can't be blank", ErrValidation)
	}
	if strings.EqualFold(name, "general") {
		return types.Room{}, fmt.Errorf("%w: %q is reserved for the default room", ErrValidation, name)
	}
	if visibility != types.VisibilityPublic && visibility != types.VisibilityPrivate {
		return types.Room{}, fmt.Errorf("%w: invalid visibility %q", ErrValidation, visibility)
	}

	creator, err := s.user(creatorId)
	if err != nil {
		return types.Room{}, err
	}
	if creator.AccountId != accountId {
		return types.Room{}, ErrNotFound
	}

	// repeated ids would trip the membership uniqueness constraint
	memberIds = lo.Uniq(memberIds)

	// members must resolve within the account; cross-account ids are
	// reported as not found, never as forbidden
	for _, memberId := range memberIds {
		member, err := s.user(memberId)
		if err != nil {
			return types.Room{}, err
		}
		if member.AccountId != accountId {
			return types.Room{}, ErrNotFound
		}
	}

	externalId, err := newExternalId()
	if err != nil {
		return types.Room{}, err
	}

	dbRoom, err := s.db.CreateRoom(database.CreateRoomParams{
		AccountId:  accountId,
		ExternalId: externalId,
		Name:       name,
		Visibility: string(visibility),
		CreatorId:  creator.Id,
		MemberIds:  memberIds,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return types.Room{}, fmt.Errorf("%w: a room named %q already exists", ErrValidation, name)
		}
		return types.Room{}, err
	}

	return roomFromDB(dbRoom), nil
}

// DeleteRoom removes a room and everything in it. Only admins may
// delete, and the default room is checked before any destructive work.
func (s *Service) DeleteRoom(actingUserId, roomId int) error {
	user, err := s.user(actingUserId)
	if err != nil {
		return err
	}

	room, err := s.roomForUser(user, roomId)
	if err != nil {
		return err
	}

	if !room.Deletable() {
		return ErrRoomNotEditable
	}

	pol, _, err := s.policyFor(user, room)
	if err != nil {
		return err
	}

	if !pol.CanDelete() {
		return ErrForbidden
	}

	return s.db.DeleteRoom(room.Id)
}

// FindOrCreateDM resolves the canonical DM room between two distinct
// users of the same account, creating it transactionally on first
// use. The result is independent of argument order.
func (s *Service) FindOrCreateDM(actingUserId, targetUserId int) (types.Room, error) {
	if actingUserId == targetUserId {
		return types.Room{}, fmt.Errorf("%w: can't start a conversation with yourself", ErrValidation)
	}

	actor, err := s.user(actingUserId)
	if err != nil {
		return types.Room{}, err
	}

	target, err := s.user(targetUserId)
	if err != nil {
		return types.Room{}, err
	}
	if target.AccountId != actor.AccountId {
		return types.Room{}, ErrNotFound
	}

	dbRoom, err := s.db.FindDirectMessageRoom(actor.AccountId, actor.Id, target.Id)
	if err == nil {
		return roomFromDB(dbRoom), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return types.Room{}, err
	}

	externalId, err := newExternalId()
	if err != nil {
		return types.Room{}, err
	}

	dbRoom, err = s.db.CreateDirectMessageRoom(
		actor.AccountId,
		dmRoomName(actor.Id, target.Id),
		externalId,
		actor.Id,
		target.Id,
	)
	if err != nil {
		// two first-use calls can race on the deterministic name; the
		// loser reads back the winner's room
		if database.IsUniqueViolation(err) {
			dbRoom, err = s.db.FindDirectMessageRoom(actor.AccountId, actor.Id, target.Id)
			if err != nil {
				return types.Room{}, err
			}
			return roomFromDB(dbRoom), nil
		}
		return types.Room{}, err
	}

	return roomFromDB(dbRoom), nil
}

// DisplayNameFor derives the name shown to viewer: the room name for
// channels, the other participant's name for DMs. A degenerate DM
// with no second participant falls back to the raw name.
func (s *Service) DisplayNameFor(room types.Room, viewer types.User) string {
	switch room.Type {
	case types.RoomTypeDirectMessage:
		if other, ok := s.OtherParticipant(room, viewer); ok {
			return other.UserName
		}
		return room.Name
	default:
		return room.Name
	}
}

// OtherParticipant returns the membership of the DM participant other
// than user. It reports false for channels and degenerate DMs.
func (s *Service) OtherParticipant(room types.Room, user types.User) (types.Membership, bool) {
	if !room.IsDirectMessage() {
		return types.Membership{}, false
	}

	for _, m := range room.Members {
		if m.UserId != user.Id {
			return m, true
		}
	}

	return types.Membership{}, false
}
