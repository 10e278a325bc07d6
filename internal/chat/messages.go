package chat

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/npezzotti/teamchat/internal/database"
	"github.com/npezzotti/teamchat/internal/types"
	"github.com/samber/lo"
)

// PostMessage persists a message and fans it out to the room's
// subscribers. Events fire only after the row is committed; fan-out
// failures never surface as posting failures.
func (s *Service) PostMessage(roomId, userId int, body string) (types.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return types.Message{}, fmt.Errorf("%w: message body can't be blank", ErrValidation)
	}

	user, err := s.user(userId)
	if err != nil {
		return types.Message{}, err
	}

	room, err := s.roomForUser(user, roomId)
	if err != nil {
		return types.Message{}, err
	}

	memberships, err := s.memberships(room.Id)
	if err != nil {
		return types.Message{}, err
	}
	if !isMemberOf(memberships, user.Id) {
		return types.Message{}, ErrNotAMember
	}

	wasEmpty, err := s.roomIsEmpty(room.Id)
	if err != nil {
		return types.Message{}, err
	}

	dbMsg, err := s.db.CreateMessage(database.CreateMessageParams{
		RoomId: room.Id,
		UserId: user.Id,
		Body:   body,
	})
	if err != nil {
		return types.Message{}, err
	}

	msg := messageFromDB(dbMsg)

	if wasEmpty {
		s.events.EmptyStateCleared(room)
	}
	s.events.MessageAppended(room, msg)

	if s.notifier != nil {
		recipients := lo.FilterMap(memberships, func(m types.Membership, _ int) (int, bool) {
			return m.UserId, m.UserId != user.Id
		})
		if len(recipients) > 0 {
			s.notifier.MessagePosted(recipients, room, msg)
		}
	}

	return msg, nil
}

// UpdateMessage replaces a message's body. The author or a room
// admin may edit.
func (s *Service) UpdateMessage(actingUserId, messageId int, body string) (types.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return types.Message{}, fmt.Errorf("%w: message body can't be blank", ErrValidation)
	}

	user, room, msg, err := s.messageForUser(actingUserId, messageId)
	if err != nil {
		return types.Message{}, err
	}

	if err := s.authorizeMessageEdit(user, room, msg); err != nil {
		return types.Message{}, err
	}

	dbMsg, err := s.db.UpdateMessage(msg.Id, body)
	if err != nil {
		return types.Message{}, err
	}

	updated := messageFromDB(dbMsg)
	s.events.MessageReplaced(room, updated)

	return updated, nil
}

// DeleteMessage removes a message. If the room is left empty, the
// empty-state event follows the removal event.
func (s *Service) DeleteMessage(actingUserId, messageId int) error {
	user, room, msg, err := s.messageForUser(actingUserId, messageId)
	if err != nil {
		return err
	}

	if err := s.authorizeMessageEdit(user, room, msg); err != nil {
		return err
	}

	if err := s.db.DeleteMessage(msg.Id); err != nil {
		return err
	}

	s.events.MessageRemoved(room, msg.Id)

	empty, err := s.roomIsEmpty(room.Id)
	if err != nil {
		s.log.Printf("count messages after delete: %v", err)
		return nil
	}
	if empty {
		s.events.EmptyStateShown(room)
	}

	return nil
}

// Messages returns the most recent messages in the room, newest
// first, for a member of the room.
func (s *Service) Messages(userId, roomId, limit int) ([]types.Message, error) {
	user, err := s.user(userId)
	if err != nil {
		return nil, err
	}

	room, err := s.roomForUser(user, roomId)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.GetMembership(room.Id, user.Id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotAMember
		}
		return nil, err
	}

	dbMsgs, err := s.db.ListMessages(room.Id, limit)
	if err != nil {
		return nil, err
	}

	return lo.Map(dbMsgs, func(m database.Message, _ int) types.Message {
		return messageFromDB(m)
	}), nil
}

func (s *Service) memberships(roomId int) ([]types.Membership, error) {
	dbMemberships, err := s.db.ListMemberships(roomId)
	if err != nil {
		return nil, err
	}

	return lo.Map(dbMemberships, func(m database.Membership, _ int) types.Membership {
		return membershipFromDB(m)
	}), nil
}

func isMemberOf(memberships []types.Membership, userId int) bool {
	return lo.ContainsBy(memberships, func(m types.Membership) bool {
		return m.UserId == userId
	})
}

func (s *Service) roomIsEmpty(roomId int) (bool, error) {
	count, err := s.db.CountMessages(roomId)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// messageForUser resolves a message and its room, scoped to the
// acting user's account.
func (s *Service) messageForUser(userId, messageId int) (types.User, types.Room, types.Message, error) {
	user, err := s.user(userId)
	if err != nil {
		return types.User{}, types.Room{}, types.Message{}, err
	}

	dbMsg, err := s.db.GetMessageById(messageId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, types.Room{}, types.Message{}, ErrNotFound
		}
		return types.User{}, types.Room{}, types.Message{}, err
	}

	room, err := s.roomForUser(user, dbMsg.RoomId)
	if err != nil {
		return types.User{}, types.Room{}, types.Message{}, err
	}

	return user, room, messageFromDB(dbMsg), nil
}

// authorizeMessageEdit allows the author or a room admin to edit or
// delete a message.
func (s *Service) authorizeMessageEdit(user types.User, room types.Room, msg types.Message) error {
	if msg.UserId == user.Id {
		return nil
	}

	pol, _, err := s.policyFor(user, room)
	if err != nil {
		return err
	}
	if !pol.IsAdmin() {
		return ErrForbidden
	}

	return nil
}
