package chat

import (
	"database/sql"
	"errors"

	"github.com/npezzotti/teamchat/internal/types"
)

// Join adds the user to a public channel as a plain member. All
// validation happens before any write; a concurrent duplicate join
// loses on the (room_id, user_id) unique constraint and surfaces as
// ErrAlreadyMember.
func (s *Service) Join(userId, roomId int) (types.Membership, error) {
	user, err := s.user(userId)
	if err != nil {
		return types.Membership{}, err
	}

	room, err := s.roomForUser(user, roomId)
	if err != nil {
		return types.Membership{}, err
	}

	if !room.MembershipEditable() {
		return types.Membership{}, ErrRoomNotEditable
	}

	pol, _, err := s.policyFor(user, room)
	if err != nil {
		return types.Membership{}, err
	}

	if pol.IsMember() {
		return types.Membership{}, ErrAlreadyMember
	}
	if !pol.CanJoin() {
		return types.Membership{}, ErrForbidden
	}

	m, err := s.db.CreateMembership(room.Id, user.Id, string(types.RoleMember))
	if err != nil {
		if isUniqueViolation(err) {
			return types.Membership{}, ErrAlreadyMember
		}
		return types.Membership{}, err
	}

	return membershipFromDB(m), nil
}

// AddMember adds targetUser to the room on behalf of actingUser.
// Anyone may add to public channels, only admins to private ones.
// Targets outside the acting user's account resolve as not found.
func (s *Service) AddMember(actingUserId, roomId, targetUserId int) (types.Membership, error) {
	actor, err := s.user(actingUserId)
	if err != nil {
		return types.Membership{}, err
	}

	room, err := s.roomForUser(actor, roomId)
	if err != nil {
		return types.Membership{}, err
	}

	if !room.MembershipEditable() {
		return types.Membership{}, ErrRoomNotEditable
	}

	pol, memberships, err := s.policyFor(actor, room)
	if err != nil {
		return types.Membership{}, err
	}

	if !pol.CanAddMember() {
		return types.Membership{}, ErrForbidden
	}

	target, err := s.user(targetUserId)
	if err != nil {
		return types.Membership{}, err
	}
	if target.AccountId != actor.AccountId {
		return types.Membership{}, ErrNotFound
	}

	for _, m := range memberships {
		if m.UserId == target.Id {
			return types.Membership{}, ErrAlreadyMember
		}
	}

	m, err := s.db.CreateMembership(room.Id, target.Id, string(types.RoleMember))
	if err != nil {
		if isUniqueViolation(err) {
			return types.Membership{}, ErrAlreadyMember
		}
		return types.Membership{}, err
	}

	return membershipFromDB(m), nil
}

// Leave removes the user's own membership. The last-admin invariant
// is checked twice: against the policy snapshot for a fast failure,
// and again inside the delete transaction against committed state.
func (s *Service) Leave(userId, roomId int) error {
	user, err := s.user(userId)
	if err != nil {
		return err
	}

	room, err := s.roomForUser(user, roomId)
	if err != nil {
		return err
	}

	if !room.MembershipEditable() {
		return ErrRoomNotEditable
	}

	pol, memberships, err := s.policyFor(user, room)
	if err != nil {
		return err
	}

	if !pol.IsMember() {
		return ErrNotAMember
	}
	if !pol.CanLeave() {
		return ErrLastAdmin
	}

	var membershipId int
	for _, m := range memberships {
		if m.UserId == user.Id {
			membershipId = m.Id
			break
		}
	}

	if err := s.db.DeleteOwnMembership(membershipId); err != nil {
		if isLastAdmin(err) {
			return ErrLastAdmin
		}
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotAMember
		}
		return err
	}

	return nil
}

// RemoveMember removes someone else's membership on behalf of an
// admin. Removing yourself goes through Leave.
func (s *Service) RemoveMember(actingUserId, roomId, membershipId int) error {
	actor, err := s.user(actingUserId)
	if err != nil {
		return err
	}

	room, err := s.roomForUser(actor, roomId)
	if err != nil {
		return err
	}

	target, err := s.db.GetMembershipById(membershipId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if target.RoomId != room.Id {
		return ErrNotFound
	}

	if !room.MembershipEditable() {
		return ErrRoomNotEditable
	}

	pol, _, err := s.policyFor(actor, room)
	if err != nil {
		return err
	}

	if !pol.CanRemoveMember(membershipFromDB(target)) {
		return ErrForbidden
	}

	return s.db.DeleteMembership(target.Id)
}
