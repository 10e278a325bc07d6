// Package policy computes membership and admin permissions for a
// (user, room) pair. A RoomPolicy is a pure snapshot: it is built from
// data the caller already loaded and performs no I/O, so the same
// policy value always answers the same way.
package policy

import (
	"github.com/npezzotti/teamchat/internal/types"
)

type RoomPolicy struct {
	user        types.User
	room        types.Room
	memberships []types.Membership
}

// NewRoomPolicy builds a policy for user acting on room. memberships
// must be the room's full membership list at the time of the decision.
func NewRoomPolicy(user types.User, room types.Room, memberships []types.Membership) *RoomPolicy {
	return &RoomPolicy{
		user:        user,
		room:        room,
		memberships: memberships,
	}
}

// membership returns the acting user's own membership, or nil.
func (p *RoomPolicy) membership() *types.Membership {
	for i := range p.memberships {
		if p.memberships[i].UserId == p.user.Id {
			return &p.memberships[i]
		}
	}
	return nil
}

func (p *RoomPolicy) adminCount() int {
	var n int
	for _, m := range p.memberships {
		if m.IsAdmin() {
			n++
		}
	}
	return n
}

func (p *RoomPolicy) IsAdmin() bool {
	m := p.membership()
	return m != nil && m.IsAdmin()
}

func (p *RoomPolicy) IsMember() bool {
	return p.membership() != nil
}

// CanJoin reports whether the user may join the room on their own.
// Only public channels are joinable; DM rooms never are.
func (p *RoomPolicy) CanJoin() bool {
	return !p.IsMember() && p.room.IsChannel() && p.room.Visibility == types.VisibilityPublic
}

// CanAddMember reports whether the user may add someone else to the
// room. Anyone may add to a public channel, only admins to a private one.
func (p *RoomPolicy) CanAddMember() bool {
	if p.room.IsChannel() && p.room.Visibility == types.VisibilityPublic {
		return true
	}
	return p.IsAdmin()
}

// CanRemoveMember reports whether the user may remove target from the
// room. Removing yourself goes through leave, not remove.
func (p *RoomPolicy) CanRemoveMember(target types.Membership) bool {
	if !p.IsAdmin() {
		return false
	}
	return target.UserId != p.user.Id
}

// CanLeave reports whether the user may leave the room. The last
// remaining admin cannot leave.
func (p *RoomPolicy) CanLeave() bool {
	m := p.membership()
	if m == nil {
		return false
	}
	if !p.CanEditMembership() {
		return false
	}
	return !(m.IsAdmin() && p.adminCount() == 1)
}

func (p *RoomPolicy) CanEditMembership() bool {
	return p.room.MembershipEditable()
}

func (p *RoomPolicy) CanDelete() bool {
	return p.IsAdmin() && p.room.Deletable()
}
