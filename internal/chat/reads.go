package chat

import (
	"database/sql"
	"errors"
	"time"
)

// MarkRead advances the user's read watermark for the room to now.
// Idempotent; creates the watermark row on first use.
func (s *Service) MarkRead(userId, roomId int) error {
	user, err := s.user(userId)
	if err != nil {
		return err
	}

	room, err := s.roomForUser(user, roomId)
	if err != nil {
		return err
	}

	if _, err := s.db.GetMembership(room.Id, user.Id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotAMember
		}
		return err
	}

	return s.db.UpsertRoomRead(user.Id, room.Id, time.Now().UTC())
}

// IsUnread reports whether the room holds a message newer than the
// user's watermark. A room the user never visited is unread as soon
// as it has any message.
func (s *Service) IsUnread(userId, roomId int) (bool, error) {
	user, err := s.user(userId)
	if err != nil {
		return false, err
	}

	room, err := s.roomForUser(user, roomId)
	if err != nil {
		return false, err
	}

	rr, err := s.db.GetRoomRead(user.Id, room.Id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			count, err := s.db.CountMessages(room.Id)
			if err != nil {
				return false, err
			}
			return count > 0, nil
		}
		return false, err
	}

	return s.db.HasMessagesSince(room.Id, rr.LastReadAt)
}

// HasMessagesSince reports whether the room received any message
// after the given timestamp.
func (s *Service) HasMessagesSince(roomId int, since time.Time) (bool, error) {
	return s.db.HasMessagesSince(roomId, since)
}
