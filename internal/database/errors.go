package database

import (
	"errors"

	"github.com/lib/pq"
)

// ErrLastAdmin is returned by DeleteOwnMembership when deleting the
// row would leave the room with no admins. The check runs inside the
// delete transaction against committed state under row locks.
var ErrLastAdmin = errors.New("room would be left without an admin")

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique
// constraint violation, e.g. a concurrent insert of the same
// (room_id, user_id) membership.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
