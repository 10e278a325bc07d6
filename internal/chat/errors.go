package chat

import (
	"errors"

	"github.com/npezzotti/teamchat/internal/database"
)

// Domain errors surfaced by the service. The API layer maps these
// onto HTTP status codes. Cross-account lookups always surface
// ErrNotFound rather than ErrForbidden so existence never leaks
// across tenant boundaries.
var (
	ErrForbidden       = errors.New("you don't have permission to do that")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyMember   = errors.New("already a member of this room")
	ErrNotAMember      = errors.New("not a member of this room")
	ErrLastAdmin       = errors.New("can't leave as the only admin; delete the room or promote another admin first")
	ErrRoomNotEditable = errors.New("membership cannot be changed for the General room")
	ErrValidation      = errors.New("validation failed")
)

func isUniqueViolation(err error) bool {
	return database.IsUniqueViolation(err)
}

func isLastAdmin(err error) bool {
	return errors.Is(err, database.ErrLastAdmin)
}
