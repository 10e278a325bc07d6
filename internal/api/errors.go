package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/npezzotti/teamchat/internal/chat"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func NewBadRequestError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    lower(http.StatusText(http.StatusBadRequest)),
	}
}

func NewValidationError(msg string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnprocessableEntity,
		Message:    msg,
	}
}

func NewNotFoundError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusNotFound,
		Message:    lower(http.StatusText(http.StatusNotFound)),
	}
}

func NewConflictError(msg string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusConflict,
		Message:    msg,
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Message:    lower(http.StatusText(http.StatusInternalServerError)),
		Err:        err,
	}
}

func NewUnauthorizedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnauthorized,
		Message:    lower(http.StatusText(http.StatusUnauthorized)),
	}
}

func NewForbiddenError(msg string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusForbidden,
		Message:    msg,
	}
}

func NewLockedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusLocked,
		Message:    "account locked, try again later",
	}
}

// fromDomainError maps service errors onto API errors.
func fromDomainError(err error) *ApiError {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		return NewNotFoundError()
	case errors.Is(err, chat.ErrForbidden):
		return NewForbiddenError(chat.ErrForbidden.Error())
	case errors.Is(err, chat.ErrNotAMember):
		return NewForbiddenError(chat.ErrNotAMember.Error())
	case errors.Is(err, chat.ErrAlreadyMember):
		return NewConflictError(chat.ErrAlreadyMember.Error())
	case errors.Is(err, chat.ErrLastAdmin):
		return NewConflictError(chat.ErrLastAdmin.Error())
	case errors.Is(err, chat.ErrRoomNotEditable):
		return NewConflictError(chat.ErrRoomNotEditable.Error())
	case errors.Is(err, chat.ErrValidation):
		return NewValidationError(err.Error())
	default:
		return NewInternalServerError(err)
	}
}
