package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/npezzotti/teamchat/internal/chat"
	"github.com/npezzotti/teamchat/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is an inbound frame. Exactly one of the payload
// fields is set.
type ClientMessage struct {
	BaseMessage
	Subscribe   *Subscribe   `json:"subscribe,omitempty"`
	Unsubscribe *Unsubscribe `json:"unsubscribe,omitempty"`
	Publish     *Publish     `json:"publish,omitempty"`
	Read        *Read        `json:"read,omitempty"`
	UserId      int          `json:"-"`
	client      *Client      `json:"-"`
}

func (cm *ClientMessage) GetUserId() int {
	if cm.UserId != 0 {
		return cm.UserId
	}

	if cm.client != nil {
		return cm.client.user.Id
	}

	return 0
}

type Subscribe struct {
	RoomId string `json:"room_id"`
}

type Unsubscribe struct {
	RoomId string `json:"room_id"`
}

type Publish struct {
	RoomId string `json:"room_id"`
	Body   string `json:"body"`
}

type Read struct {
	RoomId string `json:"room_id"`
}

// ServerMessage is an outbound frame: either a response to a client
// frame or an event on a room the client subscribed to.
type ServerMessage struct {
	BaseMessage
	Response *Response `json:"response,omitempty"`
	Event    *Event    `json:"event,omitempty"`
}

type Response struct {
	ResponseCode int            `json:"response_code"`
	Error        string         `json:"error,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// Event mirrors the Broadcaster port. RoomId is the room's external
// id; Message is set for append and replace, MessageId for remove.
type Event struct {
	Name      string         `json:"name"`
	RoomId    string         `json:"room_id"`
	Message   *types.Message `json:"message,omitempty"`
	MessageId int            `json:"message_id,omitempty"`
}

func NoErrOK(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrAccepted(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
		},
	}
}

func errResponse(id, code int, msg string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: code,
			Error:        msg,
		},
	}
}

func ErrRoomNotFound(id int) *ServerMessage {
	return errResponse(id, http.StatusNotFound, "room not found")
}

func ErrNotSubscribed(id int) *ServerMessage {
	return errResponse(id, http.StatusConflict, "not subscribed to room")
}

func ErrInternalError(id int) *ServerMessage {
	return errResponse(id, http.StatusInternalServerError, "internal server error")
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return errResponse(id, http.StatusServiceUnavailable, "service unavailable")
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := errResponse(0, http.StatusBadRequest, "invalid message format")
	if id > 0 {
		msg.Id = id
	}
	return msg
}

// errDomain maps service errors onto response frames.
func errDomain(id int, err error) *ServerMessage {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		return ErrRoomNotFound(id)
	case errors.Is(err, chat.ErrNotAMember):
		return errResponse(id, http.StatusForbidden, chat.ErrNotAMember.Error())
	case errors.Is(err, chat.ErrForbidden):
		return errResponse(id, http.StatusForbidden, chat.ErrForbidden.Error())
	case errors.Is(err, chat.ErrValidation):
		return errResponse(id, http.StatusBadRequest, err.Error())
	default:
		return ErrInternalError(id)
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
