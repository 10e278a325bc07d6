package chat

import (
	"log"

	"github.com/npezzotti/teamchat/internal/types"
)

// Event names carried on each room's logical channel.
const (
	EventMessageAppended   = "message.appended"
	EventMessageReplaced   = "message.replaced"
	EventMessageRemoved    = "message.removed"
	EventEmptyStateShown   = "room.emptyStateShown"
	EventEmptyStateCleared = "room.emptyStateCleared"
)

// Broadcaster is the outbound event port. The service invokes it
// synchronously after the corresponding row is committed; delivery to
// subscribers is best-effort and must never fail the originating
// write.
type Broadcaster interface {
	MessageAppended(room types.Room, msg types.Message)
	MessageReplaced(room types.Room, msg types.Message)
	MessageRemoved(room types.Room, messageId int)
	EmptyStateShown(room types.Room)
	EmptyStateCleared(room types.Room)
}

// PushNotifier receives a payload for members who should be notified
// out-of-band about a new message. The transport is an external
// collaborator; the default implementation only logs.
type PushNotifier interface {
	MessagePosted(userIds []int, room types.Room, msg types.Message)
}

// LogNotifier is the default PushNotifier. A real deployment swaps
// in a transport-backed implementation.
type LogNotifier struct {
	Log *log.Logger
}

func (n *LogNotifier) MessagePosted(userIds []int, room types.Room, msg types.Message) {
	n.Log.Printf("notify users %v: new message %d in room %q", userIds, msg.Id, room.ExternalId)
}

// NopBroadcaster satisfies Broadcaster and discards all events.
type NopBroadcaster struct{}

func (NopBroadcaster) MessageAppended(types.Room, types.Message) {}
func (NopBroadcaster) MessageReplaced(types.Room, types.Message) {}
func (NopBroadcaster) MessageRemoved(types.Room, int)            {}
func (NopBroadcaster) EmptyStateShown(types.Room)                {}
func (NopBroadcaster) EmptyStateCleared(types.Room)              {}
