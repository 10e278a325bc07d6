package server

import (
	"log"

	"github.com/npezzotti/teamchat/internal/chat"
	"github.com/npezzotti/teamchat/internal/stats"
	"github.com/npezzotti/teamchat/internal/types"
)

type subscription struct {
	client *Client
	room   types.Room
}

type event struct {
	roomId int
	msg    *ServerMessage
}

// Hub fans room events out to websocket clients. It satisfies
// chat.Broadcaster; the service hands it committed events and the Run
// loop delivers them to each room's subscribers. Delivery is
// best-effort: a full client buffer or a full event queue drops the
// frame rather than blocking a write path.
type Hub struct {
	log             *log.Logger
	stats           stats.StatsProvider
	clients         map[*Client]struct{}
	rooms           map[int]map[*Client]struct{}
	RegisterChan    chan *Client
	deregisterChan  chan *Client
	subscribeChan   chan subscription
	unsubscribeChan chan subscription
	eventChan       chan event
	stop            chan struct{}
	done            chan struct{}
}

func NewHub(logger *log.Logger, statsProvider stats.StatsProvider) *Hub {
	h := &Hub{
		log:             logger,
		stats:           statsProvider,
		clients:         make(map[*Client]struct{}),
		rooms:           make(map[int]map[*Client]struct{}),
		RegisterChan:    make(chan *Client),
		deregisterChan:  make(chan *Client),
		subscribeChan:   make(chan subscription, 256),
		unsubscribeChan: make(chan subscription, 256),
		eventChan:       make(chan event, 1024),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}

	for _, name := range []string{
		stats.MetricActiveConnections,
		stats.MetricActiveSubscriptions,
		stats.MetricBroadcastEvents,
		stats.MetricDroppedEvents,
	} {
		h.stats.RegisterMetric(name)
	}

	return h
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.RegisterChan:
			h.log.Printf("adding connection %s for %q", c.sessionId, c.user.Name)
			h.clients[c] = struct{}{}
			h.stats.Incr(stats.MetricActiveConnections)
		case c := <-h.deregisterChan:
			h.log.Printf("removing connection %s for %q", c.sessionId, c.user.Name)
			h.drainMembership()
			h.removeClient(c)
		case sub := <-h.subscribeChan:
			h.addSubscription(sub)
		case sub := <-h.unsubscribeChan:
			h.removeSubscription(sub)
		case ev := <-h.eventChan:
			h.drainMembership()
			h.dispatch(ev)
		case <-h.stop:
			close(h.done)
			return
		}
	}
}

// Shutdown stops all client pumps and then the Run loop.
func (h *Hub) Shutdown() {
	for c := range h.clients {
		c.stopClient()
	}

	close(h.stop)
	<-h.done
}

// drainMembership applies queued subscription changes. Membership
// channels are buffered, so a change enqueued before an event must be
// applied before that event dispatches.
func (h *Hub) drainMembership() {
	for {
		select {
		case sub := <-h.subscribeChan:
			h.addSubscription(sub)
		case sub := <-h.unsubscribeChan:
			h.removeSubscription(sub)
		default:
			return
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	h.stats.Decr(stats.MetricActiveConnections)

	for roomId, subs := range h.rooms {
		if _, ok := subs[c]; ok {
			delete(subs, c)
			h.stats.Decr(stats.MetricActiveSubscriptions)
		}
		if len(subs) == 0 {
			delete(h.rooms, roomId)
		}
	}
}

func (h *Hub) addSubscription(sub subscription) {
	subs, ok := h.rooms[sub.room.Id]
	if !ok {
		subs = make(map[*Client]struct{})
		h.rooms[sub.room.Id] = subs
	}

	if _, ok := subs[sub.client]; ok {
		return
	}

	subs[sub.client] = struct{}{}
	h.stats.Incr(stats.MetricActiveSubscriptions)
}

func (h *Hub) removeSubscription(sub subscription) {
	subs, ok := h.rooms[sub.room.Id]
	if !ok {
		return
	}

	if _, ok := subs[sub.client]; !ok {
		return
	}

	delete(subs, sub.client)
	h.stats.Decr(stats.MetricActiveSubscriptions)

	if len(subs) == 0 {
		delete(h.rooms, sub.room.Id)
	}
}

func (h *Hub) dispatch(ev event) {
	for c := range h.rooms[ev.roomId] {
		if !c.queueMessage(ev.msg) {
			h.stats.Incr(stats.MetricDroppedEvents)
		}
	}

	h.stats.Incr(stats.MetricBroadcastEvents)
}

// publish enqueues an event without blocking the caller. The service
// invokes the Broadcaster methods on its own request goroutines.
func (h *Hub) publish(roomId int, msg *ServerMessage) {
	select {
	case h.eventChan <- event{roomId: roomId, msg: msg}:
	case <-h.stop:
	default:
		h.log.Printf("event queue full, dropping event for room %d", roomId)
		h.stats.Incr(stats.MetricDroppedEvents)
	}
}

func (h *Hub) MessageAppended(room types.Room, msg types.Message) {
	h.publish(room.Id, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			Name:    chat.EventMessageAppended,
			RoomId:  room.ExternalId,
			Message: &msg,
		},
	})
}

func (h *Hub) MessageReplaced(room types.Room, msg types.Message) {
	h.publish(room.Id, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			Name:    chat.EventMessageReplaced,
			RoomId:  room.ExternalId,
			Message: &msg,
		},
	})
}

func (h *Hub) MessageRemoved(room types.Room, messageId int) {
	h.publish(room.Id, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			Name:      chat.EventMessageRemoved,
			RoomId:    room.ExternalId,
			MessageId: messageId,
		},
	})
}

func (h *Hub) EmptyStateShown(room types.Room) {
	h.publish(room.Id, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			Name:   chat.EventEmptyStateShown,
			RoomId: room.ExternalId,
		},
	})
}

func (h *Hub) EmptyStateCleared(room types.Room) {
	h.publish(room.Id, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			Name:   chat.EventEmptyStateCleared,
			RoomId: room.ExternalId,
		},
	})
}
