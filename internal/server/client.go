package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/npezzotti/teamchat/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ChatService is the slice of the application service a websocket
// client needs: subscription authorization and the write operations
// carried over the socket.
type ChatService interface {
	RoomForMember(userId int, externalId string) (types.Room, error)
	PostMessage(roomId, userId int, body string) (types.Message, error)
	MarkRead(userId, roomId int) error
}

// Client is one websocket connection. A user may hold several; each
// gets its own session id and subscription set.
type Client struct {
	sessionId string
	conn      *websocket.Conn
	hub       *Hub
	svc       ChatService
	log       *log.Logger
	user      types.User
	send      chan *ServerMessage
	subs      map[string]types.Room
	subsLock  sync.RWMutex
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, hub *Hub, svc ChatService, l *log.Logger) *Client {
	return &Client{
		sessionId: uuid.NewString(),
		conn:      conn,
		hub:       hub,
		svc:       svc,
		log:       l,
		user:      user,
		send:      make(chan *ServerMessage, 256),
		subs:      make(map[string]types.Room),
		stop:      make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.writeFrame(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.writeFrame(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.client = c
		msg.UserId = c.user.Id
		msg.Timestamp = Now()

		switch {
		case msg.Subscribe != nil:
			c.handleSubscribe(&msg)
		case msg.Unsubscribe != nil:
			c.handleUnsubscribe(&msg)
		case msg.Publish != nil:
			c.handlePublish(&msg)
		case msg.Read != nil:
			c.handleRead(&msg)
		default:
			c.queueMessage(ErrInvalidMessage(msg.Id))
		}
	}
}

// handleSubscribe authorizes the subscription against current room
// membership before handing it to the hub.
func (c *Client) handleSubscribe(msg *ClientMessage) {
	room, err := c.svc.RoomForMember(c.user.Id, msg.Subscribe.RoomId)
	if err != nil {
		c.queueMessage(errDomain(msg.Id, err))
		return
	}

	select {
	case c.hub.subscribeChan <- subscription{client: c, room: room}:
	default:
		c.queueMessage(ErrServiceUnavailable(msg.Id))
		return
	}

	c.addSub(room)
	c.queueMessage(NoErrOK(msg.Id, map[string]any{"room_id": room.ExternalId}))
}

func (c *Client) handleUnsubscribe(msg *ClientMessage) {
	room, ok := c.getSub(msg.Unsubscribe.RoomId)
	if !ok {
		c.queueMessage(ErrNotSubscribed(msg.Id))
		return
	}

	select {
	case c.hub.unsubscribeChan <- subscription{client: c, room: room}:
	default:
		c.queueMessage(ErrServiceUnavailable(msg.Id))
		return
	}

	c.delSub(room.ExternalId)
	c.queueMessage(NoErrOK(msg.Id, nil))
}

// handlePublish persists through the service; the appended event
// comes back through the hub like any other subscriber's.
func (c *Client) handlePublish(msg *ClientMessage) {
	room, ok := c.getSub(msg.Publish.RoomId)
	if !ok {
		c.queueMessage(ErrNotSubscribed(msg.Id))
		return
	}

	if _, err := c.svc.PostMessage(room.Id, c.user.Id, msg.Publish.Body); err != nil {
		c.queueMessage(errDomain(msg.Id, err))
		return
	}

	c.queueMessage(NoErrAccepted(msg.Id))
}

func (c *Client) handleRead(msg *ClientMessage) {
	room, ok := c.getSub(msg.Read.RoomId)
	if !ok {
		c.queueMessage(ErrNotSubscribed(msg.Id))
		return
	}

	if err := c.svc.MarkRead(c.user.Id, room.Id); err != nil {
		c.queueMessage(errDomain(msg.Id, err))
		return
	}

	c.queueMessage(NoErrOK(msg.Id, nil))
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("send buffer full for session %s, dropping frame", c.sessionId)
		return false
	}

	return true
}

func (c *Client) writeFrame(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) cleanup() {
	c.hub.deregisterChan <- c
	c.stopClient()
}

func (c *Client) addSub(room types.Room) {
	c.subsLock.Lock()
	defer c.subsLock.Unlock()
	c.subs[room.ExternalId] = room
}

func (c *Client) delSub(externalId string) {
	c.subsLock.Lock()
	defer c.subsLock.Unlock()
	delete(c.subs, externalId)
}

func (c *Client) getSub(externalId string) (types.Room, bool) {
	c.subsLock.RLock()
	defer c.subsLock.RUnlock()
	room, ok := c.subs[externalId]
	return room, ok
}
