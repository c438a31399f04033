package server

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"roomcast/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one connected session. Its id is opaque and lives only as long
// as the physical connection; a reconnect is a brand-new session with no
// memory of prior room memberships.
type Client struct {
	id         string
	conn       *websocket.Conn
	chatServer *ChatServer
	log        *log.Logger
	send       chan *ServerEvent
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewClient(conn *websocket.Conn, cs *ChatServer, l *log.Logger) *Client {
	return &Client{
		id:         uuid.NewString(),
		conn:       conn,
		chatServer: cs,
		log:        l,
		send:       make(chan *ServerEvent, 256),
		stop:       make(chan struct{}),
	}
}

// SessionId returns the opaque session identifier.
func (c *Client) SessionId() string {
	return c.id
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(ev)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
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
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var ev ClientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Printf("session %s sent malformed event: %v", c.id, err)
			c.queueEvent(ErrInvalidPayload("malformed event envelope"))
			continue
		}

		switch ev.Event {
		case EventJoinRoom:
			c.handleJoinRoom(ev.Data)
		case EventLeaveRoom:
			c.handleLeaveRoom(ev.Data)
		case EventSendMessage:
			c.handleSendMessage(ev.Data)
		default:
			c.queueEvent(ErrUnknownEvent(ev.Event))
		}
	}
}

// handleJoinRoom adds the session to the room and announces the join to the
// whole room, joiner included. A join on an unknown room creates it.
func (c *Client) handleJoinRoom(data json.RawMessage) {
	var p JoinRoomPayload
	if err := decodePayload(data, &p); err != nil {
		c.log.Printf("session %s: invalid join_room payload: %v", c.id, err)
		c.queueEvent(ErrInvalidPayload("join_room requires room and username"))
		return
	}

	if created := c.chatServer.registry.Join(c, p.Room); created {
		c.chatServer.stats.Incr(metricActiveRooms)
	}

	c.chatServer.Broadcast(p.Room, SystemMessage(p.Room, fmt.Sprintf("%s joined %s", p.Username, p.Room)), nil)
}

// handleLeaveRoom removes the session from the room and announces the leave
// to the remaining members.
func (c *Client) handleLeaveRoom(data json.RawMessage) {
	var p LeaveRoomPayload
	if err := decodePayload(data, &p); err != nil {
		c.log.Printf("session %s: invalid leave_room payload: %v", c.id, err)
		c.queueEvent(ErrInvalidPayload("leave_room requires room and username"))
		return
	}

	if emptied := c.chatServer.registry.Leave(c, p.Room); emptied {
		c.chatServer.stats.Decr(metricActiveRooms)
	}

	c.chatServer.Broadcast(p.Room, SystemMessage(p.Room, fmt.Sprintf("%s left %s", p.Username, p.Room)), nil)
}

// handleSendMessage persists the message and, only once the write has
// succeeded, broadcasts it to the room excluding the sender (who already
// has a local echo). A failed write is surfaced to the sender and nothing
// is broadcast.
func (c *Client) handleSendMessage(data json.RawMessage) {
	var p SendMessagePayload
	if err := decodePayload(data, &p); err != nil {
		c.log.Printf("session %s: invalid send_message payload: %v", c.id, err)
		c.queueEvent(ErrInvalidPayload("send_message requires room, sender and content"))
		return
	}

	saved, err := c.chatServer.db.SaveMessage(p.Room, p.Sender, p.Content)
	if err != nil {
		c.log.Printf("session %s: save message: %v", c.id, err)
		c.queueEvent(ErrStorageUnavailable())
		return
	}

	c.chatServer.stats.Incr(metricMessagesSaved)

	c.chatServer.Broadcast(p.Room, NewMessage(types.Message{
		Room:      saved.Room,
		Sender:    saved.Sender,
		Content:   saved.Content,
		Timestamp: saved.CreatedAt,
	}), c)
}

// queueEvent enqueues ev for delivery to this session without blocking.
func (c *Client) queueEvent(ev *ServerEvent) bool {
	select {
	case c.send <- ev:
	default:
		c.log.Printf("send queue full for session %s", c.id)
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
	select {
	case c.chatServer.deRegisterChan <- c:
	case <-c.chatServer.done:
		// server loop already exited
	}

	rooms, emptied := c.chatServer.registry.RemoveAll(c)
	if len(rooms) > 0 {
		c.log.Printf("session %s removed from rooms %v on disconnect", c.id, rooms)
	}
	for range emptied {
		c.chatServer.stats.Decr(metricActiveRooms)
	}

	c.stopClient()
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
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
