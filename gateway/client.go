package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"trekconnect/domain"
	"trekconnect/domain/event"
	"trekconnect/errors"
	"trekconnect/transport"
)

// ConnLike is the slice of *websocket.Conn the client code needs,
// kept as an interface so pumps can be tested without a live socket.
type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

// ClientConn is one authenticated websocket connection. It consumes
// pipeline events as an EventSink and feeds inbound frames into the hub.
type ClientConn struct {
	participantID domain.ParticipantID
	conn          ConnLike
	hub           *Hub
	send          chan []byte
	log           *slog.Logger
	closeOnce     sync.Once
}

func NewClientConn(participantID domain.ParticipantID, conn ConnLike,
	hub *Hub, sendBuffer int, log *slog.Logger) *ClientConn {
	return &ClientConn{
		participantID: participantID,
		conn:          conn,
		hub:           hub,
		send:          make(chan []byte, sendBuffer),
		log:           log,
	}
}

// Consume turns pipeline events into wire frames for this connection.
// Events that carry nothing for a client are dropped silently.
func (c *ClientConn) Consume(ctx context.Context, e event.DomainEvent) error {
	var frame transport.Frame
	switch evt := e.(type) {
	case event.SanitizedMessage:
		msg := evt.Message
		frame = transport.Frame{Type: transport.FrameMessage, RoomID: msg.RoomID, Message: &msg}
	case event.MessageRead:
		at := evt.ReadAt
		frame = transport.Frame{
			Type:      transport.FrameMessageRead,
			RoomID:    evt.RoomID,
			MessageID: evt.MessageID.String(),
			ReadAt:    &at,
		}
	default:
		return nil
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case c.send <- data:
		return nil
	}
}

// ReadPump drains inbound frames until the socket dies, then cleans up
// every registration this connection held.
func (c *ClientConn) ReadPump() {
	defer func() {
		c.hub.Drop(c.participantID)
		c.closeSend()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Debug("Websocket closed", "participant", c.participantID, "error", err)
			return
		}
		var frame transport.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.reject("malformed frame")
			continue
		}
		c.handle(frame)
	}
}

// WritePump serializes all writes to the underlying connection.
func (c *ClientConn) WritePump() {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.log.Debug("Websocket write failed", "participant", c.participantID, "error", err)
			return
		}
	}
}

func (c *ClientConn) handle(frame transport.Frame) {
	switch frame.Type {
	case transport.FrameJoinRoom:
		c.handleJoin(frame)
	case transport.FrameLeaveRoom:
		c.hub.Unsubscribe(c.participantID, frame.RoomID)
	case transport.FrameSendMessage:
		c.handleSend(frame)
	case transport.FrameMarkRead:
		c.handleMarkRead(frame)
	default:
		c.reject(fmt.Sprintf("unknown frame type %q", frame.Type))
	}
}

func (c *ClientConn) handleJoin(frame transport.Frame) {
	if !domain.Belongs(frame.RoomID, c.participantID) {
		c.reject(errors.ErrForeignRoom.Error())
		return
	}
	c.hub.Subscribe(c.participantID, frame.RoomID, c)
}

func (c *ClientConn) handleSend(frame transport.Frame) {
	if frame.Message == nil {
		c.reject("missing message")
		return
	}
	msg := *frame.Message

	// The wire identity is advisory; the token decides who sent this
	msg.SenderID = c.participantID
	if !domain.Belongs(msg.RoomID, c.participantID) {
		c.reject(errors.ErrForeignRoom.Error())
		return
	}
	if strings.TrimSpace(msg.Body) == "" {
		c.reject(errors.ErrEmptyMessage.Error())
		return
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	c.hub.Dispatch(domain.PostMessageCommand{Message: msg})
}

func (c *ClientConn) handleMarkRead(frame transport.Frame) {
	messageID, err := uuid.Parse(frame.MessageID)
	if err != nil {
		c.reject("invalid message id")
		return
	}
	stored, err := c.hub.Lookup(messageID)
	if err != nil {
		c.reject(errors.ErrUnknownMessage.Error())
		return
	}
	if !domain.Belongs(stored.RoomID, c.participantID) {
		c.reject(errors.ErrForeignRoom.Error())
		return
	}

	c.hub.Dispatch(domain.MarkReadCommand{Message: stored, Reader: c.participantID})
}

// reject reports a refused frame back on the same connection.
func (c *ClientConn) reject(reason string) {
	data, err := json.Marshal(transport.Frame{Type: transport.FrameError, Error: reason})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Debug("Send buffer full, dropping error frame", "participant", c.participantID)
	}
}

func (c *ClientConn) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}
