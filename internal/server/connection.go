package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjack-advisor/internal/advisor"
	"github.com/lox/blackjack-advisor/internal/report"
	"github.com/lox/blackjack-advisor/internal/store"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Game states carry the full casino payload
	maxMessageSize = 64 * 1024

	sendBuffer = 64
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Connection is one WebSocket client. Frames are handled one at a time in the
// order they arrive.
type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan *Message
	advisor   *advisor.Advisor
	stats     StatsSource
	clock     quartz.Clock
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection wraps an upgraded WebSocket
func NewConnection(id string, conn *websocket.Conn, adv *advisor.Advisor, stats StatsSource, clock quartz.Clock, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		id:      id,
		conn:    conn,
		send:    make(chan *Message, sendBuffer),
		advisor: adv,
		stats:   stats,
		clock:   clock,
		logger:  logger.WithPrefix("conn").With("session", id),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ID returns the session identifier
func (c *Connection) ID() string {
	return c.id
}

// Start begins reading and writing
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection. It is safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrSendBufferFull
	}
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := c.clock.NewTicker(pingPeriod, "conn", "ping")
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "request", msg.RequestID)

	switch msg.Type {
	case MessageTypeGameState:
		var req advisor.Request
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse game state")
			return
		}
		resp, err := c.advisor.HandleState(c.ctx, req)
		if err != nil {
			c.sendError(msg, "advice_failed", err.Error())
			return
		}
		c.reply(msg, MessageTypeAdvice, resp)

	case MessageTypeStats:
		if c.stats == nil {
			c.sendError(msg, "stats_unavailable", "recording is disabled")
			return
		}
		var data StatsRequestData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError(msg, "invalid_message", "Failed to parse stats request")
				return
			}
		}
		snap, err := report.Summarize(c.ctx, c.stats, store.Filter{FormKey: data.FormKey})
		if err != nil {
			c.logger.Error("Failed to load statistics", "error", err)
			c.sendError(msg, "stats_failed", err.Error())
			return
		}
		c.reply(msg, MessageTypeStats, snap)

	case MessageTypePing:
		c.reply(msg, MessageTypePong, struct{}{})

	default:
		c.logger.Warn("Unknown message type", "type", msg.Type)
		c.sendError(msg, "unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) reply(req *Message, messageType MessageType, data any) {
	msg, err := NewMessage(messageType, data, c.clock.Now().UTC())
	if err != nil {
		c.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	msg.RequestID = req.RequestID
	if err := c.SendMessage(msg); err != nil {
		c.logger.Debug("Dropped reply", "type", messageType, "error", err)
	}
}

func (c *Connection) sendError(req *Message, code, message string) {
	c.reply(req, MessageTypeError, ErrorData{Code: code, Message: message})
}
