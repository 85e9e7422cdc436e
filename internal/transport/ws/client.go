package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rebellion/internal/app"
	"rebellion/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; snapshots carry every player
	maxMessageSize = 256 * 1024

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents a connected game server bridge
type Client struct {
	conn     *websocket.Conn
	session  *app.HostSession
	serverID string
	send     chan []byte
	done     chan struct{}
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a new bridge client
func NewClient(conn *websocket.Conn, session *app.HostSession, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		session:  session,
		serverID: session.ID(),
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger.With("serverID", session.ID()),
	}
}

// GetServerID returns the server ID for this client
func (c *Client) GetServerID() string {
	return c.serverID
}

// Send implements app.ClientConnection interface
func (c *Client) Send(message interface{}) error {
	if cmd, ok := message.(*domain.HostCommand); ok {
		msg := fromCommand(cmd)
		if msg == nil {
			return fmt.Errorf("unsupported host command %q", cmd.Type)
		}
		message = msg
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrSessionClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped")
		return nil
	}
}

// Close implements app.ClientConnection interface
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.session.Detach(c)
		c.Close()
		c.logger.Info("host bridge disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the host
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	if err := c.dispatch(msg); err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownMessage):
			c.sendError(ErrCodeUnknownType, err.Error())
		case errors.Is(err, domain.ErrInvalidPayload):
			c.sendError(ErrCodeInvalidMessage, err.Error())
		default:
			c.sendError(ErrCodeInternalError, err.Error())
		}
	}
}

// dispatch routes a decoded message to the session
func (c *Client) dispatch(msg ClientMessage) error {
	switch msg.Type {
	case MsgPlayerVerified:
		p, err := decodePayload[PlayerVerifiedPayload](msg)
		if err != nil {
			return err
		}
		if p.PlayerID == "" {
			return fmt.Errorf("%w: playerId is required", domain.ErrInvalidPayload)
		}
		c.session.PlayerVerified(p.PlayerID, p.Nickname)
	case MsgRoleChanged:
		p, err := decodePayload[RoleChangedPayload](msg)
		if err != nil {
			return err
		}
		if p.PlayerID == "" || p.Role == "" {
			return fmt.Errorf("%w: playerId and role are required", domain.ErrInvalidPayload)
		}
		c.session.RoleChanged(p.PlayerID, p.Role, p.Team)
	case MsgPlayerDestroyed:
		p, err := decodePayload[PlayerPayload](msg)
		if err != nil {
			return err
		}
		if p.PlayerID == "" {
			return fmt.Errorf("%w: playerId is required", domain.ErrInvalidPayload)
		}
		c.session.PlayerDestroyed(p.PlayerID)
	case MsgItemPickedUp, MsgItemDropped:
		p, err := decodePayload[ItemPayload](msg)
		if err != nil {
			return err
		}
		if p.PlayerID == "" || p.Item == "" {
			return fmt.Errorf("%w: playerId and item are required", domain.ErrInvalidPayload)
		}
		if msg.Type == MsgItemPickedUp {
			c.session.ItemPickedUp(p.PlayerID, p.Item)
		} else {
			c.session.ItemDropped(p.PlayerID, p.Item)
		}
	case MsgPlayerHurt:
		p, err := decodePayload[PlayerHurtPayload](msg)
		if err != nil {
			return err
		}
		if p.VictimID == "" {
			return fmt.Errorf("%w: victimId is required", domain.ErrInvalidPayload)
		}
		c.session.PlayerHurt(p.AttackerID, p.VictimID)
	case MsgRoundEnded:
		c.session.RoundEnded()
	case MsgRoundRestarting:
		c.session.RoundRestarting()
	case MsgWorldSnapshot:
		p, err := decodePayload[WorldSnapshotPayload](msg)
		if err != nil {
			return err
		}
		c.session.ApplySnapshot(p.toPlayerStates())
	case MsgPing:
		c.Send(NewServerMessage(MsgPong, nil))
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownMessage, msg.Type)
	}
	return nil
}

// decodePayload unmarshals a message payload into T
func decodePayload[T any](msg ClientMessage) (T, error) {
	var out T
	if len(msg.Payload) == 0 {
		return out, fmt.Errorf("%w: empty payload for %q", domain.ErrInvalidPayload, msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return out, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return out, nil
}

// sendConnected sends the connected message to the host
func (c *Client) sendConnected(resumed bool) {
	c.Send(NewServerMessage(MsgConnected, &ConnectedPayload{
		ServerID: c.serverID,
		Resumed:  resumed,
	}))
}

// sendError sends an error message to the host
func (c *Client) sendError(code, message string) {
	payload := &ErrorPayload{
		Code:    code,
		Message: message,
	}

	msg := NewServerMessage(MsgError, payload)
	c.Send(msg)
}
