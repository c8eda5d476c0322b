package hub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client is one authenticated WebSocket connection. The identity is
// verified once at handshake time and never re-checked per message. The
// client is the single owner of its joined-room set; disconnect handling
// derives every "peer left" notification from it.
type Client struct {
	ID       string
	UserID   int64
	UserName string

	conn    Conn
	writeMu sync.Mutex

	mu    sync.Mutex
	rooms map[int64]bool
}

// NewClient wraps a connection with a verified identity
func NewClient(userID int64, userName string, conn Conn) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		UserName: userName,
		conn:     conn,
		rooms:    make(map[int64]bool),
	}
}

// Send marshals an envelope and writes it; writes are serialized per
// connection so concurrent broadcasts cannot interleave frames.
func (c *Client) Send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// SendError emits an error event to this client only
func (c *Client) SendError(message string) {
	if err := c.Send(EventError, ErrorData{Message: message}); err != nil {
		log.Printf("[Hub] Failed to send error to client %s: %v", c.ID, err)
	}
}

func (c *Client) addRoom(boardID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[boardID] = true
}

func (c *Client) inRoom(boardID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[boardID]
}

// takeRooms returns the joined-room set and clears it, so a double
// disconnect produces no second round of leave notifications.
func (c *Client) takeRooms() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int64, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	c.rooms = make(map[int64]bool)
	return ids
}
