package hub

// Conn is the minimal transport surface the hub writes to. The production
// implementation is *websocket.Conn; tests substitute an in-memory fake.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}
