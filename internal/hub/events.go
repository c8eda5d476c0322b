package hub

import (
	"encoding/json"
	"strconv"

	"whiteboard-backend/internal/model"
)

// Wire event names. Client-to-server and server-to-client share the same
// vocabulary; relayed events are re-emitted with sender identity attached.
const (
	EventJoinRoom           = "join-room"
	EventCanvasData         = "canvas-data"
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"
	EventDraw               = "draw"
	EventCursorMove         = "cursor-move"
	EventChatMessage        = "chat-message"
	EventHeartbeat          = "heartbeat"
	EventPollCreated        = "poll-created"
	EventVoteCast           = "vote-cast"
	EventPollResultsUpdated = "poll-results-updated"
	EventPollClosed         = "poll-closed"
	EventError              = "error"
)

// Envelope is the framing for every WebSocket message
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoomData join-room request payload
type JoinRoomData struct {
	RoomID string `json:"roomId"`
}

// CanvasSnapshotData one-time canvas state sent to a joining client
type CanvasSnapshotData struct {
	CanvasData string `json:"canvasData"`
}

// PeerData identifies a peer in user-joined / user-left notifications
type PeerData struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}

// DrawData a relayed canvas operation. ObjectID is the client-assigned
// stable identifier correlating modify/remove with a prior add.
type DrawData struct {
	RoomID     string           `json:"roomId"`
	UserID     int64            `json:"userId,omitempty"`
	UserName   string           `json:"userName,omitempty"`
	ObjectID   string           `json:"objectId,omitempty"`
	ObjectData json.RawMessage  `json:"objectData"`
	Action     model.DrawAction `json:"action"`
}

// CursorData a relayed cursor position
type CursorData struct {
	RoomID   string  `json:"roomId"`
	UserID   int64   `json:"userId,omitempty"`
	UserName string  `json:"userName,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// ChatData a relayed chat message
type ChatData struct {
	RoomID    string `json:"roomId"`
	Text      string `json:"text"`
	UserID    int64  `json:"userId,omitempty"`
	UserName  string `json:"userName,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ErrorData error event payload; never closes the connection
type ErrorData struct {
	Message string `json:"message"`
}

// ParseRoomID converts a wire room identifier to a whiteboard ID
func ParseRoomID(roomID string) (int64, bool) {
	id, err := strconv.ParseInt(roomID, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// FormatRoomID converts a whiteboard ID to its wire room identifier
func FormatRoomID(boardID int64) string {
	return strconv.FormatInt(boardID, 10)
}
