package hub

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/repository"
	"whiteboard-backend/internal/service"
)

// Room is one whiteboard's live membership set
type Room struct {
	ID int64

	mu      sync.RWMutex
	clients map[string]*Client
}

func newRoom(id int64) *Room {
	return &Room{
		ID:      id,
		clients: make(map[string]*Client),
	}
}

func (r *Room) add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

func (r *Room) remove(clientID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientID)
	return len(r.clients)
}

// snapshot copies the member list so sends happen outside the room lock
func (r *Room) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Hub coordinates every live room: membership, draw/cursor/chat relay and
// debounced canvas persistence. REST-side poll mutations reach connected
// peers through NotifyRoom.
type Hub struct {
	boards    repository.WhiteboardRepository
	debouncer *SnapshotDebouncer
	cursors   *CursorTracker
	cfg       config.RoomConfig

	mu    sync.RWMutex
	rooms map[int64]*Room
}

// NewHub wires the hub with its persistence and tracking collaborators
func NewHub(boards repository.WhiteboardRepository, debouncer *SnapshotDebouncer, cursors *CursorTracker, cfg config.RoomConfig) *Hub {
	return &Hub{
		boards:    boards,
		debouncer: debouncer,
		cursors:   cursors,
		cfg:       cfg,
		rooms:     make(map[int64]*Room),
	}
}

// Start launches background workers
func (h *Hub) Start() {
	h.cursors.Start()
	log.Println("[Hub] Started")
}

// Stop terminates background workers
func (h *Hub) Stop() {
	h.cursors.Stop()
	log.Println("[Hub] Stopped")
}

func (h *Hub) room(boardID int64) *Room {
	h.mu.RLock()
	room := h.rooms[boardID]
	h.mu.RUnlock()
	return room
}

// register adds the client to the room, creating it if needed. The add
// happens under h.mu so a concurrent dropRoomIfEmpty can never delete the
// map entry between the lookup and the add, which would leave the client
// in an unreachable room.
func (h *Hub) register(boardID int64, client *Client) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[boardID]
	if room == nil {
		room = newRoom(boardID)
		h.rooms[boardID] = room
		log.Printf("[Hub] Room %d created", boardID)
	}
	room.add(client)
	return room
}

func (h *Hub) dropRoomIfEmpty(boardID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[boardID]
	if room == nil {
		return
	}
	room.mu.RLock()
	empty := len(room.clients) == 0
	room.mu.RUnlock()
	if empty {
		delete(h.rooms, boardID)
		log.Printf("[Hub] Room %d removed", boardID)
	}
}

// JoinRoom authorizes the client against the whiteboard and registers it.
// The joining client receives the current canvas snapshot; everyone else
// gets a user-joined notification. Re-join by the same client is permitted
// and just re-sends the snapshot.
func (h *Hub) JoinRoom(ctx context.Context, client *Client, boardID int64) error {
	board, err := h.boards.FindByID(ctx, boardID)
	if err != nil {
		if err == repository.ErrNotFound {
			return service.ErrNotFound
		}
		return err
	}

	if !service.CanAccess(board, client.UserID) {
		return service.ErrForbidden
	}

	rejoin := client.inRoom(boardID)
	room := h.register(boardID, client)
	client.addRoom(boardID)

	if err := client.Send(EventCanvasData, CanvasSnapshotData{CanvasData: board.CanvasData}); err != nil {
		log.Printf("[Hub] Failed to send canvas snapshot to client %s: %v", client.ID, err)
	}

	if !rejoin {
		h.broadcast(room, EventUserJoined, PeerData{UserID: client.UserID, UserName: client.UserName}, client.ID)
		log.Printf("[Hub] User %d (%s) joined room %d", client.UserID, client.UserName, boardID)
	}
	return nil
}

// Disconnect removes the client from every room it joined and notifies the
// remaining members. Safe to call more than once.
func (h *Hub) Disconnect(client *Client) {
	for _, boardID := range client.takeRooms() {
		room := h.room(boardID)
		if room == nil {
			continue
		}
		remaining := room.remove(client.ID)
		h.cursors.Remove(boardID, client.UserID)
		h.broadcast(room, EventUserLeft, PeerData{UserID: client.UserID, UserName: client.UserName}, "")
		if remaining == 0 {
			// Last one out: do not wait for the quiet period.
			h.debouncer.Flush(boardID)
		}
		h.dropRoomIfEmpty(boardID)
		log.Printf("[Hub] User %d (%s) left room %d", client.UserID, client.UserName, boardID)
	}
}

// RelayDraw rebroadcasts a canvas operation to the sender's room peers and
// schedules the debounced snapshot write. The sender never receives its own
// echo.
func (h *Hub) RelayDraw(client *Client, data DrawData) error {
	boardID, ok := ParseRoomID(data.RoomID)
	if !ok {
		return fmt.Errorf("invalid room id %q", data.RoomID)
	}
	if !client.inRoom(boardID) {
		return service.ErrForbidden
	}
	if !data.Action.Valid() {
		return fmt.Errorf("invalid draw action %q", data.Action)
	}

	data.UserID = client.UserID
	data.UserName = client.UserName

	room := h.room(boardID)
	if room != nil {
		h.broadcast(room, EventDraw, data, client.ID)
	}

	// The draw payload carries the serialized canvas; only the last one of
	// a burst is persisted.
	h.debouncer.Schedule(boardID, string(data.ObjectData))
	return nil
}

// RelayCursor tracks and rebroadcasts a cursor position; no persistence
func (h *Hub) RelayCursor(client *Client, data CursorData) error {
	boardID, ok := ParseRoomID(data.RoomID)
	if !ok {
		return fmt.Errorf("invalid room id %q", data.RoomID)
	}
	if !client.inRoom(boardID) {
		return service.ErrForbidden
	}

	data.UserID = client.UserID
	data.UserName = client.UserName
	h.cursors.Touch(boardID, client.UserID, client.UserName, data.X, data.Y)

	room := h.room(boardID)
	if room != nil {
		h.broadcast(room, EventCursorMove, data, client.ID)
	}
	return nil
}

// RelayChat stamps sender identity and timestamp, then broadcasts to the
// whole room including the sender. Chat has no local-first echo on the
// client, so the sender needs its own message back.
func (h *Hub) RelayChat(client *Client, data ChatData) error {
	boardID, ok := ParseRoomID(data.RoomID)
	if !ok {
		return fmt.Errorf("invalid room id %q", data.RoomID)
	}
	if !client.inRoom(boardID) {
		return service.ErrForbidden
	}

	text := strings.TrimSpace(data.Text)
	if text == "" {
		return fmt.Errorf("empty chat message")
	}
	if len(text) > h.cfg.MaxChatLength {
		// Back off to a rune boundary so the cut never splits a character
		cut := h.cfg.MaxChatLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	out := ChatData{
		RoomID:    data.RoomID,
		Text:      text,
		UserID:    client.UserID,
		UserName:  client.UserName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	room := h.room(boardID)
	if room != nil {
		h.broadcast(room, EventChatMessage, out, "")
	}
	return nil
}

// Cursors returns the live cursor view for a room
func (h *Hub) Cursors(boardID int64) []CursorState {
	return h.cursors.Snapshot(boardID)
}

// NotifyRoom pushes a poll lifecycle event to every member of a room. It is
// a no-op when the room has no live members.
func (h *Hub) NotifyRoom(boardID int64, event string, payload any) {
	room := h.room(boardID)
	if room == nil {
		return
	}
	h.broadcast(room, event, payload, "")
}

// PollCreated implements service.RoomNotifier
func (h *Hub) PollCreated(boardID int64, poll *model.Poll) {
	h.NotifyRoom(boardID, EventPollCreated, poll)
}

// VoteCast implements service.RoomNotifier
func (h *Hub) VoteCast(boardID int64, pollID, userID int64, optionIndex int) {
	h.NotifyRoom(boardID, EventVoteCast, fiber.Map{
		"pollId":      pollID,
		"userId":      userID,
		"optionIndex": optionIndex,
	})
}

// PollResultsUpdated implements service.RoomNotifier
func (h *Hub) PollResultsUpdated(boardID int64, results *service.PollResults) {
	h.NotifyRoom(boardID, EventPollResultsUpdated, results)
}

// PollClosed implements service.RoomNotifier
func (h *Hub) PollClosed(boardID int64, pollID int64) {
	h.NotifyRoom(boardID, EventPollClosed, fiber.Map{"pollId": pollID})
}

// broadcast fans an event out to room members, skipping exceptID when set.
// Send failures are logged per client and never abort the fan-out.
func (h *Hub) broadcast(room *Room, event string, payload any, exceptID string) {
	for _, c := range room.snapshot() {
		if exceptID != "" && c.ID == exceptID {
			continue
		}
		if err := c.Send(event, payload); err != nil {
			log.Printf("[Hub] Failed to send %s to client %s: %v", event, c.ID, err)
		}
	}
}
