package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/hub"
	"whiteboard-backend/internal/presence"
	"whiteboard-backend/internal/repository"
	"whiteboard-backend/internal/service"
)

// WSHandler upgrades and serves WebSocket connections. Identity is resolved
// once at handshake time; the read loop dispatches room events to the hub.
type WSHandler struct {
	hub      *hub.Hub
	jwt      *auth.JWTManager
	users    repository.UserRepository
	presence *presence.Manager
}

// NewWSHandler creates the WebSocket handler
func NewWSHandler(h *hub.Hub, jwt *auth.JWTManager, users repository.UserRepository, pm *presence.Manager) *WSHandler {
	return &WSHandler{hub: h, jwt: jwt, users: users, presence: pm}
}

// Upgrade guards the WS route: resolve identity, stash it in Locals, and
// let the upgrade proceed. A token is preferred wherever it appears
// (header, cookie, query); the raw userId query parameter is a trusted
// fallback only when no token is present. Rejection happens here, before
// any connection state exists.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Get("Authorization")
	if token != "" {
		parts := strings.Split(token, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		token = c.Cookies("access_token")
	}
	if token == "" {
		token = c.Query("token")
	}

	var userID int64
	var userName string

	switch {
	case token != "":
		claims, err := h.jwt.ValidateAccessToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid or expired token",
			})
		}
		user, err := h.users.FindByID(c.Context(), claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "unknown user",
			})
		}
		userID, userName = user.ID, user.Name

	case c.Query("userId") != "":
		id, err := strconv.ParseInt(c.Query("userId"), 10, 64)
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid userId",
			})
		}
		user, err := h.users.FindByID(c.Context(), id)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "unknown user",
			})
		}
		userID, userName = user.ID, user.Name

	default:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "missing credentials",
		})
	}

	c.Locals("userID", userID)
	c.Locals("userName", userName)
	return c.Next()
}

// Handle runs one connection's read loop until it closes
func (h *WSHandler) Handle(conn *websocket.Conn) {
	userID, _ := conn.Locals("userID").(int64)
	userName, _ := conn.Locals("userName").(string)

	client := hub.NewClient(userID, userName, conn)
	log.Printf("[WS] Client %s connected (user %d, %s)", client.ID, userID, userName)

	ctx := context.Background()
	if err := h.presence.SetOnline(ctx, userID, userName); err != nil {
		log.Printf("[WS] Failed to set user %d online: %v", userID, err)
	}

	defer func() {
		h.hub.Disconnect(client)
		if err := h.presence.SetOffline(ctx, userID); err != nil {
			log.Printf("[WS] Failed to set user %d offline: %v", userID, err)
		}
		log.Printf("[WS] Client %s disconnected (user %d)", client.ID, userID)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Client %s read error: %v", client.ID, err)
			}
			return
		}

		var env hub.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			client.SendError("malformed message")
			continue
		}

		h.dispatch(ctx, client, env)
	}
}

func (h *WSHandler) dispatch(ctx context.Context, client *hub.Client, env hub.Envelope) {
	switch env.Event {
	case hub.EventJoinRoom:
		var data hub.JoinRoomData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			client.SendError("malformed join-room payload")
			return
		}
		boardID, ok := hub.ParseRoomID(data.RoomID)
		if !ok {
			client.SendError("invalid room id")
			return
		}
		if err := h.hub.JoinRoom(ctx, client, boardID); err != nil {
			client.SendError(joinErrorMessage(err))
		}

	case hub.EventDraw:
		var data hub.DrawData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			client.SendError("malformed draw payload")
			return
		}
		if err := h.hub.RelayDraw(client, data); err != nil {
			client.SendError(relayErrorMessage(err))
		}

	case hub.EventCursorMove:
		var data hub.CursorData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			client.SendError("malformed cursor payload")
			return
		}
		if err := h.hub.RelayCursor(client, data); err != nil {
			client.SendError(relayErrorMessage(err))
		}

	case hub.EventChatMessage:
		var data hub.ChatData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			client.SendError("malformed chat payload")
			return
		}
		if err := h.hub.RelayChat(client, data); err != nil {
			client.SendError(relayErrorMessage(err))
		}

	case hub.EventHeartbeat:
		if err := h.presence.Heartbeat(ctx, client.UserID); err != nil {
			// Key expired between heartbeats; re-establish it.
			if err := h.presence.SetOnline(ctx, client.UserID, client.UserName); err != nil {
				log.Printf("[WS] Failed to refresh presence for user %d: %v", client.UserID, err)
			}
		}

	default:
		client.SendError("unknown event: " + env.Event)
	}
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "whiteboard not found"
	case errors.Is(err, service.ErrForbidden):
		return "access denied"
	default:
		return "failed to join room"
	}
}

func relayErrorMessage(err error) string {
	if errors.Is(err, service.ErrForbidden) {
		return "not a member of this room"
	}
	return err.Error()
}
