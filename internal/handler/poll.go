package handler

import (
	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/service"
)

// PollHandler REST surface for the poll lifecycle. The WebSocket room is
// notified by the service; these endpoints carry the authoritative state.
type PollHandler struct {
	polls *service.PollService
}

// NewPollHandler creates the poll handler
func NewPollHandler(polls *service.PollService) *PollHandler {
	return &PollHandler{polls: polls}
}

type createPollRequest struct {
	WhiteboardID       int64    `json:"whiteboardId"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	Duration           int      `json:"duration"`
	AllowMultipleVotes bool     `json:"allowMultipleVotes"`
}

type castVoteRequest struct {
	PollID      int64 `json:"pollId"`
	OptionIndex int   `json:"optionIndex"`
}

// Create POST /api/polls/create
func (h *PollHandler) Create(c *fiber.Ctx) error {
	var req createPollRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.WhiteboardID <= 0 {
		return badRequest(c, "whiteboardId is required")
	}

	poll, err := h.polls.Create(c.Context(), userID(c), service.CreatePollInput{
		WhiteboardID:       req.WhiteboardID,
		Question:           req.Question,
		Options:            req.Options,
		Duration:           req.Duration,
		AllowMultipleVotes: req.AllowMultipleVotes,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"poll":    poll,
	})
}

// CastVote POST /api/polls/vote
func (h *PollHandler) CastVote(c *fiber.Ctx) error {
	var req castVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.PollID <= 0 {
		return badRequest(c, "pollId is required")
	}

	vote, err := h.polls.CastVote(c.Context(), userID(c), req.PollID, req.OptionIndex)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"vote":    vote,
	})
}

// Results GET /api/polls/:id/results
func (h *PollHandler) Results(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid poll id")
	}
	results, err := h.polls.Results(c.Context(), userID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"results": results,
	})
}

// ListActive GET /api/polls/whiteboard/:whiteboardId/active
func (h *PollHandler) ListActive(c *fiber.Ctx) error {
	boardID, ok := parseID(c, "whiteboardId")
	if !ok {
		return badRequest(c, "invalid whiteboard id")
	}
	polls, err := h.polls.ListActive(c.Context(), userID(c), boardID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"polls":   polls,
	})
}

// Close PATCH /api/polls/:id/close
func (h *PollHandler) Close(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid poll id")
	}
	poll, err := h.polls.Close(c.Context(), userID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"poll":    poll,
	})
}
