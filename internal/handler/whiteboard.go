package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/service"
)

// WhiteboardHandler REST surface for whiteboard CRUD, collaborator roles
// and presenter mode
type WhiteboardHandler struct {
	boards *service.WhiteboardService
}

// NewWhiteboardHandler creates the whiteboard handler
func NewWhiteboardHandler(boards *service.WhiteboardService) *WhiteboardHandler {
	return &WhiteboardHandler{boards: boards}
}

func parseID(c *fiber.Ctx, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type createWhiteboardRequest struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"isPublic"`
}

type updateWhiteboardRequest struct {
	Name       *string `json:"name"`
	CanvasData *string `json:"canvasData"`
	IsPublic   *bool   `json:"isPublic"`
}

type assignRoleRequest struct {
	UserID int64      `json:"userId"`
	Role   model.Role `json:"role"`
}

type updateViewRequest struct {
	ViewState model.ViewState `json:"viewState"`
}

// Create POST /api/whiteboards
func (h *WhiteboardHandler) Create(c *fiber.Ctx) error {
	var req createWhiteboardRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	board, err := h.boards.Create(c.Context(), userID(c), service.CreateWhiteboardInput{
		Name:     req.Name,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"whiteboard": board,
	})
}

// List GET /api/whiteboards
func (h *WhiteboardHandler) List(c *fiber.Ctx) error {
	boards, err := h.boards.List(c.Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"whiteboards": boards,
	})
}

// Get GET /api/whiteboards/:id
func (h *WhiteboardHandler) Get(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid whiteboard id")
	}
	board, err := h.boards.Get(c.Context(), userID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"whiteboard": board,
	})
}

// Update PUT /api/whiteboards/:id
func (h *WhiteboardHandler) Update(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid whiteboard id")
	}
	var req updateWhiteboardRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	board, err := h.boards.Update(c.Context(), userID(c), id, service.UpdateWhiteboardInput{
		Name:       req.Name,
		CanvasData: req.CanvasData,
		IsPublic:   req.IsPublic,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"whiteboard": board,
	})
}

// Delete DELETE /api/whiteboards/:id
func (h *WhiteboardHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid whiteboard id")
	}
	if err := h.boards.Delete(c.Context(), userID(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "whiteboard deleted",
	})
}

// AssignRole POST /api/whiteboards/:id/collaborators
func (h *WhiteboardHandler) AssignRole(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid whiteboard id")
	}
	var req assignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	collab, err := h.boards.AssignRole(c.Context(), userID(c), id, req.UserID, req.Role)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"collaborator": collab,
	})
}

// RemoveCollaborator DELETE /api/whiteboards/:id/collaborators/:userId
func (h *WhiteboardHandler) RemoveCollaborator(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid whiteboard id")
	}
	targetID, ok := parseID(c, "userId")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	if err := h.boards.RemoveCollaborator(c.Context(), userID(c), id, targetID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "collaborator removed",
	})
}

// StartPresenter POST /api/whiteboards/:id/presenter/start
func (h *WhiteboardHandler) StartPresenter(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid whiteboard id")
	}
	board, err := h.boards.StartPresenter(c.Context(), userID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"presenterMode": board.PresenterMode,
	})
}

// EndPresenter POST /api/whiteboards/:id/presenter/end
func (h *WhiteboardHandler) EndPresenter(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid whiteboard id")
	}
	board, err := h.boards.EndPresenter(c.Context(), userID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"presenterMode": board.PresenterMode,
	})
}

// UpdatePresenterView PUT /api/whiteboards/:id/presenter/view
func (h *WhiteboardHandler) UpdatePresenterView(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid whiteboard id")
	}
	var req updateViewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	board, err := h.boards.UpdatePresenterView(c.Context(), userID(c), id, req.ViewState)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"presenterMode": board.PresenterMode,
	})
}
