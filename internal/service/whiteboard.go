package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/repository"
)

// CanAccess reports whether a user may enter a whiteboard's room: the
// owner, any collaborator, or anyone when the board is public.
func CanAccess(board *model.Whiteboard, userID int64) bool {
	if board.OwnerID == userID {
		return true
	}
	if board.IsPublic {
		return true
	}
	for _, collab := range board.Collaborators {
		if collab.UserID == userID {
			return true
		}
	}
	return false
}

// collaboratorOf returns the collaborator record for a user, or nil
func collaboratorOf(board *model.Whiteboard, userID int64) *model.Collaborator {
	for i := range board.Collaborators {
		if board.Collaborators[i].UserID == userID {
			return &board.Collaborators[i]
		}
	}
	return nil
}

// permissionsOf resolves the effective capability bundle. Owners hold every
// capability implicitly; non-collaborators on a public board get the viewer
// bundle.
func permissionsOf(board *model.Whiteboard, userID int64) model.Permissions {
	if board.OwnerID == userID {
		return model.RolePresenter.PermissionsFor()
	}
	if collab := collaboratorOf(board, userID); collab != nil {
		return collab.Permissions
	}
	return model.RoleViewer.PermissionsFor()
}

// CreateWhiteboardInput parameters for board creation
type CreateWhiteboardInput struct {
	Name     string
	IsPublic bool
}

// UpdateWhiteboardInput parameters for board update; nil fields are left
// untouched
type UpdateWhiteboardInput struct {
	Name       *string
	CanvasData *string
	IsPublic   *bool
}

// WhiteboardService owns whiteboard CRUD, collaborator roles and presenter
// mode
type WhiteboardService struct {
	boards repository.WhiteboardRepository
	users  repository.UserRepository
}

// NewWhiteboardService creates the whiteboard service
func NewWhiteboardService(boards repository.WhiteboardRepository, users repository.UserRepository) *WhiteboardService {
	return &WhiteboardService{boards: boards, users: users}
}

// Create persists a new whiteboard owned by the requester
func (s *WhiteboardService) Create(ctx context.Context, ownerID int64, input CreateWhiteboardInput) (*model.Whiteboard, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(input.Name) > 200 {
		return nil, fmt.Errorf("%w: name must be at most 200 characters", ErrInvalidInput)
	}

	board := &model.Whiteboard{
		Name:     input.Name,
		OwnerID:  ownerID,
		IsPublic: input.IsPublic,
		PresenterMode: model.PresenterMode{
			ViewState: model.DefaultViewState(),
		},
	}
	if err := s.boards.Create(ctx, board); err != nil {
		return nil, err
	}
	log.Printf("[Whiteboard] Created board %d (%s) for user %d", board.ID, board.Name, ownerID)
	return board, nil
}

// List returns boards visible to the user
func (s *WhiteboardService) List(ctx context.Context, userID int64) ([]model.Whiteboard, error) {
	return s.boards.ListForUser(ctx, userID)
}

// Get loads a board the user may access
func (s *WhiteboardService) Get(ctx context.Context, userID, boardID int64) (*model.Whiteboard, error) {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !CanAccess(board, userID) {
		return nil, ErrForbidden
	}
	return board, nil
}

// Update applies partial changes. The owner or any collaborator with edit
// capability may update; visibility changes stay owner-only.
func (s *WhiteboardService) Update(ctx context.Context, userID, boardID int64, input UpdateWhiteboardInput) (*model.Whiteboard, error) {
	board, err := s.Get(ctx, userID, boardID)
	if err != nil {
		return nil, err
	}

	perms := permissionsOf(board, userID)
	if board.OwnerID != userID && !perms.CanEdit {
		return nil, ErrForbidden
	}
	if input.IsPublic != nil && board.OwnerID != userID {
		return nil, fmt.Errorf("%w: only the owner may change visibility", ErrForbidden)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		board.Name = *input.Name
	}
	if input.CanvasData != nil {
		board.CanvasData = *input.CanvasData
	}
	if input.IsPublic != nil {
		board.IsPublic = *input.IsPublic
	}

	if err := s.boards.Save(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}

// Delete removes a board and everything under it; owner only
func (s *WhiteboardService) Delete(ctx context.Context, userID, boardID int64) error {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		if err == repository.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	if board.OwnerID != userID {
		return ErrForbidden
	}
	if err := s.boards.Delete(ctx, boardID); err != nil {
		return err
	}
	log.Printf("[Whiteboard] Deleted board %d by owner %d", boardID, userID)
	return nil
}

// AssignRole adds or updates a collaborator with a role-derived permission
// bundle. Allowed for the owner or a collaborator with user management
// capability. The owner cannot be demoted to a collaborator.
func (s *WhiteboardService) AssignRole(ctx context.Context, requesterID, boardID, targetUserID int64, role model.Role) (*model.Collaborator, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	perms := permissionsOf(board, requesterID)
	if board.OwnerID != requesterID && !perms.CanManageUsers {
		return nil, ErrForbidden
	}
	if targetUserID == board.OwnerID {
		return nil, fmt.Errorf("%w: owner role cannot be reassigned", ErrInvalidInput)
	}

	if _, err := s.users.FindByID(ctx, targetUserID); err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, targetUserID)
		}
		return nil, err
	}

	collab := &model.Collaborator{
		WhiteboardID: boardID,
		UserID:       targetUserID,
		Role:         role,
		Permissions:  role.PermissionsFor(),
		AssignedBy:   requesterID,
		AssignedAt:   time.Now(),
	}
	if err := s.boards.UpsertCollaborator(ctx, collab); err != nil {
		return nil, err
	}
	log.Printf("[Whiteboard] User %d assigned role %s on board %d by user %d", targetUserID, role, boardID, requesterID)
	return collab, nil
}

// RemoveCollaborator revokes a user's access. Allowed for the owner, a
// manager, or the collaborator removing themselves.
func (s *WhiteboardService) RemoveCollaborator(ctx context.Context, requesterID, boardID, targetUserID int64) error {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		if err == repository.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	if targetUserID == board.OwnerID {
		return fmt.Errorf("%w: owner cannot be removed", ErrInvalidInput)
	}

	perms := permissionsOf(board, requesterID)
	if board.OwnerID != requesterID && !perms.CanManageUsers && requesterID != targetUserID {
		return ErrForbidden
	}

	if err := s.boards.RemoveCollaborator(ctx, boardID, targetUserID); err != nil {
		if err == repository.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// StartPresenter activates presenter mode with the requester as presenter.
// Requires the presenter capability (or ownership); fails with Conflict if
// another presenter session is already running.
func (s *WhiteboardService) StartPresenter(ctx context.Context, userID, boardID int64) (*model.Whiteboard, error) {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	perms := permissionsOf(board, userID)
	if board.OwnerID != userID && !perms.CanPresentMode {
		return nil, ErrForbidden
	}
	if board.PresenterMode.IsActive {
		return nil, fmt.Errorf("%w: presenter mode already active", ErrConflict)
	}

	now := time.Now()
	board.PresenterMode = model.PresenterMode{
		IsActive:    true,
		PresenterID: &userID,
		ViewState:   model.DefaultViewState(),
		StartedAt:   &now,
	}
	if err := s.boards.Save(ctx, board); err != nil {
		return nil, err
	}
	log.Printf("[Whiteboard] Presenter mode started on board %d by user %d", boardID, userID)
	return board, nil
}

// EndPresenter deactivates presenter mode; owner or current presenter only
func (s *WhiteboardService) EndPresenter(ctx context.Context, userID, boardID int64) (*model.Whiteboard, error) {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !board.PresenterMode.IsActive {
		return nil, fmt.Errorf("%w: presenter mode is not active", ErrInvalidState)
	}
	isPresenter := board.PresenterMode.PresenterID != nil && *board.PresenterMode.PresenterID == userID
	if board.OwnerID != userID && !isPresenter {
		return nil, ErrForbidden
	}

	board.PresenterMode = model.PresenterMode{
		ViewState: model.DefaultViewState(),
	}
	if err := s.boards.Save(ctx, board); err != nil {
		return nil, err
	}
	log.Printf("[Whiteboard] Presenter mode ended on board %d by user %d", boardID, userID)
	return board, nil
}

// UpdatePresenterView stores the presenter's camera state; only the current
// presenter may push updates
func (s *WhiteboardService) UpdatePresenterView(ctx context.Context, userID, boardID int64, view model.ViewState) (*model.Whiteboard, error) {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !board.PresenterMode.IsActive {
		return nil, fmt.Errorf("%w: presenter mode is not active", ErrInvalidState)
	}
	if board.PresenterMode.PresenterID == nil || *board.PresenterMode.PresenterID != userID {
		return nil, ErrForbidden
	}
	if view.Zoom <= 0 {
		return nil, fmt.Errorf("%w: zoom must be positive", ErrInvalidInput)
	}

	board.PresenterMode.ViewState = view
	if err := s.boards.Save(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}
