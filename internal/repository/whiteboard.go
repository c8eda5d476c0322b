package repository

import (
	"context"

	"gorm.io/gorm"

	"whiteboard-backend/internal/model"
)

// WhiteboardRepository durable whiteboard storage
type WhiteboardRepository interface {
	Create(ctx context.Context, board *model.Whiteboard) error
	// FindByID loads the board with its collaborator list.
	FindByID(ctx context.Context, id int64) (*model.Whiteboard, error)
	// ListForUser returns boards the user owns, collaborates on, or that
	// are public, most recently updated first.
	ListForUser(ctx context.Context, userID int64) ([]model.Whiteboard, error)
	Save(ctx context.Context, board *model.Whiteboard) error
	// Delete removes the board together with its collaborators, polls and
	// votes in one transaction.
	Delete(ctx context.Context, id int64) error
	// SaveCanvas writes only the canvas snapshot column.
	SaveCanvas(ctx context.Context, id int64, canvasData string) error
	UpsertCollaborator(ctx context.Context, collab *model.Collaborator) error
	RemoveCollaborator(ctx context.Context, boardID, userID int64) error
}

type gormWhiteboardRepository struct {
	db *gorm.DB
}

// NewWhiteboardRepository creates the GORM-backed whiteboard repository
func NewWhiteboardRepository(db *gorm.DB) WhiteboardRepository {
	return &gormWhiteboardRepository{db: db}
}

func (r *gormWhiteboardRepository) Create(ctx context.Context, board *model.Whiteboard) error {
	return translate(r.db.WithContext(ctx).Create(board).Error)
}

func (r *gormWhiteboardRepository) FindByID(ctx context.Context, id int64) (*model.Whiteboard, error) {
	var board model.Whiteboard
	err := r.db.WithContext(ctx).
		Preload("Collaborators").
		Preload("Collaborators.User").
		First(&board, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &board, nil
}

func (r *gormWhiteboardRepository) ListForUser(ctx context.Context, userID int64) ([]model.Whiteboard, error) {
	var boards []model.Whiteboard
	err := r.db.WithContext(ctx).
		Where("owner_id = ? OR is_public = ? OR id IN (?)",
			userID, true,
			r.db.Model(&model.Collaborator{}).Select("whiteboard_id").Where("user_id = ?", userID),
		).
		Order("updated_at DESC").
		Find(&boards).Error
	if err != nil {
		return nil, translate(err)
	}
	return boards, nil
}

func (r *gormWhiteboardRepository) Save(ctx context.Context, board *model.Whiteboard) error {
	return translate(r.db.WithContext(ctx).Save(board).Error)
}

func (r *gormWhiteboardRepository) Delete(ctx context.Context, id int64) error {
	// Cascade: votes and polls belong to the board's session context and
	// are not reachable once the board is gone.
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("whiteboard_id = ?", id).Delete(&model.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id IN (?)",
			tx.Model(&model.Poll{}).Select("id").Where("whiteboard_id = ?", id),
		).Delete(&model.PollOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("whiteboard_id = ?", id).Delete(&model.Poll{}).Error; err != nil {
			return err
		}
		if err := tx.Where("whiteboard_id = ?", id).Delete(&model.Collaborator{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Whiteboard{}, id).Error
	}))
}

func (r *gormWhiteboardRepository) SaveCanvas(ctx context.Context, id int64, canvasData string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Whiteboard{}).
		Where("id = ?", id).
		Update("canvas_data", canvasData)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormWhiteboardRepository) UpsertCollaborator(ctx context.Context, collab *model.Collaborator) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Collaborator
		err := tx.Where("whiteboard_id = ? AND user_id = ?", collab.WhiteboardID, collab.UserID).
			First(&existing).Error
		if err == nil {
			collab.ID = existing.ID
			collab.AssignedAt = existing.AssignedAt
			return tx.Save(collab).Error
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		return tx.Create(collab).Error
	}))
}

func (r *gormWhiteboardRepository) RemoveCollaborator(ctx context.Context, boardID, userID int64) error {
	res := r.db.WithContext(ctx).
		Where("whiteboard_id = ? AND user_id = ?", boardID, userID).
		Delete(&model.Collaborator{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
