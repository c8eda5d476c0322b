package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"whiteboard-backend/internal/model"
)

// PollRepository durable poll and vote storage
type PollRepository interface {
	Create(ctx context.Context, poll *model.Poll) error
	// FindByID loads the poll with its options ordered by index.
	FindByID(ctx context.Context, id int64) (*model.Poll, error)
	// ListActive returns polls for a whiteboard that are active and not
	// yet expired at the given instant, newest first.
	ListActive(ctx context.Context, whiteboardID int64, now time.Time) ([]model.Poll, error)
	SetActive(ctx context.Context, id int64, active bool) error
	// IncrementTotalVotes bumps the counter atomically at the storage
	// layer so concurrent accepted votes are never lost.
	IncrementTotalVotes(ctx context.Context, id int64) error
	CreateVote(ctx context.Context, vote *model.Vote) error
	// FindVote returns the voter's most recent vote, or ErrNotFound.
	FindVote(ctx context.Context, pollID, userID int64) (*model.Vote, error)
	// CountVotesByOption aggregates vote counts keyed by option index.
	// Options with zero votes are absent from the map.
	CountVotesByOption(ctx context.Context, pollID int64) (map[int]int64, error)
}

type gormPollRepository struct {
	db *gorm.DB
}

// NewPollRepository creates the GORM-backed poll repository
func NewPollRepository(db *gorm.DB) PollRepository {
	return &gormPollRepository{db: db}
}

func (r *gormPollRepository) Create(ctx context.Context, poll *model.Poll) error {
	return translate(r.db.WithContext(ctx).Create(poll).Error)
}

func (r *gormPollRepository) FindByID(ctx context.Context, id int64) (*model.Poll, error) {
	var poll model.Poll
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("option_index ASC")
		}).
		Preload("Creator").
		First(&poll, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &poll, nil
}

func (r *gormPollRepository) ListActive(ctx context.Context, whiteboardID int64, now time.Time) ([]model.Poll, error) {
	var polls []model.Poll
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("option_index ASC")
		}).
		Preload("Creator").
		Where("whiteboard_id = ? AND is_active = ? AND expires_at > ?", whiteboardID, true, now).
		Order("created_at DESC").
		Find(&polls).Error
	if err != nil {
		return nil, translate(err)
	}
	return polls, nil
}

func (r *gormPollRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.Poll{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormPollRepository) IncrementTotalVotes(ctx context.Context, id int64) error {
	return translate(r.db.WithContext(ctx).
		Model(&model.Poll{}).
		Where("id = ?", id).
		Update("total_votes", gorm.Expr("total_votes + 1")).Error)
}

func (r *gormPollRepository) CreateVote(ctx context.Context, vote *model.Vote) error {
	return translate(r.db.WithContext(ctx).Create(vote).Error)
}

func (r *gormPollRepository) FindVote(ctx context.Context, pollID, userID int64) (*model.Vote, error) {
	var vote model.Vote
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND user_id = ?", pollID, userID).
		Order("created_at DESC").
		First(&vote).Error
	if err != nil {
		return nil, translate(err)
	}
	return &vote, nil
}

func (r *gormPollRepository) CountVotesByOption(ctx context.Context, pollID int64) (map[int]int64, error) {
	var rows []struct {
		OptionIndex int
		Count       int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Vote{}).
		Select("option_index, COUNT(*) as count").
		Where("poll_id = ?", pollID).
		Group("option_index").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.OptionIndex] = row.Count
	}
	return counts, nil
}
