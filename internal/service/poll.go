package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/benbjohnson/clock"

	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/repository"
)

// RoomNotifier pushes poll lifecycle events to a whiteboard's live room.
// Implemented by the hub; a nil-safe no-op is used in tests.
type RoomNotifier interface {
	PollCreated(boardID int64, poll *model.Poll)
	VoteCast(boardID int64, pollID, userID int64, optionIndex int)
	PollResultsUpdated(boardID int64, results *PollResults)
	PollClosed(boardID int64, pollID int64)
}

// CreatePollInput parameters for poll creation
type CreatePollInput struct {
	WhiteboardID       int64
	Question           string
	Options            []string
	Duration           int // minutes
	AllowMultipleVotes bool
}

// OptionResult aggregated tally for one option. Options with zero votes
// report 0, not absence.
type OptionResult struct {
	Index      int     `json:"index"`
	Text       string  `json:"text"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// PollResults the full result view for a poll, including the requester's
// own vote when present
type PollResults struct {
	PollID       int64          `json:"pollId"`
	Question     string         `json:"question"`
	IsActive     bool           `json:"isActive"`
	ExpiresAt    time.Time      `json:"expiresAt"`
	TotalVotes   int64          `json:"totalVotes"`
	Options      []OptionResult `json:"options"`
	UserHasVoted bool           `json:"userHasVoted"`
	UserVote     *UserVote      `json:"userVote,omitempty"`
}

// UserVote the requester's own vote
type UserVote struct {
	OptionIndex int       `json:"optionIndex"`
	VotedAt     time.Time `json:"votedAt"`
}

// PollService owns the poll lifecycle: creation, voting, aggregation and
// closure. Every mutation is announced to the live room so connected peers
// refresh without polling.
type PollService struct {
	polls    repository.PollRepository
	boards   repository.WhiteboardRepository
	clock    clock.Clock
	notifier RoomNotifier
}

// NewPollService creates the poll service; the clock is injectable so
// expiry behavior is testable.
func NewPollService(polls repository.PollRepository, boards repository.WhiteboardRepository, clk clock.Clock, notifier RoomNotifier) *PollService {
	return &PollService{polls: polls, boards: boards, clock: clk, notifier: notifier}
}

// requireAccess loads the board and checks room access
func (s *PollService) requireAccess(ctx context.Context, userID, boardID int64) (*model.Whiteboard, error) {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: whiteboard %d", ErrNotFound, boardID)
		}
		return nil, err
	}
	if !CanAccess(board, userID) {
		return nil, ErrForbidden
	}
	return board, nil
}

// Create validates and persists a new active poll, then announces it to
// the room. Any user with room access may create polls.
func (s *PollService) Create(ctx context.Context, userID int64, input CreatePollInput) (*model.Poll, error) {
	if _, err := s.requireAccess(ctx, userID, input.WhiteboardID); err != nil {
		return nil, err
	}

	if l := len(input.Question); l < model.PollQuestionMinLen || l > model.PollQuestionMaxLen {
		return nil, fmt.Errorf("%w: question must be %d-%d characters", ErrInvalidInput,
			model.PollQuestionMinLen, model.PollQuestionMaxLen)
	}
	if n := len(input.Options); n < model.PollOptionMinCount || n > model.PollOptionMaxCount {
		return nil, fmt.Errorf("%w: poll needs %d-%d options", ErrInvalidInput,
			model.PollOptionMinCount, model.PollOptionMaxCount)
	}
	for i, opt := range input.Options {
		if opt == "" || len(opt) > model.PollOptionMaxLen {
			return nil, fmt.Errorf("%w: option %d must be 1-%d characters", ErrInvalidInput,
				i, model.PollOptionMaxLen)
		}
	}
	if input.Duration < model.PollDurationMinMin || input.Duration > model.PollDurationMaxMin {
		return nil, fmt.Errorf("%w: duration must be %d-%d minutes", ErrInvalidInput,
			model.PollDurationMinMin, model.PollDurationMaxMin)
	}

	now := s.clock.Now()
	poll := &model.Poll{
		WhiteboardID:       input.WhiteboardID,
		CreatedBy:          userID,
		Question:           input.Question,
		IsActive:           true,
		AllowMultipleVotes: input.AllowMultipleVotes,
		Duration:           input.Duration,
		ExpiresAt:          now.Add(time.Duration(input.Duration) * time.Minute),
	}
	for i, opt := range input.Options {
		poll.Options = append(poll.Options, model.PollOption{Index: i, Text: opt})
	}

	if err := s.polls.Create(ctx, poll); err != nil {
		return nil, err
	}
	log.Printf("[Poll] Poll %d created on board %d by user %d", poll.ID, poll.WhiteboardID, userID)

	s.notifier.PollCreated(poll.WhiteboardID, poll)
	return poll, nil
}

// acceptsVotes is the single place the "can still accept votes" condition
// lives: the stored active flag and the derived expiry check together.
func (s *PollService) acceptsVotes(poll *model.Poll) bool {
	return poll.IsActive && s.clock.Now().Before(poll.ExpiresAt)
}

// CastVote records a vote and bumps the poll counter, then announces the
// cast and the fresh tallies to the room. The duplicate-vote guard is a
// pre-check, not a storage constraint; near-simultaneous casts from one
// voter can slip through (see DESIGN.md).
func (s *PollService) CastVote(ctx context.Context, userID, pollID int64, optionIndex int) (*model.Vote, error) {
	poll, err := s.polls.FindByID(ctx, pollID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: poll %d", ErrNotFound, pollID)
		}
		return nil, err
	}

	if _, err := s.requireAccess(ctx, userID, poll.WhiteboardID); err != nil {
		return nil, err
	}
	if !s.acceptsVotes(poll) {
		return nil, fmt.Errorf("%w: poll is closed or expired", ErrInvalidState)
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return nil, fmt.Errorf("%w: option index %d out of range", ErrInvalidInput, optionIndex)
	}

	if !poll.AllowMultipleVotes {
		_, err := s.polls.FindVote(ctx, pollID, userID)
		if err == nil {
			return nil, fmt.Errorf("%w: already voted", ErrConflict)
		}
		if err != repository.ErrNotFound {
			return nil, err
		}
	}

	vote := &model.Vote{
		PollID:       pollID,
		UserID:       userID,
		WhiteboardID: poll.WhiteboardID,
		OptionIndex:  optionIndex,
	}
	if err := s.polls.CreateVote(ctx, vote); err != nil {
		return nil, err
	}
	if err := s.polls.IncrementTotalVotes(ctx, pollID); err != nil {
		// The vote row is the source of truth; the counter self-corrects
		// only via aggregation, so log loudly.
		log.Printf("[Poll] Failed to increment total votes for poll %d: %v", pollID, err)
	}

	s.notifier.VoteCast(poll.WhiteboardID, pollID, userID, optionIndex)
	if results, err := s.Results(ctx, userID, pollID); err == nil {
		s.notifier.PollResultsUpdated(poll.WhiteboardID, results)
	}
	return vote, nil
}

// Results aggregates per-option tallies and the requester's own vote
func (s *PollService) Results(ctx context.Context, userID, pollID int64) (*PollResults, error) {
	poll, err := s.polls.FindByID(ctx, pollID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: poll %d", ErrNotFound, pollID)
		}
		return nil, err
	}
	if _, err := s.requireAccess(ctx, userID, poll.WhiteboardID); err != nil {
		return nil, err
	}

	counts, err := s.polls.CountVotesByOption(ctx, pollID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	results := &PollResults{
		PollID:     poll.ID,
		Question:   poll.Question,
		IsActive:   s.acceptsVotes(poll),
		ExpiresAt:  poll.ExpiresAt,
		TotalVotes: total,
		Options:    make([]OptionResult, 0, len(poll.Options)),
	}
	for _, opt := range poll.Options {
		votes := counts[opt.Index]
		var pct float64
		if total > 0 {
			pct = float64(votes) / float64(total) * 100
		}
		results.Options = append(results.Options, OptionResult{
			Index:      opt.Index,
			Text:       opt.Text,
			Votes:      votes,
			Percentage: pct,
		})
	}

	if vote, err := s.polls.FindVote(ctx, pollID, userID); err == nil {
		results.UserHasVoted = true
		results.UserVote = &UserVote{OptionIndex: vote.OptionIndex, VotedAt: vote.CreatedAt}
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	return results, nil
}

// ListActive returns the whiteboard's polls that still accept votes,
// newest first
func (s *PollService) ListActive(ctx context.Context, userID, boardID int64) ([]model.Poll, error) {
	if _, err := s.requireAccess(ctx, userID, boardID); err != nil {
		return nil, err
	}
	return s.polls.ListActive(ctx, boardID, s.clock.Now())
}

// Close deactivates a poll; creator only. Closing is terminal.
func (s *PollService) Close(ctx context.Context, userID, pollID int64) (*model.Poll, error) {
	poll, err := s.polls.FindByID(ctx, pollID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: poll %d", ErrNotFound, pollID)
		}
		return nil, err
	}
	if poll.CreatedBy != userID {
		return nil, fmt.Errorf("%w: only the creator may close a poll", ErrForbidden)
	}

	if err := s.polls.SetActive(ctx, pollID, false); err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	poll.IsActive = false
	log.Printf("[Poll] Poll %d closed by user %d", pollID, userID)

	s.notifier.PollClosed(poll.WhiteboardID, pollID)
	return poll, nil
}
