package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/repository"
)

type memBoardRepo struct {
	mu     sync.Mutex
	nextID int64
	boards map[int64]*model.Whiteboard
}

func newMemBoardRepo(boards ...*model.Whiteboard) *memBoardRepo {
	r := &memBoardRepo{nextID: 100, boards: make(map[int64]*model.Whiteboard)}
	for _, b := range boards {
		r.boards[b.ID] = b
	}
	return r
}

func (r *memBoardRepo) Create(ctx context.Context, board *model.Whiteboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	board.ID = r.nextID
	cp := *board
	r.boards[board.ID] = &cp
	return nil
}

func (r *memBoardRepo) FindByID(ctx context.Context, id int64) (*model.Whiteboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	board, ok := r.boards[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *board
	cp.Collaborators = append([]model.Collaborator(nil), board.Collaborators...)
	return &cp, nil
}

func (r *memBoardRepo) ListForUser(ctx context.Context, userID int64) ([]model.Whiteboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Whiteboard
	for _, b := range r.boards {
		if b.OwnerID == userID || b.IsPublic {
			out = append(out, *b)
			continue
		}
		for _, c := range b.Collaborators {
			if c.UserID == userID {
				out = append(out, *b)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memBoardRepo) Save(ctx context.Context, board *model.Whiteboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.boards[board.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *board
	r.boards[board.ID] = &cp
	return nil
}

func (r *memBoardRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.boards[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.boards, id)
	return nil
}

func (r *memBoardRepo) SaveCanvas(ctx context.Context, id int64, canvasData string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	board, ok := r.boards[id]
	if !ok {
		return repository.ErrNotFound
	}
	board.CanvasData = canvasData
	return nil
}

func (r *memBoardRepo) UpsertCollaborator(ctx context.Context, collab *model.Collaborator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	board, ok := r.boards[collab.WhiteboardID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range board.Collaborators {
		if board.Collaborators[i].UserID == collab.UserID {
			board.Collaborators[i] = *collab
			return nil
		}
	}
	board.Collaborators = append(board.Collaborators, *collab)
	return nil
}

func (r *memBoardRepo) RemoveCollaborator(ctx context.Context, boardID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	board, ok := r.boards[boardID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range board.Collaborators {
		if board.Collaborators[i].UserID == userID {
			board.Collaborators = append(board.Collaborators[:i], board.Collaborators[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User
}

func newMemUserRepo(users ...*model.User) *memUserRepo {
	r := &memUserRepo{users: make(map[int64]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = int64(len(r.users) + 1)
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memPollRepo struct {
	mu     sync.Mutex
	nextID int64
	polls  map[int64]*model.Poll
	votes  []model.Vote
}

func newMemPollRepo() *memPollRepo {
	return &memPollRepo{polls: make(map[int64]*model.Poll)}
}

func (r *memPollRepo) Create(ctx context.Context, poll *model.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	poll.ID = r.nextID
	poll.CreatedAt = time.Now()
	cp := *poll
	cp.Options = append([]model.PollOption(nil), poll.Options...)
	r.polls[poll.ID] = &cp
	return nil
}

func (r *memPollRepo) FindByID(ctx context.Context, id int64) (*model.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll, ok := r.polls[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *poll
	cp.Options = append([]model.PollOption(nil), poll.Options...)
	return &cp, nil
}

func (r *memPollRepo) ListActive(ctx context.Context, whiteboardID int64, now time.Time) ([]model.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Poll
	for _, p := range r.polls {
		if p.WhiteboardID == whiteboardID && p.IsActive && p.ExpiresAt.After(now) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memPollRepo) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll, ok := r.polls[id]
	if !ok {
		return repository.ErrNotFound
	}
	poll.IsActive = active
	return nil
}

func (r *memPollRepo) IncrementTotalVotes(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll, ok := r.polls[id]
	if !ok {
		return repository.ErrNotFound
	}
	poll.TotalVotes++
	return nil
}

func (r *memPollRepo) CreateVote(ctx context.Context, vote *model.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	vote.ID = int64(len(r.votes) + 1)
	vote.CreatedAt = time.Now()
	r.votes = append(r.votes, *vote)
	return nil
}

func (r *memPollRepo) FindVote(ctx context.Context, pollID, userID int64) (*model.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.votes) - 1; i >= 0; i-- {
		if r.votes[i].PollID == pollID && r.votes[i].UserID == userID {
			v := r.votes[i]
			return &v, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memPollRepo) CountVotesByOption(ctx context.Context, pollID int64) (map[int]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[int]int64)
	for _, v := range r.votes {
		if v.PollID == pollID {
			counts[v.OptionIndex]++
		}
	}
	return counts, nil
}

// noopNotifier records room notifications without a live hub
type noopNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *noopNotifier) record(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *noopNotifier) PollCreated(boardID int64, poll *model.Poll)           { n.record("poll-created") }
func (n *noopNotifier) VoteCast(boardID, pollID, userID int64, optIdx int)    { n.record("vote-cast") }
func (n *noopNotifier) PollResultsUpdated(boardID int64, results *PollResults) {
	n.record("poll-results-updated")
}
func (n *noopNotifier) PollClosed(boardID int64, pollID int64) { n.record("poll-closed") }

func (n *noopNotifier) seen() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}
