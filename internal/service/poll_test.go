package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"whiteboard-backend/internal/model"
)

func pollFixture() (*PollService, *memPollRepo, *noopNotifier, *clock.Mock) {
	board := &model.Whiteboard{
		ID:      1,
		Name:    "standup",
		OwnerID: 10,
		Collaborators: []model.Collaborator{
			{WhiteboardID: 1, UserID: 20, Role: model.RoleEditor},
		},
	}
	polls := newMemPollRepo()
	notifier := &noopNotifier{}
	mock := clock.NewMock()
	svc := NewPollService(polls, newMemBoardRepo(board), mock, notifier)
	return svc, polls, notifier, mock
}

func validInput() CreatePollInput {
	return CreatePollInput{
		WhiteboardID: 1,
		Question:     "Which topic first?",
		Options:      []string{"scaling", "testing"},
		Duration:     30,
	}
}

func TestCreatePoll(t *testing.T) {
	svc, _, notifier, mock := pollFixture()
	ctx := context.Background()

	poll, err := svc.Create(ctx, 10, validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !poll.IsActive || poll.TotalVotes != 0 {
		t.Errorf("new poll = active:%v votes:%d, want active with 0 votes", poll.IsActive, poll.TotalVotes)
	}
	if want := mock.Now().Add(30 * time.Minute); !poll.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", poll.ExpiresAt, want)
	}
	if len(poll.Options) != 2 || poll.Options[0].Index != 0 || poll.Options[1].Index != 1 {
		t.Errorf("options = %+v, want contiguous indexes from 0", poll.Options)
	}

	seen := notifier.seen()
	if len(seen) != 1 || seen[0] != "poll-created" {
		t.Errorf("notifications = %v, want [poll-created]", seen)
	}
}

func TestCreatePollValidation(t *testing.T) {
	svc, _, _, _ := pollFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*CreatePollInput)
		wantErr error
	}{
		{"question too short", func(in *CreatePollInput) { in.Question = "hm?" }, ErrInvalidInput},
		{"question too long", func(in *CreatePollInput) { in.Question = strings.Repeat("q", 501) }, ErrInvalidInput},
		{"too few options", func(in *CreatePollInput) { in.Options = []string{"only"} }, ErrInvalidInput},
		{"too many options", func(in *CreatePollInput) { in.Options = make([]string, 11) }, ErrInvalidInput},
		{"empty option", func(in *CreatePollInput) { in.Options = []string{"a", ""} }, ErrInvalidInput},
		{"option too long", func(in *CreatePollInput) { in.Options = []string{"a", strings.Repeat("b", 201)} }, ErrInvalidInput},
		{"duration too short", func(in *CreatePollInput) { in.Duration = 0 }, ErrInvalidInput},
		{"duration too long", func(in *CreatePollInput) { in.Duration = 1441 }, ErrInvalidInput},
		{"missing board", func(in *CreatePollInput) { in.WhiteboardID = 99 }, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			if _, err := svc.Create(ctx, 10, in); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreatePollRequiresRoomAccess(t *testing.T) {
	svc, _, _, _ := pollFixture()

	if _, err := svc.Create(context.Background(), 99, validInput()); !errors.Is(err, ErrForbidden) {
		t.Errorf("Create() by stranger error = %v, want %v", err, ErrForbidden)
	}

	// Any user with room access may create, not just the owner
	if _, err := svc.Create(context.Background(), 20, validInput()); err != nil {
		t.Errorf("Create() by collaborator error = %v", err)
	}
}

func TestCastVote(t *testing.T) {
	svc, polls, notifier, _ := pollFixture()
	ctx := context.Background()

	poll, err := svc.Create(ctx, 10, validInput())
	if err != nil {
		t.Fatal(err)
	}

	vote, err := svc.CastVote(ctx, 20, poll.ID, 1)
	if err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	if vote.OptionIndex != 1 || vote.WhiteboardID != 1 {
		t.Errorf("vote = %+v", vote)
	}

	stored, err := polls.FindByID(ctx, poll.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.TotalVotes != 1 {
		t.Errorf("TotalVotes = %d, want 1", stored.TotalVotes)
	}

	seen := notifier.seen()
	want := []string{"poll-created", "vote-cast", "poll-results-updated"}
	if len(seen) != len(want) {
		t.Fatalf("notifications = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("notification[%d] = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestCastVoteFailures(t *testing.T) {
	svc, _, _, mock := pollFixture()
	ctx := context.Background()

	poll, err := svc.Create(ctx, 10, validInput())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CastVote(ctx, 20, 999, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing poll error = %v, want %v", err, ErrNotFound)
	}
	if _, err := svc.CastVote(ctx, 99, poll.ID, 0); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger vote error = %v, want %v", err, ErrForbidden)
	}
	if _, err := svc.CastVote(ctx, 20, poll.ID, 5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("out of range option error = %v, want %v", err, ErrInvalidInput)
	}
	if _, err := svc.CastVote(ctx, 20, poll.ID, -1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative option error = %v, want %v", err, ErrInvalidInput)
	}

	// Duplicate vote rejected when multiple votes are disallowed
	if _, err := svc.CastVote(ctx, 20, poll.ID, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CastVote(ctx, 20, poll.ID, 1); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate vote error = %v, want %v", err, ErrConflict)
	}

	// Expiry is a derived condition checked alongside the active flag
	mock.Add(31 * time.Minute)
	if _, err := svc.CastVote(ctx, 10, poll.ID, 0); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expired poll vote error = %v, want %v", err, ErrInvalidState)
	}
}

func TestCastVoteMultipleAllowed(t *testing.T) {
	svc, _, _, _ := pollFixture()
	ctx := context.Background()

	in := validInput()
	in.AllowMultipleVotes = true
	poll, err := svc.Create(ctx, 10, in)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CastVote(ctx, 20, poll.ID, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CastVote(ctx, 20, poll.ID, 1); err != nil {
		t.Errorf("second vote with multiples allowed error = %v", err)
	}
}

func TestCastVoteOnClosedPoll(t *testing.T) {
	svc, _, _, _ := pollFixture()
	ctx := context.Background()

	poll, err := svc.Create(ctx, 10, validInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Close(ctx, 10, poll.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CastVote(ctx, 20, poll.ID, 0); !errors.Is(err, ErrInvalidState) {
		t.Errorf("closed poll vote error = %v, want %v", err, ErrInvalidState)
	}
}

func TestResults(t *testing.T) {
	svc, _, _, _ := pollFixture()
	ctx := context.Background()

	in := validInput()
	in.Options = []string{"a", "b", "c", "d"}
	in.AllowMultipleVotes = true
	poll, err := svc.Create(ctx, 10, in)
	if err != nil {
		t.Fatal(err)
	}

	// 3 votes for option 0, 1 vote for option 2
	for _, cast := range []struct {
		user int64
		opt  int
	}{{10, 0}, {20, 0}, {10, 0}, {20, 2}} {
		if _, err := svc.CastVote(ctx, cast.user, poll.ID, cast.opt); err != nil {
			t.Fatal(err)
		}
	}

	results, err := svc.Results(ctx, 20, poll.ID)
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}

	if results.TotalVotes != 4 {
		t.Errorf("TotalVotes = %d, want 4", results.TotalVotes)
	}
	if len(results.Options) != 4 {
		t.Fatalf("options = %d, want 4 (zero-vote options included)", len(results.Options))
	}

	wantVotes := []int64{3, 0, 1, 0}
	wantPct := []float64{75, 0, 25, 0}
	for i, opt := range results.Options {
		if opt.Votes != wantVotes[i] || opt.Percentage != wantPct[i] {
			t.Errorf("option %d = %d votes %.1f%%, want %d votes %.1f%%",
				i, opt.Votes, opt.Percentage, wantVotes[i], wantPct[i])
		}
	}

	if !results.UserHasVoted || results.UserVote == nil || results.UserVote.OptionIndex != 2 {
		t.Errorf("requester vote = hasVoted:%v vote:%+v, want latest vote for option 2",
			results.UserHasVoted, results.UserVote)
	}
}

func TestResultsZeroVotes(t *testing.T) {
	svc, _, _, _ := pollFixture()
	ctx := context.Background()

	poll, err := svc.Create(ctx, 10, validInput())
	if err != nil {
		t.Fatal(err)
	}

	results, err := svc.Results(ctx, 10, poll.ID)
	if err != nil {
		t.Fatal(err)
	}
	if results.TotalVotes != 0 {
		t.Errorf("TotalVotes = %d, want 0", results.TotalVotes)
	}
	for _, opt := range results.Options {
		if opt.Percentage != 0 {
			t.Errorf("option %d percentage = %f, want 0 when no votes", opt.Index, opt.Percentage)
		}
	}
	if results.UserHasVoted {
		t.Error("UserHasVoted = true before any vote")
	}
}

func TestListActive(t *testing.T) {
	svc, _, _, mock := pollFixture()
	ctx := context.Background()

	short := validInput()
	short.Duration = 5
	if _, err := svc.Create(ctx, 10, short); err != nil {
		t.Fatal(err)
	}
	long := validInput()
	long.Duration = 60
	if _, err := svc.Create(ctx, 10, long); err != nil {
		t.Fatal(err)
	}
	closed, err := svc.Create(ctx, 10, validInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Close(ctx, 10, closed.ID); err != nil {
		t.Fatal(err)
	}

	// The short poll expires, the closed one is inactive
	mock.Add(10 * time.Minute)

	polls, err := svc.ListActive(ctx, 20, 1)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(polls) != 1 || polls[0].Duration != 60 {
		t.Errorf("active polls = %+v, want only the 60 minute poll", polls)
	}

	if _, err := svc.ListActive(ctx, 99, 1); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger ListActive error = %v, want %v", err, ErrForbidden)
	}
}

func TestClosePoll(t *testing.T) {
	svc, polls, notifier, _ := pollFixture()
	ctx := context.Background()

	poll, err := svc.Create(ctx, 20, validInput())
	if err != nil {
		t.Fatal(err)
	}

	// Only the creator may close, the board owner included
	if _, err := svc.Close(ctx, 10, poll.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-creator close error = %v, want %v", err, ErrForbidden)
	}

	closed, err := svc.Close(ctx, 20, poll.ID)
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if closed.IsActive {
		t.Error("poll still active after close")
	}

	stored, err := polls.FindByID(ctx, poll.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.IsActive {
		t.Error("stored poll still active after close")
	}

	seen := notifier.seen()
	if seen[len(seen)-1] != "poll-closed" {
		t.Errorf("last notification = %s, want poll-closed", seen[len(seen)-1])
	}

	if _, err := svc.Close(ctx, 20, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing poll close error = %v, want %v", err, ErrNotFound)
	}
}
