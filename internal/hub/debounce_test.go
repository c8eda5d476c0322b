package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingSaver struct {
	mu    sync.Mutex
	calls []savedCanvas
	err   error
}

type savedCanvas struct {
	boardID int64
	canvas  string
}

func (s *recordingSaver) SaveCanvas(ctx context.Context, id int64, canvasData string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, savedCanvas{boardID: id, canvas: canvasData})
	return nil
}

func (s *recordingSaver) snapshot() []savedCanvas {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]savedCanvas(nil), s.calls...)
}

func waitForCalls(t *testing.T, saver *recordingSaver, want int) []savedCanvas {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls := saver.snapshot(); len(calls) >= want {
			return calls
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d save call(s), got %d", want, len(saver.snapshot()))
	return nil
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	saver := &recordingSaver{}
	d := NewSnapshotDebouncer(saver, 30*time.Millisecond, time.Second)

	// A rapid burst produces exactly one write carrying the last payload
	d.Schedule(1, "v1")
	d.Schedule(1, "v2")
	d.Schedule(1, "v3")

	calls := waitForCalls(t, saver, 1)
	if len(calls) != 1 {
		t.Fatalf("save calls = %d, want 1", len(calls))
	}
	if calls[0].boardID != 1 || calls[0].canvas != "v3" {
		t.Errorf("saved = %+v, want board 1 canvas v3", calls[0])
	}
}

func TestDebouncerSeparateQuietPeriods(t *testing.T) {
	saver := &recordingSaver{}
	d := NewSnapshotDebouncer(saver, 30*time.Millisecond, time.Second)

	d.Schedule(1, "first")
	waitForCalls(t, saver, 1)

	d.Schedule(1, "second")
	calls := waitForCalls(t, saver, 2)

	if calls[0].canvas != "first" || calls[1].canvas != "second" {
		t.Errorf("saved sequence = %+v", calls)
	}
}

func TestDebouncerIsolatesRooms(t *testing.T) {
	saver := &recordingSaver{}
	d := NewSnapshotDebouncer(saver, 30*time.Millisecond, time.Second)

	d.Schedule(1, "room1")
	d.Schedule(2, "room2")

	calls := waitForCalls(t, saver, 2)
	got := map[int64]string{}
	for _, c := range calls {
		got[c.boardID] = c.canvas
	}
	if got[1] != "room1" || got[2] != "room2" {
		t.Errorf("saved = %v", got)
	}
}

func TestDebouncerSwallowsWriteFailure(t *testing.T) {
	saver := &recordingSaver{err: errors.New("store down")}
	d := NewSnapshotDebouncer(saver, 10*time.Millisecond, time.Second)

	d.Schedule(1, "lost")
	time.Sleep(50 * time.Millisecond)

	// The failure is logged and dropped; a later schedule retries
	saver.mu.Lock()
	saver.err = nil
	saver.mu.Unlock()

	d.Schedule(1, "recovered")
	calls := waitForCalls(t, saver, 1)
	if calls[0].canvas != "recovered" {
		t.Errorf("saved = %+v, want recovered", calls[0])
	}
}

func TestDebouncerFlush(t *testing.T) {
	saver := &recordingSaver{}
	d := NewSnapshotDebouncer(saver, time.Hour, time.Second)

	d.Schedule(1, "pending")
	d.Flush(1)

	calls := saver.snapshot()
	if len(calls) != 1 || calls[0].canvas != "pending" {
		t.Errorf("saved = %+v, want immediate pending write", calls)
	}

	// A second flush has nothing left to write
	d.Flush(1)
	if got := len(saver.snapshot()); got != 1 {
		t.Errorf("save calls after double flush = %d, want 1", got)
	}

	// Flushing a room with no pending state is a no-op
	d.Flush(99)
}

func TestDebouncerFlushSuppressesTrailingWrite(t *testing.T) {
	saver := &recordingSaver{}
	d := NewSnapshotDebouncer(saver, 30*time.Millisecond, time.Second)

	d.Schedule(1, "final")
	d.Flush(1)

	// The armed timer still fires, but the flush consumed the snapshot
	time.Sleep(100 * time.Millisecond)
	calls := saver.snapshot()
	if len(calls) != 1 || calls[0].canvas != "final" {
		t.Errorf("saved = %+v, want a single write despite the armed timer", calls)
	}

	d.mu.Lock()
	_, kept := d.rooms[1]
	d.mu.Unlock()
	if kept {
		t.Error("room debounce state retained after flush")
	}
}
