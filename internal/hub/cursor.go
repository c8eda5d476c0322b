package hub

import (
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// CursorState one peer's last known cursor, with its liveness timestamp
type CursorState struct {
	UserID     int64
	UserName   string
	X          float64
	Y          float64
	LastActive time.Time
}

// CursorTracker keeps per-room cursor positions and evicts entries whose
// age exceeds the TTL on a periodic sweep. The sweep is the sole defense
// against silently-dropped peers: a peer that vanishes without a leave
// notification disappears from the presence view once its entry goes stale.
type CursorTracker struct {
	clock clock.Clock
	ttl   time.Duration
	sweep time.Duration

	mu    sync.Mutex
	rooms map[int64]map[int64]*CursorState

	stopOnce sync.Once
	done     chan struct{}
}

// NewCursorTracker creates a tracker; the clock is injectable so tests can
// advance time deterministically.
func NewCursorTracker(clk clock.Clock, ttl, sweepInterval time.Duration) *CursorTracker {
	return &CursorTracker{
		clock: clk,
		ttl:   ttl,
		sweep: sweepInterval,
		rooms: make(map[int64]map[int64]*CursorState),
		done:  make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called
func (t *CursorTracker) Start() {
	go func() {
		ticker := t.clock.Ticker(t.sweep)
		defer ticker.Stop()

		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
				if evicted := t.Sweep(); evicted > 0 {
					log.Printf("[Cursor] Evicted %d stale cursor(s)", evicted)
				}
			}
		}
	}()
}

// Stop terminates the sweep loop
func (t *CursorTracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

// Touch records a cursor position and refreshes its liveness
func (t *CursorTracker) Touch(boardID, userID int64, userName string, x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.rooms[boardID]
	if room == nil {
		room = make(map[int64]*CursorState)
		t.rooms[boardID] = room
	}

	room[userID] = &CursorState{
		UserID:     userID,
		UserName:   userName,
		X:          x,
		Y:          y,
		LastActive: t.clock.Now(),
	}
}

// Remove drops a peer's cursor immediately (clean leave)
func (t *CursorTracker) Remove(boardID, userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if room := t.rooms[boardID]; room != nil {
		delete(room, userID)
		if len(room) == 0 {
			delete(t.rooms, boardID)
		}
	}
}

// Snapshot returns the live cursors for a room. Entries past the TTL are
// excluded even if the sweep has not caught them yet.
func (t *CursorTracker) Snapshot(boardID int64) []CursorState {
	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.rooms[boardID]
	if room == nil {
		return nil
	}

	cutoff := t.clock.Now().Add(-t.ttl)
	out := make([]CursorState, 0, len(room))
	for _, state := range room {
		if state.LastActive.Before(cutoff) {
			continue
		}
		out = append(out, *state)
	}
	return out
}

// Sweep evicts every entry older than the TTL, returning the evicted count
func (t *CursorTracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.clock.Now().Add(-t.ttl)
	evicted := 0

	for boardID, room := range t.rooms {
		for userID, state := range room {
			if state.LastActive.Before(cutoff) {
				delete(room, userID)
				evicted++
			}
		}
		if len(room) == 0 {
			delete(t.rooms, boardID)
		}
	}
	return evicted
}
