package hub

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bep/debounce"
)

// CanvasSaver persists a canvas snapshot. Satisfied by the whiteboard
// repository in production.
type CanvasSaver interface {
	SaveCanvas(ctx context.Context, id int64, canvasData string) error
}

// SnapshotDebouncer coalesces bursts of draw activity into one snapshot
// write per room. Each Schedule call replaces the pending snapshot and
// restarts the quiet timer; only the last snapshot of a burst reaches
// storage.
type SnapshotDebouncer struct {
	saver   CanvasSaver
	quiet   time.Duration
	timeout time.Duration

	mu    sync.Mutex
	rooms map[int64]*roomDebounce
}

type roomDebounce struct {
	debounced func(func())
	mu        sync.Mutex
	canvas    string
	// dirty marks a snapshot that has not reached storage yet. Whoever
	// clears it owns the write; a timer firing after a Flush consumed the
	// state finds it clean and does nothing.
	dirty bool
}

// NewSnapshotDebouncer creates a debouncer with the given quiet period and
// per-write timeout
func NewSnapshotDebouncer(saver CanvasSaver, quiet, writeTimeout time.Duration) *SnapshotDebouncer {
	return &SnapshotDebouncer{
		saver:   saver,
		quiet:   quiet,
		timeout: writeTimeout,
		rooms:   make(map[int64]*roomDebounce),
	}
}

// Schedule records the latest canvas state for a room and arms the trailing
// write. Safe for concurrent use across rooms and within a room.
func (d *SnapshotDebouncer) Schedule(boardID int64, canvasData string) {
	d.mu.Lock()
	rd := d.rooms[boardID]
	if rd == nil {
		rd = &roomDebounce{debounced: debounce.New(d.quiet)}
		d.rooms[boardID] = rd
	}
	d.mu.Unlock()

	rd.mu.Lock()
	rd.canvas = canvasData
	rd.dirty = true
	rd.mu.Unlock()

	rd.debounced(func() {
		d.flush(boardID, rd)
	})
}

func (d *SnapshotDebouncer) flush(boardID int64, rd *roomDebounce) {
	rd.mu.Lock()
	if !rd.dirty {
		rd.mu.Unlock()
		return
	}
	canvas := rd.canvas
	rd.dirty = false
	rd.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.saver.SaveCanvas(ctx, boardID, canvas); err != nil {
		// The canvas lives on in room memory and in connected clients; the
		// next draw burst retries the write.
		log.Printf("[Snapshot] Failed to persist canvas for room %d: %v", boardID, err)
		return
	}
	log.Printf("[Snapshot] Persisted canvas for room %d (%d bytes)", boardID, len(canvas))
}

// Flush writes the pending snapshot for a room immediately, bypassing the
// quiet timer, and drops the room's debounce state. Used when the last
// participant leaves; the already-armed timer finds nothing pending.
func (d *SnapshotDebouncer) Flush(boardID int64) {
	d.mu.Lock()
	rd := d.rooms[boardID]
	delete(d.rooms, boardID)
	d.mu.Unlock()
	if rd == nil {
		return
	}
	d.flush(boardID, rd)
}
