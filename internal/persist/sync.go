package persist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellyseum/ellymud-sub008/internal/game"
	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

// Mode selects which durable backends the synchronizer reads and writes.
// Fixed for the process lifetime.
type Mode string

const (
	// ModeFile: every read and write goes to the structured file store,
	// synchronously.
	ModeFile Mode = "file"

	// ModeDatabase: reads and writes go to the relational store. The file
	// store is read once at boot as a seed if the database is empty, and
	// never written afterward.
	ModeDatabase Mode = "database"

	// ModeAuto: load the file store synchronously so the process can
	// serve immediately, then reconcile from the database in the
	// background; the database wins when present and non-empty. Saves go
	// to the database with a file-store mirror as durable backup.
	ModeAuto Mode = "auto"
)

// drainTimeout bounds the shutdown flush of pending database writes.
const drainTimeout = 5 * time.Second

type opKind int

const (
	opSave opKind = iota
	opDelete
	opFlush
)

type op struct {
	kind opKind
	snap game.RoomSnapshot
	id   storage.Identifier
	done chan struct{}
}

// Synchronizer implements game.RoomPersister across the file store and
// the relational store. Database writes are queued and performed by a
// background worker; the triggering mutation never waits on them, so two
// rapid mutations to the same room can land out of order in the database
// even though in-memory state is sequential. Accepted trade-off.
type Synchronizer struct {
	mode     Mode
	file     *FileRepository
	db       *SQLRepository
	disabled bool

	source func() []game.RoomSnapshot
	reload func([]game.RoomSnapshot)

	queue chan op
}

// NewSynchronizer wires the configured backends. db may be nil in file
// mode. When disabled (test mode) every durable write is a no-op and
// mutations stay in memory only.
func NewSynchronizer(mode Mode, file *FileRepository, db *SQLRepository, disabled bool) *Synchronizer {
	return &Synchronizer{
		mode:     mode,
		file:     file,
		db:       db,
		disabled: disabled,
		queue:    make(chan op, 256),
	}
}

// SetSource registers the function producing the full current room set.
// File-store writes always rewrite the whole array, so per-room save
// events resolve against this.
func (s *Synchronizer) SetSource(fn func() []game.RoomSnapshot) {
	s.source = fn
}

// SetReload registers the callback that replaces the in-memory room set
// when the auto-mode database load supersedes the file store.
func (s *Synchronizer) SetReload(fn func([]game.RoomSnapshot)) {
	s.reload = fn
}

// Load produces the boot-time room set for the configured mode. Storage
// errors degrade to an empty result; the emergency-room fallback chain
// takes over from there.
func (s *Synchronizer) Load(ctx context.Context) []game.RoomSnapshot {
	switch s.mode {
	case ModeDatabase:
		snaps, err := s.db.LoadAll(ctx)
		if err != nil {
			slog.Error("database load failed", "error", err)
			return nil
		}
		if len(snaps) > 0 {
			return snaps
		}

		// Empty database: seed it from the file store once.
		seed := s.loadFile()
		if len(seed) > 0 && !s.disabled {
			if err := s.db.SaveAll(ctx, seed); err != nil {
				slog.Error("seeding database from file store failed", "error", err)
			}
		}
		return seed

	default:
		// file and auto both serve the file store first.
		return s.loadFile()
	}
}

func (s *Synchronizer) loadFile() []game.RoomSnapshot {
	snaps, err := s.file.Load()
	if err != nil {
		slog.Warn("file store load failed, starting with empty world", "error", err)
		return nil
	}
	return snaps
}

// EnqueueSave persists room snapshots. In file mode the write happens
// synchronously, by construction, so a pure file deployment never sees
// write interleaving. In database/auto modes the write is queued.
func (s *Synchronizer) EnqueueSave(snaps ...game.RoomSnapshot) {
	if s.disabled || len(snaps) == 0 {
		return
	}

	if s.mode == ModeFile {
		s.mirrorFile()
		return
	}

	for _, snap := range snaps {
		s.queue <- op{kind: opSave, snap: snap}
	}
}

// EnqueueDelete removes a room from durable storage.
func (s *Synchronizer) EnqueueDelete(id storage.Identifier) {
	if s.disabled {
		return
	}

	if s.mode == ModeFile {
		s.mirrorFile()
		return
	}

	s.queue <- op{kind: opDelete, id: id}
}

// Flush blocks until every write queued before the call has been handled,
// or ctx expires.
func (s *Synchronizer) Flush(ctx context.Context) error {
	if s.disabled || s.mode == ModeFile {
		return nil
	}

	done := make(chan struct{})
	select {
	case s.queue <- op{kind: opFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs the background write worker. In auto mode it first attempts
// the database load that supersedes the file-sourced state. On shutdown
// it drains pending writes for a bounded time and logs what it abandons.
func (s *Synchronizer) Start(ctx context.Context) error {
	if s.mode == ModeAuto && s.db != nil && !s.disabled {
		s.reconcile(ctx)
	}

	// Writes already queued must not be aborted by shutdown cancellation;
	// the drain timeout bounds them instead.
	writeCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return s.drain()
		case o := <-s.queue:
			s.handle(writeCtx, o)
		}
	}
}

// reconcile performs the deferred database load of auto mode: when the
// database holds at least one row, its contents replace the file-sourced
// in-memory state. Last writer wins; the database always wins when
// present and non-empty.
func (s *Synchronizer) reconcile(ctx context.Context) {
	snaps, err := s.db.LoadAll(ctx)
	if err != nil {
		// Leave the file-sourced data in place.
		slog.Warn("database load failed, keeping file store data", "error", err)
		return
	}
	if len(snaps) == 0 {
		return
	}
	if s.reload != nil {
		s.reload(snaps)
		slog.Info("database state replaced file store data", "rooms", len(snaps))
	}
}

func (s *Synchronizer) handle(ctx context.Context, o op) {
	switch o.kind {
	case opSave:
		if s.db != nil {
			if err := s.db.Upsert(ctx, o.snap); err != nil {
				slog.Error("database save failed", "room", o.snap.Id, "error", err)
			}
		}
		if s.mode == ModeAuto {
			s.mirrorFile()
		}

	case opDelete:
		if s.db != nil {
			if err := s.db.Delete(ctx, o.id); err != nil {
				slog.Error("database delete failed", "room", o.id, "error", err)
			}
		}
		if s.mode == ModeAuto {
			s.mirrorFile()
		}

	case opFlush:
		close(o.done)
	}
}

// mirrorFile rewrites the file store from the authoritative in-memory set.
func (s *Synchronizer) mirrorFile() {
	if s.source == nil {
		return
	}
	if err := s.file.SaveAll(s.source()); err != nil {
		slog.Error("file store save failed", "error", err)
	}
}

// drain handles queued writes after shutdown begins, abandoning whatever
// remains when the timeout elapses.
func (s *Synchronizer) drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case o := <-s.queue:
			if ctx.Err() != nil {
				abandoned := len(s.queue) + 1
				slog.Error("abandoning pending persistence writes", "count", abandoned)
				return fmt.Errorf("abandoned %d pending writes after %s", abandoned, drainTimeout)
			}
			s.handle(ctx, o)
		default:
			return nil
		}
	}
}
