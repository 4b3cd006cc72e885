package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

const (
	// baseMoveDelay is the movement delay of a character with zero speed.
	baseMoveDelay = 3 * time.Second

	// moveDelayPerSpeed is subtracted from the base per point of speed.
	moveDelayPerSpeed = 200 * time.Millisecond
)

var directionAliases = map[string]string{
	"n": "north", "s": "south", "e": "east", "w": "west",
	"u": "up", "d": "down",
	"ne": "northeast", "nw": "northwest", "se": "southeast", "sw": "southwest",
}

// NormalizeDirection lowercases a direction and expands single-letter
// aliases ("n" -> "north").
func NormalizeDirection(direction string) string {
	dir := strings.ToLower(strings.TrimSpace(direction))
	if full, ok := directionAliases[dir]; ok {
		return full
	}
	return dir
}

// MoveDelay computes the movement delay for a movement-speed stat.
func MoveDelay(speed int) time.Duration {
	d := baseMoveDelay - time.Duration(speed)*moveDelayPerSpeed
	if d < 0 {
		return 0
	}
	return d
}

type pendingMove struct {
	sess      Session
	direction string
	due       time.Time
}

// MovementService validates and executes player traversal of exits. It
// also runs the deferred-movement window: a delayed move is executed on a
// later tick, and a second movement command inside the window is rejected.
type MovementService struct {
	world  *WorldState
	notify *NotificationService

	mu      sync.Mutex
	pending map[string]*pendingMove

	now func() time.Time
}

func NewMovementService(world *WorldState, notify *NotificationService) *MovementService {
	return &MovementService{
		world:   world,
		notify:  notify,
		pending: map[string]*pendingMove{},
		now:     time.Now,
	}
}

// MovePlayer moves a session through the exit in the given direction. On
// failure the player stays put and sees a plain message; the returned
// error is for the caller's accounting.
func (s *MovementService) MovePlayer(sess Session, direction string) error {
	dir := NormalizeDirection(direction)

	from := s.world.GetRoom(sess.RoomId())
	if from == nil {
		s.notify.NotifyPlayer(sess.Username(), "You are nowhere. Something is wrong.")
		return ErrRoomNotFound
	}

	exit, ok := from.Room.FindExit(dir)
	if !ok {
		s.notify.NotifyPlayer(sess.Username(), "You can't go that way.")
		return ErrNoSuchExit
	}

	to := s.world.GetRoom(storage.Identifier(exit.RoomId))
	if to == nil {
		// Exit points at a room that is not in the registry. Data
		// integrity problem: log for operators, abort for the player.
		slog.Error("exit points to nonexistent room",
			"room", from.Id, "direction", dir, "destination", exit.RoomId)
		s.notify.NotifyPlayer(sess.Username(), "You can't go that way.")
		return ErrMissingDestination
	}

	from.RemovePlayer(sess.Username())
	to.AddPlayer(sess)
	sess.SetRoomId(to.Id)

	s.notify.AnnouncePlayerDeparture(from, sess.Username(), dir)
	s.notify.AnnouncePlayerEntrance(to, sess.Username())
	return s.notify.LookRoom(sess, to)
}

// MovePlayerWithDelay schedules a move after the delay computed from the
// character's speed stat. A second movement command before the window
// elapses is rejected with ErrAlreadyMoving.
func (s *MovementService) MovePlayerWithDelay(sess Session, direction string) error {
	dir := NormalizeDirection(direction)

	delay := MoveDelay(sess.Speed())
	if delay == 0 {
		return s.MovePlayer(sess, dir)
	}

	s.mu.Lock()
	if _, moving := s.pending[sess.Username()]; moving {
		s.mu.Unlock()
		s.notify.NotifyPlayer(sess.Username(), "You are still moving.")
		return ErrAlreadyMoving
	}

	// Validate the exit up front so the player hears about a bad
	// direction immediately, not after the delay.
	from := s.world.GetRoom(sess.RoomId())
	if from == nil {
		s.mu.Unlock()
		s.notify.NotifyPlayer(sess.Username(), "You are nowhere. Something is wrong.")
		return ErrRoomNotFound
	}
	if _, ok := from.Room.FindExit(dir); !ok {
		s.mu.Unlock()
		s.notify.NotifyPlayer(sess.Username(), "You can't go that way.")
		return ErrNoSuchExit
	}

	s.pending[sess.Username()] = &pendingMove{
		sess:      sess,
		direction: dir,
		due:       s.now().Add(delay),
	}
	s.mu.Unlock()

	s.notify.NotifyPlayer(sess.Username(), fmt.Sprintf("You start moving %s.", dir))
	return nil
}

// IsMoving reports whether the player has a pending delayed move.
func (s *MovementService) IsMoving(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[username]
	return ok
}

// CancelPendingMove drops a player's pending move, if any. Called by the
// session manager on disconnect.
func (s *MovementService) CancelPendingMove(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, username)
}

// Tick executes delayed moves whose window has elapsed.
func (s *MovementService) Tick(ctx context.Context) error {
	now := s.now()

	s.mu.Lock()
	var due []*pendingMove
	for username, pm := range s.pending {
		if !now.Before(pm.due) {
			due = append(due, pm)
			delete(s.pending, username)
		}
	}
	s.mu.Unlock()

	for _, pm := range due {
		if err := s.MovePlayer(pm.sess, pm.direction); err != nil {
			slog.Debug("delayed move failed", "player", pm.sess.Username(), "error", err)
		}
	}
	return nil
}
