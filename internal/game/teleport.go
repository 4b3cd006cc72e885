package game

import (
	"context"

	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

// TeleportService relocates players to arbitrary rooms, bypassing exit
// validation. Used for initial spawn, death respawn, and recall.
type TeleportService struct {
	world    *WorldState
	sessions SessionSource
	notify   *NotificationService
}

func NewTeleportService(world *WorldState, sessions SessionSource, notify *NotificationService) *TeleportService {
	return &TeleportService{world: world, sessions: sessions, notify: notify}
}

// Tick self-heals any session left standing in a room that no longer
// exists, relocating it to the starting room.
func (s *TeleportService) Tick(ctx context.Context) error {
	var stranded []Session
	s.sessions.ForEachSession(func(sess Session) bool {
		if sess.RoomId() != "" && s.world.GetRoom(sess.RoomId()) == nil {
			stranded = append(stranded, sess)
		}
		return true
	})

	for _, sess := range stranded {
		if err := s.TeleportToStartingRoom(sess); err != nil {
			return err
		}
	}
	return nil
}

// TeleportToStartingRoom relocates a session to the resolved starting
// room unconditionally.
func (s *TeleportService) TeleportToStartingRoom(sess Session) error {
	return s.TeleportToRoom(sess, s.world.StartingRoomId().String())
}

// TeleportToStartingRoomIfNeeded relocates only if the session's current
// room no longer exists. Self-healing against world edits that delete the
// room a player was standing in.
func (s *TeleportService) TeleportToStartingRoomIfNeeded(sess Session) error {
	if s.world.GetRoom(sess.RoomId()) != nil {
		return nil
	}
	return s.TeleportToStartingRoom(sess)
}

// TeleportToRoom relocates a session to the named room. The emergency
// room is materialized on demand.
func (s *TeleportService) TeleportToRoom(sess Session, roomId string) error {
	target := s.world.GetRoom(storage.Identifier(roomId))
	if target == nil && storage.Identifier(roomId) == EmergencyRoomId {
		target = s.world.EmergencyRoom()
	}
	if target == nil {
		return ErrRoomNotFound
	}

	s.RemovePlayerFromAllRooms(sess.Username())
	target.AddPlayer(sess)
	sess.SetRoomId(target.Id)

	s.notify.AnnouncePlayerEntrance(target, sess.Username())
	return s.notify.LookRoom(sess, target)
}

// RemovePlayerFromAllRooms guarantees no room retains a stale occupant
// reference for the username. Idempotent, and silently absorbs the
// inconsistency of a player present in multiple rooms.
func (s *TeleportService) RemovePlayerFromAllRooms(username string) {
	for _, ri := range s.world.AllRooms() {
		ri.RemovePlayer(username)
	}
	if er := s.world.GetRoom(EmergencyRoomId); er != nil {
		er.RemovePlayer(username)
	}
}
