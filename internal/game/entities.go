package game

import (
	"fmt"
	"strings"

	"github.com/ellyseum/ellymud-sub008/internal/display"
	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

// EntityService resolves entities (sessions, npc instances) by name or id
// within the world.
type EntityService struct {
	world    *WorldState
	sessions SessionSource
	notify   *NotificationService
}

func NewEntityService(world *WorldState, sessions SessionSource, notify *NotificationService) *EntityService {
	return &EntityService{world: world, sessions: sessions, notify: notify}
}

// FindSessionByUsername scans the connected sessions for a case-sensitive
// exact username match and returns the first hit, or nil.
func (s *EntityService) FindSessionByUsername(username string) Session {
	var found Session
	s.sessions.ForEachSession(func(sess Session) bool {
		if sess.Username() == username {
			found = sess
			return false
		}
		return true
	})
	return found
}

// NPCFromRoom returns the npc instance with the given instance id in the
// room, or nil.
func (s *EntityService) NPCFromRoom(roomId storage.Identifier, instanceId string) *NPCInstance {
	ri := s.world.GetRoom(roomId)
	if ri == nil {
		return nil
	}
	return ri.NPC(instanceId)
}

// RemoveNPCFromRoom removes an npc instance from a room. Silent success
// when the room or the instance is already absent.
func (s *EntityService) RemoveNPCFromRoom(roomId storage.Identifier, instanceId string) {
	ri := s.world.GetRoom(roomId)
	if ri == nil {
		return
	}
	if ri.RemoveNPC(instanceId) != nil {
		s.world.SaveRoom(ri)
	}
}

// LookAtEntity resolves name against the npc instances and other players
// in the session's current room and writes a description to the requesting
// session. Matching is case-insensitive; every exact match outranks every
// prefix match, and within each pass npc aliases are checked before player
// usernames. Returns false if nothing matched.
func (s *EntityService) LookAtEntity(sess Session, name string) bool {
	ri := s.world.GetRoom(sess.RoomId())
	if ri == nil {
		return false
	}

	if npc := ri.FindNPC(name); npc != nil {
		return s.describeNPC(sess, npc)
	}
	if other := s.exactPlayer(ri, sess.Username(), name); other != "" {
		return s.describePlayer(sess, other)
	}
	if npc := s.prefixNPC(ri, name); npc != nil {
		return s.describeNPC(sess, npc)
	}
	if other := s.prefixPlayer(ri, sess.Username(), name); other != "" {
		return s.describePlayer(sess, other)
	}

	return false
}

func (s *EntityService) describeNPC(sess Session, npc *NPCInstance) bool {
	desc := npc.NPC.DetailedDesc
	if desc == "" {
		desc = fmt.Sprintf("You see %s.", npc.NPC.ShortDesc)
	}
	s.notify.NotifyPlayer(sess.Username(), desc)
	return true
}

func (s *EntityService) describePlayer(sess Session, other string) bool {
	s.notify.NotifyPlayer(sess.Username(),
		fmt.Sprintf("You see %s standing here.", display.Capitalize(other)))
	return true
}

func (s *EntityService) prefixNPC(ri *RoomInstance, name string) *NPCInstance {
	lower := strings.ToLower(name)
	for _, npc := range ri.NPCs() {
		for _, alias := range npc.NPC.Aliases {
			if strings.HasPrefix(strings.ToLower(alias), lower) {
				return npc
			}
		}
	}
	return nil
}

func (s *EntityService) exactPlayer(ri *RoomInstance, self, name string) string {
	for _, other := range ri.Players() {
		if other.Username() == self {
			continue
		}
		if strings.EqualFold(other.Username(), name) {
			return other.Username()
		}
	}
	return ""
}

func (s *EntityService) prefixPlayer(ri *RoomInstance, self, name string) string {
	lower := strings.ToLower(name)
	for _, other := range ri.Players() {
		if other.Username() == self {
			continue
		}
		if strings.HasPrefix(strings.ToLower(other.Username()), lower) {
			return other.Username()
		}
	}
	return ""
}
