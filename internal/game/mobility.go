package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

// DefaultMoveInterval is the wander cooldown, in ticks, for mobile npcs
// whose template does not set one.
const DefaultMoveInterval = 5

type wanderState struct {
	inst     *NPCInstance
	roomId   storage.Identifier
	cooldown int
}

// MobilityScheduler wanders registered mobile npcs to adjacent rooms on
// the game tick. Per npc, the cycle is: cooldown counting down, eligible
// once it elapses, cooldown reset after a move.
type MobilityScheduler struct {
	world  *WorldState
	notify *NotificationService
	rng    *rand.Rand

	mu         sync.Mutex
	registered map[string]*wanderState
}

type MobilityOpt func(*MobilityScheduler)

// WithRand replaces the random source. Used by tests.
func WithRand(rng *rand.Rand) MobilityOpt {
	return func(s *MobilityScheduler) {
		s.rng = rng
	}
}

func NewMobilityScheduler(world *WorldState, notify *NotificationService, opts ...MobilityOpt) *MobilityScheduler {
	s := &MobilityScheduler{
		world:      world,
		notify:     notify,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		registered: map[string]*wanderState{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanRooms registers every mobile npc already present in the loaded
// world. Called once at startup.
func (s *MobilityScheduler) ScanRooms() {
	for _, ri := range s.world.AllRooms() {
		for _, inst := range ri.NPCs() {
			s.Register(inst, ri.Id)
		}
	}
}

// Register tracks an npc instance for wandering. Non-mobile npcs are
// ignored. Also wired as the spawn callback for runtime-created npcs.
func (s *MobilityScheduler) Register(inst *NPCInstance, roomId storage.Identifier) {
	if !inst.NPC.Mobile {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered[inst.InstanceId] = &wanderState{
		inst:     inst,
		roomId:   roomId,
		cooldown: s.interval(inst),
	}
}

// Deregister stops tracking an npc instance. No-op when unknown.
func (s *MobilityScheduler) Deregister(instanceId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registered, instanceId)
}

// RegisteredCount returns the number of tracked npcs.
func (s *MobilityScheduler) RegisteredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registered)
}

func (s *MobilityScheduler) interval(inst *NPCInstance) int {
	if inst.NPC.MoveInterval > 0 {
		return inst.NPC.MoveInterval
	}
	return DefaultMoveInterval
}

// Tick advances every registered npc's cooldown and wanders the eligible
// ones. Work is O(1) per npc; the registered list is bounded by the
// loaded world.
func (s *MobilityScheduler) Tick(ctx context.Context) error {
	s.mu.Lock()
	states := make([]*wanderState, 0, len(s.registered))
	for _, st := range s.registered {
		states = append(states, st)
	}
	s.mu.Unlock()

	// Stable order keeps the rng stream reproducible under a fixed seed.
	slices.SortFunc(states, func(a, b *wanderState) int {
		return strings.Compare(a.inst.InstanceId, b.inst.InstanceId)
	})

	for _, st := range states {
		s.step(st)
	}
	return nil
}

func (s *MobilityScheduler) step(st *wanderState) {
	room := s.world.GetRoom(st.roomId)
	if room == nil || room.NPC(st.inst.InstanceId) == nil {
		// The npc was killed or its room deleted out from under us.
		s.Deregister(st.inst.InstanceId)
		return
	}

	// Merchants never wander; fighting npcs hold their ground.
	if st.inst.NPC.Merchant || st.inst.InCombat() {
		return
	}

	if st.cooldown > 0 {
		st.cooldown--
		return
	}

	candidates := s.candidateExits(st, room)
	if len(candidates) == 0 {
		return
	}

	exit := candidates[s.rng.Intn(len(candidates))]
	dest := s.world.GetRoom(storage.Identifier(exit.RoomId))

	room.RemoveNPC(st.inst.InstanceId)
	dest.AddNPC(st.inst)
	st.roomId = dest.Id
	st.cooldown = s.interval(st.inst)

	s.world.SaveRoom(room)
	s.world.SaveRoom(dest)

	s.notify.NotifyRoom(room, fmt.Sprintf("%s leaves %s.", st.inst.NPC.ShortDesc, exit.Direction))
	s.notify.NotifyRoom(dest, fmt.Sprintf("%s arrives.", st.inst.NPC.ShortDesc))
}

// candidateExits returns the exits an npc may wander through: the
// destination must exist, and a stays-in-area npc never crosses into a
// room outside its spawn area.
func (s *MobilityScheduler) candidateExits(st *wanderState, room *RoomInstance) []Exit {
	var out []Exit
	for _, exit := range room.Room.Exits {
		dest := s.world.GetRoom(storage.Identifier(exit.RoomId))
		if dest == nil {
			slog.Debug("npc wander skipping dangling exit",
				"room", room.Id, "direction", exit.Direction, "destination", exit.RoomId)
			continue
		}
		if st.inst.NPC.StaysInArea && dest.Room.AreaId != st.inst.SpawnAreaId {
			continue
		}
		out = append(out, exit)
	}
	return out
}
