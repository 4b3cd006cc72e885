package game

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

const (
	// EmergencyRoomId is the synthesized fallback room used when no rooms
	// exist. It is never persisted.
	EmergencyRoomId storage.Identifier = "emergency"

	// DefaultRoomId is the hard-coded fallback the starting-room resolver
	// checks before giving up on configured and area-based lookups.
	DefaultRoomId storage.Identifier = "the-void"
)

// RoomPersister receives every room mutation. Implementations decide which
// durable backends the write lands in.
type RoomPersister interface {
	EnqueueSave(...RoomSnapshot)
	EnqueueDelete(storage.Identifier)
	Flush(context.Context) error
}

// WorldState is the authoritative in-memory map from room id to live room.
// It is the single writer of that map; services mutate rooms only through
// its methods. Every mutating call triggers a persistence write.
type WorldState struct {
	mu    sync.RWMutex
	rooms map[storage.Identifier]*RoomInstance

	areas storage.Storer[*Area]
	npcs  storage.Storer[*NPC]

	persister    RoomPersister
	startingRoom storage.Identifier

	emergency  *RoomInstance
	spawnHooks []func(*NPCInstance, storage.Identifier)
}

// NewWorldState builds the registry from loaded snapshots. NPC occupants
// are re-instantiated fresh from the template catalog; ids that no longer
// resolve are logged and dropped.
func NewWorldState(snaps []RoomSnapshot, areas storage.Storer[*Area], npcs storage.Storer[*NPC], persister RoomPersister, startingRoom storage.Identifier) *WorldState {
	w := &WorldState{
		rooms:        map[storage.Identifier]*RoomInstance{},
		areas:        areas,
		npcs:         npcs,
		persister:    persister,
		startingRoom: startingRoom,
	}
	w.populate(snaps)
	return w
}

type spawnedNPC struct {
	inst   *NPCInstance
	roomId storage.Identifier
}

func (w *WorldState) populate(snaps []RoomSnapshot) []spawnedNPC {
	var spawns []spawnedNPC
	for _, snap := range snaps {
		ri := NewRoomInstance(snap.Id, snap.Room)
		ri.setState(snap.State.Items, snap.State.Currency)
		npcs := w.instantiateNPCs(snap.State.Npcs, snap.Room.AreaId)
		ri.setNPCs(npcs)
		w.rooms[snap.Id] = ri

		for _, inst := range npcs {
			spawns = append(spawns, spawnedNPC{inst: inst, roomId: snap.Id})
		}
	}
	return spawns
}

func (w *WorldState) instantiateNPCs(templateIds []string, areaId string) []*NPCInstance {
	var out []*NPCInstance
	for _, id := range templateIds {
		tmpl := w.npcs.Get(id)
		if tmpl == nil {
			slog.Warn("room references unknown npc template", "template", id)
			continue
		}
		out = append(out, NewNPCInstance(storage.Identifier(id), tmpl, areaId))
	}
	return out
}

// Areas returns the area catalog.
func (w *WorldState) Areas() storage.Storer[*Area] {
	return w.areas
}

// NPCCatalog returns the npc template catalog.
func (w *WorldState) NPCCatalog() storage.Storer[*NPC] {
	return w.npcs
}

// GetRoom returns the live room with the given id, or nil.
func (w *WorldState) GetRoom(id storage.Identifier) *RoomInstance {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.emergency != nil && id == EmergencyRoomId {
		return w.emergency
	}
	return w.rooms[id]
}

// AllRooms returns every live room, sorted by id. The emergency room is
// not part of the room set.
func (w *WorldState) AllRooms() []*RoomInstance {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sortedRoomsLocked()
}

func (w *WorldState) sortedRoomsLocked() []*RoomInstance {
	out := make([]*RoomInstance, 0, len(w.rooms))
	for _, ri := range w.rooms {
		out = append(out, ri)
	}
	slices.SortFunc(out, func(a, b *RoomInstance) int {
		return strings.Compare(a.Id.String(), b.Id.String())
	})
	return out
}

// RoomCount returns the number of rooms in the registry.
func (w *WorldState) RoomCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.rooms)
}

// AddRoomIfNotExists adds a room built from the template unless the id is
// already taken, and returns the live room either way.
func (w *WorldState) AddRoomIfNotExists(id storage.Identifier, room *Room) *RoomInstance {
	w.mu.Lock()
	if ri, ok := w.rooms[id]; ok {
		w.mu.Unlock()
		return ri
	}
	ri := NewRoomInstance(id, room)
	ri.setNPCs(w.instantiateNPCs(room.Npcs, room.AreaId))
	w.rooms[id] = ri
	snap := ri.Snapshot()
	w.mu.Unlock()

	w.persister.EnqueueSave(snap)
	return ri
}

// SaveRoom persists the room's current snapshot. Call after mutating a
// room's live payload. The snapshot is captured under the registry read
// lock so it cannot interleave with a template mutation.
func (w *WorldState) SaveRoom(ri *RoomInstance) {
	if ri.Id == EmergencyRoomId {
		return
	}
	w.mu.RLock()
	snap := ri.Snapshot()
	w.mu.RUnlock()

	w.persister.EnqueueSave(snap)
}

// SaveAll persists every room in the registry.
func (w *WorldState) SaveAll() {
	w.persister.EnqueueSave(w.Snapshots()...)
}

// Snapshots captures the whole room set. The emergency room is excluded.
func (w *WorldState) Snapshots() []RoomSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]RoomSnapshot, 0, len(w.rooms))
	for _, ri := range w.sortedRoomsLocked() {
		out = append(out, ri.Snapshot())
	}
	return out
}

// ReplaceAll swaps the entire room set for the given snapshots. Used by
// the auto-backend reconciliation and the snapshot load contract. The
// spawn hooks fire for every re-instantiated npc occupant so trackers
// like the mobility scheduler pick up the fresh instances; their stale
// registrations self-expire once the old instances stop resolving.
func (w *WorldState) ReplaceAll(snaps []RoomSnapshot) {
	w.mu.Lock()
	w.rooms = map[storage.Identifier]*RoomInstance{}
	spawns := w.populate(snaps)
	w.mu.Unlock()

	for _, sp := range spawns {
		for _, fn := range w.spawnHooks {
			fn(sp.inst, sp.roomId)
		}
	}
}

// CreateRoom adds a new room template. Fails with ErrRoomExists if the id
// is taken. Operator-facing; used by world-building tools.
func (w *WorldState) CreateRoom(id storage.Identifier, room *Room) error {
	w.mu.Lock()
	if _, ok := w.rooms[id]; ok {
		w.mu.Unlock()
		return ErrRoomExists
	}
	ri := NewRoomInstance(id, room)
	ri.setNPCs(w.instantiateNPCs(room.Npcs, room.AreaId))
	w.rooms[id] = ri
	snap := ri.Snapshot()
	w.mu.Unlock()

	w.persister.EnqueueSave(snap)
	return nil
}

// UpdateRoomData replaces a room's template in place, keeping its live
// payload. Fails with ErrRoomNotFound if the id is unknown.
func (w *WorldState) UpdateRoomData(id storage.Identifier, room *Room) error {
	w.mu.Lock()
	ri, ok := w.rooms[id]
	if !ok {
		w.mu.Unlock()
		return ErrRoomNotFound
	}
	ri.Room = room
	snap := ri.Snapshot()
	w.mu.Unlock()

	w.persister.EnqueueSave(snap)
	return nil
}

// DeleteRoom removes a room from the registry and from durable storage.
// Fails with ErrRoomNotFound if the id is unknown. Players left standing
// in the deleted room are healed by the teleport service.
func (w *WorldState) DeleteRoom(id storage.Identifier) error {
	w.mu.Lock()
	if _, ok := w.rooms[id]; !ok {
		w.mu.Unlock()
		return ErrRoomNotFound
	}
	delete(w.rooms, id)
	w.mu.Unlock()

	w.persister.EnqueueDelete(id)
	return nil
}

// ConnectRooms writes a bidirectional exit pair: from-->to in fromDir and
// to-->from in toDir. Both in-memory sides are updated before returning.
// The two persistence writes are sequential, not atomic; a crash between
// them can leave a one-directional exit in durable storage.
func (w *WorldState) ConnectRooms(fromId, toId storage.Identifier, fromDir, toDir string) error {
	w.mu.Lock()
	from, ok := w.rooms[fromId]
	if !ok {
		w.mu.Unlock()
		return ErrRoomNotFound
	}
	to, ok := w.rooms[toId]
	if !ok {
		w.mu.Unlock()
		return ErrRoomNotFound
	}
	from.Room.SetExit(fromDir, toId.String())
	to.Room.SetExit(toDir, fromId.String())
	fromSnap, toSnap := from.Snapshot(), to.Snapshot()
	w.mu.Unlock()

	w.persister.EnqueueSave(fromSnap)
	w.persister.EnqueueSave(toSnap)
	return nil
}

// DisconnectExit removes one side of a connection. Removing an absent exit
// or naming an absent room is a no-op.
func (w *WorldState) DisconnectExit(roomId storage.Identifier, direction string) {
	w.mu.Lock()
	ri, ok := w.rooms[roomId]
	if !ok {
		w.mu.Unlock()
		slog.Debug("disconnect exit on unknown room", "room", roomId)
		return
	}
	removed := ri.Room.RemoveExit(direction)
	var snap RoomSnapshot
	if removed {
		snap = ri.Snapshot()
	}
	w.mu.Unlock()

	if removed {
		w.persister.EnqueueSave(snap)
	}
}

// EmergencyRoom materializes (once) and returns the synthesized fallback
// room. It has no exits and is excluded from all save operations.
func (w *WorldState) EmergencyRoom() *RoomInstance {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.emergency == nil {
		w.emergency = NewRoomInstance(EmergencyRoomId, &Room{
			Name:        "The Emergency Room",
			Description: "A featureless white space. Something has gone wrong with the world.",
		})
	}
	return w.emergency
}

// OnNPCSpawn registers a callback fired whenever SpawnNPC creates a new
// instance. Used by the mobility scheduler to pick up runtime spawns.
func (w *WorldState) OnNPCSpawn(fn func(*NPCInstance, storage.Identifier)) {
	w.spawnHooks = append(w.spawnHooks, fn)
}

// SpawnNPC instantiates an npc template into a room and persists the
// room's new occupant list.
func (w *WorldState) SpawnNPC(roomId storage.Identifier, templateId storage.Identifier) (*NPCInstance, error) {
	ri := w.GetRoom(roomId)
	if ri == nil {
		return nil, ErrRoomNotFound
	}
	tmpl := w.npcs.Get(templateId.String())
	if tmpl == nil {
		return nil, ErrNPCTemplateNotFound
	}

	inst := NewNPCInstance(templateId, tmpl, ri.Room.AreaId)
	ri.AddNPC(inst)
	w.SaveRoom(ri)

	for _, fn := range w.spawnHooks {
		fn(inst, roomId)
	}
	return inst, nil
}

// Flush drains pending persistence writes. Called on shutdown.
func (w *WorldState) Flush(ctx context.Context) error {
	return w.persister.Flush(ctx)
}
