package game

import (
	"sync"

	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

// RoomInstance is a live room: the immutable template plus the mutable
// payload (occupants, items, currency). All collection mutators are
// idempotent on absent targets.
type RoomInstance struct {
	Id   storage.Identifier
	Room *Room

	mu       sync.RWMutex
	players  map[string]Session
	npcs     []*NPCInstance
	items    []ItemInstance
	currency Currency
}

// NewRoomInstance creates a live room from its template, seeding the
// mutable payload from the template's static seeds. NPC occupants are not
// instantiated here; the registry does that against the template catalog.
func NewRoomInstance(id storage.Identifier, room *Room) *RoomInstance {
	return &RoomInstance{
		Id:       id,
		Room:     room,
		players:  map[string]Session{},
		items:    append([]ItemInstance(nil), room.Items...),
		currency: room.Currency,
	}
}

// AddPlayer places a session in the room.
func (ri *RoomInstance) AddPlayer(s Session) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.players[s.Username()] = s
}

// RemovePlayer removes a session by username. Returns false if the player
// was not present.
func (ri *RoomInstance) RemovePlayer(username string) bool {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	_, ok := ri.players[username]
	delete(ri.players, username)
	return ok
}

// HasPlayer reports whether the named player is present.
func (ri *RoomInstance) HasPlayer(username string) bool {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	_, ok := ri.players[username]
	return ok
}

// Players returns the sessions currently in the room.
func (ri *RoomInstance) Players() []Session {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	out := make([]Session, 0, len(ri.players))
	for _, s := range ri.players {
		out = append(out, s)
	}
	return out
}

// PlayerCount returns the number of sessions in the room.
func (ri *RoomInstance) PlayerCount() int {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return len(ri.players)
}

// AddNPC places an npc instance in the room.
func (ri *RoomInstance) AddNPC(n *NPCInstance) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.npcs = append(ri.npcs, n)
}

// RemoveNPC removes an npc instance by instance id. Returns nil if the
// instance was not present.
func (ri *RoomInstance) RemoveNPC(instanceId string) *NPCInstance {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	for i, n := range ri.npcs {
		if n.InstanceId == instanceId {
			ri.npcs = append(ri.npcs[:i], ri.npcs[i+1:]...)
			return n
		}
	}
	return nil
}

// NPC returns the npc instance with the given instance id, or nil.
func (ri *RoomInstance) NPC(instanceId string) *NPCInstance {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	for _, n := range ri.npcs {
		if n.InstanceId == instanceId {
			return n
		}
	}
	return nil
}

// FindNPC returns the first npc instance whose template aliases match name.
func (ri *RoomInstance) FindNPC(name string) *NPCInstance {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	for _, n := range ri.npcs {
		if n.MatchName(name) {
			return n
		}
	}
	return nil
}

// NPCs returns the npc instances currently in the room.
func (ri *RoomInstance) NPCs() []*NPCInstance {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return append([]*NPCInstance(nil), ri.npcs...)
}

// AddItem drops an item instance on the floor.
func (ri *RoomInstance) AddItem(item ItemInstance) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.items = append(ri.items, item)
}

// RemoveItem picks up an item instance by id. Returns false if absent.
func (ri *RoomInstance) RemoveItem(id string) (ItemInstance, bool) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	for i, item := range ri.items {
		if item.Id == id {
			ri.items = append(ri.items[:i], ri.items[i+1:]...)
			return item, true
		}
	}
	return ItemInstance{}, false
}

// Items returns the item instances on the floor.
func (ri *RoomInstance) Items() []ItemInstance {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return append([]ItemInstance(nil), ri.items...)
}

// Currency returns the coins sitting in the room.
func (ri *RoomInstance) Currency() Currency {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return ri.currency
}

// AddCurrency drops coins in the room.
func (ri *RoomInstance) AddCurrency(c Currency) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.currency = ri.currency.Add(c)
}

// TakeCurrency removes and returns all coins in the room.
func (ri *RoomInstance) TakeCurrency() Currency {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	c := ri.currency
	ri.currency = Currency{}
	return c
}

// State captures the mutable payload for persistence. NPC occupants are
// recorded by template id only.
func (ri *RoomInstance) State() RoomState {
	ri.mu.RLock()
	defer ri.mu.RUnlock()

	npcs := make([]string, 0, len(ri.npcs))
	for _, n := range ri.npcs {
		npcs = append(npcs, n.TemplateId.String())
	}

	return RoomState{
		Items:    append([]ItemInstance(nil), ri.items...),
		Npcs:     npcs,
		Currency: ri.currency,
	}
}

// setState replaces items and currency from a loaded state. NPC occupants
// are re-instantiated by the registry.
func (ri *RoomInstance) setState(items []ItemInstance, currency Currency) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.items = append([]ItemInstance(nil), items...)
	ri.currency = currency
}

// setNPCs replaces the npc occupant list.
func (ri *RoomInstance) setNPCs(npcs []*NPCInstance) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.npcs = append([]*NPCInstance(nil), npcs...)
}

// Snapshot pairs the template with the current mutable payload. The
// template is deep-copied: a snapshot handed to the background write
// worker must stay stable while the live room keeps mutating.
func (ri *RoomInstance) Snapshot() RoomSnapshot {
	return RoomSnapshot{
		Id:    ri.Id,
		Room:  ri.Room.Clone(),
		State: ri.State(),
	}
}
