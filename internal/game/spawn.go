package game

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

// StartingRoomId resolves where a new or state-less player should appear.
// The chain degrades through several fallback levels:
//
//  1. the configured starting room, when it exists
//  2. a room at grid (0,0) in the first area, else any room in that area
//  3. the hard-coded default room, when it exists
//  4. any room at all
//  5. the emergency room
//
// The result is not cached: room existence can change between calls while
// the world is edited at runtime. Given a fixed world the result is
// deterministic; ties are broken by lexicographic room id.
func (w *WorldState) StartingRoomId() storage.Identifier {
	if w.startingRoom != "" {
		if w.GetRoom(w.startingRoom) != nil {
			return w.startingRoom
		}
		slog.Warn("configured starting room does not exist", "room", w.startingRoom)
	}

	if id, ok := w.areaFallbackRoom(); ok {
		return id
	}

	if w.GetRoom(DefaultRoomId) != nil {
		return DefaultRoomId
	}

	if rooms := w.AllRooms(); len(rooms) > 0 {
		slog.Warn("starting room fell through to arbitrary room", "room", rooms[0].Id)
		return rooms[0].Id
	}

	slog.Warn("no rooms exist, using emergency room")
	return w.EmergencyRoom().Id
}

// areaFallbackRoom looks for a room at grid (0,0) in the first area by
// declaration order, falling back to any room in that area.
func (w *WorldState) areaFallbackRoom() (storage.Identifier, bool) {
	areaId, ok := w.firstArea()
	if !ok {
		return "", false
	}

	var inArea []*RoomInstance
	for _, ri := range w.AllRooms() {
		if ri.Room.AreaId != areaId {
			continue
		}
		if ri.Room.GridX == 0 && ri.Room.GridY == 0 {
			return ri.Id, true
		}
		inArea = append(inArea, ri)
	}

	if len(inArea) > 0 {
		return inArea[0].Id, true
	}
	return "", false
}

// firstArea returns the id of the first area by declaration order
// (Sequence, ties broken by id).
func (w *WorldState) firstArea() (string, bool) {
	type entry struct {
		id   string
		area *Area
	}

	var entries []entry
	for id, a := range w.areas.GetAll() {
		entries = append(entries, entry{id: id, area: a})
	}
	if len(entries) == 0 {
		// No area assets; fall back to the areas referenced by loaded rooms.
		var ids []string
		seen := map[string]bool{}
		for _, ri := range w.AllRooms() {
			if ri.Room.AreaId != "" && !seen[ri.Room.AreaId] {
				seen[ri.Room.AreaId] = true
				ids = append(ids, ri.Room.AreaId)
			}
		}
		if len(ids) == 0 {
			return "", false
		}
		slices.Sort(ids)
		return ids[0], true
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if a.area.Sequence != b.area.Sequence {
			return a.area.Sequence - b.area.Sequence
		}
		return strings.Compare(a.id, b.id)
	})
	return entries[0].id, true
}
