package game

import (
	"context"
	"fmt"

	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

// fakePersister records persistence calls.
type fakePersister struct {
	saves   []RoomSnapshot
	deletes []storage.Identifier
	flushes int
}

func (p *fakePersister) EnqueueSave(snaps ...RoomSnapshot) {
	p.saves = append(p.saves, snaps...)
}

func (p *fakePersister) EnqueueDelete(id storage.Identifier) {
	p.deletes = append(p.deletes, id)
}

func (p *fakePersister) Flush(ctx context.Context) error {
	p.flushes++
	return nil
}

// fakePublisher collects messages per player.
type fakePublisher struct {
	msgs map[string][]string
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{msgs: map[string][]string{}}
}

func (p *fakePublisher) PublishToPlayer(username string, data []byte) error {
	p.msgs[username] = append(p.msgs[username], string(data))
	return nil
}

// fakeSession implements Session.
type fakeSession struct {
	username string
	roomId   storage.Identifier
	speed    int
}

func (s *fakeSession) Username() string                { return s.username }
func (s *fakeSession) RoomId() storage.Identifier      { return s.roomId }
func (s *fakeSession) SetRoomId(id storage.Identifier) { s.roomId = id }
func (s *fakeSession) Speed() int                      { return s.speed }

// fakeSessions implements SessionSource.
type fakeSessions struct {
	list []*fakeSession
}

func (f *fakeSessions) ForEachSession(fn func(Session) bool) {
	for _, s := range f.list {
		if !fn(s) {
			return
		}
	}
}

// mapStorer is an in-memory storage.Storer.
type mapStorer[T storage.ValidatingSpec] struct {
	records map[string]T
}

func newMapStorer[T storage.ValidatingSpec]() *mapStorer[T] {
	return &mapStorer[T]{records: map[string]T{}}
}

func (m *mapStorer[T]) Save(id string, v T) error {
	m.records[id] = v
	return nil
}

func (m *mapStorer[T]) Get(id string) T {
	return m.records[id]
}

func (m *mapStorer[T]) GetAll() map[string]T {
	out := map[string]T{}
	for k, v := range m.records {
		out[k] = v
	}
	return out
}

// testWorld bundles a WorldState with its fakes.
type testWorld struct {
	world     *WorldState
	persister *fakePersister
	areas     *mapStorer[*Area]
	npcs      *mapStorer[*NPC]
}

func newTestWorld(startingRoom storage.Identifier, rooms map[storage.Identifier]*Room) *testWorld {
	tw := &testWorld{
		persister: &fakePersister{},
		areas:     newMapStorer[*Area](),
		npcs:      newMapStorer[*NPC](),
	}

	var snaps []RoomSnapshot
	for id, room := range rooms {
		snaps = append(snaps, RoomSnapshot{
			Id:   id,
			Room: room,
			State: RoomState{
				Items:    room.Items,
				Npcs:     room.Npcs,
				Currency: room.Currency,
			},
		})
	}

	tw.world = NewWorldState(snaps, tw.areas, tw.npcs, tw.persister, startingRoom)
	return tw
}

// grid builds a simple chain of rooms: r0 -east-> r1 -east-> r2 ... with
// the reverse west exits, all in the given area.
func gridRooms(area string, n int) map[storage.Identifier]*Room {
	rooms := map[storage.Identifier]*Room{}
	for i := 0; i < n; i++ {
		id := storage.Identifier(fmt.Sprintf("room-%d", i))
		room := &Room{
			Name:   fmt.Sprintf("Room %d", i),
			AreaId: area,
			GridX:  i,
		}
		if i > 0 {
			room.SetExit("west", fmt.Sprintf("room-%d", i-1))
		}
		if i < n-1 {
			room.SetExit("east", fmt.Sprintf("room-%d", i+1))
		}
		rooms[id] = room
	}
	return rooms
}
