package game

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pixil98/go-testutil"

	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

func TestWorldState_GetRoom(t *testing.T) {
	tw := newTestWorld("", gridRooms("town", 2))

	if tw.world.GetRoom("room-0") == nil {
		t.Fatal("expected room-0 to exist")
	}
	if tw.world.GetRoom("nope") != nil {
		t.Error("expected unknown room to be nil")
	}
}

func TestWorldState_AllRooms_Sorted(t *testing.T) {
	tw := newTestWorld("", map[storage.Identifier]*Room{
		"zebra": {Name: "Z"},
		"alpha": {Name: "A"},
		"mid":   {Name: "M"},
	})

	rooms := tw.world.AllRooms()
	testutil.AssertEqual(t, "count", len(rooms), 3)
	testutil.AssertEqual(t, "first", rooms[0].Id, storage.Identifier("alpha"))
	testutil.AssertEqual(t, "second", rooms[1].Id, storage.Identifier("mid"))
	testutil.AssertEqual(t, "third", rooms[2].Id, storage.Identifier("zebra"))
}

func TestWorldState_CreateRoom(t *testing.T) {
	tw := newTestWorld("", nil)

	err := tw.world.CreateRoom("new-room", &Room{Name: "New"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "count", tw.world.RoomCount(), 1)
	testutil.AssertEqual(t, "saves", len(tw.persister.saves), 1)

	err = tw.world.CreateRoom("new-room", &Room{Name: "Dup"})
	testutil.AssertEqual(t, "duplicate error", err, ErrRoomExists, cmpopts.EquateErrors())
	testutil.AssertEqual(t, "saves unchanged", len(tw.persister.saves), 1)
}

func TestWorldState_AddRoomIfNotExists(t *testing.T) {
	tw := newTestWorld("", gridRooms("town", 1))

	existing := tw.world.AddRoomIfNotExists("room-0", &Room{Name: "Other"})
	testutil.AssertEqual(t, "kept original", existing.Room.Name, "Room 0")
	testutil.AssertEqual(t, "no save for existing", len(tw.persister.saves), 0)

	added := tw.world.AddRoomIfNotExists("room-1", &Room{Name: "Added"})
	testutil.AssertEqual(t, "added name", added.Room.Name, "Added")
	testutil.AssertEqual(t, "saved", len(tw.persister.saves), 1)
}

func TestWorldState_UpdateRoomData(t *testing.T) {
	tw := newTestWorld("", gridRooms("town", 1))

	ri := tw.world.GetRoom("room-0")
	ri.AddCurrency(Currency{Gold: 7})

	err := tw.world.UpdateRoomData("room-0", &Room{Name: "Renamed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Template replaced, live payload kept
	testutil.AssertEqual(t, "name", tw.world.GetRoom("room-0").Room.Name, "Renamed")
	testutil.AssertEqual(t, "gold kept", tw.world.GetRoom("room-0").Currency().Gold, 7)

	err = tw.world.UpdateRoomData("missing", &Room{Name: "X"})
	testutil.AssertEqual(t, "missing error", err, ErrRoomNotFound, cmpopts.EquateErrors())
}

func TestWorldState_DeleteRoom(t *testing.T) {
	tw := newTestWorld("", gridRooms("town", 1))

	err := tw.world.DeleteRoom("room-0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "count", tw.world.RoomCount(), 0)
	testutil.AssertEqual(t, "deletes", len(tw.persister.deletes), 1)
	testutil.AssertEqual(t, "deleted id", tw.persister.deletes[0], storage.Identifier("room-0"))

	err = tw.world.DeleteRoom("room-0")
	testutil.AssertEqual(t, "second delete error", err, ErrRoomNotFound, cmpopts.EquateErrors())
}

func TestWorldState_ConnectRooms(t *testing.T) {
	tw := newTestWorld("", map[storage.Identifier]*Room{
		"a": {Name: "A"},
		"b": {Name: "B"},
	})

	err := tw.world.ConnectRooms("a", "b", "east", "west")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exit, ok := tw.world.GetRoom("a").Room.FindExit("east")
	testutil.AssertEqual(t, "a east found", ok, true)
	testutil.AssertEqual(t, "a east dest", exit.RoomId, "b")

	exit, ok = tw.world.GetRoom("b").Room.FindExit("west")
	testutil.AssertEqual(t, "b west found", ok, true)
	testutil.AssertEqual(t, "b west dest", exit.RoomId, "a")

	// Both endpoints are persisted
	testutil.AssertEqual(t, "saves", len(tw.persister.saves), 2)

	err = tw.world.ConnectRooms("a", "missing", "north", "south")
	testutil.AssertEqual(t, "missing room error", err, ErrRoomNotFound, cmpopts.EquateErrors())
}

func TestWorldState_DisconnectExit(t *testing.T) {
	tw := newTestWorld("", map[storage.Identifier]*Room{
		"a": {Name: "A"},
		"b": {Name: "B"},
	})
	if err := tw.world.ConnectRooms("a", "b", "east", "west"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tw.persister.saves = nil

	// Removing one side leaves the reverse exit in place
	tw.world.DisconnectExit("a", "east")

	_, ok := tw.world.GetRoom("a").Room.FindExit("east")
	testutil.AssertEqual(t, "a east removed", ok, false)
	_, ok = tw.world.GetRoom("b").Room.FindExit("west")
	testutil.AssertEqual(t, "b west kept", ok, true)
	testutil.AssertEqual(t, "one save", len(tw.persister.saves), 1)

	// Absent exit and absent room are silent no-ops
	tw.world.DisconnectExit("a", "east")
	tw.world.DisconnectExit("missing", "north")
	testutil.AssertEqual(t, "no extra saves", len(tw.persister.saves), 1)
}

func TestWorldState_EmergencyRoom(t *testing.T) {
	tw := newTestWorld("", nil)

	er := tw.world.EmergencyRoom()
	if er == nil {
		t.Fatal("expected emergency room")
	}
	testutil.AssertEqual(t, "id", er.Id, EmergencyRoomId)
	testutil.AssertEqual(t, "no exits", len(er.Room.Exits), 0)

	// Materialized once
	if tw.world.EmergencyRoom() != er {
		t.Error("expected the same emergency room instance")
	}
	if tw.world.GetRoom(EmergencyRoomId) != er {
		t.Error("expected GetRoom to serve the emergency room")
	}

	// Never part of the room set, never persisted
	testutil.AssertEqual(t, "room count", tw.world.RoomCount(), 0)
	tw.world.SaveRoom(er)
	testutil.AssertEqual(t, "no saves", len(tw.persister.saves), 0)
	testutil.AssertEqual(t, "no snapshots", len(tw.world.Snapshots()), 0)
}

func TestWorldState_InstantiatesNPCs(t *testing.T) {
	tw := newTestWorld("", nil)
	if err := tw.npcs.Save("guard", &NPC{Aliases: []string{"guard"}, ShortDesc: "a guard", MaxHP: 20}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tw.world.ReplaceAll([]RoomSnapshot{{
		Id:    "gate",
		Room:  &Room{Name: "Gate", AreaId: "town"},
		State: RoomState{Npcs: []string{"guard", "unknown-template"}},
	}})

	npcs := tw.world.GetRoom("gate").NPCs()
	testutil.AssertEqual(t, "npc count", len(npcs), 1)
	testutil.AssertEqual(t, "template", npcs[0].TemplateId, storage.Identifier("guard"))
	testutil.AssertEqual(t, "hp", npcs[0].CurrentHP, 20)
	testutil.AssertEqual(t, "spawn area", npcs[0].SpawnAreaId, "town")
}

func TestWorldState_SpawnNPC(t *testing.T) {
	tw := newTestWorld("", gridRooms("town", 1))
	if err := tw.npcs.Save("rat", &NPC{Aliases: []string{"rat"}, ShortDesc: "a rat", MaxHP: 3, Mobile: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var hookInst *NPCInstance
	var hookRoom storage.Identifier
	tw.world.OnNPCSpawn(func(inst *NPCInstance, roomId storage.Identifier) {
		hookInst = inst
		hookRoom = roomId
	})

	inst, err := tw.world.SpawnNPC("room-0", "rat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "in room", tw.world.GetRoom("room-0").NPC(inst.InstanceId), inst, cmpopts.IgnoreUnexported(NPCInstance{}))
	testutil.AssertEqual(t, "hook instance", hookInst, inst, cmpopts.IgnoreUnexported(NPCInstance{}))
	testutil.AssertEqual(t, "hook room", hookRoom, storage.Identifier("room-0"))
	testutil.AssertEqual(t, "saved", len(tw.persister.saves), 1)

	_, err = tw.world.SpawnNPC("missing", "rat")
	testutil.AssertEqual(t, "missing room", err, ErrRoomNotFound, cmpopts.EquateErrors())
	_, err = tw.world.SpawnNPC("room-0", "dragon")
	testutil.AssertEqual(t, "missing template", err, ErrNPCTemplateNotFound, cmpopts.EquateErrors())
}

func TestWorldState_SnapshotsAndReplaceAll(t *testing.T) {
	tw := newTestWorld("", gridRooms("town", 2))
	tw.world.GetRoom("room-0").AddCurrency(Currency{Gold: 5})

	snaps := tw.world.Snapshots()
	testutil.AssertEqual(t, "snapshot count", len(snaps), 2)
	testutil.AssertEqual(t, "sorted first", snaps[0].Id, storage.Identifier("room-0"))
	testutil.AssertEqual(t, "gold captured", snaps[0].State.Currency.Gold, 5)

	tw.world.ReplaceAll(snaps[:1])
	testutil.AssertEqual(t, "count after replace", tw.world.RoomCount(), 1)
	testutil.AssertEqual(t, "gold restored", tw.world.GetRoom("room-0").Currency().Gold, 5)
}

func TestWorldState_Flush(t *testing.T) {
	tw := newTestWorld("", nil)
	if err := tw.world.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "flushes", tw.persister.flushes, 1)
}

func TestWorldState_SnapshotsDetachedFromLiveRooms(t *testing.T) {
	tw := newTestWorld("", map[storage.Identifier]*Room{
		"room-a": {Name: "A", AreaId: "town"},
		"room-b": {Name: "B", AreaId: "town"},
	})

	if err := tw.world.ConnectRooms("room-a", "room-b", "east", "west"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	queued := tw.persister.saves[0]
	testutil.AssertEqual(t, "queued exits", len(queued.Room.Exits), 1)

	// Later template mutations must not reach writes already queued
	tw.world.DisconnectExit("room-a", "east")
	testutil.AssertEqual(t, "queued snapshot unchanged", len(queued.Room.Exits), 1)

	// Nor can scribbling on a snapshot touch the live room
	queued.Room.Name = "scribbled"
	testutil.AssertEqual(t, "live room unchanged", tw.world.GetRoom("room-a").Room.Name, "A")
}
