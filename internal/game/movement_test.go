package game

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pixil98/go-testutil"

	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

func TestNormalizeDirection(t *testing.T) {
	tests := map[string]struct {
		in  string
		exp string
	}{
		"full word":      {in: "north", exp: "north"},
		"single letter":  {in: "n", exp: "north"},
		"upper case":     {in: "E", exp: "east"},
		"diagonal alias": {in: "sw", exp: "southwest"},
		"whitespace":     {in: "  up  ", exp: "up"},
		"unknown":        {in: "sideways", exp: "sideways"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "direction", NormalizeDirection(tt.in), tt.exp)
		})
	}
}

func TestMoveDelay(t *testing.T) {
	tests := map[string]struct {
		speed int
		exp   time.Duration
	}{
		"zero speed":  {speed: 0, exp: 3 * time.Second},
		"some speed":  {speed: 5, exp: 2 * time.Second},
		"fast enough": {speed: 15, exp: 0},
		"over cap":    {speed: 100, exp: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "delay", MoveDelay(tt.speed), tt.exp)
		})
	}
}

func newMovementFixture(t *testing.T) (*testWorld, *MovementService, *fakePublisher) {
	t.Helper()
	tw := newTestWorld("", gridRooms("town", 3))
	pub := newFakePublisher()
	notify := NewNotificationService(pub)
	return tw, NewMovementService(tw.world, notify), pub
}

func TestMovementService_MovePlayer(t *testing.T) {
	tw, svc, pub := newMovementFixture(t)

	alice := &fakeSession{username: "alice", roomId: "room-0"}
	bob := &fakeSession{username: "bob", roomId: "room-0"}
	carol := &fakeSession{username: "carol", roomId: "room-1"}
	tw.world.GetRoom("room-0").AddPlayer(alice)
	tw.world.GetRoom("room-0").AddPlayer(bob)
	tw.world.GetRoom("room-1").AddPlayer(carol)

	err := svc.MovePlayer(alice, "e")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "session room", alice.RoomId(), storage.Identifier("room-1"))
	testutil.AssertEqual(t, "left old room", tw.world.GetRoom("room-0").HasPlayer("alice"), false)
	testutil.AssertEqual(t, "in new room", tw.world.GetRoom("room-1").HasPlayer("alice"), true)

	// Bob saw the departure, carol the arrival, alice the room description
	if len(pub.msgs["bob"]) != 1 || !strings.Contains(pub.msgs["bob"][0], "leaves east") {
		t.Errorf("expected departure echo for bob, got %v", pub.msgs["bob"])
	}
	if len(pub.msgs["carol"]) != 1 || !strings.Contains(pub.msgs["carol"][0], "enters the room") {
		t.Errorf("expected entrance echo for carol, got %v", pub.msgs["carol"])
	}
	if len(pub.msgs["alice"]) != 1 || !strings.Contains(pub.msgs["alice"][0], "Room 1") {
		t.Errorf("expected room description for alice, got %v", pub.msgs["alice"])
	}
}

func TestMovementService_MovePlayer_NoExit(t *testing.T) {
	tw, svc, pub := newMovementFixture(t)

	alice := &fakeSession{username: "alice", roomId: "room-0"}
	tw.world.GetRoom("room-0").AddPlayer(alice)

	err := svc.MovePlayer(alice, "north")
	testutil.AssertEqual(t, "error", err, ErrNoSuchExit, cmpopts.EquateErrors())
	testutil.AssertEqual(t, "stayed put", alice.RoomId(), storage.Identifier("room-0"))
	testutil.AssertEqual(t, "still present", tw.world.GetRoom("room-0").HasPlayer("alice"), true)
	if len(pub.msgs["alice"]) != 1 || !strings.Contains(pub.msgs["alice"][0], "can't go that way") {
		t.Errorf("expected rejection message, got %v", pub.msgs["alice"])
	}
}

func TestMovementService_MovePlayer_DanglingExit(t *testing.T) {
	tw, svc, _ := newMovementFixture(t)
	tw.world.GetRoom("room-0").Room.SetExit("north", "deleted-room")

	alice := &fakeSession{username: "alice", roomId: "room-0"}
	tw.world.GetRoom("room-0").AddPlayer(alice)

	err := svc.MovePlayer(alice, "north")
	testutil.AssertEqual(t, "error", err, ErrMissingDestination, cmpopts.EquateErrors())
	testutil.AssertEqual(t, "stayed put", alice.RoomId(), storage.Identifier("room-0"))
}

func TestMovementService_MovePlayerWithDelay(t *testing.T) {
	tw, svc, pub := newMovementFixture(t)

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	alice := &fakeSession{username: "alice", roomId: "room-0", speed: 5}
	tw.world.GetRoom("room-0").AddPlayer(alice)

	err := svc.MovePlayerWithDelay(alice, "east")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "moving", svc.IsMoving("alice"), true)
	testutil.AssertEqual(t, "not moved yet", alice.RoomId(), storage.Identifier("room-0"))

	// A second command inside the window is rejected
	err = svc.MovePlayerWithDelay(alice, "west")
	testutil.AssertEqual(t, "second move error", err, ErrAlreadyMoving, cmpopts.EquateErrors())

	// Before the window elapses the tick does nothing
	clock = clock.Add(time.Second)
	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "still pending", svc.IsMoving("alice"), true)

	// Speed 5 means a two second window
	clock = clock.Add(time.Second)
	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "done", svc.IsMoving("alice"), false)
	testutil.AssertEqual(t, "moved", alice.RoomId(), storage.Identifier("room-1"))

	found := false
	for _, msg := range pub.msgs["alice"] {
		if strings.Contains(msg, "You start moving east.") {
			found = true
		}
	}
	testutil.AssertEqual(t, "start message", found, true)
}

func TestMovementService_MovePlayerWithDelay_ZeroDelay(t *testing.T) {
	tw, svc, _ := newMovementFixture(t)

	alice := &fakeSession{username: "alice", roomId: "room-0", speed: 20}
	tw.world.GetRoom("room-0").AddPlayer(alice)

	err := svc.MovePlayerWithDelay(alice, "east")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "moved immediately", alice.RoomId(), storage.Identifier("room-1"))
	testutil.AssertEqual(t, "nothing pending", svc.IsMoving("alice"), false)
}

func TestMovementService_MovePlayerWithDelay_BadDirection(t *testing.T) {
	tw, svc, pub := newMovementFixture(t)

	alice := &fakeSession{username: "alice", roomId: "room-0"}
	tw.world.GetRoom("room-0").AddPlayer(alice)

	// The exit is validated up front, not after the delay
	err := svc.MovePlayerWithDelay(alice, "north")
	testutil.AssertEqual(t, "error", err, ErrNoSuchExit, cmpopts.EquateErrors())
	testutil.AssertEqual(t, "nothing pending", svc.IsMoving("alice"), false)
	if len(pub.msgs["alice"]) != 1 || !strings.Contains(pub.msgs["alice"][0], "can't go that way") {
		t.Errorf("expected immediate rejection, got %v", pub.msgs["alice"])
	}
}

func TestMovementService_CancelPendingMove(t *testing.T) {
	tw, svc, _ := newMovementFixture(t)

	alice := &fakeSession{username: "alice", roomId: "room-0", speed: 5}
	tw.world.GetRoom("room-0").AddPlayer(alice)

	if err := svc.MovePlayerWithDelay(alice, "east"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.CancelPendingMove("alice")
	testutil.AssertEqual(t, "cancelled", svc.IsMoving("alice"), false)

	// Cancelling again is a no-op
	svc.CancelPendingMove("alice")
}
