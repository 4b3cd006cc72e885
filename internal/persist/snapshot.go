package persist

import (
	"encoding/json"
	"fmt"

	"github.com/ellyseum/ellymud-sub008/internal/game"
	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

// SaveToPath dumps a room set to an arbitrary file, bypassing the
// configured backend. The file has the template-file shape with the live
// mutable fields written in place of the static seeds, so a later
// LoadFromPath reproduces the set exactly. Used by tests and tooling.
func SaveToPath(path string, snaps []game.RoomSnapshot) error {
	entries := make([]roomEntry, 0, len(snaps))
	for _, snap := range snaps {
		room := snap.Room.Clone()
		room.Items = snap.State.Items
		room.Npcs = snap.State.Npcs
		room.Currency = snap.State.Currency
		entries = append(entries, roomEntry{Id: snap.Id, Room: *room})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}
	return storage.AtomicWrite(path, data, 0644)
}

// LoadFromPath reads a room set from an arbitrary file written by
// SaveToPath (or a hand-authored template file), bypassing the configured
// backend. The caller replaces the registry contents with the result.
func LoadFromPath(path string) ([]game.RoomSnapshot, error) {
	var entries []roomEntry
	ok, err := readJSONArray(path, &entries)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("loading snapshot %s: file does not exist", path)
	}

	snaps := make([]game.RoomSnapshot, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		room := entry.Room.Clone()
		snaps = append(snaps, game.RoomSnapshot{
			Id:   entry.Id,
			Room: room,
			State: game.RoomState{
				Items:    room.Items,
				Npcs:     room.Npcs,
				Currency: room.Currency,
			},
		})
	}
	return snaps, nil
}
