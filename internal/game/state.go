package game

import "github.com/ellyseum/ellymud-sub008/internal/storage"

// RoomState is the mutable, frequently-changing counterpart to a Room
// template: what is on the floor right now. NPC occupants are recorded by
// template id only.
type RoomState struct {
	Items    []ItemInstance `json:"itemInstances"`
	Npcs     []string       `json:"npcs"`
	Currency Currency       `json:"currency"`
}

// RoomSnapshot pairs a room's template with its live state for persistence.
type RoomSnapshot struct {
	Id    storage.Identifier
	Room  *Room
	State RoomState
}
