package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ellyseum/ellymud-sub008/internal/game"
	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

const (
	roomTemplateFile = "rooms.json"
	roomStateFile    = "room-state.json"
)

// roomEntry is the wire shape of one room in the template file.
type roomEntry struct {
	Id storage.Identifier `json:"id"`
	game.Room
}

// stateEntry is the wire shape of one room's mutable payload in the state
// file. It is keyed by roomId and written independently from the template
// file so topology edits never touch live state.
type stateEntry struct {
	RoomId storage.Identifier `json:"roomId"`
	game.RoomState
}

// FileRepository persists rooms as two structured files: the template
// array and a parallel state array. All writes are synchronous and atomic
// (temp file + rename).
type FileRepository struct {
	templatePath string
	statePath    string

	mu sync.Mutex
}

func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{
		templatePath: filepath.Join(dir, roomTemplateFile),
		statePath:    filepath.Join(dir, roomStateFile),
	}
}

// Load reads the template file and merges in the state file. A missing
// template file yields an empty result; an unparsable one is an error the
// caller degrades from (empty world, emergency room path). Missing
// optional fields become empty collections and zero currency.
func (r *FileRepository) Load() ([]game.RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var templates []roomEntry
	ok, err := readJSONArray(r.templatePath, &templates)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", r.templatePath, err)
	}
	if !ok {
		return nil, nil
	}

	states := map[storage.Identifier]game.RoomState{}
	var stateEntries []stateEntry
	ok, err = readJSONArray(r.statePath, &stateEntries)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", r.statePath, err)
	}
	if ok {
		for _, se := range stateEntries {
			states[se.RoomId] = se.RoomState
		}
	}

	snaps := make([]game.RoomSnapshot, 0, len(templates))
	for i := range templates {
		entry := &templates[i]
		room := entry.Room.Clone()

		state, found := states[entry.Id]
		if !found {
			// No live state yet: seed from the template.
			state = game.RoomState{
				Items:    room.Items,
				Npcs:     room.Npcs,
				Currency: room.Currency,
			}
		}

		snaps = append(snaps, game.RoomSnapshot{Id: entry.Id, Room: room, State: state})
	}
	return snaps, nil
}

// SaveAll rewrites both files from the given snapshots.
func (r *FileRepository) SaveAll(snaps []game.RoomSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	templates := make([]roomEntry, 0, len(snaps))
	states := make([]stateEntry, 0, len(snaps))
	for _, snap := range snaps {
		templates = append(templates, roomEntry{Id: snap.Id, Room: *snap.Room})
		states = append(states, stateEntry{RoomId: snap.Id, RoomState: snap.State})
	}

	if err := writeJSONArray(r.templatePath, templates); err != nil {
		return fmt.Errorf("saving %s: %w", r.templatePath, err)
	}
	if err := writeJSONArray(r.statePath, states); err != nil {
		return fmt.Errorf("saving %s: %w", r.statePath, err)
	}
	return nil
}

// readJSONArray unmarshals a top-level JSON array. Returns found=false
// when the file does not exist. A top-level value that is not an array is
// an error.
func readJSONArray(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading file: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshalling array: %w", err)
	}
	return true, nil
}

func writeJSONArray(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}
	return storage.AtomicWrite(path, data, 0644)
}
