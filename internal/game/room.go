package game

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"

	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

// Currency is a denomination triple carried by rooms and dropped by combat.
type Currency struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Copper int `json:"copper"`
}

// IsZero reports whether all denominations are zero.
func (c Currency) IsZero() bool {
	return c.Gold == 0 && c.Silver == 0 && c.Copper == 0
}

// Add returns the sum of c and o.
func (c Currency) Add(o Currency) Currency {
	return Currency{
		Gold:   c.Gold + o.Gold,
		Silver: c.Silver + o.Silver,
		Copper: c.Copper + o.Copper,
	}
}

// Exit is a directed edge to another room. Exits are not required to be
// symmetric; a two-way connection is two independent Exit records.
type Exit struct {
	Direction string `json:"direction"`
	RoomId    string `json:"roomId"`
}

// ItemInstance is a live item sitting on a room's floor.
type ItemInstance struct {
	Id         string                 `json:"id"`
	TemplateId string                 `json:"templateId"`
	Attrs      storage.ExtensionState `json:"attrs,omitempty"`
}

// Room is the immutable per-room template: topology, placement, and the
// static seeds a freshly loaded room starts with. Live state is tracked by
// RoomInstance and serialized as RoomState.
type Room struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Exits       []Exit         `json:"exits"`
	Currency    Currency       `json:"currency"`
	Flags       []string       `json:"flags,omitempty"`
	Npcs        []string       `json:"npcs,omitempty"`
	Items       []ItemInstance `json:"itemInstances,omitempty"`
	AreaId      string         `json:"areaId"`
	GridX       int            `json:"gridX"`
	GridY       int            `json:"gridY"`
}

// FindExit returns the exit for a direction, matched case-insensitively.
func (r *Room) FindExit(direction string) (Exit, bool) {
	for _, e := range r.Exits {
		if strings.EqualFold(e.Direction, direction) {
			return e, true
		}
	}
	return Exit{}, false
}

// SetExit adds or replaces the exit in the given direction. A direction
// appears at most once per room; later writes replace, never duplicate.
func (r *Room) SetExit(direction, roomId string) {
	for i, e := range r.Exits {
		if strings.EqualFold(e.Direction, direction) {
			r.Exits[i].RoomId = roomId
			return
		}
	}
	r.Exits = append(r.Exits, Exit{Direction: direction, RoomId: roomId})
}

// RemoveExit removes the exit in the given direction. Removing an absent
// direction is a no-op.
func (r *Room) RemoveExit(direction string) bool {
	for i, e := range r.Exits {
		if strings.EqualFold(e.Direction, direction) {
			r.Exits = append(r.Exits[:i], r.Exits[i+1:]...)
			return true
		}
	}
	return false
}

// HasFlag reports whether the room carries the given static flag.
func (r *Room) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the template.
func (r *Room) Clone() *Room {
	c := *r
	c.Exits = append([]Exit(nil), r.Exits...)
	c.Flags = append([]string(nil), r.Flags...)
	c.Npcs = append([]string(nil), r.Npcs...)
	c.Items = append([]ItemInstance(nil), r.Items...)
	for i := range c.Items {
		c.Items[i].Attrs = c.Items[i].Attrs.Clone()
	}
	return &c
}

// Validate satisfies storage.ValidatingSpec.
func (r *Room) Validate() error {
	el := errors.NewErrorList()

	if r.Name == "" {
		el.Add(fmt.Errorf("room name is required"))
	}

	seen := map[string]bool{}
	for _, e := range r.Exits {
		dir := strings.ToLower(e.Direction)
		if dir == "" {
			el.Add(fmt.Errorf("exit direction is required"))
			continue
		}
		if e.RoomId == "" {
			el.Add(fmt.Errorf("exit %s: roomId is required", dir))
		}
		if seen[dir] {
			el.Add(fmt.Errorf("duplicate exit direction: %s", dir))
		}
		seen[dir] = true
	}

	return el.Err()
}
