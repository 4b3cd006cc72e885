package game

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pixil98/go-errors"

	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

// NPC defines a kind of non-player character loaded from asset files.
// Multiple instances can be spawned from one definition.
type NPC struct {
	// Aliases are keywords players can use to target this npc (e.g., ["guard", "town"])
	Aliases []string `json:"aliases"`

	// ShortDesc is used in action messages (e.g., "The town guard leaves north.")
	ShortDesc string `json:"short_desc"`

	// LongDesc is shown when the npc is standing in a room
	LongDesc string `json:"long_desc"`

	// DetailedDesc is shown when a player looks at the npc
	DetailedDesc string `json:"detailed_desc"`

	MaxHP int `json:"max_hp"`

	// Mobile npcs wander between rooms on the game tick
	Mobile bool `json:"mobile"`

	// Merchants never wander, even when flagged mobile
	Merchant bool `json:"merchant"`

	// StaysInArea restricts wandering to rooms sharing the spawn room's area
	StaysInArea bool `json:"stays_in_area"`

	// MoveInterval is the number of ticks between wander attempts
	MoveInterval int `json:"move_interval,omitempty"`
}

// MatchName returns true if name matches any of this npc's aliases (case-insensitive).
func (n *NPC) MatchName(name string) bool {
	for _, alias := range n.Aliases {
		if strings.EqualFold(alias, name) {
			return true
		}
	}
	return false
}

// Validate satisfies storage.ValidatingSpec.
func (n *NPC) Validate() error {
	el := errors.NewErrorList()

	if len(n.Aliases) < 1 {
		el.Add(fmt.Errorf("npc alias is required"))
	}
	if n.ShortDesc == "" {
		el.Add(fmt.Errorf("npc short description is required"))
	}
	if n.MoveInterval < 0 {
		el.Add(fmt.Errorf("npc move interval must not be negative"))
	}

	return el.Err()
}

// NPCInstance is a live npc occupying a room. Instances are ephemeral: a
// room serializes only the template ids of its occupants, and each id is
// re-instantiated fresh from the catalog on load, so template edits
// propagate to existing occupants. In-memory stat changes (mid-fight
// damage) do not survive a save/reload cycle.
type NPCInstance struct {
	InstanceId  string
	TemplateId  storage.Identifier
	NPC         *NPC
	CurrentHP   int
	SpawnAreaId string

	mu         sync.Mutex
	aggressors map[string]struct{}
}

// NewNPCInstance creates a fresh instance from a template.
func NewNPCInstance(templateId storage.Identifier, npc *NPC, spawnAreaId string) *NPCInstance {
	return &NPCInstance{
		InstanceId:  uuid.NewString(),
		TemplateId:  templateId,
		NPC:         npc,
		CurrentHP:   npc.MaxHP,
		SpawnAreaId: spawnAreaId,
		aggressors:  map[string]struct{}{},
	}
}

// AddAggressor records a combatant attacking this npc. Written by the
// combat subsystem; the mobility scheduler only reads it.
func (n *NPCInstance) AddAggressor(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.aggressors[name] = struct{}{}
}

// RemoveAggressor clears a combatant. Removing an absent aggressor is a no-op.
func (n *NPCInstance) RemoveAggressor(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.aggressors, name)
}

// InCombat reports whether any combatant is currently attacking this npc.
func (n *NPCInstance) InCombat() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.aggressors) > 0
}

// MatchName returns true if name matches the template's aliases.
func (n *NPCInstance) MatchName(name string) bool {
	return n.NPC.MatchName(name)
}
