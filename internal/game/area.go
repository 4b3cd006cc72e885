package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// Area is a named grouping of rooms. It bounds NPC wandering (stays-in-area)
// and anchors the fallback spawn lookup. Sequence is the declaration order
// used when the resolver picks "the first area".
type Area struct {
	Name        string `json:"name"`
	Sequence    int    `json:"sequence"`
	Description string `json:"description,omitempty"`
}

// Validate satisfies storage.ValidatingSpec.
func (a *Area) Validate() error {
	el := errors.NewErrorList()

	if a.Name == "" {
		el.Add(fmt.Errorf("area name is required"))
	}
	if a.Sequence < 0 {
		el.Add(fmt.Errorf("area sequence must not be negative"))
	}

	return el.Err()
}
