package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval string        `json:"tick_interval"`
	Storage      StorageConfig `json:"storage"`
	World        WorldConfig   `json:"world"`
	Nats         NatsConfig    `json:"nats"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing tick_interval: %w", err))
	} else if d < time.Second {
		el.Add(fmt.Errorf("tick_interval must be at least 1 second"))
	}

	el.Add(c.Storage.Validate())
	el.Add(c.World.Validate())
	el.Add(c.Nats.Validate())

	return el.Err()
}

type WorldConfig struct {
	// StartingRoom is where new or state-less players appear. Optional;
	// when unset or missing the resolver falls through to the area-based
	// lookup.
	StartingRoom string `json:"starting_room"`
}

func (c *WorldConfig) Validate() error {
	return nil
}
