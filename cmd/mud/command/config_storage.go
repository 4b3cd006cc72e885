package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"

	"github.com/ellyseum/ellymud-sub008/internal/game"
	"github.com/ellyseum/ellymud-sub008/internal/persist"
	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

type StorageConfig struct {
	// Mode selects the durable backend: file, database, or auto.
	// Defaults to auto.
	Mode string `json:"mode"`

	// DataDir holds the room template/state files and the asset
	// directories. Test harnesses point this somewhere disposable.
	DataDir string `json:"data_dir"`

	Database DatabaseConfig `json:"database"`

	// TestMode disables all durable persistence side-effects; mutations
	// stay in memory only.
	TestMode bool `json:"test_mode"`

	Areas AssetConfig[*game.Area] `json:"areas"`
	Npcs  AssetConfig[*game.NPC]  `json:"npcs"`
}

type DatabaseConfig struct {
	Driver string `json:"driver"` // sqlite | postgres
	Dsn    string `json:"dsn"`
}

func (c *StorageConfig) Validate() error {
	el := errors.NewErrorList()

	switch persist.Mode(c.Mode) {
	case persist.ModeFile, persist.ModeDatabase, persist.ModeAuto, "":
		// valid
	default:
		el.Add(fmt.Errorf("invalid storage mode %q (must be %s, %s, or %s)",
			c.Mode, persist.ModeFile, persist.ModeDatabase, persist.ModeAuto))
	}

	if c.DataDir == "" {
		el.Add(fmt.Errorf("data_dir is required"))
	} else if _, err := os.Stat(c.DataDir); err != nil {
		el.Add(fmt.Errorf("invalid data_dir %q: %w", c.DataDir, err))
	}

	if persist.Mode(c.Mode) != persist.ModeFile {
		switch c.Database.Driver {
		case persist.DriverSqlite, persist.DriverPostgres:
			if c.Database.Dsn == "" {
				el.Add(fmt.Errorf("database dsn is required"))
			}
		case "":
			el.Add(fmt.Errorf("database driver is required for storage mode %q", c.mode()))
		default:
			el.Add(fmt.Errorf("invalid database driver %q (must be %s or %s)",
				c.Database.Driver, persist.DriverSqlite, persist.DriverPostgres))
		}
	}

	el.Add(c.Areas.Validate("areas"))
	el.Add(c.Npcs.Validate("npcs"))

	return el.Err()
}

func (c *StorageConfig) mode() persist.Mode {
	if c.Mode == "" {
		return persist.ModeAuto
	}
	return persist.Mode(c.Mode)
}

// BuildSynchronizer constructs the persistence synchronizer for the
// configured mode.
func (c *StorageConfig) BuildSynchronizer() (*persist.Synchronizer, error) {
	file := persist.NewFileRepository(c.DataDir)

	var db *persist.SQLRepository
	if c.mode() != persist.ModeFile {
		var err error
		db, err = persist.OpenSQLRepository(c.Database.Driver, c.Database.Dsn)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
	}

	return persist.NewSynchronizer(c.mode(), file, db, c.TestMode), nil
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
