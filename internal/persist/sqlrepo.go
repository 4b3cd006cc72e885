package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // pure-go sqlite driver

	"github.com/ellyseum/ellymud-sub008/internal/game"
	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

// Exits and flags are stored as encoded blobs, not relational columns, so
// a new flag never needs a migration. NPC occupants are an encoded list of
// template ids, item instances an encoded list; the same denormalization
// the file format uses.
const roomSchema = `
CREATE TABLE IF NOT EXISTS rooms (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	exits TEXT NOT NULL DEFAULT '[]',
	currency_gold INTEGER NOT NULL DEFAULT 0,
	currency_silver INTEGER NOT NULL DEFAULT 0,
	currency_copper INTEGER NOT NULL DEFAULT 0,
	flags TEXT,
	npc_template_ids TEXT,
	item_instances TEXT,
	area_id TEXT NOT NULL DEFAULT '',
	grid_x INTEGER NOT NULL DEFAULT 0,
	grid_y INTEGER NOT NULL DEFAULT 0
)`

// SQLRepository persists rooms in a relational store, one row per room
// with insert-or-replace semantics keyed on id.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// OpenSQLRepository opens the database and ensures the schema exists.
// Supported drivers: sqlite (modernc) and postgres (lib/pq).
func OpenSQLRepository(driver, dsn string) (*SQLRepository, error) {
	if driver != DriverSqlite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	r := &SQLRepository{db: db, driver: driver}
	if _, err := db.Exec(roomSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return r, nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// ph returns the bind placeholder for the i-th (1-based) argument in the
// configured driver's dialect.
func (r *SQLRepository) ph(i int) string {
	if r.driver == DriverPostgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

func (r *SQLRepository) phList(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = r.ph(i + 1)
	}
	return strings.Join(parts, ", ")
}

// LoadAll reads every room row.
func (r *SQLRepository) LoadAll(ctx context.Context) ([]game.RoomSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, exits,
		currency_gold, currency_silver, currency_copper,
		flags, npc_template_ids, item_instances,
		area_id, grid_x, grid_y FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var snaps []game.RoomSnapshot
	for rows.Next() {
		var (
			id, name, description, exits, areaId string
			gold, silver, copper, gridX, gridY   int
			flags, npcIds, items                 sql.NullString
		)
		err := rows.Scan(&id, &name, &description, &exits,
			&gold, &silver, &copper,
			&flags, &npcIds, &items,
			&areaId, &gridX, &gridY)
		if err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}

		room := &game.Room{
			Name:        name,
			Description: description,
			Currency:    game.Currency{Gold: gold, Silver: silver, Copper: copper},
			AreaId:      areaId,
			GridX:       gridX,
			GridY:       gridY,
		}
		if err := decodeBlob(exits, &room.Exits); err != nil {
			return nil, fmt.Errorf("room %s: decoding exits: %w", id, err)
		}
		if err := decodeNullBlob(flags, &room.Flags); err != nil {
			return nil, fmt.Errorf("room %s: decoding flags: %w", id, err)
		}

		// The single-row schema stores only the live currency, so a
		// database round trip collapses the template seed into the live
		// value. The file store keeps the two apart.
		state := game.RoomState{
			Currency: room.Currency,
		}
		if err := decodeNullBlob(npcIds, &state.Npcs); err != nil {
			return nil, fmt.Errorf("room %s: decoding npc ids: %w", id, err)
		}
		if err := decodeNullBlob(items, &state.Items); err != nil {
			return nil, fmt.Errorf("room %s: decoding item instances: %w", id, err)
		}
		room.Npcs = append([]string(nil), state.Npcs...)
		room.Items = append([]game.ItemInstance(nil), state.Items...)

		snaps = append(snaps, game.RoomSnapshot{
			Id:    storage.Identifier(id),
			Room:  room,
			State: state,
		})
	}
	return snaps, rows.Err()
}

// Upsert writes one room row, insert-or-replace keyed on id.
func (r *SQLRepository) Upsert(ctx context.Context, snap game.RoomSnapshot) error {
	return r.upsert(ctx, r.db, snap)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLRepository) upsert(ctx context.Context, ex execer, snap game.RoomSnapshot) error {
	exits, err := encodeBlob(snap.Room.Exits)
	if err != nil {
		return fmt.Errorf("encoding exits: %w", err)
	}
	flags, err := encodeNullBlob(snap.Room.Flags, len(snap.Room.Flags) == 0)
	if err != nil {
		return fmt.Errorf("encoding flags: %w", err)
	}
	npcIds, err := encodeNullBlob(snap.State.Npcs, len(snap.State.Npcs) == 0)
	if err != nil {
		return fmt.Errorf("encoding npc ids: %w", err)
	}
	items, err := encodeNullBlob(snap.State.Items, len(snap.State.Items) == 0)
	if err != nil {
		return fmt.Errorf("encoding item instances: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO rooms (id, name, description, exits,
		currency_gold, currency_silver, currency_copper,
		flags, npc_template_ids, item_instances,
		area_id, grid_x, grid_y)
	VALUES (%s)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		exits = excluded.exits,
		currency_gold = excluded.currency_gold,
		currency_silver = excluded.currency_silver,
		currency_copper = excluded.currency_copper,
		flags = excluded.flags,
		npc_template_ids = excluded.npc_template_ids,
		item_instances = excluded.item_instances,
		area_id = excluded.area_id,
		grid_x = excluded.grid_x,
		grid_y = excluded.grid_y`, r.phList(13))

	_, err = ex.ExecContext(ctx, query,
		snap.Id.String(), snap.Room.Name, snap.Room.Description, exits,
		snap.State.Currency.Gold, snap.State.Currency.Silver, snap.State.Currency.Copper,
		flags, npcIds, items,
		snap.Room.AreaId, snap.Room.GridX, snap.Room.GridY)
	if err != nil {
		return fmt.Errorf("upserting room %s: %w", snap.Id, err)
	}
	return nil
}

// SaveAll writes every snapshot in one transaction.
func (r *SQLRepository) SaveAll(ctx context.Context, snaps []game.RoomSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	for _, snap := range snaps {
		if err := r.upsert(ctx, tx, snap); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes a room row. Deleting an absent id is a no-op.
func (r *SQLRepository) Delete(ctx context.Context, id storage.Identifier) error {
	query := fmt.Sprintf("DELETE FROM rooms WHERE id = %s", r.ph(1))
	if _, err := r.db.ExecContext(ctx, query, id.String()); err != nil {
		return fmt.Errorf("deleting room %s: %w", id, err)
	}
	return nil
}

func encodeBlob(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeNullBlob(v any, empty bool) (sql.NullString, error) {
	if empty {
		return sql.NullString{}, nil
	}
	s, err := encodeBlob(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

func decodeBlob(s string, out any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), out)
}

func decodeNullBlob(s sql.NullString, out any) error {
	if !s.Valid {
		return nil
	}
	return decodeBlob(s.String, out)
}
