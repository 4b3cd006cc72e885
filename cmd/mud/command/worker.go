package command

import (
	"context"
	"fmt"
	"time"

	service "github.com/pixil98/go-service"

	"github.com/ellyseum/ellymud-sub008/internal/driver"
	"github.com/ellyseum/ellymud-sub008/internal/game"
	"github.com/ellyseum/ellymud-sub008/internal/messaging"
	"github.com/ellyseum/ellymud-sub008/internal/session"
	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	tick, err := time.ParseDuration(cfg.TickInterval)
	if err != nil {
		return nil, fmt.Errorf("parsing tick_interval: %w", err)
	}

	natsServer, err := cfg.Nats.BuildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	// Asset catalogs
	areas, err := cfg.Storage.Areas.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating area store: %w", err)
	}
	npcs, err := cfg.Storage.Npcs.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating npc store: %w", err)
	}

	// Persistence and the room registry
	synchronizer, err := cfg.Storage.BuildSynchronizer()
	if err != nil {
		return nil, fmt.Errorf("creating persistence synchronizer: %w", err)
	}
	snaps := synchronizer.Load(context.Background())

	world := game.NewWorldState(snaps, areas, npcs, synchronizer,
		storage.Identifier(cfg.World.StartingRoom))
	synchronizer.SetSource(world.Snapshots)
	synchronizer.SetReload(world.ReplaceAll)

	// Services. The session collection is owned by the session manager;
	// the world layer only reads it.
	sessions := session.NewManager()
	pub := messaging.NewPlayerPublisher(natsServer)
	svc := game.NewServices(world, sessions, pub)

	scheduler := game.NewMobilityScheduler(world, svc.Notify)
	scheduler.ScanRooms()
	world.OnNPCSpawn(scheduler.Register)

	mudDriver := driver.NewMudDriver([]driver.Ticker{
		scheduler,
		svc.Movement,
		svc.Teleport,
	}, driver.WithTickLength(tick), driver.WithTickTimeout(tick))

	return service.WorkerList{
		"nats":    natsServer,
		"storage": synchronizer,
		"driver":  mudDriver,
	}, nil
}
