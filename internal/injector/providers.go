package injector

import (
	"fmt"

	"github.com/zeusync/npcbrain/internal/config"
	"github.com/zeusync/npcbrain/internal/core/ai/archetype"
	"github.com/zeusync/npcbrain/internal/core/events/bus"
	"github.com/zeusync/npcbrain/internal/core/npc"
	"github.com/zeusync/npcbrain/internal/core/observability/log"
	"github.com/zeusync/npcbrain/internal/core/systems/physics"
)

// Simulation bundles everything the simulate command runs.
type Simulation struct {
	Config  *config.Config
	Logger  log.Log
	Bus     bus.EventBus
	Factory *archetype.Factory
	Manager *npc.Manager
}

func ProvideLogger(cfg *config.Config) log.Log {
	return log.New(cfg.LogLevel())
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideCatalog(cfg *config.Config) (*archetype.Catalog, error) {
	return cfg.Catalog()
}

func ProvideFactory(catalog *archetype.Catalog, logger log.Log) *archetype.Factory {
	return archetype.NewFactory(catalog, logger)
}

func ProvidePhysics(cfg *config.Config) *physics.System {
	return &physics.System{Gravity: cfg.Simulation.Gravity, Ground: cfg.Simulation.GroundLevel}
}

func ProvideManager(
	cfg *config.Config,
	factory *archetype.Factory,
	logger log.Log,
	eventBus bus.EventBus,
	world *physics.System,
) *npc.Manager {
	m := npc.NewManager(factory, logger,
		npc.WithWorkers(cfg.Simulation.Workers),
		npc.WithBus(eventBus),
		npc.WithPhysics(world),
	)
	m.SetTarget(npc.Target{
		Position:        cfg.Target.Position.Vec(),
		Visible:         cfg.TargetVisible(),
		VisibilityRange: cfg.Target.VisibilityRange,
	})
	return m
}

// SpawnConfigured spawns every entity listed in the config and returns how
// many were created.
func (s *Simulation) SpawnConfigured() (int, error) {
	spawned := 0
	for i, spawn := range s.Config.Spawns {
		for _, pos := range spawn.Positions() {
			if _, err := s.Manager.Spawn(npc.SpawnSpec{Archetype: spawn.Archetype, Position: pos}); err != nil {
				return spawned, fmt.Errorf("spawns[%d]: %w", i, err)
			}
			spawned++
		}
	}
	return spawned, nil
}
