//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/npcbrain/internal/config"
)

func InitializeSimulation(cfg *config.Config) (*Simulation, error) {
	wire.Build(
		ProvideLogger,
		ProvideBus,
		ProvideCatalog,
		ProvideFactory,
		ProvidePhysics,
		ProvideManager,
		wire.Struct(new(Simulation), "*"),
	)
	return nil, nil
}
