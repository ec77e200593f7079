package npc

import (
	"runtime"

	"github.com/zeusync/npcbrain/internal/core/events/bus"
	"github.com/zeusync/npcbrain/internal/core/systems/physics"
)

// Options configures a Manager.
type Options struct {
	Workers int             // Number of shards ticked in parallel
	Physics *physics.System // Gravity and ground plane
	Bus     bus.EventBus    // Destination of spawn, despawn and decision events
}

// Option mutates Options.
type Option func(*Options)

// WithWorkers sets the number of tick shards. Values below 1 mean GOMAXPROCS.
func WithWorkers(workers int) Option {
	return func(o *Options) { o.Workers = workers }
}

// WithPhysics sets the physics system used for movement.
func WithPhysics(system *physics.System) Option {
	return func(o *Options) { o.Physics = system }
}

// WithBus sets the event bus.
func WithBus(eventBus bus.EventBus) Option {
	return func(o *Options) { o.Bus = eventBus }
}

func buildOptions(opts ...Option) Options {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Workers < 1 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Physics == nil {
		o.Physics = physics.NewSystem()
	}
	if o.Bus == nil {
		o.Bus = bus.New()
	}
	return o
}
