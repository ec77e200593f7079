package npc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/npcbrain/internal/core/ai/archetype"
	"github.com/zeusync/npcbrain/internal/core/ai/bt"
	"github.com/zeusync/npcbrain/internal/core/events/bus"
	"github.com/zeusync/npcbrain/internal/core/observability/log"
	"github.com/zeusync/npcbrain/internal/core/systems/physics"
)

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrInvalidTick    = errors.New("tick duration must be positive")
)

// Manager owns every entity and advances them in lockstep ticks.
//
// Entities are split into shards by a hash of their id; shards tick in
// parallel and each entity is touched by exactly one goroutine. Collisions
// and event publication run afterwards on the calling goroutine, in spawn
// order.
type Manager struct {
	mu       sync.RWMutex
	entities map[string]*entity
	order    []*entity
	target   Target
	tick     uint64

	factory *archetype.Factory
	opts    Options
	logger  log.Log
}

// NewManager creates a manager that resolves archetypes through factory.
func NewManager(factory *archetype.Factory, logger log.Log, opts ...Option) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		entities: make(map[string]*entity),
		factory:  factory,
		opts:     buildOptions(opts...),
		logger:   logger.Named("npc"),
	}
}

// Bus returns the bus events are published on.
func (m *Manager) Bus() bus.EventBus {
	return m.opts.Bus
}

// Spawn creates an entity and returns its id.
func (m *Manager) Spawn(spec SpawnSpec) (string, error) {
	tree, err := m.factory.TreeByName(spec.Archetype)
	if err != nil {
		return "", fmt.Errorf("spawn %s: %w", spec.Archetype, err)
	}

	kind := uint32(CustomType)
	if t, err := archetype.ParseEnemyType(spec.Archetype); err == nil {
		kind = uint32(t)
	}

	health := spec.Health
	if health <= 0 {
		health = DefaultHealth
	}
	radius := spec.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}
	mass := spec.Mass
	if mass <= 0 {
		mass = DefaultMass
	}

	e := &entity{
		id:        uuid.NewString(),
		archetype: spec.Archetype,
		kind:      kind,
		body:      physics.Body{Position: spec.Position, Radius: radius, Mass: mass},
		health:    health,
		maxHealth: health,
		ctx:       bt.NewExecutionContext(),
		tree:      tree,
	}

	m.mu.Lock()
	m.entities[e.id] = e
	m.order = append(m.order, e)
	state := e.state()
	m.mu.Unlock()

	m.logger.Debug("Entity spawned",
		log.String("entity", e.id),
		log.String("archetype", e.archetype),
	)
	m.publish(bus.NewEvent(EventSpawned, eventSource, state))
	return e.id, nil
}

// Despawn removes an entity.
func (m *Manager) Despawn(id string) error {
	m.mu.Lock()
	e, ok := m.entities[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	delete(m.entities, id)
	m.order = slices.DeleteFunc(m.order, func(other *entity) bool { return other == e })
	state := e.state()
	m.mu.Unlock()

	m.logger.Debug("Entity despawned", log.String("entity", id))
	m.publish(bus.NewEvent(EventDespawned, eventSource, state))
	return nil
}

// Rebind points every entity at the factory's current tree for its
// archetype, typically after the factory's catalog was replaced. Entities
// whose archetype no longer resolves keep their tree. It returns the number
// of entities that switched trees.
func (m *Manager) Rebind() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	switched := 0
	for _, e := range m.order {
		tree, err := m.factory.TreeByName(e.archetype)
		if err != nil {
			m.logger.Warn("Keeping previous tree", log.String("entity", e.id), log.Err(err))
			continue
		}
		if tree == e.tree {
			continue
		}
		e.tree = tree
		e.resetBookkeeping()
		switched++
	}
	if switched > 0 {
		m.logger.Info("Entities rebound", log.Int("entities", switched))
	}
	return switched
}

// SetTarget replaces what every entity perceives from the next tick on.
func (m *Manager) SetTarget(t Target) {
	m.mu.Lock()
	m.target = t
	m.mu.Unlock()
}

// SetHealth sets an entity's current health, clamped to [0, max].
func (m *Manager) SetHealth(id string, health float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	e.health = min(max(health, 0), e.maxHealth)
	return nil
}

// State returns a copy of an entity's state.
func (m *Manager) State(id string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok {
		return State{}, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return e.state(), nil
}

// Value reads one key of an entity's execution context.
func (m *Manager) Value(id, key string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return e.ctx.Get(key), nil
}

// Len returns the number of live entities.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Ticks returns the number of completed ticks.
func (m *Manager) Ticks() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tick
}

// Tick advances every entity by dt seconds and returns their decisions in
// spawn order.
func (m *Manager) Tick(ctx context.Context, dt time.Duration) ([]Decision, error) {
	if dt <= 0 {
		return nil, ErrInvalidTick
	}
	seconds := dt.Seconds()

	m.mu.Lock()
	m.tick++
	tick := m.tick
	target := m.target
	entities := slices.Clone(m.order)

	decisions := make([]Decision, len(entities))
	shards := m.shard(entities)

	g, gctx := errgroup.WithContext(ctx)
	for _, shard := range shards {
		if len(shard) == 0 {
			continue
		}
		g.Go(func() error {
			for _, idx := range shard {
				if err := gctx.Err(); err != nil {
					return err
				}
				decisions[idx] = entities[idx].step(tick, seconds, target, m.opts.Physics)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.mu.Unlock()
		m.logger.Warn("Tick aborted", log.Uint64("tick", tick), log.Err(err))
		return nil, err
	}

	m.resolveCollisions(entities, decisions)
	m.mu.Unlock()

	events := make([]bus.Event, len(decisions))
	for i, d := range decisions {
		events[i] = bus.NewEvent(EventDecision, eventSource, d)
	}
	m.publish(events...)

	m.logger.Debug("Tick complete", log.Uint64("tick", tick), log.Int("entities", len(decisions)))
	return decisions, nil
}

// shard groups entity indexes by worker. Indexes stay ascending inside a
// shard.
func (m *Manager) shard(entities []*entity) [][]int {
	workers := uint64(m.opts.Workers)
	shards := make([][]int, workers)
	for i, e := range entities {
		s := xxhash.Sum64String(e.id) % workers
		shards[s] = append(shards[s], i)
	}
	return shards
}

// resolveCollisions runs pairwise in spawn order. Overlapping bodies are
// pushed apart before the impulse so steering cannot hold them together.
// Decisions report the corrected positions.
func (m *Manager) resolveCollisions(entities []*entity, decisions []Decision) {
	moved := false
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			a, b := &entities[i].body, &entities[j].body
			if physics.Collide(a, b) {
				m.opts.Physics.Separate(a, b)
				physics.ResolveSphereCollision(a, b)
				moved = true
			}
		}
	}
	if !moved {
		return
	}
	for i, e := range entities {
		decisions[i].Position = e.body.Position
		e.last.Position = e.body.Position
	}
}

func (m *Manager) publish(events ...bus.Event) {
	if err := m.opts.Bus.PublishBatch(events...); err != nil {
		m.logger.Warn("Event handler failed", log.Err(err))
	}
}

// Run ticks at tickRate per second until ctx is done or maxTicks ticks have
// run. A maxTicks of zero or less runs until ctx is done.
func (m *Manager) Run(ctx context.Context, tickRate int, maxTicks int) error {
	if tickRate <= 0 {
		return ErrInvalidTick
	}
	interval := time.Second / time.Duration(tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("Simulation started",
		log.Int("tick_rate", tickRate),
		log.Int("max_ticks", maxTicks),
		log.Int("workers", m.opts.Workers),
	)

	for ran := 0; maxTicks <= 0 || ran < maxTicks; ran++ {
		select {
		case <-ctx.Done():
			m.logger.Info("Simulation stopped", log.Int("ticks", ran))
			return ctx.Err()
		case <-ticker.C:
		}
		if _, err := m.Tick(ctx, interval); err != nil {
			return err
		}
	}

	m.logger.Info("Simulation finished", log.Int("ticks", maxTicks))
	return nil
}
