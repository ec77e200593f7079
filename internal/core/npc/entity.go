package npc

import (
	"math"
	"strings"

	"github.com/zeusync/npcbrain/internal/core/ai/bt"
	"github.com/zeusync/npcbrain/internal/core/systems/physics"
)

// CustomType is the entity_type value of archetypes outside the built-in set.
const CustomType = math.MaxUint32

const (
	DefaultHealth = 100.0
	DefaultRadius = 0.5
	DefaultMass   = 1.0
)

// SpawnSpec describes an entity to create.
type SpawnSpec struct {
	Archetype string
	Position  physics.Vec3
	Health    float64 // Starting and maximum health; DefaultHealth when zero
	Radius    float64 // DefaultRadius when zero
	Mass      float64 // DefaultMass when zero
}

// Target is what every entity perceives and reacts to.
type Target struct {
	Position physics.Vec3
	Visible  bool
	// VisibilityRange limits how far the target can be seen; zero means unlimited.
	VisibilityRange float64
}

func (t Target) visibleFrom(p physics.Vec3) bool {
	if !t.Visible {
		return false
	}
	return t.VisibilityRange <= 0 || p.Distance(t.Position) <= t.VisibilityRange
}

// Decision is the outcome of one entity's tick.
type Decision struct {
	Entity    string
	Archetype string
	Tick      uint64
	Status    bt.Status
	HasAction bool
	Action    bt.ActionType
	Parameter float64
	Position  physics.Vec3
}

// State is a copy of an entity's externally visible state.
type State struct {
	ID        string
	Archetype string
	Type      uint32
	Position  physics.Vec3
	Velocity  physics.Vec3
	Health    float64
	MaxHealth float64
	Last      Decision
}

// entity owns its execution context. Only the shard goroutine that ticks it
// touches the context during a tick.
type entity struct {
	id        string
	archetype string
	kind      uint32
	body      physics.Body
	health    float64
	maxHealth float64

	ctx  *bt.ExecutionContext
	tree *bt.Tree

	last    Decision
	scratch []string
}

func (e *entity) state() State {
	return State{
		ID:        e.id,
		Archetype: e.archetype,
		Type:      e.kind,
		Position:  e.body.Position,
		Velocity:  e.body.Velocity,
		Health:    e.health,
		MaxHealth: e.maxHealth,
		Last:      e.last,
	}
}

// step runs one tick: cooldown decay, perception, evaluation, movement.
func (e *entity) step(tick uint64, dt float64, target Target, world *physics.System) Decision {
	e.decayCooldowns(dt)
	e.perceive(target)

	e.ctx.Delete(bt.KeyAction)
	e.ctx.Delete(bt.KeyActionParameter)

	d := Decision{
		Entity:    e.id,
		Archetype: e.archetype,
		Tick:      tick,
		Status:    e.tree.Evaluate(e.ctx),
	}
	if e.ctx.Has(bt.KeyAction) {
		d.HasAction = true
		d.Action = bt.ActionType(e.ctx.Get(bt.KeyAction))
		d.Parameter = e.ctx.Get(bt.KeyActionParameter)
	}

	e.steer(d, target.Position)
	world.Integrate(&e.body, dt)

	d.Position = e.body.Position
	e.last = d
	return d
}

// decayCooldowns counts every cooldown_<n> timer down by dt, flooring at zero.
func (e *entity) decayCooldowns(dt float64) {
	e.scratch = e.scratch[:0]
	e.ctx.Range(func(key string, value float64) bool {
		if value > 0 && strings.HasPrefix(key, bt.CooldownPrefix) {
			e.scratch = append(e.scratch, key)
		}
		return true
	})
	for _, key := range e.scratch {
		e.ctx.Set(key, max(e.ctx.Get(key)-dt, 0))
	}
}

// resetBookkeeping drops node outcomes and repeater counters, which are keyed
// by node ids of the previous tree. Cooldowns survive.
func (e *entity) resetBookkeeping() {
	e.scratch = e.scratch[:0]
	e.ctx.Range(func(key string, _ float64) bool {
		if strings.HasPrefix(key, bt.NodeStatusPrefix) || strings.HasPrefix(key, bt.RepeaterPrefix) {
			e.scratch = append(e.scratch, key)
		}
		return true
	})
	for _, key := range e.scratch {
		e.ctx.Delete(key)
	}
}

func (e *entity) perceive(target Target) {
	p := e.body.Position
	e.ctx.SetEntityPosition(p.X, p.Y, p.Z)
	e.ctx.SetTargetPosition(target.Position.X, target.Position.Y, target.Position.Z)
	e.ctx.SetEntityHealth(e.health, e.maxHealth)
	e.ctx.SetEntityType(e.kind)

	visible := 0.0
	if target.visibleFrom(p) {
		visible = 1
	}
	e.ctx.Set(bt.KeyTargetVisible, visible)
}

// steer sets horizontal velocity from the decision. Vertical motion is left
// to gravity.
func (e *entity) steer(d Decision, target physics.Vec3) {
	toward := target.Sub(e.body.Position)
	toward.Y = 0
	toward = toward.Normalized()

	var horizontal physics.Vec3
	if d.HasAction {
		switch d.Action {
		case bt.ActionMoveToTarget:
			horizontal = toward.Scale(d.Parameter)
		case bt.ActionFlee:
			horizontal = toward.Scale(-d.Parameter)
		}
	}
	e.body.Velocity.X = horizontal.X
	e.body.Velocity.Z = horizontal.Z
}
