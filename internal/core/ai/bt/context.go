package bt

import (
	"math"
	"sort"
)

// ExecutionContext is the per-entity blackboard a tree is evaluated against.
//
// It holds an open string -> float64 store plus the entity/target fields that
// conditions read directly. Reads of absent keys return 0. The evaluator writes
// its own bookkeeping (node_<id>, repeater_<id>_count) into the same store.
//
// An ExecutionContext has a single owner and is not safe for concurrent use.
type ExecutionContext struct {
	values map[string]float64

	targetX, targetY, targetZ float64
	entityX, entityY, entityZ float64
	health, maxHealth         float64
	entityType                uint32
}

// NewExecutionContext creates a context for a full-health entity at the origin.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{
		values:    make(map[string]float64),
		health:    100,
		maxHealth: 100,
	}
}

// Set stores value under key.
func (c *ExecutionContext) Set(key string, value float64) {
	c.values[key] = value
}

// Get returns the value under key, or 0 when absent.
func (c *ExecutionContext) Get(key string) float64 {
	return c.values[key]
}

// Has reports whether key has been written.
func (c *ExecutionContext) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Delete removes key; later reads return 0.
func (c *ExecutionContext) Delete(key string) {
	delete(c.values, key)
}

// Len returns the number of stored keys.
func (c *ExecutionContext) Len() int { return len(c.values) }

// Keys returns the stored keys in sorted order.
func (c *ExecutionContext) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for every stored key until fn returns false.
// fn may Set existing keys or Delete the visited key.
func (c *ExecutionContext) Range(fn func(key string, value float64) bool) {
	for k, v := range c.values {
		if !fn(k, v) {
			return
		}
	}
}

func (c *ExecutionContext) SetTargetPosition(x, y, z float64) {
	c.targetX, c.targetY, c.targetZ = x, y, z
}

func (c *ExecutionContext) SetEntityPosition(x, y, z float64) {
	c.entityX, c.entityY, c.entityZ = x, y, z
}

// SetEntityHealth stores current and max health without validation.
func (c *ExecutionContext) SetEntityHealth(current, max float64) {
	c.health, c.maxHealth = current, max
}

func (c *ExecutionContext) SetEntityType(id uint32) {
	c.entityType = id
}

func (c *ExecutionContext) TargetPosition() (x, y, z float64) {
	return c.targetX, c.targetY, c.targetZ
}

func (c *ExecutionContext) EntityPosition() (x, y, z float64) {
	return c.entityX, c.entityY, c.entityZ
}

func (c *ExecutionContext) EntityHealth() (current, max float64) {
	return c.health, c.maxHealth
}

func (c *ExecutionContext) EntityType() uint32 { return c.entityType }

// DistanceToTarget is the Euclidean distance between entity and target.
func (c *ExecutionContext) DistanceToTarget() float64 {
	dx := c.targetX - c.entityX
	dy := c.targetY - c.entityY
	dz := c.targetZ - c.entityZ
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// HealthFraction is current/max, or 0 when max <= 0.
func (c *ExecutionContext) HealthFraction() float64 {
	if c.maxHealth <= 0 {
		return 0
	}
	return c.health / c.maxHealth
}
