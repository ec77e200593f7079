package bt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextSetGet(t *testing.T) {
	ctx := NewExecutionContext()

	assert.Equal(t, 0.0, ctx.Get("missing"))
	assert.False(t, ctx.Has("missing"))

	ctx.Set("target_visible", 0.75)
	assert.Equal(t, 0.75, ctx.Get("target_visible"))
	assert.True(t, ctx.Has("target_visible"))

	ctx.Set("target_visible", -3.25)
	assert.Equal(t, -3.25, ctx.Get("target_visible"))

	ctx.Delete("target_visible")
	assert.Equal(t, 0.0, ctx.Get("target_visible"))
	assert.False(t, ctx.Has("target_visible"))
}

func TestContextKeysSorted(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("b", 1)
	ctx.Set("a", 2)
	ctx.Set("cooldown_3", 3)

	require.Equal(t, []string{"a", "b", "cooldown_3"}, ctx.Keys())
	require.Equal(t, 3, ctx.Len())
}

func TestContextDistance(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.SetEntityPosition(0, 0, 0)
	ctx.SetTargetPosition(3, 4, 0)
	assert.InDelta(t, 5.0, ctx.DistanceToTarget(), 1e-12)

	ctx.SetEntityPosition(1, 2, 3)
	ctx.SetTargetPosition(1, 2, 3)
	assert.Equal(t, 0.0, ctx.DistanceToTarget())
}

func TestContextHealthFraction(t *testing.T) {
	ctx := NewExecutionContext()
	assert.Equal(t, 1.0, ctx.HealthFraction(), "new contexts start at full health")

	ctx.SetEntityHealth(25, 100)
	assert.Equal(t, 0.25, ctx.HealthFraction())

	ctx.SetEntityHealth(50, 0)
	assert.Equal(t, 0.0, ctx.HealthFraction())

	ctx.SetEntityHealth(50, -10)
	assert.Equal(t, 0.0, ctx.HealthFraction())

	ctx.SetEntityHealth(-5, 10)
	assert.Equal(t, -0.5, ctx.HealthFraction())
}

func TestCooldownSlot(t *testing.T) {
	tests := []struct {
		in   float64
		want uint32
	}{
		{7, 7},
		{7.9, 7},
		{-1, 0},
		{0, 0},
		{1e12, 4294967295},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CooldownSlot(tt.in), "parameter %v", tt.in)
	}
	assert.Equal(t, "cooldown_7", CooldownKey(CooldownSlot(7)))
}
