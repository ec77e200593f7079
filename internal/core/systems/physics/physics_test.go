package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorOps(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(4, 5, 6)

	assert.Equal(t, V3(5, 7, 9), a.Add(b))
	assert.Equal(t, V3(-3, -3, -3), a.Sub(b))
	assert.Equal(t, V3(2, 4, 6), a.Scale(2))
	assert.Equal(t, 32.0, a.Dot(b))
	assert.Equal(t, V3(-3, 6, -3), a.Cross(b))
	assert.InDelta(t, 5.0, V3(3, 4, 0).Length(), 1e-12)
	assert.InDelta(t, 5.0, Distance3(0, 0, 0, 3, 4, 0), 1e-12)
}

func TestNormalized(t *testing.T) {
	n := V3(0, 3, 4).Normalized()
	assert.InDelta(t, 1.0, n.Length(), 1e-12)
	assert.InDelta(t, 0.6, n.Y, 1e-12)

	assert.Equal(t, Vec3{}, Vec3{}.Normalized())
}

func TestApplyGravity(t *testing.T) {
	s := NewSystem()
	b := &Body{Position: V3(0, 10, 0)}

	s.ApplyGravity(b, 1)
	assert.InDelta(t, -9.8, b.Velocity.Y, 1e-12)
	assert.InDelta(t, 0.2, b.Position.Y, 1e-12)

	s.ApplyGravity(b, 1)
	assert.Equal(t, 0.0, b.Position.Y)
	assert.Equal(t, 0.0, b.Velocity.Y)
}

func TestIntegrate(t *testing.T) {
	s := NewSystem()
	b := &Body{Velocity: V3(2, 0, -1)}
	s.Integrate(b, 0.5)
	assert.Equal(t, V3(1, 0, -0.5), b.Position)
}

func TestSpheresCollide(t *testing.T) {
	assert.True(t, SpheresCollide(V3(0, 0, 0), 1, V3(1.5, 0, 0), 1))
	assert.False(t, SpheresCollide(V3(0, 0, 0), 1, V3(2, 0, 0), 1), "touching is not overlapping")
}

func TestResolveSphereCollision(t *testing.T) {
	a := &Body{Position: V3(0, 0, 0), Velocity: V3(1, 0, 0), Mass: 1, Radius: 1}
	b := &Body{Position: V3(1.5, 0, 0), Velocity: V3(-1, 0, 0), Mass: 1, Radius: 1}

	ResolveSphereCollision(a, b)
	// Equal masses, restitution 0.2: closing speed 2 becomes separating speed 0.4.
	assert.InDelta(t, -0.2, a.Velocity.X, 1e-12)
	assert.InDelta(t, 0.2, b.Velocity.X, 1e-12)

	before := *a
	ResolveSphereCollision(a, b)
	assert.Equal(t, before.Velocity, a.Velocity, "separating bodies are untouched")
}

func TestSeparate(t *testing.T) {
	s := NewSystem()

	a := &Body{Position: V3(-0.3, 0, 0), Radius: 0.5, Mass: 1}
	b := &Body{Position: V3(0.3, 0, 0), Radius: 0.5, Mass: 3}
	s.Separate(a, b)
	assert.InDelta(t, 1.0, a.Position.Distance(b.Position), 1e-12)
	// The lighter body takes three quarters of the correction.
	assert.InDelta(t, -0.6, a.Position.X, 1e-12)
	assert.InDelta(t, 0.4, b.Position.X, 1e-12)

	c := &Body{Position: V3(2, 0, 0), Radius: 1, Mass: 1}
	d := &Body{Position: V3(2, 0, 0), Radius: 1, Mass: 1}
	s.Separate(c, d)
	assert.Equal(t, V3(3, 0, 0), c.Position)
	assert.Equal(t, V3(1, 0, 0), d.Position)

	static := &Body{Position: V3(0, 0, 0), Radius: 1}
	moving := &Body{Position: V3(0, 1, 0), Radius: 1, Mass: 1}
	s.Separate(static, moving)
	assert.Equal(t, V3(0, 0, 0), static.Position)
	assert.Equal(t, V3(0, 2, 0), moving.Position)

	apart := &Body{Position: V3(5, 0, 0), Radius: 1, Mass: 1}
	before := apart.Position
	s.Separate(apart, moving)
	assert.Equal(t, before, apart.Position)
}
