package physics

// DefaultGravity is the downward acceleration along Y.
const DefaultGravity = 9.8

// Restitution is the bounciness used when resolving sphere contacts.
const Restitution = 0.2

// Body is the minimal rigid-body state the system integrates.
type Body struct {
	Position Vec3
	Velocity Vec3
	Radius   float64
	Mass     float64
}

// System applies gravity with a flat ground plane and resolves sphere contacts.
type System struct {
	Gravity float64
	Ground  float64
}

func NewSystem() *System {
	return &System{Gravity: DefaultGravity}
}

// ApplyGravity integrates vertical motion for dt seconds and clamps the body
// to the ground plane.
func (s *System) ApplyGravity(b *Body, dt float64) {
	b.Velocity.Y -= s.Gravity * dt
	b.Position.Y += b.Velocity.Y * dt

	if b.Position.Y < s.Ground {
		b.Position.Y = s.Ground
		b.Velocity.Y = 0
	}
}

// Integrate moves the body horizontally by its velocity, then applies gravity.
func (s *System) Integrate(b *Body, dt float64) {
	b.Position.X += b.Velocity.X * dt
	b.Position.Z += b.Velocity.Z * dt
	s.ApplyGravity(b, dt)
}

// SpheresCollide reports whether two spheres overlap. Touching is not a collision.
func SpheresCollide(p1 Vec3, r1 float64, p2 Vec3, r2 float64) bool {
	return p1.Distance(p2) < r1+r2
}

// Collide reports whether the bodies' bounding spheres overlap.
func Collide(a, b *Body) bool {
	return SpheresCollide(a.Position, a.Radius, b.Position, b.Radius)
}

// ResolveSphereCollision applies an impulse along the contact normal.
// Bodies already separating are left untouched, as are bodies without mass.
func ResolveSphereCollision(a, b *Body) {
	if a.Mass <= 0 || b.Mass <= 0 {
		return
	}

	normal := a.Position.Sub(b.Position).Normalized()
	relative := a.Velocity.Sub(b.Velocity)

	along := relative.Dot(normal)
	if along > 0 {
		return
	}

	impulse := -(1 + Restitution) * along
	impulse /= 1/a.Mass + 1/b.Mass

	a.Velocity = a.Velocity.Add(normal.Scale(impulse / a.Mass))
	b.Velocity = b.Velocity.Sub(normal.Scale(impulse / b.Mass))
}

// Separate pushes overlapping bodies apart along the contact normal until they
// touch, splitting the correction by inverse mass. Bodies without mass do not
// move. Neither body is left below the ground plane.
func (s *System) Separate(a, b *Body) {
	delta := a.Position.Sub(b.Position)
	dist := delta.Length()
	overlap := a.Radius + b.Radius - dist
	if overlap <= 0 {
		return
	}

	ia, ib := inverseMass(a), inverseMass(b)
	total := ia + ib
	if total == 0 {
		return
	}

	// Coincident centers: pick X.
	normal := V3(1, 0, 0)
	if dist > 0 {
		normal = delta.Scale(1 / dist)
	}

	a.Position = a.Position.Add(normal.Scale(overlap * ia / total))
	b.Position = b.Position.Sub(normal.Scale(overlap * ib / total))
	a.Position.Y = max(a.Position.Y, s.Ground)
	b.Position.Y = max(b.Position.Y, s.Ground)
}

func inverseMass(b *Body) float64 {
	if b.Mass <= 0 {
		return 0
	}
	return 1 / b.Mass
}
