// Package physics implements the fixed-timestep rigid body world (component
// C3) and its force propagation extensions (component C4): explosions,
// scripted force-node impulse chains, and rolling dynamics. Integration is
// semi-implicit Euler, broad-phase collision uses a uniform spatial grid
// adapted from the teacher engine's internal/game/spatial package, and all
// arithmetic runs through internal/sim/fixedpoint so a resimulated frame is
// bit-identical to the original.
package physics

import "wolfpit/internal/sim/fixedpoint"

// Kind determines how a body participates in integration and collision.
type Kind uint8

const (
	// Dynamic bodies integrate forces and move freely.
	Dynamic Kind = iota
	// Kinematic bodies move (position may be driven externally) but do not
	// respond to forces or impulses from collisions.
	Kinematic
	// Static bodies never move; inverse_mass is always zero.
	Static
)

// EventKind classifies an entry in the physics world's event queue.
type EventKind uint8

const (
	Contact EventKind = iota
	Trigger
	Overlap
)

// Event is a single collision notification, emitted into a bounded queue
// each step for consumption by gameplay systems (combat, hazards).
type Event struct {
	Kind   EventKind
	BodyA  uint32
	BodyB  uint32
	Point  fixedpoint.Vec2
	Normal fixedpoint.Vec2
	// Impulse is the signed magnitude of the normal impulse applied to
	// resolve this contact; zero for Trigger/Overlap events.
	Impulse fixedpoint.Fixed
}

// Body is a single rigid body in the world. Position and velocity are in
// physics space; the player manager maps to/from normalized [0,1] gameplay
// space via Config's linear mapping (spec §4.4's coordinate reconciliation).
type Body struct {
	ID     uint32
	Kind   Kind
	Pos    fixedpoint.Vec2
	Vel    fixedpoint.Vec2
	Radius fixedpoint.Fixed

	InvMass     fixedpoint.Fixed
	Restitution fixedpoint.Fixed
	Friction    fixedpoint.Fixed
	Drag        fixedpoint.Fixed

	// Layer/Mask implement the collision filtering rule from spec §4.4.4:
	// a pair participates only if (A.layer & B.mask) != 0 AND (B.layer &
	// A.mask) != 0.
	Layer uint32
	Mask  uint32

	// AABB half-extents; zero means this body is a pure circle for narrow
	// phase purposes (circle-circle). A non-zero HalfExtent enables the
	// circle-AABB test against this body.
	HalfExtent fixedpoint.Vec2
	IsAABB     bool

	accumForce   fixedpoint.Vec2
	sleeping     bool
	sleepTimer   int32
	onIncline    bool
	inclineSlope fixedpoint.Fixed // tangent of slope angle, signed by downhill X direction
}

// NewDynamicBody constructs a Dynamic body with the given mass (inverse
// mass is derived; mass<=0 is treated as immovable, matching the teacher's
// defensive-clamp style rather than panicking on bad input).
func NewDynamicBody(id uint32, pos fixedpoint.Vec2, radius fixedpoint.Fixed, mass fixedpoint.Fixed) *Body {
	inv := fixedpoint.Zero
	if mass > 0 {
		inv = fixedpoint.One.Div(mass)
	}
	return &Body{
		ID:          id,
		Kind:        Dynamic,
		Pos:         pos,
		Radius:      radius,
		InvMass:     inv,
		Restitution: fixedpoint.FromFloat(0.3),
		Friction:    fixedpoint.FromFloat(0.1),
		Drag:        fixedpoint.FromFloat(0.98),
		Layer:       1,
		Mask:        0xFFFFFFFF,
	}
}

// NewStaticBody constructs an immovable body (obstacles, walls).
func NewStaticBody(id uint32, pos fixedpoint.Vec2, radius fixedpoint.Fixed) *Body {
	return &Body{
		ID:     id,
		Kind:   Static,
		Pos:    pos,
		Radius: radius,
		Layer:  1,
		Mask:   0xFFFFFFFF,
	}
}

// ApplyForce accumulates a force to be integrated on the next Step call.
// Static and Kinematic bodies silently ignore forces.
func (b *Body) ApplyForce(f fixedpoint.Vec2) {
	if b.Kind != Dynamic {
		return
	}
	b.accumForce = b.accumForce.Add(f)
	b.Wake()
}

// ApplyImpulse directly changes velocity by impulse*invMass, used by
// collision resolution and force propagation.
func (b *Body) ApplyImpulse(impulse fixedpoint.Vec2) {
	if b.Kind != Dynamic || b.InvMass == 0 {
		return
	}
	b.Vel = b.Vel.Add(impulse.Scale(b.InvMass))
	b.Wake()
}

// Wake clears sleep state; called on any force, impulse, or contact with a
// waking body per spec §4.4 rule 6.
func (b *Body) Wake() {
	b.sleeping = false
	b.sleepTimer = 0
}

// Sleeping reports whether the body is currently excluded from
// integration.
func (b *Body) Sleeping() bool { return b.sleeping }

// KineticEnergy returns 0.5*m*v^2 in fixed-point, used by the sleep
// threshold check and by tests asserting the energy-sanity invariant.
func (b *Body) KineticEnergy() fixedpoint.Fixed {
	if b.InvMass == 0 {
		return 0
	}
	mass := fixedpoint.One.Div(b.InvMass)
	return fixedpoint.Half.Mul(mass).Mul(b.Vel.LengthSq())
}

// SetIncline marks this body as resting on a sloped surface for rolling
// dynamics (spec §4.4's "rolling dynamics on inclined ground").
func (b *Body) SetIncline(onIncline bool, slope fixedpoint.Fixed) {
	b.onIncline = onIncline
	b.inclineSlope = slope
}

// Incline reports the rolling-dynamics state set by SetIncline, used by the
// snapshot encoder.
func (b *Body) Incline() (bool, fixedpoint.Fixed) { return b.onIncline, b.inclineSlope }

// SleepTimer returns the consecutive low-energy frame count, used by the
// snapshot encoder to restore a body to the exact point in its sleep
// countdown.
func (b *Body) SleepTimer() int32 { return b.sleepTimer }

// RestoreSleepState sets the sleeping flag and sleep timer directly, used
// when reconstructing a body from a snapshot rather than deriving them from
// fresh simulation.
func (b *Body) RestoreSleepState(sleeping bool, timer int32) {
	b.sleeping = sleeping
	b.sleepTimer = timer
}
