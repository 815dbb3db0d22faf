package physics

import (
	"sort"

	"wolfpit/internal/sim/fixedpoint"
	"wolfpit/internal/sim/ring"
)

const (
	// MaxEvents bounds the per-step collision event queue; exceeding it
	// drops the oldest event rather than growing unbounded, consistent with
	// the DoS-resistant capped-collection posture carried through this
	// entire kernel.
	MaxEvents = 256

	// SleepFrames is how many consecutive frames a body's kinetic energy
	// must stay under Config.SleepLinearEpsilon before it sleeps.
	SleepFrames = 30

	fallbackNormalX = fixedpoint.One

	// MaxExplosions bounds the live explosion registry; past this, new
	// explosions are dropped rather than admitted, matching this kernel's
	// bounded-collection posture.
	MaxExplosions = 32
)

// Config describes world-wide tunables: bounds, the normalized<->physics
// linear coordinate mapping (spec §4.4 "coordinate reconciliation"), and
// gravity.
type Config struct {
	MinX, MinY, MaxX, MaxY fixedpoint.Fixed
	GravityEnabled         bool
	Gravity                fixedpoint.Vec2
	CellSize               fixedpoint.Fixed
	// SleepLinearEpsilon bounds the kinetic energy a body must remain under
	// for SleepFrames consecutive frames to sleep. This kernel does not
	// model angular velocity (2D point-mass bodies), so there is no angular
	// sleep threshold.
	SleepLinearEpsilon fixedpoint.Fixed
}

// DefaultConfig returns tunables matching the scale of a single combat
// arena (normalized [0,1] gameplay space maps linearly onto a 100x100
// physics space).
func DefaultConfig() Config {
	return Config{
		MinX: 0, MinY: 0,
		MaxX: fixedpoint.FromInt(100), MaxY: fixedpoint.FromInt(100),
		GravityEnabled:     false,
		CellSize:           fixedpoint.FromInt(8),
		SleepLinearEpsilon: fixedpoint.FromFloat(0.01),
	}
}

// World owns every rigid body and drives fixed-timestep integration,
// broad+narrow phase collision, and resolution (spec §4.4, component C3).
type World struct {
	cfg    Config
	bodies map[uint32]*Body
	order  []uint32 // ascending-id iteration order, rebuilt on add/remove
	grid   *Grid
	events *ring.Buffer[Event]
	nextID uint32

	explosions      map[uint32]*Explosion
	explosionOrder  []uint32
	nextExplosionID uint32
}

// NewWorld constructs an empty world.
func NewWorld(cfg Config) *World {
	width := cfg.MaxX.Sub(cfg.MinX)
	height := cfg.MaxY.Sub(cfg.MinY)
	return &World{
		cfg:        cfg,
		bodies:     make(map[uint32]*Body),
		grid:       NewGrid(cfg.MinX, cfg.MinY, width, height, cfg.CellSize),
		events:     ring.New[Event](MaxEvents),
		explosions: make(map[uint32]*Explosion),
	}
}

// AddExplosion registers an active explosion to be stepped automatically
// inside Step until it reaches MaxRadius (component C4's force
// propagation). Returns the explosion's id and whether the bounded
// registry had room.
func (w *World) AddExplosion(e *Explosion) (uint32, bool) {
	if len(w.explosions) >= MaxExplosions {
		return 0, false
	}
	id := w.nextExplosionID
	w.nextExplosionID++
	w.explosions[id] = e
	w.explosionOrder = append(w.explosionOrder, id)
	return id, true
}

// AddBody inserts a body and keeps the ascending-id order invariant that
// determinism relies on for ordering & tie-breaks.
func (w *World) AddBody(b *Body) {
	w.bodies[b.ID] = b
	w.rebuildOrder()
	if b.ID >= w.nextID {
		w.nextID = b.ID + 1
	}
}

// RemoveBody deletes a body from the world.
func (w *World) RemoveBody(id uint32) {
	delete(w.bodies, id)
	w.rebuildOrder()
}

// AllocateID returns a fresh monotonically increasing body id.
func (w *World) AllocateID() uint32 {
	id := w.nextID
	w.nextID++
	return id
}

func (w *World) rebuildOrder() {
	w.order = w.order[:0]
	for id := range w.bodies {
		w.order = append(w.order, id)
	}
	sort.Slice(w.order, func(i, j int) bool { return w.order[i] < w.order[j] })
}

// Body returns the body with the given id, or nil.
func (w *World) Body(id uint32) *Body { return w.bodies[id] }

// Order returns the ascending-id iteration order, used by the snapshot
// encoder to walk every body deterministically.
func (w *World) Order() []uint32 { return w.order }

// NextID reports the id AllocateID will hand out next, used by the
// snapshot encoder/decoder to preserve id allocation across a save/restore
// round trip.
func (w *World) NextID() uint32 { return w.nextID }

// SetNextID restores the id allocation counter from a snapshot.
func (w *World) SetNextID(id uint32) { w.nextID = id }

// Events returns the bounded collision event queue populated by the most
// recent Step call.
func (w *World) Events() *ring.Buffer[Event] { return w.events }

// Step advances the world by dt using semi-implicit Euler integration
// followed by broad+narrow phase collision detection and resolution, per
// the six-step control flow in spec §4.4.
func (w *World) Step(dt fixedpoint.Fixed) {
	w.events.Clear()
	w.integrate(dt)
	w.applyRollingDynamics(dt)
	w.stepExplosions(dt)
	pairs := w.broadPhase()
	w.resolvePairs(pairs, dt)
	w.clampToBounds()
	w.updateSleep()
}

func (w *World) integrate(dt fixedpoint.Fixed) {
	for _, id := range w.order {
		b := w.bodies[id]
		if b.Kind != Dynamic || b.sleeping {
			b.accumForce = fixedpoint.Vec2{}
			continue
		}
		accel := b.accumForce.Scale(b.InvMass)
		if w.cfg.GravityEnabled {
			// Gravity is an acceleration, applied directly regardless of mass.
			accel = accel.Add(w.cfg.Gravity)
		}
		b.Vel = b.Vel.Add(accel.Scale(dt))
		b.Vel = b.Vel.Scale(dragFactor(b.Drag, dt))
		b.Pos = b.Pos.Add(b.Vel.Scale(dt))
		b.accumForce = fixedpoint.Vec2{}
	}
}

// dragFactor approximates drag^dt: for the small, fixed dt values this
// kernel runs at, a single linear step (1 - (1-drag)*dt-scaled) is close
// enough and keeps the hot path free of iterative exponentiation.
func dragFactor(drag, dt fixedpoint.Fixed) fixedpoint.Fixed {
	one := fixedpoint.One
	loss := one.Sub(drag)
	return one.Sub(loss.Mul(dt).Mul(fixedpoint.FromInt(60)))
}

// stepExplosions grows every live explosion's radius and applies its
// impulse to every dynamic body currently inside it, in ascending
// explosion-id order for determinism, then drops explosions that have
// finished expanding.
func (w *World) stepExplosions(dt fixedpoint.Fixed) {
	if len(w.explosions) == 0 {
		return
	}
	live := w.explosionOrder[:0]
	for _, id := range w.explosionOrder {
		e, ok := w.explosions[id]
		if !ok {
			continue
		}
		e.Step(dt)
		for _, bodyID := range w.order {
			b := w.bodies[bodyID]
			if b.Kind != Dynamic {
				continue
			}
			e.ApplyToBody(b, fixedpoint.One, false)
		}
		if e.Active {
			live = append(live, id)
		} else {
			delete(w.explosions, id)
		}
	}
	w.explosionOrder = live
}

func (w *World) applyRollingDynamics(dt fixedpoint.Fixed) {
	for _, id := range w.order {
		b := w.bodies[id]
		if b.Kind != Dynamic || !b.onIncline || b.sleeping {
			continue
		}
		// gravity-along-slope minus kinetic friction, per spec §4.4.
		gravityAlong := fixedpoint.FromFloat(9.8).Mul(b.inclineSlope)
		frictionOpposing := b.Friction.Mul(fixedpoint.FromFloat(9.8))
		net := gravityAlong
		if net > 0 {
			net = net.Sub(frictionOpposing).Clamp(0, fixedpoint.FromInt(1000))
		} else {
			net = net.Add(frictionOpposing).Clamp(fixedpoint.FromInt(-1000), 0)
		}
		b.Vel.X = b.Vel.X.Add(net.Mul(dt))
	}
}

type pair struct {
	a, b uint32
}

// broadPhase rebuilds the spatial grid and collects candidate pairs,
// iterating bodies and per-cell candidates in ascending id order per the
// determinism rule in spec §4.4.
func (w *World) broadPhase() []pair {
	w.grid.Clear()
	for _, id := range w.order {
		b := w.bodies[id]
		w.grid.Insert(id, b.Pos)
	}

	seen := make(map[pair]bool)
	var pairs []pair
	for _, id := range w.order {
		a := w.bodies[id]
		candidates := w.grid.QueryRadius(a.Pos)
		sorted := append([]uint32(nil), candidates...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for _, otherID := range sorted {
			if otherID == id {
				continue
			}
			p := pair{a: id, b: otherID}
			if p.a > p.b {
				p.a, p.b = p.b, p.a
			}
			if seen[p] {
				continue
			}
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	return pairs
}

func (w *World) resolvePairs(pairs []pair, dt fixedpoint.Fixed) {
	for _, p := range pairs {
		a := w.bodies[p.a]
		b := w.bodies[p.b]
		if a == nil || b == nil {
			continue
		}
		if !filterPasses(a, b) {
			continue
		}
		if a.Kind != Dynamic && b.Kind != Dynamic {
			continue
		}
		w.resolvePair(a, b)
	}
}

func filterPasses(a, b *Body) bool {
	return (a.Layer&b.Mask) != 0 && (b.Layer&a.Mask) != 0
}

func (w *World) resolvePair(a, b *Body) {
	if a.IsAABB != b.IsAABB {
		// One circle, one AABB: resolve as circle-vs-AABB with the circle
		// body identified explicitly so the normal always points away from
		// the box.
		circle, box := a, b
		if !box.IsAABB {
			circle, box = b, a
		}
		w.resolveCircleAABB(circle, box)
		return
	}
	if a.IsAABB && b.IsAABB {
		// Two AABBs never appear in this simulation's body set (only
		// obstacles, which are circles, and the arena bounds, handled by
		// clampToBounds); nothing to resolve.
		return
	}

	delta := b.Pos.Sub(a.Pos)
	dist := delta.Length()
	minDist := a.Radius.Add(b.Radius)
	if dist >= minDist {
		return
	}

	var normal fixedpoint.Vec2
	if dist == 0 {
		// Degenerate overlap: fixed fallback direction per spec §4.4's
		// tie-break rule.
		normal = fixedpoint.Vec2{X: fallbackNormalX, Y: 0}
	} else {
		normal = delta.Scale(fixedpoint.One.Div(dist))
	}

	overlap := minDist.Sub(dist)

	invSum := a.InvMass.Add(b.InvMass)
	if invSum > 0 {
		correction := normal.Scale(overlap.Div(invSum))
		if a.Kind == Dynamic {
			a.Pos = a.Pos.Sub(correction.Scale(a.InvMass))
		}
		if b.Kind == Dynamic {
			b.Pos = b.Pos.Add(correction.Scale(b.InvMass))
		}
	}

	relVel := b.Vel.Sub(a.Vel)
	velAlongNormal := relVel.Dot(normal)
	if velAlongNormal > 0 {
		// Separating already; still emit the contact event, but no impulse.
		w.events.Push(Event{Kind: Contact, BodyA: a.ID, BodyB: b.ID, Point: a.Pos.Add(delta.Scale(fixedpoint.Half)), Normal: normal})
		return
	}

	restitution := a.Restitution
	if b.Restitution < restitution {
		restitution = b.Restitution
	}

	if invSum == 0 {
		return
	}
	j := fixedpoint.One.Add(restitution).Neg().Mul(velAlongNormal).Div(invSum)
	impulse := normal.Scale(j)

	a.ApplyImpulse(fixedpoint.Vec2{}.Sub(impulse))
	b.ApplyImpulse(impulse)

	w.events.Push(Event{
		Kind:    Contact,
		BodyA:   a.ID,
		BodyB:   b.ID,
		Point:   a.Pos.Add(delta.Scale(fixedpoint.Half)),
		Normal:  normal,
		Impulse: j,
	})
}

// resolveCircleAABB implements the circle-AABB narrow-phase test and
// resolution named in spec §4.4 rule 2: clamp the circle's center to the
// box's extent to find the closest point, then treat the vector from that
// point to the circle's center as the contact normal.
func (w *World) resolveCircleAABB(circle, box *Body) {
	closest := fixedpoint.Vec2{
		X: circle.Pos.X.Clamp(box.Pos.X.Sub(box.HalfExtent.X), box.Pos.X.Add(box.HalfExtent.X)),
		Y: circle.Pos.Y.Clamp(box.Pos.Y.Sub(box.HalfExtent.Y), box.Pos.Y.Add(box.HalfExtent.Y)),
	}
	delta := circle.Pos.Sub(closest)
	dist := delta.Length()
	if dist >= circle.Radius {
		return
	}

	var normal fixedpoint.Vec2
	if dist == 0 {
		normal = fixedpoint.Vec2{X: fallbackNormalX, Y: 0}
	} else {
		normal = delta.Scale(fixedpoint.One.Div(dist))
	}
	overlap := circle.Radius.Sub(dist)

	if circle.Kind == Dynamic {
		circle.Pos = circle.Pos.Add(normal.Scale(overlap))
	}

	velAlongNormal := circle.Vel.Dot(normal)
	if velAlongNormal < 0 {
		j := fixedpoint.One.Add(circle.Restitution).Neg().Mul(velAlongNormal)
		circle.ApplyImpulse(normal.Scale(j))
		w.events.Push(Event{Kind: Contact, BodyA: circle.ID, BodyB: box.ID, Point: closest, Normal: normal, Impulse: j})
		return
	}
	w.events.Push(Event{Kind: Contact, BodyA: circle.ID, BodyB: box.ID, Point: closest, Normal: normal})
}

func (w *World) clampToBounds() {
	for _, id := range w.order {
		b := w.bodies[id]
		if b.Kind != Dynamic {
			continue
		}
		minX := w.cfg.MinX.Add(b.Radius)
		maxX := w.cfg.MaxX.Sub(b.Radius)
		minY := w.cfg.MinY.Add(b.Radius)
		maxY := w.cfg.MaxY.Sub(b.Radius)
		if b.Pos.X < minX {
			b.Pos.X = minX
			b.Vel.X = b.Vel.X.Neg().Mul(b.Restitution)
		}
		if b.Pos.X > maxX {
			b.Pos.X = maxX
			b.Vel.X = b.Vel.X.Neg().Mul(b.Restitution)
		}
		if b.Pos.Y < minY {
			b.Pos.Y = minY
			b.Vel.Y = b.Vel.Y.Neg().Mul(b.Restitution)
		}
		if b.Pos.Y > maxY {
			b.Pos.Y = maxY
			b.Vel.Y = b.Vel.Y.Neg().Mul(b.Restitution)
		}
	}
}

func (w *World) updateSleep() {
	for _, id := range w.order {
		b := w.bodies[id]
		if b.Kind != Dynamic || b.sleeping {
			continue
		}
		if b.KineticEnergy() < w.cfg.SleepLinearEpsilon {
			b.sleepTimer++
			if b.sleepTimer >= SleepFrames {
				b.sleeping = true
				b.Vel = fixedpoint.Vec2{}
			}
		} else {
			b.sleepTimer = 0
		}
	}
}
