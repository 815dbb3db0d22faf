package physics

import (
	"testing"

	"wolfpit/internal/sim/fixedpoint"
)

func dt() fixedpoint.Fixed {
	return fixedpoint.FromFloat(1.0 / 60.0)
}

func TestIntegrationMovesDynamicBody(t *testing.T) {
	w := NewWorld(DefaultConfig())
	b := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(10), Y: fixedpoint.FromInt(10)}, fixedpoint.FromInt(1), fixedpoint.One)
	b.Vel = fixedpoint.Vec2{X: fixedpoint.FromInt(1)}
	w.AddBody(b)

	before := b.Pos.X
	w.Step(dt())
	if b.Pos.X <= before {
		t.Fatalf("expected body to move in +X, before=%v after=%v", before.ToFloat(), b.Pos.X.ToFloat())
	}
}

func TestStaticBodyNeverMoves(t *testing.T) {
	w := NewWorld(DefaultConfig())
	s := NewStaticBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(20), Y: fixedpoint.FromInt(20)}, fixedpoint.FromInt(2))
	w.AddBody(s)

	pos := s.Pos
	for i := 0; i < 10; i++ {
		w.Step(dt())
	}
	if s.Pos != pos {
		t.Fatalf("static body moved: %v -> %v", pos, s.Pos)
	}
}

func TestCollisionSeparatesOverlappingBodies(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(10), Y: fixedpoint.FromInt(10)}, fixedpoint.FromInt(2), fixedpoint.One)
	b := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(11), Y: fixedpoint.FromInt(10)}, fixedpoint.FromInt(2), fixedpoint.One)
	a.Vel = fixedpoint.Vec2{X: fixedpoint.FromInt(1)}
	b.Vel = fixedpoint.Vec2{X: fixedpoint.FromInt(-1)}
	w.AddBody(a)
	w.AddBody(b)

	for i := 0; i < 5; i++ {
		w.Step(dt())
	}

	dist := a.Pos.Sub(b.Pos).Length()
	minDist := a.Radius.Add(b.Radius)
	if dist < minDist.Sub(fixedpoint.FromFloat(0.05)) {
		t.Fatalf("bodies still overlapping: dist=%v minDist=%v", dist.ToFloat(), minDist.ToFloat())
	}
}

func TestEnergySanityOnCollision(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(10), Y: fixedpoint.FromInt(10)}, fixedpoint.FromInt(1), fixedpoint.One)
	b := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(12), Y: fixedpoint.FromInt(10)}, fixedpoint.FromInt(1), fixedpoint.One)
	a.Restitution, b.Restitution = fixedpoint.FromFloat(0.5), fixedpoint.FromFloat(0.5)
	a.Vel = fixedpoint.Vec2{X: fixedpoint.FromInt(5)}
	w.AddBody(a)
	w.AddBody(b)

	preEnergy := a.KineticEnergy() + b.KineticEnergy()
	for i := 0; i < 30; i++ {
		w.Step(dt())
	}
	postEnergy := a.KineticEnergy() + b.KineticEnergy()

	epsilon := fixedpoint.FromFloat(0.5)
	if postEnergy > preEnergy.Add(epsilon) {
		t.Fatalf("post-collision energy %v exceeds pre-collision energy %v beyond tolerance", postEnergy.ToFloat(), preEnergy.ToFloat())
	}
}

func TestCollisionFilteringRespectsLayerMask(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(10), Y: fixedpoint.FromInt(10)}, fixedpoint.FromInt(2), fixedpoint.One)
	b := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(11), Y: fixedpoint.FromInt(10)}, fixedpoint.FromInt(2), fixedpoint.One)
	a.Layer, a.Mask = 1, 2
	b.Layer, b.Mask = 1, 2 // b.layer(1) & a.mask(2) == 0, so they must not collide
	w.AddBody(a)
	w.AddBody(b)

	beforeA, beforeB := a.Pos, b.Pos
	w.Step(dt())
	if a.Pos != beforeA || b.Pos != beforeB {
		t.Fatal("bodies with non-matching layer/mask should not resolve a collision")
	}
}

func TestSleepAfterSustainedLowEnergy(t *testing.T) {
	w := NewWorld(DefaultConfig())
	b := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(50), Y: fixedpoint.FromInt(50)}, fixedpoint.FromInt(1), fixedpoint.One)
	w.AddBody(b)

	for i := 0; i < SleepFrames+1; i++ {
		w.Step(dt())
	}
	if !b.Sleeping() {
		t.Fatal("body at rest should sleep after SleepFrames consecutive low-energy frames")
	}
}

func TestWakeOnImpulse(t *testing.T) {
	w := NewWorld(DefaultConfig())
	b := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(50), Y: fixedpoint.FromInt(50)}, fixedpoint.FromInt(1), fixedpoint.One)
	w.AddBody(b)
	for i := 0; i < SleepFrames+1; i++ {
		w.Step(dt())
	}
	if !b.Sleeping() {
		t.Fatal("precondition: body should be asleep")
	}
	b.ApplyImpulse(fixedpoint.Vec2{X: fixedpoint.FromInt(10)})
	if b.Sleeping() {
		t.Fatal("ApplyImpulse must wake a sleeping body")
	}
}

func TestExplosionDeactivatesAtMaxRadius(t *testing.T) {
	e := NewExplosion(fixedpoint.Vec2{}, fixedpoint.FromInt(10), fixedpoint.FromInt(100), fixedpoint.FromInt(50))
	for i := 0; i < 10; i++ {
		e.Step(dt())
	}
	if e.Active {
		t.Fatal("explosion should have deactivated once CurrentRadius reached MaxRadius")
	}
	if e.CurrentRadius != e.MaxRadius {
		t.Fatalf("CurrentRadius = %v, want clamped to MaxRadius %v", e.CurrentRadius.ToFloat(), e.MaxRadius.ToFloat())
	}
}

func TestExplosionAppliesFalloffImpulse(t *testing.T) {
	w := NewWorld(DefaultConfig())
	near := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(1)}, fixedpoint.FromInt(1), fixedpoint.One)
	far := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(9)}, fixedpoint.FromInt(1), fixedpoint.One)
	w.AddBody(near)
	w.AddBody(far)

	e := NewExplosion(fixedpoint.Vec2{}, fixedpoint.FromInt(10), fixedpoint.FromInt(1000), fixedpoint.FromInt(100))
	e.Step(dt())
	e.CurrentRadius = fixedpoint.FromInt(10)

	nearMag := e.ApplyToBody(near, fixedpoint.One, false)
	farMag := e.ApplyToBody(far, fixedpoint.One, false)

	if nearMag <= farMag {
		t.Fatalf("near-body impulse %v should exceed far-body impulse %v (falloff)", nearMag.ToFloat(), farMag.ToFloat())
	}
}

func TestForceNodePropagatesScaledImpulse(t *testing.T) {
	w := NewWorld(DefaultConfig())
	target := NewDynamicBody(w.AllocateID(), fixedpoint.Vec2{X: fixedpoint.FromInt(5)}, fixedpoint.FromInt(1), fixedpoint.One)
	w.AddBody(target)

	node := &ForceNode{}
	node.AddConnection(target.ID, fixedpoint.FromFloat(0.5))

	node.Propagate(w, fixedpoint.Vec2{X: fixedpoint.FromInt(10)})

	if target.Vel.X != fixedpoint.FromInt(5) {
		t.Fatalf("expected 50%% efficiency to halve the 10-unit impulse into 5 velocity, got %v", target.Vel.X.ToFloat())
	}
}

func TestDeterministicOrderingAcrossRuns(t *testing.T) {
	build := func() *World {
		w := NewWorld(DefaultConfig())
		for i := 0; i < 5; i++ {
			id := w.AllocateID()
			b := NewDynamicBody(id, fixedpoint.Vec2{X: fixedpoint.FromInt(10 + i), Y: fixedpoint.FromInt(10)}, fixedpoint.FromInt(1), fixedpoint.One)
			b.Vel = fixedpoint.Vec2{X: fixedpoint.FromInt(1 - i%2*2)}
			w.AddBody(b)
		}
		return w
	}

	w1 := build()
	w2 := build()

	for i := 0; i < 20; i++ {
		w1.Step(dt())
		w2.Step(dt())
	}

	for id := range w1.bodies {
		b1, b2 := w1.Body(id), w2.Body(id)
		if b1.Pos != b2.Pos || b1.Vel != b2.Vel {
			t.Fatalf("body %d diverged between identical runs: %+v vs %+v", id, b1, b2)
		}
	}
}
