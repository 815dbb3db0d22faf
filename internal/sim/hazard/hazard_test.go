package hazard

import (
	"testing"

	"wolfpit/internal/sim/fixedpoint"
	"wolfpit/internal/sim/rng"
)

type streamAdapter struct{ s *rng.Stream }

func (a streamAdapter) NextFloat() float64 { return a.s.NextFloat() }

func TestGenerateAlwaysReachable(t *testing.T) {
	spawn := fixedpoint.Vec2{X: fixedpoint.FromFloat(0.1), Y: fixedpoint.FromFloat(0.1)}
	stream := streamAdapter{rng.NewStream(1, 0, rng.ScopeHazard)}
	layout := Generate(stream, MaxObstacles, spawn, fixedpoint.FromFloat(0.1), fixedpoint.FromFloat(0.03), fixedpoint.FromFloat(0.08))

	center := fixedpoint.Vec2{X: fixedpoint.Half, Y: fixedpoint.Half}
	if !layout.isReachable(spawn, center) {
		t.Fatal("generated layout must keep spawn->center reachable")
	}
}

func TestGenerateRespectsMaxObstacles(t *testing.T) {
	spawn := fixedpoint.Vec2{X: fixedpoint.FromFloat(0.1), Y: fixedpoint.FromFloat(0.1)}
	stream := streamAdapter{rng.NewStream(2, 0, rng.ScopeHazard)}
	layout := Generate(stream, 1000, spawn, fixedpoint.FromFloat(0.05), fixedpoint.FromFloat(0.02), fixedpoint.FromFloat(0.05))

	if len(layout.Obstacles()) > MaxObstacles {
		t.Fatalf("got %d obstacles, want <= %d", len(layout.Obstacles()), MaxObstacles)
	}
}

func TestHazardCooldownGatesPeriodicType(t *testing.T) {
	table := NewTable()
	h, ok := table.Add(FireTrap, fixedpoint.Vec2{X: fixedpoint.Half, Y: fixedpoint.Half}, fixedpoint.FromFloat(0.05), fixedpoint.FromInt(10), fixedpoint.FromInt(2), 0)
	if !ok {
		t.Fatal("Add should succeed under capacity")
	}

	pos := fixedpoint.Vec2{X: fixedpoint.Half, Y: fixedpoint.Half}
	r1 := table.Evaluate(&h, pos, fixedpoint.FromInt(0), false)
	if !r1.Triggered || r1.Damage != fixedpoint.FromInt(10) {
		t.Fatalf("first evaluate should trigger with full damage, got %+v", r1)
	}

	r2 := table.Evaluate(&h, pos, fixedpoint.FromFloat(0.5), false)
	if r2.Triggered {
		t.Fatal("second evaluate inside cooldown window should not trigger")
	}

	r3 := table.Evaluate(&h, pos, fixedpoint.FromInt(3), false)
	if !r3.Triggered {
		t.Fatal("evaluate after cooldown elapses should trigger again")
	}
}

func TestHazardOneShotNeverRetriggers(t *testing.T) {
	table := NewTable()
	h, _ := table.Add(SpikeTrap, fixedpoint.Vec2{X: fixedpoint.Half, Y: fixedpoint.Half}, fixedpoint.FromFloat(0.05), fixedpoint.FromInt(20), 0, 0)
	pos := fixedpoint.Vec2{X: fixedpoint.Half, Y: fixedpoint.Half}

	table.Evaluate(&h, pos, fixedpoint.FromInt(0), false)
	r2 := table.Evaluate(&h, pos, fixedpoint.FromInt(100), false)
	if r2.Triggered {
		t.Fatal("one-shot hazard must never trigger a second time")
	}
}

func TestRollSuppressesDamageNotTrigger(t *testing.T) {
	table := NewTable()
	h, _ := table.Add(PoisonGas, fixedpoint.Vec2{X: fixedpoint.Half, Y: fixedpoint.Half}, fixedpoint.FromFloat(0.05), fixedpoint.FromInt(5), 0, 0)
	pos := fixedpoint.Vec2{X: fixedpoint.Half, Y: fixedpoint.Half}

	r := table.Evaluate(&h, pos, fixedpoint.FromInt(0), true)
	if !r.Triggered {
		t.Fatal("hazard should still register as triggered while rolling")
	}
	if r.Damage != 0 {
		t.Fatalf("rolling should suppress damage, got %v", r.Damage.ToFloat())
	}
}

func TestEnemyAvoidsTableIcePatchException(t *testing.T) {
	if EnemyAvoids(IcePatch) {
		t.Fatal("ice-patch should be the configurable non-avoided hazard")
	}
	if !EnemyAvoids(SpikeTrap) {
		t.Fatal("spike-trap should be avoided by default")
	}
}
