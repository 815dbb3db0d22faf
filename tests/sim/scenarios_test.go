package sim_test

import (
	"bytes"
	"testing"

	"wolfpit/internal/sim"
	"wolfpit/internal/sim/combat"
	"wolfpit/internal/sim/fixedpoint"
	"wolfpit/internal/sim/hazard"
	"wolfpit/internal/sim/player"
)

func newCore(seed uint64) *sim.Core {
	c := sim.NewCore()
	c.InitRun(seed, 0)
	return c
}

func center() fixedpoint.Vec2 {
	return fixedpoint.Vec2{X: fixedpoint.FromFloat(0.5), Y: fixedpoint.FromFloat(0.5)}
}

// TestDeterministicReplay checks the rollback correctness invariant: two
// cores seeded identically and fed the same input sequence reach a
// byte-identical checksum at every frame.
func TestDeterministicReplay(t *testing.T) {
	a := newCore(42)
	b := newCore(42)
	a.AddPlayer(2, player.Raider, center())
	b.AddPlayer(2, player.Raider, center())
	a.SpawnWolfPack(1, 3, fixedpoint.Vec2{X: fixedpoint.FromFloat(0.7), Y: fixedpoint.FromFloat(0.3)})
	b.SpawnWolfPack(1, 3, fixedpoint.Vec2{X: fixedpoint.FromFloat(0.7), Y: fixedpoint.FromFloat(0.3)})

	for frame := 0; frame < 120; frame++ {
		a.SetPlayerInput(1, 0.5, 0.1, false, false, false, frame%40 == 0, false, frame%10 == 0, false, false)
		b.SetPlayerInput(1, 0.5, 0.1, false, false, false, frame%40 == 0, false, frame%10 == 0, false, false)
		a.Update(sim.TickDt)
		b.Update(sim.TickDt)

		if a.Checksum() != b.Checksum() {
			t.Fatalf("checksum diverged at frame %d: %d != %d", frame, a.Checksum(), b.Checksum())
		}
	}
}

// TestSnapshotRoundTrip verifies save_state/load_state reproduces an
// identical checksum, and that the frame counter and player position
// survive the round trip.
func TestSnapshotRoundTrip(t *testing.T) {
	c := newCore(7)
	c.AddPlayer(2, player.Kensei, center())
	for i := 0; i < 30; i++ {
		c.SetPlayerInput(1, 0.2, 0.0, false, false, false, false, false, false, false, false)
		c.Update(sim.TickDt)
	}

	blob := c.SaveState()
	wantChecksum := c.Checksum()
	wantX := c.GetX(1)

	fresh := sim.NewCore()
	if err := fresh.LoadState(blob); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got := fresh.Checksum(); got != wantChecksum {
		t.Fatalf("checksum after load = %d, want %d", got, wantChecksum)
	}
	if got := fresh.GetX(1); got != wantX {
		t.Fatalf("GetX after load = %f, want %f", got, wantX)
	}
}

// TestSnapshotLoadRejectsGarbage verifies a corrupt/foreign blob fails the
// load without mutating the existing state (spec §7's "fatal to this load,
// prior state left untouched" contract).
func TestSnapshotLoadRejectsGarbage(t *testing.T) {
	c := newCore(1)
	before := c.SaveState()

	if err := c.LoadState([]byte{0xDE, 0xAD, 0xBE, 0xEF}); err == nil {
		t.Fatal("expected LoadState to reject a garbage blob")
	}

	after := c.SaveState()
	if !bytes.Equal(before, after) {
		t.Fatal("state mutated after a rejected LoadState")
	}
}

// TestParryStunsAttacker covers scenario A: a well-timed block inside the
// parry window returns ResParry and grants a counter window rather than
// taking damage.
func TestParryStunsAttacker(t *testing.T) {
	c := newCore(3)
	c.SetBlocking(1, true)

	outcome := c.HandleIncomingAttack(1, combat.IncomingAttack{
		Dir:         fixedpoint.Vec2{X: fixedpoint.One},
		Damage:      fixedpoint.FromFloat(20),
		PoiseDamage: fixedpoint.FromFloat(10),
		InRange:     true,
		FacingDot:   fixedpoint.One,
		WeaponMult:  fixedpoint.One,
		AttackerMod: fixedpoint.One,
	})

	if outcome.Resolution != combat.ResParry {
		t.Fatalf("resolution = %v, want ResParry", outcome.Resolution)
	}
	if outcome.AttackerStunUntil <= 0 {
		t.Fatal("expected a positive attacker stun duration on parry")
	}
}

// TestRollGrantsInvulnerability covers scenario B: a fresh roll ignores an
// otherwise-landing attack.
func TestRollGrantsInvulnerability(t *testing.T) {
	c := newCore(5)
	if !c.OnRollStart(1, 1, 0) {
		t.Fatal("expected OnRollStart to succeed from Idle")
	}

	outcome := c.HandleIncomingAttack(1, combat.IncomingAttack{
		Damage:      fixedpoint.FromFloat(50),
		PoiseDamage: fixedpoint.FromFloat(10),
		InRange:     true,
		WeaponMult:  fixedpoint.One,
		AttackerMod: fixedpoint.One,
	})
	if outcome.Resolution != combat.ResIgnore {
		t.Fatalf("resolution during roll i-frames = %v, want ResIgnore", outcome.Resolution)
	}
}

// TestOutOfRangeAttackIgnored covers the Non-goal-adjacent edge case that
// an out-of-range attack never lands regardless of defender state.
func TestOutOfRangeAttackIgnored(t *testing.T) {
	c := newCore(9)
	outcome := c.HandleIncomingAttack(1, combat.IncomingAttack{
		Damage:     fixedpoint.FromFloat(30),
		InRange:    false,
		WeaponMult: fixedpoint.One,
	})
	if outcome.Resolution != combat.ResIgnore {
		t.Fatalf("resolution = %v, want ResIgnore for out-of-range attack", outcome.Resolution)
	}
}

// TestFrameNumberMonotonic covers the §5 invariant that frame_number
// increments by exactly 1 per Update call, never more, never less.
func TestFrameNumberMonotonic(t *testing.T) {
	c := newCore(11)
	var last uint32
	for i := 0; i < 50; i++ {
		c.Update(sim.TickDt)
		got := c.FrameNumber()
		if got != last+1 {
			t.Fatalf("frame %d: FrameNumber = %d, want %d", i, got, last+1)
		}
		last = got
	}
}

// TestCapacityExceededSurfacesSentinel covers spec §7's capacity-exceeded
// contract: a hazard spawn past MaxHazards returns the (0, false) sentinel,
// and exceeding MaxWolves/pack size never panics and simply stops admitting
// new members.
func TestCapacityExceededSurfacesSentinel(t *testing.T) {
	c := newCore(13)
	if _, ok := c.SpawnHazard(hazard.SpikeTrap, center(), fixedpoint.FromFloat(0.05), fixedpoint.FromFloat(10), fixedpoint.FromFloat(1), fixedpoint.FromFloat(1)); !ok {
		t.Fatal("expected the first hazard spawn to succeed")
	}
	for i := 1; i < hazard.MaxHazards; i++ {
		c.SpawnHazard(hazard.SpikeTrap, center(), fixedpoint.FromFloat(0.05), fixedpoint.FromFloat(10), fixedpoint.FromFloat(1), fixedpoint.FromFloat(1))
	}
	if id, ok := c.SpawnHazard(hazard.SpikeTrap, center(), fixedpoint.FromFloat(0.05), fixedpoint.FromFloat(10), fixedpoint.FromFloat(1), fixedpoint.FromFloat(1)); ok || id != 0 {
		t.Fatalf("hazard spawn past MaxHazards = (%d, %v), want sentinel (0, false)", id, ok)
	}

	for i := 0; i < 5; i++ {
		c.SpawnWolfPack(uint32(i+1), 16, center())
	}
	// None of the above should panic; the bounded collections simply stop
	// admitting entries past MaxWolves, which the determinism test above
	// already exercises under normal load.
}
