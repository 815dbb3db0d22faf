package combat

import (
	"testing"

	"wolfpit/internal/sim/fixedpoint"
)

func TestStartLightAttackTransitionsToWindup(t *testing.T) {
	s := New()
	if !s.TryStartAttack(Light, fixedpoint.One, 0) {
		t.Fatal("TryStartAttack should succeed from Idle with sufficient stamina")
	}
	if s.AttackState != Windup || s.AttackType != Light {
		t.Fatalf("state = %v/%v, want Windup/Light", s.AttackState, s.AttackType)
	}
}

func TestInsufficientStaminaRejectsAttack(t *testing.T) {
	s := New()
	if s.TryStartAttack(Heavy, fixedpoint.FromFloat(0.01), 0) {
		t.Fatal("TryStartAttack should fail with insufficient stamina")
	}
	if s.AttackState != Idle {
		t.Fatal("rejected attack must leave state at Idle")
	}
}

func TestAttackMidStunIsSilentlyRejected(t *testing.T) {
	s := New()
	s.ApplyStun(fixedpoint.FromInt(1))
	if s.TryStartAttack(Light, fixedpoint.One, 0) {
		t.Fatal("attack attempt while stunned must be rejected")
	}
}

func TestFullAttackLifecycle(t *testing.T) {
	s := New()
	s.TryStartAttack(Light, fixedpoint.One, 0)

	dt := fixedpoint.FromFloat(0.01)
	now := fixedpoint.Zero
	seenActive, seenRecovery, seenIdle := false, false, false
	for i := 0; i < 100; i++ {
		now = now.Add(dt)
		s.Update(dt, now)
		switch s.AttackState {
		case Active:
			seenActive = true
		case Recovery:
			seenRecovery = true
		case Idle:
			if seenActive {
				seenIdle = true
			}
		}
		if seenIdle {
			break
		}
	}
	if !seenActive || !seenRecovery || !seenIdle {
		t.Fatalf("attack should progress Windup->Active->Recovery->Idle, got active=%v recovery=%v idle=%v", seenActive, seenRecovery, seenIdle)
	}
}

func TestRollGrantsInvulnerabilityDuringActivePhase(t *testing.T) {
	s := New()
	if !s.TryStartRoll(fixedpoint.Vec2{X: fixedpoint.One}, fixedpoint.One, 0) {
		t.Fatal("TryStartRoll should succeed from Idle")
	}
	if !s.IsInvulnerable() {
		t.Fatal("Roll.Active should grant invulnerability")
	}

	dt := fixedpoint.FromFloat(0.01)
	now := fixedpoint.Zero
	for i := 0; i < 35; i++ {
		now = now.Add(dt)
		s.Update(dt, now)
	}
	if s.IsInvulnerable() {
		t.Fatal("invulnerability should end once Roll.Active transitions to Roll.Sliding")
	}
}

func TestBlockThenParryWithinWindow(t *testing.T) {
	s := New()
	s.SetBlocking(true, fixedpoint.One, 0, fixedpoint.Vec2{X: fixedpoint.One})

	attack := IncomingAttack{
		Dir:       fixedpoint.Vec2{X: fixedpoint.FromInt(-1)},
		Damage:    fixedpoint.FromInt(10),
		InRange:   true,
		FacingDot: fixedpoint.One,
		WeaponMult: fixedpoint.One,
		AttackerMod: fixedpoint.One,
		DefenderMod: fixedpoint.One,
	}
	out := s.HandleIncomingAttack(attack, fixedpoint.FromFloat(0.05), 0, false)
	if out.Resolution != ResParry {
		t.Fatalf("attack within parry window should resolve Parry, got %v", out.Resolution)
	}
	if out.Damage != 0 {
		t.Fatalf("parried attack should deal zero damage, got %v", out.Damage.ToFloat())
	}
}

func TestBlockOutsideParryWindowMitigates(t *testing.T) {
	s := New()
	s.SetBlocking(true, fixedpoint.One, 0, fixedpoint.Vec2{X: fixedpoint.One})

	attack := IncomingAttack{
		Damage:      fixedpoint.FromInt(10),
		InRange:     true,
		FacingDot:   fixedpoint.One,
		WeaponMult:  fixedpoint.One,
		AttackerMod: fixedpoint.One,
		DefenderMod: fixedpoint.One,
	}
	out := s.HandleIncomingAttack(attack, fixedpoint.FromFloat(0.5), 0, false)
	if out.Resolution != ResBlock {
		t.Fatalf("attack outside parry window should resolve Block, got %v", out.Resolution)
	}
	if out.Damage >= attack.Damage {
		t.Fatalf("blocked damage %v should be mitigated below raw damage %v", out.Damage.ToFloat(), attack.Damage.ToFloat())
	}
}

func TestHitOutOfRangeIsIgnored(t *testing.T) {
	s := New()
	attack := IncomingAttack{Damage: fixedpoint.FromInt(10), InRange: false}
	out := s.HandleIncomingAttack(attack, 0, 0, false)
	if out.Resolution != ResIgnore {
		t.Fatalf("out-of-range attack should be Ignore, got %v", out.Resolution)
	}
}

func TestHyperarmorIgnoresInterruptionBelowThreshold(t *testing.T) {
	s := New()
	s.TryStartAttack(Heavy, fixedpoint.One, 0)
	// Advance into Heavy's Active phase.
	dt := fixedpoint.FromFloat(0.01)
	now := fixedpoint.Zero
	for s.AttackState != Active {
		now = now.Add(dt)
		s.Update(dt, now)
	}

	attack := IncomingAttack{
		Damage:        fixedpoint.FromInt(5),
		InRange:       true,
		WeaponMult:    fixedpoint.One,
		AttackerMod:   fixedpoint.One,
		DefenderMod:   fixedpoint.One,
		PoiseDamage:   fixedpoint.FromFloat(0.1),
		HasHyperarmor: true,
	}
	out := s.HandleIncomingAttack(attack, now, 0, false)
	if out.Interrupted {
		t.Fatal("low poise-damage hit during hyperarmor should not interrupt")
	}
	if s.AttackState != Active {
		t.Fatal("hyperarmored defender should remain in its current attack state")
	}
}

func TestComboCountSaturates(t *testing.T) {
	s := New()
	for i := 0; i < MaxComboCount+5; i++ {
		s.RegisterComboHit(fixedpoint.FromInt(int(i)))
	}
	if s.ComboCount != MaxComboCount {
		t.Fatalf("ComboCount = %d, want saturated at %d", s.ComboCount, MaxComboCount)
	}
}
