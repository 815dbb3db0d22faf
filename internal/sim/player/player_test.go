package player

import (
	"testing"

	"wolfpit/internal/sim/fixedpoint"
)

func TestIntegrateMovesTowardInput(t *testing.T) {
	p := NewPlayer(1, Warden, fixedpoint.Vec2{X: fixedpoint.FromFloat(0.5), Y: fixedpoint.FromFloat(0.5)}, 0)
	dt := fixedpoint.FromFloat(1.0 / 60.0)
	dir := fixedpoint.Vec2{X: fixedpoint.One}

	for i := 0; i < 10; i++ {
		p.Integrate(dt, dir, DefaultModifiers())
	}
	if p.Position.X <= fixedpoint.FromFloat(0.5) {
		t.Fatalf("player should have moved in +X, got %v", p.Position.X.ToFloat())
	}
}

func TestSpeedModifiersCombineMultiplicatively(t *testing.T) {
	mods := SpeedModifiers{
		StatusSlowHaste: fixedpoint.FromFloat(0.5),
		WeaponSpeedMult: fixedpoint.FromFloat(2.0),
		HazardTerrain:   fixedpoint.One,
		AbilityDash:     fixedpoint.One,
	}
	if mods.Combined() != fixedpoint.One {
		t.Fatalf("0.5*2.0 = %v, want 1.0", mods.Combined().ToFloat())
	}
}

func TestWardenChargeReleaseRequiresMinCharge(t *testing.T) {
	p := NewPlayer(1, Warden, fixedpoint.Vec2{}, 0)
	if !p.WardenStartCharge() {
		t.Fatal("WardenStartCharge should succeed from idle")
	}
	if _, ok := p.WardenRelease(); ok {
		t.Fatal("release before min charge should fail")
	}
	p.WardenTickCharge(fixedpoint.FromFloat(1.0))
	charge, ok := p.WardenRelease()
	if !ok {
		t.Fatal("release after sufficient charge accumulation should succeed")
	}
	if charge <= 0 {
		t.Fatalf("released charge level should be positive, got %v", charge.ToFloat())
	}
}

func TestRaiderChargeEndsOnTimeout(t *testing.T) {
	p := NewPlayer(1, Raider, fixedpoint.Vec2{}, 0)
	p.RaiderStartCharge(fixedpoint.Vec2{X: fixedpoint.One})
	dt := fixedpoint.FromFloat(0.1)
	for i := 0; i < 20; i++ {
		p.RaiderTick(dt)
	}
	if p.Ability.Phase != AbilityIdle {
		t.Fatal("berserker-charge should end once RaiderChargeDuration elapses")
	}
}

func TestKenseiComboLevelIncrementsWithinWindow(t *testing.T) {
	p := NewPlayer(1, Kensei, fixedpoint.Vec2{}, 0)
	now := fixedpoint.Zero
	if !p.KenseiDash(fixedpoint.Vec2{X: fixedpoint.One}, now) {
		t.Fatal("first dash should succeed")
	}
	if p.Ability.ComboLevel != 1 {
		t.Fatalf("first dash combo level = %d, want 1", p.Ability.ComboLevel)
	}

	p.Ability.Phase = AbilityIdle // dash resolved, but combo window still open
	now = now.Add(fixedpoint.FromFloat(0.1))
	if !p.KenseiDash(fixedpoint.Vec2{X: fixedpoint.One}, now) {
		t.Fatal("second dash within combo window should succeed")
	}
	if p.Ability.ComboLevel != 2 {
		t.Fatalf("second dash combo level = %d, want 2", p.Ability.ComboLevel)
	}
}

func TestKenseiComboLevelResetsAfterWindow(t *testing.T) {
	p := NewPlayer(1, Kensei, fixedpoint.Vec2{}, 0)
	now := fixedpoint.Zero
	p.KenseiDash(fixedpoint.Vec2{X: fixedpoint.One}, now)
	p.Ability.Phase = AbilityIdle

	now = now.Add(fixedpoint.FromFloat(5.0))
	p.KenseiDash(fixedpoint.Vec2{X: fixedpoint.One}, now)
	if p.Ability.ComboLevel != 1 {
		t.Fatalf("dash after combo window expiry should reset to level 1, got %d", p.Ability.ComboLevel)
	}
}
