package player

import "wolfpit/internal/sim/fixedpoint"

// AbilityPhase is the shared small-FSM shape all three character abilities
// use, per spec §4.3: "each a small FSM on top of the combat state".
type AbilityPhase uint8

const (
	AbilityIdle AbilityPhase = iota
	AbilityCharging    // Warden bash charge-up
	AbilityActive      // Raider berserker-charge sprint / Kensei dash window
)

var (
	WardenMinCharge        = fixedpoint.Fixed(13107) // 0.2 in Fixed
	WardenChargeRatePerSec = fixedpoint.Fixed(65536 / 2)
	WardenMaxChargeTime    = fixedpoint.FromFloat(1.5)

	RaiderChargeDuration    = fixedpoint.FromFloat(1.2)
	RaiderStaminaDrainPerSec = fixedpoint.FromFloat(0.4)

	KenseiDashDuration   = fixedpoint.FromFloat(0.15)
	KenseiComboWindow    = fixedpoint.FromFloat(0.6)
	KenseiBaseCooldown   = fixedpoint.FromFloat(0.8)
	KenseiMaxComboLevel  = 3
)

// AbilityState holds the observable state for whichever character's
// ability is active; fields unused by the current Character are simply
// left at zero, mirroring the teacher's flat-struct timer style rather
// than a tagged union (this state is snapshotted verbatim regardless of
// character).
type AbilityState struct {
	Phase AbilityPhase
	Timer fixedpoint.Fixed

	// Warden bash
	ChargeLevel fixedpoint.Fixed

	// Raider berserker-charge
	ChargeDir  fixedpoint.Vec2
	Hyperarmor bool

	// Kensei flow-dash
	ComboLevel    int
	ComboWindowEnd fixedpoint.Fixed
	CooldownUntil  fixedpoint.Fixed
}

// WardenStartCharge begins the bash charge-up (Idle -> Charging).
func (p *Player) WardenStartCharge() bool {
	if p.Combat.IsBusy() || p.Ability.Phase != AbilityIdle {
		return false
	}
	p.Ability.Phase = AbilityCharging
	p.Ability.Timer = 0
	p.Ability.ChargeLevel = 0
	return true
}

// WardenTickCharge accumulates charge_level ∈ [0,1] while held, draining
// stamina proportional to charge, per spec §4.3.
func (p *Player) WardenTickCharge(dt fixedpoint.Fixed) {
	if p.Ability.Phase != AbilityCharging {
		return
	}
	p.Ability.Timer = p.Ability.Timer.Add(dt)
	p.Ability.ChargeLevel = (p.Ability.Timer.Div(WardenMaxChargeTime)).Clamp(0, fixedpoint.One)
	drain := WardenChargeRatePerSec.Mul(dt).Mul(p.Ability.ChargeLevel)
	p.Stamina = p.Stamina.Sub(drain).Clamp(0, p.MaxStamina)
	if p.Stamina == 0 {
		p.WardenCancel()
	}
}

// WardenRelease dispatches the one-shot hitbox (radius/impulse scale with
// charge), only permitted once charge_level >= min_charge. Returns the
// charge level used (for the caller to scale hitbox radius/impulse) and
// whether release occurred.
func (p *Player) WardenRelease() (fixedpoint.Fixed, bool) {
	if p.Ability.Phase != AbilityCharging || p.Ability.ChargeLevel < WardenMinCharge {
		return 0, false
	}
	charge := p.Ability.ChargeLevel
	p.Ability.Phase = AbilityIdle
	p.Ability.Timer = 0
	p.Ability.ChargeLevel = 0
	return charge, true
}

// WardenCancel aborts a charge without releasing.
func (p *Player) WardenCancel() {
	p.Ability.Phase = AbilityIdle
	p.Ability.Timer = 0
	p.Ability.ChargeLevel = 0
}

// RaiderStartCharge begins the berserker-charge sprint, granting
// hyperarmor for its bounded duration.
func (p *Player) RaiderStartCharge(dir fixedpoint.Vec2) bool {
	if p.Combat.IsBusy() || p.Ability.Phase != AbilityIdle {
		return false
	}
	p.Ability.Phase = AbilityActive
	p.Ability.Timer = 0
	p.Ability.ChargeDir = dir.Normalized()
	p.Ability.Hyperarmor = true
	return true
}

// RaiderTick advances the charge, draining continuous stamina and ending
// the charge on timeout or stamina exhaustion (equivalent to an explicit
// cancel per spec's "cancellable only by explicit cancel or timeout").
func (p *Player) RaiderTick(dt fixedpoint.Fixed) {
	if p.Ability.Phase != AbilityActive || p.Character != Raider {
		return
	}
	p.Ability.Timer = p.Ability.Timer.Add(dt)
	p.Stamina = p.Stamina.Sub(RaiderStaminaDrainPerSec.Mul(dt)).Clamp(0, p.MaxStamina)
	if p.Ability.Timer >= RaiderChargeDuration || p.Stamina == 0 {
		p.RaiderCancel()
	}
}

// RaiderCancel explicitly ends the charge.
func (p *Player) RaiderCancel() {
	p.Ability.Phase = AbilityIdle
	p.Ability.Timer = 0
	p.Ability.Hyperarmor = false
}

// KenseiDash performs the short teleport-like dash, granting i-frames for
// the dash window and incrementing combo_level on successive dashes
// within ComboWindowEnd (resetting otherwise). Higher combo_level reduces
// cooldown and extends invulnerability, per spec §4.3.
func (p *Player) KenseiDash(dir fixedpoint.Vec2, now fixedpoint.Fixed) bool {
	inCombo := now < p.Ability.ComboWindowEnd
	// The cooldown gates only a dash that starts a new chain; a dash inside
	// an open combo window continues the chain.
	if p.Combat.IsBusy() || (!inCombo && now < p.Ability.CooldownUntil) {
		return false
	}
	if inCombo {
		if p.Ability.ComboLevel < KenseiMaxComboLevel {
			p.Ability.ComboLevel++
		}
	} else {
		p.Ability.ComboLevel = 1
	}
	p.Ability.Phase = AbilityActive
	p.Ability.Timer = 0
	p.Ability.ChargeDir = dir.Normalized()
	p.Ability.ComboWindowEnd = now.Add(KenseiComboWindow)

	reduction := fixedpoint.One.Sub(fixedpoint.FromFloat(0.15).Mul(fixedpoint.FromInt(p.Ability.ComboLevel - 1)))
	p.Ability.CooldownUntil = now.Add(KenseiBaseCooldown.Mul(reduction))
	return true
}

// KenseiDashInvulnWindow returns the dash's i-frame duration, extended by
// combo_level.
func (p *Player) KenseiDashInvulnWindow() fixedpoint.Fixed {
	bonus := fixedpoint.FromFloat(0.02).Mul(fixedpoint.FromInt(p.Ability.ComboLevel))
	return KenseiDashDuration.Add(bonus)
}

// KenseiTick advances the dash timer, ending the invulnerability/movement
// window once elapsed.
func (p *Player) KenseiTick(dt fixedpoint.Fixed) {
	if p.Ability.Phase != AbilityActive || p.Character != Kensei {
		return
	}
	p.Ability.Timer = p.Ability.Timer.Add(dt)
	if p.Ability.Timer >= p.KenseiDashInvulnWindow() {
		p.Ability.Phase = AbilityIdle
		p.Ability.Timer = 0
	}
}

// IsInvulnerable reports ability-granted invulnerability (Kensei's dash
// i-frames), independent of the combat state machine's roll i-frames.
func (p *Player) IsInvulnerable() bool {
	return p.Character == Kensei && p.Ability.Phase == AbilityActive && p.Ability.Timer < p.KenseiDashInvulnWindow()
}
