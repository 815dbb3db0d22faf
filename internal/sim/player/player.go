// Package player implements component C8: player movement integration,
// speed modifiers, and the three character ability FSMs (Warden bash,
// Raider berserker-charge, Kensei flow-dash) layered on top of the
// combat state machine. Movement and ability timing follow the teacher
// engine's internal/game/player.go Update/combatBehavior structure,
// generalized from float64 position/velocity fields to fixedpoint.Vec2
// and from wall-clock timers to simulation-second Fixed timers.
package player

import (
	"wolfpit/internal/sim/combat"
	"wolfpit/internal/sim/fixedpoint"
)

// Character selects which ability FSM a player runs.
type Character uint8

const (
	Warden Character = iota
	Raider
	Kensei
)

// SpeedModifiers holds the multiplicative speed factors named in spec
// §4.3: "status slow/haste, weapon speed-mult, hazard terrain, ability
// dash multiplier".
type SpeedModifiers struct {
	StatusSlowHaste fixedpoint.Fixed
	WeaponSpeedMult fixedpoint.Fixed
	HazardTerrain   fixedpoint.Fixed
	AbilityDash     fixedpoint.Fixed
}

// Combined multiplies all four modifiers together.
func (m SpeedModifiers) Combined() fixedpoint.Fixed {
	return m.StatusSlowHaste.Mul(m.WeaponSpeedMult).Mul(m.HazardTerrain).Mul(m.AbilityDash)
}

// DefaultModifiers returns all-neutral (1.0) modifiers.
func DefaultModifiers() SpeedModifiers {
	one := fixedpoint.One
	return SpeedModifiers{one, one, one, one}
}

const (
	VelocityDecay   = fixedpoint.Fixed(55705) // ~0.85 per tick
	BaseMoveSpeed   = fixedpoint.Fixed(196608) // 3.0 normalized units/sec
)

// Player is the per-player simulation record. Position is normalized
// [0,1]² gameplay space; BodyID references the authoritative physics body
// for collision (spec §4.4's coordinate reconciliation).
type Player struct {
	ID        uint32
	Character Character
	Position  fixedpoint.Vec2
	Velocity  fixedpoint.Vec2
	Facing    fixedpoint.Vec2

	HP      fixedpoint.Fixed
	MaxHP   fixedpoint.Fixed
	Stamina fixedpoint.Fixed
	MaxStamina fixedpoint.Fixed

	BodyID uint32

	Combat *combat.State

	Ability AbilityState
}

// NewPlayer constructs a player with full health/stamina and an idle
// combat+ability state.
func NewPlayer(id uint32, character Character, pos fixedpoint.Vec2, bodyID uint32) *Player {
	return &Player{
		ID:         id,
		Character:  character,
		Position:   pos,
		Facing:     fixedpoint.Vec2{X: fixedpoint.One},
		HP:         fixedpoint.One,
		MaxHP:      fixedpoint.One,
		Stamina:    fixedpoint.One,
		MaxStamina: fixedpoint.One,
		BodyID:     bodyID,
		Combat:     combat.New(),
	}
}

// RegenStamina restores stamina at rate per second, clamped to MaxStamina,
// whenever it is called — callers decide when to call this (the
// coordinator skips it while the player is blocking or rolling).
func (p *Player) RegenStamina(dt fixedpoint.Fixed, rate fixedpoint.Fixed) {
	p.Stamina = p.Stamina.Add(rate.Mul(dt)).Clamp(0, p.MaxStamina)
}

// Integrate applies the movement-integration formula from spec §4.3:
// velocity := decay*velocity + base_move_speed*input_dir*speed_modifiers;
// position += velocity*dt. inputDir is expected pre-normalized by the
// caller (zero vector if no input).
func (p *Player) Integrate(dt fixedpoint.Fixed, inputDir fixedpoint.Vec2, mods SpeedModifiers) {
	decayed := p.Velocity.Scale(VelocityDecay)
	drive := inputDir.Scale(BaseMoveSpeed.Mul(mods.Combined()))
	p.Velocity = decayed.Add(drive)
	p.Position = p.Position.Add(p.Velocity.Scale(dt))

	if inputDir.LengthSq() > 0 {
		p.Facing = inputDir.Normalized()
	}
}

// ReconcileWithBody recomputes the normalized position/velocity from the
// authoritative physics body after the physics step, via the linear
// mapping physMin/physMax -> [0,1], per spec §4.4's coordinate
// reconciliation rule.
func (p *Player) ReconcileWithBody(bodyPos, bodyVel fixedpoint.Vec2, physMin, physMax fixedpoint.Vec2) {
	span := physMax.Sub(physMin)
	normalize := func(v, lo, hi fixedpoint.Fixed) fixedpoint.Fixed {
		s := hi.Sub(lo)
		if s == 0 {
			return 0
		}
		return v.Sub(lo).Div(s)
	}
	p.Position = fixedpoint.Vec2{
		X: normalize(bodyPos.X, physMin.X, physMin.X.Add(span.X)),
		Y: normalize(bodyPos.Y, physMin.Y, physMin.Y.Add(span.Y)),
	}
	if span.X != 0 {
		p.Velocity.X = bodyVel.X.Div(span.X)
	}
	if span.Y != 0 {
		p.Velocity.Y = bodyVel.Y.Div(span.Y)
	}
}
