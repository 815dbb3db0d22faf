// Package combat implements component C7: the four-state attack FSM
// (Idle/Windup/Active/Recovery) with orthogonal sub-flags for blocking,
// stun, and roll, plus the incoming-attack resolution rules and
// combo/counter/hyperarmor mechanics from spec §4.2. This generalizes the
// teacher engine's internal/game.CombatState (tick-counter timers, a
// per-weapon ComboDefinition table) from wall-clock durations to durations
// measured in elapsed simulation seconds (a fixedpoint.Fixed accumulated
// by dt each Update), so the same state machine behaves identically
// regardless of the coordinator's chosen tick rate.
package combat

import "wolfpit/internal/sim/fixedpoint"

type AttackState uint8

const (
	Idle AttackState = iota
	Windup
	Active
	Recovery
)

type AttackType uint8

const (
	NoAttack AttackType = iota
	Light
	Heavy
	Special
)

type RollState uint8

const (
	RollNone RollState = iota
	RollActive
	RollSliding
)

// Resolution is the outcome of HandleIncomingAttack.
type Resolution int8

const (
	ResIgnore Resolution = -1
	ResHit    Resolution = 0
	ResBlock  Resolution = 1
	ResParry  Resolution = 2
)

// Canonical timings, in seconds, per spec §4.2.
var (
	LightWindup, LightActive, LightRecovery       = fixedpoint.FromFloat(0.050), fixedpoint.FromFloat(0.080), fixedpoint.FromFloat(0.150)
	HeavyWindup, HeavyActive, HeavyRecovery       = fixedpoint.FromFloat(0.150), fixedpoint.FromFloat(0.120), fixedpoint.FromFloat(0.250)
	SpecialWindup, SpecialActive, SpecialRecovery = fixedpoint.FromFloat(0.200), fixedpoint.FromFloat(0.150), fixedpoint.FromFloat(0.300)

	RollIframeDuration = fixedpoint.FromFloat(0.300)
	RollSlideDuration  = fixedpoint.FromFloat(0.200)

	ParryWindow           = fixedpoint.FromFloat(0.120)
	ParryWindowShielded    = fixedpoint.FromFloat(0.120)
	ParryStunDuration     = fixedpoint.FromFloat(0.300)
	CounterWindowDuration = fixedpoint.FromFloat(0.200)

	ComboWindowDuration = fixedpoint.FromFloat(0.500)
	MaxComboCount       = 5

	HeavyHoldThreshold = fixedpoint.FromFloat(0.200)
)

// Baseline stamina costs; weapon/ability modifiers scale these at the call
// site (player manager), consistent with spec §4.3's "speed modifiers
// multiply" pattern applied here to stamina instead.
var (
	LightCost = fixedpoint.FromFloat(0.10)
	HeavyCost = fixedpoint.FromFloat(0.20)
	SpecialCost = fixedpoint.FromFloat(0.30)
	RollCost  = fixedpoint.FromFloat(0.15)

	BlockFacingThreshold = fixedpoint.FromFloat(0.5)
	BlockMitigation      = fixedpoint.FromFloat(0.6)
	PoiseDamageMitigationCost = fixedpoint.FromFloat(0.5)
	ArmorThreshold       = fixedpoint.FromFloat(0.3)
)

func windupDuration(t AttackType) fixedpoint.Fixed {
	switch t {
	case Light:
		return LightWindup
	case Heavy:
		return HeavyWindup
	case Special:
		return SpecialWindup
	}
	return 0
}

func activeDuration(t AttackType) fixedpoint.Fixed {
	switch t {
	case Light:
		return LightActive
	case Heavy:
		return HeavyActive
	case Special:
		return SpecialActive
	}
	return 0
}

func recoveryDuration(t AttackType) fixedpoint.Fixed {
	switch t {
	case Light:
		return LightRecovery
	case Heavy:
		return HeavyRecovery
	case Special:
		return SpecialRecovery
	}
	return 0
}

// State is one player's (or wolf's) combat FSM instance.
type State struct {
	AttackState AttackState
	AttackType  AttackType
	Timer       fixedpoint.Fixed

	RollState RollState
	RollTimer fixedpoint.Fixed
	RollDir   fixedpoint.Vec2

	Blocking       bool
	BlockFace      fixedpoint.Vec2
	BlockStartTime fixedpoint.Fixed

	Stunned   bool
	StunUntil fixedpoint.Fixed

	ComboCount      int
	ComboWindowEnd  fixedpoint.Fixed
	LastAttackType  AttackType

	CanCounter        bool
	CounterWindowEnd  fixedpoint.Fixed

	// CounterBoostActive is set by TryStartAttack when the attack it just
	// started was launched inside this state's own counter window (i.e.
	// this entity is the one who parried and is now swinging back), per
	// spec §4.2. It stays set for the attack's full lifecycle so the
	// caller can read CounterDamageMult while resolving the hit.
	CounterBoostActive bool

	ArmorValue      fixedpoint.Fixed
	HyperarmorUntil fixedpoint.Fixed

	// windupReducedBy holds the combo-scaled windup reduction applied to
	// the attack currently in Windup, computed once when the attack starts.
	windupReducedBy fixedpoint.Fixed
}

// New returns a fresh Idle combat state.
func New() *State {
	return &State{}
}

// IsBusy reports whether the state machine currently excludes starting a
// new attack, roll, or block — i.e. any of {attack!=Idle, roll!=Idle,
// stunned}, the invariant named in spec §3.
func (s *State) IsBusy() bool {
	return s.AttackState != Idle || s.RollState != RollNone || s.Stunned
}

// TryStartAttack attempts Idle -> Windup(type). Returns false (a silent
// no-op) if busy or insufficiently resourced, per the "attempting an
// attack mid-Stunned is silently rejected" failure mode. An attack started
// inside this state's own counter window (CanCounter, opened by a parry)
// costs no stamina and carries a counter damage boost for its lifetime,
// per spec §4.2's counter-attack rule.
func (s *State) TryStartAttack(t AttackType, stamina fixedpoint.Fixed, now fixedpoint.Fixed) bool {
	if s.IsBusy() {
		return false
	}
	counterReady := s.CanCounter && now < s.CounterWindowEnd
	cost := baseCost(t)
	if s.inCombo(now) {
		cost = cost.Mul(fixedpoint.FromFloat(0.8)) // 20% combo cost reduction
	}
	if counterReady {
		cost = 0
	}
	if stamina < cost {
		return false
	}
	s.AttackState = Windup
	s.AttackType = t
	s.Timer = 0
	s.windupReducedBy = fixedpoint.One
	if s.inCombo(now) {
		s.windupReducedBy = fixedpoint.FromFloat(0.7) // 30% reduced windup
	}
	s.CounterBoostActive = counterReady
	if counterReady {
		s.CanCounter = false
	}
	return true
}

// CounterDamageMult returns the damage multiplier the in-progress attack
// should apply once it lands — ×1.5 if TryStartAttack launched it inside
// this state's counter window, 1.0 otherwise. Callers assembling the
// IncomingAttack sent to the target fold this into AttackerMod.
func (s *State) CounterDamageMult() fixedpoint.Fixed {
	if s.CounterBoostActive {
		return fixedpoint.FromFloat(1.5)
	}
	return fixedpoint.One
}

func baseCost(t AttackType) fixedpoint.Fixed {
	switch t {
	case Light:
		return LightCost
	case Heavy:
		return HeavyCost
	case Special:
		return SpecialCost
	}
	return 0
}

func (s *State) inCombo(now fixedpoint.Fixed) bool {
	return s.ComboCount > 0 && now < s.ComboWindowEnd
}

// TryFeintToBlock implements Windup -> Block when blockRequest is set and
// the in-progress attack is Heavy, refunding partial stamina. Returns the
// stamina refund amount and whether the feint occurred.
func (s *State) TryFeintToBlock(blockRequest bool, now fixedpoint.Fixed, facing fixedpoint.Vec2) (fixedpoint.Fixed, bool) {
	if s.AttackState != Windup || s.AttackType != Heavy || !blockRequest {
		return 0, false
	}
	refund := HeavyCost.Mul(fixedpoint.FromFloat(0.5))
	s.AttackState = Idle
	s.AttackType = NoAttack
	s.Timer = 0
	s.Blocking = true
	s.BlockFace = facing
	s.BlockStartTime = now
	return refund, true
}

// TryStartRoll implements Idle -> Roll.Active.
func (s *State) TryStartRoll(dir fixedpoint.Vec2, stamina fixedpoint.Fixed, now fixedpoint.Fixed) bool {
	if s.IsBusy() {
		return false
	}
	if stamina < RollCost {
		return false
	}
	s.RollState = RollActive
	s.RollTimer = 0
	s.RollDir = dir
	return true
}

// SetBlocking implements Idle -> Blocking / Blocking -> Idle based on
// blockRequest and remaining stamina; running out of stamina while
// blocking forces Idle per the failure-mode rule.
func (s *State) SetBlocking(blockRequest bool, stamina fixedpoint.Fixed, now fixedpoint.Fixed, facing fixedpoint.Vec2) {
	if s.Blocking {
		if !blockRequest || stamina <= 0 {
			s.Blocking = false
		}
		return
	}
	if s.IsBusy() {
		return
	}
	if blockRequest && stamina > 0 {
		s.Blocking = true
		s.BlockFace = facing
		s.BlockStartTime = now
	}
}

// ApplyStun implements "any -> Stunned", cancelling the current action.
func (s *State) ApplyStun(stunUntil fixedpoint.Fixed) {
	s.Stunned = true
	s.StunUntil = stunUntil
	s.AttackState = Idle
	s.AttackType = NoAttack
	s.RollState = RollNone
	s.Blocking = false
}

// Update advances all active timers by dt and applies the automatic
// (condition-only-on-time) transitions: Windup->Active->Recovery->Idle,
// Roll.Active->Roll.Sliding->Idle, and Stunned->Idle.
func (s *State) Update(dt fixedpoint.Fixed, now fixedpoint.Fixed) {
	if s.Stunned {
		if now >= s.StunUntil {
			s.Stunned = false
		}
		return
	}

	switch s.AttackState {
	case Windup:
		s.Timer = s.Timer.Add(dt)
		if s.Timer >= windupDuration(s.AttackType).Mul(s.windupReducedBy) {
			s.AttackState = Active
			s.Timer = 0
		}
	case Active:
		s.Timer = s.Timer.Add(dt)
		if s.Timer >= activeDuration(s.AttackType) {
			s.AttackState = Recovery
			s.Timer = 0
		}
	case Recovery:
		s.Timer = s.Timer.Add(dt)
		if s.Timer >= recoveryDuration(s.AttackType) {
			s.LastAttackType = s.AttackType
			s.AttackState = Idle
			s.AttackType = NoAttack
			s.Timer = 0
			s.CounterBoostActive = false
		}
	}

	switch s.RollState {
	case RollActive:
		s.RollTimer = s.RollTimer.Add(dt)
		if s.RollTimer >= RollIframeDuration {
			s.RollState = RollSliding
			s.RollTimer = 0
		}
	case RollSliding:
		s.RollTimer = s.RollTimer.Add(dt)
		if s.RollTimer >= RollSlideDuration {
			s.RollState = RollNone
			s.RollTimer = 0
		}
	}

	if s.CanCounter && now >= s.CounterWindowEnd {
		s.CanCounter = false
	}
}

// IsInvulnerable reports whether the defender is currently immune to
// incoming attacks (Roll.Active i-frames).
func (s *State) IsInvulnerable() bool {
	return s.RollState == RollActive
}

// IsHyperarmored reports whether the defender currently ignores
// hit-interruption (Heavy Active frames with the weapon's hyperarmor flag,
// supplied by the caller as weaponHasHyperarmor).
func (s *State) IsHyperarmored(weaponHasHyperarmor bool) bool {
	return weaponHasHyperarmor && s.AttackState == Active && s.AttackType == Heavy
}

// IncomingAttack describes an attack directed at this defender.
type IncomingAttack struct {
	Dir          fixedpoint.Vec2
	Damage       fixedpoint.Fixed
	PoiseDamage  fixedpoint.Fixed
	InRange      bool
	FacingDot    fixedpoint.Fixed // dot(defender.BlockFace, attackDir)
	WeaponMult   fixedpoint.Fixed
	AttackerMod  fixedpoint.Fixed
	DefenderMod  fixedpoint.Fixed
	HasHyperarmor bool
}

// Outcome is the full resolved effect of an incoming attack.
type Outcome struct {
	Resolution     Resolution
	Damage         fixedpoint.Fixed
	StaminaRestore fixedpoint.Fixed
	StaminaDrain   fixedpoint.Fixed
	AttackerStunUntil fixedpoint.Fixed
	Interrupted    bool
}

// HandleIncomingAttack implements the ordered incoming-attack resolution
// rules from spec §4.2, returning Ignore/Hit/Block/Parry per the
// documented -1/0/1/2 contract (surfaced here as the Resolution enum for
// type safety; callers needing the raw integer can cast). abilityInvulnerable
// folds in any character-ability i-frames (e.g. Kensei's dash) that live
// outside this package's own roll-state invulnerability.
func (s *State) HandleIncomingAttack(a IncomingAttack, now fixedpoint.Fixed, comboCost fixedpoint.Fixed, abilityInvulnerable bool) Outcome {
	if abilityInvulnerable || s.IsInvulnerable() {
		return Outcome{Resolution: ResIgnore}
	}
	if !a.InRange {
		return Outcome{Resolution: ResIgnore}
	}

	if s.Blocking && a.FacingDot >= BlockFacingThreshold {
		elapsed := now.Sub(s.BlockStartTime)
		if elapsed >= 0 && elapsed <= ParryWindow {
			s.CanCounter = true
			s.CounterWindowEnd = now.Add(CounterWindowDuration)
			return Outcome{
				Resolution:        ResParry,
				Damage:            0,
				StaminaRestore:    fixedpoint.One, // full restore; caller clamps to max
				AttackerStunUntil: now.Add(ParryStunDuration),
			}
		}
		mitigated := a.Damage.Mul(fixedpoint.One.Sub(BlockMitigation))
		drain := a.PoiseDamage.Mul(PoiseDamageMitigationCost)
		return Outcome{Resolution: ResBlock, Damage: mitigated, StaminaDrain: drain}
	}

	damage := a.Damage.Mul(a.WeaponMult).Mul(a.AttackerMod)
	if a.DefenderMod > 0 {
		damage = damage.Div(a.DefenderMod)
	}

	interrupted := true
	if s.IsHyperarmored(a.HasHyperarmor) && a.PoiseDamage < ArmorThreshold {
		interrupted = false
	}
	if interrupted {
		s.ApplyStun(now.Add(ParryStunDuration))
	}

	if s.inCombo(now) {
		// RegisterComboHit is invoked by the caller (the attacker's own
		// state), not the defender's — combo bookkeeping lives on the
		// attacker, see RegisterComboHit below.
	}

	return Outcome{Resolution: ResHit, Damage: damage, Interrupted: interrupted}
}

// RegisterComboHit is called on the attacker's State after one of its
// attacks lands, extending combo_count (saturating at MaxComboCount) and
// opening the combo window, per spec §4.2's combo rule.
func (s *State) RegisterComboHit(now fixedpoint.Fixed) {
	if s.ComboCount < MaxComboCount {
		s.ComboCount++
	}
	s.ComboWindowEnd = now.Add(ComboWindowDuration)
}

// ResetCombo clears combo progress. Combo bonuses already lapse on their own
// once ComboWindowEnd passes (inCombo checks it); the coordinator does not
// call ResetCombo.
func (s *State) ResetCombo() {
	s.ComboCount = 0
	s.ComboWindowEnd = 0
}
