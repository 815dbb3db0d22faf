// Package wolf implements component C9: individual wolf state machines and
// pack-level coordination. The per-wolf tick order (perception, emotion,
// plan, movement, vocalization) and the FSM-driven target/movement
// behavior generalize the teacher engine's internal/game/player.go
// findTarget/combatBehavior flow — built for a single player's AI-driven
// opponents there — into a roster of cooperating pack members here.
package wolf

import "wolfpit/internal/sim/fixedpoint"

type Kind uint8

const (
	Normal Kind = iota
	Alpha
	Scout
	Hunter
	Omega
)

type State uint8

const (
	Idle State = iota
	Prowl
	Seek
	Circle
	Harass
	Retreat
	Howl
)

type Emotion uint8

const (
	Calm Emotion = iota
	Aggressive
	Fearful
	Confident
	Desperate
	Hurt
)

type Role uint8

const (
	NoRole Role = iota
	Lead
	Flanker
	Support
	Chaser
)

// Wolf is a single pack member.
type Wolf struct {
	ID       uint32
	Position fixedpoint.Vec2
	Velocity fixedpoint.Vec2
	Facing   fixedpoint.Vec2
	HP       fixedpoint.Fixed
	Type     Kind

	State   State
	Emotion Emotion

	PackID uint32
	Role   Role

	Aggression   fixedpoint.Fixed
	Morale       fixedpoint.Fixed
	Stamina      fixedpoint.Fixed
	Coordination fixedpoint.Fixed

	LastSeenPlayerPos fixedpoint.Vec2
	NoticedAt         fixedpoint.Fixed

	StateTimer    fixedpoint.Fixed
	FleeOverride  bool

	bodyID uint32
}

// NewWolf constructs a wolf with full health and neutral disposition.
func NewWolf(id uint32, kind Kind, pos fixedpoint.Vec2, bodyID uint32) *Wolf {
	return &Wolf{
		ID:           id,
		Position:     pos,
		Facing:       fixedpoint.Vec2{X: fixedpoint.One},
		HP:           fixedpoint.One,
		Type:         kind,
		State:        Idle,
		Emotion:      Calm,
		Aggression:   fixedpoint.FromFloat(0.5),
		Morale:       fixedpoint.One,
		Stamina:      fixedpoint.One,
		Coordination: fixedpoint.FromFloat(0.5),
		bodyID:       bodyID,
	}
}

// BodyID returns the physics body this wolf's position is reconciled
// against.
func (w *Wolf) BodyID() uint32 { return w.bodyID }

// Perception is the sensory input the wolf's state machine transitions on.
type Perception struct {
	PlayerVisible  bool
	PlayerPos      fixedpoint.Vec2
	DistanceToPlayer fixedpoint.Fixed
	PlanState      PlanState
	TerrorTriggered bool
}

const (
	ProwlToSeekVisibilityDist = fixedpoint.Fixed(26214)               // ~0.4 normalized distance
	CircleEngageDist          = fixedpoint.Fixed(13107)              // ~0.2
	LowHPRetreatThreshold     = fixedpoint.Fixed(19660)               // ~0.3
	LowStaminaRetreatThreshold = fixedpoint.Fixed(9830)                // ~0.15
)

// UpdatePerception refreshes memory from senses (step 1 of the per-wolf
// tick order).
func (w *Wolf) UpdatePerception(p Perception, now fixedpoint.Fixed) {
	if p.PlayerVisible {
		w.LastSeenPlayerPos = p.PlayerPos
		w.NoticedAt = now
	}
	if p.TerrorTriggered {
		w.FleeOverride = true
	}
}

// UpdateEmotion derives the wolf's emotional state from HP, morale, and
// aggression (step 2).
func (w *Wolf) UpdateEmotion() {
	switch {
	case w.FleeOverride:
		w.Emotion = Fearful
	case w.HP < LowHPRetreatThreshold:
		w.Emotion = Hurt
	case w.Morale < fixedpoint.FromFloat(0.3):
		w.Emotion = Desperate
	case w.Aggression > fixedpoint.FromFloat(0.7):
		w.Emotion = Aggressive
	case w.Morale > fixedpoint.FromFloat(0.7):
		w.Emotion = Confident
	default:
		w.Emotion = Calm
	}
}

// UpdatePlan runs the per-wolf state transition table (step 3), driven by
// visibility/distance, pack plan, health, stamina, and cooldowns per
// spec §4.6.
func (w *Wolf) UpdatePlan(p Perception, dt fixedpoint.Fixed) {
	w.StateTimer = w.StateTimer.Add(dt)

	if w.FleeOverride {
		w.transitionTo(Retreat)
		return
	}
	if w.HP < LowHPRetreatThreshold || w.Stamina < LowStaminaRetreatThreshold {
		w.transitionTo(Retreat)
		return
	}

	switch w.State {
	case Idle:
		if p.PlayerVisible {
			w.transitionTo(Prowl)
		}
	case Prowl:
		if p.PlayerVisible && p.DistanceToPlayer < ProwlToSeekVisibilityDist {
			w.transitionTo(Seek)
		}
	case Seek:
		if p.DistanceToPlayer < CircleEngageDist {
			w.transitionTo(Circle)
		} else if !p.PlayerVisible {
			w.transitionTo(Prowl)
		}
	case Circle:
		if p.PlanState == PlanHarass {
			w.transitionTo(Harass)
		} else if p.DistanceToPlayer >= CircleEngageDist {
			w.transitionTo(Seek)
		}
	case Harass:
		if p.PlanState != PlanHarass {
			w.transitionTo(Seek)
		}
	case Retreat:
		if w.HP >= LowHPRetreatThreshold && w.Stamina >= LowStaminaRetreatThreshold && !w.FleeOverride {
			w.transitionTo(Seek)
		}
	case Howl:
		if w.StateTimer > fixedpoint.FromFloat(1.0) {
			w.transitionTo(Seek)
		}
	}
}

func (w *Wolf) transitionTo(s State) {
	if w.State == s {
		return
	}
	w.State = s
	w.StateTimer = 0
}

// TriggerHowl forces the Howl state. The coordinator does not call it, so
// a wolf enters Howl only through a direct call.
func (w *Wolf) TriggerHowl() {
	w.transitionTo(Howl)
}

// ApplyHit reduces HP from a player attack and adjusts morale; returns
// true if the wolf died.
func (w *Wolf) ApplyHit(damage fixedpoint.Fixed) bool {
	w.HP = w.HP.Sub(damage).Clamp(0, fixedpoint.One)
	w.Morale = w.Morale.Sub(damage.Mul(fixedpoint.FromFloat(0.3))).Clamp(0, fixedpoint.One)
	return w.HP <= 0
}
