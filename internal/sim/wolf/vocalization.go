package wolf

import "wolfpit/internal/sim/fixedpoint"

// VocalType enumerates the vocalization kinds named in spec §4.6.
type VocalType uint8

const (
	HowlRally VocalType = iota
	HowlHunt
	BarkAlert
	WhineDistress
)

// Vocalization is a single entry in a pack's bounded vocalization queue.
type Vocalization struct {
	Type      VocalType
	SourcePos fixedpoint.Vec2
	Range     fixedpoint.Fixed
	Intensity fixedpoint.Fixed
	Timestamp fixedpoint.Fixed
	WolfID    uint32
}

// perWolfCooldown is the minimum interval between vocalizations from the
// same wolf, preventing spam per spec §4.6.
const perWolfCooldown = fixedpoint.Fixed(65536 / 2) // 0.5s

// Emit pushes a vocalization onto the pack's bounded queue if the source
// wolf is off cooldown. Returns false if on cooldown (silently dropped,
// not queued).
func (p *Pack) Emit(v Vocalization, now fixedpoint.Fixed) bool {
	next, ok := p.cooldowns[v.WolfID]
	if ok && now < next {
		return false
	}
	p.cooldowns[v.WolfID] = now.Add(perWolfCooldown)
	v.Timestamp = now
	p.vocalizations.Push(v)
	return true
}

// Vocalizations returns the queue contents for reaction processing.
func (p *Pack) Vocalizations() []Vocalization { return p.vocalizations.Snapshot() }

// ClearVocalizations empties the queue after this tick's reactions have
// been processed, keeping capacity (the coordinator calls this once per
// frame after distributing reactions to nearby wolves).
func (p *Pack) ClearVocalizations() { p.vocalizations.Clear() }

// React applies the fixed reaction table from spec §4.6 to a nearby wolf
// that heard vocalization v (caller has already checked distance <=
// v.Range).
func React(w *Wolf, v Vocalization, now fixedpoint.Fixed) {
	switch v.Type {
	case HowlRally:
		w.transitionTo(Seek)
		w.LastSeenPlayerPos = v.SourcePos
	case HowlHunt:
		w.Aggression = w.Aggression.Add(fixedpoint.FromFloat(0.1)).Clamp(0, fixedpoint.One)
		w.Coordination = w.Coordination.Add(fixedpoint.FromFloat(0.1)).Clamp(0, fixedpoint.One)
	case BarkAlert:
		if w.State == Idle {
			w.transitionTo(Seek)
		}
	case WhineDistress:
		w.transitionTo(Seek)
		w.LastSeenPlayerPos = v.SourcePos
		w.NoticedAt = now
	}
}
