// Package gamestate implements component C10: the run-level phase FSM,
// frame counter, economy (gold/essence), biome selection, and the
// external-index-to-body-id entity registries. Phase transitions and
// minimum-duration enforcement follow the same tick-accumulated-timer
// idiom used throughout this simulation (see internal/sim/combat), rather
// than the teacher engine's wall-clock timestamps, since the game state
// manager must be exactly as replayable as every other component under
// rollback.
package gamestate

import "wolfpit/internal/sim/fixedpoint"

type Phase uint8

const (
	Explore Phase = iota
	Fight
	Choose
	PowerUp
	Risk
	Escalate
	CashOut
	Reset
	GameOver
)

// minDuration bounds how long a phase must be occupied before a transition
// out of it is permitted. Only minimum durations exist: no maximum duration
// is enforced and no transition is ever forced by elapsed time.
var minDuration = map[Phase]fixedpoint.Fixed{
	Explore: fixedpoint.FromFloat(1.0),
	Fight:   fixedpoint.FromFloat(0.5),
	Choose:  fixedpoint.FromFloat(0.5),
	PowerUp: fixedpoint.FromFloat(0.5),
	Risk:    fixedpoint.FromFloat(0.5),
	Escalate: fixedpoint.FromFloat(0.5),
	CashOut: fixedpoint.FromFloat(0.5),
	Reset:   fixedpoint.FromFloat(0.2),
}

// validEdges encodes the directed phase graph named in spec §4.7/§8.
var validEdges = map[Phase][]Phase{
	Explore:  {Fight, Risk, GameOver},
	Fight:    {Choose, GameOver},
	Choose:   {PowerUp, Escalate, GameOver},
	PowerUp:  {Explore, GameOver},
	Risk:     {CashOut, Escalate, GameOver},
	Escalate: {Fight, CashOut, GameOver},
	CashOut:  {Reset, GameOver},
	Reset:    {Explore},
	GameOver: {Reset},
}

// EntityRegistry maps an external index (wolf index, enemy slot) to an
// internal body id, per spec §3's "Ownership summary".
type EntityRegistry struct {
	indexToBody map[uint32]uint32
}

func newRegistry() *EntityRegistry {
	return &EntityRegistry{indexToBody: make(map[uint32]uint32)}
}

// Set records index -> bodyID.
func (r *EntityRegistry) Set(index, bodyID uint32) { r.indexToBody[index] = bodyID }

// Get returns the body id for index, or (0, false).
func (r *EntityRegistry) Get(index uint32) (uint32, bool) {
	id, ok := r.indexToBody[index]
	return id, ok
}

// Remove deletes an index mapping, used when an enemy/body is destroyed.
func (r *EntityRegistry) Remove(index uint32) { delete(r.indexToBody, index) }

// Manager owns the run's phase FSM, frame counter, and economy.
type Manager struct {
	Phase          Phase
	PhaseStartTime fixedpoint.Fixed
	FrameNumber    uint32

	Gold    fixedpoint.Fixed
	Essence fixedpoint.Fixed
	RoomCount int
	Biome   uint32

	Enemies *EntityRegistry
}

// NewManager constructs a manager at phase=Explore, frame=0, per
// init_run's documented effect.
func NewManager() *Manager {
	return &Manager{
		Phase:   Explore,
		Enemies: newRegistry(),
	}
}

// Reset re-initializes phase/frame/economy while preserving the caller's
// config (the manager itself has no config fields to preserve beyond its
// own identity, so Reset is equivalent to NewManager plus carrying Biome
// forward, matching reset_run's "preserving config" contract).
func (m *Manager) Reset() {
	biome := m.Biome
	*m = *NewManager()
	m.Biome = biome
}

// CanTransition reports whether moving from the current phase to next
// follows a directed edge in the phase graph.
func (m *Manager) CanTransition(next Phase) bool {
	for _, allowed := range validEdges[m.Phase] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TryTransition moves to next if it's a valid edge and the minimum
// duration for the current phase has elapsed (GameOver transitions bypass
// the minimum-duration gate — a death is immediate). Returns false on a
// rejected transition (a silent no-op, consistent with the kernel's
// never-panic failure posture).
func (m *Manager) TryTransition(next Phase, now fixedpoint.Fixed) bool {
	if !m.CanTransition(next) {
		return false
	}
	if next != GameOver {
		if now.Sub(m.PhaseStartTime) < minDuration[m.Phase] {
			return false
		}
	}
	m.Phase = next
	m.PhaseStartTime = now
	return true
}

// AdvanceFrame increments the monotonic frame counter by exactly 1, per
// spec §3's invariant.
func (m *Manager) AdvanceFrame() {
	m.FrameNumber++
}

// AddGold/AddEssence apply the economy deltas from combat rewards, kept
// separate since some components (e.g. a boss kill) grant both.
func (m *Manager) AddGold(amount fixedpoint.Fixed)    { m.Gold = m.Gold.Add(amount) }
func (m *Manager) AddEssence(amount fixedpoint.Fixed) { m.Essence = m.Essence.Add(amount) }

// SpendGold deducts amount if affordable, returning whether the spend
// succeeded.
func (m *Manager) SpendGold(amount fixedpoint.Fixed) bool {
	if m.Gold < amount {
		return false
	}
	m.Gold = m.Gold.Sub(amount)
	return true
}
