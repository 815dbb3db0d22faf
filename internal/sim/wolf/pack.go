package wolf

import (
	"sort"

	"wolfpit/internal/sim/fixedpoint"
	"wolfpit/internal/sim/ring"
)

// PlanState is the pack-level coordination FSM (spec §4.6).
type PlanState uint8

const (
	PlanObserve PlanState = iota
	PlanCommit
	PlanHarass
	PlanRetreat
	PlanRegroup
)

const (
	MaxPackMembers = 8
	// MaxVocalizations bounds the shared vocalization queue per pack.
	MaxVocalizations = 32
)

// Pack coordinates a bounded set of member wolves through a shared plan
// FSM.
type Pack struct {
	ID           uint32
	MemberIDs    []uint32
	Plan         PlanState
	Morale       fixedpoint.Fixed
	SyncTimer    fixedpoint.Fixed
	CoordinationBonus fixedpoint.Fixed
	LastSuccessTime   fixedpoint.Fixed
	LastFailureTime   fixedpoint.Fixed

	leaderID uint32
	hasLeader bool

	vocalizations *ring.Buffer[Vocalization]
	cooldowns     map[uint32]fixedpoint.Fixed // per-wolf next-allowed-vocalization time

	// rollingSuccessRate estimates player skill: fraction of recent
	// Harass attempts that ended in Regroup (success) vs Retreat
	// (failure), used by plan selection.
	rollingSuccessRate fixedpoint.Fixed
}

// NewPack constructs an empty pack.
func NewPack(id uint32) *Pack {
	return &Pack{
		ID:                 id,
		Morale:             fixedpoint.One,
		CoordinationBonus:  0,
		rollingSuccessRate: fixedpoint.FromFloat(0.5),
		vocalizations:      ring.New[Vocalization](MaxVocalizations),
		cooldowns:          make(map[uint32]fixedpoint.Fixed),
	}
}

// AddMember registers a wolf with the pack if under MaxPackMembers.
func (p *Pack) AddMember(wolfID uint32) bool {
	if len(p.MemberIDs) >= MaxPackMembers {
		return false
	}
	p.MemberIDs = append(p.MemberIDs, wolfID)
	return true
}

// LeaderID returns the current Lead member's id and whether one is
// assigned; a pack has at most one Lead, per the invariant in spec §3.
func (p *Pack) LeaderID() (uint32, bool) { return p.leaderID, p.hasLeader }

// RollingSuccessRate returns the pack's player-skill estimate, used by the
// snapshot encoder.
func (p *Pack) RollingSuccessRate() fixedpoint.Fixed { return p.rollingSuccessRate }

// RestoreFields reconstructs the private bookkeeping fields (leader
// assignment, rolling success rate) from a snapshot, since assignRoles is
// not re-run on load (role assignment is deterministic from member stats,
// but load_state must reproduce the exact saved state rather than
// recompute it).
func (p *Pack) RestoreFields(leaderID uint32, hasLeader bool, rollingSuccessRate fixedpoint.Fixed) {
	p.leaderID = leaderID
	p.hasLeader = hasLeader
	p.rollingSuccessRate = rollingSuccessRate
}

// PlanInputs carries per-tick inputs to plan selection. Plan selection
// reads member count, AverageHealth and the pack's rolling player-skill
// estimate; NearbyHazardous is carried but not read by the plan rules.
type PlanInputs struct {
	AverageHealth   fixedpoint.Fixed
	NearbyHazardous bool
}

// UpdatePlan advances the pack-level FSM: Observe -> Commit (roles locked;
// no vocalization is emitted) -> Harass (parallel role maneuvers) -> Retreat or
// Regroup, feeding back into morale/coordination_bonus.
func (p *Pack) UpdatePlan(members []*Wolf, in PlanInputs, dt fixedpoint.Fixed, now fixedpoint.Fixed) {
	p.SyncTimer = p.SyncTimer.Add(dt)

	switch p.Plan {
	case PlanObserve:
		if p.shouldCommit(members, in) {
			p.assignRoles(members)
			p.Plan = PlanCommit
			p.SyncTimer = 0
		}
	case PlanCommit:
		if p.SyncTimer > fixedpoint.FromFloat(0.5) {
			p.Plan = PlanHarass
			p.SyncTimer = 0
		}
	case PlanHarass:
		if p.harassOutcome(members, in) == PlanRegroup {
			p.onSuccess(now)
			p.Plan = PlanRegroup
		} else if p.harassOutcome(members, in) == PlanRetreat {
			p.onFailure(now)
			p.Plan = PlanRetreat
		}
	case PlanRetreat, PlanRegroup:
		if p.SyncTimer > fixedpoint.FromFloat(2.0) {
			p.Plan = PlanObserve
			p.SyncTimer = 0
		}
	}
}

func (p *Pack) shouldCommit(members []*Wolf, in PlanInputs) bool {
	if len(members) < 2 {
		return false
	}
	if in.AverageHealth < fixedpoint.FromFloat(0.2) {
		return false
	}
	// Commit more readily against a player estimated to be struggling
	// (low rolling success rate against the pack).
	threshold := fixedpoint.FromFloat(0.3)
	if p.rollingSuccessRate < fixedpoint.FromFloat(0.4) {
		threshold = fixedpoint.FromFloat(0.15)
	}
	return p.Morale > threshold
}

// harassOutcome is a pure read of current conditions; callers only act on
// transitions (see UpdatePlan), so calling it twice per tick is safe and
// keeps the decision logic in one place.
func (p *Pack) harassOutcome(members []*Wolf, in PlanInputs) PlanState {
	aliveCount := 0
	for _, m := range members {
		if m.HP > 0 {
			aliveCount++
		}
	}
	if aliveCount == 0 || in.AverageHealth < fixedpoint.FromFloat(0.15) {
		return PlanRetreat
	}
	if p.SyncTimer > fixedpoint.FromFloat(4.0) {
		return PlanRegroup
	}
	return PlanHarass
}

func (p *Pack) onSuccess(now fixedpoint.Fixed) {
	p.LastSuccessTime = now
	p.Morale = p.Morale.Add(fixedpoint.FromFloat(0.1)).Clamp(0, fixedpoint.One)
	p.CoordinationBonus = p.CoordinationBonus.Add(fixedpoint.FromFloat(0.05)).Clamp(0, fixedpoint.One)
	p.rollingSuccessRate = p.rollingSuccessRate.Mul(fixedpoint.FromFloat(0.8)).Add(fixedpoint.FromFloat(0.2))
}

func (p *Pack) onFailure(now fixedpoint.Fixed) {
	p.LastFailureTime = now
	p.Morale = p.Morale.Sub(fixedpoint.FromFloat(0.15)).Clamp(0, fixedpoint.One)
	p.CoordinationBonus = p.CoordinationBonus.Sub(fixedpoint.FromFloat(0.1)).Clamp(0, fixedpoint.One)
	p.rollingSuccessRate = p.rollingSuccessRate.Mul(fixedpoint.FromFloat(0.8))
}

// assignRoles chooses at most one Lead by hp*coordination score with ties
// broken by smallest id, then fills Flanker/Support/Chaser in id order,
// per spec §4.6.
func (p *Pack) assignRoles(members []*Wolf) {
	if len(members) == 0 {
		p.hasLeader = false
		return
	}
	sorted := append([]*Wolf(nil), members...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	bestIdx := -1
	var bestScore fixedpoint.Fixed
	for i, m := range sorted {
		score := m.HP.Mul(m.Coordination)
		if bestIdx == -1 || score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	for i, m := range sorted {
		switch {
		case i == bestIdx:
			m.Role = Lead
		case i%3 == 0:
			m.Role = Flanker
		case i%3 == 1:
			m.Role = Support
		default:
			m.Role = Chaser
		}
	}
	p.leaderID = sorted[bestIdx].ID
	p.hasLeader = true
}
