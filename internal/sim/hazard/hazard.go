package hazard

import "wolfpit/internal/sim/fixedpoint"

// Type enumerates the hazard kinds named in spec §4.5, including the
// biome-specific set.
type Type uint8

const (
	SpikeTrap Type = iota
	Pit
	BearTrap
	PoisonGas
	FireTrap
	IcePatch
	SpikeWall
	ElectricField
	// Biome-specific hazards.
	Foliage
	Mud
	Water
	Quicksand
	Rockfall
	TallGrass
	Wind
)

// Activation describes how a hazard's trigger behaves over time.
type Activation uint8

const (
	Periodic Activation = iota
	OneShot
	Continuous
	Cyclic
)

// StatusEffect is applied to a player caught by an active hazard.
type StatusEffect uint8

const (
	StatusNone StatusEffect = iota
	StatusPoison
	StatusBurn
	StatusSlow
	StatusStun
	StatusShock
	StatusSink // quicksand
	StatusPush // wind
)

// typeProfile holds the static configuration for a hazard Type: its
// activation rule, the status effect it applies, and whether enemies (the
// wolf pack) avoid it. Only ice-patch is non-avoided by default per spec
// §4.5's configurable table.
type typeProfile struct {
	activation   Activation
	status       StatusEffect
	enemyAvoids  bool
}

var profiles = map[Type]typeProfile{
	SpikeTrap:     {OneShot, StatusNone, true},
	Pit:           {OneShot, StatusNone, true},
	BearTrap:      {OneShot, StatusStun, true},
	PoisonGas:     {Continuous, StatusPoison, true},
	FireTrap:      {Periodic, StatusBurn, true},
	IcePatch:      {Continuous, StatusSlow, false},
	SpikeWall:     {Cyclic, StatusNone, true},
	ElectricField: {Cyclic, StatusShock, true},
	Foliage:       {Continuous, StatusNone, false},
	Mud:           {Continuous, StatusSlow, false},
	Water:         {Continuous, StatusSlow, false},
	Quicksand:     {Continuous, StatusSink, true},
	Rockfall:      {OneShot, StatusStun, true},
	TallGrass:     {Continuous, StatusNone, false},
	Wind:          {Continuous, StatusPush, false},
}

// EnemyAvoids reports whether the wolf pack AI should route around hazards
// of this type (spec §4.5's avoidance table).
func EnemyAvoids(t Type) bool {
	p, ok := profiles[t]
	if !ok {
		return true
	}
	return p.enemyAvoids
}

// Record is a single hazard instance.
type Record struct {
	ID           uint32
	Type         Type
	Center       fixedpoint.Vec2
	Radius       fixedpoint.Fixed
	Damage       fixedpoint.Fixed
	Cooldown     fixedpoint.Fixed
	LastTrigger  fixedpoint.Fixed // sim-time of last trigger, in seconds since run start
	Active       bool
	Triggered    bool
	ActivateTime fixedpoint.Fixed
	Duration     fixedpoint.Fixed
}

// Table owns the active hazard set for a run (bounded to MaxHazards).
type Table struct {
	records []Record
	nextID  uint32
}

// NewTable constructs an empty hazard table.
func NewTable() *Table {
	return &Table{}
}

// Add inserts a hazard record if capacity remains; returns false and does
// nothing if the table is already at MaxHazards (bounded, never-panic
// posture consistent with the rest of the kernel).
func (t *Table) Add(typ Type, center fixedpoint.Vec2, radius, damage, cooldown, duration fixedpoint.Fixed) (Record, bool) {
	if len(t.records) >= MaxHazards {
		return Record{}, false
	}
	t.nextID++
	r := Record{
		ID:       t.nextID,
		Type:     typ,
		Center:   center,
		Radius:   radius,
		Damage:   damage,
		Cooldown: cooldown,
		Duration: duration,
		Active:   true,
	}
	t.records = append(t.records, r)
	return r, true
}

// Records returns the current hazard set.
func (t *Table) Records() []Record { return t.records }

// RecordAt returns a pointer to the i-th record so callers (Evaluate's
// caller) can mutate trigger/cooldown state in place.
func (t *Table) RecordAt(i int) *Record { return &t.records[i] }

// Restore rebuilds a Table from previously saved records, used by
// load_state to reproduce the exact hazard set (including trigger history
// and next-id allocation) rather than re-rolling it.
func Restore(records []Record, nextID uint32) *Table {
	return &Table{records: records, nextID: nextID}
}

// NextID reports the id Add will assign next, used by the snapshot encoder.
func (t *Table) NextID() uint32 { return t.nextID }

// TriggerResult describes the outcome of evaluating a hazard against a
// player position on a given simulation tick.
type TriggerResult struct {
	Triggered bool
	Damage    fixedpoint.Fixed
	Status    StatusEffect
}

// Evaluate checks whether playerPos falls inside hazard h's radius at the
// given simTime, applying h's activation rule and h.Cooldown, and
// suppressing damage (but not the status effect roll) when the player is
// rolling (i-frames), per spec §4.5.
func (t *Table) Evaluate(h *Record, playerPos fixedpoint.Vec2, simTime fixedpoint.Fixed, playerIsRolling bool) TriggerResult {
	if !h.Active {
		return TriggerResult{}
	}
	if playerPos.DistanceTo(h.Center) > h.Radius {
		return TriggerResult{}
	}

	switch profiles[h.Type].activation {
	case OneShot:
		if h.Triggered {
			return TriggerResult{}
		}
	case Periodic, Cyclic:
		if h.Triggered && simTime.Sub(h.LastTrigger) < h.Cooldown {
			return TriggerResult{}
		}
	case Continuous:
		// No cooldown gating: applies every tick the player remains inside.
	}

	h.LastTrigger = simTime
	h.Triggered = true

	damage := h.Damage
	if playerIsRolling {
		damage = 0
	}
	return TriggerResult{
		Triggered: true,
		Damage:    damage,
		Status:    profiles[h.Type].status,
	}
}
