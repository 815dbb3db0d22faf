// Package input implements component C6: validating and normalizing the
// per-frame input record, deriving button edges by comparing against the
// prior frame, and buffering recent presses so a press slightly before a
// state accepts it still registers (the 120ms input buffer named in
// spec §4.2's canonical timings).
package input

import "wolfpit/internal/sim/fixedpoint"

// BufferMillis is the input buffer window: a press registered up to this
// long before the combat state machine is ready to accept it still counts.
const BufferMillis = 120

// Record is the bit-exact per-frame, per-player input contract (spec §3
// "Input record"). move_x/move_y are Fixed values clamped to [-1,1];
// button fields are single-bit press states for the current frame.
type Record struct {
	MoveX, MoveY fixedpoint.Fixed
	LeftHand     bool
	RightHand    bool
	Special      bool
	Jump         bool
	RollRequest  bool
	BlockRequest bool

	// The *_Edge fields are derived by the Manager, not supplied by the
	// caller; NewRecordFromFloats always zeroes them and Manager.Process overwrites
	// them from the prior-frame comparison.
	LightAttackEdge    bool
	HeavyAttackEdge    bool
	SpecialEdge        bool
	SpecialReleaseEdge bool
}

// NewRecordFromFloats builds a Record from raw float input, clamping to
// [-1,1] and rounding deterministically via fixedpoint.FromFloat, per the
// spec §4.1 boundary-conversion rule.
func NewRecordFromFloats(moveX, moveY float64, leftHand, rightHand, special, jump, roll, block bool) Record {
	clamp := func(v float64) float64 {
		if v > 1 {
			return 1
		}
		if v < -1 {
			return -1
		}
		return v
	}
	return Record{
		MoveX:        fixedpoint.FromFloat(clamp(moveX)),
		MoveY:        fixedpoint.FromFloat(clamp(moveY)),
		LeftHand:     leftHand,
		RightHand:    rightHand,
		Special:      special,
		Jump:         jump,
		RollRequest:  roll,
		BlockRequest: block,
	}
}

// pressState tracks how long a hand button has been held, in frames, so
// the manager can distinguish a light tap from a heavy hold
// (light-vs-heavy inference named in spec §3).
type pressState struct {
	held      bool
	heldTicks int32
	// heavyFired latches once a sustained hold has already buffered a
	// heavy edge, so release doesn't buffer a second one.
	heavyFired bool
}

// LightHeavyThresholdTicks is the hold duration (in ticks) at which a
// hand-button press is classified as a heavy attack rather than light.
const LightHeavyThresholdTicks = 12 // ~200ms at 60Hz

// Manager holds one player's edge-detection state and buffered presses.
type Manager struct {
	prior Record

	leftPress  pressState
	rightPress pressState

	// bufferedLight/Heavy/Special record the tick at which a press edge
	// was observed; a consumer calling ConsumeBuffered within
	// BufferMillis of that tick still sees it as pending.
	bufferedLightTick   int64
	bufferedHeavyTick   int64
	bufferedSpecialTick int64
	hasBufferedLight    bool
	hasBufferedHeavy    bool
	hasBufferedSpecial  bool

	tickMillis int64
}

// NewManager constructs a Manager; tickMillis is the fixed frame duration
// in milliseconds, used to convert BufferMillis into a tick count.
func NewManager(tickMillis int64) *Manager {
	if tickMillis <= 0 {
		tickMillis = 16
	}
	return &Manager{tickMillis: tickMillis}
}

// Process derives edges for this frame by comparing rec against the prior
// frame's record, updates hand hold-duration tracking for light/heavy
// inference, and returns the enriched Record. currentTick is the
// simulation's monotonic frame counter.
func (m *Manager) Process(rec Record, currentTick int64) Record {
	rec.LightAttackEdge, rec.HeavyAttackEdge = m.deriveHandEdge(rec, currentTick)
	rec.SpecialEdge = rec.Special && !m.prior.Special
	rec.SpecialReleaseEdge = !rec.Special && m.prior.Special
	if rec.SpecialEdge {
		m.bufferedSpecialTick = currentTick
		m.hasBufferedSpecial = true
	}

	m.prior = rec
	return rec
}

func (m *Manager) deriveHandEdge(rec Record, currentTick int64) (lightEdge, heavyEdge bool) {
	lightEdge = m.trackHand(&m.leftPress, rec.LeftHand, currentTick, true)
	heavyFromRight := m.trackHand(&m.rightPress, rec.RightHand, currentTick, false)
	return lightEdge, heavyFromRight
}

// trackHand updates a single hand's press-duration tracker. A hold that
// crosses LightHeavyThresholdTicks buffers a heavy edge immediately, while
// the button is still held, rather than waiting for release — entering
// Windup(Heavy) requires only sustaining the hold, per spec §4.2. A short
// press classifies as light on release and buffers a light edge only when
// preferLightOnShort is true (the left hand); a short right-hand press
// buffers nothing.
func (m *Manager) trackHand(ps *pressState, pressed bool, currentTick int64, preferLightOnShort bool) bool {
	if pressed {
		if !ps.held {
			ps.held = true
			ps.heldTicks = 0
			ps.heavyFired = false
		} else {
			ps.heldTicks++
		}
		if !ps.heavyFired && ps.heldTicks >= LightHeavyThresholdTicks {
			m.bufferedHeavyTick = currentTick
			m.hasBufferedHeavy = true
			ps.heavyFired = true
		}
		return false
	}

	fired := false
	if ps.held {
		ps.held = false
		if ps.heldTicks < LightHeavyThresholdTicks {
			if preferLightOnShort {
				m.bufferedLightTick = currentTick
				m.hasBufferedLight = true
				fired = true
			}
		} else if !ps.heavyFired {
			m.bufferedHeavyTick = currentTick
			m.hasBufferedHeavy = true
		}
		ps.heldTicks = 0
		ps.heavyFired = false
	}
	return fired
}

// ConsumeBuffered reports and clears a buffered edge if it was set within
// BufferMillis of currentTick, implementing the input-buffer tolerance
// named in spec §4.2's canonical timings.
func (m *Manager) ConsumeBuffered(kind EdgeKind, currentTick int64) bool {
	bufferTicks := BufferMillis / m.tickMillis
	switch kind {
	case LightEdge:
		if m.hasBufferedLight && currentTick-m.bufferedLightTick <= bufferTicks {
			m.hasBufferedLight = false
			return true
		}
	case HeavyEdge:
		if m.hasBufferedHeavy && currentTick-m.bufferedHeavyTick <= bufferTicks {
			m.hasBufferedHeavy = false
			return true
		}
	case SpecialEdgeKind:
		if m.hasBufferedSpecial && currentTick-m.bufferedSpecialTick <= bufferTicks {
			m.hasBufferedSpecial = false
			return true
		}
	}
	return false
}

// EdgeKind selects which buffered edge ConsumeBuffered inspects.
type EdgeKind uint8

const (
	LightEdge EdgeKind = iota
	HeavyEdge
	SpecialEdgeKind
)

// RollGesture reports whether the current record's Special+direction latch
// constitutes a roll gesture (Special held while a movement direction is
// active), per spec §3's "direction-active latch for Special+direction =
// Roll gesture".
func RollGesture(rec Record) bool {
	const deadzone = fixedpoint.Fixed(3277) // ~0.05 in Fixed
	return rec.Special && (rec.MoveX.Abs() > deadzone || rec.MoveY.Abs() > deadzone)
}
