package input

import (
	"testing"

	"wolfpit/internal/sim/fixedpoint"
)

func TestNewRecordFromFloatsClamps(t *testing.T) {
	rec := NewRecordFromFloats(2.0, -2.0, false, false, false, false, false, false)
	if rec.MoveX != fixedpoint.One {
		t.Errorf("MoveX = %v, want clamped to 1.0", rec.MoveX.ToFloat())
	}
	if rec.MoveY != fixedpoint.FromInt(-1) {
		t.Errorf("MoveY = %v, want clamped to -1.0", rec.MoveY.ToFloat())
	}
}

func TestSpecialEdgeDetection(t *testing.T) {
	m := NewManager(16)
	rec := NewRecordFromFloats(0, 0, false, false, true, false, false, false)

	r1 := m.Process(rec, 0)
	if !r1.SpecialEdge {
		t.Fatal("first frame with Special held should register an edge")
	}

	r2 := m.Process(rec, 1)
	if r2.SpecialEdge {
		t.Fatal("holding Special on a subsequent frame should not re-edge")
	}
}

func TestLightVsHeavyClassificationByHoldDuration(t *testing.T) {
	m := NewManager(16)

	// Short left-hand tap -> light.
	m.Process(NewRecordFromFloats(0, 0, true, false, false, false, false, false), 0)
	m.Process(NewRecordFromFloats(0, 0, false, false, false, false, false, false), 1)

	if !m.ConsumeBuffered(LightEdge, 1) {
		t.Fatal("short left-hand tap should buffer a light-attack edge")
	}

	// Long right-hand hold -> heavy.
	for i := int64(0); i < LightHeavyThresholdTicks+2; i++ {
		m.Process(NewRecordFromFloats(0, 0, false, true, false, false, false, false), i)
	}
	m.Process(NewRecordFromFloats(0, 0, false, false, false, false, false, false), LightHeavyThresholdTicks+2)

	if !m.ConsumeBuffered(HeavyEdge, LightHeavyThresholdTicks+2) {
		t.Fatal("long right-hand hold should buffer a heavy-attack edge")
	}
}

func TestBufferExpiresAfterWindow(t *testing.T) {
	m := NewManager(16)
	m.Process(NewRecordFromFloats(0, 0, true, false, false, false, false, false), 0)
	m.Process(NewRecordFromFloats(0, 0, false, false, false, false, false, false), 1)

	bufferTicks := int64(BufferMillis / 16)
	if m.ConsumeBuffered(LightEdge, 1+bufferTicks+5) {
		t.Fatal("buffered edge should expire after BufferMillis has elapsed")
	}
}

func TestRollGestureRequiresDirectionAndSpecial(t *testing.T) {
	rec := NewRecordFromFloats(0.5, 0, false, false, true, false, false, false)
	if !RollGesture(rec) {
		t.Fatal("Special held with a movement direction should register as a roll gesture")
	}

	noDir := NewRecordFromFloats(0, 0, false, false, true, false, false, false)
	if RollGesture(noDir) {
		t.Fatal("Special held with no direction should not register as a roll gesture")
	}
}

func TestLegacyAdapterTranslatesButtons(t *testing.T) {
	var adapter LegacyAdapter
	rec := adapter.Translate(LegacyButtons{MoveX: 1, LightAttack: true, Roll: true})
	if !rec.LeftHand {
		t.Fatal("legacy LightAttack should map onto LeftHand press")
	}
	if !rec.RollRequest {
		t.Fatal("legacy Roll should map onto RollRequest")
	}
}
