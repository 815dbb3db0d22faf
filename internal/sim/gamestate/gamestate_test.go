package gamestate

import (
	"testing"

	"wolfpit/internal/sim/fixedpoint"
)

func TestValidTransitionSucceedsAfterMinDuration(t *testing.T) {
	m := NewManager()
	if m.TryTransition(Fight, fixedpoint.FromFloat(0.1)) {
		t.Fatal("transition before minimum duration should be rejected")
	}
	if !m.TryTransition(Fight, fixedpoint.FromFloat(1.5)) {
		t.Fatal("transition after minimum duration should succeed")
	}
	if m.Phase != Fight {
		t.Fatalf("Phase = %v, want Fight", m.Phase)
	}
}

func TestInvalidTransitionRejected(t *testing.T) {
	m := NewManager()
	if m.TryTransition(CashOut, fixedpoint.FromFloat(10)) {
		t.Fatal("Explore->CashOut is not a valid edge and must be rejected")
	}
}

func TestGameOverBypassesMinDuration(t *testing.T) {
	m := NewManager()
	if !m.TryTransition(GameOver, fixedpoint.FromFloat(0.01)) {
		t.Fatal("GameOver transition should bypass the minimum-duration gate")
	}
}

func TestFrameNumberMonotonic(t *testing.T) {
	m := NewManager()
	for i := 0; i < 5; i++ {
		m.AdvanceFrame()
	}
	if m.FrameNumber != 5 {
		t.Fatalf("FrameNumber = %d, want 5", m.FrameNumber)
	}
}

func TestResetPreservesBiome(t *testing.T) {
	m := NewManager()
	m.Biome = 3
	m.Gold = fixedpoint.FromInt(100)
	m.Phase = Fight
	m.Reset()

	if m.Biome != 3 {
		t.Fatalf("Biome = %d, want preserved 3", m.Biome)
	}
	if m.Gold != 0 {
		t.Fatalf("Gold = %v, want reset to 0", m.Gold.ToFloat())
	}
	if m.Phase != Explore {
		t.Fatalf("Phase = %v, want reset to Explore", m.Phase)
	}
}

func TestEntityRegistryRoundTrip(t *testing.T) {
	m := NewManager()
	m.Enemies.Set(2, 55)
	id, ok := m.Enemies.Get(2)
	if !ok || id != 55 {
		t.Fatalf("Get(2) = %d,%v want 55,true", id, ok)
	}
	m.Enemies.Remove(2)
	if _, ok := m.Enemies.Get(2); ok {
		t.Fatal("Get after Remove should report not-found")
	}
}

func TestSpendGoldInsufficientFails(t *testing.T) {
	m := NewManager()
	m.Gold = fixedpoint.FromInt(5)
	if m.SpendGold(fixedpoint.FromInt(10)) {
		t.Fatal("spending more gold than available should fail")
	}
	if m.Gold != fixedpoint.FromInt(5) {
		t.Fatal("failed spend should not alter balance")
	}
}
