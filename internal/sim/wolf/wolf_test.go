package wolf

import (
	"testing"

	"wolfpit/internal/sim/fixedpoint"
)

func TestIdleToProwlOnVisibility(t *testing.T) {
	w := NewWolf(1, Normal, fixedpoint.Vec2{}, 0)
	w.UpdatePlan(Perception{PlayerVisible: true, DistanceToPlayer: fixedpoint.One}, fixedpoint.FromFloat(0.1))
	if w.State != Prowl {
		t.Fatalf("State = %v, want Prowl", w.State)
	}
}

func TestLowHPForcesRetreatFromAnyState(t *testing.T) {
	w := NewWolf(1, Normal, fixedpoint.Vec2{}, 0)
	w.State = Harass
	w.HP = fixedpoint.FromFloat(0.05)
	w.UpdatePlan(Perception{}, fixedpoint.FromFloat(0.1))
	if w.State != Retreat {
		t.Fatalf("State = %v, want Retreat on low HP", w.State)
	}
}

func TestFleeOverrideWinsOverEverything(t *testing.T) {
	w := NewWolf(1, Normal, fixedpoint.Vec2{}, 0)
	w.State = Circle
	w.UpdatePerception(Perception{TerrorTriggered: true}, 0)
	w.UpdatePlan(Perception{PlayerVisible: true, PlanState: PlanHarass}, fixedpoint.FromFloat(0.1))
	if w.State != Retreat {
		t.Fatalf("State = %v, want Retreat under flee override", w.State)
	}
}

func TestApplyHitKillsAtZeroHP(t *testing.T) {
	w := NewWolf(1, Normal, fixedpoint.Vec2{}, 0)
	died := w.ApplyHit(fixedpoint.One)
	if !died {
		t.Fatal("full-HP damage should kill the wolf")
	}
}

func TestPackAssignsExactlyOneLead(t *testing.T) {
	pack := NewPack(1)
	var members []*Wolf
	for i := uint32(1); i <= 4; i++ {
		w := NewWolf(i, Normal, fixedpoint.Vec2{}, 0)
		w.HP = fixedpoint.FromFloat(0.5 + float64(i)*0.1)
		w.Coordination = fixedpoint.FromFloat(0.5)
		pack.AddMember(i)
		members = append(members, w)
	}
	pack.assignRoles(members)

	leads := 0
	for _, m := range members {
		if m.Role == Lead {
			leads++
		}
	}
	if leads != 1 {
		t.Fatalf("expected exactly one Lead, got %d", leads)
	}
	leaderID, ok := pack.LeaderID()
	if !ok || leaderID != 4 {
		t.Fatalf("expected wolf 4 (highest hp*coordination) as leader, got %d ok=%v", leaderID, ok)
	}
}

func TestVocalizationCooldownDropsSpam(t *testing.T) {
	pack := NewPack(1)
	v := Vocalization{Type: BarkAlert, WolfID: 7}
	if !pack.Emit(v, fixedpoint.FromInt(0)) {
		t.Fatal("first emit should succeed")
	}
	if pack.Emit(v, fixedpoint.FromFloat(0.1)) {
		t.Fatal("emit within per-wolf cooldown should be dropped")
	}
	if !pack.Emit(v, fixedpoint.FromFloat(1.0)) {
		t.Fatal("emit after cooldown elapses should succeed")
	}
}

func TestReactHowlRallyMovesToSeek(t *testing.T) {
	w := NewWolf(1, Normal, fixedpoint.Vec2{}, 0)
	w.State = Idle
	v := Vocalization{Type: HowlRally, SourcePos: fixedpoint.Vec2{X: fixedpoint.One}}
	React(w, v, 0)
	if w.State != Seek {
		t.Fatalf("State = %v, want Seek after HowlRally", w.State)
	}
}
