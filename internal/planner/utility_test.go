package planner

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"arbiter/internal/schema"
)

func newUtility(t *testing.T, overrides map[string]string) *UtilityPlanner {
	t.Helper()
	p, err := NewUtilityPlanner(overrides)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestUtilityPlannerObserveByDefault(t *testing.T) {
	p := newUtility(t, nil)
	intent := p.Plan(1, calmSnap(3.0))
	if intent.PlanID != "utility-3000" {
		t.Errorf("plan id = %q, want utility-3000", intent.PlanID)
	}
	want := []schema.ActionStep{schema.Scan{Radius: 10}}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestUtilityPlannerReloadDominates(t *testing.T) {
	p := newUtility(t, nil)
	snap := combatSnap(1.0, 2)
	snap.Me.Ammo = 0
	snap.Me.Morale = 10 // recover scores 90, reload 100

	intent := p.Plan(1, snap)
	want := []schema.ActionStep{schema.Reload{}}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestUtilityPlannerEngageClose(t *testing.T) {
	p := newUtility(t, nil)
	intent := p.Plan(1, combatSnap(1.0, 2))
	want := []schema.ActionStep{
		schema.MoveTo{X: 6, Y: 5},
		schema.CoverFire{TargetID: 9, Duration: 1.0},
	}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestUtilityPlannerAdvanceWhenFar(t *testing.T) {
	p := newUtility(t, nil)
	intent := p.Plan(1, combatSnap(1.0, 6))
	want := []schema.ActionStep{schema.MoveTo{X: 6, Y: 5}}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestUtilityPlannerTieBreaksByDeclarationOrder(t *testing.T) {
	// recover and observe both score 1.0; recover is declared first and wins.
	p := newUtility(t, map[string]string{"recover": "1.0"})
	intent := p.Plan(1, calmSnap(1.0))
	want := []schema.ActionStep{schema.Heal{}}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestUtilityPlannerRejectsBadOverrides(t *testing.T) {
	_, err := NewUtilityPlanner(map[string]string{"teleport": "1.0"})
	if err == nil || !strings.Contains(err.Error(), "teleport") {
		t.Errorf("unknown candidate name should be rejected, err = %v", err)
	}

	_, err = NewUtilityPlanner(map[string]string{"observe": "ammo +"})
	if err == nil {
		t.Error("malformed scoring expression should fail compilation")
	}
}
