package planner

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"arbiter/internal/schema"
)

func TestBTPlannerScansWhenCalm(t *testing.T) {
	p := NewBTPlanner(schema.PolicyDefault)
	intent := p.Plan(1, calmSnap(2.0))
	if intent.PlanID != "bt-2000" {
		t.Errorf("plan id = %q, want bt-2000", intent.PlanID)
	}
	want := []schema.ActionStep{schema.Scan{Radius: 10}}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestBTPlannerHealsBrokenMorale(t *testing.T) {
	p := NewBTPlanner(schema.PolicyDefault)
	snap := combatSnap(1.0, 2)
	snap.Me.Morale = 10
	want := []schema.ActionStep{schema.Heal{}}
	if diff := cmp.Diff(want, p.Plan(1, snap).Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestBTPlannerAttackInRange(t *testing.T) {
	p := NewBTPlanner(schema.PolicyDefault)
	want := []schema.ActionStep{schema.Attack{TargetID: 9}}
	if diff := cmp.Diff(want, p.Plan(1, combatSnap(1.0, 2)).Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestBTPlannerAdvanceOutOfRange(t *testing.T) {
	p := NewBTPlanner(schema.PolicyDefault)
	want := []schema.ActionStep{schema.MoveTo{X: 6, Y: 5}}
	if diff := cmp.Diff(want, p.Plan(1, combatSnap(1.0, 5)).Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestBTPlannerReloadSpansTwoTicks(t *testing.T) {
	p := NewBTPlanner(schema.PolicyDefault)
	snap := combatSnap(1.0, 5)
	snap.Me.Ammo = 0

	first := p.Plan(1, snap)
	want := []schema.ActionStep{schema.Reload{}}
	if diff := cmp.Diff(want, first.Steps); diff != "" {
		t.Errorf("first tick (-want +got):\n%s", diff)
	}

	// The second tick completes the reload channel. No leaf emits a step, so
	// the planner substitutes the degenerate wait plan.
	second := p.Plan(1, snap)
	want = []schema.ActionStep{schema.Wait{Duration: 1}}
	if diff := cmp.Diff(want, second.Steps); diff != "" {
		t.Errorf("second tick (-want +got):\n%s", diff)
	}
}

func TestBTPlannerClearStateResetsProgress(t *testing.T) {
	p := NewBTPlanner(schema.PolicyDefault)
	snap := combatSnap(1.0, 5)
	snap.Me.Ammo = 0

	p.Plan(1, snap)
	p.ClearState(1)

	// A fresh tree starts the reload channel over.
	intent := p.Plan(1, snap)
	want := []schema.ActionStep{schema.Reload{}}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestBTPlannerStatePerAgent(t *testing.T) {
	p := NewBTPlanner(schema.PolicyDefault)
	snap := combatSnap(1.0, 5)
	snap.Me.Ammo = 0

	p.Plan(1, snap)
	// Agent 2 has its own blackboard, so its reload starts from scratch.
	intent := p.Plan(2, snap)
	want := []schema.ActionStep{schema.Reload{}}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
