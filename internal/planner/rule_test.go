package planner

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"arbiter/internal/schema"
)

func TestRulePlannerNoEnemy(t *testing.T) {
	p := NewRulePlanner(schema.PolicyDefault)
	intent := p.Plan(1, calmSnap(2.0))
	if intent.PlanID != "plan-2000" {
		t.Errorf("plan id = %q, want plan-2000", intent.PlanID)
	}
	if len(intent.Steps) != 0 {
		t.Errorf("no-enemy tick should be a no-op, got %v", intent.Steps)
	}
}

func TestRulePlannerZeroAmmo(t *testing.T) {
	snap := combatSnap(1.0, 4)
	snap.Me.Ammo = 0

	intent := NewRulePlanner(schema.PolicyDefault).Plan(1, snap)
	want := []schema.ActionStep{schema.Reload{}}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("default policy (-want +got):\n%s", diff)
	}

	intent = NewRulePlanner(schema.PolicyDefensive).Plan(1, snap)
	want = []schema.ActionStep{
		schema.Reload{},
		schema.Retreat{TargetID: 9, Distance: 3},
	}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("defensive policy (-want +got):\n%s", diff)
	}
}

func TestRulePlannerSmokeAdvance(t *testing.T) {
	snap := combatSnap(1.0, 4) // enemy at (9,5), smoke off cooldown
	intent := NewRulePlanner(schema.PolicyDefault).Plan(1, snap)
	want := []schema.ActionStep{
		schema.Throw{Item: "smoke", X: 7, Y: 5},
		schema.MoveTo{X: 7, Y: 5},
		schema.CoverFire{TargetID: 9, Duration: 2.5},
	}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRulePlannerDirectAdvance(t *testing.T) {
	want := []schema.ActionStep{
		schema.MoveTo{X: 6, Y: 5},
		schema.CoverFire{TargetID: 9, Duration: 1.5},
	}

	// The aggressive policy never spends the smoke grenade.
	intent := NewRulePlanner(schema.PolicyAggressive).Plan(1, combatSnap(1.0, 4))
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("aggressive policy (-want +got):\n%s", diff)
	}

	// Smoke on cooldown takes the same direct branch.
	snap := combatSnap(1.0, 4)
	snap.Me.Cooldowns["throw:smoke"] = 5
	intent = NewRulePlanner(schema.PolicyDefault).Plan(1, snap)
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("smoke cooling down (-want +got):\n%s", diff)
	}
}

func TestRulePlannerUnknownPolicy(t *testing.T) {
	p := NewRulePlanner(schema.PolicyID("berserk"))
	snap := combatSnap(1.0, 4)
	snap.Me.Ammo = 0
	intent := p.Plan(1, snap)
	// Unknown identifiers resolve to the default policy, which does not retreat.
	want := []schema.ActionStep{schema.Reload{}}
	if diff := cmp.Diff(want, intent.Steps); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
