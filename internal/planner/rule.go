package planner

import (
	"arbiter/internal/logging"
	"arbiter/internal/schema"
)

// RulePlanner is a deterministic lookup from snapshot features to a fixed
// tactic. Fastest strategy, always available, and the final non-emergency
// fallback. The policy shifts how far it advances and whether it spends the
// smoke grenade.
type RulePlanner struct {
	policy schema.PolicyID
}

// NewRulePlanner creates a rule planner for the given policy.
func NewRulePlanner(policy schema.PolicyID) *RulePlanner {
	return &RulePlanner{policy: schema.ResolvePolicy(policy)}
}

func (p *RulePlanner) Name() string { return "rule" }

// Plan applies the rule table:
//   - no visible enemy: empty plan (no-op tick)
//   - zero ammo: reload before anything ranged; defensive policy retreats too
//   - smoke grenade ready: smoke the midpoint, advance two cells, suppress
//   - otherwise: advance one cell, suppress briefly
func (p *RulePlanner) Plan(agentID uint32, snap *schema.PerceptionSnapshot) schema.Intent {
	intent := schema.Intent{PlanID: planID("plan", snap.T)}

	enemy := snap.NearestEnemy()
	if enemy == nil {
		return intent
	}

	me := snap.Me.Pos
	dx := sign(enemy.Pos.X - me.X)
	dy := sign(enemy.Pos.Y - me.Y)

	// No ranged attack with zero ammo.
	if snap.Me.Ammo <= 0 {
		intent.Steps = append(intent.Steps, schema.Reload{})
		if p.policy == schema.PolicyDefensive {
			intent.Steps = append(intent.Steps, schema.Retreat{TargetID: enemy.ID, Distance: 3})
		}
		logging.PlannerDebug("RulePlanner: agent=%d zero ammo, reloading (policy=%s)", agentID, p.policy)
		return intent
	}

	smokeReady := snap.Me.Cooldowns["throw:smoke"] <= 0
	if smokeReady && p.policy != schema.PolicyAggressive {
		mid := schema.GridPos{X: (me.X + enemy.Pos.X) / 2, Y: (me.Y + enemy.Pos.Y) / 2}
		intent.Steps = append(intent.Steps,
			schema.Throw{Item: "smoke", X: mid.X, Y: mid.Y},
			schema.MoveTo{X: me.X + 2*dx, Y: me.Y + 2*dy},
			schema.CoverFire{TargetID: enemy.ID, Duration: 2.5},
		)
		return intent
	}

	intent.Steps = append(intent.Steps,
		schema.MoveTo{X: me.X + dx, Y: me.Y + dy},
		schema.CoverFire{TargetID: enemy.ID, Duration: 1.5},
	)
	return intent
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
