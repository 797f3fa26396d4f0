// Package planner implements the synchronous planning strategies: rule table,
// behavior tree, utility scoring, and goal-directed search, plus the ensemble
// combiner that votes across them. Every strategy is total: given any
// snapshot it returns an Intent with a non-empty plan identifier, possibly
// with an empty step list, and never blocks.
package planner

import (
	"fmt"

	"arbiter/internal/schema"
)

// Strategy produces an Intent from a snapshot. Implementations must be total
// and must not block; strategies that keep per-agent state key it by agentID.
type Strategy interface {
	// Name identifies the strategy in logs, metrics and ensemble votes.
	Name() string

	// Plan converts the snapshot into an Intent. It must always return a
	// structurally valid Intent; a degenerate wait plan stands in when no
	// meaningful plan exists.
	Plan(agentID uint32, snap *schema.PerceptionSnapshot) schema.Intent
}

// planID builds the timestamp-suffixed plan identifier used by synchronous
// strategies, e.g. "plan-1000" at t=1.0s.
func planID(prefix string, t float64) string {
	return fmt.Sprintf("%s-%d", prefix, int64(t*1000))
}

// waitIntent is the degenerate always-valid plan.
func waitIntent(prefix string, t float64) schema.Intent {
	return schema.Intent{
		PlanID: planID(prefix, t),
		Steps:  []schema.ActionStep{schema.Wait{Duration: 1}},
	}
}
