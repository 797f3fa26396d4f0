package planner

import (
	"strings"

	"github.com/google/uuid"

	"arbiter/internal/logging"
	"arbiter/internal/schema"
)

// =============================================================================
// HEURISTIC RULES - fallback chain tier 3
// =============================================================================
// An ordered rule table evaluated top to bottom; the first matching condition
// produces the whole plan. The trailing Always rule makes the table total.

// HeuristicCondition names a snapshot predicate.
type HeuristicCondition string

const (
	CondLowMorale         HeuristicCondition = "low_morale"
	CondLowAmmo           HeuristicCondition = "low_ammo"
	CondEnemyNearby       HeuristicCondition = "enemy_nearby"
	CondEnemyVisible      HeuristicCondition = "enemy_visible"
	CondObjectiveContains HeuristicCondition = "objective_contains"
	CondAlways            HeuristicCondition = "always"
)

// HeuristicAction names the plan a matched rule produces.
type HeuristicAction string

const (
	ActHealSelf           HeuristicAction = "heal_self"
	ActReload             HeuristicAction = "reload"
	ActAttackNearestEnemy HeuristicAction = "attack_nearest"
	ActTakeCover          HeuristicAction = "take_cover"
	ActMoveToObjective    HeuristicAction = "move_to_objective"
	ActScan               HeuristicAction = "scan"
)

// HeuristicRule is one condition -> action row.
type HeuristicRule struct {
	Condition HeuristicCondition `yaml:"condition"`
	Threshold float64            `yaml:"threshold,omitempty"` // meaning depends on the condition
	Keywords  []string           `yaml:"keywords,omitempty"`  // for objective_contains
	Action    HeuristicAction    `yaml:"action"`
}

// DefaultHeuristicRules is the built-in rule table, ordered by urgency.
func DefaultHeuristicRules() []HeuristicRule {
	return []HeuristicRule{
		{Condition: CondLowMorale, Threshold: 30, Action: ActHealSelf},
		{Condition: CondLowAmmo, Threshold: 0, Action: ActReload},
		{Condition: CondEnemyNearby, Threshold: 3, Action: ActAttackNearestEnemy},
		{Condition: CondEnemyVisible, Action: ActTakeCover},
		{Condition: CondObjectiveContains, Keywords: []string{"extract", "reach"}, Action: ActMoveToObjective},
		{Condition: CondAlways, Action: ActScan},
	}
}

// HeuristicPlanner evaluates the rule table. It is also usable as a plain
// Strategy outside the fallback chain.
type HeuristicPlanner struct {
	rules []HeuristicRule
}

// NewHeuristicPlanner creates a planner; nil rules use the default table.
func NewHeuristicPlanner(rules []HeuristicRule) *HeuristicPlanner {
	if rules == nil {
		rules = DefaultHeuristicRules()
	}
	return &HeuristicPlanner{rules: rules}
}

func (p *HeuristicPlanner) Name() string { return "heuristic" }

// Plan returns the plan of the first matching rule.
func (p *HeuristicPlanner) Plan(agentID uint32, snap *schema.PerceptionSnapshot) schema.Intent {
	intent := schema.Intent{PlanID: "heuristic-" + uuid.NewString()}
	for _, rule := range p.rules {
		if !ruleMatches(rule, snap) {
			continue
		}
		intent.Steps = buildRuleSteps(rule.Action, snap)
		logging.FallbackDebug("HeuristicPlanner: agent=%d matched %s -> %s",
			agentID, rule.Condition, rule.Action)
		return intent
	}
	// Unreachable with a default table; a custom table without Always can
	// fall through to an empty plan, which is still valid.
	return intent
}

func ruleMatches(rule HeuristicRule, snap *schema.PerceptionSnapshot) bool {
	switch rule.Condition {
	case CondLowMorale:
		return snap.Me.Morale < rule.Threshold
	case CondLowAmmo:
		return float64(snap.Me.Ammo) <= rule.Threshold
	case CondEnemyNearby:
		e := snap.NearestEnemy()
		return e != nil && float64(snap.Me.Pos.Manhattan(e.Pos)) <= rule.Threshold
	case CondEnemyVisible:
		return len(snap.Enemies) > 0
	case CondObjectiveContains:
		obj := strings.ToLower(snap.Objective)
		for _, kw := range rule.Keywords {
			if strings.Contains(obj, kw) {
				return true
			}
		}
		return false
	case CondAlways:
		return true
	}
	return false
}

func buildRuleSteps(action HeuristicAction, snap *schema.PerceptionSnapshot) []schema.ActionStep {
	switch action {
	case ActHealSelf:
		return []schema.ActionStep{schema.Heal{}}
	case ActReload:
		return []schema.ActionStep{schema.Reload{}}
	case ActAttackNearestEnemy:
		if e := snap.NearestEnemy(); e != nil {
			return []schema.ActionStep{schema.Attack{TargetID: e.ID}}
		}
		return []schema.ActionStep{schema.Scan{Radius: 10}}
	case ActTakeCover:
		return []schema.ActionStep{schema.TakeCover{}}
	case ActMoveToObjective:
		for _, poi := range snap.POIs {
			if poi.Kind == "objective" || poi.Kind == "extract" {
				return []schema.ActionStep{schema.MoveTo{X: poi.Pos.X, Y: poi.Pos.Y}}
			}
		}
		return []schema.ActionStep{schema.Scan{Radius: 10}}
	case ActScan:
		return []schema.ActionStep{schema.Scan{Radius: 10}}
	}
	return []schema.ActionStep{schema.Wait{Duration: 1}}
}
