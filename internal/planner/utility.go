package planner

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"arbiter/internal/logging"
	"arbiter/internal/schema"
)

// =============================================================================
// UTILITY PLANNER - weighted candidate scoring
// =============================================================================
// Each candidate action carries a scoring expression evaluated against
// snapshot features. The candidate with the highest score wins; ties break by
// declaration order so results are deterministic. Expressions are compiled
// once at construction, so a bad expression is a configuration error, never a
// tick-time failure.

// UtilityCandidate is one scored tactic.
type UtilityCandidate struct {
	Name  string
	Score string // expr expression over snapshot features
	build func(snap *schema.PerceptionSnapshot) []schema.ActionStep

	program *vm.Program
}

// UtilityPlanner scores candidates and picks the arg-max.
type UtilityPlanner struct {
	candidates []UtilityCandidate
}

// scoreEnv builds the feature environment a scoring expression sees.
func scoreEnv(snap *schema.PerceptionSnapshot) map[string]interface{} {
	distNearest := 9999.0
	enemyHP := 0.0
	if e := snap.NearestEnemy(); e != nil {
		distNearest = float64(snap.Me.Pos.Manhattan(e.Pos))
		enemyHP = float64(e.HP)
	}
	smokeReady := 0.0
	if snap.Me.Cooldowns["throw:smoke"] <= 0 {
		smokeReady = 1.0
	}
	return map[string]interface{}{
		"t":            snap.T,
		"ammo":         float64(snap.Me.Ammo),
		"morale":       snap.Me.Morale,
		"enemies":      float64(len(snap.Enemies)),
		"dist_nearest": distNearest,
		"enemy_hp":     enemyHP,
		"player_hp":    float64(snap.Player.HP),
		"smoke_ready":  smokeReady,
	}
}

// DefaultUtilityCandidates returns the built-in candidate set. Declaration
// order is the tie-break order.
func DefaultUtilityCandidates() []UtilityCandidate {
	return []UtilityCandidate{
		{
			Name:  "reload",
			Score: "ammo <= 0 && enemies > 0 ? 100.0 : 0.0",
			build: func(snap *schema.PerceptionSnapshot) []schema.ActionStep {
				return []schema.ActionStep{schema.Reload{}}
			},
		},
		{
			Name:  "recover",
			Score: "morale < 30 ? 90.0 : 0.0",
			build: func(snap *schema.PerceptionSnapshot) []schema.ActionStep {
				return []schema.ActionStep{schema.Heal{}}
			},
		},
		{
			Name:  "engage_close",
			Score: "enemies > 0 && dist_nearest <= 3 && ammo > 0 ? 60.0 + (3.0 - dist_nearest) * 5.0 : 0.0",
			build: func(snap *schema.PerceptionSnapshot) []schema.ActionStep {
				e := snap.NearestEnemy()
				me := snap.Me.Pos
				return []schema.ActionStep{
					schema.MoveTo{X: me.X + sign(e.Pos.X-me.X), Y: me.Y + sign(e.Pos.Y-me.Y)},
					schema.CoverFire{TargetID: e.ID, Duration: 1.0},
				}
			},
		},
		{
			Name:  "advance",
			Score: "enemies > 0 && dist_nearest > 3 ? 40.0 : 0.0",
			build: func(snap *schema.PerceptionSnapshot) []schema.ActionStep {
				e := snap.NearestEnemy()
				me := snap.Me.Pos
				return []schema.ActionStep{
					schema.MoveTo{X: me.X + sign(e.Pos.X-me.X), Y: me.Y + sign(e.Pos.Y-me.Y)},
				}
			},
		},
		{
			Name:  "observe",
			Score: "1.0",
			build: func(snap *schema.PerceptionSnapshot) []schema.ActionStep {
				return []schema.ActionStep{schema.Scan{Radius: 10}}
			},
		},
	}
}

// NewUtilityPlanner compiles the candidate set. Overrides maps candidate name
// to a replacement scoring expression (from config); unknown names are
// rejected so a typo is caught at boot.
func NewUtilityPlanner(overrides map[string]string) (*UtilityPlanner, error) {
	candidates := DefaultUtilityCandidates()

	known := make(map[string]int, len(candidates))
	for i, c := range candidates {
		known[c.Name] = i
	}
	for name, src := range overrides {
		i, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown utility candidate %q", name)
		}
		candidates[i].Score = src
	}

	env := scoreEnv(&schema.PerceptionSnapshot{})
	for i := range candidates {
		program, err := expr.Compile(candidates[i].Score, expr.Env(env), expr.AsFloat64())
		if err != nil {
			return nil, fmt.Errorf("compile score for %q: %w", candidates[i].Name, err)
		}
		candidates[i].program = program
	}
	return &UtilityPlanner{candidates: candidates}, nil
}

func (p *UtilityPlanner) Name() string { return "utility" }

// Plan scores every candidate and returns the arg-max plan. A scoring runtime
// error zeroes that candidate rather than failing the tick.
func (p *UtilityPlanner) Plan(agentID uint32, snap *schema.PerceptionSnapshot) schema.Intent {
	env := scoreEnv(snap)

	bestIdx := -1
	bestScore := 0.0
	for i := range p.candidates {
		out, err := expr.Run(p.candidates[i].program, env)
		if err != nil {
			logging.PlannerDebug("UtilityPlanner: candidate %s scoring failed: %v", p.candidates[i].Name, err)
			continue
		}
		score := out.(float64)
		// Strictly greater: earlier declaration wins ties.
		if bestIdx == -1 || score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	intent := schema.Intent{PlanID: planID("utility", snap.T)}
	if bestIdx >= 0 {
		intent.Steps = p.candidates[bestIdx].build(snap)
		logging.PlannerDebug("UtilityPlanner: agent=%d picked %s (score=%.1f)",
			agentID, p.candidates[bestIdx].Name, bestScore)
	}
	return intent
}
