package director

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"arbiter/internal/llm"
	"arbiter/internal/logging"
	"arbiter/internal/schema"
	"arbiter/internal/world"
)

// Advisor asks a language model for director operations. The reply is decoded
// with the same leniency as companion plans: unknown ops are dropped, and a
// reply that yields nothing usable is reported as an error so the caller can
// simply skip the intervention this cycle.
type Advisor struct {
	client llm.Client
}

// NewAdvisor wraps a completion client.
func NewAdvisor(client llm.Client) *Advisor {
	return &Advisor{client: client}
}

// PlanOps requests a batch of operations for the current world.
func (a *Advisor) PlanOps(ctx context.Context, s *world.State, budget *Budget, intensity string) (schema.DirectorPlan, error) {
	prompt := buildDirectorPrompt(s, budget, intensity)
	raw, err := a.client.Complete(ctx, prompt)
	if err != nil {
		return schema.DirectorPlan{}, fmt.Errorf("director advisor: %w", err)
	}
	plan, err := parseDirectorPlan(raw)
	if err != nil {
		return schema.DirectorPlan{}, err
	}
	logging.Director("PlanOps: advisor proposed %s", Describe(plan))
	return plan, nil
}

func buildDirectorPrompt(s *world.State, budget *Budget, intensity string) string {
	var b strings.Builder
	b.WriteString("You are a tactical encounter director for a grid combat simulation.\n")
	b.WriteString("Respond with JSON only, no prose, in this shape:\n")
	b.WriteString(`{"ops":[{"op":"Fortify","rect":{"x0":0,"y0":0,"x1":3,"y1":3}},` + "\n")
	b.WriteString(` {"op":"Collapse","a":{"x":1,"y":1},"b":{"x":4,"y":1}},` + "\n")
	b.WriteString(` {"op":"SpawnWave","archetype":"grunt","count":3,"origin":{"method":"NearPlayer","radius":5}}]}` + "\n\n")
	fmt.Fprintf(&b, "Grid: %dx%d at t=%.1f. Budget: %s. Intensity target: %s.\n",
		s.Width, s.Height, s.T, budget, intensity)
	if player := findPlayer(s); player != nil {
		fmt.Fprintf(&b, "Player at (%d,%d) with %d hp.\n", player.Pos.X, player.Pos.Y, player.HP)
	}
	enemies := 0
	for _, e := range s.Entities {
		if e.Team == world.TeamEnemy && e.HP > 0 {
			enemies++
		}
	}
	fmt.Fprintf(&b, "Living enemies: %d.\n", enemies)
	b.WriteString("Propose at most 3 ops that fit the budget.\n")
	return b.String()
}

// parseDirectorPlan decodes a reply, stripping a markdown code fence if the
// model wrapped the JSON in one.
func parseDirectorPlan(raw string) (schema.DirectorPlan, error) {
	text := strings.TrimSpace(raw)
	if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
		text = strings.TrimPrefix(text, "json")
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
		text = strings.TrimSpace(text)
	}
	var plan schema.DirectorPlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return schema.DirectorPlan{}, fmt.Errorf("parse director plan: %w", err)
	}
	if len(plan.Ops) == 0 {
		return schema.DirectorPlan{}, fmt.Errorf("parse director plan: no usable ops")
	}
	return plan, nil
}
