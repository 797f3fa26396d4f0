// Package director applies world-scale interventions on a seconds cadence:
// fortifying regions, collapsing passages, and spawning enemy waves. Every
// operation is debited against a replenishing budget; an op the budget cannot
// cover is skipped, never an error.
package director

import (
	"fmt"
	"math"

	"arbiter/internal/logging"
	"arbiter/internal/schema"
	"arbiter/internal/world"
)

// Op costs in budget units. Spawn cost scales with wave size.
const (
	fortifyCost      = 1
	collapseCost     = 1
	spawnCostPerUnit = 1
)

// Archetype hit points. Unknown archetypes get the baseline.
var archetypeHP = map[string]int{
	"grunt":      40,
	"brute":      80,
	"skirmisher": 25,
}

const defaultArchetypeHP = 40

// OpResult records the outcome of one operation in a plan.
type OpResult struct {
	Index   int
	Op      schema.DirectorOp
	Applied bool
	Skipped string // non-empty reason when not applied
	Spawned []uint32
}

// Director applies DirectorPlans to a world under budget control.
type Director struct {
	budget *Budget
	pois   []schema.PointOfInterest
}

// New creates a director with the given budget.
func New(budget *Budget) *Director {
	if budget == nil {
		budget = NewBudget(DefaultPoolConfigs())
	}
	return &Director{budget: budget}
}

// Budget exposes the director's budget for inspection.
func (d *Director) Budget() *Budget { return d.budget }

// SetPOIs replaces the point-of-interest list spawn resolution consults.
func (d *Director) SetPOIs(pois []schema.PointOfInterest) {
	d.pois = append(d.pois[:0], pois...)
}

// Apply advances the budget to the world's clock and applies the plan's
// operations in order. Operations the budget cannot cover are skipped and
// reported, never returned as errors.
func (d *Director) Apply(s *world.State, plan schema.DirectorPlan) []OpResult {
	d.budget.Advance(s.T)
	results := make([]OpResult, 0, len(plan.Ops))
	for i, op := range plan.Ops {
		res := OpResult{Index: i, Op: op}
		switch v := op.(type) {
		case schema.Fortify:
			d.applyFortify(s, v, &res)
		case schema.Collapse:
			d.applyCollapse(s, v, &res)
		case schema.SpawnWave:
			d.applySpawnWave(s, v, &res)
		default:
			res.Skipped = "unhandled op"
		}
		results = append(results, res)
	}
	logging.Director("Apply: %d ops, budget now %s", len(plan.Ops), d.budget)
	return results
}

func (d *Director) applyFortify(s *world.State, op schema.Fortify, res *OpResult) {
	if !d.budget.Spend(BudgetFortify, fortifyCost) {
		res.Skipped = "fortify budget exhausted"
		logging.DirectorDebug("Fortify: skipped, %s", d.budget)
		return
	}
	r := normalizeRect(op.Rect)
	for x := r.X0; x <= r.X1; x++ {
		d.placeObstacle(s, schema.GridPos{X: x, Y: r.Y0})
		d.placeObstacle(s, schema.GridPos{X: x, Y: r.Y1})
	}
	for y := r.Y0 + 1; y < r.Y1; y++ {
		d.placeObstacle(s, schema.GridPos{X: r.X0, Y: y})
		d.placeObstacle(s, schema.GridPos{X: r.X1, Y: y})
	}
	res.Applied = true
	logging.Director("Fortify: perimeter of (%d,%d)-(%d,%d)", r.X0, r.Y0, r.X1, r.Y1)
}

func (d *Director) applyCollapse(s *world.State, op schema.Collapse, res *OpResult) {
	if !d.budget.Spend(BudgetCollapse, collapseCost) {
		res.Skipped = "collapse budget exhausted"
		logging.DirectorDebug("Collapse: skipped, %s", d.budget)
		return
	}
	// Signum-stepped line from A to B, endpoints included.
	p := op.A
	for {
		d.placeObstacle(s, p)
		if p == op.B {
			break
		}
		p.X += sign(op.B.X - p.X)
		p.Y += sign(op.B.Y - p.Y)
	}
	res.Applied = true
	logging.Director("Collapse: line (%d,%d)-(%d,%d)", op.A.X, op.A.Y, op.B.X, op.B.Y)
}

func (d *Director) applySpawnWave(s *world.State, op schema.SpawnWave, res *OpResult) {
	if op.Count == 0 {
		res.Skipped = "empty wave"
		return
	}
	cost := int(op.Count) * spawnCostPerUnit
	if !d.budget.Spend(BudgetSpawn, cost) {
		res.Skipped = "spawn budget exhausted"
		logging.DirectorDebug("SpawnWave: skipped %d %s, %s", op.Count, op.Archetype, d.budget)
		return
	}
	origin := d.resolveOrigin(s, op.Origin)
	hp, ok := archetypeHP[op.Archetype]
	if !ok {
		hp = defaultArchetypeHP
	}
	for k := uint32(0); k < op.Count; k++ {
		pos := schema.GridPos{
			X: origin.X + int(k%3) - 1,
			Y: origin.Y + int(k/3),
		}
		pos = clampToBounds(s, pos)
		id := s.Spawn(pos, hp, 30, world.TeamEnemy)
		res.Spawned = append(res.Spawned, id)
	}
	res.Applied = true
	logging.Director("SpawnWave: %d %s around (%d,%d)", op.Count, op.Archetype, origin.X, origin.Y)
}

// resolveOrigin turns a SpawnLocation into a concrete cell against the
// current world. A location that cannot resolve falls back to the grid
// center rather than failing the wave.
func (d *Director) resolveOrigin(s *world.State, loc schema.SpawnLocation) schema.GridPos {
	center := schema.GridPos{X: s.Width / 2, Y: s.Height / 2}
	switch v := loc.(type) {
	case schema.FixedLocation:
		return v.Pos
	case schema.NearPlayer:
		player := findPlayer(s)
		if player == nil {
			return center
		}
		r := int(math.Max(1, v.Radius))
		return schema.GridPos{X: player.Pos.X + r, Y: player.Pos.Y}
	case schema.AtPOI:
		for _, poi := range d.pois {
			if poi.Kind == v.Kind {
				return poi.Pos
			}
		}
		logging.DirectorDebug("resolveOrigin: no POI of kind %q, using center", v.Kind)
		return center
	case nil:
		return center
	}
	return center
}

func (d *Director) placeObstacle(s *world.State, p schema.GridPos) {
	if s.InBounds(p) && !occupied(s, p) {
		s.AddObstacle(p)
	}
}

func normalizeRect(r schema.Rect) schema.Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

func findPlayer(s *world.State) *world.Entity {
	for _, e := range s.Entities {
		if e.Team == world.TeamPlayer {
			return e
		}
	}
	return nil
}

func clampToBounds(s *world.State, p schema.GridPos) schema.GridPos {
	if p.X < 0 {
		p.X = 0
	}
	if p.X >= s.Width {
		p.X = s.Width - 1
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y >= s.Height {
		p.Y = s.Height - 1
	}
	return p
}

func occupied(s *world.State, p schema.GridPos) bool {
	for _, e := range s.Entities {
		if e.Pos == p && e.HP > 0 {
			return true
		}
	}
	return false
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

// Describe renders a plan for logs.
func Describe(plan schema.DirectorPlan) string {
	out := fmt.Sprintf("%d ops:", len(plan.Ops))
	for _, op := range plan.Ops {
		out += " " + op.Op()
	}
	return out
}
