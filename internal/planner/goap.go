package planner

import (
	"container/heap"
	"sort"
	"strings"
	"sync"

	"arbiter/internal/logging"
	"arbiter/internal/schema"
)

// =============================================================================
// GOAP PLANNER - goal-directed search over precondition/effect actions
// =============================================================================
// A* over symbolic world states. Search is capped by iteration count and plan
// depth with a visited-state cycle guard; hitting a cap returns the best
// partial plan found so far instead of failing. Per-agent plan caches live in
// an explicit side table keyed by agent id, never in globals.

// GoapConfig caps and weights for the search.
type GoapConfig struct {
	MaxIterations int     // search node expansions before giving up
	MaxDepth      int     // longest action sequence considered
	RiskWeight    float64 // multiplier on accumulated action risk in f-cost
}

// DefaultGoapConfig mirrors the tuned production values.
func DefaultGoapConfig() GoapConfig {
	return GoapConfig{MaxIterations: 10000, MaxDepth: 64, RiskWeight: 5.0}
}

// GoapState is a symbolic world state: named boolean facts.
type GoapState map[string]bool

// key returns a canonical representation for the visited set and plan cache.
func (s GoapState) key() string {
	facts := make([]string, 0, len(s))
	for k, v := range s {
		if v {
			facts = append(facts, k)
		} else {
			facts = append(facts, "!"+k)
		}
	}
	sort.Strings(facts)
	return strings.Join(facts, ",")
}

func (s GoapState) clone() GoapState {
	out := make(GoapState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// satisfies reports whether every fact in goal holds in s.
func (s GoapState) satisfies(goal GoapState) bool {
	for k, v := range goal {
		if s[k] != v {
			return false
		}
	}
	return true
}

// distance counts goal facts not yet satisfied (the search heuristic).
func (s GoapState) distance(goal GoapState) int {
	d := 0
	for k, v := range goal {
		if s[k] != v {
			d++
		}
	}
	return d
}

// GoapAction is one searchable action with symbolic preconditions/effects and
// a concrete step builder.
type GoapAction struct {
	ActionName    string
	Preconditions GoapState
	Effects       GoapState
	Cost          float64
	Risk          float64
	Steps         func(snap *schema.PerceptionSnapshot) []schema.ActionStep
}

func (a GoapAction) applicable(s GoapState) bool {
	for k, v := range a.Preconditions {
		if s[k] != v {
			return false
		}
	}
	return true
}

func (a GoapAction) apply(s GoapState) GoapState {
	out := s.clone()
	for k, v := range a.Effects {
		out[k] = v
	}
	return out
}

type goapNode struct {
	state GoapState
	path  []int // indexes into the action set
	g     float64
	risk  float64
	f     float64
	index int
}

type goapHeap []*goapNode

func (h goapHeap) Len() int            { return len(h) }
func (h goapHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h goapHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *goapHeap) Push(x interface{}) { n := x.(*goapNode); n.index = len(*h); *h = append(*h, n) }
func (h *goapHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// cachedPlan is one side-table entry, keyed by (start state, goal).
type cachedPlan struct {
	key  string
	path []int
}

// GoapPlanner runs capped A* and caches the last plan per agent.
type GoapPlanner struct {
	cfg     GoapConfig
	actions []GoapAction

	mu    sync.Mutex
	cache map[uint32]cachedPlan // agent id -> last plan
}

// DefaultGoapActions returns the built-in combat action set.
func DefaultGoapActions() []GoapAction {
	return []GoapAction{
		{
			ActionName:    "reload",
			Preconditions: GoapState{"has_ammo": false},
			Effects:       GoapState{"has_ammo": true},
			Cost:          1,
			Steps: func(snap *schema.PerceptionSnapshot) []schema.ActionStep {
				return []schema.ActionStep{schema.Reload{}}
			},
		},
		{
			ActionName:    "close_distance",
			Preconditions: GoapState{"enemy_visible": true, "in_range": false},
			Effects:       GoapState{"in_range": true},
			Cost:          2,
			Risk:          1,
			Steps: func(snap *schema.PerceptionSnapshot) []schema.ActionStep {
				e := snap.NearestEnemy()
				if e == nil {
					return nil
				}
				me := snap.Me.Pos
				return []schema.ActionStep{
					schema.MoveTo{X: me.X + sign(e.Pos.X-me.X), Y: me.Y + sign(e.Pos.Y-me.Y)},
				}
			},
		},
		{
			ActionName:    "suppress",
			Preconditions: GoapState{"enemy_visible": true, "in_range": true, "has_ammo": true},
			Effects:       GoapState{"threat_suppressed": true},
			Cost:          1,
			Risk:          2,
			Steps: func(snap *schema.PerceptionSnapshot) []schema.ActionStep {
				e := snap.NearestEnemy()
				if e == nil {
					return nil
				}
				return []schema.ActionStep{schema.CoverFire{TargetID: e.ID, Duration: 1.5}}
			},
		},
		{
			ActionName:    "take_cover",
			Preconditions: GoapState{"enemy_visible": true, "in_cover": false},
			Effects:       GoapState{"in_cover": true},
			Cost:          1,
			Steps: func(snap *schema.PerceptionSnapshot) []schema.ActionStep {
				return []schema.ActionStep{schema.TakeCover{}}
			},
		},
		{
			ActionName:    "recover_morale",
			Preconditions: GoapState{"morale_ok": false},
			Effects:       GoapState{"morale_ok": true},
			Cost:          2,
			Steps: func(snap *schema.PerceptionSnapshot) []schema.ActionStep {
				return []schema.ActionStep{schema.Heal{}}
			},
		},
		{
			ActionName: "survey",
			Effects:    GoapState{"area_known": true},
			Cost:       1,
			Steps: func(snap *schema.PerceptionSnapshot) []schema.ActionStep {
				return []schema.ActionStep{schema.Scan{Radius: 10}}
			},
		},
	}
}

// NewGoapPlanner creates a planner over the given action set; a nil set uses
// DefaultGoapActions.
func NewGoapPlanner(cfg GoapConfig, actions []GoapAction) *GoapPlanner {
	if actions == nil {
		actions = DefaultGoapActions()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultGoapConfig().MaxIterations
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultGoapConfig().MaxDepth
	}
	if cfg.RiskWeight <= 0 {
		cfg.RiskWeight = DefaultGoapConfig().RiskWeight
	}
	return &GoapPlanner{cfg: cfg, actions: actions, cache: make(map[uint32]cachedPlan)}
}

func (p *GoapPlanner) Name() string { return "goap" }

// stateFromSnapshot derives the symbolic start state.
func stateFromSnapshot(snap *schema.PerceptionSnapshot) GoapState {
	inRange := false
	if e := snap.NearestEnemy(); e != nil {
		inRange = snap.Me.Pos.Manhattan(e.Pos) <= 2
	}
	return GoapState{
		"has_ammo":      snap.Me.Ammo > 0,
		"enemy_visible": len(snap.Enemies) > 0,
		"in_range":      inRange,
		"in_cover":      false,
		"morale_ok":     snap.Me.Morale >= 30,
	}
}

// goalFromSnapshot derives the goal: suppress the threat when one is visible,
// otherwise know the area; always restore morale first when it is broken.
func goalFromSnapshot(snap *schema.PerceptionSnapshot) GoapState {
	if snap.Me.Morale < 30 {
		return GoapState{"morale_ok": true}
	}
	if len(snap.Enemies) > 0 {
		return GoapState{"threat_suppressed": true}
	}
	return GoapState{"area_known": true}
}

// Plan searches for a minimal-cost action sequence achieving the snapshot's
// goal. Cache hit on an identical symbolic state reuses the previous path.
func (p *GoapPlanner) Plan(agentID uint32, snap *schema.PerceptionSnapshot) schema.Intent {
	start := stateFromSnapshot(snap)
	goal := goalFromSnapshot(snap)
	cacheKey := start.key() + "=>" + goal.key()

	p.mu.Lock()
	cached, hit := p.cache[agentID]
	p.mu.Unlock()

	var path []int
	if hit && cached.key == cacheKey {
		path = cached.path
		logging.PlannerDebug("GoapPlanner: agent=%d cache hit (%s)", agentID, cacheKey)
	} else {
		path = p.search(start, goal)
		p.mu.Lock()
		p.cache[agentID] = cachedPlan{key: cacheKey, path: path}
		p.mu.Unlock()
	}

	intent := schema.Intent{PlanID: planID("goap", snap.T)}
	for _, idx := range path {
		intent.Steps = append(intent.Steps, p.actions[idx].Steps(snap)...)
	}
	return intent
}

// ClearCache drops an agent's cached plan, e.g. when the agent is destroyed.
func (p *GoapPlanner) ClearCache(agentID uint32) {
	p.mu.Lock()
	delete(p.cache, agentID)
	p.mu.Unlock()
}

// search runs capped A* and returns action indexes. On cap hit it returns the
// path of the expanded node closest to the goal (best partial plan).
func (p *GoapPlanner) search(start, goal GoapState) []int {
	open := &goapHeap{}
	heap.Init(open)
	heap.Push(open, &goapNode{
		state: start,
		f:     float64(start.distance(goal)),
	})

	visited := map[string]bool{}
	var best *goapNode
	bestDist := start.distance(goal)

	for i := 0; i < p.cfg.MaxIterations && open.Len() > 0; i++ {
		cur := heap.Pop(open).(*goapNode)
		if cur.state.satisfies(goal) {
			return cur.path
		}
		k := cur.state.key()
		if visited[k] {
			continue
		}
		visited[k] = true

		if d := cur.state.distance(goal); best == nil || d < bestDist {
			best = cur
			bestDist = d
		}
		if len(cur.path) >= p.cfg.MaxDepth {
			continue
		}

		for idx, action := range p.actions {
			if !action.applicable(cur.state) {
				continue
			}
			next := action.apply(cur.state)
			if visited[next.key()] {
				continue
			}
			g := cur.g + action.Cost
			risk := cur.risk + action.Risk
			heap.Push(open, &goapNode{
				state: next,
				path:  append(append([]int(nil), cur.path...), idx),
				g:     g,
				risk:  risk,
				f:     g + float64(next.distance(goal)) + p.cfg.RiskWeight*risk,
			})
		}
	}

	if best != nil {
		logging.PlannerDebug("GoapPlanner: cap hit, returning partial plan (depth=%d, remaining=%d)",
			len(best.path), bestDist)
		return best.path
	}
	return nil
}
