package planner

import (
	"sync"

	bt "github.com/joeycumines/go-behaviortree"

	"arbiter/internal/logging"
	"arbiter/internal/schema"
)

// =============================================================================
// BEHAVIOR-TREE PLANNER
// =============================================================================
// Ticks a composite/decorator/leaf tree top-down each call. Leaves emit steps
// onto a per-agent blackboard; a leaf that needs several ticks returns Running
// and resumes where it left off next tick. All per-agent memory lives in an
// explicit side table keyed by agent id.

// btBlackboard is the per-agent tree memory.
type btBlackboard struct {
	snap  *schema.PerceptionSnapshot
	steps []schema.ActionStep

	// reloadProgress tracks the two-tick reload channel. Zero means idle.
	reloadProgress int
}

type btAgentState struct {
	tree bt.Node
	bb   *btBlackboard
}

// BTPlanner evaluates a behavior tree per agent.
type BTPlanner struct {
	policy schema.PolicyID

	mu     sync.Mutex
	agents map[uint32]*btAgentState
}

// NewBTPlanner creates a behavior-tree planner for the given policy.
func NewBTPlanner(policy schema.PolicyID) *BTPlanner {
	return &BTPlanner{
		policy: schema.ResolvePolicy(policy),
		agents: make(map[uint32]*btAgentState),
	}
}

func (p *BTPlanner) Name() string { return "behavior_tree" }

// Plan ticks the agent's tree and returns the steps its leaves emitted.
func (p *BTPlanner) Plan(agentID uint32, snap *schema.PerceptionSnapshot) schema.Intent {
	state := p.agentState(agentID)
	state.bb.snap = snap
	state.bb.steps = nil

	status, err := state.tree.Tick()
	if err != nil {
		// A leaf error is a structural no-plan, not a failure of the planner.
		logging.PlannerDebug("BTPlanner: agent=%d tree error: %v", agentID, err)
		return waitIntent("bt", snap.T)
	}

	intent := schema.Intent{PlanID: planID("bt", snap.T), Steps: state.bb.steps}
	if len(intent.Steps) == 0 && status != bt.Running {
		intent.Steps = []schema.ActionStep{schema.Wait{Duration: 1}}
	}
	return intent
}

// ClearState drops an agent's tree memory, e.g. when the agent is destroyed.
func (p *BTPlanner) ClearState(agentID uint32) {
	p.mu.Lock()
	delete(p.agents, agentID)
	p.mu.Unlock()
}

func (p *BTPlanner) agentState(agentID uint32) *btAgentState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.agents[agentID]; ok {
		return s
	}
	bb := &btBlackboard{}
	s := &btAgentState{bb: bb, tree: buildCombatTree(bb)}
	p.agents[agentID] = s
	return s
}

// condition wraps a predicate as a leaf.
func condition(fn func(bb *btBlackboard) bool, bb *btBlackboard) bt.Node {
	return bt.New(func(children []bt.Node) (bt.Status, error) {
		if fn(bb) {
			return bt.Success, nil
		}
		return bt.Failure, nil
	})
}

// emit wraps a step builder as an always-succeeding leaf.
func emit(fn func(bb *btBlackboard) []schema.ActionStep, bb *btBlackboard) bt.Node {
	return bt.New(func(children []bt.Node) (bt.Status, error) {
		bb.steps = append(bb.steps, fn(bb)...)
		return bt.Success, nil
	})
}

// buildCombatTree builds the default combat tree:
//
//	selector
//	  sequence: morale broken? -> heal self
//	  sequence: enemy visible? ->
//	    selector
//	      sequence: out of ammo? -> reload (two-tick channel, Running)
//	      sequence: in range?    -> attack nearest
//	      advance toward nearest
//	  scan surroundings
func buildCombatTree(bb *btBlackboard) bt.Node {
	healBranch := bt.New(bt.Sequence,
		condition(func(bb *btBlackboard) bool { return bb.snap.Me.Morale < 30 }, bb),
		emit(func(bb *btBlackboard) []schema.ActionStep {
			return []schema.ActionStep{schema.Heal{}}
		}, bb),
	)

	// reloadLeaf spans two ticks: the first emits the reload and returns
	// Running, the second completes. Progress persists on the blackboard.
	reloadLeaf := bt.New(func(children []bt.Node) (bt.Status, error) {
		switch bb.reloadProgress {
		case 0:
			bb.reloadProgress = 1
			bb.steps = append(bb.steps, schema.Reload{})
			return bt.Running, nil
		default:
			bb.reloadProgress = 0
			return bt.Success, nil
		}
	})

	engageBranch := bt.New(bt.Sequence,
		condition(func(bb *btBlackboard) bool { return len(bb.snap.Enemies) > 0 }, bb),
		bt.New(bt.Selector,
			bt.New(bt.Sequence,
				condition(func(bb *btBlackboard) bool { return bb.snap.Me.Ammo <= 0 }, bb),
				reloadLeaf,
			),
			bt.New(bt.Sequence,
				condition(func(bb *btBlackboard) bool {
					e := bb.snap.NearestEnemy()
					return e != nil && bb.snap.Me.Pos.Manhattan(e.Pos) <= 2
				}, bb),
				emit(func(bb *btBlackboard) []schema.ActionStep {
					return []schema.ActionStep{schema.Attack{TargetID: bb.snap.NearestEnemy().ID}}
				}, bb),
			),
			emit(func(bb *btBlackboard) []schema.ActionStep {
				e := bb.snap.NearestEnemy()
				me := bb.snap.Me.Pos
				return []schema.ActionStep{
					schema.MoveTo{X: me.X + sign(e.Pos.X-me.X), Y: me.Y + sign(e.Pos.Y-me.Y)},
				}
			}, bb),
		),
	)

	scanBranch := emit(func(bb *btBlackboard) []schema.ActionStep {
		return []schema.ActionStep{schema.Scan{Radius: 10}}
	}, bb)

	return bt.New(bt.Selector, healBranch, engageBranch, scanBranch)
}
