// Package arbiter owns the top-level per-tick entry point: mode selection,
// the synchronous/asynchronous boundary to the remote advisor, per-agent
// planning state, and metrics.
package arbiter

import (
	"context"
	"sync"
	"time"

	"arbiter/internal/llm"
	"arbiter/internal/logging"
	"arbiter/internal/planner"
	"arbiter/internal/schema"
)

// advisorControlMode is the internal state machine for advisor-driven agents.
type advisorControlMode string

const (
	controlGOAP            advisorControlMode = "goap"             // default: plan with GOAP, request advisor opportunistically
	controlExecutingPlan   advisorControlMode = "executing_plan"   // walking a delivered advisor plan step by step
	controlBehaviorTree    advisorControlMode = "behavior_tree"    // emergency: GOAP produced nothing
)

// Config tunes the dispatcher.
type Config struct {
	// AdvisorCooldown is the minimum simulation seconds between advisor
	// requests for one agent.
	AdvisorCooldown float64

	// EnsembleDeadline bounds the concurrent strategy vote.
	EnsembleDeadline time.Duration
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		AdvisorCooldown:  15.0,
		EnsembleDeadline: 5 * time.Millisecond,
	}
}

// agentState is the per-agent side table entry: advisor state machine,
// in-flight request, and the last valid intent for non-blocking ticks.
type agentState struct {
	control advisorControlMode
	pending <-chan llm.Result

	plan      schema.Intent // advisor plan being executed
	stepIndex int

	lastIntent      schema.Intent // most recent valid intent, any mode
	lastRequestTime float64
}

// Dispatcher converts (Controller, Snapshot) into exactly one Intent per
// tick, never blocking the caller. Synchronous strategies compute inline;
// the advisor path hands off to the pool and polls.
type Dispatcher struct {
	cfg Config

	rule     map[schema.PolicyID]*planner.RulePlanner
	bt       *planner.BTPlanner
	utility  *planner.UtilityPlanner
	goap     *planner.GoapPlanner
	pool     *AdvisorPool
	ensemble *planner.Ensemble
	echo     *advisorEcho

	agents  map[uint32]*agentState
	metrics *Metrics
}

// New creates a dispatcher. pool may be nil when no advisor is configured;
// advisor and ensemble modes then degrade to their synchronous parts.
func New(cfg Config, utility *planner.UtilityPlanner, goap *planner.GoapPlanner, pool *AdvisorPool) *Dispatcher {
	if cfg.AdvisorCooldown <= 0 {
		cfg.AdvisorCooldown = DefaultConfig().AdvisorCooldown
	}
	if cfg.EnsembleDeadline <= 0 {
		cfg.EnsembleDeadline = DefaultConfig().EnsembleDeadline
	}
	d := &Dispatcher{
		cfg:     cfg,
		rule:    make(map[schema.PolicyID]*planner.RulePlanner),
		bt:      planner.NewBTPlanner(schema.PolicyDefault),
		utility: utility,
		goap:    goap,
		pool:    pool,
		echo:    newAdvisorEcho(),
		agents:  make(map[uint32]*agentState),
		metrics: NewMetrics(),
	}
	weights := planner.DefaultEnsembleWeights()
	members := []planner.EnsembleMember{
		{Strategy: goap, Weight: weights["goap"], Priority: 1},
		{Strategy: utility, Weight: weights["utility"], Priority: 2},
		{Strategy: d.bt, Weight: weights["behavior_tree"], Priority: 3},
		{Strategy: d.rulePlanner(schema.PolicyDefault), Weight: weights["rule"], Priority: 4},
	}
	if pool != nil {
		members = append([]planner.EnsembleMember{
			{Strategy: d.echo, Weight: weights["advisor"], Priority: 0, Advisor: true},
		}, members...)
	}
	d.ensemble = planner.NewEnsemble(members, cfg.EnsembleDeadline)
	return d
}

// Metrics returns the dispatcher's metrics record.
func (d *Dispatcher) Metrics() *Metrics { return d.metrics }

func (d *Dispatcher) rulePlanner(policy schema.PolicyID) *planner.RulePlanner {
	policy = schema.ResolvePolicy(policy)
	if p, ok := d.rule[policy]; ok {
		return p
	}
	p := planner.NewRulePlanner(policy)
	d.rule[policy] = p
	return p
}

func (d *Dispatcher) agent(id uint32) *agentState {
	if s, ok := d.agents[id]; ok {
		return s
	}
	s := &agentState{
		control:         controlGOAP,
		lastRequestTime: -999, // allow an immediate first request
	}
	d.agents[id] = s
	return s
}

// Tick produces exactly one Intent for the agent. It never blocks: the
// advisor path polls its outstanding request and falls back to the most
// recent valid plan, or GOAP, while waiting.
func (d *Dispatcher) Tick(agentID uint32, ctrl schema.Controller, snap *schema.PerceptionSnapshot) schema.Intent {
	start := time.Now()
	state := d.agent(agentID)

	// Leaving the advisor-using modes abandons any request in flight; a
	// result delivered after the switch must never be adopted.
	if ctrl.Mode != schema.ModeAdvisor && ctrl.Mode != schema.ModeEnsemble {
		d.abandonAdvisor(agentID, state)
	}

	var intent schema.Intent
	switch ctrl.Mode {
	case schema.ModeRule:
		intent = d.rulePlanner(ctrl.Policy).Plan(agentID, snap)
	case schema.ModeBehaviorTree:
		intent = d.bt.Plan(agentID, snap)
	case schema.ModeUtility:
		intent = d.utility.Plan(agentID, snap)
	case schema.ModeGOAP:
		intent = d.goap.Plan(agentID, snap)
	case schema.ModeAdvisor:
		intent = d.advisorTick(agentID, snap)
	case schema.ModeEnsemble:
		// Delivered advisor plans feed the echo member's vote; they are
		// not executed step by step in this mode.
		d.pollAdvisor(agentID, state, false)
		d.maybeRequestAdvisor(agentID, state, snap)
		res := d.ensemble.Combine(context.Background(), agentID, snap)
		intent = res.Intent
	default:
		// Unknown mode degrades to the rule baseline.
		intent = d.rulePlanner(ctrl.Policy).Plan(agentID, snap)
	}

	if intent.PlanID != "" {
		state.lastIntent = intent
	}
	d.metrics.RecordCall(string(ctrl.Mode), time.Since(start))
	return intent
}

// abandonAdvisor drops the in-flight request and any half-executed advisor
// plan. The worker still completes its request; the result is discarded with
// the dropped reply channel.
func (d *Dispatcher) abandonAdvisor(agentID uint32, state *agentState) {
	d.echo.forget(agentID)
	if state.pending == nil && state.control == controlGOAP && state.plan.PlanID == "" {
		return
	}
	if state.pending != nil {
		logging.ArbiterDebug("Dispatcher: agent=%d abandoning in-flight advisor request", agentID)
		state.pending = nil
	}
	state.plan = schema.Intent{}
	state.stepIndex = 0
	d.transition(agentID, state, controlGOAP)
}

// advisorTick runs the hybrid state machine: GOAP by default, advisor plans
// executed step by step when one arrives, behavior tree when GOAP dries up.
func (d *Dispatcher) advisorTick(agentID uint32, snap *schema.PerceptionSnapshot) schema.Intent {
	state := d.agent(agentID)
	d.pollAdvisor(agentID, state, true)

	switch state.control {
	case controlExecutingPlan:
		if state.stepIndex < len(state.plan.Steps) {
			step := state.plan.Steps[state.stepIndex]
			state.stepIndex++
			d.metrics.AdvisorStepsExecuted.Add(1)
			return schema.Intent{PlanID: state.plan.PlanID, Steps: []schema.ActionStep{step}}
		}
		// Plan exhausted; back to GOAP.
		d.transition(agentID, state, controlGOAP)
		fallthrough

	case controlGOAP:
		intent := d.goap.Plan(agentID, snap)
		d.maybeRequestAdvisor(agentID, state, snap)
		if len(intent.Steps) == 0 {
			// GOAP found nothing; emergency behavior tree.
			d.transition(agentID, state, controlBehaviorTree)
			return d.bt.Plan(agentID, snap)
		}
		return intent

	case controlBehaviorTree:
		intent := d.bt.Plan(agentID, snap)
		// The tree is the emergency mode; try to climb back out next tick.
		d.transition(agentID, state, controlGOAP)
		return intent
	}

	return d.goap.Plan(agentID, snap)
}

// pollAdvisor checks the outstanding request without blocking. An empty poll
// is not an error, it means "not ready yet". With execute set, a delivered
// plan moves the agent into step-by-step execution; otherwise the plan only
// feeds the ensemble echo.
func (d *Dispatcher) pollAdvisor(agentID uint32, state *agentState, execute bool) {
	if state.pending == nil {
		return
	}
	select {
	case res := <-state.pending:
		state.pending = nil
		if depth := res.Depth(); depth > 0 {
			d.metrics.FallbackDepth.Add(int64(depth))
		}
		if res.Tier == llm.TierEmergency {
			d.metrics.AdvisorFailures.Add(1)
		} else {
			d.metrics.AdvisorSuccesses.Add(1)
		}
		if len(res.Intent.Steps) == 0 {
			logging.ArbiterDebug("Dispatcher: agent=%d advisor delivered empty plan %s, staying in %s",
				agentID, res.Intent.PlanID, state.control)
			return
		}
		d.echo.remember(agentID, res.Intent)
		if !execute {
			logging.Arbiter("Dispatcher: agent=%d advisor plan %s accepted for the ensemble vote (%d steps, tier=%s)",
				agentID, res.Intent.PlanID, len(res.Intent.Steps), res.Tier)
			return
		}
		state.plan = res.Intent
		state.stepIndex = 0
		d.transition(agentID, state, controlExecutingPlan)
		logging.Arbiter("Dispatcher: agent=%d advisor plan %s accepted (%d steps, tier=%s)",
			agentID, res.Intent.PlanID, len(res.Intent.Steps), res.Tier)
	default:
	}
}

// maybeRequestAdvisor issues a new background request when none is in
// flight, the agent is in GOAP control, and the cooldown has elapsed.
func (d *Dispatcher) maybeRequestAdvisor(agentID uint32, state *agentState, snap *schema.PerceptionSnapshot) {
	if d.pool == nil || state.pending != nil || state.control != controlGOAP {
		return
	}
	if snap.T-state.lastRequestTime < d.cfg.AdvisorCooldown {
		return
	}
	reply := d.pool.Submit(agentID, snap.Clone())
	if reply == nil {
		return
	}
	state.pending = reply
	state.lastRequestTime = snap.T
	d.metrics.AdvisorRequests.Add(1)
	logging.ArbiterDebug("Dispatcher: agent=%d advisor request issued at t=%.1f", agentID, snap.T)
}

func (d *Dispatcher) transition(agentID uint32, state *agentState, to advisorControlMode) {
	if state.control == to {
		return
	}
	logging.ArbiterDebug("Dispatcher: agent=%d control %s -> %s", agentID, state.control, to)
	state.control = to
	d.metrics.ModeTransitions.Add(1)
}

// DestroyAgent abandons the agent's outstanding request and drops all its
// side-table state. The in-flight request is not aborted; its late result is
// discarded with the dropped reply channel.
func (d *Dispatcher) DestroyAgent(agentID uint32) {
	if state, ok := d.agents[agentID]; ok {
		state.pending = nil
		delete(d.agents, agentID)
	}
	d.echo.forget(agentID)
	d.bt.ClearState(agentID)
	d.goap.ClearCache(agentID)
	logging.ArbiterDebug("Dispatcher: agent=%d destroyed", agentID)
}

// LastIntent returns the agent's most recent valid intent, if any.
func (d *Dispatcher) LastIntent(agentID uint32) (schema.Intent, bool) {
	if state, ok := d.agents[agentID]; ok && state.lastIntent.PlanID != "" {
		return state.lastIntent, true
	}
	return schema.Intent{}, false
}

// advisorEcho casts the most recently delivered advisor plan into the
// ensemble vote. It abstains (empty intent) until a plan has arrived, which
// flags the vote provisional. Its own lock makes it safe for the ensemble's
// member goroutines, which may outlive the vote deadline.
type advisorEcho struct {
	mu   sync.Mutex
	last map[uint32]schema.Intent
}

func newAdvisorEcho() *advisorEcho {
	return &advisorEcho{last: make(map[uint32]schema.Intent)}
}

func (a *advisorEcho) Name() string { return "advisor" }

func (a *advisorEcho) Plan(agentID uint32, snap *schema.PerceptionSnapshot) schema.Intent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last[agentID]
}

func (a *advisorEcho) remember(agentID uint32, in schema.Intent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last[agentID] = in
}

func (a *advisorEcho) forget(agentID uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.last, agentID)
}
