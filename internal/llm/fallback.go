package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"arbiter/internal/logging"
	"arbiter/internal/planner"
	"arbiter/internal/schema"
)

// =============================================================================
// FALLBACK CHAIN - full advisor -> simplified advisor -> heuristic -> emergency
// =============================================================================
// The chain degrades tier by tier on failure (transport error, parse failure,
// or per-tier deadline) and always terminates in a valid Intent: the
// emergency tier is hard-coded and cannot fail. No tier runs more than once
// per request; the next request may start high again.

// Tier identifies one rung of the chain.
type Tier int

const (
	TierFullAdvisor Tier = iota + 1
	TierSimplifiedAdvisor
	TierHeuristic
	TierEmergency
)

// String returns the tier's metric label.
func (t Tier) String() string {
	switch t {
	case TierFullAdvisor:
		return "full_advisor"
	case TierSimplifiedAdvisor:
		return "simplified_advisor"
	case TierHeuristic:
		return "heuristic"
	case TierEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Next returns the following tier; ok is false past the emergency tier.
func (t Tier) Next() (Tier, bool) {
	if t >= TierEmergency {
		return TierEmergency, false
	}
	return t + 1, true
}

// Attempt records one tier's outcome.
type Attempt struct {
	Tier     Tier
	Success  bool
	Err      string
	Duration time.Duration
	Stage    ExtractionStage // set on advisor tiers that parsed successfully
}

// Result is the chain's outcome: the intent, the tier that produced it, and
// the attempt trail.
type Result struct {
	Intent        schema.Intent
	Tier          Tier
	Attempts      []Attempt
	TotalDuration time.Duration
}

// Depth returns how many tiers were descended past the start tier.
func (r Result) Depth() int {
	return len(r.Attempts) - 1
}

// ChainConfig tunes the chain.
type ChainConfig struct {
	// StartTier is where a request enters the chain. Production starts at
	// the simplified tier for latency; tests start at the full tier.
	StartTier Tier

	FullDeadline       time.Duration
	SimplifiedDeadline time.Duration
}

// DefaultChainConfig returns the production tuning.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		StartTier:          TierSimplifiedAdvisor,
		FullDeadline:       10 * time.Second,
		SimplifiedDeadline: 5 * time.Second,
	}
}

// ChainMetrics aggregates chain outcomes. Safe for concurrent use.
type ChainMetrics struct {
	mu            sync.Mutex
	TotalRequests int64
	TierSuccesses map[Tier]int64
	TierFailures  map[Tier]int64
	totalAttempts int64
	totalDuration time.Duration
}

func newChainMetrics() *ChainMetrics {
	return &ChainMetrics{
		TierSuccesses: make(map[Tier]int64),
		TierFailures:  make(map[Tier]int64),
	}
}

func (m *ChainMetrics) record(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRequests++
	m.totalAttempts += int64(len(res.Attempts))
	m.totalDuration += res.TotalDuration
	for _, a := range res.Attempts {
		if a.Success {
			m.TierSuccesses[a.Tier]++
		} else {
			m.TierFailures[a.Tier]++
		}
	}
}

// AverageAttempts returns the mean tiers tried per request.
func (m *ChainMetrics) AverageAttempts() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TotalRequests == 0 {
		return 0
	}
	return float64(m.totalAttempts) / float64(m.TotalRequests)
}

// AverageDuration returns the mean wall time per request.
func (m *ChainMetrics) AverageDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TotalRequests == 0 {
		return 0
	}
	return m.totalDuration / time.Duration(m.TotalRequests)
}

// Snapshot copies the per-tier counters.
func (m *ChainMetrics) Snapshot() (requests int64, successes, failures map[Tier]int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	successes = make(map[Tier]int64, len(m.TierSuccesses))
	failures = make(map[Tier]int64, len(m.TierFailures))
	for k, v := range m.TierSuccesses {
		successes[k] = v
	}
	for k, v := range m.TierFailures {
		failures[k] = v
	}
	return m.TotalRequests, successes, failures
}

// Chain orchestrates the tiers for one advisor client.
type Chain struct {
	client    Client
	fullReg   *schema.Registry
	simpleReg *schema.Registry
	heuristic *planner.HeuristicPlanner
	cfg       ChainConfig
	metrics   *ChainMetrics
}

// NewChain builds a chain over the given advisor client.
func NewChain(client Client, cfg ChainConfig) *Chain {
	if cfg.StartTier < TierFullAdvisor || cfg.StartTier > TierEmergency {
		cfg.StartTier = DefaultChainConfig().StartTier
	}
	if cfg.FullDeadline <= 0 {
		cfg.FullDeadline = DefaultChainConfig().FullDeadline
	}
	if cfg.SimplifiedDeadline <= 0 {
		cfg.SimplifiedDeadline = DefaultChainConfig().SimplifiedDeadline
	}
	return &Chain{
		client:    client,
		fullReg:   schema.DefaultRegistry(),
		simpleReg: schema.SimplifiedRegistry(),
		heuristic: planner.NewHeuristicPlanner(nil),
		cfg:       cfg,
		metrics:   newChainMetrics(),
	}
}

// Metrics returns the chain's aggregate counters.
func (c *Chain) Metrics() *ChainMetrics { return c.metrics }

// Plan descends the chain until a tier yields a valid Intent. It always
// returns a Result; the emergency tier cannot fail.
func (c *Chain) Plan(ctx context.Context, agentID uint32, snap *schema.PerceptionSnapshot) Result {
	start := time.Now()
	res := Result{}

	tier := c.cfg.StartTier
	for {
		attemptStart := time.Now()
		intent, stage, err := c.tryTier(ctx, tier, agentID, snap)
		attempt := Attempt{
			Tier:     tier,
			Duration: time.Since(attemptStart),
			Stage:    stage,
		}
		if err == nil {
			attempt.Success = true
			res.Attempts = append(res.Attempts, attempt)
			res.Intent = intent
			res.Tier = tier
			break
		}
		attempt.Err = err.Error()
		res.Attempts = append(res.Attempts, attempt)
		logging.FallbackWarn("Chain: agent=%d tier %s failed after %v: %v",
			agentID, tier, attempt.Duration, err)

		next, ok := tier.Next()
		if !ok {
			// Unreachable: the emergency tier never errors. Guard anyway.
			res.Intent = emergencyIntent()
			res.Tier = TierEmergency
			break
		}
		tier = next
	}

	res.TotalDuration = time.Since(start)
	c.metrics.record(res)
	logging.Fallback("Chain: agent=%d resolved at %s (attempts=%d, total=%v)",
		agentID, res.Tier, len(res.Attempts), res.TotalDuration)
	return res
}

func (c *Chain) tryTier(ctx context.Context, tier Tier, agentID uint32, snap *schema.PerceptionSnapshot) (schema.Intent, ExtractionStage, error) {
	switch tier {
	case TierFullAdvisor:
		return c.advisorCall(ctx, snap, c.fullReg, c.cfg.FullDeadline)
	case TierSimplifiedAdvisor:
		return c.advisorCall(ctx, snap, c.simpleReg, c.cfg.SimplifiedDeadline)
	case TierHeuristic:
		return c.heuristic.Plan(agentID, snap), 0, nil
	case TierEmergency:
		return emergencyIntent(), 0, nil
	default:
		return schema.Intent{}, 0, fmt.Errorf("unknown tier %d", tier)
	}
}

func (c *Chain) advisorCall(ctx context.Context, snap *schema.PerceptionSnapshot, reg *schema.Registry, deadline time.Duration) (schema.Intent, ExtractionStage, error) {
	if c.client == nil {
		return schema.Intent{}, 0, fmt.Errorf("no advisor client configured")
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	prompt := BuildPrompt(snap, reg)
	text, err := c.client.Complete(ctx, prompt)
	if err != nil {
		return schema.Intent{}, 0, fmt.Errorf("advisor call: %w", err)
	}

	parsed, err := ParsePlan(text, reg)
	if err != nil {
		return schema.Intent{}, 0, fmt.Errorf("parse: %w", err)
	}
	return parsed.Intent, parsed.Stage, nil
}

// emergencyIntent is the hard-coded always-valid plan.
func emergencyIntent() schema.Intent {
	return schema.Intent{
		PlanID: "emergency-" + uuid.NewString(),
		Steps: []schema.ActionStep{
			schema.Scan{Radius: 10},
			schema.Wait{Duration: 1},
		},
	}
}
