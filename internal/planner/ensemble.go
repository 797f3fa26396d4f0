package planner

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"arbiter/internal/logging"
	"arbiter/internal/schema"
)

// =============================================================================
// ENSEMBLE COMBINER
// =============================================================================
// Runs a configured set of strategies concurrently and votes on the result.
// Votes are weighted per strategy and cast for the first action of each
// proposed plan; the plan whose first action wins the vote is returned whole.
// Ties break by member priority order. A member that misses the deadline is
// simply absent from the vote; the advisor member additionally abstains when
// it has no plan to offer. The result is flagged provisional whenever the
// advisor member cast no vote.

// EnsembleMember is one voting strategy.
type EnsembleMember struct {
	Strategy Strategy
	Weight   float64
	Priority int  // lower wins ties
	Advisor  bool // marks the remote advisor member for the provisional flag
}

// EnsembleResult is a combined vote outcome.
type EnsembleResult struct {
	Intent      schema.Intent
	Provisional bool // true when the advisor member did not report in time
	Votes       map[string]float64
}

// Ensemble combines member strategies by weighted first-action vote.
type Ensemble struct {
	members  []EnsembleMember
	deadline time.Duration
}

// DefaultEnsembleWeights maps strategy name to vote weight.
func DefaultEnsembleWeights() map[string]float64 {
	return map[string]float64{
		"rule":          1.0,
		"behavior_tree": 1.0,
		"utility":       1.5,
		"goap":          2.0,
		"advisor":       3.0,
	}
}

// NewEnsemble creates a combiner. Members keep their given order for
// priority; deadline bounds how long slow members may take before the vote
// proceeds without them.
func NewEnsemble(members []EnsembleMember, deadline time.Duration) *Ensemble {
	if deadline <= 0 {
		deadline = 5 * time.Millisecond
	}
	return &Ensemble{members: members, deadline: deadline}
}

type proposal struct {
	member int
	intent schema.Intent
}

// Combine runs every member concurrently and returns the weighted vote.
func (e *Ensemble) Combine(ctx context.Context, agentID uint32, snap *schema.PerceptionSnapshot) EnsembleResult {
	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	var mu sync.Mutex
	proposals := make([]proposal, 0, len(e.members))

	g, _ := errgroup.WithContext(ctx)
	done := make(chan struct{})
	for i := range e.members {
		i := i
		g.Go(func() error {
			intent := e.members[i].Strategy.Plan(agentID, snap)
			mu.Lock()
			proposals = append(proposals, proposal{member: i, intent: intent})
			mu.Unlock()
			return nil
		})
	}
	go func() {
		g.Wait() //nolint:errcheck // members never return errors
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		// Proceed with whatever reported in time.
	}

	mu.Lock()
	defer mu.Unlock()

	reported := make(map[int]bool, len(proposals))
	votes := make(map[string]float64)
	voting := make([]proposal, 0, len(proposals))
	for _, p := range proposals {
		if e.members[p.member].Advisor && len(p.intent.Steps) == 0 {
			// The advisor abstains rather than voting for an empty plan.
			continue
		}
		reported[p.member] = true
		voting = append(voting, p)
		votes[firstAct(p.intent)] += e.members[p.member].Weight
	}

	provisional := false
	for i, m := range e.members {
		if m.Advisor && !reported[i] {
			provisional = true
		}
	}

	winner := winningAct(votes, voting, e.members)
	result := EnsembleResult{Provisional: provisional, Votes: votes}

	// Return the highest-priority plan whose first action matches the vote.
	sort.SliceStable(voting, func(a, b int) bool {
		return e.members[voting[a].member].Priority < e.members[voting[b].member].Priority
	})
	for _, p := range voting {
		if firstAct(p.intent) == winner {
			result.Intent = p.intent
			logging.ArbiterDebug("Ensemble: agent=%d winner=%s from %s (provisional=%v)",
				agentID, winner, e.members[p.member].Strategy.Name(), provisional)
			return result
		}
	}

	// No member reported at all; degrade to the always-valid wait plan.
	result.Intent = waitIntent("ensemble", snap.T)
	return result
}

func firstAct(in schema.Intent) string {
	if len(in.Steps) == 0 {
		return ""
	}
	return in.Steps[0].Act()
}

// winningAct picks the act with the highest total weight; ties break by the
// priority of the best member voting for each act.
func winningAct(votes map[string]float64, proposals []proposal, members []EnsembleMember) string {
	bestPriority := make(map[string]int)
	for _, p := range proposals {
		act := firstAct(p.intent)
		pr, ok := bestPriority[act]
		if !ok || members[p.member].Priority < pr {
			bestPriority[act] = members[p.member].Priority
		}
	}

	winner := ""
	bestWeight := -1.0
	for act, w := range votes {
		switch {
		case w > bestWeight:
			winner, bestWeight = act, w
		case w == bestWeight && bestPriority[act] < bestPriority[winner]:
			winner = act
		}
	}
	return winner
}
