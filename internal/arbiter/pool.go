package arbiter

import (
	"context"
	"sync"

	"arbiter/internal/llm"
	"arbiter/internal/logging"
	"arbiter/internal/schema"
)

// =============================================================================
// ADVISOR POOL - background workers for remote advisor requests
// =============================================================================
// The dispatcher must never block a tick on the advisor's multi-second
// latency, so requests run on this pool and results come back through each
// request's own single-slot channel, polled non-blockingly by the dispatcher
// on later ticks. Abandoned requests (agent destroyed, mode changed) are not
// aborted; their late results are simply discarded because the reply channel
// is buffered and the dispatcher has dropped its reference.

// advisorJob is one queued request.
type advisorJob struct {
	agentID uint32
	snap    *schema.PerceptionSnapshot
	reply   chan llm.Result // capacity 1, never blocks the worker
}

// AdvisorPool runs fallback-chain requests on background workers.
type AdvisorPool struct {
	chain *llm.Chain
	jobs  chan advisorJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAdvisorPool starts workers goroutines servicing the queue.
func NewAdvisorPool(chain *llm.Chain, workers, queueDepth int) *AdvisorPool {
	if workers <= 0 {
		workers = 2
	}
	if queueDepth <= 0 {
		queueDepth = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &AdvisorPool{
		chain:  chain,
		jobs:   make(chan advisorJob, queueDepth),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *AdvisorPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.jobs:
			res := p.chain.Plan(p.ctx, job.agentID, job.snap)
			// Cap-1 channel: delivery never blocks, late results sit until
			// polled or garbage collected with the abandoned channel.
			select {
			case job.reply <- res:
			default:
			}
		}
	}
}

// Submit queues a request and returns the reply channel. Returns nil when
// the queue is full; the caller treats that as "not this tick" and retries
// after the cooldown.
func (p *AdvisorPool) Submit(agentID uint32, snap *schema.PerceptionSnapshot) <-chan llm.Result {
	reply := make(chan llm.Result, 1)
	select {
	case p.jobs <- advisorJob{agentID: agentID, snap: snap, reply: reply}:
		return reply
	default:
		logging.ArbiterWarn("AdvisorPool: queue full, dropping request for agent %d", agentID)
		return nil
	}
}

// Stop shuts the workers down and waits for them.
func (p *AdvisorPool) Stop() {
	p.cancel()
	p.wg.Wait()
}
