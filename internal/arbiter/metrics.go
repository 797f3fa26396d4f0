package arbiter

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks dispatcher activity. Counter fields are atomic; the latency
// histogram takes a lock because ticks are cheap and rare relative to it.
type Metrics struct {
	ModeTransitions      atomic.Int64
	AdvisorRequests      atomic.Int64
	AdvisorSuccesses     atomic.Int64
	AdvisorFailures      atomic.Int64
	AdvisorStepsExecuted atomic.Int64
	FallbackDepth        atomic.Int64 // cumulative tiers descended past entry

	mu        sync.Mutex
	modeCalls map[string]int64
	latency   map[string][]time.Duration
}

// NewMetrics creates an empty metrics record.
func NewMetrics() *Metrics {
	return &Metrics{
		modeCalls: make(map[string]int64),
		latency:   make(map[string][]time.Duration),
	}
}

// RecordCall records one planning call and its latency for a mode.
func (m *Metrics) RecordCall(mode string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modeCalls[mode]++
	m.latency[mode] = append(m.latency[mode], d)
	// Bound retained samples per mode.
	if len(m.latency[mode]) > 1024 {
		m.latency[mode] = m.latency[mode][len(m.latency[mode])-1024:]
	}
}

// ModeCalls returns a copy of the per-mode call counters.
func (m *Metrics) ModeCalls() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.modeCalls))
	for k, v := range m.modeCalls {
		out[k] = v
	}
	return out
}

// AverageLatency returns the mean planning latency for a mode.
func (m *Metrics) AverageLatency(mode string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	samples := m.latency[mode]
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return total / time.Duration(len(samples))
}
