package director

import (
	"fmt"
	"sort"
	"sync"

	"arbiter/internal/logging"
)

// =============================================================================
// DIRECTOR BUDGET - replenishing per-kind operation allowance
// =============================================================================
// Each operation kind draws from its own pool. Pools refresh on independent
// timers driven by simulation time, clamp at their cap, and never go
// negative. Spending is all or nothing per operation.

// BudgetKind names a spendable pool.
type BudgetKind string

const (
	BudgetFortify  BudgetKind = "fortify"
	BudgetCollapse BudgetKind = "collapse"
	BudgetSpawn    BudgetKind = "spawn"
)

// PoolConfig tunes one pool.
type PoolConfig struct {
	Cap              int     `yaml:"cap"`
	RefreshIncrement int     `yaml:"refresh_increment"`
	RefreshPeriod    float64 `yaml:"refresh_period"` // seconds of simulation time
	Initial          int     `yaml:"initial"`
}

type pool struct {
	cfg         PoolConfig
	current     int
	nextRefresh float64
}

// Budget tracks the director's spendable allowance across pools.
type Budget struct {
	mu    sync.Mutex
	pools map[BudgetKind]*pool
}

// DefaultPoolConfigs returns the production pool tuning.
func DefaultPoolConfigs() map[BudgetKind]PoolConfig {
	return map[BudgetKind]PoolConfig{
		BudgetFortify:  {Cap: 6, RefreshIncrement: 1, RefreshPeriod: 20, Initial: 3},
		BudgetCollapse: {Cap: 2, RefreshIncrement: 1, RefreshPeriod: 45, Initial: 1},
		BudgetSpawn:    {Cap: 12, RefreshIncrement: 4, RefreshPeriod: 30, Initial: 8},
	}
}

// NewBudget creates a budget from per-kind pool configs. Initial balances are
// clamped to their caps.
func NewBudget(configs map[BudgetKind]PoolConfig) *Budget {
	b := &Budget{pools: make(map[BudgetKind]*pool, len(configs))}
	for kind, cfg := range configs {
		initial := cfg.Initial
		if initial > cfg.Cap {
			initial = cfg.Cap
		}
		if initial < 0 {
			initial = 0
		}
		b.pools[kind] = &pool{cfg: cfg, current: initial, nextRefresh: cfg.RefreshPeriod}
	}
	return b
}

// Advance moves simulation time forward and applies any due refreshes. Each
// pool refreshes on its own period; a long jump applies every elapsed period.
func (b *Budget) Advance(now float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for kind, p := range b.pools {
		if p.cfg.RefreshPeriod <= 0 {
			continue
		}
		for now >= p.nextRefresh {
			before := p.current
			p.current += p.cfg.RefreshIncrement
			if p.current > p.cfg.Cap {
				p.current = p.cfg.Cap
			}
			p.nextRefresh += p.cfg.RefreshPeriod
			if p.current != before {
				logging.DirectorDebug("Budget: %s refreshed %d -> %d (cap %d)", kind, before, p.current, p.cfg.Cap)
			}
		}
	}
}

// Spend debits the pool if it can cover the full cost. A pool that cannot
// cover the cost is left untouched and Spend reports false.
func (b *Budget) Spend(kind BudgetKind, cost int) bool {
	if cost < 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pools[kind]
	if !ok || p.current < cost {
		return false
	}
	p.current -= cost
	logging.DirectorDebug("Budget: %s spent %d, %d remaining", kind, cost, p.current)
	return true
}

// Balance returns the current balance of a pool.
func (b *Budget) Balance(kind BudgetKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pools[kind]; ok {
		return p.current
	}
	return 0
}

// String renders the balances for logs, kinds sorted for stable output.
func (b *Budget) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	kinds := make([]string, 0, len(b.pools))
	for kind := range b.pools {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	out := ""
	for i, kind := range kinds {
		if i > 0 {
			out += " "
		}
		p := b.pools[BudgetKind(kind)]
		out += fmt.Sprintf("%s=%d/%d", kind, p.current, p.cfg.Cap)
	}
	return out
}
