package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"arbiter/internal/director"
	"arbiter/internal/schema"
	"arbiter/internal/store"
	"arbiter/internal/world"
)

// =============================================================================
// SIMULATE COMMAND - closed-loop scenario
// =============================================================================

var (
	simTicks     int
	simMode      string
	simObjective string
	simDirector  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a closed-loop combat scenario",
	Long: `Runs a self-contained scenario: spawns a player, a companion, and a
few enemies on a grid, then ticks the loop snapshot -> plan -> validate ->
execute for the requested number of ticks, printing a per-tick trace.

Example:
  arbiter simulate --ticks 30 --mode goap
  arbiter simulate --ticks 60 --mode ensemble --director`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simTicks, "ticks", 30, "Number of simulation ticks")
	simulateCmd.Flags().StringVar(&simMode, "mode", "", "Planning mode override")
	simulateCmd.Flags().StringVar(&simObjective, "objective", "extract to the east gate", "Companion objective")
	simulateCmd.Flags().BoolVar(&simDirector, "director", false, "Enable the encounter director")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	s := world.NewState(24, 24)
	playerID := s.Spawn(schema.GridPos{X: 4, Y: 12}, 100, 0, world.TeamPlayer)
	companionID := s.Spawn(schema.GridPos{X: 5, Y: 12}, 80, 12, world.TeamCompanion)
	s.Spawn(schema.GridPos{X: 16, Y: 10}, 40, 30, world.TeamEnemy)
	s.Spawn(schema.GridPos{X: 18, Y: 14}, 40, 30, world.TeamEnemy)
	for y := 8; y <= 16; y += 4 {
		s.AddObstacle(schema.GridPos{X: 11, Y: y})
	}
	_ = playerID

	disp, pool, err := buildDispatcher(cmd)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Stop()
	}

	var telemetry *store.TelemetryStore
	if cfg.Telemetry.Enabled {
		telemetry, err = store.Open(cfg.Telemetry.DatabasePath)
		if err != nil {
			return err
		}
		defer telemetry.Close()
	}

	var dir *director.Director
	if simDirector || cfg.Director.Enabled {
		dir = director.New(director.NewBudget(budgetConfigs()))
	}

	ctrl := controllerFromFlags()
	if simMode != "" {
		ctrl.Mode = schema.PlannerMode(simMode)
	}

	for tick := 0; tick < simTicks; tick++ {
		snap, err := s.Snapshot(companionID, simObjective)
		if err != nil {
			return err
		}

		start := time.Now()
		intent := disp.Tick(companionID, ctrl, snap)
		elapsed := time.Since(start)

		if telemetry != nil {
			if err := telemetry.RecordIntent(s.T, companionID, string(ctrl.Mode), intent, elapsed); err != nil {
				logger.Warn("Telemetry write failed", zap.Error(err))
			}
		}

		results := s.ExecuteIntent(companionID, intent)
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				// The engine rejected a step; a recovery step keeps the
				// agent responsive instead of stalling the tick.
				if rec := world.RecoveryStep(r.Err); rec != nil {
					_ = s.ExecuteStep(companionID, rec)
				}
			}
		}

		fmt.Printf("t=%5.1f mode=%-13s plan=%-24s steps=%d failed=%d (%s)\n",
			s.T, ctrl.Mode, intent.PlanID, len(intent.Steps), failed, elapsed.Round(time.Microsecond))

		if dir != nil && tick > 0 && tick%10 == 0 {
			plan := schema.DirectorPlan{Ops: []schema.DirectorOp{
				schema.SpawnWave{Archetype: "grunt", Count: 2, Origin: schema.NearPlayer{Radius: 6}},
			}}
			for _, res := range dir.Apply(s, plan) {
				if res.Applied {
					fmt.Printf("        director: %s spawned=%d\n", res.Op.Op(), len(res.Spawned))
				} else {
					fmt.Printf("        director: %s skipped (%s)\n", res.Op.Op(), res.Skipped)
				}
			}
		}

		s.Tick(1.0)
		if living := countLiving(s, world.TeamEnemy); living == 0 && dir == nil {
			fmt.Printf("all enemies down after %d ticks\n", tick+1)
			break
		}
	}

	m := disp.Metrics()
	fmt.Printf("\nadvisor: requests=%d successes=%d failures=%d steps=%d fallback_depth=%d transitions=%d\n",
		m.AdvisorRequests.Load(), m.AdvisorSuccesses.Load(), m.AdvisorFailures.Load(),
		m.AdvisorStepsExecuted.Load(), m.FallbackDepth.Load(), m.ModeTransitions.Load())
	for mode, calls := range m.ModeCalls() {
		fmt.Printf("mode %-13s calls=%d avg=%s\n", mode, calls, m.AverageLatency(mode).Round(time.Microsecond))
	}
	return nil
}

func countLiving(s *world.State, team int) int {
	n := 0
	for _, e := range s.Entities {
		if e.Team == team && e.HP > 0 {
			n++
		}
	}
	return n
}

// budgetConfigs merges config-file pool tuning over the defaults.
func budgetConfigs() map[director.BudgetKind]director.PoolConfig {
	pools := director.DefaultPoolConfigs()
	for name, pc := range cfg.Director.Budget {
		pools[director.BudgetKind(name)] = director.PoolConfig{
			Cap:              pc.Cap,
			RefreshIncrement: pc.RefreshIncrement,
			RefreshPeriod:    pc.RefreshPeriod,
			Initial:          pc.Initial,
		}
	}
	return pools
}
