package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"arbiter/internal/arbiter"
	"arbiter/internal/llm"
	"arbiter/internal/planner"
	"arbiter/internal/schema"
)

// =============================================================================
// PLAN COMMAND - one snapshot in, one validated intent out
// =============================================================================

var (
	planMode   string
	planPolicy string
	planAgent  uint32
)

var planCmd = &cobra.Command{
	Use:   "plan [snapshot.json]",
	Short: "Plan one intent from a perception snapshot",
	Long: `Reads a perception snapshot from a file (or stdin with "-"), runs the
selected planning strategy, and prints the validated intent as JSON.

Example:
  arbiter plan snapshot.json --mode goap
  cat snapshot.json | arbiter plan - --mode ensemble`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planMode, "mode", "", "Planning mode (rule, behavior_tree, utility, goap, advisor, ensemble)")
	planCmd.Flags().StringVar(&planPolicy, "policy", "", "Planning policy (default, aggressive, defensive, support)")
	planCmd.Flags().Uint32Var(&planAgent, "agent", 1, "Agent identifier")
}

func runPlan(cmd *cobra.Command, args []string) error {
	snap, err := readSnapshot(args[0])
	if err != nil {
		return err
	}

	disp, pool, err := buildDispatcher(cmd)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Stop()
	}

	ctrl := controllerFromFlags()
	logger.Info("Planning",
		zap.String("mode", string(ctrl.Mode)),
		zap.String("policy", string(ctrl.Policy)),
		zap.Float64("t", snap.T))

	intent := disp.Tick(planAgent, ctrl, snap)

	if err := schema.ValidateIntent(intent, schema.DefaultRegistry()); err != nil {
		return fmt.Errorf("planned intent failed validation: %w", err)
	}

	out, err := json.MarshalIndent(intent, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func readSnapshot(path string) (*schema.PerceptionSnapshot, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap schema.PerceptionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snap, nil
}

func controllerFromFlags() schema.Controller {
	ctrl := schema.Controller{
		Mode:   schema.PlannerMode(cfg.Planner.Mode),
		Policy: schema.ResolvePolicy(schema.PolicyID(cfg.Planner.Policy)),
	}
	if planMode != "" {
		ctrl.Mode = schema.PlannerMode(planMode)
	}
	if planPolicy != "" {
		ctrl.Policy = schema.ResolvePolicy(schema.PolicyID(planPolicy))
	}
	return ctrl
}

// buildDispatcher wires the strategies, the fallback chain, and the advisor
// pool from the loaded config.
func buildDispatcher(cmd *cobra.Command) (*arbiter.Dispatcher, *arbiter.AdvisorPool, error) {
	utility, err := planner.NewUtilityPlanner(cfg.Planner.Utility.Scores)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build utility planner: %w", err)
	}

	client, err := newAdvisorClient(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	chain := llm.NewChain(client, chainConfig())
	pool := arbiter.NewAdvisorPool(chain, cfg.LLM.Workers, cfg.LLM.QueueDepth)

	dcfg := arbiter.DefaultConfig()
	if cfg.Planner.AdvisorCooldown > 0 {
		dcfg.AdvisorCooldown = cfg.Planner.AdvisorCooldown
	}
	dcfg.EnsembleDeadline = cfg.EnsembleDeadline()

	return arbiter.New(dcfg, utility, newGoapPlanner(), pool), pool, nil
}

func chainConfig() llm.ChainConfig {
	cc := llm.DefaultChainConfig()
	if cfg.Fallback.StartTier == "full" {
		cc.StartTier = llm.TierFullAdvisor
	}
	cc.FullDeadline = cfg.FullDeadline()
	cc.SimplifiedDeadline = cfg.SimplifiedDeadline()
	return cc
}
