// Package main implements the arbiter CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"arbiter/internal/config"
	"arbiter/internal/llm"
	"arbiter/internal/logging"
	"arbiter/internal/planner"
)

var (
	// Global flags
	verbose    bool
	debugLogs  bool
	configPath string
	timeout    time.Duration

	// Loaded configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "arbiter",
	Short: "arbiter - validated AI planning for grid combat agents",
	Long: `arbiter turns world snapshots into validated action plans.

Per tick it builds an immutable perception snapshot, runs one of several
planning strategies (rules, behavior tree, utility scoring, GOAP, a remote
LLM advisor behind a degradation chain, or an ensemble vote), validates the
resulting plan against the action registry, and hands it to the engine.

The advisor path never blocks a tick: requests run on a worker pool and
plans are adopted when they arrive.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize("."); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		if debugLogs {
			logging.SetDebugMode(true)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose console logging")
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "Enable debug-level category logs")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".arbiter/config.yaml", "Config file path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(directorCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newAdvisorClient builds the completion client the config names. The mock
// provider needs no credentials and always answers with a one-step scan plan.
func newAdvisorClient(ctx context.Context) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	case "openai":
		return llm.NewHTTPClient(llm.HTTPConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLMTimeout(),
		}), nil
	case "mock", "":
		return &llm.MockClient{Responses: []string{`{"plan_id":"mock-1","steps":[{"act":"Scan","radius":5}]}`}}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// newGoapPlanner builds a GOAP planner from the loaded config.
func newGoapPlanner() *planner.GoapPlanner {
	gc := planner.DefaultGoapConfig()
	if cfg.Planner.Goap.MaxIterations > 0 {
		gc.MaxIterations = cfg.Planner.Goap.MaxIterations
	}
	if cfg.Planner.Goap.MaxDepth > 0 {
		gc.MaxDepth = cfg.Planner.Goap.MaxDepth
	}
	if cfg.Planner.Goap.RiskWeight > 0 {
		gc.RiskWeight = cfg.Planner.Goap.RiskWeight
	}
	return planner.NewGoapPlanner(gc, planner.DefaultGoapActions())
}
