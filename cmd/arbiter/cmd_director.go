package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arbiter/internal/director"
	"arbiter/internal/llm"
	"arbiter/internal/schema"
	"arbiter/internal/world"
)

// =============================================================================
// DIRECTOR COMMAND - apply or propose world-level operations
// =============================================================================

var (
	directorWidth   int
	directorHeight  int
	directorAdvisor bool
)

var directorCmd = &cobra.Command{
	Use:   "director [plan.json]",
	Short: "Apply a director plan to a fresh world under budget control",
	Long: `Applies a director plan (Fortify, Collapse, SpawnWave ops) to a fresh
world and reports what the budget allowed. With --advisor and no plan file,
asks the configured language model to propose the plan instead.

Example:
  arbiter director ops.json
  arbiter director --advisor`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDirector,
}

func init() {
	directorCmd.Flags().IntVar(&directorWidth, "width", 24, "Grid width")
	directorCmd.Flags().IntVar(&directorHeight, "height", 24, "Grid height")
	directorCmd.Flags().BoolVar(&directorAdvisor, "advisor", false, "Ask the language model to propose the plan")
}

func runDirector(cmd *cobra.Command, args []string) error {
	s := world.NewState(directorWidth, directorHeight)
	s.Spawn(schema.GridPos{X: directorWidth / 4, Y: directorHeight / 2}, 100, 0, world.TeamPlayer)

	dir := director.New(director.NewBudget(budgetConfigs()))

	var plan schema.DirectorPlan
	switch {
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read plan: %w", err)
		}
		if err := json.Unmarshal(data, &plan); err != nil {
			return fmt.Errorf("failed to parse plan: %w", err)
		}
	case directorAdvisor:
		client, err := newAdvisorClient(cmd.Context())
		if err != nil {
			return err
		}
		session := llm.NewSession(client, 0)
		advisor := director.NewAdvisor(session)
		plan, err = advisor.PlanOps(cmd.Context(), s, dir.Budget(), cfg.Director.Intensity)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("provide a plan file or --advisor")
	}

	fmt.Printf("budget before: %s\n", dir.Budget())
	for _, res := range dir.Apply(s, plan) {
		if res.Applied {
			fmt.Printf("op %d %-10s applied", res.Index, res.Op.Op())
			if len(res.Spawned) > 0 {
				fmt.Printf(" spawned=%d", len(res.Spawned))
			}
			fmt.Println()
		} else {
			fmt.Printf("op %d %-10s skipped: %s\n", res.Index, res.Op.Op(), res.Skipped)
		}
	}
	fmt.Printf("budget after:  %s\n", dir.Budget())
	fmt.Printf("obstacles: %d\n", len(s.Obstacles))
	return nil
}
