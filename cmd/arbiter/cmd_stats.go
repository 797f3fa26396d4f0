package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"arbiter/internal/store"
)

// =============================================================================
// STATS COMMAND - telemetry store aggregates
// =============================================================================

var statsRecent int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show planning telemetry aggregates",
	Long: `Reads the telemetry database and prints per-mode intent aggregates,
per-tier fallback aggregates, and the most recent issued intents.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsRecent, "recent", 10, "Number of recent intents to list")
}

func runStats(cmd *cobra.Command, args []string) error {
	s, err := store.Open(cfg.Telemetry.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()

	modes, err := s.ModeStats()
	if err != nil {
		return err
	}
	if len(modes) == 0 {
		fmt.Println("no telemetry recorded yet")
		return nil
	}

	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("intents by mode:")
	for _, name := range names {
		stat := modes[name]
		fmt.Printf("  %-13s count=%-6d avg=%-10s avg_steps=%.1f\n",
			name, stat.Count, stat.MeanDuration.Round(time.Microsecond), stat.MeanSteps)
	}

	tiers, err := s.TierStats()
	if err != nil {
		return err
	}
	if len(tiers) > 0 {
		tierNames := make([]string, 0, len(tiers))
		for name := range tiers {
			tierNames = append(tierNames, name)
		}
		sort.Strings(tierNames)

		fmt.Println("fallback attempts by tier:")
		for _, name := range tierNames {
			stat := tiers[name]
			fmt.Printf("  %-18s attempts=%-6d successes=%-6d avg=%s\n",
				name, stat.Attempts, stat.Successes, stat.MeanDuration.Round(time.Millisecond))
		}
	}

	recent, err := s.RecentIntents(statsRecent)
	if err != nil {
		return err
	}
	if len(recent) > 0 {
		fmt.Println("recent intents:")
		for _, r := range recent {
			fmt.Printf("  t=%-7.1f agent=%-4d mode=%-13s plan=%-24s steps=%d\n",
				r.Tick, r.AgentID, r.Mode, r.PlanID, r.StepCount)
		}
	}
	return nil
}
