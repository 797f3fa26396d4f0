package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arbiter/internal/schema"
)

func openStore(t *testing.T) *TelemetryStore {
	t.Helper()
	// A nested path exercises directory creation on open.
	s, err := Open(filepath.Join(t.TempDir(), "data", "telemetry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func intent(planID string, steps int) schema.Intent {
	in := schema.Intent{PlanID: planID}
	for i := 0; i < steps; i++ {
		in.Steps = append(in.Steps, schema.Wait{Duration: 1})
	}
	return in
}

func TestRecordAndRecentIntents(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.RecordIntent(1.0, 1, "goap", intent("goap-1000", 3), 250*time.Microsecond))
	require.NoError(t, s.RecordIntent(2.0, 1, "rule", intent("plan-2000", 2), 40*time.Microsecond))
	require.NoError(t, s.RecordIntent(3.0, 2, "goap", intent("goap-3000", 1), 150*time.Microsecond))

	recent, err := s.RecentIntents(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Newest first.
	require.Equal(t, "goap-3000", recent[0].PlanID)
	require.Equal(t, uint32(2), recent[0].AgentID)
	require.Equal(t, 1, recent[0].StepCount)
	require.Equal(t, 150*time.Microsecond, recent[0].Duration)
	require.Equal(t, "plan-2000", recent[1].PlanID)

	// A non-positive limit returns the default window.
	all, err := s.RecentIntents(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, 3.0, all[0].Tick)
}

func TestModeStats(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.RecordIntent(1.0, 1, "goap", intent("goap-1", 4), 100*time.Microsecond))
	require.NoError(t, s.RecordIntent(2.0, 1, "goap", intent("goap-2", 2), 300*time.Microsecond))
	require.NoError(t, s.RecordIntent(3.0, 1, "rule", intent("plan-3", 1), 50*time.Microsecond))

	stats, err := s.ModeStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)

	goap := stats["goap"]
	require.Equal(t, int64(2), goap.Count)
	require.Equal(t, 200*time.Microsecond, goap.MeanDuration)
	require.Equal(t, 3.0, goap.MeanSteps)

	rule := stats["rule"]
	require.Equal(t, int64(1), rule.Count)
	require.Equal(t, 1.0, rule.MeanSteps)
}

func TestTierStats(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.RecordAttempt(1, "full", false, errors.New("deadline exceeded"), 500*time.Microsecond))
	require.NoError(t, s.RecordAttempt(1, "full", true, nil, 100*time.Microsecond))
	require.NoError(t, s.RecordAttempt(2, "heuristic", true, nil, 10*time.Microsecond))

	stats, err := s.TierStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)

	full := stats["full"]
	require.Equal(t, int64(2), full.Attempts)
	require.Equal(t, int64(1), full.Successes)
	require.Equal(t, 300*time.Microsecond, full.MeanDuration)

	heuristic := stats["heuristic"]
	require.Equal(t, int64(1), heuristic.Attempts)
	require.Equal(t, int64(1), heuristic.Successes)
}

func TestEmptyStore(t *testing.T) {
	s := openStore(t)

	recent, err := s.RecentIntents(10)
	require.NoError(t, err)
	require.Empty(t, recent)

	modes, err := s.ModeStats()
	require.NoError(t, err)
	require.Empty(t, modes)

	tiers, err := s.TierStats()
	require.NoError(t, err)
	require.Empty(t, tiers)
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telemetry.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordIntent(5.0, 7, "ensemble", intent("ensemble-5000", 2), time.Millisecond))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	recent, err := s.RecentIntents(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "ensemble-5000", recent[0].PlanID)
}
