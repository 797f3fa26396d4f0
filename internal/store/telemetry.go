// Package store persists planning telemetry to SQLite: every issued intent
// and every fallback-chain attempt, so sessions can be inspected after the
// fact from the CLI.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"arbiter/internal/logging"
	"arbiter/internal/schema"
)

// TelemetryStore records issued intents and fallback attempts.
type TelemetryStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// IntentRecord is one issued intent.
type IntentRecord struct {
	ID        int64
	Tick      float64
	AgentID   uint32
	Mode      string
	PlanID    string
	StepCount int
	Duration  time.Duration
	CreatedAt time.Time
}

// AttemptRecord is one fallback-chain attempt.
type AttemptRecord struct {
	ID        int64
	AgentID   uint32
	Tier      string
	Success   bool
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// Open initializes the SQLite database at the given path, creating the
// directory and tables as needed.
func Open(path string) (*TelemetryStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &TelemetryStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("Open: telemetry database at %s", path)
	return s, nil
}

// initialize creates the required tables.
func (s *TelemetryStore) initialize() error {
	intentsTable := `
	CREATE TABLE IF NOT EXISTS intents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick REAL NOT NULL,
		agent_id INTEGER NOT NULL,
		mode TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		step_count INTEGER NOT NULL,
		duration_us INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_intents_agent ON intents(agent_id);
	CREATE INDEX IF NOT EXISTS idx_intents_mode ON intents(mode);
	`

	attemptsTable := `
	CREATE TABLE IF NOT EXISTS fallback_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		agent_id INTEGER NOT NULL,
		tier TEXT NOT NULL,
		success INTEGER NOT NULL,
		error TEXT,
		duration_us INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_attempts_agent ON fallback_attempts(agent_id);
	CREATE INDEX IF NOT EXISTS idx_attempts_tier ON fallback_attempts(tier);
	`

	for _, stmt := range []string{intentsTable, attemptsTable} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// RecordIntent persists one issued intent.
func (s *TelemetryStore) RecordIntent(tick float64, agentID uint32, mode string, in schema.Intent, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO intents (tick, agent_id, mode, plan_id, step_count, duration_us) VALUES (?, ?, ?, ?, ?, ?)`,
		tick, agentID, mode, in.PlanID, len(in.Steps), duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record intent: %w", err)
	}
	logging.StoreDebug("RecordIntent: agent=%d mode=%s plan=%s steps=%d", agentID, mode, in.PlanID, len(in.Steps))
	return nil
}

// RecordAttempt persists one fallback-chain attempt.
func (s *TelemetryStore) RecordAttempt(agentID uint32, tier string, success bool, attemptErr error, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	errText := ""
	if attemptErr != nil {
		errText = attemptErr.Error()
	}
	_, err := s.db.Exec(
		`INSERT INTO fallback_attempts (agent_id, tier, success, error, duration_us) VALUES (?, ?, ?, ?, ?)`,
		agentID, tier, boolToInt(success), errText, duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// RecentIntents returns the most recent intents, newest first.
func (s *TelemetryStore) RecentIntents(limit int) ([]IntentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, tick, agent_id, mode, plan_id, step_count, duration_us, created_at
		 FROM intents ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query intents: %w", err)
	}
	defer rows.Close()

	var out []IntentRecord
	for rows.Next() {
		var r IntentRecord
		var us int64
		if err := rows.Scan(&r.ID, &r.Tick, &r.AgentID, &r.Mode, &r.PlanID, &r.StepCount, &us, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan intent: %w", err)
		}
		r.Duration = time.Duration(us) * time.Microsecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// ModeStats aggregates intent counts and mean duration per planning mode.
func (s *TelemetryStore) ModeStats() (map[string]ModeStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(
		`SELECT mode, COUNT(*), AVG(duration_us), AVG(step_count) FROM intents GROUP BY mode`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mode stats: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ModeStat)
	for rows.Next() {
		var mode string
		var stat ModeStat
		var avgUS, avgSteps float64
		if err := rows.Scan(&mode, &stat.Count, &avgUS, &avgSteps); err != nil {
			return nil, fmt.Errorf("failed to scan mode stat: %w", err)
		}
		stat.MeanDuration = time.Duration(avgUS) * time.Microsecond
		stat.MeanSteps = avgSteps
		out[mode] = stat
	}
	return out, rows.Err()
}

// ModeStat is an aggregate over one planning mode.
type ModeStat struct {
	Count        int64
	MeanDuration time.Duration
	MeanSteps    float64
}

// TierStats aggregates fallback attempts per tier.
func (s *TelemetryStore) TierStats() (map[string]TierStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(
		`SELECT tier, COUNT(*), SUM(success), AVG(duration_us) FROM fallback_attempts GROUP BY tier`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tier stats: %w", err)
	}
	defer rows.Close()

	out := make(map[string]TierStat)
	for rows.Next() {
		var tier string
		var stat TierStat
		var avgUS float64
		if err := rows.Scan(&tier, &stat.Attempts, &stat.Successes, &avgUS); err != nil {
			return nil, fmt.Errorf("failed to scan tier stat: %w", err)
		}
		stat.MeanDuration = time.Duration(avgUS) * time.Microsecond
		out[tier] = stat
	}
	return out, rows.Err()
}

// TierStat is an aggregate over one fallback tier.
type TierStat struct {
	Attempts     int64
	Successes    int64
	MeanDuration time.Duration
}

// Close releases the database handle.
func (s *TelemetryStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
