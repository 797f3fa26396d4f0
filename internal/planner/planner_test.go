package planner

import (
	"arbiter/internal/schema"
)

// calmSnap is a snapshot with no visible threats and healthy stats.
func calmSnap(t float64) *schema.PerceptionSnapshot {
	return &schema.PerceptionSnapshot{
		T: t,
		Me: schema.CompanionState{
			Ammo:      12,
			Cooldowns: map[string]float64{},
			Morale:    100,
			Pos:       schema.GridPos{X: 5, Y: 5},
		},
		Player: schema.PlayerState{HP: 100, Pos: schema.GridPos{X: 4, Y: 5}},
	}
}

// combatSnap places one enemy east of the agent at the given distance.
func combatSnap(t float64, dist int) *schema.PerceptionSnapshot {
	snap := calmSnap(t)
	snap.Enemies = []schema.EnemyState{
		{ID: 9, Pos: schema.GridPos{X: 5 + dist, Y: 5}, HP: 40, Cover: "none", LastSeen: t},
	}
	return snap
}
