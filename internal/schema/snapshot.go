// Package schema defines the data model shared by every planning strategy:
// the perception snapshot consumed each tick, the closed ActionStep union,
// the Intent output, the director types, and the wire codecs for all of them.
package schema

// GridPos is an integer cell position on the world grid.
type GridPos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Manhattan returns the manhattan distance to other.
func (p GridPos) Manhattan(other GridPos) int {
	dx := p.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// CompanionState is the planning agent's own state.
type CompanionState struct {
	Ammo      int                `json:"ammo"`
	Cooldowns map[string]float64 `json:"cooldowns"` // ability name -> seconds remaining
	Morale    float64            `json:"morale"`
	Pos       GridPos            `json:"pos"`
}

// PlayerState is the protected player's state as perceived by the agent.
type PlayerState struct {
	HP     int      `json:"hp"`
	Pos    GridPos  `json:"pos"`
	Stance string   `json:"stance"`
	Orders []string `json:"orders"`
}

// EnemyState is one visible enemy record.
type EnemyState struct {
	ID       uint32  `json:"id"`
	Pos      GridPos `json:"pos"`
	HP       int     `json:"hp"`
	Cover    string  `json:"cover"` // none, partial, full
	LastSeen float64 `json:"last_seen"`
}

// PointOfInterest is a tagged world location the agent may care about.
type PointOfInterest struct {
	Kind string  `json:"k"`
	Pos  GridPos `json:"pos"`
}

// PerceptionSnapshot is the immutable per-tick input to every planning
// strategy. It is owned by the tick that created it and never mutated after
// construction, so it may be shared by value across the async advisor
// boundary without locking.
type PerceptionSnapshot struct {
	T         float64           `json:"t"` // simulation time in seconds
	Me        CompanionState    `json:"me"`
	Player    PlayerState       `json:"player"`
	Enemies   []EnemyState      `json:"enemies"`
	POIs      []PointOfInterest `json:"pois"`
	Obstacles []GridPos         `json:"obstacles"`
	Objective string            `json:"objective,omitempty"`
}

// Clone returns a deep copy of the snapshot. Used when handing a snapshot to
// the background advisor task so the caller may recycle its buffers.
func (s *PerceptionSnapshot) Clone() *PerceptionSnapshot {
	out := *s
	if s.Me.Cooldowns != nil {
		out.Me.Cooldowns = make(map[string]float64, len(s.Me.Cooldowns))
		for k, v := range s.Me.Cooldowns {
			out.Me.Cooldowns[k] = v
		}
	}
	out.Player.Orders = append([]string(nil), s.Player.Orders...)
	out.Enemies = append([]EnemyState(nil), s.Enemies...)
	out.POIs = append([]PointOfInterest(nil), s.POIs...)
	out.Obstacles = append([]GridPos(nil), s.Obstacles...)
	return &out
}

// NearestEnemy returns the enemy closest to the agent, or nil if none are
// visible.
func (s *PerceptionSnapshot) NearestEnemy() *EnemyState {
	var best *EnemyState
	bestDist := 0
	for i := range s.Enemies {
		d := s.Me.Pos.Manhattan(s.Enemies[i].Pos)
		if best == nil || d < bestDist {
			best = &s.Enemies[i]
			bestDist = d
		}
	}
	return best
}
