// Package world holds the mutable simulation state the executor applies
// intents to, plus the grid reasoning helpers (line of sight, reachability,
// pathfinding, cover search) the planners query.
package world

import (
	"fmt"

	"arbiter/internal/logging"
	"arbiter/internal/schema"
)

// Team identifiers.
const (
	TeamPlayer    = 0
	TeamCompanion = 1
	TeamEnemy     = 2
)

// Entity is one world actor.
type Entity struct {
	ID   uint32
	Pos  schema.GridPos
	HP   int
	Ammo int
	Team int
}

// State is the mutable world. One writer at a time; the arbiter only ever
// reads it through immutable snapshots.
type State struct {
	T         float64
	Width     int
	Height    int
	Entities  map[uint32]*Entity
	Obstacles map[schema.GridPos]bool
	// Cooldowns maps entity -> ability -> seconds remaining.
	Cooldowns map[uint32]map[string]float64

	nextID uint32
}

// NewState creates an empty world of the given dimensions.
func NewState(width, height int) *State {
	return &State{
		Width:     width,
		Height:    height,
		Entities:  make(map[uint32]*Entity),
		Obstacles: make(map[schema.GridPos]bool),
		Cooldowns: make(map[uint32]map[string]float64),
		nextID:    1,
	}
}

// Spawn adds an entity and returns its identifier.
func (s *State) Spawn(pos schema.GridPos, hp, ammo, team int) uint32 {
	id := s.nextID
	s.nextID++
	s.Entities[id] = &Entity{ID: id, Pos: pos, HP: hp, Ammo: ammo, Team: team}
	logging.WorldDebug("Spawn: entity %d at (%d,%d) team=%d hp=%d", id, pos.X, pos.Y, team, hp)
	return id
}

// Entity returns the entity by id, or nil.
func (s *State) Entity(id uint32) *Entity {
	return s.Entities[id]
}

// InBounds reports whether the cell is inside the grid.
func (s *State) InBounds(p schema.GridPos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.Width && p.Y < s.Height
}

// Blocked reports whether the cell holds an obstacle.
func (s *State) Blocked(p schema.GridPos) bool {
	return s.Obstacles[p]
}

// AddObstacle marks a cell blocking. Out-of-bounds cells are ignored.
func (s *State) AddObstacle(p schema.GridPos) {
	if s.InBounds(p) {
		s.Obstacles[p] = true
	}
}

// Cooldown returns the remaining cooldown for an entity's ability.
func (s *State) Cooldown(id uint32, ability string) float64 {
	if m, ok := s.Cooldowns[id]; ok {
		return m[ability]
	}
	return 0
}

// SetCooldown sets the remaining cooldown for an entity's ability.
func (s *State) SetCooldown(id uint32, ability string, seconds float64) {
	m, ok := s.Cooldowns[id]
	if !ok {
		m = make(map[string]float64)
		s.Cooldowns[id] = m
	}
	m[ability] = seconds
}

// Tick advances time and ticks cooldowns down, clamping at zero.
func (s *State) Tick(dt float64) {
	s.T += dt
	for _, m := range s.Cooldowns {
		for k, v := range m {
			v -= dt
			if v < 0 {
				v = 0
			}
			m[k] = v
		}
	}
}

// Snapshot builds the immutable perception input for the given companion
// entity: the companion's own state, the player (first TeamPlayer entity),
// every living enemy, and the obstacle set.
func (s *State) Snapshot(companionID uint32, objective string) (*schema.PerceptionSnapshot, error) {
	me := s.Entity(companionID)
	if me == nil {
		return nil, fmt.Errorf("unknown companion entity %d", companionID)
	}

	snap := &schema.PerceptionSnapshot{
		T: s.T,
		Me: schema.CompanionState{
			Ammo:      me.Ammo,
			Cooldowns: make(map[string]float64),
			Morale:    100,
			Pos:       me.Pos,
		},
		Objective: objective,
	}
	for k, v := range s.Cooldowns[companionID] {
		snap.Me.Cooldowns[k] = v
	}

	for _, e := range s.Entities {
		switch {
		case e.Team == TeamPlayer:
			snap.Player = schema.PlayerState{HP: e.HP, Pos: e.Pos, Stance: "stand"}
		case e.Team == TeamEnemy && e.HP > 0:
			cover := "none"
			if s.adjacentToObstacle(e.Pos) {
				cover = "partial"
			}
			snap.Enemies = append(snap.Enemies, schema.EnemyState{
				ID: e.ID, Pos: e.Pos, HP: e.HP, Cover: cover, LastSeen: s.T,
			})
		}
	}

	for p := range s.Obstacles {
		snap.Obstacles = append(snap.Obstacles, p)
	}
	return snap, nil
}

func (s *State) adjacentToObstacle(p schema.GridPos) bool {
	for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		if s.Blocked(schema.GridPos{X: p.X + d[0], Y: p.Y + d[1]}) {
			return true
		}
	}
	return false
}
