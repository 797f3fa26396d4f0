package world

import (
	"testing"

	"arbiter/internal/schema"
)

func pos(x, y int) schema.GridPos { return schema.GridPos{X: x, Y: y} }

func TestLosClear(t *testing.T) {
	s := NewState(10, 10)
	s.AddObstacle(pos(2, 0))

	if s.LosClear(pos(0, 0), pos(4, 0)) {
		t.Error("obstacle between endpoints should block line of sight")
	}
	if !s.LosClear(pos(0, 1), pos(4, 1)) {
		t.Error("clear row should have line of sight")
	}
	// Endpoints themselves never block.
	if !s.LosClear(pos(0, 0), pos(2, 0)) {
		t.Error("obstacle at the far endpoint should not block")
	}
	if !s.LosClear(pos(0, 0), pos(1, 0)) {
		t.Error("adjacent cells always see each other")
	}
	if !s.LosClear(pos(3, 3), pos(3, 3)) {
		t.Error("a cell sees itself")
	}

	// Diagonal stepped line.
	s.AddObstacle(pos(5, 5))
	if s.LosClear(pos(3, 3), pos(7, 7)) {
		t.Error("obstacle on the stepped diagonal should block")
	}
}

func TestPathExists(t *testing.T) {
	s := NewState(5, 5)
	if !s.PathExists(pos(0, 0), pos(4, 4)) {
		t.Error("open grid should be fully reachable")
	}
	if !s.PathExists(pos(2, 2), pos(2, 2)) {
		t.Error("a cell is reachable from itself")
	}
	if s.PathExists(pos(0, 0), pos(5, 0)) {
		t.Error("out-of-bounds goal should be unreachable")
	}

	s.AddObstacle(pos(3, 3))
	if s.PathExists(pos(0, 0), pos(3, 3)) {
		t.Error("blocked goal cell should be unreachable")
	}

	// Full vertical wall splits the grid.
	for y := 0; y < 5; y++ {
		s.AddObstacle(pos(2, y))
	}
	if s.PathExists(pos(0, 0), pos(4, 0)) {
		t.Error("wall should cut reachability")
	}
	if !s.PathExists(pos(0, 0), pos(1, 4)) {
		t.Error("same side of the wall should stay reachable")
	}
}

func TestAStarPath(t *testing.T) {
	s := NewState(5, 5)

	path := s.AStarPath(pos(0, 0), pos(3, 0))
	if len(path) != 4 {
		t.Fatalf("straight path length = %d, want 4", len(path))
	}
	if path[0] != pos(0, 0) || path[len(path)-1] != pos(3, 0) {
		t.Errorf("path endpoints = %v .. %v", path[0], path[len(path)-1])
	}

	s.AddObstacle(pos(1, 0))
	path = s.AStarPath(pos(0, 0), pos(2, 0))
	if len(path) != 5 {
		t.Fatalf("detour path length = %d, want 5", len(path))
	}
	for _, p := range path {
		if s.Blocked(p) {
			t.Errorf("path passes through obstacle %v", p)
		}
	}

	if got := s.AStarPath(pos(2, 2), pos(2, 2)); len(got) != 1 {
		t.Errorf("trivial path = %v, want single cell", got)
	}

	for y := 0; y < 5; y++ {
		s.AddObstacle(pos(3, y))
	}
	if got := s.AStarPath(pos(0, 0), pos(4, 0)); got != nil {
		t.Errorf("walled-off goal should give nil path, got %v", got)
	}
}

func TestFindCoverPositions(t *testing.T) {
	s := NewState(12, 5)
	player := pos(2, 2)
	enemy := pos(8, 2)
	s.AddObstacle(pos(5, 2))

	covers := s.FindCoverPositions(player, enemy, 3)
	found := false
	for _, c := range covers {
		if c == pos(4, 2) {
			found = true
		}
		if !s.LosClear(c, player) {
			t.Errorf("cover %v has no line of sight to the player", c)
		}
		if s.LosClear(c, enemy) {
			t.Errorf("cover %v is exposed to the enemy", c)
		}
	}
	if !found {
		t.Errorf("expected (4,2) behind the obstacle, got %v", covers)
	}
}
