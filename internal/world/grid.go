package world

import (
	"container/heap"

	"arbiter/internal/schema"
)

// signum helper for stepped line walks.
func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// LosClear walks the stepped line from a to b and reports whether no obstacle
// sits strictly between the endpoints.
func (s *State) LosClear(a, b schema.GridPos) bool {
	cur := a
	for cur != b {
		cur = schema.GridPos{X: cur.X + sign(b.X-cur.X), Y: cur.Y + sign(b.Y-cur.Y)}
		if cur == b {
			break
		}
		if s.Blocked(cur) {
			return false
		}
	}
	return true
}

var neighbors4 = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// PathExists reports 4-neighbor reachability from a to b, honoring bounds and
// obstacles. The goal cell itself may not be an obstacle.
func (s *State) PathExists(a, b schema.GridPos) bool {
	if !s.InBounds(a) || !s.InBounds(b) {
		return false
	}
	if s.Blocked(b) {
		return false
	}
	if a == b {
		return true
	}

	visited := map[schema.GridPos]bool{a: true}
	queue := []schema.GridPos{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range neighbors4 {
			next := schema.GridPos{X: cur.X + d[0], Y: cur.Y + d[1]}
			if next == b {
				return true
			}
			if !s.InBounds(next) || s.Blocked(next) || visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return false
}

// pathNode is one A* open-list entry.
type pathNode struct {
	pos   schema.GridPos
	g     int
	f     int
	index int
}

type pathHeap []*pathNode

func (h pathHeap) Len() int            { return len(h) }
func (h pathHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h pathHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *pathHeap) Push(x interface{}) { n := x.(*pathNode); n.index = len(*h); *h = append(*h, n) }
func (h *pathHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// AStarPath returns the cheapest 4-neighbor path from a to b including both
// endpoints, using the manhattan heuristic. Returns nil when no path exists.
func (s *State) AStarPath(a, b schema.GridPos) []schema.GridPos {
	if !s.InBounds(a) || !s.InBounds(b) || s.Blocked(b) {
		return nil
	}
	if a == b {
		return []schema.GridPos{a}
	}

	open := &pathHeap{}
	heap.Init(open)
	heap.Push(open, &pathNode{pos: a, g: 0, f: a.Manhattan(b)})

	cameFrom := make(map[schema.GridPos]schema.GridPos)
	gScore := map[schema.GridPos]int{a: 0}
	closed := make(map[schema.GridPos]bool)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if cur.pos == b {
			// Rebuild the path back to the start.
			path := []schema.GridPos{b}
			p := b
			for p != a {
				p = cameFrom[p]
				path = append(path, p)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}
		if closed[cur.pos] {
			continue
		}
		closed[cur.pos] = true

		for _, d := range neighbors4 {
			next := schema.GridPos{X: cur.pos.X + d[0], Y: cur.pos.Y + d[1]}
			if !s.InBounds(next) || s.Blocked(next) || closed[next] {
				continue
			}
			g := cur.g + 1
			if prev, seen := gScore[next]; seen && g >= prev {
				continue
			}
			gScore[next] = g
			cameFrom[next] = cur.pos
			heap.Push(open, &pathNode{pos: next, g: g, f: g + next.Manhattan(b)})
		}
	}
	return nil
}

// FindCoverPositions returns unblocked cells within radius of the player that
// keep line of sight to the player while breaking line of sight to the enemy.
func (s *State) FindCoverPositions(player, enemy schema.GridPos, radius int) []schema.GridPos {
	var out []schema.GridPos
	for x := player.X - radius; x <= player.X+radius; x++ {
		for y := player.Y - radius; y <= player.Y+radius; y++ {
			p := schema.GridPos{X: x, Y: y}
			if !s.InBounds(p) || s.Blocked(p) || p == player {
				continue
			}
			if s.LosClear(p, player) && !s.LosClear(p, enemy) {
				out = append(out, p)
			}
		}
	}
	return out
}
