package director

import (
	"testing"

	"arbiter/internal/schema"
	"arbiter/internal/world"
)

// fakeOp is an operation kind the director does not know how to apply.
type fakeOp struct{}

func (fakeOp) Op() string { return "Earthquake" }

func openWorld(w, h int) *world.State {
	return world.NewState(w, h)
}

func singlePool(kind BudgetKind, cap, initial int) *Budget {
	return NewBudget(map[BudgetKind]PoolConfig{
		kind: {Cap: cap, RefreshIncrement: 1, RefreshPeriod: 1000, Initial: initial},
	})
}

func TestApplyFortifyPerimeter(t *testing.T) {
	s := openWorld(20, 20)
	d := New(nil)
	res := d.Apply(s, schema.DirectorPlan{Ops: []schema.DirectorOp{
		schema.Fortify{Rect: schema.Rect{X0: 2, Y0: 2, X1: 6, Y1: 6}},
	}})
	if len(res) != 1 || !res[0].Applied {
		t.Fatalf("result = %+v, want single applied op", res)
	}
	// A 5x5 rect has a 16-cell perimeter. The interior stays open.
	if got := len(s.Obstacles); got != 16 {
		t.Errorf("obstacle count = %d, want 16", got)
	}
	if s.Blocked(schema.GridPos{X: 4, Y: 4}) {
		t.Error("interior cell (4,4) should stay open")
	}
	for _, p := range []schema.GridPos{{X: 2, Y: 2}, {X: 6, Y: 6}, {X: 4, Y: 2}, {X: 2, Y: 4}} {
		if !s.Blocked(p) {
			t.Errorf("perimeter cell (%d,%d) not blocked", p.X, p.Y)
		}
	}
}

func TestApplyFortifySwappedCornersAndOccupiedCells(t *testing.T) {
	s := openWorld(20, 20)
	s.Spawn(schema.GridPos{X: 2, Y: 2}, 50, 10, world.TeamEnemy)
	d := New(nil)
	res := d.Apply(s, schema.DirectorPlan{Ops: []schema.DirectorOp{
		schema.Fortify{Rect: schema.Rect{X0: 6, Y0: 6, X1: 2, Y1: 2}},
	}})
	if !res[0].Applied {
		t.Fatalf("swapped-corner fortify skipped: %q", res[0].Skipped)
	}
	if s.Blocked(schema.GridPos{X: 2, Y: 2}) {
		t.Error("cell under a living entity should not be walled")
	}
	if got := len(s.Obstacles); got != 15 {
		t.Errorf("obstacle count = %d, want 15 with one cell occupied", got)
	}
}

func TestApplyFortifyBudgetExhausted(t *testing.T) {
	s := openWorld(10, 10)
	d := New(singlePool(BudgetFortify, 1, 1))
	plan := schema.DirectorPlan{Ops: []schema.DirectorOp{
		schema.Fortify{Rect: schema.Rect{X0: 0, Y0: 0, X1: 2, Y1: 2}},
		schema.Fortify{Rect: schema.Rect{X0: 5, Y0: 5, X1: 7, Y1: 7}},
	}}
	res := d.Apply(s, plan)
	if !res[0].Applied {
		t.Errorf("first fortify skipped: %q", res[0].Skipped)
	}
	if res[1].Applied || res[1].Skipped != "fortify budget exhausted" {
		t.Errorf("second fortify = %+v, want skipped for budget", res[1])
	}
	if s.Blocked(schema.GridPos{X: 5, Y: 5}) {
		t.Error("skipped fortify still placed obstacles")
	}
}

func TestApplyCollapseLine(t *testing.T) {
	s := openWorld(10, 10)
	d := New(nil)
	res := d.Apply(s, schema.DirectorPlan{Ops: []schema.DirectorOp{
		schema.Collapse{A: schema.GridPos{X: 0, Y: 0}, B: schema.GridPos{X: 3, Y: 1}},
	}})
	if !res[0].Applied {
		t.Fatalf("collapse skipped: %q", res[0].Skipped)
	}
	want := []schema.GridPos{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}}
	for _, p := range want {
		if !s.Blocked(p) {
			t.Errorf("line cell (%d,%d) not blocked", p.X, p.Y)
		}
	}
	if got := len(s.Obstacles); got != len(want) {
		t.Errorf("obstacle count = %d, want %d", got, len(want))
	}
}

func TestApplySpawnWave(t *testing.T) {
	s := openWorld(20, 20)
	d := New(nil)
	res := d.Apply(s, schema.DirectorPlan{Ops: []schema.DirectorOp{
		schema.SpawnWave{Archetype: "brute", Count: 4, Origin: schema.FixedLocation{Pos: schema.GridPos{X: 5, Y: 5}}},
	}})
	if !res[0].Applied || len(res[0].Spawned) != 4 {
		t.Fatalf("result = %+v, want 4 spawned ids", res[0])
	}
	wantPos := []schema.GridPos{{X: 4, Y: 5}, {X: 5, Y: 5}, {X: 6, Y: 5}, {X: 4, Y: 6}}
	for i, id := range res[0].Spawned {
		e := s.Entity(id)
		if e == nil {
			t.Fatalf("spawned id %d missing from world", id)
		}
		if e.HP != 80 {
			t.Errorf("brute %d hp = %d, want 80", id, e.HP)
		}
		if e.Team != world.TeamEnemy {
			t.Errorf("spawn %d team = %d, want enemy", id, e.Team)
		}
		if e.Pos != wantPos[i] {
			t.Errorf("spawn %d at (%d,%d), want (%d,%d)", id, e.Pos.X, e.Pos.Y, wantPos[i].X, wantPos[i].Y)
		}
	}
	if got := d.Budget().Balance(BudgetSpawn); got != 4 {
		t.Errorf("spawn balance after wave of 4 = %d, want 4", got)
	}
}

func TestApplySpawnWaveUnknownArchetypeAndClamping(t *testing.T) {
	s := openWorld(10, 10)
	d := New(nil)
	res := d.Apply(s, schema.DirectorPlan{Ops: []schema.DirectorOp{
		schema.SpawnWave{Archetype: "wizard", Count: 1, Origin: schema.FixedLocation{Pos: schema.GridPos{X: 0, Y: 0}}},
	}})
	if len(res[0].Spawned) != 1 {
		t.Fatalf("spawned = %v, want one id", res[0].Spawned)
	}
	e := s.Entity(res[0].Spawned[0])
	if e.HP != 40 {
		t.Errorf("unknown archetype hp = %d, want baseline 40", e.HP)
	}
	if e.Pos != (schema.GridPos{X: 0, Y: 0}) {
		t.Errorf("spawn off-grid landed at (%d,%d), want clamped to (0,0)", e.Pos.X, e.Pos.Y)
	}
}

func TestApplySpawnWaveEmptyAndExhausted(t *testing.T) {
	s := openWorld(10, 10)
	d := New(singlePool(BudgetSpawn, 2, 2))
	res := d.Apply(s, schema.DirectorPlan{Ops: []schema.DirectorOp{
		schema.SpawnWave{Archetype: "grunt", Count: 0, Origin: schema.FixedLocation{}},
		schema.SpawnWave{Archetype: "grunt", Count: 5, Origin: schema.FixedLocation{}},
	}})
	if res[0].Skipped != "empty wave" {
		t.Errorf("zero-count wave = %+v, want skipped as empty", res[0])
	}
	if res[1].Skipped != "spawn budget exhausted" {
		t.Errorf("oversized wave = %+v, want skipped for budget", res[1])
	}
	if got := d.Budget().Balance(BudgetSpawn); got != 2 {
		t.Errorf("balance = %d, want 2 untouched by skipped waves", got)
	}
	if len(s.Entities) != 0 {
		t.Errorf("skipped waves spawned %d entities", len(s.Entities))
	}
}

func TestResolveOrigin(t *testing.T) {
	s := openWorld(20, 20)
	s.Spawn(schema.GridPos{X: 3, Y: 3}, 100, 0, world.TeamPlayer)
	d := New(nil)
	d.SetPOIs([]schema.PointOfInterest{
		{Kind: "ammo_cache", Pos: schema.GridPos{X: 1, Y: 9}},
		{Kind: "extract", Pos: schema.GridPos{X: 18, Y: 2}},
	})

	tests := []struct {
		name string
		loc  schema.SpawnLocation
		want schema.GridPos
	}{
		{"fixed", schema.FixedLocation{Pos: schema.GridPos{X: 7, Y: 7}}, schema.GridPos{X: 7, Y: 7}},
		{"near player", schema.NearPlayer{Radius: 5}, schema.GridPos{X: 8, Y: 3}},
		{"near player min radius", schema.NearPlayer{Radius: 0}, schema.GridPos{X: 4, Y: 3}},
		{"at poi", schema.AtPOI{Kind: "extract"}, schema.GridPos{X: 18, Y: 2}},
		{"missing poi", schema.AtPOI{Kind: "armory"}, schema.GridPos{X: 10, Y: 10}},
		{"nil", nil, schema.GridPos{X: 10, Y: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.resolveOrigin(s, tt.loc); got != tt.want {
				t.Errorf("resolveOrigin = (%d,%d), want (%d,%d)", got.X, got.Y, tt.want.X, tt.want.Y)
			}
		})
	}
}

func TestResolveOriginNearPlayerWithoutPlayer(t *testing.T) {
	s := openWorld(20, 20)
	d := New(nil)
	got := d.resolveOrigin(s, schema.NearPlayer{Radius: 4})
	if got != (schema.GridPos{X: 10, Y: 10}) {
		t.Errorf("no-player origin = (%d,%d), want grid center", got.X, got.Y)
	}
}

func TestApplyUnhandledOp(t *testing.T) {
	s := openWorld(10, 10)
	d := New(nil)
	res := d.Apply(s, schema.DirectorPlan{Ops: []schema.DirectorOp{fakeOp{}}})
	if res[0].Applied || res[0].Skipped != "unhandled op" {
		t.Errorf("result = %+v, want skipped as unhandled", res[0])
	}
}

func TestApplyAdvancesBudgetToWorldClock(t *testing.T) {
	s := openWorld(10, 10)
	s.T = 45
	d := New(NewBudget(map[BudgetKind]PoolConfig{
		BudgetFortify: {Cap: 6, RefreshIncrement: 1, RefreshPeriod: 20, Initial: 0},
	}))
	res := d.Apply(s, schema.DirectorPlan{Ops: []schema.DirectorOp{
		schema.Fortify{Rect: schema.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1}},
	}})
	// Refreshes at t=20 and t=40 fund the op.
	if !res[0].Applied {
		t.Fatalf("fortify skipped: %q", res[0].Skipped)
	}
	if got := d.Budget().Balance(BudgetFortify); got != 1 {
		t.Errorf("balance = %d, want 1 after two refreshes and one spend", got)
	}
}

func TestDescribe(t *testing.T) {
	plan := schema.DirectorPlan{Ops: []schema.DirectorOp{
		schema.Fortify{},
		schema.SpawnWave{Archetype: "grunt", Count: 2},
	}}
	if got := Describe(plan); got != "2 ops: Fortify SpawnWave" {
		t.Errorf("Describe = %q", got)
	}
}
