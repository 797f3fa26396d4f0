package world

import (
	"testing"

	"arbiter/internal/schema"
)

// combatWorld is a 10x10 grid with a companion at (1,1) and an enemy at (5,1).
func combatWorld(t *testing.T) (*State, uint32, uint32) {
	t.Helper()
	s := NewState(10, 10)
	me := s.Spawn(pos(1, 1), 80, 12, TeamCompanion)
	enemy := s.Spawn(pos(5, 1), 40, 30, TeamEnemy)
	return s, me, enemy
}

func TestMoveToUnreachable(t *testing.T) {
	s, me, _ := combatWorld(t)
	for y := 0; y < 10; y++ {
		s.AddObstacle(pos(3, y))
	}
	err := s.ExecuteStep(me, schema.MoveTo{X: 8, Y: 1})
	if kind := schema.ErrorKindOf(err); kind != schema.ErrNoPath {
		t.Errorf("kind = %q, want %q", kind, schema.ErrNoPath)
	}
	if s.Entity(me).Pos != pos(1, 1) {
		t.Error("failed move should not change position")
	}

	if err := s.ExecuteStep(me, schema.MoveTo{X: 2, Y: 5}); err != nil {
		t.Errorf("reachable move failed: %v", err)
	}
	if s.Entity(me).Pos != pos(2, 5) {
		t.Errorf("pos = %v, want (2,5)", s.Entity(me).Pos)
	}
}

func TestAimedShot(t *testing.T) {
	s, me, enemy := combatWorld(t)

	if err := s.ExecuteStep(me, schema.AimedShot{TargetID: enemy}); err != nil {
		t.Fatalf("clear shot failed: %v", err)
	}
	if hp := s.Entity(enemy).HP; hp != 25 {
		t.Errorf("enemy hp = %d, want 25", hp)
	}
	if ammo := s.Entity(me).Ammo; ammo != 11 {
		t.Errorf("ammo = %d, want 11", ammo)
	}

	s.AddObstacle(pos(3, 1))
	err := s.ExecuteStep(me, schema.AimedShot{TargetID: enemy})
	if kind := schema.ErrorKindOf(err); kind != schema.ErrLosBlocked {
		t.Errorf("kind = %q, want %q", kind, schema.ErrLosBlocked)
	}

	delete(s.Obstacles, pos(3, 1))
	s.Entity(me).Ammo = 0
	err = s.ExecuteStep(me, schema.AimedShot{TargetID: enemy})
	if kind := schema.ErrorKindOf(err); kind != schema.ErrResource {
		t.Errorf("kind = %q, want %q", kind, schema.ErrResource)
	}
}

func TestMeleeAttackIgnoresLineOfSight(t *testing.T) {
	s, me, enemy := combatWorld(t)
	s.AddObstacle(pos(3, 1))
	if err := s.ExecuteStep(me, schema.Attack{TargetID: enemy}); err != nil {
		t.Errorf("melee attack should not need line of sight: %v", err)
	}
	if hp := s.Entity(enemy).HP; hp != 30 {
		t.Errorf("enemy hp = %d, want 30", hp)
	}
}

func TestCoverFire(t *testing.T) {
	s, me, enemy := combatWorld(t)

	if err := s.ExecuteStep(me, schema.CoverFire{TargetID: enemy, Duration: 2}); err != nil {
		t.Fatal(err)
	}
	if hp := s.Entity(enemy).HP; hp != 30 {
		t.Errorf("enemy hp = %d, want 30", hp)
	}
	if ammo := s.Entity(me).Ammo; ammo != 9 {
		t.Errorf("ammo = %d, want 9", ammo)
	}

	// Very short bursts still do a point of damage.
	if err := s.ExecuteStep(me, schema.CoverFire{TargetID: enemy, Duration: 0.1}); err != nil {
		t.Fatal(err)
	}
	if hp := s.Entity(enemy).HP; hp != 29 {
		t.Errorf("enemy hp = %d, want 29", hp)
	}
}

func TestThrowCooldown(t *testing.T) {
	s, me, _ := combatWorld(t)
	step := schema.Throw{Item: "smoke", X: 4, Y: 4}

	if err := s.ExecuteStep(me, step); err != nil {
		t.Fatalf("first throw failed: %v", err)
	}
	err := s.ExecuteStep(me, step)
	if kind := schema.ErrorKindOf(err); kind != schema.ErrCooldown {
		t.Fatalf("kind = %q, want %q", kind, schema.ErrCooldown)
	}

	// Separate items cool down independently.
	if err := s.ExecuteStep(me, schema.Throw{Item: "grenade", X: 4, Y: 4}); err != nil {
		t.Errorf("grenade should not share the smoke cooldown: %v", err)
	}

	s.Tick(8.0)
	if err := s.ExecuteStep(me, step); err != nil {
		t.Errorf("throw after cooldown expiry failed: %v", err)
	}
}

func TestHealAndRevive(t *testing.T) {
	s, me, _ := combatWorld(t)
	ally := s.Spawn(pos(2, 2), 0, 0, TeamCompanion)

	if err := s.ExecuteStep(me, schema.Heal{}); err != nil {
		t.Fatal(err)
	}
	if hp := s.Entity(me).HP; hp != 100 {
		t.Errorf("self heal hp = %d, want 100", hp)
	}

	if err := s.ExecuteStep(me, schema.Revive{AllyID: ally}); err != nil {
		t.Fatal(err)
	}
	if hp := s.Entity(ally).HP; hp != 20 {
		t.Errorf("revived hp = %d, want 20", hp)
	}

	// Revive on a living ally is a no-op.
	if err := s.ExecuteStep(me, schema.Revive{AllyID: ally}); err != nil {
		t.Fatal(err)
	}
	if hp := s.Entity(ally).HP; hp != 20 {
		t.Errorf("living ally hp = %d after revive, want 20", hp)
	}
}

func TestReloadAndTerrain(t *testing.T) {
	s, me, _ := combatWorld(t)
	s.Entity(me).Ammo = 0
	if err := s.ExecuteStep(me, schema.Reload{}); err != nil {
		t.Fatal(err)
	}
	if ammo := s.Entity(me).Ammo; ammo != 30 {
		t.Errorf("ammo = %d, want 30", ammo)
	}

	if err := s.ExecuteStep(me, schema.ModifyTerrain{Feature: schema.Rubble{}, X: 7, Y: 7}); err != nil {
		t.Fatal(err)
	}
	if !s.Blocked(pos(7, 7)) {
		t.Error("terrain modification should leave an obstacle")
	}
}

func TestExecuteIntentHaltsOnlyOnMissingResource(t *testing.T) {
	s, me, enemy := combatWorld(t)

	// An invalid step is skipped, the rest of the intent still runs.
	results := s.ExecuteIntent(me, schema.Intent{
		PlanID: "p1",
		Steps: []schema.ActionStep{
			schema.Attack{TargetID: 999},
			schema.MoveTo{X: 2, Y: 1},
		},
	})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if schema.ErrorKindOf(results[0].Err) != schema.ErrInvalidAction {
		t.Errorf("step 0 err = %v", results[0].Err)
	}
	if results[1].Err != nil {
		t.Errorf("step 1 should still execute, got %v", results[1].Err)
	}

	// Exhausted ammo halts the remainder.
	s.Entity(me).Ammo = 0
	results = s.ExecuteIntent(me, schema.Intent{
		PlanID: "p2",
		Steps: []schema.ActionStep{
			schema.AimedShot{TargetID: enemy},
			schema.MoveTo{X: 3, Y: 1},
		},
	})
	if len(results) != 1 {
		t.Fatalf("got %d results after resource failure, want 1", len(results))
	}
	if schema.ErrorKindOf(results[0].Err) != schema.ErrResource {
		t.Errorf("step 0 err = %v", results[0].Err)
	}
}

func TestRecoveryStep(t *testing.T) {
	tests := []struct {
		err  error
		want schema.ActionStep
	}{
		{schema.NoPathError(), schema.Scan{Radius: 5}},
		{schema.LosBlockedError(), schema.TakeCover{}},
		{schema.InvalidActionError("bad"), schema.Wait{Duration: 1}},
		{schema.CooldownError("throw:smoke"), nil},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := RecoveryStep(tt.err); got != tt.want {
			t.Errorf("RecoveryStep(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	s := NewState(10, 10)
	me := s.Spawn(pos(1, 1), 80, 12, TeamCompanion)
	s.Spawn(pos(0, 0), 100, 0, TeamPlayer)
	covered := s.Spawn(pos(5, 5), 40, 30, TeamEnemy)
	dead := s.Spawn(pos(6, 6), 0, 0, TeamEnemy)
	s.AddObstacle(pos(5, 4))
	s.SetCooldown(me, "throw:smoke", 3)
	s.Tick(2.0)

	snap, err := s.Snapshot(me, "hold the line")
	if err != nil {
		t.Fatal(err)
	}
	if snap.T != 2.0 {
		t.Errorf("t = %v, want 2.0", snap.T)
	}
	if snap.Me.Ammo != 12 || snap.Me.Pos != pos(1, 1) {
		t.Errorf("companion state = %+v", snap.Me)
	}
	if got := snap.Me.Cooldowns["throw:smoke"]; got != 1 {
		t.Errorf("cooldown = %v, want 1", got)
	}
	if snap.Player.HP != 100 || snap.Player.Pos != pos(0, 0) {
		t.Errorf("player state = %+v", snap.Player)
	}
	if snap.Objective != "hold the line" {
		t.Errorf("objective = %q", snap.Objective)
	}

	if len(snap.Enemies) != 1 {
		t.Fatalf("got %d enemies, want 1 (dead entity %d excluded)", len(snap.Enemies), dead)
	}
	e := snap.Enemies[0]
	if e.ID != covered || e.Cover != "partial" {
		t.Errorf("enemy = %+v, want id=%d cover=partial", e, covered)
	}

	if _, err := s.Snapshot(999, ""); err == nil {
		t.Error("unknown companion should error")
	}
}

func TestRetreatOpensDistance(t *testing.T) {
	s, me, enemy := combatWorld(t)
	if err := s.ExecuteStep(me, schema.Retreat{TargetID: enemy, Distance: 3}); err != nil {
		t.Fatal(err)
	}
	if got := s.Entity(me).Pos; got != pos(0, 1) {
		t.Errorf("pos = %v, want (0,1)", got)
	}
}
