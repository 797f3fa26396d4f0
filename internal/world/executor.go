package world

import (
	"fmt"

	"arbiter/internal/logging"
	"arbiter/internal/schema"
)

// =============================================================================
// INTENT EXECUTOR
// =============================================================================
// The executor applies a validated Intent to world state, one step at a time,
// reporting failures through the EngineError taxonomy. It never aborts the
// whole intent for a recoverable failure: invalid steps are skipped,
// cooldown-blocked steps retried next tick, missing resources halt the rest
// of the intent and surface to the caller.

// Combat constants.
const (
	attackDamage      = 10
	aimedShotDamage   = 15
	quickAttackDamage = 5
	heavyAttackDamage = 25
	healAmount        = 20
	reviveHP          = 20
	reloadAmmo        = 30
	coverFireAmmoCost = 3
	throwCooldown     = 8.0
)

// StepResult records the outcome of one executed step.
type StepResult struct {
	Index int
	Step  schema.ActionStep
	Err   error
}

// ExecuteIntent applies each step in order. Execution stops early only on a
// missing-resource failure; every other failure is recorded and the next
// step attempted.
func (s *State) ExecuteIntent(actorID uint32, in schema.Intent) []StepResult {
	results := make([]StepResult, 0, len(in.Steps))
	for i, step := range in.Steps {
		err := s.ExecuteStep(actorID, step)
		results = append(results, StepResult{Index: i, Step: step, Err: err})
		if err != nil {
			logging.WorldDebug("ExecuteIntent: plan=%s step=%d act=%s failed: %v",
				in.PlanID, i, step.Act(), err)
			if schema.ErrorKindOf(err) == schema.ErrResource {
				break
			}
		}
	}
	return results
}

// ExecuteStep applies a single step for the actor. The switch is exhaustive
// over the closed ActionStep union.
func (s *State) ExecuteStep(actorID uint32, step schema.ActionStep) error {
	actor := s.Entity(actorID)
	if actor == nil {
		return schema.InvalidActionError(fmt.Sprintf("unknown actor %d", actorID))
	}

	switch v := step.(type) {
	// Movement
	case schema.MoveTo:
		return s.moveActor(actor, schema.GridPos{X: v.X, Y: v.Y})
	case schema.Approach:
		target := s.Entity(v.TargetID)
		if target == nil {
			return schema.InvalidActionError(fmt.Sprintf("unknown target %d", v.TargetID))
		}
		return s.stepToward(actor, target.Pos)
	case schema.Retreat:
		target := s.Entity(v.TargetID)
		if target == nil {
			return schema.InvalidActionError(fmt.Sprintf("unknown target %d", v.TargetID))
		}
		away := schema.GridPos{
			X: actor.Pos.X + sign(actor.Pos.X-target.Pos.X),
			Y: actor.Pos.Y + sign(actor.Pos.Y-target.Pos.Y),
		}
		return s.moveActor(actor, away)
	case schema.TakeCover:
		if v.Position != nil {
			return s.moveActor(actor, *v.Position)
		}
		// No explicit position: step behind the nearest obstacle if any.
		for p := range s.Obstacles {
			candidate := schema.GridPos{X: p.X + 1, Y: p.Y}
			if s.InBounds(candidate) && !s.Blocked(candidate) {
				return s.moveActor(actor, candidate)
			}
		}
		return nil
	case schema.Strafe:
		dy := 1
		if v.Direction == schema.StrafeLeft {
			dy = -1
		}
		return s.moveActor(actor, schema.GridPos{X: actor.Pos.X, Y: actor.Pos.Y + dy})
	case schema.Patrol:
		if len(v.Waypoints) == 0 {
			return schema.InvalidActionError("patrol with no waypoints")
		}
		return s.stepToward(actor, v.Waypoints[0])

	// Offensive
	case schema.Attack:
		return s.damageTarget(actor, v.TargetID, attackDamage, false)
	case schema.AimedShot:
		return s.damageTarget(actor, v.TargetID, aimedShotDamage, true)
	case schema.QuickAttack:
		return s.damageTarget(actor, v.TargetID, quickAttackDamage, false)
	case schema.HeavyAttack:
		return s.damageTarget(actor, v.TargetID, heavyAttackDamage, false)
	case schema.AoEAttack:
		center := schema.GridPos{X: v.X, Y: v.Y}
		for _, e := range s.Entities {
			if e.Team == TeamEnemy && float64(center.Manhattan(e.Pos)) <= v.Radius {
				e.HP -= attackDamage
			}
		}
		return nil
	case schema.ThrowExplosive:
		return s.throwAt(actor, "grenade", schema.GridPos{X: v.X, Y: v.Y})
	case schema.CoverFire:
		target := s.Entity(v.TargetID)
		if target == nil {
			return schema.InvalidActionError(fmt.Sprintf("unknown target %d", v.TargetID))
		}
		if !s.LosClear(actor.Pos, target.Pos) {
			return schema.LosBlockedError()
		}
		if actor.Ammo <= 0 {
			return schema.ResourceError("ammo")
		}
		dmg := int(v.Duration * 5)
		if dmg < 1 {
			dmg = 1
		}
		target.HP -= dmg
		actor.Ammo -= coverFireAmmoCost
		if actor.Ammo < 0 {
			actor.Ammo = 0
		}
		return nil
	case schema.Charge:
		target := s.Entity(v.TargetID)
		if target == nil {
			return schema.InvalidActionError(fmt.Sprintf("unknown target %d", v.TargetID))
		}
		if err := s.stepToward(actor, target.Pos); err != nil {
			return err
		}
		if actor.Pos.Manhattan(target.Pos) <= 1 {
			target.HP -= quickAttackDamage
		}
		return nil

	// Defensive
	case schema.Block, schema.Parry, schema.Dodge:
		// Posture changes with no world-state effect at this resolution.
		return nil
	case schema.ThrowSmoke:
		return s.throwAt(actor, "smoke", schema.GridPos{X: v.X, Y: v.Y})
	case schema.Heal:
		target := actor
		if v.TargetID != nil {
			target = s.Entity(*v.TargetID)
			if target == nil {
				return schema.InvalidActionError(fmt.Sprintf("unknown target %d", *v.TargetID))
			}
		}
		target.HP += healAmount
		return nil
	case schema.UseDefensiveAbility:
		return s.useAbility(actor, v.AbilityName)

	// Equipment
	case schema.EquipWeapon, schema.SwitchWeapon, schema.UseItem, schema.DropItem:
		// Inventory is outside this simulation's resolution.
		return nil
	case schema.Reload:
		actor.Ammo = reloadAmmo
		return nil

	// Tactical
	case schema.CallReinforcements:
		for i := 0; i < v.Count; i++ {
			s.Spawn(schema.GridPos{X: actor.Pos.X + (i % 3) - 1, Y: actor.Pos.Y + i/3}, 40, 10, TeamCompanion)
		}
		return nil
	case schema.MarkTarget, schema.CoordinateAttack, schema.Distract, schema.RequestCover:
		target := uint32(0)
		switch t := step.(type) {
		case schema.MarkTarget:
			target = t.TargetID
		case schema.CoordinateAttack:
			target = t.TargetID
		case schema.Distract:
			target = t.TargetID
		}
		if target != 0 && s.Entity(target) == nil {
			return schema.InvalidActionError(fmt.Sprintf("unknown target %d", target))
		}
		return nil
	case schema.SetAmbush:
		return s.moveActor(actor, v.Position)
	case schema.Regroup:
		return s.moveActor(actor, v.RallyPoint)

	// Utility
	case schema.Scan, schema.Wait, schema.Taunt:
		return nil
	case schema.Interact:
		if s.Entity(v.TargetID) == nil {
			return schema.InvalidActionError(fmt.Sprintf("unknown target %d", v.TargetID))
		}
		return nil
	case schema.UseAbility:
		return s.useAbility(actor, v.AbilityName)

	// Legacy and terrain
	case schema.Throw:
		return s.throwAt(actor, v.Item, schema.GridPos{X: v.X, Y: v.Y})
	case schema.Revive:
		ally := s.Entity(v.AllyID)
		if ally == nil {
			return schema.InvalidActionError(fmt.Sprintf("unknown ally %d", v.AllyID))
		}
		if ally.HP <= 0 {
			ally.HP = reviveHP
		}
		return nil
	case schema.ModifyTerrain:
		s.AddObstacle(schema.GridPos{X: v.X, Y: v.Y})
		return nil

	default:
		return schema.InvalidActionError(fmt.Sprintf("unhandled act %s", step.Act()))
	}
}

func (s *State) moveActor(actor *Entity, to schema.GridPos) error {
	if !s.PathExists(actor.Pos, to) {
		return schema.NoPathError()
	}
	actor.Pos = to
	return nil
}

func (s *State) stepToward(actor *Entity, to schema.GridPos) error {
	next := schema.GridPos{
		X: actor.Pos.X + sign(to.X-actor.Pos.X),
		Y: actor.Pos.Y + sign(to.Y-actor.Pos.Y),
	}
	return s.moveActor(actor, next)
}

func (s *State) damageTarget(actor *Entity, targetID uint32, dmg int, ranged bool) error {
	target := s.Entity(targetID)
	if target == nil {
		return schema.InvalidActionError(fmt.Sprintf("unknown target %d", targetID))
	}
	if ranged {
		if !s.LosClear(actor.Pos, target.Pos) {
			return schema.LosBlockedError()
		}
		if actor.Ammo <= 0 {
			return schema.ResourceError("ammo")
		}
		actor.Ammo--
	}
	target.HP -= dmg
	return nil
}

func (s *State) throwAt(actor *Entity, item string, at schema.GridPos) error {
	key := "throw:" + item
	if s.Cooldown(actor.ID, key) > 0 {
		return schema.CooldownError(key)
	}
	if !s.LosClear(actor.Pos, at) {
		return schema.LosBlockedError()
	}
	s.SetCooldown(actor.ID, key, throwCooldown)
	return nil
}

func (s *State) useAbility(actor *Entity, name string) error {
	if s.Cooldown(actor.ID, name) > 0 {
		return schema.CooldownError(name)
	}
	s.SetCooldown(actor.ID, name, throwCooldown)
	return nil
}

// RecoveryStep maps an execution failure to the substitute action the agent
// should take next cycle. Cooldown failures return nil: retry silently.
func RecoveryStep(err error) schema.ActionStep {
	switch schema.ErrorKindOf(err) {
	case schema.ErrNoPath:
		return schema.Scan{Radius: 5}
	case schema.ErrLosBlocked:
		return schema.TakeCover{}
	case schema.ErrInvalidAction:
		return schema.Wait{Duration: 1}
	default:
		return nil
	}
}
