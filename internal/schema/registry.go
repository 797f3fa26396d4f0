package schema

import (
	"fmt"
	"sync"

	"arbiter/internal/logging"
)

// =============================================================================
// ACTION REGISTRY - known action kinds and their argument shapes
// =============================================================================
// The registry maps action verb -> expected argument shape. The validator
// consults it to reject unknown or malformed steps; the advisor prompt
// builder consults it to tell the model which verbs exist. Registration
// order is preserved because prompts and tie-breaking depend on it.

// ArgType is the expected JSON shape of one argument.
type ArgType string

const (
	ArgInt     ArgType = "int"      // integral number
	ArgUint    ArgType = "uint"     // non-negative integral number
	ArgFloat   ArgType = "float"    // any number
	ArgString  ArgType = "string"   // string
	ArgEnum    ArgType = "enum"     // string restricted to Enum values
	ArgPos     ArgType = "pos"      // {"x":int,"y":int} object
	ArgPosList ArgType = "pos_list" // array of pos objects
	ArgFeature ArgType = "feature"  // terrain feature object with "type" tag
)

// ArgSpec describes one argument of an action verb.
type ArgSpec struct {
	Name     string
	Type     ArgType
	Required bool
	Enum     []string // valid values when Type == ArgEnum
}

// ActionSpec describes one registered action verb.
type ActionSpec struct {
	Name        string
	Category    string // movement, offensive, defensive, equipment, tactical, utility, terrain
	Description string
	Args        []ArgSpec
}

// Registry holds the known action verbs. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]ActionSpec
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]ActionSpec)}
}

// Register adds a verb to the registry.
func (r *Registry) Register(spec ActionSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if spec.Name == "" {
		return fmt.Errorf("action name cannot be empty")
	}
	if _, exists := r.specs[spec.Name]; exists {
		return fmt.Errorf("action already registered: %s", spec.Name)
	}
	r.specs[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	logging.ValidationDebug("Register: registered action verb %s (category=%s, args=%d)",
		spec.Name, spec.Category, len(spec.Args))
	return nil
}

// Lookup returns the spec for a verb.
func (r *Registry) Lookup(name string) (ActionSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[name]
	return spec, ok
}

// Contains reports whether the verb is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns all registered verbs in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered verbs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func targetArg() ArgSpec { return ArgSpec{Name: "target_id", Type: ArgUint, Required: true} }
func xyArgs() []ArgSpec {
	return []ArgSpec{
		{Name: "x", Type: ArgInt, Required: true},
		{Name: "y", Type: ArgInt, Required: true},
	}
}

// DefaultRegistry returns a registry with every supported action verb.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	specs := []ActionSpec{
		// Movement
		{Name: "MoveTo", Category: "movement", Description: "Move to an absolute grid position",
			Args: append(xyArgs(), ArgSpec{Name: "speed", Type: ArgEnum, Enum: []string{"Walk", "Run", "Sprint"}})},
		{Name: "Approach", Category: "movement", Description: "Close to within distance of a target",
			Args: []ArgSpec{targetArg(), {Name: "distance", Type: ArgFloat, Required: true}}},
		{Name: "Retreat", Category: "movement", Description: "Open distance from a target",
			Args: []ArgSpec{targetArg(), {Name: "distance", Type: ArgFloat, Required: true}}},
		{Name: "TakeCover", Category: "movement", Description: "Move to cover",
			Args: []ArgSpec{{Name: "position", Type: ArgPos}}},
		{Name: "Strafe", Category: "movement", Description: "Move laterally relative to a target",
			Args: []ArgSpec{targetArg(), {Name: "direction", Type: ArgEnum, Required: true, Enum: []string{"Left", "Right"}}}},
		{Name: "Patrol", Category: "movement", Description: "Walk a waypoint loop",
			Args: []ArgSpec{{Name: "waypoints", Type: ArgPosList, Required: true}}},

		// Offensive
		{Name: "Attack", Category: "offensive", Description: "Standard attack on a target",
			Args: []ArgSpec{targetArg()}},
		{Name: "AimedShot", Category: "offensive", Description: "Slow high-damage ranged attack",
			Args: []ArgSpec{targetArg()}},
		{Name: "QuickAttack", Category: "offensive", Description: "Fast low-damage attack",
			Args: []ArgSpec{targetArg()}},
		{Name: "HeavyAttack", Category: "offensive", Description: "Slow high-damage melee attack",
			Args: []ArgSpec{targetArg()}},
		{Name: "AoEAttack", Category: "offensive", Description: "Area attack around a point",
			Args: append(xyArgs(), ArgSpec{Name: "radius", Type: ArgFloat, Required: true})},
		{Name: "ThrowExplosive", Category: "offensive", Description: "Throw an explosive at a point",
			Args: xyArgs()},
		{Name: "CoverFire", Category: "offensive", Description: "Suppress a target for a duration",
			Args: []ArgSpec{targetArg(), {Name: "duration", Type: ArgFloat, Required: true}}},
		{Name: "Charge", Category: "offensive", Description: "Rush a target",
			Args: []ArgSpec{targetArg()}},

		// Defensive
		{Name: "Block", Category: "defensive", Description: "Raise guard"},
		{Name: "Dodge", Category: "defensive", Description: "Evade",
			Args: []ArgSpec{{Name: "direction", Type: ArgEnum, Enum: []string{"Left", "Right", "Back"}}}},
		{Name: "Parry", Category: "defensive", Description: "Deflect a melee attack"},
		{Name: "ThrowSmoke", Category: "defensive", Description: "Throw a smoke grenade at a point",
			Args: xyArgs()},
		{Name: "Heal", Category: "defensive", Description: "Heal a target, or self when omitted",
			Args: []ArgSpec{{Name: "target_id", Type: ArgUint}}},
		{Name: "UseDefensiveAbility", Category: "defensive", Description: "Trigger a named defensive ability",
			Args: []ArgSpec{{Name: "ability_name", Type: ArgString, Required: true}}},

		// Equipment
		{Name: "EquipWeapon", Category: "equipment", Description: "Equip a weapon by name",
			Args: []ArgSpec{{Name: "weapon_name", Type: ArgString, Required: true}}},
		{Name: "SwitchWeapon", Category: "equipment", Description: "Switch to a weapon slot",
			Args: []ArgSpec{{Name: "slot", Type: ArgInt, Required: true}}},
		{Name: "Reload", Category: "equipment", Description: "Refill the current weapon"},
		{Name: "UseItem", Category: "equipment", Description: "Consume a named item",
			Args: []ArgSpec{{Name: "item_name", Type: ArgString, Required: true}}},
		{Name: "DropItem", Category: "equipment", Description: "Drop a named item",
			Args: []ArgSpec{{Name: "item_name", Type: ArgString, Required: true}}},

		// Tactical
		{Name: "CallReinforcements", Category: "tactical", Description: "Request allies",
			Args: []ArgSpec{{Name: "count", Type: ArgInt, Required: true}}},
		{Name: "MarkTarget", Category: "tactical", Description: "Paint a target for allies",
			Args: []ArgSpec{targetArg()}},
		{Name: "RequestCover", Category: "tactical", Description: "Ask allies for covering fire",
			Args: []ArgSpec{{Name: "duration", Type: ArgFloat, Required: true}}},
		{Name: "CoordinateAttack", Category: "tactical", Description: "Synchronize an attack with allies",
			Args: []ArgSpec{targetArg()}},
		{Name: "SetAmbush", Category: "tactical", Description: "Station at an ambush position",
			Args: []ArgSpec{{Name: "position", Type: ArgPos, Required: true}}},
		{Name: "Distract", Category: "tactical", Description: "Draw a target's attention",
			Args: []ArgSpec{targetArg()}},
		{Name: "Regroup", Category: "tactical", Description: "Move to a rally point",
			Args: []ArgSpec{{Name: "rally_point", Type: ArgPos, Required: true}}},

		// Utility
		{Name: "Scan", Category: "utility", Description: "Survey surroundings within a radius",
			Args: []ArgSpec{{Name: "radius", Type: ArgFloat, Required: true}}},
		{Name: "Wait", Category: "utility", Description: "Idle for a duration",
			Args: []ArgSpec{{Name: "duration", Type: ArgFloat, Required: true}}},
		{Name: "Interact", Category: "utility", Description: "Use a world object",
			Args: []ArgSpec{targetArg()}},
		{Name: "UseAbility", Category: "utility", Description: "Trigger a named ability",
			Args: []ArgSpec{{Name: "ability_name", Type: ArgString, Required: true}}},
		{Name: "Taunt", Category: "utility", Description: "Provoke a target",
			Args: []ArgSpec{targetArg()}},

		// Legacy and terrain
		{Name: "Throw", Category: "utility", Description: "Throw a named throwable at a point",
			Args: append([]ArgSpec{{Name: "item", Type: ArgEnum, Required: true, Enum: []string{"smoke", "grenade"}}}, xyArgs()...)},
		{Name: "Revive", Category: "utility", Description: "Revive a downed ally",
			Args: []ArgSpec{{Name: "ally_id", Type: ArgUint, Required: true}}},
		{Name: "ModifyTerrain", Category: "terrain", Description: "Place a terrain feature at a point",
			Args: append([]ArgSpec{{Name: "feature", Type: ArgFeature}}, xyArgs()...)},
	}
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			// Specs above are a static table; a duplicate is a programming error.
			panic(err)
		}
	}
	return r
}

// simplifiedVerbs is the reduced verb set offered to the advisor on the
// simplified fallback tier. Smaller prompts parse more reliably.
var simplifiedVerbs = []string{
	"MoveTo", "Attack", "TakeCover", "Reload", "Heal",
	"Wait", "Scan", "Throw", "CoverFire", "Retreat",
	"Approach", "Dodge", "UseItem", "Regroup", "Revive",
}

// SimplifiedRegistry returns a registry restricted to the common verb subset
// used by the simplified advisor tier.
func SimplifiedRegistry() *Registry {
	full := DefaultRegistry()
	r := NewRegistry()
	for _, name := range simplifiedVerbs {
		spec, ok := full.Lookup(name)
		if !ok {
			panic(fmt.Sprintf("simplified verb %s missing from default registry", name))
		}
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}
	return r
}
