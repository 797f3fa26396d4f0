package schema

// =============================================================================
// ACTION STEP - Closed tagged union
// =============================================================================
// ActionStep is a closed sum: every variant is declared here, every consumer
// switches exhaustively on the concrete type, and the wire form carries the
// variant name in an "act" discriminator field. New variants are additive;
// existing variants are never removed, so decoders for older data keep
// working. Unknown discriminators decode to SafeDefaultStep, never an error.

// ActionStep is one typed step of an Intent.
type ActionStep interface {
	// Act returns the wire discriminator for this variant.
	Act() string
}

// MovementSpeed tags an optional movement pace.
type MovementSpeed string

const (
	SpeedWalk   MovementSpeed = "Walk"
	SpeedRun    MovementSpeed = "Run"
	SpeedSprint MovementSpeed = "Sprint"
)

// StrafeDirection tags a lateral movement direction.
type StrafeDirection string

const (
	StrafeLeft  StrafeDirection = "Left"
	StrafeRight StrafeDirection = "Right"
)

// DodgeDirection tags an evasive movement direction.
type DodgeDirection string

const (
	DodgeLeft  DodgeDirection = "Left"
	DodgeRight DodgeDirection = "Right"
	DodgeBack  DodgeDirection = "Back"
)

// -----------------------------------------------------------------------------
// Movement
// -----------------------------------------------------------------------------

// MoveTo moves the agent to an absolute grid position.
type MoveTo struct {
	X     int            `json:"x"`
	Y     int            `json:"y"`
	Speed *MovementSpeed `json:"speed,omitempty"`
}

// Approach closes to within Distance of a target.
type Approach struct {
	TargetID uint32  `json:"target_id"`
	Distance float64 `json:"distance"`
}

// Retreat opens distance from a target.
type Retreat struct {
	TargetID uint32  `json:"target_id"`
	Distance float64 `json:"distance"`
}

// TakeCover moves to cover, optionally at an explicit position.
type TakeCover struct {
	Position *GridPos `json:"position,omitempty"`
}

// Strafe moves laterally relative to a target.
type Strafe struct {
	TargetID  uint32          `json:"target_id"`
	Direction StrafeDirection `json:"direction"`
}

// Patrol walks a waypoint loop.
type Patrol struct {
	Waypoints []GridPos `json:"waypoints"`
}

// -----------------------------------------------------------------------------
// Offensive
// -----------------------------------------------------------------------------

// Attack is a standard attack on a target.
type Attack struct {
	TargetID uint32 `json:"target_id"`
}

// AimedShot is a slower, higher-damage ranged attack.
type AimedShot struct {
	TargetID uint32 `json:"target_id"`
}

// QuickAttack is a fast, low-damage attack.
type QuickAttack struct {
	TargetID uint32 `json:"target_id"`
}

// HeavyAttack is a slow, high-damage melee attack.
type HeavyAttack struct {
	TargetID uint32 `json:"target_id"`
}

// AoEAttack damages everything within Radius of a point.
type AoEAttack struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Radius float64 `json:"radius"`
}

// ThrowExplosive lobs an explosive at a point.
type ThrowExplosive struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CoverFire suppresses a target for Duration seconds.
type CoverFire struct {
	TargetID uint32  `json:"target_id"`
	Duration float64 `json:"duration"`
}

// Charge rushes a target.
type Charge struct {
	TargetID uint32 `json:"target_id"`
}

// -----------------------------------------------------------------------------
// Defensive
// -----------------------------------------------------------------------------

// Block raises a guard.
type Block struct{}

// Dodge evades, optionally in an explicit direction.
type Dodge struct {
	Direction *DodgeDirection `json:"direction,omitempty"`
}

// Parry deflects an incoming melee attack.
type Parry struct{}

// ThrowSmoke throws a smoke grenade at a point.
type ThrowSmoke struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Heal heals a target, or self when TargetID is nil.
type Heal struct {
	TargetID *uint32 `json:"target_id,omitempty"`
}

// UseDefensiveAbility triggers a named defensive ability.
type UseDefensiveAbility struct {
	AbilityName string `json:"ability_name"`
}

// -----------------------------------------------------------------------------
// Equipment
// -----------------------------------------------------------------------------

// EquipWeapon equips a weapon by name.
type EquipWeapon struct {
	WeaponName string `json:"weapon_name"`
}

// SwitchWeapon switches to a weapon slot.
type SwitchWeapon struct {
	Slot int `json:"slot"`
}

// Reload refills the current weapon.
type Reload struct{}

// UseItem consumes a named inventory item.
type UseItem struct {
	ItemName string `json:"item_name"`
}

// DropItem drops a named inventory item.
type DropItem struct {
	ItemName string `json:"item_name"`
}

// -----------------------------------------------------------------------------
// Tactical
// -----------------------------------------------------------------------------

// CallReinforcements requests Count allies.
type CallReinforcements struct {
	Count int `json:"count"`
}

// MarkTarget paints a target for allies.
type MarkTarget struct {
	TargetID uint32 `json:"target_id"`
}

// RequestCover asks allies for covering fire.
type RequestCover struct {
	Duration float64 `json:"duration"`
}

// CoordinateAttack synchronizes an attack on a target with allies.
type CoordinateAttack struct {
	TargetID uint32 `json:"target_id"`
}

// SetAmbush stations the agent at an ambush position.
type SetAmbush struct {
	Position GridPos `json:"position"`
}

// Distract draws a target's attention.
type Distract struct {
	TargetID uint32 `json:"target_id"`
}

// Regroup moves to a rally point.
type Regroup struct {
	RallyPoint GridPos `json:"rally_point"`
}

// -----------------------------------------------------------------------------
// Utility
// -----------------------------------------------------------------------------

// Scan surveys the surroundings within Radius.
type Scan struct {
	Radius float64 `json:"radius"`
}

// Wait idles for Duration seconds.
type Wait struct {
	Duration float64 `json:"duration"`
}

// Interact uses a world object.
type Interact struct {
	TargetID uint32 `json:"target_id"`
}

// UseAbility triggers a named ability.
type UseAbility struct {
	AbilityName string `json:"ability_name"`
}

// Taunt provokes a target.
type Taunt struct {
	TargetID uint32 `json:"target_id"`
}

// -----------------------------------------------------------------------------
// Legacy and terrain
// -----------------------------------------------------------------------------

// Throw lobs a named throwable (smoke, grenade) at a point.
type Throw struct {
	Item string `json:"item"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Revive revives a downed ally.
type Revive struct {
	AllyID uint32 `json:"ally_id"`
}

// ModifyTerrain places a terrain feature at a point.
type ModifyTerrain struct {
	Feature TerrainFeature `json:"feature"`
	X       int            `json:"x"`
	Y       int            `json:"y"`
}

// Act implementations. Wire names match the variant type names.

func (MoveTo) Act() string              { return "MoveTo" }
func (Approach) Act() string            { return "Approach" }
func (Retreat) Act() string             { return "Retreat" }
func (TakeCover) Act() string           { return "TakeCover" }
func (Strafe) Act() string              { return "Strafe" }
func (Patrol) Act() string              { return "Patrol" }
func (Attack) Act() string              { return "Attack" }
func (AimedShot) Act() string           { return "AimedShot" }
func (QuickAttack) Act() string         { return "QuickAttack" }
func (HeavyAttack) Act() string         { return "HeavyAttack" }
func (AoEAttack) Act() string           { return "AoEAttack" }
func (ThrowExplosive) Act() string      { return "ThrowExplosive" }
func (CoverFire) Act() string           { return "CoverFire" }
func (Charge) Act() string              { return "Charge" }
func (Block) Act() string               { return "Block" }
func (Dodge) Act() string               { return "Dodge" }
func (Parry) Act() string               { return "Parry" }
func (ThrowSmoke) Act() string          { return "ThrowSmoke" }
func (Heal) Act() string                { return "Heal" }
func (UseDefensiveAbility) Act() string { return "UseDefensiveAbility" }
func (EquipWeapon) Act() string         { return "EquipWeapon" }
func (SwitchWeapon) Act() string        { return "SwitchWeapon" }
func (Reload) Act() string              { return "Reload" }
func (UseItem) Act() string             { return "UseItem" }
func (DropItem) Act() string            { return "DropItem" }
func (CallReinforcements) Act() string  { return "CallReinforcements" }
func (MarkTarget) Act() string          { return "MarkTarget" }
func (RequestCover) Act() string        { return "RequestCover" }
func (CoordinateAttack) Act() string    { return "CoordinateAttack" }
func (SetAmbush) Act() string           { return "SetAmbush" }
func (Distract) Act() string            { return "Distract" }
func (Regroup) Act() string             { return "Regroup" }
func (Scan) Act() string                { return "Scan" }
func (Wait) Act() string                { return "Wait" }
func (Interact) Act() string            { return "Interact" }
func (UseAbility) Act() string          { return "UseAbility" }
func (Taunt) Act() string               { return "Taunt" }
func (Throw) Act() string               { return "Throw" }
func (Revive) Act() string              { return "Revive" }
func (ModifyTerrain) Act() string       { return "ModifyTerrain" }

// SafeDefaultStep is substituted when a decoder meets an unknown "act"
// discriminator. A one second wait is always structurally valid.
func SafeDefaultStep() ActionStep {
	return Wait{Duration: 1}
}

// Intent is the identified, ordered output of a planning strategy. Steps
// execute sequentially for a single agent; an empty step list is a legal
// no-op tick. PlanID is never empty.
type Intent struct {
	PlanID string
	Steps  []ActionStep
}
