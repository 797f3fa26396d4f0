package schema

// PlannerMode selects which strategy plans for an agent.
type PlannerMode string

const (
	ModeRule         PlannerMode = "rule"
	ModeBehaviorTree PlannerMode = "behavior_tree"
	ModeUtility      PlannerMode = "utility"
	ModeGOAP         PlannerMode = "goap"
	ModeAdvisor      PlannerMode = "advisor"  // remote advisor behind the fallback chain
	ModeEnsemble     PlannerMode = "ensemble" // concurrent multi-strategy vote
)

// PolicyID is an enumerated planning profile resolved once at configuration
// time into concrete strategy parameters. Free-form policy strings are not
// accepted; unknown identifiers fall back to PolicyDefault at resolve time.
type PolicyID string

const (
	PolicyDefault    PolicyID = "default"
	PolicyAggressive PolicyID = "aggressive"
	PolicyDefensive  PolicyID = "defensive"
	PolicySupport    PolicyID = "support"
)

// KnownPolicy reports whether the identifier names a defined policy.
func KnownPolicy(p PolicyID) bool {
	switch p {
	case PolicyDefault, PolicyAggressive, PolicyDefensive, PolicySupport:
		return true
	}
	return false
}

// ResolvePolicy maps an identifier to a defined policy, substituting
// PolicyDefault for unknown values.
func ResolvePolicy(p PolicyID) PolicyID {
	if KnownPolicy(p) {
		return p
	}
	return PolicyDefault
}

// Controller is the per-agent planning configuration. It is mutated only by
// game logic outside the arbiter; the arbiter reads it.
type Controller struct {
	Mode   PlannerMode `json:"mode"`
	Policy PolicyID    `json:"policy,omitempty"`
}

// DefaultController returns a rule-mode controller with the default policy.
func DefaultController() Controller {
	return Controller{Mode: ModeRule, Policy: PolicyDefault}
}
