package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// =============================================================================
// WIRE CODEC - "act" discriminated encoding for ActionStep and Intent
// =============================================================================
// Every step serializes as a single JSON object whose "act" field names the
// variant and whose remaining fields are the variant's own. Decoding is
// lenient: an unknown "act" yields SafeDefaultStep so a whole persisted plan
// is never lost to one unreadable step. Strict rejection of unknown verbs is
// the validator's job, which inspects the raw form before decoding.

type actProbe struct {
	Act string `json:"act"`
}

// EncodeStep serializes a step to its wire form.
func EncodeStep(s ActionStep) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot encode nil step")
	}
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", s.Act(), err)
	}
	// Splice the discriminator in front of the variant's own fields.
	tag := fmt.Sprintf(`{"act":%q`, s.Act())
	if bytes.Equal(body, []byte("{}")) {
		return []byte(tag + "}"), nil
	}
	return append([]byte(tag+","), body[1:]...), nil
}

// DecodeStep deserializes a step from its wire form. An unrecognized "act"
// discriminator decodes to SafeDefaultStep; only malformed JSON is an error.
func DecodeStep(data []byte) (ActionStep, error) {
	var probe actProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode step: %w", err)
	}
	if probe.Act == "" {
		return nil, fmt.Errorf("decode step: missing act discriminator")
	}

	decode := func(v ActionStep) (ActionStep, error) {
		if err := json.Unmarshal(data, v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Act, err)
		}
		return v, nil
	}

	var step ActionStep
	var err error
	switch probe.Act {
	case "MoveTo":
		step, err = decode(&MoveTo{})
	case "Approach":
		step, err = decode(&Approach{})
	case "Retreat":
		step, err = decode(&Retreat{})
	case "TakeCover":
		step, err = decode(&TakeCover{})
	case "Strafe":
		step, err = decode(&Strafe{})
	case "Patrol":
		step, err = decode(&Patrol{})
	case "Attack":
		step, err = decode(&Attack{})
	case "AimedShot":
		step, err = decode(&AimedShot{})
	case "QuickAttack":
		step, err = decode(&QuickAttack{})
	case "HeavyAttack":
		step, err = decode(&HeavyAttack{})
	case "AoEAttack":
		step, err = decode(&AoEAttack{})
	case "ThrowExplosive":
		step, err = decode(&ThrowExplosive{})
	case "CoverFire":
		step, err = decode(&CoverFire{})
	case "Charge":
		step, err = decode(&Charge{})
	case "Block":
		step, err = decode(&Block{})
	case "Dodge":
		step, err = decode(&Dodge{})
	case "Parry":
		step, err = decode(&Parry{})
	case "ThrowSmoke":
		step, err = decode(&ThrowSmoke{})
	case "Heal":
		step, err = decode(&Heal{})
	case "UseDefensiveAbility":
		step, err = decode(&UseDefensiveAbility{})
	case "EquipWeapon":
		step, err = decode(&EquipWeapon{})
	case "SwitchWeapon":
		step, err = decode(&SwitchWeapon{})
	case "Reload":
		step, err = decode(&Reload{})
	case "UseItem":
		step, err = decode(&UseItem{})
	case "DropItem":
		step, err = decode(&DropItem{})
	case "CallReinforcements":
		step, err = decode(&CallReinforcements{})
	case "MarkTarget":
		step, err = decode(&MarkTarget{})
	case "RequestCover":
		step, err = decode(&RequestCover{})
	case "CoordinateAttack":
		step, err = decode(&CoordinateAttack{})
	case "SetAmbush":
		step, err = decode(&SetAmbush{})
	case "Distract":
		step, err = decode(&Distract{})
	case "Regroup":
		step, err = decode(&Regroup{})
	case "Scan":
		step, err = decode(&Scan{})
	case "Wait":
		step, err = decode(&Wait{})
	case "Interact":
		step, err = decode(&Interact{})
	case "UseAbility":
		step, err = decode(&UseAbility{})
	case "Taunt":
		step, err = decode(&Taunt{})
	case "Throw":
		step, err = decode(&Throw{})
	case "Revive":
		step, err = decode(&Revive{})
	case "ModifyTerrain":
		step, err = decode(&ModifyTerrain{})
	default:
		// Unknown variant from newer data. Degrade, do not abort.
		return SafeDefaultStep(), nil
	}
	if err != nil {
		return nil, err
	}
	return deref(step), nil
}

// deref converts the pointer the decoder filled back to the value form used
// everywhere else.
func deref(s ActionStep) ActionStep {
	switch v := s.(type) {
	case *MoveTo:
		return *v
	case *Approach:
		return *v
	case *Retreat:
		return *v
	case *TakeCover:
		return *v
	case *Strafe:
		return *v
	case *Patrol:
		return *v
	case *Attack:
		return *v
	case *AimedShot:
		return *v
	case *QuickAttack:
		return *v
	case *HeavyAttack:
		return *v
	case *AoEAttack:
		return *v
	case *ThrowExplosive:
		return *v
	case *CoverFire:
		return *v
	case *Charge:
		return *v
	case *Block:
		return *v
	case *Dodge:
		return *v
	case *Parry:
		return *v
	case *ThrowSmoke:
		return *v
	case *Heal:
		return *v
	case *UseDefensiveAbility:
		return *v
	case *EquipWeapon:
		return *v
	case *SwitchWeapon:
		return *v
	case *Reload:
		return *v
	case *UseItem:
		return *v
	case *DropItem:
		return *v
	case *CallReinforcements:
		return *v
	case *MarkTarget:
		return *v
	case *RequestCover:
		return *v
	case *CoordinateAttack:
		return *v
	case *SetAmbush:
		return *v
	case *Distract:
		return *v
	case *Regroup:
		return *v
	case *Scan:
		return *v
	case *Wait:
		return *v
	case *Interact:
		return *v
	case *UseAbility:
		return *v
	case *Taunt:
		return *v
	case *Throw:
		return *v
	case *Revive:
		return *v
	case *ModifyTerrain:
		return *v
	default:
		return s
	}
}

// MarshalJSON encodes the Intent with "act"-tagged steps.
func (in Intent) MarshalJSON() ([]byte, error) {
	steps := make([]json.RawMessage, 0, len(in.Steps))
	for i, s := range in.Steps {
		raw, err := EncodeStep(s)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, raw)
	}
	return json.Marshal(struct {
		PlanID string            `json:"plan_id"`
		Steps  []json.RawMessage `json:"steps"`
	}{PlanID: in.PlanID, Steps: steps})
}

// UnmarshalJSON decodes an Intent, degrading unknown step variants to
// SafeDefaultStep rather than failing the whole plan.
func (in *Intent) UnmarshalJSON(data []byte) error {
	var raw struct {
		PlanID string            `json:"plan_id"`
		Steps  []json.RawMessage `json:"steps"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	in.PlanID = raw.PlanID
	in.Steps = make([]ActionStep, 0, len(raw.Steps))
	for i, r := range raw.Steps {
		step, err := DecodeStep(r)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		in.Steps = append(in.Steps, step)
	}
	return nil
}
