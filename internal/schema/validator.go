package schema

import (
	"encoding/json"
	"fmt"
	"math"
)

// =============================================================================
// SCHEMA VALIDATOR - pure (step, registry) checks
// =============================================================================
// Validation happens on the raw wire form, before lenient decoding, so a
// hallucinated or unknown verb is rejected here even though DecodeStep would
// degrade it to a safe default. Side-effect free.

// ValidateRawStep checks one raw step object against the registry: the "act"
// discriminator must name a registered verb and every required argument must
// be present with the declared shape.
func ValidateRawStep(raw json.RawMessage, reg *Registry) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return InvalidActionError(fmt.Sprintf("step is not an object: %v", err))
	}

	actRaw, ok := fields["act"]
	if !ok {
		return InvalidActionError("missing act discriminator")
	}
	var act string
	if err := json.Unmarshal(actRaw, &act); err != nil {
		return InvalidActionError("act discriminator is not a string")
	}

	spec, ok := reg.Lookup(act)
	if !ok {
		return NewEngineError(ErrInvalidAction, act)
	}

	for _, arg := range spec.Args {
		val, present := fields[arg.Name]
		if !present {
			if arg.Required {
				return InvalidActionError(fmt.Sprintf("%s: missing required argument %q", act, arg.Name))
			}
			continue
		}
		if err := checkArg(arg, val); err != nil {
			return InvalidActionError(fmt.Sprintf("%s: argument %q: %v", act, arg.Name, err))
		}
	}
	return nil
}

// checkArg verifies one argument value against its declared type.
func checkArg(arg ArgSpec, val json.RawMessage) error {
	switch arg.Type {
	case ArgInt, ArgUint:
		var n float64
		if err := json.Unmarshal(val, &n); err != nil {
			return fmt.Errorf("expected number")
		}
		if n != math.Trunc(n) {
			return fmt.Errorf("expected integer, got %v", n)
		}
		if arg.Type == ArgUint && n < 0 {
			return fmt.Errorf("expected non-negative integer, got %v", n)
		}
	case ArgFloat:
		var n float64
		if err := json.Unmarshal(val, &n); err != nil {
			return fmt.Errorf("expected number")
		}
	case ArgString:
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return fmt.Errorf("expected string")
		}
	case ArgEnum:
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return fmt.Errorf("expected string")
		}
		for _, allowed := range arg.Enum {
			if s == allowed {
				return nil
			}
		}
		return fmt.Errorf("value %q not in %v", s, arg.Enum)
	case ArgPos:
		var p GridPos
		if err := json.Unmarshal(val, &p); err != nil {
			return fmt.Errorf("expected {x,y} object")
		}
	case ArgPosList:
		var ps []GridPos
		if err := json.Unmarshal(val, &ps); err != nil {
			return fmt.Errorf("expected array of {x,y} objects")
		}
	case ArgFeature:
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(val, &probe); err != nil {
			return fmt.Errorf("expected feature object")
		}
	default:
		return fmt.Errorf("unknown argument type %q", arg.Type)
	}
	return nil
}

// ValidateRawIntent checks a raw intent object: plan identifier present, every
// step valid per ValidateRawStep. Errors name the first offending step index.
// An empty step list is legal.
func ValidateRawIntent(data []byte, reg *Registry) error {
	var raw struct {
		PlanID *string           `json:"plan_id"`
		Steps  []json.RawMessage `json:"steps"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("intent is not an object: %w", err)
	}
	if raw.PlanID == nil || *raw.PlanID == "" {
		return fmt.Errorf("missing plan_id")
	}
	for i, step := range raw.Steps {
		if err := ValidateRawStep(step, reg); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// ValidateStep checks a decoded step against the registry.
func ValidateStep(step ActionStep, reg *Registry) error {
	if step == nil {
		return InvalidActionError("nil step")
	}
	raw, err := EncodeStep(step)
	if err != nil {
		return InvalidActionError(err.Error())
	}
	return ValidateRawStep(raw, reg)
}

// ValidateIntent checks a decoded intent: non-empty plan identifier and every
// step registered.
func ValidateIntent(in Intent, reg *Registry) error {
	if in.PlanID == "" {
		return fmt.Errorf("missing plan_id")
	}
	for i, step := range in.Steps {
		if err := ValidateStep(step, reg); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}
