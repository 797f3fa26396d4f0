package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// =============================================================================
// DIRECTOR TYPES - world-level operations, "op" discriminated
// =============================================================================
// The director emits world-scale interventions on a seconds cadence, gated by
// a replenishing budget. Ops share the arbiter's tagged-union pattern: "op"
// names the variant on the wire, unknown ops are dropped rather than failing
// the plan decode.

// Rect is an inclusive axis-aligned grid rectangle.
type Rect struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// DirectorOp is one world-level operation.
type DirectorOp interface {
	// Op returns the wire discriminator for this operation.
	Op() string
}

// Fortify places obstacles around the perimeter of a rectangle.
type Fortify struct {
	Rect Rect `json:"rect"`
}

// Collapse draws an obstacle line between two points.
type Collapse struct {
	A GridPos `json:"a"`
	B GridPos `json:"b"`
}

// SpawnWave spawns Count entities of an archetype around an origin resolved
// by a SpawnLocation.
type SpawnWave struct {
	Archetype string        `json:"archetype"`
	Count     uint32        `json:"count"`
	Origin    SpawnLocation `json:"origin"`
}

func (Fortify) Op() string   { return "Fortify" }
func (Collapse) Op() string  { return "Collapse" }
func (SpawnWave) Op() string { return "SpawnWave" }

// SpawnLocation resolves a spawn origin, discriminated on the wire by a
// "method" field. Unknown methods decode to FixedLocation at the origin cell.
type SpawnLocation interface {
	Method() string
}

// FixedLocation spawns at an explicit cell.
type FixedLocation struct {
	Pos GridPos `json:"pos"`
}

// NearPlayer spawns within Radius of the player.
type NearPlayer struct {
	Radius float64 `json:"radius"`
}

// AtPOI spawns at the first point of interest of the given kind.
type AtPOI struct {
	Kind string `json:"kind"`
}

func (FixedLocation) Method() string { return "Fixed" }
func (NearPlayer) Method() string    { return "NearPlayer" }
func (AtPOI) Method() string         { return "AtPOI" }

// EncodeSpawnLocation serializes a location with its "method" discriminator.
func EncodeSpawnLocation(l SpawnLocation) ([]byte, error) {
	if l == nil {
		l = FixedLocation{}
	}
	body, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode location %s: %w", l.Method(), err)
	}
	tag := fmt.Sprintf(`{"method":%q`, l.Method())
	if bytes.Equal(body, []byte("{}")) {
		return []byte(tag + "}"), nil
	}
	return append([]byte(tag+","), body[1:]...), nil
}

// DecodeSpawnLocation deserializes a location; unknown "method" yields
// FixedLocation at the origin.
func DecodeSpawnLocation(data []byte) (SpawnLocation, error) {
	var probe struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	switch probe.Method {
	case "Fixed":
		var l FixedLocation
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, err
		}
		return l, nil
	case "NearPlayer":
		var l NearPlayer
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, err
		}
		return l, nil
	case "AtPOI":
		var l AtPOI
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, err
		}
		return l, nil
	default:
		return FixedLocation{}, nil
	}
}

// MarshalJSON keeps the origin's "method" discriminator on the wire.
func (s SpawnWave) MarshalJSON() ([]byte, error) {
	origin, err := EncodeSpawnLocation(s.Origin)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Archetype string          `json:"archetype"`
		Count     uint32          `json:"count"`
		Origin    json.RawMessage `json:"origin"`
	}{Archetype: s.Archetype, Count: s.Count, Origin: origin})
}

// UnmarshalJSON decodes the op, defaulting a missing origin to FixedLocation.
func (s *SpawnWave) UnmarshalJSON(data []byte) error {
	var raw struct {
		Archetype string          `json:"archetype"`
		Count     uint32          `json:"count"`
		Origin    json.RawMessage `json:"origin"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Archetype = raw.Archetype
	s.Count = raw.Count
	if len(raw.Origin) == 0 {
		s.Origin = FixedLocation{}
		return nil
	}
	origin, err := DecodeSpawnLocation(raw.Origin)
	if err != nil {
		return err
	}
	s.Origin = origin
	return nil
}

// EncodeDirectorOp serializes an op with its "op" discriminator.
func EncodeDirectorOp(op DirectorOp) ([]byte, error) {
	if op == nil {
		return nil, fmt.Errorf("cannot encode nil op")
	}
	body, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", op.Op(), err)
	}
	tag := fmt.Sprintf(`{"op":%q`, op.Op())
	if bytes.Equal(body, []byte("{}")) {
		return []byte(tag + "}"), nil
	}
	return append([]byte(tag+","), body[1:]...), nil
}

// DecodeDirectorOp deserializes an op. Unknown "op" discriminators return
// (nil, nil); DirectorPlan decoding drops them.
func DecodeDirectorOp(data []byte) (DirectorOp, error) {
	var probe struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode op: %w", err)
	}
	switch probe.Op {
	case "Fortify":
		var op Fortify
		if err := json.Unmarshal(data, &op); err != nil {
			return nil, err
		}
		return op, nil
	case "Collapse":
		var op Collapse
		if err := json.Unmarshal(data, &op); err != nil {
			return nil, err
		}
		return op, nil
	case "SpawnWave":
		var op SpawnWave
		if err := json.Unmarshal(data, &op); err != nil {
			return nil, err
		}
		return op, nil
	default:
		return nil, nil
	}
}

// DirectorPlan is an ordered batch of world-level operations.
type DirectorPlan struct {
	Ops []DirectorOp
}

// MarshalJSON encodes the plan with "op"-tagged operations.
func (p DirectorPlan) MarshalJSON() ([]byte, error) {
	ops := make([]json.RawMessage, 0, len(p.Ops))
	for i, op := range p.Ops {
		raw, err := EncodeDirectorOp(op)
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		ops = append(ops, raw)
	}
	return json.Marshal(struct {
		Ops []json.RawMessage `json:"ops"`
	}{Ops: ops})
}

// UnmarshalJSON decodes the plan, dropping operations with unknown
// discriminators instead of failing the batch.
func (p *DirectorPlan) UnmarshalJSON(data []byte) error {
	var raw struct {
		Ops []json.RawMessage `json:"ops"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Ops = make([]DirectorOp, 0, len(raw.Ops))
	for i, r := range raw.Ops {
		op, err := DecodeDirectorOp(r)
		if err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
		if op == nil {
			continue
		}
		p.Ops = append(p.Ops, op)
	}
	return nil
}
