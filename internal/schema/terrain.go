package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TerrainFeature is the payload of a ModifyTerrain step, discriminated on the
// wire by a "type" field. Unknown types decode to Rubble, the inert default.
type TerrainFeature interface {
	FeatureType() string
}

// Barricade is a destructible blocking feature.
type Barricade struct {
	HP int `json:"hp"`
}

// Trench is a dug defensive feature.
type Trench struct {
	Depth int `json:"depth"`
}

// Rubble is loose debris. It is also the safe default for unknown features.
type Rubble struct{}

func (Barricade) FeatureType() string { return "Barricade" }
func (Trench) FeatureType() string    { return "Trench" }
func (Rubble) FeatureType() string    { return "Rubble" }

// EncodeTerrainFeature serializes a feature with its "type" discriminator.
func EncodeTerrainFeature(f TerrainFeature) ([]byte, error) {
	if f == nil {
		f = Rubble{}
	}
	body, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode feature %s: %w", f.FeatureType(), err)
	}
	tag := fmt.Sprintf(`{"type":%q`, f.FeatureType())
	if bytes.Equal(body, []byte("{}")) {
		return []byte(tag + "}"), nil
	}
	return append([]byte(tag+","), body[1:]...), nil
}

// DecodeTerrainFeature deserializes a feature; unknown "type" yields Rubble.
func DecodeTerrainFeature(data []byte) (TerrainFeature, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode feature: %w", err)
	}
	switch probe.Type {
	case "Barricade":
		var f Barricade
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f, nil
	case "Trench":
		var f Trench
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f, nil
	case "Rubble":
		return Rubble{}, nil
	default:
		return Rubble{}, nil
	}
}

// MarshalJSON encodes the step with its feature's "type" discriminator intact.
func (m ModifyTerrain) MarshalJSON() ([]byte, error) {
	feature, err := EncodeTerrainFeature(m.Feature)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Feature json.RawMessage `json:"feature"`
		X       int             `json:"x"`
		Y       int             `json:"y"`
	}{Feature: feature, X: m.X, Y: m.Y})
}

// UnmarshalJSON decodes the step, defaulting a missing feature to Rubble.
func (m *ModifyTerrain) UnmarshalJSON(data []byte) error {
	var raw struct {
		Feature json.RawMessage `json:"feature"`
		X       int             `json:"x"`
		Y       int             `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.X = raw.X
	m.Y = raw.Y
	if len(raw.Feature) == 0 {
		m.Feature = Rubble{}
		return nil
	}
	feature, err := DecodeTerrainFeature(raw.Feature)
	if err != nil {
		return err
	}
	m.Feature = feature
	return nil
}
