package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"arbiter/internal/logging"
	"arbiter/internal/schema"
)

// =============================================================================
// RESPONSE PARSER - five-stage extraction
// =============================================================================
// Advisor output ranges from clean JSON to prose-wrapped, fenced, enveloped,
// or half-broken text. Stages run in fixed order; each stage produces zero or
// more candidate payloads, every candidate is checked against the registry,
// and the first candidate that validates wins. A candidate with an unknown
// verb is rejected here even though the lenient decoder would accept it.
// All five stages failing is a parse failure the fallback chain treats as a
// tier failure; it is never a panic.

// ExtractionStage records which stage produced the accepted plan.
type ExtractionStage int

const (
	StageDirect ExtractionStage = iota + 1
	StageCodeFence
	StageEnvelope
	StageObjectExtraction
	StageTolerant
)

// String returns the stage's metric label.
func (s ExtractionStage) String() string {
	switch s {
	case StageDirect:
		return "direct"
	case StageCodeFence:
		return "code_fence"
	case StageEnvelope:
		return "envelope"
	case StageObjectExtraction:
		return "object_extraction"
	case StageTolerant:
		return "tolerant"
	default:
		return "unknown"
	}
}

// ParseResult is an accepted plan plus how it was extracted.
type ParseResult struct {
	Intent   schema.Intent
	Stage    ExtractionStage
	Warnings []string
}

// ParsePlan runs the staged extraction over raw advisor text.
func ParsePlan(text string, reg *schema.Registry) (*ParseResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty advisor response")
	}

	var errs []string
	stages := []struct {
		stage      ExtractionStage
		candidates func(string) []string
	}{
		{StageDirect, func(t string) []string { return []string{t} }},
		{StageCodeFence, extractFenced},
		{StageEnvelope, extractEnvelope},
		{StageObjectExtraction, extractObjects},
		{StageTolerant, extractTolerant},
	}

	for _, s := range stages {
		for _, candidate := range s.candidates(trimmed) {
			result, err := acceptCandidate(candidate, s.stage, reg)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", s.stage, err))
				continue
			}
			logging.Parser("ParsePlan: accepted plan %s via %s (%d steps)",
				result.Intent.PlanID, s.stage, len(result.Intent.Steps))
			return result, nil
		}
	}

	logging.Parser("ParsePlan: all stages failed: %s", strings.Join(errs, "; "))
	return nil, fmt.Errorf("no stage produced a valid plan: %s", strings.Join(errs, "; "))
}

// acceptCandidate validates a candidate payload and decodes it.
func acceptCandidate(candidate string, stage ExtractionStage, reg *schema.Registry) (*ParseResult, error) {
	cleaned := cleanJSON(candidate)
	if err := schema.ValidateRawIntent([]byte(cleaned), reg); err != nil {
		return nil, err
	}
	var intent schema.Intent
	if err := json.Unmarshal([]byte(cleaned), &intent); err != nil {
		return nil, err
	}
	result := &ParseResult{Intent: intent, Stage: stage}
	if len(intent.Steps) == 0 {
		// Legal no-op plan, but worth surfacing.
		result.Warnings = append(result.Warnings, "plan has no steps")
	}
	return result, nil
}

// cleanJSON strips trailing commas before closing braces/brackets, outside
// string literals. Models emit these constantly.
func cleanJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			b.WriteByte(c)
		case ',':
			// Look ahead past whitespace for a closing brace/bracket.
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// extractFenced pulls the contents of ```json fences first, then bare ```
// fences.
func extractFenced(text string) []string {
	var out []string
	for _, marker := range []string{"```json", "```"} {
		rest := text
		for {
			start := strings.Index(rest, marker)
			if start < 0 {
				break
			}
			body := rest[start+len(marker):]
			end := strings.Index(body, "```")
			if end < 0 {
				break
			}
			candidate := strings.TrimSpace(body[:end])
			if candidate != "" {
				out = append(out, candidate)
			}
			rest = body[end+3:]
		}
		if len(out) > 0 {
			break
		}
	}
	return out
}

// envelope mirrors the wrapper shapes chat APIs put around the payload.
type envelope struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Response string `json:"response"`
}

// extractEnvelope unwraps known wrapper fields (message.content, response)
// and offers both the raw inner text and any fence inside it.
func extractEnvelope(text string) []string {
	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil
	}
	var inners []string
	if env.Message != nil && env.Message.Content != "" {
		inners = append(inners, env.Message.Content)
	}
	if env.Response != "" {
		inners = append(inners, env.Response)
	}

	var out []string
	for _, inner := range inners {
		inner = strings.TrimSpace(inner)
		out = append(out, inner)
		out = append(out, extractFenced(inner)...)
	}
	return out
}

// extractObjects scans for balanced top-level {...} regions, respecting
// string literals and escapes, and offers those that mention a step list.
func extractObjects(text string) []string {
	var out []string
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					candidate := text[start : i+1]
					if strings.Contains(candidate, "steps") {
						out = append(out, candidate)
					}
					start = -1
				}
			}
		}
	}
	return out
}

// planIDAliases are accepted stand-ins for "plan_id", in priority order.
var planIDAliases = []string{
	"plan_id", "planId", "planID", "plan_eid", "id",
	"plan_no", "plan_num", "planNumber", "plan_n",
}

// extractTolerant rebuilds a canonical intent object from a loosely-formed
// one: plan identifier under any known alias (or any key mentioning both
// "plan" and "id"), steps taken as-is.
func extractTolerant(text string) []string {
	var out []string
	for _, candidate := range extractObjects(text) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(cleanJSON(candidate)), &fields); err != nil {
			continue
		}

		planID := findPlanID(fields)
		steps, ok := fields["steps"]
		if planID == "" || !ok {
			continue
		}

		rebuilt, err := json.Marshal(struct {
			PlanID string          `json:"plan_id"`
			Steps  json.RawMessage `json:"steps"`
		}{PlanID: planID, Steps: steps})
		if err != nil {
			continue
		}
		out = append(out, string(rebuilt))
	}
	return out
}

func findPlanID(fields map[string]json.RawMessage) string {
	decode := func(raw json.RawMessage) string {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return fmt.Sprintf("%d", int64(n))
		}
		return ""
	}

	for _, alias := range planIDAliases {
		if raw, ok := fields[alias]; ok {
			if s := decode(raw); s != "" {
				return s
			}
		}
	}
	// Last resort: any key whose normalized form mentions both plan and id.
	for key, raw := range fields {
		norm := strings.ToLower(strings.ReplaceAll(key, "_", ""))
		if strings.Contains(norm, "plan") && strings.Contains(norm, "id") {
			if s := decode(raw); s != "" {
				return s
			}
		}
	}
	return ""
}
