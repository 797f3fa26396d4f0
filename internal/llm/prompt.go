package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"arbiter/internal/schema"
)

// BuildPrompt formats the snapshot and the registry's verb catalog into the
// advisor prompt. The same builder serves the full and simplified tiers; the
// registry passed in decides how many verbs the model sees.
func BuildPrompt(snap *schema.PerceptionSnapshot, reg *schema.Registry) string {
	var b strings.Builder

	b.WriteString("You are a tactical AI companion in a squad combat simulation.\n")
	b.WriteString("Given the world snapshot below, respond with ONLY a JSON object:\n")
	b.WriteString("{\"plan_id\": \"<short id>\", \"steps\": [{\"act\": \"<verb>\", ...}, ...]}\n\n")

	b.WriteString("## World Snapshot\n")
	if data, err := json.MarshalIndent(snap, "", "  "); err == nil {
		b.Write(data)
		b.WriteString("\n\n")
	}

	b.WriteString("## Available Verbs\n")
	for _, name := range reg.Names() {
		spec, _ := reg.Lookup(name)
		b.WriteString(fmt.Sprintf("- %s", name))
		if len(spec.Args) > 0 {
			args := make([]string, 0, len(spec.Args))
			for _, a := range spec.Args {
				arg := fmt.Sprintf("%s:%s", a.Name, a.Type)
				if !a.Required {
					arg += "?"
				}
				args = append(args, arg)
			}
			b.WriteString(" (" + strings.Join(args, ", ") + ")")
		}
		if spec.Description != "" {
			b.WriteString(" - " + spec.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Use only the verbs listed above.\n")
	b.WriteString("- Steps execute in order; keep plans short (1-4 steps).\n")
	b.WriteString("- Never use a ranged attack with zero ammo; reload first.\n")
	if snap.Objective != "" {
		b.WriteString(fmt.Sprintf("- Current objective: %s\n", snap.Objective))
	}

	return b.String()
}
