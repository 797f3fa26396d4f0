package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"arbiter/internal/schema"
)

// =============================================================================
// VALIDATE COMMAND - check intent JSON against the action registry
// =============================================================================

var validateSimplified bool

var validateCmd = &cobra.Command{
	Use:   "validate [intent.json...]",
	Short: "Validate intent JSON against the action registry",
	Long: `Validates one or more intent files against the action registry:
every step must name a registered verb and carry its required arguments
with the right types. Returns a non-zero exit code on any failure.

Example:
  arbiter validate plan.json
  cat plan.json | arbiter validate -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateSimplified, "simplified", false, "Validate against the simplified verb tier")
}

func runValidate(cmd *cobra.Command, args []string) error {
	reg := schema.DefaultRegistry()
	if validateSimplified {
		reg = schema.SimplifiedRegistry()
	}

	hasError := false
	for _, path := range args {
		var data []byte
		var err error
		if path == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			fmt.Printf("ERROR reading %s: %v\n", path, err)
			hasError = true
			continue
		}

		if err := schema.ValidateRawIntent(data, reg); err != nil {
			fmt.Printf("INVALID %s: %v\n", path, err)
			hasError = true
			continue
		}

		var in schema.Intent
		if err := json.Unmarshal(data, &in); err != nil {
			fmt.Printf("INVALID %s: %v\n", path, err)
			hasError = true
			continue
		}
		fmt.Printf("OK %s: plan=%s steps=%d\n", path, in.PlanID, len(in.Steps))
	}

	if hasError {
		os.Exit(1)
	}
	return nil
}
