package main

import (
	"context"
	"testing"

	"arbiter/internal/config"
	"arbiter/internal/llm"
	"arbiter/internal/schema"
)

func TestMockAdvisorClientProducesValidPlan(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.LLM.Provider = "mock"

	client, err := newAdvisorClient(context.Background())
	if err != nil {
		t.Fatalf("newAdvisorClient: %v", err)
	}
	raw, err := client.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// The canned reply must survive validation at both advisor tiers, or the
	// mock provider could never demonstrate a successful advisor call.
	for _, reg := range []*schema.Registry{schema.DefaultRegistry(), schema.SimplifiedRegistry()} {
		res, err := llm.ParsePlan(raw, reg)
		if err != nil {
			t.Fatalf("canned mock reply does not validate: %v", err)
		}
		if res.Intent.PlanID != "mock-1" || len(res.Intent.Steps) != 1 {
			t.Fatalf("intent = %+v", res.Intent)
		}
		if res.Intent.Steps[0] != (schema.Scan{Radius: 5}) {
			t.Errorf("step = %+v, want a scan", res.Intent.Steps[0])
		}
	}
}

func TestNewAdvisorClientUnknownProvider(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.LLM.Provider = "oracle"
	if _, err := newAdvisorClient(context.Background()); err == nil {
		t.Error("unknown provider should be rejected")
	}
}
