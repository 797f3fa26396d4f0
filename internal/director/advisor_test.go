package director

import (
	"context"
	"errors"
	"strings"
	"testing"

	"arbiter/internal/llm"
	"arbiter/internal/schema"
	"arbiter/internal/world"
)

func TestAdvisorPlanOpsBareJSON(t *testing.T) {
	client := &llm.MockClient{Responses: []string{
		`{"ops":[{"op":"SpawnWave","archetype":"grunt","count":3,"origin":{"method":"NearPlayer","radius":5}},` +
			`{"op":"Collapse","a":{"x":1,"y":1},"b":{"x":4,"y":1}}]}`,
	}}
	adv := NewAdvisor(client)
	s := openWorld(10, 10)
	plan, err := adv.PlanOps(context.Background(), s, New(nil).Budget(), "rising")
	if err != nil {
		t.Fatalf("PlanOps: %v", err)
	}
	if len(plan.Ops) != 2 {
		t.Fatalf("got %d ops, want 2", len(plan.Ops))
	}
	wave, ok := plan.Ops[0].(schema.SpawnWave)
	if !ok {
		t.Fatalf("op 0 is %T, want SpawnWave", plan.Ops[0])
	}
	if wave.Archetype != "grunt" || wave.Count != 3 {
		t.Errorf("wave = %+v", wave)
	}
	if near, ok := wave.Origin.(schema.NearPlayer); !ok || near.Radius != 5 {
		t.Errorf("origin = %#v, want NearPlayer radius 5", wave.Origin)
	}
	if _, ok := plan.Ops[1].(schema.Collapse); !ok {
		t.Errorf("op 1 is %T, want Collapse", plan.Ops[1])
	}
}

func TestAdvisorPlanOpsStripsCodeFence(t *testing.T) {
	client := &llm.MockClient{Responses: []string{
		"Here is my plan:\n```json\n{\"ops\":[{\"op\":\"Fortify\",\"rect\":{\"x0\":0,\"y0\":0,\"x1\":3,\"y1\":3}}]}\n```",
	}}
	adv := NewAdvisor(client)
	plan, err := adv.PlanOps(context.Background(), openWorld(10, 10), New(nil).Budget(), "steady")
	if err != nil {
		t.Fatalf("PlanOps: %v", err)
	}
	f, ok := plan.Ops[0].(schema.Fortify)
	if !ok {
		t.Fatalf("op is %T, want Fortify", plan.Ops[0])
	}
	if f.Rect != (schema.Rect{X0: 0, Y0: 0, X1: 3, Y1: 3}) {
		t.Errorf("rect = %+v", f.Rect)
	}
}

func TestAdvisorPlanOpsNoUsableOps(t *testing.T) {
	// Unknown ops decode to nothing, leaving an empty plan.
	client := &llm.MockClient{Responses: []string{`{"ops":[{"op":"Earthquake"}]}`}}
	adv := NewAdvisor(client)
	_, err := adv.PlanOps(context.Background(), openWorld(10, 10), New(nil).Budget(), "steady")
	if err == nil || !strings.Contains(err.Error(), "no usable ops") {
		t.Errorf("err = %v, want no usable ops", err)
	}
}

func TestAdvisorPlanOpsErrors(t *testing.T) {
	wantErr := errors.New("upstream down")
	adv := NewAdvisor(&llm.MockClient{Err: wantErr})
	_, err := adv.PlanOps(context.Background(), openWorld(10, 10), New(nil).Budget(), "steady")
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped upstream error", err)
	}

	adv = NewAdvisor(&llm.MockClient{Responses: []string{"I cannot help with that."}})
	_, err = adv.PlanOps(context.Background(), openWorld(10, 10), New(nil).Budget(), "steady")
	if err == nil || !strings.Contains(err.Error(), "parse director plan") {
		t.Errorf("err = %v, want parse failure", err)
	}
}

func TestBuildDirectorPrompt(t *testing.T) {
	s := openWorld(20, 15)
	s.T = 12.5
	s.Spawn(schema.GridPos{X: 3, Y: 4}, 85, 0, world.TeamPlayer)
	s.Spawn(schema.GridPos{X: 8, Y: 8}, 40, 10, world.TeamEnemy)
	dead := s.Spawn(schema.GridPos{X: 9, Y: 9}, 40, 10, world.TeamEnemy)
	s.Entity(dead).HP = 0

	prompt := buildDirectorPrompt(s, New(nil).Budget(), "rising")
	for _, want := range []string{
		"Grid: 20x15 at t=12.5",
		"collapse=1/2 fortify=3/6 spawn=8/12",
		"Intensity target: rising",
		"Player at (3,4) with 85 hp",
		"Living enemies: 1.",
		`"op":"SpawnWave"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n%s", want, prompt)
		}
	}
}
