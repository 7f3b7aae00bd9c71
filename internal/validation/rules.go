package validation

import (
	"context"
	"fmt"
	"strings"

	"requify/internal/snapshot"
)

// RuleValidator is the built-in Validator: deterministic structural gates
// over the snapshot, no I/O. The overall score reuses the completeness rule
// table so conversational and batch scoring agree.
type RuleValidator struct{}

func (RuleValidator) Validate(_ context.Context, record ProjectRecord) (Report, error) {
	s := record.Snapshot
	gates := []GateResult{
		gateIdentity(record),
		gateActors(s),
		gateUseCases(s),
		gateBoundaries(s),
		gateDataModel(s),
	}

	var warnings []string
	for _, g := range gates {
		if g.Passed {
			continue
		}
		for _, c := range g.Checks {
			if !c.Passed && c.Severity != "info" {
				warnings = append(warnings, c.Message)
			}
		}
	}

	return Report{
		OverallScore: snapshot.Score(s),
		HardGates:    gates,
		Warnings:     warnings,
	}, nil
}

func gateIdentity(record ProjectRecord) GateResult {
	checks := []Check{
		{
			Message:  "project has a name",
			Severity: "error",
			Passed:   strings.TrimSpace(record.Name) != "",
		},
		{
			Message:  "project has a vision statement",
			Severity: "warning",
			Passed:   strings.TrimSpace(record.Vision) != "",
		},
	}
	return finishGate("identity", checks)
}

func gateActors(s snapshot.Snapshot) GateResult {
	withGoals := 0
	for _, a := range s.Actors {
		if len(a.Goals) > 0 {
			withGoals++
		}
	}
	checks := []Check{
		{
			Message:  fmt.Sprintf("at least 2 actors recorded (have %d)", len(s.Actors)),
			Severity: "error",
			Passed:   len(s.Actors) >= 2,
		},
		{
			Message:  "every actor has at least one goal",
			Severity: "warning",
			Passed:   len(s.Actors) > 0 && withGoals == len(s.Actors),
		},
	}
	return finishGate("actors", checks)
}

func gateUseCases(s snapshot.Snapshot) GateResult {
	known := make(map[string]bool, len(s.Actors))
	for _, a := range s.Actors {
		known[strings.ToLower(strings.TrimSpace(a.Name))] = true
	}
	dangling := 0
	for _, u := range s.UseCases {
		ref := strings.ToLower(strings.TrimSpace(u.Actor))
		if ref != "" && !known[ref] {
			dangling++
		}
	}
	checks := []Check{
		{
			Message:  fmt.Sprintf("at least 3 use cases recorded (have %d)", len(s.UseCases)),
			Severity: "error",
			Passed:   len(s.UseCases) >= 3,
		},
		{
			Message:  fmt.Sprintf("use case actor references resolve (%d dangling)", dangling),
			Severity: "warning",
			Passed:   dangling == 0,
		},
	}
	return finishGate("use_cases", checks)
}

func gateBoundaries(s snapshot.Snapshot) GateResult {
	checks := []Check{
		{
			Message:  "internal boundary recorded",
			Severity: "error",
			Passed:   len(s.Boundaries.Internal) > 0,
		},
		{
			Message:  "external boundary recorded",
			Severity: "warning",
			Passed:   len(s.Boundaries.External) > 0,
		},
		{
			Message:  "explicit out-of-scope items recorded",
			Severity: "info",
			Passed:   len(s.Boundaries.OutOfScope) > 0,
		},
	}
	return finishGate("boundaries", checks)
}

func gateDataModel(s snapshot.Snapshot) GateResult {
	withAttrs := 0
	for _, e := range s.DataEntities {
		if len(e.Attributes) > 0 {
			withAttrs++
		}
	}
	checks := []Check{
		{
			Message:  fmt.Sprintf("at least 2 data entities recorded (have %d)", len(s.DataEntities)),
			Severity: "error",
			Passed:   len(s.DataEntities) >= 2,
		},
		{
			Message:  "entities carry attributes",
			Severity: "info",
			Passed:   len(s.DataEntities) > 0 && withAttrs == len(s.DataEntities),
		},
	}
	return finishGate("data_model", checks)
}

// finishGate marks a gate failed when any error-severity check fails.
func finishGate(name string, checks []Check) GateResult {
	passed := true
	for _, c := range checks {
		if !c.Passed && c.Severity == "error" {
			passed = false
		}
	}
	return GateResult{Gate: name, Passed: passed, Checks: checks}
}
