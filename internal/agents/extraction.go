package agents

import (
	"context"
	"fmt"

	"requify/internal/llm"
	"requify/internal/prompt"
	"requify/internal/snapshot"
)

// ExtractionIn carries the synthesized context into the refinement pass.
type ExtractionIn struct {
	Vision   string            `json:"vision"`
	Analysis snapshot.Snapshot `json:"analysis"`
}

// DeepExtraction refines the synthesized analysis: fills actor goals and
// pain points, use case pre/postconditions, entity attributes, NFRs.
type DeepExtraction struct {
	Client llm.Client
}

var deepExtractionSpec = prompt.Spec{
	Purpose:    "Deepen a first-pass domain analysis into a complete extraction snapshot.",
	Background: "The input analysis was produced from a single sentence; enrich it without discarding entries.",
	OutputFields: []prompt.Field{
		{Name: "actors", Type: "array", Required: true, Description: "actors with goals and painPoints filled in"},
		{Name: "useCases", Type: "array", Required: true, Description: "use cases with trigger, outcome, preconditions, postconditions, priority"},
		{Name: "systemBoundaries", Type: "object", Required: true},
		{Name: "dataEntities", Type: "array", Required: true, Description: "entities with attributes and relationships"},
		{Name: "problemStatement", Type: "object", Required: false},
		{Name: "goalsMetrics", Type: "array", Required: false, Description: "at least three goal/metric pairs"},
		{Name: "nonFunctionalRequirements", Type: "array", Required: false, Description: "NFRs across at least three categories"},
		{Name: "constraints", Type: "array", Required: false},
	},
	Constraints: []string{
		"keep every entry from the input; only refine or extend",
		"use case ids must be stable across input and output",
	},
}

func (a DeepExtraction) Run(ctx context.Context, in ExtractionIn) (snapshot.Snapshot, error) {
	var out snapshot.Snapshot
	p, err := prompt.Build(deepExtractionSpec, in)
	if err != nil {
		return out, fmt.Errorf("agents: deep extraction prompt: %w", err)
	}
	raw, err := a.Client.GenerateJSON(llm.WithTask(ctx, TaskDeepExtraction), p, in)
	if err != nil {
		return out, fmt.Errorf("agents: deep extraction: %w", err)
	}
	if err := prompt.Decode(raw, &out); err != nil {
		return out, fmt.Errorf("agents: deep extraction: %w", err)
	}
	return out, nil
}
