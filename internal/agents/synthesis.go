// Package agents wraps the individual extraction and generation calls made
// against the completion service. Each agent takes an injected llm.Client,
// builds its structured prompt, and decodes a typed result; failure modes
// are the caller's concern (the orchestrator isolates them).
package agents

import (
	"context"
	"fmt"

	"requify/internal/llm"
	"requify/internal/prompt"
	"requify/internal/snapshot"
)

// Task tags used for logging and scripted fakes.
const (
	TaskSynthesis      = "synthesis"
	TaskDeepExtraction = "deep_extraction"
	TaskTechStack      = "tech_stack"
	TaskUserStories    = "user_stories"
	TaskDataSchema     = "data_schema"
	TaskAPISpec        = "api_spec"
)

// SynthesisIn is the raw one-sentence product idea.
type SynthesisIn struct {
	Sentence string `json:"sentence"`
}

// SynthesisOut is the first structured expansion of the idea: a name, a
// vision statement, and an initial domain analysis.
type SynthesisOut struct {
	ProjectName string            `json:"projectName"`
	Vision      string            `json:"vision"`
	Analysis    snapshot.Snapshot `json:"analysis"`
}

// Synthesis expands a single sentence into a structured domain analysis.
type Synthesis struct {
	Client llm.Client
}

var synthesisSpec = prompt.Spec{
	Purpose:    "Expand a one-sentence product idea into a structured domain analysis.",
	Background: "First stage of a requirements intake pipeline; later agents refine this analysis.",
	OutputFields: []prompt.Field{
		{Name: "projectName", Type: "string", Required: true, Description: "short working name for the product"},
		{Name: "vision", Type: "string", Required: true, Description: "one-paragraph vision statement"},
		{Name: "analysis", Type: "object", Required: true, Description: "actors, useCases, systemBoundaries, dataEntities, problemStatement, goalsMetrics, nonFunctionalRequirements, constraints"},
	},
	Constraints: []string{
		"every actor needs name, role, classification (human|system|external), goals, painPoints",
		"every use case needs a stable id, actor reference, trigger, outcome",
		"do not invent domain facts that the sentence cannot support; prefer fewer, well-grounded entries",
	},
	Rules: []string{
		"identify at least two actors when the domain plausibly has them",
		"record both internal and external system boundaries",
	},
}

func (a Synthesis) Run(ctx context.Context, in SynthesisIn) (SynthesisOut, error) {
	var out SynthesisOut
	p, err := prompt.Build(synthesisSpec, in)
	if err != nil {
		return out, fmt.Errorf("agents: synthesis prompt: %w", err)
	}
	raw, err := a.Client.GenerateJSON(llm.WithTask(ctx, TaskSynthesis), p, in)
	if err != nil {
		return out, fmt.Errorf("agents: synthesis: %w", err)
	}
	if err := prompt.Decode(raw, &out); err != nil {
		return out, fmt.Errorf("agents: synthesis: %w", err)
	}
	return out, nil
}
