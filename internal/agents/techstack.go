package agents

import (
	"context"
	"fmt"

	"requify/internal/llm"
	"requify/internal/prompt"
)

// Recommendation is one proposed technology with its rationale.
type Recommendation struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

// TechStackOut groups recommendations by layer.
type TechStackOut struct {
	Frontend       []Recommendation `json:"frontend,omitempty"`
	Backend        []Recommendation `json:"backend,omitempty"`
	Database       []Recommendation `json:"database,omitempty"`
	Infrastructure []Recommendation `json:"infrastructure,omitempty"`
}

// TechStack proposes a technology stack for the analyzed product.
type TechStack struct {
	Client llm.Client
}

var techStackSpec = prompt.Spec{
	Purpose: "Recommend a pragmatic technology stack for the analyzed product.",
	OutputFields: []prompt.Field{
		{Name: "frontend", Type: "array", Required: false, Description: "{name, reason} entries"},
		{Name: "backend", Type: "array", Required: true, Description: "{name, reason} entries"},
		{Name: "database", Type: "array", Required: true, Description: "{name, reason} entries"},
		{Name: "infrastructure", Type: "array", Required: false, Description: "{name, reason} entries"},
	},
	Constraints: []string{
		"respect recorded constraints; never recommend against an explicit one",
		"prefer boring, widely adopted technology unless an NFR demands otherwise",
	},
}

func (a TechStack) Run(ctx context.Context, in ExtractionIn) (TechStackOut, error) {
	var out TechStackOut
	p, err := prompt.Build(techStackSpec, in)
	if err != nil {
		return out, fmt.Errorf("agents: tech stack prompt: %w", err)
	}
	raw, err := a.Client.GenerateJSON(llm.WithTask(ctx, TaskTechStack), p, in)
	if err != nil {
		return out, fmt.Errorf("agents: tech stack: %w", err)
	}
	if err := prompt.Decode(raw, &out); err != nil {
		return out, fmt.Errorf("agents: tech stack: %w", err)
	}
	return out, nil
}
