package agents

import (
	"context"
	"fmt"

	"requify/internal/llm"
	"requify/internal/prompt"
)

// Endpoint describes one API operation.
type Endpoint struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Summary  string `json:"summary,omitempty"`
	Request  string `json:"request,omitempty"`
	Response string `json:"response,omitempty"`
}

// APISpecOut is the proposed API surface.
type APISpecOut struct {
	Endpoints []Endpoint `json:"endpoints"`
}

// APISpec derives an API surface from the use cases and entities.
type APISpec struct {
	Client llm.Client
}

var apiSpecSpec = prompt.Spec{
	Purpose: "Propose a REST API surface covering the extracted use cases.",
	OutputFields: []prompt.Field{
		{Name: "endpoints", Type: "array", Required: true, Description: "{method, path, summary, request, response} entries"},
	},
	Constraints: []string{
		"paths are plural kebab-case resources, e.g. /v1/purchase-orders",
		"every use case is reachable through at least one endpoint",
	},
}

func (a APISpec) Run(ctx context.Context, in ExtractionIn) (APISpecOut, error) {
	var out APISpecOut
	p, err := prompt.Build(apiSpecSpec, in)
	if err != nil {
		return out, fmt.Errorf("agents: api spec prompt: %w", err)
	}
	raw, err := a.Client.GenerateJSON(llm.WithTask(ctx, TaskAPISpec), p, in)
	if err != nil {
		return out, fmt.Errorf("agents: api spec: %w", err)
	}
	if err := prompt.Decode(raw, &out); err != nil {
		return out, fmt.Errorf("agents: api spec: %w", err)
	}
	return out, nil
}
