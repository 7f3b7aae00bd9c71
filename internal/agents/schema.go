package agents

import (
	"context"
	"fmt"

	"requify/internal/llm"
	"requify/internal/prompt"
)

// Column is one column of a proposed table.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable,omitempty"`
	References string `json:"references,omitempty"` // table.column
}

// Table is one proposed storage table.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// SchemaOut is the proposed storage schema.
type SchemaOut struct {
	Tables []Table `json:"tables"`
}

// Schema derives a storage schema from the extracted data entities.
type Schema struct {
	Client llm.Client
}

var schemaSpec = prompt.Spec{
	Purpose: "Propose a relational storage schema for the extracted data entities.",
	OutputFields: []prompt.Field{
		{Name: "tables", Type: "array", Required: true, Description: "{name, columns:[{name, type, nullable, references}]} entries"},
	},
	Constraints: []string{
		"one table per entity plus join tables where relationships require them",
		"snake_case table and column names; every table gets an id column",
	},
}

func (a Schema) Run(ctx context.Context, in ExtractionIn) (SchemaOut, error) {
	var out SchemaOut
	p, err := prompt.Build(schemaSpec, in)
	if err != nil {
		return out, fmt.Errorf("agents: schema prompt: %w", err)
	}
	raw, err := a.Client.GenerateJSON(llm.WithTask(ctx, TaskDataSchema), p, in)
	if err != nil {
		return out, fmt.Errorf("agents: schema: %w", err)
	}
	if err := prompt.Decode(raw, &out); err != nil {
		return out, fmt.Errorf("agents: schema: %w", err)
	}
	return out, nil
}
