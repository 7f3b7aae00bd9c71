package agents

import (
	"context"
	"fmt"

	"requify/internal/llm"
	"requify/internal/prompt"
	"requify/internal/snapshot"
)

// TaskTurnExtraction tags conversational extraction calls.
const TaskTurnExtraction = "turn_extraction"

// TurnIn carries one question/answer exchange plus what is already known.
type TurnIn struct {
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Known    snapshot.Snapshot `json:"known"`
}

// TurnExtraction pulls structured requirements data out of a single intake
// answer. The output contains only what the answer mentions; the merge layer
// folds it into the accumulated snapshot.
type TurnExtraction struct {
	Client llm.Client
}

var turnExtractionSpec = prompt.Spec{
	Purpose:    "Extract requirements data mentioned in one conversational answer.",
	Background: "The user was asked a question during requirements intake; the known snapshot shows what was gathered so far.",
	OutputFields: []prompt.Field{
		{Name: "actors", Type: "array", Required: false},
		{Name: "useCases", Type: "array", Required: false},
		{Name: "systemBoundaries", Type: "object", Required: false},
		{Name: "dataEntities", Type: "array", Required: false},
		{Name: "problemStatement", Type: "object", Required: false},
		{Name: "goalsMetrics", Type: "array", Required: false},
		{Name: "nonFunctionalRequirements", Type: "array", Required: false},
		{Name: "constraints", Type: "array", Required: false},
	},
	Constraints: []string{
		"include only information stated or clearly implied by the answer",
		"leave out collections the answer says nothing about",
		"reuse names and ids from the known snapshot when the answer refers to them",
	},
}

func (a TurnExtraction) Run(ctx context.Context, in TurnIn) (snapshot.Snapshot, error) {
	var out snapshot.Snapshot
	p, err := prompt.Build(turnExtractionSpec, in)
	if err != nil {
		return out, fmt.Errorf("agents: turn extraction prompt: %w", err)
	}
	raw, err := a.Client.GenerateJSON(llm.WithTask(ctx, TaskTurnExtraction), p, in)
	if err != nil {
		return out, fmt.Errorf("agents: turn extraction: %w", err)
	}
	if err := prompt.Decode(raw, &out); err != nil {
		return out, fmt.Errorf("agents: turn extraction: %w", err)
	}
	return out, nil
}
