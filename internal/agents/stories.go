package agents

import (
	"context"
	"fmt"

	"requify/internal/llm"
	"requify/internal/prompt"
)

// UserStory is one backlog-ready story derived from the use cases.
type UserStory struct {
	ID                 string   `json:"id"`
	Actor              string   `json:"actor"`
	Want               string   `json:"want"`
	Benefit            string   `json:"benefit,omitempty"`
	AcceptanceCriteria []string `json:"acceptanceCriteria,omitempty"`
	Priority           string   `json:"priority,omitempty"`
}

// StoriesOut is the generated story set.
type StoriesOut struct {
	Stories []UserStory `json:"stories"`
}

// Stories turns use cases into user stories with acceptance criteria.
type Stories struct {
	Client llm.Client
}

var storiesSpec = prompt.Spec{
	Purpose: "Derive user stories with acceptance criteria from the extracted use cases.",
	OutputFields: []prompt.Field{
		{Name: "stories", Type: "array", Required: true, Description: "{id, actor, want, benefit, acceptanceCriteria, priority} entries"},
	},
	Constraints: []string{
		"one or more stories per use case; reuse the use case id as the story id prefix",
		"acceptance criteria must be independently verifiable",
	},
}

func (a Stories) Run(ctx context.Context, in ExtractionIn) (StoriesOut, error) {
	var out StoriesOut
	p, err := prompt.Build(storiesSpec, in)
	if err != nil {
		return out, fmt.Errorf("agents: stories prompt: %w", err)
	}
	raw, err := a.Client.GenerateJSON(llm.WithTask(ctx, TaskUserStories), p, in)
	if err != nil {
		return out, fmt.Errorf("agents: stories: %w", err)
	}
	if err := prompt.Decode(raw, &out); err != nil {
		return out, fmt.Errorf("agents: stories: %w", err)
	}
	return out, nil
}
