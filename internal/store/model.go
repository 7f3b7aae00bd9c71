package store

import (
	"strings"
	"time"

	"requify/internal/agents"
	"requify/internal/snapshot"
)

// ProjectRecord is the persisted view of a project. Revision increments on
// every write; concurrent writers race last-write-wins, the revision only
// makes the overwrite visible.
type ProjectRecord struct {
	ProjectID string            `json:"project_id"`
	Name      string            `json:"name"`
	Vision    string            `json:"vision,omitempty"`
	Revision  int               `json:"revision"`
	Score     int               `json:"score"`
	Snapshot  snapshot.Snapshot `json:"snapshot"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ArtifactRecord is one rendered artifact attached to a project run.
type ArtifactRecord struct {
	ID        int       `json:"id"`
	ProjectID string    `json:"project_id"`
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Format    string    `json:"format"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationRecord is one message in a project's intake conversation.
// Append-only; batch expansions write a synthetic pair.
type ConversationRecord struct {
	ID        int       `json:"id"`
	ProjectID string    `json:"project_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// StoryRecord wraps a generated user story with its project.
type StoryRecord struct {
	ProjectID string           `json:"project_id"`
	Story     agents.UserStory `json:"story"`
	CreatedAt time.Time        `json:"created_at"`
}

func normalizeRecord(r ProjectRecord) ProjectRecord {
	r.ProjectID = strings.TrimSpace(r.ProjectID)
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		r.Name = "Project"
	}
	return r
}

type rowScanner interface {
	Scan(dest ...any) error
}
