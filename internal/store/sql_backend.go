package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"requify/internal/agents"
	"requify/internal/snapshot"
)

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS projects (
  project_id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT 'Project',
  vision TEXT NOT NULL DEFAULT '',
  revision INTEGER NOT NULL DEFAULT 1,
  score INTEGER NOT NULL DEFAULT 0,
  snapshot TEXT NOT NULL DEFAULT '{}',
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS intake_states (
  project_id TEXT PRIMARY KEY,
  state TEXT NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS artifacts (
  id SERIAL PRIMARY KEY,
  project_id TEXT NOT NULL,
  run_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  format TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_artifacts_project_id ON artifacts (project_id);

CREATE TABLE IF NOT EXISTS stories (
  id SERIAL PRIMARY KEY,
  project_id TEXT NOT NULL,
  story TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stories_project_id ON stories (project_id);

CREATE TABLE IF NOT EXISTS conversations (
  id SERIAL PRIMARY KEY,
  project_id TEXT NOT NULL,
  role TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_conversations_project_id ON conversations (project_id);
`

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS projects (
  project_id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT 'Project',
  vision TEXT NOT NULL DEFAULT '',
  revision INTEGER NOT NULL DEFAULT 1,
  score INTEGER NOT NULL DEFAULT 0,
  snapshot TEXT NOT NULL DEFAULT '{}',
  updated_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS intake_states (
  project_id TEXT PRIMARY KEY,
  state TEXT NOT NULL,
  updated_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS artifacts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  project_id TEXT NOT NULL,
  run_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  format TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_artifacts_project_id ON artifacts (project_id);

CREATE TABLE IF NOT EXISTS stories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  project_id TEXT NOT NULL,
  story TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stories_project_id ON stories (project_id);

CREATE TABLE IF NOT EXISTS conversations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  project_id TEXT NOT NULL,
  role TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_conversations_project_id ON conversations (project_id);
`

func (s *Store) ensureSchema() error {
	s.schemaOnce.Do(func() {
		ddl := schemaPostgres
		if s.driver == "sqlite" {
			ddl = schemaSQLite
		}
		_, s.schemaErr = s.db.Exec(ddl)
	})
	return s.schemaErr
}

// rebind converts $N placeholders to ? for drivers that want them. Queries
// are written in postgres form.
func (s *Store) rebind(query string) string {
	if s.driver != "sqlite" {
		return query
	}
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] != '$' {
			b.WriteByte(query[i])
			continue
		}
		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		if j == i+1 {
			b.WriteByte(query[i])
			continue
		}
		b.WriteByte('?')
		i = j - 1
	}
	return b.String()
}

func (s *Store) upsertProjectDB(ctx context.Context, r ProjectRecord) (ProjectRecord, error) {
	if err := s.ensureSchema(); err != nil {
		return ProjectRecord{}, fmt.Errorf("store: schema: %w", err)
	}
	snapJSON, err := json.Marshal(r.Snapshot)
	if err != nil {
		return ProjectRecord{}, fmt.Errorf("store: encode snapshot: %w", err)
	}
	row := s.db.QueryRowContext(ctx, s.rebind(`
INSERT INTO projects (project_id, name, vision, revision, score, snapshot, updated_at)
VALUES ($1, $2, $3, 1, $4, $5, $6)
ON CONFLICT (project_id)
DO UPDATE SET name = excluded.name,
  vision = excluded.vision,
  revision = projects.revision + 1,
  score = excluded.score,
  snapshot = excluded.snapshot,
  updated_at = excluded.updated_at
RETURNING revision`),
		r.ProjectID, r.Name, r.Vision, r.Score, string(snapJSON), r.UpdatedAt)
	if err := row.Scan(&r.Revision); err != nil {
		return ProjectRecord{}, fmt.Errorf("store: upsert project: %w", err)
	}
	return r, nil
}

func scanProject(row rowScanner) (ProjectRecord, error) {
	var r ProjectRecord
	var snapJSON string
	if err := row.Scan(&r.ProjectID, &r.Name, &r.Vision, &r.Revision, &r.Score, &snapJSON, &r.UpdatedAt); err != nil {
		return ProjectRecord{}, err
	}
	if err := json.Unmarshal([]byte(snapJSON), &r.Snapshot); err != nil {
		r.Snapshot = snapshot.Snapshot{}
	}
	return normalizeRecord(r), nil
}

const selectProject = `SELECT project_id, name, vision, revision, score, snapshot, updated_at FROM projects`

func (s *Store) getProjectDB(ctx context.Context, id string) (ProjectRecord, bool, error) {
	if err := s.ensureSchema(); err != nil {
		return ProjectRecord{}, false, fmt.Errorf("store: schema: %w", err)
	}
	row := s.db.QueryRowContext(ctx, s.rebind(selectProject+` WHERE project_id = $1`), id)
	r, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ProjectRecord{}, false, nil
	}
	if err != nil {
		return ProjectRecord{}, false, fmt.Errorf("store: get project: %w", err)
	}
	return r, true, nil
}

func (s *Store) listProjectsDB(ctx context.Context) ([]ProjectRecord, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, selectProject+` ORDER BY updated_at DESC, project_id`)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()
	var out []ProjectRecord
	for rows.Next() {
		r, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan project: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) saveIntakeDB(ctx context.Context, id string, state []byte) error {
	if err := s.ensureSchema(); err != nil {
		return fmt.Errorf("store: schema: %w", err)
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO intake_states (project_id, state, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (project_id)
DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`),
		id, string(state), s.now().UTC())
	if err != nil {
		return fmt.Errorf("store: save intake state: %w", err)
	}
	return nil
}

func (s *Store) loadIntakeDB(ctx context.Context, id string) ([]byte, bool, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, false, fmt.Errorf("store: schema: %w", err)
	}
	var state string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT state FROM intake_states WHERE project_id = $1`), id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: load intake state: %w", err)
	}
	return []byte(state), true, nil
}

func (s *Store) addArtifactDB(ctx context.Context, a ArtifactRecord) error {
	if err := s.ensureSchema(); err != nil {
		return fmt.Errorf("store: schema: %w", err)
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO artifacts (project_id, run_id, kind, title, format, content, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`),
		a.ProjectID, a.RunID, a.Kind, a.Title, a.Format, a.Content, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: add artifact: %w", err)
	}
	return nil
}

func (s *Store) listArtifactsDB(ctx context.Context, id string) ([]ArtifactRecord, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT id, project_id, run_id, kind, title, format, content, created_at
FROM artifacts WHERE project_id = $1 ORDER BY created_at DESC, id DESC`), id)
	if err != nil {
		return nil, fmt.Errorf("store: list artifacts: %w", err)
	}
	defer rows.Close()
	var out []ArtifactRecord
	for rows.Next() {
		var a ArtifactRecord
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.RunID, &a.Kind, &a.Title, &a.Format, &a.Content, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) addConversationDB(ctx context.Context, c ConversationRecord) error {
	if err := s.ensureSchema(); err != nil {
		return fmt.Errorf("store: schema: %w", err)
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO conversations (project_id, role, content, created_at)
VALUES ($1, $2, $3, $4)`),
		c.ProjectID, c.Role, c.Content, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: add conversation: %w", err)
	}
	return nil
}

func (s *Store) listConversationDB(ctx context.Context, id string) ([]ConversationRecord, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT id, project_id, role, content, created_at
FROM conversations WHERE project_id = $1 ORDER BY id`), id)
	if err != nil {
		return nil, fmt.Errorf("store: list conversation: %w", err)
	}
	defer rows.Close()
	var out []ConversationRecord
	for rows.Next() {
		var c ConversationRecord
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Role, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) replaceStoriesDB(ctx context.Context, id string, stories []agents.UserStory) error {
	if err := s.ensureSchema(); err != nil {
		return fmt.Errorf("store: schema: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM stories WHERE project_id = $1`), id); err != nil {
		return fmt.Errorf("store: clear stories: %w", err)
	}
	for _, st := range stories {
		b, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("store: encode story %s: %w", st.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO stories (project_id, story) VALUES ($1, $2)`), id, string(b)); err != nil {
			return fmt.Errorf("store: insert story %s: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) listStoriesDB(ctx context.Context, id string) ([]agents.UserStory, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT story FROM stories WHERE project_id = $1 ORDER BY id`), id)
	if err != nil {
		return nil, fmt.Errorf("store: list stories: %w", err)
	}
	defer rows.Close()
	var out []agents.UserStory
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scan story: %w", err)
		}
		var st agents.UserStory
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("store: decode story: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
