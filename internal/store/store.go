// Package store persists projects, intake states, generated stories and
// rendered artifacts. Two backends share one front: a JSON file for local
// development and database/sql for sqlite or postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"requify/internal/agents"
	"requify/internal/intake"
	"requify/internal/pipeline"
	"requify/internal/readiness"
	"requify/internal/snapshot"
)

const artifactCacheSize = 1024

// Store fronts one of the backends. All methods are nil-safe.
type Store struct {
	path   string
	db     *sql.DB
	driver string

	loadOnce sync.Once
	mu       sync.RWMutex
	data     fileData

	schemaOnce sync.Once
	schemaErr  error

	artifactCache *lru.Cache[string, []ArtifactRecord]

	blobs *BlobStore

	now func() time.Time
}

// AttachBlobStore makes SaveExpansion mirror rendered artifact documents
// into object storage.
func (s *Store) AttachBlobStore(b *BlobStore) {
	if s != nil {
		s.blobs = b
	}
}

// New opens a file-backed store at path. The file is created on first save.
func New(path string) *Store {
	return &Store{
		path: path,
		data: newFileData(),
		now:  time.Now,
	}
}

// NewSQLite opens a sqlite-backed store. path may be ":memory:".
func NewSQLite(path string) (*Store, error) {
	return newSQL("sqlite", strings.TrimSpace(path))
}

// NewPostgres opens a postgres-backed store from a pgx DSN.
func NewPostgres(dsn string) (*Store, error) {
	return newSQL("pgx", strings.TrimSpace(dsn))
}

func newSQL(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driver, err)
	}
	cache, err := lru.New[string, []ArtifactRecord](artifactCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		db:            db,
		driver:        driver,
		artifactCache: cache,
		now:           time.Now,
	}, nil
}

// NewFromEnv picks the backend from the environment: REQUIFY_PG_DSN wins,
// then REQUIFY_SQLITE_PATH, otherwise a JSON file under dataDir. Backend
// open failures fall back to the file store.
func NewFromEnv(dataDir string) *Store {
	if dsn := strings.TrimSpace(os.Getenv("REQUIFY_PG_DSN")); dsn != "" {
		if s, err := NewPostgres(dsn); err == nil {
			return s
		}
	}
	if path := strings.TrimSpace(os.Getenv("REQUIFY_SQLITE_PATH")); path != "" {
		if s, err := NewSQLite(path); err == nil {
			return s
		}
	}
	return New(dataDir + "/projects.json")
}

// Close releases the database handle if one is open.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertProject writes the record, bumping its revision past whatever is
// stored. Returns the record as persisted.
func (s *Store) UpsertProject(ctx context.Context, r ProjectRecord) (ProjectRecord, error) {
	if s == nil {
		return ProjectRecord{}, fmt.Errorf("store: nil store")
	}
	r = normalizeRecord(r)
	if r.ProjectID == "" {
		return ProjectRecord{}, fmt.Errorf("store: project id is required")
	}
	r.UpdatedAt = s.now().UTC()
	if s.db != nil {
		return s.upsertProjectDB(ctx, r)
	}
	return s.upsertProjectFile(r)
}

// GetProject reads one record. The bool reports whether it exists.
func (s *Store) GetProject(ctx context.Context, projectID string) (ProjectRecord, bool, error) {
	if s == nil {
		return ProjectRecord{}, false, nil
	}
	id := strings.TrimSpace(projectID)
	if id == "" {
		return ProjectRecord{}, false, nil
	}
	if s.db != nil {
		return s.getProjectDB(ctx, id)
	}
	return s.getProjectFile(id)
}

// ListProjects returns every stored project, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]ProjectRecord, error) {
	if s == nil {
		return nil, nil
	}
	if s.db != nil {
		return s.listProjectsDB(ctx)
	}
	return s.listProjectsFile()
}

// SaveIntakeState stores the serialized conversation state for a project.
func (s *Store) SaveIntakeState(ctx context.Context, projectID string, state []byte) error {
	if s == nil {
		return fmt.Errorf("store: nil store")
	}
	id := strings.TrimSpace(projectID)
	if id == "" {
		return fmt.Errorf("store: project id is required")
	}
	if s.db != nil {
		return s.saveIntakeDB(ctx, id, state)
	}
	return s.saveIntakeFile(id, state)
}

// LoadIntakeState reads the serialized conversation state back.
func (s *Store) LoadIntakeState(ctx context.Context, projectID string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	id := strings.TrimSpace(projectID)
	if id == "" {
		return nil, false, nil
	}
	if s.db != nil {
		return s.loadIntakeDB(ctx, id)
	}
	return s.loadIntakeFile(id)
}

// AddArtifact appends one artifact and invalidates the list cache.
func (s *Store) AddArtifact(ctx context.Context, a ArtifactRecord) error {
	if s == nil {
		return fmt.Errorf("store: nil store")
	}
	if strings.TrimSpace(a.ProjectID) == "" {
		return fmt.Errorf("store: artifact project id is required")
	}
	a.CreatedAt = s.now().UTC()
	if s.db != nil {
		err := s.addArtifactDB(ctx, a)
		if err == nil && s.artifactCache != nil {
			s.artifactCache.Remove(a.ProjectID)
		}
		return err
	}
	return s.addArtifactFile(a)
}

// ListArtifacts returns a project's artifacts newest first. SQL lookups go
// through the LRU cache.
func (s *Store) ListArtifacts(ctx context.Context, projectID string) ([]ArtifactRecord, error) {
	if s == nil {
		return nil, nil
	}
	id := strings.TrimSpace(projectID)
	if id == "" {
		return nil, nil
	}
	if s.db != nil {
		if s.artifactCache != nil {
			if cached, ok := s.artifactCache.Get(id); ok {
				return cached, nil
			}
		}
		out, err := s.listArtifactsDB(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.artifactCache != nil {
			s.artifactCache.Add(id, out)
		}
		return out, nil
	}
	return s.listArtifactsFile(id)
}

// AddConversation appends one message to a project's conversation log.
func (s *Store) AddConversation(ctx context.Context, c ConversationRecord) error {
	if s == nil {
		return fmt.Errorf("store: nil store")
	}
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	if c.ProjectID == "" {
		return fmt.Errorf("store: project id is required")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	if s.db != nil {
		return s.addConversationDB(ctx, c)
	}
	return s.addConversationFile(c)
}

// ListConversation returns a project's conversation log in insertion order.
func (s *Store) ListConversation(ctx context.Context, projectID string) ([]ConversationRecord, error) {
	if s == nil {
		return nil, nil
	}
	id := strings.TrimSpace(projectID)
	if id == "" {
		return nil, nil
	}
	if s.db != nil {
		return s.listConversationDB(ctx, id)
	}
	return s.listConversationFile(id)
}

// ReplaceStories swaps the stored story set for a project.
func (s *Store) ReplaceStories(ctx context.Context, projectID string, stories []agents.UserStory) error {
	if s == nil {
		return fmt.Errorf("store: nil store")
	}
	id := strings.TrimSpace(projectID)
	if id == "" {
		return fmt.Errorf("store: project id is required")
	}
	if s.db != nil {
		return s.replaceStoriesDB(ctx, id, stories)
	}
	return s.replaceStoriesFile(id, stories)
}

// ListStories returns a project's stored stories.
func (s *Store) ListStories(ctx context.Context, projectID string) ([]agents.UserStory, error) {
	if s == nil {
		return nil, nil
	}
	id := strings.TrimSpace(projectID)
	if id == "" {
		return nil, nil
	}
	if s.db != nil {
		return s.listStoriesDB(ctx, id)
	}
	return s.listStoriesFile(id)
}

// saveConversation writes the synthetic conversation record for a batch
// expansion. An existing conversation keeps its question history; only the
// extracted data, validation status and readiness are refreshed.
func (s *Store) saveConversation(ctx context.Context, res *pipeline.Result) error {
	var st *intake.State
	if raw, ok, err := s.LoadIntakeState(ctx, res.ProjectID); err != nil {
		return err
	} else if ok {
		if prev, err := intake.Deserialize(raw); err == nil {
			st = prev
		} else {
			log.Printf("store: discarding unreadable intake state for %s: %v", res.ProjectID, err)
		}
	}
	if st == nil {
		st = intake.New(res.ProjectID, res.ProjectName, res.Vision)
		st.MessageCount = 1
	}
	st.ExtractedData = snapshot.Merge(st.ExtractedData, res.Snapshot)
	st.ValidationStatus = res.Report
	st.ArtifactReadiness = readiness.Evaluate(st.ExtractedData)
	st.LastUpdatedAt = s.now()
	raw, err := st.Serialize()
	if err != nil {
		return err
	}
	return s.SaveIntakeState(ctx, res.ProjectID, raw)
}

// SaveExpansion persists a finished pipeline run: the project record, its
// stories, the conversation record and every rendered artifact under a
// fresh run id.
func (s *Store) SaveExpansion(ctx context.Context, res *pipeline.Result) error {
	if s == nil {
		return fmt.Errorf("store: nil store")
	}
	if res == nil {
		return fmt.Errorf("store: nil result")
	}
	if _, err := s.UpsertProject(ctx, ProjectRecord{
		ProjectID: res.ProjectID,
		Name:      res.ProjectName,
		Vision:    res.Vision,
		Score:     res.Score,
		Snapshot:  res.Snapshot,
	}); err != nil {
		return fmt.Errorf("store: save project: %w", err)
	}
	if err := s.ReplaceStories(ctx, res.ProjectID, res.Stories); err != nil {
		return fmt.Errorf("store: save stories: %w", err)
	}
	if err := s.saveConversation(ctx, res); err != nil {
		return fmt.Errorf("store: save conversation: %w", err)
	}
	if res.Sentence != "" {
		if err := s.AddConversation(ctx, ConversationRecord{ProjectID: res.ProjectID, Role: "user", Content: res.Sentence}); err != nil {
			return fmt.Errorf("store: log sentence: %w", err)
		}
	}
	summary := fmt.Sprintf("Expanded into %d actors, %d use cases, %d entities and %d stories.",
		res.Counts.Actors, res.Counts.UseCases, res.Counts.Entities, res.Counts.Stories)
	if err := s.AddConversation(ctx, ConversationRecord{ProjectID: res.ProjectID, Role: "assistant", Content: summary}); err != nil {
		return fmt.Errorf("store: log summary: %w", err)
	}
	runID := uuid.NewString()
	for _, a := range res.Artifacts {
		rec := ArtifactRecord{
			ProjectID: res.ProjectID,
			RunID:     runID,
			Kind:      string(a.Type),
			Title:     a.Title,
			Format:    a.Format,
			Content:   a.Content,
		}
		if err := s.AddArtifact(ctx, rec); err != nil {
			return fmt.Errorf("store: save artifact %s: %w", a.Type, err)
		}
		if s.blobs != nil {
			name := string(a.Type) + blobExt(a.Format)
			if err := s.blobs.Put(ctx, res.ProjectID, runID, name, []byte(a.Content)); err != nil {
				log.Printf("store: blob upload %s/%s failed: %v", res.ProjectID, name, err)
			}
		}
	}
	return nil
}

func blobExt(format string) string {
	if format == "mermaid" {
		return ".mmd"
	}
	return ".md"
}
