package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"requify/internal/agents"
)

type fileData struct {
	Projects      map[string]ProjectRecord        `json:"projects"`
	Intake        map[string]json.RawMessage      `json:"intake"`
	Artifacts     map[string][]ArtifactRecord     `json:"artifacts"`
	Stories       map[string][]agents.UserStory   `json:"stories"`
	Conversations map[string][]ConversationRecord `json:"conversations"`
}

func newFileData() fileData {
	return fileData{
		Projects:      map[string]ProjectRecord{},
		Intake:        map[string]json.RawMessage{},
		Artifacts:     map[string][]ArtifactRecord{},
		Stories:       map[string][]agents.UserStory{},
		Conversations: map[string][]ConversationRecord{},
	}
}

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var data fileData
		if err := json.Unmarshal(b, &data); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if data.Projects != nil {
			s.data.Projects = data.Projects
		}
		if data.Intake != nil {
			s.data.Intake = data.Intake
		}
		if data.Artifacts != nil {
			s.data.Artifacts = data.Artifacts
		}
		if data.Stories != nil {
			s.data.Stories = data.Stories
		}
		if data.Conversations != nil {
			s.data.Conversations = data.Conversations
		}
	})
}

// flushFile writes the whole data set. Callers must not hold s.mu.
func (s *Store) flushFile() error {
	s.mu.RLock()
	b, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("store: encode file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("store: mkdir: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("store: write file: %w", err)
	}
	return nil
}

func (s *Store) upsertProjectFile(r ProjectRecord) (ProjectRecord, error) {
	s.ensureLoadedFile()
	s.mu.Lock()
	prev, ok := s.data.Projects[r.ProjectID]
	if ok {
		r.Revision = prev.Revision + 1
	} else {
		r.Revision = 1
	}
	s.data.Projects[r.ProjectID] = r
	s.mu.Unlock()
	if err := s.flushFile(); err != nil {
		return ProjectRecord{}, err
	}
	return r, nil
}

func (s *Store) getProjectFile(id string) (ProjectRecord, bool, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	r, ok := s.data.Projects[id]
	s.mu.RUnlock()
	return r, ok, nil
}

func (s *Store) listProjectsFile() ([]ProjectRecord, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	out := make([]ProjectRecord, 0, len(s.data.Projects))
	for _, r := range s.data.Projects {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ProjectID < out[j].ProjectID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) saveIntakeFile(id string, state []byte) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	s.data.Intake[id] = append(json.RawMessage(nil), state...)
	s.mu.Unlock()
	return s.flushFile()
}

func (s *Store) loadIntakeFile(id string) ([]byte, bool, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	raw, ok := s.data.Intake[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

func (s *Store) addArtifactFile(a ArtifactRecord) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	list := s.data.Artifacts[a.ProjectID]
	a.ID = len(list) + 1
	s.data.Artifacts[a.ProjectID] = append(list, a)
	s.mu.Unlock()
	return s.flushFile()
}

func (s *Store) listArtifactsFile(id string) ([]ArtifactRecord, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	list := s.data.Artifacts[id]
	out := make([]ArtifactRecord, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *Store) addConversationFile(c ConversationRecord) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	list := s.data.Conversations[c.ProjectID]
	c.ID = len(list) + 1
	s.data.Conversations[c.ProjectID] = append(list, c)
	s.mu.Unlock()
	return s.flushFile()
}

func (s *Store) listConversationFile(id string) ([]ConversationRecord, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	out := append([]ConversationRecord(nil), s.data.Conversations[id]...)
	s.mu.RUnlock()
	return out, nil
}

func (s *Store) replaceStoriesFile(id string, stories []agents.UserStory) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	s.data.Stories[id] = append([]agents.UserStory(nil), stories...)
	s.mu.Unlock()
	return s.flushFile()
}

func (s *Store) listStoriesFile(id string) ([]agents.UserStory, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	out := append([]agents.UserStory(nil), s.data.Stories[id]...)
	s.mu.RUnlock()
	return out, nil
}
