package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps every collection in a single JSON document on disk.
// Each operation loads the full document, mutates it, and writes it
// back under one mutex. Matches the historical single-file deployment
// model where the data file doubles as the backup format.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (*Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("read data file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse data file: %w", err)
	}
	return &doc, nil
}

func (s *FileStore) save(doc *Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

// SeedIfEmpty writes the seed document when no data file exists or the
// user collection is empty. An already populated file is left alone.
func (s *FileStore) SeedIfEmpty(ctx context.Context, seed Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	if len(doc.Users) > 0 {
		return nil
	}
	return s.save(&seed)
}

func (s *FileStore) GetSnapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return Snapshot{}, err
	}
	return snapshotOf(doc), nil
}

func snapshotOf(doc *Document) Snapshot {
	snap := Snapshot{
		Projects:         doc.Projects,
		ProjectSteps:     doc.ProjectSteps,
		Feedback:         doc.Feedback,
		LearningProgress: doc.LearningProgress,
		LessonProgress:   doc.LessonProgress,
		AiConversations:  doc.AiConversations,
	}
	// Bootstrap consumers expect arrays, never null.
	if snap.Projects == nil {
		snap.Projects = []Project{}
	}
	if snap.ProjectSteps == nil {
		snap.ProjectSteps = []ProjectStep{}
	}
	if snap.Feedback == nil {
		snap.Feedback = []Feedback{}
	}
	if snap.LearningProgress == nil {
		snap.LearningProgress = []LearningProgress{}
	}
	if snap.LessonProgress == nil {
		snap.LessonProgress = []LessonProgress{}
	}
	if snap.AiConversations == nil {
		snap.AiConversations = []AiMessage{}
	}
	return snap
}

func (s *FileStore) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

func (s *FileStore) GetUser(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return User{}, err
	}
	for _, u := range doc.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *FileStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return User{}, err
	}
	for _, u := range doc.Users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *FileStore) CreateProject(ctx context.Context, project Project, steps []ProjectStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Projects = append(doc.Projects, project)
	doc.ProjectSteps = append(doc.ProjectSteps, steps...)
	return s.save(doc)
}

func (s *FileStore) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return Project{}, err
	}
	for i := range doc.Projects {
		if doc.Projects[i].ID == id {
			patch.Apply(&doc.Projects[i])
			if err := s.save(doc); err != nil {
				return Project{}, err
			}
			return doc.Projects[i], nil
		}
	}
	return Project{}, ErrNotFound
}

func (s *FileStore) ListProjectSteps(ctx context.Context, projectID string) ([]ProjectStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	var steps []ProjectStep
	for _, st := range doc.ProjectSteps {
		if st.ProjectID == projectID {
			steps = append(steps, st)
		}
	}
	return steps, nil
}

func (s *FileStore) GetProjectStep(ctx context.Context, id string) (ProjectStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return ProjectStep{}, err
	}
	for _, st := range doc.ProjectSteps {
		if st.ID == id {
			return st, nil
		}
	}
	return ProjectStep{}, ErrNotFound
}

func (s *FileStore) UpdateProjectStep(ctx context.Context, id string, patch StepPatch) (ProjectStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return ProjectStep{}, err
	}
	for i := range doc.ProjectSteps {
		if doc.ProjectSteps[i].ID == id {
			patch.Apply(&doc.ProjectSteps[i])
			if err := s.save(doc); err != nil {
				return ProjectStep{}, err
			}
			return doc.ProjectSteps[i], nil
		}
	}
	return ProjectStep{}, ErrNotFound
}

func (s *FileStore) CreateFeedback(ctx context.Context, fb Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Feedback = append(doc.Feedback, fb)
	return s.save(doc)
}

func (s *FileStore) UpdateFeedback(ctx context.Context, id string, patch FeedbackPatch) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return Feedback{}, err
	}
	for i := range doc.Feedback {
		if doc.Feedback[i].ID == id {
			patch.Apply(&doc.Feedback[i])
			if err := s.save(doc); err != nil {
				return Feedback{}, err
			}
			return doc.Feedback[i], nil
		}
	}
	return Feedback{}, ErrNotFound
}

func (s *FileStore) CreateLearningProgress(ctx context.Context, lp LearningProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.LearningProgress = append(doc.LearningProgress, lp)
	return s.save(doc)
}

func (s *FileStore) UpdateLearningProgress(ctx context.Context, id string, patch LearningProgressPatch) (LearningProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return LearningProgress{}, err
	}
	for i := range doc.LearningProgress {
		if doc.LearningProgress[i].ID == id {
			patch.Apply(&doc.LearningProgress[i])
			if err := s.save(doc); err != nil {
				return LearningProgress{}, err
			}
			return doc.LearningProgress[i], nil
		}
	}
	return LearningProgress{}, ErrNotFound
}

// UpsertLessonProgress creates the record or, when one already exists
// for the same user+material+lesson, overwrites its completion stamp.
// The second return reports whether a new record was created.
func (s *FileStore) UpsertLessonProgress(ctx context.Context, lp LessonProgress) (LessonProgress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return LessonProgress{}, false, err
	}
	for i := range doc.LessonProgress {
		existing := &doc.LessonProgress[i]
		if existing.UserID == lp.UserID && existing.MaterialID == lp.MaterialID && existing.LessonID == lp.LessonID {
			existing.CompletedAt = lp.CompletedAt
			if err := s.save(doc); err != nil {
				return LessonProgress{}, false, err
			}
			return *existing, false, nil
		}
	}
	doc.LessonProgress = append(doc.LessonProgress, lp)
	if err := s.save(doc); err != nil {
		return LessonProgress{}, false, err
	}
	return lp, true, nil
}

func (s *FileStore) UpdateLessonProgress(ctx context.Context, id string, patch LessonProgressPatch) (LessonProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return LessonProgress{}, err
	}
	for i := range doc.LessonProgress {
		if doc.LessonProgress[i].ID == id {
			patch.Apply(&doc.LessonProgress[i])
			if err := s.save(doc); err != nil {
				return LessonProgress{}, err
			}
			return doc.LessonProgress[i], nil
		}
	}
	return LessonProgress{}, ErrNotFound
}

func (s *FileStore) AppendAiMessage(ctx context.Context, msg AiMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.AiConversations = append(doc.AiConversations, msg)
	return s.save(doc)
}

// Ping verifies the data file is readable and parseable.
func (s *FileStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

func (s *FileStore) Close() error { return nil }
