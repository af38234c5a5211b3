package app

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"changeflow/api/internal/assistant"
	"changeflow/api/internal/auth"
	"changeflow/api/internal/catalog"
	"changeflow/api/internal/config"
	"changeflow/api/internal/sentiment"
	"changeflow/api/internal/store"
	"changeflow/api/internal/util"
)

type Session struct {
	Token string
	User  store.User
}

// DataStore is the persistence surface the service needs. Both the
// JSON file store and the Postgres store satisfy it.
type DataStore interface {
	SeedIfEmpty(context.Context, store.Document) error
	GetSnapshot(context.Context) (store.Snapshot, error)
	ListUsers(context.Context) ([]store.User, error)
	GetUser(context.Context, string) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	CreateProject(context.Context, store.Project, []store.ProjectStep) error
	UpdateProject(context.Context, string, store.ProjectPatch) (store.Project, error)
	ListProjectSteps(context.Context, string) ([]store.ProjectStep, error)
	GetProjectStep(context.Context, string) (store.ProjectStep, error)
	UpdateProjectStep(context.Context, string, store.StepPatch) (store.ProjectStep, error)
	CreateFeedback(context.Context, store.Feedback) error
	UpdateFeedback(context.Context, string, store.FeedbackPatch) (store.Feedback, error)
	CreateLearningProgress(context.Context, store.LearningProgress) error
	UpdateLearningProgress(context.Context, string, store.LearningProgressPatch) (store.LearningProgress, error)
	UpsertLessonProgress(context.Context, store.LessonProgress) (store.LessonProgress, bool, error)
	UpdateLessonProgress(context.Context, string, store.LessonProgressPatch) (store.LessonProgress, error)
	AppendAiMessage(context.Context, store.AiMessage) error
}

// revocationStore is the optional logout registry. Without it tokens
// stay valid forever, which is the default demo behavior.
type revocationStore interface {
	Revoke(context.Context, string) error
	IsRevoked(context.Context, string) (bool, error)
}

type Service struct {
	cfg      config.Config
	store    DataStore
	analyzer *sentiment.Analyzer
	advisor  *assistant.Scripted
	revoked  revocationStore
	log      zerolog.Logger

	analysisWG sync.WaitGroup
	now        func() time.Time
	newID      func(string) string
}

func NewService(cfg config.Config, st DataStore, analyzer *sentiment.Analyzer, advisor *assistant.Scripted, log zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		analyzer: analyzer,
		advisor:  advisor,
		log:      log,
		now:      time.Now,
		newID:    util.NewID,
	}
}

// SetRevocationStore wires the optional Redis logout registry.
func (s *Service) SetRevocationStore(r revocationStore) {
	s.revoked = r
}

// Advisor exposes the scripted assistant for clients that generate
// replies locally.
func (s *Service) Advisor() *assistant.Scripted {
	return s.advisor
}

// Bootstrap seeds the demo dataset into an empty store.
func (s *Service) Bootstrap(ctx context.Context) error {
	return s.store.SeedIfEmpty(ctx, catalog.Seed())
}

// Login resolves a user by email, falling back to the first seeded
// user when the address is unknown. There is no password check.
func (s *Service) Login(ctx context.Context, email string) (Session, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		users, listErr := s.store.ListUsers(ctx)
		if listErr != nil {
			return Session{}, listErr
		}
		if len(users) == 0 {
			return Session{}, domainError(http.StatusInternalServerError, "NO_USERS", "No users available", nil)
		}
		user = users[0]
	} else if err != nil {
		return Session{}, err
	}
	return s.issueSession(user)
}

// SwitchRole reissues the session as the first user holding the
// requested role, or the caller when no such user exists.
func (s *Service) SwitchRole(ctx context.Context, session Session, role string) (Session, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return Session{}, err
	}
	target := session.User
	for _, u := range users {
		if u.Role == role {
			target = u
			break
		}
	}
	return s.issueSession(target)
}

func (s *Service) issueSession(user store.User) (Session, error) {
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		UserID:   user.ID,
		IssuedAt: s.now().UnixMilli(),
	})
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

// SessionFromToken verifies a bearer token and loads its user. An
// unknown user id maps to an invalid token so stale tokens read as
// unauthorized rather than server errors.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, auth.HashToken(token))
		if err != nil {
			return Session{}, err
		}
		if revoked {
			return Session{}, auth.ErrInvalidToken
		}
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

// Logout revokes the token when a registry is configured. Without one
// it succeeds as a no-op and the token stays valid.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.revoked == nil {
		return nil
	}
	return s.revoked.Revoke(ctx, auth.HashToken(token))
}

func (s *Service) Snapshot(ctx context.Context) (store.Snapshot, error) {
	return s.store.GetSnapshot(ctx)
}

// CreateProject stores a project and instantiates its steps from the
// template definition when the client does not supply any.
func (s *Service) CreateProject(ctx context.Context, session Session, project store.Project) (store.Project, []store.ProjectStep, error) {
	if project.Name == "" {
		return store.Project{}, nil, domainError(http.StatusBadRequest, "INVALID_BODY", "Project name is required", nil)
	}
	if project.ID == "" {
		project.ID = s.newID("p")
	}
	if project.TenantID == "" {
		project.TenantID = session.User.TenantID
	}
	if project.OwnerID == "" {
		project.OwnerID = session.User.ID
	}
	if project.Status == "" {
		project.Status = store.ProjectStatusPlanning
	}
	if project.StartDate == "" {
		project.StartDate = s.now().Format("2006-01-02")
	}

	var steps []store.ProjectStep
	for _, ts := range catalog.StepsFor(project.TemplateID) {
		steps = append(steps, store.ProjectStep{
			ID:         s.newID("ps"),
			ProjectID:  project.ID,
			StepNumber: ts.StepNumber,
			Name:       ts.Name,
			Status:     store.StepStatusPending,
		})
	}

	if err := s.store.CreateProject(ctx, project, steps); err != nil {
		return store.Project{}, nil, err
	}
	return project, steps, nil
}

func (s *Service) UpdateProject(ctx context.Context, id string, patch store.ProjectPatch) (store.Project, error) {
	project, err := s.store.UpdateProject(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return store.Project{}, domainError(http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
	}
	return project, err
}

// StepUpdateResult carries everything the cascade touched.
type StepUpdateResult struct {
	Step     store.ProjectStep  `json:"step"`
	Promoted *store.ProjectStep `json:"promoted,omitempty"`
	Project  store.Project      `json:"project"`
}

// UpdateProjectStepStatus applies a status change and runs the
// progression cascade: a completed step gets an end date and promotes
// the lowest pending sibling to in_progress, then the owning project's
// percent and status are recomputed from its steps.
func (s *Service) UpdateProjectStepStatus(ctx context.Context, stepID, status string) (StepUpdateResult, error) {
	switch status {
	case store.StepStatusPending, store.StepStatusInProgress, store.StepStatusCompleted, store.StepStatusSkipped:
	default:
		return StepUpdateResult{}, domainError(http.StatusBadRequest, "INVALID_BODY", "Unknown step status", map[string]any{"status": status})
	}

	current, err := s.store.GetProjectStep(ctx, stepID)
	if errors.Is(err, store.ErrNotFound) {
		return StepUpdateResult{}, domainError(http.StatusNotFound, "NOT_FOUND", "Step not found", nil)
	}
	if err != nil {
		return StepUpdateResult{}, err
	}

	today := s.now().Format("2006-01-02")
	patch := store.StepPatch{Status: &status}
	if status == store.StepStatusCompleted && current.EndDate == "" {
		patch.EndDate = &today
	}
	if status == store.StepStatusInProgress && current.StartDate == "" {
		patch.StartDate = &today
	}

	step, err := s.store.UpdateProjectStep(ctx, stepID, patch)
	if err != nil {
		return StepUpdateResult{}, err
	}

	siblings, err := s.store.ListProjectSteps(ctx, step.ProjectID)
	if err != nil {
		return StepUpdateResult{}, err
	}
	sort.Slice(siblings, func(i, j int) bool { return siblings[i].StepNumber < siblings[j].StepNumber })

	result := StepUpdateResult{Step: step}

	if status == store.StepStatusCompleted {
		anyInProgress := false
		for _, st := range siblings {
			if st.Status == store.StepStatusInProgress {
				anyInProgress = true
				break
			}
		}
		if !anyInProgress {
			for _, st := range siblings {
				if st.Status != store.StepStatusPending {
					continue
				}
				next := store.StepStatusInProgress
				promoted, err := s.store.UpdateProjectStep(ctx, st.ID, store.StepPatch{Status: &next, StartDate: &today})
				if err != nil {
					return StepUpdateResult{}, err
				}
				result.Promoted = &promoted
				break
			}
		}
		// Re-list so recomputation sees the promotion.
		siblings, err = s.store.ListProjectSteps(ctx, step.ProjectID)
		if err != nil {
			return StepUpdateResult{}, err
		}
	}

	percent, projectStatus := deriveProjectState(siblings)
	project, err := s.store.UpdateProject(ctx, step.ProjectID, store.ProjectPatch{
		ProgressPercent: &percent,
		Status:          &projectStatus,
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return StepUpdateResult{}, err
	}
	result.Project = project
	return result, nil
}

func deriveProjectState(steps []store.ProjectStep) (int, string) {
	if len(steps) == 0 {
		return 0, store.ProjectStatusPlanning
	}
	completed := 0
	for _, st := range steps {
		if st.Status == store.StepStatusCompleted {
			completed++
		}
	}
	percent := int(math.Round(float64(completed) / float64(len(steps)) * 100))
	switch {
	case percent == 100:
		return percent, store.ProjectStatusCompleted
	case percent > 0:
		return percent, store.ProjectStatusInProgress
	default:
		return percent, store.ProjectStatusPlanning
	}
}

// CreateFeedback stores the entry immediately with a pending analysis
// marker and resolves the sentiment in the background. The caller
// never waits on the analyzer.
func (s *Service) CreateFeedback(ctx context.Context, session Session, fb store.Feedback) (store.Feedback, error) {
	if fb.Message == "" {
		return store.Feedback{}, domainError(http.StatusBadRequest, "INVALID_BODY", "Feedback message is required", nil)
	}
	if fb.ID == "" {
		fb.ID = s.newID("f")
	}
	if fb.TenantID == "" {
		fb.TenantID = session.User.TenantID
	}
	if fb.UserID == "" {
		fb.UserID = session.User.ID
	}
	if fb.Status == "" {
		fb.Status = store.FeedbackStatusNew
	}
	fb.Sentiment = store.SentimentNeutral
	fb.SentimentScore = 0
	fb.AiTags = []string{}
	fb.AnalysisStatus = store.AnalysisPending
	if fb.CreatedAt == "" {
		fb.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}

	if err := s.store.CreateFeedback(ctx, fb); err != nil {
		return store.Feedback{}, err
	}

	s.analysisWG.Add(1)
	go s.resolveAnalysis(fb.ID, fb.Message)

	return fb, nil
}

func (s *Service) resolveAnalysis(feedbackID, message string) {
	defer s.analysisWG.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := s.analyzer.Analyze(ctx, message)

	var patch store.FeedbackPatch
	if err != nil {
		neutral := store.SentimentNeutral
		zero := 0.0
		empty := []string{}
		failed := store.AnalysisFailed
		patch = store.FeedbackPatch{Sentiment: &neutral, SentimentScore: &zero, AiTags: &empty, AnalysisStatus: &failed}
		s.log.Warn().Err(err).Str("feedback_id", feedbackID).Msg("sentiment analysis failed")
	} else {
		done := store.AnalysisCompleted
		patch = store.FeedbackPatch{Sentiment: &res.Sentiment, SentimentScore: &res.Score, AiTags: &res.Tags, AnalysisStatus: &done}
	}

	if _, err := s.store.UpdateFeedback(ctx, feedbackID, patch); err != nil {
		s.log.Error().Err(err).Str("feedback_id", feedbackID).Msg("failed to record analysis result")
	}
}

func (s *Service) UpdateFeedback(ctx context.Context, id string, patch store.FeedbackPatch) (store.Feedback, error) {
	fb, err := s.store.UpdateFeedback(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return store.Feedback{}, domainError(http.StatusNotFound, "NOT_FOUND", "Feedback not found", nil)
	}
	return fb, err
}

func (s *Service) AddLearningProgress(ctx context.Context, session Session, lp store.LearningProgress) (store.LearningProgress, error) {
	if lp.ID == "" {
		lp.ID = s.newID("ulp")
	}
	if lp.UserID == "" {
		lp.UserID = session.User.ID
	}
	if err := s.store.CreateLearningProgress(ctx, lp); err != nil {
		return store.LearningProgress{}, err
	}
	return lp, nil
}

func (s *Service) UpdateLearningProgress(ctx context.Context, id string, patch store.LearningProgressPatch) (store.LearningProgress, error) {
	lp, err := s.store.UpdateLearningProgress(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return store.LearningProgress{}, domainError(http.StatusNotFound, "NOT_FOUND", "Learning progress not found", nil)
	}
	return lp, err
}

// UpsertLessonProgress records a lesson completion, collapsing repeat
// submissions for the same user+material+lesson onto one record.
func (s *Service) UpsertLessonProgress(ctx context.Context, session Session, lp store.LessonProgress) (store.LessonProgress, bool, error) {
	if lp.MaterialID == "" || lp.LessonID == "" {
		return store.LessonProgress{}, false, domainError(http.StatusBadRequest, "INVALID_BODY", "material_id and lesson_id are required", nil)
	}
	if lp.ID == "" {
		lp.ID = s.newID("lp")
	}
	if lp.UserID == "" {
		lp.UserID = session.User.ID
	}
	if lp.CompletedAt == "" {
		lp.CompletedAt = s.now().UTC().Format(time.RFC3339)
	}
	return s.store.UpsertLessonProgress(ctx, lp)
}

func (s *Service) UpdateLessonProgress(ctx context.Context, id string, patch store.LessonProgressPatch) (store.LessonProgress, error) {
	lp, err := s.store.UpdateLessonProgress(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return store.LessonProgress{}, domainError(http.StatusNotFound, "NOT_FOUND", "Lesson progress not found", nil)
	}
	return lp, err
}

// AppendAiMessage stores one chat message verbatim. Assistant replies
// arrive through the same endpoint, appended by the client.
func (s *Service) AppendAiMessage(ctx context.Context, session Session, msg store.AiMessage) (store.AiMessage, error) {
	if msg.MessageContent == "" {
		return store.AiMessage{}, domainError(http.StatusBadRequest, "INVALID_BODY", "Message content is required", nil)
	}
	if msg.ID == "" {
		msg.ID = s.newID("msg")
	}
	if msg.UserID == "" {
		msg.UserID = session.User.ID
	}
	if msg.ChatID == "" {
		msg.ChatID = "main"
	}
	if msg.MessageRole == "" {
		msg.MessageRole = "user"
	}
	if msg.CreatedAt == "" {
		msg.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}
	if err := s.store.AppendAiMessage(ctx, msg); err != nil {
		return store.AiMessage{}, err
	}
	return msg, nil
}

// DashboardSummary aggregates the snapshot into the counts the
// dashboard screen renders.
func (s *Service) DashboardSummary(ctx context.Context) (map[string]any, error) {
	snap, err := s.store.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	projectsByStatus := map[string]int{}
	totalProgress := 0
	for _, p := range snap.Projects {
		projectsByStatus[p.Status]++
		totalProgress += p.ProgressPercent
	}
	avgProgress := 0
	if len(snap.Projects) > 0 {
		avgProgress = int(math.Round(float64(totalProgress) / float64(len(snap.Projects))))
	}

	feedbackBySentiment := map[string]int{}
	for _, fb := range snap.Feedback {
		feedbackBySentiment[fb.Sentiment]++
	}

	completedMaterials := 0
	for _, lp := range snap.LearningProgress {
		if lp.ProgressPercent >= 100 {
			completedMaterials++
		}
	}
	learningCompletionRate := 0
	if len(snap.LearningProgress) > 0 {
		learningCompletionRate = int(math.Round(float64(completedMaterials) / float64(len(snap.LearningProgress)) * 100))
	}

	return map[string]any{
		"projects_total":           len(snap.Projects),
		"projects_by_status":       projectsByStatus,
		"average_progress":         avgProgress,
		"feedback_total":           len(snap.Feedback),
		"feedback_by_sentiment":    feedbackBySentiment,
		"learning_records":         len(snap.LearningProgress),
		"learning_completion_rate": learningCompletionRate,
	}, nil
}
