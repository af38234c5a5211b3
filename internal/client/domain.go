package client

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"changeflow/api/internal/assistant"
	"changeflow/api/internal/catalog"
	"changeflow/api/internal/course"
	"changeflow/api/internal/store"
	"changeflow/api/internal/util"
)

// DomainStore is the client-side replica of the domain collections.
// Every mutating action updates the replica synchronously and persists
// through the API in a background goroutine. Persistence errors are
// logged and dropped: there is no retry and no rollback, so a failed
// call leaves the replica ahead of the server until the next Bootstrap.
type DomainStore struct {
	client  *Client
	advisor *assistant.Scripted
	log     zerolog.Logger

	mu               sync.RWMutex
	projects         []store.Project
	projectSteps     []store.ProjectStep
	feedback         []store.Feedback
	learningProgress []store.LearningProgress
	lessonProgress   []store.LessonProgress
	aiMessages       []store.AiMessage

	persists sync.WaitGroup
	now      func() time.Time
	newID    func(string) string
}

func NewDomainStore(c *Client, advisor *assistant.Scripted, log zerolog.Logger) *DomainStore {
	return &DomainStore{
		client:  c,
		advisor: advisor,
		log:     log,
		now:     time.Now,
		newID:   util.NewID,
	}
}

// Bootstrap replaces every collection with the server snapshot. Call it
// once after authentication, before reading domain state.
func (d *DomainStore) Bootstrap(ctx context.Context) error {
	snap, err := d.client.Bootstrap(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.projects = snap.Projects
	d.projectSteps = snap.ProjectSteps
	d.feedback = snap.Feedback
	d.learningProgress = snap.LearningProgress
	d.lessonProgress = snap.LessonProgress
	d.aiMessages = snap.AiConversations
	d.mu.Unlock()
	return nil
}

// Reset drops every collection, typically on logout.
func (d *DomainStore) Reset() {
	d.mu.Lock()
	d.projects = nil
	d.projectSteps = nil
	d.feedback = nil
	d.learningProgress = nil
	d.lessonProgress = nil
	d.aiMessages = nil
	d.mu.Unlock()
}

// Wait blocks until all fired persistence calls have settled.
func (d *DomainStore) Wait() {
	d.persists.Wait()
}

func (d *DomainStore) persist(action string, fn func(context.Context) error) {
	d.persists.Add(1)
	go func() {
		defer d.persists.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			d.log.Warn().Err(err).Str("action", action).Msg("persist failed, replica diverged")
		}
	}()
}

func (d *DomainStore) Snapshot() store.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return store.Snapshot{
		Projects:         append([]store.Project(nil), d.projects...),
		ProjectSteps:     append([]store.ProjectStep(nil), d.projectSteps...),
		Feedback:         append([]store.Feedback(nil), d.feedback...),
		LearningProgress: append([]store.LearningProgress(nil), d.learningProgress...),
		LessonProgress:   append([]store.LessonProgress(nil), d.lessonProgress...),
		AiConversations:  append([]store.AiMessage(nil), d.aiMessages...),
	}
}

// AddProject creates the project and its template steps locally, then
// persists the project. The server instantiates its own copy of the
// steps, so step ids may differ between replica and server until the
// next Bootstrap.
func (d *DomainStore) AddProject(owner store.User, project store.Project) (store.Project, []store.ProjectStep) {
	if project.ID == "" {
		project.ID = d.newID("p")
	}
	if project.TenantID == "" {
		project.TenantID = owner.TenantID
	}
	if project.OwnerID == "" {
		project.OwnerID = owner.ID
	}
	if project.Status == "" {
		project.Status = store.ProjectStatusPlanning
	}
	if project.StartDate == "" {
		project.StartDate = d.now().Format("2006-01-02")
	}

	var steps []store.ProjectStep
	for _, ts := range catalog.StepsFor(project.TemplateID) {
		steps = append(steps, store.ProjectStep{
			ID:         d.newID("ps"),
			ProjectID:  project.ID,
			StepNumber: ts.StepNumber,
			Name:       ts.Name,
			Status:     store.StepStatusPending,
		})
	}

	d.mu.Lock()
	d.projects = append(d.projects, project)
	d.projectSteps = append(d.projectSteps, steps...)
	d.mu.Unlock()

	d.persist("add_project", func(ctx context.Context) error {
		_, err := d.client.CreateProject(ctx, project)
		return err
	})
	return project, steps
}

func (d *DomainStore) UpdateProject(id string, patch store.ProjectPatch) (store.Project, bool) {
	d.mu.Lock()
	var updated store.Project
	found := false
	for i := range d.projects {
		if d.projects[i].ID == id {
			patch.Apply(&d.projects[i])
			updated = d.projects[i]
			found = true
			break
		}
	}
	d.mu.Unlock()
	if !found {
		return store.Project{}, false
	}

	d.persist("update_project", func(ctx context.Context) error {
		_, err := d.client.UpdateProject(ctx, id, patch)
		return err
	})
	return updated, true
}

// UpdateProjectStepStatus runs the same cascade the server applies:
// date stamps, promotion of the lowest pending sibling, and the owning
// project's derived percent and status. The server recomputes all of
// it independently from the single status change.
func (d *DomainStore) UpdateProjectStepStatus(id, status string) (store.ProjectStep, bool) {
	today := d.now().Format("2006-01-02")

	d.mu.Lock()
	var updated store.ProjectStep
	found := false
	for i := range d.projectSteps {
		if d.projectSteps[i].ID != id {
			continue
		}
		step := &d.projectSteps[i]
		step.Status = status
		if status == store.StepStatusCompleted && step.EndDate == "" {
			step.EndDate = today
		}
		if status == store.StepStatusInProgress && step.StartDate == "" {
			step.StartDate = today
		}
		updated = *step
		found = true
		break
	}
	if !found {
		d.mu.Unlock()
		return store.ProjectStep{}, false
	}

	if status == store.StepStatusCompleted {
		d.promoteNextPendingLocked(updated.ProjectID, today)
	}
	d.recomputeProjectLocked(updated.ProjectID)
	d.mu.Unlock()

	d.persist("update_project_step", func(ctx context.Context) error {
		_, err := d.client.UpdateProjectStepStatus(ctx, id, status)
		return err
	})
	return updated, true
}

func (d *DomainStore) promoteNextPendingLocked(projectID, today string) {
	var siblings []*store.ProjectStep
	for i := range d.projectSteps {
		if d.projectSteps[i].ProjectID == projectID {
			siblings = append(siblings, &d.projectSteps[i])
		}
	}
	sort.Slice(siblings, func(i, j int) bool { return siblings[i].StepNumber < siblings[j].StepNumber })

	for _, st := range siblings {
		if st.Status == store.StepStatusInProgress {
			return
		}
	}
	for _, st := range siblings {
		if st.Status == store.StepStatusPending {
			st.Status = store.StepStatusInProgress
			if st.StartDate == "" {
				st.StartDate = today
			}
			return
		}
	}
}

func (d *DomainStore) recomputeProjectLocked(projectID string) {
	total, completed := 0, 0
	for _, st := range d.projectSteps {
		if st.ProjectID != projectID {
			continue
		}
		total++
		if st.Status == store.StepStatusCompleted {
			completed++
		}
	}
	if total == 0 {
		return
	}
	percent := int(math.Round(float64(completed) / float64(total) * 100))
	status := store.ProjectStatusPlanning
	switch {
	case percent == 100:
		status = store.ProjectStatusCompleted
	case percent > 0:
		status = store.ProjectStatusInProgress
	}
	for i := range d.projects {
		if d.projects[i].ID == projectID {
			d.projects[i].ProgressPercent = percent
			d.projects[i].Status = status
			return
		}
	}
}

// AddFeedback appends the entry with provisional neutral values. The
// server resolves sentiment in the background; the replica keeps the
// pending marker until the next Bootstrap picks up the result.
func (d *DomainStore) AddFeedback(author store.User, fb store.Feedback) store.Feedback {
	if fb.ID == "" {
		fb.ID = d.newID("f")
	}
	if fb.TenantID == "" {
		fb.TenantID = author.TenantID
	}
	if fb.UserID == "" {
		fb.UserID = author.ID
	}
	if fb.Status == "" {
		fb.Status = store.FeedbackStatusNew
	}
	fb.Sentiment = store.SentimentNeutral
	fb.SentimentScore = 0
	fb.AiTags = []string{}
	fb.AnalysisStatus = store.AnalysisPending
	if fb.CreatedAt == "" {
		fb.CreatedAt = d.now().UTC().Format(time.RFC3339)
	}

	d.mu.Lock()
	d.feedback = append(d.feedback, fb)
	d.mu.Unlock()

	d.persist("add_feedback", func(ctx context.Context) error {
		_, err := d.client.CreateFeedback(ctx, fb)
		return err
	})
	return fb
}

func (d *DomainStore) UpdateFeedback(id string, patch store.FeedbackPatch) (store.Feedback, bool) {
	d.mu.Lock()
	var updated store.Feedback
	found := false
	for i := range d.feedback {
		if d.feedback[i].ID == id {
			patch.Apply(&d.feedback[i])
			updated = d.feedback[i]
			found = true
			break
		}
	}
	d.mu.Unlock()
	if !found {
		return store.Feedback{}, false
	}

	d.persist("update_feedback", func(ctx context.Context) error {
		_, err := d.client.UpdateFeedback(ctx, id, patch)
		return err
	})
	return updated, true
}

func (d *DomainStore) AddLearningProgress(owner store.User, lp store.LearningProgress) store.LearningProgress {
	if lp.ID == "" {
		lp.ID = d.newID("ulp")
	}
	if lp.UserID == "" {
		lp.UserID = owner.ID
	}

	d.mu.Lock()
	d.learningProgress = append(d.learningProgress, lp)
	d.mu.Unlock()

	d.persist("add_learning_progress", func(ctx context.Context) error {
		_, err := d.client.CreateLearningProgress(ctx, lp)
		return err
	})
	return lp
}

func (d *DomainStore) UpdateLearningProgress(id string, patch store.LearningProgressPatch) (store.LearningProgress, bool) {
	d.mu.Lock()
	var updated store.LearningProgress
	found := false
	for i := range d.learningProgress {
		if d.learningProgress[i].ID == id {
			patch.Apply(&d.learningProgress[i])
			updated = d.learningProgress[i]
			found = true
			break
		}
	}
	d.mu.Unlock()
	if !found {
		return store.LearningProgress{}, false
	}

	d.persist("update_learning_progress", func(ctx context.Context) error {
		_, err := d.client.UpdateLearningProgress(ctx, id, patch)
		return err
	})
	return updated, true
}

// AddLessonProgress upserts a lesson completion keyed by
// user+material+lesson, matching the server's collapse of repeats.
func (d *DomainStore) AddLessonProgress(owner store.User, lp store.LessonProgress) store.LessonProgress {
	if lp.UserID == "" {
		lp.UserID = owner.ID
	}
	if lp.CompletedAt == "" {
		lp.CompletedAt = d.now().UTC().Format(time.RFC3339)
	}

	d.mu.Lock()
	stored := false
	for i := range d.lessonProgress {
		existing := &d.lessonProgress[i]
		if existing.UserID == lp.UserID && existing.MaterialID == lp.MaterialID && existing.LessonID == lp.LessonID {
			existing.CompletedAt = lp.CompletedAt
			lp = *existing
			stored = true
			break
		}
	}
	if !stored {
		if lp.ID == "" {
			lp.ID = d.newID("lp")
		}
		d.lessonProgress = append(d.lessonProgress, lp)
	}
	d.mu.Unlock()

	record := lp
	d.persist("add_lesson_progress", func(ctx context.Context) error {
		_, err := d.client.UpsertLessonProgress(ctx, record)
		return err
	})
	return lp
}

// CompleteLesson records a lesson completion and recomputes the
// material's overall progress from the course definition. Materials
// without a course definition keep their coarse percent untouched.
func (d *DomainStore) CompleteLesson(owner store.User, materialID, lessonID string) store.LessonProgress {
	lp := d.AddLessonProgress(owner, store.LessonProgress{MaterialID: materialID, LessonID: lessonID})

	c, ok := catalog.CourseFor(materialID)
	if !ok {
		return lp
	}
	completed := d.completedLessons(owner.ID, materialID)
	quizDone := false
	if existing, found := d.learningRecord(owner.ID, materialID); found {
		quizDone = existing.CompletedAt != ""
	}
	d.setMaterialProgress(owner, materialID, course.Percent(c, course.CompletedCount(c, completed), quizDone), "")
	return lp
}

// SubmitQuiz scores the final quiz. A passing score completes the
// material: progress 100 and a completion timestamp. A failing score
// leaves lesson-derived progress as is. Attempts are not persisted.
func (d *DomainStore) SubmitQuiz(owner store.User, materialID string, answers []int) (int, bool) {
	c, ok := catalog.CourseFor(materialID)
	if !ok {
		return 0, false
	}
	if !course.QuizAvailable(c, d.completedLessons(owner.ID, materialID)) {
		return 0, false
	}
	score := course.Score(c.Quiz, answers)
	if !course.Passed(c.Quiz, score) {
		return score, false
	}
	d.setMaterialProgress(owner, materialID, 100, d.now().UTC().Format(time.RFC3339))
	return score, true
}

func (d *DomainStore) completedLessons(userID, materialID string) map[string]bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	completed := map[string]bool{}
	for _, lp := range d.lessonProgress {
		if lp.UserID == userID && lp.MaterialID == materialID {
			completed[lp.LessonID] = true
		}
	}
	return completed
}

func (d *DomainStore) learningRecord(userID, materialID string) (store.LearningProgress, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, lp := range d.learningProgress {
		if lp.UserID == userID && lp.MaterialID == materialID {
			return lp, true
		}
	}
	return store.LearningProgress{}, false
}

func (d *DomainStore) setMaterialProgress(owner store.User, materialID string, percent int, completedAt string) {
	existing, found := d.learningRecord(owner.ID, materialID)
	if !found {
		record := store.LearningProgress{MaterialID: materialID, ProgressPercent: percent, CompletedAt: completedAt}
		d.AddLearningProgress(owner, record)
		return
	}
	patch := store.LearningProgressPatch{ProgressPercent: &percent}
	if completedAt != "" {
		patch.CompletedAt = &completedAt
	}
	d.UpdateLearningProgress(existing.ID, patch)
}

// AskAssistant appends the user's message and a scripted reply, and
// persists both through the append-only conversation endpoint.
func (d *DomainStore) AskAssistant(author store.User, content string) (store.AiMessage, store.AiMessage) {
	now := d.now().UTC()
	question := store.AiMessage{
		ID:             d.newID("msg"),
		UserID:         author.ID,
		ChatID:         "main",
		MessageRole:    "user",
		MessageContent: content,
		CreatedAt:      now.Format(time.RFC3339),
	}
	answer := store.AiMessage{
		ID:             d.newID("msg"),
		UserID:         author.ID,
		ChatID:         "main",
		MessageRole:    "assistant",
		MessageContent: d.advisor.Reply(content),
		CreatedAt:      now.Format(time.RFC3339),
	}

	d.mu.Lock()
	d.aiMessages = append(d.aiMessages, question, answer)
	d.mu.Unlock()

	d.persist("ask_assistant", func(ctx context.Context) error {
		if _, err := d.client.AppendAiMessage(ctx, question); err != nil {
			return err
		}
		_, err := d.client.AppendAiMessage(ctx, answer)
		return err
	})
	return question, answer
}
