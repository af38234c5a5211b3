package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"changeflow/api/internal/assistant"
	"changeflow/api/internal/config"
	"changeflow/api/internal/sentiment"
	"changeflow/api/internal/session"
	"changeflow/api/internal/store"
)

func neverFails() float64  { return 1.0 }
func alwaysFails() float64 { return 0.0 }

func newTestServer(t *testing.T, randFn func() float64) (*Service, http.Handler) {
	t.Helper()

	cfg := config.Config{
		DataFile:   filepath.Join(t.TempDir(), "db.json"),
		JWTSecret:  "test-secret",
		CORSOrigin: "*",
	}

	analyzerCfg := sentiment.DefaultConfig()
	analyzerCfg.Delay = 0
	analyzer := sentiment.NewAnalyzerWithRand(analyzerCfg, randFn)

	st := store.NewFileStore(cfg.DataFile)
	service := NewService(cfg, st, analyzer, assistant.NewScripted(), zerolog.Nop())
	if err := service.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	server := NewHTTPServer(service, cfg.CORSOrigin, zerolog.Nop())
	return service, server.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func login(t *testing.T, handler http.Handler, email string) (string, store.User) {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token string     `json:"token"`
		User  store.User `json:"user"`
	}
	decodeInto(t, rec, &body)
	if body.Token == "" {
		t.Fatalf("login returned empty token")
	}
	return body.Token, body.User
}

func TestHealthEndpoint(t *testing.T) {
	_, handler := newTestServer(t, neverFails)

	rec := doJSON(t, handler, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	decodeInto(t, rec, &body)
	if body["status"] != "ok" {
		t.Fatalf("status field = %q", body["status"])
	}
}

func TestLoginKnownEmail(t *testing.T) {
	_, handler := newTestServer(t, neverFails)

	_, user := login(t, handler, "manager@progress.ru")
	if user.ID != "u2" {
		t.Fatalf("user id = %q, want u2", user.ID)
	}
	if user.Role != store.RoleManager {
		t.Fatalf("role = %q", user.Role)
	}
}

func TestLoginUnknownEmailFallsBackToFirstUser(t *testing.T) {
	_, handler := newTestServer(t, neverFails)

	_, user := login(t, handler, "nobody@example.com")
	if user.ID != "u1" {
		t.Fatalf("fallback user id = %q, want u1", user.ID)
	}
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	_, handler := newTestServer(t, neverFails)

	rec := doJSON(t, handler, http.MethodGet, "/api/bootstrap", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	decodeInto(t, rec, &body)
	if body["code"] != "UNAUTHORIZED" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	_, handler := newTestServer(t, neverFails)

	rec := doJSON(t, handler, http.MethodGet, "/api/auth/me", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthMeReturnsCurrentUser(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, user := login(t, handler, "admin@progress.ru")

	rec := doJSON(t, handler, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		User store.User `json:"user"`
	}
	decodeInto(t, rec, &body)
	if body.User.ID != user.ID {
		t.Fatalf("me returned %q, want %q", body.User.ID, user.ID)
	}
}

func TestSwitchRole(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "admin@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/switch-role", token, map[string]string{"role": "employee"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token string     `json:"token"`
		User  store.User `json:"user"`
	}
	decodeInto(t, rec, &body)
	if body.User.ID != "u3" {
		t.Fatalf("switched to %q, want u3", body.User.ID)
	}
	if body.Token == token {
		t.Fatalf("expected a reissued token")
	}

	me := doJSON(t, handler, http.MethodGet, "/api/auth/me", body.Token, nil)
	var meBody struct {
		User store.User `json:"user"`
	}
	decodeInto(t, me, &meBody)
	if meBody.User.ID != "u3" {
		t.Fatalf("new token resolves to %q", meBody.User.ID)
	}
}

func TestSwitchRoleUnknownRoleKeepsCaller(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, user := login(t, handler, "employee@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/switch-role", token, map[string]string{"role": "director"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		User store.User `json:"user"`
	}
	decodeInto(t, rec, &body)
	if body.User.ID != user.ID {
		t.Fatalf("user = %q, want caller %q", body.User.ID, user.ID)
	}
}

func TestBootstrapSnapshot(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "admin@progress.ru")

	rec := doJSON(t, handler, http.MethodGet, "/api/bootstrap", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap store.Snapshot
	decodeInto(t, rec, &snap)
	if len(snap.Projects) != 4 {
		t.Fatalf("projects = %d, want 4", len(snap.Projects))
	}
	if len(snap.ProjectSteps) != 5 {
		t.Fatalf("steps = %d, want 5", len(snap.ProjectSteps))
	}
	if len(snap.Feedback) != 5 {
		t.Fatalf("feedback = %d, want 5", len(snap.Feedback))
	}
	if snap.LessonProgress == nil || snap.AiConversations == nil {
		t.Fatalf("empty collections must be arrays, not null")
	}
}

func TestCreateProjectInstantiatesTemplateSteps(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, user := login(t, handler, "manager@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/projects", token, map[string]any{
		"project": map[string]any{"name": "Цифровой документооборот", "template_id": "tmpl2"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Project store.Project       `json:"project"`
		Steps   []store.ProjectStep `json:"steps"`
	}
	decodeInto(t, rec, &body)

	if body.Project.ID == "" {
		t.Fatalf("project id not assigned")
	}
	if body.Project.OwnerID != user.ID {
		t.Fatalf("owner = %q, want %q", body.Project.OwnerID, user.ID)
	}
	if body.Project.Status != store.ProjectStatusPlanning {
		t.Fatalf("status = %q", body.Project.Status)
	}
	if len(body.Steps) != 5 {
		t.Fatalf("steps = %d, want 5", len(body.Steps))
	}
	for i, step := range body.Steps {
		if step.StepNumber != i+1 {
			t.Fatalf("step %d number = %d", i, step.StepNumber)
		}
		if step.Status != store.StepStatusPending {
			t.Fatalf("step %d status = %q", i, step.Status)
		}
		if step.ProjectID != body.Project.ID {
			t.Fatalf("step %d project = %q", i, step.ProjectID)
		}
	}
}

func TestCreateProjectRequiresName(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "manager@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/projects", token, map[string]any{
		"project": map[string]any{"template_id": "tmpl1"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	decodeInto(t, rec, &body)
	if body["code"] != "INVALID_BODY" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestUpdateProjectAppliesPatch(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "admin@progress.ru")

	rec := doJSON(t, handler, http.MethodPatch, "/api/projects/p2", token, map[string]any{
		"updates": map[string]any{"status": "in_progress", "progress_percent": 25},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Project store.Project `json:"project"`
	}
	decodeInto(t, rec, &body)
	if body.Project.Status != store.ProjectStatusInProgress || body.Project.ProgressPercent != 25 {
		t.Fatalf("patched project = %+v", body.Project)
	}
	if body.Project.Name != "Внедрение CRM" {
		t.Fatalf("untouched field changed: %q", body.Project.Name)
	}
}

func TestUpdateMissingProjectReturns404(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "admin@progress.ru")

	rec := doJSON(t, handler, http.MethodPatch, "/api/projects/p999", token, map[string]any{
		"updates": map[string]any{"status": "on_hold"},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	decodeInto(t, rec, &body)
	if body["code"] != "NOT_FOUND" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestStepCompletionCascades(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "manager@progress.ru")

	rec := doJSON(t, handler, http.MethodPatch, "/api/project-steps/ps3", token, map[string]string{"status": "completed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Step     store.ProjectStep  `json:"step"`
		Promoted *store.ProjectStep `json:"promoted"`
		Project  store.Project      `json:"project"`
	}
	decodeInto(t, rec, &body)

	if body.Step.Status != store.StepStatusCompleted {
		t.Fatalf("step status = %q", body.Step.Status)
	}
	if body.Step.EndDate == "" {
		t.Fatalf("completed step missing end date")
	}
	if body.Promoted == nil {
		t.Fatalf("expected the next pending step to be promoted")
	}
	if body.Promoted.ID != "ps4" {
		t.Fatalf("promoted %q, want ps4", body.Promoted.ID)
	}
	if body.Promoted.Status != store.StepStatusInProgress || body.Promoted.StartDate == "" {
		t.Fatalf("promoted step = %+v", body.Promoted)
	}
	if body.Project.ProgressPercent != 60 {
		t.Fatalf("project percent = %d, want 60", body.Project.ProgressPercent)
	}
	if body.Project.Status != store.ProjectStatusInProgress {
		t.Fatalf("project status = %q", body.Project.Status)
	}
}

func TestCompletingEveryStepCompletesProject(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "manager@progress.ru")

	var last struct {
		Project store.Project `json:"project"`
	}
	for _, id := range []string{"ps3", "ps4", "ps5"} {
		rec := doJSON(t, handler, http.MethodPatch, "/api/project-steps/"+id, token, map[string]string{"status": "completed"})
		if rec.Code != http.StatusOK {
			t.Fatalf("completing %s: status = %d", id, rec.Code)
		}
		decodeInto(t, rec, &last)
	}
	if last.Project.ProgressPercent != 100 {
		t.Fatalf("percent = %d, want 100", last.Project.ProgressPercent)
	}
	if last.Project.Status != store.ProjectStatusCompleted {
		t.Fatalf("status = %q", last.Project.Status)
	}
}

func TestStepPatchRejectsUnknownStatus(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "manager@progress.ru")

	rec := doJSON(t, handler, http.MethodPatch, "/api/project-steps/ps3", token, map[string]string{"status": "done"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestFeedbackCreatedPendingThenAnalyzed(t *testing.T) {
	service, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "employee@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/feedback", token, map[string]any{
		"feedback": map[string]any{
			"project_id":    "p1",
			"feedback_type": "concern",
			"message":       "Коллеги обеспокоены новым графиком",
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Feedback store.Feedback `json:"feedback"`
	}
	decodeInto(t, rec, &body)
	if body.Feedback.AnalysisStatus != store.AnalysisPending {
		t.Fatalf("analysis status = %q, want pending", body.Feedback.AnalysisStatus)
	}
	if body.Feedback.Sentiment != store.SentimentNeutral || body.Feedback.SentimentScore != 0 {
		t.Fatalf("initial sentiment = %q score %v", body.Feedback.Sentiment, body.Feedback.SentimentScore)
	}

	service.analysisWG.Wait()

	snap := doJSON(t, handler, http.MethodGet, "/api/bootstrap", token, nil)
	var boot store.Snapshot
	decodeInto(t, snap, &boot)
	var found *store.Feedback
	for i := range boot.Feedback {
		if boot.Feedback[i].ID == body.Feedback.ID {
			found = &boot.Feedback[i]
		}
	}
	if found == nil {
		t.Fatalf("created feedback not in snapshot")
	}
	if found.AnalysisStatus != store.AnalysisCompleted {
		t.Fatalf("analysis status = %q, want completed", found.AnalysisStatus)
	}
	if found.Sentiment != store.SentimentNegative {
		t.Fatalf("sentiment = %q, want negative", found.Sentiment)
	}
	if found.SentimentScore != 0.82 {
		t.Fatalf("score = %v, want 0.82", found.SentimentScore)
	}
	if len(found.AiTags) == 0 {
		t.Fatalf("expected tags after analysis")
	}
}

func TestFeedbackAnalysisFailureKeepsNeutral(t *testing.T) {
	service, handler := newTestServer(t, alwaysFails)
	token, _ := login(t, handler, "employee@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/feedback", token, map[string]any{
		"feedback": map[string]any{"project_id": "p1", "feedback_type": "praise", "message": "Отлично придумано"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Feedback store.Feedback `json:"feedback"`
	}
	decodeInto(t, rec, &body)

	service.analysisWG.Wait()

	snap := doJSON(t, handler, http.MethodGet, "/api/bootstrap", token, nil)
	var boot store.Snapshot
	decodeInto(t, snap, &boot)
	for _, fb := range boot.Feedback {
		if fb.ID != body.Feedback.ID {
			continue
		}
		if fb.AnalysisStatus != store.AnalysisFailed {
			t.Fatalf("analysis status = %q, want analysis_failed", fb.AnalysisStatus)
		}
		if fb.Sentiment != store.SentimentNeutral || fb.SentimentScore != 0 {
			t.Fatalf("failed analysis must stay neutral, got %q %v", fb.Sentiment, fb.SentimentScore)
		}
		return
	}
	t.Fatalf("created feedback not in snapshot")
}

func TestFeedbackRequiresMessage(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "employee@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/feedback", token, map[string]any{
		"feedback": map[string]any{"project_id": "p1"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLessonProgressUpsert(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "employee@progress.ru")

	first := doJSON(t, handler, http.MethodPost, "/api/lesson-progress", token, map[string]any{
		"progress": map[string]any{"material_id": "lm3", "lesson_id": "lm3-lesson-1"},
	})
	if first.Code != http.StatusCreated {
		t.Fatalf("first upsert status = %d, body %s", first.Code, first.Body.String())
	}
	var a struct {
		LessonProgress store.LessonProgress `json:"lessonProgress"`
	}
	decodeInto(t, first, &a)

	second := doJSON(t, handler, http.MethodPost, "/api/lesson-progress", token, map[string]any{
		"progress": map[string]any{"material_id": "lm3", "lesson_id": "lm3-lesson-1"},
	})
	if second.Code != http.StatusOK {
		t.Fatalf("repeat upsert status = %d, want 200", second.Code)
	}
	var b struct {
		LessonProgress store.LessonProgress `json:"lessonProgress"`
	}
	decodeInto(t, second, &b)
	if a.LessonProgress.ID != b.LessonProgress.ID {
		t.Fatalf("repeat upsert created a new record: %q vs %q", a.LessonProgress.ID, b.LessonProgress.ID)
	}
}

func TestLessonProgressRequiresKeys(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "employee@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/lesson-progress", token, map[string]any{
		"progress": map[string]any{"material_id": "lm3"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLearningProgressNeverRegresses(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "manager@progress.ru")

	// ulp3 is seeded at 60 percent.
	down := doJSON(t, handler, http.MethodPatch, "/api/learning-progress/ulp3", token, map[string]any{
		"updates": map[string]any{"progress_percent": 30},
	})
	if down.Code != http.StatusOK {
		t.Fatalf("status = %d", down.Code)
	}
	var body struct {
		LearningProgress store.LearningProgress `json:"learningProgress"`
	}
	decodeInto(t, down, &body)
	if body.LearningProgress.ProgressPercent != 60 {
		t.Fatalf("progress regressed to %d", body.LearningProgress.ProgressPercent)
	}

	up := doJSON(t, handler, http.MethodPatch, "/api/learning-progress/ulp3", token, map[string]any{
		"updates": map[string]any{"progress_percent": 80},
	})
	decodeInto(t, up, &body)
	if body.LearningProgress.ProgressPercent != 80 {
		t.Fatalf("progress = %d, want 80", body.LearningProgress.ProgressPercent)
	}
}

func TestCreateLearningProgress(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, user := login(t, handler, "employee2@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/learning-progress", token, map[string]any{
		"progress": map[string]any{"material_id": "lm5", "progress_percent": 20},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		LearningProgress store.LearningProgress `json:"learningProgress"`
	}
	decodeInto(t, rec, &body)
	if body.LearningProgress.UserID != user.ID {
		t.Fatalf("user = %q, want %q", body.LearningProgress.UserID, user.ID)
	}
	if body.LearningProgress.ID == "" {
		t.Fatalf("id not assigned")
	}
}

func TestAiConversationAppend(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, user := login(t, handler, "employee@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/ai-conversations", token, map[string]any{
		"message": map[string]any{"message_content": "Как снизить сопротивление изменениям?"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Message store.AiMessage `json:"message"`
	}
	decodeInto(t, rec, &body)
	if body.Message.MessageRole != "user" {
		t.Fatalf("role = %q, want user", body.Message.MessageRole)
	}
	if body.Message.ChatID != "main" {
		t.Fatalf("chat = %q, want main", body.Message.ChatID)
	}
	if body.Message.UserID != user.ID {
		t.Fatalf("user = %q", body.Message.UserID)
	}
	if body.Message.CreatedAt == "" {
		t.Fatalf("created_at not stamped")
	}
}

func TestDashboardSummary(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "admin@progress.ru")

	rec := doJSON(t, handler, http.MethodGet, "/api/dashboard", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	decodeInto(t, rec, &body)

	if got := body["projects_total"].(float64); got != 4 {
		t.Fatalf("projects_total = %v", got)
	}
	if got := body["average_progress"].(float64); got != 55 {
		t.Fatalf("average_progress = %v, want 55", got)
	}
	if got := body["feedback_total"].(float64); got != 5 {
		t.Fatalf("feedback_total = %v", got)
	}
	if got := body["learning_completion_rate"].(float64); got != 60 {
		t.Fatalf("learning_completion_rate = %v, want 60", got)
	}
	bySentiment := body["feedback_by_sentiment"].(map[string]any)
	if bySentiment["positive"].(float64) != 3 || bySentiment["negative"].(float64) != 1 {
		t.Fatalf("feedback_by_sentiment = %v", bySentiment)
	}
}

func TestMalformedBodyReturns400(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "admin@progress.ru")

	req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	decodeInto(t, rec, &body)
	if body["code"] != "INVALID_BODY" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "admin@progress.ru")

	rec := doJSON(t, handler, http.MethodGet, "/api/unknown", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestOptionsShortCircuits(t *testing.T) {
	_, handler := newTestServer(t, neverFails)

	rec := doJSON(t, handler, http.MethodOptions, "/api/projects", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("CORS headers missing on preflight")
	}
}

func TestLogoutWithoutRegistryIsNoOp(t *testing.T) {
	_, handler := newTestServer(t, neverFails)
	token, _ := login(t, handler, "admin@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}

	me := doJSON(t, handler, http.MethodGet, "/api/auth/me", token, nil)
	if me.Code != http.StatusOK {
		t.Fatalf("token should survive logout without a registry, got %d", me.Code)
	}
}

func TestLogoutRevokesTokenWithRegistry(t *testing.T) {
	service, handler := newTestServer(t, neverFails)

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { client.Close() })
	service.SetRevocationStore(session.NewRedisStoreWithClient(client))

	token, _ := login(t, handler, "admin@progress.ru")

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, body %s", rec.Code, rec.Body.String())
	}

	me := doJSON(t, handler, http.MethodGet, "/api/auth/me", token, nil)
	if me.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token status = %d, want 401", me.Code)
	}

	// Advance the clock so the reissued token differs from the revoked one.
	service.now = func() time.Time { return time.Now().Add(time.Second) }
	fresh, _ := login(t, handler, "admin@progress.ru")
	again := doJSON(t, handler, http.MethodGet, "/api/auth/me", fresh, nil)
	if again.Code != http.StatusOK {
		t.Fatalf("fresh token after logout rejected: %d", again.Code)
	}
}
