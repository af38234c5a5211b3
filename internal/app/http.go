package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"changeflow/api/internal/auth"
	"changeflow/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	log        zerolog.Logger
}

func NewHTTPServer(service *Service, corsOrigin string, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin, log: log}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/login" {
		s.handleLogin(w, r)
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	parts := splitPath(r.URL.Path)

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/auth/me":
		writeJSON(w, http.StatusOK, map[string]any{"user": session.User})

	case r.Method == http.MethodPost && r.URL.Path == "/api/auth/switch-role":
		s.handleSwitchRole(w, r, session)

	case r.Method == http.MethodPost && r.URL.Path == "/api/auth/logout":
		if err := s.service.Logout(r.Context(), session.Token); err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case r.Method == http.MethodGet && r.URL.Path == "/api/bootstrap":
		snap, err := s.service.Snapshot(r.Context())
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)

	case r.Method == http.MethodGet && r.URL.Path == "/api/dashboard":
		summary, err := s.service.DashboardSummary(r.Context())
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)

	case r.Method == http.MethodPost && r.URL.Path == "/api/projects":
		s.handleCreateProject(w, r, session)

	case r.Method == http.MethodPatch && len(parts) == 3 && parts[0] == "api" && parts[1] == "projects":
		s.handleUpdateProject(w, r, parts[2])

	case r.Method == http.MethodPatch && len(parts) == 3 && parts[0] == "api" && parts[1] == "project-steps":
		s.handleUpdateProjectStep(w, r, parts[2])

	case r.Method == http.MethodPost && r.URL.Path == "/api/feedback":
		s.handleCreateFeedback(w, r, session)

	case r.Method == http.MethodPatch && len(parts) == 3 && parts[0] == "api" && parts[1] == "feedback":
		s.handleUpdateFeedback(w, r, parts[2])

	case r.Method == http.MethodPost && r.URL.Path == "/api/learning-progress":
		s.handleCreateLearningProgress(w, r, session)

	case r.Method == http.MethodPatch && len(parts) == 3 && parts[0] == "api" && parts[1] == "learning-progress":
		s.handleUpdateLearningProgress(w, r, parts[2])

	case r.Method == http.MethodPost && r.URL.Path == "/api/lesson-progress":
		s.handleUpsertLessonProgress(w, r, session)

	case r.Method == http.MethodPatch && len(parts) == 3 && parts[0] == "api" && parts[1] == "lesson-progress":
		s.handleUpdateLessonProgress(w, r, parts[2])

	case r.Method == http.MethodPost && r.URL.Path == "/api/ai-conversations":
		s.handleAppendAiMessage(w, r, session)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session, err := s.service.Login(r.Context(), strings.ToLower(strings.TrimSpace(body.Email)))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": session.Token, "user": session.User})
}

func (s *HTTPServer) handleSwitchRole(w http.ResponseWriter, r *http.Request, session Session) {
	var body struct {
		Role string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	next, err := s.service.SwitchRole(r.Context(), session, body.Role)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": next.User, "token": next.Token})
}

func (s *HTTPServer) handleCreateProject(w http.ResponseWriter, r *http.Request, session Session) {
	var body struct {
		Project store.Project `json:"project"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	project, steps, err := s.service.CreateProject(r.Context(), session, body.Project)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	if steps == nil {
		steps = []store.ProjectStep{}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"project": project, "steps": steps})
}

func (s *HTTPServer) handleUpdateProject(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Updates store.ProjectPatch `json:"updates"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	project, err := s.service.UpdateProject(r.Context(), id, body.Updates)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": project})
}

func (s *HTTPServer) handleUpdateProjectStep(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	result, err := s.service.UpdateProjectStepStatus(r.Context(), id, body.Status)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	payload := map[string]any{"step": result.Step, "project": result.Project}
	if result.Promoted != nil {
		payload["promoted"] = result.Promoted
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleCreateFeedback(w http.ResponseWriter, r *http.Request, session Session) {
	var body struct {
		Feedback store.Feedback `json:"feedback"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	fb, err := s.service.CreateFeedback(r.Context(), session, body.Feedback)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"feedback": fb})
}

func (s *HTTPServer) handleUpdateFeedback(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Updates store.FeedbackPatch `json:"updates"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	fb, err := s.service.UpdateFeedback(r.Context(), id, body.Updates)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": fb})
}

func (s *HTTPServer) handleCreateLearningProgress(w http.ResponseWriter, r *http.Request, session Session) {
	var body struct {
		Progress store.LearningProgress `json:"progress"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	lp, err := s.service.AddLearningProgress(r.Context(), session, body.Progress)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"learningProgress": lp})
}

func (s *HTTPServer) handleUpdateLearningProgress(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Updates store.LearningProgressPatch `json:"updates"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	lp, err := s.service.UpdateLearningProgress(r.Context(), id, body.Updates)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"learningProgress": lp})
}

func (s *HTTPServer) handleUpsertLessonProgress(w http.ResponseWriter, r *http.Request, session Session) {
	var body struct {
		Progress store.LessonProgress `json:"progress"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	lp, created, err := s.service.UpsertLessonProgress(r.Context(), session, body.Progress)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"lessonProgress": lp})
}

func (s *HTTPServer) handleUpdateLessonProgress(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Updates store.LessonProgressPatch `json:"updates"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	lp, err := s.service.UpdateLessonProgress(r.Context(), id, body.Updates)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lessonProgress": lp})
}

func (s *HTTPServer) handleAppendAiMessage(w http.ResponseWriter, r *http.Request, session Session) {
	var body struct {
		Message store.AiMessage `json:"message"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	msg, err := s.service.AppendAiMessage(r.Context(), session, body.Message)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrInvalidSignature) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", writer.status).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Msg("request")
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json; charset=utf-8")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func (s *HTTPServer) writeMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	writeError(w, status, code, message, details)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrInvalidSignature) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
