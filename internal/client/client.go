package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"changeflow/api/internal/store"
)

// APIError is a decoded non-2xx response body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Client is a thin typed wrapper over the HTTP API. It carries the
// bearer token for every request once one is set.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code  string `json:"code"`
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// LoginResult is the token+user pair returned by login and switch-role.
type LoginResult struct {
	Token string     `json:"token"`
	User  store.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email string) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email}, &res)
	return res, err
}

func (c *Client) Me(ctx context.Context) (store.User, error) {
	var res struct {
		User store.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &res)
	return res.User, err
}

func (c *Client) SwitchRole(ctx context.Context, role string) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/switch-role", map[string]string{"role": role}, &res)
	return res, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", map[string]any{}, nil)
}

func (c *Client) Bootstrap(ctx context.Context) (store.Snapshot, error) {
	var snap store.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/bootstrap", nil, &snap)
	return snap, err
}

func (c *Client) Dashboard(ctx context.Context) (map[string]any, error) {
	var res map[string]any
	err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &res)
	return res, err
}

// ProjectCreated is the create-project response: the stored project
// plus the steps the server instantiated from its template.
type ProjectCreated struct {
	Project store.Project       `json:"project"`
	Steps   []store.ProjectStep `json:"steps"`
}

func (c *Client) CreateProject(ctx context.Context, project store.Project) (ProjectCreated, error) {
	var res ProjectCreated
	err := c.do(ctx, http.MethodPost, "/api/projects", map[string]any{"project": project}, &res)
	return res, err
}

func (c *Client) UpdateProject(ctx context.Context, id string, patch store.ProjectPatch) (store.Project, error) {
	var res struct {
		Project store.Project `json:"project"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/projects/"+id, map[string]any{"updates": patch}, &res)
	return res.Project, err
}

// StepUpdate mirrors the cascade response for a step status change.
type StepUpdate struct {
	Step     store.ProjectStep  `json:"step"`
	Promoted *store.ProjectStep `json:"promoted"`
	Project  store.Project      `json:"project"`
}

func (c *Client) UpdateProjectStepStatus(ctx context.Context, id, status string) (StepUpdate, error) {
	var res StepUpdate
	err := c.do(ctx, http.MethodPatch, "/api/project-steps/"+id, map[string]string{"status": status}, &res)
	return res, err
}

func (c *Client) CreateFeedback(ctx context.Context, fb store.Feedback) (store.Feedback, error) {
	var res struct {
		Feedback store.Feedback `json:"feedback"`
	}
	err := c.do(ctx, http.MethodPost, "/api/feedback", map[string]any{"feedback": fb}, &res)
	return res.Feedback, err
}

func (c *Client) UpdateFeedback(ctx context.Context, id string, patch store.FeedbackPatch) (store.Feedback, error) {
	var res struct {
		Feedback store.Feedback `json:"feedback"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/feedback/"+id, map[string]any{"updates": patch}, &res)
	return res.Feedback, err
}

func (c *Client) CreateLearningProgress(ctx context.Context, lp store.LearningProgress) (store.LearningProgress, error) {
	var res struct {
		LearningProgress store.LearningProgress `json:"learningProgress"`
	}
	err := c.do(ctx, http.MethodPost, "/api/learning-progress", map[string]any{"progress": lp}, &res)
	return res.LearningProgress, err
}

func (c *Client) UpdateLearningProgress(ctx context.Context, id string, patch store.LearningProgressPatch) (store.LearningProgress, error) {
	var res struct {
		LearningProgress store.LearningProgress `json:"learningProgress"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/learning-progress/"+id, map[string]any{"updates": patch}, &res)
	return res.LearningProgress, err
}

func (c *Client) UpsertLessonProgress(ctx context.Context, lp store.LessonProgress) (store.LessonProgress, error) {
	var res struct {
		LessonProgress store.LessonProgress `json:"lessonProgress"`
	}
	err := c.do(ctx, http.MethodPost, "/api/lesson-progress", map[string]any{"progress": lp}, &res)
	return res.LessonProgress, err
}

func (c *Client) AppendAiMessage(ctx context.Context, msg store.AiMessage) (store.AiMessage, error) {
	var res struct {
		Message store.AiMessage `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/api/ai-conversations", map[string]any{"message": msg}, &res)
	return res.Message, err
}
