package store

import "errors"

// ErrNotFound is returned when a record id does not exist in any collection.
var ErrNotFound = errors.New("record not found")

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

const (
	ProjectStatusPlanning   = "planning"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusOnHold     = "on_hold"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

const (
	StepStatusPending    = "pending"
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusSkipped    = "skipped"
)

const (
	FeedbackStatusNew        = "new"
	FeedbackStatusReviewed   = "reviewed"
	FeedbackStatusInProgress = "in_progress"
	FeedbackStatusResolved   = "resolved"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

const (
	AnalysisPending   = "pending"
	AnalysisCompleted = "completed"
	AnalysisFailed    = "analysis_failed"
)

type Tenant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	INN      string `json:"inn"`
	Industry string `json:"industry"`
}

type User struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

type Project struct {
	ID              string `json:"id"`
	TenantID        string `json:"tenant_id"`
	TemplateID      string `json:"template_id"`
	Name            string `json:"name"`
	StartDate       string `json:"start_date"`
	OwnerID         string `json:"owner_id"`
	Status          string `json:"status"`
	ProgressPercent int    `json:"progress_percent"`
	Description     string `json:"description,omitempty"`
}

type ProjectStep struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	StepNumber int    `json:"step_number"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
}

type Feedback struct {
	ID             string   `json:"id"`
	TenantID       string   `json:"tenant_id"`
	ProjectID      string   `json:"project_id"`
	UserID         string   `json:"user_id"`
	FeedbackType   string   `json:"feedback_type"`
	Message        string   `json:"message"`
	Status         string   `json:"status"`
	Sentiment      string   `json:"sentiment"`
	SentimentScore float64  `json:"sentiment_score,omitempty"`
	AiTags         []string `json:"ai_tags"`
	AnalysisStatus string   `json:"analysis_status,omitempty"`
	CreatedAt      string   `json:"created_at"`
}

type LearningProgress struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	MaterialID      string `json:"material_id"`
	CompletedAt     string `json:"completed_at,omitempty"`
	ProgressPercent int    `json:"progress_percent"`
}

type LessonProgress struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	MaterialID  string `json:"material_id"`
	LessonID    string `json:"lesson_id"`
	CompletedAt string `json:"completed_at,omitempty"`
}

type AiMessage struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	ChatID         string `json:"chat_id"`
	MessageRole    string `json:"message_role"`
	MessageContent string `json:"message_content"`
	CreatedAt      string `json:"created_at"`
}

// Document mirrors the on-disk JSON layout. Collection keys match the
// historical db.json so existing data files load unchanged.
type Document struct {
	Users            []User             `json:"users"`
	Tenants          []Tenant           `json:"tenants"`
	Projects         []Project          `json:"projects"`
	ProjectSteps     []ProjectStep      `json:"projectSteps"`
	Feedback         []Feedback         `json:"feedback"`
	LearningProgress []LearningProgress `json:"learningProgress"`
	LessonProgress   []LessonProgress   `json:"lessonProgress"`
	AiConversations  []AiMessage        `json:"aiConversations"`
}

// Snapshot is the bootstrap payload: every domain collection except
// users and tenants, which travel through the auth endpoints.
type Snapshot struct {
	Projects         []Project          `json:"projects"`
	ProjectSteps     []ProjectStep      `json:"projectSteps"`
	Feedback         []Feedback         `json:"feedback"`
	LearningProgress []LearningProgress `json:"learningProgress"`
	LessonProgress   []LessonProgress   `json:"lessonProgress"`
	AiConversations  []AiMessage        `json:"aiConversations"`
}

// Patch types carry partial updates. Nil fields are left untouched.

type ProjectPatch struct {
	Name            *string `json:"name,omitempty"`
	StartDate       *string `json:"start_date,omitempty"`
	Status          *string `json:"status,omitempty"`
	ProgressPercent *int    `json:"progress_percent,omitempty"`
	Description     *string `json:"description,omitempty"`
}

func (p ProjectPatch) Apply(project *Project) {
	if p.Name != nil {
		project.Name = *p.Name
	}
	if p.StartDate != nil {
		project.StartDate = *p.StartDate
	}
	if p.Status != nil {
		project.Status = *p.Status
	}
	if p.ProgressPercent != nil {
		project.ProgressPercent = *p.ProgressPercent
	}
	if p.Description != nil {
		project.Description = *p.Description
	}
}

type StepPatch struct {
	Status    *string `json:"status,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

func (p StepPatch) Apply(step *ProjectStep) {
	if p.Status != nil {
		step.Status = *p.Status
	}
	if p.StartDate != nil {
		step.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		step.EndDate = *p.EndDate
	}
}

type FeedbackPatch struct {
	Status         *string   `json:"status,omitempty"`
	Sentiment      *string   `json:"sentiment,omitempty"`
	SentimentScore *float64  `json:"sentiment_score,omitempty"`
	AiTags         *[]string `json:"ai_tags,omitempty"`
	AnalysisStatus *string   `json:"analysis_status,omitempty"`
}

func (p FeedbackPatch) Apply(fb *Feedback) {
	if p.Status != nil {
		fb.Status = *p.Status
	}
	if p.Sentiment != nil {
		fb.Sentiment = *p.Sentiment
	}
	if p.SentimentScore != nil {
		fb.SentimentScore = *p.SentimentScore
	}
	if p.AiTags != nil {
		fb.AiTags = *p.AiTags
	}
	if p.AnalysisStatus != nil {
		fb.AnalysisStatus = *p.AnalysisStatus
	}
}

type LearningProgressPatch struct {
	CompletedAt     *string `json:"completed_at,omitempty"`
	ProgressPercent *int    `json:"progress_percent,omitempty"`
}

func (p LearningProgressPatch) Apply(lp *LearningProgress) {
	if p.CompletedAt != nil && lp.CompletedAt == "" {
		lp.CompletedAt = *p.CompletedAt
	}
	// Progress never regresses.
	if p.ProgressPercent != nil && *p.ProgressPercent > lp.ProgressPercent {
		lp.ProgressPercent = *p.ProgressPercent
	}
}

type LessonProgressPatch struct {
	CompletedAt *string `json:"completed_at,omitempty"`
}

func (p LessonProgressPatch) Apply(lp *LessonProgress) {
	if p.CompletedAt != nil {
		lp.CompletedAt = *p.CompletedAt
	}
}
