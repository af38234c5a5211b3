package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PostgresStore is the relational backend. It exposes the same
// operation set as FileStore so the service layer stays agnostic.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) SeedIfEmpty(ctx context.Context, seed Document) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range seed.Tenants {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tenants (id, name, inn, industry) VALUES ($1,$2,$3,$4)`,
			t.ID, t.Name, t.INN, t.Industry); err != nil {
			return fmt.Errorf("seed tenant: %w", err)
		}
	}
	for _, u := range seed.Users {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, tenant_id, email, full_name, role, department, avatar_url) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			u.ID, u.TenantID, u.Email, u.FullName, u.Role, u.Department, u.AvatarURL); err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
	}
	for _, p := range seed.Projects {
		if _, err := tx.ExecContext(ctx, `INSERT INTO projects (id, tenant_id, template_id, name, start_date, owner_id, status, progress_percent, description) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			p.ID, p.TenantID, p.TemplateID, p.Name, p.StartDate, p.OwnerID, p.Status, p.ProgressPercent, p.Description); err != nil {
			return fmt.Errorf("seed project: %w", err)
		}
	}
	for _, st := range seed.ProjectSteps {
		if _, err := tx.ExecContext(ctx, `INSERT INTO project_steps (id, project_id, step_number, name, status, start_date, end_date) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			st.ID, st.ProjectID, st.StepNumber, st.Name, st.Status, st.StartDate, st.EndDate); err != nil {
			return fmt.Errorf("seed project step: %w", err)
		}
	}
	for _, fb := range seed.Feedback {
		if err := insertFeedbackTx(ctx, tx, fb); err != nil {
			return err
		}
	}
	for _, lp := range seed.LearningProgress {
		if _, err := tx.ExecContext(ctx, `INSERT INTO learning_progress (id, user_id, material_id, completed_at, progress_percent) VALUES ($1,$2,$3,$4,$5)`,
			lp.ID, lp.UserID, lp.MaterialID, lp.CompletedAt, lp.ProgressPercent); err != nil {
			return fmt.Errorf("seed learning progress: %w", err)
		}
	}
	for _, lp := range seed.LessonProgress {
		if _, err := tx.ExecContext(ctx, `INSERT INTO lesson_progress (id, user_id, material_id, lesson_id, completed_at) VALUES ($1,$2,$3,$4,$5)`,
			lp.ID, lp.UserID, lp.MaterialID, lp.LessonID, lp.CompletedAt); err != nil {
			return fmt.Errorf("seed lesson progress: %w", err)
		}
	}
	for _, msg := range seed.AiConversations {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ai_conversations (id, user_id, chat_id, message_role, message_content, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
			msg.ID, msg.UserID, msg.ChatID, msg.MessageRole, msg.MessageContent, msg.CreatedAt); err != nil {
			return fmt.Errorf("seed ai message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

func insertFeedbackTx(ctx context.Context, tx *sql.Tx, fb Feedback) error {
	tags, err := json.Marshal(fb.AiTags)
	if err != nil {
		return fmt.Errorf("encode ai tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO feedback (id, tenant_id, project_id, user_id, feedback_type, message, status, sentiment, sentiment_score, ai_tags, analysis_status, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		fb.ID, fb.TenantID, fb.ProjectID, fb.UserID, fb.FeedbackType, fb.Message, fb.Status, fb.Sentiment, fb.SentimentScore, tags, fb.AnalysisStatus, fb.CreatedAt); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSnapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		Projects:         []Project{},
		ProjectSteps:     []ProjectStep{},
		Feedback:         []Feedback{},
		LearningProgress: []LearningProgress{},
		LessonProgress:   []LessonProgress{},
		AiConversations:  []AiMessage{},
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, tenant_id, template_id, name, start_date, owner_id, status, progress_percent, description FROM projects ORDER BY start_date, id`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.TenantID, &p.TemplateID, &p.Name, &p.StartDate, &p.OwnerID, &p.Status, &p.ProgressPercent, &p.Description); err != nil {
			return Snapshot{}, fmt.Errorf("scan project: %w", err)
		}
		snap.Projects = append(snap.Projects, p)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	stepRows, err := s.db.QueryContext(ctx, `SELECT id, project_id, step_number, name, status, start_date, end_date FROM project_steps ORDER BY project_id, step_number`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list project steps: %w", err)
	}
	defer stepRows.Close()
	for stepRows.Next() {
		var st ProjectStep
		if err := stepRows.Scan(&st.ID, &st.ProjectID, &st.StepNumber, &st.Name, &st.Status, &st.StartDate, &st.EndDate); err != nil {
			return Snapshot{}, fmt.Errorf("scan project step: %w", err)
		}
		snap.ProjectSteps = append(snap.ProjectSteps, st)
	}
	if err := stepRows.Err(); err != nil {
		return Snapshot{}, err
	}

	fbRows, err := s.db.QueryContext(ctx, `SELECT id, tenant_id, project_id, user_id, feedback_type, message, status, sentiment, sentiment_score, ai_tags, analysis_status, created_at FROM feedback ORDER BY created_at, id`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list feedback: %w", err)
	}
	defer fbRows.Close()
	for fbRows.Next() {
		fb, err := scanFeedback(fbRows)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Feedback = append(snap.Feedback, fb)
	}
	if err := fbRows.Err(); err != nil {
		return Snapshot{}, err
	}

	lpRows, err := s.db.QueryContext(ctx, `SELECT id, user_id, material_id, completed_at, progress_percent FROM learning_progress ORDER BY id`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list learning progress: %w", err)
	}
	defer lpRows.Close()
	for lpRows.Next() {
		var lp LearningProgress
		if err := lpRows.Scan(&lp.ID, &lp.UserID, &lp.MaterialID, &lp.CompletedAt, &lp.ProgressPercent); err != nil {
			return Snapshot{}, fmt.Errorf("scan learning progress: %w", err)
		}
		snap.LearningProgress = append(snap.LearningProgress, lp)
	}
	if err := lpRows.Err(); err != nil {
		return Snapshot{}, err
	}

	lsRows, err := s.db.QueryContext(ctx, `SELECT id, user_id, material_id, lesson_id, completed_at FROM lesson_progress ORDER BY id`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list lesson progress: %w", err)
	}
	defer lsRows.Close()
	for lsRows.Next() {
		var lp LessonProgress
		if err := lsRows.Scan(&lp.ID, &lp.UserID, &lp.MaterialID, &lp.LessonID, &lp.CompletedAt); err != nil {
			return Snapshot{}, fmt.Errorf("scan lesson progress: %w", err)
		}
		snap.LessonProgress = append(snap.LessonProgress, lp)
	}
	if err := lsRows.Err(); err != nil {
		return Snapshot{}, err
	}

	msgRows, err := s.db.QueryContext(ctx, `SELECT id, user_id, chat_id, message_role, message_content, created_at FROM ai_conversations ORDER BY created_at, id`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list ai messages: %w", err)
	}
	defer msgRows.Close()
	for msgRows.Next() {
		var msg AiMessage
		if err := msgRows.Scan(&msg.ID, &msg.UserID, &msg.ChatID, &msg.MessageRole, &msg.MessageContent, &msg.CreatedAt); err != nil {
			return Snapshot{}, fmt.Errorf("scan ai message: %w", err)
		}
		snap.AiConversations = append(snap.AiConversations, msg)
	}
	if err := msgRows.Err(); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

func scanFeedback(rows *sql.Rows) (Feedback, error) {
	var fb Feedback
	var tags []byte
	if err := rows.Scan(&fb.ID, &fb.TenantID, &fb.ProjectID, &fb.UserID, &fb.FeedbackType, &fb.Message, &fb.Status, &fb.Sentiment, &fb.SentimentScore, &tags, &fb.AnalysisStatus, &fb.CreatedAt); err != nil {
		return Feedback{}, fmt.Errorf("scan feedback: %w", err)
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &fb.AiTags); err != nil {
			return Feedback{}, fmt.Errorf("decode ai tags: %w", err)
		}
	}
	if fb.AiTags == nil {
		fb.AiTags = []string{}
	}
	return fb, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, tenant_id, email, full_name, role, department, avatar_url FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.FullName, &u.Role, &u.Department, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `SELECT id, tenant_id, email, full_name, role, department, avatar_url FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.TenantID, &u.Email, &u.FullName, &u.Role, &u.Department, &u.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `SELECT id, tenant_id, email, full_name, role, department, avatar_url FROM users WHERE LOWER(email)=$1`, strings.ToLower(email)).
		Scan(&u.ID, &u.TenantID, &u.Email, &u.FullName, &u.Role, &u.Department, &u.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, project Project, steps []ProjectStep) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create project tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO projects (id, tenant_id, template_id, name, start_date, owner_id, status, progress_percent, description) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		project.ID, project.TenantID, project.TemplateID, project.Name, project.StartDate, project.OwnerID, project.Status, project.ProgressPercent, project.Description); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	for _, st := range steps {
		if _, err := tx.ExecContext(ctx, `INSERT INTO project_steps (id, project_id, step_number, name, status, start_date, end_date) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			st.ID, st.ProjectID, st.StepNumber, st.Name, st.Status, st.StartDate, st.EndDate); err != nil {
			return fmt.Errorf("insert project step: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create project tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (Project, error) {
	var p Project
	err := s.db.QueryRowContext(ctx, `SELECT id, tenant_id, template_id, name, start_date, owner_id, status, progress_percent, description FROM projects WHERE id=$1`, id).
		Scan(&p.ID, &p.TenantID, &p.TemplateID, &p.Name, &p.StartDate, &p.OwnerID, &p.Status, &p.ProgressPercent, &p.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	patch.Apply(&p)
	if _, err := s.db.ExecContext(ctx, `UPDATE projects SET name=$2, start_date=$3, status=$4, progress_percent=$5, description=$6 WHERE id=$1`,
		p.ID, p.Name, p.StartDate, p.Status, p.ProgressPercent, p.Description); err != nil {
		return Project{}, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListProjectSteps(ctx context.Context, projectID string) ([]ProjectStep, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, step_number, name, status, start_date, end_date FROM project_steps WHERE project_id=$1 ORDER BY step_number`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project steps: %w", err)
	}
	defer rows.Close()
	var steps []ProjectStep
	for rows.Next() {
		var st ProjectStep
		if err := rows.Scan(&st.ID, &st.ProjectID, &st.StepNumber, &st.Name, &st.Status, &st.StartDate, &st.EndDate); err != nil {
			return nil, fmt.Errorf("scan project step: %w", err)
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

func (s *PostgresStore) GetProjectStep(ctx context.Context, id string) (ProjectStep, error) {
	var st ProjectStep
	err := s.db.QueryRowContext(ctx, `SELECT id, project_id, step_number, name, status, start_date, end_date FROM project_steps WHERE id=$1`, id).
		Scan(&st.ID, &st.ProjectID, &st.StepNumber, &st.Name, &st.Status, &st.StartDate, &st.EndDate)
	if errors.Is(err, sql.ErrNoRows) {
		return ProjectStep{}, ErrNotFound
	}
	if err != nil {
		return ProjectStep{}, fmt.Errorf("get project step: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) UpdateProjectStep(ctx context.Context, id string, patch StepPatch) (ProjectStep, error) {
	st, err := s.GetProjectStep(ctx, id)
	if err != nil {
		return ProjectStep{}, err
	}
	patch.Apply(&st)
	if _, err := s.db.ExecContext(ctx, `UPDATE project_steps SET status=$2, start_date=$3, end_date=$4 WHERE id=$1`,
		st.ID, st.Status, st.StartDate, st.EndDate); err != nil {
		return ProjectStep{}, fmt.Errorf("update project step: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) CreateFeedback(ctx context.Context, fb Feedback) error {
	tags, err := json.Marshal(fb.AiTags)
	if err != nil {
		return fmt.Errorf("encode ai tags: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO feedback (id, tenant_id, project_id, user_id, feedback_type, message, status, sentiment, sentiment_score, ai_tags, analysis_status, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		fb.ID, fb.TenantID, fb.ProjectID, fb.UserID, fb.FeedbackType, fb.Message, fb.Status, fb.Sentiment, fb.SentimentScore, tags, fb.AnalysisStatus, fb.CreatedAt); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateFeedback(ctx context.Context, id string, patch FeedbackPatch) (Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, tenant_id, project_id, user_id, feedback_type, message, status, sentiment, sentiment_score, ai_tags, analysis_status, created_at FROM feedback WHERE id=$1`, id)
	if err != nil {
		return Feedback{}, fmt.Errorf("get feedback: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Feedback{}, err
		}
		return Feedback{}, ErrNotFound
	}
	fb, err := scanFeedback(rows)
	if err != nil {
		return Feedback{}, err
	}
	rows.Close()

	patch.Apply(&fb)
	tags, err := json.Marshal(fb.AiTags)
	if err != nil {
		return Feedback{}, fmt.Errorf("encode ai tags: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE feedback SET status=$2, sentiment=$3, sentiment_score=$4, ai_tags=$5, analysis_status=$6 WHERE id=$1`,
		fb.ID, fb.Status, fb.Sentiment, fb.SentimentScore, tags, fb.AnalysisStatus); err != nil {
		return Feedback{}, fmt.Errorf("update feedback: %w", err)
	}
	return fb, nil
}

func (s *PostgresStore) CreateLearningProgress(ctx context.Context, lp LearningProgress) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO learning_progress (id, user_id, material_id, completed_at, progress_percent) VALUES ($1,$2,$3,$4,$5)`,
		lp.ID, lp.UserID, lp.MaterialID, lp.CompletedAt, lp.ProgressPercent); err != nil {
		return fmt.Errorf("insert learning progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateLearningProgress(ctx context.Context, id string, patch LearningProgressPatch) (LearningProgress, error) {
	var lp LearningProgress
	err := s.db.QueryRowContext(ctx, `SELECT id, user_id, material_id, completed_at, progress_percent FROM learning_progress WHERE id=$1`, id).
		Scan(&lp.ID, &lp.UserID, &lp.MaterialID, &lp.CompletedAt, &lp.ProgressPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return LearningProgress{}, ErrNotFound
	}
	if err != nil {
		return LearningProgress{}, fmt.Errorf("get learning progress: %w", err)
	}
	patch.Apply(&lp)
	if _, err := s.db.ExecContext(ctx, `UPDATE learning_progress SET completed_at=$2, progress_percent=$3 WHERE id=$1`,
		lp.ID, lp.CompletedAt, lp.ProgressPercent); err != nil {
		return LearningProgress{}, fmt.Errorf("update learning progress: %w", err)
	}
	return lp, nil
}

func (s *PostgresStore) UpsertLessonProgress(ctx context.Context, lp LessonProgress) (LessonProgress, bool, error) {
	var existingID string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM lesson_progress WHERE user_id=$1 AND material_id=$2 AND lesson_id=$3`,
		lp.UserID, lp.MaterialID, lp.LessonID).Scan(&existingID)
	if err == nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE lesson_progress SET completed_at=$2 WHERE id=$1`, existingID, lp.CompletedAt); err != nil {
			return LessonProgress{}, false, fmt.Errorf("update lesson progress: %w", err)
		}
		lp.ID = existingID
		return lp, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return LessonProgress{}, false, fmt.Errorf("lookup lesson progress: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO lesson_progress (id, user_id, material_id, lesson_id, completed_at) VALUES ($1,$2,$3,$4,$5)`,
		lp.ID, lp.UserID, lp.MaterialID, lp.LessonID, lp.CompletedAt); err != nil {
		return LessonProgress{}, false, fmt.Errorf("insert lesson progress: %w", err)
	}
	return lp, true, nil
}

func (s *PostgresStore) UpdateLessonProgress(ctx context.Context, id string, patch LessonProgressPatch) (LessonProgress, error) {
	var lp LessonProgress
	err := s.db.QueryRowContext(ctx, `SELECT id, user_id, material_id, lesson_id, completed_at FROM lesson_progress WHERE id=$1`, id).
		Scan(&lp.ID, &lp.UserID, &lp.MaterialID, &lp.LessonID, &lp.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return LessonProgress{}, ErrNotFound
	}
	if err != nil {
		return LessonProgress{}, fmt.Errorf("get lesson progress: %w", err)
	}
	patch.Apply(&lp)
	if _, err := s.db.ExecContext(ctx, `UPDATE lesson_progress SET completed_at=$2 WHERE id=$1`, lp.ID, lp.CompletedAt); err != nil {
		return LessonProgress{}, fmt.Errorf("update lesson progress: %w", err)
	}
	return lp, nil
}

func (s *PostgresStore) AppendAiMessage(ctx context.Context, msg AiMessage) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO ai_conversations (id, user_id, chat_id, message_role, message_content, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		msg.ID, msg.UserID, msg.ChatID, msg.MessageRole, msg.MessageContent, msg.CreatedAt); err != nil {
		return fmt.Errorf("insert ai message: %w", err)
	}
	return nil
}
