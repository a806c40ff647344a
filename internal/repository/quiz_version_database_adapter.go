package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/repository/models"
	"quiz-forge/internal/util"

	"github.com/jmoiron/sqlx"
)

const versionColumns = `id, topic_key, difficulty, outcome, status, created_at, updated_at, retired_at`

const questionColumns = `id, version_id, position, title, option_a, option_b, option_c, option_d,
		correct_label, explanation, difficulty_level, placeholder, created_at, deleted_at`

// QuizVersionDatabaseAdapter implements domain.QuizVersionRepository using sqlx.DB
type QuizVersionDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizVersionDatabaseAdapter creates a new instance of QuizVersionDatabaseAdapter
func NewQuizVersionDatabaseAdapter(db *sqlx.DB) domain.QuizVersionRepository {
	return &QuizVersionDatabaseAdapter{db: db}
}

// SaveVersion implements domain.QuizVersionRepository
func (a *QuizVersionDatabaseAdapter) SaveVersion(ctx context.Context, version *domain.QuizVersion) error {
	if version == nil {
		return fmt.Errorf("cannot save nil quiz version")
	}
	exec := GetExecutor(ctx, a.db)

	now := time.Now()
	modelVersion := toModelQuizVersion(version)
	modelVersion.ID = util.NewULID()
	modelVersion.CreatedAt = now
	modelVersion.UpdatedAt = now

	query := `INSERT INTO quiz_versions (
		id, topic_key, difficulty, outcome, status, created_at, updated_at, retired_at
	) VALUES (
		:1, :2, :3, :4, :5, :6, :7, :8
	)`
	_, err := exec.ExecContext(ctx, query,
		modelVersion.ID,
		modelVersion.TopicKey,
		modelVersion.Difficulty,
		modelVersion.Outcome,
		modelVersion.Status,
		modelVersion.CreatedAt,
		modelVersion.UpdatedAt,
		modelVersion.RetiredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save quiz version: %w", err)
	}

	// Questions of a retired version are stored hidden.
	var hiddenAt sql.NullTime
	if modelVersion.Status == string(domain.StatusRetired) {
		hiddenAt = sql.NullTime{Time: now, Valid: true}
		if modelVersion.RetiredAt.Valid {
			hiddenAt.Time = modelVersion.RetiredAt.Time
		}
	}

	questionQuery := `INSERT INTO quiz_version_questions (
		id, version_id, position, title, option_a, option_b, option_c, option_d,
		correct_label, explanation, difficulty_level, placeholder, created_at, deleted_at
	) VALUES (
		:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12, :13, :14
	)`
	for i, q := range version.Questions {
		mq := toModelQuestion(q, modelVersion.ID, i)
		mq.CreatedAt = now
		mq.DeletedAt = hiddenAt
		_, err := exec.ExecContext(ctx, questionQuery,
			mq.ID,
			mq.VersionID,
			mq.Position,
			mq.Title,
			mq.OptionA,
			mq.OptionB,
			mq.OptionC,
			mq.OptionD,
			mq.CorrectLabel,
			mq.Explanation,
			mq.DifficultyLevel,
			mq.Placeholder,
			mq.CreatedAt,
			mq.DeletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save question %d of quiz version %s: %w", i, modelVersion.ID, err)
		}
	}

	version.ID = modelVersion.ID
	version.CreatedAt = modelVersion.CreatedAt
	version.UpdatedAt = modelVersion.UpdatedAt
	return nil
}

// GetVersionByID implements domain.QuizVersionRepository
func (a *QuizVersionDatabaseAdapter) GetVersionByID(ctx context.Context, id string) (*domain.QuizVersion, error) {
	exec := GetExecutor(ctx, a.db)

	var modelVersion models.QuizVersion
	query := `SELECT ` + versionColumns + ` FROM quiz_versions WHERE id = :1`
	if err := exec.GetContext(ctx, &modelVersion, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz version by ID %s: %w", id, err)
	}

	var questions []models.QuizVersionQuestion
	questionQuery := `SELECT ` + questionColumns + ` FROM quiz_version_questions
	WHERE version_id = :1
	ORDER BY position`
	if err := exec.SelectContext(ctx, &questions, questionQuery, id); err != nil {
		return nil, fmt.Errorf("failed to get questions for quiz version %s: %w", id, err)
	}

	return toDomainQuizVersion(&modelVersion, questions), nil
}

// GetLiveVersion implements domain.QuizVersionRepository
func (a *QuizVersionDatabaseAdapter) GetLiveVersion(ctx context.Context, topicKey string) (*domain.QuizVersion, error) {
	exec := GetExecutor(ctx, a.db)

	var modelVersion models.QuizVersion
	query := `SELECT ` + versionColumns + ` FROM quiz_versions
	WHERE topic_key = :1
	AND status = :2
	ORDER BY created_at DESC
	FETCH FIRST 1 ROWS ONLY`
	if err := exec.GetContext(ctx, &modelVersion, query, topicKey, string(domain.StatusLive)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get live quiz version for %s: %w", topicKey, err)
	}

	var questions []models.QuizVersionQuestion
	questionQuery := `SELECT ` + questionColumns + ` FROM quiz_version_questions
	WHERE version_id = :1
	AND deleted_at IS NULL
	ORDER BY position`
	if err := exec.SelectContext(ctx, &questions, questionQuery, modelVersion.ID); err != nil {
		return nil, fmt.Errorf("failed to get questions for quiz version %s: %w", modelVersion.ID, err)
	}

	return toDomainQuizVersion(&modelVersion, questions), nil
}

// ListVersionsByStatus implements domain.QuizVersionRepository
func (a *QuizVersionDatabaseAdapter) ListVersionsByStatus(ctx context.Context, topicKey string, status domain.VersionStatus) ([]*domain.QuizVersion, error) {
	exec := GetExecutor(ctx, a.db)

	var (
		rows []models.QuizVersion
		err  error
	)
	if topicKey == "" {
		query := `SELECT ` + versionColumns + ` FROM quiz_versions
		WHERE status = :1
		ORDER BY updated_at DESC`
		err = exec.SelectContext(ctx, &rows, query, string(status))
	} else {
		query := `SELECT ` + versionColumns + ` FROM quiz_versions
		WHERE topic_key = :1
		AND status = :2
		ORDER BY updated_at DESC`
		err = exec.SelectContext(ctx, &rows, query, topicKey, string(status))
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*domain.QuizVersion{}, nil
		}
		return nil, fmt.Errorf("failed to list %s quiz versions: %w", status, err)
	}

	versions := make([]*domain.QuizVersion, len(rows))
	for i := range rows {
		versions[i] = toDomainQuizVersion(&rows[i], nil)
	}
	return versions, nil
}

// MarkLive implements domain.QuizVersionRepository
func (a *QuizVersionDatabaseAdapter) MarkLive(ctx context.Context, id string, at time.Time) error {
	exec := GetExecutor(ctx, a.db)

	query := `UPDATE quiz_versions SET
		status = :1,
		retired_at = NULL,
		updated_at = :2
	WHERE id = :3`
	if _, err := exec.ExecContext(ctx, query, string(domain.StatusLive), at, id); err != nil {
		return fmt.Errorf("failed to mark quiz version %s live: %w", id, err)
	}

	unhide := `UPDATE quiz_version_questions SET deleted_at = NULL WHERE version_id = :1`
	if _, err := exec.ExecContext(ctx, unhide, id); err != nil {
		return fmt.Errorf("failed to unhide questions of quiz version %s: %w", id, err)
	}
	return nil
}

// RetireVersion implements domain.QuizVersionRepository
func (a *QuizVersionDatabaseAdapter) RetireVersion(ctx context.Context, id string, at time.Time) error {
	exec := GetExecutor(ctx, a.db)

	query := `UPDATE quiz_versions SET
		status = :1,
		retired_at = :2,
		updated_at = :3
	WHERE id = :4
	AND status = :5`
	if _, err := exec.ExecContext(ctx, query, string(domain.StatusRetired), at, at, id, string(domain.StatusLive)); err != nil {
		return fmt.Errorf("failed to retire quiz version %s: %w", id, err)
	}

	hide := `UPDATE quiz_version_questions SET deleted_at = :1 WHERE version_id = :2 AND deleted_at IS NULL`
	if _, err := exec.ExecContext(ctx, hide, at, id); err != nil {
		return fmt.Errorf("failed to hide questions of quiz version %s: %w", id, err)
	}
	return nil
}

// LockTopic implements domain.QuizVersionRepository. Only meaningful inside a transaction.
func (a *QuizVersionDatabaseAdapter) LockTopic(ctx context.Context, topicKey string) error {
	exec := GetExecutor(ctx, a.db)

	var ids []string
	query := `SELECT id FROM quiz_versions WHERE topic_key = :1 FOR UPDATE`
	if err := exec.SelectContext(ctx, &ids, query, topicKey); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to lock versions of %s: %w", topicKey, err)
	}
	return nil
}

// RetireOthers implements domain.QuizVersionRepository
func (a *QuizVersionDatabaseAdapter) RetireOthers(ctx context.Context, topicKey string, keepID string, at time.Time) (int64, error) {
	exec := GetExecutor(ctx, a.db)

	hide := `UPDATE quiz_version_questions SET deleted_at = :1
	WHERE deleted_at IS NULL
	AND version_id IN (
		SELECT id FROM quiz_versions WHERE topic_key = :2 AND status = :3 AND id <> :4
	)`
	if _, err := exec.ExecContext(ctx, hide, at, topicKey, string(domain.StatusLive), keepID); err != nil {
		return 0, fmt.Errorf("failed to hide questions of superseded versions for %s: %w", topicKey, err)
	}

	query := `UPDATE quiz_versions SET
		status = :1,
		retired_at = :2,
		updated_at = :3
	WHERE topic_key = :4
	AND status = :5
	AND id <> :6`
	result, err := exec.ExecContext(ctx, query,
		string(domain.StatusRetired), at, at, topicKey, string(domain.StatusLive), keepID)
	if err != nil {
		return 0, fmt.Errorf("failed to retire superseded versions for %s: %w", topicKey, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// Ping implements domain.QuizVersionRepository
func (a *QuizVersionDatabaseAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func toModelQuizVersion(v *domain.QuizVersion) *models.QuizVersion {
	return &models.QuizVersion{
		ID:         v.ID,
		TopicKey:   v.TopicKey,
		Difficulty: v.Difficulty.String(),
		Outcome:    string(v.Outcome),
		Status:     string(v.Status),
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
		RetiredAt:  util.TimePtrToNullTime(v.RetiredAt),
	}
}

func toModelQuestion(q domain.Question, versionID string, position int) *models.QuizVersionQuestion {
	placeholder := 0
	if q.Placeholder {
		placeholder = 1
	}
	return &models.QuizVersionQuestion{
		ID:              util.NewULID(),
		VersionID:       versionID,
		Position:        position,
		Title:           q.Title,
		OptionA:         q.OptionText(domain.LabelA),
		OptionB:         q.OptionText(domain.LabelB),
		OptionC:         q.OptionText(domain.LabelC),
		OptionD:         q.OptionText(domain.LabelD),
		CorrectLabel:    string(q.CorrectLabel),
		Explanation:     util.StringToNullString(q.Explanation),
		DifficultyLevel: q.DifficultyLevel,
		Placeholder:     placeholder,
	}
}

func toDomainQuizVersion(m *models.QuizVersion, questions []models.QuizVersionQuestion) *domain.QuizVersion {
	v := &domain.QuizVersion{
		ID:         m.ID,
		TopicKey:   m.TopicKey,
		Difficulty: domain.Difficulty(m.Difficulty),
		Outcome:    domain.GenerationOutcome(m.Outcome),
		Status:     domain.VersionStatus(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		RetiredAt:  util.NullTimeToPtr(m.RetiredAt),
	}
	if len(questions) > 0 {
		v.Questions = make([]domain.Question, len(questions))
		for i := range questions {
			v.Questions[i] = toDomainQuestion(&questions[i])
		}
	}
	return v
}

func toDomainQuestion(m *models.QuizVersionQuestion) domain.Question {
	q := domain.NewQuestion(
		m.Title,
		[4]string{m.OptionA, m.OptionB, m.OptionC, m.OptionD},
		domain.Label(m.CorrectLabel),
		m.Explanation.String,
		m.DifficultyLevel,
	)
	q.Placeholder = m.Placeholder != 0
	return q
}
