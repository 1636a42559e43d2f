package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/go-reviser/reviser-api/internal/models"
)

// QuestionProgressRepository handles per-user question attempt state.
type QuestionProgressRepository struct {
	db *sqlx.DB
}

// NewQuestionProgressRepository creates a new repository instance.
func NewQuestionProgressRepository(db *sqlx.DB) *QuestionProgressRepository {
	return &QuestionProgressRepository{db: db}
}

const questionProgressColumns = `id, user_id, question_id, time_spent, is_completed, to_revise, remarks, attempted_at, created_at, updated_at`

// Upsert records attempt state for one question, keyed on (user, question).
func (r *QuestionProgressRepository) Upsert(ctx context.Context, progress *models.UserQuestionProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if progress.CreatedAt.IsZero() {
		progress.CreatedAt = now
	}
	if progress.AttemptedAt.IsZero() {
		progress.AttemptedAt = now
	}
	progress.UpdatedAt = now

	const query = `
		INSERT INTO user_question_progress (id, user_id, question_id, time_spent, is_completed, to_revise, remarks, attempted_at, created_at, updated_at)
		VALUES (:id, :user_id, :question_id, :time_spent, :is_completed, :to_revise, :remarks, :attempted_at, :created_at, :updated_at)
		ON CONFLICT (user_id, question_id)
		DO UPDATE SET time_spent = EXCLUDED.time_spent, is_completed = EXCLUDED.is_completed, to_revise = EXCLUDED.to_revise, remarks = EXCLUDED.remarks, attempted_at = EXCLUDED.attempted_at, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert question progress: %w", err)
	}
	return nil
}

// Find returns the progress record for one (user, question) pair.
func (r *QuestionProgressRepository) Find(ctx context.Context, userID, questionID string) (*models.UserQuestionProgress, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_question_progress WHERE user_id = $1 AND question_id = $2 LIMIT 1`, questionProgressColumns)
	var progress models.UserQuestionProgress
	if err := r.db.GetContext(ctx, &progress, query, userID, questionID); err != nil {
		return nil, err
	}
	return &progress, nil
}

// ListForUser returns every progress record of the user.
func (r *QuestionProgressRepository) ListForUser(ctx context.Context, userID string) ([]models.UserQuestionProgress, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_question_progress WHERE user_id = $1 ORDER BY attempted_at DESC`, questionProgressColumns)
	var progress []models.UserQuestionProgress
	if err := r.db.SelectContext(ctx, &progress, query, userID); err != nil {
		return nil, fmt.Errorf("list question progress: %w", err)
	}
	return progress, nil
}

// FindMany returns the user's progress records for a set of questions.
func (r *QuestionProgressRepository) FindMany(ctx context.Context, userID string, questionIDs []string) ([]models.UserQuestionProgress, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM user_question_progress WHERE user_id = ? AND question_id IN (?)`, questionProgressColumns), userID, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("build question progress query: %w", err)
	}
	query = r.db.Rebind(query)

	var progress []models.UserQuestionProgress
	if err := r.db.SelectContext(ctx, &progress, query, args...); err != nil {
		return nil, fmt.Errorf("list question progress batch: %w", err)
	}
	return progress, nil
}

// SummaryByCategory aggregates the user's question attempts per category over
// active questions.
func (r *QuestionProgressRepository) SummaryByCategory(ctx context.Context, userID string) ([]models.CategoryProgressStats, error) {
	const query = `
		SELECT q.question_category_id AS category_id,
		       q.question_category_name AS category_name,
		       COUNT(q.id) AS total,
		       COUNT(uqp.id) FILTER (WHERE uqp.is_completed) AS completed,
		       COUNT(uqp.id) FILTER (WHERE uqp.to_revise) AS to_revise
		FROM questions q
		LEFT JOIN user_question_progress uqp ON uqp.question_id = q.id AND uqp.user_id = $1
		WHERE q.is_active = TRUE
		GROUP BY q.question_category_id, q.question_category_name
		ORDER BY q.question_category_name ASC`
	var stats []models.CategoryProgressStats
	if err := r.db.SelectContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("question progress summary: %w", err)
	}
	return stats, nil
}
