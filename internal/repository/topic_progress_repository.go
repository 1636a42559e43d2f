package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/go-reviser/reviser-api/internal/models"
)

// TopicProgressRepository handles per-user topic study state.
type TopicProgressRepository struct {
	db *sqlx.DB
}

// NewTopicProgressRepository creates a new repository instance.
func NewTopicProgressRepository(db *sqlx.DB) *TopicProgressRepository {
	return &TopicProgressRepository{db: db}
}

const topicProgressColumns = `id, user_id, topic_id, is_completed, to_revise, created_at, updated_at`

// Upsert records the flags of one topic, keyed on (user, topic).
func (r *TopicProgressRepository) Upsert(ctx context.Context, progress *models.UserTopicProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if progress.CreatedAt.IsZero() {
		progress.CreatedAt = now
	}
	progress.UpdatedAt = now

	const query = `
		INSERT INTO user_topic_progress (id, user_id, topic_id, is_completed, to_revise, created_at, updated_at)
		VALUES (:id, :user_id, :topic_id, :is_completed, :to_revise, :created_at, :updated_at)
		ON CONFLICT (user_id, topic_id)
		DO UPDATE SET is_completed = EXCLUDED.is_completed, to_revise = EXCLUDED.to_revise, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert topic progress: %w", err)
	}
	return nil
}

// Find returns the progress record for one (user, topic) pair.
func (r *TopicProgressRepository) Find(ctx context.Context, userID, topicID string) (*models.UserTopicProgress, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_topic_progress WHERE user_id = $1 AND topic_id = $2 LIMIT 1`, topicProgressColumns)
	var progress models.UserTopicProgress
	if err := r.db.GetContext(ctx, &progress, query, userID, topicID); err != nil {
		return nil, err
	}
	return &progress, nil
}

// ListForUser returns every topic progress record of the user.
func (r *TopicProgressRepository) ListForUser(ctx context.Context, userID string) ([]models.UserTopicProgress, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_topic_progress WHERE user_id = $1 ORDER BY updated_at DESC`, topicProgressColumns)
	var progress []models.UserTopicProgress
	if err := r.db.SelectContext(ctx, &progress, query, userID); err != nil {
		return nil, fmt.Errorf("list topic progress: %w", err)
	}
	return progress, nil
}

// FindMany returns the user's progress records for a set of topics.
func (r *TopicProgressRepository) FindMany(ctx context.Context, userID string, topicIDs []string) ([]models.UserTopicProgress, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM user_topic_progress WHERE user_id = ? AND topic_id IN (?)`, topicProgressColumns), userID, topicIDs)
	if err != nil {
		return nil, fmt.Errorf("build topic progress query: %w", err)
	}
	query = r.db.Rebind(query)

	var progress []models.UserTopicProgress
	if err := r.db.SelectContext(ctx, &progress, query, args...); err != nil {
		return nil, fmt.Errorf("list topic progress batch: %w", err)
	}
	return progress, nil
}

// Delete removes the progress record for one topic.
func (r *TopicProgressRepository) Delete(ctx context.Context, userID, topicID string) error {
	const query = `DELETE FROM user_topic_progress WHERE user_id = $1 AND topic_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, topicID); err != nil {
		return fmt.Errorf("delete topic progress: %w", err)
	}
	return nil
}

// topicProgressCounts is the single-row aggregate behind Summary.
type topicProgressCounts struct {
	TotalTopics int `db:"total_topics"`
	Completed   int `db:"completed"`
	ToRevise    int `db:"to_revise"`
}

// Summary aggregates the user's topic flags over the whole syllabus.
func (r *TopicProgressRepository) Summary(ctx context.Context, userID string) (*models.TopicProgressSummary, error) {
	const query = `
		SELECT COUNT(t.id) AS total_topics,
		       COUNT(utp.id) FILTER (WHERE utp.is_completed) AS completed,
		       COUNT(utp.id) FILTER (WHERE utp.to_revise) AS to_revise
		FROM topics t
		LEFT JOIN user_topic_progress utp ON utp.topic_id = t.id AND utp.user_id = $1`
	var counts topicProgressCounts
	if err := r.db.GetContext(ctx, &counts, query, userID); err != nil {
		return nil, fmt.Errorf("topic progress summary: %w", err)
	}

	summary := &models.TopicProgressSummary{
		TotalTopics: counts.TotalTopics,
		Completed:   counts.Completed,
		ToRevise:    counts.ToRevise,
	}
	if counts.TotalTopics > 0 {
		summary.CompletionPercentage = float64(counts.Completed) / float64(counts.TotalTopics) * 100
	}
	return summary, nil
}
