package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/go-reviser/reviser-api/internal/models"
)

// CategoryRepository handles persistence for question categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new repository instance.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all question categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]models.QuestionCategory, error) {
	const query = `SELECT id, name, subject_id, created_at, updated_at FROM question_categories ORDER BY name ASC`
	var categories []models.QuestionCategory
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list question categories: %w", err)
	}
	return categories, nil
}

// ListBySubject returns the categories attached to a subject.
func (r *CategoryRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.QuestionCategory, error) {
	const query = `SELECT id, name, subject_id, created_at, updated_at FROM question_categories WHERE subject_id = $1 ORDER BY name ASC`
	var categories []models.QuestionCategory
	if err := r.db.SelectContext(ctx, &categories, query, subjectID); err != nil {
		return nil, fmt.Errorf("list categories by subject: %w", err)
	}
	return categories, nil
}

// FindByID returns a category by id.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.QuestionCategory, error) {
	const query = `SELECT id, name, subject_id, created_at, updated_at FROM question_categories WHERE id = $1 LIMIT 1`
	var category models.QuestionCategory
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByName returns a category by its normalized name.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*models.QuestionCategory, error) {
	const query = `SELECT id, name, subject_id, created_at, updated_at FROM question_categories WHERE name = $1 LIMIT 1`
	var category models.QuestionCategory
	if err := r.db.GetContext(ctx, &category, query, name); err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByNames resolves a batch of normalized names in one query.
func (r *CategoryRepository) FindByNames(ctx context.Context, names []string) ([]models.QuestionCategory, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, subject_id, created_at, updated_at FROM question_categories WHERE name IN (?)`, names)
	if err != nil {
		return nil, fmt.Errorf("build category name query: %w", err)
	}
	query = r.db.Rebind(query)

	var categories []models.QuestionCategory
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("find categories by names: %w", err)
	}
	return categories, nil
}

// ExistsByName checks uniqueness of a category name.
func (r *CategoryRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM question_categories WHERE name = $1"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check category name: %w", err)
	}
	return true, nil
}

// Create persists a new question category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.QuestionCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now

	const query = `INSERT INTO question_categories (id, name, subject_id, created_at, updated_at) VALUES (:id, :name, :subject_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create question category: %w", err)
	}
	return nil
}

// Update modifies a question category.
func (r *CategoryRepository) Update(ctx context.Context, category *models.QuestionCategory) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE question_categories SET name = :name, subject_id = :subject_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("update question category: %w", err)
	}
	return nil
}

// Delete removes a question category.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM question_categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete question category: %w", err)
	}
	return nil
}

// CountQuestions returns the number of questions in a category.
func (r *CategoryRepository) CountQuestions(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM questions WHERE question_category_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count category questions: %w", err)
	}
	return count, nil
}
