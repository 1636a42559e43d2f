package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/go-reviser/reviser-api/internal/models"
)

// TagRepository handles persistence for question tags and their question
// links.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository creates a new repository instance.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// List returns tags matching the filter with pagination metadata.
func (r *TagRepository) List(ctx context.Context, filter models.TagFilter) ([]models.QuestionTag, int, error) {
	base := "FROM question_tags WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf("SELECT id, name, is_active, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", base, pageSize, offset)
	var tags []models.QuestionTag
	if err := r.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tags: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tags: %w", err)
	}

	return tags, total, nil
}

// FindByID returns a tag by id.
func (r *TagRepository) FindByID(ctx context.Context, id string) (*models.QuestionTag, error) {
	const query = `SELECT id, name, is_active, created_at, updated_at FROM question_tags WHERE id = $1 LIMIT 1`
	var tag models.QuestionTag
	if err := r.db.GetContext(ctx, &tag, query, id); err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindByNames resolves a batch of tag names in one query.
func (r *TagRepository) FindByNames(ctx context.Context, names []string) ([]models.QuestionTag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, is_active, created_at, updated_at FROM question_tags WHERE name IN (?)`, names)
	if err != nil {
		return nil, fmt.Errorf("build tag name query: %w", err)
	}
	query = r.db.Rebind(query)

	var tags []models.QuestionTag
	if err := r.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, fmt.Errorf("find tags by names: %w", err)
	}
	return tags, nil
}

// CreateMany mints new active tags for the given names.
func (r *TagRepository) CreateMany(ctx context.Context, names []string) ([]models.QuestionTag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	tags := make([]models.QuestionTag, 0, len(names))
	for _, name := range names {
		tags = append(tags, models.QuestionTag{
			ID:        uuid.NewString(),
			Name:      name,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	const query = `INSERT INTO question_tags (id, name, is_active, created_at, updated_at) VALUES (:id, :name, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tags); err != nil {
		return nil, fmt.Errorf("create tags: %w", err)
	}
	return tags, nil
}

// Create persists a single tag.
func (r *TagRepository) Create(ctx context.Context, tag *models.QuestionTag) error {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = now
	}
	tag.UpdatedAt = now

	const query = `INSERT INTO question_tags (id, name, is_active, created_at, updated_at) VALUES (:id, :name, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tag); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// Update modifies a tag's name or active flag.
func (r *TagRepository) Update(ctx context.Context, tag *models.QuestionTag) error {
	tag.UpdatedAt = time.Now().UTC()
	const query = `UPDATE question_tags SET name = :name, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, tag); err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return nil
}

// Delete removes a tag and its question links.
func (r *TagRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tag delete tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM question_tag_links WHERE tag_id = $1`, id); err != nil {
		return fmt.Errorf("delete tag links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM question_tags WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tag delete tx: %w", err)
	}
	return nil
}

// NamesForQuestion returns a question's tag names.
func (r *TagRepository) NamesForQuestion(ctx context.Context, questionID string) ([]string, error) {
	const query = `
		SELECT qt.name
		FROM question_tags qt
		JOIN question_tag_links qtl ON qtl.tag_id = qt.id
		WHERE qtl.question_id = $1
		ORDER BY qt.name ASC`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, questionID); err != nil {
		return nil, fmt.Errorf("tag names for question: %w", err)
	}
	return names, nil
}

// tagLinkRow joins a question to a tag name, used for batch resolution.
type tagLinkRow struct {
	QuestionID string `db:"question_id"`
	Name       string `db:"name"`
}

// NamesForQuestions returns tag names grouped by question id.
func (r *TagRepository) NamesForQuestions(ctx context.Context, questionIDs []string) (map[string][]string, error) {
	if len(questionIDs) == 0 {
		return map[string][]string{}, nil
	}
	query, args, err := sqlx.In(`
		SELECT qtl.question_id, qt.name
		FROM question_tags qt
		JOIN question_tag_links qtl ON qtl.tag_id = qt.id
		WHERE qtl.question_id IN (?)
		ORDER BY qt.name ASC`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("build tag link query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []tagLinkRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("tag names for questions: %w", err)
	}

	out := make(map[string][]string, len(questionIDs))
	for _, row := range rows {
		out[row.QuestionID] = append(out[row.QuestionID], row.Name)
	}
	return out, nil
}
