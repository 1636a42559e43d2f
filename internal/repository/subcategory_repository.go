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

// SubCategoryRepository handles persistence for subcategories and their
// category memberships.
type SubCategoryRepository struct {
	db *sqlx.DB
}

// NewSubCategoryRepository creates a new repository instance.
func NewSubCategoryRepository(db *sqlx.DB) *SubCategoryRepository {
	return &SubCategoryRepository{db: db}
}

// List returns all subcategories ordered by name.
func (r *SubCategoryRepository) List(ctx context.Context) ([]models.SubCategory, error) {
	const query = `SELECT id, name, question_count, created_at, updated_at FROM sub_categories ORDER BY name ASC`
	var subs []models.SubCategory
	if err := r.db.SelectContext(ctx, &subs, query); err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	return subs, nil
}

// ListByCategory returns the subcategories linked to a category.
func (r *SubCategoryRepository) ListByCategory(ctx context.Context, categoryID string) ([]models.SubCategory, error) {
	const query = `
		SELECT sc.id, sc.name, sc.question_count, sc.created_at, sc.updated_at
		FROM sub_categories sc
		JOIN sub_category_categories scc ON scc.sub_category_id = sc.id
		WHERE scc.question_category_id = $1
		ORDER BY sc.name ASC`
	var subs []models.SubCategory
	if err := r.db.SelectContext(ctx, &subs, query, categoryID); err != nil {
		return nil, fmt.Errorf("list subcategories by category: %w", err)
	}
	return subs, nil
}

// FindByID returns a subcategory by id.
func (r *SubCategoryRepository) FindByID(ctx context.Context, id string) (*models.SubCategory, error) {
	const query = `SELECT id, name, question_count, created_at, updated_at FROM sub_categories WHERE id = $1 LIMIT 1`
	var sub models.SubCategory
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByName returns a subcategory by name regardless of category links.
func (r *SubCategoryRepository) FindByName(ctx context.Context, name string) (*models.SubCategory, error) {
	const query = `SELECT id, name, question_count, created_at, updated_at FROM sub_categories WHERE LOWER(name) = LOWER($1) LIMIT 1`
	var sub models.SubCategory
	if err := r.db.GetContext(ctx, &sub, query, name); err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByNameInCategory returns the subcategory with the given name that is
// linked to the category, if any.
func (r *SubCategoryRepository) FindByNameInCategory(ctx context.Context, categoryID, name string) (*models.SubCategory, error) {
	const query = `
		SELECT sc.id, sc.name, sc.question_count, sc.created_at, sc.updated_at
		FROM sub_categories sc
		JOIN sub_category_categories scc ON scc.sub_category_id = sc.id
		WHERE scc.question_category_id = $1 AND LOWER(sc.name) = LOWER($2)
		LIMIT 1`
	var sub models.SubCategory
	if err := r.db.GetContext(ctx, &sub, query, categoryID, name); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CategoryRefs returns the categories a subcategory belongs to.
func (r *SubCategoryRepository) CategoryRefs(ctx context.Context, subCategoryID string) ([]models.CategoryRef, error) {
	const query = `
		SELECT qc.id, qc.name
		FROM question_categories qc
		JOIN sub_category_categories scc ON scc.question_category_id = qc.id
		WHERE scc.sub_category_id = $1
		ORDER BY qc.name ASC`
	var refs []models.CategoryRef
	if err := r.db.SelectContext(ctx, &refs, query, subCategoryID); err != nil {
		return nil, fmt.Errorf("list subcategory categories: %w", err)
	}
	return refs, nil
}

// Create persists a new subcategory and links it to the given categories.
func (r *SubCategoryRepository) Create(ctx context.Context, sub *models.SubCategory, categoryIDs []string) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subcategory tx: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO sub_categories (id, name, question_count, created_at, updated_at) VALUES (:id, :name, :question_count, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, sub); err != nil {
		return fmt.Errorf("create subcategory: %w", err)
	}

	const link = `INSERT INTO sub_category_categories (sub_category_id, question_category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for _, categoryID := range categoryIDs {
		if _, err := tx.ExecContext(ctx, link, sub.ID, categoryID); err != nil {
			return fmt.Errorf("link subcategory to category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subcategory tx: %w", err)
	}
	return nil
}

// AttachCategory links an existing subcategory to an additional category.
func (r *SubCategoryRepository) AttachCategory(ctx context.Context, subCategoryID, categoryID string) error {
	const query = `INSERT INTO sub_category_categories (sub_category_id, question_category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, subCategoryID, categoryID); err != nil {
		return fmt.Errorf("attach subcategory category: %w", err)
	}
	return nil
}

// Update modifies a subcategory's name.
func (r *SubCategoryRepository) Update(ctx context.Context, sub *models.SubCategory) error {
	sub.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sub_categories SET name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("update subcategory: %w", err)
	}
	return nil
}

// Delete removes a subcategory and its category links.
func (r *SubCategoryRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subcategory delete tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sub_category_categories WHERE sub_category_id = $1`, id); err != nil {
		return fmt.Errorf("delete subcategory links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sub_categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subcategory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subcategory delete tx: %w", err)
	}
	return nil
}

// CountQuestions returns the number of questions attached to a subcategory.
func (r *SubCategoryRepository) CountQuestions(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM questions WHERE sub_category_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count subcategory questions: %w", err)
	}
	return count, nil
}

// ExistsByNameInCategory checks whether any of the categories already carries
// a subcategory with the given name.
func (r *SubCategoryRepository) ExistsByNameInCategory(ctx context.Context, categoryID, name string) (bool, error) {
	const query = `
		SELECT 1
		FROM sub_categories sc
		JOIN sub_category_categories scc ON scc.sub_category_id = sc.id
		WHERE scc.question_category_id = $1 AND LOWER(sc.name) = LOWER($2)
		LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, categoryID, name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subcategory name: %w", err)
	}
	return true, nil
}
