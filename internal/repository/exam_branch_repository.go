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

// ExamBranchRepository handles persistence for exam branches.
type ExamBranchRepository struct {
	db *sqlx.DB
}

// NewExamBranchRepository creates a new repository instance.
func NewExamBranchRepository(db *sqlx.DB) *ExamBranchRepository {
	return &ExamBranchRepository{db: db}
}

// List returns all exam branches ordered by name.
func (r *ExamBranchRepository) List(ctx context.Context, activeOnly bool) ([]models.ExamBranch, error) {
	query := `SELECT id, name, description, exam_tag_names, is_active, created_at, updated_at FROM exam_branches`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	var branches []models.ExamBranch
	if err := r.db.SelectContext(ctx, &branches, query); err != nil {
		return nil, fmt.Errorf("list exam branches: %w", err)
	}
	return branches, nil
}

// FindByID returns an exam branch by id.
func (r *ExamBranchRepository) FindByID(ctx context.Context, id string) (*models.ExamBranch, error) {
	const query = `SELECT id, name, description, exam_tag_names, is_active, created_at, updated_at FROM exam_branches WHERE id = $1 LIMIT 1`
	var branch models.ExamBranch
	if err := r.db.GetContext(ctx, &branch, query, id); err != nil {
		return nil, err
	}
	return &branch, nil
}

// FindByNames resolves a batch of branch names in one query.
func (r *ExamBranchRepository) FindByNames(ctx context.Context, names []string) ([]models.ExamBranch, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, description, exam_tag_names, is_active, created_at, updated_at FROM exam_branches WHERE name IN (?)`, names)
	if err != nil {
		return nil, fmt.Errorf("build exam branch query: %w", err)
	}
	query = r.db.Rebind(query)

	var branches []models.ExamBranch
	if err := r.db.SelectContext(ctx, &branches, query, args...); err != nil {
		return nil, fmt.Errorf("find exam branches by names: %w", err)
	}
	return branches, nil
}

// branchLinkRow joins a question to a branch name, used for batch resolution.
type branchLinkRow struct {
	QuestionID string `db:"question_id"`
	Name       string `db:"name"`
}

// NamesForQuestions returns exam branch names grouped by question id.
func (r *ExamBranchRepository) NamesForQuestions(ctx context.Context, questionIDs []string) (map[string][]string, error) {
	if len(questionIDs) == 0 {
		return map[string][]string{}, nil
	}
	query, args, err := sqlx.In(`
		SELECT qeb.question_id, eb.name
		FROM exam_branches eb
		JOIN question_exam_branches qeb ON qeb.exam_branch_id = eb.id
		WHERE qeb.question_id IN (?)
		ORDER BY eb.name ASC`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("build branch link query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []branchLinkRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("branch names for questions: %w", err)
	}

	out := make(map[string][]string, len(questionIDs))
	for _, row := range rows {
		out[row.QuestionID] = append(out[row.QuestionID], row.Name)
	}
	return out, nil
}

// ExistsByName checks uniqueness of a branch name.
func (r *ExamBranchRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM exam_branches WHERE LOWER(name) = LOWER($1)"
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
		return false, fmt.Errorf("check exam branch name: %w", err)
	}
	return true, nil
}

// Create persists a new exam branch.
func (r *ExamBranchRepository) Create(ctx context.Context, branch *models.ExamBranch) error {
	if branch.ID == "" {
		branch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if branch.CreatedAt.IsZero() {
		branch.CreatedAt = now
	}
	branch.UpdatedAt = now

	const query = `INSERT INTO exam_branches (id, name, description, exam_tag_names, is_active, created_at, updated_at) VALUES (:id, :name, :description, :exam_tag_names, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, branch); err != nil {
		return fmt.Errorf("create exam branch: %w", err)
	}
	return nil
}

// Update modifies an exam branch.
func (r *ExamBranchRepository) Update(ctx context.Context, branch *models.ExamBranch) error {
	branch.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_branches SET name = :name, description = :description, exam_tag_names = :exam_tag_names, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, branch); err != nil {
		return fmt.Errorf("update exam branch: %w", err)
	}
	return nil
}

// Delete removes an exam branch and its question links.
func (r *ExamBranchRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exam branch delete tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM question_exam_branches WHERE exam_branch_id = $1`, id); err != nil {
		return fmt.Errorf("delete exam branch links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM exam_branches WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exam branch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit exam branch delete tx: %w", err)
	}
	return nil
}
