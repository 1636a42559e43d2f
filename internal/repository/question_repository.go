package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/go-reviser/reviser-api/internal/models"
)

// QuestionInsert bundles a question with its resolved tag and branch links
// for batched persistence.
type QuestionInsert struct {
	Question      *models.Question
	TagIDs        []string
	ExamBranchIDs []string
}

// QuestionRepository handles persistence for questions and their links.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository creates a new repository instance.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, question_number, title, content, sub_category_id, sub_category_name, question_category_id, question_category_name, subject_name, year, link, is_active, correct_answer, correct_answers, numerical_min, numerical_max, created_at, updated_at`

// Count returns the total number of questions.
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM questions`); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

// ExistingLinks reports which of the given source links are already stored.
func (r *QuestionRepository) ExistingLinks(ctx context.Context, links []string) (map[string]bool, error) {
	if len(links) == 0 {
		return map[string]bool{}, nil
	}
	query, args, err := sqlx.In(`SELECT link FROM questions WHERE link IN (?)`, links)
	if err != nil {
		return nil, fmt.Errorf("build link query: %w", err)
	}
	query = r.db.Rebind(query)

	var found []string
	if err := r.db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, fmt.Errorf("check existing links: %w", err)
	}

	out := make(map[string]bool, len(found))
	for _, link := range found {
		out[link] = true
	}
	return out, nil
}

// InsertBatch persists a batch of questions with their tag and exam branch
// links and bumps subcategory question counters, all in one transaction.
func (r *QuestionRepository) InsertBatch(ctx context.Context, inserts []QuestionInsert) error {
	if len(inserts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin question batch tx: %w", err)
	}
	defer tx.Rollback()

	const insertQuestion = `INSERT INTO questions (id, question_number, title, content, sub_category_id, sub_category_name, question_category_id, question_category_name, subject_name, year, link, is_active, correct_answer, correct_answers, numerical_min, numerical_max, created_at, updated_at) VALUES (:id, :question_number, :title, :content, :sub_category_id, :sub_category_name, :question_category_id, :question_category_name, :subject_name, :year, :link, :is_active, :correct_answer, :correct_answers, :numerical_min, :numerical_max, :created_at, :updated_at)`
	const insertTagLink = `INSERT INTO question_tag_links (question_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	const insertBranchLink = `INSERT INTO question_exam_branches (question_id, exam_branch_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	counts := make(map[string]int)
	now := time.Now().UTC()

	for _, in := range inserts {
		q := in.Question
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		q.UpdatedAt = now

		if _, err := tx.NamedExecContext(ctx, insertQuestion, q); err != nil {
			return fmt.Errorf("insert question %q: %w", q.Title, err)
		}
		for _, tagID := range in.TagIDs {
			if _, err := tx.ExecContext(ctx, insertTagLink, q.ID, tagID); err != nil {
				return fmt.Errorf("link question tag: %w", err)
			}
		}
		for _, branchID := range in.ExamBranchIDs {
			if _, err := tx.ExecContext(ctx, insertBranchLink, q.ID, branchID); err != nil {
				return fmt.Errorf("link question exam branch: %w", err)
			}
		}
		counts[q.SubCategoryID]++
	}

	const bumpCount = `UPDATE sub_categories SET question_count = question_count + $2, updated_at = $3 WHERE id = $1`
	for subCategoryID, n := range counts {
		if _, err := tx.ExecContext(ctx, bumpCount, subCategoryID, n, now); err != nil {
			return fmt.Errorf("bump subcategory count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit question batch tx: %w", err)
	}
	return nil
}

// List returns questions matching the filter with pagination metadata.
func (r *QuestionRepository) List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error) {
	base := "FROM questions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SubCategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("sub_category_id = $%d", len(args)+1))
		args = append(args, filter.SubCategoryID)
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("question_category_id = $%d", len(args)+1))
		args = append(args, filter.CategoryID)
	}
	if filter.CategoryName != "" {
		conditions = append(conditions, fmt.Sprintf("question_category_name = $%d", len(args)+1))
		args = append(args, filter.CategoryName)
	}
	if filter.SubCategoryName != "" {
		conditions = append(conditions, fmt.Sprintf("sub_category_name = $%d", len(args)+1))
		args = append(args, filter.SubCategoryName)
	}
	if filter.SubjectName != "" {
		conditions = append(conditions, fmt.Sprintf("subject_name = $%d", len(args)+1))
		args = append(args, filter.SubjectName)
	}
	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("id IN (SELECT qtl.question_id FROM question_tag_links qtl JOIN question_tags qt ON qt.id = qtl.tag_id WHERE qt.name = $%d)", len(args)+1))
		args = append(args, filter.Tag)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(content) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	// Default browse order: newest exam year first, then paper order within
	// the year.
	orderBy := "year DESC, question_number ASC"
	if filter.SortBy != "" {
		allowedSorts := map[string]bool{
			"question_number": true,
			"title":           true,
			"year":            true,
			"created_at":      true,
			"updated_at":      true,
		}
		sortBy := filter.SortBy
		if !allowedSorts[sortBy] {
			sortBy = "question_number"
		}
		order := strings.ToUpper(filter.SortOrder)
		if order != "ASC" && order != "DESC" {
			order = "ASC"
		}
		orderBy = sortBy + " " + order
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", questionColumns, base, orderBy, size, offset)
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}

	return questions, total, nil
}

// FindByID returns a question by id.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions WHERE id = $1 LIMIT 1`, questionColumns)
	var question models.Question
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		return nil, err
	}
	return &question, nil
}

// Update modifies a question's mutable fields.
func (r *QuestionRepository) Update(ctx context.Context, question *models.Question) error {
	question.UpdatedAt = time.Now().UTC()
	const query = `UPDATE questions SET title = :title, content = :content, year = :year, is_active = :is_active, correct_answer = :correct_answer, correct_answers = :correct_answers, numerical_min = :numerical_min, numerical_max = :numerical_max, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

// Delete removes a question, its links, and decrements the subcategory
// question counter.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin question delete tx: %w", err)
	}
	defer tx.Rollback()

	var subCategoryID string
	if err := tx.GetContext(ctx, &subCategoryID, `SELECT sub_category_id FROM questions WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("load question for delete: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM question_tag_links WHERE question_id = $1`, id); err != nil {
		return fmt.Errorf("delete question tag links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM question_exam_branches WHERE question_id = $1`, id); err != nil {
		return fmt.Errorf("delete question exam branch links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_question_progress WHERE question_id = $1`, id); err != nil {
		return fmt.Errorf("delete question progress: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}

	const query = `UPDATE sub_categories SET question_count = GREATEST(question_count - 1, 0), updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, subCategoryID, time.Now().UTC()); err != nil {
		return fmt.Errorf("decrement subcategory count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit question delete tx: %w", err)
	}
	return nil
}

// CountsBySubject returns question totals grouped by subject name.
func (r *QuestionRepository) CountsBySubject(ctx context.Context) ([]models.SubjectQuestionCount, error) {
	const query = `
		SELECT s.id AS subject_id, s.name, COUNT(q.id) AS question_count
		FROM subjects s
		LEFT JOIN questions q ON q.subject_name = s.name
		GROUP BY s.id, s.name
		ORDER BY s.name ASC`
	var counts []models.SubjectQuestionCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count questions by subject: %w", err)
	}
	return counts, nil
}

// CountsByCategory returns question totals grouped by category, optionally
// limited to one subject.
func (r *QuestionRepository) CountsByCategory(ctx context.Context, subjectName string) ([]models.CategoryQuestionCount, error) {
	query := `
		SELECT qc.id AS category_id, qc.name, COUNT(q.id) AS question_count
		FROM question_categories qc
		LEFT JOIN questions q ON q.question_category_id = qc.id`
	var args []interface{}
	if subjectName != "" {
		query += `
		JOIN subjects s ON s.id = qc.subject_id AND LOWER(s.name) = LOWER($1)`
		args = append(args, subjectName)
	}
	query += `
		GROUP BY qc.id, qc.name
		ORDER BY qc.name ASC`
	var counts []models.CategoryQuestionCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count questions by category: %w", err)
	}
	return counts, nil
}

// contentRow is the minimal projection used by the renormalization sweep.
type contentRow struct {
	ID      string `db:"id"`
	Content string `db:"content"`
}

// AllContent streams every question's id and content.
func (r *QuestionRepository) AllContent(ctx context.Context) (map[string]string, error) {
	var rows []contentRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, content FROM questions`); err != nil {
		return nil, fmt.Errorf("load question content: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Content
	}
	return out, nil
}

// UpdateContent rewrites the content of the given questions.
func (r *QuestionRepository) UpdateContent(ctx context.Context, contents map[string]string) error {
	if len(contents) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin content update tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for id, content := range contents {
		if _, err := tx.ExecContext(ctx, `UPDATE questions SET content = $2, updated_at = $3 WHERE id = $1`, id, content, now); err != nil {
			return fmt.Errorf("update question content: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit content update tx: %w", err)
	}
	return nil
}
