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

// SyllabusRepository handles persistence for subjects, modules and topics.
type SyllabusRepository struct {
	db *sqlx.DB
}

// NewSyllabusRepository creates a new repository instance.
func NewSyllabusRepository(db *sqlx.DB) *SyllabusRepository {
	return &SyllabusRepository{db: db}
}

// ListSubjects returns all subjects ordered by name.
func (r *SyllabusRepository) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name, created_at, updated_at FROM subjects ORDER BY name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindSubjectByID returns a subject by id.
func (r *SyllabusRepository) FindSubjectByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, created_at, updated_at FROM subjects WHERE id = $1 LIMIT 1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindSubjectByName returns a subject by exact name.
func (r *SyllabusRepository) FindSubjectByName(ctx context.Context, name string) (*models.Subject, error) {
	const query = `SELECT id, name, created_at, updated_at FROM subjects WHERE name = $1 LIMIT 1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, name); err != nil {
		return nil, err
	}
	return &subject, nil
}

// SubjectExistsByName checks uniqueness of a subject name.
func (r *SyllabusRepository) SubjectExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM subjects WHERE LOWER(name) = LOWER($1)"
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
		return false, fmt.Errorf("check subject name: %w", err)
	}
	return true, nil
}

// CreateSubject persists a new subject.
func (r *SyllabusRepository) CreateSubject(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now

	const query = `INSERT INTO subjects (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// UpdateSubject modifies a subject.
func (r *SyllabusRepository) UpdateSubject(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// DeleteSubject removes a subject record.
func (r *SyllabusRepository) DeleteSubject(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

// CountSubjectModules returns the number of modules under a subject.
func (r *SyllabusRepository) CountSubjectModules(ctx context.Context, subjectID string) (int, error) {
	const query = `SELECT COUNT(*) FROM modules WHERE subject_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, subjectID); err != nil {
		return 0, fmt.Errorf("count subject modules: %w", err)
	}
	return count, nil
}

// ListModules returns the modules of a subject ordered by name.
func (r *SyllabusRepository) ListModules(ctx context.Context, subjectID string) ([]models.Module, error) {
	const query = `SELECT id, subject_id, name, created_at, updated_at FROM modules WHERE subject_id = $1 ORDER BY name ASC`
	var mods []models.Module
	if err := r.db.SelectContext(ctx, &mods, query, subjectID); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return mods, nil
}

// FindModuleByID returns a module by id.
func (r *SyllabusRepository) FindModuleByID(ctx context.Context, id string) (*models.Module, error) {
	const query = `SELECT id, subject_id, name, created_at, updated_at FROM modules WHERE id = $1 LIMIT 1`
	var mod models.Module
	if err := r.db.GetContext(ctx, &mod, query, id); err != nil {
		return nil, err
	}
	return &mod, nil
}

// ModuleExistsByName checks module name uniqueness within a subject.
func (r *SyllabusRepository) ModuleExistsByName(ctx context.Context, subjectID, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM modules WHERE subject_id = $1 AND LOWER(name) = LOWER($2)"
	args := []interface{}{subjectID, name}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check module name: %w", err)
	}
	return true, nil
}

// CreateModule persists a new module.
func (r *SyllabusRepository) CreateModule(ctx context.Context, mod *models.Module) error {
	if mod.ID == "" {
		mod.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mod.CreatedAt.IsZero() {
		mod.CreatedAt = now
	}
	mod.UpdatedAt = now

	const query = `INSERT INTO modules (id, subject_id, name, created_at, updated_at) VALUES (:id, :subject_id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mod); err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	return nil
}

// UpdateModule modifies a module.
func (r *SyllabusRepository) UpdateModule(ctx context.Context, mod *models.Module) error {
	mod.UpdatedAt = time.Now().UTC()
	const query = `UPDATE modules SET name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, mod); err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	return nil
}

// DeleteModule removes a module record.
func (r *SyllabusRepository) DeleteModule(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM modules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}

// CountModuleTopics returns the number of topics under a module.
func (r *SyllabusRepository) CountModuleTopics(ctx context.Context, moduleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM topics WHERE module_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, moduleID); err != nil {
		return 0, fmt.Errorf("count module topics: %w", err)
	}
	return count, nil
}

// ListTopics returns the topics of a module ordered by name.
func (r *SyllabusRepository) ListTopics(ctx context.Context, moduleID string) ([]models.Topic, error) {
	const query = `SELECT id, module_id, name, length, difficulty, created_at, updated_at FROM topics WHERE module_id = $1 ORDER BY name ASC`
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, query, moduleID); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// FindTopicByID returns a topic by id.
func (r *SyllabusRepository) FindTopicByID(ctx context.Context, id string) (*models.Topic, error) {
	const query = `SELECT id, module_id, name, length, difficulty, created_at, updated_at FROM topics WHERE id = $1 LIMIT 1`
	var topic models.Topic
	if err := r.db.GetContext(ctx, &topic, query, id); err != nil {
		return nil, err
	}
	return &topic, nil
}

// TopicExistsByName checks topic name uniqueness within a module.
func (r *SyllabusRepository) TopicExistsByName(ctx context.Context, moduleID, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM topics WHERE module_id = $1 AND LOWER(name) = LOWER($2)"
	args := []interface{}{moduleID, name}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check topic name: %w", err)
	}
	return true, nil
}

// CreateTopic persists a new topic.
func (r *SyllabusRepository) CreateTopic(ctx context.Context, topic *models.Topic) error {
	if topic.ID == "" {
		topic.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = now
	}
	topic.UpdatedAt = now

	const query = `INSERT INTO topics (id, module_id, name, length, difficulty, created_at, updated_at) VALUES (:id, :module_id, :name, :length, :difficulty, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, topic); err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	return nil
}

// UpdateTopic modifies a topic.
func (r *SyllabusRepository) UpdateTopic(ctx context.Context, topic *models.Topic) error {
	topic.UpdatedAt = time.Now().UTC()
	const query = `UPDATE topics SET name = :name, length = :length, difficulty = :difficulty, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, topic); err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	return nil
}

// DeleteTopic removes a topic record.
func (r *SyllabusRepository) DeleteTopic(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM topics WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	return nil
}

type syllabusRow struct {
	SubjectID       string         `db:"subject_id"`
	SubjectName     string         `db:"subject_name"`
	ModuleID        sql.NullString `db:"module_id"`
	ModuleName      sql.NullString `db:"module_name"`
	TopicID         sql.NullString `db:"topic_id"`
	TopicName       sql.NullString `db:"topic_name"`
	TopicLength     sql.NullInt64  `db:"topic_length"`
	TopicDifficulty sql.NullString `db:"topic_difficulty"`
}

// Tree returns the full subject -> module -> topic hierarchy in one query.
func (r *SyllabusRepository) Tree(ctx context.Context) ([]models.SyllabusSubject, error) {
	const query = `
		SELECT s.id AS subject_id, s.name AS subject_name,
		       m.id AS module_id, m.name AS module_name,
		       t.id AS topic_id, t.name AS topic_name, t.length AS topic_length, t.difficulty AS topic_difficulty
		FROM subjects s
		LEFT JOIN modules m ON m.subject_id = s.id
		LEFT JOIN topics t ON t.module_id = m.id
		ORDER BY s.name ASC, m.name ASC, t.name ASC`

	var rows []syllabusRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load syllabus tree: %w", err)
	}

	subjects := make([]models.SyllabusSubject, 0)
	subjectIdx := make(map[string]int)
	moduleIdx := make(map[string]int)

	for _, row := range rows {
		si, ok := subjectIdx[row.SubjectID]
		if !ok {
			subjects = append(subjects, models.SyllabusSubject{
				ID:      row.SubjectID,
				Name:    row.SubjectName,
				Modules: []models.SyllabusModule{},
			})
			si = len(subjects) - 1
			subjectIdx[row.SubjectID] = si
		}
		if !row.ModuleID.Valid {
			continue
		}

		mi, ok := moduleIdx[row.ModuleID.String]
		if !ok {
			subjects[si].Modules = append(subjects[si].Modules, models.SyllabusModule{
				ID:     row.ModuleID.String,
				Name:   row.ModuleName.String,
				Topics: []models.SyllabusTopic{},
			})
			mi = len(subjects[si].Modules) - 1
			moduleIdx[row.ModuleID.String] = mi
		}
		if !row.TopicID.Valid {
			continue
		}

		topic := models.SyllabusTopic{
			ID:         row.TopicID.String,
			Name:       row.TopicName.String,
			Difficulty: models.Difficulty(row.TopicDifficulty.String),
		}
		if row.TopicLength.Valid {
			length := int(row.TopicLength.Int64)
			topic.Length = &length
		}
		subjects[si].Modules[mi].Topics = append(subjects[si].Modules[mi].Topics, topic)
	}

	return subjects, nil
}
