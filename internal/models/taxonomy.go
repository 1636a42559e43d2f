package models

import (
	"time"

	"github.com/lib/pq"
)

// QuestionCategory is a subject-scoped bucket for previous-year questions.
// Names are stored normalized (lowercase, hyphen-separated) and are globally unique.
type QuestionCategory struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryRef is the compact category shape embedded in subcategory views.
type CategoryRef struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// SubCategory slices a category; a single subcategory may belong to several
// categories (both as the category's own self-named bucket and as a
// cross-cutting label such as multiple-selects).
type SubCategory struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	QuestionCount int       `db:"question_count" json:"question_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SubCategoryWithCategories is a subcategory with its category set resolved.
type SubCategoryWithCategories struct {
	SubCategory
	QuestionCategories []CategoryRef `json:"question_categories"`
}

// QuestionTag is a free-text label attached to questions. A few names are
// reserved keywords the ingestion pipeline keys off; tags containing a 4-digit
// substring encode an exam year.
type QuestionTag struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ExamBranch defines which year-tags are legitimate for an exam track.
type ExamBranch struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Description  *string        `db:"description" json:"description,omitempty"`
	ExamTagNames pq.StringArray `db:"exam_tag_names" json:"exam_tag_names"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
