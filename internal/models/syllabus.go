package models

import "time"

// Difficulty grades how demanding a topic is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Subject is the root of the syllabus taxonomy.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Module groups topics under a subject. Unique per (subject, name).
type Module struct {
	ID        string    `db:"id" json:"id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Topic is a single studyable unit within a module.
type Topic struct {
	ID         string     `db:"id" json:"id"`
	ModuleID   string     `db:"module_id" json:"module_id"`
	Name       string     `db:"name" json:"name"`
	Length     *int       `db:"length" json:"length,omitempty"`
	Difficulty Difficulty `db:"difficulty" json:"difficulty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// SyllabusTopic is the nested-view shape for a topic.
type SyllabusTopic struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Length     *int       `json:"length,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
}

// SyllabusModule is the nested-view shape for a module with its topics.
type SyllabusModule struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Topics []SyllabusTopic `json:"topics"`
}

// SyllabusSubject is the nested-view shape for a subject with its modules.
type SyllabusSubject struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Modules []SyllabusModule `json:"modules"`
}
