package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Reserved tag names that drive question classification.
const (
	TagMultipleSelects  = "multiple-selects"
	TagNumericalAnswers = "numerical-answers"
	TagDescriptive      = "descriptive"
)

// QuestionKind is the closed classification of a question, resolved once from
// the record's tag set and switched on exhaustively.
type QuestionKind int

const (
	KindMCQ QuestionKind = iota
	KindMSQ
	KindNAT
	KindDescriptive
)

// KindFromTags classifies a record from its tag names. Descriptive wins over
// NAT, NAT over MSQ, matching the ingestion pipeline's branch order.
func KindFromTags(tags []string) QuestionKind {
	var msq, nat, descriptive bool
	for _, tag := range tags {
		switch tag {
		case TagMultipleSelects:
			msq = true
		case TagNumericalAnswers:
			nat = true
		case TagDescriptive:
			descriptive = true
		}
	}
	switch {
	case descriptive:
		return KindDescriptive
	case nat:
		return KindNAT
	case msq:
		return KindMSQ
	default:
		return KindMCQ
	}
}

func (k QuestionKind) String() string {
	switch k {
	case KindMSQ:
		return "MSQ"
	case KindNAT:
		return "NAT"
	case KindDescriptive:
		return "Descriptive"
	default:
		return "MCQ"
	}
}

// NumericalRange is the persisted answer band for NAT questions. An exact
// numerical answer is stored as the degenerate range min == max.
type NumericalRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Question is a previous-year question with denormalized taxonomy names for
// the common filter/sort dimensions.
type Question struct {
	ID                   string         `db:"id" json:"id"`
	QuestionNumber       int            `db:"question_number" json:"question_number"`
	Title                string         `db:"title" json:"title"`
	Content              string         `db:"content" json:"content"`
	SubCategoryID        string         `db:"sub_category_id" json:"sub_category_id"`
	SubCategoryName      string         `db:"sub_category_name" json:"sub_category_name"`
	QuestionCategoryID   string         `db:"question_category_id" json:"question_category_id"`
	QuestionCategoryName string         `db:"question_category_name" json:"question_category_name"`
	SubjectName          string         `db:"subject_name" json:"subject_name"`
	Year                 int            `db:"year" json:"year"`
	Link                 string         `db:"link" json:"link"`
	IsActive             bool           `db:"is_active" json:"is_active"`
	CorrectAnswer        *string        `db:"correct_answer" json:"correct_answer,omitempty"`
	CorrectAnswers       pq.StringArray `db:"correct_answers" json:"correct_answers,omitempty"`
	NumericalMin         *float64       `db:"numerical_min" json:"-"`
	NumericalMax         *float64       `db:"numerical_max" json:"-"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// NumericalAnswerRange surfaces the NAT band when present.
func (q *Question) NumericalAnswerRange() *NumericalRange {
	if q.NumericalMin == nil || q.NumericalMax == nil {
		return nil
	}
	return &NumericalRange{Min: *q.NumericalMin, Max: *q.NumericalMax}
}

// QuestionView is a question with tag and exam-branch names resolved for
// browse responses.
type QuestionView struct {
	Question
	Tags                 []string        `json:"tags"`
	ExamBranches         []string        `json:"exam_branches"`
	NumericalAnswerBand  *NumericalRange `json:"numerical_answer_range,omitempty"`
	DisplayCorrectAnswer string          `json:"display_correct_answer,omitempty"`
}

// AnswerValue carries the polymorphic answer payload of an import record:
// a string, an array of strings, or a number.
type AnswerValue struct {
	Str    string
	List   []string
	Num    float64
	IsStr  bool
	IsList bool
	IsNum  bool
}

// IsSet reports whether any answer payload was supplied.
func (a AnswerValue) IsSet() bool {
	return a.IsStr || a.IsList || a.IsNum
}

// UnmarshalJSON accepts string, []string or numeric JSON values.
func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	*a = AnswerValue{}
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Str = s
		a.IsStr = true
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		a.List = list
		a.IsList = true
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		a.Num = n
		a.IsNum = true
		return nil
	}

	return fmt.Errorf("answer: unsupported JSON value %s", string(data))
}

// MarshalJSON renders the original payload shape back out.
func (a AnswerValue) MarshalJSON() ([]byte, error) {
	switch {
	case a.IsStr:
		return json.Marshal(a.Str)
	case a.IsList:
		return json.Marshal(a.List)
	case a.IsNum:
		return json.Marshal(a.Num)
	default:
		return []byte("null"), nil
	}
}

// QuestionRecord is one raw entry of an import payload.
type QuestionRecord struct {
	Title    string      `json:"title"`
	Content  string      `json:"content"`
	Category string      `json:"category"`
	Tags     []string    `json:"tags,omitempty"`
	Answer   AnswerValue `json:"answer,omitempty"`
	Link     string      `json:"link,omitempty"`
	IsActive *bool       `json:"isActive,omitempty"`
}

// BulkImportRequest is the body of the bulk ingestion endpoint.
type BulkImportRequest struct {
	Questions       map[string]QuestionRecord `json:"questions"`
	ExamBranchNames []string                  `json:"examBranchNames"`
}

// SingleImportRequest is the body of the single-question creation endpoint.
type SingleImportRequest struct {
	Question        QuestionRecord `json:"question"`
	ExamBranchNames []string       `json:"examBranchNames"`
}

// ImportSuccess reports one created question.
type ImportSuccess struct {
	QuestionID     string      `json:"questionId"`
	QuestionNumber int         `json:"questionNumber"`
	Title          string      `json:"title"`
	Answer         interface{} `json:"answer,omitempty"`
	Link           string      `json:"link,omitempty"`
}

// ImportError reports one rejected record.
type ImportError struct {
	Error string `json:"error"`
	Link  string `json:"link,omitempty"`
}

// InactiveTagResult reports a record disqualified by inactive tags.
type InactiveTagResult struct {
	InactiveTags []string `json:"inActiveTags"`
	Link         string   `json:"link,omitempty"`
}

// YearErrorResult reports a record rejected for year integrity.
type YearErrorResult struct {
	YearError string `json:"yearError"`
	Link      string `json:"link,omitempty"`
}

// ImportResults carries the per-bucket outcomes of a bulk import.
type ImportResults struct {
	Success            []ImportSuccess     `json:"success"`
	Errors             []ImportError       `json:"errors"`
	AlreadyExists      []ImportError       `json:"alreadyExists"`
	InactiveTagResults []InactiveTagResult `json:"inActiveTagsResults"`
	YearErrors         []YearErrorResult   `json:"yearErrors"`
}

// ImportSummary aggregates bucket counts for the response.
type ImportSummary struct {
	Total         int `json:"total"`
	Successful    int `json:"successful"`
	Failed        int `json:"failed"`
	AlreadyExists int `json:"alreadyExists"`
	InactiveTags  int `json:"inActiveTags"`
}

// BulkImportResponse is the 201 body of the bulk ingestion endpoint.
type BulkImportResponse struct {
	Message string        `json:"message"`
	Summary ImportSummary `json:"summary"`
	Results ImportResults `json:"results"`
}

// SubjectQuestionCount pairs a subject with its question total.
type SubjectQuestionCount struct {
	SubjectID     string `db:"subject_id" json:"subjectId"`
	Name          string `db:"name" json:"name"`
	QuestionCount int    `db:"question_count" json:"questionCount"`
}

// CategoryQuestionCount pairs a category with its question total.
type CategoryQuestionCount struct {
	CategoryID    string `db:"category_id" json:"categoryId"`
	Name          string `db:"name" json:"name"`
	QuestionCount int    `db:"question_count" json:"questionCount"`
}
