package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
	"github.com/go-reviser/reviser-api/pkg/export"
)

type questionRepository interface {
	List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error)
	FindByID(ctx context.Context, id string) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id string) error
	CountsBySubject(ctx context.Context) ([]models.SubjectQuestionCount, error)
	CountsByCategory(ctx context.Context, subjectName string) ([]models.CategoryQuestionCount, error)
	AllContent(ctx context.Context) (map[string]string, error)
	UpdateContent(ctx context.Context, contents map[string]string) error
}

type questionTagResolver interface {
	NamesForQuestion(ctx context.Context, questionID string) ([]string, error)
	NamesForQuestions(ctx context.Context, questionIDs []string) (map[string][]string, error)
}

type questionBranchResolver interface {
	NamesForQuestions(ctx context.Context, questionIDs []string) (map[string][]string, error)
}

// UpdateQuestionRequest modifies a stored question's mutable fields. Answer
// shape is re-validated against the question's tags before persisting.
type UpdateQuestionRequest struct {
	Title    string             `json:"title" validate:"required"`
	Content  string             `json:"content" validate:"required"`
	Year     int                `json:"year" validate:"required,min=1900,max=2100"`
	IsActive *bool              `json:"is_active,omitempty"`
	Answer   models.AnswerValue `json:"answer,omitempty"`
}

// Display math is stored in \[..\] form; inline math in \(..\). Legacy
// content mixes dollar-sign delimiters, so the sweep rewrites both.
var (
	displayMathRe = regexp.MustCompile(`\$\$([\s\S]+?)\$\$`)
	inlineMathRe  = regexp.MustCompile(`\$([^$\n]+?)\$`)
)

// RenormalizeMathDelimiters rewrites dollar-sign math delimiters to the
// bracket forms: $$..$$ becomes \[..\] and $..$ becomes \(..\).
func RenormalizeMathDelimiters(content string) string {
	content = displayMathRe.ReplaceAllString(content, `\[$1\]`)
	content = inlineMathRe.ReplaceAllString(content, `\($1\)`)
	return content
}

// QuestionService handles browse and maintenance workflows over the stored
// question bank.
type QuestionService struct {
	repo      questionRepository
	tags      questionTagResolver
	branches  questionBranchResolver
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuestionService creates a new question service.
func NewQuestionService(repo questionRepository, tags questionTagResolver, branches questionBranchResolver, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{
		repo:      repo,
		tags:      tags,
		branches:  branches,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// List returns questions matching the filter with tags and branches resolved.
func (s *QuestionService) List(ctx context.Context, filter models.QuestionFilter) ([]models.QuestionView, *models.Pagination, error) {
	questions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}

	views, err := s.buildViews(ctx, questions)
	if err != nil {
		return nil, nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return views, pagination, nil
}

// Get returns one question with tags and branches resolved.
func (s *QuestionService) Get(ctx context.Context, id string) (*models.QuestionView, error) {
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	views, err := s.buildViews(ctx, []models.Question{*question})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Update modifies a question, re-validating its answer against its tag set.
func (s *QuestionService) Update(ctx context.Context, id string, req UpdateQuestionRequest) (*models.QuestionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}

	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	question.Title = req.Title
	question.Content = req.Content
	question.Year = req.Year
	if req.IsActive != nil {
		question.IsActive = *req.IsActive
	}

	if req.Answer.IsSet() {
		tagNames, err := s.tags.NamesForQuestion(ctx, question.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question tags")
		}
		kind := models.KindFromTags(tagNames)
		answer, err := validateAnswer(kind, req.Answer)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		question.CorrectAnswer = answer.CorrectAnswer
		question.CorrectAnswers = answer.CorrectAnswers
		question.NumericalMin = answer.NumericalMin
		question.NumericalMax = answer.NumericalMax
	}

	if err := s.repo.Update(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question")
	}

	views, err := s.buildViews(ctx, []models.Question{*question})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Delete removes a question; the repository decrements its subcategory
// counter in the same transaction.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}
	return nil
}

// CountsBySubject returns question totals per subject.
func (s *QuestionService) CountsBySubject(ctx context.Context) ([]models.SubjectQuestionCount, error) {
	counts, err := s.repo.CountsBySubject(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count questions")
	}
	return counts, nil
}

// CountsByCategory returns question totals per category, optionally for a
// single subject.
func (s *QuestionService) CountsByCategory(ctx context.Context, subjectName string) ([]models.CategoryQuestionCount, error) {
	counts, err := s.repo.CountsByCategory(ctx, subjectName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count questions")
	}
	return counts, nil
}

// RenormalizeContent sweeps every stored question and rewrites legacy math
// delimiters, returning how many questions changed.
func (s *QuestionService) RenormalizeContent(ctx context.Context) (int, error) {
	contents, err := s.repo.AllContent(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question content")
	}

	changed := make(map[string]string)
	for id, content := range contents {
		if rewritten := RenormalizeMathDelimiters(content); rewritten != content {
			changed[id] = rewritten
		}
	}

	if err := s.repo.UpdateContent(ctx, changed); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question content")
	}

	s.logger.Info("question content renormalized", zap.Int("scanned", len(contents)), zap.Int("changed", len(changed)))
	return len(changed), nil
}

// Export renders the filtered question bank as csv or pdf.
func (s *QuestionService) Export(ctx context.Context, filter models.QuestionFilter, format string) ([]byte, string, error) {
	filter.Page = 1
	if filter.PageSize <= 0 {
		filter.PageSize = 200
	}
	questions, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}

	table := export.Table{
		Columns: []string{"Number", "Title", "Subject", "Category", "Subcategory", "Year", "Answer", "Link"},
		Rows:    make([][]string, 0, len(questions)),
	}
	for i := range questions {
		q := &questions[i]
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(q.QuestionNumber),
			q.Title,
			q.SubjectName,
			q.QuestionCategoryName,
			q.SubCategoryName,
			strconv.Itoa(q.Year),
			fmt.Sprintf("%v", displayAnswer(q)),
			q.Link,
		})
	}

	switch format {
	case "csv":
		payload, err := s.csv.Render(table)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(table, "Question Bank")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *QuestionService) buildViews(ctx context.Context, questions []models.Question) ([]models.QuestionView, error) {
	ids := make([]string, 0, len(questions))
	for i := range questions {
		ids = append(ids, questions[i].ID)
	}

	tagNames, err := s.tags.NamesForQuestions(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question tags")
	}
	branchNames, err := s.branches.NamesForQuestions(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question branches")
	}

	views := make([]models.QuestionView, 0, len(questions))
	for i := range questions {
		q := questions[i]
		view := models.QuestionView{
			Question:            q,
			Tags:                tagNames[q.ID],
			ExamBranches:        branchNames[q.ID],
			NumericalAnswerBand: q.NumericalAnswerRange(),
		}
		if q.CorrectAnswer == nil && len(q.CorrectAnswers) == 0 && view.NumericalAnswerBand == nil {
			view.DisplayCorrectAnswer = DescriptiveAnswerSentinel
		}
		if view.Tags == nil {
			view.Tags = []string{}
		}
		if view.ExamBranches == nil {
			view.ExamBranches = []string{}
		}
		views = append(views, view)
	}
	return views, nil
}
