package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeName canonicalizes category names: lowercase with every run of
// whitespace collapsed to a single hyphen.
func NormalizeName(name string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

type categoryRepository interface {
	List(ctx context.Context) ([]models.QuestionCategory, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.QuestionCategory, error)
	FindByID(ctx context.Context, id string) (*models.QuestionCategory, error)
	FindByName(ctx context.Context, name string) (*models.QuestionCategory, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, category *models.QuestionCategory) error
	Update(ctx context.Context, category *models.QuestionCategory) error
	Delete(ctx context.Context, id string) error
	CountQuestions(ctx context.Context, id string) (int, error)
}

type categorySubjectFinder interface {
	FindSubjectByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateCategoryRequest captures fields for creating question categories.
type CreateCategoryRequest struct {
	Name      string `json:"name" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
}

// CategoryService handles question category workflows. Names are stored
// normalized so ingestion can match them case-insensitively.
type CategoryService struct {
	repo      categoryRepository
	subjects  categorySubjectFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo categoryRepository, subjects categorySubjectFinder, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

// List returns all question categories.
func (s *CategoryService) List(ctx context.Context) ([]models.QuestionCategory, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// ListBySubject returns the categories of one subject.
func (s *CategoryService) ListBySubject(ctx context.Context, subjectID string) ([]models.QuestionCategory, error) {
	if _, err := s.subjects.FindSubjectByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	categories, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// Get returns a category by identifier.
func (s *CategoryService) Get(ctx context.Context, id string) (*models.QuestionCategory, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}

// Create adds a category under a subject. The stored name is normalized.
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*models.QuestionCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	if _, err := s.subjects.FindSubjectByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	name := NormalizeName(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category name is required")
	}

	exists, err := s.repo.ExistsByName(ctx, name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "category name already exists")
	}

	category := &models.QuestionCategory{Name: name, SubjectID: req.SubjectID}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	return category, nil
}

// Update renames a category or moves it to another subject.
func (s *CategoryService) Update(ctx context.Context, id string, req CreateCategoryRequest) (*models.QuestionCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.subjects.FindSubjectByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	name := NormalizeName(req.Name)
	exists, err := s.repo.ExistsByName(ctx, name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "category name already exists")
	}

	category.Name = name
	category.SubjectID = req.SubjectID
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	return category, nil
}

// BulkCreateCategoriesRequest creates several categories under one subject.
type BulkCreateCategoriesRequest struct {
	SubjectID string   `json:"subject_id" validate:"required"`
	Names     []string `json:"names" validate:"required,min=1"`
}

// BulkCategoryResult reports the outcome of one bulk entry.
type BulkCategoryResult struct {
	Name  string `json:"name"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// BulkCreate creates several categories under a subject with per-name
// outcomes; duplicates do not abort the batch.
func (s *CategoryService) BulkCreate(ctx context.Context, req BulkCreateCategoriesRequest) ([]BulkCategoryResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk category payload")
	}

	if _, err := s.subjects.FindSubjectByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	results := make([]BulkCategoryResult, 0, len(req.Names))
	for _, raw := range req.Names {
		name := NormalizeName(raw)
		if name == "" {
			results = append(results, BulkCategoryResult{Name: raw, Error: "name is required"})
			continue
		}

		exists, err := s.repo.ExistsByName(ctx, name, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
		}
		if exists {
			results = append(results, BulkCategoryResult{Name: name, Error: "category name already exists"})
			continue
		}

		category := &models.QuestionCategory{Name: name, SubjectID: req.SubjectID}
		if err := s.repo.Create(ctx, category); err != nil {
			s.logger.Error("failed to create category", zap.String("name", name), zap.Error(err))
			results = append(results, BulkCategoryResult{Name: name, Error: "failed to create"})
			continue
		}
		results = append(results, BulkCategoryResult{Name: name, ID: category.ID})
	}

	return results, nil
}

// BulkDelete removes several categories with per-id outcomes. A category
// that still has questions is reported, not deleted.
func (s *CategoryService) BulkDelete(ctx context.Context, ids []string) ([]BulkCategoryResult, error) {
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one category id is required")
	}

	results := make([]BulkCategoryResult, 0, len(ids))
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			results = append(results, BulkCategoryResult{ID: id, Error: appErrors.FromError(err).Message})
			continue
		}
		results = append(results, BulkCategoryResult{ID: id})
	}
	return results, nil
}

// Delete removes a category when it has no questions.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountQuestions(ctx, category.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category questions")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "category still has questions")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}
	return nil
}
