package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

type subCategoryRepository interface {
	List(ctx context.Context) ([]models.SubCategory, error)
	ListByCategory(ctx context.Context, categoryID string) ([]models.SubCategory, error)
	FindByID(ctx context.Context, id string) (*models.SubCategory, error)
	FindByName(ctx context.Context, name string) (*models.SubCategory, error)
	CategoryRefs(ctx context.Context, subCategoryID string) ([]models.CategoryRef, error)
	Create(ctx context.Context, sub *models.SubCategory, categoryIDs []string) error
	AttachCategory(ctx context.Context, subCategoryID, categoryID string) error
	Update(ctx context.Context, sub *models.SubCategory) error
	Delete(ctx context.Context, id string) error
	CountQuestions(ctx context.Context, id string) (int, error)
	ExistsByNameInCategory(ctx context.Context, categoryID, name string) (bool, error)
}

type subCategoryCategoryFinder interface {
	FindByID(ctx context.Context, id string) (*models.QuestionCategory, error)
}

// CreateSubCategoryRequest captures fields for creating subcategories.
type CreateSubCategoryRequest struct {
	Name        string   `json:"name" validate:"required"`
	CategoryIDs []string `json:"category_ids" validate:"required,min=1"`
}

// BulkCreateSubCategoriesRequest creates several subcategories under one
// category in a single call.
type BulkCreateSubCategoriesRequest struct {
	CategoryID string   `json:"category_id" validate:"required"`
	Names      []string `json:"names" validate:"required,min=1"`
}

// BulkSubCategoryResult reports the outcome of one bulk entry.
type BulkSubCategoryResult struct {
	Name  string `json:"name"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// SubCategoryService handles subcategory workflows.
type SubCategoryService struct {
	repo       subCategoryRepository
	categories subCategoryCategoryFinder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSubCategoryService creates a new subcategory service.
func NewSubCategoryService(repo subCategoryRepository, categories subCategoryCategoryFinder, validate *validator.Validate, logger *zap.Logger) *SubCategoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubCategoryService{repo: repo, categories: categories, validator: validate, logger: logger}
}

// List returns all subcategories with their category sets.
func (s *SubCategoryService) List(ctx context.Context) ([]models.SubCategoryWithCategories, error) {
	subs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subcategories")
	}
	return s.withCategories(ctx, subs)
}

// ListByCategory returns the subcategories of one category.
func (s *SubCategoryService) ListByCategory(ctx context.Context, categoryID string) ([]models.SubCategoryWithCategories, error) {
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	subs, err := s.repo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subcategories")
	}
	return s.withCategories(ctx, subs)
}

// Get returns a subcategory by identifier.
func (s *SubCategoryService) Get(ctx context.Context, id string) (*models.SubCategoryWithCategories, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subcategory not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subcategory")
	}

	refs, err := s.repo.CategoryRefs(ctx, sub.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subcategory categories")
	}
	return &models.SubCategoryWithCategories{SubCategory: *sub, QuestionCategories: refs}, nil
}

// Create adds a subcategory linked to one or more categories.
func (s *SubCategoryService) Create(ctx context.Context, req CreateSubCategoryRequest) (*models.SubCategoryWithCategories, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subcategory payload")
	}

	name := strings.TrimSpace(req.Name)
	for _, categoryID := range req.CategoryIDs {
		if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
		}
		exists, err := s.repo.ExistsByNameInCategory(ctx, categoryID, name)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subcategory name")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subcategory name already exists in category")
		}
	}

	sub := &models.SubCategory{Name: name}
	if err := s.repo.Create(ctx, sub, req.CategoryIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subcategory")
	}

	refs, err := s.repo.CategoryRefs(ctx, sub.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subcategory categories")
	}
	return &models.SubCategoryWithCategories{SubCategory: *sub, QuestionCategories: refs}, nil
}

// BulkCreate creates several subcategories under a category, reporting a
// per-name outcome instead of failing the batch on the first duplicate.
func (s *SubCategoryService) BulkCreate(ctx context.Context, req BulkCreateSubCategoriesRequest) ([]BulkSubCategoryResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk subcategory payload")
	}

	if _, err := s.categories.FindByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	results := make([]BulkSubCategoryResult, 0, len(req.Names))
	for _, raw := range req.Names {
		name := strings.TrimSpace(raw)
		if name == "" {
			results = append(results, BulkSubCategoryResult{Name: raw, Error: "name is required"})
			continue
		}

		exists, err := s.repo.ExistsByNameInCategory(ctx, req.CategoryID, name)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subcategory name")
		}
		if exists {
			results = append(results, BulkSubCategoryResult{Name: name, Error: "already exists in category"})
			continue
		}

		// A subcategory can serve several categories; an existing name
		// gains a category link instead of a duplicate row.
		if existing, err := s.repo.FindByName(ctx, name); err == nil {
			if err := s.repo.AttachCategory(ctx, existing.ID, req.CategoryID); err != nil {
				s.logger.Error("failed to attach subcategory to category", zap.String("name", name), zap.Error(err))
				results = append(results, BulkSubCategoryResult{Name: name, Error: "failed to create"})
				continue
			}
			results = append(results, BulkSubCategoryResult{Name: name, ID: existing.ID})
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subcategory name")
		}

		sub := &models.SubCategory{Name: name}
		if err := s.repo.Create(ctx, sub, []string{req.CategoryID}); err != nil {
			s.logger.Error("failed to create subcategory", zap.String("name", name), zap.Error(err))
			results = append(results, BulkSubCategoryResult{Name: name, Error: "failed to create"})
			continue
		}
		results = append(results, BulkSubCategoryResult{Name: name, ID: sub.ID})
	}

	return results, nil
}

// BulkDelete removes several subcategories with per-id outcomes. Ones that
// still have questions are reported, not deleted.
func (s *SubCategoryService) BulkDelete(ctx context.Context, ids []string) ([]BulkSubCategoryResult, error) {
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one subcategory id is required")
	}

	results := make([]BulkSubCategoryResult, 0, len(ids))
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			results = append(results, BulkSubCategoryResult{ID: id, Error: appErrors.FromError(err).Message})
			continue
		}
		results = append(results, BulkSubCategoryResult{ID: id})
	}
	return results, nil
}

// Update renames a subcategory.
func (s *SubCategoryService) Update(ctx context.Context, id, name string) (*models.SubCategoryWithCategories, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subcategory name is required")
	}

	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subcategory not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subcategory")
	}

	sub.Name = name
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subcategory")
	}

	refs, err := s.repo.CategoryRefs(ctx, sub.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subcategory categories")
	}
	return &models.SubCategoryWithCategories{SubCategory: *sub, QuestionCategories: refs}, nil
}

// Delete removes a subcategory when no questions reference it.
func (s *SubCategoryService) Delete(ctx context.Context, id string) error {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subcategory not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subcategory")
	}

	count, err := s.repo.CountQuestions(ctx, sub.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subcategory questions")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "subcategory still has questions")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subcategory")
	}
	return nil
}

func (s *SubCategoryService) withCategories(ctx context.Context, subs []models.SubCategory) ([]models.SubCategoryWithCategories, error) {
	out := make([]models.SubCategoryWithCategories, 0, len(subs))
	for _, sub := range subs {
		refs, err := s.repo.CategoryRefs(ctx, sub.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subcategory categories")
		}
		out = append(out, models.SubCategoryWithCategories{SubCategory: sub, QuestionCategories: refs})
	}
	return out, nil
}
