package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

type tagRepository interface {
	List(ctx context.Context, filter models.TagFilter) ([]models.QuestionTag, int, error)
	FindByID(ctx context.Context, id string) (*models.QuestionTag, error)
	FindByNames(ctx context.Context, names []string) ([]models.QuestionTag, error)
	Create(ctx context.Context, tag *models.QuestionTag) error
	Update(ctx context.Context, tag *models.QuestionTag) error
	Delete(ctx context.Context, id string) error
}

// CreateTagRequest captures fields for creating question tags.
type CreateTagRequest struct {
	Name     string `json:"name" validate:"required"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// UpdateTagRequest modifies tag fields.
type UpdateTagRequest struct {
	Name     string `json:"name" validate:"required"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// TagService handles question tag workflows. Tag names are stored normalized
// the same way as categories so imports can match either form.
type TagService struct {
	repo      tagRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTagService creates a new tag service.
func NewTagService(repo tagRepository, validate *validator.Validate, logger *zap.Logger) *TagService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated tags.
func (s *TagService) List(ctx context.Context, filter models.TagFilter) ([]models.QuestionTag, *models.Pagination, error) {
	tags, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tags")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return tags, pagination, nil
}

// Get returns a tag by identifier.
func (s *TagService) Get(ctx context.Context, id string) (*models.QuestionTag, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tag not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tag")
	}
	return tag, nil
}

// Create adds a new tag with a normalized name.
func (s *TagService) Create(ctx context.Context, req CreateTagRequest) (*models.QuestionTag, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tag payload")
	}

	name := NormalizeName(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tag name is required")
	}

	existing, err := s.repo.FindByNames(ctx, []string{name})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tag name")
	}
	if len(existing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "tag name already exists")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	tag := &models.QuestionTag{Name: name, IsActive: active}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tag")
	}
	return tag, nil
}

// Update renames a tag or flips its active flag. Deactivating a tag makes
// every future import that references it land in the inactive bucket.
func (s *TagService) Update(ctx context.Context, id string, req UpdateTagRequest) (*models.QuestionTag, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tag payload")
	}

	tag, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := NormalizeName(req.Name)
	if name != tag.Name {
		existing, err := s.repo.FindByNames(ctx, []string{name})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tag name")
		}
		if len(existing) > 0 {
			return nil, appErrors.Clone(appErrors.ErrConflict, "tag name already exists")
		}
	}

	tag.Name = name
	if req.IsActive != nil {
		tag.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, tag); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tag")
	}
	return tag, nil
}

// Delete removes a tag and its question links.
func (s *TagService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tag")
	}
	return nil
}
