package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

type examBranchRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.ExamBranch, error)
	FindByID(ctx context.Context, id string) (*models.ExamBranch, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, branch *models.ExamBranch) error
	Update(ctx context.Context, branch *models.ExamBranch) error
	Delete(ctx context.Context, id string) error
}

// CreateExamBranchRequest captures fields for creating exam branches.
type CreateExamBranchRequest struct {
	Name         string   `json:"name" validate:"required"`
	Description  *string  `json:"description,omitempty"`
	ExamTagNames []string `json:"exam_tag_names" validate:"required,min=1"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

// ExamBranchService handles exam branch workflows. A branch's exam tag names
// define which year-bearing tags legitimize a question's extracted year.
type ExamBranchService struct {
	repo      examBranchRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamBranchService creates a new exam branch service.
func NewExamBranchService(repo examBranchRepository, validate *validator.Validate, logger *zap.Logger) *ExamBranchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamBranchService{repo: repo, validator: validate, logger: logger}
}

// List returns exam branches, optionally only active ones.
func (s *ExamBranchService) List(ctx context.Context, activeOnly bool) ([]models.ExamBranch, error) {
	branches, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam branches")
	}
	return branches, nil
}

// Get returns an exam branch by identifier.
func (s *ExamBranchService) Get(ctx context.Context, id string) (*models.ExamBranch, error) {
	branch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam branch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam branch")
	}
	return branch, nil
}

// Create adds a new exam branch. Exam tag names are normalized.
func (s *ExamBranchService) Create(ctx context.Context, req CreateExamBranchRequest) (*models.ExamBranch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam branch payload")
	}

	name := NormalizeName(req.Name)
	exists, err := s.repo.ExistsByName(ctx, name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check exam branch name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "exam branch name already exists")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	branch := &models.ExamBranch{
		Name:         name,
		Description:  req.Description,
		ExamTagNames: normalizeAll(req.ExamTagNames),
		IsActive:     active,
	}
	if err := s.repo.Create(ctx, branch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam branch")
	}
	return branch, nil
}

// Update modifies an exam branch.
func (s *ExamBranchService) Update(ctx context.Context, id string, req CreateExamBranchRequest) (*models.ExamBranch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam branch payload")
	}

	branch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := NormalizeName(req.Name)
	exists, err := s.repo.ExistsByName(ctx, name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check exam branch name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "exam branch name already exists")
	}

	branch.Name = name
	branch.Description = req.Description
	branch.ExamTagNames = normalizeAll(req.ExamTagNames)
	if req.IsActive != nil {
		branch.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, branch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam branch")
	}
	return branch, nil
}

// Delete removes an exam branch.
func (s *ExamBranchService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam branch")
	}
	return nil
}

// AddTagNames appends exam tag names to a branch, normalizing each and
// skipping ones already present. Input order is preserved.
func (s *ExamBranchService) AddTagNames(ctx context.Context, id string, names []string) (*models.ExamBranch, error) {
	if len(names) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one tag name is required")
	}

	branch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, raw := range names {
		if n := NormalizeName(raw); n != "" && !contains(branch.ExamTagNames, n) {
			branch.ExamTagNames = append(branch.ExamTagNames, n)
		}
	}
	if err := s.repo.Update(ctx, branch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam branch")
	}
	return branch, nil
}

// RemoveTagName drops one exam tag name from a branch.
func (s *ExamBranchService) RemoveTagName(ctx context.Context, id, name string) (*models.ExamBranch, error) {
	branch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	target := NormalizeName(name)
	kept := make(pq.StringArray, 0, len(branch.ExamTagNames))
	for _, existing := range branch.ExamTagNames {
		if !strings.EqualFold(existing, target) {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(branch.ExamTagNames) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam tag name not found on branch")
	}

	branch.ExamTagNames = kept
	if err := s.repo.Update(ctx, branch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam branch")
	}
	return branch, nil
}

// UpdateTagName renames one exam tag name in place, keeping its position.
func (s *ExamBranchService) UpdateTagName(ctx context.Context, id, oldName, newName string) (*models.ExamBranch, error) {
	branch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	target := NormalizeName(oldName)
	replacement := NormalizeName(newName)
	if replacement == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "new tag name is required")
	}
	if contains(branch.ExamTagNames, replacement) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "exam tag name already exists on branch")
	}

	found := false
	for i, existing := range branch.ExamTagNames {
		if strings.EqualFold(existing, target) {
			branch.ExamTagNames[i] = replacement
			found = true
			break
		}
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam tag name not found on branch")
	}

	if err := s.repo.Update(ctx, branch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam branch")
	}
	return branch, nil
}

func normalizeAll(names []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(names))
	for _, name := range names {
		if n := NormalizeName(name); n != "" && !contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}
