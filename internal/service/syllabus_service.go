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

type syllabusRepository interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	FindSubjectByID(ctx context.Context, id string) (*models.Subject, error)
	SubjectExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	CreateSubject(ctx context.Context, subject *models.Subject) error
	UpdateSubject(ctx context.Context, subject *models.Subject) error
	DeleteSubject(ctx context.Context, id string) error
	CountSubjectModules(ctx context.Context, subjectID string) (int, error)

	ListModules(ctx context.Context, subjectID string) ([]models.Module, error)
	FindModuleByID(ctx context.Context, id string) (*models.Module, error)
	ModuleExistsByName(ctx context.Context, subjectID, name, excludeID string) (bool, error)
	CreateModule(ctx context.Context, mod *models.Module) error
	UpdateModule(ctx context.Context, mod *models.Module) error
	DeleteModule(ctx context.Context, id string) error
	CountModuleTopics(ctx context.Context, moduleID string) (int, error)

	ListTopics(ctx context.Context, moduleID string) ([]models.Topic, error)
	FindTopicByID(ctx context.Context, id string) (*models.Topic, error)
	TopicExistsByName(ctx context.Context, moduleID, name, excludeID string) (bool, error)
	CreateTopic(ctx context.Context, topic *models.Topic) error
	UpdateTopic(ctx context.Context, topic *models.Topic) error
	DeleteTopic(ctx context.Context, id string) error

	Tree(ctx context.Context) ([]models.SyllabusSubject, error)
}

type subjectCategoryLister interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.QuestionCategory, error)
}

// CreateSubjectRequest captures fields for creating subjects.
type CreateSubjectRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateModuleRequest captures fields for creating modules.
type CreateModuleRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
}

// CreateTopicRequest captures fields for creating topics.
type CreateTopicRequest struct {
	ModuleID   string `json:"module_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Length     *int   `json:"length,omitempty" validate:"omitempty,min=1"`
	Difficulty string `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
}

// UpdateTopicRequest modifies topic fields.
type UpdateTopicRequest struct {
	Name       string `json:"name" validate:"required"`
	Length     *int   `json:"length,omitempty" validate:"omitempty,min=1"`
	Difficulty string `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
}

// SyllabusService handles the subject/module/topic hierarchy.
type SyllabusService struct {
	repo       syllabusRepository
	categories subjectCategoryLister
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSyllabusService creates a new syllabus service.
func NewSyllabusService(repo syllabusRepository, categories subjectCategoryLister, validate *validator.Validate, logger *zap.Logger) *SyllabusService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyllabusService{repo: repo, categories: categories, validator: validate, logger: logger}
}

// Tree returns the full nested syllabus.
func (s *SyllabusService) Tree(ctx context.Context) ([]models.SyllabusSubject, error) {
	tree, err := s.repo.Tree(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load syllabus")
	}
	return tree, nil
}

// ListSubjects returns all subjects.
func (s *SyllabusService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.ListSubjects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// GetSubject returns a subject by identifier.
func (s *SyllabusService) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindSubjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// CreateSubject adds a new subject ensuring name uniqueness.
func (s *SyllabusService) CreateSubject(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	req.Name = strings.TrimSpace(req.Name)
	exists, err := s.repo.SubjectExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject name already exists")
	}

	subject := &models.Subject{Name: req.Name}
	if err := s.repo.CreateSubject(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// UpdateSubject renames a subject.
func (s *SyllabusService) UpdateSubject(ctx context.Context, id string, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.GetSubject(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	exists, err := s.repo.SubjectExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject name already exists")
	}

	subject.Name = req.Name
	if err := s.repo.UpdateSubject(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// DeleteSubject removes a subject when nothing references it.
func (s *SyllabusService) DeleteSubject(ctx context.Context, id string) error {
	subject, err := s.GetSubject(ctx, id)
	if err != nil {
		return err
	}

	if err := s.checkSubjectUnreferenced(ctx, subject); err != nil {
		return err
	}

	if err := s.repo.DeleteSubject(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

func (s *SyllabusService) checkSubjectUnreferenced(ctx context.Context, subject *models.Subject) error {
	count, err := s.repo.CountSubjectModules(ctx, subject.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject modules")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject still has modules")
	}

	if s.categories != nil {
		refs, err := s.categories.ListBySubject(ctx, subject.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject categories")
		}
		if len(refs) > 0 {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject still has question categories")
		}
	}
	return nil
}

// ReplaceSubjects makes the stored subject set match the given names:
// missing names are created, subjects absent from the list are removed.
// The whole call is refused if any removal target is still referenced.
func (s *SyllabusService) ReplaceSubjects(ctx context.Context, names []string) ([]models.Subject, error) {
	wanted := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			wanted = append(wanted, name)
		}
	}
	if len(wanted) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one subject name is required")
	}

	current, err := s.repo.ListSubjects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}

	var removals []models.Subject
	existing := make(map[string]bool, len(current))
	for _, subject := range current {
		key := strings.ToLower(subject.Name)
		if seen[key] {
			existing[key] = true
			continue
		}
		removals = append(removals, subject)
	}

	for i := range removals {
		if err := s.checkSubjectUnreferenced(ctx, &removals[i]); err != nil {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "subject '"+removals[i].Name+"' is still referenced")
		}
	}

	for _, subject := range removals {
		if err := s.repo.DeleteSubject(ctx, subject.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
		}
	}
	for _, name := range wanted {
		if existing[strings.ToLower(name)] {
			continue
		}
		subject := &models.Subject{Name: name}
		if err := s.repo.CreateSubject(ctx, subject); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
		}
	}

	return s.ListSubjects(ctx)
}

// ListModules returns the modules of a subject.
func (s *SyllabusService) ListModules(ctx context.Context, subjectID string) ([]models.Module, error) {
	if _, err := s.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	mods, err := s.repo.ListModules(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}
	return mods, nil
}

// CreateModule adds a module under a subject.
func (s *SyllabusService) CreateModule(ctx context.Context, req CreateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}

	if _, err := s.GetSubject(ctx, req.SubjectID); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	exists, err := s.repo.ModuleExistsByName(ctx, req.SubjectID, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check module name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "module name already exists in subject")
	}

	mod := &models.Module{SubjectID: req.SubjectID, Name: req.Name}
	if err := s.repo.CreateModule(ctx, mod); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module")
	}
	return mod, nil
}

// UpdateModule renames a module.
func (s *SyllabusService) UpdateModule(ctx context.Context, id, name string) (*models.Module, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "module name is required")
	}

	mod, err := s.repo.FindModuleByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}

	exists, err := s.repo.ModuleExistsByName(ctx, mod.SubjectID, name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check module name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "module name already exists in subject")
	}

	mod.Name = name
	if err := s.repo.UpdateModule(ctx, mod); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module")
	}
	return mod, nil
}

// DeleteModule removes a module when it has no topics.
func (s *SyllabusService) DeleteModule(ctx context.Context, id string) error {
	mod, err := s.repo.FindModuleByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}

	count, err := s.repo.CountModuleTopics(ctx, mod.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check module topics")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "module still has topics")
	}

	if err := s.repo.DeleteModule(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete module")
	}
	return nil
}

// ListTopics returns the topics of a module.
func (s *SyllabusService) ListTopics(ctx context.Context, moduleID string) ([]models.Topic, error) {
	if _, err := s.repo.FindModuleByID(ctx, moduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	topics, err := s.repo.ListTopics(ctx, moduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list topics")
	}
	return topics, nil
}

// GetTopic returns a topic by identifier.
func (s *SyllabusService) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	topic, err := s.repo.FindTopicByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "topic not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topic")
	}
	return topic, nil
}

// CreateTopic adds a topic under a module.
func (s *SyllabusService) CreateTopic(ctx context.Context, req CreateTopicRequest) (*models.Topic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid topic payload")
	}

	if _, err := s.repo.FindModuleByID(ctx, req.ModuleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}

	req.Name = strings.TrimSpace(req.Name)
	exists, err := s.repo.TopicExistsByName(ctx, req.ModuleID, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check topic name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "topic name already exists in module")
	}

	topic := &models.Topic{
		ModuleID:   req.ModuleID,
		Name:       req.Name,
		Length:     req.Length,
		Difficulty: models.Difficulty(req.Difficulty),
	}
	if err := s.repo.CreateTopic(ctx, topic); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create topic")
	}
	return topic, nil
}

// BulkTopicResult reports the outcome of one bulk topic entry.
type BulkTopicResult struct {
	Name  string `json:"name"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// CreateTopics adds several topics under a module with per-item outcomes;
// one bad entry does not abort the rest.
func (s *SyllabusService) CreateTopics(ctx context.Context, reqs []CreateTopicRequest) ([]BulkTopicResult, error) {
	if len(reqs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one topic is required")
	}

	results := make([]BulkTopicResult, 0, len(reqs))
	for _, req := range reqs {
		topic, err := s.CreateTopic(ctx, req)
		if err != nil {
			s.logger.Warn("failed to create topic", zap.String("name", req.Name), zap.Error(err))
			results = append(results, BulkTopicResult{Name: req.Name, Error: appErrors.FromError(err).Message})
			continue
		}
		results = append(results, BulkTopicResult{Name: topic.Name, ID: topic.ID})
	}
	return results, nil
}

// UpdateTopic modifies a topic.
func (s *SyllabusService) UpdateTopic(ctx context.Context, id string, req UpdateTopicRequest) (*models.Topic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid topic payload")
	}

	topic, err := s.GetTopic(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	exists, err := s.repo.TopicExistsByName(ctx, topic.ModuleID, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check topic name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "topic name already exists in module")
	}

	topic.Name = req.Name
	topic.Length = req.Length
	topic.Difficulty = models.Difficulty(req.Difficulty)

	if err := s.repo.UpdateTopic(ctx, topic); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update topic")
	}
	return topic, nil
}

// DeleteTopic removes a topic.
func (s *SyllabusService) DeleteTopic(ctx context.Context, id string) error {
	if _, err := s.GetTopic(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTopic(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete topic")
	}
	return nil
}
