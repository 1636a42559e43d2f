package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

type topicProgressRepository interface {
	Upsert(ctx context.Context, progress *models.UserTopicProgress) error
	Find(ctx context.Context, userID, topicID string) (*models.UserTopicProgress, error)
	ListForUser(ctx context.Context, userID string) ([]models.UserTopicProgress, error)
	FindMany(ctx context.Context, userID string, topicIDs []string) ([]models.UserTopicProgress, error)
	Delete(ctx context.Context, userID, topicID string) error
	Summary(ctx context.Context, userID string) (*models.TopicProgressSummary, error)
}

type progressTopicFinder interface {
	FindTopicByID(ctx context.Context, id string) (*models.Topic, error)
}

// TopicProgressService tracks per-user syllabus topic completion flags.
type TopicProgressService struct {
	repo      topicProgressRepository
	topics    progressTopicFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTopicProgressService creates a new topic progress service.
func NewTopicProgressService(repo topicProgressRepository, topics progressTopicFinder, validate *validator.Validate, logger *zap.Logger) *TopicProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicProgressService{repo: repo, topics: topics, validator: validate, logger: logger}
}

// Upsert sets the completion flags for one topic. Marking a topic for
// revision implies it has been completed at least once.
func (s *TopicProgressService) Upsert(ctx context.Context, userID string, req models.TopicProgressUpdateRequest) (*models.UserTopicProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid topic progress payload")
	}
	progress, err := s.apply(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	return progress, nil
}

func (s *TopicProgressService) apply(ctx context.Context, userID string, req models.TopicProgressUpdateRequest) (*models.UserTopicProgress, error) {
	if _, err := s.topics.FindTopicByID(ctx, req.TopicID); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "topic not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topic")
	}

	progress := &models.UserTopicProgress{
		UserID:      userID,
		TopicID:     req.TopicID,
		IsCompleted: req.IsCompleted || req.ToRevise,
		ToRevise:    req.ToRevise,
	}
	if err := s.repo.Upsert(ctx, progress); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save topic progress")
	}
	return progress, nil
}

// Get returns the progress record for one topic, if any.
func (s *TopicProgressService) Get(ctx context.Context, userID, topicID string) (*models.UserTopicProgress, error) {
	progress, err := s.repo.Find(ctx, userID, topicID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no progress recorded for topic")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topic progress")
	}
	return progress, nil
}

// List returns every topic progress record of the user.
func (s *TopicProgressService) List(ctx context.Context, userID string) ([]models.UserTopicProgress, error) {
	progress, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list topic progress")
	}
	return progress, nil
}

// BulkUpdate applies a batch of topic flag updates. Failures are isolated
// per topic so one bad entry does not abort the batch.
func (s *TopicProgressService) BulkUpdate(ctx context.Context, userID string, req models.BulkTopicProgressRequest) ([]models.BulkTopicProgressResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk topic progress payload")
	}

	results := make([]models.BulkTopicProgressResult, 0, len(req.Updates))
	for _, update := range req.Updates {
		result := models.BulkTopicProgressResult{TopicID: update.TopicID}
		if _, err := s.apply(ctx, userID, update); err != nil {
			result.Error = appErrors.FromError(err).Message
			s.logger.Warn("bulk topic progress update failed",
				zap.String("user_id", userID),
				zap.String("topic_id", update.TopicID),
				zap.Error(err))
		}
		results = append(results, result)
	}
	return results, nil
}

// BulkCheck reports the stored flags for a set of topics, defaulting to
// false when the user has no record for a topic.
func (s *TopicProgressService) BulkCheck(ctx context.Context, userID string, req models.BulkTopicCheckRequest) ([]models.TopicCheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk topic check payload")
	}

	progress, err := s.repo.FindMany(ctx, userID, req.TopicIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check topic progress")
	}

	byTopic := make(map[string]models.UserTopicProgress, len(progress))
	for _, p := range progress {
		byTopic[p.TopicID] = p
	}

	results := make([]models.TopicCheckResult, 0, len(req.TopicIDs))
	for _, topicID := range req.TopicIDs {
		result := models.TopicCheckResult{TopicID: topicID}
		if p, ok := byTopic[topicID]; ok {
			result.Exists = true
			result.IsCompleted = p.IsCompleted
			result.ToRevise = p.ToRevise
		}
		results = append(results, result)
	}
	return results, nil
}

// Summary aggregates topic completion across the whole syllabus.
func (s *TopicProgressService) Summary(ctx context.Context, userID string) (*models.TopicProgressSummary, error) {
	summary, err := s.repo.Summary(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build topic summary")
	}
	return summary, nil
}

// Delete removes the user's progress record for one topic.
func (s *TopicProgressService) Delete(ctx context.Context, userID, topicID string) error {
	if err := s.repo.Delete(ctx, userID, topicID); err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "no progress recorded for topic")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete topic progress")
	}
	return nil
}
