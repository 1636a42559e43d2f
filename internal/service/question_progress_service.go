package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

type questionProgressRepository interface {
	Upsert(ctx context.Context, progress *models.UserQuestionProgress) error
	Find(ctx context.Context, userID, questionID string) (*models.UserQuestionProgress, error)
	ListForUser(ctx context.Context, userID string) ([]models.UserQuestionProgress, error)
	FindMany(ctx context.Context, userID string, questionIDs []string) ([]models.UserQuestionProgress, error)
	SummaryByCategory(ctx context.Context, userID string) ([]models.CategoryProgressStats, error)
}

type progressQuestionFinder interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
}

// QuestionProgressService handles per-user question attempt tracking with a
// cached summary view.
type QuestionProgressService struct {
	repo      questionProgressRepository
	questions progressQuestionFinder
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuestionProgressService creates a new question progress service. The
// redis client may be nil, in which case summaries are computed on every read.
func NewQuestionProgressService(repo questionProgressRepository, questions progressQuestionFinder, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *QuestionProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &QuestionProgressService{
		repo:      repo,
		questions: questions,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// Upsert records an attempt on one question and invalidates the summary.
func (s *QuestionProgressService) Upsert(ctx context.Context, userID string, req models.QuestionProgressUpsertRequest) (*models.UserQuestionProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}

	if _, err := s.questions.FindByID(ctx, req.QuestionID); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	progress := &models.UserQuestionProgress{
		UserID:      userID,
		QuestionID:  req.QuestionID,
		TimeSpent:   req.TimeSpent,
		IsCompleted: req.IsCompleted,
		ToRevise:    req.ToRevise,
		Remarks:     req.Remarks,
		AttemptedAt: time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, progress); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save progress")
	}

	s.invalidateSummary(ctx, userID)
	return progress, nil
}

// Get returns the progress record for one question, if any.
func (s *QuestionProgressService) Get(ctx context.Context, userID, questionID string) (*models.UserQuestionProgress, error) {
	progress, err := s.repo.Find(ctx, userID, questionID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no progress recorded for question")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress")
	}
	return progress, nil
}

// List returns every progress record of the user.
func (s *QuestionProgressService) List(ctx context.Context, userID string) ([]models.UserQuestionProgress, error) {
	progress, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list progress")
	}
	return progress, nil
}

// BulkGet returns the user's progress for a set of questions.
func (s *QuestionProgressService) BulkGet(ctx context.Context, userID string, req models.BulkQuestionProgressCheckRequest) ([]models.UserQuestionProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk progress payload")
	}
	progress, err := s.repo.FindMany(ctx, userID, req.QuestionIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list progress")
	}
	return progress, nil
}

// Summary aggregates question progress per category plus overall totals,
// served from cache when fresh.
func (s *QuestionProgressService) Summary(ctx context.Context, userID string) (*models.QuestionProgressSummary, error) {
	key := summaryCacheKey(userID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached models.QuestionProgressSummary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	stats, err := s.repo.SummaryByCategory(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build summary")
	}

	summary := &models.QuestionProgressSummary{Categories: make([]models.CategoryProgressStats, 0, len(stats))}
	for _, stat := range stats {
		if stat.Total > 0 {
			stat.CompletionPercentage = float64(stat.Completed) / float64(stat.Total) * 100
		}
		summary.TotalQuestions += stat.Total
		summary.Completed += stat.Completed
		summary.ToRevise += stat.ToRevise
		summary.Categories = append(summary.Categories, stat)
	}
	if summary.TotalQuestions > 0 {
		summary.CompletionPercentage = float64(summary.Completed) / float64(summary.TotalQuestions) * 100
	}

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache progress summary", zap.Error(err))
			}
		}
	}
	return summary, nil
}

func (s *QuestionProgressService) invalidateSummary(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, summaryCacheKey(userID)).Err(); err != nil {
		s.logger.Warn("failed to invalidate progress summary", zap.String("user_id", userID), zap.Error(err))
	}
}

func summaryCacheKey(userID string) string {
	return fmt.Sprintf("progress:question-summary:%s", userID)
}
