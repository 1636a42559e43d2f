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

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type contactMailer interface {
	SendContactMessage(req models.ContactRequest)
}

// UserService handles profile and account workflows.
type UserService struct {
	repo      userRepository
	mailer    contactMailer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(repo userRepository, mailer contactMailer, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, mailer: mailer, validator: validate, logger: logger}
}

// Get returns a user by identifier.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// UpdateProfile modifies the caller's own profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	user.Name = req.Name
	user.ProfilePictureURL = req.ProfilePictureURL
	user.MobileNumber = req.MobileNumber

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// SetSubscription switches a user's plan tier. Admin only.
func (s *UserService) SetSubscription(ctx context.Context, userID string, status models.SubscriptionStatus) (*models.User, error) {
	if status != models.SubscriptionFree && status != models.SubscriptionPremium {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subscription status")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	user.SubscriptionStatus = status
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subscription")
	}
	return user, nil
}

// List returns paginated users for admin views.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
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
	return users, pagination, nil
}

// Contact validates and forwards a contact-form submission.
func (s *UserService) Contact(ctx context.Context, req models.ContactRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload")
	}
	if s.mailer != nil {
		s.mailer.SendContactMessage(req)
	}
	return nil
}
