package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

type mockAuthRepo struct {
	usersByEmail  map[string]*models.User
	usersByID     map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	resetTokens   map[string]*models.PasswordResetToken
	auditLogs     []models.AuditLog
	revokedAll    []string
	nextID        int
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		usersByEmail:  make(map[string]*models.User),
		usersByID:     make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
		resetTokens:   make(map[string]*models.PasswordResetToken),
	}
}

func (m *mockAuthRepo) addUser(user *models.User) {
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.usersByEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	m.addUser(user)
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	user, ok := m.usersByID[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, stored := range m.refreshTokens {
		if stored.ID == id {
			stored.Revoked = true
			stored.RevokedAt = &revokedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockAuthRepo) CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	m.nextID++
	token.ID = fmt.Sprintf("reset-%d", m.nextID)
	m.resetTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	stored, ok := m.resetTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (m *mockAuthRepo) MarkPasswordResetTokenUsed(ctx context.Context, id string) error {
	for _, stored := range m.resetTokens {
		if stored.ID == id {
			stored.Used = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

type mockResetMailer struct {
	email string
	token string
	sent  int
}

func (m *mockResetMailer) SendPasswordReset(email, name, token string) {
	m.email = email
	m.token = token
	m.sent++
}

func newAuthFixture() (*AuthService, *mockAuthRepo, *mockResetMailer) {
	repo := newMockAuthRepo()
	mail := &mockResetMailer{}
	svc := NewAuthService(repo, mail, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "go-reviser",
	})
	return svc, repo, mail
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestSignupIssuesTokens(t *testing.T) {
	svc, repo, _ := newAuthFixture()

	resp, err := svc.Signup(context.Background(), models.SignupRequest{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "asha@example.com", resp.User.Email)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.False(t, claims.IsAdmin)

	_, stored := repo.refreshTokens[resp.RefreshToken]
	assert.True(t, stored)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	repo.addUser(&models.User{ID: "user-1", Email: "asha@example.com"})

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "asha@example.com",
		PasswordHash: hashPassword(t, "secret123"),
	})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "asha@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "missing@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	repo.addUser(&models.User{ID: "user-1", Email: "asha@example.com", Name: "Asha"})
	repo.refreshTokens["old-token"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.True(t, repo.refreshTokens["old-token"].Revoked)

	_, stored := repo.refreshTokens[resp.RefreshToken]
	assert.True(t, stored)
}

func TestRefreshTokenExpired(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	repo.addUser(&models.User{ID: "user-1", Email: "asha@example.com"})
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	repo.refreshTokens["rt"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "rt",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	err := svc.Logout(context.Background(), "rt", "user-2", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.refreshTokens["rt"].Revoked)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo, mail := newAuthFixture()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "asha@example.com",
		Name:         "Asha",
		PasswordHash: hashPassword(t, "old-password"),
	})

	require.NoError(t, svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "asha@example.com"}))
	require.Equal(t, 1, mail.sent)
	assert.Equal(t, "asha@example.com", mail.email)
	require.NotEmpty(t, mail.token)

	require.NoError(t, svc.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Token:       mail.token,
		NewPassword: "new-password",
	}))

	user := repo.usersByID["user-1"]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-password")))
	assert.True(t, repo.resetTokens[mail.token].Used)
	assert.Contains(t, repo.revokedAll, "user-1")

	err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Token:       mail.token,
		NewPassword: "another-password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, mail := newAuthFixture()

	require.NoError(t, svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "ghost@example.com"}))
	assert.Zero(t, mail.sent)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
