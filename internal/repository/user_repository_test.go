package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-reviser/reviser-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func userRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "subscription_status", "is_admin", "profile_picture_url", "mobile_number", "last_login", "created_at", "updated_at"}).
		AddRow("1", "asha@example.com", "hash", "Asha", string(models.SubscriptionFree), false, nil, nil, now, now, now)
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, name, subscription_status, is_admin, profile_picture_url, mobile_number, last_login, created_at, updated_at FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("asha@example.com").
		WillReturnRows(userRows())

	user, err := repo.FindByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT .+ FROM users WHERE LOWER").
		WithArgs("missing@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Email: "asha@example.com", Name: "Asha", SubscriptionStatus: models.SubscriptionFree}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersWithFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, name, subscription_status, is_admin, profile_picture_url, mobile_number, last_login, created_at, updated_at FROM users WHERE 1=1 AND subscription_status = $1 AND (LOWER(email) LIKE $2 OR LOWER(name) LIKE $2) ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(string(models.SubscriptionPremium), "%asha%").
		WillReturnRows(userRows())

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND subscription_status = $1")).
		WithArgs(string(models.SubscriptionPremium), "%asha%").
		WillReturnRows(countRows)

	users, total, err := repo.List(context.Background(), models.UserFilter{
		Search:             "Asha",
		SubscriptionStatus: string(models.SubscriptionPremium),
	})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(userRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.UserFilter{SortBy: "password_hash; DROP TABLE users"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{UserID: "u1", Token: "token", ExpiresAt: time.Now()}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	assert.NotEmpty(t, token.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	revokedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1")).
		WithArgs("rt-1", revokedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RevokeRefreshToken(context.Background(), "rt-1", revokedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}
