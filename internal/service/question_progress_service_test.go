package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

type mockQuestionProgressRepo struct {
	records map[string]models.UserQuestionProgress // keyed by question id
	stats   []models.CategoryProgressStats
}

func (m *mockQuestionProgressRepo) Upsert(_ context.Context, progress *models.UserQuestionProgress) error {
	if m.records == nil {
		m.records = make(map[string]models.UserQuestionProgress)
	}
	m.records[progress.QuestionID] = *progress
	return nil
}

func (m *mockQuestionProgressRepo) Find(_ context.Context, _, questionID string) (*models.UserQuestionProgress, error) {
	record, ok := m.records[questionID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &record, nil
}

func (m *mockQuestionProgressRepo) ListForUser(_ context.Context, _ string) ([]models.UserQuestionProgress, error) {
	var out []models.UserQuestionProgress
	for _, record := range m.records {
		out = append(out, record)
	}
	return out, nil
}

func (m *mockQuestionProgressRepo) FindMany(_ context.Context, _ string, questionIDs []string) ([]models.UserQuestionProgress, error) {
	var out []models.UserQuestionProgress
	for _, id := range questionIDs {
		if record, ok := m.records[id]; ok {
			out = append(out, record)
		}
	}
	return out, nil
}

func (m *mockQuestionProgressRepo) SummaryByCategory(_ context.Context, _ string) ([]models.CategoryProgressStats, error) {
	return m.stats, nil
}

type mockQuestionFinder struct {
	questions map[string]models.Question
}

func (m *mockQuestionFinder) FindByID(_ context.Context, id string) (*models.Question, error) {
	question, ok := m.questions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &question, nil
}

func newQuestionProgressFixture() (*QuestionProgressService, *mockQuestionProgressRepo) {
	repo := &mockQuestionProgressRepo{}
	questions := &mockQuestionFinder{questions: map[string]models.Question{
		"q-1": {ID: "q-1", Title: "Quick sort"},
	}}
	return NewQuestionProgressService(repo, questions, nil, 0, nil, zap.NewNop()), repo
}

func TestQuestionProgressUpsert(t *testing.T) {
	svc, repo := newQuestionProgressFixture()

	progress, err := svc.Upsert(context.Background(), "user-1", models.QuestionProgressUpsertRequest{
		QuestionID:  "q-1",
		TimeSpent:   120,
		IsCompleted: true,
		Remarks:     "tricky pivot choice",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", progress.UserID)
	assert.Equal(t, 120, progress.TimeSpent)
	assert.False(t, progress.AttemptedAt.IsZero())
	assert.Equal(t, "tricky pivot choice", repo.records["q-1"].Remarks)
}

func TestQuestionProgressUpsertUnknownQuestion(t *testing.T) {
	svc, _ := newQuestionProgressFixture()

	_, err := svc.Upsert(context.Background(), "user-1", models.QuestionProgressUpsertRequest{QuestionID: "q-missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestQuestionProgressSummaryComputesPercentages(t *testing.T) {
	svc, repo := newQuestionProgressFixture()
	repo.stats = []models.CategoryProgressStats{
		{CategoryID: "cat-1", CategoryName: "algorithms", Total: 40, Completed: 10, ToRevise: 4},
		{CategoryID: "cat-2", CategoryName: "operating-systems", Total: 60, Completed: 30, ToRevise: 6},
	}

	summary, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 100, summary.TotalQuestions)
	assert.Equal(t, 40, summary.Completed)
	assert.Equal(t, 10, summary.ToRevise)
	assert.InDelta(t, 40.0, summary.CompletionPercentage, 0.001)

	require.Len(t, summary.Categories, 2)
	assert.InDelta(t, 25.0, summary.Categories[0].CompletionPercentage, 0.001)
	assert.InDelta(t, 50.0, summary.Categories[1].CompletionPercentage, 0.001)
}

func TestQuestionProgressSummaryEmpty(t *testing.T) {
	svc, _ := newQuestionProgressFixture()

	summary, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalQuestions)
	assert.Zero(t, summary.CompletionPercentage)
	assert.Empty(t, summary.Categories)
}

func TestQuestionProgressBulkGet(t *testing.T) {
	svc, _ := newQuestionProgressFixture()

	_, err := svc.Upsert(context.Background(), "user-1", models.QuestionProgressUpsertRequest{QuestionID: "q-1", IsCompleted: true})
	require.NoError(t, err)

	progress, err := svc.BulkGet(context.Background(), "user-1", models.BulkQuestionProgressCheckRequest{
		QuestionIDs: []string{"q-1", "q-unseen"},
	})
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, "q-1", progress[0].QuestionID)
}
