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

type mockTopicProgressRepo struct {
	records map[string]models.UserTopicProgress // keyed by topic id
	summary models.TopicProgressSummary
}

func (m *mockTopicProgressRepo) Upsert(_ context.Context, progress *models.UserTopicProgress) error {
	if m.records == nil {
		m.records = make(map[string]models.UserTopicProgress)
	}
	m.records[progress.TopicID] = *progress
	return nil
}

func (m *mockTopicProgressRepo) Find(_ context.Context, _, topicID string) (*models.UserTopicProgress, error) {
	record, ok := m.records[topicID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &record, nil
}

func (m *mockTopicProgressRepo) ListForUser(_ context.Context, _ string) ([]models.UserTopicProgress, error) {
	var out []models.UserTopicProgress
	for _, record := range m.records {
		out = append(out, record)
	}
	return out, nil
}

func (m *mockTopicProgressRepo) FindMany(_ context.Context, _ string, topicIDs []string) ([]models.UserTopicProgress, error) {
	var out []models.UserTopicProgress
	for _, id := range topicIDs {
		if record, ok := m.records[id]; ok {
			out = append(out, record)
		}
	}
	return out, nil
}

func (m *mockTopicProgressRepo) Delete(_ context.Context, _, topicID string) error {
	delete(m.records, topicID)
	return nil
}

func (m *mockTopicProgressRepo) Summary(_ context.Context, _ string) (*models.TopicProgressSummary, error) {
	summary := m.summary
	return &summary, nil
}

type mockTopicFinder struct {
	topics map[string]models.Topic
}

func (m *mockTopicFinder) FindTopicByID(_ context.Context, id string) (*models.Topic, error) {
	topic, ok := m.topics[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &topic, nil
}

func newTopicProgressFixture() (*TopicProgressService, *mockTopicProgressRepo) {
	repo := &mockTopicProgressRepo{}
	topics := &mockTopicFinder{topics: map[string]models.Topic{
		"topic-1": {ID: "topic-1", Name: "quick-sort"},
		"topic-2": {ID: "topic-2", Name: "heaps"},
	}}
	return NewTopicProgressService(repo, topics, nil, zap.NewNop()), repo
}

func TestTopicProgressUpsertRevisionImpliesCompletion(t *testing.T) {
	svc, repo := newTopicProgressFixture()

	progress, err := svc.Upsert(context.Background(), "user-1", models.TopicProgressUpdateRequest{
		TopicID:  "topic-1",
		ToRevise: true,
	})
	require.NoError(t, err)
	assert.True(t, progress.IsCompleted)
	assert.True(t, progress.ToRevise)
	assert.True(t, repo.records["topic-1"].IsCompleted)
}

func TestTopicProgressUpsertUnknownTopic(t *testing.T) {
	svc, _ := newTopicProgressFixture()

	_, err := svc.Upsert(context.Background(), "user-1", models.TopicProgressUpdateRequest{TopicID: "topic-missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTopicProgressBulkUpdateIsolatesFailures(t *testing.T) {
	svc, repo := newTopicProgressFixture()

	results, err := svc.BulkUpdate(context.Background(), "user-1", models.BulkTopicProgressRequest{
		Updates: []models.TopicProgressUpdateRequest{
			{TopicID: "topic-1", IsCompleted: true},
			{TopicID: "topic-missing", IsCompleted: true},
			{TopicID: "topic-2", ToRevise: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Empty(t, results[0].Error)
	assert.NotEmpty(t, results[1].Error)
	assert.Empty(t, results[2].Error)
	assert.Len(t, repo.records, 2)
}

func TestTopicProgressBulkCheckDefaultsFalse(t *testing.T) {
	svc, _ := newTopicProgressFixture()

	_, err := svc.Upsert(context.Background(), "user-1", models.TopicProgressUpdateRequest{TopicID: "topic-1", IsCompleted: true})
	require.NoError(t, err)

	results, err := svc.BulkCheck(context.Background(), "user-1", models.BulkTopicCheckRequest{
		TopicIDs: []string{"topic-1", "topic-2"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Exists)
	assert.True(t, results[0].IsCompleted)
	assert.False(t, results[1].Exists)
	assert.False(t, results[1].IsCompleted)
	assert.False(t, results[1].ToRevise)
}

func TestTopicProgressGetMissing(t *testing.T) {
	svc, _ := newTopicProgressFixture()

	_, err := svc.Get(context.Background(), "user-1", "topic-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
