package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

type mockSyllabusRepo struct {
	subjects map[string]*models.Subject
	modules  map[string]*models.Module
	topics   map[string]*models.Topic
	nextID   int
}

func newMockSyllabusRepo() *mockSyllabusRepo {
	return &mockSyllabusRepo{
		subjects: make(map[string]*models.Subject),
		modules:  make(map[string]*models.Module),
		topics:   make(map[string]*models.Topic),
	}
}

func (m *mockSyllabusRepo) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *mockSyllabusRepo) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(m.subjects))
	for _, subject := range m.subjects {
		out = append(out, *subject)
	}
	return out, nil
}

func (m *mockSyllabusRepo) FindSubjectByID(ctx context.Context, id string) (*models.Subject, error) {
	subject, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return subject, nil
}

func (m *mockSyllabusRepo) SubjectExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for _, subject := range m.subjects {
		if subject.ID != excludeID && strings.EqualFold(subject.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSyllabusRepo) CreateSubject(ctx context.Context, subject *models.Subject) error {
	subject.ID = m.id("subj")
	m.subjects[subject.ID] = subject
	return nil
}

func (m *mockSyllabusRepo) UpdateSubject(ctx context.Context, subject *models.Subject) error {
	m.subjects[subject.ID] = subject
	return nil
}

func (m *mockSyllabusRepo) DeleteSubject(ctx context.Context, id string) error {
	delete(m.subjects, id)
	return nil
}

func (m *mockSyllabusRepo) CountSubjectModules(ctx context.Context, subjectID string) (int, error) {
	count := 0
	for _, mod := range m.modules {
		if mod.SubjectID == subjectID {
			count++
		}
	}
	return count, nil
}

func (m *mockSyllabusRepo) ListModules(ctx context.Context, subjectID string) ([]models.Module, error) {
	var out []models.Module
	for _, mod := range m.modules {
		if mod.SubjectID == subjectID {
			out = append(out, *mod)
		}
	}
	return out, nil
}

func (m *mockSyllabusRepo) FindModuleByID(ctx context.Context, id string) (*models.Module, error) {
	mod, ok := m.modules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return mod, nil
}

func (m *mockSyllabusRepo) ModuleExistsByName(ctx context.Context, subjectID, name, excludeID string) (bool, error) {
	for _, mod := range m.modules {
		if mod.SubjectID == subjectID && mod.ID != excludeID && strings.EqualFold(mod.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSyllabusRepo) CreateModule(ctx context.Context, mod *models.Module) error {
	mod.ID = m.id("mod")
	m.modules[mod.ID] = mod
	return nil
}

func (m *mockSyllabusRepo) UpdateModule(ctx context.Context, mod *models.Module) error {
	m.modules[mod.ID] = mod
	return nil
}

func (m *mockSyllabusRepo) DeleteModule(ctx context.Context, id string) error {
	delete(m.modules, id)
	return nil
}

func (m *mockSyllabusRepo) CountModuleTopics(ctx context.Context, moduleID string) (int, error) {
	count := 0
	for _, topic := range m.topics {
		if topic.ModuleID == moduleID {
			count++
		}
	}
	return count, nil
}

func (m *mockSyllabusRepo) ListTopics(ctx context.Context, moduleID string) ([]models.Topic, error) {
	var out []models.Topic
	for _, topic := range m.topics {
		if topic.ModuleID == moduleID {
			out = append(out, *topic)
		}
	}
	return out, nil
}

func (m *mockSyllabusRepo) FindTopicByID(ctx context.Context, id string) (*models.Topic, error) {
	topic, ok := m.topics[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return topic, nil
}

func (m *mockSyllabusRepo) TopicExistsByName(ctx context.Context, moduleID, name, excludeID string) (bool, error) {
	for _, topic := range m.topics {
		if topic.ModuleID == moduleID && topic.ID != excludeID && strings.EqualFold(topic.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSyllabusRepo) CreateTopic(ctx context.Context, topic *models.Topic) error {
	topic.ID = m.id("topic")
	m.topics[topic.ID] = topic
	return nil
}

func (m *mockSyllabusRepo) UpdateTopic(ctx context.Context, topic *models.Topic) error {
	m.topics[topic.ID] = topic
	return nil
}

func (m *mockSyllabusRepo) DeleteTopic(ctx context.Context, id string) error {
	delete(m.topics, id)
	return nil
}

func (m *mockSyllabusRepo) Tree(ctx context.Context) ([]models.SyllabusSubject, error) {
	return nil, nil
}

type mockSubjectCategoryLister struct {
	bySubject map[string][]models.QuestionCategory
}

func (m *mockSubjectCategoryLister) ListBySubject(ctx context.Context, subjectID string) ([]models.QuestionCategory, error) {
	return m.bySubject[subjectID], nil
}

func newSyllabusFixture() (*SyllabusService, *mockSyllabusRepo, *mockSubjectCategoryLister) {
	repo := newMockSyllabusRepo()
	categories := &mockSubjectCategoryLister{bySubject: make(map[string][]models.QuestionCategory)}
	return NewSyllabusService(repo, categories, nil, zap.NewNop()), repo, categories
}

func subjectNames(subjects []models.Subject) []string {
	names := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		names = append(names, subject.Name)
	}
	return names
}

func TestReplaceSubjects(t *testing.T) {
	svc, repo, _ := newSyllabusFixture()
	repo.subjects["subj-a"] = &models.Subject{ID: "subj-a", Name: "Algorithms"}
	repo.subjects["subj-b"] = &models.Subject{ID: "subj-b", Name: "Discrete Mathematics"}

	subjects, err := svc.ReplaceSubjects(context.Background(), []string{"Algorithms", "Operating Systems", "operating systems"})
	require.NoError(t, err)

	names := subjectNames(subjects)
	assert.Len(t, names, 2)
	assert.Contains(t, names, "Algorithms")
	assert.Contains(t, names, "Operating Systems")
	assert.NotContains(t, names, "Discrete Mathematics")
}

func TestReplaceSubjectsBlockedByModules(t *testing.T) {
	svc, repo, _ := newSyllabusFixture()
	repo.subjects["subj-a"] = &models.Subject{ID: "subj-a", Name: "Algorithms"}
	repo.modules["mod-1"] = &models.Module{ID: "mod-1", SubjectID: "subj-a", Name: "Sorting"}

	_, err := svc.ReplaceSubjects(context.Background(), []string{"Operating Systems"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, kept := repo.subjects["subj-a"]
	assert.True(t, kept)
}

func TestDeleteSubjectBlockedByCategories(t *testing.T) {
	svc, repo, categories := newSyllabusFixture()
	repo.subjects["subj-a"] = &models.Subject{ID: "subj-a", Name: "Algorithms"}
	categories.bySubject["subj-a"] = []models.QuestionCategory{{ID: "cat-1", Name: "algorithms", SubjectID: "subj-a"}}

	err := svc.DeleteSubject(context.Background(), "subj-a")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCreateTopicsIsolatesFailures(t *testing.T) {
	svc, repo, _ := newSyllabusFixture()
	repo.modules["mod-1"] = &models.Module{ID: "mod-1", SubjectID: "subj-a", Name: "Sorting"}
	repo.topics["topic-0"] = &models.Topic{ID: "topic-0", ModuleID: "mod-1", Name: "Quicksort", Difficulty: models.DifficultyMedium}

	results, err := svc.CreateTopics(context.Background(), []CreateTopicRequest{
		{ModuleID: "mod-1", Name: "Heapsort", Difficulty: "Medium"},
		{ModuleID: "mod-1", Name: "Quicksort", Difficulty: "Easy"},
		{ModuleID: "mod-missing", Name: "Merge sort", Difficulty: "Easy"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NotEmpty(t, results[0].ID)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "topic name already exists in module", results[1].Error)
	assert.Equal(t, "module not found", results[2].Error)
	assert.Len(t, repo.topics, 2)
}
