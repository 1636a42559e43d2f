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

type mockSubCategoryRepo struct {
	subs       map[string]*models.SubCategory
	byCategory map[string][]string
	questions  map[string]int
	created    []models.SubCategory
	nextID     int
}

func newMockSubCategoryRepo() *mockSubCategoryRepo {
	return &mockSubCategoryRepo{
		subs:       make(map[string]*models.SubCategory),
		byCategory: make(map[string][]string),
		questions:  make(map[string]int),
	}
}

func (m *mockSubCategoryRepo) List(ctx context.Context) ([]models.SubCategory, error) {
	out := make([]models.SubCategory, 0, len(m.subs))
	for _, sub := range m.subs {
		out = append(out, *sub)
	}
	return out, nil
}

func (m *mockSubCategoryRepo) ListByCategory(ctx context.Context, categoryID string) ([]models.SubCategory, error) {
	var out []models.SubCategory
	for _, name := range m.byCategory[categoryID] {
		for _, sub := range m.subs {
			if sub.Name == name {
				out = append(out, *sub)
			}
		}
	}
	return out, nil
}

func (m *mockSubCategoryRepo) FindByID(ctx context.Context, id string) (*models.SubCategory, error) {
	sub, ok := m.subs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *sub
	return &copied, nil
}

func (m *mockSubCategoryRepo) FindByName(ctx context.Context, name string) (*models.SubCategory, error) {
	for _, sub := range m.subs {
		if strings.EqualFold(sub.Name, name) {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubCategoryRepo) CategoryRefs(ctx context.Context, subCategoryID string) ([]models.CategoryRef, error) {
	return nil, nil
}

func (m *mockSubCategoryRepo) Create(ctx context.Context, sub *models.SubCategory, categoryIDs []string) error {
	m.nextID++
	sub.ID = fmt.Sprintf("sub-%d", m.nextID)
	m.subs[sub.ID] = sub
	for _, categoryID := range categoryIDs {
		m.byCategory[categoryID] = append(m.byCategory[categoryID], sub.Name)
	}
	m.created = append(m.created, *sub)
	return nil
}

func (m *mockSubCategoryRepo) AttachCategory(ctx context.Context, subCategoryID, categoryID string) error {
	if sub, ok := m.subs[subCategoryID]; ok {
		m.byCategory[categoryID] = append(m.byCategory[categoryID], sub.Name)
	}
	return nil
}

func (m *mockSubCategoryRepo) Update(ctx context.Context, sub *models.SubCategory) error {
	m.subs[sub.ID] = sub
	return nil
}

func (m *mockSubCategoryRepo) Delete(ctx context.Context, id string) error {
	delete(m.subs, id)
	return nil
}

func (m *mockSubCategoryRepo) CountQuestions(ctx context.Context, id string) (int, error) {
	return m.questions[id], nil
}

func (m *mockSubCategoryRepo) ExistsByNameInCategory(ctx context.Context, categoryID, name string) (bool, error) {
	for _, existing := range m.byCategory[categoryID] {
		if existing == name {
			return true, nil
		}
	}
	return false, nil
}

type mockSubCategoryCategoryFinder struct {
	categories map[string]*models.QuestionCategory
}

func (m *mockSubCategoryCategoryFinder) FindByID(ctx context.Context, id string) (*models.QuestionCategory, error) {
	cat, ok := m.categories[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cat, nil
}

func newSubCategoryFixture() (*SubCategoryService, *mockSubCategoryRepo) {
	repo := newMockSubCategoryRepo()
	finder := &mockSubCategoryCategoryFinder{categories: map[string]*models.QuestionCategory{
		"cat-1": {ID: "cat-1", Name: "algorithms", SubjectID: "subj-1"},
	}}
	return NewSubCategoryService(repo, finder, nil, zap.NewNop()), repo
}

func TestBulkCreateSubCategories(t *testing.T) {
	svc, repo := newSubCategoryFixture()

	results, err := svc.BulkCreate(context.Background(), BulkCreateSubCategoriesRequest{
		CategoryID: "cat-1",
		Names:      []string{"sorting", "graphs"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, res := range results {
		assert.NotEmpty(t, res.ID)
		assert.Empty(t, res.Error)
	}
	assert.Len(t, repo.created, 2)
}

func TestBulkCreateSubCategoriesIsolatesFailures(t *testing.T) {
	svc, repo := newSubCategoryFixture()
	repo.byCategory["cat-1"] = []string{"sorting"}

	results, err := svc.BulkCreate(context.Background(), BulkCreateSubCategoriesRequest{
		CategoryID: "cat-1",
		Names:      []string{"sorting", "  ", "graphs"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "already exists in category", results[0].Error)
	assert.Equal(t, "name is required", results[1].Error)
	assert.Empty(t, results[2].Error)
	assert.NotEmpty(t, results[2].ID)
	assert.Len(t, repo.created, 1)
}

func TestBulkCreateSubCategoriesAttachesExisting(t *testing.T) {
	svc, repo := newSubCategoryFixture()
	repo.subs["sub-9"] = &models.SubCategory{ID: "sub-9", Name: "sorting"}
	repo.byCategory["cat-other"] = []string{"sorting"}

	results, err := svc.BulkCreate(context.Background(), BulkCreateSubCategoriesRequest{
		CategoryID: "cat-1",
		Names:      []string{"sorting"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "sub-9", results[0].ID)
	assert.Empty(t, results[0].Error)
	assert.Empty(t, repo.created)
	assert.Contains(t, repo.byCategory["cat-1"], "sorting")
}

func TestBulkCreateSubCategoriesUnknownCategory(t *testing.T) {
	svc, _ := newSubCategoryFixture()

	_, err := svc.BulkCreate(context.Background(), BulkCreateSubCategoriesRequest{
		CategoryID: "cat-missing",
		Names:      []string{"sorting"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteSubCategoryWithQuestions(t *testing.T) {
	svc, repo := newSubCategoryFixture()
	repo.subs["sub-1"] = &models.SubCategory{ID: "sub-1", Name: "sorting"}
	repo.questions["sub-1"] = 3

	err := svc.Delete(context.Background(), "sub-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, found := repo.subs["sub-1"]
	assert.True(t, found)
}

func TestDeleteSubCategory(t *testing.T) {
	svc, repo := newSubCategoryFixture()
	repo.subs["sub-1"] = &models.SubCategory{ID: "sub-1", Name: "sorting"}

	require.NoError(t, svc.Delete(context.Background(), "sub-1"))

	_, found := repo.subs["sub-1"]
	assert.False(t, found)
}
