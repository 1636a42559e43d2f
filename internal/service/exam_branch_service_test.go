package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

type mockExamBranchRepo struct {
	branches map[string]*models.ExamBranch
}

func (m *mockExamBranchRepo) List(ctx context.Context, activeOnly bool) ([]models.ExamBranch, error) {
	var out []models.ExamBranch
	for _, branch := range m.branches {
		if !activeOnly || branch.IsActive {
			out = append(out, *branch)
		}
	}
	return out, nil
}

func (m *mockExamBranchRepo) FindByID(ctx context.Context, id string) (*models.ExamBranch, error) {
	branch, ok := m.branches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return branch, nil
}

func (m *mockExamBranchRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for _, branch := range m.branches {
		if branch.ID != excludeID && strings.EqualFold(branch.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockExamBranchRepo) Create(ctx context.Context, branch *models.ExamBranch) error {
	branch.ID = "branch-new"
	m.branches[branch.ID] = branch
	return nil
}

func (m *mockExamBranchRepo) Update(ctx context.Context, branch *models.ExamBranch) error {
	m.branches[branch.ID] = branch
	return nil
}

func (m *mockExamBranchRepo) Delete(ctx context.Context, id string) error {
	delete(m.branches, id)
	return nil
}

func newExamBranchFixture() (*ExamBranchService, *mockExamBranchRepo) {
	repo := &mockExamBranchRepo{branches: map[string]*models.ExamBranch{
		"branch-1": {
			ID:           "branch-1",
			Name:         "gate-cse",
			ExamTagNames: pq.StringArray{"gate-2020", "gate-2015"},
			IsActive:     true,
		},
	}}
	return NewExamBranchService(repo, nil, zap.NewNop()), repo
}

func TestAddTagNamesDedupsAndNormalizes(t *testing.T) {
	svc, _ := newExamBranchFixture()

	branch, err := svc.AddTagNames(context.Background(), "branch-1", []string{"GATE 2021", "gate-2020", "gate-2022", "gate 2021"})
	require.NoError(t, err)

	assert.Equal(t, pq.StringArray{"gate-2020", "gate-2015", "gate-2021", "gate-2022"}, branch.ExamTagNames)
}

func TestRemoveTagName(t *testing.T) {
	svc, repo := newExamBranchFixture()

	branch, err := svc.RemoveTagName(context.Background(), "branch-1", "gate-2015")
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"gate-2020"}, branch.ExamTagNames)
	assert.Equal(t, pq.StringArray{"gate-2020"}, repo.branches["branch-1"].ExamTagNames)

	_, err = svc.RemoveTagName(context.Background(), "branch-1", "gate-1999")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateTagNameKeepsPosition(t *testing.T) {
	svc, _ := newExamBranchFixture()

	branch, err := svc.UpdateTagName(context.Background(), "branch-1", "gate-2015", "gate-2016")
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"gate-2020", "gate-2016"}, branch.ExamTagNames)
}

func TestUpdateTagNameRejectsDuplicate(t *testing.T) {
	svc, _ := newExamBranchFixture()

	_, err := svc.UpdateTagName(context.Background(), "branch-1", "gate-2015", "gate-2020")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
