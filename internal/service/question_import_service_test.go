package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	"github.com/go-reviser/reviser-api/internal/repository"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

type mockCategoryResolver struct {
	categories map[string]models.QuestionCategory
}

func (m *mockCategoryResolver) FindByNames(_ context.Context, names []string) ([]models.QuestionCategory, error) {
	var out []models.QuestionCategory
	for _, name := range names {
		if cat, ok := m.categories[name]; ok {
			out = append(out, cat)
		}
	}
	return out, nil
}

type mockSubjectResolver struct {
	subjects map[string]models.Subject
}

func (m *mockSubjectResolver) FindSubjectByID(_ context.Context, id string) (*models.Subject, error) {
	subject, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &subject, nil
}

type mockSubCategoryResolver struct {
	byCategory map[string][]models.SubCategory
}

func (m *mockSubCategoryResolver) ListByCategory(_ context.Context, categoryID string) ([]models.SubCategory, error) {
	return m.byCategory[categoryID], nil
}

type mockTagResolver struct {
	tags   map[string]models.QuestionTag
	minted []string
}

func (m *mockTagResolver) FindByNames(_ context.Context, names []string) ([]models.QuestionTag, error) {
	var out []models.QuestionTag
	for _, name := range names {
		if tag, ok := m.tags[name]; ok {
			out = append(out, tag)
		}
	}
	return out, nil
}

func (m *mockTagResolver) CreateMany(_ context.Context, names []string) ([]models.QuestionTag, error) {
	var out []models.QuestionTag
	for _, name := range names {
		tag := models.QuestionTag{ID: "tag-" + name, Name: name, IsActive: true}
		if m.tags == nil {
			m.tags = make(map[string]models.QuestionTag)
		}
		m.tags[name] = tag
		m.minted = append(m.minted, name)
		out = append(out, tag)
	}
	return out, nil
}

type mockBranchResolver struct {
	branches map[string]models.ExamBranch
}

func (m *mockBranchResolver) FindByNames(_ context.Context, names []string) ([]models.ExamBranch, error) {
	var out []models.ExamBranch
	for _, name := range names {
		if branch, ok := m.branches[name]; ok {
			out = append(out, branch)
		}
	}
	return out, nil
}

type mockQuestionStore struct {
	count    int
	existing map[string]bool
	inserted []repository.QuestionInsert
}

func (m *mockQuestionStore) Count(_ context.Context) (int, error) {
	return m.count, nil
}

func (m *mockQuestionStore) ExistingLinks(_ context.Context, links []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, link := range links {
		if m.existing[link] {
			out[link] = true
		}
	}
	return out, nil
}

func (m *mockQuestionStore) InsertBatch(_ context.Context, inserts []repository.QuestionInsert) error {
	m.inserted = append(m.inserted, inserts...)
	return nil
}

func newImportFixture() (*QuestionImportService, *mockQuestionStore, *mockTagResolver) {
	categories := &mockCategoryResolver{categories: map[string]models.QuestionCategory{
		"algorithms": {ID: "cat-1", Name: "algorithms", SubjectID: "subj-1"},
		"orphan":     {ID: "cat-x", Name: "orphan", SubjectID: "subj-missing"},
	}}
	subjects := &mockSubjectResolver{subjects: map[string]models.Subject{
		"subj-1": {ID: "subj-1", Name: "algorithms-and-data-structures"},
	}}
	subCategories := &mockSubCategoryResolver{byCategory: map[string][]models.SubCategory{
		"cat-1": {
			{ID: "sub-1", Name: "algorithms"},
			{ID: "sub-2", Name: "sorting"},
		},
		"cat-x": {{ID: "sub-x", Name: "orphan"}},
	}}
	tags := &mockTagResolver{tags: map[string]models.QuestionTag{
		"algorithms":        {ID: "tag-algorithms", Name: "algorithms", IsActive: true},
		"sorting":           {ID: "tag-sorting", Name: "sorting", IsActive: true},
		"gate-2020":         {ID: "tag-gate-2020", Name: "gate-2020", IsActive: true},
		"gate-2015":         {ID: "tag-gate-2015", Name: "gate-2015", IsActive: true},
		"retired-tag":       {ID: "tag-retired", Name: "retired-tag", IsActive: false},
		"numerical-answers": {ID: "tag-nat", Name: "numerical-answers", IsActive: true},
	}}
	branches := &mockBranchResolver{branches: map[string]models.ExamBranch{
		"gate-cse": {ID: "branch-1", Name: "gate-cse", ExamTagNames: pq.StringArray{"gate-2020", "gate-2015"}},
	}}
	store := &mockQuestionStore{existing: map[string]bool{}}

	svc := NewQuestionImportService(categories, subjects, subCategories, tags, branches, store, ImportConfig{}, zap.NewNop())
	return svc, store, tags
}

func mcqRecord(title, link string) models.QuestionRecord {
	return models.QuestionRecord{
		Title:    title,
		Content:  "content of " + title,
		Category: "Algorithms",
		Tags:     []string{"algorithms", "sorting", "gate-2020"},
		Answer:   strAnswer("B"),
		Link:     link,
	}
}

func TestImportBulkHappyPath(t *testing.T) {
	svc, store, _ := newImportFixture()

	resp, err := svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions:       map[string]models.QuestionRecord{"q1": mcqRecord("Quick sort", "https://example.com/q1")},
		ExamBranchNames: []string{"GATE CSE"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bulk question import processed", resp.Message)
	assert.Equal(t, 1, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Successful)
	assert.Equal(t, 0, resp.Summary.Failed)
	require.Len(t, store.inserted, 1)

	q := store.inserted[0].Question
	assert.Equal(t, "Quick sort", q.Title)
	assert.Equal(t, "sub-2", q.SubCategoryID) // tag "sorting" beats category self-match
	assert.Equal(t, "cat-1", q.QuestionCategoryID)
	assert.Equal(t, "algorithms-and-data-structures", q.SubjectName)
	assert.Equal(t, 2020, q.Year)
	assert.True(t, q.IsActive)
	require.NotNil(t, q.CorrectAnswer)
	assert.Equal(t, "B", *q.CorrectAnswer)
	assert.Equal(t, []string{"branch-1"}, store.inserted[0].ExamBranchIDs)
	assert.Contains(t, store.inserted[0].TagIDs, "tag-sorting")
}

func TestImportBulkQuestionNumbering(t *testing.T) {
	svc, store, _ := newImportFixture()
	store.count = 4 // four questions already stored

	resp, err := svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions: map[string]models.QuestionRecord{
			"a": mcqRecord("First", "https://example.com/a"),
			"b": mcqRecord("Second", "https://example.com/b"),
		},
		ExamBranchNames: []string{"gate-cse"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Summary.Successful)
	require.Len(t, store.inserted, 2)

	base := 100000 + 4*3
	for i, in := range store.inserted {
		lower := base + (i+1)*3
		assert.GreaterOrEqual(t, in.Question.QuestionNumber, lower)
		assert.Less(t, in.Question.QuestionNumber, lower+3)
	}
	// Sorted payload keys: "a" before "b".
	assert.Equal(t, "First", store.inserted[0].Question.Title)
	assert.Equal(t, "Second", store.inserted[1].Question.Title)
}

func TestImportBulkUnknownCategoryIsolated(t *testing.T) {
	svc, store, _ := newImportFixture()

	bad := mcqRecord("Bad one", "https://example.com/bad")
	bad.Category = "Quantum Computing"

	resp, err := svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions: map[string]models.QuestionRecord{
			"q1": bad,
			"q2": mcqRecord("Good one", "https://example.com/good"),
		},
		ExamBranchNames: []string{"gate-cse"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Summary.Successful)
	assert.Equal(t, 1, resp.Summary.Failed)
	require.Len(t, resp.Results.Errors, 1)
	assert.Equal(t, "Question category 'Quantum Computing' not found", resp.Results.Errors[0].Error)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "Good one", store.inserted[0].Question.Title)
}

func TestImportBulkSubjectMissing(t *testing.T) {
	svc, _, _ := newImportFixture()

	rec := mcqRecord("Orphan question", "https://example.com/orphan")
	rec.Category = "Orphan"
	rec.Tags = []string{"orphan", "gate-2020"}

	resp, err := svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions:       map[string]models.QuestionRecord{"q1": rec},
		ExamBranchNames: []string{"gate-cse"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results.Errors, 1)
	assert.Equal(t, "Subject not found for category 'Orphan'", resp.Results.Errors[0].Error)
}

func TestImportBulkInactiveTagBucket(t *testing.T) {
	svc, store, _ := newImportFixture()

	rec := mcqRecord("Retired", "https://example.com/retired")
	rec.Tags = append(rec.Tags, "retired-tag")

	resp, err := svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions:       map[string]models.QuestionRecord{"q1": rec},
		ExamBranchNames: []string{"gate-cse"},
	})
	require.NoError(t, err)

	assert.Empty(t, store.inserted)
	assert.Equal(t, 1, resp.Summary.InactiveTags)
	assert.Equal(t, 0, resp.Summary.Failed)
	require.Len(t, resp.Results.InactiveTagResults, 1)
	assert.Equal(t, []string{"retired-tag"}, resp.Results.InactiveTagResults[0].InactiveTags)
}

func TestImportBulkDuplicateLink(t *testing.T) {
	svc, store, _ := newImportFixture()
	store.existing["https://example.com/dup"] = true

	resp, err := svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions:       map[string]models.QuestionRecord{"q1": mcqRecord("Dup", "https://example.com/dup")},
		ExamBranchNames: []string{"gate-cse"},
	})
	require.NoError(t, err)

	assert.Empty(t, store.inserted)
	assert.Equal(t, 1, resp.Summary.AlreadyExists)
	require.Len(t, resp.Results.AlreadyExists, 1)
	assert.Equal(t, "Question with link 'https://example.com/dup' already exists", resp.Results.AlreadyExists[0].Error)
}

func TestImportBulkYearRejection(t *testing.T) {
	svc, _, _ := newImportFixture()

	// "isro-2019" has a 4-digit substring but is not registered on any
	// resolved branch, so the record lands in the year bucket.
	rec := mcqRecord("ISRO question", "https://example.com/isro")
	rec.Tags = []string{"algorithms", "sorting", "isro-2019"}

	resp, err := svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions:       map[string]models.QuestionRecord{"q1": rec},
		ExamBranchNames: []string{"gate-cse"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Results.YearErrors, 1)
	assert.Equal(t, "No year tag (containing a 4-digit number) found for question 'ISRO question'", resp.Results.YearErrors[0].YearError)
	assert.Equal(t, 1, resp.Summary.Failed)
}

func TestImportBulkNATAnswers(t *testing.T) {
	svc, store, _ := newImportFixture()

	ranged := mcqRecord("NAT range", "https://example.com/nat-range")
	ranged.Tags = []string{"algorithms", "numerical-answers", "gate-2015"}
	ranged.Answer = strAnswer("10:20")

	exact := mcqRecord("NAT exact", "https://example.com/nat-exact")
	exact.Tags = []string{"algorithms", "numerical-answers", "gate-2015"}
	exact.Answer = strAnswer("15")

	invalid := mcqRecord("NAT invalid", "https://example.com/nat-bad")
	invalid.Tags = []string{"algorithms", "numerical-answers", "gate-2015"}
	invalid.Answer = strAnswer("abc")

	resp, err := svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions: map[string]models.QuestionRecord{
			"q1": ranged,
			"q2": exact,
			"q3": invalid,
		},
		ExamBranchNames: []string{"gate-cse"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Summary.Successful)
	require.Len(t, resp.Results.Errors, 1)
	assert.Equal(t, `Invalid numerical answer format. Expected a number or "min:max"`, resp.Results.Errors[0].Error)

	byTitle := make(map[string]*models.Question)
	for _, in := range store.inserted {
		byTitle[in.Question.Title] = in.Question
	}
	require.Contains(t, byTitle, "NAT range")
	assert.Equal(t, 10.0, *byTitle["NAT range"].NumericalMin)
	assert.Equal(t, 20.0, *byTitle["NAT range"].NumericalMax)
	require.Contains(t, byTitle, "NAT exact")
	assert.Equal(t, 15.0, *byTitle["NAT exact"].NumericalMin)
	assert.Equal(t, 15.0, *byTitle["NAT exact"].NumericalMax)
	assert.Equal(t, 2015, byTitle["NAT exact"].Year)
}

func TestImportBulkMintsUnknownTags(t *testing.T) {
	svc, store, tags := newImportFixture()

	rec := mcqRecord("New tag", "https://example.com/new-tag")
	rec.Tags = []string{"algorithms", "sorting", "gate-2020", "Brand New Topic"}

	_, err := svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions:       map[string]models.QuestionRecord{"q1": rec},
		ExamBranchNames: []string{"gate-cse"},
	})
	require.NoError(t, err)

	assert.Contains(t, tags.minted, "brand-new-topic")
	require.Len(t, store.inserted, 1)
	assert.Contains(t, store.inserted[0].TagIDs, "tag-brand-new-topic")
}

func TestImportBulkValidatesRequest(t *testing.T) {
	svc, _, _ := newImportFixture()

	_, err := svc.ImportBulk(context.Background(), models.BulkImportRequest{ExamBranchNames: []string{"gate-cse"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions: map[string]models.QuestionRecord{"q1": mcqRecord("t", "l")},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions:       map[string]models.QuestionRecord{"q1": mcqRecord("t", "l")},
		ExamBranchNames: []string{"unknown-branch"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestImportBulkBatchLimit(t *testing.T) {
	svc, _, _ := newImportFixture()
	svc.config.MaxBatchSize = 2

	questions := make(map[string]models.QuestionRecord)
	for i := 0; i < 3; i++ {
		questions[fmt.Sprintf("q%d", i)] = mcqRecord(fmt.Sprintf("t%d", i), fmt.Sprintf("l%d", i))
	}
	_, err := svc.ImportBulk(context.Background(), models.BulkImportRequest{
		Questions:       questions,
		ExamBranchNames: []string{"gate-cse"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportOneMapsBuckets(t *testing.T) {
	svc, store, _ := newImportFixture()

	success, err := svc.ImportOne(context.Background(), mcqRecord("Single", "https://example.com/single"), []string{"gate-cse"})
	require.NoError(t, err)
	assert.Equal(t, "Single", success.Title)
	assert.Equal(t, "B", success.Answer)

	store.existing["https://example.com/single2"] = true
	_, err = svc.ImportOne(context.Background(), mcqRecord("Dup", "https://example.com/single2"), []string{"gate-cse"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateLink.Code, appErrors.FromError(err).Code)

	missingYear := mcqRecord("No year", "https://example.com/noyear")
	missingYear.Tags = []string{"algorithms", "sorting"}
	_, err = svc.ImportOne(context.Background(), missingYear, []string{"gate-cse"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrYearTagMissing.Code, appErrors.FromError(err).Code)
}
