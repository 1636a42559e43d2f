package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-reviser/reviser-api/internal/models"
)

func questionRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "question_number", "title", "content", "sub_category_id", "sub_category_name", "question_category_id", "question_category_name", "subject_name", "year", "link", "is_active", "correct_answer", "correct_answers", "numerical_min", "numerical_max", "created_at", "updated_at"}).
		AddRow("q-1", 100003, "merge-sort-complexity", "What is the complexity of merge sort?", "sub-1", "sorting", "cat-1", "algorithms", "algorithms-and-data-structures", 2020, "https://example.com/q/1", true, "B", "{}", nil, nil, now, now)
}

func TestExistingLinks(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	rows := sqlmock.NewRows([]string{"link"}).AddRow("https://example.com/q/1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT link FROM questions WHERE link IN (?, ?)")).
		WithArgs("https://example.com/q/1", "https://example.com/q/2").
		WillReturnRows(rows)

	found, err := repo.ExistingLinks(context.Background(), []string{"https://example.com/q/1", "https://example.com/q/2"})
	require.NoError(t, err)
	assert.True(t, found["https://example.com/q/1"])
	assert.False(t, found["https://example.com/q/2"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistingLinksEmptyInput(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	found, err := repo.ExistingLinks(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatchBumpsCounters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO questions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO question_tag_links").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO question_exam_branches").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO questions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO question_exam_branches").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sub_categories SET question_count = question_count + $2")).
		WithArgs("sub-1", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inserts := []QuestionInsert{
		{
			Question:      &models.Question{Title: "q-a", SubCategoryID: "sub-1", Link: "https://example.com/q/a"},
			TagIDs:        []string{"tag-1"},
			ExamBranchIDs: []string{"branch-1"},
		},
		{
			Question:      &models.Question{Title: "q-b", SubCategoryID: "sub-1", Link: "https://example.com/q/b"},
			ExamBranchIDs: []string{"branch-1"},
		},
	}
	require.NoError(t, repo.InsertBatch(context.Background(), inserts))

	assert.NotEmpty(t, inserts[0].Question.ID)
	assert.NotEmpty(t, inserts[1].Question.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQuestionsWithFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("FROM questions WHERE 1=1 AND question_category_id = $1 AND year = $2 AND is_active = $3 ORDER BY year DESC, question_number ASC LIMIT 20 OFFSET 0")).
		WithArgs("cat-1", 2020, true).
		WillReturnRows(questionRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM questions WHERE 1=1 AND question_category_id = $1 AND year = $2 AND is_active = $3")).
		WithArgs("cat-1", 2020, true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	questions, total, err := repo.List(context.Background(), models.QuestionFilter{
		CategoryID: "cat-1",
		Year:       2020,
		IsActive:   &active,
	})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "merge-sort-complexity", questions[0].Title)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQuestionsByCategoryAndSubCategoryName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM questions WHERE 1=1 AND question_category_name = $1 AND sub_category_name = $2 ORDER BY year DESC, question_number ASC LIMIT 20 OFFSET 0")).
		WithArgs("algorithms", "sorting").
		WillReturnRows(questionRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM questions WHERE 1=1 AND question_category_name = $1 AND sub_category_name = $2")).
		WithArgs("algorithms", "sorting").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	questions, total, err := repo.List(context.Background(), models.QuestionFilter{
		CategoryName:    "algorithms",
		SubCategoryName: "sorting",
	})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQuestionsExplicitSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM questions WHERE 1=1 ORDER BY title DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(questionRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.QuestionFilter{SortBy: "title", SortOrder: "desc"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQuestionsTagFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("id IN (SELECT qtl.question_id FROM question_tag_links qtl JOIN question_tags qt ON qt.id = qtl.tag_id WHERE qt.name = $1)")).
		WithArgs("sorting").
		WillReturnRows(questionRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("sorting").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	questions, _, err := repo.List(context.Background(), models.QuestionFilter{Tag: "sorting"})
	require.NoError(t, err)
	assert.Len(t, questions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteQuestionCleansLinks(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT sub_category_id FROM questions WHERE id = $1")).
		WithArgs("q-1").
		WillReturnRows(sqlmock.NewRows([]string{"sub_category_id"}).AddRow("sub-1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM question_tag_links WHERE question_id = $1")).
		WithArgs("q-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM question_exam_branches WHERE question_id = $1")).
		WithArgs("q-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_question_progress WHERE question_id = $1")).
		WithArgs("q-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM questions WHERE id = $1")).
		WithArgs("q-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sub_categories SET question_count = GREATEST(question_count - 1, 0)")).
		WithArgs("sub-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "q-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
