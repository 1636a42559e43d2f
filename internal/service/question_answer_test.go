package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-reviser/reviser-api/internal/models"
)

func strAnswer(s string) models.AnswerValue {
	return models.AnswerValue{Str: s, IsStr: true}
}

func listAnswer(items ...string) models.AnswerValue {
	return models.AnswerValue{List: items, IsList: true}
}

func numAnswer(n float64) models.AnswerValue {
	return models.AnswerValue{Num: n, IsNum: true}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "operating-systems", NormalizeName("  Operating   Systems "))
	assert.Equal(t, "gate-2020", NormalizeName("GATE-2020"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestKindFromTagsPrecedence(t *testing.T) {
	assert.Equal(t, models.KindMCQ, models.KindFromTags([]string{"algorithms", "gate-2020"}))
	assert.Equal(t, models.KindMSQ, models.KindFromTags([]string{"multiple-selects"}))
	assert.Equal(t, models.KindNAT, models.KindFromTags([]string{"multiple-selects", "numerical-answers"}))
	assert.Equal(t, models.KindDescriptive, models.KindFromTags([]string{"numerical-answers", "descriptive", "multiple-selects"}))
}

func TestValidateAnswerMCQ(t *testing.T) {
	fields, err := validateAnswer(models.KindMCQ, strAnswer("B"))
	require.NoError(t, err)
	require.NotNil(t, fields.CorrectAnswer)
	assert.Equal(t, "B", *fields.CorrectAnswer)

	_, err = validateAnswer(models.KindMCQ, strAnswer("   "))
	require.EqualError(t, err, "Single choice questions require a correct answer")

	_, err = validateAnswer(models.KindMCQ, listAnswer("A", "B"))
	require.EqualError(t, err, "Single choice questions require a correct answer")
}

func TestValidateAnswerMSQ(t *testing.T) {
	fields, err := validateAnswer(models.KindMSQ, listAnswer("A", "C"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, []string(fields.CorrectAnswers))

	_, err = validateAnswer(models.KindMSQ, listAnswer())
	require.EqualError(t, err, "Multiple select questions require at least one correct answer")

	_, err = validateAnswer(models.KindMSQ, strAnswer("A"))
	require.EqualError(t, err, "Multiple select questions require at least one correct answer")
}

func TestValidateAnswerNAT(t *testing.T) {
	fields, err := validateAnswer(models.KindNAT, strAnswer("10:20"))
	require.NoError(t, err)
	require.NotNil(t, fields.NumericalMin)
	require.NotNil(t, fields.NumericalMax)
	assert.Equal(t, 10.0, *fields.NumericalMin)
	assert.Equal(t, 20.0, *fields.NumericalMax)

	fields, err = validateAnswer(models.KindNAT, strAnswer("15"))
	require.NoError(t, err)
	assert.Equal(t, 15.0, *fields.NumericalMin)
	assert.Equal(t, 15.0, *fields.NumericalMax)

	fields, err = validateAnswer(models.KindNAT, numAnswer(42.5))
	require.NoError(t, err)
	assert.Equal(t, 42.5, *fields.NumericalMin)
	assert.Equal(t, 42.5, *fields.NumericalMax)

	_, err = validateAnswer(models.KindNAT, strAnswer("abc"))
	require.EqualError(t, err, `Invalid numerical answer format. Expected a number or "min:max"`)

	_, err = validateAnswer(models.KindNAT, strAnswer("abc:def"))
	require.EqualError(t, err, `Invalid numerical answer range format. Expected "min:max"`)

	_, err = validateAnswer(models.KindNAT, listAnswer("10"))
	require.EqualError(t, err, "Numerical answer questions require a valid number or range")
}

func TestValidateAnswerDescriptiveIgnoresPayload(t *testing.T) {
	fields, err := validateAnswer(models.KindDescriptive, strAnswer("anything"))
	require.NoError(t, err)
	assert.Nil(t, fields.CorrectAnswer)
	assert.Empty(t, fields.CorrectAnswers)
	assert.Nil(t, fields.NumericalMin)
}

func TestExtractYear(t *testing.T) {
	branchTags := []string{"gate-2020", "gate-2015"}

	year, ok := extractYear([]string{"algorithms", "gate-2020"}, branchTags)
	require.True(t, ok)
	assert.Equal(t, 2020, year)

	// First qualifying tag wins in tag order.
	year, ok = extractYear([]string{"gate-2015", "gate-2020"}, branchTags)
	require.True(t, ok)
	assert.Equal(t, 2015, year)

	// Corroboration is by digit substring, not exact tag name: a branch
	// carrying "gate-2015" vouches for any tag containing "2015".
	year, ok = extractYear([]string{"2015-set1"}, branchTags)
	require.True(t, ok)
	assert.Equal(t, 2015, year)

	// No branch tag contains "2019".
	_, ok = extractYear([]string{"isro-2019"}, branchTags)
	assert.False(t, ok)

	_, ok = extractYear([]string{"algorithms", "sorting"}, branchTags)
	assert.False(t, ok)
}

func TestDisplayAnswer(t *testing.T) {
	answer := "C"
	assert.Equal(t, "C", displayAnswer(&models.Question{CorrectAnswer: &answer}))

	assert.Equal(t, []string{"A", "B"}, displayAnswer(&models.Question{CorrectAnswers: []string{"A", "B"}}))

	min, max := 1.5, 2.5
	assert.Equal(t, models.NumericalRange{Min: 1.5, Max: 2.5}, displayAnswer(&models.Question{NumericalMin: &min, NumericalMax: &max}))

	assert.Equal(t, DescriptiveAnswerSentinel, displayAnswer(&models.Question{}))
}

func TestRenormalizeMathDelimiters(t *testing.T) {
	in := "Cost is $$O(n \\log n)$$ where $n$ is input size"
	out := RenormalizeMathDelimiters(in)
	assert.Equal(t, `Cost is \[O(n \log n)\] where \(n\) is input size`, out)

	// Content without math stays untouched.
	assert.Equal(t, "no math here", RenormalizeMathDelimiters("no math here"))
}
