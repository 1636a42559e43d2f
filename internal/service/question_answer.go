package service

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/go-reviser/reviser-api/internal/models"
)

// DescriptiveAnswerSentinel is what API responses show for questions that
// carry no real answer payload.
const DescriptiveAnswerSentinel = "N/A"

var yearRe = regexp.MustCompile(`\d{4}`)

// answerFields holds the persisted answer columns resolved from a record's
// polymorphic payload. Exactly one group is populated per question kind.
type answerFields struct {
	CorrectAnswer  *string
	CorrectAnswers pq.StringArray
	NumericalMin   *float64
	NumericalMax   *float64
}

// validateAnswer enforces the answer shape contract for the resolved kind.
// Error messages are part of the import API surface and must stay stable.
func validateAnswer(kind models.QuestionKind, answer models.AnswerValue) (answerFields, error) {
	var out answerFields

	switch kind {
	case models.KindDescriptive:
		// Descriptive questions never persist an answer, whatever was sent.
		return out, nil

	case models.KindNAT:
		switch {
		case answer.IsNum:
			min, max := answer.Num, answer.Num
			out.NumericalMin = &min
			out.NumericalMax = &max
			return out, nil
		case answer.IsStr:
			return parseNumericalString(answer.Str)
		default:
			return out, fmt.Errorf("Numerical answer questions require a valid number or range")
		}

	case models.KindMSQ:
		if !answer.IsList || len(answer.List) == 0 {
			return out, fmt.Errorf("Multiple select questions require at least one correct answer")
		}
		out.CorrectAnswers = pq.StringArray(answer.List)
		return out, nil

	default: // MCQ
		if !answer.IsStr || strings.TrimSpace(answer.Str) == "" {
			return out, fmt.Errorf("Single choice questions require a correct answer")
		}
		value := answer.Str
		out.CorrectAnswer = &value
		return out, nil
	}
}

func parseNumericalString(s string) (answerFields, error) {
	var out answerFields
	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		min, errMin := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		max, errMax := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errMin != nil || errMax != nil {
			return out, fmt.Errorf(`Invalid numerical answer range format. Expected "min:max"`)
		}
		out.NumericalMin = &min
		out.NumericalMax = &max
		return out, nil
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return out, fmt.Errorf(`Invalid numerical answer format. Expected a number or "min:max"`)
	}
	out.NumericalMin = &value
	out.NumericalMax = &value
	return out, nil
}

// extractYear scans tags in order and parses the 4-digit year of the first
// tag carrying one. The year only counts when some exam tag name registered
// on a resolved branch contains those digits as a substring, so "2015-set1"
// is corroborated by a branch carrying "gate-2015".
func extractYear(tags []string, examTagNames []string) (int, bool) {
	for _, tag := range tags {
		match := yearRe.FindString(tag)
		if match == "" {
			continue
		}
		if !corroboratedByBranch(examTagNames, match) {
			continue
		}
		year, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		return year, true
	}
	return 0, false
}

func corroboratedByBranch(examTagNames []string, digits string) bool {
	for _, name := range examTagNames {
		if strings.Contains(name, digits) {
			return true
		}
	}
	return false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// displayAnswer renders the answer payload of a stored question for API
// responses, substituting the sentinel for descriptive questions.
func displayAnswer(q *models.Question) interface{} {
	switch {
	case q.CorrectAnswer != nil:
		return *q.CorrectAnswer
	case len(q.CorrectAnswers) > 0:
		return []string(q.CorrectAnswers)
	case q.NumericalMin != nil && q.NumericalMax != nil:
		return models.NumericalRange{Min: *q.NumericalMin, Max: *q.NumericalMax}
	default:
		return DescriptiveAnswerSentinel
	}
}
