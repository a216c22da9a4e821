// Package scoring grades a frozen answer snapshot against a quiz's question
// list. Everything here is pure: no clocks, no storage, no side effects, so
// calling Evaluate twice with the same snapshot always yields the same score.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/eduquiz/eduquiz-backend/internal/model"
)

// ShortAnswerTolerance is the maximum absolute difference under which two
// numeric short answers are considered equal.
const ShortAnswerTolerance = 1e-6

// Grouped true/false partial-credit tiers, keyed by the raw count of
// correct sub-answers. Groups are authored with exactly four statements;
// counts above four earn zero. Product is aware of this boundary; do not
// generalize the table to correctCount/n.
const (
	tierOneCorrect    = 0.1
	tierTwoCorrect    = 0.25
	tierThreeCorrect  = 0.5
	fullCreditCorrect = 4
)

// Evaluate computes the total score for a submitted answer set.
//
// Answers are keyed by question ID, or by questionID_subQuestionID for
// grouped true/false sub-items. Malformed questions (nil entries, missing
// correct answers, unparseable points) contribute zero instead of failing —
// one bad question must never void an entire submission.
func Evaluate(questions []*model.Question, answers map[string]string) float64 {
	var total float64

	for _, q := range questions {
		if q == nil {
			continue
		}
		points := q.Points.Float()

		switch q.Type {
		case model.QuestionTypeMCQ:
			// Exact, case-sensitive match against the option text.
			if answers[q.ID] == q.CorrectAnswer && q.CorrectAnswer != "" {
				total += points
			}

		case model.QuestionTypeShort:
			if MatchShortAnswer(answers[q.ID], q.CorrectAnswer) {
				total += points
			}

		case model.QuestionTypeGroupTF:
			total += gradeGroupTF(q, answers, points)
		}
	}

	return total
}

// gradeGroupTF applies the tiered partial-credit rule to one grouped
// true/false question.
func gradeGroupTF(q *model.Question, answers map[string]string, points float64) float64 {
	correctCount := 0
	for _, sq := range q.SubQuestions {
		key := model.SubAnswerKey(q.ID, sq.ID)
		if answers[key] == sq.CorrectAnswer && sq.CorrectAnswer != "" {
			correctCount++
		}
	}

	switch correctCount {
	case 1:
		return tierOneCorrect
	case 2:
		return tierTwoCorrect
	case 3:
		return tierThreeCorrect
	case fullCreditCorrect:
		return points
	default:
		return 0
	}
}

// MatchShortAnswer reports whether a submitted short answer matches the
// expected one. Both sides are trimmed and lower-cased; an exact string
// match wins immediately. Otherwise both are parsed as decimals (comma
// decimal separators normalized) and compared within ShortAnswerTolerance.
// A missing side is never a match and never an error.
func MatchShortAnswer(submitted, expected string) bool {
	if submitted == "" || expected == "" {
		return false
	}

	u := strings.ToLower(strings.TrimSpace(submitted))
	c := strings.ToLower(strings.TrimSpace(expected))
	if u == c {
		return true
	}

	uNum, uErr := strconv.ParseFloat(strings.ReplaceAll(u, ",", "."), 64)
	cNum, cErr := strconv.ParseFloat(strings.ReplaceAll(c, ",", "."), 64)
	if uErr != nil || cErr != nil {
		return false
	}
	return math.Abs(uNum-cNum) < ShortAnswerTolerance
}
