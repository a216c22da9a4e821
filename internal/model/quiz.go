package model

import (
	"time"

	"github.com/google/uuid"
)

// QuizMode distinguishes free practice from proctored tests.
type QuizMode string

const (
	// QuizModePractice: per-student deadline from join time, unlimited
	// attempts, no integrity monitoring.
	QuizModePractice QuizMode = "practice"
	// QuizModeTest: fixed global deadline, anti-cheat monitoring, one attempt.
	QuizModeTest QuizMode = "test"
)

// DefaultDurationMinutes applies when a quiz carries no usable duration.
const DefaultDurationMinutes = 30

// Quiz is the full quiz document as authored, including correct answers.
// The session engine treats it as read-only.
type Quiz struct {
	ID              uuid.UUID     `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Mode            QuizMode      `json:"type"`
	Grade           string        `json:"grade"`
	Category        string        `json:"category,omitempty"`
	StartTime       *time.Time    `json:"startTime,omitempty"`
	EndTime         *time.Time    `json:"endTime,omitempty"`
	DurationMinutes LenientNumber `json:"durationMinutes"`
	Questions       []*Question   `json:"questions"`
	CreatedAt       time.Time     `json:"createdAt"`
	IsPublished     bool          `json:"isPublished"`
}

// Duration returns the quiz duration with the lenient default applied.
func (q *Quiz) Duration() time.Duration {
	mins := q.DurationMinutes.Float()
	if mins == 0 {
		mins = DefaultDurationMinutes
	}
	return time.Duration(mins * float64(time.Minute))
}

// MaxScore sums the point weights of all valid questions.
func (q *Quiz) MaxScore() float64 {
	var total float64
	for _, question := range q.Questions {
		if question == nil {
			continue
		}
		total += question.Points.Float()
	}
	return total
}

// ─── Student-facing payload (correct answers stripped) ──────────────

// QuizPayload is the Redis-cached quiz sent to students. Correct answers and
// solutions never leave the server before review.
type QuizPayload struct {
	ID              uuid.UUID            `json:"id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Mode            QuizMode             `json:"type"`
	StartTime       *time.Time           `json:"startTime,omitempty"`
	DurationMinutes float64              `json:"durationMinutes"`
	Questions       []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question without its correct answer or solution.
type QuestionForStudent struct {
	ID           string                  `json:"id"`
	Type         QuestionType            `json:"type"`
	Text         string                  `json:"text"`
	Points       float64                 `json:"points"`
	ImageURL     string                  `json:"imageUrl,omitempty"`
	Options      []string                `json:"options,omitempty"`
	SubQuestions []SubQuestionForStudent `json:"subQuestions,omitempty"`
}

// SubQuestionForStudent is a grouped true/false statement without its answer.
type SubQuestionForStudent struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Sanitize builds the student-facing payload from a full quiz document.
// Nil question entries in malformed documents are dropped here so clients
// never see them; the evaluator independently skips them during scoring.
func (q *Quiz) Sanitize() *QuizPayload {
	payload := &QuizPayload{
		ID:              q.ID,
		Title:           q.Title,
		Description:     q.Description,
		Mode:            q.Mode,
		StartTime:       q.StartTime,
		DurationMinutes: q.Duration().Minutes(),
		Questions:       make([]QuestionForStudent, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		if question == nil {
			continue
		}
		qs := QuestionForStudent{
			ID:       question.ID,
			Type:     question.Type,
			Text:     question.Text,
			Points:   question.Points.Float(),
			ImageURL: question.ImageURL,
			Options:  question.Options,
		}
		for _, sq := range question.SubQuestions {
			qs.SubQuestions = append(qs.SubQuestions, SubQuestionForStudent{ID: sq.ID, Text: sq.Text})
		}
		payload.Questions = append(payload.Questions, qs)
	}
	return payload
}
