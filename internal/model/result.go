package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the immutable record of one completed quiz session. History is
// append-only per (student, quiz) pair.
type Result struct {
	ID              uuid.UUID `json:"id"`
	QuizID          uuid.UUID `json:"quizId"`
	StudentID       int       `json:"studentId"`
	StudentName     string    `json:"studentName"`
	Score           float64   `json:"score"`
	TotalQuestions  int       `json:"totalQuestions"`
	SubmittedAt     time.Time `json:"submittedAt"`
	DurationSeconds int       `json:"durationSeconds"`
	PointsAwarded   float64   `json:"pointsAwarded"`
}

// StudentStats aggregates a student's result history.
type StudentStats struct {
	TotalQuizzes int     `json:"totalQuizzes"`
	AvgScore     float64 `json:"avgScore"`
	TotalSeconds int64   `json:"totalSeconds"`
}
