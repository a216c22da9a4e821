package model

import (
	"time"

	"github.com/google/uuid"
)

// Violation actions, matching the monitor escalation that produced the event.
const (
	ViolationActionWarned    = "warned"
	ViolationActionSubmitted = "submitted"
)

// SessionViolation is one audit-log row for a loss-of-visibility event
// during a proctored session.
type SessionViolation struct {
	ID             int64     `json:"id"`
	QuizID         uuid.UUID `json:"quiz_id"`
	StudentID      int       `json:"student_id"`
	ViolationCount int       `json:"violation_count"`
	Action         string    `json:"action"`
	RecordedAt     time.Time `json:"recorded_at"`
}
