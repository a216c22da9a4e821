package session

import (
	"time"

	"github.com/eduquiz/eduquiz-backend/internal/model"
)

// Clock abstracts wall-clock time so the session engine can be driven by a
// fake clock in tests. The server always injects SystemClock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall-clock implementation.
func SystemClock() Clock { return systemClock{} }

// SessionClock owns a session's fixed deadline and derives the countdown
// from it on every call, so the remaining time never drifts from missed or
// delayed ticks. Expiry is latched and reported exactly once.
type SessionClock struct {
	clock    Clock
	deadline time.Time
	expired  bool
}

// NewSessionClock computes the session deadline from the quiz configuration:
//
//   - Proctored ("test") quizzes with a configured start time share one
//     global deadline of startTime + duration. A student joining late gets
//     the remainder, never extra time.
//   - Practice quizzes (or tests without a start time) run a personal
//     deadline of now + duration.
//
// The duration falls back to the quiz default when absent or unparseable.
func NewSessionClock(clock Clock, quiz *model.Quiz) *SessionClock {
	d := quiz.Duration()

	var deadline time.Time
	if quiz.Mode == model.QuizModeTest && quiz.StartTime != nil {
		deadline = quiz.StartTime.Add(d)
	} else {
		deadline = clock.Now().Add(d)
	}

	return &SessionClock{clock: clock, deadline: deadline}
}

// Deadline returns the fixed session deadline.
func (c *SessionClock) Deadline() time.Time { return c.deadline }

// SecondsRemaining recomputes the countdown from the deadline, floored at 0.
func (c *SessionClock) SecondsRemaining() int {
	remaining := c.deadline.Sub(c.clock.Now())
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}

// Tick returns the current countdown and whether the deadline has just
// passed. The expired signal fires on exactly one call; subsequent calls
// report zero remaining with expired == false.
func (c *SessionClock) Tick() (secondsRemaining int, expired bool) {
	secondsRemaining = c.SecondsRemaining()
	if secondsRemaining > 0 || c.expired {
		return secondsRemaining, false
	}
	c.expired = true
	return 0, true
}
