// Package session implements the quiz-taking session engine: a timed state
// machine that owns answer capture, the countdown clock, anti-cheat
// escalation, and the single authoritative submission path.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/eduquiz/eduquiz-backend/internal/scoring"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// View is the session state. Transitions only move forward:
// taking → submitted → reviewing.
type View string

const (
	ViewTaking    View = "taking"
	ViewSubmitted View = "submitted"
	ViewReviewing View = "reviewing"
)

// SubmitTrigger identifies which of the three authorized sources fired the
// submission.
type SubmitTrigger string

const (
	TriggerManual    SubmitTrigger = "manual"
	TriggerTimeout   SubmitTrigger = "timeout"
	TriggerIntegrity SubmitTrigger = "integrity"
)

// Defaults for the reward policy, overridable through Config.
const (
	DefaultPassThreshold         = 8.0
	DefaultPracticeRewardSeconds = 45 * 60
)

var (
	ErrSessionClosed    = errors.New("session is no longer in taking state")
	ErrAlreadySubmitted = errors.New("session was already submitted")
	ErrNotSubmitted     = errors.New("session has not been submitted yet")
)

// Hooks let the transport react to engine-initiated events. Both are called
// without the controller lock held and may be nil.
type Hooks struct {
	// OnWarning fires on the first integrity violation of a proctored session.
	OnWarning func(violations int)
	// OnAutoSubmit fires after a timeout- or integrity-triggered submission.
	OnAutoSubmit func(trigger SubmitTrigger, result *model.Result)
}

// Config assembles a session controller.
type Config struct {
	Quiz    *model.Quiz
	Student *model.Student
	Sink    ResultSink
	Clock   Clock // nil → SystemClock
	Logger  zerolog.Logger
	Hooks   Hooks
	// PassThreshold is the absolute test-mode score needed to earn a point.
	PassThreshold float64
	// PracticeRewardSeconds is the practice-mode reward denominator.
	PracticeRewardSeconds float64
}

// Controller is the session state machine. It is the only component allowed
// to trigger submission, and it guarantees at most one submission per
// session no matter how many triggers fire: the in-flight guard is checked
// and set under the lock before any grading work starts and is never reset,
// not even when persistence fails.
type Controller struct {
	// mu serializes the three async signal sources (ticker, visibility
	// events, user actions) feeding this controller.
	mu sync.Mutex

	quiz    *model.Quiz
	student *model.Student
	wall    Clock
	clock   *SessionClock
	monitor *IntegrityMonitor
	answers *AnswerStore
	sink    ResultSink
	log     zerolog.Logger
	hooks   Hooks

	passThreshold float64
	rewardSeconds float64

	view           View
	submitInFlight bool
	snapshot       map[string]string
	result         *model.Result
}

// NewController starts a session in the taking state. The integrity monitor
// is active only for proctored quizzes; practice sessions are never
// monitored.
func NewController(cfg Config) *Controller {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}
	passThreshold := cfg.PassThreshold
	if passThreshold == 0 {
		passThreshold = DefaultPassThreshold
	}
	rewardSeconds := cfg.PracticeRewardSeconds
	if rewardSeconds == 0 {
		rewardSeconds = DefaultPracticeRewardSeconds
	}

	return &Controller{
		quiz:          cfg.Quiz,
		student:       cfg.Student,
		wall:          clock,
		clock:         NewSessionClock(clock, cfg.Quiz),
		monitor:       NewIntegrityMonitor(cfg.Quiz.Mode == model.QuizModeTest),
		answers:       NewAnswerStore(),
		sink:          cfg.Sink,
		log: cfg.Logger.With().
			Str("component", "session_controller").
			Str("quiz_id", cfg.Quiz.ID.String()).
			Int("student_id", cfg.Student.ID).
			Logger(),
		hooks:         cfg.Hooks,
		passThreshold: passThreshold,
		rewardSeconds: rewardSeconds,
		view:          ViewTaking,
	}
}

// View returns the current session state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SecondsRemaining returns the live countdown.
func (c *Controller) SecondsRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock.SecondsRemaining()
}

// Deadline returns the fixed session deadline.
func (c *Controller) Deadline() time.Time {
	return c.clock.Deadline()
}

// RecordAnswer stores or overwrites one answer while the session is taking.
func (c *Controller) RecordAnswer(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != ViewTaking {
		return ErrSessionClosed
	}
	c.answers.Set(key, value)
	return nil
}

// ResetAnswers discards every captured answer. Only valid while taking, and
// deliberately leaves the clock running: restarting does not buy time.
func (c *Controller) ResetAnswers() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != ViewTaking {
		return ErrSessionClosed
	}
	c.answers.Reset()
	return nil
}

// AnsweredCount returns the number of distinct answered keys.
func (c *Controller) AnsweredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers.Len()
}

// UnansweredCount returns how many more questions exist than answered keys,
// floored at zero. Grouped true/false sub-answers count individually, which
// mirrors the confirmation prompt the students have always seen.
func (c *Controller) UnansweredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.quiz.Questions) - c.answers.Len()
	if n < 0 {
		return 0
	}
	return n
}

// ReportVisibilityLoss feeds one loss-of-visibility event into the
// integrity monitor. Events arriving outside the taking state are no-ops.
// The second violation forces submission through the same guarded path as
// every other trigger.
func (c *Controller) ReportVisibilityLoss(ctx context.Context) Escalation {
	c.mu.Lock()
	if c.view != ViewTaking {
		c.mu.Unlock()
		return EscalationNone
	}
	escalation := c.monitor.RecordViolation()
	violations := c.monitor.Violations()
	c.mu.Unlock()

	switch escalation {
	case EscalationWarn:
		c.log.Warn().Int("violations", violations).Msg("Integrity warning issued")
		if c.hooks.OnWarning != nil {
			c.hooks.OnWarning(violations)
		}
	case EscalationSubmit:
		c.log.Warn().Int("violations", violations).Msg("Integrity violation, forcing submission")
		if result, err := c.submit(ctx, TriggerIntegrity); err == nil {
			if c.hooks.OnAutoSubmit != nil {
				c.hooks.OnAutoSubmit(TriggerIntegrity, result)
			}
		}
	}
	return escalation
}

// Tick advances the clock once. When the deadline passes, the latched
// expiry signal forces submission exactly once.
func (c *Controller) Tick(ctx context.Context) {
	c.mu.Lock()
	if c.view != ViewTaking {
		c.mu.Unlock()
		return
	}
	_, expired := c.clock.Tick()
	c.mu.Unlock()

	if !expired {
		return
	}

	c.log.Info().Msg("Session deadline reached, forcing submission")
	if result, err := c.submit(ctx, TriggerTimeout); err == nil {
		if c.hooks.OnAutoSubmit != nil {
			c.hooks.OnAutoSubmit(TriggerTimeout, result)
		}
	}
}

// Run drives the countdown with a one-second ticker until the session
// leaves the taking state or ctx is canceled. The ticker only schedules the
// checks; the remaining time itself always derives from the deadline.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
			if c.View() != ViewTaking {
				return
			}
		}
	}
}

// Submit performs a manual, student-initiated submission.
func (c *Controller) Submit(ctx context.Context) (*model.Result, error) {
	return c.submit(ctx, TriggerManual)
}

// submit is the single submission path shared by all three triggers.
func (c *Controller) submit(ctx context.Context, trigger SubmitTrigger) (*model.Result, error) {
	c.mu.Lock()
	if c.submitInFlight {
		c.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	if c.view != ViewTaking {
		c.mu.Unlock()
		return nil, ErrSessionClosed
	}
	// The guard is durable: once set it is never cleared within this
	// session, so concurrent triggers and sink failures cannot cause a
	// second submission.
	c.submitInFlight = true
	snapshot := c.answers.Snapshot()
	secondsRemaining := c.clock.SecondsRemaining()
	c.mu.Unlock()

	score := scoring.Evaluate(c.quiz.Questions, snapshot)

	durationSeconds := int(c.quiz.Duration().Seconds()) - secondsRemaining
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	earned := c.pointsAwarded(score, durationSeconds)

	result := &model.Result{
		ID:              uuid.New(),
		QuizID:          c.quiz.ID,
		StudentID:       c.student.ID,
		StudentName:     c.student.Name,
		Score:           score,
		TotalQuestions:  len(c.quiz.Questions),
		SubmittedAt:     c.wall.Now().UTC(),
		DurationSeconds: durationSeconds,
		PointsAwarded:   earned,
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.result = result
	c.view = ViewSubmitted
	c.mu.Unlock()

	c.log.Info().
		Str("trigger", string(trigger)).
		Float64("score", score).
		Int("duration_seconds", durationSeconds).
		Float64("points_awarded", earned).
		Msg("Session submitted")

	// Persistence is asynchronous by contract: the student already sees the
	// locally-held result, and a sink failure must not reopen the session.
	if err := c.sink.SaveResult(ctx, result); err != nil {
		c.log.Error().Err(err).Msg("Result persistence failed; local result stands")
		return result, nil
	}
	if earned > 0 {
		if err := c.sink.AddPoints(ctx, c.student.ID, earned); err != nil {
			c.log.Error().Err(err).Msg("Point award failed")
		}
	}

	return result, nil
}

// pointsAwarded computes the reward-point delta for a completed session.
//
// Test mode pays a flat 1 point for reaching the pass threshold on the
// quiz's natural scale. Practice mode pays time spent divided by the reward
// denominator regardless of score, uncapped — rewarding invested time is
// the confirmed product policy, not an accident.
func (c *Controller) pointsAwarded(score float64, durationSeconds int) float64 {
	switch c.quiz.Mode {
	case model.QuizModeTest:
		if score >= c.passThreshold {
			return 1
		}
		return 0
	case model.QuizModePractice:
		return float64(durationSeconds) / c.rewardSeconds
	default:
		return 0
	}
}

// Result returns the computed result, or nil while still taking.
func (c *Controller) Result() *model.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// IntegrityState exposes the monitor state for transports.
func (c *Controller) IntegrityState() IntegrityState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.monitor.State()
}

// Review moves a submitted session into the read-only reviewing state.
func (c *Controller) Review() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != ViewSubmitted {
		return ErrNotSubmitted
	}
	c.view = ViewReviewing
	return nil
}

// ReviewSheet pairs the full question list (correct answers and solutions
// included) with the frozen answer snapshot. Only available in reviewing.
type ReviewSheet struct {
	Questions []*model.Question `json:"questions"`
	Answers   map[string]string `json:"answers"`
	Result    *model.Result     `json:"result"`
}

// ReviewSheet returns the review payload, or an error outside reviewing.
func (c *Controller) ReviewSheet() (*ReviewSheet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != ViewReviewing {
		return nil, ErrNotSubmitted
	}
	answers := make(map[string]string, len(c.snapshot))
	for k, v := range c.snapshot {
		answers[k] = v
	}
	return &ReviewSheet{
		Questions: c.quiz.Questions,
		Answers:   answers,
		Result:    c.result,
	}, nil
}
