package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/rs/zerolog"
)

type failingSink struct {
	saveErr error
	saves   int
	points  int
}

func (s *failingSink) SaveResult(context.Context, *model.Result) error {
	s.saves++
	return s.saveErr
}

func (s *failingSink) AddPoints(context.Context, int, float64) error {
	s.points++
	return nil
}

func newTestStudent() *model.Student {
	return &model.Student{ID: 42, StudentCode: "S-042", Name: "Ana Reyes", Grade: "7"}
}

func scoredQuestions() []*model.Question {
	return []*model.Question{
		{ID: "q1", Type: model.QuestionTypeMCQ, Points: 5, Options: []string{"2", "4"}, CorrectAnswer: "4"},
		{ID: "q2", Type: model.QuestionTypeMCQ, Points: 5, Options: []string{"a", "b"}, CorrectAnswer: "b"},
	}
}

func newController(t *testing.T, quiz *model.Quiz, sink ResultSink, clk Clock) *Controller {
	t.Helper()
	if sink == nil {
		sink = NewMemorySink()
	}
	return NewController(Config{
		Quiz:    quiz,
		Student: newTestStudent(),
		Sink:    sink,
		Clock:   clk,
		Logger:  zerolog.Nop(),
	})
}

func TestManualSubmitScoresAndCloses(t *testing.T) {
	clk := newFakeClock()
	quiz := testQuiz(30, clk.Now())
	quiz.Questions = scoredQuestions()
	sink := NewMemorySink()
	c := newController(t, quiz, sink, clk)

	if err := c.RecordAnswer("q1", "4"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if err := c.RecordAnswer("q2", "a"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	clk.Advance(10 * time.Minute)

	result, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Score != 5 {
		t.Fatalf("Score = %v, want 5", result.Score)
	}
	if result.DurationSeconds != 10*60 {
		t.Fatalf("DurationSeconds = %d, want %d", result.DurationSeconds, 10*60)
	}
	if result.TotalQuestions != 2 {
		t.Fatalf("TotalQuestions = %d, want 2", result.TotalQuestions)
	}
	if c.View() != ViewSubmitted {
		t.Fatalf("View() = %s, want %s", c.View(), ViewSubmitted)
	}
	if got := len(sink.Results()); got != 1 {
		t.Fatalf("sink received %d results, want 1", got)
	}
}

func TestSubmitIsExactlyOnce(t *testing.T) {
	clk := newFakeClock()
	quiz := practiceQuiz(1)
	quiz.Questions = scoredQuestions()
	sink := NewMemorySink()
	c := newController(t, quiz, sink, clk)

	// Deadline passes; the tick and a racing manual submit both fire in the
	// same instant. Exactly one must win.
	clk.Advance(2 * time.Minute)
	c.Tick(context.Background())

	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second Submit err = %v, want ErrAlreadySubmitted", err)
	}
	if got := len(sink.Results()); got != 1 {
		t.Fatalf("sink received %d results, want 1", got)
	}
}

func TestTimeoutAutoSubmit(t *testing.T) {
	clk := newFakeClock()
	quiz := practiceQuiz(5)
	quiz.Questions = scoredQuestions()
	c := newController(t, quiz, nil, clk)

	var gotTrigger SubmitTrigger
	c.hooks.OnAutoSubmit = func(trigger SubmitTrigger, result *model.Result) {
		gotTrigger = trigger
		if result == nil {
			t.Error("OnAutoSubmit called with nil result")
		}
	}

	clk.Advance(4 * time.Minute)
	c.Tick(context.Background())
	if c.View() != ViewTaking {
		t.Fatalf("View() before deadline = %s, want %s", c.View(), ViewTaking)
	}

	clk.Advance(2 * time.Minute)
	c.Tick(context.Background())
	if c.View() != ViewSubmitted {
		t.Fatalf("View() after deadline = %s, want %s", c.View(), ViewSubmitted)
	}
	if gotTrigger != TriggerTimeout {
		t.Fatalf("trigger = %s, want %s", gotTrigger, TriggerTimeout)
	}
}

func TestIntegrityWarnsOnceThenForcesSubmit(t *testing.T) {
	clk := newFakeClock()
	quiz := testQuiz(30, clk.Now())
	quiz.Questions = scoredQuestions()
	sink := NewMemorySink()
	c := newController(t, quiz, sink, clk)

	warnings := 0
	c.hooks.OnWarning = func(int) { warnings++ }

	if got := c.ReportVisibilityLoss(context.Background()); got != EscalationWarn {
		t.Fatalf("first visibility loss = %v, want EscalationWarn", got)
	}
	if warnings != 1 {
		t.Fatalf("warnings = %d, want 1", warnings)
	}
	if c.View() != ViewTaking {
		t.Fatalf("View() after warning = %s, want %s", c.View(), ViewTaking)
	}

	if got := c.ReportVisibilityLoss(context.Background()); got != EscalationSubmit {
		t.Fatalf("second visibility loss = %v, want EscalationSubmit", got)
	}
	if c.View() != ViewSubmitted {
		t.Fatalf("View() after forced submit = %s, want %s", c.View(), ViewSubmitted)
	}

	// Further events arrive after submission and must be ignored.
	if got := c.ReportVisibilityLoss(context.Background()); got != EscalationNone {
		t.Fatalf("post-submit visibility loss = %v, want EscalationNone", got)
	}
	if got := len(sink.Results()); got != 1 {
		t.Fatalf("sink received %d results, want 1", got)
	}
}

func TestPracticeSessionIgnoresVisibility(t *testing.T) {
	clk := newFakeClock()
	quiz := practiceQuiz(30)
	quiz.Questions = scoredQuestions()
	c := newController(t, quiz, nil, clk)

	for i := 0; i < 4; i++ {
		if got := c.ReportVisibilityLoss(context.Background()); got != EscalationNone {
			t.Fatalf("practice visibility loss = %v, want EscalationNone", got)
		}
	}
	if c.View() != ViewTaking {
		t.Fatalf("View() = %s, want %s", c.View(), ViewTaking)
	}
}

func TestPointsAwardedTestMode(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]string
		want    float64
	}{
		{"full marks earns the point", map[string]string{"q1": "4", "q2": "b"}, 1},
		{"below threshold earns nothing", map[string]string{"q1": "4"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := newFakeClock()
			quiz := testQuiz(30, clk.Now())
			quiz.Questions = scoredQuestions() // 5 + 5 points, threshold 8
			sink := NewMemorySink()
			c := newController(t, quiz, sink, clk)

			for k, v := range tt.answers {
				if err := c.RecordAnswer(k, v); err != nil {
					t.Fatalf("RecordAnswer: %v", err)
				}
			}

			result, err := c.Submit(context.Background())
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if result.PointsAwarded != tt.want {
				t.Fatalf("PointsAwarded = %v, want %v", result.PointsAwarded, tt.want)
			}
			if got := sink.PointsFor(42); got != tt.want {
				t.Fatalf("sink points = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointsAwardedPracticeMode(t *testing.T) {
	tests := []struct {
		name         string
		durationMins float64
		spend        time.Duration
		want         float64
	}{
		{"45 minutes spent pays one point", 60, 45 * time.Minute, 1},
		{"15 minutes pays a third", 60, 15 * time.Minute, 1.0 / 3.0},
		{"long sessions are uncapped", 120, 90 * time.Minute, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := newFakeClock()
			quiz := practiceQuiz(tt.durationMins)
			quiz.Questions = scoredQuestions()
			c := newController(t, quiz, nil, clk)

			clk.Advance(tt.spend)
			result, err := c.Submit(context.Background())
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if result.PointsAwarded != tt.want {
				t.Fatalf("PointsAwarded = %v, want %v", result.PointsAwarded, tt.want)
			}
		})
	}
}

func TestResetKeepsDeadline(t *testing.T) {
	clk := newFakeClock()
	quiz := practiceQuiz(20)
	quiz.Questions = scoredQuestions()
	c := newController(t, quiz, nil, clk)

	if err := c.RecordAnswer("q1", "4"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	clk.Advance(5 * time.Minute)

	if err := c.ResetAnswers(); err != nil {
		t.Fatalf("ResetAnswers: %v", err)
	}
	if got := c.UnansweredCount(); got != 2 {
		t.Fatalf("UnansweredCount() after reset = %d, want 2", got)
	}
	if got := c.SecondsRemaining(); got != 15*60 {
		t.Fatalf("SecondsRemaining() after reset = %d, want %d", got, 15*60)
	}
}

func TestAnswersRejectedAfterSubmit(t *testing.T) {
	clk := newFakeClock()
	quiz := practiceQuiz(20)
	quiz.Questions = scoredQuestions()
	c := newController(t, quiz, nil, clk)

	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := c.RecordAnswer("q1", "4"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("RecordAnswer after submit err = %v, want ErrSessionClosed", err)
	}
	if err := c.ResetAnswers(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("ResetAnswers after submit err = %v, want ErrSessionClosed", err)
	}
}

func TestReviewFlow(t *testing.T) {
	clk := newFakeClock()
	quiz := practiceQuiz(20)
	quiz.Questions = scoredQuestions()
	c := newController(t, quiz, nil, clk)

	if err := c.Review(); !errors.Is(err, ErrNotSubmitted) {
		t.Fatalf("Review while taking err = %v, want ErrNotSubmitted", err)
	}
	if _, err := c.ReviewSheet(); !errors.Is(err, ErrNotSubmitted) {
		t.Fatalf("ReviewSheet while taking err = %v, want ErrNotSubmitted", err)
	}

	if err := c.RecordAnswer("q1", "4"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := c.Review(); err != nil {
		t.Fatalf("Review: %v", err)
	}
	if c.View() != ViewReviewing {
		t.Fatalf("View() = %s, want %s", c.View(), ViewReviewing)
	}

	sheet, err := c.ReviewSheet()
	if err != nil {
		t.Fatalf("ReviewSheet: %v", err)
	}
	if len(sheet.Questions) != 2 {
		t.Fatalf("sheet questions = %d, want 2", len(sheet.Questions))
	}
	if sheet.Questions[0].CorrectAnswer == "" {
		t.Fatal("review sheet must expose correct answers")
	}
	if sheet.Answers["q1"] != "4" {
		t.Fatalf("sheet answer q1 = %q, want %q", sheet.Answers["q1"], "4")
	}
	if sheet.Result == nil {
		t.Fatal("sheet result is nil")
	}
}

func TestSinkFailureKeepsGuardAndResult(t *testing.T) {
	clk := newFakeClock()
	quiz := practiceQuiz(20)
	quiz.Questions = scoredQuestions()
	sink := &failingSink{saveErr: errors.New("redis down")}
	c := newController(t, quiz, sink, clk)

	result, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit with failing sink: %v", err)
	}
	if result == nil {
		t.Fatal("Submit returned nil result despite local grading succeeding")
	}
	if c.View() != ViewSubmitted {
		t.Fatalf("View() = %s, want %s", c.View(), ViewSubmitted)
	}

	// A failed save never reopens the session for a retry-submit.
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("retry Submit err = %v, want ErrAlreadySubmitted", err)
	}
	if sink.saves != 1 {
		t.Fatalf("sink saves = %d, want 1", sink.saves)
	}
	if c.Result() == nil {
		t.Fatal("Result() is nil after submission")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	clk := newFakeClock()
	quiz := practiceQuiz(30)
	quiz.Questions = scoredQuestions()
	c := newController(t, quiz, nil, clk)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}
