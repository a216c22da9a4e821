package session

import (
	"testing"
	"time"

	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/google/uuid"
)

// fakeClock is a manually advanced Clock for deterministic tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func practiceQuiz(durationMins float64) *model.Quiz {
	return &model.Quiz{
		ID:              uuid.New(),
		Title:           "Fractions drill",
		Mode:            model.QuizModePractice,
		DurationMinutes: model.LenientNumber(durationMins),
	}
}

func testQuiz(durationMins float64, start time.Time) *model.Quiz {
	return &model.Quiz{
		ID:              uuid.New(),
		Title:           "Midterm",
		Mode:            model.QuizModeTest,
		StartTime:       &start,
		DurationMinutes: model.LenientNumber(durationMins),
	}
}

func TestSessionClockPracticeDeadline(t *testing.T) {
	clk := newFakeClock()
	sc := NewSessionClock(clk, practiceQuiz(20))

	if got := sc.SecondsRemaining(); got != 20*60 {
		t.Fatalf("SecondsRemaining() = %d, want %d", got, 20*60)
	}

	clk.Advance(5 * time.Minute)
	if got := sc.SecondsRemaining(); got != 15*60 {
		t.Fatalf("after 5m, SecondsRemaining() = %d, want %d", got, 15*60)
	}
}

func TestSessionClockLateJoinerSharesGlobalDeadline(t *testing.T) {
	clk := newFakeClock()
	start := clk.Now().Add(-10 * time.Minute)
	sc := NewSessionClock(clk, testQuiz(30, start))

	if got := sc.SecondsRemaining(); got != 20*60 {
		t.Fatalf("late joiner SecondsRemaining() = %d, want %d", got, 20*60)
	}
	if want := start.Add(30 * time.Minute); !sc.Deadline().Equal(want) {
		t.Fatalf("Deadline() = %v, want %v", sc.Deadline(), want)
	}
}

func TestSessionClockDefaultDuration(t *testing.T) {
	clk := newFakeClock()
	sc := NewSessionClock(clk, practiceQuiz(0))

	if got := sc.SecondsRemaining(); got != 30*60 {
		t.Fatalf("SecondsRemaining() with zero duration = %d, want %d", got, 30*60)
	}
}

func TestSessionClockExpiryFiresOnce(t *testing.T) {
	clk := newFakeClock()
	sc := NewSessionClock(clk, practiceQuiz(1))

	if _, expired := sc.Tick(); expired {
		t.Fatal("Tick() expired before deadline")
	}

	clk.Advance(2 * time.Minute)

	remaining, expired := sc.Tick()
	if remaining != 0 || !expired {
		t.Fatalf("Tick() = (%d, %v), want (0, true)", remaining, expired)
	}

	// Latched: later ticks stay quiet.
	for i := 0; i < 3; i++ {
		if remaining, expired := sc.Tick(); remaining != 0 || expired {
			t.Fatalf("Tick() after expiry = (%d, %v), want (0, false)", remaining, expired)
		}
	}
}

func TestSessionClockRemainingFlooredAtZero(t *testing.T) {
	clk := newFakeClock()
	sc := NewSessionClock(clk, practiceQuiz(1))

	clk.Advance(time.Hour)
	if got := sc.SecondsRemaining(); got != 0 {
		t.Fatalf("SecondsRemaining() past deadline = %d, want 0", got)
	}
}
