package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/eduquiz/eduquiz-backend/internal/config"
	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/eduquiz/eduquiz-backend/internal/repository"
	"github.com/eduquiz/eduquiz-backend/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Join errors, mapped to user-facing responses by the transport.
var (
	ErrQuizNotAvailable = errors.New("quiz is not available")
	ErrQuizNotStarted   = errors.New("quiz has not started yet")
	ErrQuizEnded        = errors.New("quiz has already ended")
	ErrAlreadyAttempted = errors.New("quiz was already attempted")
)

// SessionService enforces the join rules and assembles session engines.
// Practice quizzes can be retaken without limit; proctored quizzes allow a
// single attempt inside their scheduled window.
type SessionService struct {
	cfg         *config.Config
	quizService *QuizService
	resultRepo  *repository.ResultRepository
	sink        session.ResultSink
	clock       session.Clock
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService. The sink is shared by all
// sessions; clock may be nil for wall-clock time.
func NewSessionService(
	cfg *config.Config,
	quizService *QuizService,
	resultRepo *repository.ResultRepository,
	sink session.ResultSink,
	clock session.Clock,
	log zerolog.Logger,
) *SessionService {
	if clock == nil {
		clock = session.SystemClock()
	}
	return &SessionService{
		cfg:         cfg,
		quizService: quizService,
		resultRepo:  resultRepo,
		sink:        sink,
		clock:       clock,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// StartSession validates the join rules and returns a running session
// controller plus the sanitized payload for the client. The controller holds
// the grading document; the payload never carries answers.
func (s *SessionService) StartSession(
	ctx context.Context,
	quizID uuid.UUID,
	student *model.Student,
	hooks session.Hooks,
) (*session.Controller, *model.QuizPayload, error) {
	quiz, err := s.quizService.GetGrading(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	if !quiz.IsPublished {
		return nil, nil, ErrQuizNotAvailable
	}

	if quiz.Mode == model.QuizModeTest {
		if err := s.checkTestWindow(quiz); err != nil {
			return nil, nil, err
		}

		attempted, err := s.resultRepo.HasResult(ctx, quizID, student.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("check prior attempt: %w", err)
		}
		if attempted {
			return nil, nil, ErrAlreadyAttempted
		}
	}

	controller := session.NewController(session.Config{
		Quiz:                  quiz,
		Student:               student,
		Sink:                  s.sink,
		Clock:                 s.clock,
		Logger:                s.log,
		Hooks:                 hooks,
		PassThreshold:         s.cfg.PassThreshold,
		PracticeRewardSeconds: s.cfg.PracticeRewardSeconds,
	})

	s.log.Info().
		Str("quiz_id", quizID.String()).
		Int("student_id", student.ID).
		Str("mode", string(quiz.Mode)).
		Int("seconds_remaining", controller.SecondsRemaining()).
		Msg("Session started")

	return controller, quiz.Sanitize(), nil
}

// checkTestWindow verifies a proctored quiz is inside its scheduled window.
// Joining after the deadline is pointless even when EndTime allows it.
func (s *SessionService) checkTestWindow(quiz *model.Quiz) error {
	now := s.clock.Now()

	if quiz.StartTime != nil {
		if now.Before(*quiz.StartTime) {
			return ErrQuizNotStarted
		}
		if !now.Before(quiz.StartTime.Add(quiz.Duration())) {
			return ErrQuizEnded
		}
	}
	if quiz.EndTime != nil && now.After(*quiz.EndTime) {
		return ErrQuizEnded
	}
	return nil
}

// History returns a student's past results, newest first.
func (s *SessionService) History(ctx context.Context, studentID, limit int) ([]model.Result, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.resultRepo.ListByStudent(ctx, studentID, limit)
}

// Stats aggregates a student's quiz history.
func (s *SessionService) Stats(ctx context.Context, studentID int) (*model.StudentStats, error) {
	return s.resultRepo.GetStudentStats(ctx, studentID)
}

// Leaderboard returns every result for one quiz, best score first.
func (s *SessionService) Leaderboard(ctx context.Context, quizID uuid.UUID) ([]model.Result, error) {
	return s.resultRepo.ListByQuiz(ctx, quizID)
}
