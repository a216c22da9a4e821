package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eduquiz/eduquiz-backend/internal/config"
	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/eduquiz/eduquiz-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QuizCacheTTL bounds how stale a cached quiz document can get when the
// cache is not explicitly invalidated after an edit.
const QuizCacheTTL = 12 * time.Hour

var ErrQuizNotFound = errors.New("quiz not found")

// QuizService serves quiz documents with a Redis read-through cache. Two
// views of every quiz are cached separately: the sanitized payload handed to
// students and the full grading document with answer keys. The student
// payload never carries answers.
type QuizService struct {
	quizRepo *repository.QuizRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(quizRepo *repository.QuizRepository, rdb *redis.Client, log zerolog.Logger) *QuizService {
	return &QuizService{
		quizRepo: quizRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "quiz_service").Logger(),
	}
}

// GetPayload returns the sanitized student view of a quiz, from cache when
// possible. A cache miss or a Redis outage falls back to Postgres.
func (s *QuizService) GetPayload(ctx context.Context, quizID uuid.UUID) (*model.QuizPayload, error) {
	key := config.CacheKey.QuizPayloadKey(quizID.String())

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		payload := &model.QuizPayload{}
		if err := json.Unmarshal([]byte(cached), payload); err == nil {
			return payload, nil
		}
		s.log.Warn().Str("quiz_id", quizID.String()).Msg("Corrupt cached payload, refetching")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Redis unavailable, serving payload from Postgres")
	}

	quiz, err := s.fetchQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	payload := quiz.Sanitize()
	s.cacheJSON(ctx, key, payload)
	return payload, nil
}

// GetGrading returns the full quiz document including answer keys. Only the
// session engine may see this view.
func (s *QuizService) GetGrading(ctx context.Context, quizID uuid.UUID) (*model.Quiz, error) {
	key := config.CacheKey.QuizGradingKey(quizID.String())

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		quiz := &model.Quiz{}
		if err := json.Unmarshal([]byte(cached), quiz); err == nil {
			return quiz, nil
		}
		s.log.Warn().Str("quiz_id", quizID.String()).Msg("Corrupt cached grading doc, refetching")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Redis unavailable, serving grading doc from Postgres")
	}

	quiz, err := s.fetchQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	s.cacheJSON(ctx, key, quiz)
	return quiz, nil
}

// ListPublished returns the sanitized lobby listing for a grade.
func (s *QuizService) ListPublished(ctx context.Context, grade string) ([]*model.QuizPayload, error) {
	quizzes, err := s.quizRepo.ListPublished(ctx, grade)
	if err != nil {
		return nil, fmt.Errorf("list published quizzes: %w", err)
	}

	payloads := make([]*model.QuizPayload, 0, len(quizzes))
	for _, q := range quizzes {
		payloads = append(payloads, q.Sanitize())
	}
	return payloads, nil
}

// Invalidate drops both cached views of a quiz. Called after every edit.
func (s *QuizService) Invalidate(ctx context.Context, quizID uuid.UUID) {
	id := quizID.String()
	if err := s.rdb.Del(ctx,
		config.CacheKey.QuizPayloadKey(id),
		config.CacheKey.QuizGradingKey(id),
	).Err(); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", id).Msg("Cache invalidation failed")
	}
}

// PrewarmAllCaches loads every published quiz into Redis so the first wave
// of students at a scheduled start does not stampede Postgres.
func (s *QuizService) PrewarmAllCaches(ctx context.Context) error {
	quizzes, err := s.quizRepo.ListPublished(ctx, "")
	if err != nil {
		return fmt.Errorf("list quizzes for prewarm: %w", err)
	}

	warmed := 0
	for _, quiz := range quizzes {
		id := quiz.ID.String()
		s.cacheJSON(ctx, config.CacheKey.QuizPayloadKey(id), quiz.Sanitize())
		s.cacheJSON(ctx, config.CacheKey.QuizGradingKey(id), quiz)
		warmed++
	}

	s.log.Info().Int("count", warmed).Msg("Quiz caches prewarmed")
	return nil
}

func (s *QuizService) fetchQuiz(ctx context.Context, quizID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizService) cacheJSON(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, QuizCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
