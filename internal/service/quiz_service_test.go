package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/eduquiz/eduquiz-backend/internal/config"
	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestGetPayloadServesFromCache(t *testing.T) {
	mr, rdb := newTestRedis(t)
	// nil repo: a cache hit must never reach Postgres.
	svc := NewQuizService(nil, rdb, zerolog.Nop())

	quizID := uuid.New()
	cached := &model.QuizPayload{
		ID:              quizID,
		Title:           "Geometry basics",
		Mode:            model.QuizModePractice,
		DurationMinutes: 30,
	}
	data, _ := json.Marshal(cached)
	mr.Set(config.CacheKey.QuizPayloadKey(quizID.String()), string(data))

	payload, err := svc.GetPayload(context.Background(), quizID)
	if err != nil {
		t.Fatalf("GetPayload: %v", err)
	}
	if payload.Title != "Geometry basics" || payload.ID != quizID {
		t.Fatalf("payload mismatch: %+v", payload)
	}
}

func TestGetGradingServesFromCache(t *testing.T) {
	mr, rdb := newTestRedis(t)
	svc := NewQuizService(nil, rdb, zerolog.Nop())

	quizID := uuid.New()
	quiz := &model.Quiz{
		ID:    quizID,
		Title: "Midterm",
		Mode:  model.QuizModeTest,
		Questions: []*model.Question{
			{ID: "q1", Type: model.QuestionTypeMCQ, Points: 5, CorrectAnswer: "4"},
		},
	}
	data, _ := json.Marshal(quiz)
	mr.Set(config.CacheKey.QuizGradingKey(quizID.String()), string(data))

	got, err := svc.GetGrading(context.Background(), quizID)
	if err != nil {
		t.Fatalf("GetGrading: %v", err)
	}
	if len(got.Questions) != 1 || got.Questions[0].CorrectAnswer != "4" {
		t.Fatalf("grading doc mismatch: %+v", got)
	}
}

func TestInvalidateDropsBothViews(t *testing.T) {
	mr, rdb := newTestRedis(t)
	svc := NewQuizService(nil, rdb, zerolog.Nop())

	quizID := uuid.New()
	mr.Set(config.CacheKey.QuizPayloadKey(quizID.String()), "{}")
	mr.Set(config.CacheKey.QuizGradingKey(quizID.String()), "{}")

	svc.Invalidate(context.Background(), quizID)

	if mr.Exists(config.CacheKey.QuizPayloadKey(quizID.String())) {
		t.Fatal("payload cache survived invalidation")
	}
	if mr.Exists(config.CacheKey.QuizGradingKey(quizID.String())) {
		t.Fatal("grading cache survived invalidation")
	}
}
