package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eduquiz/eduquiz-backend/internal/config"
	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestQueueResultSinkSaveResult(t *testing.T) {
	mr, rdb := newTestRedis(t)
	sink := NewQueueResultSink(rdb, zerolog.Nop())

	result := &model.Result{
		ID:              uuid.New(),
		QuizID:          uuid.New(),
		StudentID:       7,
		StudentName:     "Bo Lin",
		Score:           7.5,
		TotalQuestions:  10,
		SubmittedAt:     time.Now().UTC(),
		DurationSeconds: 600,
	}

	if err := sink.SaveResult(context.Background(), result); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	raw, err := mr.Lpop(config.WorkerKey.PersistResultsQueue)
	if err != nil {
		t.Fatalf("queue read: %v", err)
	}

	var job struct {
		Kind   string        `json:"kind"`
		Result *model.Result `json:"result"`
	}
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if job.Kind != "result" {
		t.Fatalf("job kind = %q, want %q", job.Kind, "result")
	}
	if job.Result == nil || job.Result.ID != result.ID || job.Result.Score != 7.5 {
		t.Fatalf("job result mismatch: %+v", job.Result)
	}
}

func TestQueueResultSinkAddPoints(t *testing.T) {
	mr, rdb := newTestRedis(t)
	sink := NewQueueResultSink(rdb, zerolog.Nop())

	if err := sink.AddPoints(context.Background(), 7, 0.5); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}

	raw, err := mr.Lpop(config.WorkerKey.PersistResultsQueue)
	if err != nil {
		t.Fatalf("queue read: %v", err)
	}

	var job struct {
		Kind   string `json:"kind"`
		Points *struct {
			StudentID int     `json:"student_id"`
			Delta     float64 `json:"delta"`
		} `json:"points"`
	}
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if job.Kind != "points" {
		t.Fatalf("job kind = %q, want %q", job.Kind, "points")
	}
	if job.Points == nil || job.Points.StudentID != 7 || job.Points.Delta != 0.5 {
		t.Fatalf("job points mismatch: %+v", job.Points)
	}
}

func TestQueueResultSinkFailsWhenRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	sink := NewQueueResultSink(rdb, zerolog.Nop())
	mr.Close()

	err := sink.SaveResult(context.Background(), &model.Result{ID: uuid.New()})
	if err == nil {
		t.Fatal("SaveResult succeeded against a closed Redis")
	}
}
