package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eduquiz/eduquiz-backend/internal/config"
	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// PointsPayload is one point-award job on the persist queue. Results travel
// as full model.Result documents; point awards travel separately so the
// worker can batch them into a single UNNEST update.
type PointsPayload struct {
	StudentID int     `json:"student_id"`
	Delta     float64 `json:"delta"`
}

// resultJob wraps both job kinds on one queue, tagged by Kind.
type resultJob struct {
	Kind   string         `json:"kind"` // "result" or "points"
	Result *model.Result  `json:"result,omitempty"`
	Points *PointsPayload `json:"points,omitempty"`
}

const (
	jobKindResult = "result"
	jobKindPoints = "points"
)

// QueueResultSink is the production ResultSink: completed results and point
// awards are pushed onto a Redis list and drained into Postgres by the
// result worker. The session engine never blocks on Postgres.
type QueueResultSink struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewQueueResultSink creates a new QueueResultSink.
func NewQueueResultSink(rdb *redis.Client, log zerolog.Logger) *QueueResultSink {
	return &QueueResultSink{
		rdb: rdb,
		log: log.With().Str("component", "result_sink").Logger(),
	}
}

// SaveResult enqueues one result for persistence.
func (s *QueueResultSink) SaveResult(ctx context.Context, result *model.Result) error {
	return s.push(ctx, resultJob{Kind: jobKindResult, Result: result})
}

// AddPoints enqueues one point award.
func (s *QueueResultSink) AddPoints(ctx context.Context, studentID int, delta float64) error {
	return s.push(ctx, resultJob{
		Kind:   jobKindPoints,
		Points: &PointsPayload{StudentID: studentID, Delta: delta},
	})
}

func (s *QueueResultSink) push(ctx context.Context, job resultJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal result job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, data).Err(); err != nil {
		return fmt.Errorf("enqueue result job: %w", err)
	}
	return nil
}
