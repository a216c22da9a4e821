package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eduquiz/eduquiz-backend/internal/config"
	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/eduquiz/eduquiz-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// violationPayload mirrors what the websocket handler pushes.
type violationPayload struct {
	QuizID         string `json:"quiz_id"`
	StudentID      int    `json:"student_id"`
	ViolationCount int    `json:"violation_count"`
	Action         string `json:"action"`
	Timestamp      int64  `json:"timestamp"`
}

// ViolationWorker drains the violation audit queue into Postgres in batches.
type ViolationWorker struct {
	repo *repository.ResultRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewViolationWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ViolationWorker {
	return &ViolationWorker{
		repo: repository.NewResultRepository(pool),
		rdb:  rdb,
		log:  log.With().Str("component", "violation_worker").Logger(),
	}
}

func (w *ViolationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ViolationWorker started")

	buffer := make([]*violationPayload, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistViolationsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var payload violationPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &payload)
	}
}

func (w *ViolationWorker) flushSafe(ctx context.Context, batch []*violationPayload) {
	violations, bad := w.convert(batch)
	for _, p := range bad {
		w.log.Error().Str("quiz_id", p.QuizID).Msg("Dropping violation with invalid UUID")
	}
	if len(violations) == 0 {
		return
	}

	if err := w.repo.BulkInsertViolations(ctx, violations); err != nil {
		w.log.Warn().Err(err).Int("count", len(violations)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, violations)
	}
}

func (w *ViolationWorker) convert(batch []*violationPayload) ([]*model.SessionViolation, []*violationPayload) {
	violations := make([]*model.SessionViolation, 0, len(batch))
	var bad []*violationPayload

	for _, p := range batch {
		quizID, err := uuid.Parse(p.QuizID)
		if err != nil {
			bad = append(bad, p)
			continue
		}
		violations = append(violations, &model.SessionViolation{
			QuizID:         quizID,
			StudentID:      p.StudentID,
			ViolationCount: p.ViolationCount,
			Action:         p.Action,
			RecordedAt:     time.Unix(p.Timestamp, 0),
		})
	}
	return violations, bad
}

func (w *ViolationWorker) fallbackInsert(ctx context.Context, violations []*model.SessionViolation) {
	requeueList := make([]*model.SessionViolation, 0)

	for _, v := range violations {
		if err := w.repo.InsertViolation(ctx, v); err != nil {
			w.log.Error().Err(err).Int("student_id", v.StudentID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, v)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ViolationWorker) requeue(ctx context.Context, violations []*model.SessionViolation) {
	pipe := w.rdb.Pipeline()
	for _, v := range violations {
		payload := violationPayload{
			QuizID:         v.QuizID.String(),
			StudentID:      v.StudentID,
			ViolationCount: v.ViolationCount,
			Action:         v.Action,
			Timestamp:      v.RecordedAt.Unix(),
		}
		data, _ := json.Marshal(payload)
		pipe.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue violations to Redis. Data loss occurred.")
	} else {
		w.log.Info().Int("count", len(violations)).Msg("Requeued failed violations back to Redis")
		time.Sleep(2 * time.Second)
	}
}

func (w *ViolationWorker) shutdown(buffer []*violationPayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
