package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eduquiz/eduquiz-backend/internal/config"
	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/eduquiz/eduquiz-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// resultJob mirrors the payload pushed by the queue sink.
type resultJob struct {
	Kind   string        `json:"kind"`
	Result *model.Result `json:"result,omitempty"`
	Points *struct {
		StudentID int     `json:"student_id"`
		Delta     float64 `json:"delta"`
	} `json:"points,omitempty"`
}

// ResultWorker drains the persist queue into Postgres: result rows go in
// with a bulk CopyFrom, point awards collapse into a single UNNEST update
// per batch.
type ResultWorker struct {
	repo *repository.ResultRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		repo: repository.NewResultRepository(pool),
		rdb:  rdb,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
}

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	buffer := make([]*resultJob, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Flush on size or age
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		// 2. Graceful shutdown
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistResultsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check flush timer
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

		var job resultJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &job)
	}
}

// flushSafe attempts bulk persistence, then row-by-row recovery with requeue.
func (w *ResultWorker) flushSafe(ctx context.Context, batch []*resultJob) {
	results := make([]*model.Result, 0, len(batch))
	pointDeltas := make(map[int]float64)
	var pointJobs []*resultJob

	for _, job := range batch {
		switch {
		case job.Kind == "result" && job.Result != nil:
			results = append(results, job.Result)
		case job.Kind == "points" && job.Points != nil:
			pointDeltas[job.Points.StudentID] += job.Points.Delta
			pointJobs = append(pointJobs, job)
		default:
			w.log.Warn().Str("kind", job.Kind).Msg("Dropping job with unknown kind")
		}
	}

	if len(results) > 0 {
		if err := w.repo.BulkInsert(ctx, results); err != nil {
			w.log.Warn().Err(err).Int("count", len(results)).Msg("Bulk insert failed, attempting row-by-row recovery")
			w.fallbackInsert(ctx, results)
		}
	}

	if len(pointDeltas) > 0 {
		ids := make([]int, 0, len(pointDeltas))
		deltas := make([]float64, 0, len(pointDeltas))
		for id, delta := range pointDeltas {
			ids = append(ids, id)
			deltas = append(deltas, delta)
		}
		if err := w.repo.BulkAddPoints(ctx, ids, deltas); err != nil {
			w.log.Error().Err(err).Int("students", len(ids)).Msg("Point update failed, requeueing")
			w.requeue(ctx, pointJobs)
		}
	}
}

func (w *ResultWorker) fallbackInsert(ctx context.Context, results []*model.Result) {
	requeueList := make([]*resultJob, 0)

	for _, res := range results {
		if err := w.repo.Insert(ctx, res); err != nil {
			w.log.Error().Err(err).Str("result_id", res.ID.String()).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, &resultJob{Kind: "result", Result: res})
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ResultWorker) requeue(ctx context.Context, jobs []*resultJob) {
	pipe := w.rdb.Pipeline()
	for _, job := range jobs {
		data, _ := json.Marshal(job)
		pipe.RPush(ctx, config.WorkerKey.PersistResultsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue jobs to Redis. Data loss occurred.")
	} else {
		w.log.Info().Int("count", len(jobs)).Msg("Requeued failed jobs back to Redis")
		// Avoid thrashing while the DB is down
		time.Sleep(2 * time.Second)
	}
}

func (w *ResultWorker) shutdown(buffer []*resultJob) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
