package repository

import (
	"context"

	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResultRepository handles quiz result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Insert stores one result row.
func (r *ResultRepository) Insert(ctx context.Context, res *model.Result) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO results (id, quiz_id, student_id, student_name, score, total_questions, submitted_at, duration_seconds, points_awarded)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.ID, res.QuizID, res.StudentID, res.StudentName, res.Score,
		res.TotalQuestions, res.SubmittedAt, res.DurationSeconds, res.PointsAwarded,
	)
	return err
}

// BulkInsert stores a batch of results with CopyFrom.
func (r *ResultRepository) BulkInsert(ctx context.Context, batch []*model.Result) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, res := range batch {
		rows = append(rows, []interface{}{
			res.ID, res.QuizID, res.StudentID, res.StudentName, res.Score,
			res.TotalQuestions, res.SubmittedAt, res.DurationSeconds, res.PointsAwarded,
		})
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"results"},
		[]string{"id", "quiz_id", "student_id", "student_name", "score", "total_questions", "submitted_at", "duration_seconds", "points_awarded"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// BulkAddPoints applies many point deltas in one statement. Deltas for the
// same student must already be summed by the caller.
func (r *ResultRepository) BulkAddPoints(ctx context.Context, studentIDs []int, deltas []float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students AS s
		 SET points = s.points + u.delta, updated_at = CURRENT_TIMESTAMP
		 FROM (SELECT UNNEST($1::int[]) AS id, UNNEST($2::float8[]) AS delta) AS u
		 WHERE s.id = u.id`,
		studentIDs, deltas,
	)
	return err
}

// HasResult reports whether the student already submitted this quiz. Used to
// enforce the one-attempt rule for proctored quizzes.
func (r *ResultRepository) HasResult(ctx context.Context, quizID uuid.UUID, studentID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM results WHERE quiz_id = $1 AND student_id = $2)`,
		quizID, studentID,
	).Scan(&exists)
	return exists, err
}

// ListByStudent retrieves a student's results, newest first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID int, limit int) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, student_id, student_name, score, total_questions, submitted_at, duration_seconds, points_awarded
		 FROM results WHERE student_id = $1 ORDER BY submitted_at DESC LIMIT $2`,
		studentID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.ID, &res.QuizID, &res.StudentID, &res.StudentName, &res.Score,
			&res.TotalQuestions, &res.SubmittedAt, &res.DurationSeconds, &res.PointsAwarded); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ListByQuiz retrieves every result for one quiz, best score first.
func (r *ResultRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, student_id, student_name, score, total_questions, submitted_at, duration_seconds, points_awarded
		 FROM results WHERE quiz_id = $1 ORDER BY score DESC, submitted_at ASC`,
		quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.ID, &res.QuizID, &res.StudentID, &res.StudentName, &res.Score,
			&res.TotalQuestions, &res.SubmittedAt, &res.DurationSeconds, &res.PointsAwarded); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// GetStudentStats aggregates a student's quiz history.
func (r *ResultRepository) GetStudentStats(ctx context.Context, studentID int) (*model.StudentStats, error) {
	stats := &model.StudentStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(score), 0), COALESCE(SUM(duration_seconds), 0)
		 FROM results WHERE student_id = $1`,
		studentID,
	).Scan(&stats.TotalQuizzes, &stats.AvgScore, &stats.TotalSeconds)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// InsertViolation records one integrity violation for the audit log.
func (r *ResultRepository) InsertViolation(ctx context.Context, v *model.SessionViolation) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_violations (quiz_id, student_id, violation_count, action, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		v.QuizID, v.StudentID, v.ViolationCount, v.Action, v.RecordedAt,
	)
	return err
}

// BulkInsertViolations stores a batch of violations with CopyFrom.
func (r *ResultRepository) BulkInsertViolations(ctx context.Context, batch []*model.SessionViolation) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, v := range batch {
		rows = append(rows, []interface{}{
			v.QuizID, v.StudentID, v.ViolationCount, v.Action, v.RecordedAt,
		})
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"session_violations"},
		[]string{"quiz_id", "student_id", "violation_count", "action", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}
