package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizRepository handles quiz data access. Quiz content (questions, answer
// keys, solutions) lives in a jsonb document column; the columns alongside
// it exist for filtering and listing without parsing the document.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

func scanQuiz(data []byte, id uuid.UUID, published bool, createdAt time.Time) (*model.Quiz, error) {
	q := &model.Quiz{}
	if err := json.Unmarshal(data, q); err != nil {
		return nil, err
	}
	q.ID = id
	q.IsPublished = published
	q.CreatedAt = createdAt
	return q, nil
}

// GetByID retrieves one quiz with its full question document.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	var (
		data      []byte
		published bool
		createdAt time.Time
	)
	err := r.pool.QueryRow(ctx,
		`SELECT data, is_published, created_at FROM quizzes WHERE id = $1`, id,
	).Scan(&data, &published, &createdAt)
	if err != nil {
		return nil, err
	}
	return scanQuiz(data, id, published, createdAt)
}

// ListPublished retrieves all published quizzes for a grade, newest first.
// An empty grade returns every published quiz.
func (r *QuizRepository) ListPublished(ctx context.Context, grade string) ([]*model.Quiz, error) {
	query := `SELECT id, data, is_published, created_at FROM quizzes WHERE is_published = TRUE`
	args := []interface{}{}
	if grade != "" {
		query += ` AND grade = $1`
		args = append(args, grade)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []*model.Quiz
	for rows.Next() {
		var (
			id        uuid.UUID
			data      []byte
			published bool
			createdAt time.Time
		)
		if err := rows.Scan(&id, &data, &published, &createdAt); err != nil {
			return nil, err
		}
		q, err := scanQuiz(data, id, published, createdAt)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// ListAll retrieves every quiz regardless of publication state.
func (r *QuizRepository) ListAll(ctx context.Context) ([]*model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, data, is_published, created_at FROM quizzes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []*model.Quiz
	for rows.Next() {
		var (
			id        uuid.UUID
			data      []byte
			published bool
			createdAt time.Time
		)
		if err := rows.Scan(&id, &data, &published, &createdAt); err != nil {
			return nil, err
		}
		q, err := scanQuiz(data, id, published, createdAt)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// Create inserts a new quiz document.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (id, grade, is_published, data)
		 VALUES ($1, $2, $3, $4::jsonb)
		 RETURNING created_at`,
		q.ID, q.Grade, q.IsPublished, data,
	).Scan(&q.CreatedAt)
}

// Update replaces a quiz document in place.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE quizzes SET grade = $1, is_published = $2, data = $3::jsonb WHERE id = $4`,
		q.Grade, q.IsPublished, data, q.ID,
	)
	return err
}

// Delete removes a quiz by ID.
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	return err
}
