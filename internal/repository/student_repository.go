package repository

import (
	"context"
	"errors"

	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicateStudentCode = errors.New("student with this code already exists")

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, student_code, name, grade, password_hash, points, created_at, updated_at
		 FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.StudentCode, &s.Name, &s.Grade, &s.PasswordHash, &s.Points, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByCode retrieves a student by their unique login code.
func (r *StudentRepository) GetByCode(ctx context.Context, code string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, student_code, name, grade, password_hash, points, created_at, updated_at
		 FROM students WHERE student_code = $1`, code,
	).Scan(&s.ID, &s.StudentCode, &s.Name, &s.Grade, &s.PasswordHash, &s.Points, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (student_code, name, grade, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, points, created_at, updated_at`,
		s.StudentCode, s.Name, s.Grade, s.PasswordHash,
	).Scan(&s.ID, &s.Points, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateStudentCode
		}
		return err
	}
	return nil
}

// UpdatePassword updates a student's password hash.
func (r *StudentRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		passwordHash, id,
	)
	return err
}

// AddPoints applies a point delta to one student's balance.
func (r *StudentRepository) AddPoints(ctx context.Context, id int, delta float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET points = points + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		delta, id,
	)
	return err
}

// GetPoints returns the current point balance.
func (r *StudentRepository) GetPoints(ctx context.Context, id int) (float64, error) {
	var points float64
	err := r.pool.QueryRow(ctx,
		`SELECT points FROM students WHERE id = $1`, id,
	).Scan(&points)
	return points, err
}
