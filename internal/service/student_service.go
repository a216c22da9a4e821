package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/eduquiz/eduquiz-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

var ErrStudentNotFound = errors.New("student not found")

// StudentService handles student account business logic.
type StudentService struct {
	studentRepo *repository.StudentRepository
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository) *StudentService {
	return &StudentService{studentRepo: studentRepo}
}

// GetByID retrieves a student by ID.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return student, nil
}

// GetByCode retrieves a student by their login code.
func (s *StudentService) GetByCode(ctx context.Context, code string) (*model.Student, error) {
	student, err := s.studentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student by code: %w", err)
	}
	return student, nil
}

// Points returns a student's live point balance.
func (s *StudentService) Points(ctx context.Context, id int) (float64, error) {
	return s.studentRepo.GetPoints(ctx, id)
}

// Register creates a new student account with a hashed password.
func (s *StudentService) Register(ctx context.Context, student *model.Student) error {
	return s.studentRepo.Create(ctx, student)
}
