package handler

import (
	"errors"
	"net/http"

	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/eduquiz/eduquiz-backend/internal/repository"
	"github.com/eduquiz/eduquiz-backend/internal/response"
	"github.com/eduquiz/eduquiz-backend/internal/service"
	"github.com/eduquiz/eduquiz-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// QuizHandler handles admin quiz management. Every write invalidates the
// Redis cache so students never see a stale paper.
type QuizHandler struct {
	quizRepo    *repository.QuizRepository
	quizService *service.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizRepo *repository.QuizRepository, quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizRepo: quizRepo, quizService: quizService}
}

// ListQuizzes godoc
// GET /api/v1/admin/quizzes
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.quizRepo.ListAll(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if quizzes == nil {
		quizzes = []*model.Quiz{}
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// GetQuiz godoc
// GET /api/v1/admin/quizzes/:quiz_id
// Returns the full quiz document including answer keys.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quiz, err := h.quizRepo.GetByID(c.Request.Context(), quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// CreateQuiz godoc
// POST /api/v1/admin/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var quiz model.Quiz
	if fields := validator.Bind(c, &quiz); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.quizRepo.Create(c.Request.Context(), &quiz); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz})
}

// UpdateQuiz godoc
// PUT /api/v1/admin/quizzes/:quiz_id
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var quiz model.Quiz
	if fields := validator.Bind(c, &quiz); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	quiz.ID = quizID

	if err := h.quizRepo.Update(c.Request.Context(), &quiz); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.quizService.Invalidate(c.Request.Context(), quizID)
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// PublishQuiz godoc
// POST /api/v1/admin/quizzes/:quiz_id/publish
// Publishing requires at least one question.
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quiz, err := h.quizRepo.GetByID(c.Request.Context(), quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if len(quiz.Questions) == 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
		return
	}

	quiz.IsPublished = true
	if err := h.quizRepo.Update(c.Request.Context(), quiz); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.quizService.Invalidate(c.Request.Context(), quizID)
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// DeleteQuiz godoc
// DELETE /api/v1/admin/quizzes/:quiz_id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.quizRepo.Delete(c.Request.Context(), quizID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.quizService.Invalidate(c.Request.Context(), quizID)
	response.Success(c, http.StatusOK, gin.H{})
}
