package handler

import (
	"errors"
	"net/http"

	"github.com/eduquiz/eduquiz-backend/internal/middleware"
	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/eduquiz/eduquiz-backend/internal/response"
	"github.com/eduquiz/eduquiz-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StudentPortalHandler handles student-facing endpoints (lobby, quiz paper,
// history and stats). Quiz taking itself runs over the WebSocket stream.
type StudentPortalHandler struct {
	quizService    *service.QuizService
	sessionService *service.SessionService
	studentService *service.StudentService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	quizService *service.QuizService,
	sessionService *service.SessionService,
	studentService *service.StudentService,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		quizService:    quizService,
		sessionService: sessionService,
		studentService: studentService,
	}
}

// GetLobby godoc
// GET /api/v1/student/lobby
// Returns published quizzes for the student's grade, answers stripped.
func (h *StudentPortalHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizzes, err := h.quizService.ListPublished(c.Request.Context(), claims.Grade)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if quizzes == nil {
		quizzes = []*model.QuizPayload{}
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// GetQuizPaper godoc
// GET /api/v1/student/quizzes/:quiz_id/paper
// Returns the sanitized quiz payload from the cache. Correct answers and
// solutions never leave the server through this endpoint.
func (h *StudentPortalHandler) GetQuizPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payload, err := h.quizService.GetPayload(c.Request.Context(), quizID)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": payload})
}

// GetHistory godoc
// GET /api/v1/student/results
// Returns the student's past results, newest first.
func (h *StudentPortalHandler) GetHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.sessionService.History(c.Request.Context(), claims.UserID, 50)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if results == nil {
		results = []model.Result{}
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// GetStats godoc
// GET /api/v1/student/stats
// Returns aggregate quiz statistics plus the live point balance.
func (h *StudentPortalHandler) GetStats(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	stats, err := h.sessionService.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	points, err := h.studentService.Points(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"stats":  stats,
		"points": points,
	})
}

// GetLeaderboard godoc
// GET /api/v1/student/quizzes/:quiz_id/leaderboard
// Returns every result for one quiz, best score first.
func (h *StudentPortalHandler) GetLeaderboard(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	results, err := h.sessionService.Leaderboard(c.Request.Context(), quizID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if results == nil {
		results = []model.Result{}
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
