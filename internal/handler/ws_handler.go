package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eduquiz/eduquiz-backend/internal/config"
	"github.com/eduquiz/eduquiz-backend/internal/middleware"
	"github.com/eduquiz/eduquiz-backend/internal/model"
	"github.com/eduquiz/eduquiz-backend/internal/service"
	"github.com/eduquiz/eduquiz-backend/internal/session"
	ws "github.com/eduquiz/eduquiz-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams quiz sessions over WebSocket. Each connection owns one
// session controller; the engine's countdown and integrity escalations run
// server-side and push events to the client.
type WSHandler struct {
	rdb            *redis.Client
	sessionService *service.SessionService
	studentService *service.StudentService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	rdb *redis.Client,
	sessionService *service.SessionService,
	studentService *service.StudentService,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		sessionService: sessionService,
		studentService: studentService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes writes: the read loop, the tick streamer, and the
// engine hooks all write to the same connection.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ws.WriteError(w.conn, msg)
}

// QuizSessionStream godoc
// WS /ws/v1/student/quizzes/:quiz_id/session
// Upgrades to WebSocket and runs one quiz-taking session end to end.
func (h *WSHandler) QuizSessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz ID"})
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer rawConn.Close()

	conn := &wsConn{conn: rawConn}

	wsLog := h.log.With().
		Int("student_id", student.ID).
		Str("quiz_id", quizID.String()).
		Logger()

	hooks := session.Hooks{
		OnWarning: func(violations int) {
			h.queueViolation(quizID, student.ID, violations, model.ViolationActionWarned)
			conn.write(ws.WarningResponse{
				Event:      ws.EventWarning,
				Message:    "Leaving the quiz tab was detected. The next violation submits your quiz.",
				Violations: violations,
			})
		},
		OnAutoSubmit: func(trigger session.SubmitTrigger, result *model.Result) {
			if trigger == session.TriggerIntegrity {
				h.queueViolation(quizID, student.ID, 2, model.ViolationActionSubmitted)
			}
			conn.write(ws.SubmittedResponse{
				Event:   ws.EventSubmitted,
				Trigger: string(trigger),
				Result:  result,
			})
		},
	}

	controller, _, err := h.sessionService.StartSession(c.Request.Context(), quizID, student, hooks)
	if err != nil {
		wsLog.Warn().Err(err).Msg("Session start rejected")
		conn.writeError(joinErrorMessage(err))
		return
	}

	wsLog.Info().Msg("Student connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Engine loop: drives the deadline and the forced timeout submission.
	go controller.Run(ctx)

	// Countdown stream: one tick per second while taking. The value is
	// derived from the fixed deadline, so a missed tick never skews it.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if controller.View() != session.ViewTaking {
					return
				}
				conn.write(ws.TickResponse{
					Event:            ws.EventTick,
					SecondsRemaining: controller.SecondsRemaining(),
				})
			}
		}
	}()

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(rawConn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(conn, controller, &msg)
		case ws.ActionReset:
			h.handleReset(conn, controller)
		case ws.ActionVisibility:
			controller.ReportVisibilityLoss(ctx)
		case ws.ActionSubmit:
			h.handleSubmit(ctx, conn, controller, msg.Confirm)
		case ws.ActionReview:
			h.handleReview(conn, controller)
		case ws.ActionPing:
			conn.write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.writeError("unknown action: " + string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAnswer(conn *wsConn, controller *session.Controller, msg *ws.RequestPayload) {
	if msg.Key == "" {
		conn.writeError("key is required")
		return
	}

	if err := controller.RecordAnswer(msg.Key, msg.Answer); err != nil {
		conn.writeError("session is closed")
		return
	}

	conn.write(ws.SavedResponse{
		Event:    ws.EventSaved,
		Status:   "saved",
		Answered: controller.AnsweredCount(),
	})
}

func (h *WSHandler) handleReset(conn *wsConn, controller *session.Controller) {
	if err := controller.ResetAnswers(); err != nil {
		conn.writeError("session is closed")
		return
	}

	conn.write(ws.SavedResponse{
		Event:    ws.EventSaved,
		Status:   "reset",
		Answered: 0,
	})
}

func (h *WSHandler) handleSubmit(ctx context.Context, conn *wsConn, controller *session.Controller, confirmed bool) {
	// Unanswered questions require an explicit acknowledgement before a
	// manual submit goes through.
	if !confirmed {
		if unanswered := controller.UnansweredCount(); unanswered > 0 {
			conn.write(ws.ConfirmRequiredResponse{
				Event:      ws.EventConfirmRequired,
				Unanswered: unanswered,
			})
			return
		}
	}

	result, err := controller.Submit(ctx)
	if err != nil {
		if errors.Is(err, session.ErrAlreadySubmitted) || errors.Is(err, session.ErrSessionClosed) {
			conn.writeError("quiz was already submitted")
			return
		}
		conn.writeError("submission failed")
		return
	}

	conn.write(ws.SubmittedResponse{
		Event:   ws.EventSubmitted,
		Trigger: string(session.TriggerManual),
		Result:  result,
	})
}

func (h *WSHandler) handleReview(conn *wsConn, controller *session.Controller) {
	if err := controller.Review(); err != nil {
		conn.writeError("nothing to review yet")
		return
	}

	sheet, err := controller.ReviewSheet()
	if err != nil {
		conn.writeError("review unavailable")
		return
	}

	conn.write(ws.ReviewResponse{
		Event: ws.EventReview,
		Sheet: sheet,
	})
}

// queueViolation pushes one integrity event onto the audit queue. The
// violation worker drains it into Postgres.
func (h *WSHandler) queueViolation(quizID uuid.UUID, studentID, count int, action string) {
	payload, _ := json.Marshal(map[string]interface{}{
		"quiz_id":         quizID.String(),
		"student_id":      studentID,
		"violation_count": count,
		"action":          action,
		"timestamp":       time.Now().Unix(),
	})
	if err := h.rdb.RPush(context.Background(), config.WorkerKey.PersistViolationsQueue, payload).Err(); err != nil {
		h.log.Error().Err(err).Msg("Failed to queue violation")
	}
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		return "quiz not found"
	case errors.Is(err, service.ErrQuizNotAvailable):
		return "quiz is not available"
	case errors.Is(err, service.ErrQuizNotStarted):
		return "quiz has not started yet"
	case errors.Is(err, service.ErrQuizEnded):
		return "quiz has already ended"
	case errors.Is(err, service.ErrAlreadyAttempted):
		return "quiz was already attempted"
	default:
		return "failed to start session"
	}
}
