package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prajna-app/prajna-backend/internal/cache"
	"github.com/prajna-app/prajna-backend/internal/middleware"
	"github.com/prajna-app/prajna-backend/internal/model"
	"github.com/prajna-app/prajna-backend/internal/response"
	"github.com/prajna-app/prajna-backend/internal/service"
	ws "github.com/prajna-app/prajna-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
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

// WSHandler streams exam readiness over WebSocket.
type WSHandler struct {
	examService *service.ExamService
	examCache   *cache.ExamCache
	timeout     time.Duration
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. timeout bounds how long a stream waits
// for a PENDING exam to settle.
func NewWSHandler(examService *service.ExamService, examCache *cache.ExamCache, timeout time.Duration, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService: examService,
		examCache:   examCache,
		timeout:     timeout,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ExamStatusStream godoc
// WS /ws/v1/exam/:id/status
// Sends the current generation status, then waits for the exam to leave
// PENDING (or the timeout) and sends the final status before closing.
func (h *WSHandler) ExamStatusStream(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	// Subscribe before reading the status so a transition in between is not lost.
	sub := h.examCache.SubscribeStatus(ctx, examID.String())
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Status subscription failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	actorID := middleware.ActorID(c)
	view, err := h.examService.GetView(c.Request.Context(), examID.String(), actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("exam_id", examID.String()).Logger()
	wsLog.Debug().Str("status", string(view.Status)).Msg("Status stream opened")

	if view.Status != model.ExamStatusPending {
		h.send(conn, examID, view.Status, true)
		ws.Close(conn, "done")
		return
	}
	if err := h.send(conn, examID, view.Status, false); err != nil {
		return
	}

	clientGone := ws.DrainReads(conn)
	events := sub.Channel()

	for {
		select {
		case <-clientGone:
			wsLog.Debug().Msg("Client closed status stream")
			return

		case <-ctx.Done():
			// Report whatever the exam looks like now; the client may reconnect.
			status := model.ExamStatusPending
			if latest, err := h.examService.GetView(context.Background(), examID.String(), actorID); err == nil {
				status = latest.Status
			}
			h.send(conn, examID, status, true)
			ws.Close(conn, "timeout")
			return

		case msg, ok := <-events:
			if !ok {
				ws.WriteError(conn, "status stream interrupted")
				ws.Close(conn, "interrupted")
				return
			}

			var event cache.StatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				wsLog.Warn().Err(err).Msg("Malformed status event")
				continue
			}

			final := event.Status != model.ExamStatusPending
			if err := h.send(conn, examID, event.Status, final); err != nil || final {
				ws.Close(conn, "done")
				return
			}
		}
	}
}

func (h *WSHandler) send(conn *websocket.Conn, examID uuid.UUID, status model.ExamStatus, final bool) error {
	err := ws.WriteTyped(conn, ws.StatusMessage{
		Event:     ws.EventStatus,
		ExamID:    examID.String(),
		Status:    status,
		ExamReady: status.Ready(),
		Final:     final,
	})
	if err != nil {
		h.log.Debug().Err(err).Str("exam_id", examID.String()).Msg("Status write failed")
	}
	return err
}
