package websocket

import "github.com/prajna-app/prajna-backend/internal/model"

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventStatus Event = "status"
	EventError  Event = "error"
)

// StatusMessage reports the generation state of an exam.
type StatusMessage struct {
	Event     Event            `json:"event"`
	ExamID    string           `json:"exam_id"`
	Status    model.ExamStatus `json:"status"`
	ExamReady bool             `json:"exam_ready"`
	// Final is set on the last message before the server closes the stream.
	Final bool `json:"final"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
