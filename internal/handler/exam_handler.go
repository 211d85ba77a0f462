package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prajna-app/prajna-backend/internal/middleware"
	"github.com/prajna-app/prajna-backend/internal/model"
	"github.com/prajna-app/prajna-backend/internal/response"
	"github.com/prajna-app/prajna-backend/internal/service"
	"github.com/prajna-app/prajna-backend/internal/validator"
)

// ExamHandler handles exam creation, retrieval and scoring endpoints.
type ExamHandler struct {
	examService    *service.ExamService
	scoringService *service.ScoringService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, scoringService *service.ScoringService) *ExamHandler {
	return &ExamHandler{
		examService:    examService,
		scoringService: scoringService,
	}
}

// CreateExam godoc
// POST /api/v1/exam
// Records a new exam request in PENDING state and queues question generation.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if !middleware.CanActAs(c, req.UserID) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, exam)
}

// ListExams godoc
// GET /api/v1/exam?userId=...&subjectId=...
// Lists a user's exams, newest first, optionally narrowed to one subject.
func (h *ExamHandler) ListExams(c *gin.Context) {
	userID := c.Query("userId")
	if !middleware.CanActAs(c, userID) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	exams, err := h.examService.ListByUser(c.Request.Context(), userID, c.Query("subjectId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, exams, &response.Pagination{TotalItems: len(exams)})
}

// GetExam godoc
// GET /api/v1/exam/main/:id
// Returns the client view of an exam. Exams still generating return an empty
// question set with their status.
func (h *ExamHandler) GetExam(c *gin.Context) {
	view, err := h.examService.GetView(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// EvaluateExam godoc
// POST /api/v1/exam/eval
// Scores a submission and marks the exam as evaluated.
func (h *ExamHandler) EvaluateExam(c *gin.Context) {
	var sub model.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, validator.TranslateErrors(err))
		return
	}

	result, err := h.scoringService.ScoreSubmission(c.Request.Context(), &sub, middleware.ActorID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// RegenerateExam godoc
// POST /api/v1/exam/regenerate/:id
// Moves a FAILED exam back to PENDING and queues generation again.
func (h *ExamHandler) RegenerateExam(c *gin.Context) {
	exam, err := h.examService.Regenerate(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{
		"id":         exam.ID,
		"status":     exam.Status,
		"exam_ready": exam.ExamReady,
	})
}
