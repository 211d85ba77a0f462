package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prajna-app/prajna-backend/internal/model"
	"github.com/prajna-app/prajna-backend/internal/response"
	"github.com/prajna-app/prajna-backend/internal/service"
	"github.com/prajna-app/prajna-backend/internal/validator"
)

// CreditHandler handles credit balance endpoints.
type CreditHandler struct {
	creditService *service.CreditService
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(creditService *service.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// GetCredit godoc
// GET /api/v1/credit/:user_id
func (h *CreditHandler) GetCredit(c *gin.Context) {
	credit, err := h.creditService.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, credit)
}

// CreateCredit godoc
// POST /api/v1/credit/:user_id
// Opens a balance for the user. The body is optional; without an amount the
// default starting balance is used.
func (h *CreditHandler) CreateCredit(c *gin.Context) {
	var req model.CreateCreditRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	credit, err := h.creditService.Create(c.Request.Context(), c.Param("user_id"), req.Credit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, credit)
}

// UpdateCredit godoc
// PATCH /api/v1/credit/:user_id
func (h *CreditHandler) UpdateCredit(c *gin.Context) {
	var req model.UpdateCreditRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	credit, err := h.creditService.Update(c.Request.Context(), c.Param("user_id"), req.Credit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, credit)
}

// CheckCredit godoc
// GET /api/v1/credit/:user_id/check
// Reports whether the user can afford another exam.
func (h *CreditHandler) CheckCredit(c *gin.Context) {
	check, err := h.creditService.HasSufficientCredits(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, check)
}
