package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prajna-app/prajna-backend/internal/response"
	"github.com/prajna-app/prajna-backend/internal/service"
)

// handleServiceError maps service errors to the API error envelope.
// Unknown errors become 500 and are recorded on the context for the request log.
func handleServiceError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		code := response.ErrValidation
		if errors.Is(err, service.ErrInvalidExamID) {
			code = response.ErrInvalidID
		}
		response.FailWithFields(c, http.StatusBadRequest, code, ve.Fields)
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
	case errors.Is(err, service.ErrNotExamOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrExamNotReady):
		response.Fail(c, http.StatusConflict, response.ErrExamNotReady)
	case errors.Is(err, service.ErrExamAlreadyScored):
		response.Fail(c, http.StatusConflict, response.ErrExamAlreadyScored)
	case errors.Is(err, service.ErrExamNotFailed):
		response.Fail(c, http.StatusConflict, response.ErrExamNotFailed)
	case errors.Is(err, service.ErrCreditNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrCreditNotFound)
	case errors.Is(err, service.ErrCreditExists):
		response.Fail(c, http.StatusConflict, response.ErrCreditExists)
	case errors.Is(err, service.ErrPersistence):
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrPersistence)
	default:
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
