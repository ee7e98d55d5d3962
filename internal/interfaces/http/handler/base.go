package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steelerp/backend/internal/domain/shared"
	"github.com/steelerp/backend/internal/interfaces/http/dto"
)

// domainErrorStatus maps domain error codes to HTTP status codes.
// Snapshot failures are upstream faults (502), broken business gates are
// client-fixable (400), and ledger rejections or unusable stock states are
// semantic conflicts (422).
var domainErrorStatus = map[string]int{
	"NOT_FOUND":             http.StatusNotFound,
	"INVALID_INPUT":         http.StatusBadRequest,
	"NO_CHANGES_DETECTED":   http.StatusBadRequest,
	"INCOMPLETE_ALLOCATION": http.StatusBadRequest,
	"INVALID_REASON_CODE":   http.StatusBadRequest,
	"NO_BATCHES_AVAILABLE":  http.StatusUnprocessableEntity,
	"REMOTE_REJECTED":       http.StatusUnprocessableEntity,
	"SNAPSHOT_UNAVAILABLE":  http.StatusBadGateway,
}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, getRequestID(c)))
}

// DomainError maps a service error onto the HTTP response. The original
// error message is preserved; for ledger rejections this is how the remote
// rejection text reaches the operator verbatim.
func (h *BaseHandler) DomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status, ok := domainErrorStatus[domainErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		h.Error(c, status, domainErr.Code, err.Error())
		return
	}
	h.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, "NOT_FOUND", message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
