package handler

import (
	"errors"
	"net/http"

	"github.com/erp/focco-sync/internal/domain/integration"
	"github.com/erp/focco-sync/internal/domain/shared"
	"github.com/erp/focco-sync/internal/infrastructure/logger"
	"github.com/erp/focco-sync/internal/interfaces/http/dto"
	"github.com/erp/focco-sync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.OK(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.OK(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.Fail(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// BindError answers a failed ShouldBind*: 413 for bodies cut off by
// middleware.BodyLimit, field details for validation failures and a plain
// bad request for malformed bodies.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBodyTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	details := middleware.ValidationDetails(err)
	if details == nil {
		h.BadRequest(c, "Malformed request body")
		return
	}
	c.JSON(http.StatusBadRequest, dto.Fail(
		dto.ErrCodeValidation,
		"Request validation failed",
		middleware.GetRequestID(c),
	).WithDetails(details))
}

// ParseID reads the :id path parameter, answering 400 when it is not a UUID
func (h *BaseHandler) ParseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidID, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

// HandleError converts service errors to HTTP responses: domain errors by
// code, ERP failures as gateway errors, everything else as 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	var remoteErr *integration.RemoteRequestError
	switch {
	case errors.As(err, &remoteErr):
		h.Error(c, http.StatusBadGateway, dto.ErrCodeERPRequest, remoteErr.Error())
	case errors.Is(err, integration.ErrTransport):
		h.Error(c, http.StatusGatewayTimeout, dto.ErrCodeERPUnavailable, "Focco could not be reached")
	case errors.Is(err, integration.ErrMapping):
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeERPMapping, err.Error())
	case errors.Is(err, integration.ErrInvalidResponse),
		errors.Is(err, integration.ErrMissingExternalID),
		errors.Is(err, integration.ErrValueConversion):
		h.Error(c, http.StatusBadGateway, dto.ErrCodeERPInvalidResponse, err.Error())
	default:
		logger.For(c.Request.Context(), nil).Error("unhandled error", zap.Error(err))
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
