package handler

import (
	"errors"
	"net/http"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/infrastructure/logger"
	"github.com/anchala/pos/internal/interfaces/http/dto"
	"github.com/anchala/pos/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// BaseHandler holds the response helpers every till handler embeds
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// Success answers 200 with data in the standard envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created answers 201 with data in the standard envelope
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent answers 204
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error answers an error envelope carrying the request id
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnauthorized, code, message)
}

func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindJSON binds and validates the request body. On failure the response
// is already written and false is returned.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	return bind(c, obj, binding.JSON)
}

// BindQuery binds and validates query parameters like BindJSON
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	return bind(c, obj, binding.Query)
}

func bind(c *gin.Context, obj any, b binding.Binding) bool {
	// money and decimal rules must exist before the first bind
	middleware.SetupValidator()
	if err := c.ShouldBindWith(obj, b); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// HandleDomainError answers with the domain code unchanged and a status
// picked from the error kind. Anything that is not a DomainError becomes a
// 500 whose detail only reaches the log.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	log := logger.L(c.Request.Context())

	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		log.Error("Unexpected error", zap.Error(err))
		h.InternalError(c, "An unexpected error occurred")
		return
	}

	status := dto.StatusForDomainError(domainErr)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.String("code", domainErr.Code), zap.Error(err))
	}
	h.Error(c, status, domainErr.Code, domainErr.Message)
}
