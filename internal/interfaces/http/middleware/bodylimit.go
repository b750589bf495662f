package middleware

import (
	"net/http"

	"github.com/anchala/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DefaultBodyLimit fits the largest cart confirmation with room to spare
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit rejects bodies larger than maxBytes with 413. Declared lengths
// are refused up front; chunked bodies fail when the handler reads past the
// cap. GET and DELETE requests pass untouched.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			abortTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func abortTooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeRequestTooLarge,
		"Request body exceeds maximum allowed size",
		getRequestIDFromContext(c),
	))
}
