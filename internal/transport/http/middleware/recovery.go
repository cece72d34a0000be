package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"coffee-salon/internal/transport/http/response"
)

const ContextErrorCodeKey = "error_code"

// ErrorCode names the envelope code a route reports, including for panics.
func ErrorCode(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextErrorCodeKey, code)
		c.Next()
	}
}

// Recovery turns a panic into the failure envelope of the route.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Ctx(c.Request.Context()).Error().
			Str("panic", fmt.Sprint(recovered)).
			Str("path", c.Request.URL.Path).
			Msg("panic recovered")
		code := c.GetString(ContextErrorCodeKey)
		if code == "" {
			code = response.CodeInternalServer
		}
		response.Error(c, code, "internal server error")
	})
}
