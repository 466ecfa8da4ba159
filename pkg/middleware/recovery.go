package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foodinsight/pkg/session"
	"foodinsight/pkg/utils"
)

// Recovery turns a handler panic into a flash message and a redirect to the login page.
// It must run after the session middleware so the flash survives the redirect.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Error("panic recovered",
				zap.Any("panic", rec),
				zap.String("path", c.Request.URL.Path),
				zap.String("trace_id", c.GetString("trace_id")),
				zap.ByteString("stack", debug.Stack()))

			if c.Writer.Written() {
				c.Abort()
				return
			}
			session.Default(c).AddFlash(utils.MsgInternalError)
			utils.Redirect(c, "/login")
			c.Abort()
		}()
		c.Next()
	}
}
