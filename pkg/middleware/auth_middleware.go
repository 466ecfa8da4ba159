package middleware

import (
	"github.com/gin-gonic/gin"

	"foodinsight/pkg/session"
	"foodinsight/pkg/utils"
)

// RequireLogin sends anonymous visitors to the login page.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.Default(c).LoggedIn() {
			session.Default(c).AddFlash(utils.FlashMessage(utils.ErrLoginRequired))
			utils.Redirect(c, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin only admits sessions holding the admin flag.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.Default(c).IsAdmin() {
			session.Default(c).AddFlash(utils.FlashMessage(utils.ErrAccessDenied))
			utils.Redirect(c, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
