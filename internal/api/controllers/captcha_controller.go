package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foodinsight/internal/services"
	"foodinsight/pkg/session"
	"foodinsight/pkg/utils"
)

type CaptchaController struct {
	captcha services.ICaptchaService
	logger  *zap.Logger
}

func NewCaptchaController(captcha services.ICaptchaService, logger *zap.Logger) *CaptchaController {
	return &CaptchaController{captcha: captcha, logger: logger}
}

// ForgotPassword GET /captcha
func (cc *CaptchaController) ForgotPassword(c *gin.Context) {
	cc.serve(c, services.CaptchaForgotPassword)
}

// Register GET /captcha/register
func (cc *CaptchaController) Register(c *gin.Context) {
	cc.serve(c, services.CaptchaRegister)
}

// serve refreshes the slot and answers with a data URI, or the raw image for ?format=png.
func (cc *CaptchaController) serve(c *gin.Context, purpose string) {
	sess := session.Default(c)
	ch, err := cc.captcha.Issue(sess, purpose)
	if err != nil {
		cc.logger.Error("render captcha", zap.String("purpose", purpose), zap.Error(err))
		c.String(http.StatusInternalServerError, utils.MsgInternalError)
		return
	}
	if err := sess.Save(c.Request.Context()); err != nil {
		cc.logger.Error("save session", zap.Error(err))
	}

	c.Header("Cache-Control", "no-store")
	if c.Query("format") == "png" {
		c.Data(http.StatusOK, "image/png", ch.PNG)
		return
	}
	c.String(http.StatusOK, ch.DataURI())
}
