package captcha_fx

import (
	"go.uber.org/fx"

	"foodinsight/internal/services"
	"foodinsight/pkg/captcha"
)

var Module = fx.Provide(
	captcha.NewGenerator,
	services.NewCaptchaService)
