package services

import (
	"strings"

	"foodinsight/pkg/captcha"
)

// Session slots for the two forms that carry a CAPTCHA.
const (
	CaptchaRegister       = "register"
	CaptchaForgotPassword = "forgot_password"
)

// CaptchaSlots is the part of a session that stores expected CAPTCHA answers.
type CaptchaSlots interface {
	CaptchaCode(purpose string) string
	SetCaptchaCode(purpose, code string)
}

type ICaptchaService interface {
	// Issue renders a new challenge and stores its answer in the purpose slot.
	Issue(slots CaptchaSlots, purpose string) (captcha.Challenge, error)
	// Verify checks input against the slot and always issues a replacement challenge.
	Verify(slots CaptchaSlots, purpose, input string) (bool, captcha.Challenge, error)
}

type CaptchaService struct {
	generator *captcha.Generator
}

func NewCaptchaService(generator *captcha.Generator) ICaptchaService {
	return &CaptchaService{generator: generator}
}

func (s *CaptchaService) Issue(slots CaptchaSlots, purpose string) (captcha.Challenge, error) {
	ch, err := s.generator.Generate()
	if err != nil {
		return captcha.Challenge{}, err
	}
	slots.SetCaptchaCode(purpose, strings.ToUpper(ch.Code))
	return ch, nil
}

func (s *CaptchaService) Verify(slots CaptchaSlots, purpose, input string) (bool, captcha.Challenge, error) {
	expected := strings.ToUpper(slots.CaptchaCode(purpose))
	given := strings.ToUpper(strings.TrimSpace(input))
	ok := expected != "" && given == expected

	next, err := s.Issue(slots, purpose)
	return ok, next, err
}
