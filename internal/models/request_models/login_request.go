package request_models

import "strings"

// Forms are bound with ShouldBind (application/x-www-form-urlencoded or multipart).

type LoginRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

type SignUpRequest struct {
	Email    string `form:"email"`
	Number   string `form:"number"`
	Name     string `form:"name"`
	Gender   string `form:"gender"`
	Password string `form:"password"`
	Captcha  string `form:"captcha"`
}

// Normalize trims every field the way the form handlers expect.
func (r *SignUpRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Number = strings.TrimSpace(r.Number)
	r.Name = strings.TrimSpace(r.Name)
	r.Gender = strings.TrimSpace(r.Gender)
	r.Password = strings.TrimSpace(r.Password)
	r.Captcha = strings.TrimSpace(r.Captcha)
}

func (r *SignUpRequest) Complete() bool {
	return r.Email != "" && r.Number != "" && r.Name != "" && r.Gender != "" && r.Password != ""
}

type VerifyOtpRequest struct {
	Email string `form:"email"`
	Otp   string `form:"otp"`
}

type ResendOtpRequest struct {
	Email string `form:"email"`
}

type RequestForgotPassword struct {
	Email   string `form:"email"`
	Captcha string `form:"captcha"`
}

type ResetPasswordRequest struct {
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}
