package http

import (
	"github.com/aquavolt-iot/aquavolt-backend/internal/account/service"
)

type Handler struct {
	svc     *service.AccountService
	checker *service.EmailChecker
	resends *resendLimiter
}

func New(svc *service.AccountService, checker *service.EmailChecker) *Handler {
	return &Handler{
		svc:     svc,
		checker: checker,
		resends: newResendLimiter(),
	}
}

type signUpRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type changeEmailRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

type reauthenticateRequest struct {
	Password string `json:"password"`
}

type changeNameRequest struct {
	FullName string `json:"full_name"`
}
