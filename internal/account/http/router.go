package http

import "github.com/gin-gonic/gin"

// RegisterPublic wires the routes that run before any session exists.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.POST("/signup", h.SignUp)
	rg.POST("/login", h.Login)
	rg.POST("/login/google", h.LoginWithGoogle)
	rg.GET("/email-available", h.CheckEmail)
	rg.POST("/password-reset", h.RequestPasswordReset)
}

// RegisterAuthenticated wires the session-scoped routes; the group must
// carry the Firebase auth middleware.
func (h *Handler) RegisterAuthenticated(rg *gin.RouterGroup) {
	rg.POST("/verify/poll", h.VerifyPoll)
	rg.POST("/verify/resend", h.ResendVerification)
	rg.POST("/reactivate", h.Reactivate)
	rg.POST("/logout", h.Logout)
	rg.PUT("/email", h.ChangeEmail)
	rg.PUT("/password", h.ChangePassword)
	rg.PUT("/name", h.ChangeName)
	rg.POST("/reauthenticate", h.Reauthenticate)
	rg.POST("/disable", h.Disable)
}
