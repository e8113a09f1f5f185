package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquavolt-iot/aquavolt-backend/internal/account/domain"
	"github.com/aquavolt-iot/aquavolt-backend/internal/account/service"
	mw "github.com/aquavolt-iot/aquavolt-backend/internal/api/http/middleware"
	"github.com/aquavolt-iot/aquavolt-backend/internal/identity"
)

// SignUp registers a password account and routes the caller to the
// verification-wait state.
func (h *Handler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := h.svc.SignUp(c.Request.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": sess, "verification_required": true})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	writeLoginResult(c, res)
}

func (h *Handler) LoginWithGoogle(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.LoginWithFederatedToken(c.Request.Context(), req.IDToken)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	writeLoginResult(c, res)
}

// CheckEmail answers the typing-time "is this email taken" lookup. A
// superseded check returns 204: the same client already issued a newer one
// and must ignore this response. Supersession is scoped to the client,
// identified by the `client` query param (the caller's IP when absent), so
// concurrent users never cancel each other's checks.
func (h *Handler) CheckEmail(c *gin.Context) {
	email := c.Query("email")
	clientKey := c.Query("client")
	if clientKey == "" {
		clientKey = c.ClientIP()
	}

	taken, err := h.checker.Check(c.Request.Context(), clientKey, email)
	if err != nil {
		if errors.Is(err, service.ErrCheckSuperseded) {
			c.Status(http.StatusNoContent)
			return
		}
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": !taken})
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// VerifyPoll checks whether the verification link was clicked. "Not yet"
// is a normal answer, not an error.
func (h *Handler) VerifyPoll(c *gin.Context) {
	sess := sessionFromContext(c)

	outcome, err := h.svc.VerifyEmailPoll(c.Request.Context(), sess)
	if err != nil {
		if domain.IsKind(err, domain.KindNotVerifiedYet) {
			c.JSON(http.StatusOK, gin.H{"verified": false})
			return
		}
		writeAccountError(c, err)
		return
	}
	// verification always ends the session; the client must log in again
	c.JSON(http.StatusOK, gin.H{"verified": true, "outcome": outcome, "logged_out": true})
}

func (h *Handler) ResendVerification(c *gin.Context) {
	sess := sessionFromContext(c)
	if !h.resends.Allow(sess.UID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many resend attempts, try again later"})
		return
	}

	if err := h.svc.ResendVerification(c.Request.Context(), sess); err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Reactivate resolves the disabled-account choice by starting
// reactivation; the session ends until the email is confirmed.
func (h *Handler) Reactivate(c *gin.Context) {
	sess := sessionFromContext(c)
	if !h.resends.Allow(sess.UID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many resend attempts, try again later"})
		return
	}

	if err := h.svc.Reactivate(c.Request.Context(), sess); err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactivation_pending": true, "logged_out": true})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.CancelLogin(c.Request.Context(), sessionFromContext(c)); err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

func (h *Handler) ChangeEmail(c *gin.Context) {
	var req changeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.ChangeEmail(c.Request.Context(), sessionFromContext(c), req.Email); err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending_verification": true})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), sessionFromContext(c), req.Password, req.Confirm); err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Reauthenticate(c *gin.Context) {
	var req reauthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.Reauthenticate(c.Request.Context(), sessionFromContext(c), req.Password); err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) ChangeName(c *gin.Context) {
	var req changeNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.UpdateFullName(c.Request.Context(), sessionFromContext(c), req.FullName); err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Disable(c *gin.Context) {
	if err := h.svc.DisableAccount(c.Request.Context(), sessionFromContext(c)); err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disabled": true, "logged_out": true})
}

// sessionFromContext rebuilds the caller's session from the verified ID
// token placed in context by the auth middleware.
func sessionFromContext(c *gin.Context) *identity.Session {
	return &identity.Session{
		UID:           c.GetString(mw.CtxFirebaseUID),
		Email:         c.GetString(mw.CtxEmail),
		EmailVerified: c.GetBool(mw.CtxEmailVerified),
		IDToken:       c.GetString(mw.CtxIDToken),
	}
}

func writeLoginResult(c *gin.Context, res *service.LoginResult) {
	if res.Disabled {
		// no dashboard access; the client offers reactivate-or-cancel
		c.JSON(http.StatusForbidden, gin.H{
			"code":    string(domain.KindAccountDisabled),
			"session": res.Session,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": res.Session})
}

func writeAccountError(c *gin.Context, err error) {
	var ae *domain.Error
	if !errors.As(err, &ae) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch ae.Kind {
	case domain.KindInvalidInput:
		status = http.StatusBadRequest
	case domain.KindEmailAlreadyRegistered, domain.KindAccountExistsWithOther:
		status = http.StatusConflict
	case domain.KindEmailNotVerified, domain.KindAccountDisabled:
		status = http.StatusForbidden
	case domain.KindWrongPassword, domain.KindRequiresRecentLogin:
		status = http.StatusUnauthorized
	case domain.KindTooManyRequests:
		status = http.StatusTooManyRequests
	case domain.KindNetworkError:
		status = http.StatusBadGateway
	case domain.KindNotVerifiedYet:
		status = http.StatusConflict
	}

	body := gin.H{"code": string(ae.Kind), "error": ae.Message}
	if ae.Field != "" {
		body["field"] = ae.Field
	}
	c.JSON(status, body)
}
