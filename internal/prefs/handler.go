package prefs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/aquavolt-iot/aquavolt-backend/internal/api/http/middleware"
)

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/onboarding", h.GetOnboarding)
	rg.PUT("/onboarding", h.CompleteOnboarding)
	rg.DELETE("/onboarding", h.ResetOnboarding)
}

func (h *Handler) GetOnboarding(c *gin.Context) {
	done := h.repo.HasCompletedOnboarding(c.Request.Context(), c.GetString(mw.CtxFirebaseUID))
	c.JSON(http.StatusOK, gin.H{"completed": done})
}

func (h *Handler) CompleteOnboarding(c *gin.Context) {
	if err := h.repo.SetCompletedOnboarding(c.Request.Context(), c.GetString(mw.CtxFirebaseUID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save onboarding state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": true})
}

func (h *Handler) ResetOnboarding(c *gin.Context) {
	if err := h.repo.ClearOnboarding(c.Request.Context(), c.GetString(mw.CtxFirebaseUID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reset onboarding state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": false})
}
