package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/aquavolt-iot/aquavolt-backend/internal/api/http/middleware"
	"github.com/aquavolt-iot/aquavolt-backend/internal/device/domain"
	"github.com/aquavolt-iot/aquavolt-backend/internal/device/repository"
)

type Handler struct {
	bindings *repository.BindingRepository
}

func New(bindings *repository.BindingRepository) *Handler {
	return &Handler{bindings: bindings}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.GetBinding)
	rg.PUT("", h.SaveBinding)
	rg.PATCH("", h.UpdateBinding)
	rg.DELETE("", h.RemoveBinding)
	rg.PUT("/connection-type", h.SetConnectionType)
}

// GetBinding returns the device currently associated with the account, or
// 404 when none is stored.
func (h *Handler) GetBinding(c *gin.Context) {
	b := h.bindings.Get(c.Request.Context(), c.GetString(mw.CtxFirebaseUID))
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no device associated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"device": b})
}

// SaveBinding overwrites the binding wholesale. Called when pairing
// completes.
func (h *Handler) SaveBinding(c *gin.Context) {
	var b domain.Binding
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.bindings.Save(c.Request.Context(), c.GetString(mw.CtxFirebaseUID), &b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"device": b})
}

// UpdateBinding deep-merges a partial patch into the stored binding, e.g.
// flipping bluetooth.statusLabel without touching bluetooth.rssi.
func (h *Handler) UpdateBinding(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	b, err := h.bindings.Update(c.Request.Context(), c.GetString(mw.CtxFirebaseUID), patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"device": b})
}

func (h *Handler) RemoveBinding(c *gin.Context) {
	if err := h.bindings.Clear(c.Request.Context(), c.GetString(mw.CtxFirebaseUID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

func (h *Handler) SetConnectionType(c *gin.Context) {
	var req struct {
		ConnectionType string `json:"connection_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	b, err := h.bindings.SetConnectionType(c.Request.Context(), c.GetString(mw.CtxFirebaseUID), req.ConnectionType)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidConnectionType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid connection type"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"device": b})
}
