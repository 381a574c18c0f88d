package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thrum-backend/internal/features/compliance/models"
	"thrum-backend/internal/features/compliance/service"
)

type ComplianceHandler struct {
	service service.ComplianceService
}

func NewComplianceHandler(service service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{
		service: service,
	}
}

func (h *ComplianceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/consent", h.RecordConsent)
}

type consentRequest struct {
	Address  string `json:"address" binding:"required"`
	Kind     string `json:"kind" binding:"required"`
	ValueWei *int64 `json:"value_wei"`
	Tier     string `json:"tier"`
}

// RecordConsent appends an immutable consent event, stamped with the
// current policy versions.
func (h *ComplianceHandler) RecordConsent(c *gin.Context) {
	var req consentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Kind == models.ConsentKindPurchase && (req.ValueWei == nil || *req.ValueWei <= 0) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Purchase consent requires a positive value_wei"})
		return
	}

	err := h.service.RecordConsent(c.Request.Context(), service.ConsentInput{
		UserAddress: req.Address,
		Kind:        req.Kind,
		ValueWei:    req.ValueWei,
		Tier:        req.Tier,
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidAddress) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true})
}
