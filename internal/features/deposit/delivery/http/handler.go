package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thrum-backend/internal/features/deposit/service"
	poolservice "thrum-backend/internal/features/pool/service"
	userservice "thrum-backend/internal/features/user/service"
)

type DepositHandler struct {
	deposits service.DepositService
	pool     poolservice.PoolService
	users    userservice.UserService
}

func NewDepositHandler(deposits service.DepositService, pool poolservice.PoolService, users userservice.UserService) *DepositHandler {
	return &DepositHandler{
		deposits: deposits,
		pool:     pool,
		users:    users,
	}
}

func (h *DepositHandler) RegisterRoutes(router *gin.RouterGroup) {
	deposits := router.Group("/deposits")
	{
		deposits.POST("/address", h.GetDepositAddress)
		deposits.POST("/check", h.CheckDeposits)
		deposits.GET("/:address", h.ListDeposits)
	}
}

type addressRequest struct {
	Address string `json:"address" binding:"required"`
}

// GetDepositAddress returns the custodial deposit address assigned to
// the wallet, claiming one from the pool on first call.
func (h *DepositHandler) GetDepositAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Make sure the user row exists before binding an address to it.
	if _, err := h.users.GetOrCreateUser(c.Request.Context(), req.Address); err != nil {
		if errors.Is(err, userservice.ErrInvalidAddress) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	addr, err := h.pool.GetOrAssign(c.Request.Context(), req.Address)
	if err != nil {
		if errors.Is(err, poolservice.ErrPoolExhausted) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "No deposit address available, try again later"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deposit_address": addr})
}

// CheckDeposits reconciles the chain history of the wallet's deposit
// address and applies any credits that became due.
func (h *DepositHandler) CheckDeposits(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	depositAddr, err := h.pool.GetOrAssign(c.Request.Context(), req.Address)
	if err != nil {
		if errors.Is(err, poolservice.ErrPoolExhausted) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "No deposit address available, try again later"})
			return
		}
		if errors.Is(err, poolservice.ErrInvalidAddress) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	newCredits, err := h.deposits.Reconcile(c.Request.Context(), req.Address, depositAddr)
	if err != nil {
		if errors.Is(err, service.ErrChainUnavailable) {
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Chain source unavailable, try again later"})
			return
		}
		if errors.Is(err, service.ErrComplianceUnavailable) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Compliance checks unavailable, try again later"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), req.Address)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deposit_address": depositAddr,
		"new_credits":     newCredits,
		"credits":         user.Credits,
	})
}

// ListDeposits returns the ledger rows for a deposit address, including
// compliance status, for audit display.
func (h *DepositHandler) ListDeposits(c *gin.Context) {
	deposits, err := h.deposits.ListByDepositAddress(c.Request.Context(), c.Param("address"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidAddress) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid deposit address"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, deposits)
}
