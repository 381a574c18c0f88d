package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"thrum-backend/internal/features/user/service"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("/top", h.GetTopUsers)
		users.GET("/:address", h.GetUser)
	}
}

// GetUser returns the balance for a wallet address, creating the user on
// first sight.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetOrCreateUser(c.Request.Context(), c.Param("address"))
	if err != nil {
		if err == service.ErrInvalidAddress {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetTopUsers returns the leaderboard, top users by credit balance.
func (h *UserHandler) GetTopUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, err := h.service.GetTopUsers(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, users)
}
