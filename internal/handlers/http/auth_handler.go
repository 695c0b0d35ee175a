package http

import (
	"net/http"
	"strings"
	"time"

	"platewire/internal/core/domain"
	"platewire/internal/core/ports"
	"platewire/internal/core/services"
	"platewire/internal/infrastructure/middleware"
	"platewire/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler issues the tokens clients present at the websocket handshake.
// Credential verification against a user store lives in the main backend;
// this endpoint trades a verified identity for a signed socket token.
type AuthHandler struct {
	authService services.AuthService
	rooms       ports.RoomManager
	tokenTTL    time.Duration
}

func NewAuthHandler(authService services.AuthService, rooms ports.RoomManager, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		rooms:       rooms,
		tokenTTL:    tokenTTL,
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/auth/token", h.IssueToken)

		authed := api.Group("", middleware.AuthMiddleware(h.authService))
		{
			authed.GET("/stats",
				middleware.RequireRoles(domain.RoleAdmin, domain.RoleOwner),
				h.Stats,
			)
		}
	}
}

type TokenRequest struct {
	UserID      string      `json:"userId" binding:"required,max=100"`
	Role        domain.Role `json:"role" binding:"required"`
	Email       string      `json:"email" binding:"omitempty,max=254"`
	DisplayName string      `json:"displayName" binding:"omitempty,max=100"`
}

func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if !req.Role.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	if req.Email != "" {
		if err := validation.ValidateEmail(req.Email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.UserID == "" {
		req.UserID = uuid.NewString()
	}

	token, err := h.authService.GenerateToken(domain.UserID(req.UserID), req.Role, req.Email, req.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":     req.UserID,
		"role":       req.Role,
		"token":      token,
		"expires_in": int(h.tokenTTL / time.Second),
	})
}

func (h *AuthHandler) Stats(c *gin.Context) {
	online, err := h.rooms.GetOnlineUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list online users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connections": h.rooms.ConnectionCount(),
		"online":      online,
		"timestamp":   time.Now().Unix(),
	})
}
