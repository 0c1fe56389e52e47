package notification

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lifelink-backend/internal/middleware"
	"lifelink-backend/pkg/push"
	"lifelink-backend/pkg/response"
)

// Handler handles push token HTTP requests
type Handler struct {
	pushService *push.Service
}

// NewHandler creates a new notification handler
func NewHandler(pushService *push.Service) *Handler {
	return &Handler{
		pushService: pushService,
	}
}

// RegisterTokenRequest represents push token registration request
type RegisterTokenRequest struct {
	Token    string `json:"token" binding:"required,min=1,max=4096"`
	Type     string `json:"type" binding:"required,oneof=fcm apns web"`
	Platform string `json:"platform" binding:"omitempty,oneof=ios android web"`
}

// RegisterToken handles registering a device token for the caller
// POST /v1/push-tokens
func (h *Handler) RegisterToken(c *gin.Context) {
	var req RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	now := time.Now().Unix()
	token := &push.Token{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     req.Token,
		Type:      push.TokenType(req.Type),
		Platform:  req.Platform,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.pushService.RegisterToken(c.Request.Context(), token); err != nil {
		response.InternalError(c, "Failed to register push token")
		return
	}

	response.Success(c, http.StatusCreated, token)
}

// UnregisterToken handles removing a device token
// DELETE /v1/push-tokens/:id
func (h *Handler) UnregisterToken(c *gin.Context) {
	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid token ID")
		return
	}

	if _, ok := middleware.GetUserID(c); !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.pushService.UnregisterToken(c.Request.Context(), tokenID); err != nil {
		response.InternalError(c, "Failed to unregister push token")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Push token removed",
	})
}
