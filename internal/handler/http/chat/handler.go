package chat

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lifelink-backend/internal/middleware"
	"lifelink-backend/internal/service/chat"
	"lifelink-backend/pkg/response"
)

// Handler handles direct messaging HTTP requests
type Handler struct {
	chatService *chat.Service
}

// NewHandler creates a new chat handler
func NewHandler(chatService *chat.Service) *Handler {
	return &Handler{
		chatService: chatService,
	}
}

// OpenConversationRequest represents open conversation request
type OpenConversationRequest struct {
	OtherUserID string `json:"other_user_id" binding:"required,uuid"`
}

// SendMessageRequest represents send message request
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// OpenConversation handles opening (or returning) the conversation between
// the caller and another user
// POST /v1/conversations
func (h *Handler) OpenConversation(c *gin.Context) {
	var req OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	otherID, err := uuid.Parse(req.OtherUserID)
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}

	conv, err := h.chatService.OpenConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, conv)
}

// ListConversations handles listing the caller's conversations with unread
// counts
// GET /v1/conversations
func (h *Handler) ListConversations(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	convs, err := h.chatService.ListConversations(c.Request.Context(), userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, convs)
}

// GetMessages handles retrieving recent messages of a conversation
// GET /v1/conversations/:id/messages?limit=50
func (h *Handler) GetMessages(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid conversation ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			response.ValidationError(c, "Invalid limit parameter")
			return
		}
	}

	messages, err := h.chatService.GetMessages(c.Request.Context(), conversationID, userID, limit)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, messages)
}

// SendMessage handles sending a message in a conversation
// POST /v1/conversations/:id/messages
func (h *Handler) SendMessage(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid conversation ID")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), conversationID, userID, req.Content)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, message)
}

// MarkRead handles marking the partner's messages in a conversation as read
// POST /v1/conversations/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid conversation ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	marked, err := h.chatService.MarkRead(c.Request.Context(), conversationID, userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"marked_read": marked,
	})
}
