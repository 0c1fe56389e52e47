package contact

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lifelink-backend/internal/middleware"
	"lifelink-backend/internal/service/contact"
	"lifelink-backend/pkg/response"
)

// Handler handles contact request HTTP requests
type Handler struct {
	contactService *contact.Service
}

// NewHandler creates a new contact handler
func NewHandler(contactService *contact.Service) *Handler {
	return &Handler{
		contactService: contactService,
	}
}

// SendRequest represents send contact request
type SendRequest struct {
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
	Message     string `json:"message" binding:"required,min=1,max=2000"`
}

// RespondRequest represents respond to contact request
type RespondRequest struct {
	Accept   bool   `json:"accept"`
	Response string `json:"response" binding:"max=2000"`
}

// Send handles sending a contact request
// POST /v1/contact-requests
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		response.ValidationError(c, "Invalid recipient ID")
		return
	}

	request, err := h.contactService.Send(c.Request.Context(), userID, recipientID, req.Message)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, request)
}

// Respond handles accepting or declining a received contact request
// POST /v1/contact-requests/:id/respond
func (h *Handler) Respond(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid contact request ID")
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	request, err := h.contactService.Respond(c.Request.Context(), id, userID, req.Accept, req.Response)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, request)
}

// ListReceived handles listing contact requests received by the caller
// GET /v1/contact-requests/received
func (h *Handler) ListReceived(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	requests, err := h.contactService.ListReceived(c.Request.Context(), userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, requests)
}

// ListSent handles listing contact requests sent by the caller
// GET /v1/contact-requests/sent
func (h *Handler) ListSent(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	requests, err := h.contactService.ListSent(c.Request.Context(), userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, requests)
}
