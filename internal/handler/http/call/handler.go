package call

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lifelink-backend/internal/middleware"
	"lifelink-backend/internal/service/call"
	"lifelink-backend/pkg/response"
)

// Handler handles conference call HTTP requests
type Handler struct {
	callService *call.Service
}

// NewHandler creates a new call handler
func NewHandler(callService *call.Service) *Handler {
	return &Handler{
		callService: callService,
	}
}

// CreateCallRequest represents create call request
type CreateCallRequest struct {
	Title          string   `json:"title" binding:"required,min=1,max=200"`
	ParticipantIDs []string `json:"participant_ids" binding:"required,min=1,max=20"`
}

// RespondRequest represents respond to invitation request
type RespondRequest struct {
	Accept bool `json:"accept"`
}

// Create handles creating a call request with its invitations
// POST /v1/calls
func (h *Handler) Create(c *gin.Context) {
	var req CreateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	participantIDs := make([]uuid.UUID, len(req.ParticipantIDs))
	for i, idStr := range req.ParticipantIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			response.ValidationError(c, "Invalid participant ID")
			return
		}
		participantIDs[i] = id
	}

	created, err := h.callService.CreateCall(c.Request.Context(), &call.CreateCallInput{
		InitiatorID:    userID,
		Title:          req.Title,
		ParticipantIDs: participantIDs,
	})
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

// Get handles retrieving a call with its participants
// GET /v1/calls/:id
func (h *Handler) Get(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	result, err := h.callService.GetCall(c.Request.Context(), callID, userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListCreated handles listing calls created by the caller
// GET /v1/calls
func (h *Handler) ListCreated(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	calls, err := h.callService.ListCreated(c.Request.Context(), userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, calls)
}

// Join handles a join attempt. The outcome may be a started or rejoined
// call, or a waiting result naming the participants who have not accepted
// yet; waiting is a normal response, not an error.
// POST /v1/calls/:id/join
func (h *Handler) Join(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	result, err := h.callService.Join(c.Request.Context(), callID, userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// End handles the initiator ending an active call
// POST /v1/calls/:id/end
func (h *Handler) End(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.callService.End(c.Request.Context(), callID, userID); err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Call ended",
	})
}

// ListInvitations handles listing the caller's call invitations
// GET /v1/invitations
func (h *Handler) ListInvitations(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	invitations, err := h.callService.ListInvitations(c.Request.Context(), userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, invitations)
}

// Respond handles accepting or declining a call invitation
// POST /v1/invitations/:id/respond
func (h *Handler) Respond(c *gin.Context) {
	participantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid invitation ID")
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

	participant, err := h.callService.Respond(c.Request.Context(), participantID, userID, req.Accept)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, participant)
}
