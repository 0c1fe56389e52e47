package room

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/middleware"
	"lifelink-backend/internal/service/call"
	"lifelink-backend/internal/service/room"
	"lifelink-backend/pkg/response"
)

// Handler provisions video rooms for active calls
type Handler struct {
	callService *call.Service
	roomService *room.Service
}

// NewHandler creates a new room handler
func NewHandler(callService *call.Service, roomService *room.Service) *Handler {
	return &Handler{
		callService: callService,
		roomService: roomService,
	}
}

// Provision handles provisioning the video room for a call and minting an
// access token for the caller. The call must be active; pending calls go
// through the join gate first.
// POST /v1/calls/:id/room
func (h *Handler) Provision(c *gin.Context) {
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

	// access check happens inside GetCall
	callReq, err := h.callService.GetCall(c.Request.Context(), callID, userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	if callReq.Status != domain.CallStatusActive {
		response.Conflict(c, "Call is not active")
		return
	}

	userName := middleware.GetFullName(c)
	if userName == "" {
		userName = userID.String()
	}

	provisioned, err := h.roomService.EnsureRoom(c.Request.Context(), callReq.RoomName, userName)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, provisioned)
}
