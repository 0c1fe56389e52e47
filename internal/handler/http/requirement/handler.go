package requirement

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/middleware"
	"lifelink-backend/internal/service/requirement"
	"lifelink-backend/pkg/pagination"
	"lifelink-backend/pkg/response"
)

// Handler handles organ requirement HTTP requests
type Handler struct {
	reqService *requirement.Service
}

// NewHandler creates a new requirement handler
func NewHandler(reqService *requirement.Service) *Handler {
	return &Handler{
		reqService: reqService,
	}
}

// CreateRequest represents create requirement request
type CreateRequest struct {
	OrganType   string `json:"organ_type" binding:"required"`
	Urgency     string `json:"urgency" binding:"required"`
	BloodType   string `json:"blood_type_required" binding:"required"`
	Description string `json:"description" binding:"max=2000"`
}

// CloseRequest represents close requirement request
type CloseRequest struct {
	Status string `json:"status" binding:"required,oneof=fulfilled cancelled"`
}

// Create handles posting a new organ requirement. Patient only.
// POST /v1/requirements
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	result, err := h.reqService.Create(c.Request.Context(), &requirement.CreateInput{
		PatientID:         userID,
		PatientRole:       middleware.GetRole(c),
		OrganType:         domain.OrganType(req.OrganType),
		Urgency:           domain.Urgency(req.Urgency),
		BloodTypeRequired: domain.BloodType(req.BloodType),
		Description:       req.Description,
	})
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// ListActive handles listing active requirements ordered by urgency
// GET /v1/requirements?page=1&limit=20
func (h *Handler) ListActive(c *gin.Context) {
	params, err := pagination.Parse(c.Query("page"), c.Query("limit"))
	if err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	paged, err := h.reqService.ListActive(c.Request.Context(), *params)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, paged)
}

// ListMine handles listing the caller's own requirements
// GET /v1/me/requirements
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	reqs, err := h.reqService.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, reqs)
}

// Get handles retrieving a requirement by ID
// GET /v1/requirements/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid requirement ID")
		return
	}

	req, err := h.reqService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, req)
}

// Close handles fulfilling or cancelling the caller's active requirement
// POST /v1/requirements/:id/close
func (h *Handler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid requirement ID")
		return
	}

	var req CloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.reqService.Close(c.Request.Context(), id, userID, req.Status); err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Requirement closed",
	})
}
