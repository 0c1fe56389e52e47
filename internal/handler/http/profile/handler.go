package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/middleware"
	"lifelink-backend/internal/service/profile"
	"lifelink-backend/pkg/pagination"
	"lifelink-backend/pkg/response"
)

// Handler handles profile HTTP requests
type Handler struct {
	profileService *profile.Service
}

// NewHandler creates a new profile handler
func NewHandler(profileService *profile.Service) *Handler {
	return &Handler{
		profileService: profileService,
	}
}

// RegisterRequest represents profile registration request
type RegisterRequest struct {
	Email          string  `json:"email" binding:"required,email"`
	FullName       string  `json:"full_name" binding:"required,min=1,max=200"`
	Role           string  `json:"role" binding:"required,oneof=patient doctor donor"`
	Phone          string  `json:"phone" binding:"max=30"`
	Location       string  `json:"location" binding:"max=200"`
	Age            *int    `json:"age" binding:"omitempty,min=1,max=120"`
	BloodType      *string `json:"blood_type"`
	MedicalHistory string  `json:"medical_history" binding:"max=5000"`
}

// UpdateRequest represents profile update request. Absent fields are left
// unchanged.
type UpdateRequest struct {
	FullName       *string `json:"full_name" binding:"omitempty,min=1,max=200"`
	Phone          *string `json:"phone" binding:"omitempty,max=30"`
	Location       *string `json:"location" binding:"omitempty,max=200"`
	Age            *int    `json:"age" binding:"omitempty,min=1,max=120"`
	BloodType      *string `json:"blood_type"`
	MedicalHistory *string `json:"medical_history" binding:"omitempty,max=5000"`
}

// Register handles creating the caller's platform profile
// POST /v1/profiles
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	var bloodType *domain.BloodType
	if req.BloodType != nil {
		bt := domain.BloodType(*req.BloodType)
		if !bt.Valid() {
			response.ValidationError(c, "Invalid blood type")
			return
		}
		bloodType = &bt
	}

	prof, err := h.profileService.Register(c.Request.Context(), &profile.RegisterInput{
		UserID:         userID,
		Email:          req.Email,
		FullName:       req.FullName,
		Role:           domain.Role(req.Role),
		Phone:          req.Phone,
		Location:       req.Location,
		Age:            req.Age,
		BloodType:      bloodType,
		MedicalHistory: req.MedicalHistory,
	})
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, prof)
}

// GetMe handles retrieving the caller's own profile
// GET /v1/me
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	prof, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, prof)
}

// Get handles retrieving a profile by ID
// GET /v1/profiles/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid profile ID")
		return
	}

	prof, err := h.profileService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, prof)
}

// Update handles partial update of the caller's profile
// PATCH /v1/me
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	var bloodType *domain.BloodType
	if req.BloodType != nil {
		bt := domain.BloodType(*req.BloodType)
		if !bt.Valid() {
			response.ValidationError(c, "Invalid blood type")
			return
		}
		bloodType = &bt
	}

	prof, err := h.profileService.Update(c.Request.Context(), userID, &profile.UpdateInput{
		FullName:       req.FullName,
		Phone:          req.Phone,
		Location:       req.Location,
		Age:            req.Age,
		BloodType:      bloodType,
		MedicalHistory: req.MedicalHistory,
	})
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, prof)
}

// ListDonors handles listing donors. Doctors see every donor; other roles
// only see doctor-approved donors.
// GET /v1/donors?page=1&limit=20
func (h *Handler) ListDonors(c *gin.Context) {
	params, err := pagination.Parse(c.Query("page"), c.Query("limit"))
	if err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	donors, err := h.profileService.ListDonors(c.Request.Context(), middleware.GetRole(c), *params)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, donors)
}

// ListDoctors handles listing registered doctors
// GET /v1/doctors?page=1&limit=20
func (h *Handler) ListDoctors(c *gin.Context) {
	params, err := pagination.Parse(c.Query("page"), c.Query("limit"))
	if err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	doctors, err := h.profileService.ListDoctors(c.Request.Context(), *params)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, doctors)
}

// ListPendingDonors handles listing donors awaiting approval. Doctor only.
// GET /v1/donors/pending?page=1&limit=20
func (h *Handler) ListPendingDonors(c *gin.Context) {
	params, err := pagination.Parse(c.Query("page"), c.Query("limit"))
	if err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	donors, err := h.profileService.ListPendingDonors(c.Request.Context(), middleware.GetRole(c), *params)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, donors)
}

// ApproveDonor handles a doctor approving a donor
// POST /v1/donors/:id/approve
func (h *Handler) ApproveDonor(c *gin.Context) {
	donorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid donor ID")
		return
	}

	doctorID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	donor, err := h.profileService.ApproveDonor(c.Request.Context(), donorID, doctorID, middleware.GetRole(c))
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, donor)
}
