package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrganType is a transplantable organ supported by the platform
type OrganType string

const (
	OrganKidney   OrganType = "kidney"
	OrganLiver    OrganType = "liver"
	OrganHeart    OrganType = "heart"
	OrganLung     OrganType = "lung"
	OrganPancreas OrganType = "pancreas"
	OrganCornea   OrganType = "cornea"
)

// Valid reports whether the organ type is supported
func (o OrganType) Valid() bool {
	switch o {
	case OrganKidney, OrganLiver, OrganHeart, OrganLung, OrganPancreas, OrganCornea:
		return true
	}
	return false
}

// Urgency is the triage level of an organ requirement. The ordering
// critical < urgent < moderate is relied on for urgency-sorted listings.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyModerate Urgency = "moderate"
)

// Valid reports whether the urgency is a known level
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyCritical, UrgencyUrgent, UrgencyModerate:
		return true
	}
	return false
}

// Rank returns the sort rank of the urgency, most urgent first
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 0
	case UrgencyUrgent:
		return 1
	default:
		return 2
	}
}

// Requirement statuses
const (
	RequirementStatusActive    = "active"
	RequirementStatusFulfilled = "fulfilled"
	RequirementStatusCancelled = "cancelled"
)

// Requirement represents a patient's organ requirement listing
type Requirement struct {
	ID                uuid.UUID `json:"id"`
	PatientID         uuid.UUID `json:"patient_id"`
	OrganType         OrganType `json:"organ_type"`
	Urgency           Urgency   `json:"urgency"`
	BloodTypeRequired BloodType `json:"blood_type_required"`
	Description       string    `json:"description,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// PatientName is populated on joined reads for display
	PatientName string `json:"patient_name,omitempty"`
}
