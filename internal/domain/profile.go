package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the platform role of a registered user
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleDonor   Role = "donor"
)

// Valid reports whether the role is one of the known values
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleDonor:
		return true
	}
	return false
}

// BloodType is one of the eight ABO/Rh blood groups
type BloodType string

const (
	BloodAPos  BloodType = "A+"
	BloodANeg  BloodType = "A-"
	BloodBPos  BloodType = "B+"
	BloodBNeg  BloodType = "B-"
	BloodABPos BloodType = "AB+"
	BloodABNeg BloodType = "AB-"
	BloodOPos  BloodType = "O+"
	BloodONeg  BloodType = "O-"
)

// Valid reports whether the blood type is one of the known groups
func (b BloodType) Valid() bool {
	switch b {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg,
		BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return true
	}
	return false
}

// Profile represents a registered user: patient, donor, or overseeing doctor.
// Identity comes from the external auth provider; the profile row carries the
// platform-specific attributes.
type Profile struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	FullName         string     `json:"full_name"`
	Role             Role       `json:"role"`
	Phone            string     `json:"phone,omitempty"`
	Location         string     `json:"location,omitempty"`
	Age              *int       `json:"age,omitempty"`
	BloodType        *BloodType `json:"blood_type,omitempty"`
	MedicalHistory   string     `json:"medical_history,omitempty"`
	ApprovedByDoctor bool       `json:"approved_by_doctor"`
	ApprovedBy       *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
