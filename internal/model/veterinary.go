package model

import (
	"database/sql"

	"github.com/google/uuid"
)

// VeterinaryService represents a clinic in the veterinary directory
type VeterinaryService struct {
	ID                uuid.UUID
	ClinicName        string
	VeterinarianName  string
	Specialization    sql.NullString
	LocationAddress   string
	LocationDistrict  string
	PhoneNumber       string
	Email             sql.NullString
	Services          string
	AvailabilityDays  string
	AvailabilityHours string
}
