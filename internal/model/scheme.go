package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Scheme represents a central or state government scheme for livestock farmers
type Scheme struct {
	ID                uuid.UUID
	Title             string
	Description       string
	SchemeType        string
	Eligibility       string
	Benefits          string
	SubsidyPercentage sql.NullFloat64
	ApplicationLink   sql.NullString
	CreatedAt         time.Time
}
