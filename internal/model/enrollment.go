package model

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment ties a user to a workshop. The pair (UserID, WorkshopID) is unique.
type Enrollment struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	WorkshopID uuid.UUID
	CreatedAt  time.Time
}
