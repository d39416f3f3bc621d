package model

import (
	"time"

	"github.com/google/uuid"
)

// Workshop represents a scheduled training workshop
type Workshop struct {
	ID               uuid.UUID
	Title            string
	Description      string
	WorkshopType     string
	TrainerName      string
	LocationDistrict string
	StartDate        time.Time
	EndDate          time.Time
	MaxParticipants  int
	EnrolledCount    int
	DurationHours    int
	Fee              float64
	Topics           string
}

// IsFull reports whether the workshop has no seats left
func (w *Workshop) IsFull() bool {
	return w.EnrolledCount >= w.MaxParticipants
}

// Remaining returns the number of open seats, never negative
func (w *Workshop) Remaining() int {
	if w.IsFull() {
		return 0
	}
	return w.MaxParticipants - w.EnrolledCount
}
