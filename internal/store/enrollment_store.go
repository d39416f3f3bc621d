package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/husbandry/internal/model"
)

// EnrollmentStore handles database operations for workshop enrollments
type EnrollmentStore struct {
	db *DB
}

// NewEnrollmentStore creates a new EnrollmentStore
func NewEnrollmentStore(db *DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

// Insert records an enrollment. A second enrollment of the same user in the
// same workshop fails with ErrUniqueViolation.
func (s *EnrollmentStore) Insert(ctx context.Context, e *model.Enrollment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO workshop_enrollments (id, user_id, workshop_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.ExecContext(ctx, query, e.ID, e.UserID, e.WorkshopID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to enroll user %s in workshop %s: %w", e.UserID, e.WorkshopID, classify(err))
	}

	return nil
}

// CountForWorkshop returns the number of enrollment records of a workshop
func (s *EnrollmentStore) CountForWorkshop(ctx context.Context, workshopID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM workshop_enrollments WHERE workshop_id = $1`

	var count int
	if err := s.db.QueryRowContext(ctx, query, workshopID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count enrollments for workshop %s: %w", workshopID, err)
	}

	return count, nil
}
