package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jjenkins/husbandry/internal/model"
)

// WorkshopStore handles database operations for training workshops
type WorkshopStore struct {
	db *DB
}

// NewWorkshopStore creates a new WorkshopStore
func NewWorkshopStore(db *DB) *WorkshopStore {
	return &WorkshopStore{db: db}
}

const workshopColumns = `
	id, title, description, workshop_type, trainer_name, location_district,
	start_date, end_date, max_participants, enrolled_count, duration_hours, fee, topics
`

func scanWorkshop(row interface{ Scan(...any) error }, w *model.Workshop) error {
	return row.Scan(
		&w.ID,
		&w.Title,
		&w.Description,
		&w.WorkshopType,
		&w.TrainerName,
		&w.LocationDistrict,
		&w.StartDate,
		&w.EndDate,
		&w.MaxParticipants,
		&w.EnrolledCount,
		&w.DurationHours,
		&w.Fee,
		&w.Topics,
	)
}

// GetAll retrieves every workshop in the requested order
func (s *WorkshopStore) GetAll(ctx context.Context, order Order) ([]model.Workshop, error) {
	orderBy, err := order.clause("start_date", "title", "location_district", "fee")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + workshopColumns + ` FROM training_workshops ` + orderBy

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get workshops: %w", err)
	}
	defer rows.Close()

	var workshops []model.Workshop
	for rows.Next() {
		var w model.Workshop
		if err := scanWorkshop(rows, &w); err != nil {
			return nil, fmt.Errorf("failed to scan workshop: %w", err)
		}
		workshops = append(workshops, w)
	}

	return workshops, rows.Err()
}

// GetByID retrieves a workshop by its ID
func (s *WorkshopStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM training_workshops WHERE id = $1`

	var w model.Workshop
	err := scanWorkshop(s.db.QueryRowContext(ctx, query, id), &w)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workshop %s: %w", id, err)
	}

	return &w, nil
}

// Upsert inserts or updates a workshop by ID
func (s *WorkshopStore) Upsert(ctx context.Context, w *model.Workshop) error {
	query := `
		INSERT INTO training_workshops (` + workshopColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			workshop_type = EXCLUDED.workshop_type,
			trainer_name = EXCLUDED.trainer_name,
			location_district = EXCLUDED.location_district,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			max_participants = EXCLUDED.max_participants,
			enrolled_count = EXCLUDED.enrolled_count,
			duration_hours = EXCLUDED.duration_hours,
			fee = EXCLUDED.fee,
			topics = EXCLUDED.topics
	`

	_, err := s.db.ExecContext(ctx, query,
		w.ID,
		w.Title,
		w.Description,
		w.WorkshopType,
		w.TrainerName,
		w.LocationDistrict,
		w.StartDate,
		w.EndDate,
		w.MaxParticipants,
		w.EnrolledCount,
		w.DurationHours,
		w.Fee,
		w.Topics,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert workshop %s: %w", w.ID, err)
	}

	return nil
}
