package store

import (
	"context"
	"fmt"

	"github.com/jjenkins/husbandry/internal/model"
)

// VeterinaryStore handles database operations for the veterinary directory
type VeterinaryStore struct {
	db *DB
}

// NewVeterinaryStore creates a new VeterinaryStore
func NewVeterinaryStore(db *DB) *VeterinaryStore {
	return &VeterinaryStore{db: db}
}

// GetAll retrieves every veterinary service in the requested order
func (s *VeterinaryStore) GetAll(ctx context.Context, order Order) ([]model.VeterinaryService, error) {
	orderBy, err := order.clause("clinic_name", "location_district")
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, clinic_name, veterinarian_name, specialization, location_address,
		       location_district, phone_number, email, services, availability_days,
		       availability_hours
		FROM veterinary_services
	` + orderBy

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get veterinary services: %w", err)
	}
	defer rows.Close()

	var services []model.VeterinaryService
	for rows.Next() {
		var v model.VeterinaryService
		err := rows.Scan(
			&v.ID,
			&v.ClinicName,
			&v.VeterinarianName,
			&v.Specialization,
			&v.LocationAddress,
			&v.LocationDistrict,
			&v.PhoneNumber,
			&v.Email,
			&v.Services,
			&v.AvailabilityDays,
			&v.AvailabilityHours,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan veterinary service: %w", err)
		}
		services = append(services, v)
	}

	return services, rows.Err()
}

// Upsert inserts or updates a veterinary service by ID
func (s *VeterinaryStore) Upsert(ctx context.Context, v *model.VeterinaryService) error {
	query := `
		INSERT INTO veterinary_services (id, clinic_name, veterinarian_name, specialization,
		                                 location_address, location_district, phone_number, email,
		                                 services, availability_days, availability_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			clinic_name = EXCLUDED.clinic_name,
			veterinarian_name = EXCLUDED.veterinarian_name,
			specialization = EXCLUDED.specialization,
			location_address = EXCLUDED.location_address,
			location_district = EXCLUDED.location_district,
			phone_number = EXCLUDED.phone_number,
			email = EXCLUDED.email,
			services = EXCLUDED.services,
			availability_days = EXCLUDED.availability_days,
			availability_hours = EXCLUDED.availability_hours
	`

	_, err := s.db.ExecContext(ctx, query,
		v.ID,
		v.ClinicName,
		v.VeterinarianName,
		v.Specialization,
		v.LocationAddress,
		v.LocationDistrict,
		v.PhoneNumber,
		v.Email,
		v.Services,
		v.AvailabilityDays,
		v.AvailabilityHours,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert veterinary service %s: %w", v.ID, err)
	}

	return nil
}
