package store

import (
	"context"
	"fmt"

	"github.com/jjenkins/husbandry/internal/model"
)

// SchemeStore handles database operations for government schemes
type SchemeStore struct {
	db *DB
}

// NewSchemeStore creates a new SchemeStore
func NewSchemeStore(db *DB) *SchemeStore {
	return &SchemeStore{db: db}
}

// GetAll retrieves every scheme in the requested order
func (s *SchemeStore) GetAll(ctx context.Context, order Order) ([]model.Scheme, error) {
	orderBy, err := order.clause("created_at", "title", "scheme_type")
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, title, description, scheme_type, eligibility, benefits,
		       subsidy_percentage, application_link, created_at
		FROM government_schemes
	` + orderBy

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get schemes: %w", err)
	}
	defer rows.Close()

	var schemes []model.Scheme
	for rows.Next() {
		var sc model.Scheme
		err := rows.Scan(
			&sc.ID,
			&sc.Title,
			&sc.Description,
			&sc.SchemeType,
			&sc.Eligibility,
			&sc.Benefits,
			&sc.SubsidyPercentage,
			&sc.ApplicationLink,
			&sc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheme: %w", err)
		}
		schemes = append(schemes, sc)
	}

	return schemes, rows.Err()
}

// Upsert inserts or updates a scheme by ID
func (s *SchemeStore) Upsert(ctx context.Context, sc *model.Scheme) error {
	query := `
		INSERT INTO government_schemes (id, title, description, scheme_type, eligibility,
		                                benefits, subsidy_percentage, application_link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			scheme_type = EXCLUDED.scheme_type,
			eligibility = EXCLUDED.eligibility,
			benefits = EXCLUDED.benefits,
			subsidy_percentage = EXCLUDED.subsidy_percentage,
			application_link = EXCLUDED.application_link,
			created_at = EXCLUDED.created_at
	`

	_, err := s.db.ExecContext(ctx, query,
		sc.ID,
		sc.Title,
		sc.Description,
		sc.SchemeType,
		sc.Eligibility,
		sc.Benefits,
		sc.SubsidyPercentage,
		sc.ApplicationLink,
		sc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert scheme %s: %w", sc.ID, err)
	}

	return nil
}
