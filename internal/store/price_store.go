package store

import (
	"context"
	"fmt"

	"github.com/jjenkins/husbandry/internal/model"
)

// PriceStore handles database operations for livestock market prices
type PriceStore struct {
	db *DB
}

// NewPriceStore creates a new PriceStore
func NewPriceStore(db *DB) *PriceStore {
	return &PriceStore{db: db}
}

// GetAll retrieves every price quote in the requested order
func (s *PriceStore) GetAll(ctx context.Context, order Order) ([]model.PriceQuote, error) {
	orderBy, err := order.clause("date", "livestock_type", "location_district", "price_per_unit")
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, livestock_type, breed, price_per_unit, unit_type,
		       location_district, market_name, trend, date
		FROM livestock_prices
	` + orderBy

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get livestock prices: %w", err)
	}
	defer rows.Close()

	var prices []model.PriceQuote
	for rows.Next() {
		var p model.PriceQuote
		err := rows.Scan(
			&p.ID,
			&p.LivestockType,
			&p.Breed,
			&p.PricePerUnit,
			&p.UnitType,
			&p.LocationDistrict,
			&p.MarketName,
			&p.Trend,
			&p.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan livestock price: %w", err)
		}
		prices = append(prices, p)
	}

	return prices, rows.Err()
}

// Upsert inserts or updates a price quote by ID
func (s *PriceStore) Upsert(ctx context.Context, p *model.PriceQuote) error {
	query := `
		INSERT INTO livestock_prices (id, livestock_type, breed, price_per_unit, unit_type,
		                              location_district, market_name, trend, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			livestock_type = EXCLUDED.livestock_type,
			breed = EXCLUDED.breed,
			price_per_unit = EXCLUDED.price_per_unit,
			unit_type = EXCLUDED.unit_type,
			location_district = EXCLUDED.location_district,
			market_name = EXCLUDED.market_name,
			trend = EXCLUDED.trend,
			date = EXCLUDED.date
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.LivestockType,
		p.Breed,
		p.PricePerUnit,
		p.UnitType,
		p.LocationDistrict,
		p.MarketName,
		string(p.Trend),
		p.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert livestock price %s: %w", p.ID, err)
	}

	return nil
}
