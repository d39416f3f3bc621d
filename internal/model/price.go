package model

import (
	"time"

	"github.com/google/uuid"
)

// Trend describes the recent direction of a market price
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Valid reports whether t is one of the known trends
func (t Trend) Valid() bool {
	switch t {
	case TrendIncreasing, TrendDecreasing, TrendStable:
		return true
	}
	return false
}

// PriceQuote represents a livestock price reported by a district market
type PriceQuote struct {
	ID               uuid.UUID
	LivestockType    string
	Breed            string
	PricePerUnit     float64
	UnitType         string
	LocationDistrict string
	MarketName       string
	Trend            Trend
	Date             time.Time
}
