package service

import (
	"bytes"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/husbandry/internal/model"
)

// Table names of a listings bundle, in import order
const (
	TablePrices     = "livestock_prices"
	TableSchemes    = "government_schemes"
	TableWorkshops  = "training_workshops"
	TableVeterinary = "veterinary_services"
)

var bundleTables = []string{TablePrices, TableSchemes, TableWorkshops, TableVeterinary}

// RecordError is a bundle record that could not be turned into a model
type RecordError struct {
	Table string
	Index int
	Err   error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Table, e.Index, e.Err)
}

// ParseResult contains the records decoded from a listings bundle
type ParseResult struct {
	Prices     []model.PriceQuote
	Schemes    []model.Scheme
	Workshops  []model.Workshop
	Veterinary []model.VeterinaryService
	Invalid    []RecordError
	Unknown    []string // top-level keys that are not listing tables
	Checksum   string
}

// Count returns the number of records seen for a table, valid or not
func (r *ParseResult) Count(table string) int {
	n := 0
	for _, e := range r.Invalid {
		if e.Table == table {
			n++
		}
	}
	switch table {
	case TablePrices:
		n += len(r.Prices)
	case TableSchemes:
		n += len(r.Schemes)
	case TableWorkshops:
		n += len(r.Workshops)
	case TableVeterinary:
		n += len(r.Veterinary)
	}
	return n
}

// Parser handles listings bundle parsing
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// date accepts a calendar date or an RFC 3339 timestamp
type date struct{ time.Time }

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

type priceRecord struct {
	ID               uuid.UUID `json:"id"`
	LivestockType    string    `json:"livestock_type"`
	Breed            string    `json:"breed"`
	PricePerUnit     float64   `json:"price_per_unit"`
	UnitType         string    `json:"unit_type"`
	LocationDistrict string    `json:"location_district"`
	MarketName       string    `json:"market_name"`
	Trend            string    `json:"trend"`
	Date             date      `json:"date"`
}

type schemeRecord struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	SchemeType        string    `json:"scheme_type"`
	Eligibility       string    `json:"eligibility"`
	Benefits          string    `json:"benefits"`
	SubsidyPercentage *float64  `json:"subsidy_percentage"`
	ApplicationLink   *string   `json:"application_link"`
	CreatedAt         date      `json:"created_at"`
}

type workshopRecord struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	WorkshopType     string    `json:"workshop_type"`
	TrainerName      string    `json:"trainer_name"`
	LocationDistrict string    `json:"location_district"`
	StartDate        date      `json:"start_date"`
	EndDate          date      `json:"end_date"`
	MaxParticipants  int       `json:"max_participants"`
	EnrolledCount    int       `json:"enrolled_count"`
	DurationHours    int       `json:"duration_hours"`
	Fee              float64   `json:"fee"`
	Topics           string    `json:"topics"`
}

type veterinaryRecord struct {
	ID                uuid.UUID `json:"id"`
	ClinicName        string    `json:"clinic_name"`
	VeterinarianName  string    `json:"veterinarian_name"`
	Specialization    *string   `json:"specialization"`
	LocationAddress   string    `json:"location_address"`
	LocationDistrict  string    `json:"location_district"`
	PhoneNumber       string    `json:"phone_number"`
	Email             *string   `json:"email"`
	Services          string    `json:"services"`
	AvailabilityDays  string    `json:"availability_days"`
	AvailabilityHours string    `json:"availability_hours"`
}

// Parse decodes a bundle keyed by table name. A malformed document is an
// error; a malformed record is reported in Invalid and skipped.
func (p *Parser) Parse(content []byte) (*ParseResult, error) {
	result := &ParseResult{
		Checksum: p.calculateChecksum(content),
	}

	var doc map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}

	for _, table := range bundleTables {
		raw, ok := doc[table]
		if !ok {
			continue
		}
		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", table, err)
		}
		for idx, rec := range records {
			if err := p.parseRecord(result, table, rec); err != nil {
				result.Invalid = append(result.Invalid, RecordError{Table: table, Index: idx, Err: err})
			}
		}
	}

	for key := range doc {
		if !slices.Contains(bundleTables, key) {
			result.Unknown = append(result.Unknown, key)
		}
	}
	slices.Sort(result.Unknown)

	return result, nil
}

func (p *Parser) parseRecord(result *ParseResult, table string, raw json.RawMessage) error {
	switch table {
	case TablePrices:
		var r priceRecord
		if err := decodeRecord(raw, &r, &r.ID); err != nil {
			return err
		}
		trend := model.Trend(r.Trend)
		if !trend.Valid() {
			return fmt.Errorf("invalid trend %q", r.Trend)
		}
		result.Prices = append(result.Prices, model.PriceQuote{
			ID:               r.ID,
			LivestockType:    r.LivestockType,
			Breed:            r.Breed,
			PricePerUnit:     r.PricePerUnit,
			UnitType:         r.UnitType,
			LocationDistrict: r.LocationDistrict,
			MarketName:       r.MarketName,
			Trend:            trend,
			Date:             r.Date.Time,
		})

	case TableSchemes:
		var r schemeRecord
		if err := decodeRecord(raw, &r, &r.ID); err != nil {
			return err
		}
		s := model.Scheme{
			ID:              r.ID,
			Title:           r.Title,
			Description:     r.Description,
			SchemeType:      r.SchemeType,
			Eligibility:     r.Eligibility,
			Benefits:        r.Benefits,
			ApplicationLink: nullString(r.ApplicationLink),
			CreatedAt:       r.CreatedAt.Time,
		}
		if r.SubsidyPercentage != nil {
			s.SubsidyPercentage = sql.NullFloat64{Float64: *r.SubsidyPercentage, Valid: true}
		}
		result.Schemes = append(result.Schemes, s)

	case TableWorkshops:
		var r workshopRecord
		if err := decodeRecord(raw, &r, &r.ID); err != nil {
			return err
		}
		if r.MaxParticipants < 0 || r.EnrolledCount < 0 {
			return fmt.Errorf("negative participant counts %d/%d", r.EnrolledCount, r.MaxParticipants)
		}
		result.Workshops = append(result.Workshops, model.Workshop{
			ID:               r.ID,
			Title:            r.Title,
			Description:      r.Description,
			WorkshopType:     r.WorkshopType,
			TrainerName:      r.TrainerName,
			LocationDistrict: r.LocationDistrict,
			StartDate:        r.StartDate.Time,
			EndDate:          r.EndDate.Time,
			MaxParticipants:  r.MaxParticipants,
			EnrolledCount:    r.EnrolledCount,
			DurationHours:    r.DurationHours,
			Fee:              r.Fee,
			Topics:           r.Topics,
		})

	case TableVeterinary:
		var r veterinaryRecord
		if err := decodeRecord(raw, &r, &r.ID); err != nil {
			return err
		}
		result.Veterinary = append(result.Veterinary, model.VeterinaryService{
			ID:                r.ID,
			ClinicName:        r.ClinicName,
			VeterinarianName:  r.VeterinarianName,
			Specialization:    nullString(r.Specialization),
			LocationAddress:   r.LocationAddress,
			LocationDistrict:  r.LocationDistrict,
			PhoneNumber:       r.PhoneNumber,
			Email:             nullString(r.Email),
			Services:          r.Services,
			AvailabilityDays:  r.AvailabilityDays,
			AvailabilityHours: r.AvailabilityHours,
		})
	}
	return nil
}

// decodeRecord unmarshals raw into v and requires a non-nil id
func decodeRecord(raw json.RawMessage, v any, id *uuid.UUID) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return err
	}
	if *id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// calculateChecksum computes MD5 hash of content
func (p *Parser) calculateChecksum(content []byte) string {
	hash := md5.Sum(content)
	return hex.EncodeToString(hash[:])
}
