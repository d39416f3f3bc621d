package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/jjenkins/husbandry/internal/auth"
	"github.com/jjenkins/husbandry/internal/model"
	"github.com/jjenkins/husbandry/internal/store"
)

var _ store.Source = (*Client)(nil)

// priceRow represents a livestock_prices row in the REST response
type priceRow struct {
	ID               uuid.UUID `json:"id"`
	LivestockType    string    `json:"livestock_type"`
	Breed            string    `json:"breed"`
	PricePerUnit     float64   `json:"price_per_unit"`
	UnitType         string    `json:"unit_type"`
	LocationDistrict string    `json:"location_district"`
	MarketName       string    `json:"market_name"`
	Trend            string    `json:"trend"`
	Date             timestamp `json:"date"`
}

// schemeRow represents a government_schemes row
type schemeRow struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	SchemeType        string    `json:"scheme_type"`
	Eligibility       string    `json:"eligibility"`
	Benefits          string    `json:"benefits"`
	SubsidyPercentage *float64  `json:"subsidy_percentage"`
	ApplicationLink   *string   `json:"application_link"`
	CreatedAt         timestamp `json:"created_at"`
}

// workshopRow represents a training_workshops row
type workshopRow struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	WorkshopType     string    `json:"workshop_type"`
	TrainerName      string    `json:"trainer_name"`
	LocationDistrict string    `json:"location_district"`
	StartDate        timestamp `json:"start_date"`
	EndDate          timestamp `json:"end_date"`
	MaxParticipants  int       `json:"max_participants"`
	EnrolledCount    int       `json:"enrolled_count"`
	DurationHours    int       `json:"duration_hours"`
	Fee              float64   `json:"fee"`
	Topics           string    `json:"topics"`
}

// veterinaryRow represents a veterinary_services row
type veterinaryRow struct {
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

// enrollmentRow is the insert payload for workshop_enrollments
type enrollmentRow struct {
	UserID     uuid.UUID `json:"user_id"`
	WorkshopID uuid.UUID `json:"workshop_id"`
}

// fetchAll retrieves a whole table, ordered, as one JSON array
func fetchAll[R any](ctx context.Context, c *Client, table string, order store.Order) ([]R, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", order.String())

	body, err := c.do(ctx, http.MethodGet, "/rest/v1/"+table, q, tokenFrom(ctx), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", table, err)
	}

	var rows []R
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", table, err)
	}
	return rows, nil
}

// ListPrices retrieves livestock prices, most recent first
func (c *Client) ListPrices(ctx context.Context) ([]model.PriceQuote, error) {
	rows, err := fetchAll[priceRow](ctx, c, "livestock_prices", store.PriceOrder)
	if err != nil {
		return nil, err
	}
	prices := make([]model.PriceQuote, len(rows))
	for i, r := range rows {
		prices[i] = model.PriceQuote{
			ID:               r.ID,
			LivestockType:    r.LivestockType,
			Breed:            r.Breed,
			PricePerUnit:     r.PricePerUnit,
			UnitType:         r.UnitType,
			LocationDistrict: r.LocationDistrict,
			MarketName:       r.MarketName,
			Trend:            model.Trend(r.Trend),
			Date:             r.Date.Time,
		}
	}
	return prices, nil
}

// ListSchemes retrieves government schemes, newest first
func (c *Client) ListSchemes(ctx context.Context) ([]model.Scheme, error) {
	rows, err := fetchAll[schemeRow](ctx, c, "government_schemes", store.SchemeOrder)
	if err != nil {
		return nil, err
	}
	schemes := make([]model.Scheme, len(rows))
	for i, r := range rows {
		schemes[i] = model.Scheme{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			SchemeType:  r.SchemeType,
			Eligibility: r.Eligibility,
			Benefits:    r.Benefits,
			CreatedAt:   r.CreatedAt.Time,
		}
		if r.SubsidyPercentage != nil {
			schemes[i].SubsidyPercentage = sql.NullFloat64{Float64: *r.SubsidyPercentage, Valid: true}
		}
		schemes[i].ApplicationLink = nullString(r.ApplicationLink)
	}
	return schemes, nil
}

// ListWorkshops retrieves workshops by start date
func (c *Client) ListWorkshops(ctx context.Context) ([]model.Workshop, error) {
	rows, err := fetchAll[workshopRow](ctx, c, "training_workshops", store.WorkshopOrder)
	if err != nil {
		return nil, err
	}
	workshops := make([]model.Workshop, len(rows))
	for i, r := range rows {
		workshops[i] = model.Workshop{
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
		}
	}
	return workshops, nil
}

// ListVeterinaryServices retrieves the veterinary directory by clinic name
func (c *Client) ListVeterinaryServices(ctx context.Context) ([]model.VeterinaryService, error) {
	rows, err := fetchAll[veterinaryRow](ctx, c, "veterinary_services", store.VeterinaryOrder)
	if err != nil {
		return nil, err
	}
	services := make([]model.VeterinaryService, len(rows))
	for i, r := range rows {
		services[i] = model.VeterinaryService{
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
		}
	}
	return services, nil
}

// InsertEnrollment inserts into workshop_enrollments as the signed-in user,
// so row-level security sees the caller's token
func (c *Client) InsertEnrollment(ctx context.Context, e *model.Enrollment) error {
	body := []enrollmentRow{{UserID: e.UserID, WorkshopID: e.WorkshopID}}
	headers := map[string]string{"Prefer": "return=minimal"}

	_, err := c.do(ctx, http.MethodPost, "/rest/v1/workshop_enrollments", nil, tokenFrom(ctx), body, headers)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusConflict || apiErr.Code == "23505") {
			return fmt.Errorf("failed to enroll user %s in workshop %s: %w: %v", e.UserID, e.WorkshopID, store.ErrUniqueViolation, err)
		}
		return fmt.Errorf("failed to enroll user %s in workshop %s: %w", e.UserID, e.WorkshopID, err)
	}
	return nil
}

// Ping checks the REST endpoint answers for the project key
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/rest/v1/", nil, "", nil, nil)
	return err
}

func tokenFrom(ctx context.Context) string {
	if id := auth.FromContext(ctx); id != nil {
		return id.AccessToken
	}
	return ""
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
