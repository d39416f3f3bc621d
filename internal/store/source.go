package store

import (
	"context"

	"github.com/jjenkins/husbandry/internal/model"
)

// Source is the remote table store every page reads from. Each List call
// returns the full collection in the listing's default order.
type Source interface {
	ListPrices(ctx context.Context) ([]model.PriceQuote, error)
	ListSchemes(ctx context.Context) ([]model.Scheme, error)
	ListWorkshops(ctx context.Context) ([]model.Workshop, error)
	ListVeterinaryServices(ctx context.Context) ([]model.VeterinaryService, error)
	InsertEnrollment(ctx context.Context, e *model.Enrollment) error
	Ping(ctx context.Context) error
}

// SQLSource serves the portal straight from the SQL stores
type SQLSource struct {
	db          *DB
	Prices      *PriceStore
	Schemes     *SchemeStore
	Workshops   *WorkshopStore
	Veterinary  *VeterinaryStore
	Enrollments *EnrollmentStore
	Users       *UserStore
}

var _ Source = (*SQLSource)(nil)

// NewSQLSource creates every store on top of one connection pool
func NewSQLSource(db *DB) *SQLSource {
	return &SQLSource{
		db:          db,
		Prices:      NewPriceStore(db),
		Schemes:     NewSchemeStore(db),
		Workshops:   NewWorkshopStore(db),
		Veterinary:  NewVeterinaryStore(db),
		Enrollments: NewEnrollmentStore(db),
		Users:       NewUserStore(db),
	}
}

func (s *SQLSource) ListPrices(ctx context.Context) ([]model.PriceQuote, error) {
	return s.Prices.GetAll(ctx, PriceOrder)
}

func (s *SQLSource) ListSchemes(ctx context.Context) ([]model.Scheme, error) {
	return s.Schemes.GetAll(ctx, SchemeOrder)
}

func (s *SQLSource) ListWorkshops(ctx context.Context) ([]model.Workshop, error) {
	return s.Workshops.GetAll(ctx, WorkshopOrder)
}

func (s *SQLSource) ListVeterinaryServices(ctx context.Context) ([]model.VeterinaryService, error) {
	return s.Veterinary.GetAll(ctx, VeterinaryOrder)
}

func (s *SQLSource) InsertEnrollment(ctx context.Context, e *model.Enrollment) error {
	return s.Enrollments.Insert(ctx, e)
}

// Ping verifies the database is reachable
func (s *SQLSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
