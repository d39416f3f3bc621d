package handlers

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/husbandry/internal/auth"
	"github.com/jjenkins/husbandry/internal/listing"
	"github.com/jjenkins/husbandry/internal/model"
	"github.com/jjenkins/husbandry/internal/service"
	"github.com/jjenkins/husbandry/internal/templates"
	"github.com/jjenkins/husbandry/internal/visit"
)

// pageVisit is what one page activation holds until it expires. Identity
// is resolved once, on pages that need it, and is only valid for requests
// carrying the session token it was resolved from.
type pageVisit[T any] struct {
	View     *listing.View[T]
	Identity *auth.Identity
	Token    string
}

func (pv *pageVisit[T]) heldBy(token string) bool {
	return token != "" && pv.Token == token
}

// Visits holds the live visits of every listing page
type Visits struct {
	Prices     *visit.Registry[*pageVisit[model.PriceQuote]]
	Schemes    *visit.Registry[*pageVisit[model.Scheme]]
	Veterinary *visit.Registry[*pageVisit[model.VeterinaryService]]
	Workshops  *visit.Registry[*pageVisit[model.Workshop]]
}

// NewVisits creates the registries; a visit expires ttl after its last request
func NewVisits(ttl time.Duration) *Visits {
	return &Visits{
		Prices:     visit.NewRegistry[*pageVisit[model.PriceQuote]](ttl),
		Schemes:    visit.NewRegistry[*pageVisit[model.Scheme]](ttl),
		Veterinary: visit.NewRegistry[*pageVisit[model.VeterinaryService]](ttl),
		Workshops:  visit.NewRegistry[*pageVisit[model.Workshop]](ttl),
	}
}

// EndSession discards every visit opened with the session token
func (v *Visits) EndSession(token string) int {
	if token == "" {
		return 0
	}
	return v.Prices.EndWhere(func(pv *pageVisit[model.PriceQuote]) bool { return pv.heldBy(token) }) +
		v.Schemes.EndWhere(func(pv *pageVisit[model.Scheme]) bool { return pv.heldBy(token) }) +
		v.Veterinary.EndWhere(func(pv *pageVisit[model.VeterinaryService]) bool { return pv.heldBy(token) }) +
		v.Workshops.EndWhere(func(pv *pageVisit[model.Workshop]) bool { return pv.heldBy(token) })
}

// Len returns the number of live visits across all pages
func (v *Visits) Len() int {
	return v.Prices.Len() + v.Schemes.Len() + v.Veterinary.Len() + v.Workshops.Len()
}

// listingPage wires one entity type to the listing pipeline
type listingPage[T any] struct {
	entity   string
	title    string
	subtitle string
	path     string
	facets   []listing.Facet[T]
	fetch    listing.Fetcher[T]
	visits   *visit.Registry[*pageVisit[T]]
	metrics  *service.Metrics
	body     func(visitID string, v *listing.View[T]) templ.Component
}

// newView creates a view with the selections carried by the request
func (p *listingPage[T]) newView(c *fiber.Ctx) *listing.View[T] {
	v := listing.NewView(p.facets...)
	v.SelectAll(selection(c, p.facets))
	return v
}

// load fetches the collection once. Failures leave the view empty.
func (p *listingPage[T]) load(ctx context.Context, v *listing.View[T]) {
	err := v.Load(ctx, p.fetch)
	p.metrics.RecordFetch(p.entity, err)
	if err != nil {
		log.Printf("Error loading %s: %v", p.entity, err)
	}
}

func (p *listingPage[T]) render(c *fiber.Ctx, visitID string, v *listing.View[T], notice templ.Component) error {
	page := templates.Listing(templates.ListingPage{
		Title:    p.title,
		Subtitle: p.subtitle,
		Path:     p.path,
		VisitID:  visitID,
		Menus:    menus(v),
		Notice:   notice,
		Body:     p.body(visitID, v),
	})
	return render(c, page)
}

// handler serves the full page and starts a new visit
func (p *listingPage[T]) handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := p.newView(c)
		p.load(c.UserContext(), v)
		visitID := p.visits.Start(&pageVisit[T]{View: v})
		return p.render(c, visitID, v, nil)
	}
}

// rowsHandler re-applies the selections on a held visit and returns only
// the listing body. An expired visit reloads the full page.
func (p *listingPage[T]) rowsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		visitID := c.Query("visit")
		pv, ok := p.visits.Get(visitID)
		if !ok {
			return redirect(c, p.path+selectionQuery(c, p.facets))
		}

		pv.View.SelectAll(selection(c, p.facets))
		return render(c, p.body(visitID, pv.View))
	}
}

func selection[T any](c *fiber.Ctx, facets []listing.Facet[T]) map[string]string {
	sel := make(map[string]string, len(facets))
	for _, f := range facets {
		sel[f.Name] = c.Query(f.Name)
	}
	return sel
}

func selectionQuery[T any](c *fiber.Ctx, facets []listing.Facet[T]) string {
	q := url.Values{}
	for _, f := range facets {
		if v := c.Query(f.Name); v != "" {
			q.Set(f.Name, v)
		}
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func menus[T any](v *listing.View[T]) []templates.Menu {
	facets := v.Facets()
	out := make([]templates.Menu, len(facets))
	for i, f := range facets {
		out[i] = templates.Menu{
			Name:     f.Name,
			Label:    f.Label,
			All:      f.All,
			Options:  v.Options(f.Name),
			Selected: v.Selection(f.Name),
		}
	}
	return out
}
