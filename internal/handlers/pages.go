package handlers

import (
	"github.com/a-h/templ"
	"github.com/jjenkins/husbandry/internal/listing"
	"github.com/jjenkins/husbandry/internal/model"
	"github.com/jjenkins/husbandry/internal/service"
	"github.com/jjenkins/husbandry/internal/store"
	"github.com/jjenkins/husbandry/internal/templates"
	"github.com/jjenkins/husbandry/internal/visit"
)

const trainingPath = "/training"

func schemesPage(src store.Source, visits *visit.Registry[*pageVisit[model.Scheme]], m *service.Metrics) *listingPage[model.Scheme] {
	return &listingPage[model.Scheme]{
		entity:   "schemes",
		title:    "Government Schemes",
		subtitle: "Central and state-level animal husbandry schemes and subsidies",
		path:     "/schemes",
		facets:   listing.SchemeFacets(),
		fetch:    src.ListSchemes,
		visits:   visits,
		metrics:  m,
		body: func(_ string, v *listing.View[model.Scheme]) templ.Component {
			return templates.SchemesBody(v.Loading(), v.Filtered())
		},
	}
}

func pricesPage(src store.Source, visits *visit.Registry[*pageVisit[model.PriceQuote]], m *service.Metrics) *listingPage[model.PriceQuote] {
	return &listingPage[model.PriceQuote]{
		entity:   "prices",
		title:    "Livestock Market Prices",
		subtitle: "Current pricing across district markets",
		path:     "/livestock-market",
		facets:   listing.PriceFacets(),
		fetch:    src.ListPrices,
		visits:   visits,
		metrics:  m,
		body: func(_ string, v *listing.View[model.PriceQuote]) templ.Component {
			return templates.PricesBody(v.Loading(), v.Filtered())
		},
	}
}

func veterinaryPage(src store.Source, visits *visit.Registry[*pageVisit[model.VeterinaryService]], m *service.Metrics) *listingPage[model.VeterinaryService] {
	return &listingPage[model.VeterinaryService]{
		entity:   "veterinary",
		title:    "Veterinary Services",
		subtitle: "Find veterinary clinics and services near you",
		path:     "/veterinary",
		facets:   listing.VeterinaryFacets(),
		fetch:    src.ListVeterinaryServices,
		visits:   visits,
		metrics:  m,
		body: func(_ string, v *listing.View[model.VeterinaryService]) templ.Component {
			return templates.VeterinaryBody(v.Loading(), v.Filtered())
		},
	}
}

func trainingPage(src store.Source, visits *visit.Registry[*pageVisit[model.Workshop]], m *service.Metrics) *listingPage[model.Workshop] {
	return &listingPage[model.Workshop]{
		entity:   "workshops",
		title:    "Training & Workshops",
		subtitle: "Learn modern animal husbandry techniques and best practices",
		path:     trainingPath,
		facets:   listing.WorkshopFacets(),
		fetch:    src.ListWorkshops,
		visits:   visits,
		metrics:  m,
		body: func(visitID string, v *listing.View[model.Workshop]) templ.Component {
			return templates.WorkshopsBody(visitID, v.Loading(), v.Filtered())
		},
	}
}
