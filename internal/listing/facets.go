package listing

import "github.com/jjenkins/husbandry/internal/model"

// Facet names used as query parameters by every page
const (
	FacetType     = "type"
	FacetDistrict = "district"
)

// PriceFacets filter the livestock market by livestock type and district
func PriceFacets() []Facet[model.PriceQuote] {
	return []Facet[model.PriceQuote]{
		{Name: FacetType, Label: "Livestock Type", All: "All Types", Value: func(p model.PriceQuote) string { return p.LivestockType }},
		{Name: FacetDistrict, Label: "District", All: "All Districts", Value: func(p model.PriceQuote) string { return p.LocationDistrict }},
	}
}

// SchemeFacets filter government schemes by scheme type
func SchemeFacets() []Facet[model.Scheme] {
	return []Facet[model.Scheme]{
		{Name: FacetType, Label: "Scheme Type", All: "All Types", Value: func(s model.Scheme) string { return s.SchemeType }},
	}
}

// VeterinaryFacets filter the veterinary directory by district
func VeterinaryFacets() []Facet[model.VeterinaryService] {
	return []Facet[model.VeterinaryService]{
		{Name: FacetDistrict, Label: "District", All: "All Districts", Value: func(s model.VeterinaryService) string { return s.LocationDistrict }},
	}
}

// WorkshopFacets filter training workshops by workshop type and district
func WorkshopFacets() []Facet[model.Workshop] {
	return []Facet[model.Workshop]{
		{Name: FacetType, Label: "Workshop Type", All: "All Types", Value: func(w model.Workshop) string { return w.WorkshopType }},
		{Name: FacetDistrict, Label: "District", All: "All Districts", Value: func(w model.Workshop) string { return w.LocationDistrict }},
	}
}
