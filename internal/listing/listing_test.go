package listing

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jjenkins/husbandry/internal/model"
)

func workshops(districts ...string) []model.Workshop {
	types := []string{"Dairy", "Poultry", "Goat"}
	out := make([]model.Workshop, len(districts))
	for i, d := range districts {
		out[i] = model.Workshop{Title: "w" + string(rune('0'+i)), LocationDistrict: d, WorkshopType: types[i%len(types)]}
	}
	return out
}

func titles(ws []model.Workshop) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Title
	}
	return out
}

func fetchOK[T any](items []T) Fetcher[T] {
	return func(ctx context.Context) ([]T, error) { return items, nil }
}

func TestDistrictScenario(t *testing.T) {
	v := NewView(WorkshopFacets()...)
	if err := v.Load(context.Background(), fetchOK(workshops("Pune", "Nashik", "Pune"))); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := v.Select(FacetDistrict, "Pune"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	got := titles(v.Filtered())
	want := []string{"w0", "w2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("filtered = %v, want %v", got, want)
	}
}

func TestEmptySelectionIsIdentity(t *testing.T) {
	items := workshops("Pune", "Nashik", "Satara", "Pune")
	got := Filter(items, WorkshopFacets(), map[string]string{FacetType: "", FacetDistrict: ""})
	if !reflect.DeepEqual(got, items) {
		t.Fatalf("Filter with empty selection changed the collection: %v", titles(got))
	}
	got = Filter(items, WorkshopFacets(), nil)
	if !reflect.DeepEqual(got, items) {
		t.Fatal("Filter with nil selection changed the collection")
	}
}

func TestFacetsComposeByAnd(t *testing.T) {
	items := workshops("Pune", "Nashik", "Pune", "Satara", "Pune", "Nashik")
	facets := WorkshopFacets()

	for _, typ := range Distinct(items, facets[0].Value) {
		for _, district := range Distinct(items, facets[1].Value) {
			both := Filter(items, facets, map[string]string{FacetType: typ, FacetDistrict: district})
			byType := Filter(items, facets, map[string]string{FacetType: typ})
			byDistrict := Filter(items, facets, map[string]string{FacetDistrict: district})

			var want []model.Workshop
			for _, a := range byType {
				for _, b := range byDistrict {
					if a.Title == b.Title {
						want = append(want, a)
					}
				}
			}
			if !reflect.DeepEqual(titles(both), titles(want)) {
				t.Errorf("type=%s district=%s: got %v, want %v", typ, district, titles(both), titles(want))
			}
		}
	}
}

func TestSelectIsIdempotent(t *testing.T) {
	v := NewView(PriceFacets()...)
	items := []model.PriceQuote{
		{LivestockType: "Cow", LocationDistrict: "Pune"},
		{LivestockType: "Goat", LocationDistrict: "Pune"},
		{LivestockType: "Cow", LocationDistrict: "Nagpur"},
	}
	_ = v.Load(context.Background(), fetchOK(items))

	_ = v.Select(FacetType, "Cow")
	once := v.Filtered()
	_ = v.Select(FacetType, "Cow")
	twice := v.Filtered()
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("re-applying selection changed the view: %v vs %v", once, twice)
	}
	if len(once) != 2 {
		t.Fatalf("expected 2 cows, got %d", len(once))
	}
}

func TestDistinctFirstSeenOrder(t *testing.T) {
	items := []model.VeterinaryService{
		{LocationDistrict: "Satara"},
		{LocationDistrict: "Ahmednagar"},
		{LocationDistrict: "Satara"},
		{LocationDistrict: "Kolhapur"},
		{LocationDistrict: "Ahmednagar"},
	}
	got := Distinct(items, VeterinaryFacets()[0].Value)
	want := []string{"Satara", "Ahmednagar", "Kolhapur"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Distinct = %v, want %v", got, want)
	}
}

func TestOptionsFollowBaseCollection(t *testing.T) {
	v := NewView(SchemeFacets()...)
	if opts := v.Options(FacetType); len(opts) != 0 {
		t.Fatalf("options before load = %v", opts)
	}
	_ = v.Load(context.Background(), fetchOK([]model.Scheme{
		{SchemeType: "Central"}, {SchemeType: "State"}, {SchemeType: "Central"},
	}))
	if got := v.Options(FacetType); !reflect.DeepEqual(got, []string{"Central", "State"}) {
		t.Fatalf("Options = %v", got)
	}
}

func TestSelectionBeforeLoadAppliesWhenFetchSettles(t *testing.T) {
	v := NewView(WorkshopFacets()...)
	if err := v.Select(FacetDistrict, "Nashik"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got := v.Filtered(); len(got) != 0 {
		t.Fatalf("expected empty view while loading, got %d", len(got))
	}
	_ = v.Load(context.Background(), fetchOK(workshops("Pune", "Nashik", "Pune")))
	if got := titles(v.Filtered()); !reflect.DeepEqual(got, []string{"w1"}) {
		t.Fatalf("filtered = %v", got)
	}
}

func TestLoadFailureSettlesEmpty(t *testing.T) {
	v := NewView(WorkshopFacets()...)
	if !v.Loading() {
		t.Fatal("new view should be loading")
	}

	boom := errors.New("connection refused")
	err := v.Load(context.Background(), func(ctx context.Context) ([]model.Workshop, error) {
		return workshops("Pune"), boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Load error = %v", err)
	}
	if v.Loading() {
		t.Error("view still loading after failed fetch")
	}
	if len(v.Filtered()) != 0 {
		t.Error("failed fetch should leave the view empty")
	}
	if len(v.Options(FacetDistrict)) != 0 {
		t.Error("failed fetch should leave no facet options")
	}
	if !errors.Is(v.Err(), boom) {
		t.Errorf("Err() = %v", v.Err())
	}
}

func TestSelectUnknownFacet(t *testing.T) {
	v := NewView(VeterinaryFacets()...)
	if err := v.Select(FacetType, "x"); err == nil {
		t.Fatal("expected error for a facet the view does not have")
	}
}

func TestSelectAllClearsMissingFacets(t *testing.T) {
	v := NewView(WorkshopFacets()...)
	_ = v.Load(context.Background(), fetchOK(workshops("Pune", "Nashik", "Pune")))
	_ = v.Select(FacetDistrict, "Pune")
	_ = v.Select(FacetType, "Dairy")

	v.SelectAll(map[string]string{FacetDistrict: "Nashik"})
	if v.Selection(FacetType) != "" {
		t.Errorf("type selection not cleared: %q", v.Selection(FacetType))
	}
	if got := titles(v.Filtered()); !reflect.DeepEqual(got, []string{"w1"}) {
		t.Fatalf("filtered = %v", got)
	}
}

func TestFilteredReturnsCopy(t *testing.T) {
	v := NewView(WorkshopFacets()...)
	_ = v.Load(context.Background(), fetchOK(workshops("Pune", "Nashik")))
	got := v.Filtered()
	got[0].Title = "mutated"
	if v.Filtered()[0].Title == "mutated" {
		t.Fatal("Filtered exposed internal state")
	}
}
