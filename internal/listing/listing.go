// Package listing holds the filter-and-display pipeline shared by every
// listing page: a collection fetched once per page visit, the facet values
// derived from it, and the filtered view recomputed on every change.
package listing

import (
	"context"
	"fmt"
	"sync"
)

// Facet is a filterable attribute of T
type Facet[T any] struct {
	Name  string // query parameter and selection key
	Label string // menu label, e.g. "District"
	All   string // label of the empty option, e.g. "All Districts"
	Value func(T) string
}

// Fetcher returns the full ordered collection for one entity type
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// View is the per-visit state of one listing page. It is safe for use by
// concurrent requests belonging to the same visit.
type View[T any] struct {
	mu       sync.Mutex
	facets   []Facet[T]
	base     []T
	selected map[string]string
	filtered []T
	options  map[string][]string
	loading  bool
	fetchErr error
}

// NewView creates a view in the loading state
func NewView[T any](facets ...Facet[T]) *View[T] {
	return &View[T]{
		facets:   facets,
		selected: make(map[string]string, len(facets)),
		options:  make(map[string][]string, len(facets)),
		loading:  true,
	}
}

// Load fetches the base collection once. A failed fetch leaves the view
// empty; the error is returned for logging but the view still settles.
func (v *View[T]) Load(ctx context.Context, fetch Fetcher[T]) error {
	items, err := fetch(ctx)
	if err != nil {
		items = nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.base = items
	v.fetchErr = err
	v.loading = false
	v.deriveOptions()
	v.recompute()
	return err
}

// Select sets the selection for a facet; "" clears it
func (v *View[T]) Select(name, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.facet(name); !ok {
		return fmt.Errorf("unknown facet %q", name)
	}
	v.selected[name] = value
	v.recompute()
	return nil
}

// SelectAll applies a selection for every facet of the view in one step.
// Facets missing from the map are cleared.
func (v *View[T]) SelectAll(selection map[string]string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, f := range v.facets {
		v.selected[f.Name] = selection[f.Name]
	}
	v.recompute()
}

// Filtered returns the current filtered view
func (v *View[T]) Filtered() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]T(nil), v.filtered...)
}

// Options returns the distinct values of a facet in first-seen order
func (v *View[T]) Options(name string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.options[name]...)
}

// Selection returns the selected value of a facet
func (v *View[T]) Selection(name string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected[name]
}

// Loading reports whether the fetch has not settled yet
func (v *View[T]) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Err returns the swallowed fetch error, if any
func (v *View[T]) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fetchErr
}

// Facets returns the facet definitions of the view
func (v *View[T]) Facets() []Facet[T] {
	return v.facets
}

func (v *View[T]) facet(name string) (Facet[T], bool) {
	for _, f := range v.facets {
		if f.Name == name {
			return f, true
		}
	}
	return Facet[T]{}, false
}

// caller holds v.mu
func (v *View[T]) deriveOptions() {
	for _, f := range v.facets {
		v.options[f.Name] = Distinct(v.base, f.Value)
	}
}

// caller holds v.mu
func (v *View[T]) recompute() {
	v.filtered = Filter(v.base, v.facets, v.selected)
}

// Filter narrows items by every non-empty selection using exact string
// equality. Facets compose by AND and the input order is preserved.
func Filter[T any](items []T, facets []Facet[T], selected map[string]string) []T {
	var active []Facet[T]
	for _, f := range facets {
		if selected[f.Name] != "" {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return items
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		keep := true
		for _, f := range active {
			if f.Value(item) != selected[f.Name] {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}

// Distinct returns each value of the attribute once, in the order it first
// appears in items
func Distinct[T any](items []T, value func(T) string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		v := value(item)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
