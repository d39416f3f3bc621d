package store

import "fmt"

// Order names the column and direction of a fetchAll query
type Order struct {
	Column    string
	Ascending bool
}

// Default orderings of each listing
var (
	PriceOrder      = Order{Column: "date", Ascending: false}
	SchemeOrder     = Order{Column: "created_at", Ascending: false}
	WorkshopOrder   = Order{Column: "start_date", Ascending: true}
	VeterinaryOrder = Order{Column: "clinic_name", Ascending: true}
)

// clause validates the column against the table's allow-list and renders
// an ORDER BY clause. Column names never come from user input unchecked.
func (o Order) clause(allowed ...string) (string, error) {
	for _, col := range allowed {
		if col == o.Column {
			dir := "DESC"
			if o.Ascending {
				dir = "ASC"
			}
			return fmt.Sprintf("ORDER BY %s %s, id ASC", col, dir), nil
		}
	}
	return "", fmt.Errorf("cannot order by %q", o.Column)
}

// String renders the order in PostgREST form, e.g. "start_date.asc"
func (o Order) String() string {
	if o.Ascending {
		return o.Column + ".asc"
	}
	return o.Column + ".desc"
}
