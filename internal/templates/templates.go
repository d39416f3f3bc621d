// Package templates renders the portal's pages and HTMX fragments. The
// *_templ.go files are generated from the .templ sources by `templ generate`.
package templates

//go:generate templ generate

import (
	"strconv"

	"github.com/a-h/templ"
	"github.com/jjenkins/husbandry/internal/model"
)

const (
	brand    = "Animal Husbandry Portal"
	htmxSrc  = "https://unpkg.com/htmx.org@1.9.12"
	tailwind = "https://cdn.tailwindcss.com"
)

// EnrollPath is where the enroll buttons post to
const EnrollPath = "/training/enroll"

// Nav describes the signed-in state shown in the navigation bar
type Nav struct {
	Email    string
	SignedIn bool
}

// Menu is one facet dropdown of a listing page
type Menu struct {
	Name     string
	Label    string
	All      string
	Options  []string
	Selected string
}

// ListingPage is a full listing page: header, facet menus and body
type ListingPage struct {
	Title    string
	Subtitle string
	Path     string // page route; fragments live under Path + "/rows"
	VisitID  string
	Menus    []Menu
	Notice   templ.Component
	Body     templ.Component
}

// AuthForm is the state of the login or sign-up form
type AuthForm struct {
	Email   string
	Next    string
	Error   string
	Message string
}

type link struct {
	href, label string
}

var navLinks = []link{
	{"/", "Home"},
	{"/schemes", "Schemes"},
	{"/livestock-market", "Market Prices"},
	{"/veterinary", "Veterinary"},
	{"/training", "Training"},
}

type feature struct {
	icon, title, blurb, href, cta string
}

var features = []feature{
	{"📋", "Government Schemes", "Find central and state-level animal husbandry schemes, subsidies, and farmer benefits.", "/schemes", "View Schemes →"},
	{"💰", "Livestock Market", "Current pricing for cows, goats, poultry, and other livestock across districts.", "/livestock-market", "Check Prices →"},
	{"⚕️", "Veterinary Services", "Locate nearby vets, their services, and their hours.", "/veterinary", "Find Vets →"},
	{"🎓", "Training & Workshops", "Learn modern farming techniques and best practices.", "/training", "Explore Training →"},
}

var priceColumns = []string{"Livestock", "Breed", "Price", "District", "Market", "Trend"}

func documentTitle(title string) string {
	if title == brand {
		return title
	}
	return title + " | " + brand
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// workshopDates is empty when the workshop has no start date
func workshopDates(w *model.Workshop) string {
	if w.StartDate.IsZero() {
		return ""
	}
	dates := w.StartDate.Format("02 Jan 2006")
	if !w.EndDate.IsZero() && !w.EndDate.Equal(w.StartDate) {
		dates += " – " + w.EndDate.Format("02 Jan 2006")
	}
	return dates
}

func participants(w *model.Workshop) string {
	return strconv.Itoa(w.EnrolledCount) + "/" + strconv.Itoa(w.MaxParticipants)
}
