package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jjenkins/husbandry/internal/auth"
	"github.com/jjenkins/husbandry/internal/enrollment"
	"github.com/jjenkins/husbandry/internal/service"
	"github.com/jjenkins/husbandry/internal/store"
)

// Deps are the collaborators the web app is built from
type Deps struct {
	Source        store.Source
	Auth          auth.Provider
	Metrics       *service.Metrics
	Visits        *Visits
	LoginURL      string
	SessionCookie string
	SecureCookies bool
	CORSOrigins   []string
	RequestLog    bool
}

// NewApp creates the fiber app with middleware and every route registered
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Animal Husbandry Portal",
		// visits keep query values past the request
		Immutable: true,
	})

	app.Use(recover.New())
	if d.RequestLog {
		app.Use(logger.New())
	}
	if len(d.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(d.CORSOrigins, ","),
		}))
	}

	enroll := enrollment.NewService(d.Source, d.LoginURL, trainingPath).WithRecorder(d.Metrics)
	sessions := &sessionCookie{name: d.SessionCookie, secure: d.SecureCookies}

	// Routes
	app.Get("/", HomeHandler(d.Auth, sessions))

	schemes := schemesPage(d.Source, d.Visits.Schemes, d.Metrics)
	app.Get(schemes.path, schemes.handler())
	app.Get(schemes.path+"/rows", schemes.rowsHandler())

	prices := pricesPage(d.Source, d.Visits.Prices, d.Metrics)
	app.Get(prices.path, prices.handler())
	app.Get(prices.path+"/rows", prices.rowsHandler())

	vets := veterinaryPage(d.Source, d.Visits.Veterinary, d.Metrics)
	app.Get(vets.path, vets.handler())
	app.Get(vets.path+"/rows", vets.rowsHandler())

	training := trainingPage(d.Source, d.Visits.Workshops, d.Metrics)
	app.Get(training.path, TrainingHandler(training, d.Auth, sessions))
	app.Get(training.path+"/rows", training.rowsHandler())
	app.Post(training.path+"/enroll", EnrollHandler(d.Visits.Workshops, enroll, d.Auth, sessions))

	// Auth routes
	app.Get("/auth/login", LoginPageHandler())
	app.Post("/auth/login", LoginHandler(d.Auth, sessions))
	app.Get("/auth/sign-up", SignUpPageHandler())
	app.Post("/auth/sign-up", SignUpHandler(d.Auth, sessions))
	app.Post("/auth/logout", LogoutHandler(d.Auth, sessions, d.Visits))

	app.Get("/healthz", HealthHandler(d.Source))
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	return app
}

// render writes a templ component as the response
func render(c *fiber.Ctx, page templ.Component, options ...func(*templ.ComponentHandler)) error {
	handler := adaptor.HTTPHandler(templ.Handler(page, options...))
	return handler(c)
}

func withStatus(status int) func(*templ.ComponentHandler) {
	return templ.WithStatus(status)
}

func isHTMX(c *fiber.Ctx) bool {
	return c.Get("HX-Request") == "true"
}

// redirect sends the browser to target, through HX-Redirect for fragment
// requests so htmx replaces the whole page
func redirect(c *fiber.Ctx, target string) error {
	if isHTMX(c) {
		c.Set("HX-Redirect", target)
		return c.SendStatus(fiber.StatusOK)
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

// identify resolves a session token. Provider failures count as no identity.
func identify(ctx context.Context, provider auth.Provider, token string) *auth.Identity {
	if token == "" {
		return nil
	}
	id, err := provider.Identity(ctx, token)
	if err != nil {
		log.Printf("Error resolving session: %v", err)
		return nil
	}
	return id
}
