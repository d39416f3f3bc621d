package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/husbandry/internal/auth"
	"github.com/jjenkins/husbandry/internal/templates"
)

func HomeHandler(provider auth.Provider, sessions *sessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		nav := templates.Nav{}
		if id := identify(c.UserContext(), provider, sessions.token(c)); id != nil {
			nav.SignedIn = true
			nav.Email = id.Email
		}

		return render(c, templates.Home(nav))
	}
}
