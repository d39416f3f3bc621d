package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/husbandry/internal/auth"
	"github.com/jjenkins/husbandry/internal/templates"
)

// Form messages
const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailTaken         = "An account with this email already exists"
	msgInvalidEmail       = "Please enter a valid email address"
	msgWeakPassword       = "Password must be at least 6 characters"
	msgConfirmEmail       = "Check your email to confirm your account, then log in"
	msgUnavailable        = "Something went wrong, please try again"
)

// sessionCookie reads and writes the session token cookie
type sessionCookie struct {
	name   string
	secure bool
}

func (s *sessionCookie) token(c *fiber.Ctx) string {
	return c.Cookies(s.name)
}

func (s *sessionCookie) set(c *fiber.Ctx, sess *auth.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     s.name,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *sessionCookie) clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// safeNext keeps post-login redirects on this site
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func LoginPageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return render(c, templates.Login(templates.AuthForm{Next: safeNext(c.Query("next"))}))
	}
}

func LoginHandler(provider auth.Provider, sessions *sessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form := templates.AuthForm{
			Email: strings.TrimSpace(c.FormValue("email")),
			Next:  safeNext(c.FormValue("next")),
		}

		sess, err := provider.SignIn(c.UserContext(), form.Email, c.FormValue("password"))
		if err != nil {
			status := fiber.StatusUnauthorized
			form.Error = msgInvalidCredentials
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				log.Printf("Error signing in: %v", err)
				status = fiber.StatusInternalServerError
				form.Error = msgUnavailable
			}
			return render(c, templates.Login(form), withStatus(status))
		}

		sessions.set(c, sess)
		return c.Redirect(form.Next, fiber.StatusSeeOther)
	}
}

func SignUpPageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return render(c, templates.SignUp(templates.AuthForm{}))
	}
}

func SignUpHandler(provider auth.Provider, sessions *sessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form := templates.AuthForm{Email: strings.TrimSpace(c.FormValue("email"))}
		password := c.FormValue("password")

		err := auth.ValidateSignUp(form.Email, password)
		var sess *auth.Session
		if err == nil {
			sess, err = provider.SignUp(c.UserContext(), form.Email, password)
		}

		switch {
		case err == nil:
			sessions.set(c, sess)
			return c.Redirect("/", fiber.StatusSeeOther)
		case errors.Is(err, auth.ErrConfirmationPending):
			form.Message = msgConfirmEmail
			return render(c, templates.SignUp(form))
		case errors.Is(err, auth.ErrEmailTaken):
			form.Error = msgEmailTaken
			return render(c, templates.SignUp(form), withStatus(fiber.StatusConflict))
		case errors.Is(err, auth.ErrInvalidEmail):
			form.Error = msgInvalidEmail
			return render(c, templates.SignUp(form), withStatus(fiber.StatusBadRequest))
		case errors.Is(err, auth.ErrWeakPassword):
			form.Error = msgWeakPassword
			return render(c, templates.SignUp(form), withStatus(fiber.StatusBadRequest))
		default:
			log.Printf("Error signing up: %v", err)
			form.Error = msgUnavailable
			return render(c, templates.SignUp(form), withStatus(fiber.StatusInternalServerError))
		}
	}
}

// LogoutHandler revokes the session and ends every page visit opened with it
func LogoutHandler(provider auth.Provider, sessions *sessionCookie, visits *Visits) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessions.token(c)
		if err := provider.SignOut(c.UserContext(), token); err != nil && !errors.Is(err, auth.ErrNoSession) {
			log.Printf("Error signing out: %v", err)
		}
		visits.EndSession(token)
		sessions.clear(c)
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}
