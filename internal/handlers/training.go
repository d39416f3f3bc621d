package handlers

import (
	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jjenkins/husbandry/internal/auth"
	"github.com/jjenkins/husbandry/internal/enrollment"
	"github.com/jjenkins/husbandry/internal/model"
	"github.com/jjenkins/husbandry/internal/templates"
	"github.com/jjenkins/husbandry/internal/visit"
	"golang.org/x/sync/errgroup"
)

// notice keys carried through the redirect after a plain form post
const (
	noticeEnrolled = "enrolled"
	noticeRejected = "rejected"
)

// TrainingHandler serves the workshops page. The identity and the
// workshops are fetched concurrently and both are held by the visit.
func TrainingHandler(p *listingPage[model.Workshop], provider auth.Provider, sessions *sessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		token := sessions.token(c)
		v := p.newView(c)

		var id *auth.Identity
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			id = identify(gctx, provider, token)
			return nil
		})
		g.Go(func() error {
			p.load(gctx, v)
			return nil
		})
		_ = g.Wait()

		held := &pageVisit[model.Workshop]{View: v}
		if id != nil {
			held.Identity, held.Token = id, token
		}
		visitID := p.visits.Start(held)
		return p.render(c, visitID, v, noticeFor(c.Query("notice")))
	}
}

// EnrollHandler runs the enrollment transition for the posted workshop.
// The identity held by the visit is used only when the request carries the
// same session token; otherwise the session is resolved again.
func EnrollHandler(visits *visit.Registry[*pageVisit[model.Workshop]], svc *enrollment.Service, provider auth.Provider, sessions *sessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		workshopID, err := uuid.Parse(c.FormValue("workshop_id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid workshop")
		}

		token := sessions.token(c)
		var id *auth.Identity
		if pv, ok := visits.Get(c.FormValue("visit")); ok && pv.heldBy(token) {
			id = pv.Identity
		} else {
			id = identify(ctx, provider, token)
		}

		out := svc.Enroll(ctx, id, workshopID)
		if out.Redirect != "" {
			return redirect(c, out.Redirect)
		}

		enrolled := out.State == enrollment.Enrolled
		if isHTMX(c) {
			return render(c, templates.Notice(out.Notice, enrolled))
		}

		key := noticeRejected
		if enrolled {
			key = noticeEnrolled
		}
		return c.Redirect(trainingPath+"?notice="+key, fiber.StatusSeeOther)
	}
}

func noticeFor(key string) templ.Component {
	switch key {
	case noticeEnrolled:
		return templates.Notice(enrollment.NoticeEnrolled, true)
	case noticeRejected:
		return templates.Notice(enrollment.NoticeRejected, false)
	default:
		return nil
	}
}
