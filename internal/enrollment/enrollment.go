// Package enrollment implements the guarded transition that signs a user up
// for a training workshop.
package enrollment

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/husbandry/internal/auth"
	"github.com/jjenkins/husbandry/internal/model"
)

// State of an enrollment attempt for one (user, workshop) pair
type State int

const (
	NotEnrolled State = iota
	Enrolling
	Enrolled
	Rejected
)

func (s State) String() string {
	switch s {
	case NotEnrolled:
		return "not_enrolled"
	case Enrolling:
		return "enrolling"
	case Enrolled:
		return "enrolled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Notices shown after an attempt. A duplicate enrollment and any other
// insert failure share the same text.
const (
	NoticeEnrolled = "Successfully enrolled in the workshop!"
	NoticeRejected = "Already enrolled or error occurred"
)

// Outcome labels reported to the Recorder
const (
	OutcomeEnrolled   = "enrolled"
	OutcomeRejected   = "rejected"
	OutcomeRedirected = "redirected"
)

// Inserter is the part of the data source the transition writes to
type Inserter interface {
	InsertEnrollment(ctx context.Context, e *model.Enrollment) error
}

// Recorder observes the result of every attempt
type Recorder interface {
	RecordEnrollment(outcome string)
}

// Outcome is the result of one attempt. Redirect is set only when the
// attempt was refused for lack of an identity.
type Outcome struct {
	State    State
	Notice   string
	Redirect string
	Err      error
}

// Service runs enrollment attempts against a data source
type Service struct {
	source     Inserter
	loginURL   string
	returnPath string
	recorder   Recorder
	now        func() time.Time
}

// NewService creates a service. Anonymous attempts are sent to loginURL
// with a next parameter pointing back at returnPath.
func NewService(source Inserter, loginURL, returnPath string) *Service {
	return &Service{
		source:     source,
		loginURL:   loginURL,
		returnPath: returnPath,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithRecorder attaches a recorder for attempt outcomes
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// Enroll attempts to enroll the identity in the workshop. Without an
// identity no insert is issued. Capacity is not checked here: full
// workshops never offer the action, and the data source is the authority
// on concurrent claims.
func (s *Service) Enroll(ctx context.Context, id *auth.Identity, workshopID uuid.UUID) Outcome {
	if id == nil {
		s.record(OutcomeRedirected)
		return Outcome{State: NotEnrolled, Redirect: s.LoginRedirect()}
	}

	// Enrolling
	e := &model.Enrollment{
		UserID:     id.ID,
		WorkshopID: workshopID,
		CreatedAt:  s.now(),
	}
	if err := s.source.InsertEnrollment(auth.NewContext(ctx, id), e); err != nil {
		log.Printf("Enrollment of user %s in workshop %s rejected: %v", id.ID, workshopID, err)
		s.record(OutcomeRejected)
		return Outcome{State: Rejected, Notice: NoticeRejected, Err: err}
	}

	s.record(OutcomeEnrolled)
	return Outcome{State: Enrolled, Notice: NoticeEnrolled}
}

// LoginRedirect returns the login entry point with the return path attached
func (s *Service) LoginRedirect() string {
	if s.returnPath == "" {
		return s.loginURL
	}
	sep := "?"
	if strings.Contains(s.loginURL, "?") {
		sep = "&"
	}
	return s.loginURL + sep + "next=" + url.QueryEscape(s.returnPath)
}

func (s *Service) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordEnrollment(outcome)
	}
}
