package enrollment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/husbandry/internal/auth"
	"github.com/jjenkins/husbandry/internal/model"
	"github.com/jjenkins/husbandry/internal/store"
)

type fakeInserter struct {
	calls []*model.Enrollment
	ctxID *auth.Identity
	err   error
}

func (f *fakeInserter) InsertEnrollment(ctx context.Context, e *model.Enrollment) error {
	f.calls = append(f.calls, e)
	f.ctxID = auth.FromContext(ctx)
	return f.err
}

type countingRecorder map[string]int

func (c countingRecorder) RecordEnrollment(outcome string) { c[outcome]++ }

func TestEnrollWithoutIdentityRedirects(t *testing.T) {
	src := &fakeInserter{}
	rec := countingRecorder{}
	svc := NewService(src, "/auth/login", "/training").WithRecorder(rec)

	out := svc.Enroll(context.Background(), nil, uuid.New())

	if len(src.calls) != 0 {
		t.Fatalf("insert issued without identity: %d calls", len(src.calls))
	}
	if out.State != NotEnrolled {
		t.Errorf("state = %v, want %v", out.State, NotEnrolled)
	}
	if out.Redirect != "/auth/login?next=%2Ftraining" {
		t.Errorf("redirect = %q", out.Redirect)
	}
	if out.Notice != "" {
		t.Errorf("notice = %q, want none", out.Notice)
	}
	if rec[OutcomeRedirected] != 1 {
		t.Errorf("recorder = %v", rec)
	}
}

func TestEnrollSuccess(t *testing.T) {
	src := &fakeInserter{}
	rec := countingRecorder{}
	svc := NewService(src, "/auth/login", "/training").WithRecorder(rec)
	id := &auth.Identity{ID: uuid.New(), AccessToken: "tok"}
	workshopID := uuid.New()

	out := svc.Enroll(context.Background(), id, workshopID)

	if out.State != Enrolled || out.Notice != NoticeEnrolled || out.Redirect != "" || out.Err != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if len(src.calls) != 1 {
		t.Fatalf("calls = %d", len(src.calls))
	}
	if got := src.calls[0]; got.UserID != id.ID || got.WorkshopID != workshopID {
		t.Errorf("inserted %+v", got)
	}
	if src.ctxID != id {
		t.Error("identity not carried to the data source")
	}
	if rec[OutcomeEnrolled] != 1 {
		t.Errorf("recorder = %v", rec)
	}
}

func TestEnrollFailuresShareOneNotice(t *testing.T) {
	for name, err := range map[string]error{
		"duplicate": store.ErrUniqueViolation,
		"other":     errors.New("connection reset"),
	} {
		t.Run(name, func(t *testing.T) {
			svc := NewService(&fakeInserter{err: err}, "/auth/login", "/training")
			out := svc.Enroll(context.Background(), &auth.Identity{ID: uuid.New()}, uuid.New())
			if out.State != Rejected || out.Notice != NoticeRejected {
				t.Errorf("outcome = %+v", out)
			}
			if !errors.Is(out.Err, err) {
				t.Errorf("err = %v", out.Err)
			}
		})
	}
}

func TestDuplicateEnrollmentAgainstStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.NewDB("sqlite", filepath.Join(t.TempDir(), "portal.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	src := store.NewSQLSource(db)

	w := &model.Workshop{
		ID:               uuid.New(),
		Title:            "Dairy Basics",
		WorkshopType:     "Dairy",
		LocationDistrict: "Pune",
		StartDate:        time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		MaxParticipants:  30,
		EnrolledCount:    3,
	}
	if err := src.Workshops.Upsert(ctx, w); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	svc := NewService(src, "/auth/login", "/training")
	id := &auth.Identity{ID: uuid.New()}

	if out := svc.Enroll(ctx, id, w.ID); out.State != Enrolled {
		t.Fatalf("first attempt = %+v", out)
	}
	out := svc.Enroll(ctx, id, w.ID)
	if out.State != Rejected || out.Notice != NoticeRejected {
		t.Fatalf("second attempt = %+v", out)
	}
	if !errors.Is(out.Err, store.ErrUniqueViolation) {
		t.Errorf("err = %v, want unique violation", out.Err)
	}

	// the held count is left to the next fetch
	got, err := src.Workshops.GetByID(ctx, w.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.EnrolledCount != 3 {
		t.Errorf("enrolled_count = %d, want 3", got.EnrolledCount)
	}
}

func TestLoginRedirect(t *testing.T) {
	tests := []struct {
		login, back, want string
	}{
		{"/auth/login", "/training", "/auth/login?next=%2Ftraining"},
		{"https://id.example.com/login?app=portal", "/training", "https://id.example.com/login?app=portal&next=%2Ftraining"},
		{"/auth/login", "", "/auth/login"},
	}
	for _, tt := range tests {
		if got := NewService(nil, tt.login, tt.back).LoginRedirect(); got != tt.want {
			t.Errorf("LoginRedirect(%q, %q) = %q, want %q", tt.login, tt.back, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		NotEnrolled: "not_enrolled",
		Enrolling:   "enrolling",
		Enrolled:    "enrolled",
		Rejected:    "rejected",
		State(42):   "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}
