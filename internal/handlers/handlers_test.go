package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jjenkins/husbandry/internal/auth"
	"github.com/jjenkins/husbandry/internal/enrollment"
	"github.com/jjenkins/husbandry/internal/model"
	"github.com/jjenkins/husbandry/internal/service"
	"github.com/jjenkins/husbandry/internal/store"
)

type fakeSource struct {
	mu           sync.Mutex
	prices       []model.PriceQuote
	schemes      []model.Scheme
	workshops    []model.Workshop
	vets         []model.VeterinaryService
	workshopsErr error
	pingErr      error
	inserts      []model.Enrollment
	enrolled     map[[2]uuid.UUID]bool
}

func (f *fakeSource) ListPrices(ctx context.Context) ([]model.PriceQuote, error) {
	return f.prices, nil
}

func (f *fakeSource) ListSchemes(ctx context.Context) ([]model.Scheme, error) {
	return f.schemes, nil
}

func (f *fakeSource) ListWorkshops(ctx context.Context) ([]model.Workshop, error) {
	if f.workshopsErr != nil {
		return nil, f.workshopsErr
	}
	return f.workshops, nil
}

func (f *fakeSource) ListVeterinaryServices(ctx context.Context) ([]model.VeterinaryService, error) {
	return f.vets, nil
}

func (f *fakeSource) InsertEnrollment(ctx context.Context, e *model.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, *e)
	key := [2]uuid.UUID{e.UserID, e.WorkshopID}
	if f.enrolled[key] {
		return store.ErrUniqueViolation
	}
	if f.enrolled == nil {
		f.enrolled = map[[2]uuid.UUID]bool{}
	}
	f.enrolled[key] = true
	return nil
}

func (f *fakeSource) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeSource) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserts)
}

type fakeProvider struct {
	sessions map[string]*auth.Identity
	password string
}

func (p *fakeProvider) Identity(ctx context.Context, token string) (*auth.Identity, error) {
	return p.sessions[token], nil
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	if password != p.password {
		return nil, auth.ErrInvalidCredentials
	}
	for token, id := range p.sessions {
		if id.Email == email {
			return &auth.Session{Token: token, ExpiresAt: time.Now().Add(time.Hour), Identity: *id}, nil
		}
	}
	return nil, auth.ErrInvalidCredentials
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	for _, id := range p.sessions {
		if id.Email == email {
			return nil, auth.ErrEmailTaken
		}
	}
	return nil, auth.ErrConfirmationPending
}

func (p *fakeProvider) SignOut(ctx context.Context, token string) error {
	delete(p.sessions, token)
	return nil
}

var (
	farmer = &auth.Identity{ID: uuid.New(), Email: "farmer@example.com"}
	grower = &auth.Identity{ID: uuid.New(), Email: "grower@example.com"}
)

func workshops() []model.Workshop {
	return []model.Workshop{
		{ID: uuid.New(), Title: "Dairy Basics", WorkshopType: "Dairy", LocationDistrict: "Pune", MaxParticipants: 30, EnrolledCount: 5},
		{ID: uuid.New(), Title: "Goat Care", WorkshopType: "Goat", LocationDistrict: "Nashik", MaxParticipants: 20, EnrolledCount: 20},
		{ID: uuid.New(), Title: "Poultry Health", WorkshopType: "Poultry", LocationDistrict: "Pune", MaxParticipants: 25, EnrolledCount: 1},
	}
}

type testApp struct {
	app     *fiber.App
	src     *fakeSource
	visits  *Visits
	metrics *service.Metrics
}

func newTestApp(t *testing.T, src *fakeSource) *testApp {
	t.Helper()
	visits := NewVisits(time.Minute)
	metrics := service.NewMetrics(func() float64 { return float64(visits.Len()) })
	provider := &fakeProvider{
		sessions: map[string]*auth.Identity{"good-token": farmer, "other-token": grower},
		password: "secret123",
	}
	app := NewApp(Deps{
		Source:        src,
		Auth:          provider,
		Metrics:       metrics,
		Visits:        visits,
		LoginURL:      "/auth/login",
		SessionCookie: "portal_session",
	})
	return &testApp{app: app, src: src, visits: visits, metrics: metrics}
}

func (ta *testApp) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, string(body)
}

func get(target string, htmx bool, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "portal_session", Value: token})
	}
	return req
}

func post(target string, form url.Values, htmx bool, token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "portal_session", Value: token})
	}
	return req
}

var visitRe = regexp.MustCompile(`name="visit" value="([^"]+)"`)

func visitID(t *testing.T, body string) string {
	t.Helper()
	m := visitRe.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("page carries no visit id")
	}
	return m[1]
}

func TestTrainingDistrictFilter(t *testing.T) {
	ta := newTestApp(t, &fakeSource{workshops: workshops()})

	resp, body := ta.do(t, get("/training", false, ""))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if strings.Index(body, `<option value="Pune">`) > strings.Index(body, `<option value="Nashik">`) {
		t.Error("district options not in first-seen order")
	}
	id := visitID(t, body)

	_, rows := ta.do(t, get("/training/rows?visit="+id+"&district=Pune", true, ""))
	if strings.Contains(rows, "<html") {
		t.Error("fragment request returned a full page")
	}
	dairy, poultry := strings.Index(rows, "Dairy Basics"), strings.Index(rows, "Poultry Health")
	if dairy < 0 || poultry < 0 || dairy > poultry {
		t.Errorf("want Dairy Basics then Poultry Health, got %q", rows)
	}
	if strings.Contains(rows, "Goat Care") {
		t.Error("Nashik workshop not filtered out")
	}

	// AND with the type facet, then clearing both
	_, rows = ta.do(t, get("/training/rows?visit="+id+"&district=Pune&type=Poultry", true, ""))
	if strings.Contains(rows, "Dairy Basics") || !strings.Contains(rows, "Poultry Health") {
		t.Errorf("type and district did not compose: %q", rows)
	}
	_, rows = ta.do(t, get("/training/rows?visit="+id, true, ""))
	if strings.Count(rows, `<h2 `) != 3 {
		t.Errorf("cleared selection should show all workshops: %q", rows)
	}
}

func TestTrainingSelectionFromQuery(t *testing.T) {
	ta := newTestApp(t, &fakeSource{workshops: workshops()})
	_, body := ta.do(t, get("/training?district=Nashik", false, ""))
	if !strings.Contains(body, `<option value="Nashik" selected>`) || strings.Contains(body, "Dairy Basics") {
		t.Error("query selection not applied to the new visit")
	}
}

func TestTrainingFetchErrorRendersEmptyState(t *testing.T) {
	ta := newTestApp(t, &fakeSource{workshopsErr: errors.New("connection refused")})

	resp, body := ta.do(t, get("/training", false, ""))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if strings.Contains(body, "Loading workshops") {
		t.Error("loading indicator still shown")
	}
	if strings.Contains(body, "Enroll Now") || strings.Contains(body, "Workshop Full") {
		t.Error("workshop cards rendered")
	}
	if !strings.Contains(body, `id="listing"`) {
		t.Error("listing section missing")
	}
	if strings.Contains(body, "connection refused") {
		t.Error("fetch error leaked to the page")
	}
}

func TestFullWorkshopIsDisabled(t *testing.T) {
	ta := newTestApp(t, &fakeSource{workshops: workshops()})
	_, body := ta.do(t, get("/training", false, ""))
	if strings.Count(body, "Enroll Now") != 2 || strings.Count(body, "disabled>Workshop Full") != 1 {
		t.Errorf("enroll actions wrong: %q", body)
	}
}

func TestEnrollWithoutIdentityRedirects(t *testing.T) {
	src := &fakeSource{workshops: workshops()}
	ta := newTestApp(t, src)
	_, body := ta.do(t, get("/training", false, ""))
	form := url.Values{"visit": {visitID(t, body)}, "workshop_id": {src.workshops[0].ID.String()}}

	resp, _ := ta.do(t, post("/training/enroll", form, true, ""))
	if got := resp.Header.Get("HX-Redirect"); got != "/auth/login?next=%2Ftraining" {
		t.Errorf("HX-Redirect = %q", got)
	}

	resp, _ = ta.do(t, post("/training/enroll", form, false, ""))
	if resp.StatusCode != fiber.StatusSeeOther || resp.Header.Get("Location") != "/auth/login?next=%2Ftraining" {
		t.Errorf("redirect = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	if n := src.insertCount(); n != 0 {
		t.Fatalf("insert issued without identity: %d", n)
	}
}

func TestEnrollAndDuplicate(t *testing.T) {
	src := &fakeSource{workshops: workshops()}
	ta := newTestApp(t, src)
	_, body := ta.do(t, get("/training", false, "good-token"))
	form := url.Values{"visit": {visitID(t, body)}, "workshop_id": {src.workshops[0].ID.String()}}

	_, notice := ta.do(t, post("/training/enroll", form, true, "good-token"))
	if !strings.Contains(notice, enrollment.NoticeEnrolled) {
		t.Errorf("first notice = %q", notice)
	}
	_, notice = ta.do(t, post("/training/enroll", form, true, "good-token"))
	if !strings.Contains(notice, enrollment.NoticeRejected) {
		t.Errorf("duplicate notice = %q", notice)
	}
	if n := src.insertCount(); n != 2 {
		t.Errorf("inserts = %d, want 2", n)
	}
	if src.inserts[0].UserID != farmer.ID {
		t.Errorf("enrolled user = %s", src.inserts[0].UserID)
	}

	// the held count is not bumped locally
	_, rows := ta.do(t, get("/training/rows?visit="+form.Get("visit"), true, ""))
	if !strings.Contains(rows, "5/30") {
		t.Error("enrolled count changed without a refetch")
	}

	// plain form posts come back to the page with the notice
	resp, _ := ta.do(t, post("/training/enroll", form, false, "good-token"))
	if resp.StatusCode != fiber.StatusSeeOther || resp.Header.Get("Location") != "/training?notice=rejected" {
		t.Errorf("redirect = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	_, page := ta.do(t, get("/training?notice=rejected", false, ""))
	if !strings.Contains(page, enrollment.NoticeRejected) {
		t.Error("notice not shown after redirect")
	}
}

func TestEnrollExpiredVisitUsesSession(t *testing.T) {
	src := &fakeSource{workshops: workshops()}
	ta := newTestApp(t, src)
	form := url.Values{"visit": {"gone"}, "workshop_id": {src.workshops[0].ID.String()}}

	_, notice := ta.do(t, post("/training/enroll", form, true, "good-token"))
	if !strings.Contains(notice, enrollment.NoticeEnrolled) {
		t.Errorf("notice = %q", notice)
	}
}

func TestEnrollVisitNeedsItsSession(t *testing.T) {
	src := &fakeSource{workshops: workshops()}
	ta := newTestApp(t, src)
	_, body := ta.do(t, get("/training", false, "good-token"))
	form := url.Values{"visit": {visitID(t, body)}, "workshop_id": {src.workshops[0].ID.String()}}

	// a bare visit id carries no identity
	resp, _ := ta.do(t, post("/training/enroll", form, true, ""))
	if got := resp.Header.Get("HX-Redirect"); got != "/auth/login?next=%2Ftraining" {
		t.Errorf("HX-Redirect = %q", got)
	}
	if n := src.insertCount(); n != 0 {
		t.Fatalf("insert issued from a bare visit id: %d", n)
	}

	// another session posting the visit enrolls as itself
	_, notice := ta.do(t, post("/training/enroll", form, true, "other-token"))
	if !strings.Contains(notice, enrollment.NoticeEnrolled) {
		t.Errorf("notice = %q", notice)
	}
	if src.inserts[0].UserID != grower.ID {
		t.Errorf("enrolled user = %s, want %s", src.inserts[0].UserID, grower.ID)
	}
}

func TestEnrollAfterLogout(t *testing.T) {
	src := &fakeSource{workshops: workshops()}
	ta := newTestApp(t, src)
	_, body := ta.do(t, get("/training", false, "good-token"))
	form := url.Values{"visit": {visitID(t, body)}, "workshop_id": {src.workshops[0].ID.String()}}

	resp, _ := ta.do(t, post("/auth/logout", url.Values{}, false, "good-token"))
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("logout = %d", resp.StatusCode)
	}
	if ta.visits.Workshops.Len() != 0 {
		t.Errorf("visit survived logout: %d live", ta.visits.Workshops.Len())
	}

	for _, token := range []string{"", "good-token"} {
		resp, _ = ta.do(t, post("/training/enroll", form, true, token))
		if got := resp.Header.Get("HX-Redirect"); got != "/auth/login?next=%2Ftraining" {
			t.Errorf("token %q: HX-Redirect = %q", token, got)
		}
	}
	if n := src.insertCount(); n != 0 {
		t.Fatalf("insert issued after logout: %d", n)
	}
}

func TestEnrollRejectsBadWorkshopID(t *testing.T) {
	ta := newTestApp(t, &fakeSource{})
	resp, _ := ta.do(t, post("/training/enroll", url.Values{"workshop_id": {"nope"}}, true, "good-token"))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestRowsExpiredVisitReloads(t *testing.T) {
	ta := newTestApp(t, &fakeSource{})
	resp, _ := ta.do(t, get("/livestock-market/rows?visit=expired&district=Pune", true, ""))
	if got := resp.Header.Get("HX-Redirect"); got != "/livestock-market?district=Pune" {
		t.Errorf("HX-Redirect = %q", got)
	}
}

func TestListingPages(t *testing.T) {
	src := &fakeSource{
		prices:  []model.PriceQuote{{LivestockType: "Cattle", Breed: "Gir", LocationDistrict: "Pune", Trend: model.TrendIncreasing}},
		schemes: []model.Scheme{{Title: "Dairy Entrepreneurship", SchemeType: "Subsidy"}},
		vets:    []model.VeterinaryService{{ClinicName: "Krishna Vet Clinic", LocationDistrict: "Satara", PhoneNumber: "020-5555"}},
	}
	ta := newTestApp(t, src)

	for path, want := range map[string]string{
		"/":                 "Comprehensive Support for Modern Farming",
		"/schemes":          "Dairy Entrepreneurship",
		"/livestock-market": "Gir",
		"/veterinary":       "Krishna Vet Clinic",
	} {
		resp, body := ta.do(t, get(path, false, ""))
		if resp.StatusCode != fiber.StatusOK || !strings.Contains(body, want) {
			t.Errorf("%s: status %d, missing %q", path, resp.StatusCode, want)
		}
	}
	if ta.visits.Len() != 3 {
		t.Errorf("visits = %d, want 3", ta.visits.Len())
	}
}

func TestHomeShowsSignedInUser(t *testing.T) {
	ta := newTestApp(t, &fakeSource{})
	_, body := ta.do(t, get("/", false, "good-token"))
	if !strings.Contains(body, "Welcome, farmer@example.com") {
		t.Error("signed-in nav missing")
	}
	_, body = ta.do(t, get("/", false, "stale-token"))
	if !strings.Contains(body, `href="/auth/login"`) {
		t.Error("unknown token should render the anonymous nav")
	}
}

func TestLogin(t *testing.T) {
	ta := newTestApp(t, &fakeSource{})

	_, page := ta.do(t, get("/auth/login?next=/training", false, ""))
	if !strings.Contains(page, `name="next" value="/training"`) {
		t.Error("next not carried by the form")
	}

	form := url.Values{"email": {"farmer@example.com"}, "password": {"wrong"}, "next": {"/training"}}
	resp, body := ta.do(t, post("/auth/login", form, false, ""))
	if resp.StatusCode != fiber.StatusUnauthorized || !strings.Contains(body, "Invalid email or password") {
		t.Errorf("bad login = %d", resp.StatusCode)
	}

	form.Set("password", "secret123")
	resp, _ = ta.do(t, post("/auth/login", form, false, ""))
	if resp.StatusCode != fiber.StatusSeeOther || resp.Header.Get("Location") != "/training" {
		t.Errorf("login redirect = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if !strings.Contains(resp.Header.Get("Set-Cookie"), "portal_session=good-token") {
		t.Errorf("Set-Cookie = %q", resp.Header.Get("Set-Cookie"))
	}

	form.Set("next", "//evil.example.com")
	resp, _ = ta.do(t, post("/auth/login", form, false, ""))
	if resp.Header.Get("Location") != "/" {
		t.Errorf("open redirect to %q", resp.Header.Get("Location"))
	}
}

func TestSignUp(t *testing.T) {
	ta := newTestApp(t, &fakeSource{})
	tests := []struct {
		email, password string
		status          int
		want            string
	}{
		{"farmer@example.com", "secret123", fiber.StatusConflict, msgEmailTaken},
		{"new@example.com", "secret123", fiber.StatusOK, msgConfirmEmail},
		{"not-an-email", "secret123", fiber.StatusBadRequest, msgInvalidEmail},
		{"new@example.com", "123", fiber.StatusBadRequest, msgWeakPassword},
	}
	for _, tt := range tests {
		resp, body := ta.do(t, post("/auth/sign-up", url.Values{"email": {tt.email}, "password": {tt.password}}, false, ""))
		if resp.StatusCode != tt.status || !strings.Contains(body, tt.want) {
			t.Errorf("sign-up %s/%s = %d, want %d with %q", tt.email, tt.password, resp.StatusCode, tt.status, tt.want)
		}
	}
}

func TestLogout(t *testing.T) {
	ta := newTestApp(t, &fakeSource{})

	resp, _ := ta.do(t, get("/auth/logout", false, "good-token"))
	if resp.StatusCode != fiber.StatusMethodNotAllowed {
		t.Errorf("GET logout = %d, want 405", resp.StatusCode)
	}

	resp, _ = ta.do(t, post("/auth/logout", url.Values{}, false, "good-token"))
	if resp.StatusCode != fiber.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Errorf("logout = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if !strings.Contains(resp.Header.Get("Set-Cookie"), "portal_session=;") {
		t.Errorf("cookie not cleared: %q", resp.Header.Get("Set-Cookie"))
	}
}

func TestHealthAndMetrics(t *testing.T) {
	src := &fakeSource{workshopsErr: errors.New("down")}
	ta := newTestApp(t, src)

	resp, _ := ta.do(t, get("/healthz", false, ""))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("healthz = %d", resp.StatusCode)
	}
	src.pingErr = errors.New("down")
	resp, _ = ta.do(t, get("/healthz", false, ""))
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("failing healthz = %d", resp.StatusCode)
	}

	ta.do(t, get("/training", false, ""))
	_, body := ta.do(t, get("/metrics", false, ""))
	for _, want := range []string{
		`portal_listing_fetch_failures_total{entity="workshops"} 1`,
		`portal_active_visits 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
