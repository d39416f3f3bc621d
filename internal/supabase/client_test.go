package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jjenkins/husbandry/internal/auth"
	"github.com/jjenkins/husbandry/internal/model"
	"github.com/jjenkins/husbandry/internal/store"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "anon-key").WithHTTPClient(srv.Client())
}

func TestListPrices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/livestock_prices" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("order"); got != "date.desc" {
			t.Errorf("order = %q", got)
		}
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("apikey = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer anon-key" {
			t.Errorf("Authorization = %q", got)
		}
		io.WriteString(w, `[
			{"id":"6f1c1f4e-8d47-4b5a-9a0e-0d7e3c1b2a11","livestock_type":"Cattle","breed":"Gir",
			 "price_per_unit":55000,"unit_type":"per animal","location_district":"Pune",
			 "market_name":"Pune APMC","trend":"increasing","date":"2025-01-15"}
		]`)
	})

	prices, err := c.ListPrices(context.Background())
	if err != nil {
		t.Fatalf("ListPrices: %v", err)
	}
	if len(prices) != 1 {
		t.Fatalf("got %d prices", len(prices))
	}
	p := prices[0]
	if p.Breed != "Gir" || p.Trend != model.TrendIncreasing || p.Date.Year() != 2025 {
		t.Errorf("unexpected price %+v", p)
	}
}

func TestListSchemesNullableColumns(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id":"0c8a3b44-2f31-4d7a-8a1e-5b6c7d8e9f00","title":"Dairy Support","scheme_type":"Subsidy",
			 "subsidy_percentage":25,"application_link":null,"created_at":"2025-01-01T10:00:00.123456+00:00"},
			{"id":"1c8a3b44-2f31-4d7a-8a1e-5b6c7d8e9f00","title":"Goat Loan","scheme_type":"Loan",
			 "subsidy_percentage":null,"application_link":"https://example.gov/apply","created_at":"2024-12-01T10:00:00"}
		]`)
	})

	schemes, err := c.ListSchemes(context.Background())
	if err != nil {
		t.Fatalf("ListSchemes: %v", err)
	}
	if !schemes[0].SubsidyPercentage.Valid || schemes[0].SubsidyPercentage.Float64 != 25 || schemes[0].ApplicationLink.Valid {
		t.Errorf("first scheme nullables wrong: %+v", schemes[0])
	}
	if schemes[1].SubsidyPercentage.Valid || schemes[1].ApplicationLink.String != "https://example.gov/apply" {
		t.Errorf("second scheme nullables wrong: %+v", schemes[1])
	}
}

func TestListWorkshopsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"message":"boom"}`)
	})

	workshops, err := c.ListWorkshops(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if workshops != nil {
		t.Errorf("workshops = %v, want nil", workshops)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError || apiErr.Message != "boom" {
		t.Errorf("error = %v", err)
	}
}

func TestInsertEnrollment(t *testing.T) {
	userID, workshopID := uuid.New(), uuid.New()
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/workshop_enrollments" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Prefer"); got != "return=minimal" {
			t.Errorf("Prefer = %q", got)
		}
		var rows []enrollmentRow
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil || len(rows) != 1 {
			t.Errorf("body: %v %v", rows, err)
			return
		}
		if rows[0].UserID != userID || rows[0].WorkshopID != workshopID {
			t.Errorf("row = %+v", rows[0])
		}
		if n > 1 {
			w.WriteHeader(http.StatusConflict)
			io.WriteString(w, `{"code":"23505","message":"duplicate key value violates unique constraint"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	ctx := auth.NewContext(context.Background(), &auth.Identity{ID: userID, AccessToken: "user-token"})
	e := &model.Enrollment{UserID: userID, WorkshopID: workshopID}
	if err := c.InsertEnrollment(ctx, e); err != nil {
		t.Fatalf("InsertEnrollment: %v", err)
	}
	if err := c.InsertEnrollment(ctx, e); !errors.Is(err, store.ErrUniqueViolation) {
		t.Fatalf("duplicate InsertEnrollment = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2 (no retry)", got)
	}
}

func TestAuthProvider(t *testing.T) {
	userID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			var creds credentials
			json.NewDecoder(r.Body).Decode(&creds)
			if r.URL.Query().Get("grant_type") != "password" || creds.Password != "secret123" {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "jwt",
				"expires_in":   3600,
				"user":         map[string]any{"id": userID, "email": creds.Email},
			})
		case "/auth/v1/user":
			if r.Header.Get("Authorization") != "Bearer jwt" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"id": userID, "email": "farmer@example.com"})
		case "/auth/v1/signup":
			var creds credentials
			json.NewDecoder(r.Body).Decode(&creds)
			if creds.Email == "taken@example.com" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				io.WriteString(w, `{"error_code":"user_already_exists","msg":"User already registered"}`)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"id": uuid.New(), "email": creds.Email})
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})
	p := NewAuthProvider(c)
	ctx := context.Background()

	sess, err := p.SignIn(ctx, "farmer@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.Token != "jwt" || sess.Identity.ID != userID || sess.Identity.AccessToken != "jwt" {
		t.Errorf("session = %+v", sess)
	}
	if _, err := p.SignIn(ctx, "farmer@example.com", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("bad password = %v", err)
	}

	id, err := p.Identity(ctx, "jwt")
	if err != nil || id == nil || id.ID != userID {
		t.Fatalf("Identity = %+v, %v", id, err)
	}
	if id, err := p.Identity(ctx, "stale"); id != nil || err != nil {
		t.Errorf("stale token = %+v, %v", id, err)
	}

	if _, err := p.SignUp(ctx, "new@example.com", "secret123"); !errors.Is(err, auth.ErrConfirmationPending) {
		t.Errorf("SignUp without session = %v", err)
	}
	if _, err := p.SignUp(ctx, "taken@example.com", "secret123"); !errors.Is(err, auth.ErrEmailTaken) {
		t.Errorf("SignUp taken = %v", err)
	}

	if err := p.SignOut(ctx, "jwt"); err != nil {
		t.Errorf("SignOut: %v", err)
	}
}
