package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/husbandry/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB("sqlite", filepath.Join(t.TempDir(), "portal.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func day(n int) time.Time {
	return time.Date(2025, time.March, n, 0, 0, 0, 0, time.UTC)
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	lite := &DB{Dialect: SQLite}
	q := `SELECT * FROM t WHERE a = $1 AND b = $2 OR c = $10`

	if got := pg.Rebind(q); got != q {
		t.Errorf("postgres rebind changed query: %s", got)
	}
	want := `SELECT * FROM t WHERE a = ?1 AND b = ?2 OR c = ?10`
	if got := lite.Rebind(q); got != want {
		t.Errorf("sqlite rebind = %s, want %s", got, want)
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestOrderClause(t *testing.T) {
	if _, err := (Order{Column: "id; DROP TABLE users"}).clause("date"); err == nil {
		t.Fatal("expected an error for a column outside the allow-list")
	}
	got, err := WorkshopOrder.clause("start_date")
	if err != nil {
		t.Fatalf("clause: %v", err)
	}
	if got != "ORDER BY start_date ASC, id ASC" {
		t.Errorf("clause = %q", got)
	}
	if PriceOrder.String() != "date.desc" {
		t.Errorf("String = %q", PriceOrder.String())
	}
}

func TestPriceStoreOrdersByRecency(t *testing.T) {
	ctx := context.Background()
	src := NewSQLSource(openTestDB(t))

	for i, district := range []string{"Pune", "Nashik", "Satara"} {
		p := &model.PriceQuote{
			ID:               uuid.New(),
			LivestockType:    "Cow",
			Breed:            "Gir",
			PricePerUnit:     45000 + float64(i),
			UnitType:         "per head",
			LocationDistrict: district,
			MarketName:       district + " APMC",
			Trend:            model.TrendStable,
			Date:             day(i + 1),
		}
		if err := src.Prices.Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	prices, err := src.ListPrices(ctx)
	if err != nil {
		t.Fatalf("ListPrices: %v", err)
	}
	if len(prices) != 3 {
		t.Fatalf("got %d prices", len(prices))
	}
	if prices[0].LocationDistrict != "Satara" || prices[2].LocationDistrict != "Pune" {
		t.Errorf("unexpected order: %s, %s, %s", prices[0].LocationDistrict, prices[1].LocationDistrict, prices[2].LocationDistrict)
	}
	if !prices[0].Date.Equal(day(3)) {
		t.Errorf("date round trip = %v", prices[0].Date)
	}
	if prices[0].Trend != model.TrendStable {
		t.Errorf("trend = %q", prices[0].Trend)
	}
}

func TestSchemeStoreNullableColumns(t *testing.T) {
	ctx := context.Background()
	src := NewSQLSource(openTestDB(t))

	withLink := &model.Scheme{
		ID:                uuid.New(),
		Title:             "National Livestock Mission",
		SchemeType:        "Central",
		SubsidyPercentage: sql.NullFloat64{Float64: 50, Valid: true},
		ApplicationLink:   sql.NullString{String: "https://nlm.udyamimitra.in", Valid: true},
		CreatedAt:         day(2),
	}
	bare := &model.Scheme{ID: uuid.New(), Title: "Pashu Kisan Credit Card", SchemeType: "State", CreatedAt: day(1)}

	for _, sc := range []*model.Scheme{withLink, bare} {
		if err := src.Schemes.Upsert(ctx, sc); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	schemes, err := src.ListSchemes(ctx)
	if err != nil {
		t.Fatalf("ListSchemes: %v", err)
	}
	if len(schemes) != 2 || schemes[0].ID != withLink.ID {
		t.Fatalf("expected newest scheme first, got %+v", schemes)
	}
	if !schemes[0].SubsidyPercentage.Valid || schemes[0].SubsidyPercentage.Float64 != 50 {
		t.Errorf("subsidy = %+v", schemes[0].SubsidyPercentage)
	}
	if schemes[1].ApplicationLink.Valid || schemes[1].SubsidyPercentage.Valid {
		t.Errorf("expected NULL optional columns, got %+v", schemes[1])
	}
}

func TestWorkshopStore(t *testing.T) {
	ctx := context.Background()
	src := NewSQLSource(openTestDB(t))

	later := &model.Workshop{ID: uuid.New(), Title: "Poultry Health", WorkshopType: "Poultry", LocationDistrict: "Nashik",
		StartDate: day(20), EndDate: day(21), MaxParticipants: 25, EnrolledCount: 3, DurationHours: 12, Fee: 500}
	sooner := &model.Workshop{ID: uuid.New(), Title: "Dairy Basics", WorkshopType: "Dairy", LocationDistrict: "Pune",
		StartDate: day(5), EndDate: day(6), MaxParticipants: 30, EnrolledCount: 30, DurationHours: 16, Topics: "Feeding, Milking"}

	for _, w := range []*model.Workshop{later, sooner} {
		if err := src.Workshops.Upsert(ctx, w); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	workshops, err := src.ListWorkshops(ctx)
	if err != nil {
		t.Fatalf("ListWorkshops: %v", err)
	}
	if len(workshops) != 2 || workshops[0].Title != "Dairy Basics" {
		t.Fatalf("expected start-date ascending order, got %+v", workshops)
	}
	if !workshops[0].IsFull() {
		t.Error("Dairy Basics should be full")
	}

	got, err := src.Workshops.GetByID(ctx, later.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v, %v", got, err)
	}
	if got.Fee != 500 || got.MaxParticipants != 25 {
		t.Errorf("GetByID = %+v", got)
	}

	missing, err := src.Workshops.GetByID(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID(missing) = %v, %v", missing, err)
	}
}

func TestVeterinaryStoreOrdersByClinic(t *testing.T) {
	ctx := context.Background()
	src := NewSQLSource(openTestDB(t))

	for _, name := range []string{"Shivneri Animal Clinic", "Gokul Veterinary Hospital"} {
		v := &model.VeterinaryService{ID: uuid.New(), ClinicName: name, LocationDistrict: "Pune", PhoneNumber: "020-5550100"}
		if err := src.Veterinary.Upsert(ctx, v); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	services, err := src.ListVeterinaryServices(ctx)
	if err != nil {
		t.Fatalf("ListVeterinaryServices: %v", err)
	}
	if len(services) != 2 || services[0].ClinicName != "Gokul Veterinary Hospital" {
		t.Fatalf("unexpected order: %+v", services)
	}
	if services[0].Email.Valid || services[0].Specialization.Valid {
		t.Error("expected NULL email and specialization")
	}
}

func TestEnrollmentUniqueness(t *testing.T) {
	ctx := context.Background()
	src := NewSQLSource(openTestDB(t))

	w := &model.Workshop{ID: uuid.New(), Title: "Goat Farming", WorkshopType: "Goat", LocationDistrict: "Satara",
		StartDate: day(10), EndDate: day(11), MaxParticipants: 10}
	if err := src.Workshops.Upsert(ctx, w); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	user := uuid.New()
	first := &model.Enrollment{UserID: user, WorkshopID: w.ID}
	if err := src.InsertEnrollment(ctx, first); err != nil {
		t.Fatalf("first enrollment: %v", err)
	}
	if first.ID == uuid.Nil || first.CreatedAt.IsZero() {
		t.Error("Insert should assign id and created_at")
	}

	err := src.InsertEnrollment(ctx, &model.Enrollment{UserID: user, WorkshopID: w.ID})
	if !errors.Is(err, ErrUniqueViolation) {
		t.Fatalf("duplicate enrollment error = %v, want ErrUniqueViolation", err)
	}

	if err := src.InsertEnrollment(ctx, &model.Enrollment{UserID: uuid.New(), WorkshopID: w.ID}); err != nil {
		t.Fatalf("second user enrollment: %v", err)
	}

	count, err := src.Enrollments.CountForWorkshop(ctx, w.ID)
	if err != nil {
		t.Fatalf("CountForWorkshop: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestUserStoreSessions(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore(openTestDB(t))

	u := &model.User{Email: "  Farmer@Example.com ", PasswordHash: "hash"}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Email != "farmer@example.com" {
		t.Errorf("email not normalised: %q", u.Email)
	}
	if err := users.Create(ctx, &model.User{Email: "farmer@example.com", PasswordHash: "x"}); !errors.Is(err, ErrUniqueViolation) {
		t.Fatalf("duplicate email error = %v", err)
	}

	found, err := users.GetByEmail(ctx, "FARMER@example.com")
	if err != nil || found == nil || found.ID != u.ID {
		t.Fatalf("GetByEmail = %+v, %v", found, err)
	}
	if none, err := users.GetByEmail(ctx, "nobody@example.com"); err != nil || none != nil {
		t.Fatalf("GetByEmail(missing) = %+v, %v", none, err)
	}

	now := time.Now().UTC()
	live := &model.Session{Token: "live", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}
	stale := &model.Session{Token: "stale", UserID: u.ID, ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*model.Session{live, stale} {
		if err := users.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	var raw int
	if err := users.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE token_hash = $1`, "live").Scan(&raw); err != nil || raw != 0 {
		t.Fatalf("raw token stored: count=%d err=%v", raw, err)
	}

	got, err := users.GetSessionUser(ctx, "live", now)
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("GetSessionUser(live) = %+v, %v", got, err)
	}
	if got, err := users.GetSessionUser(ctx, "stale", now); err != nil || got != nil {
		t.Fatalf("GetSessionUser(stale) = %+v, %v", got, err)
	}

	n, err := users.DeleteExpiredSessions(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpiredSessions = %d, %v", n, err)
	}
	if err := users.DeleteSession(ctx, "live"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if got, _ := users.GetSessionUser(ctx, "live", now); got != nil {
		t.Fatal("session still resolves after delete")
	}
}
