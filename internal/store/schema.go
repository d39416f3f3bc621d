package store

import (
	"context"
	"fmt"
	"strings"
)

// schema is written with type tokens that Migrate swaps per dialect
const schema = `
CREATE TABLE IF NOT EXISTS livestock_prices (
	id {{uuid}} PRIMARY KEY,
	livestock_type TEXT NOT NULL,
	breed TEXT NOT NULL DEFAULT '',
	price_per_unit DOUBLE PRECISION NOT NULL,
	unit_type TEXT NOT NULL DEFAULT '',
	location_district TEXT NOT NULL,
	market_name TEXT NOT NULL DEFAULT '',
	trend TEXT NOT NULL DEFAULT 'stable' CHECK (trend IN ('increasing', 'decreasing', 'stable')),
	date {{timestamp}} NOT NULL
);

CREATE TABLE IF NOT EXISTS government_schemes (
	id {{uuid}} PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	scheme_type TEXT NOT NULL,
	eligibility TEXT NOT NULL DEFAULT '',
	benefits TEXT NOT NULL DEFAULT '',
	subsidy_percentage DOUBLE PRECISION,
	application_link TEXT,
	created_at {{timestamp}} NOT NULL
);

CREATE TABLE IF NOT EXISTS training_workshops (
	id {{uuid}} PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	workshop_type TEXT NOT NULL,
	trainer_name TEXT NOT NULL DEFAULT '',
	location_district TEXT NOT NULL,
	start_date {{timestamp}} NOT NULL,
	end_date {{timestamp}} NOT NULL,
	max_participants INTEGER NOT NULL,
	enrolled_count INTEGER NOT NULL DEFAULT 0,
	duration_hours INTEGER NOT NULL DEFAULT 0,
	fee DOUBLE PRECISION NOT NULL DEFAULT 0,
	topics TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS veterinary_services (
	id {{uuid}} PRIMARY KEY,
	clinic_name TEXT NOT NULL,
	veterinarian_name TEXT NOT NULL DEFAULT '',
	specialization TEXT,
	location_address TEXT NOT NULL DEFAULT '',
	location_district TEXT NOT NULL,
	phone_number TEXT NOT NULL DEFAULT '',
	email TEXT,
	services TEXT NOT NULL DEFAULT '',
	availability_days TEXT NOT NULL DEFAULT '',
	availability_hours TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS users (
	id {{uuid}} PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at {{timestamp}} NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	token_hash TEXT PRIMARY KEY,
	user_id {{uuid}} NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	expires_at {{timestamp}} NOT NULL,
	created_at {{timestamp}} NOT NULL
);

CREATE TABLE IF NOT EXISTS workshop_enrollments (
	id {{uuid}} PRIMARY KEY,
	user_id {{uuid}} NOT NULL,
	workshop_id {{uuid}} NOT NULL REFERENCES training_workshops (id) ON DELETE CASCADE,
	created_at {{timestamp}} NOT NULL,
	UNIQUE (user_id, workshop_id)
);

CREATE INDEX IF NOT EXISTS idx_livestock_prices_date ON livestock_prices (date);
CREATE INDEX IF NOT EXISTS idx_training_workshops_start ON training_workshops (start_date);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id);
`

// Migrate creates every table the portal reads or writes
func Migrate(ctx context.Context, db *DB) error {
	ddl := schema
	if db.Dialect == SQLite {
		ddl = strings.NewReplacer("{{uuid}}", "TEXT", "{{timestamp}}", "TIMESTAMP").Replace(ddl)
	} else {
		ddl = strings.NewReplacer("{{uuid}}", "UUID", "{{timestamp}}", "TIMESTAMPTZ").Replace(ddl)
	}

	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
