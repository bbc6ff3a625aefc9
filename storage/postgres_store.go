package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"autoria-importer/models"
)

// PostgresStore persists imported listings, owners and images to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS owners (
			id         SERIAL PRIMARY KEY,
			username   VARCHAR(150) UNIQUE NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS listings (
			id           SERIAL PRIMARY KEY,
			owner_id     INTEGER      NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
			make         VARCHAR(100) NOT NULL,
			model        VARCHAR(100) NOT NULL,
			year         INTEGER      NOT NULL,
			mileage      INTEGER      NOT NULL DEFAULT 0,
			vehicle_type VARCHAR(100) NOT NULL DEFAULT '',
			condition    VARCHAR(20)  NOT NULL,
			fuel_type    VARCHAR(20)  NOT NULL,
			transmission VARCHAR(20)  NOT NULL,
			body_type    VARCHAR(20)  NOT NULL,
			country      VARCHAR(100) NOT NULL DEFAULT '',
			city         VARCHAR(100) NOT NULL DEFAULT '',
			price        NUMERIC(10,2) NOT NULL DEFAULT 0,
			negotiable   BOOLEAN      NOT NULL DEFAULT FALSE,
			engine_size  REAL         NOT NULL DEFAULT 0,
			engine_power INTEGER      NOT NULL DEFAULT 0,
			description  TEXT         NOT NULL DEFAULT '',
			is_imported  BOOLEAN      NOT NULL DEFAULT FALSE,
			source_url   TEXT         NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS listing_images (
			id         SERIAL PRIMARY KEY,
			listing_id INTEGER     NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			content    BYTEA       NOT NULL,
			ext        VARCHAR(10) NOT NULL DEFAULT '.jpg',
			is_primary BOOLEAN     NOT NULL DEFAULT FALSE,
			source_url TEXT        NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price     ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_make      ON listings(make);
		CREATE INDEX IF NOT EXISTS idx_listings_fuel_type ON listings(fuel_type);
		CREATE INDEX IF NOT EXISTS idx_images_listing     ON listing_images(listing_id);
	`)
	return err
}

// GetOrCreateOwner resolves the importing identity atomically. The insert is
// a no-op when the username already exists, so concurrent callers converge
// on the same row.
func (ps *PostgresStore) GetOrCreateOwner(ctx context.Context, username string) (*models.Identity, error) {
	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO owners (username) VALUES ($1)
		ON CONFLICT (username) DO NOTHING
	`, username)
	if err != nil {
		return nil, fmt.Errorf("postgres: create owner: %w", err)
	}

	owner := &models.Identity{Username: username}
	err = ps.db.QueryRowContext(ctx,
		`SELECT id FROM owners WHERE username = $1`, username,
	).Scan(&owner.ID)
	if err != nil {
		return nil, fmt.Errorf("postgres: select owner: %w", err)
	}
	return owner, nil
}

// CreateListing inserts one draft and returns the new listing id.
func (ps *PostgresStore) CreateListing(ctx context.Context, draft *models.ListingDraft, owner *models.Identity) (int64, error) {
	var id int64
	err := ps.db.QueryRowContext(ctx, `
		INSERT INTO listings (
			owner_id, make, model, year, mileage, vehicle_type,
			condition, fuel_type, transmission, body_type,
			country, city, price, negotiable,
			engine_size, engine_power, description, is_imported, source_url
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING id
	`,
		owner.ID, draft.Make, draft.Model, draft.Year, draft.Mileage, draft.VehicleType,
		string(draft.Condition), string(draft.FuelType), string(draft.Transmission), string(draft.BodyType),
		draft.Country, draft.City, draft.Price, draft.Negotiable,
		draft.EngineSize, draft.EnginePower, draft.Description, draft.Imported, draft.SourceURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert listing: %w", err)
	}
	return id, nil
}

// AttachImage stores one downloaded image for a listing.
func (ps *PostgresStore) AttachImage(ctx context.Context, listingID int64, artifact *models.ImageArtifact) (int64, error) {
	var id int64
	err := ps.db.QueryRowContext(ctx, `
		INSERT INTO listing_images (listing_id, content, ext, is_primary, source_url)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, listingID, artifact.Data, artifact.Ext, artifact.IsPrimary, artifact.SourceURL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert image: %w", err)
	}
	return id, nil
}

// FindDuplicate reports whether a listing with the same make, model, year
// and mileage is already stored.
func (ps *PostgresStore) FindDuplicate(ctx context.Context, make, model string, year, mileage int) (bool, error) {
	var exists bool
	err := ps.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM listings
			WHERE make = $1 AND model = $2 AND year = $3 AND mileage = $4
		)
	`, make, model, year, mileage).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: duplicate check: %w", err)
	}
	return exists, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
