package storage

import (
	"context"

	"autoria-importer/models"
)

// CarStore is the persistence collaborator the import pipeline hands its
// drafts and image artifacts to. Ownership of a draft transfers to the store
// once CreateListing returns.
type CarStore interface {
	// GetOrCreateOwner resolves the importing identity idempotently; it is
	// safe to call concurrently for the same username.
	GetOrCreateOwner(ctx context.Context, username string) (*models.Identity, error)

	CreateListing(ctx context.Context, draft *models.ListingDraft, owner *models.Identity) (int64, error)

	AttachImage(ctx context.Context, listingID int64, artifact *models.ImageArtifact) (int64, error)

	// FindDuplicate reports whether a listing with the same make, model,
	// year and mileage already exists. Serves the optional skip-duplicates
	// import policy.
	FindDuplicate(ctx context.Context, make, model string, year, mileage int) (bool, error)

	Close() error
}
