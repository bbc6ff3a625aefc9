package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"autoria-importer/config"
	"autoria-importer/models"
	"autoria-importer/storage"
	"autoria-importer/utils"
)

// ErrDuplicateListing marks a link skipped by the optional skip-duplicates
// policy.
var ErrDuplicateListing = errors.New("duplicate listing")

// ListingSource is the scraping side of the pipeline as the orchestrator
// sees it: link collection, per-page extraction, image download.
type ListingSource interface {
	CollectLinks(ctx context.Context, limit int) ([]string, error)
	FetchListing(ctx context.Context, url string) (*models.RawFields, error)
	DownloadImage(ctx context.Context, url string) (*models.ImageArtifact, error)
}

// Importer coordinates one bounded import run: resolve the owner identity,
// collect links, and process each link independently, so that no single
// failure aborts the batch.
type Importer struct {
	cfg        *config.Config
	scrape     *config.ScrapeConfig
	source     ListingSource
	store      storage.CarStore
	normalizer *Normalizer
	logger     *utils.Logger
	retry      *utils.RetryConfig

	// SkipDuplicates drops links whose make/model/year/mileage already
	// exist in the store. Off by default.
	SkipDuplicates bool
}

// NewImporter creates an import orchestrator.
func NewImporter(cfg *config.Config, scrape *config.ScrapeConfig, source ListingSource, store storage.CarStore, logger *utils.Logger) *Importer {
	maxAttempts := cfg.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Importer{
		cfg:        cfg,
		scrape:     scrape,
		source:     source,
		store:      store,
		normalizer: NewNormalizer(),
		logger:     logger,
		retry: &utils.RetryConfig{
			MaxAttempts: maxAttempts,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		SkipDuplicates: cfg.SkipDuplicates,
	}
}

// Run imports up to limit listings on behalf of ownerName and always returns
// a batch result, even when every step failed. Per-link failures are
// recorded and skipped; the run only stops early on context cancellation or
// the configured overall deadline.
func (imp *Importer) Run(ctx context.Context, limit int, ownerName string) *models.ImportBatchResult {
	result := &models.ImportBatchResult{}

	if imp.cfg.RunTimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(imp.cfg.RunTimeoutSec)*time.Second)
		defer cancel()
	}

	imp.logger.Info("[importer] Starting run — limit: %d, owner: %s", limit, ownerName)

	owner, err := imp.store.GetOrCreateOwner(ctx, ownerName)
	if err != nil {
		imp.logger.Error("[importer] Could not resolve owner %q: %v", ownerName, err)
		return result
	}

	links, err := imp.source.CollectLinks(ctx, limit)
	if err != nil {
		imp.logger.Warn("[importer] Link collection ended early: %v", err)
	}
	result.Attempted = len(links)
	if len(links) == 0 {
		imp.logger.Warn("[importer] No links collected — nothing to import")
		return result
	}

	if imp.cfg.MaxConcurrency > 1 {
		imp.runParallel(ctx, links, owner, result)
	} else {
		imp.runSequential(ctx, links, owner, result)
	}

	imp.logger.Info("[importer] Run complete — attempted: %d, imported: %d, failed: %d",
		result.Attempted, result.Imported, result.Failed())
	return result
}

func (imp *Importer) runSequential(ctx context.Context, links []string, owner *models.Identity, result *models.ImportBatchResult) {
	for _, link := range links {
		draft, err := imp.importOne(ctx, link, owner)
		imp.record(result, link, draft, err, nil)
	}
}

// runParallel processes links with a bounded worker pool. Workers share one
// pacer so the source host still sees at most one new link fetch per
// interval; each link's failure stays isolated.
func (imp *Importer) runParallel(ctx context.Context, links []string, owner *models.Identity, result *models.ImportBatchResult) {
	pool := utils.NewWorkerPool(imp.cfg.MaxConcurrency, time.Duration(imp.scrape.MinDelayMs)*time.Millisecond)
	var mu sync.Mutex

	for _, link := range links {
		link := link
		pool.Submit(func() {
			draft, err := imp.importOne(ctx, link, owner)
			imp.record(result, link, draft, err, &mu)
		})
	}
	pool.Wait()
}

// record folds one link outcome into the batch result, optionally under a
// mutex when called from pool workers.
func (imp *Importer) record(result *models.ImportBatchResult, link string, draft *models.ListingDraft, err error, mu *sync.Mutex) {
	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}

	if err != nil {
		imp.logger.Warn("[importer] %s failed: %v", link, err)
		result.Failures = append(result.Failures, models.LinkFailure{URL: link, Reason: err.Error()})
		return
	}

	result.Imported++
	result.Drafts = append(result.Drafts, draft)
	imp.logger.Info("[importer] Imported: %s %s (%d) | $%.2f", draft.Make, draft.Model, draft.Year, draft.Price)
}

// importOne drives a single link through fetch → extract → normalize →
// persist → images. Any error is terminal for this link only.
func (imp *Importer) importOne(ctx context.Context, link string, owner *models.Identity) (*models.ListingDraft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw *models.RawFields
	err := imp.retry.Do(ctx, "fetch-listing", func() error {
		var fetchErr error
		raw, fetchErr = imp.source.FetchListing(ctx, link)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	draft := imp.normalizer.Normalize(raw)

	if imp.SkipDuplicates {
		dup, err := imp.store.FindDuplicate(ctx, draft.Make, draft.Model, draft.Year, draft.Mileage)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, ErrDuplicateListing
		}
	}

	listingID, err := imp.store.CreateListing(ctx, draft, owner)
	if err != nil {
		return nil, err
	}

	imp.attachImages(ctx, listingID, draft)
	return draft, nil
}

// attachImages downloads each candidate image and hands it to the store.
// The first successful download becomes the primary image; download or
// attach failures leave the listing with a partial image set.
func (imp *Importer) attachImages(ctx context.Context, listingID int64, draft *models.ListingDraft) {
	primary := true
	for _, imgURL := range draft.ImageURLs {
		if ctx.Err() != nil {
			return
		}

		artifact, err := imp.source.DownloadImage(ctx, imgURL)
		if err != nil {
			imp.logger.Warn("[importer] Image %s failed: %v", imgURL, err)
			continue
		}

		// The first successfully downloaded image is the primary one.
		artifact.IsPrimary = primary
		primary = false

		if _, err := imp.store.AttachImage(ctx, listingID, artifact); err != nil {
			imp.logger.Warn("[importer] Attach image %s failed: %v", imgURL, err)
		}
	}
}
