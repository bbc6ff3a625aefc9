package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"autoria-importer/config"
	"autoria-importer/models"
	"autoria-importer/utils"
)

// fakeSource serves canned listings and images without any network access.
type fakeSource struct {
	links    []string
	pages    map[string]*models.RawFields
	pageErr  map[string]error
	images   map[string][]byte
	imageErr map[string]error
}

func (f *fakeSource) CollectLinks(_ context.Context, limit int) ([]string, error) {
	if limit < len(f.links) {
		return f.links[:limit], nil
	}
	return f.links, nil
}

func (f *fakeSource) FetchListing(_ context.Context, url string) (*models.RawFields, error) {
	if err := f.pageErr[url]; err != nil {
		return nil, err
	}
	raw, ok := f.pages[url]
	if !ok {
		return nil, errors.New("unexpected url")
	}
	return raw, nil
}

func (f *fakeSource) DownloadImage(_ context.Context, url string) (*models.ImageArtifact, error) {
	if err := f.imageErr[url]; err != nil {
		return nil, err
	}
	return &models.ImageArtifact{Data: f.images[url], SourceURL: url, Ext: ".jpg"}, nil
}

// fakeStore records everything handed to it.
type fakeStore struct {
	mu         sync.Mutex
	owners     map[string]int64
	listings   []*models.ListingDraft
	images     map[int64][]*models.ImageArtifact
	nextID     int64
	createErr  error
	duplicates map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		owners:     make(map[string]int64),
		images:     make(map[int64][]*models.ImageArtifact),
		duplicates: make(map[string]bool),
	}
}

func (f *fakeStore) GetOrCreateOwner(_ context.Context, username string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.owners[username]; ok {
		return &models.Identity{ID: id, Username: username}, nil
	}
	f.nextID++
	f.owners[username] = f.nextID
	return &models.Identity{ID: f.nextID, Username: username}, nil
}

func (f *fakeStore) CreateListing(_ context.Context, draft *models.ListingDraft, _ *models.Identity) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	f.listings = append(f.listings, draft)
	return f.nextID, nil
}

func (f *fakeStore) AttachImage(_ context.Context, listingID int64, artifact *models.ImageArtifact) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.images[listingID] = append(f.images[listingID], artifact)
	return f.nextID, nil
}

func (f *fakeStore) FindDuplicate(_ context.Context, make, model string, _, _ int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duplicates[make+" "+model], nil
}

func (f *fakeStore) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{MaxConcurrency: 1, MaxRetries: 1}
}

func rawListing(url, make string) *models.RawFields {
	return &models.RawFields{
		Make: make, Model: "X", Year: 2019, Mileage: 10000,
		Price: 9000, SourceURL: url,
	}
}

func TestRunBatchIsolation(t *testing.T) {
	links := []string{
		"https://auto.ria.com/uk/auto_1.html",
		"https://auto.ria.com/uk/auto_2.html",
		"https://auto.ria.com/uk/auto_3.html",
	}
	source := &fakeSource{
		links: links,
		pages: map[string]*models.RawFields{
			links[0]: rawListing(links[0], "Toyota"),
			links[2]: rawListing(links[2], "Honda"),
		},
		pageErr: map[string]error{
			links[1]: errors.New("connection reset"),
		},
	}
	store := newFakeStore()

	imp := NewImporter(testConfig(), config.DefaultScrapeConfig(), source, store, utils.NewLogger(false))
	result := imp.Run(context.Background(), 10, "admin")

	if result.Attempted != 3 {
		t.Errorf("attempted: got %d, want 3", result.Attempted)
	}
	if result.Imported != 2 {
		t.Errorf("imported: got %d, want 2", result.Imported)
	}
	if result.Failed() != 1 {
		t.Fatalf("failed: got %d, want 1", result.Failed())
	}
	if result.Failures[0].URL != links[1] {
		t.Errorf("failure url: got %q, want %q", result.Failures[0].URL, links[1])
	}
	if len(store.listings) != 2 {
		t.Errorf("store got %d listings, want 2", len(store.listings))
	}
}

func TestRunPrimaryImageInvariant(t *testing.T) {
	link := "https://auto.ria.com/uk/auto_img.html"
	raw := rawListing(link, "Mazda")
	raw.ImageURLs = []string{
		"https://cdn.auto.ria.com/photos/i1.jpg", // download fails
		"https://cdn.auto.ria.com/photos/i2.jpg",
		"https://cdn.auto.ria.com/photos/i3.jpg",
	}

	source := &fakeSource{
		links: []string{link},
		pages: map[string]*models.RawFields{link: raw},
		images: map[string][]byte{
			raw.ImageURLs[1]: []byte("img2"),
			raw.ImageURLs[2]: []byte("img3"),
		},
		imageErr: map[string]error{
			raw.ImageURLs[0]: errors.New("timeout"),
		},
	}
	store := newFakeStore()

	imp := NewImporter(testConfig(), config.DefaultScrapeConfig(), source, store, utils.NewLogger(false))
	result := imp.Run(context.Background(), 1, "admin")

	if result.Imported != 1 {
		t.Fatalf("imported: got %d, want 1", result.Imported)
	}

	var attached []*models.ImageArtifact
	for _, imgs := range store.images {
		attached = imgs
	}
	if len(attached) != 2 {
		t.Fatalf("attached images: got %d, want 2", len(attached))
	}

	primaries := 0
	for _, a := range attached {
		if a.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		t.Errorf("primary images: got %d, want exactly 1", primaries)
	}
	// The first successfully downloaded image is the primary one.
	if !attached[0].IsPrimary || attached[0].SourceURL != raw.ImageURLs[1] {
		t.Errorf("wrong primary: %+v", attached[0])
	}
}

func TestRunNoImagesNoPrimary(t *testing.T) {
	link := "https://auto.ria.com/uk/auto_noimg.html"
	source := &fakeSource{
		links: []string{link},
		pages: map[string]*models.RawFields{link: rawListing(link, "Suzuki")},
	}
	store := newFakeStore()

	imp := NewImporter(testConfig(), config.DefaultScrapeConfig(), source, store, utils.NewLogger(false))
	result := imp.Run(context.Background(), 1, "admin")

	if result.Imported != 1 {
		t.Fatalf("imported: got %d, want 1", result.Imported)
	}
	if len(store.images) != 0 {
		t.Errorf("expected zero images, got %v", store.images)
	}
}

func TestRunPersistenceFailureIsPerLink(t *testing.T) {
	link := "https://auto.ria.com/uk/auto_db.html"
	source := &fakeSource{
		links: []string{link},
		pages: map[string]*models.RawFields{link: rawListing(link, "Kia")},
	}
	store := newFakeStore()
	store.createErr = errors.New("constraint violation")

	imp := NewImporter(testConfig(), config.DefaultScrapeConfig(), source, store, utils.NewLogger(false))
	result := imp.Run(context.Background(), 1, "admin")

	if result.Imported != 0 || result.Failed() != 1 {
		t.Errorf("got imported=%d failed=%d, want 0/1", result.Imported, result.Failed())
	}
}

func TestRunSkipDuplicates(t *testing.T) {
	link := "https://auto.ria.com/uk/auto_dup.html"
	source := &fakeSource{
		links: []string{link},
		pages: map[string]*models.RawFields{link: rawListing(link, "Toyota")},
	}
	store := newFakeStore()
	store.duplicates["Toyota X"] = true

	imp := NewImporter(testConfig(), config.DefaultScrapeConfig(), source, store, utils.NewLogger(false))
	imp.SkipDuplicates = true
	result := imp.Run(context.Background(), 1, "admin")

	if result.Imported != 0 {
		t.Errorf("duplicate imported: got %d, want 0", result.Imported)
	}
	if result.Failed() != 1 {
		t.Fatalf("expected one recorded failure, got %d", result.Failed())
	}
	if result.Failures[0].Reason != ErrDuplicateListing.Error() {
		t.Errorf("reason: got %q, want %q", result.Failures[0].Reason, ErrDuplicateListing.Error())
	}
}

func TestRunCancelledContext(t *testing.T) {
	links := []string{
		"https://auto.ria.com/uk/auto_c1.html",
		"https://auto.ria.com/uk/auto_c2.html",
	}
	source := &fakeSource{
		links: links,
		pages: map[string]*models.RawFields{
			links[0]: rawListing(links[0], "Ford"),
			links[1]: rawListing(links[1], "Opel"),
		},
	}
	store := newFakeStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imp := NewImporter(testConfig(), config.DefaultScrapeConfig(), source, store, utils.NewLogger(false))
	result := imp.Run(ctx, 2, "admin")

	if result.Imported != 0 {
		t.Errorf("cancelled run imported %d listings", result.Imported)
	}
	// Every link is accounted for: cancelled links are recorded failures.
	if result.Attempted != result.Imported+result.Failed() {
		t.Errorf("attempted %d != imported %d + failed %d",
			result.Attempted, result.Imported, result.Failed())
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	links := []string{
		"https://auto.ria.com/uk/auto_w1.html",
		"https://auto.ria.com/uk/auto_w2.html",
		"https://auto.ria.com/uk/auto_w3.html",
		"https://auto.ria.com/uk/auto_w4.html",
	}
	pages := make(map[string]*models.RawFields, len(links))
	for _, l := range links {
		pages[l] = rawListing(l, "VW")
	}
	source := &fakeSource{
		links:   links,
		pages:   pages,
		pageErr: map[string]error{links[2]: errors.New("boom")},
	}
	store := newFakeStore()

	cfg := testConfig()
	cfg.MaxConcurrency = 3
	scrape := config.DefaultScrapeConfig()
	scrape.MinDelayMs = 0

	imp := NewImporter(cfg, scrape, source, store, utils.NewLogger(false))
	result := imp.Run(context.Background(), 10, "admin")

	if result.Attempted != 4 || result.Imported != 3 || result.Failed() != 1 {
		t.Errorf("got attempted=%d imported=%d failed=%d, want 4/3/1",
			result.Attempted, result.Imported, result.Failed())
	}
	if result.Failures[0].URL != links[2] {
		t.Errorf("failure url: got %q", result.Failures[0].URL)
	}
}

func TestGetOrCreateOwnerCalledOncePerRun(t *testing.T) {
	source := &fakeSource{links: nil}
	store := newFakeStore()

	imp := NewImporter(testConfig(), config.DefaultScrapeConfig(), source, store, utils.NewLogger(false))
	_ = imp.Run(context.Background(), 5, "importbot")
	_ = imp.Run(context.Background(), 5, "importbot")

	if len(store.owners) != 1 {
		t.Errorf("owners created: got %d, want 1", len(store.owners))
	}
}
