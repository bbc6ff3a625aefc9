package autoria

import (
	"bytes"
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"

	"autoria-importer/config"
	"autoria-importer/models"
	"autoria-importer/utils"
)

// ErrInvalidListing marks a detail page without the mandatory title element,
// meaning the listing was removed or the page is not a listing at all.
var ErrInvalidListing = errors.New("listing page has no title element")

// Client bundles the fetcher, link collector and extractor into the single
// listing source the import orchestrator consumes.
type Client struct {
	fetcher   *Fetcher
	collector *LinkCollector
	extractor *Extractor
}

// NewClient creates a scraping client for the configured source site.
func NewClient(cfg *config.ScrapeConfig, logger *utils.Logger) *Client {
	fetcher := NewFetcher(cfg)
	return &Client{
		fetcher:   fetcher,
		collector: NewLinkCollector(fetcher, cfg, logger),
		extractor: NewExtractor(cfg, logger),
	}
}

// CollectLinks harvests up to limit detail-page URLs from the search results.
func (c *Client) CollectLinks(ctx context.Context, limit int) ([]string, error) {
	return c.collector.CollectLinks(ctx, limit)
}

// FetchListing fetches one detail page and extracts its raw fields,
// including candidate image URLs. Returns ErrInvalidListing when the page
// lacks a title.
func (c *Client) FetchListing(ctx context.Context, url string) (*models.RawFields, error) {
	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	raw := c.extractor.Extract(doc, url)
	if raw == nil {
		return nil, ErrInvalidListing
	}
	return raw, nil
}

// DownloadImage fetches one image and wraps it as an artifact. The extension
// is inferred from the URL path, defaulting to .jpg when unrecognized.
func (c *Client) DownloadImage(ctx context.Context, imgURL string) (*models.ImageArtifact, error) {
	data, err := c.fetcher.Fetch(ctx, imgURL)
	if err != nil {
		return nil, err
	}
	return &models.ImageArtifact{
		Data:      data,
		Ext:       inferImageExt(imgURL),
		SourceURL: imgURL,
	}, nil
}
