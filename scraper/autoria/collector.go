package autoria

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"autoria-importer/config"
	"autoria-importer/utils"
)

// LinkCollector paginates the search-results listing and harvests detail-page
// URLs. Each call re-crawls from page 1; results are deduplicated by exact
// URL string in first-seen order.
type LinkCollector struct {
	fetcher *Fetcher
	cfg     *config.ScrapeConfig
	logger  *utils.Logger
}

// NewLinkCollector creates a collector over the given fetcher.
func NewLinkCollector(fetcher *Fetcher, cfg *config.ScrapeConfig, logger *utils.Logger) *LinkCollector {
	return &LinkCollector{fetcher: fetcher, cfg: cfg, logger: logger}
}

// CollectLinks walks search pages starting at 1 until limit links are
// collected or a page yields zero new links. A fetch failure ends the crawl
// and returns whatever was collected so far — partial results are usable.
func (c *LinkCollector) CollectLinks(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	links := make([]string, 0, limit)
	seen := utils.NewURLSet()
	page := 1

	for len(links) < limit {
		if err := ctx.Err(); err != nil {
			return links, err
		}

		url := c.pageURL(page)
		c.logger.Info("[collector] Page %d — fetching %s", page, url)

		body, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			c.logger.Warn("[collector] Page %d failed: %v — stopping", page, err)
			break
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			c.logger.Warn("[collector] Page %d parse failed: %v — stopping", page, err)
			break
		}

		newOnPage := 0
		doc.Find("a.address[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, ok := s.Attr("href")
			if !ok || !strings.HasPrefix(href, c.cfg.ListingPrefix) {
				return true
			}
			if seen.Add(href) {
				links = append(links, href)
				newOnPage++
			}
			return len(links) < limit
		})

		c.logger.Info("[collector] Page %d — %d new links (total %d)", page, newOnPage, len(links))

		if newOnPage == 0 {
			// End of results.
			break
		}
		if len(links) >= limit {
			break
		}

		page++
		if err := c.sleepBetweenPages(ctx); err != nil {
			return links, err
		}
	}

	c.logger.Info("[collector] Finished with %d links", len(links))
	return links, nil
}

// pageURL rewrites the page query parameter in the configured search URL.
func (c *LinkCollector) pageURL(page int) string {
	return strings.Replace(c.cfg.BaseURL, "page=1", fmt.Sprintf("page=%d", page), 1)
}

// sleepBetweenPages waits a randomized delay to avoid rate limiting.
func (c *LinkCollector) sleepBetweenPages(ctx context.Context) error {
	min := c.cfg.MinDelayMs
	max := c.cfg.MaxDelayMs
	if max < min {
		max = min
	}
	delayMs := min
	if max > min {
		delayMs += rand.Intn(max - min + 1)
	}
	if delayMs <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(delayMs) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
