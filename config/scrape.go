package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ScrapeConfig holds the source-site knobs: search URL, user-agent pool,
// pacing, and currency conversion. Values live in configs/scraping.yaml so
// operators can tune them without a rebuild; every field has a default.
type ScrapeConfig struct {
	// BaseURL is the paginated SUV search-results URL. It must contain a
	// "page=1" query parameter, which gets rewritten per page.
	BaseURL string `yaml:"base_url"`

	// ListingPrefix filters anchors on the search page down to detail links.
	ListingPrefix string `yaml:"listing_prefix"`

	UserAgents []string `yaml:"user_agents"`

	FetchTimeoutSec int `yaml:"fetch_timeout_sec"`
	MinDelayMs      int `yaml:"min_delay_ms"`
	MaxDelayMs      int `yaml:"max_delay_ms"`

	ImagesPerListing int `yaml:"images_per_listing"`

	// EURToUSD is the approximate conversion factor applied to €-marked
	// prices. Deliberately a config value, not a hidden literal.
	EURToUSD float64 `yaml:"eur_to_usd"`
}

// DefaultScrapeConfig returns the built-in auto.ria.com SUV profile.
func DefaultScrapeConfig() *ScrapeConfig {
	return &ScrapeConfig{
		BaseURL:       "https://auto.ria.com/uk/search/?indexName=auto&body.id[0]=5&category_id=1&page=1",
		ListingPrefix: "https://auto.ria.com",
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
			"Mozilla/5.0 (X11; Linux x86_64)",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 14_2 like Mac OS X)",
		},
		FetchTimeoutSec:  10,
		MinDelayMs:       500,
		MaxDelayMs:       2000,
		ImagesPerListing: 10,
		EURToUSD:         1.1,
	}
}

// LoadScrapeConfig reads the YAML profile at path, overlaying it onto the
// defaults. A missing file is not an error — the defaults are used as-is.
func LoadScrapeConfig(path string) (*ScrapeConfig, error) {
	cfg := DefaultScrapeConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("scrape config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("scrape config: parse %q: %w", path, err)
	}

	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = DefaultScrapeConfig().UserAgents
	}
	if cfg.EURToUSD <= 0 {
		cfg.EURToUSD = DefaultScrapeConfig().EURToUSD
	}
	if cfg.MaxDelayMs < cfg.MinDelayMs {
		cfg.MaxDelayMs = cfg.MinDelayMs
	}

	return cfg, nil
}
