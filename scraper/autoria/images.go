package autoria

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sourceHost marks image URLs that belong to the source site.
const sourceHost = "auto.ria.com"

// noPhotoSuffix is the site's placeholder shown for listings without photos.
const noPhotoSuffix = "no_photo.png"

// imageSelectors is the ordered list of gallery strategies. The first
// strategy that yields any URL wins.
var imageSelectors = []string{
	"div.gallery-order img.outline",
	"div.photo-620x465 img",
	"div.gallery-img img",
	"div.preview-gallery img",
	"div.carousel-inner img",
	".gallery-order source",
	".carousel img[src]",
	"div.carousel-inner source[srcset]",
}

// imageExtensions are the artifact extensions accepted as-is; anything else
// is stored with the default extension.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

const defaultImageExt = ".jpg"

// ExtractImages collects candidate image URLs from a detail page, capped at
// limit. Placeholder images are dropped, recognized thumbnail URLs are
// upgraded to full size, query strings are stripped, and duplicates are
// removed preserving first-seen order. When no structured strategy matches,
// all img elements are scanned for source-host URLs.
func (e *Extractor) ExtractImages(doc *goquery.Document, limit int) []string {
	if limit <= 0 {
		return nil
	}

	var candidates []string
	for _, selector := range imageSelectors {
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if src := imageSource(s); src != "" {
				candidates = append(candidates, src)
			}
			return len(candidates) < limit
		})
		if len(candidates) > 0 {
			break
		}
	}

	if len(candidates) == 0 {
		e.logger.Debug("[images] No structured gallery found, scanning all img tags")
		doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src, ok := s.Attr("src")
			if !ok || src == "" {
				src, _ = s.Attr("data-src")
			}
			if src != "" && strings.Contains(src, sourceHost) && !strings.HasSuffix(src, noPhotoSuffix) {
				candidates = append(candidates, src)
			}
			return len(candidates) < limit
		})
	}

	seen := make(map[string]struct{}, len(candidates))
	urls := make([]string, 0, len(candidates))
	for _, src := range candidates {
		cleaned := cleanImageURL(src)
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		urls = append(urls, cleaned)
		if len(urls) >= limit {
			break
		}
	}
	return urls
}

// imageSource reads the first populated image attribute of an element and
// filters out the no-photo placeholder.
func imageSource(s *goquery.Selection) string {
	src := ""
	for _, attr := range []string{"src", "data-src", "srcset", "data-lazy"} {
		if v, ok := s.Attr(attr); ok && v != "" {
			src = v
			if attr == "srcset" {
				// srcset lists "url width" pairs; take the first URL.
				src = strings.Fields(strings.Split(v, ",")[0])[0]
			}
			break
		}
	}
	if src == "" || strings.HasSuffix(src, noPhotoSuffix) {
		return ""
	}
	return src
}

// cleanImageURL upgrades recognized thumbnail URLs to full size and strips
// the query string for canonical comparison and storage.
func cleanImageURL(src string) string {
	if strings.Contains(src, sourceHost) && strings.Contains(src, "small") {
		src = strings.ReplaceAll(src, "small", "big")
	}
	if i := strings.Index(src, "?"); i >= 0 {
		src = src[:i]
	}
	return src
}

// inferImageExt infers the artifact extension from the URL path, defaulting
// to .jpg when missing or unsupported.
func inferImageExt(imgURL string) string {
	u, err := url.Parse(imgURL)
	if err != nil {
		return defaultImageExt
	}
	if ext := strings.ToLower(path.Ext(u.Path)); imageExtensions[ext] {
		return ext
	}
	return defaultImageExt
}
