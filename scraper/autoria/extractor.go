package autoria

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autoria-importer/config"
	"autoria-importer/models"
	"autoria-importer/utils"
)

const (
	defaultYear    = 2020
	defaultCountry = "Ukraine"
	unknownValue   = "Unknown"

	// mileageMarker is the thousand-km unit the site prints next to mileage.
	mileageMarker = "тис. км"
)

var (
	yearRe        = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	numericRunRe  = regexp.MustCompile(`[\d\s\x{00a0},.]+`)
	engineSizeRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*л`)
	enginePowerRe = regexp.MustCompile(`(\d+)\s*к\.с\.`)
	thousandsRe   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

// priceSelectors is the ordered cascade tried for the price element.
var priceSelectors = []string{
	"div.price_value",
	"strong.bold.green.size22",
	"span.price",
	"div.price-seller",
	"div.price-value",
}

// fuelLabel is the primary technical-spec label for engine info; the
// alternates cover older markup revisions of the site.
const fuelLabel = "Двигун"

var fuelAltLabels = []string{"Паливо", "Тип палива", "Тип двигуна", "Топливо"}

// fuelKeywords are scanned, in order, across technical-info containers when
// no labeled block names the fuel.
var fuelKeywords = []string{"бензин", "дизель", "газ", "електро", "электро", "гібрид", "гибрид"}

// Extractor pulls raw field values out of one parsed detail page. The
// selector strategies are layered: a labeled technical-spec block first,
// alternate label markup second, and free-text keyword scans last.
type Extractor struct {
	cfg    *config.ScrapeConfig
	logger *utils.Logger
}

// NewExtractor creates an Extractor with the given scrape profile.
func NewExtractor(cfg *config.ScrapeConfig, logger *utils.Logger) *Extractor {
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract returns the raw fields of one detail page, or nil when the page
// lacks the mandatory title element (listing removed or page invalid).
func (e *Extractor) Extract(doc *goquery.Document, sourceURL string) *models.RawFields {
	title := doc.Find("h1.head").First()
	if title.Length() == 0 {
		e.logger.Warn("[extractor] No title element on %s — skipping", sourceURL)
		return nil
	}
	titleText := strings.TrimSpace(title.Text())

	raw := &models.RawFields{SourceURL: sourceURL}
	raw.Year, raw.Make, raw.Model = parseTitle(titleText)
	if raw.Make == unknownValue || raw.Model == unknownValue {
		e.logger.Debug("[extractor] Incomplete make/model in title %q", titleText)
	}

	raw.Mileage = e.extractMileage(doc)
	raw.Description = extractDescription(doc)
	raw.FuelText = e.extractFuelText(doc)
	raw.TransmissionText = labelValue(doc, "коробка передач")
	raw.BodyTypeText = labelValue(doc, "Тип кузова")
	raw.ConditionText = extractCondition(doc)
	raw.Price = e.extractPrice(doc)
	raw.City, raw.Country = extractLocation(doc)

	engineInfo := labelValue(doc, fuelLabel)
	raw.EngineSize, raw.EnginePower = parseEngineInfo(engineInfo)

	raw.ImageURLs = e.ExtractImages(doc, e.cfg.ImagesPerListing)

	return raw
}

// parseTitle splits a listing title into year, make and model. The year is
// the first 4-digit token in 1900–2099; the first remaining token is the
// make and the rest the model.
func parseTitle(titleText string) (int, string, string) {
	year := defaultYear
	yearToken := yearRe.FindString(titleText)
	if yearToken != "" {
		if y, err := strconv.Atoi(yearToken); err == nil {
			year = y
		}
	}

	rest := titleText
	if yearToken != "" {
		rest = strings.Replace(rest, yearToken, "", 1)
	}
	parts := strings.Fields(rest)

	make, model := unknownValue, unknownValue
	if len(parts) >= 1 {
		make = parts[0]
	}
	if len(parts) > 1 {
		model = strings.Join(parts[1:], " ")
	}
	return year, make, model
}

// labelValue finds a labeled technical-spec value. The primary strategy is
// the technical-info block's label/argument span pair; alternates cover the
// td-based and car-characteristics markup variants.
func labelValue(doc *goquery.Document, label string) string {
	want := strings.ToLower(label)

	value := ""
	doc.Find("div.technical-info span.label").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(strings.TrimSpace(s.Text())), want) {
			return true
		}
		arg := s.NextAllFiltered("span.argument").First()
		if arg.Length() > 0 {
			value = strings.TrimSpace(arg.Text())
			return false
		}
		return true
	})
	if value != "" {
		return value
	}

	for _, selector := range []string{"span.label", "td.label", "div.car-characteristics span.label"} {
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !strings.Contains(strings.ToLower(strings.TrimSpace(s.Text())), want) {
				return true
			}
			next := s.NextAllFiltered("span, td, div").First()
			if next.Length() > 0 {
				value = strings.TrimSpace(next.Text())
				return false
			}
			return true
		})
		if value != "" {
			return value
		}
	}
	return ""
}

// extractMileage looks for a leaf text node carrying the thousand-km marker
// and scales the leading number to kilometres. Missing or unparseable
// mileage defaults to 0.
func (e *Extractor) extractMileage(doc *goquery.Document) int {
	mileage := 0
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 {
			return true
		}
		text := strings.TrimSpace(s.Text())
		if !strings.Contains(text, mileageMarker) {
			return true
		}

		numText := strings.TrimSpace(strings.ReplaceAll(text, mileageMarker, ""))
		numText = strings.ReplaceAll(numText, ",", ".")
		if v, err := strconv.ParseFloat(numText, 64); err == nil {
			mileage = int(v * 1000)
		}
		return false
	})
	return mileage
}

func extractDescription(doc *goquery.Document) string {
	if desc := doc.Find("dd.additional-data.show-line").First(); desc.Length() > 0 {
		return strings.TrimSpace(desc.Text())
	}
	if desc := doc.Find("div.additional-data").First(); desc.Length() > 0 {
		return strings.TrimSpace(desc.Text())
	}
	return ""
}

// extractFuelText resolves the raw fuel description: labeled engine block
// first, alternate labels second, then a keyword scan over the technical
// containers. Empty string means the normalizer should use its default.
func (e *Extractor) extractFuelText(doc *goquery.Document) string {
	if v := labelValue(doc, fuelLabel); v != "" {
		return v
	}
	for _, label := range fuelAltLabels {
		if v := labelValue(doc, label); v != "" {
			return v
		}
	}

	found := ""
	doc.Find("div.car-characteristics, div.technical-info, div.all-parameters").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(s.Text())
		for _, kw := range fuelKeywords {
			if strings.Contains(text, kw) {
				found = kw
				return false
			}
		}
		return true
	})
	return found
}

// extractCondition locates the technical-condition label by case-insensitive
// text match and reads its adjacent value node.
func extractCondition(doc *goquery.Document) string {
	value := ""
	doc.Find("span.label").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(s.Text()), "технічний стан") {
			return true
		}
		arg := s.NextAllFiltered("span.argument").First()
		if arg.Length() == 0 {
			arg = s.Parent().Find("span.argument").First()
		}
		if arg.Length() > 0 {
			value = strings.TrimSpace(arg.Text())
		}
		return false
	})
	return value
}

// extractPrice tries the price selector cascade and falls back to scanning
// all text nodes for a currency marker. €-marked prices are converted to USD
// with the configured factor. Returns 0 when nothing parseable is found; the
// normalizer applies the documented sentinel downstream.
func (e *Extractor) extractPrice(doc *goquery.Document) float64 {
	for _, selector := range priceSelectors {
		tag := doc.Find(selector).First()
		if tag.Length() == 0 {
			continue
		}
		if price, ok := e.parsePriceText(tag.Text()); ok {
			return price
		}
	}

	price := 0.0
	doc.Find("span, div, strong, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !strings.Contains(text, "$") && !strings.Contains(text, "€") && !strings.Contains(text, "грн") {
			return true
		}
		if v, ok := e.parsePriceText(text); ok {
			price = v
			return false
		}
		return true
	})
	return price
}

// parsePriceText extracts the leading numeric run of a price string,
// stripping thousands separators and converting a decimal comma to a point.
func (e *Extractor) parsePriceText(text string) (float64, bool) {
	run := strings.TrimSpace(numericRunRe.FindString(text))
	if run == "" {
		return 0, false
	}

	s := strings.NewReplacer(" ", "", " ", "").Replace(run)
	if strings.Contains(s, ",") {
		// Comma is the decimal separator; any dots are thousands groups.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if thousandsRe.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}

	price, err := strconv.ParseFloat(s, 64)
	if err != nil || price <= 0 {
		return 0, false
	}

	if strings.Contains(text, "€") {
		price *= e.cfg.EURToUSD
	}
	return price, true
}

// extractLocation reads the "city, country" region element. Defaults: city
// "Unknown", country the site's home country.
func extractLocation(doc *goquery.Document) (string, string) {
	city, country := unknownValue, defaultCountry

	tag := doc.Find("div.item_region span.region").First()
	if tag.Length() == 0 {
		return city, country
	}
	location := strings.TrimSpace(tag.Text())
	if location == "" {
		return city, country
	}

	parts := strings.Split(location, ",")
	city = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		country = strings.TrimSpace(parts[len(parts)-1])
	}
	return city, country
}

// parseEngineInfo pulls displacement (liters marker) and power (horsepower
// marker) out of the engine-info text. Both default to 0.
func parseEngineInfo(engineInfo string) (float64, int) {
	size := 0.0
	power := 0
	if engineInfo == "" {
		return size, power
	}

	if m := engineSizeRe.FindStringSubmatch(engineInfo); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			size = v
		}
	}
	if m := enginePowerRe.FindStringSubmatch(engineInfo); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			power = v
		}
	}
	return size, power
}
