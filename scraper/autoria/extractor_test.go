package autoria

import (
	"math"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"autoria-importer/config"
	"autoria-importer/utils"
)

func newTestExtractor() *Extractor {
	return NewExtractor(config.DefaultScrapeConfig(), utils.NewLogger(false))
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestExtractNilWithoutTitle(t *testing.T) {
	e := newTestExtractor()
	doc := parseHTML(t, `<html><body><div class="price_value">15 000 $</div></body></html>`)

	if raw := e.Extract(doc, "https://auto.ria.com/uk/auto_x.html"); raw != nil {
		t.Errorf("expected nil for page without h1.head, got %+v", raw)
	}
}

func TestExtractTitleYearMakeModel(t *testing.T) {
	tests := []struct {
		title     string
		wantYear  int
		wantMake  string
		wantModel string
	}{
		{"Toyota RAV4 2019", 2019, "Toyota", "RAV4"},
		{"Mitsubishi Pajero Sport 2008", 2008, "Mitsubishi", "Pajero Sport"},
		{"Lada", defaultYear, "Lada", "Unknown"},
		{"", defaultYear, "Unknown", "Unknown"},
	}

	for _, tt := range tests {
		year, make, model := parseTitle(tt.title)
		if year != tt.wantYear || make != tt.wantMake || model != tt.wantModel {
			t.Errorf("parseTitle(%q) = (%d, %q, %q); want (%d, %q, %q)",
				tt.title, year, make, model, tt.wantYear, tt.wantMake, tt.wantModel)
		}
	}
}

func TestExtractMileage(t *testing.T) {
	e := newTestExtractor()

	doc := parseHTML(t, `<html><body><h1 class="head">Toyota RAV4 2019</h1>
		<span>120 тис. км</span></body></html>`)
	if got := e.extractMileage(doc); got != 120000 {
		t.Errorf("mileage: got %d, want 120000", got)
	}

	doc = parseHTML(t, `<html><body><h1 class="head">Toyota RAV4 2019</h1></body></html>`)
	if got := e.extractMileage(doc); got != 0 {
		t.Errorf("absent mileage: got %d, want 0", got)
	}

	doc = parseHTML(t, `<html><body><span>багато тис. км</span></body></html>`)
	if got := e.extractMileage(doc); got != 0 {
		t.Errorf("unparseable mileage: got %d, want 0", got)
	}
}

func TestExtractPriceCascade(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name string
		html string
		want float64
	}{
		{
			"usd with space separators",
			`<div class="price_value">15 000 $</div>`,
			15000,
		},
		{
			"eur with dot thousands",
			`<div class="price_value">12.500 €</div>`,
			12500 * 1.1,
		},
		{
			"second selector in cascade",
			`<strong class="bold green size22">9 999 $</strong>`,
			9999,
		},
		{
			"decimal comma",
			`<span class="price">1 200,50 $</span>`,
			1200.50,
		},
		{
			"fallback text scan",
			`<p>Ціна: 8 500 $</p>`,
			8500,
		},
		{
			"nothing found",
			`<div class="something-else">call us</div>`,
			0,
		},
	}

	for _, tt := range tests {
		doc := parseHTML(t, "<html><body>"+tt.html+"</body></html>")
		got := e.extractPrice(doc)
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("%s: got %.2f, want %.2f", tt.name, got, tt.want)
		}
	}
}

func TestExtractLabeledValues(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<h1 class="head">Toyota RAV4 2019</h1>
		<div class="technical-info">
			<span class="label">Двигун</span>
			<span class="argument">2.5 л (180 к.с.) бензин</span>
			<span class="label">Коробка передач</span>
			<span class="argument">Автомат</span>
			<span class="label">Тип кузова</span>
			<span class="argument">Позашляховик / Кросовер</span>
		</div>
	</body></html>`)

	if got := labelValue(doc, "Двигун"); got != "2.5 л (180 к.с.) бензин" {
		t.Errorf("engine label: got %q", got)
	}
	if got := labelValue(doc, "коробка передач"); got != "Автомат" {
		t.Errorf("transmission label: got %q", got)
	}
	if got := labelValue(doc, "Тип кузова"); got != "Позашляховик / Кросовер" {
		t.Errorf("body type label: got %q", got)
	}
	if got := labelValue(doc, "Відсутній"); got != "" {
		t.Errorf("missing label: got %q, want empty", got)
	}
}

func TestExtractFuelKeywordFallback(t *testing.T) {
	e := newTestExtractor()
	doc := parseHTML(t, `<html><body>
		<h1 class="head">VW Touareg 2015</h1>
		<div class="all-parameters">Повний привід, дизель, 3.0</div>
	</body></html>`)

	if got := e.extractFuelText(doc); got != "дизель" {
		t.Errorf("fuel fallback: got %q, want %q", got, "дизель")
	}
}

func TestExtractCondition(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<span class="label">Технічний стан</span>
		<span class="argument">Повністю непошкоджене</span>
	</body></html>`)

	if got := extractCondition(doc); got != "Повністю непошкоджене" {
		t.Errorf("condition: got %q", got)
	}

	doc = parseHTML(t, `<html><body><span class="label">Колір</span></body></html>`)
	if got := extractCondition(doc); got != "" {
		t.Errorf("missing condition: got %q, want empty", got)
	}
}

func TestExtractLocation(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<div class="item_region"><span class="region">Київ, Україна</span></div>
	</body></html>`)

	city, country := extractLocation(doc)
	if city != "Київ" || country != "Україна" {
		t.Errorf("location: got (%q, %q)", city, country)
	}

	doc = parseHTML(t, `<html><body></body></html>`)
	city, country = extractLocation(doc)
	if city != "Unknown" || country != "Ukraine" {
		t.Errorf("default location: got (%q, %q)", city, country)
	}
}

func TestParseEngineInfo(t *testing.T) {
	tests := []struct {
		info      string
		wantSize  float64
		wantPower int
	}{
		{"2.5 л (180 к.с.) бензин", 2.5, 180},
		{"3 л дизель", 3, 0},
		{"електро 136 к.с.", 0, 136},
		{"", 0, 0},
	}

	for _, tt := range tests {
		size, power := parseEngineInfo(tt.info)
		if size != tt.wantSize || power != tt.wantPower {
			t.Errorf("parseEngineInfo(%q) = (%.1f, %d); want (%.1f, %d)",
				tt.info, size, power, tt.wantSize, tt.wantPower)
		}
	}
}

func TestExtractFullPage(t *testing.T) {
	e := newTestExtractor()
	doc := parseHTML(t, `<html><body>
		<h1 class="head">Toyota RAV4 2019</h1>
		<span>49 тис. км</span>
		<dd class="additional-data show-line">Гарний стан, один власник.</dd>
		<div class="technical-info">
			<span class="label">Двигун</span>
			<span class="argument">2.5 л (180 к.с.) бензин</span>
			<span class="label">Коробка передач</span>
			<span class="argument">Автомат</span>
		</div>
		<div class="price_value">21 500 $</div>
		<div class="item_region"><span class="region">Львів, Україна</span></div>
		<div class="gallery-order">
			<img class="outline" src="https://cdn.auto.ria.com/photos/auto_toyota_1small.jpg?v=2">
		</div>
	</body></html>`)

	raw := e.Extract(doc, "https://auto.ria.com/uk/auto_toyota_rav4.html")
	if raw == nil {
		t.Fatal("expected raw fields, got nil")
	}

	if raw.Make != "Toyota" || raw.Model != "RAV4" || raw.Year != 2019 {
		t.Errorf("title fields: got %q %q %d", raw.Make, raw.Model, raw.Year)
	}
	if raw.Mileage != 49000 {
		t.Errorf("mileage: got %d, want 49000", raw.Mileage)
	}
	if raw.Description != "Гарний стан, один власник." {
		t.Errorf("description: got %q", raw.Description)
	}
	if raw.FuelText != "2.5 л (180 к.с.) бензин" {
		t.Errorf("fuel text: got %q", raw.FuelText)
	}
	if raw.TransmissionText != "Автомат" {
		t.Errorf("transmission text: got %q", raw.TransmissionText)
	}
	if raw.Price != 21500 {
		t.Errorf("price: got %.2f, want 21500", raw.Price)
	}
	if raw.City != "Львів" || raw.Country != "Україна" {
		t.Errorf("location: got (%q, %q)", raw.City, raw.Country)
	}
	if raw.EngineSize != 2.5 || raw.EnginePower != 180 {
		t.Errorf("engine: got (%.1f, %d)", raw.EngineSize, raw.EnginePower)
	}
	if len(raw.ImageURLs) != 1 {
		t.Fatalf("images: got %d, want 1", len(raw.ImageURLs))
	}
	if raw.ImageURLs[0] != "https://cdn.auto.ria.com/photos/auto_toyota_1big.jpg" {
		t.Errorf("image url: got %q", raw.ImageURLs[0])
	}
	if raw.SourceURL != "https://auto.ria.com/uk/auto_toyota_rav4.html" {
		t.Errorf("source url: got %q", raw.SourceURL)
	}
}
