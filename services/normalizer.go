package services

import (
	"strings"

	"autoria-importer/models"
)

// fallbackPrice is the sentinel applied when no price could be extracted,
// so no listing ever carries a zero or negative price downstream.
const fallbackPrice = 1000.0

// importVehicleType reflects the SUV filter baked into the search URL.
const importVehicleType = "SUV"

// vocabRule maps site-language keywords to one closed-vocabulary member.
// Matching is case-insensitive substring, first rule wins.
type vocabRule[T ~string] struct {
	keywords []string
	value    T
}

var fuelRules = []vocabRule[models.FuelType]{
	{[]string{"дизель", "диз"}, models.FuelDiesel},
	{[]string{"електро", "электро"}, models.FuelElectric},
	{[]string{"гібрид", "гибрид"}, models.FuelHybrid},
	{[]string{"газ", "метан", "пропан"}, models.FuelGas},
	{[]string{"бензин"}, models.FuelGasoline},
}

var transmissionRules = []vocabRule[models.Transmission]{
	{[]string{"автомат"}, models.TransmissionAutomatic},
	{[]string{"роботизована", "типтроник"}, models.TransmissionSemiAutomatic},
}

var bodyTypeRules = []vocabRule[models.BodyType]{
	{[]string{"седан"}, models.BodySedan},
	{[]string{"універсал"}, models.BodyEstate},
	{[]string{"хетчбек"}, models.BodyHatchback},
	{[]string{"купе"}, models.BodyCoupe},
	{[]string{"ліфтбек"}, models.BodyLiftback},
}

var conditionRules = []vocabRule[models.Condition]{
	{[]string{"нова"}, models.ConditionNew},
	{[]string{"пошкодж"}, models.ConditionDamaged},
}

// Normalizer maps raw scraped fields into a valid listing draft. It is pure
// and total: every input produces a draft whose enum fields are members of
// their closed vocabularies.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize converts raw fields into a listing draft, applying the
// documented defaults for unrecognized or missing values: fuel "gasoline",
// transmission "manual", body type "suv" (the scrape is SUV-filtered),
// condition "used", price sentinel when nothing was extracted.
func (n *Normalizer) Normalize(raw *models.RawFields) *models.ListingDraft {
	price := raw.Price
	if price <= 0 {
		price = fallbackPrice
	}

	return &models.ListingDraft{
		Make:        raw.Make,
		Model:       raw.Model,
		Year:        raw.Year,
		Mileage:     raw.Mileage,
		VehicleType: importVehicleType,

		Condition:    matchVocab(raw.ConditionText, conditionRules, models.ConditionUsed),
		FuelType:     matchVocab(raw.FuelText, fuelRules, models.FuelGasoline),
		Transmission: matchVocab(raw.TransmissionText, transmissionRules, models.TransmissionManual),
		BodyType:     matchVocab(raw.BodyTypeText, bodyTypeRules, models.BodySUV),

		Country: raw.Country,
		City:    raw.City,

		Price:      price,
		Negotiable: true,

		EngineSize:  raw.EngineSize,
		EnginePower: raw.EnginePower,

		Description: raw.Description,
		ImageURLs:   raw.ImageURLs,
		SourceURL:   raw.SourceURL,
		Imported:    true,
	}
}

func matchVocab[T ~string](text string, rules []vocabRule[T], fallback T) T {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.value
			}
		}
	}
	return fallback
}
