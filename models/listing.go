package models

// FuelType is the closed vocabulary for a listing's fuel field.
type FuelType string

const (
	FuelGasoline FuelType = "gasoline"
	FuelDiesel   FuelType = "diesel"
	FuelGas      FuelType = "gas"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
)

// Transmission is the closed vocabulary for a listing's gearbox field.
type Transmission string

const (
	TransmissionManual        Transmission = "manual"
	TransmissionAutomatic     Transmission = "automatic"
	TransmissionSemiAutomatic Transmission = "semi-automatic"
)

// BodyType is the closed vocabulary for a listing's body style.
type BodyType string

const (
	BodySedan     BodyType = "sedan"
	BodyEstate    BodyType = "estate"
	BodySUV       BodyType = "suv"
	BodyPickup    BodyType = "pickup"
	BodyHatchback BodyType = "hatchback"
	BodyLiftback  BodyType = "liftback"
	BodyCoupe     BodyType = "coupe"
	BodyFastback  BodyType = "fastback"
	BodyHardtop   BodyType = "hardtop"
)

// Condition is the closed vocabulary for a listing's technical condition.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionUsed    Condition = "used"
	ConditionDamaged Condition = "damaged"
)

// RawFields holds the values pulled off one detail page before vocabulary
// mapping. Enum-backed fields (fuel, transmission, body type, condition) keep
// the raw site-language text; numeric fields are already parsed with their
// per-field defaults applied.
type RawFields struct {
	Make        string
	Model       string
	Year        int
	Mileage     int
	Price       float64
	Description string

	FuelText         string
	TransmissionText string
	BodyTypeText     string
	ConditionText    string

	City    string
	Country string

	EngineSize  float64
	EnginePower int

	ImageURLs []string
	SourceURL string
}

// ListingDraft is the normalized, not-yet-persisted representation of one
// scraped vehicle. Every enum field is always a member of its closed
// vocabulary — never the raw scraped string.
type ListingDraft struct {
	Make        string
	Model       string
	Year        int
	Mileage     int
	VehicleType string

	Condition    Condition
	FuelType     FuelType
	Transmission Transmission
	BodyType     BodyType

	Country string
	City    string

	Price      float64
	Negotiable bool

	EngineSize  float64
	EnginePower int

	Description string
	ImageURLs   []string
	SourceURL   string
	Imported    bool
}

// ImageArtifact is one downloaded listing photo ready for storage.
type ImageArtifact struct {
	Data      []byte
	Ext       string
	IsPrimary bool
	SourceURL string
}
