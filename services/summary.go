package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"autoria-importer/models"
	"autoria-importer/utils"
)

// BatchSummary holds the computed statistics over one import run.
type BatchSummary struct {
	Attempted    int
	Imported     int
	Failed       int
	AveragePrice float64
	MinPrice     float64
	MaxPrice     float64
	ByFuelType   map[models.FuelType]int
	ByMake       map[string]int
}

// SummaryService computes and prints post-run import statistics.
type SummaryService struct {
	logger *utils.Logger
}

// NewSummaryService creates a SummaryService with the given logger.
func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

// Generate computes the summary of a finished batch.
func (s *SummaryService) Generate(result *models.ImportBatchResult) *BatchSummary {
	summary := &BatchSummary{
		Attempted:  result.Attempted,
		Imported:   result.Imported,
		Failed:     result.Failed(),
		ByFuelType: make(map[models.FuelType]int),
		ByMake:     make(map[string]int),
	}

	if len(result.Drafts) == 0 {
		return summary
	}

	summary.MinPrice = result.Drafts[0].Price
	summary.MaxPrice = result.Drafts[0].Price
	var total float64

	for _, d := range result.Drafts {
		total += d.Price
		if d.Price < summary.MinPrice {
			summary.MinPrice = d.Price
		}
		if d.Price > summary.MaxPrice {
			summary.MaxPrice = d.Price
		}
		summary.ByFuelType[d.FuelType]++
		summary.ByMake[d.Make]++
	}

	summary.AveragePrice = round2(total / float64(len(result.Drafts)))
	summary.MinPrice = round2(summary.MinPrice)
	summary.MaxPrice = round2(summary.MaxPrice)
	return summary
}

// Print writes a human-readable summary to stdout.
func (s *SummaryService) Print(summary *BatchSummary) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("  IMPORT SUMMARY")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("  Attempted: %d | Imported: %d | Failed: %d\n",
		summary.Attempted, summary.Imported, summary.Failed)

	if summary.Imported > 0 {
		fmt.Printf("  Price (USD): avg %.2f | min %.2f | max %.2f\n",
			summary.AveragePrice, summary.MinPrice, summary.MaxPrice)

		fmt.Println("  By fuel type:")
		for _, fuel := range sortedFuelKeys(summary.ByFuelType) {
			fmt.Printf("    %-10s %d\n", fuel, summary.ByFuelType[fuel])
		}

		fmt.Println("  By make:")
		for _, make := range sortedMakeKeys(summary.ByMake) {
			fmt.Printf("    %-15s %d\n", make, summary.ByMake[make])
		}
	}
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()
}

func sortedFuelKeys(m map[models.FuelType]int) []models.FuelType {
	keys := make([]models.FuelType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return m[keys[i]] > m[keys[j]] })
	return keys
}

func sortedMakeKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return m[keys[i]] > m[keys[j]] })
	return keys
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
