package main

import (
	"context"
	"flag"
	"os"

	"autoria-importer/config"
	"autoria-importer/models"
	"autoria-importer/scraper/autoria"
	"autoria-importer/services"
	"autoria-importer/storage"
	"autoria-importer/utils"
	"autoria-importer/web"
)

func main() {
	cfg := config.Load()

	limit := flag.Int("limit", cfg.ImportLimit, "maximum number of listings to import")
	owner := flag.String("owner", cfg.OwnerUsername, "username the imported listings are attributed to")
	skipDup := flag.Bool("skip-duplicates", cfg.SkipDuplicates, "skip listings whose make/model/year/mileage already exist")
	serve := flag.Bool("serve", false, "start the admin HTTP server instead of running one import")
	scrapeCfgPath := flag.String("scrape-config", "configs/scraping.yaml", "path to the scraping profile")
	flag.Parse()

	logger := utils.NewLogger(cfg.Debug)
	logger.Info("=== Car listing importer starting ===")

	scrapeCfg, err := config.LoadScrapeConfig(*scrapeCfgPath)
	if err != nil {
		logger.Error("Failed to load scrape config: %v", err)
		os.Exit(1)
	}
	logger.Info("Config: limit=%d | owner=%s | concurrency=%d | retries=%d",
		*limit, *owner, cfg.MaxConcurrency, cfg.MaxRetries)

	store, err := storage.NewPostgresStore(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer store.Close()

	client := autoria.NewClient(scrapeCfg, logger)
	importer := services.NewImporter(cfg, scrapeCfg, client, store, logger)
	importer.SkipDuplicates = *skipDup

	if *serve {
		// Admin surface: POST /admin/import triggers runs on demand.
		srv := web.NewServer(cfg, importer, logger)
		if err := srv.ListenAndServe(); err != nil {
			logger.Error("Admin server failed: %v", err)
			os.Exit(1)
		}
		return
	}

	result := importer.Run(context.Background(), *limit, *owner)

	if err := writeReport(cfg.ReportPath, result); err != nil {
		logger.Error("Report write failed: %v", err)
	} else {
		logger.Info("Import report saved to %s", cfg.ReportPath)
	}

	summarySvc := services.NewSummaryService(logger)
	summarySvc.Print(summarySvc.Generate(result))

	if result.Imported == 0 {
		logger.Error("No listings were imported.")
		os.Exit(1)
	}
}

func writeReport(path string, result *models.ImportBatchResult) error {
	report, err := storage.NewReportWriter(path)
	if err != nil {
		return err
	}
	defer report.Close()

	return report.WriteResult(result)
}
