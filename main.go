package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"utility-bench/internal/billing/csvfile"
	"utility-bench/internal/config"
	"utility-bench/internal/dedupe"
	"utility-bench/internal/interfaces/export"
	"utility-bench/internal/masterdata/excel"
	"utility-bench/internal/observability/metrics"
	"utility-bench/internal/pipeline"
	"utility-bench/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "settings.yaml", "path to the settings file")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}

	metrics.Init(logger)
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Printf("metrics server stopped: %v", err)
			}
		}()
		logger.Printf("serving metrics on %s", cfg.MetricsAddr)
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Fatalf("benchmark run failed: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	started := time.Now()

	records, issues, err := csvfile.ReadFile(cfg.UtilityBillFile)
	if err != nil {
		return fmt.Errorf("reading bill file: %w", err)
	}
	for _, issue := range issues {
		logger.Printf("bill file line %d: %s", issue.Line, issue.Detail)
	}
	logger.Printf("loaded %d bill records from %s", len(records), cfg.UtilityBillFile)
	metrics.AddRecordsLoaded(len(records))

	workbook, err := excel.ReadFile(cfg.OtherDataFile)
	if err != nil {
		return fmt.Errorf("reading other data workbook: %w", err)
	}
	logger.Printf("loaded %d sites, %d service categories from %s",
		workbook.Sites.Len(), workbook.Categories.Len(), cfg.OtherDataFile)

	strategy, err := dedupe.NewLabelPrecedence(cfg.CanonicalLabels, dedupe.Policy(cfg.DuplicatePolicy))
	if err != nil {
		return fmt.Errorf("duplicate policy: %w", err)
	}

	runner, err := pipeline.NewRunner(workbook.Categories, workbook.Sites, workbook.DegreeDays, pipeline.Options{
		Strategy:         strategy,
		MinPeerGroupSize: cfg.MinPeerGroupSize,
		MaxSites:         cfg.MaxSites,
		Workers:          cfg.Workers,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	result, err := runner.Run(ctx, records)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}
	recordRunMetrics(result)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	workbookBytes, err := export.BuildBenchmarkWorkbook(result)
	if err != nil {
		return fmt.Errorf("building workbook: %w", err)
	}
	workbookPath := filepath.Join(cfg.OutputDir, "benchmark.xlsx")
	if err := os.WriteFile(workbookPath, workbookBytes, 0o644); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	logger.Printf("wrote %s", workbookPath)

	if err := writeSiteReports(cfg.OutputDir, workbook, result, logger); err != nil {
		return err
	}

	if cfg.DatabaseURL != "" {
		if err := persistResults(ctx, cfg.DatabaseURL, result); err != nil {
			return fmt.Errorf("persisting results: %w", err)
		}
		logger.Printf("persisted %d aggregates and %d rank rows", len(result.Aggregates), len(result.Ranks))
	}

	logSummary(logger, result)
	metrics.ObserveRunDuration(time.Since(started).Seconds())
	logger.Printf("run finished in %s", time.Since(started).Round(time.Millisecond))
	return nil
}

func writeSiteReports(outputDir string, workbook *excel.Workbook, result *pipeline.Result, logger *log.Logger) error {
	reportDir := filepath.Join(outputDir, "sites")
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return fmt.Errorf("creating site report dir: %w", err)
	}

	written := 0
	for _, siteID := range siteIDsWithMetrics(result) {
		site, ok := workbook.Sites.Get(siteID)
		if !ok {
			continue
		}
		pdf, err := export.BuildSiteReportPDF(site, result.Metrics, result.Ranks, result.Spreads)
		if err != nil {
			return fmt.Errorf("building report for %s: %w", siteID, err)
		}
		path := filepath.Join(reportDir, siteID+".pdf")
		if err := os.WriteFile(path, pdf, 0o644); err != nil {
			return fmt.Errorf("writing report for %s: %w", siteID, err)
		}
		written++
	}
	logger.Printf("wrote %d site reports to %s", written, reportDir)
	return nil
}

func siteIDsWithMetrics(result *pipeline.Result) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range result.Metrics {
		if !seen[m.SiteID] {
			seen[m.SiteID] = true
			ids = append(ids, m.SiteID)
		}
	}
	return ids
}

func persistResults(ctx context.Context, databaseURL string, result *pipeline.Result) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	repo, err := postgres.NewRepository(db)
	if err != nil {
		return err
	}
	if err := repo.SaveMonthlyAggregates(ctx, result.Aggregates); err != nil {
		return err
	}
	return repo.SaveRankResults(ctx, result.Ranks)
}

func recordRunMetrics(result *pipeline.Result) {
	metrics.AddSitesProcessed(result.Summary.SitesProcessed)
	metrics.AddDuplicatesCollapsed(result.Summary.DuplicatesCollapsed)
	metrics.AddDuplicateWarnings(len(result.Summary.DuplicateWarnings))
	metrics.AddDegreeDayMissing(len(result.Summary.DegreeDayWarnings))
	for _, skipped := range result.Summary.SkippedRecords {
		metrics.IncSkipped(string(skipped.Reason))
	}
	for range result.Summary.MappingErrors {
		metrics.IncSkipped(string(pipeline.SkipMappingError))
	}
}

func logSummary(logger *log.Logger, result *pipeline.Result) {
	s := result.Summary
	logger.Printf("summary: %d records, %d sites processed, %d sites skipped",
		s.RecordsLoaded, s.SitesProcessed, s.SitesSkipped)
	if len(s.MappingErrors) > 0 {
		logger.Printf("summary: %d unmapped service/unit combinations", len(s.MappingErrors))
		for _, me := range s.MappingErrors {
			logger.Printf("  unmapped: site %s service %q units %q", me.SiteID, me.ServiceName, me.Units)
		}
	}
	if len(s.SkippedRecords) > 0 {
		logger.Printf("summary: %d records skipped", len(s.SkippedRecords))
	}
	if len(s.DuplicateWarnings) > 0 {
		logger.Printf("summary: %d duplicate-charge warnings (%d rows collapsed)",
			len(s.DuplicateWarnings), s.DuplicatesCollapsed)
	}
	if len(s.DegreeDayWarnings) > 0 {
		logger.Printf("summary: %d months missing degree-day data", len(s.DegreeDayWarnings))
	}
	for _, u := range s.UnrankedSites {
		logger.Printf("summary: site %s FY%d unranked: peer group %q has %d members",
			u.SiteID, u.FiscalYear, u.PeerGroupKey, u.GroupSize)
	}
	if s.Clean() {
		logger.Printf("summary: clean run, no data quality issues")
	}
}
