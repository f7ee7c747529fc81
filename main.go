// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/airtable"
	"github.com/hakanhakan/TelekomExpport2/config"
	"github.com/hakanhakan/TelekomExpport2/database"
	"github.com/hakanhakan/TelekomExpport2/handlers"
	"github.com/hakanhakan/TelekomExpport2/logger"
	"github.com/hakanhakan/TelekomExpport2/models"
	"github.com/hakanhakan/TelekomExpport2/scraper"
	"github.com/hakanhakan/TelekomExpport2/services"
)

var (
	configPath string
	verbose    bool
)

// app holds what every subcommand needs.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	db         *database.DB
	properties *database.PropertyStore
	buildings  *database.BuildingStore
	runs       *database.SyncRunStore
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	log, err := logger.New(verbose || cfg.Logging.Debug)
	if err != nil {
		return nil, fmt.Errorf("error creating logger: %w", err)
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	if err := db.EnsureSchema(ctx, log); err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		properties: database.NewPropertyStore(db, log),
		buildings:  database.NewBuildingStore(db, log),
		runs:       database.NewSyncRunStore(db, log),
	}, nil
}

func (a *app) close() {
	a.db.Close()
	a.log.Sync()
}

// unconfiguredSink stands in for Airtable when no credentials are set, so
// dry runs and reports still work.
type unconfiguredSink struct{}

func (unconfiguredSink) UpdateRecords(context.Context, []models.RecordUpdate) error {
	return errors.New("airtable is not configured")
}

func (a *app) updater() services.RecordUpdater {
	client, err := airtable.NewClient(a.cfg.Airtable, a.log)
	if err != nil {
		a.log.Warn("Airtable: client unavailable, updates will fail", zap.Error(err))
		return unconfiguredSink{}
	}
	return client
}

func (a *app) reconciler(updater services.RecordUpdater) *services.Reconciler {
	syncSvc := services.NewSyncService(services.NewFieldDiffer(a.log), updater, a.runs, a.log)
	return services.NewReconciler(a.properties, a.buildings, syncSvc, a.log)
}

// run wraps a subcommand body with setup, teardown and signal handling.
func run(body func(ctx context.Context, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return body(ctx, a)
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "telekom-sync",
		Short:         "Property extraction store and Airtable reconciliation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		createServeCmd(),
		createIngestCmd(),
		createSyncCmd(),
		createReportCmd(),
		createRefreshBuildingsCmd(),
		createMissingCmd(),
		createRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func createServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the admin HTTP API",
		RunE: run(func(ctx context.Context, a *app) error {
			api := handlers.NewAPI(a.db, a.reconciler(a.updater()), a.properties, a.runs, services.SyncOptions{
				BatchSize:  a.cfg.Sync.BatchSize,
				MaxRecords: a.cfg.Sync.MaxRecords,
			}, a.log)

			srv := &http.Server{
				Addr:         ":" + a.cfg.Server.Port,
				Handler:      handlers.NewRouter(api),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 10 * time.Minute, // a full sync answers synchronously
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("Server: listening", zap.String("addr", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error starting server: %w", err)
				}
				return nil
			case <-ctx.Done():
				a.log.Info("Server: shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		}),
	}
}

func createIngestCmd() *cobra.Command {
	var csvPath, searchPath, detailDir string
	var workers int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Store extracted properties, fetching exploration protocols when they changed",
		RunE: run(func(ctx context.Context, a *app) error {
			var items []scraper.ExtractedProperty
			switch {
			case csvPath != "":
				f, err := os.Open(csvPath)
				if err != nil {
					return fmt.Errorf("failed to open extraction CSV: %w", err)
				}
				defer f.Close()
				if items, err = scraper.ParseExtractionCSV(f); err != nil {
					return err
				}
			case searchPath != "":
				var err error
				if items, err = scraper.LoadSavedPages(searchPath, detailDir, a.log); err != nil {
					return err
				}
			default:
				return errors.New("either --csv or --search is required")
			}

			if workers <= 0 {
				workers = a.cfg.Ingest.Workers
			}
			downloader := scraper.NewProtocolDownloader(a.cfg.Ingest, a.log)
			svc := services.NewIngestService(a.properties, services.NewExplorationGate(a.log), downloader.Download, workers, a.log)

			stats, err := svc.Ingest(ctx, items)
			fmt.Printf("Processed %d: %d inserted, %d changed, %d unchanged, %d failed (protocols: %d reused, %d new)\n",
				stats.Processed, stats.Inserted, stats.Changed, stats.Unchanged, stats.Failed, stats.ProtocolsReused, stats.ProtocolsNew)
			return err
		}),
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "extraction CSV export")
	cmd.Flags().StringVar(&searchPath, "search", "", "saved search result page")
	cmd.Flags().StringVar(&detailDir, "details", ".", "directory of saved detail pages named <fol_id>.html")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (default from config)")
	return cmd
}

func writeReport(ctx context.Context, a *app) error {
	report, err := a.reconciler(unconfiguredSink{}).Report(ctx)
	if err != nil {
		return err
	}
	if err := report.WriteFile(a.cfg.Sync.ReportPath); err != nil {
		return err
	}
	fmt.Printf("%d records with differences, report written to %s\n", len(report.Records), a.cfg.Sync.ReportPath)
	return nil
}

func createSyncCmd() *cobra.Command {
	var reportOnly, dryRun bool
	var batchSize, maxRecords int

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push local property changes to Airtable",
		RunE: run(func(ctx context.Context, a *app) error {
			if err := writeReport(ctx, a); err != nil {
				return err
			}
			if reportOnly {
				return nil
			}
			opts := services.SyncOptions{BatchSize: a.cfg.Sync.BatchSize, MaxRecords: a.cfg.Sync.MaxRecords, DryRun: dryRun}
			if batchSize > 0 {
				opts.BatchSize = batchSize
			}
			if maxRecords > 0 {
				opts.MaxRecords = maxRecords
			}

			stats, err := a.reconciler(a.updater()).Sync(ctx, opts)
			fmt.Printf("Matched %d, updated %d, unchanged %d, errors %d, batches %d\n",
				stats.Matched, stats.Updated, stats.Unchanged, stats.Errors, stats.Batches)
			return err
		}),
	}
	cmd.Flags().BoolVar(&reportOnly, "report-only", false, "only write the diff report, do not update Airtable")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and count changes without pushing them")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "records per update batch (default from config)")
	cmd.Flags().IntVar(&maxRecords, "max-records", 0, "stop after this many changed records")
	return cmd
}

func createReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Write the diff report between local data and the building snapshot",
		RunE:  run(writeReport),
	}
}

func createRefreshBuildingsCmd() *cobra.Command {
	var area string
	cmd := &cobra.Command{
		Use:   "refresh-buildings",
		Short: "Reload the building snapshot of an area from Airtable",
		RunE: run(func(ctx context.Context, a *app) error {
			client, err := airtable.NewClient(a.cfg.Airtable, a.log)
			if err != nil {
				return err
			}
			saved, err := services.NewBuildingRefresher(client, a.buildings, a.log).Refresh(ctx, area)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %d buildings for area %s\n", saved, area)
			return nil
		}),
	}
	cmd.Flags().StringVar(&area, "area", "", "area name in Airtable")
	cmd.MarkFlagRequired("area")
	return cmd
}

func createMissingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "missing",
		Short: "List buildings with owner data but no extracted property",
		RunE: run(func(ctx context.Context, a *app) error {
			missing, err := services.NewMissingRecordChecker(a.buildings, a.log).Check(ctx)
			if err != nil {
				return err
			}
			if len(missing) == 0 {
				fmt.Println("No missing records.")
				return nil
			}
			return services.WriteMissingTable(os.Stdout, missing)
		}),
	}
}

func createRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent sync runs",
		RunE: run(func(ctx context.Context, a *app) error {
			runs, err := a.runs.ListSyncRuns(ctx, limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				mode := "live"
				if r.DryRun {
					mode = "dry-run"
				}
				fmt.Printf("%s  %s  %-7s  matched=%d updated=%d unchanged=%d errors=%d batches=%d\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.RunID, mode,
					r.Matched, r.Updated, r.Unchanged, r.Errors, r.Batches)
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
