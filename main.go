package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"checkeasy-report/config"
	"checkeasy-report/dispatch"
	"checkeasy-report/models"
	"checkeasy-report/render"
	"checkeasy-report/server"
	"checkeasy-report/services"
	"checkeasy-report/sources"
	"checkeasy-report/storage"
	"checkeasy-report/utils"
)

var (
	logLevel     string
	writeCSV     bool
	writePDF     bool
	historyLimit int

	cfg    *config.Config
	logger *utils.Logger
)

var rootCmd = &cobra.Command{
	Use:           "checkeasy-report",
	Short:         "Load, reconcile and serve property inspection reports",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
			cfg.LogLevel = logLevel
		}
		logger = utils.NewLogger(cfg.LogLevel)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var showCmd = &cobra.Command{
	Use:   "show <page-url>",
	Short: "Load one report and print its summary",
	Long: `Load one report (fetch, fuse, map) and print a terminal summary.

The argument is the page URL carrying ?rapport=<id>[&version=test|live],
or a bare report id.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var exportCmd = &cobra.Command{
	Use:   "export <page-url>",
	Short: "Load one report and write its CSV and PDF exports",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve mapped reports and page actions over HTTP",
	RunE:  runServe,
}

var historyCmd = &cobra.Command{
	Use:   "history <report-id>",
	Short: "List the archived loads of a report",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	showCmd.Flags().BoolVar(&writeCSV, "csv", false, "Also write the CSV export")
	showCmd.Flags().BoolVar(&writePDF, "pdf", false, "Also print the report to PDF")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of loads to list")

	rootCmd.AddCommand(showCmd, exportCmd, serveCmd, historyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger != nil {
			logger.Error("%v", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func retryConfig() *utils.RetryConfig {
	return &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: time.Second, Logger: logger}
}

// openArchive connects the load archive when enabled. Connection failures
// only disable archiving.
func openArchive(ctx context.Context) (*storage.PostgresWriter, error) {
	if !cfg.ArchiveEnabled {
		return nil, nil
	}
	pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), retryConfig())
	if err != nil {
		return nil, err
	}
	logger.Info("[main] Archiving loads to PostgreSQL (%s/%s)", cfg.PostgresHost, cfg.PostgresDB)
	return pg, nil
}

func newLoader(c *config.Config, observer services.LoadObserver, pg *storage.PostgresWriter) *services.Loader {
	// Typed nils must not reach the loader's interfaces.
	var archive storage.LoadArchiver
	if pg != nil {
		archive = pg
	}
	return services.NewLoader(services.NewClients(c, logger), observer, archive, logger)
}

// loadOnce parses the page URL and runs one load cycle.
func loadOnce(ctx context.Context, pageURL string) (*models.MappedRapport, func(), error) {
	params, err := config.ParsePageURL(pageURL)
	if err != nil {
		return nil, nil, err
	}
	c := cfg.WithVersion(params.Version)

	pg, err := openArchive(ctx)
	if err != nil {
		logger.Warn("[main] Load archive disabled: %v", err)
	}
	cleanup := func() {
		if pg != nil {
			_ = pg.Close()
		}
	}

	logger.Info("[main] Loading report %s (API version %s)", params.ReportID, c.Version)
	fused, err := newLoader(c, nil, pg).Load(ctx, params.ReportID)
	if err != nil {
		cleanup()
		if services.IsFatal(err) {
			return nil, nil, fmt.Errorf("%w (run the command again to retry)", err)
		}
		return nil, nil, err
	}
	return services.MapRapport(fused), cleanup, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	mapped, cleanup, err := loadOnce(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	insights := services.NewInsightService(logger)
	insights.Print(cmd.OutOrStdout(), insights.Generate(mapped))

	if writeCSV {
		if err := exportCSV(mapped); err != nil {
			return err
		}
	}
	if writePDF {
		if err := render.NewPrinter(cfg, retryConfig(), logger).WriteFile(cmd.Context(), cfg.PDFOutputPath, mapped); err != nil {
			return err
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	mapped, cleanup, err := loadOnce(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	if err := exportCSV(mapped); err != nil {
		return err
	}
	if err := render.NewPrinter(cfg, retryConfig(), logger).WriteFile(cmd.Context(), cfg.PDFOutputPath, mapped); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Done. CSV → %s | PDF → %s\n", cfg.CSVOutputPath, cfg.PDFOutputPath)
	return nil
}

func exportCSV(mapped *models.MappedRapport) error {
	var w storage.ReportWriter
	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		return fmt.Errorf("create CSV writer: %w", err)
	}
	w = csvWriter
	defer w.Close()

	if err := w.Write(mapped); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	logger.Info("[main] Report saved to %s", cfg.CSVOutputPath)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	metrics := server.NewMetrics()

	pg, err := openArchive(ctx)
	if err != nil {
		logger.Warn("[main] Load archive disabled: %v", err)
	}
	if pg != nil {
		defer pg.Close()
	}

	loaders := map[string]*services.Loader{
		config.VersionTest: newLoader(cfg.WithVersion(config.VersionTest), metrics, pg),
		config.VersionLive: newLoader(cfg.WithVersion(config.VersionLive), metrics, pg),
	}

	srv := server.New(cfg, server.Deps{
		LoaderFor: func(version string) server.ReportLoader {
			if l, ok := loaders[version]; ok {
				return l
			}
			return loaders[cfg.Version]
		},
		Dispatcher: dispatch.New(cfg, sources.NewHTTPClient(cfg), metrics, logger),
		Overlays:   services.NewOverlayStore(),
		Printer:    render.NewPrinter(cfg, retryConfig(), logger),
	}, logger)

	logger.Info("=== checkeasy-report serving on :%d (default API version %s) ===", cfg.Port, cfg.Version)
	return srv.Run(ctx)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg.ArchiveEnabled = true
	pg, err := openArchive(ctx)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer pg.Close()

	loads, err := pg.RecentLoads(ctx, args[0], historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(loads) == 0 {
		fmt.Fprintf(out, "  No archived loads for %s\n", args[0])
		return nil
	}
	for _, l := range loads {
		fmt.Fprintf(out, "  %s  ai=%-11s session=%-11s signalements=%-11s bundle=%-11s rooms=%d signalements=%d\n",
			l.LoadedAt.Format("2006-01-02 15:04:05"), l.AIStatus, l.SessionStatus, l.SignalementsStatus,
			l.BundleStatus, l.RoomCount, l.SignalementCount)
	}
	return nil
}
