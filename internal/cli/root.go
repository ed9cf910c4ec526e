// Package cli implements the symptom-catalog CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/symptom-catalog/internal/catalog"
	"github.com/rcliao/symptom-catalog/internal/config"
	"github.com/rcliao/symptom-catalog/internal/logging"
	"github.com/rcliao/symptom-catalog/internal/metrics"
	"github.com/rcliao/symptom-catalog/internal/normalizer"
	"github.com/rcliao/symptom-catalog/internal/service"
	"github.com/rcliao/symptom-catalog/internal/store"
)

var (
	configPath  string
	catalogPath string
	dbPath      string
	formatFlag  string
	logLevel    string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "symptom-catalog",
	Short: "Catalog-grounded symptom extraction",
	Long: "Extracts symptoms from clinical transcripts against a controlled vocabulary.\n" +
		"Only catalog symptoms are reported; everything else is logged for human review.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.config/symptom-catalog/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Catalog CSV path (overrides catalog.path)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Review log database path (overrides reviews.db_path)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json, yaml or text")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides logging.level)")
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	if dbPath != "" {
		cfg.Reviews.DBPath = dbPath
		cfg.Reviews.Enabled = true
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds everything a command needs, opened from config.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	catalog  *catalog.Catalog
	norm     *normalizer.Normalizer
	reviews  *store.SQLiteStore // nil when reviews are disabled
	svc      *service.Service
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cat, err := catalog.Open(cfg.Catalog.Path, catalog.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	norm := normalizer.New(cat,
		normalizer.WithLogger(logger),
		normalizer.WithMetrics(m),
		normalizer.WithExtractorOptions(cfg.Extractor.Options()),
	)

	a := &app{cfg: cfg, logger: logger, registry: reg, metrics: m, catalog: cat, norm: norm}

	var reviews store.Store
	if cfg.Reviews.Enabled {
		s, err := store.NewSQLiteStore(cfg.Reviews.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open review log: %w", err)
		}
		a.reviews = s
		reviews = s
	}
	a.svc = service.New(norm, reviews, logger)
	return a, nil
}

func (a *app) Close() {
	if a.reviews != nil {
		a.reviews.Close()
	}
	_ = logging.Sync(a.logger)
}

// mustOpenApp opens the app or exits.
func mustOpenApp() *app {
	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	return a
}

// openStore opens only the review log, for commands that never touch the
// catalog.
func openStore() (*store.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return store.NewSQLiteStore(cfg.Reviews.DBPath)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
