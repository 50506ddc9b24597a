package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/collector"
	"StockAdvisor/internal/config"
	"StockAdvisor/internal/metrics"
	"StockAdvisor/internal/recorder"
)

var timeNow = time.Now

// DefaultConfigPath is used when neither --config nor CONFIG_PATH is set.
const DefaultConfigPath = "configs/config.yaml"

var RootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "stock technical indicator advisor",
	Long:  "Computes RSI, ATR, MACD and Stochastic over daily bars and suggests Buy, Sell or Hold.",

	// SilenceUsage is an option to silence usage when an error occurs.
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().Bool("debug", false, "debug flag")
	RootCmd.PersistentFlags().String("config", "", "config file (default $CONFIG_PATH or "+DefaultConfigPath+")")
	RootCmd.PersistentFlags().String("provider", "", "data provider override: yahoo, rest, csv, mock")
}

func Execute() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Enable environment variable binding, the env vars are not overloaded yet.
	viper.AutomaticEnv()

	bindFlags(RootCmd.PersistentFlags())

	log.SetFormatter(&prefixed.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.WithError(err).Fatalf("cannot execute command")
	}
}

// bindFlags binds config keys to the given flag sets once they are defined.
func bindFlags(sets ...*pflag.FlagSet) {
	for _, fs := range sets {
		if err := viper.BindPFlags(fs); err != nil {
			log.WithError(err).Errorf("failed to bind flags. please check the flag settings.")
		}
	}
}

// loadConfig resolves the config path, loads and validates the config and
// applies the logging level.
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p := viper.GetString("provider"); p != "" {
		cfg.DataSource.Provider = p
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.WithError(err).Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = log.InfoLevel
	}
	if viper.GetBool("debug") {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	return cfg, nil
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	ds := cfg.DataSource
	var f collector.Fetcher
	switch ds.Provider {
	case "yahoo":
		f = collector.NewYahooFetcher(cfg.Proxy, ds.RequestsPerSecond)
	case "rest":
		f = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy)
	case "csv":
		f = collector.NewCSVFetcher(ds.CSVDir)
	case "mock":
		f = &collector.MockFetcher{Price: 100, Days: 750}
	default:
		return nil, fmt.Errorf("unknown data provider %q", ds.Provider)
	}
	log.Infof("data source: %s", f.Name())
	return f, nil
}

// newRecorder opens the SQLite recorder, falling back to a no-op recorder.
func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.WithError(err).Warn("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

// newService wires the advisor service. The caller must Close the recorder.
func newService(cfg *config.Config, m *metrics.Metrics) (*advisor.Service, recorder.Recorder, error) {
	f, err := newFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}
	rec := newRecorder(cfg)
	svc := advisor.NewService(collector.NewCollector(f))
	svc.Params = cfg.Indicators
	svc.Thresholds = cfg.Signal
	svc.WindowYears = cfg.DataSource.WindowYears
	svc.Recorder = rec
	svc.Metrics = m
	return svc, rec, nil
}
