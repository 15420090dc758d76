package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/noscan/config"
	"github.com/alejandrodnm/noscan/internal/adapters/feed"
	"github.com/alejandrodnm/noscan/internal/adapters/notify"
	"github.com/alejandrodnm/noscan/internal/adapters/storage"
	"github.com/alejandrodnm/noscan/internal/application/analyzer"
	"github.com/alejandrodnm/noscan/internal/domain"
	"github.com/alejandrodnm/noscan/internal/domain/strategy"
	"github.com/alejandrodnm/noscan/internal/ports"
	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full table (default: compact 1-line)")
	backtest := flag.Bool("backtest", false, "analyze + Monte Carlo backtest of the buy signals")
	paper := flag.Bool("paper", false, "analyze + paper-execute signals against a simulated feed")
	reproduce := flag.Bool("reproduce", false, "deterministic end-to-end run with fixed seed and clock")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("noscan starting",
		"config", *configPath,
		"strategy", cfg.Strategy.Name,
		"backtest", *backtest,
		"paper", *paper,
		"reproduce", *reproduce,
	)

	strat, err := buildStrategy(cfg)
	if err != nil {
		slog.Error("failed to build strategy", "err", err)
		os.Exit(1)
	}

	var store ports.Storage
	store, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	var notifier ports.Notifier = notify.NewConsole(*table || *backtest || *paper || *reproduce)

	now := time.Now().UTC()
	if *reproduce {
		// reloj anclado: mismo input, mismo output, run a run
		now = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	}
	var provider ports.MarketProvider = feed.NewSynthetic(now)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := analyzer.New(analyzerConfig(cfg), strat)

	markets, err := provider.FetchMarkets(ctx)
	if err != nil {
		slog.Error("failed to fetch markets", "err", err)
		os.Exit(1)
	}

	opps, rejections := a.AnalyzeAll(ctx, markets)
	for _, r := range rejections {
		slog.Warn("market rejected", "market", r.MarketID, "platform", r.Platform, "err", r.Err)
	}

	if err := notifier.Notify(ctx, opps); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	runID := uuid.NewString()
	if *reproduce {
		runID = "reproduce"
		verifyReproduction(opps)
	}
	if err := store.SaveAnalysis(ctx, runID, opps); err != nil {
		slog.Warn("failed to persist analysis", "err", err)
	}

	switch {
	case *backtest || *reproduce:
		runBacktest(ctx, cfg, notifier, opps)
	case *paper:
		runPaper(ctx, cfg, store, notifier, runID, now, opps)
	}

	slog.Info("noscan finished", "run", runID, "markets", len(markets), "scored", len(opps))
}

// verifyReproduction comprueba que el run determinista produce exactamente
// las señales esperadas del snapshot sintético.
func verifyReproduction(opps []domain.Opportunity) {
	const wantScored, wantBuys = 3, 2

	buys := 0
	for _, o := range opps {
		if o.IsBuy() {
			buys++
		}
	}
	if len(opps) != wantScored || buys != wantBuys {
		slog.Error("reproduction check failed",
			"scored", len(opps), "want_scored", wantScored,
			"buys", buys, "want_buys", wantBuys,
		)
		os.Exit(1)
	}
	slog.Info("reproduction check passed", "scored", len(opps), "buys", buys)
}

// loadConfig carga el YAML; si el path por defecto no existe, arranca con
// la configuración por defecto en vez de fallar.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.Default(), nil
	}
	return config.Load(path)
}

func buildStrategy(cfg *config.Config) (strategy.Strategy, error) {
	reg := strategy.NewRegistry()
	reg.Register(strategy.NewBuyNoEarly(strategy.BuyNoEarlyParams{
		Profile: domain.CategoryProfile{
			Rates:       cfg.Strategy.BaseRates,
			DefaultRate: cfg.Strategy.DefaultRate,
		},
		CategoryKeywords:    cfg.Strategy.CategoryKeywords,
		SensationalKeywords: cfg.Strategy.SensationalKeywords,
		KeywordNorm:         float64(cfg.Strategy.KeywordNorm),
		Alpha:               cfg.Strategy.Alpha,
		Weights: domain.ConfidenceWeights{
			Volume:    cfg.Strategy.Weights.Volume,
			Sentiment: cfg.Strategy.Weights.Sentiment,
			Category:  cfg.Strategy.Weights.Category,
		},
		VolumeNorm:     cfg.Strategy.VolumeNorm,
		UnknownPenalty: cfg.Strategy.UnknownPenalty,
		Sizing: domain.SizingLimits{
			SafetyFactor: cfg.Strategy.Sizing.SafetyFactor,
			MinPosition:  cfg.Strategy.Sizing.MinPosition,
			MaxPosition:  cfg.Strategy.Sizing.MaxPosition,
			MaxExposure:  cfg.Strategy.Sizing.MaxExposure,
		},
	}))
	return reg.Get(cfg.Strategy.Name)
}

func analyzerConfig(cfg *config.Config) analyzer.Config {
	return analyzer.Config{
		MaxAge:              cfg.MaxMarketAge(),
		MinYesPrice:         cfg.Analyzer.MinYesPrice,
		MinVolume:           cfg.Analyzer.MinVolumeUSDC,
		MinLiquidity:        cfg.Analyzer.MinLiquidityUSDC,
		MaxSpread:           cfg.Analyzer.MaxSpread,
		MinExpectedReturn:   cfg.Analyzer.MinExpectedReturn,
		ConfidenceThreshold: cfg.Analyzer.ConfidenceThreshold,
		Capital:             cfg.Analyzer.CapitalUSDC,
		Workers:             cfg.Analyzer.Workers,
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
