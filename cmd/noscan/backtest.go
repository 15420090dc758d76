package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/noscan/config"
	"github.com/alejandrodnm/noscan/internal/application/backtest"
	"github.com/alejandrodnm/noscan/internal/domain"
	"github.com/alejandrodnm/noscan/internal/ports"
)

func runBacktest(ctx context.Context, cfg *config.Config, notifier ports.Notifier, opps []domain.Opportunity) {
	buys := 0
	for _, o := range opps {
		if o.IsBuy() {
			buys++
		}
	}
	if buys == 0 {
		slog.Warn("no buy signals — nothing to backtest")
		return
	}

	slog.Info("=== MONTE CARLO BACKTEST ===",
		"trials", cfg.Backtest.Trials,
		"seed", cfg.Backtest.Seed,
		"signals", buys,
	)

	bcfg := backtest.Config{
		Trials:         cfg.Backtest.Trials,
		Seed:           cfg.Backtest.Seed,
		InitialCapital: cfg.Analyzer.CapitalUSDC,
		FeeRate:        cfg.Backtest.FeeRate,
		Slippage:       cfg.Backtest.Slippage,
		MinHold:        time.Duration(cfg.Backtest.MinHoldMinutes) * time.Minute,
		MaxHold:        time.Duration(cfg.Backtest.MaxHoldMinutes) * time.Minute,
		PerTradeCap:    cfg.Backtest.PerTradeCap,
		Workers:        cfg.Backtest.Workers,
	}
	if err := bcfg.Validate(); err != nil {
		slog.Error("invalid backtest config", "err", err)
		return
	}

	result := backtest.New(bcfg).Run(ctx, opps)
	if err := notifier.PrintBacktest(ctx, result); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}
