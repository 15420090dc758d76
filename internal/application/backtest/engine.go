package backtest

// engine.go — backtest Monte Carlo del ciclo entrada→hold→resolución→salida.
//
// Cada trial es totalmente independiente: su propio *rand.Rand (sembrado como
// seed global + índice de trial, reproducible venga en el orden que venga del
// pool) y su propio track de capital. La reducción final agrega métricas sin
// necesitar orden entre trials.

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/alejandrodnm/noscan/internal/domain"
)

// Config controla la simulación.
type Config struct {
	Trials         int
	Seed           int64
	InitialCapital float64
	FeeRate        float64       // fee de entrada y de salida
	Slippage       float64       // % adverso sobre el precio de fill
	MinHold        time.Duration // rango uniforme de duración del hold
	MaxHold        time.Duration
	PerTradeCap    float64 // fracción máxima del capital vivo por trade
	Workers        int     // 0 = NumCPU
}

// Validate comprueba los parámetros de simulación. Fatal al arranque.
func (c Config) Validate() error {
	if c.Trials <= 0 {
		return fmt.Errorf("backtest: trials must be > 0: %w", domain.ErrInvalidConfig)
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("backtest: initial capital must be > 0: %w", domain.ErrInvalidConfig)
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		return fmt.Errorf("backtest: fee rate %.4f outside [0,1): %w", c.FeeRate, domain.ErrInvalidConfig)
	}
	if c.Slippage < 0 || c.Slippage >= 1 {
		return fmt.Errorf("backtest: slippage %.4f outside [0,1): %w", c.Slippage, domain.ErrInvalidConfig)
	}
	if c.MinHold <= 0 || c.MaxHold < c.MinHold {
		return fmt.Errorf("backtest: hold range [%s, %s] invalid: %w", c.MinHold, c.MaxHold, domain.ErrInvalidConfig)
	}
	if c.PerTradeCap <= 0 || c.PerTradeCap > 1 {
		return fmt.Errorf("backtest: per-trade cap %.4f outside (0,1]: %w", c.PerTradeCap, domain.ErrInvalidConfig)
	}
	return nil
}

// Engine ejecuta backtests Monte Carlo sobre un set de oportunidades.
type Engine struct {
	cfg Config
}

// New crea el engine. La config debe venir ya validada.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run ejecuta cfg.Trials trials independientes en paralelo y agrega el
// resultado. Cancelar el contexto abandona el run descartando los trials
// parciales; no hay cancelación a mitad de trial.
func (e *Engine) Run(ctx context.Context, opps []domain.Opportunity) domain.BacktestResult {
	buys := make([]domain.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.IsBuy() {
			buys = append(buys, o)
		}
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	started := time.Now().UTC()
	trialCh := make(chan int, e.cfg.Trials)
	runs := make([]domain.SimulationRun, e.cfg.Trials)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range trialCh {
				if ctx.Err() != nil {
					return
				}
				// rng propio por trial: mismo seed global → mismos draws,
				// independientemente de qué worker lo ejecute.
				seed := e.cfg.Seed + int64(trial)
				rng := rand.New(rand.NewSource(seed))
				runs[trial] = e.runTrial(trial, seed, rng, buys)
			}
		}()
	}

	for trial := 0; trial < e.cfg.Trials; trial++ {
		trialCh <- trial
	}
	close(trialCh)
	wg.Wait()

	if ctx.Err() != nil {
		slog.Warn("backtest abandoned", "err", ctx.Err())
		return domain.BacktestResult{StartedAt: started}
	}

	res := domain.AggregateRuns(runs)
	res.StartedAt = started
	slog.Info("backtest complete",
		"trials", e.cfg.Trials,
		"opportunities", len(buys),
		"mean_win_rate", fmt.Sprintf("%.4f", res.WinRate.Mean),
		"mean_roi", fmt.Sprintf("%.2f%%", res.ROI.Mean),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return res
}
