package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/noscan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(trials int) Config {
	return Config{
		Trials:         trials,
		Seed:           42,
		InitialCapital: 10000,
		FeeRate:        0.02,
		Slippage:       0.01,
		MinHold:        time.Hour,
		MaxHold:        72 * time.Hour,
		PerTradeCap:    0.2,
		Workers:        4,
	}
}

func buyOpp(id string, trueNo float64) domain.Opportunity {
	return domain.Opportunity{
		Market: domain.MarketRecord{
			Platform: "Polymarket",
			ID:       id,
			Question: "Will X happen?",
			YesPrice: 0.80,
			NoPrice:  0.20,
		},
		TrueYes:         1 - trueNo,
		TrueNo:          trueNo,
		KellyFraction:   0.8,
		RecommendedSize: 1000,
		Signal:          domain.SignalBuyNo,
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, testConfig(100).Validate())

	bad := testConfig(0)
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidConfig)

	bad = testConfig(100)
	bad.MaxHold = time.Minute // < MinHold
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidConfig)

	bad = testConfig(100)
	bad.Slippage = 1.5
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidConfig)
}

func TestRun_Reproducible(t *testing.T) {
	opps := []domain.Opportunity{buyOpp("m1", 0.85), buyOpp("m2", 0.70)}
	e := New(testConfig(200))

	a := e.Run(context.Background(), opps)
	b := e.Run(context.Background(), opps)

	require.Equal(t, a.Trials, b.Trials)
	assert.Equal(t, a.WinRate.Mean, b.WinRate.Mean)
	assert.Equal(t, a.ROI.Mean, b.ROI.Mean)
	assert.Equal(t, a.FinalCapital.Mean, b.FinalCapital.Mean)

	// el ledger del mismo trial es idéntico draw a draw
	require.Equal(t, len(a.Runs[7].Trades), len(b.Runs[7].Trades))
	for i := range a.Runs[7].Trades {
		assert.Equal(t, a.Runs[7].Trades[i].RealizedPnL, b.Runs[7].Trades[i].RealizedPnL)
		assert.Equal(t, a.Runs[7].Trades[i].ExitTime, b.Runs[7].Trades[i].ExitTime)
	}
}

func TestRun_SeedChangesOutcome(t *testing.T) {
	opps := []domain.Opportunity{buyOpp("m1", 0.70)}
	cfgA := testConfig(100)
	cfgB := testConfig(100)
	cfgB.Seed = 1337

	a := New(cfgA).Run(context.Background(), opps)
	b := New(cfgB).Run(context.Background(), opps)

	// el hold es un draw continuo: dos seeds no pueden coincidir
	require.NotEmpty(t, a.Runs[0].Trades)
	require.NotEmpty(t, b.Runs[0].Trades)
	assert.NotEqual(t, a.Runs[0].Trades[0].ExitTime, b.Runs[0].Trades[0].ExitTime)
}

func TestRun_WinRateConvergesToTrueNo(t *testing.T) {
	// propiedad estadística: con una única oportunidad fija, el win rate
	// agregado converge a true_no (tolerancia 5% a 10k trials)
	const trueNo = 0.85
	e := New(testConfig(10000))
	res := e.Run(context.Background(), []domain.Opportunity{buyOpp("m1", trueNo)})

	require.Equal(t, 10000, res.Trials)
	assert.InDelta(t, trueNo, res.WinRate.Mean, 0.05)
}

func TestRun_IgnoresSkips(t *testing.T) {
	skip := buyOpp("m-skip", 0.85)
	skip.Signal = domain.SignalSkip
	skip.SkipReason = domain.SkipNoEdge

	res := New(testConfig(50)).Run(context.Background(), []domain.Opportunity{skip})
	for _, run := range res.Runs {
		assert.Empty(t, run.Trades)
	}
}

func TestRun_SureWinner_ProfitFactorUndefined(t *testing.T) {
	// true_no = 1 → gana siempre → sin pérdidas → profit factor centinela
	res := New(testConfig(50)).Run(context.Background(), []domain.Opportunity{buyOpp("m1", 1.0)})
	assert.Equal(t, 50, res.ProfitFactor.Undefined)
	assert.True(t, domain.IsUndefined(res.ProfitFactor.Mean))
	assert.InDelta(t, 1.0, res.WinRate.Mean, 1e-9)
}

func TestRun_AppliesSlippageAndFees(t *testing.T) {
	cfg := testConfig(1)
	res := New(cfg).Run(context.Background(), []domain.Opportunity{buyOpp("m1", 1.0)})

	require.Len(t, res.Runs[0].Trades, 1)
	tr := res.Runs[0].Trades[0]

	// entrada con slippage adverso: 0.20×1.01
	assert.InDelta(t, 0.202, tr.EntryPrice, 1e-9)
	// size capado a 20% del capital = $2000... la recomendación era $1000
	assert.InDelta(t, 1000.0, tr.Cost/(1+cfg.FeeRate), 1e-9)
	assert.Greater(t, tr.FeesPaid, 0.0)

	// hold dentro del rango configurado
	hold := tr.HoldTime()
	assert.GreaterOrEqual(t, hold, cfg.MinHold)
	assert.LessOrEqual(t, hold, cfg.MaxHold)
}

func TestRun_CapitalTrackIsPerTrial(t *testing.T) {
	// muchas oportunidades: el capital se agota dentro del trial pero cada
	// trial arranca de cero con el capital inicial completo
	opps := make([]domain.Opportunity, 0, 30)
	for i := 0; i < 30; i++ {
		opps = append(opps, buyOpp("m"+string(rune('a'+i)), 0.5))
	}

	res := New(testConfig(20)).Run(context.Background(), opps)
	for _, run := range res.Runs {
		// ningún trade puede costar más del 20% del capital vivo al abrirlo
		capital := 10000.0
		for _, tr := range run.Trades {
			assert.LessOrEqual(t, tr.Cost, capital+1e-9)
			capital += tr.RealizedPnL
		}
	}
}

func TestRun_AbandonedContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New(testConfig(100)).Run(ctx, []domain.Opportunity{buyOpp("m1", 0.85)})
	// run abandonado: sin trials agregados
	assert.Equal(t, 0, res.Trials)
}
