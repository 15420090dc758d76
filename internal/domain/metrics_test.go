package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkTrade(pnl, cost float64, at time.Time) Trade {
	return Trade{
		MarketID:    "m1",
		Cost:        cost,
		RealizedPnL: pnl,
		EntryTime:   at,
		ExitTime:    at.Add(time.Hour),
	}
}

func TestComputeTrialMetrics_Basic(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	trades := []Trade{
		mkTrade(200, 500, base),
		mkTrade(-100, 500, base.Add(2*time.Hour)),
		mkTrade(300, 500, base.Add(4*time.Hour)),
	}

	m := ComputeTrialMetrics(10000, trades)

	assert.Equal(t, 3, m.Trades)
	assert.Equal(t, 2, m.Wins)
	assert.Equal(t, 1, m.Losses)
	assert.InDelta(t, 2.0/3.0, m.WinRate, 1e-9)
	assert.InDelta(t, 400.0, m.TotalProfit, 1e-9)
	// profit factor = 500/100 = 5
	assert.InDelta(t, 5.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 10400.0, m.FinalCapital, 1e-9)
	assert.InDelta(t, 4.0, m.ROI, 1e-9)
	// drawdown: 10000 → 10200 → 10100 → 10400; caída 100/10200
	assert.InDelta(t, 100.0/10200.0, m.MaxDrawdown, 1e-9)
	assert.False(t, IsUndefined(m.Sharpe))
}

func TestComputeTrialMetrics_NoLosses_ProfitFactorUndefined(t *testing.T) {
	base := time.Now().UTC()
	m := ComputeTrialMetrics(1000, []Trade{mkTrade(50, 100, base), mkTrade(70, 100, base)})
	assert.True(t, IsUndefined(m.ProfitFactor), "sin pérdidas → centinela, no ∞")
}

func TestComputeTrialMetrics_ZeroVolatility_SharpeUndefined(t *testing.T) {
	base := time.Now().UTC()
	// retornos idénticos → desviación 0 → Sharpe indefinido
	m := ComputeTrialMetrics(1000, []Trade{mkTrade(50, 100, base), mkTrade(50, 100, base)})
	assert.True(t, IsUndefined(m.Sharpe))
}

func TestComputeTrialMetrics_Empty(t *testing.T) {
	m := ComputeTrialMetrics(1000, nil)
	assert.Equal(t, 0, m.Trades)
	assert.Equal(t, 1000.0, m.FinalCapital)
	assert.True(t, IsUndefined(m.ProfitFactor))
	assert.True(t, IsUndefined(m.Sharpe))
}

func TestSharpeRatio(t *testing.T) {
	assert.True(t, IsUndefined(SharpeRatio(nil)))
	assert.True(t, IsUndefined(SharpeRatio([]float64{0.5})))
	assert.True(t, IsUndefined(SharpeRatio([]float64{0.1, 0.1, 0.1})))

	s := SharpeRatio([]float64{0.1, -0.1, 0.1, -0.1})
	assert.InDelta(t, 0.0, s, 1e-9)
}

func TestMaxDrawdown(t *testing.T) {
	at := time.Now().UTC()
	curve := []EquityPoint{
		{at, 10000}, {at, 12000}, {at, 9000}, {at, 11000}, {at, 10500},
	}
	// pico 12000 → valle 9000 → 25%
	assert.InDelta(t, 0.25, MaxDrawdown(curve), 1e-9)
	assert.Equal(t, 0.0, MaxDrawdown(nil))
	assert.Equal(t, 0.0, MaxDrawdown([]EquityPoint{{at, 100}, {at, 150}}))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, UndefinedMetric()})
	assert.Equal(t, 1, s.Undefined)
	assert.InDelta(t, 2.0, s.Mean, 1e-9)
	assert.InDelta(t, 1.0, s.Min, 1e-9)
	assert.InDelta(t, 3.0, s.Max, 1e-9)
	assert.InDelta(t, math.Sqrt(2.0/3.0), s.StdDev, 1e-9)
}

func TestSummarize_AllUndefined(t *testing.T) {
	s := Summarize([]float64{UndefinedMetric(), UndefinedMetric()})
	assert.Equal(t, 2, s.Undefined)
	assert.True(t, IsUndefined(s.Mean))
}

func TestAggregateRuns(t *testing.T) {
	runs := []SimulationRun{
		{Trial: 0, Metrics: TrialMetrics{WinRate: 0.8, ROI: 10, ProfitFactor: 2, Sharpe: 1, FinalCapital: 11000}},
		{Trial: 1, Metrics: TrialMetrics{WinRate: 0.6, ROI: -5, ProfitFactor: UndefinedMetric(), Sharpe: 0.5, FinalCapital: 9500}},
	}
	res := AggregateRuns(runs)

	require.Equal(t, 2, res.Trials)
	assert.InDelta(t, 0.7, res.WinRate.Mean, 1e-9)
	assert.InDelta(t, 2.5, res.ROI.Mean, 1e-9)
	assert.Equal(t, 1, res.ProfitFactor.Undefined)
	assert.InDelta(t, 2.0, res.ProfitFactor.Mean, 1e-9)
}

func TestPortfolio_CashAndEquity(t *testing.T) {
	p := NewPortfolio(10000)
	require.Equal(t, 10000.0, p.Cash)
	require.Equal(t, 0, p.OpenCount())

	p.Positions["m1"] = &Position{MarketID: "m1", EntryPrice: 0.20, Shares: 1000, Cost: 200}
	assert.Equal(t, 200.0, p.Deployed())

	// con precio actual 0.25: equity = cash + 1000×0.25
	eq := p.TotalEquity(map[string]float64{"m1": 0.25})
	assert.InDelta(t, 10000+250, eq, 1e-9)

	// sin precio conocido se valora a entrada
	eq = p.TotalEquity(nil)
	assert.InDelta(t, 10000+200, eq, 1e-9)
}
