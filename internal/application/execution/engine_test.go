package execution

import (
	"testing"
	"time"

	"github.com/alejandrodnm/noscan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		InitialCapital: 10000,
		StopLossPct:    0.15,
		TakeProfitPct:  0.20,
		MaxHoldTime:    72 * time.Hour,
		MaxConcurrent:  5,
		FeeRate:        0.02,
	}
}

func execOpp(id string, noPrice, size float64) domain.Opportunity {
	return domain.Opportunity{
		Market: domain.MarketRecord{
			Platform: "Polymarket",
			ID:       id,
			Question: "Will X happen?",
			YesPrice: 1 - noPrice,
			NoPrice:  noPrice,
		},
		RecommendedSize: size,
		Signal:          domain.SignalBuyNo,
	}
}

var t0 = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, testConfig().Validate())

	bad := testConfig()
	bad.StopLossPct = 0
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidConfig)

	bad = testConfig()
	bad.MaxConcurrent = 0
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidConfig)
}

func TestOpen_DebitsCashAndComputesShares(t *testing.T) {
	e := New(testConfig())

	pos, rej := e.Open(execOpp("m1", 0.20, 1000), t0)
	require.Nil(t, rej)
	require.NotNil(t, pos)

	assert.NotEmpty(t, pos.ID)
	assert.Equal(t, "No", pos.Side)
	assert.Equal(t, domain.PositionOpen, pos.Status)
	assert.InDelta(t, 5000.0, pos.Shares, 1e-9) // 1000 / 0.20
	assert.InDelta(t, 9000.0, e.Cash(), 1e-9)
	assert.Equal(t, 1, e.OpenPositions())
}

func TestOpen_Rejections(t *testing.T) {
	t.Run("insufficient capital", func(t *testing.T) {
		e := New(testConfig())
		pos, rej := e.Open(execOpp("m1", 0.20, 20000), t0)
		assert.Nil(t, pos)
		require.NotNil(t, rej)
		assert.Equal(t, RejectInsufficientCapital, rej.Reason)
		assert.InDelta(t, 10000.0, e.Cash(), 1e-9) // sin efectos
	})

	t.Run("position limit", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxConcurrent = 2
		e := New(cfg)
		for i, id := range []string{"m1", "m2"} {
			_, rej := e.Open(execOpp(id, 0.20, 500), t0.Add(time.Duration(i)*time.Minute))
			require.Nil(t, rej)
		}
		pos, rej := e.Open(execOpp("m3", 0.20, 500), t0)
		assert.Nil(t, pos)
		require.NotNil(t, rej)
		assert.Equal(t, RejectPositionLimit, rej.Reason)
	})

	t.Run("already open", func(t *testing.T) {
		e := New(testConfig())
		_, rej := e.Open(execOpp("m1", 0.20, 500), t0)
		require.Nil(t, rej)
		pos, rej := e.Open(execOpp("m1", 0.20, 500), t0)
		assert.Nil(t, pos)
		require.NotNil(t, rej)
		assert.Equal(t, RejectAlreadyOpen, rej.Reason)
	})

	t.Run("rechazos acumulados en orden", func(t *testing.T) {
		e := New(testConfig())
		e.Open(execOpp("m1", 0.20, 20000), t0)
		e.Open(execOpp("m2", 0.20, 20000), t0)
		require.Len(t, e.Rejections(), 2)
		assert.Equal(t, "m1", e.Rejections()[0].MarketID)
		assert.Equal(t, "m2", e.Rejections()[1].MarketID)
	})
}

func TestTick_TakeProfit(t *testing.T) {
	e := New(testConfig())
	_, rej := e.Open(execOpp("m1", 0.15, 900), t0)
	require.Nil(t, rej)

	// 0.15 → 0.22 es +46.7%, por encima del take profit del 20%
	closed := e.Tick(map[string]float64{"m1": 0.22}, t0.Add(time.Hour))
	require.Len(t, closed, 1)

	tr := closed[0]
	assert.Equal(t, domain.ExitTakeProfit, tr.ExitReason)
	assert.InDelta(t, 0.22, tr.ExitPrice, 1e-9)

	// shares = 900/0.15 = 6000; proceeds = 6000×0.22×0.98 = 1293.60
	assert.InDelta(t, 6000.0, tr.Shares, 1e-9)
	assert.InDelta(t, 1293.60, tr.Cost+tr.RealizedPnL, 1e-9)
	assert.InDelta(t, 6000.0*0.22*0.02, tr.FeesPaid, 1e-9)
	assert.InDelta(t, 9100.0+1293.60, e.Cash(), 1e-9)
	assert.Equal(t, 0, e.OpenPositions())
}

func TestTick_StopLossExactBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.StopLossPct = 0.25
	e := New(cfg)
	_, rej := e.Open(execOpp("m1", 0.20, 1000), t0)
	require.Nil(t, rej)

	// caída exactamente del 25% dispara el stop en el mismo tick
	closed := e.Tick(map[string]float64{"m1": 0.15}, t0.Add(time.Hour))
	require.Len(t, closed, 1)
	assert.Equal(t, domain.ExitStopLoss, closed[0].ExitReason)
	assert.Less(t, closed[0].RealizedPnL, 0.0)
}

func TestTick_StopLossBeatsTimeExit(t *testing.T) {
	e := New(testConfig())
	_, rej := e.Open(execOpp("m1", 0.20, 1000), t0)
	require.Nil(t, rej)

	// el tick llega pasado el max hold Y con el precio bajo el stop:
	// gana el stop por prioridad
	late := t0.Add(100 * time.Hour)
	closed := e.Tick(map[string]float64{"m1": 0.10}, late)
	require.Len(t, closed, 1)
	assert.Equal(t, domain.ExitStopLoss, closed[0].ExitReason)
}

func TestTick_TimeExit(t *testing.T) {
	e := New(testConfig())
	_, rej := e.Open(execOpp("m1", 0.20, 1000), t0)
	require.Nil(t, rej)

	// precio plano: ni stop ni take, pero la posición expiró
	closed := e.Tick(map[string]float64{"m1": 0.21}, t0.Add(80*time.Hour))
	require.Len(t, closed, 1)
	assert.Equal(t, domain.ExitTimeExit, closed[0].ExitReason)
}

func TestTick_NoPriceNoEval(t *testing.T) {
	e := New(testConfig())
	_, rej := e.Open(execOpp("m1", 0.20, 1000), t0)
	require.Nil(t, rej)

	closed := e.Tick(map[string]float64{"otro": 0.01}, t0.Add(time.Hour))
	assert.Empty(t, closed)
	assert.Equal(t, 1, e.OpenPositions())
}

func TestTick_SamplesEquityCurve(t *testing.T) {
	e := New(testConfig())
	_, rej := e.Open(execOpp("m1", 0.20, 1000), t0)
	require.Nil(t, rej)

	e.Tick(map[string]float64{"m1": 0.21}, t0.Add(time.Hour))
	e.Tick(map[string]float64{"m1": 0.19}, t0.Add(2*time.Hour))

	curve := e.EquityCurve()
	require.Len(t, curve, 2)
	// equity = cash + shares×precio = 9000 + 5000×0.21
	assert.InDelta(t, 9000.0+5000*0.21, curve[0].Equity, 1e-9)
	assert.InDelta(t, 9000.0+5000*0.19, curve[1].Equity, 1e-9)
}

func TestClose_Manual(t *testing.T) {
	e := New(testConfig())
	_, rej := e.Open(execOpp("m1", 0.20, 1000), t0)
	require.Nil(t, rej)

	tr, err := e.Close("m1", 0.21, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.ExitManual, tr.ExitReason)
	assert.Equal(t, 0, e.OpenPositions())
	require.Len(t, e.Ledger(), 1)

	_, err = e.Close("m1", 0.21, t0.Add(2*time.Hour))
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)
}

func TestEngine_CashConservation(t *testing.T) {
	// invariante: initial + Σ realized = cash final con todo cerrado
	e := New(testConfig())
	_, rej := e.Open(execOpp("m1", 0.20, 1000), t0)
	require.Nil(t, rej)
	_, rej = e.Open(execOpp("m2", 0.25, 800), t0.Add(time.Minute))
	require.Nil(t, rej)

	e.Tick(map[string]float64{"m1": 0.30, "m2": 0.18}, t0.Add(time.Hour))
	_, err := e.Close("m2", 0.24, t0.Add(2*time.Hour))
	// m2 pudo cerrar por stop en el tick; si no queda, el manual falla y vale
	if err != nil {
		require.ErrorIs(t, err, domain.ErrPositionNotFound)
	}

	var realized float64
	for _, tr := range e.Ledger() {
		realized += tr.RealizedPnL
	}
	assert.Equal(t, 0, e.OpenPositions())
	assert.InDelta(t, 10000.0+realized, e.Cash(), 1e-9)
}

func TestSummary(t *testing.T) {
	e := New(testConfig())
	_, rej := e.Open(execOpp("m1", 0.20, 1000), t0)
	require.Nil(t, rej)

	s := e.Summary(map[string]float64{"m1": 0.22})
	assert.InDelta(t, 9000.0, s.Cash, 1e-9)
	assert.InDelta(t, 5000*0.22, s.PositionsValue, 1e-9)
	assert.InDelta(t, 9000.0+5000*0.22, s.TotalEquity, 1e-9)
	assert.InDelta(t, 5000*0.22-1000, s.UnrealizedPnL, 1e-9)
	assert.Equal(t, 1, s.OpenPositions)

	// sin precio: se valora a entrada → unrealized 0
	s = e.Summary(nil)
	assert.InDelta(t, 0.0, s.UnrealizedPnL, 1e-9)
}
