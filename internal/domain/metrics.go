package domain

// metrics.go — métricas de performance por trial y su agregación.
//
// Las métricas indefinidas (Sharpe con volatilidad 0, profit factor sin
// pérdidas) se reportan como centinela NaN, nunca coercionadas a 0 o ∞
// en silencio. IsUndefined las detecta; el display las etiqueta "undef".

import (
	"math"
	"time"
)

// UndefinedMetric es el centinela para métricas sin valor definido.
func UndefinedMetric() float64 { return math.NaN() }

// IsUndefined devuelve true si v es el centinela de métrica indefinida.
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// TrialMetrics son las métricas de un trial de simulación (o de un run
// del motor de ejecución).
type TrialMetrics struct {
	Trades       int
	Wins         int
	Losses       int
	WinRate      float64
	TotalProfit  float64
	AvgProfit    float64
	ProfitFactor float64 // centinela si no hubo pérdidas
	ROI          float64 // porcentaje sobre capital inicial
	MaxDrawdown  float64 // fracción pico-a-valle
	Sharpe       float64 // centinela si la volatilidad es 0
	FinalCapital float64
}

// ComputeTrialMetrics deriva las métricas de una secuencia ordenada de
// trades cerrados partiendo de initialCapital.
func ComputeTrialMetrics(initialCapital float64, trades []Trade) TrialMetrics {
	m := TrialMetrics{
		Trades:       len(trades),
		FinalCapital: initialCapital,
		ProfitFactor: UndefinedMetric(),
		Sharpe:       UndefinedMetric(),
	}
	if len(trades) == 0 {
		return m
	}

	var winSum, lossSum float64
	returns := make([]float64, 0, len(trades))
	curve := make([]EquityPoint, 0, len(trades)+1)
	curve = append(curve, EquityPoint{Time: trades[0].EntryTime, Equity: initialCapital})

	running := initialCapital
	for _, t := range trades {
		m.TotalProfit += t.RealizedPnL
		if t.RealizedPnL >= 0 {
			m.Wins++
			winSum += t.RealizedPnL
		} else {
			m.Losses++
			lossSum += t.RealizedPnL
		}
		if t.Cost > 0 {
			returns = append(returns, t.RealizedPnL/t.Cost)
		}
		running += t.RealizedPnL
		curve = append(curve, EquityPoint{Time: t.ExitTime, Equity: running})
	}

	m.WinRate = float64(m.Wins) / float64(m.Trades)
	m.AvgProfit = m.TotalProfit / float64(m.Trades)
	m.ProfitFactor = ProfitFactor(winSum, lossSum)
	m.FinalCapital = running
	if initialCapital > 0 {
		m.ROI = (running - initialCapital) / initialCapital * 100
	}
	m.MaxDrawdown = MaxDrawdown(curve)
	m.Sharpe = SharpeRatio(returns)
	return m
}

// ProfitFactor devuelve Σganancias / |Σpérdidas|. Sin pérdidas el cociente
// es indefinido → centinela.
func ProfitFactor(winSum, lossSum float64) float64 {
	if lossSum == 0 {
		return UndefinedMetric()
	}
	return winSum / math.Abs(lossSum)
}

// SharpeRatio devuelve media/desviación de los retornos por trade
// (excess return con risk-free 0). Indefinido con < 2 retornos o
// volatilidad 0 → centinela.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return UndefinedMetric()
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	if variance == 0 {
		return UndefinedMetric()
	}
	return mean / math.Sqrt(variance)
}

// MetricSummary es la distribución de una métrica a través de trials.
// Undefined cuenta los trials donde la métrica fue centinela; esos
// valores se excluyen de mean/std/min/max.
type MetricSummary struct {
	Mean      float64
	StdDev    float64
	Min       float64
	Max       float64
	Undefined int
}

// Summarize agrega una serie de valores, excluyendo centinelas.
// Si todos son centinela, Mean/Min/Max son a su vez el centinela.
func Summarize(values []float64) MetricSummary {
	s := MetricSummary{}
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if IsUndefined(v) {
			s.Undefined++
			continue
		}
		defined = append(defined, v)
	}
	if len(defined) == 0 {
		s.Mean = UndefinedMetric()
		s.Min = UndefinedMetric()
		s.Max = UndefinedMetric()
		return s
	}

	s.Min = defined[0]
	s.Max = defined[0]
	for _, v := range defined {
		s.Mean += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean /= float64(len(defined))

	var variance float64
	for _, v := range defined {
		d := v - s.Mean
		variance += d * d
	}
	variance /= float64(len(defined))
	s.StdDev = math.Sqrt(variance)
	return s
}

// SimulationRun es un trial Monte Carlo completo: su ledger simulado
// y las métricas derivadas.
type SimulationRun struct {
	Trial   int
	Seed    int64
	Trades  []Trade
	Metrics TrialMetrics
}

// BacktestResult agrega la distribución de cada métrica sobre todos los
// trials de un backtest.
type BacktestResult struct {
	Trials       int
	StartedAt    time.Time
	WinRate      MetricSummary
	ProfitFactor MetricSummary
	ROI          MetricSummary
	MaxDrawdown  MetricSummary
	Sharpe       MetricSummary
	FinalCapital MetricSummary
	Runs         []SimulationRun
}

// AggregateRuns construye el BacktestResult a partir de los trials.
// No requiere orden entre trials: cada uno aporta sus métricas y ya.
func AggregateRuns(runs []SimulationRun) BacktestResult {
	res := BacktestResult{Trials: len(runs), Runs: runs}

	pick := func(f func(TrialMetrics) float64) []float64 {
		vs := make([]float64, len(runs))
		for i, r := range runs {
			vs[i] = f(r.Metrics)
		}
		return vs
	}

	res.WinRate = Summarize(pick(func(m TrialMetrics) float64 { return m.WinRate }))
	res.ProfitFactor = Summarize(pick(func(m TrialMetrics) float64 { return m.ProfitFactor }))
	res.ROI = Summarize(pick(func(m TrialMetrics) float64 { return m.ROI }))
	res.MaxDrawdown = Summarize(pick(func(m TrialMetrics) float64 { return m.MaxDrawdown }))
	res.Sharpe = Summarize(pick(func(m TrialMetrics) float64 { return m.Sharpe }))
	res.FinalCapital = Summarize(pick(func(m TrialMetrics) float64 { return m.FinalCapital }))
	return res
}
