package domain

import "time"

// PositionStatus es el ciclo de vida de una posición: OPEN → CLOSED.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// ExitReason indica qué regla cerró la posición.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitTimeExit   ExitReason = "TIME_EXIT"
	ExitManual     ExitReason = "MANUAL"
	// ExitResolved se usa en simulación Monte Carlo: el mercado resolvió.
	ExitResolved ExitReason = "RESOLVED"
)

// Position es una posición NO abierta por el motor de ejecución.
// Mutable solo dentro del motor; nadie más la toca.
type Position struct {
	ID         string
	MarketID   string
	Question   string
	Side       string // siempre "No" en esta estrategia
	EntryPrice float64
	Shares     float64
	Cost       float64 // USDC descontados del cash al abrir
	EntryTime  time.Time
	Status     PositionStatus
	ExitReason ExitReason // solo con PositionClosed
}

// PnLPct devuelve el retorno porcentual no realizado al precio actual.
func (p Position) PnLPct(current float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (current - p.EntryPrice) / p.EntryPrice
}

// MarketValue devuelve el valor de mercado de la posición al precio actual.
func (p Position) MarketValue(current float64) float64 {
	return p.Shares * current
}

// Trade es una posición cerrada: se crea exactamente una vez por cierre
// y es inmutable desde entonces.
type Trade struct {
	ID          string
	MarketID    string
	Question    string
	Side        string
	EntryPrice  float64
	ExitPrice   float64
	Shares      float64
	Cost        float64
	EntryTime   time.Time
	ExitTime    time.Time
	ExitReason  ExitReason
	FeesPaid    float64
	RealizedPnL float64
}

// HoldTime devuelve cuánto tiempo estuvo abierta la posición.
func (t Trade) HoldTime() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// EquityPoint es una muestra (tiempo, equity) de la curva de capital.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// Portfolio es el estado de capital del motor de ejecución: cash, posiciones
// abiertas y curva de equity. Propiedad exclusiva del motor — sin mutación
// concurrente.
type Portfolio struct {
	InitialCapital float64
	Cash           float64
	Positions      map[string]*Position // por market id
	Equity         []EquityPoint
}

// NewPortfolio crea un portfolio con todo el capital en cash.
func NewPortfolio(initial float64) *Portfolio {
	return &Portfolio{
		InitialCapital: initial,
		Cash:           initial,
		Positions:      make(map[string]*Position),
	}
}

// OpenCount devuelve el número de posiciones abiertas.
func (p *Portfolio) OpenCount() int {
	return len(p.Positions)
}

// Deployed devuelve el USDC bloqueado en posiciones abiertas.
func (p *Portfolio) Deployed() float64 {
	var total float64
	for _, pos := range p.Positions {
		total += pos.Cost
	}
	return total
}

// TotalEquity devuelve cash + valor de mercado de las posiciones abiertas.
// Posiciones sin precio en el map se valoran a su precio de entrada.
func (p *Portfolio) TotalEquity(prices map[string]float64) float64 {
	equity := p.Cash
	for id, pos := range p.Positions {
		price, ok := prices[id]
		if !ok {
			price = pos.EntryPrice
		}
		equity += pos.MarketValue(price)
	}
	return equity
}

// MarkEquity añade una muestra a la curva de equity.
func (p *Portfolio) MarkEquity(t time.Time, equity float64) {
	p.Equity = append(p.Equity, EquityPoint{Time: t, Equity: equity})
}

// PortfolioSummary es el snapshot de estado para display.
type PortfolioSummary struct {
	Cash           float64
	PositionsValue float64
	TotalEquity    float64
	UnrealizedPnL  float64
	OpenPositions  int
}

// MaxDrawdown devuelve la mayor caída pico-a-valle de la curva, como
// fracción del pico (0 = sin caída). Curvas vacías devuelven 0.
func MaxDrawdown(curve []EquityPoint) float64 {
	var maxDD, peak float64
	for i, pt := range curve {
		if i == 0 || pt.Equity > peak {
			peak = pt.Equity
		}
		if peak > 0 {
			if dd := (peak - pt.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
