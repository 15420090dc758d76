package execution

// engine.go — motor de ejecución paper: abre posiciones NO recomendadas por
// el analizador y las cierra tick a tick contra reglas de salida.
//
// Prioridad de salida en el mismo tick: STOP_LOSS > TAKE_PROFIT > TIME_EXIT.
// El motor no es thread-safe: un solo goroutine lo conduce (el loop de ticks),
// igual que el resto de engines de la aplicación.

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/noscan/internal/domain"
	"github.com/google/uuid"
)

// Razones de rechazo del admission control. Son valores de dominio, no
// errores: un rechazo es un resultado normal de operación.
const (
	RejectInsufficientCapital = "insufficient capital"
	RejectPositionLimit       = "position limit reached"
	RejectAlreadyOpen         = "position already open for market"
)

// Rejection registra una apertura denegada por el admission control.
type Rejection struct {
	MarketID string
	Reason   string
	At       time.Time
}

// Config controla el motor de ejecución.
type Config struct {
	InitialCapital float64
	StopLossPct    float64       // fracción de pérdida que dispara el stop
	TakeProfitPct  float64       // fracción de ganancia que dispara el take
	MaxHoldTime    time.Duration // antigüedad máxima de una posición
	MaxConcurrent  int           // posiciones abiertas simultáneas
	FeeRate        float64       // fee sobre los proceeds de salida
}

// Validate comprueba los parámetros del motor. Fatal al arranque.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("execution: initial capital must be > 0: %w", domain.ErrInvalidConfig)
	}
	if c.StopLossPct <= 0 || c.StopLossPct >= 1 {
		return fmt.Errorf("execution: stop loss %.4f outside (0,1): %w", c.StopLossPct, domain.ErrInvalidConfig)
	}
	if c.TakeProfitPct <= 0 {
		return fmt.Errorf("execution: take profit must be > 0: %w", domain.ErrInvalidConfig)
	}
	if c.MaxHoldTime <= 0 {
		return fmt.Errorf("execution: max hold time must be > 0: %w", domain.ErrInvalidConfig)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("execution: max concurrent positions must be > 0: %w", domain.ErrInvalidConfig)
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		return fmt.Errorf("execution: fee rate %.4f outside [0,1): %w", c.FeeRate, domain.ErrInvalidConfig)
	}
	return nil
}

// Engine mantiene el portfolio, el ledger de trades cerrados y los rechazos.
type Engine struct {
	cfg       Config
	portfolio *domain.Portfolio
	ledger    []domain.Trade
	rejected  []Rejection
	order     []string // market ids en orden de apertura, para ticks deterministas
}

// New crea el motor con todo el capital en cash.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:       cfg,
		portfolio: domain.NewPortfolio(cfg.InitialCapital),
	}
}

// Open intenta abrir una posición NO sobre la oportunidad. Un rechazo del
// admission control devuelve (nil, *Rejection); solo las oportunidades
// no accionables son un error del caller.
func (e *Engine) Open(opp domain.Opportunity, now time.Time) (*domain.Position, *Rejection) {
	size := opp.RecommendedSize

	if size > e.portfolio.Cash {
		return nil, e.reject(opp.Market.ID, RejectInsufficientCapital, now)
	}
	if e.portfolio.OpenCount() >= e.cfg.MaxConcurrent {
		return nil, e.reject(opp.Market.ID, RejectPositionLimit, now)
	}
	if _, exists := e.portfolio.Positions[opp.Market.ID]; exists {
		return nil, e.reject(opp.Market.ID, RejectAlreadyOpen, now)
	}

	pos := &domain.Position{
		ID:         uuid.NewString(),
		MarketID:   opp.Market.ID,
		Question:   opp.Market.Question,
		Side:       "No",
		EntryPrice: opp.Market.NoPrice,
		Shares:     size / opp.Market.NoPrice,
		Cost:       size,
		EntryTime:  now,
		Status:     domain.PositionOpen,
	}
	e.portfolio.Cash -= size
	e.portfolio.Positions[pos.MarketID] = pos
	e.order = append(e.order, pos.MarketID)

	slog.Info("position opened",
		"market", pos.MarketID,
		"entry", fmt.Sprintf("%.4f", pos.EntryPrice),
		"shares", fmt.Sprintf("%.2f", pos.Shares),
		"cost", fmt.Sprintf("%.2f", pos.Cost),
		"cash", fmt.Sprintf("%.2f", e.portfolio.Cash),
	)
	return pos, nil
}

// Tick evalúa las reglas de salida de cada posición abierta contra los
// precios del tick y devuelve los trades cerrados en él. Posiciones sin
// precio en el map no se evalúan. Cada tick muestrea la curva de equity.
func (e *Engine) Tick(prices map[string]float64, now time.Time) []domain.Trade {
	var closed []domain.Trade
	for _, marketID := range e.order {
		pos, ok := e.portfolio.Positions[marketID]
		if !ok {
			continue // ya cerrada en un tick anterior
		}
		price, ok := prices[marketID]
		if !ok {
			continue
		}

		reason, hit := e.exitRule(pos, price, now)
		if !hit {
			continue
		}
		closed = append(closed, e.close(pos, price, now, reason))
	}

	e.portfolio.MarkEquity(now, e.portfolio.TotalEquity(prices))
	return closed
}

// exitRule devuelve la primera regla de salida disparada, por prioridad.
func (e *Engine) exitRule(pos *domain.Position, price float64, now time.Time) (domain.ExitReason, bool) {
	pnl := pos.PnLPct(price)
	switch {
	case pnl <= -e.cfg.StopLossPct:
		return domain.ExitStopLoss, true
	case pnl >= e.cfg.TakeProfitPct:
		return domain.ExitTakeProfit, true
	case now.Sub(pos.EntryTime) >= e.cfg.MaxHoldTime:
		return domain.ExitTimeExit, true
	}
	return "", false
}

// Close cierra manualmente la posición del mercado al precio dado.
func (e *Engine) Close(marketID string, price float64, now time.Time) (domain.Trade, error) {
	pos, ok := e.portfolio.Positions[marketID]
	if !ok {
		return domain.Trade{}, fmt.Errorf("execution.Close: market %s: %w", marketID, domain.ErrPositionNotFound)
	}
	return e.close(pos, price, now, domain.ExitManual), nil
}

func (e *Engine) close(pos *domain.Position, price float64, now time.Time, reason domain.ExitReason) domain.Trade {
	gross := pos.Shares * price
	fee := gross * e.cfg.FeeRate
	proceeds := gross - fee

	pos.Status = domain.PositionClosed
	pos.ExitReason = reason
	delete(e.portfolio.Positions, pos.MarketID)
	e.portfolio.Cash += proceeds

	trade := domain.Trade{
		ID:          pos.ID,
		MarketID:    pos.MarketID,
		Question:    pos.Question,
		Side:        pos.Side,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   price,
		Shares:      pos.Shares,
		Cost:        pos.Cost,
		EntryTime:   pos.EntryTime,
		ExitTime:    now,
		ExitReason:  reason,
		FeesPaid:    fee,
		RealizedPnL: proceeds - pos.Cost,
	}
	e.ledger = append(e.ledger, trade)

	slog.Info("position closed",
		"market", trade.MarketID,
		"reason", string(reason),
		"exit", fmt.Sprintf("%.4f", price),
		"pnl", fmt.Sprintf("%+.2f", trade.RealizedPnL),
		"cash", fmt.Sprintf("%.2f", e.portfolio.Cash),
	)
	return trade
}

func (e *Engine) reject(marketID, reason string, now time.Time) *Rejection {
	r := Rejection{MarketID: marketID, Reason: reason, At: now}
	e.rejected = append(e.rejected, r)
	slog.Debug("open rejected", "market", marketID, "reason", reason)
	return &r
}

// Ledger devuelve los trades cerrados en orden de cierre.
func (e *Engine) Ledger() []domain.Trade { return e.ledger }

// Rejections devuelve los rechazos del admission control en orden.
func (e *Engine) Rejections() []Rejection { return e.rejected }

// EquityCurve devuelve la curva de equity muestreada por tick.
func (e *Engine) EquityCurve() []domain.EquityPoint { return e.portfolio.Equity }

// Cash devuelve el cash disponible.
func (e *Engine) Cash() float64 { return e.portfolio.Cash }

// OpenPositions devuelve el número de posiciones abiertas.
func (e *Engine) OpenPositions() int { return e.portfolio.OpenCount() }

// Summary devuelve el snapshot del portfolio a los precios dados.
func (e *Engine) Summary(prices map[string]float64) domain.PortfolioSummary {
	var value, cost float64
	for id, pos := range e.portfolio.Positions {
		price, ok := prices[id]
		if !ok {
			price = pos.EntryPrice
		}
		value += pos.MarketValue(price)
		cost += pos.Cost
	}
	return domain.PortfolioSummary{
		Cash:           e.portfolio.Cash,
		PositionsValue: value,
		TotalEquity:    e.portfolio.Cash + value,
		UnrealizedPnL:  value - cost,
		OpenPositions:  e.portfolio.OpenCount(),
	}
}
