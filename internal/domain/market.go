package domain

import (
	"fmt"
	"time"
)

// Tolerancia para yes_price + no_price ≈ 1. Los feeds redondean a 2-3 decimales,
// así que un par 0.72/0.29 sigue siendo válido.
const priceSumTolerance = 0.02

// MarketRecord es un mercado de predicción binario ya normalizado por el
// colaborador de datos. Inmutable: el core nunca lo modifica.
type MarketRecord struct {
	Platform  string
	ID        string
	Question  string
	YesPrice  float64
	NoPrice   float64
	Volume    float64       // USDC acumulado
	Liquidity float64       // USDC disponible en el book
	Spread    float64       // best ask - best bid
	Age       time.Duration // tiempo desde el listado
	Category  string        // explícita; vacía = derivar por keywords
	RawText   string        // texto para análisis de sentimiento
	ListedAt  time.Time
}

// Validate aplica el contrato de entrada (§ datos): identificadores presentes,
// precios dentro de [0,1] y consistentes entre sí. Un registro inválido se
// rechaza antes de puntuar — no es fatal para el batch.
func (m MarketRecord) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("market %q: missing id: %w", m.Question, ErrInvalidMarketData)
	}
	if m.Platform == "" {
		return fmt.Errorf("market %s: missing platform: %w", m.ID, ErrInvalidMarketData)
	}
	if m.YesPrice < 0 || m.YesPrice > 1 {
		return fmt.Errorf("market %s: yes_price %.4f outside [0,1]: %w", m.ID, m.YesPrice, ErrInvalidMarketData)
	}
	if m.NoPrice < 0 || m.NoPrice > 1 {
		return fmt.Errorf("market %s: no_price %.4f outside [0,1]: %w", m.ID, m.NoPrice, ErrInvalidMarketData)
	}
	if sum := m.YesPrice + m.NoPrice; sum < 1-priceSumTolerance || sum > 1+priceSumTolerance {
		return fmt.Errorf("market %s: yes+no = %.4f, expected ≈ 1: %w", m.ID, sum, ErrInvalidMarketData)
	}
	if m.Volume < 0 || m.Liquidity < 0 || m.Spread < 0 {
		return fmt.Errorf("market %s: negative volume/liquidity/spread: %w", m.ID, ErrInvalidMarketData)
	}
	return nil
}

// DegeneratePrice devuelve true si el no_price hace que las odds sean
// indefinidas (0 o 1). El mercado no se descarta: produce un SKIP con razón.
func (m MarketRecord) DegeneratePrice() bool {
	return m.NoPrice <= 0 || m.NoPrice >= 1
}

// Text devuelve el texto a usar para sentimiento: RawText si existe,
// la pregunta como fallback.
func (m MarketRecord) Text() string {
	if m.RawText != "" {
		return m.RawText
	}
	return m.Question
}

// CategoryProfile mapea categoría → base rate histórico de resolución YES.
// Una categoría desconocida cae al DefaultRate (y penaliza confianza aguas abajo).
type CategoryProfile struct {
	Rates       map[string]float64
	DefaultRate float64
}

// BaseRate devuelve el base rate de la categoría y si fue reconocida.
func (p CategoryProfile) BaseRate(category string) (rate float64, known bool) {
	if r, ok := p.Rates[category]; ok {
		return r, true
	}
	return p.DefaultRate, false
}
