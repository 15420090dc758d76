package feed

// synthetic.go — proveedor de mercados sintético para demos y runs
// reproducibles. Sin red: el snapshot es un fixture determinista que cubre
// los caminos del analizador (señal BUY_NO, filtros de entrada, precio
// degenerado).

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/noscan/internal/domain"
)

// Synthetic implementa ports.MarketProvider con un snapshot fijo.
type Synthetic struct {
	now time.Time
}

// NewSynthetic crea el proveedor. now ancla los ListedAt del snapshot.
func NewSynthetic(now time.Time) *Synthetic {
	return &Synthetic{now: now.UTC()}
}

// FetchMarkets devuelve el snapshot sintético. Nunca falla.
func (s *Synthetic) FetchMarkets(ctx context.Context) ([]domain.MarketRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := s.snapshot()
	slog.Debug("synthetic feed", "markets", len(records))
	return records, nil
}

func (s *Synthetic) snapshot() []domain.MarketRecord {
	return []domain.MarketRecord{
		{
			Platform:  "Polymarket",
			ID:        "syn-civil-war",
			Question:  "Will there be a US civil war in 2025?",
			YesPrice:  0.65, // bajo el umbral de entrada: no hay hype que vender
			NoPrice:   0.35,
			Volume:    80000,
			Liquidity: 4000,
			Spread:    0.03,
			Age:       12 * time.Minute,
			ListedAt:  s.now.Add(-12 * time.Minute),
		},
		{
			Platform:  "Polymarket",
			ID:        "syn-newsom-token",
			Question:  "Will Gavin Newsom launch a token in September?",
			RawText:   "Shocking: insiders say the token launch is imminent",
			YesPrice:  0.80,
			NoPrice:   0.20,
			Volume:    150000,
			Liquidity: 9000,
			Spread:    0.02,
			Age:       5 * time.Minute,
			ListedAt:  s.now.Add(-5 * time.Minute),
		},
		{
			Platform:  "Polymarket",
			ID:        "syn-opensea-token",
			Question:  "Will OpenSea launch a token by October 31?",
			RawText:   "Crypto twitter calls it a shocking comeback",
			YesPrice:  0.75,
			NoPrice:   0.25,
			Volume:    100000,
			Liquidity: 6000,
			Spread:    0.04,
			Age:       9 * time.Minute,
			ListedAt:  s.now.Add(-9 * time.Minute),
		},
		{
			Platform:  "Kalshi",
			ID:        "syn-london-rain",
			Question:  "Will it rain in London tomorrow?",
			YesPrice:  0.40, // mercado tranquilo, fuera del perfil de la estrategia
			NoPrice:   0.60,
			Volume:    20000,
			Liquidity: 2000,
			Spread:    0.02,
			Age:       15 * time.Minute,
			ListedAt:  s.now.Add(-15 * time.Minute),
		},
		{
			Platform:  "Polymarket",
			ID:        "syn-sure-thing",
			Question:  "Will the sun rise tomorrow?",
			YesPrice:  1.00, // precio degenerado: odds indefinidas
			NoPrice:   0.00,
			Volume:    500000,
			Liquidity: 20000,
			Spread:    0.00,
			Age:       3 * time.Minute,
			ListedAt:  s.now.Add(-3 * time.Minute),
		},
	}
}
