package analyzer

// analyzer.go — pipeline de análisis por mercado.
//
// Por cada MarketRecord: validar contrato de entrada → filtros de entrada →
// categorizar + estimar probabilidad + confianza → EV y Kelly → Opportunity
// con señal BUY_NO o SKIP. Los registros inválidos se aíslan como Rejection;
// los que no pasan los filtros se descartan sin puntuar.

import (
	"context"
	"time"

	"github.com/alejandrodnm/noscan/internal/domain"
	"github.com/alejandrodnm/noscan/internal/domain/strategy"
)

// Config son los umbrales de entrada y el capital de referencia del analizador.
type Config struct {
	MaxAge              time.Duration // mercados más viejos se descartan
	MinYesPrice         float64       // el YES tiene que estar inflado
	MinVolume           float64
	MinLiquidity        float64
	MaxSpread           float64
	MinExpectedReturn   float64 // EV mínima para señal BUY_NO
	ConfidenceThreshold float64
	Capital             float64 // capital de referencia para el sizing
	Workers             int     // 0 = NumCPU×2
}

// Rejection es un registro rechazado por el contrato de entrada.
// Se reporta junto a los resultados; no aborta el batch.
type Rejection struct {
	MarketID string
	Platform string
	Err      error
}

// Analyzer aplica la estrategia configurada a cada registro de mercado.
type Analyzer struct {
	cfg   Config
	strat strategy.Strategy
}

// New crea un Analyzer con la configuración y estrategia dadas.
func New(cfg Config, strat strategy.Strategy) *Analyzer {
	return &Analyzer{cfg: cfg, strat: strat}
}

// Analyze procesa un registro. Devuelve:
//   - (opp, true, nil)  → oportunidad puntuada (BUY_NO o SKIP con razón)
//   - (_, false, nil)   → descartado por filtros de entrada, sin puntuar
//   - (_, false, err)   → registro inválido (contrato de entrada)
func (a *Analyzer) Analyze(_ context.Context, m domain.MarketRecord) (domain.Opportunity, bool, error) {
	if err := m.Validate(); err != nil {
		return domain.Opportunity{}, false, err
	}
	if !a.passesFilters(m) {
		return domain.Opportunity{}, false, nil
	}

	category, known := a.strat.Categorize(m)
	trueYes, trueNo, sens := a.strat.EstimateProbability(m, category)
	confidence := a.strat.ScoreConfidence(m, sens, known)

	opp := domain.Opportunity{
		Market:         m,
		Category:       category,
		CategoryKnown:  known,
		Sensationalism: sens,
		TrueYes:        trueYes,
		TrueNo:         trueNo,
		Edge:           trueNo - m.NoPrice,
		Confidence:     confidence,
		AnalyzedAt:     time.Now().UTC(),
	}

	// Odds indefinidas con precio 0/1: SKIP, no error.
	odds, ok := domain.Odds(m.NoPrice)
	if !ok {
		opp.Signal = domain.SignalSkip
		opp.SkipReason = domain.SkipDegeneratePrice
		return opp, true, nil
	}

	opp.ExpectedValue = domain.ExpectedValue(trueNo, m.NoPrice, 0, 0)
	opp.KellyFraction = domain.KellyFraction(trueNo, odds)

	if opp.KellyFraction <= 0 {
		opp.Signal = domain.SignalSkip
		opp.SkipReason = domain.SkipNoEdge
		return opp, true, nil
	}

	opp.RecommendedSize = a.strat.SizePosition(opp.KellyFraction, a.cfg.Capital, a.cfg.Capital, 0)

	// Señal: la primera condición que falla da la razón.
	switch {
	case opp.ExpectedValue < a.cfg.MinExpectedReturn:
		opp.Signal = domain.SignalSkip
		opp.SkipReason = domain.SkipLowEV
	case opp.Confidence < a.cfg.ConfidenceThreshold:
		opp.Signal = domain.SignalSkip
		opp.SkipReason = domain.SkipLowConfidence
	default:
		opp.Signal = domain.SignalBuyNo
	}
	return opp, true, nil
}

// passesFilters aplica los filtros de entrada. Fallar cualquiera descarta
// el registro sin puntuarlo.
func (a *Analyzer) passesFilters(m domain.MarketRecord) bool {
	if a.cfg.MaxAge > 0 && m.Age > a.cfg.MaxAge {
		return false
	}
	if m.YesPrice < a.cfg.MinYesPrice {
		return false
	}
	if m.Volume < a.cfg.MinVolume {
		return false
	}
	if m.Liquidity < a.cfg.MinLiquidity {
		return false
	}
	if a.cfg.MaxSpread > 0 && m.Spread > a.cfg.MaxSpread {
		return false
	}
	return true
}
