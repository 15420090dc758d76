package strategy

// buy_no_early.go — la estrategia "Buy No Early".
//
// Tesis: los mercados recién listados con precio YES alto están inflados por
// hype. El base rate histórico de la categoría dice que el YES resuelve mucho
// menos de lo que el precio implica → comprar NO temprano captura el edge.

import (
	"github.com/alejandrodnm/noscan/internal/domain"
)

// BuyNoEarlyName es el nombre bajo el que se registra la estrategia.
const BuyNoEarlyName = "buy_no_early"

// BuyNoEarlyParams es la configuración inmutable de la estrategia.
type BuyNoEarlyParams struct {
	Profile             domain.CategoryProfile
	CategoryKeywords    map[string][]string
	SensationalKeywords []string
	KeywordNorm         float64 // matches que saturan el sensacionalismo
	Alpha               float64 // factor de ajuste del prior

	Weights        domain.ConfidenceWeights
	VolumeNorm     float64
	UnknownPenalty float64 // category_factor para categorías no reconocidas

	Sizing domain.SizingLimits
}

// BuyNoEarly implementa Strategy con el modelo probabilístico paramétrico
// descrito arriba. Sin estado mutable: seguro para uso concurrente.
type BuyNoEarly struct {
	p BuyNoEarlyParams
}

// NewBuyNoEarly construye la estrategia con los parámetros dados.
func NewBuyNoEarly(p BuyNoEarlyParams) *BuyNoEarly {
	return &BuyNoEarly{p: p}
}

// Name implementa Strategy.
func (s *BuyNoEarly) Name() string { return BuyNoEarlyName }

// Categorize usa la categoría explícita del registro si existe; si no,
// la deriva por keywords. "known" = la categoría está en el perfil histórico.
func (s *BuyNoEarly) Categorize(m domain.MarketRecord) (string, bool) {
	category := m.Category
	if category == "" {
		category = domain.CategorizeText(m.Text(), s.p.CategoryKeywords)
	}
	_, known := s.p.Profile.BaseRate(category)
	return category, known
}

// EstimateProbability implementa Strategy: prior de categoría ajustado
// por sensacionalismo.
func (s *BuyNoEarly) EstimateProbability(m domain.MarketRecord, category string) (trueYes, trueNo, sensationalism float64) {
	baseRate, _ := s.p.Profile.BaseRate(category)
	sensationalism = domain.SensationalismScore(m.Text(), s.p.SensationalKeywords, s.p.KeywordNorm)
	trueYes = domain.EstimateTrueYes(baseRate, sensationalism, s.p.Alpha)
	return trueYes, 1 - trueYes, sensationalism
}

// ScoreConfidence implementa Strategy.
func (s *BuyNoEarly) ScoreConfidence(m domain.MarketRecord, sensationalism float64, categoryKnown bool) float64 {
	return domain.ConfidenceScore(s.p.Weights, m.Volume, s.p.VolumeNorm, sensationalism, categoryKnown, s.p.UnknownPenalty)
}

// SizePosition implementa Strategy.
func (s *BuyNoEarly) SizePosition(kelly, capital, cash, deployed float64) float64 {
	return domain.RecommendSize(kelly, capital, cash, deployed, s.p.Sizing)
}

// BaseRate expone el base rate del perfil para display/validación.
func (s *BuyNoEarly) BaseRate(category string) (float64, bool) {
	return s.p.Profile.BaseRate(category)
}
