package domain

import (
	"sort"
	"time"
)

// Signal es la decisión del analizador sobre un mercado.
type Signal string

const (
	SignalBuyNo Signal = "BUY_NO"
	SignalSkip  Signal = "SKIP"
)

// Razones de SKIP. Se asigna la primera condición que falla.
const (
	SkipDegeneratePrice = "degenerate price"
	SkipNoEdge          = "no edge"
	SkipLowEV           = "expected value below minimum"
	SkipLowConfidence   = "confidence below threshold"
)

// Opportunity es el resultado del análisis de un mercado. Inmutable una vez
// producida; los consumidores no deben modificarla.
type Opportunity struct {
	Market MarketRecord

	Category      string
	CategoryKnown bool

	Sensationalism float64
	TrueYes        float64
	TrueNo         float64 // TrueYes + TrueNo = 1
	Edge           float64 // TrueNo − no_price

	ExpectedValue   float64
	Confidence      float64
	KellyFraction   float64 // capado a [0,1]
	RecommendedSize float64 // USDC, ya acotado por los límites de sizing

	Signal     Signal
	SkipReason string // solo con SignalSkip
	AnalyzedAt time.Time
}

// IsBuy devuelve true si la oportunidad es accionable.
func (o Opportunity) IsBuy() bool {
	return o.Signal == SignalBuyNo
}

// SortOpportunities ordena por expected value descendente; empates por
// confianza descendente. Orden estable para output reproducible.
func SortOpportunities(opps []Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].ExpectedValue != opps[j].ExpectedValue {
			return opps[i].ExpectedValue > opps[j].ExpectedValue
		}
		return opps[i].Confidence > opps[j].Confidence
	})
}
