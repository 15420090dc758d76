package domain

// value.go — valor esperado y sizing por criterio de Kelly.
//
// La estrategia siempre compra NO: paga N por share y recibe $1 si el
// mercado resuelve NO. Forma de Kelly adoptada: la EV-céntrica
// (b·p − q)/b — es la que usan los ejemplos numéricos de referencia.

// ExpectedValue es el valor esperado de comprar NO a precio noPrice con
// probabilidad real trueNo, por unidad apostada:
//
//	EV = p·(1−N) − (1−p)·N − fee·tradeValue
//
// tradeValue = 0 da la EV de screening (sin término de fee); las fees
// reales se cobran en la simulación/ejecución, no aquí.
func ExpectedValue(trueNo, noPrice, feeRate, tradeValue float64) float64 {
	return trueNo*(1-noPrice) - (1-trueNo)*noPrice - feeRate*tradeValue
}

// Odds devuelve las odds netas b = (1−N)/N de comprar NO a precio N.
// ok es false cuando N es 0 o 1: odds indefinidas (mercado degenerado).
func Odds(noPrice float64) (b float64, ok bool) {
	if noPrice <= 0 || noPrice >= 1 {
		return 0, false
	}
	return (1 - noPrice) / noPrice, true
}

// KellyFraction devuelve la fracción de Kelly (b·p − q)/b capada a [0,1].
// Un Kelly crudo negativo (sin edge) devuelve 0 — señal de SKIP.
func KellyFraction(trueNo, odds float64) float64 {
	if odds <= 0 {
		return 0
	}
	q := 1 - trueNo
	return clamp01((odds*trueNo - q) / odds)
}

// SizingLimits acota el tamaño recomendado de posición.
type SizingLimits struct {
	SafetyFactor float64 // Kelly fraccional: escala el Kelly crudo
	MinPosition  float64 // USDC
	MaxPosition  float64 // USDC
	MaxExposure  float64 // fracción del capital total desplegable a la vez
}

// RecommendSize convierte una fracción de Kelly en USDC:
//
//	size = kelly × capital × safety
//
// acotado a [MinPosition, MaxPosition] y capado después para no exceder
// ni el cash disponible ni la exposición total máxima (capital×MaxExposure
// menos lo ya desplegado). Devuelve 0 si no queda hueco.
func RecommendSize(kelly, capital, cash, deployed float64, lim SizingLimits) float64 {
	if kelly <= 0 || capital <= 0 {
		return 0
	}

	size := kelly * capital * lim.SafetyFactor
	if size < lim.MinPosition {
		size = lim.MinPosition
	}
	if lim.MaxPosition > 0 && size > lim.MaxPosition {
		size = lim.MaxPosition
	}

	if lim.MaxExposure > 0 {
		if room := capital*lim.MaxExposure - deployed; size > room {
			size = room
		}
	}
	if size > cash {
		size = cash
	}

	if size <= 0 {
		return 0
	}
	return size
}
