package domain

// confidence.go — score de confianza [0,1] de una estimación.
//
// Combina tres señales: volumen (mercados líquidos dan precios más fiables),
// sensacionalismo (texto cargado = señal más clara para esta estrategia) y
// calidad de la categorización (categoría reconocida = prior más fiable).

import "fmt"

// ConfidenceWeights son los pesos de cada factor. Deben sumar 1.
type ConfidenceWeights struct {
	Volume    float64
	Sentiment float64
	Category  float64
}

// Validate comprueba que los pesos sean no-negativos y sumen 1.
// Un error aquí es fatal al arranque — el core no corre con pesos inválidos.
func (w ConfidenceWeights) Validate() error {
	if w.Volume < 0 || w.Sentiment < 0 || w.Category < 0 {
		return fmt.Errorf("confidence weights must be non-negative: %w", ErrInvalidConfig)
	}
	sum := w.Volume + w.Sentiment + w.Category
	if sum < 1-1e-6 || sum > 1+1e-6 {
		return fmt.Errorf("confidence weights sum to %.4f, expected 1: %w", sum, ErrInvalidConfig)
	}
	return nil
}

// ConfidenceScore calcula la confianza combinada:
//
//	confidence = w_v·volume_factor + w_sent·s + w_cat·category_factor
//
// volume_factor = min(volume/volumeNorm, 1). category_factor = 1 si la
// categoría fue reconocida, unknownPenalty si no. Resultado capado a [0,1].
func ConfidenceScore(
	w ConfidenceWeights,
	volume, volumeNorm, sensationalism float64,
	categoryKnown bool,
	unknownPenalty float64,
) float64 {
	volumeFactor := 0.0
	if volumeNorm > 0 {
		volumeFactor = clamp01(volume / volumeNorm)
	}

	categoryFactor := unknownPenalty
	if categoryKnown {
		categoryFactor = 1.0
	}

	return clamp01(w.Volume*volumeFactor + w.Sentiment*sensationalism + w.Category*categoryFactor)
}
