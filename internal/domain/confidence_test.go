package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var defaultWeights = ConfidenceWeights{Volume: 0.3, Sentiment: 0.4, Category: 0.3}

func TestConfidenceWeights_Validate(t *testing.T) {
	assert.NoError(t, defaultWeights.Validate())
}

func TestConfidenceWeights_Validate_BadSum(t *testing.T) {
	w := ConfidenceWeights{Volume: 0.5, Sentiment: 0.5, Category: 0.5}
	err := w.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfidenceWeights_Validate_Negative(t *testing.T) {
	w := ConfidenceWeights{Volume: -0.2, Sentiment: 0.9, Category: 0.3}
	assert.ErrorIs(t, w.Validate(), ErrInvalidConfig)
}

func TestConfidenceScore_KnownCategory(t *testing.T) {
	// volumen 50k con norm 100k → 0.5; s=0.8; categoría reconocida → 1.0
	// 0.3×0.5 + 0.4×0.8 + 0.3×1.0 = 0.15 + 0.32 + 0.30 = 0.77
	c := ConfidenceScore(defaultWeights, 50000, 100000, 0.8, true, 0.3)
	assert.InDelta(t, 0.77, c, 1e-9)
}

func TestConfidenceScore_UnknownCategoryPenalty(t *testing.T) {
	// mismo input pero categoría desconocida → factor 0.3
	// 0.15 + 0.32 + 0.3×0.3 = 0.56
	c := ConfidenceScore(defaultWeights, 50000, 100000, 0.8, false, 0.3)
	assert.InDelta(t, 0.56, c, 1e-9)
}

func TestConfidenceScore_VolumeFactorSaturates(t *testing.T) {
	// volumen muy por encima de la norma no pasa de 1.0
	c := ConfidenceScore(defaultWeights, 1e9, 100000, 0, true, 0.3)
	assert.InDelta(t, 0.3*1.0+0.3*1.0, c, 1e-9)
}

func TestConfidenceScore_ClampedToUnitInterval(t *testing.T) {
	for _, vol := range []float64{0, 1000, 1e12} {
		for _, s := range []float64{0, 0.5, 1} {
			c := ConfidenceScore(defaultWeights, vol, 100000, s, false, 0.3)
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0)
		}
	}
}

func TestConfidenceScore_ZeroNorm(t *testing.T) {
	// norm 0 → factor de volumen 0, sin división por cero
	c := ConfidenceScore(defaultWeights, 50000, 0, 0, true, 0.3)
	assert.InDelta(t, 0.3, c, 1e-9)
}
