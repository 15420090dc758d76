package feed

// replay.go — generador de ticks de precio para el motor de ejecución.
//
// Random walk multiplicativo por mercado, sembrado para reproducibilidad.
// El rate limiter marca la cadencia real de los ticks (en los tests se usa
// rate.Inf y el replay es instantáneo).

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

// Tick es un snapshot de precios NO en un instante simulado.
type Tick struct {
	Time   time.Time
	Prices map[string]float64
}

// Replayer produce ticks sucesivos a partir de un snapshot inicial.
type Replayer struct {
	limiter *rate.Limiter
	rng     *rand.Rand
	prices  map[string]float64
	keys    []string // orden estable de iteración
	now     time.Time
	step    time.Duration
	vol     float64 // desviación máxima por paso, fracción del precio
}

// NewReplayer crea un replayer sobre los precios iniciales dados. limit
// marca los ticks por segundo de pared; step es el tiempo simulado entre
// ticks; vol la amplitud del paseo (p. ej. 0.05 = ±5% por paso).
func NewReplayer(initial map[string]float64, start time.Time, seed int64, limit rate.Limit, step time.Duration, vol float64) *Replayer {
	prices := make(map[string]float64, len(initial))
	keys := make([]string, 0, len(initial))
	for id, p := range initial {
		prices[id] = p
		keys = append(keys, id)
	}
	sort.Strings(keys)

	return &Replayer{
		limiter: rate.NewLimiter(limit, 1),
		rng:     rand.New(rand.NewSource(seed)),
		prices:  prices,
		keys:    keys,
		now:     start.UTC(),
		step:    step,
		vol:     vol,
	}
}

// Next bloquea hasta el siguiente tick y lo devuelve. El contexto cancela
// la espera del limiter.
func (r *Replayer) Next(ctx context.Context) (Tick, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Tick{}, err
	}

	r.now = r.now.Add(r.step)
	out := make(map[string]float64, len(r.prices))
	for _, id := range r.keys {
		// paso uniforme en ±vol, precio acotado al rango útil
		p := r.prices[id] * (1 + (r.rng.Float64()*2-1)*r.vol)
		p = clampPrice(p)
		r.prices[id] = p
		out[id] = p
	}
	return Tick{Time: r.now, Prices: out}, nil
}

func clampPrice(p float64) float64 {
	const floor, ceil = 0.01, 0.99
	if p < floor {
		return floor
	}
	if p > ceil {
		return ceil
	}
	return p
}
