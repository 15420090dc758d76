package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var start = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestSynthetic_FetchMarkets(t *testing.T) {
	s := NewSynthetic(start)
	records, err := s.FetchMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 5)

	ids := make(map[string]bool)
	for _, m := range records {
		ids[m.ID] = true
		assert.NotEmpty(t, m.Platform)
		assert.NotEmpty(t, m.Question)
	}
	assert.True(t, ids["syn-newsom-token"])
	assert.True(t, ids["syn-sure-thing"])

	// el snapshot incluye un precio degenerado a propósito
	var degenerates int
	for _, m := range records {
		if m.DegeneratePrice() {
			degenerates++
		}
	}
	assert.Equal(t, 1, degenerates)
}

func TestSynthetic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSynthetic(start).FetchMarkets(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplayer_Deterministic(t *testing.T) {
	initial := map[string]float64{"m1": 0.20, "m2": 0.25}

	mk := func() *Replayer {
		return NewReplayer(initial, start, 42, rate.Inf, 5*time.Minute, 0.05)
	}

	a, b := mk(), mk()
	for i := 0; i < 50; i++ {
		ta, err := a.Next(context.Background())
		require.NoError(t, err)
		tb, err := b.Next(context.Background())
		require.NoError(t, err)

		assert.Equal(t, ta.Time, tb.Time)
		assert.Equal(t, ta.Prices, tb.Prices)
	}
}

func TestReplayer_AdvancesSimulatedClock(t *testing.T) {
	r := NewReplayer(map[string]float64{"m1": 0.20}, start, 1, rate.Inf, 5*time.Minute, 0.05)

	t1, err := r.Next(context.Background())
	require.NoError(t, err)
	t2, err := r.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, start.Add(5*time.Minute), t1.Time)
	assert.Equal(t, start.Add(10*time.Minute), t2.Time)
}

func TestReplayer_PricesStayInRange(t *testing.T) {
	r := NewReplayer(map[string]float64{"m1": 0.02, "m2": 0.97}, start, 7, rate.Inf, time.Minute, 0.5)
	for i := 0; i < 500; i++ {
		tick, err := r.Next(context.Background())
		require.NoError(t, err)
		for id, p := range tick.Prices {
			assert.GreaterOrEqual(t, p, 0.01, id)
			assert.LessOrEqual(t, p, 0.99, id)
		}
	}
}

func TestReplayer_ContextCancelsWait(t *testing.T) {
	// limiter a 1 tick/hora: el primer token sale, el segundo bloquea
	r := NewReplayer(map[string]float64{"m1": 0.20}, start, 1, rate.Every(time.Hour), time.Minute, 0.05)
	_, err := r.Next(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Next(ctx)
	assert.Error(t, err)
}
