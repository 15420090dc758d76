package backtest

// trial.go — un trial Monte Carlo: simula el ciclo completo de cada
// oportunidad BUY_NO contra un track de capital propio.
//
// Por oportunidad: fill con slippage adverso + fee de entrada, hold uniforme
// en el rango configurado, resolución Bernoulli con p = true_no. Si gana,
// cada share paga $1; si pierde, la posición vale 0. Fee de salida sobre
// los proceeds.

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/alejandrodnm/noscan/internal/domain"
)

// Las entradas simuladas se escalonan 30 min para que el ledger tenga una
// línea temporal plausible; las métricas no dependen de la fecha base.
const entryStagger = 30 * time.Minute

var trialEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func (e *Engine) runTrial(trial int, seed int64, rng *rand.Rand, opps []domain.Opportunity) domain.SimulationRun {
	capital := e.cfg.InitialCapital
	trades := make([]domain.Trade, 0, len(opps))

	for i, opp := range opps {
		entryTime := trialEpoch.Add(time.Duration(i) * entryStagger)

		// Slippage adverso: compramos NO más caro de lo cotizado.
		entryPrice := opp.Market.NoPrice * (1 + e.cfg.Slippage)
		if entryPrice >= 1 {
			continue // el slippage empujó el precio fuera del rango útil
		}

		size := opp.RecommendedSize
		if maxSize := capital * e.cfg.PerTradeCap; size > maxSize {
			size = maxSize
		}
		entryFee := size * e.cfg.FeeRate
		cost := size + entryFee
		if size <= 0 || cost > capital {
			continue // admission control del trial: sin capital no hay trade
		}

		shares := size / entryPrice
		capital -= cost

		hold := e.cfg.MinHold + time.Duration(rng.Float64()*float64(e.cfg.MaxHold-e.cfg.MinHold))
		exitTime := entryTime.Add(hold)

		// Resolución Bernoulli: draw < true_yes → el YES ocurre y el NO pierde.
		win := rng.Float64() >= opp.TrueYes

		var exitPrice, proceeds, exitFee float64
		if win {
			exitPrice = 1.0
			gross := shares * exitPrice
			exitFee = gross * e.cfg.FeeRate
			proceeds = gross - exitFee
		}
		capital += proceeds

		trades = append(trades, domain.Trade{
			ID:          fmt.Sprintf("t%d-%d", trial, i),
			MarketID:    opp.Market.ID,
			Question:    opp.Market.Question,
			Side:        "No",
			EntryPrice:  entryPrice,
			ExitPrice:   exitPrice,
			Shares:      shares,
			Cost:        cost,
			EntryTime:   entryTime,
			ExitTime:    exitTime,
			ExitReason:  domain.ExitResolved,
			FeesPaid:    entryFee + exitFee,
			RealizedPnL: proceeds - cost,
		})
	}

	return domain.SimulationRun{
		Trial:   trial,
		Seed:    seed,
		Trades:  trades,
		Metrics: domain.ComputeTrialMetrics(e.cfg.InitialCapital, trades),
	}
}
