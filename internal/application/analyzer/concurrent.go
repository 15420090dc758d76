package analyzer

// concurrent.go — worker pool para análisis paralelo de mercados.
//
// El análisis por registro es puro (la estrategia no tiene estado mutable),
// así que los workers no comparten nada: cada uno consume del workCh y
// emite su resultado. El orden final lo impone el sort por EV, no el pool.

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/alejandrodnm/noscan/internal/domain"
)

type result struct {
	opp      domain.Opportunity
	scored   bool
	rejected *Rejection
}

// AnalyzeAll procesa todos los registros en paralelo y devuelve las
// oportunidades ordenadas (EV desc, confianza desc) junto a los registros
// rechazados por el contrato de entrada.
func (a *Analyzer) AnalyzeAll(ctx context.Context, records []domain.MarketRecord) ([]domain.Opportunity, []Rejection) {
	workers := a.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	workCh := make(chan domain.MarketRecord, len(records))
	resultCh := make(chan result, len(records))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range workCh {
				opp, scored, err := a.Analyze(ctx, m)
				if err != nil {
					resultCh <- result{rejected: &Rejection{
						MarketID: m.ID,
						Platform: m.Platform,
						Err:      err,
					}}
					continue
				}
				if !scored {
					slog.Debug("market dropped by entry filters",
						"market", m.ID,
						"age", m.Age,
						"yes_price", m.YesPrice,
					)
					continue
				}
				resultCh <- result{opp: opp, scored: true}
			}
		}()
	}

	for _, m := range records {
		workCh <- m
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	opps := make([]domain.Opportunity, 0, len(records))
	var rejections []Rejection
	for r := range resultCh {
		if r.rejected != nil {
			rejections = append(rejections, *r.rejected)
			continue
		}
		opps = append(opps, r.opp)
	}

	domain.SortOpportunities(opps)
	// Orden estable también para los rechazos: output reproducible.
	sort.Slice(rejections, func(i, j int) bool { return rejections[i].MarketID < rejections[j].MarketID })

	slog.Debug("analysis complete",
		"records", len(records),
		"scored", len(opps),
		"rejected", len(rejections),
		"workers", workers,
	)
	return opps, rejections
}
