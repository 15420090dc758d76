package ports

import (
	"context"

	"github.com/alejandrodnm/noscan/internal/domain"
)

// MarketProvider obtiene el snapshot de mercados binarios a analizar.
type MarketProvider interface {
	// FetchMarkets devuelve los registros de mercado disponibles.
	// El orden no está garantizado; el analizador reordena.
	FetchMarkets(ctx context.Context) ([]domain.MarketRecord, error)
}
