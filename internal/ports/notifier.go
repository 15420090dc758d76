package ports

import (
	"context"

	"github.com/alejandrodnm/noscan/internal/domain"
)

// Notifier presenta resultados al usuario.
type Notifier interface {
	// Notify muestra las oportunidades ordenadas por expected value.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, opportunities []domain.Opportunity) error

	// PrintBacktest muestra el agregado de un backtest Monte Carlo.
	PrintBacktest(ctx context.Context, result domain.BacktestResult) error

	// PrintLedger muestra el ledger de trades y el estado del portfolio.
	PrintLedger(ctx context.Context, trades []domain.Trade, summary domain.PortfolioSummary) error
}
