package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/noscan/internal/domain"
)

// Storage persiste los resultados de análisis y los trades cerrados.
type Storage interface {
	// SaveAnalysis persiste las oportunidades de un ciclo de análisis
	// bajo el run indicado.
	SaveAnalysis(ctx context.Context, runID string, opportunities []domain.Opportunity) error

	// SaveTrades persiste los trades cerrados de un run.
	SaveTrades(ctx context.Context, runID string, trades []domain.Trade) error

	// GetTrades devuelve los trades cerrados en el rango de tiempo dado.
	GetTrades(ctx context.Context, from, to time.Time) ([]domain.Trade, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
