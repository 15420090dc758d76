package domain

import "errors"

// Errores centinela del core. Los fallos por registro se aíslan y se reportan
// junto a los resultados; solo la configuración inválida aborta el run.
var (
	// ErrInvalidMarketData: campo requerido ausente o precio fuera de rango.
	ErrInvalidMarketData = errors.New("invalid market data")

	// ErrInvalidConfig: la configuración no pasa la validación de arranque.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrPositionNotFound: cierre manual sobre un mercado sin posición abierta.
	ErrPositionNotFound = errors.New("position not found")
)
