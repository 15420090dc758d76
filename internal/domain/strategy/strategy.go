package strategy

// strategy.go — contrato de capacidades de una estrategia y su registro.
//
// Las variantes se seleccionan por configuración (nombre → implementación),
// no por herencia: cada estrategia es un value object construido con su
// propia configuración inmutable.

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alejandrodnm/noscan/internal/domain"
)

// Strategy define las capacidades que el analizador necesita de una
// estrategia: categorizar, estimar probabilidad, puntuar confianza y
// dimensionar la posición.
type Strategy interface {
	// Name devuelve el nombre registrado de la estrategia.
	Name() string

	// Categorize deriva la categoría del mercado (explícita o por keywords)
	// y si fue reconocida en el perfil histórico.
	Categorize(m domain.MarketRecord) (category string, known bool)

	// EstimateProbability devuelve la probabilidad real estimada de
	// resolución YES/NO y el score de sensacionalismo usado.
	EstimateProbability(m domain.MarketRecord, category string) (trueYes, trueNo, sensationalism float64)

	// ScoreConfidence puntúa la confianza [0,1] de la estimación.
	ScoreConfidence(m domain.MarketRecord, sensationalism float64, categoryKnown bool) float64

	// SizePosition convierte una fracción de Kelly en USDC recomendados,
	// dado el capital total, el cash disponible y lo ya desplegado.
	SizePosition(kelly, capital, cash, deployed float64) float64
}

// Registry mantiene las estrategias disponibles, seleccionables por nombre.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry devuelve un registro vacío.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register añade una estrategia bajo su propio nombre.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Get devuelve la estrategia registrada con ese nombre.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("strategy %q not registered (have %v)", name, r.names())
	}
	return s, nil
}

// List devuelve los nombres registrados, ordenados.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.strategies))
	for n := range r.strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
