package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del pipeline.
type Config struct {
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Backtest  BacktestConfig  `yaml:"backtest"`
	Execution ExecutionConfig `yaml:"execution"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// AnalyzerConfig controla los filtros de entrada y umbrales de señal.
type AnalyzerConfig struct {
	MaxAgeMinutes       int     `yaml:"max_age_minutes"`      // solo mercados jóvenes
	MinYesPrice         float64 `yaml:"min_yes_price"`        // solo YES inflado
	MinVolumeUSDC       float64 `yaml:"min_volume_usdc"`      // liquidez mínima para salir
	MinLiquidityUSDC    float64 `yaml:"min_liquidity_usdc"`
	MaxSpread           float64 `yaml:"max_spread"`
	MinExpectedReturn   float64 `yaml:"min_expected_return"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	CapitalUSDC         float64 `yaml:"capital_usdc"`
	Workers             int     `yaml:"workers"`
}

// WeightsConfig son los pesos del score de confianza. Deben sumar 1.
type WeightsConfig struct {
	Volume    float64 `yaml:"volume"`
	Sentiment float64 `yaml:"sentiment"`
	Category  float64 `yaml:"category"`
}

// SizingConfig son los límites del sizing Kelly fraccional.
type SizingConfig struct {
	SafetyFactor float64 `yaml:"safety_factor"` // fracción del Kelly pleno
	MinPosition  float64 `yaml:"min_position"`
	MaxPosition  float64 `yaml:"max_position"`
	MaxExposure  float64 `yaml:"max_exposure"` // fracción del capital total
}

// StrategyConfig parametriza la estrategia buy_no_early.
type StrategyConfig struct {
	Name                string              `yaml:"name"`
	Alpha               float64             `yaml:"alpha"`        // descuento por sensacionalismo
	KeywordNorm         int                 `yaml:"keyword_norm"` // matches que saturan el score
	VolumeNorm          float64             `yaml:"volume_norm"`
	UnknownPenalty      float64             `yaml:"unknown_penalty"`
	Weights             WeightsConfig       `yaml:"weights"`
	BaseRates           map[string]float64  `yaml:"base_rates"`
	DefaultRate         float64             `yaml:"default_rate"`
	CategoryKeywords    map[string][]string `yaml:"category_keywords"`
	SensationalKeywords []string            `yaml:"sensational_keywords"`
	Sizing              SizingConfig        `yaml:"sizing"`
}

// BacktestConfig controla la simulación Monte Carlo.
type BacktestConfig struct {
	Trials         int     `yaml:"trials"`
	Seed           int64   `yaml:"seed"`
	FeeRate        float64 `yaml:"fee_rate"`
	Slippage       float64 `yaml:"slippage"`
	MinHoldMinutes int     `yaml:"min_hold_minutes"`
	MaxHoldMinutes int     `yaml:"max_hold_minutes"`
	PerTradeCap    float64 `yaml:"per_trade_cap"`
	Workers        int     `yaml:"workers"`
}

// ExecutionConfig controla el motor de ejecución paper.
type ExecutionConfig struct {
	StopLossPct    float64 `yaml:"stop_loss_pct"`
	TakeProfitPct  float64 `yaml:"take_profit_pct"`
	MaxHoldMinutes int     `yaml:"max_hold_minutes"`
	MaxConcurrent  int     `yaml:"max_concurrent"`
	FeeRate        float64 `yaml:"fee_rate"`
	Ticks          int     `yaml:"ticks"`          // ticks simulados en modo paper
	TickMinutes    int     `yaml:"tick_minutes"`   // tiempo simulado entre ticks
	TickVolatility float64 `yaml:"tick_volatility"` // amplitud del random walk
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default devuelve la configuración con todos los valores por defecto,
// sin leer archivo. Útil para demos y tests.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

// Validate comprueba las condiciones fatales de arranque.
func (c *Config) Validate() error {
	w := c.Strategy.Weights
	if w.Volume < 0 || w.Sentiment < 0 || w.Category < 0 {
		return fmt.Errorf("config.Validate: confidence weights must be non-negative")
	}
	if sum := w.Volume + w.Sentiment + w.Category; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("config.Validate: confidence weights sum to %.6f, want 1", sum)
	}
	if c.Strategy.Alpha < 0 || c.Strategy.Alpha > 1 {
		return fmt.Errorf("config.Validate: alpha %.4f outside [0,1]", c.Strategy.Alpha)
	}
	if c.Strategy.Sizing.MinPosition > c.Strategy.Sizing.MaxPosition {
		return fmt.Errorf("config.Validate: min_position %.2f > max_position %.2f",
			c.Strategy.Sizing.MinPosition, c.Strategy.Sizing.MaxPosition)
	}
	if c.Analyzer.CapitalUSDC <= 0 {
		return fmt.Errorf("config.Validate: capital must be > 0")
	}
	return nil
}

// MaxMarketAge devuelve la edad máxima de mercado como time.Duration.
func (c *Config) MaxMarketAge() time.Duration {
	return time.Duration(c.Analyzer.MaxAgeMinutes) * time.Minute
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("NOSCAN_DB"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// Los defaults reproducen el perfil "buy no early" de referencia.
func setDefaults(cfg *Config) {
	a := &cfg.Analyzer
	if a.MaxAgeMinutes <= 0 {
		a.MaxAgeMinutes = 20
	}
	if a.MinYesPrice <= 0 {
		a.MinYesPrice = 0.70
	}
	if a.MinVolumeUSDC <= 0 {
		a.MinVolumeUSDC = 1000
	}
	if a.MinLiquidityUSDC <= 0 {
		a.MinLiquidityUSDC = 500
	}
	if a.MaxSpread <= 0 {
		a.MaxSpread = 0.10
	}
	if a.MinExpectedReturn <= 0 {
		a.MinExpectedReturn = 0.10
	}
	if a.ConfidenceThreshold <= 0 {
		a.ConfidenceThreshold = 0.60
	}
	if a.CapitalUSDC <= 0 {
		a.CapitalUSDC = 10000
	}

	s := &cfg.Strategy
	if s.Name == "" {
		s.Name = "buy_no_early"
	}
	if s.Alpha == 0 {
		s.Alpha = 0.5
	}
	if s.KeywordNorm <= 0 {
		s.KeywordNorm = 3
	}
	if s.VolumeNorm <= 0 {
		s.VolumeNorm = 100000
	}
	if s.UnknownPenalty == 0 {
		s.UnknownPenalty = 0.3
	}
	if s.Weights == (WeightsConfig{}) {
		s.Weights = WeightsConfig{Volume: 0.3, Sentiment: 0.4, Category: 0.3}
	}
	if len(s.BaseRates) == 0 {
		s.BaseRates = map[string]float64{
			"crypto":        0.18,
			"politics":      0.25,
			"sports":        0.48,
			"weather":       0.35,
			"finance":       0.28,
			"entertainment": 0.20,
			"technology":    0.22,
		}
	}
	if s.DefaultRate == 0 {
		s.DefaultRate = 0.22
	}
	if len(s.CategoryKeywords) == 0 {
		s.CategoryKeywords = map[string][]string{
			"crypto":        {"bitcoin", "ethereum", "token", "crypto", "coin", "blockchain"},
			"politics":      {"president", "election", "senate", "congress", "resign", "vote"},
			"sports":        {"championship", "match", "team", "league", "playoff"},
			"weather":       {"rain", "snow", "hurricane", "temperature", "storm"},
			"finance":       {"stock", "fed", "inflation", "recession", "earnings"},
			"entertainment": {"movie", "album", "oscar", "celebrity", "grammy"},
			"technology":    {"ai", "iphone", "chip", "startup", "software"},
		}
	}
	if len(s.SensationalKeywords) == 0 {
		s.SensationalKeywords = []string{
			"shocking", "scandal", "war", "crash", "collapse", "crisis",
			"bombshell", "explosive", "chaos", "disaster", "panic",
			"meltdown", "unprecedented",
		}
	}
	if s.Sizing == (SizingConfig{}) {
		s.Sizing = SizingConfig{SafetyFactor: 0.25, MinPosition: 100, MaxPosition: 1000, MaxExposure: 1.0}
	}

	b := &cfg.Backtest
	if b.Trials <= 0 {
		b.Trials = 1000
	}
	if b.Seed == 0 {
		b.Seed = 42
	}
	if b.FeeRate <= 0 {
		b.FeeRate = 0.02
	}
	if b.Slippage <= 0 {
		b.Slippage = 0.01
	}
	if b.MinHoldMinutes <= 0 {
		b.MinHoldMinutes = 60
	}
	if b.MaxHoldMinutes <= 0 {
		b.MaxHoldMinutes = 4320 // 3 días
	}
	if b.PerTradeCap <= 0 {
		b.PerTradeCap = 0.2
	}

	e := &cfg.Execution
	if e.StopLossPct <= 0 {
		e.StopLossPct = 0.15
	}
	if e.TakeProfitPct <= 0 {
		e.TakeProfitPct = 0.30
	}
	if e.MaxHoldMinutes <= 0 {
		e.MaxHoldMinutes = 4320
	}
	if e.MaxConcurrent <= 0 {
		e.MaxConcurrent = 5
	}
	if e.FeeRate <= 0 {
		e.FeeRate = 0.02
	}
	if e.Ticks <= 0 {
		e.Ticks = 200
	}
	if e.TickMinutes <= 0 {
		e.TickMinutes = 30
	}
	if e.TickVolatility <= 0 {
		e.TickVolatility = 0.05
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "noscan.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
