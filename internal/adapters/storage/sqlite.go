package storage

// sqlite.go — persistencia de análisis y trades.
//
// Estrategia:
//   - `runs`: resumen ligero por ciclo de análisis (conteos, mejor EV). 1 fila.
//   - `opportunities`: UNA fila por mercado (UPSERT) con la última puntuación
//     y el pico de EV observado. El histórico fino no aporta: el ledger de
//     trades es la fuente de verdad de lo ejecutado.
//   - `trades`: append-only, una fila por posición cerrada.
//   - Prune automático al arrancar: runs > 30d, opportunities no vistas en 14d.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/noscan/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen ligero por ciclo de análisis
CREATE TABLE IF NOT EXISTS runs (
    id         TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL,
    total      INTEGER  NOT NULL DEFAULT 0,
    buys       INTEGER  NOT NULL DEFAULT 0,
    best_ev    REAL     NOT NULL DEFAULT 0
);

-- Una fila por mercado analizado, sin duplicados
CREATE TABLE IF NOT EXISTS opportunities (
    market_id      TEXT PRIMARY KEY,
    platform       TEXT    NOT NULL,
    question       TEXT,
    category       TEXT    NOT NULL,
    category_known INTEGER NOT NULL DEFAULT 0,
    sensationalism REAL    NOT NULL DEFAULT 0,
    true_yes       REAL    NOT NULL DEFAULT 0,
    true_no        REAL    NOT NULL DEFAULT 0,
    edge           REAL    NOT NULL DEFAULT 0,
    expected_value REAL    NOT NULL DEFAULT 0,
    confidence     REAL    NOT NULL DEFAULT 0,
    kelly          REAL    NOT NULL DEFAULT 0,
    size           REAL    NOT NULL DEFAULT 0,
    signal         TEXT    NOT NULL,
    skip_reason    TEXT    NOT NULL DEFAULT '',
    first_seen     DATETIME NOT NULL,
    last_seen      DATETIME NOT NULL,
    peak_ev        REAL    NOT NULL DEFAULT 0
);

-- Ledger de posiciones cerradas, append-only
CREATE TABLE IF NOT EXISTS trades (
    id           TEXT PRIMARY KEY,
    run_id       TEXT NOT NULL,
    market_id    TEXT NOT NULL,
    question     TEXT,
    side         TEXT NOT NULL,
    entry_price  REAL NOT NULL,
    exit_price   REAL NOT NULL,
    shares       REAL NOT NULL,
    cost         REAL NOT NULL,
    entry_time   DATETIME NOT NULL,
    exit_time    DATETIME NOT NULL,
    exit_reason  TEXT NOT NULL,
    fees_paid    REAL NOT NULL DEFAULT 0,
    realized_pnl REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_at    ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_opp_last   ON opportunities(last_seen DESC);
CREATE INDEX IF NOT EXISTS idx_opp_ev     ON opportunities(expected_value DESC);
CREATE INDEX IF NOT EXISTS idx_trades_at  ON trades(exit_time DESC);
CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
`

const (
	retentionRuns = 30 * 24 * time.Hour // runs: 30 días
	retentionOpps = 14 * 24 * time.Hour // oportunidades: 14 días (los mercados jóvenes resuelven antes)
)

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveAnalysis persiste el resumen del run y hace upsert de cada oportunidad
// puntuada, conservando first_seen y el pico de EV.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, runID string, opportunities []domain.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	now := time.Now().UTC()

	buys, bestEV := runSummary(opportunities)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, total, buys, best_ev) VALUES (?, ?, ?, ?, ?)`,
		runID, now, len(opportunities), buys, bestEV,
	); err != nil {
		return fmt.Errorf("storage.SaveAnalysis: insert run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveAnalysis: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO opportunities
			(market_id, platform, question, category, category_known,
			 sensationalism, true_yes, true_no, edge, expected_value,
			 confidence, kelly, size, signal, skip_reason,
			 first_seen, last_seen, peak_ev)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(market_id) DO UPDATE SET
			question       = excluded.question,
			category       = excluded.category,
			category_known = excluded.category_known,
			sensationalism = excluded.sensationalism,
			true_yes       = excluded.true_yes,
			true_no        = excluded.true_no,
			edge           = excluded.edge,
			expected_value = excluded.expected_value,
			confidence     = excluded.confidence,
			kelly          = excluded.kelly,
			size           = excluded.size,
			signal         = excluded.signal,
			skip_reason    = excluded.skip_reason,
			last_seen      = excluded.last_seen,
			peak_ev        = MAX(peak_ev, excluded.expected_value)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveAnalysis: prepare: %w", err)
	}
	defer stmt.Close()

	for _, opp := range opportunities {
		known := 0
		if opp.CategoryKnown {
			known = 1
		}
		if _, err := stmt.ExecContext(ctx,
			opp.Market.ID,
			opp.Market.Platform,
			opp.Market.Question,
			opp.Category,
			known,
			opp.Sensationalism,
			opp.TrueYes,
			opp.TrueNo,
			opp.Edge,
			opp.ExpectedValue,
			opp.Confidence,
			opp.KellyFraction,
			opp.RecommendedSize,
			string(opp.Signal),
			opp.SkipReason,
			now, // first_seen: ignorado en ON CONFLICT (no se sobreescribe)
			now, // last_seen
			opp.ExpectedValue,
		); err != nil {
			return fmt.Errorf("storage.SaveAnalysis: upsert %s: %w", opp.Market.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveAnalysis: commit: %w", err)
	}
	return nil
}

// SaveTrades persiste los trades cerrados de un run. Append-only.
func (s *SQLiteStorage) SaveTrades(ctx context.Context, runID string, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveTrades: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
			(id, run_id, market_id, question, side, entry_price, exit_price,
			 shares, cost, entry_time, exit_time, exit_reason, fees_paid, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveTrades: prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.ExecContext(ctx,
			t.ID,
			runID,
			t.MarketID,
			t.Question,
			t.Side,
			t.EntryPrice,
			t.ExitPrice,
			t.Shares,
			t.Cost,
			t.EntryTime.UTC(),
			t.ExitTime.UTC(),
			string(t.ExitReason),
			t.FeesPaid,
			t.RealizedPnL,
		); err != nil {
			return fmt.Errorf("storage.SaveTrades: insert %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveTrades: commit: %w", err)
	}
	return nil
}

// GetTrades devuelve los trades cerrados en el rango dado, en orden de cierre.
func (s *SQLiteStorage) GetTrades(ctx context.Context, from, to time.Time) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, market_id, question, side, entry_price, exit_price,
		       shares, cost, entry_time, exit_time, exit_reason, fees_paid, realized_pnl
		FROM trades
		WHERE exit_time BETWEEN ? AND ?
		ORDER BY exit_time ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.GetTrades: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var entry, exit, reason string

		if err := rows.Scan(
			&t.ID,
			&t.MarketID,
			&t.Question,
			&t.Side,
			&t.EntryPrice,
			&t.ExitPrice,
			&t.Shares,
			&t.Cost,
			&entry,
			&exit,
			&reason,
			&t.FeesPaid,
			&t.RealizedPnL,
		); err != nil {
			return nil, fmt.Errorf("storage.GetTrades: scan row: %w", err)
		}

		t.EntryTime, _ = time.Parse(time.RFC3339, entry)
		t.ExitTime, _ = time.Parse(time.RFC3339, exit)
		t.ExitReason = domain.ExitReason(reason)
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// GetOpportunities devuelve las oportunidades persistidas ordenadas por
// expected value descendente, con el pico de EV observado en peakEV.
func (s *SQLiteStorage) GetOpportunities(ctx context.Context) ([]domain.Opportunity, map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_id, platform, question, category, category_known,
		       sensationalism, true_yes, true_no, edge, expected_value,
		       confidence, kelly, size, signal, skip_reason, last_seen, peak_ev
		FROM opportunities
		ORDER BY expected_value DESC
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("storage.GetOpportunities: query: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	peaks := make(map[string]float64)
	for rows.Next() {
		var opp domain.Opportunity
		var known int
		var signal, lastSeen string
		var peak float64

		if err := rows.Scan(
			&opp.Market.ID,
			&opp.Market.Platform,
			&opp.Market.Question,
			&opp.Category,
			&known,
			&opp.Sensationalism,
			&opp.TrueYes,
			&opp.TrueNo,
			&opp.Edge,
			&opp.ExpectedValue,
			&opp.Confidence,
			&opp.KellyFraction,
			&opp.RecommendedSize,
			&signal,
			&opp.SkipReason,
			&lastSeen,
			&peak,
		); err != nil {
			return nil, nil, fmt.Errorf("storage.GetOpportunities: scan row: %w", err)
		}

		opp.CategoryKnown = known == 1
		opp.Signal = domain.Signal(signal)
		opp.AnalyzedAt, _ = time.Parse(time.RFC3339, lastSeen)
		peaks[opp.Market.ID] = peak
		opps = append(opps, opp)
	}

	return opps, peaks, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina datos antiguos para mantener la DB ligera.
// El ledger de trades no se poda: es el registro contable.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoffRuns := time.Now().UTC().Add(-retentionRuns)
	cutoffOpps := time.Now().UTC().Add(-retentionOpps)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoffRuns)
	s.db.ExecContext(ctx, `DELETE FROM opportunities WHERE last_seen < ?`, cutoffOpps)
}

// runSummary extrae el conteo de señales BUY_NO y el mejor EV del run.
func runSummary(opps []domain.Opportunity) (buys int, best float64) {
	for _, o := range opps {
		if o.IsBuy() {
			buys++
		}
		if o.ExpectedValue > best {
			best = o.ExpectedValue
		}
	}
	return
}
