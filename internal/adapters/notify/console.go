package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/noscan/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime las oportunidades en el modo configurado.
func (c *Console) Notify(_ context.Context, opportunities []domain.Opportunity) error {
	if len(opportunities) == 0 {
		fmt.Fprintf(c.out, "[%s] no opportunities found\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(opportunities)
	} else {
		c.printCompact(opportunities)
	}
	return nil
}

// printCompact imprime lo esencial en 2-3 líneas.
func (c *Console) printCompact(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	buys, skips := countSignals(opps)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mkts → buy:%d skip:%d", now, len(opps), buys, skips)

	shown := 0
	for _, opp := range opps {
		if shown >= 4 || !opp.IsBuy() {
			break
		}
		name := compactName(opp.Market.Question, 25)
		fmt.Fprintf(&sb, " | %s ev%.2f no%.2f sz$%.0f",
			name, opp.ExpectedValue, opp.Market.NoPrice, opp.RecommendedSize)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa de análisis.
func (c *Console) printFull(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	buys, skips := countSignals(opps)

	fmt.Fprintf(c.out, "\n[%s] %d markets analyzed — buy:%d skip:%d\n", now, len(opps), buys, skips)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Cat", "NO", "Sens", "P(no)", "EV", "Conf", "Kelly", "Size", "Signal")

	for i, opp := range opps {
		signal := string(opp.Signal)
		if opp.SkipReason != "" {
			signal = fmt.Sprintf("SKIP (%s)", opp.SkipReason)
		}
		cat := opp.Category
		if !opp.CategoryKnown {
			cat += "?"
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(opp.Market.Question, 38),
			cat,
			fmt.Sprintf("%.2f", opp.Market.NoPrice),
			fmt.Sprintf("%.2f", opp.Sensationalism),
			fmt.Sprintf("%.3f", opp.TrueNo),
			fmt.Sprintf("%.3f", opp.ExpectedValue),
			fmt.Sprintf("%.2f", opp.Confidence),
			fmt.Sprintf("%.3f", opp.KellyFraction),
			fmt.Sprintf("$%.0f", opp.RecommendedSize),
			signal,
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  P(no) = probabilidad estimada de que el NO pague | EV por $1 de NO")
	fmt.Fprintln(c.out, "  Size = kelly fraccional acotado por los límites de sizing")
}

// PrintBacktest imprime el agregado de un backtest Monte Carlo.
func (c *Console) PrintBacktest(_ context.Context, result domain.BacktestResult) error {
	if result.Trials == 0 {
		fmt.Fprintln(c.out, "\n  No backtest results available.")
		return nil
	}

	fmt.Fprintf(c.out, "\n=== MONTE CARLO BACKTEST — %d trials ===\n\n", result.Trials)

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Mean", "StdDev", "Min", "Max", "Undef")
	appendSummary(table, "Win rate", result.WinRate, "%.4f")
	appendSummary(table, "Profit factor", result.ProfitFactor, "%.2f")
	appendSummary(table, "ROI %", result.ROI, "%.2f")
	appendSummary(table, "Max drawdown", result.MaxDrawdown, "%.4f")
	appendSummary(table, "Sharpe", result.Sharpe, "%.2f")
	appendSummary(table, "Final capital $", result.FinalCapital, "%.2f")
	table.Render()

	fmt.Fprintln(c.out, "  Undef = trials excluidos de la media (métrica indefinida)")

	if result.ROI.Mean > 0 {
		fmt.Fprintf(c.out, "\n  >>> POSITIVE EDGE: mean ROI %.2f%% over %d trials\n\n", result.ROI.Mean, result.Trials)
	} else {
		fmt.Fprintf(c.out, "\n  >>> NO EDGE: mean ROI %.2f%% — do not deploy capital\n\n", result.ROI.Mean)
	}
	return nil
}

// PrintLedger imprime el ledger de trades y el estado del portfolio.
func (c *Console) PrintLedger(_ context.Context, trades []domain.Trade, summary domain.PortfolioSummary) error {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "\n  No closed trades.")
	} else {
		fmt.Fprintf(c.out, "\n=== TRADE LEDGER — %d closed ===\n\n", len(trades))

		table := tablewriter.NewWriter(c.out)
		table.Header("#", "Market", "Entry", "Exit", "Shares", "Hold", "Reason", "Fees", "PnL")

		var totalPnL, totalFees float64
		for i, t := range trades {
			totalPnL += t.RealizedPnL
			totalFees += t.FeesPaid

			table.Append(
				fmt.Sprintf("%d", i+1),
				truncate(t.Question, 32),
				fmt.Sprintf("%.3f", t.EntryPrice),
				fmt.Sprintf("%.3f", t.ExitPrice),
				fmt.Sprintf("%.0f", t.Shares),
				t.HoldTime().Round(time.Minute).String(),
				string(t.ExitReason),
				fmt.Sprintf("$%.2f", t.FeesPaid),
				fmt.Sprintf("$%+.2f", t.RealizedPnL),
			)
		}
		table.Render()

		fmt.Fprintf(c.out, "  Realized PnL: $%+.2f | fees paid: $%.2f\n", totalPnL, totalFees)
	}

	fmt.Fprintf(c.out, "\n  --- PORTFOLIO ---\n")
	fmt.Fprintf(c.out, "  Cash:            $%.2f\n", summary.Cash)
	fmt.Fprintf(c.out, "  Positions value: $%.2f (%d open)\n", summary.PositionsValue, summary.OpenPositions)
	fmt.Fprintf(c.out, "  Unrealized PnL:  $%+.2f\n", summary.UnrealizedPnL)
	fmt.Fprintf(c.out, "  Total equity:    $%.2f\n\n", summary.TotalEquity)
	return nil
}

// --- helpers ---

// appendSummary añade una fila de métrica agregada; los valores indefinidos
// se etiquetan en vez de imprimir NaN.
func appendSummary(table *tablewriter.Table, name string, m domain.MetricSummary, format string) {
	table.Append(
		name,
		metricLabel(m.Mean, format),
		metricLabel(m.StdDev, format),
		metricLabel(m.Min, format),
		metricLabel(m.Max, format),
		fmt.Sprintf("%d", m.Undefined),
	)
}

func metricLabel(v float64, format string) string {
	if domain.IsUndefined(v) {
		return "undef"
	}
	return fmt.Sprintf(format, v)
}

func countSignals(opps []domain.Opportunity) (buys, skips int) {
	for _, o := range opps {
		if o.IsBuy() {
			buys++
		} else {
			skips++
		}
	}
	return
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
