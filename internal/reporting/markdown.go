package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Strategy: %s\n\n", r.StrategyID))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Starting Capital | %.2f |\n", r.Summary.StartingCapital))
	sb.WriteString(fmt.Sprintf("| Final Capital | %.2f |\n", r.Summary.FinalCapital))
	sb.WriteString(fmt.Sprintf("| Total PnL | %.2f |\n", r.Summary.TotalPnL))
	sb.WriteString(fmt.Sprintf("| Return | %.2f%% |\n", r.Summary.ReturnPct))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", r.Summary.WinRate))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.4f |\n", r.Summary.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Avg Win | %.4f |\n", r.Summary.AvgWin))
	sb.WriteString(fmt.Sprintf("| Avg Loss | %.4f |\n", r.Summary.AvgLoss))
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.Summary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Windows | %d |\n", r.Summary.WindowCount))
	sb.WriteString(fmt.Sprintf("| Events Processed | %d |\n", r.Summary.EventsProcessed))
	sb.WriteString(fmt.Sprintf("| Faults | %d |\n", r.Summary.FaultCount))
	sb.WriteString(fmt.Sprintf("| Elapsed (ms) | %d |\n", r.Summary.ElapsedMs))
	sb.WriteString("\n")

	// Per-window results
	sb.WriteString("## Windows\n\n")
	if len(r.Windows) > 0 {
		sb.WriteString("| Window | Symbol | Close (ms) | Resolved | Trades | Faults | PnL |\n")
		sb.WriteString("|--------|--------|------------|----------|--------|--------|-----|\n")
		for _, w := range r.Windows {
			resolved := "-"
			if w.ResolvedDirection != nil {
				resolved = string(*w.ResolvedDirection)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %d | %d | %.4f |\n",
				shortID(w.WindowID), w.Symbol, w.CloseTimeMs, resolved, w.TradeCount, w.FaultCount, w.PnL))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No windows evaluated.\n\n")
	}

	// Trades
	sb.WriteString("## Trades\n\n")
	if len(r.Trades) > 0 {
		sb.WriteString("| Trade | Window | Token | Entry (ms) | Exit (ms) | Entry Px | Exit Px | Size | PnL | Reason |\n")
		sb.WriteString("|-------|--------|-------|------------|-----------|----------|---------|------|-----|--------|\n")
		for _, t := range r.Trades {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d | %.4f | %.4f | %.2f | %.4f | %s |\n",
				shortID(t.TradeID), shortID(t.WindowID), t.Token,
				t.EntryTimeMs, t.ExitTimeMs, t.EntryPrice, t.ExitPrice, t.Size, t.PnL, t.Reason))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No trades executed.\n\n")
	}

	return sb.String()
}

// shortID truncates hash IDs for table readability.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
