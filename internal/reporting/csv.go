package reporting

import (
	"fmt"
	"strings"
)

// RenderTradesCSV renders a report's trades as a CSV string.
func RenderTradesCSV(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("trade_id,window_id,token,entry_time_ms,exit_time_ms,")
	sb.WriteString("entry_price,exit_price,size,pnl,reason\n")

	// Rows
	for _, t := range r.Trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%d,%.6f,%.6f,%.6f,%.6f,%s\n",
			t.TradeID,
			t.WindowID,
			t.Token,
			t.EntryTimeMs,
			t.ExitTimeMs,
			t.EntryPrice,
			t.ExitPrice,
			t.Size,
			t.PnL,
			t.Reason,
		))
	}

	return sb.String()
}

// RenderEquityCSV renders the equity curve as a CSV string, one point per
// evaluated window in chronological order.
func RenderEquityCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("step,capital\n")
	for i, capital := range r.EquityCurve {
		sb.WriteString(fmt.Sprintf("%d,%.6f\n", i, capital))
	}

	return sb.String()
}
