// Package ledger is the durable store of positions and trades.
//
// It is the single source of truth for what is open and what happened today.
// Every read goes to the database; nothing is cached, so a commit is visible to
// the next read in the same process.
package ledger

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
)

// Ledger is the only component allowed to mutate positions and trades.
// Position updates are limited to an explicit set of transitions.
type Ledger interface {
	// RecordTrade appends a trade and returns its id.
	RecordTrade(ctx context.Context, trade types.TradeRecord) (string, error)
	// CreatePosition inserts an OPEN position and returns its id.
	CreatePosition(ctx context.Context, spec types.PositionSpec) (string, error)
	// GetPosition returns the position or an ErrCodePositionNotFound error.
	GetPosition(ctx context.Context, id string) (types.Position, error)

	// MarkClosing moves an OPEN position to CLOSING.
	MarkClosing(ctx context.Context, id string) error
	// MarkOpen reverts a CLOSING position to OPEN.
	MarkOpen(ctx context.Context, id string) error
	// MarkClosed moves an OPEN or CLOSING position to CLOSED and records the exit.
	MarkClosed(ctx context.Context, id string, exitPrice, realizedPnl float64, closedAt time.Time) error
	SetStopLoss(ctx context.Context, id string, price float64) error
	SetTakeProfit(ctx context.Context, id string, price float64) error

	// OpenPositions returns positions holding exposure (OPEN or CLOSING), oldest first.
	OpenPositions(ctx context.Context) ([]types.Position, error)
	// ClosingPositions returns positions left in CLOSING.
	ClosingPositions(ctx context.Context) ([]types.Position, error)
	// ClosedPositions returns CLOSED positions, most recently closed first.
	ClosedPositions(ctx context.Context, limit uint64) ([]types.Position, error)

	// DailyTradeCount counts trades recorded in the current UTC day.
	DailyTradeCount(ctx context.Context) (int, error)
	// DailyRealizedPnl sums realized P/L of trades recorded in the current UTC day.
	DailyRealizedPnl(ctx context.Context) (float64, error)
	// TradeCountBetween counts trades with start <= timestamp < end.
	TradeCountBetween(ctx context.Context, start, end time.Time) (int, error)
	// DailySummary aggregates the UTC day containing day.
	DailySummary(ctx context.Context, day time.Time) (types.DailySummary, error)
	// RealizedPnlHistory returns the P/L of every close trade in time order.
	RealizedPnlHistory(ctx context.Context) ([]float64, error)

	// OrphanTrades returns OPEN trades whose position row was never written.
	OrphanTrades(ctx context.Context) ([]types.TradeRecord, error)
	// CloseTradeFor returns the latest CLOSE trade referencing the position, if any.
	CloseTradeFor(ctx context.Context, positionID string) (optional.Option[types.TradeRecord], error)

	HealthCheck(ctx context.Context) bool
	Close() error
}

// DayBounds returns the UTC calendar day [start, end) containing t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	utc := t.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)

	return start, start.Add(24 * time.Hour)
}
