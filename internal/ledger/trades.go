package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"go.uber.org/zap"
)

var tradeColumns = []string{
	"id", "position_id", "kind", "order_id", "symbol", "side", "price", "quantity",
	"commission", "pnl", "strategy_id", "reason", "timestamp",
}

// RecordTrade appends a trade. A missing id is generated and a zero timestamp is set to now.
func (l *SQLLedger) RecordTrade(ctx context.Context, trade types.TradeRecord) (string, error) {
	if trade.ID == "" {
		trade.ID = uuid.New().String()
	}

	if trade.Timestamp.IsZero() {
		trade.Timestamp = l.now()
	}

	if err := trade.Validate(); err != nil {
		return "", err
	}

	var positionID any
	if trade.PositionID.IsSome() {
		positionID = trade.PositionID.Unwrap()
	}

	err := l.withTx(ctx, func(tx *sql.Tx) error {
		_, err := l.sq.Insert("trades").
			Columns(tradeColumns...).
			Values(
				trade.ID, positionID, string(trade.Kind), trade.OrderID, trade.Symbol, string(trade.Side),
				trade.Price, trade.Quantity, trade.Commission, trade.Pnl, trade.StrategyID, trade.Reason,
				trade.Timestamp.UTC(),
			).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return errors.Wrapf(errors.ErrCodePersistence, err, "failed to insert trade %s", trade.ID)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	l.logger.Debug("Trade recorded",
		zap.String("trade_id", trade.ID),
		zap.String("kind", string(trade.Kind)),
		zap.String("symbol", trade.Symbol),
	)

	return trade.ID, nil
}

// DailyTradeCount counts every trade recorded in the current UTC day.
func (l *SQLLedger) DailyTradeCount(ctx context.Context) (int, error) {
	start, end := DayBounds(l.now())

	return l.TradeCountBetween(ctx, start, end)
}

// TradeCountBetween counts trades with start <= timestamp < end.
func (l *SQLLedger) TradeCountBetween(ctx context.Context, start, end time.Time) (int, error) {
	var count int

	err := l.sq.Select("COUNT(*)").
		From("trades").
		Where(squirrel.GtOrEq{"timestamp": start.UTC()}).
		Where(squirrel.Lt{"timestamp": end.UTC()}).
		RunWith(l.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count trades", err)
	}

	return count, nil
}

// DailyRealizedPnl sums the P/L of trades recorded in the current UTC day.
func (l *SQLLedger) DailyRealizedPnl(ctx context.Context) (float64, error) {
	start, end := DayBounds(l.now())

	var total float64

	err := l.sq.Select("COALESCE(SUM(pnl), 0.0)").
		From("trades").
		Where(squirrel.GtOrEq{"timestamp": start}).
		Where(squirrel.Lt{"timestamp": end}).
		RunWith(l.db).
		QueryRowContext(ctx).
		Scan(&total)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum daily pnl", err)
	}

	return total, nil
}

// DailySummary aggregates the UTC day containing day.
func (l *SQLLedger) DailySummary(ctx context.Context, day time.Time) (types.DailySummary, error) {
	start, end := DayBounds(day)

	// COUNT over CASE keeps the result an integer on both drivers
	query := `
		WITH day_trades AS (
			SELECT kind, pnl, commission
			FROM trades
			WHERE timestamp >= ? AND timestamp < ?
		)
		SELECT
			COUNT(*) as total_trades,
			COUNT(CASE WHEN kind = 'OPEN' THEN 1 END) as open_trades,
			COUNT(CASE WHEN kind = 'CLOSE' THEN 1 END) as close_trades,
			COUNT(CASE WHEN kind = 'CLOSE' AND pnl > 0 THEN 1 END) as winning_trades,
			COUNT(CASE WHEN kind = 'CLOSE' AND pnl < 0 THEN 1 END) as losing_trades,
			COALESCE(SUM(pnl), 0.0) as total_pnl,
			COALESCE(SUM(commission), 0.0) as total_commission,
			COALESCE(MIN(pnl), 0.0) as min_pnl
		FROM day_trades
	`

	summary := types.DailySummary{Day: start}

	var minPnl float64

	err := l.db.QueryRowContext(ctx, query, start, end).Scan(
		&summary.Trades,
		&summary.OpenTrades,
		&summary.CloseTrades,
		&summary.WinningTrades,
		&summary.LosingTrades,
		&summary.TotalPnl,
		&summary.TotalCommission,
		&minPnl,
	)
	if err != nil {
		return types.DailySummary{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to compute daily summary", err)
	}

	if minPnl < 0 {
		summary.MaxLoss = -minPnl
	}

	return summary, nil
}

// RealizedPnlHistory returns the P/L of every close trade in time order.
func (l *SQLLedger) RealizedPnlHistory(ctx context.Context) ([]float64, error) {
	rows, err := l.sq.Select("pnl").
		From("trades").
		Where(squirrel.Eq{"kind": string(types.TradeKindClose)}).
		OrderBy("timestamp ASC", "id ASC").
		RunWith(l.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query pnl history", err)
	}
	defer rows.Close()

	history := make([]float64, 0)

	for rows.Next() {
		var pnl float64
		if err := rows.Scan(&pnl); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan pnl", err)
		}

		history = append(history, pnl)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating pnl history", err)
	}

	return history, nil
}

// OrphanTrades returns OPEN trades that reference a position row that does not exist.
func (l *SQLLedger) OrphanTrades(ctx context.Context) ([]types.TradeRecord, error) {
	columns := make([]string, len(tradeColumns))
	for i, c := range tradeColumns {
		columns[i] = "t." + c
	}

	return l.queryTrades(ctx, l.sq.Select(columns...).
		From("trades t").
		LeftJoin("positions p ON p.id = t.position_id").
		Where(squirrel.Eq{"t.kind": string(types.TradeKindOpen)}).
		Where(squirrel.NotEq{"t.position_id": nil}).
		Where(squirrel.Eq{"p.id": nil}).
		OrderBy("t.timestamp ASC"))
}

// CloseTradeFor returns the latest CLOSE trade referencing the position.
func (l *SQLLedger) CloseTradeFor(ctx context.Context, positionID string) (optional.Option[types.TradeRecord], error) {
	trades, err := l.queryTrades(ctx, l.sq.Select(tradeColumns...).
		From("trades").
		Where(squirrel.Eq{"position_id": positionID, "kind": string(types.TradeKindClose)}).
		OrderBy("timestamp DESC").
		Limit(1))
	if err != nil {
		return optional.None[types.TradeRecord](), err
	}

	if len(trades) == 0 {
		return optional.None[types.TradeRecord](), nil
	}

	return optional.Some(trades[0]), nil
}

// TradesBetween returns trades with start <= timestamp < end in time order.
func (l *SQLLedger) TradesBetween(ctx context.Context, start, end time.Time) ([]types.TradeRecord, error) {
	return l.queryTrades(ctx, l.sq.Select(tradeColumns...).
		From("trades").
		Where(squirrel.GtOrEq{"timestamp": start.UTC()}).
		Where(squirrel.Lt{"timestamp": end.UTC()}).
		OrderBy("timestamp ASC", "id ASC"))
}

func (l *SQLLedger) queryTrades(ctx context.Context, query squirrel.SelectBuilder) ([]types.TradeRecord, error) {
	rows, err := query.RunWith(l.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	trades := make([]types.TradeRecord, 0)

	for rows.Next() {
		var (
			trade      types.TradeRecord
			positionID sql.NullString
			kind       string
			side       string
		)

		err := rows.Scan(
			&trade.ID,
			&positionID,
			&kind,
			&trade.OrderID,
			&trade.Symbol,
			&side,
			&trade.Price,
			&trade.Quantity,
			&trade.Commission,
			&trade.Pnl,
			&trade.StrategyID,
			&trade.Reason,
			&trade.Timestamp,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trade.Kind = types.TradeKind(kind)
		trade.Side = types.Side(side)
		trade.Timestamp = trade.Timestamp.UTC()
		trade.PositionID = optional.None[string]()

		if positionID.Valid {
			trade.PositionID = optional.Some(positionID.String)
		}

		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}
