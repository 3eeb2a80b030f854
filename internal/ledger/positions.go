package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"go.uber.org/zap"
)

// The first ten columns are written on insert; the exit columns only by MarkClosed.
var positionColumns = []string{
	"id", "symbol", "side", "entry_price", "quantity", "stop_loss", "take_profit",
	"status", "strategy_id", "opened_at", "closed_at", "exit_price", "realized_pnl",
}

// CreatePosition inserts an OPEN position.
func (l *SQLLedger) CreatePosition(ctx context.Context, spec types.PositionSpec) (string, error) {
	if spec.OpenedAt.IsZero() {
		spec.OpenedAt = l.now()
	}

	if err := spec.Validate(); err != nil {
		return "", err
	}

	err := l.withTx(ctx, func(tx *sql.Tx) error {
		_, err := l.sq.Insert("positions").
			Columns(positionColumns[:10]...).
			Values(
				spec.ID, spec.Symbol, string(spec.Side), spec.EntryPrice, spec.Quantity,
				spec.StopLoss, spec.TakeProfit, string(types.PositionStatusOpen), spec.StrategyID,
				spec.OpenedAt.UTC(),
			).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return errors.Wrapf(errors.ErrCodePersistence, err, "failed to insert position %s", spec.ID)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	l.logger.Debug("Position created",
		zap.String("position_id", spec.ID),
		zap.String("symbol", spec.Symbol),
		zap.Float64("quantity", spec.Quantity),
	)

	return spec.ID, nil
}

// GetPosition returns the position with the given id.
func (l *SQLLedger) GetPosition(ctx context.Context, id string) (types.Position, error) {
	row := l.sq.Select(positionColumns...).
		From("positions").
		Where(squirrel.Eq{"id": id}).
		RunWith(l.db).
		QueryRowContext(ctx)

	position, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return types.Position{}, errors.Newf(errors.ErrCodePositionNotFound, "position %s not found", id)
	}

	if err != nil {
		return types.Position{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query position %s", id)
	}

	return position, nil
}

// MarkClosing moves an OPEN position to CLOSING.
func (l *SQLLedger) MarkClosing(ctx context.Context, id string) error {
	return l.transition(ctx, id, types.PositionStatusClosing, nil, types.PositionStatusOpen)
}

// MarkOpen reverts a CLOSING position to OPEN.
func (l *SQLLedger) MarkOpen(ctx context.Context, id string) error {
	return l.transition(ctx, id, types.PositionStatusOpen, nil, types.PositionStatusClosing)
}

// MarkClosed moves an OPEN or CLOSING position to CLOSED. It is the only way to set the exit fields.
func (l *SQLLedger) MarkClosed(ctx context.Context, id string, exitPrice, realizedPnl float64, closedAt time.Time) error {
	if exitPrice <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPrice, "exit price must be positive, got %v", exitPrice)
	}

	if closedAt.IsZero() {
		closedAt = l.now()
	}

	exit := map[string]any{
		"closed_at":    closedAt.UTC(),
		"exit_price":   exitPrice,
		"realized_pnl": realizedPnl,
	}

	return l.transition(ctx, id, types.PositionStatusClosed, exit, types.PositionStatusOpen, types.PositionStatusClosing)
}

// SetStopLoss moves the stop-loss of a position that is not yet CLOSED.
func (l *SQLLedger) SetStopLoss(ctx context.Context, id string, price float64) error {
	return l.setLevel(ctx, id, "stop_loss", price)
}

// SetTakeProfit moves the take-profit of a position that is not yet CLOSED.
func (l *SQLLedger) SetTakeProfit(ctx context.Context, id string, price float64) error {
	return l.setLevel(ctx, id, "take_profit", price)
}

func (l *SQLLedger) setLevel(ctx context.Context, id, column string, price float64) error {
	if price < 0 {
		return errors.Newf(errors.ErrCodeInvalidPrice, "%s must not be negative, got %v", column, price)
	}

	return l.withTx(ctx, func(tx *sql.Tx) error {
		status, err := l.statusOf(ctx, tx, id)
		if err != nil {
			return err
		}

		if status == types.PositionStatusClosed {
			return errors.Newf(errors.ErrCodeInvalidTransition, "cannot change %s of CLOSED position %s", column, id)
		}

		_, err = l.sq.Update("positions").
			Set(column, price).
			Where(squirrel.Eq{"id": id}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return errors.Wrapf(errors.ErrCodePersistence, err, "failed to update %s of position %s", column, id)
		}

		return nil
	})
}

// transition changes the status of a position when its current status is one of from.
func (l *SQLLedger) transition(ctx context.Context, id string, to types.PositionStatus, extra map[string]any, from ...types.PositionStatus) error {
	err := l.withTx(ctx, func(tx *sql.Tx) error {
		status, err := l.statusOf(ctx, tx, id)
		if err != nil {
			return err
		}

		allowed := false

		for _, f := range from {
			if status == f {
				allowed = true

				break
			}
		}

		if !allowed {
			return errors.Newf(errors.ErrCodeInvalidTransition, "position %s cannot move from %s to %s", id, status, to)
		}

		update := l.sq.Update("positions").
			Set("status", string(to)).
			Where(squirrel.Eq{"id": id})

		for column, value := range extra {
			update = update.Set(column, value)
		}

		if _, err := update.RunWith(tx).ExecContext(ctx); err != nil {
			return errors.Wrapf(errors.ErrCodePersistence, err, "failed to move position %s to %s", id, to)
		}

		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Debug("Position status changed", zap.String("position_id", id), zap.String("status", string(to)))

	return nil
}

func (l *SQLLedger) statusOf(ctx context.Context, tx *sql.Tx, id string) (types.PositionStatus, error) {
	var status string

	err := l.sq.Select("status").
		From("positions").
		Where(squirrel.Eq{"id": id}).
		RunWith(tx).
		QueryRowContext(ctx).
		Scan(&status)
	if err == sql.ErrNoRows {
		return "", errors.Newf(errors.ErrCodePositionNotFound, "position %s not found", id)
	}

	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read status of position %s", id)
	}

	return types.PositionStatus(status), nil
}

// OpenPositions returns OPEN and CLOSING positions, oldest first.
func (l *SQLLedger) OpenPositions(ctx context.Context) ([]types.Position, error) {
	return l.queryPositions(ctx, l.sq.Select(positionColumns...).
		From("positions").
		Where(squirrel.Eq{"status": []string{string(types.PositionStatusOpen), string(types.PositionStatusClosing)}}).
		OrderBy("opened_at ASC", "id ASC"))
}

// ClosingPositions returns positions left in CLOSING.
func (l *SQLLedger) ClosingPositions(ctx context.Context) ([]types.Position, error) {
	return l.queryPositions(ctx, l.sq.Select(positionColumns...).
		From("positions").
		Where(squirrel.Eq{"status": string(types.PositionStatusClosing)}).
		OrderBy("opened_at ASC", "id ASC"))
}

// ClosedPositions returns CLOSED positions, most recently closed first. A zero limit returns all.
func (l *SQLLedger) ClosedPositions(ctx context.Context, limit uint64) ([]types.Position, error) {
	query := l.sq.Select(positionColumns...).
		From("positions").
		Where(squirrel.Eq{"status": string(types.PositionStatusClosed)}).
		OrderBy("closed_at DESC", "id ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	return l.queryPositions(ctx, query)
}

func (l *SQLLedger) queryPositions(ctx context.Context, query squirrel.SelectBuilder) ([]types.Position, error) {
	rows, err := query.RunWith(l.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query positions", err)
	}
	defer rows.Close()

	positions := make([]types.Position, 0)

	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan position", err)
		}

		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating positions", err)
	}

	return positions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (types.Position, error) {
	var (
		position    types.Position
		side        string
		status      string
		closedAt    sql.NullTime
		exitPrice   sql.NullFloat64
		realizedPnl sql.NullFloat64
	)

	err := row.Scan(
		&position.ID,
		&position.Symbol,
		&side,
		&position.EntryPrice,
		&position.Quantity,
		&position.StopLoss,
		&position.TakeProfit,
		&status,
		&position.StrategyID,
		&position.OpenedAt,
		&closedAt,
		&exitPrice,
		&realizedPnl,
	)
	if err != nil {
		return types.Position{}, err
	}

	position.Side = types.Side(side)
	position.Status = types.PositionStatus(status)
	position.OpenedAt = position.OpenedAt.UTC()
	position.ClosedAt = optional.None[time.Time]()
	position.ExitPrice = optional.None[float64]()
	position.RealizedPnl = optional.None[float64]()

	if closedAt.Valid {
		position.ClosedAt = optional.Some(closedAt.Time.UTC())
	}

	if exitPrice.Valid {
		position.ExitPrice = optional.Some(exitPrice.Float64)
	}

	if realizedPnl.Valid {
		position.RealizedPnl = optional.Some(realizedPnl.Float64)
	}

	return position, nil
}
