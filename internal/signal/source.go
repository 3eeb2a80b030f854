// Package signal provides the sources trade signals are read from.
package signal

import (
	"context"
	stderrors "errors"

	"github.com/rxtech-lab/argo-riskgate/internal/types"
)

// ErrEndOfStream is returned by Next when a finite source is exhausted.
var ErrEndOfStream = stderrors.New("end of signal stream")

// Source produces trade signals. Each signal is returned once.
type Source interface {
	// Next blocks until a signal is available, the stream ends or ctx is done.
	// A malformed record is returned as a validation error and skipped; the
	// following call continues with the next record.
	Next(ctx context.Context) (types.Signal, error)
	// Reset restarts a finite source from its first signal.
	Reset() error
	Close() error
}

// Counter is implemented by sources that know how many signals they hold.
type Counter interface {
	Count() int
}
