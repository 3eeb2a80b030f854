package signal

import (
	"context"

	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
)

// ChannelSource reads signals pushed by a live producer. It ends when the channel is closed.
type ChannelSource struct {
	ch <-chan types.Signal
}

func NewChannelSource(ch <-chan types.Signal) *ChannelSource {
	return &ChannelSource{ch: ch}
}

func (c *ChannelSource) Next(ctx context.Context) (types.Signal, error) {
	select {
	case <-ctx.Done():
		return types.Signal{}, ctx.Err()
	case s, ok := <-c.ch:
		if !ok {
			return types.Signal{}, ErrEndOfStream
		}

		if err := s.Validate(); err != nil {
			return types.Signal{}, err
		}

		return s, nil
	}
}

// Reset is not supported: a live stream cannot be replayed.
func (c *ChannelSource) Reset() error {
	return errors.New(errors.ErrCodeInvalidParameter, "a channel source cannot be restarted")
}

func (c *ChannelSource) Close() error {
	return nil
}
