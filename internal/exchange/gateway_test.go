package exchange

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type netTimeout struct{}

func (netTimeout) Error() string   { return "dial tcp: operation timed out" }
func (netTimeout) Timeout() bool   { return true }
func (netTimeout) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil, "x"))

	rateLimited := errors.NewGatewayError(errors.GatewayRateLimited, "slow down", nil)
	assert.Same(t, rateLimited, Classify(rateLimited, "x"))

	tests := []struct {
		name string
		err  error
		kind errors.GatewayErrorKind
	}{
		{"deadline", context.DeadlineExceeded, errors.GatewayNetworkTimeout},
		{"wrapped deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), errors.GatewayNetworkTimeout},
		{"net timeout", netTimeout{}, errors.GatewayNetworkTimeout},
		{"io timeout text", stderrors.New("read tcp 1.2.3.4:443: i/o timeout"), errors.GatewayNetworkTimeout},
		{"cancelled", context.Canceled, errors.GatewayRejected},
		{"other", stderrors.New("bad request"), errors.GatewayRejected},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Classify(tc.err, "call failed")
			assert.True(t, errors.IsGatewayKind(err, tc.kind))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestRetryableAndCritical(t *testing.T) {
	assert.True(t, Retryable(errors.NewGatewayError(errors.GatewayNetworkTimeout, "", nil)))
	assert.True(t, Retryable(fmt.Errorf("wrapped: %w", errors.NewGatewayError(errors.GatewayRateLimited, "", nil))))
	assert.False(t, Retryable(errors.NewGatewayError(errors.GatewayAuthFailed, "", nil)))
	assert.False(t, Retryable(stderrors.New("plain")))

	assert.True(t, Critical(errors.NewGatewayError(errors.GatewayInsufficientFunds, "", nil)))
	assert.False(t, Critical(errors.NewGatewayError(errors.GatewayRejected, "", nil)))
}

func TestBaseAsset(t *testing.T) {
	assert.Equal(t, "BTC", BaseAsset("BTCUSDT", "USDT"))
	assert.Equal(t, "USDT", BaseAsset("USDT", "USDT"))
	assert.Equal(t, "ETHBTC", BaseAsset("ETHBTC", "USDT"))
	assert.Equal(t, "BTCUSDT", BaseAsset("BTCUSDT", ""))
}
