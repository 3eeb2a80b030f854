package notifier

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/metrics"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/stretchr/testify/suite"
)

type recorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *recorder) Notify(event types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.events)
}

type NotifierTestSuite struct {
	suite.Suite
}

func TestNotifierSuite(t *testing.T) {
	suite.Run(t, new(NotifierTestSuite))
}

func (suite *NotifierTestSuite) event() types.Event {
	return types.NewEvent(types.EventPositionOpened, types.SeverityInfo, "BTCUSDT", "opened")
}

func (suite *NotifierTestSuite) TestMultiFansOut() {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, nil, b}

	m.Notify(suite.event())

	suite.Equal(1, a.len())
	suite.Equal(1, b.len())
}

func (suite *NotifierTestSuite) TestFunc() {
	var got types.EventType

	Func(func(e types.Event) { got = e.Type }).Notify(suite.event())
	suite.Equal(types.EventPositionOpened, got)
}

func (suite *NotifierTestSuite) TestLogNotifier() {
	n := NewLogNotifier(logger.NewNop())

	suite.NotPanics(func() {
		n.Notify(suite.event())
		n.Notify(types.NewEvent(types.EventGatewayCritical, types.SeverityCritical, "BTCUSDT", "auth").WithField("kind", "AUTH_FAILED"))
		n.Notify(types.NewEvent(types.EventExecutionFailed, types.SeverityWarning, "BTCUSDT", "failed").WithPosition("p1"))
	})
}

func (suite *NotifierTestSuite) TestAsyncDelivers() {
	rec := &recorder{}
	n := NewAsyncNotifier(rec, 10, nil, logger.NewNop())

	for range 5 {
		n.Notify(suite.event())
	}

	n.Close()
	suite.Equal(5, rec.len())

	n.Notify(suite.event())
	suite.Equal(5, rec.len())
	suite.NotPanics(n.Close)
}

func (suite *NotifierTestSuite) TestAsyncNeverBlocks() {
	release := make(chan struct{})
	blocking := Func(func(types.Event) { <-release })
	m := metrics.New(prometheus.NewRegistry())
	n := NewAsyncNotifier(blocking, 1, m, logger.NewNop())

	done := make(chan struct{})

	go func() {
		for range 100 {
			n.Notify(suite.event())
		}

		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		suite.Fail("Notify blocked on a slow notifier")
	}

	close(release)
	n.Close()
}

func (suite *NotifierTestSuite) TestAsyncSurvivesPanic() {
	rec := &recorder{}
	calls := 0
	panicky := Func(func(e types.Event) {
		calls++
		if calls == 1 {
			panic("boom")
		}

		rec.Notify(e)
	})

	n := NewAsyncNotifier(panicky, 4, nil, logger.NewNop())
	n.Notify(suite.event())
	n.Notify(suite.event())
	n.Close()

	suite.Equal(1, rec.len())
}
