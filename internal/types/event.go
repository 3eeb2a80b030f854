package types

import "time"

type EventType string

type Severity string

const (
	EventPositionOpened         EventType = "POSITION_OPENED"
	EventPositionClosed         EventType = "POSITION_CLOSED"
	EventRiskRejected           EventType = "RISK_REJECTED"
	EventExecutionFailed        EventType = "EXECUTION_FAILED"
	EventReconciliationRequired EventType = "RECONCILIATION_REQUIRED"
	EventGatewayCritical        EventType = "GATEWAY_CRITICAL"
	EventStopLossTriggered      EventType = "STOP_LOSS_TRIGGERED"
	EventTakeProfitTriggered    EventType = "TAKE_PROFIT_TRIGGERED"
	EventForcedLiquidation      EventType = "FORCED_LIQUIDATION"
	EventReconciled             EventType = "RECONCILED"
)

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is an outcome sent to notifiers.
type Event struct {
	Type       EventType      `json:"type" yaml:"type"`
	Severity   Severity       `json:"severity" yaml:"severity"`
	Symbol     string         `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	PositionID string         `json:"position_id,omitempty" yaml:"position_id,omitempty"`
	Message    string         `json:"message" yaml:"message"`
	Fields     map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
	Time       time.Time      `json:"time" yaml:"time"`
}

// NewEvent creates an event stamped with the current UTC time.
func NewEvent(eventType EventType, severity Severity, symbol, message string) Event {
	return Event{
		Type:     eventType,
		Severity: severity,
		Symbol:   symbol,
		Message:  message,
		Time:     time.Now().UTC(),
	}
}

// WithPosition returns a copy of the event referencing a position.
func (e Event) WithPosition(positionID string) Event {
	e.PositionID = positionID

	return e
}

// WithField returns a copy of the event with an extra field set.
func (e Event) WithField(key string, value any) Event {
	fields := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}

	fields[key] = value
	e.Fields = fields

	return e
}
