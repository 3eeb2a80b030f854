package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter    ErrorCode = 100
	ErrCodeInvalidSignal       ErrorCode = 101
	ErrCodeInvalidTradeIntent  ErrorCode = 102
	ErrCodeInvalidQuantity     ErrorCode = 103
	ErrCodeInvalidPrice        ErrorCode = 104
	ErrCodeInvalidPosition     ErrorCode = 105
	ErrCodeInvalidTransition   ErrorCode = 106
	ErrCodeMissingParameter    ErrorCode = 107
	ErrCodeInvalidOrderRequest ErrorCode = 108

	// Data/Persistence errors (200-299)
	ErrCodePersistence      ErrorCode = 200
	ErrCodePositionNotFound ErrorCode = 201
	ErrCodeQueryFailed      ErrorCode = 202
	ErrCodeLedgerInitFailed ErrorCode = 203
	ErrCodeTradeNotFound    ErrorCode = 204

	// Risk errors (300-399)
	ErrCodeRiskEvaluation ErrorCode = 300

	// Gateway errors (400-499)
	ErrCodeGatewayFailed      ErrorCode = 400
	ErrCodeUnsupportedGateway ErrorCode = 401

	// Execution errors (500-599)
	ErrCodeExecutionFailed ErrorCode = 500
	ErrCodeCloseFailed     ErrorCode = 501

	// Reconciliation errors (600-699)
	ErrCodeReconciliation         ErrorCode = 600
	ErrCodeUnconfirmedFill        ErrorCode = 601
	ErrCodeOrphanTrade            ErrorCode = 602
	ErrCodeUnresolvedClosingState ErrorCode = 603

	// Config errors (700-799)
	ErrCodeInvalidConfiguration ErrorCode = 700
	ErrCodeConfigNotFound       ErrorCode = 701
	ErrCodeVersionMismatch      ErrorCode = 702
)
