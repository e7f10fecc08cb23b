package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidGranularity   ErrorCode = 103
	ErrCodeInvalidTier          ErrorCode = 104
	ErrCodeInvalidPeriod        ErrorCode = 105
	ErrCodeInsufficientData     ErrorCode = 106

	// Data/Store errors (200-299)
	ErrCodeDataNotFound     ErrorCode = 200
	ErrCodeStoreUnavailable ErrorCode = 201
	ErrCodeQueryFailed      ErrorCode = 202
	ErrCodeInsertFailed     ErrorCode = 203
	ErrCodeDuplicateRecord  ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// State machine errors (400-499)
	ErrCodeInvalidState     ErrorCode = 400
	ErrCodeTransitionFailed ErrorCode = 401
	ErrCodeStateReadFailed  ErrorCode = 402

	// Provider errors (500-599)
	ErrCodeProviderUnavailable ErrorCode = 500
	ErrCodeProviderFetchFailed ErrorCode = 501
	ErrCodeProviderParseFailed ErrorCode = 502
	ErrCodeOrderFailed         ErrorCode = 503

	// Backtest/Optimizer errors (600-699)
	ErrCodeBacktestNoData      ErrorCode = 600
	ErrCodeBacktestConfigError ErrorCode = 601
	ErrCodeOptimizationFailed  ErrorCode = 602

	// Sync errors (700-799)
	ErrCodeSyncFailed         ErrorCode = 700
	ErrCodeCollectionNotFound ErrorCode = 701
)
