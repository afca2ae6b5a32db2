package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingAPIKey        ErrorCode = 102
	ErrCodeInvalidProvider      ErrorCode = 103
	ErrCodeInvalidOutputSize    ErrorCode = 104
	ErrCodeInsufficientData     ErrorCode = 105

	// Fetch errors (700-799)
	ErrCodeHTTPStatus      ErrorCode = 700
	ErrCodeProviderError   ErrorCode = 701
	ErrCodeRateLimited     ErrorCode = 702
	ErrCodeRequiresUpgrade ErrorCode = 703
	ErrCodeUnexpectedShape ErrorCode = 704
	ErrCodeTimeout         ErrorCode = 705
	ErrCodeFetchFailed     ErrorCode = 706

	// Parse errors (800-899)
	ErrCodeBadTimestamp ErrorCode = 800
	ErrCodeBadField     ErrorCode = 801

	// Persistence errors (900-999)
	ErrCodeWriteFailed ErrorCode = 900
)
