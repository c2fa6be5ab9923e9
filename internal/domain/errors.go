package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// OracleError represents a failed call to the decision oracle. Transport
// failures (network, rate limit) are retriable; a missing API key is not.
type OracleError struct {
	Op        string // operation that failed (e.g. "generate", "decode")
	Err       error
	Retriable bool
}

func (e *OracleError) Error() string {
	return "oracle " + e.Op + ": " + e.Err.Error()
}

func (e *OracleError) IsRetriable() bool {
	return e.Retriable
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// NewOracleError creates a retriable oracle transport error
func NewOracleError(op string, err error) *OracleError {
	return &OracleError{Op: op, Err: err, Retriable: true}
}

var (
	// ErrUnknownStock is returned when a stock symbol the engine does not
	// recognize reaches settlement. Indicates a bookkeeping defect.
	ErrUnknownStock = errors.New("unknown stock symbol")

	// ErrOracleNotConfigured is returned when no API key is available. Not retriable.
	ErrOracleNotConfigured = errors.New("oracle not configured")

	// ErrConfigNotFound is returned when the configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
