package errs

import (
	"errors"
	"fmt"

	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
)

// Severity determines how the orchestrator reacts to an error
type Severity int

const (
	// Fatal errors abort the run with a non-zero exit
	Fatal Severity = iota
	// NonFatal errors are logged as warnings and the run continues
	NonFatal
	// Expected errors represent normal flow control, such as a push
	// event with no commits to scan
	Expected
)

// ScoutError expands a normal error to provide additional metadata
type ScoutError struct {
	Severity Severity  `json:"severity"`
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
}

// Error is defined to implement the error interface
func (e ScoutError) Error() string {
	return e.String()
}

// String provides a string representation of the error with any
// secret-shaped substrings masked
func (e ScoutError) String() string {
	severity := ""

	switch e.Severity {
	case Fatal:
		severity = "fatal "
	case Expected:
		severity = "expected "
	}

	return fmt.Sprintf("%serror occurred, code %d (%s): %s", severity, e.Code, errorNames[e.Code], logger.Sanitize(e.Message))
}

// ErrorCode defines the set of error codes that can be set on a ScoutError
type ErrorCode int

const (
	// NoErrorCode means the error code hasn't been set
	NoErrorCode ErrorCode = iota
	// ConfigError means the environment or config file was unusable
	ConfigError
	// UnsupportedEventError means the trigger kind isn't one we scan
	UnsupportedEventError
	// NoCommitsError means a push event carried nothing to scan
	NoCommitsError
	// UnsupportedPlatformError means no scanner build exists for this os/arch
	UnsupportedPlatformError
	// BinaryAcquisitionError means the scanner binary couldn't be fetched
	BinaryAcquisitionError
	// ScanTimeoutError means the scanner was killed after the deadline
	ScanTimeoutError
	// ScanError means the scanner itself reported an internal failure
	ScanError
	// MalformedReportError means the report couldn't be parsed at all
	MalformedReportError
	// APIRequestError means a remote API call failed permanently
	APIRequestError
	// CommentPostError means a review comment couldn't be delivered
	CommentPostError
	// SummaryWriteError means the run summary couldn't be written
	SummaryWriteError
)

var errorNames = [...]string{
	"NoErrorCode",
	"ConfigError",
	"UnsupportedEventError",
	"NoCommitsError",
	"UnsupportedPlatformError",
	"BinaryAcquisitionError",
	"ScanTimeoutError",
	"ScanError",
	"MalformedReportError",
	"APIRequestError",
	"CommentPostError",
	"SummaryWriteError",
}

// New builds a ScoutError with a formatted message
func New(severity Severity, code ErrorCode, msg string, a ...any) ScoutError {
	return ScoutError{
		Severity: severity,
		Code:     code,
		Message:  fmt.Sprintf(msg, a...),
	}
}

// SeverityOf pulls the severity off an error, defaulting to Fatal so
// unclassified failures never get silently downgraded
func SeverityOf(err error) Severity {
	var scoutError ScoutError

	if errors.As(err, &scoutError) {
		return scoutError.Severity
	}

	return Fatal
}
