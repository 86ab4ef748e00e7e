// Package apperror provides structured solver errors with codes, severity
// levels and structured details. Codes map onto gRPC status codes; the CLI
// derives its exit status from that mapping.
package apperror

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Input
	CodeInvalidGraph    ErrorCode = "INVALID_GRAPH"
	CodeEmptyGraph      ErrorCode = "EMPTY_GRAPH"
	CodeInvalidSource   ErrorCode = "INVALID_SOURCE"
	CodeInvalidSink     ErrorCode = "INVALID_SINK"
	CodeInvalidBudget   ErrorCode = "INVALID_BUDGET"
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNilInput        ErrorCode = "NIL_INPUT"

	// Solver outcomes
	CodeNoPath            ErrorCode = "NO_PATH"
	CodeInfeasible        ErrorCode = "INFEASIBLE"
	CodeNegativeCycle     ErrorCode = "NEGATIVE_CYCLE"
	CodeNumericDegenerate ErrorCode = "NUMERIC_DEGENERATE"
	CodeIterationLimit    ErrorCode = "ITERATION_LIMIT"
	CodeTimeout           ErrorCode = "TIMEOUT"
	CodeInvalidAlgorithm  ErrorCode = "INVALID_ALGORITHM"

	// General
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Detail keys used by the solver.
const (
	DetailMinResource = "min_resource"
	DetailBudget      = "budget"
	DetailIterations  = "iterations"
	DetailVertex      = "vertex"
	DetailProblems    = "problems"
)

// Severity defines the criticality level of an error.
type Severity int

const (
	// SeverityWarning marks a condition the caller may ignore; results are still returned.
	SeverityWarning Severity = iota
	// SeverityError marks a failed operation.
	SeverityError
	// SeverityCritical marks an internal invariant violation.
	SeverityCritical
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is a solver error with a code, message, optional field, structured
// details, an underlying cause and a severity.
type Error struct {
	Code     ErrorCode      // Code identifies the kind of failure.
	Message  string         // Message is a human-readable description.
	Field    string         // Field names the offending input, if any.
	Details  map[string]any // Details carries diagnostics such as the minimum achievable resource.
	Cause    error          // Cause is the wrapped error.
	Severity Severity       // Severity indicates whether results remain usable.
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field: %s)", e.Field)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is works against the predefined values below.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// GRPCStatus converts the error into a gRPC status.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.grpcCode(), e.Message)
}

func (e *Error) grpcCode() codes.Code {
	switch e.Code {
	case CodeInvalidGraph, CodeEmptyGraph, CodeInvalidSource, CodeInvalidSink,
		CodeInvalidBudget, CodeInvalidArgument, CodeNilInput, CodeInvalidAlgorithm:
		return codes.InvalidArgument

	case CodeNoPath, CodeNegativeCycle:
		return codes.FailedPrecondition

	case CodeInfeasible:
		return codes.Aborted

	case CodeNumericDegenerate:
		return codes.OutOfRange

	case CodeTimeout, CodeIterationLimit:
		return codes.DeadlineExceeded

	default:
		return codes.Internal
	}
}

// New creates a new error with SeverityError.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// Newf creates a new error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// NewWarning creates a new error with SeverityWarning.
func NewWarning(code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Severity = SeverityWarning
	return e
}

// NewCritical creates a new error with SeverityCritical.
func NewCritical(code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Severity = SeverityCritical
	return e
}

// Wrap creates a new error wrapping cause.
func Wrap(cause error, code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

// WithDetails adds a key-value pair to the details map.
func (e *Error) WithDetails(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithField sets the offending input field.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSeverity sets the severity level.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Is checks whether err is an application error with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from err, defaulting to CodeInternal.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// MinResource extracts the minimum achievable resource reported with an
// INFEASIBLE error.
func MinResource(err error) (float64, bool) {
	appErr, ok := As(err)
	if !ok || appErr.Code != CodeInfeasible {
		return 0, false
	}
	v, ok := appErr.Details[DetailMinResource].(float64)
	return v, ok
}

// ToGRPC converts any error into a gRPC status error.
func ToGRPC(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.GRPCStatus().Err()
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	return status.Error(codes.Internal, err.Error())
}

// IsWarning checks whether err is an application error with SeverityWarning.
func IsWarning(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityWarning
	}
	return false
}

// IsCritical checks whether err is an application error with SeverityCritical.
func IsCritical(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityCritical
	}
	return false
}

// Predefined errors for comparison with errors.Is. Do not attach details to
// them; build a fresh error with New instead.
var (
	ErrEmptyGraph = New(CodeEmptyGraph, "graph is empty")
	ErrNoPath     = New(CodeNoPath, "no path from source to target")
	ErrNilGraph   = New(CodeNilInput, "graph is nil")
)

// ValidationErrors collects every problem found by an input check so that
// the caller sees all of them at once.
type ValidationErrors struct {
	Errors []*Error
}

// NewValidationErrors creates an empty collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Errors: make([]*Error, 0)}
}

// Add appends err.
func (v *ValidationErrors) Add(err *Error) {
	v.Errors = append(v.Errors, err)
}

// ErrorMessages returns the messages of all collected errors.
func (v *ValidationErrors) ErrorMessages() []string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Error()
	}
	return messages
}

// Err returns nil for an empty collection and the error itself when only one
// was collected. Otherwise it returns a copy of the first error whose message
// counts the rest and whose details list every message under DetailProblems.
func (v *ValidationErrors) Err() error {
	switch len(v.Errors) {
	case 0:
		return nil
	case 1:
		return v.Errors[0]
	}

	first := v.Errors[0]
	combined := &Error{
		Code:     first.Code,
		Message:  fmt.Sprintf("%s (and %d more)", first.Message, len(v.Errors)-1),
		Field:    first.Field,
		Details:  make(map[string]any, len(first.Details)+1),
		Cause:    first.Cause,
		Severity: first.Severity,
	}
	for k, val := range first.Details {
		combined.Details[k] = val
	}
	combined.Details[DetailProblems] = v.ErrorMessages()
	return combined
}
