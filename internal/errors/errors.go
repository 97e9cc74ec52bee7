// Package errors provides structured error handling for probing and conversion.
// It defines the error categories, sentinel errors and helpers that turn any
// error from the engine into a message a user can act on.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType classifies an error by the stage that produced it
type ErrorType string

const (
	// ErrorTypeBinary indicates an external tool could not be located
	ErrorTypeBinary ErrorType = "binary"
	// ErrorTypeProbe indicates a file could not be read or described
	ErrorTypeProbe ErrorType = "probe"
	// ErrorTypeValidation indicates invalid conversion options
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeLaunch indicates the engine process could not be started
	ErrorTypeLaunch ErrorType = "launch"
	// ErrorTypeProcess indicates the engine process exited unsuccessfully
	ErrorTypeProcess ErrorType = "process"
	// ErrorTypeCancelled indicates the work was cancelled by the user
	ErrorTypeCancelled ErrorType = "cancelled"
)

// LaunchFailedExitCode is the synthetic exit code reported when a process
// never started.
const LaunchFailedExitCode = -1

// Sentinel errors for the failure taxonomy
var (
	// ErrBinaryNotFound indicates a required external tool is missing
	ErrBinaryNotFound = errors.New("binary not found")

	// ErrMissingRequiredField indicates a stream lacks a mandatory attribute
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrUnsupportedCodec indicates a stream kind the model cannot represent
	ErrUnsupportedCodec = errors.New("unsupported codec")

	// ErrInvalidData indicates probe output that could not be decoded
	ErrInvalidData = errors.New("invalid data")

	// ErrCreationFailed indicates a stream description could not be built
	ErrCreationFailed = errors.New("creation failed")

	// ErrLaunchFailed indicates the engine process could not be spawned
	ErrLaunchFailed = errors.New("launch failed")

	// ErrProcessFailed indicates the engine exited with a nonzero status
	ErrProcessFailed = errors.New("process failed")

	// ErrInvalidOptions indicates a conversion option combination is not supported
	ErrInvalidOptions = errors.New("invalid conversion options")

	// ErrCancelled indicates the session was cancelled
	ErrCancelled = errors.New("operation cancelled")
)

// MediaError provides structured error information with context
type MediaError struct {
	Type     ErrorType              // Error classification
	Op       string                 // Operation that failed (e.g., "probe", "convert")
	Path     string                 // File or binary the error relates to
	ExitCode int                    // Engine exit code for process and launch failures
	Err      error                  // Underlying error
	Details  map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *MediaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error in %s", e.Type, e.Op)
	if e.Path != "" {
		fmt.Fprintf(&b, " for %s", e.Path)
	}
	if e.Type == ErrorTypeProcess || e.Type == ErrorTypeLaunch {
		fmt.Fprintf(&b, " (exit code %d)", e.ExitCode)
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Details[k])
		}
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *MediaError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for sentinel errors
func (e *MediaError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// New creates a new MediaError
func New(errType ErrorType, op string, err error) *MediaError {
	return &MediaError{
		Type:    errType,
		Op:      op,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// WithPath adds the related file path
func (e *MediaError) WithPath(path string) *MediaError {
	e.Path = path
	return e
}

// WithExitCode records the engine exit code
func (e *MediaError) WithExitCode(code int) *MediaError {
	e.ExitCode = code
	return e
}

// WithDetail adds a key-value detail to the error
func (e *MediaError) WithDetail(key string, value interface{}) *MediaError {
	e.Details[key] = value
	return e
}

// BinaryNotFound reports a missing external tool
func BinaryNotFound(name string) *MediaError {
	return New(ErrorTypeBinary, "locate", fmt.Errorf("%w: %s", ErrBinaryNotFound, name)).
		WithDetail("binary", name)
}

// MissingField reports a stream attribute that must be present
func MissingField(field string) *MediaError {
	return New(ErrorTypeProbe, "describe_stream", fmt.Errorf("%w: %s", ErrMissingRequiredField, field)).
		WithDetail("field", field)
}

// UnsupportedCodec reports a stream kind that is not modelled
func UnsupportedCodec(kind string) *MediaError {
	return New(ErrorTypeProbe, "describe_stream", fmt.Errorf("%w: %s", ErrUnsupportedCodec, kind)).
		WithDetail("kind", kind)
}

// InvalidData wraps a decoding failure of probe output
func InvalidData(path string, cause error) *MediaError {
	return New(ErrorTypeProbe, "decode", fmt.Errorf("%w: %v", ErrInvalidData, cause)).WithPath(path)
}

// CreationFailed reports a stream description that could not be built
func CreationFailed(reason string) *MediaError {
	return New(ErrorTypeProbe, "describe_stream", fmt.Errorf("%w: %s", ErrCreationFailed, reason))
}

// LaunchFailed reports a process that never started
func LaunchFailed(path string, cause error) *MediaError {
	return New(ErrorTypeLaunch, "launch", fmt.Errorf("%w: %v", ErrLaunchFailed, cause)).
		WithPath(path).
		WithExitCode(LaunchFailedExitCode)
}

// ProcessFailed reports a nonzero engine exit
func ProcessFailed(path string, code int) *MediaError {
	return New(ErrorTypeProcess, "convert", ErrProcessFailed).WithPath(path).WithExitCode(code)
}

// InvalidOptions reports an option combination the builder rejects
func InvalidOptions(reason string) *MediaError {
	return New(ErrorTypeValidation, "build_arguments", fmt.Errorf("%w: %s", ErrInvalidOptions, reason))
}

// Cancelled reports work refused or stopped because the session was cancelled
func Cancelled(path string) *MediaError {
	return New(ErrorTypeCancelled, "convert", ErrCancelled).WithPath(path)
}

// GetType returns the error type if err is a MediaError
func GetType(err error) ErrorType {
	var me *MediaError
	if errors.As(err, &me) {
		return me.Type
	}
	return ""
}

// ExitCode extracts the engine exit code, or 0 when err carries none
func ExitCode(err error) int {
	var me *MediaError
	if errors.As(err, &me) {
		return me.ExitCode
	}
	return 0
}

// IsProbeError reports whether err came from reading or describing a file
func IsProbeError(err error) bool {
	return GetType(err) == ErrorTypeProbe
}

// IsConversionError reports whether err came from running the engine
func IsConversionError(err error) bool {
	t := GetType(err)
	return t == ErrorTypeLaunch || t == ErrorTypeProcess
}

// IsFatal reports whether err must stop any conversion from starting
func IsFatal(err error) bool {
	return errors.Is(err, ErrBinaryNotFound)
}

// UserMessage renders err as a message distinguishing unreadable files,
// failed conversions and missing tools.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var me *MediaError
	if !errors.As(err, &me) {
		return err.Error()
	}

	switch me.Type {
	case ErrorTypeBinary:
		if name, ok := me.Details["binary"]; ok {
			return fmt.Sprintf("required tool %v is missing", name)
		}
		return "required tool is missing"
	case ErrorTypeProbe:
		if me.Path != "" {
			return fmt.Sprintf("could not read %s", me.Path)
		}
		return "file could not be read"
	case ErrorTypeProcess:
		return fmt.Sprintf("conversion exited with code %d", me.ExitCode)
	case ErrorTypeLaunch:
		return fmt.Sprintf("conversion could not start: %v", me.Err)
	case ErrorTypeValidation:
		return fmt.Sprintf("invalid options: %v", me.Err)
	case ErrorTypeCancelled:
		return "conversion cancelled"
	default:
		return me.Error()
	}
}
