package stereo

import (
	"errors"
	"fmt"
)

// ErrorCode is a camera status. It is the human-readable vocabulary printed
// after init and attached to backend errors.
type ErrorCode int

const (
	CodeSuccess ErrorCode = iota
	CodeCameraNotDetected
	CodeInvalidResolution
	CodeInvalidSVOFile
	CodeCorruptedFrame
	CodeEndOfFile
	CodeMeasureNotAvailable
	CodeNotInitialized
	CodeFailure
)

var codeNames = map[ErrorCode]string{
	CodeSuccess:             "SUCCESS",
	CodeCameraNotDetected:   "CAMERA NOT DETECTED",
	CodeInvalidResolution:   "INVALID RESOLUTION",
	CodeInvalidSVOFile:      "INVALID SVO FILE",
	CodeCorruptedFrame:      "CORRUPTED FRAME",
	CodeEndOfFile:           "END OF SVO FILE",
	CodeMeasureNotAvailable: "MEASURE NOT AVAILABLE",
	CodeNotInitialized:      "CAMERA NOT INITIALIZED",
	CodeFailure:             "ERROR",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN ERROR (%d)", int(c))
}

// Error implements error so a bare code can be returned or wrapped.
func (c ErrorCode) Error() string {
	return c.String()
}

// Sentinel errors for the common statuses.
var (
	ErrEndOfFile           = CodeEndOfFile
	ErrMeasureNotAvailable = CodeMeasureNotAvailable
	ErrNotInitialized      = CodeNotInitialized
)

// Code extracts the status code from err. nil is CodeSuccess and an error
// carrying no code is CodeFailure.
func Code(err error) ErrorCode {
	if err == nil {
		return CodeSuccess
	}
	var c ErrorCode
	if errors.As(err, &c) {
		return c
	}
	return CodeFailure
}

// codeError attaches a status code to a lower-level cause.
type codeError struct {
	code  ErrorCode
	cause error
}

func (e *codeError) Error() string {
	return fmt.Sprintf("%s: %v", e.code, e.cause)
}

func (e *codeError) Unwrap() []error {
	return []error{e.code, e.cause}
}

// WithCode wraps cause so that Code(err) reports code and errors.Is still
// matches the cause.
func WithCode(code ErrorCode, cause error) error {
	if cause == nil {
		return code
	}
	return &codeError{code: code, cause: cause}
}
