package errors

import (
	stderrors "errors"
	"fmt"
	"syscall"
)

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorProtocol
	ErrorInvalidArgument
)

// TransportError represents transport-layer specific errors
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorSocketCreateFailure
	TransportErrorSocketConnectFailure
	TransportErrorSocketReadFailure
	TransportErrorSocketWriteFailure
	TransportErrorConnectionClosed
	TransportErrorTimeout
	TransportErrorNotConnected
	TransportErrorUnsupported
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
)

func (e TransportError) String() string {
	switch e {
	case TransportErrorNone:
		return "no error"
	case TransportErrorSocketCreateFailure:
		return "socket creation failed"
	case TransportErrorSocketConnectFailure:
		return "socket connection failed"
	case TransportErrorSocketReadFailure:
		return "socket read failed"
	case TransportErrorSocketWriteFailure:
		return "socket write failed"
	case TransportErrorConnectionClosed:
		return "connection closed"
	case TransportErrorTimeout:
		return "timed out"
	case TransportErrorNotConnected:
		return "not connected"
	case TransportErrorUnsupported:
		return "unsupported"
	case TransportErrorIoUringInit:
		return "io_uring init failed"
	case TransportErrorIoUringSubmit:
		return "io_uring submit failed"
	default:
		return fmt.Sprintf("unknown transport error: %d", int(e))
	}
}

// ProtocolError represents protocol-layer specific errors
type ProtocolError int

const (
	ProtocolErrorNone ProtocolError = iota
	ProtocolErrorInvalidStatusLine
	ProtocolErrorInvalidHeader
	ProtocolErrorInvalidChunkedEncoding
	ProtocolErrorMessageTooLarge
	ProtocolErrorIncompleteResponse
)

// Codes outside the errno range. Positive codes are OS error numbers
// passed through verbatim; a timeout carries ETIMEDOUT.
const (
	CodeSuccess     = 0
	CodeEndOfStream = -1
	CodeOther       = -2
)

// SocketError is the error type returned by every package in this module.
// Code holds the numeric error domain: 0, an errno, or one of the
// negative Code constants.
type SocketError struct {
	Type          ErrorType
	TransportErr  TransportError
	ProtocolErr   ProtocolError
	Code          int
	Message       string
	UnderlyingErr error
}

// Sentinels for errors.Is. A sentinel with a zero Code matches any code
// of the same kind.
var (
	ErrTimeout = &SocketError{
		Type:         ErrorTransport,
		TransportErr: TransportErrorTimeout,
		Code:         int(syscall.ETIMEDOUT),
	}
	ErrEndOfStream = &SocketError{
		Type:         ErrorTransport,
		TransportErr: TransportErrorConnectionClosed,
		Code:         CodeEndOfStream,
	}
	ErrNotConnected = &SocketError{
		Type:         ErrorTransport,
		TransportErr: TransportErrorNotConnected,
		Code:         int(syscall.EBADF),
	}
	ErrUnsupported = &SocketError{
		Type:         ErrorTransport,
		TransportErr: TransportErrorUnsupported,
	}
)

// Error implements the error interface
func (e *SocketError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorTransport:
		typeStr = fmt.Sprintf("transport error: %s", e.TransportErr)
	case ErrorProtocol:
		typeStr = fmt.Sprintf("protocol error (%d)", e.ProtocolErr)
	case ErrorInvalidArgument:
		typeStr = "invalid argument"
	default:
		typeStr = "unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *SocketError) Unwrap() error {
	return e.UnderlyingErr
}

// Is reports whether target is a SocketError of the same kind.
func (e *SocketError) Is(target error) bool {
	t, ok := target.(*SocketError)
	if !ok || e == nil || t == nil {
		return false
	}
	if t.Type != e.Type || t.TransportErr != e.TransportErr || t.ProtocolErr != e.ProtocolErr {
		return false
	}
	return t.Code == 0 || t.Code == e.Code
}

// NewTransportError creates a new transport error. The numeric code is
// taken from underlying when it is an errno; a ConnectionClosed error
// without a cause is an end-of-stream.
func NewTransportError(err TransportError, message string, underlying error) *SocketError {
	code := codeOf(underlying)
	switch {
	case err == TransportErrorTimeout && code == CodeOther:
		code = int(syscall.ETIMEDOUT)
	case err == TransportErrorConnectionClosed && underlying == nil:
		code = CodeEndOfStream
	case err == TransportErrorNotConnected && code == CodeOther:
		code = int(syscall.EBADF)
	}
	return &SocketError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Code:          code,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewProtocolError creates a new protocol error
func NewProtocolError(err ProtocolError, message string) *SocketError {
	return &SocketError{
		Type:        ErrorProtocol,
		ProtocolErr: err,
		Code:        CodeOther,
		Message:     message,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string) *SocketError {
	return &SocketError{
		Type:    ErrorInvalidArgument,
		Code:    int(syscall.EINVAL),
		Message: message,
	}
}

// Code maps err onto the numeric error domain: 0 for nil, the errno for
// OS errors, CodeEndOfStream when the peer closed, CodeOther otherwise.
func Code(err error) int {
	if err == nil {
		return CodeSuccess
	}
	var se *SocketError
	if stderrors.As(err, &se) {
		if se.Code != CodeSuccess {
			return se.Code
		}
		return CodeOther
	}
	return codeOf(err)
}

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool {
	return stderrors.Is(err, ErrTimeout)
}

// IsEndOfStream reports whether err means the peer closed the connection.
func IsEndOfStream(err error) bool {
	return stderrors.Is(err, ErrEndOfStream)
}

func codeOf(err error) int {
	var errno syscall.Errno
	if err != nil && stderrors.As(err, &errno) && errno != 0 {
		return int(errno)
	}
	return CodeOther
}
