package cdrs

import (
	"fmt"

	"github.com/pkg/errors"
)

// ServerError carries a CQL error code and message returned by a
// coordinator, as described by spec section 7. Code is one of the
// well-known ErrorCode constants below, though unrecognized codes are
// preserved verbatim.
type ServerError struct {
	Code    ErrorCode
	Message string
	// Detail holds any code-specific payload parsed from the body (e.g. the
	// consistency/required/alive triple for UNAVAILABLE), or nil.
	Detail any
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("cdrs: server error %s (0x%04x): %s", e.Code, uint16(e.Code), e.Message)
}

// ErrorCode is the 4-byte CQL server error code.
type ErrorCode uint32

const (
	ErrorServerError       ErrorCode = 0x0000
	ErrorProtocolError     ErrorCode = 0x000A
	ErrorBadCredentials    ErrorCode = 0x0100
	ErrorUnavailable       ErrorCode = 0x1000
	ErrorOverloaded        ErrorCode = 0x1001
	ErrorIsBootstrapping   ErrorCode = 0x1002
	ErrorTruncateError     ErrorCode = 0x1003
	ErrorWriteTimeout      ErrorCode = 0x1100
	ErrorReadTimeout       ErrorCode = 0x1200
	ErrorReadFailure       ErrorCode = 0x1300
	ErrorFunctionFailure   ErrorCode = 0x1400
	ErrorWriteFailure      ErrorCode = 0x1500
	ErrorSyntaxError       ErrorCode = 0x2000
	ErrorUnauthorized      ErrorCode = 0x2100
	ErrorInvalid           ErrorCode = 0x2200
	ErrorConfigError       ErrorCode = 0x2300
	ErrorAlreadyExists     ErrorCode = 0x2400
	ErrorUnprepared        ErrorCode = 0x2500
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorServerError:
		return "SERVER_ERROR"
	case ErrorProtocolError:
		return "PROTOCOL_ERROR"
	case ErrorBadCredentials:
		return "BAD_CREDENTIALS"
	case ErrorUnavailable:
		return "UNAVAILABLE"
	case ErrorOverloaded:
		return "OVERLOADED"
	case ErrorIsBootstrapping:
		return "IS_BOOTSTRAPPING"
	case ErrorTruncateError:
		return "TRUNCATE_ERROR"
	case ErrorWriteTimeout:
		return "WRITE_TIMEOUT"
	case ErrorReadTimeout:
		return "READ_TIMEOUT"
	case ErrorReadFailure:
		return "READ_FAILURE"
	case ErrorFunctionFailure:
		return "FUNCTION_FAILURE"
	case ErrorWriteFailure:
		return "WRITE_FAILURE"
	case ErrorSyntaxError:
		return "SYNTAX_ERROR"
	case ErrorUnauthorized:
		return "UNAUTHORIZED"
	case ErrorInvalid:
		return "INVALID"
	case ErrorConfigError:
		return "CONFIG_ERROR"
	case ErrorAlreadyExists:
		return "ALREADY_EXISTS"
	case ErrorUnprepared:
		return "UNPREPARED"
	default:
		return fmt.Sprintf("UNKNOWN(0x%04x)", uint32(c))
	}
}

// IsUnprepared reports whether err is a ServerError carrying the UNPREPARED
// code, unwrapping through any github.com/pkg/errors wrapping.
func IsUnprepared(err error) bool {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Code == ErrorUnprepared
	}
	return false
}

// TransportError wraps a socket or TLS failure: a read/write that failed,
// an unexpected EOF, or a handshake timeout.
type TransportError struct {
	Addr string
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cdrs: transport error on %s during %s: %v", e.Addr, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func newTransportError(addr, op string, err error) *TransportError {
	return &TransportError{Addr: addr, Op: op, Err: err}
}

// ProtocolError indicates a malformed frame, unknown opcode, invalid flag
// combination, unrecognized compression tag, or a stream id without a
// waiter that was not an event frame. A connection that produces one is
// never reused.
type ProtocolError struct {
	Context string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("cdrs: protocol error: %s: %v", e.Context, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func newProtocolError(context string, err error) *ProtocolError {
	return &ProtocolError{Context: context, Err: err}
}

// HandshakeError indicates the server rejected STARTUP or authentication.
type HandshakeError struct {
	Stage string
	Err   error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("cdrs: handshake failed during %s: %v", e.Stage, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

func newHandshakeError(stage string, err error) *HandshakeError {
	return &HandshakeError{Stage: stage, Err: err}
}

// ErrExhausted is returned when every candidate node in a load-balanced
// rotation refused a request.
var ErrExhausted = errors.New("cdrs: no candidate node accepted the request")

// ErrBrokerDead is returned by a ConnectionManager that has been
// permanently stopped (session closed).
var ErrBrokerDead = errors.New("cdrs: connection manager is closed")

// ErrConnDead indicates the underlying transport died mid-flight; the
// caller's retry policy decides what happens next.
var ErrConnDead = errors.New("cdrs: transport connection is dead")

// ErrTransportClosed is delivered to every outstanding waiter when a
// transport is torn down, whether due to an I/O error or explicit Close.
var ErrTransportClosed = errors.New("cdrs: transport closed")

// InternalError indicates an invariant was violated — a bug in the driver,
// not a server or network condition.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "cdrs: internal error: " + e.Msg }

func newInternalError(format string, args ...any) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}

// wrapf is a thin alias over pkg/errors so call sites read uniformly; it
// attaches a stack trace the first time an error crosses a package
// boundary.
func wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
