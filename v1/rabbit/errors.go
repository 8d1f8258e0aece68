package rabbit

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Common RabbitMQ error types. TranslateError maps AMQP, network and
// syscall errors onto them.
var (
	// ErrSessionRequired is returned by NewClient without an envelope session
	ErrSessionRequired = errors.New("rabbit: envelope session is required")

	// ErrNotConnected is returned when no channel is open
	ErrNotConnected = errors.New("rabbit: not connected")

	ErrConnectionFailed     = errors.New("connection failed")
	ErrConnectionLost       = errors.New("connection lost")
	ErrConnectionClosed     = errors.New("connection closed")
	ErrChannelClosed        = errors.New("channel closed")
	ErrChannelError         = errors.New("channel error")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrAccessDenied         = errors.New("access denied")
	ErrVirtualHostNotFound  = errors.New("virtual host not found")
	ErrExchangeNotFound     = errors.New("exchange not found")
	ErrQueueNotFound        = errors.New("queue not found")
	ErrResourceLocked       = errors.New("resource locked")
	ErrPreconditionFailed   = errors.New("precondition failed")
	ErrMessageTooLarge      = errors.New("message too large")
	ErrPublishFailed        = errors.New("publish failed")
	ErrNotAllowed           = errors.New("not allowed")
	ErrNotImplemented       = errors.New("not implemented")
	ErrInternalError        = errors.New("internal error")
	ErrResourceError        = errors.New("resource error")
	ErrFrameError           = errors.New("frame error")
	ErrTimeout              = errors.New("timeout")
	ErrNetworkError         = errors.New("network error")
	ErrTLSError             = errors.New("TLS error")
	ErrCancelled            = errors.New("operation cancelled")
	ErrUnknownError         = errors.New("unknown error")
)

// TranslateError converts AMQP/RabbitMQ-specific errors into the errors above.
// Errors from the envelope layer are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, amqp.ErrClosed) {
		return ErrChannelClosed
	}

	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		return translateAMQPError(amqpErr)
	}

	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		return translateSyscallError(syscallErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetworkError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "tls"), strings.Contains(msg, "certificate"):
		return ErrTLSError
	case strings.Contains(msg, "connection refused"):
		return ErrConnectionFailed
	}
	return err
}

// translateAMQPError maps AMQP reply codes
func translateAMQPError(amqpErr *amqp.Error) error {
	switch amqpErr.Code {
	case amqp.ConnectionForced:
		return ErrConnectionClosed
	case amqp.InvalidPath:
		return ErrVirtualHostNotFound
	case amqp.AccessRefused:
		if strings.Contains(strings.ToLower(amqpErr.Reason), "login") {
			return ErrAuthenticationFailed
		}
		return ErrAccessDenied
	case amqp.NotFound:
		reason := strings.ToLower(amqpErr.Reason)
		switch {
		case strings.Contains(reason, "exchange"):
			return ErrExchangeNotFound
		case strings.Contains(reason, "queue"):
			return ErrQueueNotFound
		}
		return ErrVirtualHostNotFound
	case amqp.ResourceLocked:
		return ErrResourceLocked
	case amqp.PreconditionFailed:
		return ErrPreconditionFailed
	case amqp.ContentTooLarge:
		return ErrMessageTooLarge
	case amqp.NoRoute, amqp.NoConsumers:
		return ErrPublishFailed
	case amqp.ChannelError:
		return ErrChannelError
	case amqp.ResourceError:
		return ErrResourceError
	case amqp.NotAllowed:
		return ErrNotAllowed
	case amqp.NotImplemented:
		return ErrNotImplemented
	case amqp.InternalError:
		return ErrInternalError
	case amqp.FrameError, amqp.SyntaxError, amqp.CommandInvalid, amqp.UnexpectedFrame:
		return ErrFrameError
	default:
		return ErrUnknownError
	}
}

func translateSyscallError(errno syscall.Errno) error {
	switch errno {
	case syscall.ECONNREFUSED:
		return ErrConnectionFailed
	case syscall.ECONNRESET, syscall.ECONNABORTED, syscall.EPIPE, syscall.ENOTCONN:
		return ErrConnectionLost
	case syscall.ETIMEDOUT:
		return ErrTimeout
	case syscall.EACCES, syscall.EPERM:
		return ErrAccessDenied
	default:
		return ErrNetworkError
	}
}

// IsRetryableError reports whether a reconnect or a later retry may succeed.
func IsRetryableError(err error) bool {
	switch TranslateError(err) {
	case ErrConnectionFailed, ErrConnectionLost, ErrConnectionClosed,
		ErrChannelClosed, ErrChannelError, ErrTimeout, ErrNetworkError,
		ErrResourceLocked, ErrResourceError, ErrInternalError:
		return true
	}
	return false
}

// IsConnectionError reports whether err means the connection or channel is gone.
func IsConnectionError(err error) bool {
	switch TranslateError(err) {
	case ErrConnectionFailed, ErrConnectionLost, ErrConnectionClosed, ErrChannelClosed, ErrNotConnected:
		return true
	}
	return errors.Is(err, ErrNotConnected)
}
