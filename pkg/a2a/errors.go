package a2a

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// FailureKind classifies a client-side failure for retry decisions and
// metrics labels.
type FailureKind string

const (
	// Retryable kinds.
	FailureUnavailable FailureKind = "unavailable"
	FailureThrottled   FailureKind = "throttled"
	FailureTimeout     FailureKind = "timeout"

	// Non-retryable kinds.
	FailureHTTP     FailureKind = "http"
	FailureProtocol FailureKind = "protocol"
	FailureAgent    FailureKind = "agent"
)

func (k FailureKind) Retryable() bool {
	switch k {
	case FailureUnavailable, FailureThrottled, FailureTimeout:
		return true
	}
	return false
}

// ClientError is the error surface of the A2A client. Code and Data are
// populated when the failure came back as a JSON-RPC error envelope.
type ClientError struct {
	Peer    string
	Kind    FailureKind
	Code    int
	Message string
	Data    any
	cause   error
}

func (e *ClientError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("a2a: %s: %s (%d): %s", e.Peer, e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("a2a: %s: %s: %s", e.Peer, e.Kind, e.Message)
}

func (e *ClientError) Unwrap() error { return e.cause }

func newClientError(peer string, kind FailureKind, cause error, msg string) *ClientError {
	return &ClientError{Peer: peer, Kind: kind, Message: msg, cause: cause}
}

// classifyStatus maps an HTTP status code to a failure kind. Gateway and
// availability statuses are retryable; everything else is a plain HTTP
// failure.
func classifyStatus(status int) FailureKind {
	switch status {
	case 429:
		return FailureThrottled
	case 502, 503, 504:
		return FailureUnavailable
	default:
		return FailureHTTP
	}
}

// classifyEnvelope maps a JSON-RPC error code returned by a peer to a
// failure kind. A peer reporting its own downstream as unavailable is
// itself worth retrying; all other envelope errors are deliberate agent
// answers.
func classifyEnvelope(code int) FailureKind {
	if code == ErrCodeAgentUnavailable {
		return FailureUnavailable
	}
	return FailureAgent
}

func asClientError(err error, target **ClientError) bool {
	return errors.As(err, target)
}

// classifyDialError maps a transport-level error to a failure kind.
func classifyDialError(err error) FailureKind {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return FailureTimeout
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return FailureTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return FailureUnavailable
	}
	// Fallback for wrapped errors that do not preserve the syscall value.
	msg := err.Error()
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") {
		return FailureUnavailable
	}
	return FailureProtocol
}
