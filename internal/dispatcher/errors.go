package dispatcher

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Kind separates transport failures for diagnostics. Every kind routes the
// record to the failure channel.
type Kind string

const (
	KindEncoding   Kind = "encoding"
	KindConnection Kind = "connection"
	KindProtocol   Kind = "protocol"
)

func (k Kind) String() string { return string(k) }

// Error is the typed failure returned inside a Result.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a dispatch error, or "" when err is not one.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// classify maps an error from http.Client.Do onto a Kind.
func classify(err error) Kind {
	var (
		dnsErr *net.DNSError
		opErr  *net.OpError
		netErr net.Error
	)
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return KindConnection
	case errors.As(err, &dnsErr):
		return KindConnection
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return KindConnection
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindConnection
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindConnection
	default:
		return KindProtocol
	}
}
