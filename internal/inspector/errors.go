package inspector

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
)

// Kind identifies the class of a scan failure
type Kind string

// Failure kinds
const (
	KindConnection    Kind = "connection_error"
	KindHandshake     Kind = "handshake_error"
	KindTimeout       Kind = "timeout"
	KindDateParse     Kind = "date_parse_error"
	KindRemoteAPI     Kind = "remote_api_error"
	KindInvalidDomain Kind = "invalid_domain"
)

// Sentinel errors for use with errors.Is
var (
	ErrConnection    = errors.New("connection error")
	ErrHandshake     = errors.New("handshake error")
	ErrTimeout       = errors.New("timeout")
	ErrDateParse     = errors.New("date parse error")
	ErrRemoteAPI     = errors.New("remote API error")
	ErrInvalidDomain = errors.New("invalid domain")
)

var sentinels = map[Kind]error{
	KindConnection:    ErrConnection,
	KindHandshake:     ErrHandshake,
	KindTimeout:       ErrTimeout,
	KindDateParse:     ErrDateParse,
	KindRemoteAPI:     ErrRemoteAPI,
	KindInvalidDomain: ErrInvalidDomain,
}

// ScanError is returned by every failing inspector operation. It always
// names the failure kind and, when known, the domain involved.
type ScanError struct {
	Err    error
	Kind   Kind
	Domain DomainName
}

func newError(kind Kind, domain DomainName, err error) *ScanError {
	return &ScanError{Kind: kind, Domain: domain, Err: err}
}

func (e *ScanError) Error() string {
	if e.Domain == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Domain, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the same kind
func (e *ScanError) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf returns the kind of err, or "" when err is not a ScanError
func KindOf(err error) Kind {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// classifyDialError maps a TCP dial failure to connection or timeout
func classifyDialError(domain DomainName, err error) *ScanError {
	if isTimeout(err) {
		return newError(KindTimeout, domain, fmt.Errorf("connect: %w", err))
	}
	return newError(KindConnection, domain, err)
}

// classifyHandshakeError maps a TLS handshake failure to handshake or timeout
func classifyHandshakeError(domain DomainName, err error) *ScanError {
	var (
		certErr    *tls.CertificateVerificationError
		unknownErr x509.UnknownAuthorityError
		hostErr    x509.HostnameError
	)
	switch {
	case errors.As(err, &certErr), errors.As(err, &unknownErr), errors.As(err, &hostErr):
		return newError(KindHandshake, domain, err)
	case isTimeout(err):
		return newError(KindTimeout, domain, fmt.Errorf("handshake: %w", err))
	}
	return newError(KindHandshake, domain, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
