package inspector

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DialConfig holds the network settings shared by every TLS handshake
// Fields are ordered for optimal memory alignment
type DialConfig struct {
	// RootCAs overrides the system trust store when set
	RootCAs          *x509.CertPool
	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
	Port             int
	VerifyChain      bool
}

// DefaultDialConfig returns the settings used when nothing is configured
func DefaultDialConfig() DialConfig {
	return DialConfig{
		Port:             443,
		DialTimeout:      5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		VerifyChain:      true,
	}
}

func (c DialConfig) address(domain DomainName) string {
	return net.JoinHostPort(domain.String(), strconv.Itoa(c.Port))
}

// handshake opens a TCP connection to domain and completes a TLS client
// handshake. The caller owns the returned connection.
func (c DialConfig) handshake(ctx context.Context, domain DomainName) (*tls.Conn, error) {
	dialer := &net.Dialer{Timeout: c.DialTimeout}

	rawConn, err := dialer.DialContext(ctx, "tcp", c.address(domain))
	if err != nil {
		return nil, classifyDialError(domain, err)
	}

	// crypto/tls omits SNI for IP literals but still verifies against IP SANs
	tlsConfig := &tls.Config{
		ServerName:         domain.String(),
		RootCAs:            c.RootCAs,
		InsecureSkipVerify: !c.VerifyChain, //nolint:gosec // verification can be disabled to inspect self-signed certificates
		MinVersion:         tls.VersionTLS10,
	}

	hsCtx := ctx
	if c.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		hsCtx, cancel = context.WithTimeout(ctx, c.HandshakeTimeout)
		defer cancel()
	}

	conn := tls.Client(rawConn, tlsConfig)
	if err := conn.HandshakeContext(hsCtx); err != nil {
		_ = rawConn.Close()
		return nil, classifyHandshakeError(domain, err)
	}

	return conn, nil
}

// tlsVersionName returns the OpenSSL style label for a TLS version
func tlsVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLSv1.0"
	case tls.VersionTLS11:
		return "TLSv1.1"
	case tls.VersionTLS12:
		return "TLSv1.2"
	case tls.VersionTLS13:
		return "TLSv1.3"
	}
	return fmt.Sprintf("unknown(0x%04x)", version)
}
