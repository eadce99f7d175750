package inspector

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MinCipherBits is the weakest acceptable bulk cipher key strength
const MinCipherBits = 128

// brokenCipherMarkers flag cipher names that are weak regardless of key size.
// "DES" also matches 3DES.
var brokenCipherMarkers = []string{"RC4", "DES"}

// cipherBits maps bulk cipher name fragments to effective key strength.
// Order matters: 3DES must be checked before DES.
var cipherBits = []struct {
	marker string
	bits   int
}{
	{"AES_256", 256},
	{"AES_128", 128},
	{"CHACHA20", 256},
	{"3DES", 112},
	{"DES", 56},
	{"RC4_128", 128},
	{"RC4_40", 40},
}

// Analyzer inspects the cipher suite negotiated with a domain
type Analyzer struct {
	logger *zap.Logger
	dial   DialConfig
}

// NewAnalyzer creates an Analyzer
func NewAnalyzer(dial DialConfig, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		dial:   dial,
		logger: logger,
	}
}

// Analyze performs its own handshake with domain and classifies the
// negotiated cipher. Any failure is logged and yields nil.
func (a *Analyzer) Analyze(ctx context.Context, domain DomainName) *CipherAssessment {
	start := time.Now()
	conn, err := a.dial.handshake(ctx, domain)
	HandshakeDuration.WithLabelValues("analyzer").Observe(time.Since(start).Seconds())
	if err != nil {
		a.logger.Warn("cipher check failed",
			zap.String("domain", domain.String()),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
		)
		return nil
	}
	defer conn.Close()

	assessment := AssessConnection(conn.ConnectionState())
	return &assessment
}

// AssessConnection builds a CipherAssessment from a completed handshake
func AssessConnection(state tls.ConnectionState) CipherAssessment {
	name := tls.CipherSuiteName(state.CipherSuite)
	bits := CipherBits(name)

	return CipherAssessment{
		CipherName: name,
		Protocol:   tlsVersionName(state.Version),
		Bits:       bits,
		IsWeak:     ClassifyCipher(name, bits),
	}
}

// CipherBits returns the effective key strength of the bulk cipher named
// in a cipher suite, or 0 when it is unknown or NULL.
func CipherBits(suite string) int {
	upper := strings.ToUpper(suite)
	for _, c := range cipherBits {
		if strings.Contains(upper, c.marker) {
			return c.bits
		}
	}
	return 0
}

// ClassifyCipher reports whether a cipher is weak: it names a broken
// algorithm or its key strength is below MinCipherBits.
func ClassifyCipher(name string, bits int) bool {
	upper := strings.ToUpper(name)
	for _, marker := range brokenCipherMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return bits < MinCipherBits
}
