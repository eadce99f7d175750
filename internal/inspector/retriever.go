package inspector

import (
	"context"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Retriever fetches the leaf certificate of a domain and memoizes the
// result in a Cache.
type Retriever struct {
	cache  Cache
	logger *zap.Logger
	dial   DialConfig
}

// NewRetriever creates a Retriever. A nil cache gets a fresh MemoryCache.
func NewRetriever(dial DialConfig, cache Cache, logger *zap.Logger) *Retriever {
	if cache == nil {
		cache = NewMemoryCache(0)
	}
	return &Retriever{
		dial:   dial,
		cache:  cache,
		logger: logger,
	}
}

// Cache returns the cache backing the retriever
func (r *Retriever) Cache() Cache {
	return r.cache
}

// Retrieve returns the certificate record for domain. The first successful
// result for a domain is kept for as long as the cache holds it, even if
// the server later presents a different certificate.
func (r *Retriever) Retrieve(ctx context.Context, domain DomainName) (CertificateRecord, error) {
	if rec, ok := r.cache.Get(ctx, domain); ok {
		CacheLookupsTotal.WithLabelValues("hit").Inc()
		r.logger.Debug("certificate cache hit", zap.String("domain", domain.String()))
		return rec, nil
	}
	CacheLookupsTotal.WithLabelValues("miss").Inc()

	rec, err := r.Fetch(ctx, domain)
	if err != nil {
		return CertificateRecord{}, err
	}

	stored, inserted := r.cache.Put(ctx, domain, rec)
	if !inserted {
		r.logger.Debug("certificate cache already filled by concurrent retrieve",
			zap.String("domain", domain.String()),
		)
	}
	return stored, nil
}

// Fetch performs the handshake and builds a record without touching the cache
func (r *Retriever) Fetch(ctx context.Context, domain DomainName) (CertificateRecord, error) {
	start := time.Now()
	conn, err := r.dial.handshake(ctx, domain)
	HandshakeDuration.WithLabelValues("retriever").Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Debug("certificate retrieval failed",
			zap.String("domain", domain.String()),
			zap.Int("port", r.dial.Port),
			zap.Error(err),
		)
		return CertificateRecord{}, err
	}
	defer conn.Close()

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return CertificateRecord{}, newError(KindHandshake, domain, fmt.Errorf("no certificates received"))
	}

	rec := NewCertificateRecord(domain, state.PeerCertificates[0])

	r.logger.Debug("certificate retrieved",
		zap.String("domain", domain.String()),
		zap.String("issuer", rec.Issuer),
		zap.String("valid_to", rec.ValidTo),
		zap.Bool("self_signed", rec.IsSelfSigned),
	)

	return rec, nil
}

// NewCertificateRecord extracts the record fields from a leaf certificate
func NewCertificateRecord(domain DomainName, cert *x509.Certificate) CertificateRecord {
	issuerOrg := UnknownIssuer
	if len(cert.Issuer.Organization) > 0 && cert.Issuer.Organization[0] != "" {
		issuerOrg = cert.Issuer.Organization[0]
	}

	return CertificateRecord{
		Domain:       domain,
		Issuer:       issuerOrg,
		ValidFrom:    FormatCertTime(cert.NotBefore),
		ValidTo:      FormatCertTime(cert.NotAfter),
		SerialNumber: formatSerial(cert),
		IsSelfSigned: IsSelfSigned(cert),
	}
}

// IsSelfSigned reports whether the issuer and subject carry exactly the
// same attributes, regardless of their order.
func IsSelfSigned(cert *x509.Certificate) bool {
	return attributesEqual(attributeSet(cert.Issuer), attributeSet(cert.Subject))
}

// attributeSet maps each attribute OID to its sorted values
func attributeSet(name pkix.Name) map[string][]string {
	set := make(map[string][]string, len(name.Names))
	for _, atv := range name.Names {
		oid := atv.Type.String()
		set[oid] = append(set[oid], fmt.Sprint(atv.Value))
	}
	for oid := range set {
		slices.Sort(set[oid])
	}
	return set
}

func attributesEqual(a, b map[string][]string) bool {
	return maps.EqualFunc(a, b, slices.Equal[[]string])
}

// formatSerial renders the serial as even-length upper-case hex
func formatSerial(cert *x509.Certificate) string {
	if cert.SerialNumber == nil {
		return NoSerial
	}
	serial := strings.ToUpper(cert.SerialNumber.Text(16))
	if len(serial)%2 == 1 {
		serial = "0" + serial
	}
	return serial
}
