// Package inspector connects to a domain over TLS, extracts the leaf
// certificate and negotiated cipher, correlates Certificate Transparency
// history and assembles a ScanReport.
package inspector

import (
	"encoding/json"
	"time"
)

// Placeholders used when a certificate omits a field
const (
	UnknownIssuer = "Unknown"
	NoSerial      = "N/A"
)

// CertificateRecord is the result of one TLS handshake against a domain.
// It is never modified after creation.
type CertificateRecord struct {
	Domain       DomainName `json:"domain"`
	Issuer       string     `json:"issuer"`
	ValidFrom    string     `json:"valid_from"`
	ValidTo      string     `json:"valid_to"`
	SerialNumber string     `json:"serial_number"`
	IsSelfSigned bool       `json:"is_self_signed"`
}

// CipherAssessment describes the negotiated cipher suite of a session
// Fields are ordered for optimal memory alignment
type CipherAssessment struct {
	CipherName string `json:"cipher_name"`
	Protocol   string `json:"protocol"`
	Bits       int    `json:"bits"`
	IsWeak     bool   `json:"is_weak"`
}

// Warning flags a security relevant condition found during a scan
type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Warning types
const (
	WarningSelfSigned   = "self_signed"
	WarningWeakCipher   = "weak_cipher"
	WarningExpiringSoon = "expiring_soon"
	WarningExpired      = "expired"
)

// ScanReport is the canonical output of a scan
// Fields are ordered for optimal memory alignment
type ScanReport struct {
	ScanTime      time.Time         `json:"scan_time"`
	Cipher        *CipherAssessment `json:"cipher"`
	DaysRemaining *int              `json:"days_remaining,omitempty"`
	Domain        DomainName        `json:"domain"`
	ExpiryStatus  ExpiryStatus      `json:"expiry_status"`
	Warnings      []Warning         `json:"warnings,omitempty"`
	Certificate   CertificateRecord `json:"certificate"`
	CTLogEntries  int               `json:"ct_log_entries"`
}

// HasWarning reports whether the report carries a warning of the given type
func (r *ScanReport) HasWarning(warningType string) bool {
	for _, w := range r.Warnings {
		if w.Type == warningType {
			return true
		}
	}
	return false
}

// MarshalJSON keeps the documented key order: domain, certificate, cipher,
// ct_log_entries, scan_time, then the derived fields.
func (r ScanReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Domain        DomainName        `json:"domain"`
		Certificate   CertificateRecord `json:"certificate"`
		Cipher        *CipherAssessment `json:"cipher"`
		CTLogEntries  int               `json:"ct_log_entries"`
		ScanTime      string            `json:"scan_time"`
		DaysRemaining *int              `json:"days_remaining,omitempty"`
		ExpiryStatus  ExpiryStatus      `json:"expiry_status"`
		Warnings      []Warning         `json:"warnings,omitempty"`
	}{
		Domain:        r.Domain,
		Certificate:   r.Certificate,
		Cipher:        r.Cipher,
		CTLogEntries:  r.CTLogEntries,
		ScanTime:      r.ScanTime.UTC().Format(time.RFC3339Nano),
		DaysRemaining: r.DaysRemaining,
		ExpiryStatus:  r.ExpiryStatus,
		Warnings:      r.Warnings,
	})
}
